package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketHeat/internal/domain/models"
	xlogger "MarketHeat/pkg/logger"
)

type stubStore struct {
	rows      []models.ResultRow
	healthErr error
	gotLimit  int
	gotFrom   time.Time
}

func (s *stubStore) Init(ctx context.Context) error { return nil }
func (s *stubStore) StoreObservations(ctx context.Context, series []models.Series) error {
	return nil
}
func (s *stubStore) ReplaceResults(ctx context.Context, rows []models.ResultRow) error { return nil }
func (s *stubStore) QueryResults(ctx context.Context, from, to time.Time, limit int) ([]models.ResultRow, error) {
	s.gotLimit = limit
	s.gotFrom = from
	if limit > 0 && limit < len(s.rows) {
		return s.rows[len(s.rows)-limit:], nil
	}
	return s.rows, nil
}
func (s *stubStore) Health(ctx context.Context) error { return s.healthErr }
func (s *stubStore) Close() error                     { return nil }

type stubCache struct {
	table  *models.TablePayload
	latest *models.LatestRecord
}

func (s *stubCache) PutTable(ctx context.Context, p models.TablePayload) error { return nil }
func (s *stubCache) GetTable(ctx context.Context) (models.TablePayload, bool, error) {
	if s.table == nil {
		return models.TablePayload{}, false, nil
	}
	return *s.table, true, nil
}
func (s *stubCache) PutLatest(ctx context.Context, rec models.LatestRecord) error { return nil }
func (s *stubCache) GetLatest(ctx context.Context) (models.LatestRecord, bool, error) {
	if s.latest == nil {
		return models.LatestRecord{}, false, nil
	}
	return *s.latest, true, nil
}

func testRows(n int) []models.ResultRow {
	rows := make([]models.ResultRow, n)
	for i := range rows {
		idx := 50.0 + float64(i)
		sig := idx >= 75
		rows[i] = models.ResultRow{
			Date:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i),
			Factors: map[models.FactorName]*float64{},
			Index:   &idx,
			Signal:  &sig,
			Tier:    models.TierModerate,
		}
	}
	return rows
}

func newHandler(store *stubStore, cache *stubCache) *IndexEchoHandler {
	l, _ := xlogger.New(&xlogger.Config{Level: "error", Format: "console", Output: "stdout"})
	h := NewIndexEchoHandler(l, store)
	if cache != nil {
		h.SetSnapshotCache(cache)
	}
	return h
}

func doRequest(h *IndexEchoHandler, target string) *httptest.ResponseRecorder {
	e := echo.New()
	h.RegisterRoutes(e)
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestTableServesStoredRows(t *testing.T) {
	store := &stubStore{rows: testRows(3)}
	rec := doRequest(newHandler(store, nil), "/api/index/table")

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Status int                 `json:"status"`
		Data   models.TablePayload `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, http.StatusOK, body.Status)
	assert.Equal(t, []string{"2024-01-01", "2024-01-02", "2024-01-03"}, body.Data.Dates)
	assert.Len(t, body.Data.Index, 3)
}

func TestTablePrefersSnapshotWhenUnfiltered(t *testing.T) {
	cached := models.PayloadFromRows(testRows(2))
	store := &stubStore{rows: testRows(5)}
	rec := doRequest(newHandler(store, &stubCache{table: &cached}), "/api/index/table")

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data models.TablePayload `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Len(t, body.Data.Dates, 2, "cache wins for the unfiltered table")
}

func TestTableFilterBypassesSnapshot(t *testing.T) {
	cached := models.PayloadFromRows(testRows(2))
	store := &stubStore{rows: testRows(5)}
	rec := doRequest(newHandler(store, &stubCache{table: &cached}),
		"/api/index/table?from=2024-01-02&limit=10")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 10, store.gotLimit)
	assert.False(t, store.gotFrom.IsZero())
}

func TestTableRejectsBadDate(t *testing.T) {
	rec := doRequest(newHandler(&stubStore{}, nil), "/api/index/table?from=02-01-2024")

	require.Equal(t, http.StatusOK, rec.Code) // envelope carries the real status
	var body struct {
		Status int `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, http.StatusBadRequest, body.Status)
}

func TestLatestWithTrail(t *testing.T) {
	store := &stubStore{rows: testRows(5)}
	rec := doRequest(newHandler(store, nil), "/api/index/latest?n=3")

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data LatestResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "2024-01-05", body.Data.Latest.Date)
	assert.Len(t, body.Data.Trail, 3)
}

func TestLatestServedFromCache(t *testing.T) {
	idx := 81.25
	cachedRec := models.LatestRecord{Date: "2024-02-01", Index: &idx, Tier: models.TierStrongWarning}
	store := &stubStore{}
	rec := doRequest(newHandler(store, &stubCache{latest: &cachedRec}), "/api/index/latest")

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Data LatestResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "2024-02-01", body.Data.Latest.Date)
	assert.Equal(t, 0, store.gotLimit, "store must not be queried on cache hit")
}

func TestLatestEmptyTable(t *testing.T) {
	rec := doRequest(newHandler(&stubStore{}, nil), "/api/index/latest")

	var body struct {
		Status int `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, http.StatusNotFound, body.Status)
}
