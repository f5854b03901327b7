package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketHeat/internal/domain/models"
	"MarketHeat/internal/engine"
)

type fakeSource struct {
	series []models.Series
	err    error
}

func (f *fakeSource) FetchAll(ctx context.Context) ([]models.Series, error) {
	return f.series, f.err
}

type fakeStore struct {
	observed  int
	replaced  []models.ResultRow
	replaceOK bool
	storeErr  error
}

func (f *fakeStore) Init(ctx context.Context) error { return nil }
func (f *fakeStore) StoreObservations(ctx context.Context, series []models.Series) error {
	f.observed = len(series)
	return f.storeErr
}
func (f *fakeStore) ReplaceResults(ctx context.Context, rows []models.ResultRow) error {
	f.replaced = rows
	f.replaceOK = true
	return nil
}
func (f *fakeStore) QueryResults(ctx context.Context, from, to time.Time, limit int) ([]models.ResultRow, error) {
	return f.replaced, nil
}
func (f *fakeStore) Health(ctx context.Context) error { return nil }
func (f *fakeStore) Close() error                     { return nil }

type fakeCache struct {
	table  *models.TablePayload
	latest *models.LatestRecord
}

func (f *fakeCache) PutTable(ctx context.Context, p models.TablePayload) error {
	f.table = &p
	return nil
}
func (f *fakeCache) GetTable(ctx context.Context) (models.TablePayload, bool, error) {
	if f.table == nil {
		return models.TablePayload{}, false, nil
	}
	return *f.table, true, nil
}
func (f *fakeCache) PutLatest(ctx context.Context, rec models.LatestRecord) error {
	f.latest = &rec
	return nil
}
func (f *fakeCache) GetLatest(ctx context.Context) (models.LatestRecord, bool, error) {
	if f.latest == nil {
		return models.LatestRecord{}, false, nil
	}
	return *f.latest, true, nil
}

type fakePublisher struct {
	published []models.LatestRecord
	closed    bool
}

func (f *fakePublisher) PublishLatest(ctx context.Context, rec models.LatestRecord) error {
	f.published = append(f.published, rec)
	return nil
}
func (f *fakePublisher) Close() error {
	f.closed = true
	return nil
}

type fakeMetrics struct {
	stages    map[string]float64
	rows      int
	lastIndex float64
}

func (f *fakeMetrics) RecordRunDuration(stage string, seconds float64) {
	if f.stages == nil {
		f.stages = make(map[string]float64)
	}
	f.stages[stage] = seconds
}
func (f *fakeMetrics) RecordRowsComputed(n int)        { f.rows = n }
func (f *fakeMetrics) RecordFetchError(series string)  {}
func (f *fakeMetrics) RecordLastIndex(value float64)   { f.lastIndex = value }
func (f *fakeMetrics) RecordSignal(active bool)        {}

func day(n int) time.Time {
	return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func seriesOf(name models.SeriesName, vals ...float64) models.Series {
	s := models.Series{Name: name}
	for i, v := range vals {
		s.Points = append(s.Points, models.Point{Date: day(i), Value: v})
	}
	return s
}

func fixtureSeries() []models.Series {
	return []models.Series{
		seriesOf(models.SeriesClose, 100, 103.2, 101.1),
		seriesOf(models.SeriesReturn, 0.004, 0.032, -0.020),
		seriesOf(models.SeriesTurnoverLog, 23.1, 23.8, 23.4),
		seriesOf(models.SeriesTurnoverRate, 0.011, 0.019, 0.014),
		seriesOf(models.SeriesAmplitude, 1.2, 2.7, 1.9),
		seriesOf(models.SeriesMarginLog, 27.3, 27.9, 27.5),
		seriesOf(models.SeriesSearchLog, 8.1, 8.4, 8.9),
		seriesOf(models.SeriesPETTM, 12.4, 13.6, 12.9),
	}
}

func tinyEngine(t *testing.T) *engine.Engine {
	t.Helper()
	cfg := engine.DefaultConfig()
	cfg.NormWindow = 3
	cfg.SlowWindow = 3
	cfg.TrendWindow = 0
	cfg.MinPeriods = 1
	cfg.AccelLag = 2
	cfg.MAWindow = 3
	cfg.UpRatioWindow = 3
	cfg.SmoothSpan = 0
	eng, err := engine.New(cfg)
	require.NoError(t, err)
	return eng
}

func TestRunPersistsAndRefreshesSnapshot(t *testing.T) {
	store := &fakeStore{}
	cache := &fakeCache{}
	pub := &fakePublisher{}
	metrics := &fakeMetrics{}

	r := NewRecompute(&fakeSource{series: fixtureSeries()}, store, tinyEngine(t))
	r.SetSnapshotCache(cache)
	r.SetPublisher(pub)
	r.SetMetrics(metrics)

	require.NoError(t, r.Run(context.Background()))

	assert.Equal(t, 8, store.observed)
	require.True(t, store.replaceOK)
	assert.Len(t, store.replaced, 3)

	require.NotNil(t, cache.table)
	assert.Len(t, cache.table.Dates, 3)
	require.NotNil(t, cache.latest)
	assert.Equal(t, day(2).Format(models.DateLayout), cache.latest.Date)

	require.Len(t, pub.published, 1)
	assert.Equal(t, cache.latest.Date, pub.published[0].Date)

	assert.Equal(t, 3, metrics.rows)
	for _, stage := range []string{"fetch", "compute", "store", "total"} {
		assert.Contains(t, metrics.stages, stage)
	}
}

func TestRunAbortsBeforeReplaceOnFetchError(t *testing.T) {
	store := &fakeStore{}
	r := NewRecompute(&fakeSource{err: errors.New("provider down")}, store, tinyEngine(t))

	err := r.Run(context.Background())
	require.Error(t, err)
	assert.False(t, store.replaceOK, "previous table must stay intact")
}

func TestRunAbortsOnRawStoreError(t *testing.T) {
	store := &fakeStore{storeErr: errors.New("clickhouse unavailable")}
	r := NewRecompute(&fakeSource{series: fixtureSeries()}, store, tinyEngine(t))

	err := r.Run(context.Background())
	require.Error(t, err)
	assert.False(t, store.replaceOK)
}

func TestCloseShutsDownPublisher(t *testing.T) {
	pub := &fakePublisher{}
	r := NewRecompute(&fakeSource{series: fixtureSeries()}, &fakeStore{}, tinyEngine(t))
	r.SetPublisher(pub)
	r.Close()
	assert.True(t, pub.closed)
}
