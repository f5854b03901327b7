package marketdata

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"MarketHeat/internal/domain/models"
)

func stubProvider(t *testing.T, failMargin bool) *httptest.Server {
	t.Helper()

	primary := []bar{
		{Date: "2024-01-02", High: 102, Low: 99, Close: 100, Amount: 1000, TurnoverRate: 0.011},
		{Date: "2024-01-03", High: 106, Low: 101, Close: 104, Amount: 1500, TurnoverRate: 0.015},
	}
	broad := []bar{
		{Date: "2024-01-02", High: 51, Low: 49, Close: 50, Amount: 500, TurnoverRate: 0.02},
		{Date: "2024-01-03", High: 53, Low: 50, Close: 51, Amount: 700, TurnoverRate: 0.02},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/daily", func(w http.ResponseWriter, r *http.Request) {
		rows := primary
		if r.URL.Query().Get("index") == "broad" {
			rows = broad
		}
		_ = json.NewEncoder(w).Encode(rows)
	})
	mux.HandleFunc("/api/v1/margin", func(w http.ResponseWriter, r *http.Request) {
		if failMargin {
			http.Error(w, "upstream down", http.StatusBadGateway)
			return
		}
		_ = json.NewEncoder(w).Encode([]marginRow{{Date: "2024-01-02", Total: 1e12}})
	})
	mux.HandleFunc("/api/v1/search-index", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]searchRow{{Date: "2024-01-03", Volume: 4000}})
	})
	mux.HandleFunc("/api/v1/valuation", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode([]valuationRow{{Date: "2024-01-03", PETTM: 13.4}})
	})

	return httptest.NewServer(mux)
}

func bySeries(series []models.Series) map[models.SeriesName]models.Series {
	out := make(map[models.SeriesName]models.Series, len(series))
	for _, s := range series {
		out[s.Name] = s
	}
	return out
}

func TestFetchAllBuildsCombinedSeries(t *testing.T) {
	srv := stubProvider(t, false)
	defer srv.Close()

	src := New(srv.URL, WithIndices("primary", "broad"), WithRequestsPerMin(6000))
	series, err := src.FetchAll(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := bySeries(series)

	if len(got[models.SeriesClose].Points) != 2 {
		t.Fatalf("expected 2 close points, got %d", len(got[models.SeriesClose].Points))
	}
	if got[models.SeriesClose].Points[1].Value != 104 {
		t.Fatalf("unexpected close: %v", got[models.SeriesClose].Points[1].Value)
	}

	// mean of primary (104/100-1) and broad (51/50-1) returns
	ret := got[models.SeriesReturn].Points
	if len(ret) != 1 {
		t.Fatalf("expected 1 return point, got %d", len(ret))
	}
	want := (0.04 + 0.02) / 2
	if math.Abs(ret[0].Value-want) > 1e-12 {
		t.Fatalf("return = %v, want %v", ret[0].Value, want)
	}

	// mean of log1p turnover amounts
	turn := got[models.SeriesTurnoverLog].Points
	wantTurn := (math.Log1p(1500) + math.Log1p(700)) / 2
	if math.Abs(turn[len(turn)-1].Value-wantTurn) > 1e-12 {
		t.Fatalf("turnover = %v, want %v", turn[len(turn)-1].Value, wantTurn)
	}

	// amplitude in percent of previous close
	amp := got[models.SeriesAmplitude].Points
	wantAmp := ((106.0-101.0)/100.0*100 + (53.0-50.0)/50.0*100) / 2
	if math.Abs(amp[0].Value-wantAmp) > 1e-12 {
		t.Fatalf("amplitude = %v, want %v", amp[0].Value, wantAmp)
	}

	if got[models.SeriesMarginLog].MaxStaleness != 10 {
		t.Fatalf("margin staleness = %d", got[models.SeriesMarginLog].MaxStaleness)
	}
	if v := got[models.SeriesMarginLog].Points[0].Value; math.Abs(v-math.Log1p(1e12)) > 1e-9 {
		t.Fatalf("margin = %v", v)
	}
	if got[models.SeriesPETTM].Points[0].Value != 13.4 {
		t.Fatalf("pe = %v", got[models.SeriesPETTM].Points[0].Value)
	}
}

func TestFetchAllDegradesOnAuxiliaryFailure(t *testing.T) {
	srv := stubProvider(t, true)
	defer srv.Close()

	src := New(srv.URL, WithIndices("primary", "broad"), WithRequestsPerMin(6000))
	series, err := src.FetchAll(context.Background())
	if err != nil {
		t.Fatalf("auxiliary failure must not fail the fetch: %v", err)
	}
	got := bySeries(series)
	if _, ok := got[models.SeriesMarginLog]; ok {
		t.Fatal("failed margin series must be omitted")
	}
	if _, ok := got[models.SeriesClose]; !ok {
		t.Fatal("close series must survive")
	}
}

func TestFetchAllFailsWithoutPrimary(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	src := New(srv.URL, WithRequestsPerMin(6000))
	if _, err := src.FetchAll(context.Background()); err == nil {
		t.Fatal("expected error when primary bars are unavailable")
	}
}
