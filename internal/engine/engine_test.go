package engine

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketHeat/internal/domain/models"
)

func smallConfig() Config {
	cfg := DefaultConfig()
	cfg.NormWindow = 3
	cfg.SlowWindow = 3
	cfg.TrendWindow = 0
	cfg.MinPeriods = 1
	cfg.AccelLag = 2
	cfg.MAWindow = 3
	cfg.UpRatioWindow = 3
	cfg.SmoothSpan = 0
	return cfg
}

func denseSeries(name models.SeriesName, staleness int, vals []float64) models.Series {
	s := models.Series{Name: name, MaxStaleness: staleness}
	for i, v := range vals {
		if math.IsNaN(v) {
			continue
		}
		s.Points = append(s.Points, models.Point{Date: day(i), Value: v})
	}
	return s
}

// fixture: three trading days; sentiment proxy missing on day 1,
// day 0 lacks history for everything.
func threeRowSeries() []models.Series {
	return []models.Series{
		denseSeries(models.SeriesClose, 0, []float64{100, 103.2, 101.1}),
		denseSeries(models.SeriesReturn, 0, []float64{0.004, 0.032, -0.020}),
		denseSeries(models.SeriesTurnoverLog, 0, []float64{23.1, 23.8, 23.4}),
		denseSeries(models.SeriesTurnoverRate, 0, []float64{0.011, 0.019, 0.014}),
		denseSeries(models.SeriesAmplitude, 0, []float64{1.2, 2.7, 1.9}),
		denseSeries(models.SeriesMarginLog, 0, []float64{27.3, 27.9, 27.5}),
		denseSeries(models.SeriesSearchLog, 0, []float64{8.1, math.NaN(), 8.9}),
		denseSeries(models.SeriesPETTM, 0, []float64{12.4, 13.6, 12.9}),
	}
}

func TestRunThreeRowScenario(t *testing.T) {
	eng, err := New(smallConfig())
	require.NoError(t, err)

	res, err := eng.Run(threeRowSeries())
	require.NoError(t, err)

	rows := res.Rows()
	require.Len(t, rows, 3, "output spans the full input calendar")

	// day 0: no factor has enough history, everything downstream undefined
	assert.Nil(t, rows[0].CompositeZ)
	assert.Nil(t, rows[0].Index)
	assert.Nil(t, rows[0].Signal)
	assert.Equal(t, models.TierUnknown, rows[0].Tier)

	// day 1: sentiment proxy absent; only its cell is missing
	assert.Nil(t, rows[1].Factors[models.FactorSearchHeat])
	require.NotNil(t, rows[1].CompositeZ)
	require.NotNil(t, rows[1].Index)
	require.NotNil(t, rows[1].Signal)
	assert.NotEqual(t, models.TierUnknown, rows[1].Tier)

	// day 2: fully populated
	require.NotNil(t, rows[2].Factors[models.FactorSearchHeat])
	require.NotNil(t, rows[2].CompositeZ)
	require.NotNil(t, rows[2].Index)

	for _, row := range rows {
		if row.Index != nil {
			assert.GreaterOrEqual(t, *row.Index, 0.0)
			assert.LessOrEqual(t, *row.Index, 100.0)
		}
	}
}

func TestRunCompositeMatchesRenormalizedWeights(t *testing.T) {
	eng, err := New(smallConfig())
	require.NoError(t, err)

	res, err := eng.Run(threeRowSeries())
	require.NoError(t, err)

	cfg := eng.Config()
	for i := range res.Dates {
		num, den := 0.0, 0.0
		for name, w := range cfg.Weights {
			z := res.Factors[name][i]
			if missing(z) {
				continue
			}
			num += w * z
			den += w
		}
		if den == 0 {
			assert.True(t, missing(res.CompositeZ[i]), "row %d", i)
			continue
		}
		require.False(t, missing(res.CompositeZ[i]), "row %d", i)
		assert.InDelta(t, num/den, res.CompositeZ[i], 1e-9, "row %d", i)
	}
}

func TestRunIdempotent(t *testing.T) {
	cfg := smallConfig()

	run := func() []byte {
		eng, err := New(cfg)
		require.NoError(t, err)
		res, err := eng.Run(threeRowSeries())
		require.NoError(t, err)
		b, err := json.Marshal(res.Payload())
		require.NoError(t, err)
		return b
	}

	assert.Equal(t, run(), run(), "same input and config must serialize identically")
}

func TestRunPrimaryGapPreservesRow(t *testing.T) {
	series := threeRowSeries()
	// primary keeps the calendar date but has no usable close on day 1
	series[0] = models.Series{Name: models.SeriesClose, Points: []models.Point{
		{Date: day(0), Value: 100},
		{Date: day(1), Value: math.NaN()},
		{Date: day(2), Value: 101.1},
	}}

	eng, err := New(smallConfig())
	require.NoError(t, err)
	res, err := eng.Run(series)
	require.NoError(t, err)

	rows := res.Rows()
	require.Len(t, rows, 3, "a primary gap must not drop the row")

	assert.Nil(t, rows[1].Raw.Close)
	assert.Nil(t, rows[1].Factors[models.FactorMASpread], "price-derived factor undefined on the gap")
	require.NotNil(t, rows[1].CompositeZ, "other factors keep the composite alive")
}

func TestRunLatestRecord(t *testing.T) {
	eng, err := New(smallConfig())
	require.NoError(t, err)
	res, err := eng.Run(threeRowSeries())
	require.NoError(t, err)

	latest, ok := res.Latest()
	require.True(t, ok)
	assert.Equal(t, day(2).Format(models.DateLayout), latest.Date)
	require.NotNil(t, latest.Index)
	assert.NotEqual(t, models.TierUnknown, latest.Tier)
}

func TestRunSmoothedIndexStaysBounded(t *testing.T) {
	cfg := smallConfig()
	cfg.SmoothSpan = 10
	eng, err := New(cfg)
	require.NoError(t, err)

	res, err := eng.Run(threeRowSeries())
	require.NoError(t, err)
	for i, v := range res.Index {
		if missing(v) {
			continue
		}
		assert.GreaterOrEqual(t, v, 0.0, "row %d", i)
		assert.LessOrEqual(t, v, 100.0, "row %d", i)
	}
}
