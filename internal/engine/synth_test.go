package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketHeat/internal/domain/models"
)

func fullWeights() map[models.FactorName]float64 {
	return DefaultConfig().Weights
}

func factorsAt(vals map[models.FactorName]float64) map[models.FactorName]Column {
	out := make(map[models.FactorName]Column)
	for _, name := range models.AllFactors {
		c := newColumn(1)
		if v, ok := vals[name]; ok {
			c[0] = v
		}
		out[name] = c
	}
	return out
}

func TestSynthesizeAllAvailable(t *testing.T) {
	cfg := DefaultConfig()
	vals := map[models.FactorName]float64{}
	for _, name := range models.AllFactors {
		vals[name] = 1.5
	}
	got := synthesize(cfg, factorsAt(vals), 1)
	require.False(t, missing(got[0]))
	assert.InDelta(t, 1.5, got[0], 1e-12, "uniform factors yield the uniform value")
}

func TestSynthesizeRenormalizesMissing(t *testing.T) {
	cfg := DefaultConfig()

	vals := map[models.FactorName]float64{}
	for _, name := range models.AllFactors {
		vals[name] = 2.0
	}
	delete(vals, models.FactorSearchHeat) // sentiment proxy absent

	got := synthesize(cfg, factorsAt(vals), 1)
	require.False(t, missing(got[0]))
	// remaining factors all sit at 2.0; renormalized weights still sum to 1
	assert.InDelta(t, 2.0, got[0], 1e-12)

	// explicit renormalization check with distinct values
	vals = map[models.FactorName]float64{
		models.FactorMarginHeat:  1.0,
		models.FactorPEValuation: -1.0,
	}
	got = synthesize(cfg, factorsAt(vals), 1)
	w := cfg.Weights
	want := (w[models.FactorMarginHeat]*1.0 + w[models.FactorPEValuation]*-1.0) /
		(w[models.FactorMarginHeat] + w[models.FactorPEValuation])
	assert.InDelta(t, want, got[0], 1e-12)
}

func TestSynthesizeAllMissing(t *testing.T) {
	cfg := DefaultConfig()
	got := synthesize(cfg, factorsAt(nil), 1)
	assert.True(t, missing(got[0]), "no available factor leaves the composite undefined")
}

func TestSynthesizeMonotoneInEachFactor(t *testing.T) {
	cfg := DefaultConfig()
	base := map[models.FactorName]float64{}
	for _, name := range models.AllFactors {
		base[name] = 0.2
	}
	baseline := synthesize(cfg, factorsAt(base), 1)[0]

	for _, name := range models.AllFactors {
		bumped := map[models.FactorName]float64{}
		for k, v := range base {
			bumped[k] = v
		}
		bumped[name] = 1.2
		got := synthesize(cfg, factorsAt(bumped), 1)[0]
		assert.GreaterOrEqual(t, got, baseline,
			"raising %s must never lower the composite", name)
	}
}

func TestDimensionScores(t *testing.T) {
	cfg := DefaultConfig()
	vals := map[models.FactorName]float64{
		models.FactorSearchHeat: 2.0,
		models.FactorMarginHeat: 1.0,
		models.FactorUpRatio:    -1.0,
	}
	dims := dimensionScores(cfg, factorsAt(vals), 1)

	require.False(t, missing(dims[DimSentiment][0]))
	assert.InDelta(t, 1.5, dims[DimSentiment][0], 1e-12, "equal sentiment weights average the two")
	assert.InDelta(t, -1.0, dims[DimTrend][0], 1e-12, "single available trend factor carries its dimension")
	assert.True(t, missing(dims[DimLiquidity][0]))
	assert.True(t, missing(dims[DimValuation][0]))
}
