package engine

import (
	"sort"

	"MarketHeat/internal/domain/models"
)

// sortedWeightNames returns the weight keys in a stable order so that
// floating-point accumulation does not vary with map iteration order.
func sortedWeightNames(weights map[models.FactorName]float64) []models.FactorName {
	names := make([]models.FactorName, 0, len(weights))
	for name := range weights {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// synthesize combines normalized factors into the composite score column.
// At each date the weights of the available factors are renormalized to sum
// to 1, so partial data never drags the score toward zero. A date with no
// available factor at all stays missing.
func synthesize(cfg Config, factors map[models.FactorName]Column, n int) Column {
	out := newColumn(n)
	names := sortedWeightNames(cfg.Weights)
	for i := 0; i < n; i++ {
		num, den := 0.0, 0.0
		for _, name := range names {
			w := cfg.Weights[name]
			col, ok := factors[name]
			if !ok || i >= len(col) || missing(col[i]) {
				continue
			}
			num += w * col[i]
			den += w
		}
		if den == 0 {
			continue
		}
		out[i] = num / den
	}
	return out
}

// dimensionScores computes the per-dimension weighted averages at each date,
// with the same renormalize-over-available policy as the composite. They are
// informational output; the composite is not derived from them.
func dimensionScores(cfg Config, factors map[models.FactorName]Column, n int) map[Dimension]Column {
	out := map[Dimension]Column{
		DimSentiment: newColumn(n),
		DimLiquidity: newColumn(n),
		DimTrend:     newColumn(n),
		DimValuation: newColumn(n),
	}
	names := sortedWeightNames(cfg.Weights)
	for i := 0; i < n; i++ {
		num := map[Dimension]float64{}
		den := map[Dimension]float64{}
		for _, name := range names {
			w := cfg.Weights[name]
			col, ok := factors[name]
			if !ok || i >= len(col) || missing(col[i]) {
				continue
			}
			dim := factorDimensions[name]
			num[dim] += w * col[i]
			den[dim] += w
		}
		for dim, d := range den {
			if d > 0 {
				out[dim][i] = num[dim] / d
			}
		}
	}
	return out
}
