package engine

import "MarketHeat/internal/domain/models"

// Rule is one factor-bank entry: a deterministic, stateless derivation of a
// raw sub-factor column from the aligned table. MinHistory rows at the start
// of the calendar are forced to missing regardless of what Compute produced.
type Rule struct {
	Name       models.FactorName
	Inputs     []models.SeriesName
	MinHistory int
	Norm       NormSpec
	Compute    func(cfg Config, t *AlignedTable) Column
}

// NormSpec tells the normalizer how to score this factor.
type NormSpec struct {
	Slow    bool // use SlowWindow instead of NormWindow
	Detrend bool // subtract the TrendWindow rolling median first
}

// rules is the fixed factor bank, in output column order. Trading heats are
// level pass-throughs whose entire signal comes from normalization; the trend
// factors derive intermediate columns first.
func rules() []Rule {
	return []Rule{
		{
			Name:       models.FactorPriceAccel,
			Inputs:     []models.SeriesName{models.SeriesReturn},
			MinHistory: 2,
			Norm:       NormSpec{},
			Compute: func(cfg Config, t *AlignedTable) Column {
				return rollingCompound(t.Col(models.SeriesReturn), cfg.AccelLag, 1)
			},
		},
		{
			Name:       models.FactorMASpread,
			Inputs:     []models.SeriesName{models.SeriesClose},
			MinHistory: 1,
			Norm:       NormSpec{},
			Compute: func(cfg Config, t *AlignedTable) Column {
				close := t.Col(models.SeriesClose)
				ma := rollingMean(close, cfg.MAWindow, 1)
				out := newColumn(len(close))
				for i := range close {
					if missing(close[i]) || missing(ma[i]) || ma[i] == 0 {
						continue
					}
					out[i] = close[i]/ma[i] - 1
				}
				return out
			},
		},
		{
			Name:       models.FactorUpRatio,
			Inputs:     []models.SeriesName{models.SeriesReturn},
			MinHistory: 1,
			Norm:       NormSpec{},
			Compute: func(cfg Config, t *AlignedTable) Column {
				ret := t.Col(models.SeriesReturn)
				up := make(Column, len(ret))
				for i, r := range ret {
					// a missing return counts as a non-advancing day
					if !missing(r) && r > 0 {
						up[i] = 1
					}
				}
				return rollingMean(up, cfg.UpRatioWindow, 1)
			},
		},
		passthrough(models.FactorTurnoverHeat, models.SeriesTurnoverLog, NormSpec{Detrend: true}),
		passthrough(models.FactorTurnoverRateHeat, models.SeriesTurnoverRate, NormSpec{Detrend: true}),
		passthrough(models.FactorAmplitudeHeat, models.SeriesAmplitude, NormSpec{}),
		passthrough(models.FactorMarginHeat, models.SeriesMarginLog, NormSpec{Slow: true, Detrend: true}),
		passthrough(models.FactorSearchHeat, models.SeriesSearchLog, NormSpec{Detrend: true}),
		passthrough(models.FactorPEValuation, models.SeriesPETTM, NormSpec{Slow: true, Detrend: true}),
	}
}

func passthrough(name models.FactorName, input models.SeriesName, norm NormSpec) Rule {
	return Rule{
		Name:       name,
		Inputs:     []models.SeriesName{input},
		MinHistory: 1,
		Norm:       norm,
		Compute: func(cfg Config, t *AlignedTable) Column {
			src := t.Col(input)
			out := make(Column, len(src))
			copy(out, src)
			return out
		},
	}
}

// computeFactors evaluates every rule against the aligned table, returning the
// raw (pre-normalization) factor columns.
func computeFactors(cfg Config, t *AlignedTable) map[models.FactorName]Column {
	out := make(map[models.FactorName]Column, len(models.AllFactors))
	for _, r := range rules() {
		col := r.Compute(cfg, t)
		for i := 0; i < r.MinHistory-1 && i < len(col); i++ {
			col[i] = nan
		}
		out[r.Name] = col
	}
	return out
}
