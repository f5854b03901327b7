package engine

import "MarketHeat/internal/domain/models"

// madScale converts a median absolute deviation into a standard-deviation
// estimate under normality.
const madScale = 1.4826

// robustZ scores a column against its own causal history: optional rolling-
// median detrend, then (resid - rolling median) / (rolling MAD * 1.4826).
// A zero MAD or a window with fewer than minPeriods observations yields
// missing, and the result is clipped to +-clip.
func robustZ(c Column, window, trendWindow, minPeriods int, clip float64) Column {
	resid := c
	if trendWindow > 0 {
		trend := rollingMedian(c, trendWindow, 1)
		resid = sub(c, trend)
	}
	med := rollingMedian(resid, window, minPeriods)
	mad := rollingMedian(absDev(resid, med), window, minPeriods)

	out := newColumn(len(c))
	for i := range c {
		if missing(resid[i]) || missing(med[i]) || missing(mad[i]) {
			continue
		}
		scale := mad[i] * madScale
		if scale == 0 {
			continue // degenerate window, no meaningful score
		}
		z := (resid[i] - med[i]) / scale
		if z > clip {
			z = clip
		} else if z < -clip {
			z = -clip
		}
		out[i] = z
	}
	return out
}

// normalizeFactors robust-scores every raw factor column per its rule's
// NormSpec. Normalization at row t only ever sees rows <= t.
func normalizeFactors(cfg Config, raw map[models.FactorName]Column) map[models.FactorName]Column {
	out := make(map[models.FactorName]Column, len(raw))
	for _, r := range rules() {
		col, ok := raw[r.Name]
		if !ok {
			continue
		}
		window := cfg.NormWindow
		if r.Norm.Slow {
			window = cfg.SlowWindow
		}
		trend := 0
		if r.Norm.Detrend {
			trend = cfg.TrendWindow
		}
		out[r.Name] = robustZ(col, window, trend, cfg.minPeriodsFor(window), cfg.ZClip)
	}
	return out
}
