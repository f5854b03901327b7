package engine

import "MarketHeat/internal/domain/models"

// classify derives the boolean signal and risk tier for each date from the
// published index. Stateless: thresholds come from configuration only.
func classify(cfg Config, index Column) ([]*bool, []models.RiskTier) {
	signals := make([]*bool, len(index))
	tiers := make([]models.RiskTier, len(index))
	for i, v := range index {
		if missing(v) {
			tiers[i] = models.TierUnknown
			continue
		}
		s := v >= cfg.SignalThreshold
		signals[i] = &s
		tiers[i] = tierFor(cfg, v)
	}
	return signals, tiers
}

// tierFor returns the highest tier whose breakpoint the value has reached.
func tierFor(cfg Config, v float64) models.RiskTier {
	idx := 0
	for i, bp := range cfg.Breakpoints {
		if v >= bp {
			idx = i + 1
		}
	}
	return cfg.Tiers[idx]
}
