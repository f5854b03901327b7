package engine

import (
	"fmt"
	"math"
	"sort"

	"MarketHeat/internal/domain/models"
)

// Dimension groups sub-factors for weighting and reporting.
type Dimension string

const (
	DimSentiment Dimension = "sentiment"
	DimLiquidity Dimension = "liquidity"
	DimTrend     Dimension = "trend"
	DimValuation Dimension = "valuation"
)

// factorDimensions maps every known factor to its dimension. Unknown weight
// keys are rejected at validation time.
var factorDimensions = map[models.FactorName]Dimension{
	models.FactorSearchHeat:       DimSentiment,
	models.FactorMarginHeat:       DimSentiment,
	models.FactorTurnoverHeat:     DimLiquidity,
	models.FactorTurnoverRateHeat: DimLiquidity,
	models.FactorAmplitudeHeat:    DimLiquidity,
	models.FactorPriceAccel:       DimTrend,
	models.FactorMASpread:         DimTrend,
	models.FactorUpRatio:          DimTrend,
	models.FactorPEValuation:      DimValuation,
}

// Config is the immutable parameter set of one engine run. Zero values are
// replaced by defaults in Normalize; Validate rejects anything the pipeline
// cannot run with before a single row is computed.
type Config struct {
	// Weights maps sub-factor to its share of the composite. Must cover only
	// known factors and sum to 1.0.
	Weights map[models.FactorName]float64

	// Normalization windows, in trading days.
	NormWindow  int // fast factors (default 60)
	SlowWindow  int // margin and valuation (default 120)
	TrendWindow int // rolling-median detrend length, 0 disables (default 252)
	// MinPeriods overrides the minimum observations a normalization window
	// needs; 0 derives max(3, window/2) per window.
	MinPeriods int

	// Factor-bank windows.
	AccelLag      int // compounded-return lookback (default 10)
	MAWindow      int // moving-average length for ma_spread (default 200)
	UpRatioWindow int // advance-ratio lookback (default 20)

	// ZClip bounds normalized values to [-ZClip, +ZClip] (default 3).
	ZClip float64

	// Logistic mapping constants.
	LogisticK float64 // steepness (default 1.2)
	LogisticC float64 // center offset (default 0)

	// SmoothSpan is the EWM span applied to the raw index; 0 or 1 disables
	// smoothing (default 10).
	SmoothSpan int

	// Classification thresholds.
	SignalThreshold float64           // default 75
	Breakpoints     []float64         // ascending tier breakpoints (default 40/60/75/85)
	Tiers           []models.RiskTier // len(Breakpoints)+1 labels, lowest first
}

// DefaultConfig returns the calibrated production parameter set.
func DefaultConfig() Config {
	return Config{
		Weights: map[models.FactorName]float64{
			models.FactorSearchHeat:       0.125,
			models.FactorMarginHeat:       0.125,
			models.FactorTurnoverHeat:     0.075,
			models.FactorTurnoverRateHeat: 0.075,
			models.FactorAmplitudeHeat:    0.10,
			models.FactorPriceAccel:       0.10,
			models.FactorMASpread:         0.10,
			models.FactorUpRatio:          0.10,
			models.FactorPEValuation:      0.20,
		},
		NormWindow:      60,
		SlowWindow:      120,
		TrendWindow:     252,
		AccelLag:        10,
		MAWindow:        200,
		UpRatioWindow:   20,
		ZClip:           3.0,
		LogisticK:       1.2,
		LogisticC:       0.0,
		SmoothSpan:      10,
		SignalThreshold: 75,
		Breakpoints:     []float64{40, 60, 75, 85},
		Tiers:           models.DefaultTiers,
	}
}

// Normalize fills zero-valued fields with defaults. It does not touch Weights:
// an empty weight table is a configuration error, not a default.
func (c *Config) Normalize() {
	d := DefaultConfig()
	if c.NormWindow == 0 {
		c.NormWindow = d.NormWindow
	}
	if c.SlowWindow == 0 {
		c.SlowWindow = d.SlowWindow
	}
	if c.AccelLag == 0 {
		c.AccelLag = d.AccelLag
	}
	if c.MAWindow == 0 {
		c.MAWindow = d.MAWindow
	}
	if c.UpRatioWindow == 0 {
		c.UpRatioWindow = d.UpRatioWindow
	}
	if c.ZClip == 0 {
		c.ZClip = d.ZClip
	}
	if c.LogisticK == 0 {
		c.LogisticK = d.LogisticK
	}
	if c.SignalThreshold == 0 {
		c.SignalThreshold = d.SignalThreshold
	}
	if len(c.Breakpoints) == 0 && len(c.Tiers) == 0 {
		c.Breakpoints = d.Breakpoints
		c.Tiers = d.Tiers
	}
}

const weightTolerance = 1e-6

// Validate rejects malformed configuration. Any error here is fatal for the
// whole run; per-row problems never surface through this path.
func (c Config) Validate() error {
	if len(c.Weights) == 0 {
		return fmt.Errorf("engine config: weight table is empty")
	}
	sum := 0.0
	for name, w := range c.Weights {
		if _, ok := factorDimensions[name]; !ok {
			return fmt.Errorf("engine config: unknown factor %q in weight table", name)
		}
		if w < 0 {
			return fmt.Errorf("engine config: negative weight %.4f for factor %q", w, name)
		}
		sum += w
	}
	if math.Abs(sum-1.0) > weightTolerance {
		return fmt.Errorf("engine config: weights sum to %.6f, want 1.0", sum)
	}
	if c.NormWindow <= 0 || c.SlowWindow <= 0 {
		return fmt.Errorf("engine config: normalization windows must be positive")
	}
	if c.TrendWindow < 0 {
		return fmt.Errorf("engine config: trend window must be >= 0")
	}
	if c.MinPeriods < 0 {
		return fmt.Errorf("engine config: min periods must be >= 0")
	}
	if c.AccelLag <= 0 || c.MAWindow <= 0 || c.UpRatioWindow <= 0 {
		return fmt.Errorf("engine config: factor windows must be positive")
	}
	if c.ZClip <= 0 {
		return fmt.Errorf("engine config: z clip must be positive")
	}
	if c.LogisticK <= 0 {
		return fmt.Errorf("engine config: logistic steepness must be positive")
	}
	if c.SmoothSpan < 0 {
		return fmt.Errorf("engine config: smooth span must be >= 0")
	}
	if c.SignalThreshold < 0 || c.SignalThreshold > 100 {
		return fmt.Errorf("engine config: signal threshold %.2f outside [0,100]", c.SignalThreshold)
	}
	if !sort.Float64sAreSorted(c.Breakpoints) {
		return fmt.Errorf("engine config: tier breakpoints must be ascending")
	}
	if len(c.Tiers) != len(c.Breakpoints)+1 {
		return fmt.Errorf("engine config: %d tiers for %d breakpoints, want breakpoints+1",
			len(c.Tiers), len(c.Breakpoints))
	}
	return nil
}

// minPeriodsFor resolves the effective minimum observation count for a window.
func (c Config) minPeriodsFor(window int) int {
	if c.MinPeriods > 0 {
		return c.MinPeriods
	}
	mp := window / 2
	if mp < 3 {
		mp = 3
	}
	return mp
}

// DimensionWeight sums the configured weights of one dimension.
func (c Config) DimensionWeight(dim Dimension) float64 {
	sum := 0.0
	for name, w := range c.Weights {
		if factorDimensions[name] == dim {
			sum += w
		}
	}
	return sum
}
