package engine

import "math"

// logisticArgBound clamps the exponent argument so the mapping never over- or
// underflows; beyond it the output is already saturated at 0 or 100.
const logisticArgBound = 50

// mapIndex squashes the composite score into [0,100] via the logistic
// transform. Monotone in the composite by construction.
func mapIndex(cfg Config, composite Column) Column {
	out := newColumn(len(composite))
	for i, z := range composite {
		if missing(z) {
			continue
		}
		arg := (z - cfg.LogisticC) * cfg.LogisticK
		if arg > logisticArgBound {
			arg = logisticArgBound
		} else if arg < -logisticArgBound {
			arg = -logisticArgBound
		}
		v := 100.0 / (1.0 + math.Exp(-arg))
		if v < 0 {
			v = 0
		} else if v > 100 {
			v = 100
		}
		out[i] = v
	}
	return out
}

// smooth applies an exponentially weighted mean (alpha = 2/(span+1)) to the
// raw index. Missing rows emit missing and leave the smoothing state
// untouched, so one bad day cannot reset the curve. Span <= 1 is a no-op.
func smooth(span int, raw Column) Column {
	if span <= 1 {
		out := make(Column, len(raw))
		copy(out, raw)
		return out
	}
	alpha := 2.0 / float64(span+1)
	out := newColumn(len(raw))
	state := nan
	for i, v := range raw {
		if missing(v) {
			continue
		}
		if missing(state) {
			state = v
		} else {
			state = alpha*v + (1-alpha)*state
		}
		out[i] = state
	}
	return out
}

// roundTo rounds every defined cell to the given number of decimals. Fixed
// rounding keeps published values stable across runs and platforms.
func roundTo(c Column, decimals int) Column {
	pow := math.Pow(10, float64(decimals))
	out := newColumn(len(c))
	for i, v := range c {
		if missing(v) {
			continue
		}
		out[i] = math.Round(v*pow) / pow
	}
	return out
}
