package engine

import (
	"math"
	"sort"
)

// Column is one date-indexed numeric column. Missing values are NaN; they are
// carried through every transform and only turned into nil pointers at the
// output boundary.
type Column []float64

var nan = math.NaN()

func missing(v float64) bool { return math.IsNaN(v) }

func newColumn(n int) Column {
	c := make(Column, n)
	for i := range c {
		c[i] = math.NaN()
	}
	return c
}

// median returns the median of xs, which must be non-empty. xs is sorted in place.
func median(xs []float64) float64 {
	sort.Float64s(xs)
	n := len(xs)
	if n%2 == 1 {
		return xs[n/2]
	}
	return (xs[n/2-1] + xs[n/2]) / 2
}

// rollingMedian computes the trailing-window median at each index, requiring
// at least minPeriods defined observations inside the window.
func rollingMedian(c Column, window, minPeriods int) Column {
	out := newColumn(len(c))
	buf := make([]float64, 0, window)
	for i := range c {
		lo := i - window + 1
		if lo < 0 {
			lo = 0
		}
		buf = buf[:0]
		for j := lo; j <= i; j++ {
			if !missing(c[j]) {
				buf = append(buf, c[j])
			}
		}
		if len(buf) < minPeriods {
			continue
		}
		out[i] = median(buf)
	}
	return out
}

// rollingMean computes the trailing-window mean over defined observations.
func rollingMean(c Column, window, minPeriods int) Column {
	out := newColumn(len(c))
	for i := range c {
		lo := i - window + 1
		if lo < 0 {
			lo = 0
		}
		sum, n := 0.0, 0
		for j := lo; j <= i; j++ {
			if !missing(c[j]) {
				sum += c[j]
				n++
			}
		}
		if n < minPeriods {
			continue
		}
		out[i] = sum / float64(n)
	}
	return out
}

// rollingCompound compounds (1+r) over the trailing window minus one,
// skipping missing returns, requiring at least minPeriods defined.
func rollingCompound(c Column, window, minPeriods int) Column {
	out := newColumn(len(c))
	for i := range c {
		lo := i - window + 1
		if lo < 0 {
			lo = 0
		}
		prod, n := 1.0, 0
		for j := lo; j <= i; j++ {
			if !missing(c[j]) {
				prod *= 1 + c[j]
				n++
			}
		}
		if n < minPeriods {
			continue
		}
		out[i] = prod - 1
	}
	return out
}

// sub returns a-b elementwise; missing propagates.
func sub(a, b Column) Column {
	out := newColumn(len(a))
	for i := range a {
		if missing(a[i]) || missing(b[i]) {
			continue
		}
		out[i] = a[i] - b[i]
	}
	return out
}

// absDev returns |c-center| elementwise; missing propagates.
func absDev(c, center Column) Column {
	out := newColumn(len(c))
	for i := range c {
		if missing(c[i]) || missing(center[i]) {
			continue
		}
		out[i] = math.Abs(c[i] - center[i])
	}
	return out
}

// meanOf averages the defined values among cols at each index; all missing
// yields missing. Used to blend the per-index input series.
func meanOf(cols ...Column) Column {
	if len(cols) == 0 {
		return nil
	}
	out := newColumn(len(cols[0]))
	for i := range out {
		sum, n := 0.0, 0
		for _, c := range cols {
			if i < len(c) && !missing(c[i]) {
				sum += c[i]
				n++
			}
		}
		if n > 0 {
			out[i] = sum / float64(n)
		}
	}
	return out
}
