package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func col(vs ...float64) Column { return Column(vs) }

func TestRollingMedianBasic(t *testing.T) {
	c := col(1, 2, 3, 4, 5)
	got := rollingMedian(c, 3, 1)
	want := []float64{1, 1.5, 2, 3, 4}
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-12, "index %d", i)
	}
}

func TestRollingMedianMinPeriods(t *testing.T) {
	c := col(1, 2, 3, 4)
	got := rollingMedian(c, 3, 3)
	assert.True(t, missing(got[0]))
	assert.True(t, missing(got[1]))
	assert.InDelta(t, 2.0, got[2], 1e-12)
	assert.InDelta(t, 3.0, got[3], 1e-12)
}

func TestRollingMedianSkipsMissing(t *testing.T) {
	c := col(1, nan, 3, nan, 5)
	got := rollingMedian(c, 3, 1)
	// window at index 3 holds {3}, at index 4 holds {3,5}
	assert.InDelta(t, 3.0, got[3], 1e-12)
	assert.InDelta(t, 4.0, got[4], 1e-12)
}

func TestRollingMeanAndCompound(t *testing.T) {
	mean := rollingMean(col(2, 4, 6), 2, 1)
	assert.InDelta(t, 2.0, mean[0], 1e-12)
	assert.InDelta(t, 3.0, mean[1], 1e-12)
	assert.InDelta(t, 5.0, mean[2], 1e-12)

	comp := rollingCompound(col(0.1, 0.1), 2, 1)
	assert.InDelta(t, 0.1, comp[0], 1e-12)
	assert.InDelta(t, 1.1*1.1-1, comp[1], 1e-12)
}

func TestMeanOfSkipsMissing(t *testing.T) {
	a := col(1, nan, nan)
	b := col(3, 5, nan)
	got := meanOf(a, b)
	require.Len(t, got, 3)
	assert.InDelta(t, 2.0, got[0], 1e-12)
	assert.InDelta(t, 5.0, got[1], 1e-12)
	assert.True(t, math.IsNaN(got[2]))
}
