package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRobustZKnownValues(t *testing.T) {
	// window 3, minPeriods 2, no detrend
	c := col(1, 2, 3, 10)
	got := robustZ(c, 3, 0, 2, 100)

	assert.True(t, missing(got[0]), "single observation cannot be scored")

	// index 2: window {1,2,3}: med=2, devs vs rolling med: dev0 missing (mp),
	// dev1=|2-1.5|=0.5, dev2=|3-2|=1 -> mad=median(0.5,1)=0.75
	require.False(t, missing(got[2]))
	assert.InDelta(t, (3.0-2.0)/(0.75*madScale), got[2], 1e-9)
}

func TestRobustZDegenerateScale(t *testing.T) {
	c := col(5, 5, 5, 5, 5)
	got := robustZ(c, 3, 0, 2, 3)
	for i := 1; i < len(got); i++ {
		assert.True(t, missing(got[i]), "zero-variance window must yield missing, index %d", i)
	}
}

func TestRobustZClipping(t *testing.T) {
	c := col(1, 2, 3, 2, 1, 2, 3, 2, 1, 1000)
	got := robustZ(c, 5, 0, 3, 3)
	last := got[len(got)-1]
	require.False(t, missing(last))
	assert.InDelta(t, 3.0, last, 1e-12, "outlier must be clipped to +clip")
}

func TestRobustZCausality(t *testing.T) {
	full := col(1, 3, 2, 5, 4, 8, 6, 9, 7, 12, 11, 15)
	prefix := make(Column, 8)
	copy(prefix, full[:8])

	zFull := robustZ(full, 4, 0, 3, 5)
	zPrefix := robustZ(prefix, 4, 0, 3, 5)

	for i := range zPrefix {
		if missing(zPrefix[i]) {
			assert.True(t, missing(zFull[i]), "index %d", i)
			continue
		}
		assert.InDelta(t, zPrefix[i], zFull[i], 1e-12,
			"appending future rows must not change past scores, index %d", i)
	}
}

func TestRobustZDetrend(t *testing.T) {
	// trend window 2: residual = value minus the median of the last two values
	c := col(1, 2, 4, 8)
	got := robustZ(c, 3, 2, 2, 10)

	// resid = [0, 0.5, 1, 2]; rolling med = [-, 0.25, 0.5, 1];
	// dev = [-, 0.25, 0.5, 1]; mad = [-, -, 0.375, 0.5]
	require.False(t, missing(got[2]))
	require.False(t, missing(got[3]))
	assert.InDelta(t, 0.5/(0.375*madScale), got[2], 1e-9)
	assert.InDelta(t, 1.0/(0.5*madScale), got[3], 1e-9)
}
