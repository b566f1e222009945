package motion

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPulseTableStartsWithSentinelAndIsDecreasing(t *testing.T) {
	table := BuildPulseTable(20000)
	require.Greater(t, len(table), 2)
	assert.InDelta(t, 1.0/MinSpeed, table[0], 1e-12)
	for i := 1; i < len(table); i++ {
		assert.Lessf(t, table[i], table[i-1], "table[%d] should be faster (smaller) than table[%d]", i, i-1)
	}
	// the ramp entry that would follow the last one is below MinPulse, so
	// it was truncated
	n := float64(len(table))
	next := (2.0 / 20000) / (math.Sqrt(2*n/20000) + math.Sqrt(2*(n-1)/20000))
	assert.Less(t, next, MinPulse)
	// the last kept entry must still be admissible
	assert.GreaterOrEqual(t, table[len(table)-1], MinPulse)
}

func TestBuildPulseTableIsDeterministic(t *testing.T) {
	a := BuildPulseTable(35000)
	b := BuildPulseTable(35000)
	require.Equal(t, len(a), len(b))
	for i := range a {
		assert.Equal(t, a[i], b[i])
	}
}

func TestBuildPulseTableFirstRealEntryMatchesClassicFirstStepTiming(t *testing.T) {
	accel := 20000.0
	table := BuildPulseTable(accel)
	// table[1] corresponds to n=1: dt = sqrt(2/accel), the textbook
	// first-step interval of a trapezoidal ramp from rest.
	want := math.Sqrt(2.0 / accel)
	assert.InDelta(t, want, table[1], 1e-9)
}

func TestMaxPulseIndexFindsSmallestIndexBelowTimeError(t *testing.T) {
	table := BuildPulseTable(20000)
	ix, err := maxPulseIndex(table, 200e-6)
	require.NoError(t, err)
	require.Greater(t, ix, 0)
	assert.Less(t, table[ix], 200e-6)
	if ix > 0 {
		assert.GreaterOrEqual(t, table[ix-1], 200e-6)
	}
}

func TestMaxPulseIndexUnconstrainedWhenTimeErrorTiny(t *testing.T) {
	table := BuildPulseTable(20000)
	ix, err := maxPulseIndex(table, 1e-9)
	require.NoError(t, err)
	assert.Equal(t, len(table)-1, ix)
}

func TestMaxPulseIndexFailsWhenTimeErrorExceedsSlowestEntry(t *testing.T) {
	table := BuildPulseTable(20000)
	_, err := maxPulseIndex(table, 10.0)
	assert.Error(t, err)
}

// TestPulseTableRespectsAccelerationBound is spec.md §8 property 4: the
// empirical acceleration between any two adjacent ramp entries must not
// exceed the requested accel by more than a small ε. table[0] is the
// 1/MinSpeed sentinel, not a generated ramp entry, so the walk starts
// at index 1; the ratio is largest at k=1 (sqrt(2) over accel, since
// t[0]=0 makes the very first interval a degenerate case) and strictly
// decreases toward 0 for every k after that, so a single ε bounds the
// whole table.
func TestPulseTableRespectsAccelerationBound(t *testing.T) {
	const epsilon = 0.5
	for _, accel := range []float64{2000.0, 20000.0, 100000.0} {
		table := BuildPulseTable(accel)
		for k := 1; k < len(table)-1; k++ {
			speedK := 1.0 / table[k]
			speedNext := 1.0 / table[k+1]
			empiricalAccel := math.Abs(speedNext-speedK) * table[k]
			assert.LessOrEqualf(t, empiricalAccel, accel*(1+epsilon),
				"accel=%v k=%d: empirical accel %v exceeds bound", accel, k, empiricalAccel)
		}
	}
}
