package motion

import (
	"fmt"
	"math"
	"sort"

	"github.com/ciphergoth/fmachine/internal/motionerr"
)

// MinSpeed is the slowest step rate (steps/second) the engine considers
// "moving" — below it, a direction is not viable and the engine idles.
const MinSpeed = 1.0

// MinPulse is the fastest admissible inter-pulse interval; the pulse
// table is truncated once the ideal ramp interval falls below it.
const MinPulse = 50e-6 // seconds

// BuildPulseTable computes the immutable ramp table dt[n] for a
// constant-acceleration ramp from rest, following spec.md §3.2: t[n] =
// sqrt(2n/accel), dt[n] = (2/accel)/(t[n]+t[n-1]) — the numerically
// stable form of t[n]-t[n-1], avoiding cancellation error near small n.
// A sentinel head entry equal to 1/MinSpeed is prepended so table[0]
// represents the slowest admissible pulse.
func BuildPulseTable(accel float64) []float64 {
	table := make([]float64, 0, 256)
	table = append(table, 1.0/MinSpeed)

	for n := 1; ; n++ {
		tn := math.Sqrt(2 * float64(n) / accel)
		tnPrev := math.Sqrt(2 * float64(n-1) / accel)
		dt := (2.0 / accel) / (tn + tnPrev)
		if dt < MinPulse {
			return table
		}
		table = append(table, dt)
	}
}

// maxPulseIndex returns the smallest index whose tabulated interval is
// less than timeError — the ceiling the ramp index may not exceed,
// since stepping any faster cannot be reliably scheduled. The table is
// monotonically decreasing, so a binary search applies.
func maxPulseIndex(table []float64, timeError float64) (int, error) {
	idx := sort.Search(len(table), func(i int) bool { return table[i] < timeError })
	if idx == len(table) {
		// time_error is smaller than even the fastest tabulated
		// interval: no entry constrains the ramp, so the ceiling is
		// simply the table's last (fastest) index.
		idx = len(table) - 1
	}
	if idx < 1 {
		return 0, fmt.Errorf("%w: time_error %.6gs exceeds pulse_table[0] (%.6gs); engine cannot start even its slowest stroke", motionerr.RuntimeFatal, timeError, table[0])
	}
	return idx, nil
}
