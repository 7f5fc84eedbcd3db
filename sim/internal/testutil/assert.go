// Package testutil provides shared test infrastructure for the allocation
// instrumentation packages under sim/.
package testutil

import (
	"math"
	"testing"

	"github.com/inference-sim/allocsim/sim/trace"
)

// AssertFloat64Equal compares two float64 values with relative tolerance.
func AssertFloat64Equal(t *testing.T, name string, want, got, relTol float64) {
	t.Helper()
	if want == 0 && got == 0 {
		return
	}
	diff := math.Abs(want - got)
	maxVal := math.Max(math.Abs(want), math.Abs(got))
	if diff/maxVal > relTol {
		t.Errorf("%s: got %v, want %v (diff=%v, relDiff=%v)", name, got, want, diff, diff/maxVal)
	}
}

// SyntheticFrames builds a deterministic stack of depth n, innermost first,
// with functions named fa, fb, ... by depth.
func SyntheticFrames(n int) []trace.Frame {
	frames := make([]trace.Frame, n)
	for i := range frames {
		frames[i] = trace.Frame{
			File:      "model.py",
			Function:  "f" + string(rune('a'+i%26)),
			FirstLine: uint64(10 * (i + 1)),
			Line:      uint64(10*(i+1) + 3),
		}
	}
	return frames
}
