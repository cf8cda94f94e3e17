package s2

import "math"

const (
	M_PI_2 = math.Pi / 2

	// dblEpsilon is the rounding error of a single float64 operation.
	dblEpsilon = 2.220446049250313e-16
)

func clampInt(x, lo, hi int) int {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
