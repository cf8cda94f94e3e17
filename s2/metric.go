package s2

import (
	"math"

	"github.com/golang/geo/s1"
)

// Metric describes a measurement of cells at a given level: a length
// (dim 1) or an area (dim 2). The value for a level is Deriv scaled by
// 2^(-dim*level), so it halves (or quarters) with each subdivision.
type Metric struct {
	Deriv float64
	dim   int
}

// LengthMetric measures a one-dimensional quantity such as edge length or
// cell width.
type LengthMetric struct {
	Metric
}

// AreaMetric measures cell area.
type AreaMetric struct {
	Metric
}

// NewLengthMetric returns a length metric with the given derivative.
func NewLengthMetric(deriv float64) LengthMetric { return LengthMetric{Metric{deriv, 1}} }

// NewAreaMetric returns an area metric with the given derivative.
func NewAreaMetric(deriv float64) AreaMetric { return AreaMetric{Metric{deriv, 2}} }

// Dim is 1 for length metrics and 2 for area metrics.
func (m Metric) Dim() int { return m.dim }

// Value returns the metric on the unit sphere for cells at the given level.
func (m Metric) Value(level int) float64 {
	return math.Ldexp(m.Deriv, -m.dim*level)
}

// ClosestLevel returns the level at which the metric has approximately
// the given value. The return value is always a valid level.
func (m Metric) ClosestLevel(value float64) int {
	if m.dim == 1 {
		return m.MinLevel(math.Sqrt2 * value)
	}
	return m.MinLevel(2 * value)
}

// MinLevel returns the minimum level such that the metric is at most the
// given value, or maxLevel if there is no such level.
func (m Metric) MinLevel(value float64) int {
	if value <= 0 {
		return maxLevel
	}
	// Equivalent to computing a floating-point level and rounding up.
	// Frexp returns a fraction in [0.5, 1) and the matching exponent.
	_, level := math.Frexp(value / m.Deriv)
	return max(0, min(maxLevel, -((level-1)>>uint(m.dim-1))))
}

// MaxLevel returns the maximum level such that the metric is at least the
// given value, or zero if there is no such level.
func (m Metric) MaxLevel(value float64) int {
	if value <= 0 {
		return maxLevel
	}
	_, level := math.Frexp(m.Deriv / value)
	return max(0, min(maxLevel, (level-1)>>uint(m.dim-1)))
}

// ClosestLevelAngle is ClosestLevel for a length metric measured as an
// angle on the unit sphere.
func (m LengthMetric) ClosestLevelAngle(a s1.Angle) int {
	return m.ClosestLevel(a.Radians())
}

// Cell metrics for the quadratic projection used by STToUV. The values were
// obtained by a combination of hand analysis and numerical optimization.
var (
	MinAngleSpan = NewLengthMetric(4. / 3)               // 1.333
	MaxAngleSpan = NewLengthMetric(1.704897179199218452) // 1.705
	AvgAngleSpan = NewLengthMetric(math.Pi / 2)          // 1.571 (true for all projections)
	MinWidth     = NewLengthMetric(2 * math.Sqrt2 / 3)   // 0.943
	MaxWidth     = NewLengthMetric(MaxAngleSpan.Deriv)   // (true for all projections)
	AvgWidth     = NewLengthMetric(1.434523672886099389) // 1.435
	MinEdge      = NewLengthMetric(2 * math.Sqrt2 / 3)   // 0.943
	MaxEdge      = NewLengthMetric(MaxAngleSpan.Deriv)   // (true for all projections)
	AvgEdge      = NewLengthMetric(1.459213746386106062) // 1.459
	MinDiag      = NewLengthMetric(8 * math.Sqrt2 / 9)   // 1.257
	MaxDiag      = NewLengthMetric(2.438654594434021032) // 2.439
	AvgDiag      = NewLengthMetric(2.060422738998471683) // 2.060
	MinArea      = NewAreaMetric(8 * math.Sqrt2 / 9)     // 1.257
	MaxArea      = NewAreaMetric(2.635799256963161491)   // 2.636
	AvgArea      = NewAreaMetric(4 * math.Pi / 6)        // 2.094 (true for all projections)

	MaxEdgeAspect = 1.442615274452682920 // 1.443
	MaxDiagAspect = math.Sqrt(3)         // 1.732 (true for all projections)
)
