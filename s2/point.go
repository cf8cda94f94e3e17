package s2

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/golang/geo/s1"
)

// Point represents a point on the unit sphere as a normalized 3D vector.
//
// Points are guaranteed to be close to normal in the sense that the norm of any points will be very close to 1.
//
// Fields should be treated as read-only. Use one of the factory methods for creation.
type Point struct {
	r3.Vector
}

// PointFromCoords creates a new normalized point from coordinates.
//
// This always returns a valid point. If the given coordinates can not be normalized the origin point will be returned.
func PointFromCoords(x, y, z float64) Point {
	if x == 0 && y == 0 && z == 0 {
		return OriginPoint()
	}
	return Point{r3.Vector{X: x, Y: y, Z: z}.Normalize()}
}

// OriginPoint returns a unique "origin" on the sphere for operations that need a fixed
// reference point. It should *not* be a point that is commonly used in edge
// tests in order to avoid triggering code to handle degenerate cases (this
// rules out the north and south poles). It should also not be on the
// boundary of any low-level S2Cell for the same reason.
func OriginPoint() Point {
	return Point{r3.Vector{X: 0.00456762077230, Y: 0.99947476613078, Z: 0.03208315302933}}
}

// ChordAngle returns the squared chord distance between p and op. Both
// points must be unit length.
func (p Point) ChordAngle(op Point) s1.ChordAngle {
	return s1.ChordAngle(math.Min(4.0, p.Sub(op.Vector).Norm2()))
}

// Distance returns the angle between two points.
func (p Point) Distance(b Point) s1.Angle {
	return p.Vector.Angle(b.Vector)
}

// ApproxEqual reports if the two points are similar enough to be equal.
func (p Point) ApproxEqual(other Point) bool {
	const epsilon = 1e-14
	return p.Vector.Angle(other.Vector) <= epsilon
}

// ApproxEqualWithin reports if the two points are within maxError radians
// of each other.
func (p Point) ApproxEqualWithin(other Point, maxError float64) bool {
	return float64(p.Vector.Angle(other.Vector)) <= maxError
}
