package s2

import (
	"fmt"
	"math"

	"github.com/golang/geo/s1"
)

var (
	// centerPoint is the default center for empty and full caps.
	centerPoint = PointFromCoords(1.0, 0, 0)
)

// Cap represents a disc-shaped region defined by a center and radius.
// Technically this shape is called a "spherical cap" (rather than disc)
// because it is not planar; the cap represents a portion of the sphere that
// has been cut off by a plane. The boundary of the cap is the circle defined
// by the intersection of the sphere and the plane. For containment purposes,
// the cap is a closed set, i.e. it contains its boundary.
//
// The radius is stored as an s1.ChordAngle: the squared straight-line
// distance from the center to the boundary. Containment tests then need
// no trigonometry. A negative radius is the empty cap, a radius of 4 or
// more is the full cap.
//
// Data is an arbitrary payload carried along with the region.
type Cap[T any] struct {
	center Point
	radius s1.ChordAngle
	Data   T
}

// CapFromChordAngle constructs a cap with the given center and chord
// radius. The center must be unit length.
func CapFromChordAngle[T any](center Point, radius s1.ChordAngle, data T) Cap[T] {
	return Cap[T]{center: center, radius: radius, Data: data}
}

// CapFromAngle constructs a cap with the given center and angular radius.
// Negative angles yield an empty cap; angles of π or more yield a full cap.
func CapFromAngle[T any](center Point, radius s1.Angle, data T) Cap[T] {
	return CapFromChordAngle(center, s1.ChordAngleFromAngle(radius), data)
}

// CapFromPoint constructs a cap containing a single point.
func CapFromPoint[T any](center Point, data T) Cap[T] {
	return CapFromChordAngle(center, 0, data)
}

// EmptyCap returns a cap that contains no points.
func EmptyCap[T any]() Cap[T] {
	return Cap[T]{center: centerPoint, radius: s1.NegativeChordAngle}
}

// FullCap returns a cap that contains all points.
func FullCap[T any]() Cap[T] {
	return Cap[T]{center: centerPoint, radius: s1.StraightChordAngle}
}

// IsValid reports whether the Cap is considered valid.
func (c Cap[T]) IsValid() bool {
	return c.center.Vector.IsUnit() && c.radius <= s1.StraightChordAngle
}

// IsEmpty reports whether the cap is empty, i.e. it contains no points.
func (c Cap[T]) IsEmpty() bool {
	return c.radius < 0
}

// IsFull reports whether the cap is full, i.e. it contains all points.
func (c Cap[T]) IsFull() bool {
	return c.radius >= s1.StraightChordAngle
}

// Center returns the cap's center point.
func (c Cap[T]) Center() Point {
	return c.center
}

// Radius returns the cap's radius as a chord angle.
func (c Cap[T]) Radius() s1.ChordAngle {
	return c.radius
}

// Angle returns the cap's radius as an angle. Empty caps report a
// negative angle.
func (c Cap[T]) Angle() s1.Angle {
	if c.IsEmpty() {
		return -1
	}
	return min(s1.ChordAngle(4), c.radius).Angle()
}

// Height returns the distance from the center to the cutoff plane.
func (c Cap[T]) Height() float64 {
	return 0.5 * float64(c.radius)
}

// Area returns the surface area of the Cap on the unit sphere.
func (c Cap[T]) Area() float64 {
	return 2.0 * math.Pi * math.Max(0, min(2, c.Height()))
}

// ContainsPoint reports whether this cap contains the point.
func (c Cap[T]) ContainsPoint(p Point) bool {
	return c.center.ChordAngle(p) <= c.radius
}

// InteriorContainsPoint reports whether the point is within the interior of this cap.
func (c Cap[T]) InteriorContainsPoint(p Point) bool {
	return c.IsFull() || c.center.ChordAngle(p) < c.radius
}

// Complement returns the complement of the interior of the cap. A cap and its
// complement have the same boundary but do not share any interior points.
// The complement operator is not a bijection because the complement of a
// singleton cap (containing a single point) is the same as the complement
// of an empty cap.
func (c Cap[T]) Complement() Cap[T] {
	if c.IsFull() {
		e := EmptyCap[T]()
		e.Data = c.Data
		return e
	}
	if c.IsEmpty() {
		f := FullCap[T]()
		f.Data = c.Data
		return f
	}
	return Cap[T]{
		center: Point{c.center.Mul(-1.0)},
		radius: s1.StraightChordAngle - c.radius,
		Data:   c.Data,
	}
}

// Expanded returns a new cap expanded by the given angle. If the cap is empty,
// it returns an empty cap.
func (c Cap[T]) Expanded(distance s1.Angle) Cap[T] {
	if c.IsEmpty() {
		e := EmptyCap[T]()
		e.Data = c.Data
		return e
	}
	return CapFromAngle(c.center, c.Angle()+distance, c.Data)
}

// MayIntersect reports whether the cap intersects the cell.
func (c Cap[T]) MayIntersect(cell Cell) bool {
	// If the cap contains any cell vertex, return true.
	var vertices [4]Point
	for k := 0; k < 4; k++ {
		vertices[k] = cell.Vertex(k)
		if c.ContainsPoint(vertices[k]) {
			return true
		}
	}
	return c.IntersectsCell(cell, vertices)
}

// ContainsCell reports whether the cap contains every point of the cell.
func (c Cap[T]) ContainsCell(cell Cell) bool {
	// If the cap does not contain all cell vertices, return false.
	// We check the vertices before taking the Complement because we can't
	// accurately represent the complement of a very small cap (a height
	// of 2-epsilon is rounded off to 2).
	var vertices [4]Point
	for k := 0; k < 4; k++ {
		vertices[k] = cell.Vertex(k)
		if !c.ContainsPoint(vertices[k]) {
			return false
		}
	}
	// Otherwise, return true if the complement of the cap does not
	// intersect the cell. (This test is slightly conservative, because
	// technically we want Complement().InteriorIntersects() here.)
	return !c.Complement().IntersectsCell(cell, vertices)
}

// IntersectsCell reports whether the cap intersects any point of the cell
// excluding its vertices, which the caller has already checked.
func (c Cap[T]) IntersectsCell(cell Cell, vertices [4]Point) bool {
	// If the cap is a hemisphere or larger, the cell and the complement
	// of the cap are both convex. Therefore since no vertex of the cell
	// is contained, no other interior point of the cell is contained
	// either.
	if c.radius >= s1.RightChordAngle {
		return false
	}

	// We need to check for empty caps due to the center check just below.
	if c.IsEmpty() {
		return false
	}

	// Optimization: return true if the cell contains the cap center.
	// (This allows half of the edge checks below to be skipped.)
	if cell.ContainsPoint(c.center) {
		return true
	}

	// At this point we know that the cell does not contain the cap center,
	// and the cap does not contain any cell vertex. The only way that
	// they can intersect is if the cap intersects the interior of some
	// edge.
	sin2Angle := c.radius.Sin2()
	for k := 0; k < 4; k++ {
		edge := cell.EdgeRaw(k).Vector
		dot := c.center.Dot(edge)
		if dot > 0 {
			// The center is in the interior half-space defined by
			// the edge. We don't need to consider these edges,
			// since if the cap intersects this edge then it also
			// intersects the edge on the opposite side of the cell
			// (because we know the center is not contained with the
			// cell).
			continue
		}
		// The Norm2() factor is necessary because "edge" is not
		// normalized.
		if dot*dot > sin2Angle*edge.Norm2() {
			// Entire cap is on the exterior side of this edge.
			return false
		}
		// Otherwise, the great circle containing this edge intersects
		// the interior of the cap. We just need to check whether the
		// point of closest approach occurs between two edge endpoints.
		dir := edge.Cross(c.center.Vector)
		if dir.Dot(vertices[k].Vector) < 0 && dir.Dot(vertices[(k+1)&3].Vector) > 0 {
			return true
		}
	}
	return false
}

// ApproxEqual reports if this cap's center and radius are within
// a reasonable epsilon from the other cap.
func (c Cap[T]) ApproxEqual(other Cap[T]) bool {
	const epsilon = 1e-14
	r2 := float64(c.radius)
	or2 := float64(other.radius)
	return c.center.ApproxEqual(other.center) && math.Abs(r2-or2) <= epsilon ||
		c.IsEmpty() && or2 <= epsilon ||
		other.IsEmpty() && r2 <= epsilon ||
		c.IsFull() && or2 >= 4-epsilon ||
		other.IsFull() && r2 >= 4-epsilon
}

func (c Cap[T]) String() string {
	return fmt.Sprintf("[Center=%v, Radius=%f]", c.center.Vector, c.Angle().Degrees())
}

// vertexCount returns how many of the vertices lie inside the cap.
func (c Cap[T]) vertexCount(vertices [4]Point) int {
	n := 0
	for _, v := range vertices {
		if c.ContainsPoint(v) {
			n++
		}
	}
	return n
}
