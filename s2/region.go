package s2

// Region is a set of points on the sphere that a RegionCoverer can
// approximate with cells. Cap and Cell are regions.
type Region interface {
	// MayIntersect reports whether the region may intersect the cell.
	// False positives are allowed, false negatives are not.
	MayIntersect(cell Cell) bool
	// ContainsCell reports whether the region contains the whole cell.
	// False negatives are allowed, false positives are not.
	ContainsCell(cell Cell) bool
	// ContainsPoint reports whether the region contains the point.
	ContainsPoint(p Point) bool
	// CapBound returns a cap that contains the region.
	CapBound() Cap[struct{}]
}

// CapBound returns the cap without its payload.
func (c Cap[T]) CapBound() Cap[struct{}] {
	return Cap[struct{}]{center: c.center, radius: c.radius}
}

// MayIntersect reports whether the two cells share any point.
func (c Cell) MayIntersect(other Cell) bool {
	return c.id.Intersects(other.id)
}

// CapBound returns a cap around the cell's center that holds its four
// vertices, and so the whole cell.
func (c Cell) CapBound() Cap[struct{}] {
	uv := c.uv.Center()
	center := Point{FaceUVToXYZ(int(c.face), uv.X, uv.Y).Normalize()}
	bound := CapFromPoint(center, struct{}{})
	for k := 0; k < 4; k++ {
		bound.radius = max(bound.radius, center.ChordAngle(c.Vertex(k)))
	}
	return bound
}
