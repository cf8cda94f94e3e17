package s2

import "slices"

// IntersectingCells returns a set of disjoint cells whose union covers the
// cap, sorted in increasing order along the Hilbert curve.
//
// The covering is found depth first from the six face cells. A cell is
// kept whole once the cap holds all four of its vertices, or once it
// touches the cap and is already at the covering depth. The covering depth
// is the level whose cells have edges about as long as the cap is wide, so
// the walk stays shallow for large caps.
//
// A cell with no vertex inside the cap is dropped only when the cap misses
// it entirely, so every point of the cap lies in some returned cell even
// when the cap crosses a cell edge away from the cell's center.
func (c Cap[T]) IntersectingCells() CellUnion {
	if c.IsEmpty() {
		return nil
	}
	maxDepth := MaxEdge.ClosestLevelAngle(c.Angle())

	stack := make([]CellID, 0, 4*maxLevel)
	for f := numFaces - 1; f >= 0; f-- {
		stack = append(stack, CellIDFromFace(f))
	}

	var cells CellUnion
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		cell := CellFromCellID(id)
		var vertices [4]Point
		for k := range vertices {
			vertices[k] = cell.Vertex(k)
		}
		n := c.vertexCount(vertices)
		level := cell.Level()

		switch {
		case n == 4:
			cells = append(cells, id)
		case n > 0 && level >= maxDepth:
			cells = append(cells, id)
		case n > 0:
			stack = pushChildren(stack, id)
		case !c.IntersectsCell(cell, vertices):
			// No vertex inside and no edge crossing: disjoint.
		case level >= maxDepth || cell.IsLeaf():
			cells = append(cells, id)
		default:
			// The cap lies inside the cell or crosses one of its edges.
			stack = pushChildren(stack, id)
		}
	}
	slices.Sort(cells)
	return cells
}

// pushChildren pushes the children of id so that they pop in curve order.
func pushChildren(stack []CellID, id CellID) []CellID {
	ch := id.Children()
	return append(stack, ch[3], ch[2], ch[1], ch[0])
}
