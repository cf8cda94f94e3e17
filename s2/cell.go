package s2

import (
	"github.com/golang/geo/r1"
	"github.com/golang/geo/r2"
)

// Cell is an S2 region object that represents a cell. Unlike CellIDs,
// it supports efficient containment and intersection tests. However, it is
// also a more expensive representation.
type Cell struct {
	face        int8
	level       int8
	orientation int8
	id          CellID
	uv          r2.Rect
}

// CellFromCellID constructs a Cell corresponding to the given CellID.
func CellFromCellID(id CellID) Cell {
	c := Cell{}
	c.id = id
	f, i, j, o := c.id.FaceIJOrientation()
	c.face = int8(f)
	c.level = int8(c.id.Level())
	c.orientation = int8(o)
	c.uv = ijLevelToBoundUV(i, j, int(c.level))
	return c
}

// CellFromPoint constructs a cell for the given Point.
func CellFromPoint(p Point) Cell {
	return CellFromCellID(CellIDFromPoint(p))
}

// CellFromLatLng constructs a cell for the given LatLng.
func CellFromLatLng(ll LatLng) Cell {
	return CellFromCellID(CellIDFromLatLng(ll))
}

// ijLevelToBoundUV returns the bounds in (u,v)-space for the cell at the
// given level containing the leaf cell with the given (i,j)-coordinates.
func ijLevelToBoundUV(i, j, level int) r2.Rect {
	cellSize := sizeIJ(level)
	xLo := i & -cellSize
	yLo := j & -cellSize
	return r2.Rect{
		X: r1.Interval{Lo: STToUV(IJToSTMin(xLo)), Hi: STToUV(IJToSTMin(xLo + cellSize))},
		Y: r1.Interval{Lo: STToUV(IJToSTMin(yLo)), Hi: STToUV(IJToSTMin(yLo + cellSize))},
	}
}

func (c Cell) ID() CellID           { return c.id }
func (c Cell) Face() int            { return int(c.face) }
func (c Cell) Level() int           { return int(c.level) }
func (c Cell) Orientation() int     { return int(c.orientation) }
func (c Cell) BoundUV() r2.Rect     { return c.uv }
func (c Cell) SizeIJ() int          { return sizeIJ(int(c.level)) }
func (c Cell) IsLeaf() bool         { return c.level == maxLevel }
func (c Cell) AverageArea() float64 { return AverageArea(int(c.level)) }

// AverageArea returns the average area of cells at the given level.
func AverageArea(level int) float64 {
	return AvgArea.Value(level)
}

// Children returns the four children of the cell in Hilbert curve order,
// or false if the cell is a leaf.
func (c Cell) Children() ([4]Cell, bool) {
	var children [4]Cell
	if c.IsLeaf() {
		return children, false
	}
	for k, id := range c.id.Children() {
		children[k] = CellFromCellID(id)
	}
	return children, true
}

// Vertex returns the k-th vertex of the cell (k = [0,3]) in CCW order
// (lower left, lower right, upper right, upper left in the UV plane).
func (c Cell) Vertex(k int) Point {
	return Point{c.VertexRaw(k).Normalize()}
}

// VertexRaw is Vertex without normalization.
func (c Cell) VertexRaw(k int) Point {
	v := c.uv.Vertices()[k]
	return Point{FaceUVToXYZ(int(c.face), v.X, v.Y)}
}

// Edge returns the inward-facing normal of the great circle passing through
// the CCW ordered edge from vertex k to vertex k+1 (mod 4).
func (c Cell) Edge(k int) Point {
	return Point{c.EdgeRaw(k).Normalize()}
}

// EdgeRaw is Edge without normalization.
func (c Cell) EdgeRaw(k int) Point {
	switch k {
	case 0:
		return Point{vNorm(int(c.face), c.uv.Y.Lo)} // Bottom
	case 1:
		return Point{uNorm(int(c.face), c.uv.X.Hi)} // Right
	case 2:
		return Point{vNorm(int(c.face), c.uv.Y.Hi).Mul(-1.0)} // Top
	default:
		return Point{uNorm(int(c.face), c.uv.X.Lo).Mul(-1.0)} // Left
	}
}

func (c Cell) CenterRaw() Point {
	return Point{c.id.rawPoint()}
}

func (c Cell) Center() Point {
	return Point{c.CenterRaw().Normalize()}
}

func (c Cell) ContainsCell(cell Cell) bool {
	return c.id.Contains(cell.id)
}

func (c Cell) ContainsPoint(p Point) bool {
	// We can't just call XYZToFaceUV, because for points that lie on the
	// boundary between two faces (i.e. u or v is +1/-1) we need to return
	// true for both adjacent cells.
	u, v, ok := FaceXYZToUV(int(c.face), p.Vector)
	if !ok {
		return false
	}
	// The margin absorbs the rounding in the (u,v) to (s,t) conversion, so
	// that CellFromPoint(p).ContainsPoint(p) always holds.
	return c.uv.ExpandedByMargin(dblEpsilon).ContainsPoint(r2.Point{X: u, Y: v})
}
