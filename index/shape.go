package index

import (
	"github.com/twpayne/go-geom"

	"github.com/Open-S2/gis-tools-sub000/s2"
)

// PointShape is one indexed entry: the leaf cell of a point, the point
// itself and the caller's payload. Entries are never modified after
// insertion; sorting only reorders them.
type PointShape[T any] struct {
	Cell  s2.CellID
	Point s2.Point
	Data  T
}

// NewPointShape returns the entry for p keyed by its leaf cell.
func NewPointShape[T any](p s2.Point, data T) PointShape[T] {
	return PointShape[T]{Cell: s2.CellIDFromPoint(p), Point: p, Data: data}
}

// LonLat returns the entry's position in degrees.
func (s PointShape[T]) LonLat() (lon, lat float64) {
	return s.Point.LonLat()
}

// Geom returns the entry's position as a two dimensional lon/lat point.
func (s PointShape[T]) Geom() *geom.Point {
	lon, lat := s.LonLat()
	return geom.NewPointFlat(geom.XY, []float64{lon, lat})
}
