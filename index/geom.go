package index

import (
	"context"

	"github.com/pkg/errors"
	"github.com/twpayne/go-geom"
)

// InsertGeom adds the points of g, read as longitude and latitude in
// degrees. Points and multipoints are accepted; every point of a
// multipoint gets the same payload. Empty geometries add nothing.
func (x *PointIndex[T]) InsertGeom(ctx context.Context, g geom.T, data T) error {
	switch g := g.(type) {
	case *geom.Point:
		if g.Empty() {
			return nil
		}
		return x.InsertLonLat(ctx, g.X(), g.Y(), data)
	case *geom.MultiPoint:
		for i := 0; i < g.NumPoints(); i++ {
			p := g.Point(i)
			if p.Empty() {
				continue
			}
			if err := x.InsertLonLat(ctx, p.X(), p.Y(), data); err != nil {
				return err
			}
		}
		return nil
	default:
		return errors.Wrapf(ErrUnsupportedGeometry, "%T", g)
	}
}
