// Package index stores points on the sphere keyed by their S2 leaf cell
// and answers cell range and radius queries over them.
//
// Entries are appended in any order. The backing store is sorted by cell
// lazily, the first time a query needs it, and stays sorted until the
// next insert. A PointIndex is not safe for concurrent use: build it from
// one goroutine, then query it.
package index

import (
	"context"
	"time"

	"github.com/golang/geo/s1"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/Open-S2/gis-tools-sub000/s2"
)

// scanBatch is how many entries a range scan pulls from the store at once.
const scanBatch = 256

// PointIndex is an index of points with payloads of type T.
type PointIndex[T any] struct {
	store   Store[T]
	sorted  bool
	cache   *CoveringCache
	coverer *s2.RegionCoverer
	logger  *zap.Logger
}

// New returns an empty index over an in-memory store.
func New[T any](opts ...Option) *PointIndex[T] {
	return NewWithStore[T](&MemStore[T]{}, opts...)
}

// NewWithStore returns an index over store. A store that already holds
// entries is treated as unsorted.
func NewWithStore[T any](store Store[T], opts ...Option) *PointIndex[T] {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return &PointIndex[T]{store: store, cache: o.cache, coverer: o.coverer, logger: o.logger}
}

// Store returns the backing store.
func (x *PointIndex[T]) Store() Store[T] { return x.store }

// Insert adds p with its payload.
func (x *PointIndex[T]) Insert(ctx context.Context, p s2.Point, data T) error {
	if err := x.store.Push(ctx, NewPointShape(p, data)); err != nil {
		return errors.Wrap(err, "insert")
	}
	x.sorted = false
	return nil
}

// InsertLonLat adds the point at the given longitude and latitude in
// degrees.
func (x *PointIndex[T]) InsertLonLat(ctx context.Context, lon, lat float64, data T) error {
	return x.Insert(ctx, s2.PointFromLonLat(lon, lat), data)
}

// InsertFaceST adds the point at (s,t) on the given cube face.
func (x *PointIndex[T]) InsertFaceST(ctx context.Context, face int, s, t float64, data T) error {
	return x.Insert(ctx, s2.FaceSTToPoint(face, s, t), data)
}

// Sort orders the store by cell. It does nothing if the index is already
// sorted. Queries call it themselves.
func (x *PointIndex[T]) Sort(ctx context.Context) error {
	if x.sorted {
		return nil
	}
	start := time.Now()
	if err := x.store.Sort(ctx); err != nil {
		return errors.Wrap(err, "sort")
	}
	x.sorted = true
	if ce := x.logger.Check(zap.DebugLevel, "sorted point index"); ce != nil {
		n, _ := x.store.Len(ctx)
		ce.Write(zap.Int("entries", n), zap.Duration("took", time.Since(start)))
	}
	return nil
}

// Len returns the number of entries.
func (x *PointIndex[T]) Len(ctx context.Context) (int, error) {
	return x.store.Len(ctx)
}

// LowerBound returns the position of the first entry whose cell is not
// less than id, or Len if there is none.
func (x *PointIndex[T]) LowerBound(ctx context.Context, id s2.CellID) (int, error) {
	if err := x.Sort(ctx); err != nil {
		return 0, err
	}
	n, err := x.store.Len(ctx)
	if err != nil {
		return 0, err
	}
	lo, hi := 0, n
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		s, err := x.store.Get(ctx, mid)
		if err != nil {
			return 0, err
		}
		if s.Cell < id {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo, nil
}

// SearchRange returns the entries whose cells lie in [low, high], in
// ascending cell order.
func (x *PointIndex[T]) SearchRange(ctx context.Context, low, high s2.CellID, opts ...SearchOption) ([]PointShape[T], error) {
	return x.searchRange(ctx, low, high, newSearchOptions(opts), nil)
}

// searchRange appends the entries in [low, high] to res, stopping once res
// has grown by the query's cap.
func (x *PointIndex[T]) searchRange(ctx context.Context, low, high s2.CellID, so searchOptions, res []PointShape[T]) ([]PointShape[T], error) {
	lo, err := x.LowerBound(ctx, low)
	if err != nil {
		return nil, err
	}
	n, err := x.store.Len(ctx)
	if err != nil {
		return nil, err
	}
	found := 0
	for lo < n {
		batch, err := x.store.GetRange(ctx, lo, min(n, lo+scanBatch))
		if err != nil {
			return nil, err
		}
		for _, s := range batch {
			if s.Cell > high || so.limit(found) {
				return res, nil
			}
			res = append(res, s)
			found++
		}
		lo += len(batch)
	}
	return res, nil
}

// SearchRadius returns the entries strictly closer to target than radius.
// A negative radius yields no results. Entries come out grouped by the
// covering cell that holds them, in ascending cell order.
//
// WithMaxResults caps the scan of each covering cell, not the total, so a
// capped query may return up to the cap times the number of covering cells.
// It is not a nearest-K query: the entries kept under a cap are the first
// ones in cell order, not necessarily the closest.
func (x *PointIndex[T]) SearchRadius(ctx context.Context, target s2.Point, radius s1.ChordAngle, opts ...SearchOption) ([]PointShape[T], error) {
	if radius < 0 {
		return nil, nil
	}
	so := newSearchOptions(opts)
	covering := x.covering(target, radius)

	var res []PointShape[T]
	for _, id := range covering {
		candidates, err := x.searchRange(ctx, id.RangeMin(), id.RangeMax(), so, nil)
		if err != nil {
			return nil, err
		}
		for _, s := range candidates {
			if target.ChordAngle(s.Point) < radius {
				res = append(res, s)
			}
		}
	}
	x.logger.Debug("radius search",
		zap.Int("covering", len(covering)),
		zap.Int("results", len(res)),
	)
	return res, nil
}

// SearchRadiusLonLat is SearchRadius around a longitude and latitude in
// degrees.
func (x *PointIndex[T]) SearchRadiusLonLat(ctx context.Context, lon, lat float64, radius s1.ChordAngle, opts ...SearchOption) ([]PointShape[T], error) {
	return x.SearchRadius(ctx, s2.PointFromLonLat(lon, lat), radius, opts...)
}

// Each calls fn for every entry in cell order until fn returns false.
func (x *PointIndex[T]) Each(ctx context.Context, fn func(PointShape[T]) bool) error {
	if err := x.Sort(ctx); err != nil {
		return err
	}
	return x.store.Each(ctx, fn)
}

func (x *PointIndex[T]) covering(center s2.Point, radius s1.ChordAngle) s2.CellUnion {
	if x.cache != nil {
		return x.cache.lookup(center, radius, x.coverer)
	}
	return computeCovering(center, radius, x.coverer)
}
