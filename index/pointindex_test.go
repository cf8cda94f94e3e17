package index

import (
	"cmp"
	"context"
	"math/rand"
	"slices"
	"testing"

	"github.com/golang/geo/s1"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Open-S2/gis-tools-sub000/s2"
)

type fixture struct {
	A int `json:"a"`
}

func newFixtureIndex(t *testing.T, opts ...Option) *PointIndex[fixture] {
	t.Helper()
	ctx := context.Background()
	x := New[fixture](opts...)
	require.NoError(t, x.InsertLonLat(ctx, 0, 0, fixture{0}))
	require.NoError(t, x.InsertLonLat(ctx, 0, 1, fixture{1}))
	require.NoError(t, x.InsertLonLat(ctx, -20, 20, fixture{2}))
	require.NoError(t, x.InsertLonLat(ctx, -22, 22, fixture{3}))
	require.NoError(t, x.InsertFaceST(ctx, 0, 0, 0, fixture{4}))
	return x
}

func TestSearchRadiusFixture(t *testing.T) {
	ctx := context.Background()
	x := newFixtureIndex(t)

	origin := s2.PointFromLonLat(0, 0)
	radius := origin.ChordAngle(s2.PointFromLonLat(2, 2))
	res, err := x.SearchRadius(ctx, origin, radius)
	require.NoError(t, err)
	require.Len(t, res, 2)

	got := []int{res[0].Data.A, res[1].Data.A}
	slices.Sort(got)
	require.Equal(t, []int{0, 1}, got)
	require.Less(t, res[0].Cell, res[1].Cell, "results are in cell order")

	lonlat, err := x.SearchRadiusLonLat(ctx, 0, 0, radius)
	require.NoError(t, err)
	require.Equal(t, res, lonlat)
}

func TestSearchRadiusNegative(t *testing.T) {
	x := newFixtureIndex(t)
	res, err := x.SearchRadius(context.Background(), s2.PointFromLonLat(0, 0), s1.NegativeChordAngle)
	require.NoError(t, err)
	require.Empty(t, res)
}

func TestSearchRadiusFull(t *testing.T) {
	ctx := context.Background()
	x := newFixtureIndex(t)
	// Strictly less than the straight angle excludes only the antipode.
	res, err := x.SearchRadius(ctx, s2.PointFromLonLat(0, 0), s1.StraightChordAngle)
	require.NoError(t, err)
	require.Len(t, res, 5)
	require.True(t, slices.IsSortedFunc(res, func(a, b PointShape[fixture]) int { return cmp.Compare(a.Cell, b.Cell) }))
}

func TestSearchRadiusMaxResults(t *testing.T) {
	ctx := context.Background()
	x := New[int]()
	for i := 0; i < 100; i++ {
		require.NoError(t, x.InsertLonLat(ctx, 10+float64(i)*1e-4, 10, i))
	}
	all, err := x.SearchRadiusLonLat(ctx, 10, 10, EarthChordAngle(10_000))
	require.NoError(t, err)
	require.Len(t, all, 100)

	capped, err := x.SearchRadiusLonLat(ctx, 10, 10, EarthChordAngle(10_000), WithMaxResults(7))
	require.NoError(t, err)
	require.NotEmpty(t, capped)
	for _, s := range capped {
		require.Contains(t, all, s)
	}

	// Values below one mean no cap.
	uncapped, err := x.SearchRadiusLonLat(ctx, 10, 10, EarthChordAngle(10_000), WithMaxResults(0))
	require.NoError(t, err)
	require.Equal(t, all, uncapped)
}

// The cap applies to each covering cell: every cell contributes the
// in-radius entries among its first n, so the total can exceed n.
func TestSearchRadiusMaxResultsPerCell(t *testing.T) {
	ctx := context.Background()
	x := New[int]()
	for i := 0; i < 20; i++ {
		require.NoError(t, x.InsertLonLat(ctx, -5+float64(i)*0.5, 0, i))
	}
	target := s2.PointFromLonLat(0, 0)
	radius := target.ChordAngle(s2.PointFromLonLat(6, 0))

	var sorted []PointShape[int]
	require.NoError(t, x.Each(ctx, func(s PointShape[int]) bool {
		sorted = append(sorted, s)
		return true
	}))

	for _, n := range []int{1, 2, 3} {
		var want []PointShape[int]
		for _, id := range x.covering(target, radius) {
			scanned := 0
			for _, s := range sorted {
				if s.Cell < id.RangeMin() || s.Cell > id.RangeMax() {
					continue
				}
				if scanned == n {
					break
				}
				scanned++
				if target.ChordAngle(s.Point) < radius {
					want = append(want, s)
				}
			}
		}

		got, err := x.SearchRadius(ctx, target, radius, WithMaxResults(n))
		require.NoError(t, err)
		assert.Equal(t, want, got, "cap %d", n)
	}

	got, err := x.SearchRadius(ctx, target, radius, WithMaxResults(1))
	require.NoError(t, err)
	assert.Greater(t, len(got), 1)
}

func TestSearchRadiusBruteForce(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(1))
	x := New[int]()
	var points []s2.Point
	for i := 0; i < 3000; i++ {
		// Cluster half the points so that small radii find something.
		lon, lat := rng.Float64()*360-180, rng.Float64()*180-90
		if i%2 == 0 {
			lon, lat = 30+rng.Float64(), 40+rng.Float64()
		}
		p := s2.PointFromLonLat(lon, lat)
		points = append(points, p)
		require.NoError(t, x.Insert(ctx, p, i))
	}

	for iter := 0; iter < 50; iter++ {
		target := s2.PointFromLonLat(30+rng.Float64(), 40+rng.Float64())
		if iter%5 == 0 {
			target = s2.PointFromLonLat(rng.Float64()*360-180, rng.Float64()*180-90)
		}
		radius := s1.ChordAngleFromAngle(s1.Angle(rng.Float64()*0.5) * s1.Degree)
		if iter%10 == 0 {
			radius = s1.ChordAngleFromAngle(s1.Angle(rng.Float64() * 3))
		}

		var want []int
		for i, p := range points {
			if target.ChordAngle(p) < radius {
				want = append(want, i)
			}
		}
		res, err := x.SearchRadius(ctx, target, radius)
		require.NoError(t, err)
		got := make([]int, 0, len(res))
		for _, s := range res {
			got = append(got, s.Data)
		}
		slices.Sort(got)
		require.Equal(t, len(want), len(got), "radius %v around %v", radius, target)
		if len(want) > 0 {
			require.Equal(t, want, got)
		}
	}
}

func TestSearchRange(t *testing.T) {
	ctx := context.Background()
	rng := rand.New(rand.NewSource(2))
	x := New[int]()
	var cells []s2.CellID
	for i := 0; i < 1000; i++ {
		p := s2.PointFromLonLat(rng.Float64()*360-180, rng.Float64()*180-90)
		cells = append(cells, s2.CellIDFromPoint(p))
		require.NoError(t, x.Insert(ctx, p, i))
	}

	for iter := 0; iter < 100; iter++ {
		p := s2.PointFromLonLat(rng.Float64()*360-180, rng.Float64()*180-90)
		parent := s2.CellIDFromPoint(p).Parent(rng.Intn(5))
		low, high := parent.Range()
		var want int
		for _, c := range cells {
			if c >= low && c <= high {
				want++
			}
		}
		res, err := x.SearchRange(ctx, low, high)
		require.NoError(t, err)
		require.Len(t, res, want)
		for i, s := range res {
			require.True(t, parent.Contains(s.Cell))
			if i > 0 {
				require.LessOrEqual(t, res[i-1].Cell, s.Cell)
			}
		}

		again, err := x.SearchRange(ctx, low, high)
		require.NoError(t, err)
		require.Equal(t, res, again)

		if want > 2 {
			capped, err := x.SearchRange(ctx, low, high, WithMaxResults(2))
			require.NoError(t, err)
			require.Equal(t, res[:2], capped)
		}
	}

	// An inverted or empty range is not an error.
	res, err := x.SearchRange(ctx, s2.CellIDFromFace(3), s2.CellIDFromFace(2))
	require.NoError(t, err)
	require.Empty(t, res)
}

func TestLowerBound(t *testing.T) {
	ctx := context.Background()
	x := newFixtureIndex(t)
	n, err := x.Len(ctx)
	require.NoError(t, err)
	require.Equal(t, 5, n)

	lb, err := x.LowerBound(ctx, 0)
	require.NoError(t, err)
	require.Equal(t, 0, lb)

	lb, err = x.LowerBound(ctx, s2.CellID(^uint64(0)))
	require.NoError(t, err)
	require.Equal(t, n, lb)

	var cells []s2.CellID
	require.NoError(t, x.Each(ctx, func(s PointShape[fixture]) bool {
		cells = append(cells, s.Cell)
		return true
	}))
	for i, c := range cells {
		lb, err := x.LowerBound(ctx, c)
		require.NoError(t, err)
		require.Equal(t, i, lb)
		lb, err = x.LowerBound(ctx, c+1)
		require.NoError(t, err)
		require.Equal(t, i+1, lb)
	}
}

// countingStore counts the sorts that reach the backing store.
type countingStore[T any] struct {
	MemStore[T]
	sorts int
}

func (c *countingStore[T]) Sort(ctx context.Context) error {
	c.sorts++
	return c.MemStore.Sort(ctx)
}

func TestSortOnce(t *testing.T) {
	ctx := context.Background()
	core, logs := observer.New(zapcore.DebugLevel)
	store := &countingStore[int]{}
	x := NewWithStore[int](store, WithLogger(zap.New(core)))

	require.NoError(t, x.InsertLonLat(ctx, 1, 2, 1))
	require.NoError(t, x.InsertLonLat(ctx, 3, 4, 2))
	require.NoError(t, x.Sort(ctx))
	require.NoError(t, x.Sort(ctx))
	_, err := x.SearchRange(ctx, s2.CellIDFromFace(0).RangeMin(), s2.CellIDFromFace(5).RangeMax())
	require.NoError(t, err)
	assert.Equal(t, 1, store.sorts)

	// A new insert makes the index dirty again.
	require.NoError(t, x.InsertLonLat(ctx, 5, 6, 3))
	_, err = x.SearchRadiusLonLat(ctx, 1, 2, s1.RightChordAngle)
	require.NoError(t, err)
	assert.Equal(t, 2, store.sorts)

	sorted := logs.FilterMessage("sorted point index").All()
	require.Len(t, sorted, 2)
	assert.Equal(t, int64(3), sorted[1].ContextMap()["entries"])
	assert.Equal(t, 1, logs.FilterMessage("radius search").Len())
}

func TestEachOrderAndStop(t *testing.T) {
	ctx := context.Background()
	x := newFixtureIndex(t)
	var seen []PointShape[fixture]
	require.NoError(t, x.Each(ctx, func(s PointShape[fixture]) bool {
		seen = append(seen, s)
		return true
	}))
	require.Len(t, seen, 5)
	for i := 1; i < len(seen); i++ {
		require.Less(t, seen[i-1].Cell, seen[i].Cell)
	}

	count := 0
	require.NoError(t, x.Each(ctx, func(PointShape[fixture]) bool {
		count++
		return count < 2
	}))
	require.Equal(t, 2, count)
}

var errBoom = errors.New("boom")

// failingStore fails every read after the first n.
type failingStore struct {
	MemStore[int]
	reads int
	n     int
}

func (f *failingStore) Get(ctx context.Context, i int) (PointShape[int], error) {
	f.reads++
	if f.reads > f.n {
		return PointShape[int]{}, errBoom
	}
	return f.MemStore.Get(ctx, i)
}

func (f *failingStore) Push(ctx context.Context, s PointShape[int]) error {
	if s.Data < 0 {
		return errBoom
	}
	return f.MemStore.Push(ctx, s)
}

func TestStoreErrorsPropagate(t *testing.T) {
	ctx := context.Background()
	store := &failingStore{n: 1}
	x := NewWithStore[int](store)
	for i := 0; i < 10; i++ {
		require.NoError(t, x.InsertLonLat(ctx, float64(i), 0, i))
	}
	_, err := x.SearchRange(ctx, s2.CellIDFromFace(0).RangeMin(), s2.CellIDFromFace(0).RangeMax())
	require.ErrorIs(t, err, errBoom)

	_, err = x.SearchRadiusLonLat(ctx, 0, 0, s1.RightChordAngle)
	require.ErrorIs(t, err, errBoom)

	err = x.InsertLonLat(ctx, 0, 0, -1)
	require.ErrorIs(t, err, errBoom)
}

func TestCoveringCacheSameResults(t *testing.T) {
	ctx := context.Background()
	cache, err := NewCoveringCache(1 << 16)
	require.NoError(t, err)
	defer cache.Close()

	plain := New[int]()
	cached := New[int](WithCoveringCache(cache))
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < 500; i++ {
		lon, lat := rng.Float64()*20, rng.Float64()*20
		require.NoError(t, plain.InsertLonLat(ctx, lon, lat, i))
		require.NoError(t, cached.InsertLonLat(ctx, lon, lat, i))
	}
	for iter := 0; iter < 20; iter++ {
		target := s2.PointFromLonLat(rng.Float64()*20, rng.Float64()*20)
		radius := s1.ChordAngleFromAngle(s1.Angle(rng.Float64()*3) * s1.Degree)
		want, err := plain.SearchRadius(ctx, target, radius)
		require.NoError(t, err)
		for range 2 {
			got, err := cached.SearchRadius(ctx, target, radius)
			require.NoError(t, err)
			require.Equal(t, want, got)
			cache.Wait()
		}
	}
}

func TestSearchRadiusRegionCoverer(t *testing.T) {
	ctx := context.Background()
	cache, err := NewCoveringCache(1 << 12)
	require.NoError(t, err)
	defer cache.Close()

	rc := s2.NewRegionCoverer()
	rc.MaxCells = 4
	plain := New[int]()
	bounded := New[int](WithRegionCoverer(rc))
	both := New[int](WithRegionCoverer(rc), WithCoveringCache(cache))
	rng := rand.New(rand.NewSource(4))
	for i := 0; i < 1000; i++ {
		p := s2.PointFromLonLat(rng.Float64()*10, rng.Float64()*10)
		for _, x := range []*PointIndex[int]{plain, bounded, both} {
			require.NoError(t, x.Insert(ctx, p, i))
		}
	}
	for iter := 0; iter < 30; iter++ {
		target := s2.PointFromLonLat(rng.Float64()*10, rng.Float64()*10)
		radius := s1.ChordAngleFromAngle(s1.Angle(rng.Float64()*2) * s1.Degree)
		want, err := plain.SearchRadius(ctx, target, radius)
		require.NoError(t, err)
		got, err := bounded.SearchRadius(ctx, target, radius)
		require.NoError(t, err)
		require.Equal(t, want, got)
		got, err = both.SearchRadius(ctx, target, radius)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}

	// The cache keeps bounded and depth first coverings apart.
	center, radius := s2.PointFromLonLat(5, 5), s1.ChordAngleFromAngle(s1.Degree)
	require.Equal(t, s2.CapFromChordAngle(center, radius, 0).IntersectingCells(), cache.Covering(center, radius))
	cache.Wait()
	require.Equal(t, rc.CellCovering(s2.CapFromChordAngle(center, radius, 0)), cache.lookup(center, radius, rc))
}
