package index

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Open-S2/gis-tools-sub000/s2"
)

func TestMemStore(t *testing.T) {
	ctx := context.Background()
	m := NewMemStore[string](4)
	lonlats := [][2]float64{{10, 10}, {-120, 45}, {0, 0}, {170, -80}, {10, 10}}
	for i, ll := range lonlats {
		require.NoError(t, m.Push(ctx, NewPointShape(s2.PointFromLonLat(ll[0], ll[1]), string(rune('a'+i)))))
	}
	n, err := m.Len(ctx)
	require.NoError(t, err)
	require.Equal(t, 5, n)

	require.NoError(t, m.Sort(ctx))
	all, err := m.GetRange(ctx, 0, n)
	require.NoError(t, err)
	for i := 1; i < n; i++ {
		require.LessOrEqual(t, all[i-1].Cell, all[i].Cell)
	}
	// Equal cells keep insertion order.
	for i := 1; i < n; i++ {
		if all[i-1].Cell == all[i].Cell {
			require.Equal(t, "a", all[i-1].Data)
			require.Equal(t, "e", all[i].Data)
		}
	}

	// GetRange hands out a copy.
	all[0].Data = "changed"
	first, err := m.Get(ctx, 0)
	require.NoError(t, err)
	require.NotEqual(t, "changed", first.Data)

	empty, err := m.GetRange(ctx, 2, 2)
	require.NoError(t, err)
	require.Empty(t, empty)
}

func TestMemStoreOutOfRange(t *testing.T) {
	ctx := context.Background()
	var m MemStore[int]
	require.NoError(t, m.Push(ctx, NewPointShape(s2.PointFromLonLat(1, 1), 1)))

	for _, i := range []int{-1, 1, 100} {
		_, err := m.Get(ctx, i)
		require.ErrorIs(t, err, ErrIndexOutOfRange, "Get(%d)", i)
	}
	for _, r := range [][2]int{{-1, 1}, {0, 2}, {1, 0}} {
		_, err := m.GetRange(ctx, r[0], r[1])
		require.ErrorIs(t, err, ErrIndexOutOfRange, "GetRange(%d, %d)", r[0], r[1])
	}
}

func TestMemStoreEachCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var m MemStore[int]
	require.NoError(t, m.Push(ctx, NewPointShape(s2.PointFromLonLat(1, 1), 1)))
	cancel()
	err := m.Each(ctx, func(PointShape[int]) bool { return true })
	require.ErrorIs(t, err, context.Canceled)
}

func TestPointShape(t *testing.T) {
	s := NewPointShape(s2.PointFromLonLat(12.5, -33.25), 7)
	require.True(t, s.Cell.IsLeaf())
	require.Equal(t, s2.CellIDFromLonLat(12.5, -33.25), s.Cell)

	lon, lat := s.LonLat()
	require.InDelta(t, 12.5, lon, 1e-12)
	require.InDelta(t, -33.25, lat, 1e-12)

	g := s.Geom()
	require.InDelta(t, 12.5, g.X(), 1e-12)
	require.InDelta(t, -33.25, g.Y(), 1e-12)
}
