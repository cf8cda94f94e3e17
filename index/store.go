package index

import (
	"cmp"
	"context"
	"slices"

	"github.com/pkg/errors"
)

// Store is the backing sequence of a PointIndex. Implementations may keep
// entries in memory or behind I/O; every method may block and reports
// store failures as errors, which the index passes through unchanged.
//
// A Store is not safe for concurrent use unless the implementation says
// otherwise.
type Store[T any] interface {
	// Push appends an entry.
	Push(ctx context.Context, s PointShape[T]) error
	// Get returns the entry at position i.
	Get(ctx context.Context, i int) (PointShape[T], error)
	// GetRange returns the entries at positions [lo, hi).
	GetRange(ctx context.Context, lo, hi int) ([]PointShape[T], error)
	// Len returns the number of entries.
	Len(ctx context.Context) (int, error)
	// Sort orders the entries by ascending cell.
	Sort(ctx context.Context) error
	// Each calls fn for every entry in position order until fn returns
	// false.
	Each(ctx context.Context, fn func(PointShape[T]) bool) error
}

// MemStore is a slice backed Store. The zero value is ready to use.
type MemStore[T any] struct {
	shapes []PointShape[T]
}

// NewMemStore returns an empty store with room for n entries.
func NewMemStore[T any](n int) *MemStore[T] {
	return &MemStore[T]{shapes: make([]PointShape[T], 0, n)}
}

func (m *MemStore[T]) Push(_ context.Context, s PointShape[T]) error {
	m.shapes = append(m.shapes, s)
	return nil
}

func (m *MemStore[T]) Get(_ context.Context, i int) (PointShape[T], error) {
	if i < 0 || i >= len(m.shapes) {
		var zero PointShape[T]
		return zero, errors.Wrapf(ErrIndexOutOfRange, "get %d of %d", i, len(m.shapes))
	}
	return m.shapes[i], nil
}

func (m *MemStore[T]) GetRange(_ context.Context, lo, hi int) ([]PointShape[T], error) {
	if lo < 0 || hi > len(m.shapes) || lo > hi {
		return nil, errors.Wrapf(ErrIndexOutOfRange, "range [%d, %d) of %d", lo, hi, len(m.shapes))
	}
	return slices.Clone(m.shapes[lo:hi]), nil
}

func (m *MemStore[T]) Len(context.Context) (int, error) {
	return len(m.shapes), nil
}

// Sort orders entries by cell, keeping insertion order among equal cells.
func (m *MemStore[T]) Sort(context.Context) error {
	slices.SortStableFunc(m.shapes, func(a, b PointShape[T]) int {
		return cmp.Compare(a.Cell, b.Cell)
	})
	return nil
}

func (m *MemStore[T]) Each(ctx context.Context, fn func(PointShape[T]) bool) error {
	for _, s := range m.shapes {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !fn(s) {
			return nil
		}
	}
	return nil
}
