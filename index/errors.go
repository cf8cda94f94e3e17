package index

import "github.com/pkg/errors"

var (
	// ErrIndexOutOfRange is returned by stores for positions outside
	// [0, Len).
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrReadOnly is returned by stores that cannot accept new entries.
	ErrReadOnly = errors.New("store is read-only")

	// ErrUnsupportedGeometry is returned by InsertGeom for geometries
	// that do not reduce to points.
	ErrUnsupportedGeometry = errors.New("unsupported geometry")
)
