package index

import (
	"encoding/json"
	"slices"

	"github.com/pkg/errors"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkb"
	"google.golang.org/protobuf/proto"
)

// Codec converts payloads to and from bytes for stores that persist them.
// Unmarshal must not retain b, which may point into a memory map.
type Codec[T any] interface {
	Marshal(v T) ([]byte, error)
	Unmarshal(b []byte) (T, error)
}

// JSONCodec encodes payloads as JSON.
type JSONCodec[T any] struct{}

func (JSONCodec[T]) Marshal(v T) ([]byte, error) {
	b, err := json.Marshal(v)
	return b, errors.Wrap(err, "json marshal")
}

func (JSONCodec[T]) Unmarshal(b []byte) (T, error) {
	var v T
	err := json.Unmarshal(b, &v)
	return v, errors.Wrap(err, "json unmarshal")
}

// ProtoCodec encodes protocol buffer payloads in the binary wire format.
// New allocates the message Unmarshal decodes into.
type ProtoCodec[M proto.Message] struct {
	New func() M
}

func (c ProtoCodec[M]) Marshal(m M) ([]byte, error) {
	b, err := proto.Marshal(m)
	return b, errors.Wrap(err, "proto marshal")
}

func (c ProtoCodec[M]) Unmarshal(b []byte) (M, error) {
	m := c.New()
	err := proto.Unmarshal(b, m)
	return m, errors.Wrap(err, "proto unmarshal")
}

// BytesCodec stores raw byte payloads.
type BytesCodec struct{}

func (BytesCodec) Marshal(v []byte) ([]byte, error) { return v, nil }

func (BytesCodec) Unmarshal(b []byte) ([]byte, error) { return slices.Clone(b), nil }

// WKBCodec stores geometry payloads as little endian well-known binary.
type WKBCodec struct{}

func (WKBCodec) Marshal(g geom.T) ([]byte, error) {
	b, err := wkb.Marshal(g, wkb.NDR)
	return b, errors.Wrap(err, "wkb marshal")
}

func (WKBCodec) Unmarshal(b []byte) (geom.T, error) {
	g, err := wkb.Unmarshal(b)
	return g, errors.Wrap(err, "wkb unmarshal")
}
