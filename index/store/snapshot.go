package store

import (
	"bufio"
	"bytes"
	"context"
	"os"
	"path/filepath"

	"github.com/edsrzf/mmap-go"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/Open-S2/gis-tools-sub000/index"
)

// Snapshot is a read-only index.Store over a memory mapped snapshot file.
// Entries are in cell order, so Sort does nothing. A Snapshot is safe for
// concurrent reads.
type Snapshot[T any] struct {
	f       *os.File
	data    mmap.MMap
	hdr     Header
	codec   index.Codec[T]
	records []byte
	payload []byte
}

// OpenSnapshot maps the snapshot at path.
func OpenSnapshot[T any](path string, codec index.Codec[T]) (*Snapshot[T], error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open snapshot")
	}
	m, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, multierr.Append(errors.Wrap(err, "map snapshot"), f.Close())
	}
	s := &Snapshot[T]{f: f, data: m, codec: codec}
	h, err := DecodeHeader(m)
	if err != nil {
		return nil, multierr.Append(errors.Wrap(err, path), s.Close())
	}
	s.hdr = *h
	s.records = m[h.RecordsOffset : h.RecordsOffset+h.Count*RecordSize]
	s.payload = m[h.PayloadOffset : h.PayloadOffset+h.PayloadLen]
	return s, nil
}

// Header returns the snapshot's header.
func (s *Snapshot[T]) Header() Header { return s.hdr }

// Size returns the size of the mapped file in bytes.
func (s *Snapshot[T]) Size() int { return len(s.data) }

func (s *Snapshot[T]) Push(context.Context, index.PointShape[T]) error {
	return index.ErrReadOnly
}

func (s *Snapshot[T]) entry(i int) (index.PointShape[T], error) {
	var e index.PointShape[T]
	r := getRecord(s.records[i*RecordSize:])
	if r.payloadOff > uint64(len(s.payload)) || r.payloadLen > uint64(len(s.payload))-r.payloadOff {
		return e, errors.Wrapf(ErrBadSnapshot, "payload of entry %d out of bounds", i)
	}
	data, err := s.codec.Unmarshal(s.payload[r.payloadOff : r.payloadOff+r.payloadLen])
	if err != nil {
		return e, errors.Wrapf(err, "entry %d", i)
	}
	e.Cell, e.Point, e.Data = r.cell, r.point, data
	return e, nil
}

func (s *Snapshot[T]) Get(_ context.Context, i int) (index.PointShape[T], error) {
	if i < 0 || uint64(i) >= s.hdr.Count {
		var zero index.PointShape[T]
		return zero, errors.Wrapf(index.ErrIndexOutOfRange, "get %d of %d", i, s.hdr.Count)
	}
	return s.entry(i)
}

func (s *Snapshot[T]) GetRange(_ context.Context, lo, hi int) ([]index.PointShape[T], error) {
	if lo < 0 || uint64(hi) > s.hdr.Count || lo > hi {
		return nil, errors.Wrapf(index.ErrIndexOutOfRange, "range [%d, %d) of %d", lo, hi, s.hdr.Count)
	}
	res := make([]index.PointShape[T], 0, hi-lo)
	for i := lo; i < hi; i++ {
		e, err := s.entry(i)
		if err != nil {
			return nil, err
		}
		res = append(res, e)
	}
	return res, nil
}

func (s *Snapshot[T]) Len(context.Context) (int, error) {
	return int(s.hdr.Count), nil
}

func (s *Snapshot[T]) Sort(context.Context) error { return nil }

func (s *Snapshot[T]) Each(ctx context.Context, fn func(index.PointShape[T]) bool) error {
	for i := 0; uint64(i) < s.hdr.Count; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		e, err := s.entry(i)
		if err != nil {
			return err
		}
		if !fn(e) {
			return nil
		}
	}
	return nil
}

// Close unmaps the file and closes it.
func (s *Snapshot[T]) Close() error {
	var err error
	if s.data != nil {
		err = multierr.Append(err, s.data.Unmap())
		s.data, s.records, s.payload = nil, nil, nil
	}
	if s.f != nil {
		err = multierr.Append(err, s.f.Close())
		s.f = nil
	}
	return err
}

// WriteSnapshot writes the entries of x to path in cell order. The file is
// written next to path and renamed into place, so readers never see a
// partial snapshot.
func WriteSnapshot[T any](ctx context.Context, path string, x *index.PointIndex[T], codec index.Codec[T]) (err error) {
	n, err := x.Len(ctx)
	if err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp*")
	if err != nil {
		return errors.Wrap(err, "create snapshot")
	}
	name := f.Name()
	defer func() {
		if err == nil {
			return
		}
		if f != nil {
			err = multierr.Append(err, f.Close())
		}
		err = multierr.Append(err, os.Remove(name))
	}()

	h := Header{
		Count:         uint64(n),
		RecordsOffset: HeaderSize,
		PayloadOffset: HeaderSize + uint64(n)*RecordSize,
	}
	if _, err = f.Write(make([]byte, HeaderSize)); err != nil {
		return errors.Wrap(err, "write snapshot")
	}

	w := bufio.NewWriter(f)
	var payloads bytes.Buffer
	var rec [RecordSize]byte
	var werr error
	written := 0
	err = x.Each(ctx, func(s index.PointShape[T]) bool {
		b, err := codec.Marshal(s.Data)
		if err != nil {
			werr = err
			return false
		}
		putRecord(rec[:], record{
			cell:       s.Cell,
			point:      s.Point,
			payloadOff: uint64(payloads.Len()),
			payloadLen: uint64(len(b)),
		})
		payloads.Write(b)
		if _, err := w.Write(rec[:]); err != nil {
			werr = err
			return false
		}
		written++
		return true
	})
	if err = multierr.Append(err, werr); err != nil {
		return errors.Wrap(err, "write snapshot")
	}
	if written != n {
		return errors.Errorf("write snapshot: index changed size from %d to %d", n, written)
	}
	h.PayloadLen = uint64(payloads.Len())
	if _, err = payloads.WriteTo(w); err != nil {
		return errors.Wrap(err, "write snapshot")
	}
	if err = w.Flush(); err != nil {
		return errors.Wrap(err, "write snapshot")
	}

	hb, err := EncodeHeader(&h)
	if err != nil {
		return err
	}
	if _, err = f.WriteAt(hb, 0); err != nil {
		return errors.Wrap(err, "write snapshot header")
	}
	if err = f.Sync(); err != nil {
		return errors.Wrap(err, "sync snapshot")
	}
	cerr := f.Close()
	f = nil
	if cerr != nil {
		return errors.Wrap(cerr, "close snapshot")
	}
	if err = os.Rename(name, path); err != nil {
		return errors.Wrap(err, "rename snapshot")
	}
	return nil
}
