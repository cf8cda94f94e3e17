package store

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/pkg/errors"

	"github.com/Open-S2/gis-tools-sub000/s2"
)

const (
	// HeaderSize is the fixed size of a snapshot header.
	HeaderSize = 64

	// Magic identifies a point index snapshot.
	Magic = "S2PX"

	// FormatVersion is the current snapshot format version.
	FormatVersion uint16 = 1

	// RecordSize is the size of one entry record: the cell, the point and
	// the location of its payload.
	RecordSize = 48
)

// ErrBadSnapshot is returned for files that are not valid snapshots.
var ErrBadSnapshot = errors.New("bad snapshot")

// Header is the persisted snapshot metadata. All integers are little
// endian.
//
// A snapshot is laid out as the header, Count records starting at
// RecordsOffset, then the concatenated payloads starting at PayloadOffset.
type Header struct {
	Magic         [4]byte
	Version       uint16
	Flags         uint16
	Count         uint64
	RecordsOffset uint64
	PayloadOffset uint64
	PayloadLen    uint64
	Reserved      [24]byte // pad to 64 bytes
}

// EncodeHeader stamps h with the magic and version and returns its bytes.
func EncodeHeader(h *Header) ([]byte, error) {
	if h == nil {
		return nil, errors.New("header is nil")
	}
	copy(h.Magic[:], Magic)
	h.Version = FormatVersion
	var w bytes.Buffer
	if err := binary.Write(&w, binary.LittleEndian, h); err != nil {
		return nil, errors.Wrap(err, "encode header")
	}
	return w.Bytes(), nil
}

// DecodeHeader reads and validates the header at the start of src.
func DecodeHeader(src []byte) (*Header, error) {
	if len(src) < HeaderSize {
		return nil, errors.Wrap(ErrBadSnapshot, "header too short")
	}
	var h Header
	if err := binary.Read(bytes.NewReader(src[:HeaderSize]), binary.LittleEndian, &h); err != nil {
		return nil, errors.Wrap(ErrBadSnapshot, err.Error())
	}
	if string(h.Magic[:]) != Magic {
		return nil, errors.Wrap(ErrBadSnapshot, "invalid magic")
	}
	if h.Version != FormatVersion {
		return nil, errors.Wrapf(ErrBadSnapshot, "unsupported format version %d", h.Version)
	}
	if h.RecordsOffset < HeaderSize ||
		h.Count > (math.MaxUint64-h.RecordsOffset)/RecordSize ||
		h.RecordsOffset+h.Count*RecordSize > h.PayloadOffset ||
		h.PayloadOffset+h.PayloadLen < h.PayloadOffset ||
		h.PayloadOffset+h.PayloadLen > uint64(len(src)) {
		return nil, errors.Wrap(ErrBadSnapshot, "sections out of bounds")
	}
	return &h, nil
}

// record is the fixed size part of an entry. The payload offset is
// relative to the payload section.
type record struct {
	cell       s2.CellID
	point      s2.Point
	payloadOff uint64
	payloadLen uint64
}

func putRecord(b []byte, r record) {
	binary.LittleEndian.PutUint64(b[0:], uint64(r.cell))
	binary.LittleEndian.PutUint64(b[8:], math.Float64bits(r.point.X))
	binary.LittleEndian.PutUint64(b[16:], math.Float64bits(r.point.Y))
	binary.LittleEndian.PutUint64(b[24:], math.Float64bits(r.point.Z))
	binary.LittleEndian.PutUint64(b[32:], r.payloadOff)
	binary.LittleEndian.PutUint64(b[40:], r.payloadLen)
}

func getRecord(b []byte) record {
	var r record
	r.cell = s2.CellID(binary.LittleEndian.Uint64(b[0:]))
	r.point.X = math.Float64frombits(binary.LittleEndian.Uint64(b[8:]))
	r.point.Y = math.Float64frombits(binary.LittleEndian.Uint64(b[16:]))
	r.point.Z = math.Float64frombits(binary.LittleEndian.Uint64(b[24:]))
	r.payloadOff = binary.LittleEndian.Uint64(b[32:])
	r.payloadLen = binary.LittleEndian.Uint64(b[40:])
	return r
}
