package store

import (
	"bytes"
	"context"
	"encoding/binary"
	"math"

	"github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Open-S2/gis-tools-sub000/index"
	"github.com/Open-S2/gis-tools-sub000/s2"
)

const (
	keySize   = 16
	pointSize = 24
)

// Badger is an index.Store kept in a Badger database. Keys are the big
// endian cell followed by a big endian insertion sequence, so the
// database's key order is the sorted order of the index. Values hold the
// point followed by the encoded payload.
//
// Positions are resolved through an in-memory key list: insertion order
// until Sort, key order after it. Opening an existing database yields its
// entries in key order.
type Badger[T any] struct {
	db    *badger.DB
	codec index.Codec[T]
	keys  [][]byte
	seq   uint64
}

type badgerOptions struct {
	logger   *zap.Logger
	inMemory bool
}

// Option configures a Badger store.
type Option func(*badgerOptions)

// WithLogger routes Badger's own logging to l.
func WithLogger(l *zap.Logger) Option {
	return func(o *badgerOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithInMemory keeps the database in memory. The directory is ignored.
func WithInMemory() Option {
	return func(o *badgerOptions) { o.inMemory = true }
}

// zapLogger adapts a zap logger to badger.Logger.
type zapLogger struct {
	*zap.SugaredLogger
}

func (l zapLogger) Warningf(format string, args ...any) { l.Warnf(format, args...) }

// OpenBadger opens or creates the store in dir.
func OpenBadger[T any](dir string, codec index.Codec[T], opts ...Option) (*Badger[T], error) {
	o := badgerOptions{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	bopt := badger.DefaultOptions(dir).
		WithLogger(zapLogger{o.logger.Named("badger").Sugar()})
	if o.inMemory {
		bopt = bopt.WithDir("").WithValueDir("").WithInMemory(true)
	}
	db, err := badger.Open(bopt)
	if err != nil {
		return nil, errors.Wrapf(err, "open badger store at %q", dir)
	}
	b := &Badger[T]{db: db, codec: codec}
	if err := b.loadKeys(); err != nil {
		return nil, multierr.Append(errors.Wrap(err, "load keys"), db.Close())
	}
	if n := len(b.keys); n > 0 {
		b.seq = maxSeq(b.keys) + 1
		o.logger.Info("opened badger store", zap.String("dir", dir), zap.Int("entries", n))
	}
	return b, nil
}

// loadKeys replaces the key list with the database's keys in order.
func (b *Badger[T]) loadKeys() error {
	keys := make([][]byte, 0, len(b.keys))
	err := b.db.View(func(txn *badger.Txn) error {
		opt := badger.DefaultIteratorOptions
		opt.PrefetchValues = false
		itr := txn.NewIterator(opt)
		defer itr.Close()
		for itr.Rewind(); itr.Valid(); itr.Next() {
			keys = append(keys, itr.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return err
	}
	b.keys = keys
	return nil
}

func maxSeq(keys [][]byte) uint64 {
	var m uint64
	for _, k := range keys {
		m = max(m, binary.BigEndian.Uint64(k[8:]))
	}
	return m
}

func (b *Badger[T]) key(cell s2.CellID) []byte {
	k := make([]byte, keySize)
	binary.BigEndian.PutUint64(k, uint64(cell))
	binary.BigEndian.PutUint64(k[8:], b.seq)
	b.seq++
	return k
}

func (b *Badger[T]) Push(_ context.Context, s index.PointShape[T]) error {
	payload, err := b.codec.Marshal(s.Data)
	if err != nil {
		return err
	}
	val := make([]byte, pointSize+len(payload))
	binary.LittleEndian.PutUint64(val[0:], math.Float64bits(s.Point.X))
	binary.LittleEndian.PutUint64(val[8:], math.Float64bits(s.Point.Y))
	binary.LittleEndian.PutUint64(val[16:], math.Float64bits(s.Point.Z))
	copy(val[pointSize:], payload)

	k := b.key(s.Cell)
	if err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(k, val)
	}); err != nil {
		return errors.Wrap(err, "badger set")
	}
	b.keys = append(b.keys, k)
	return nil
}

func (b *Badger[T]) decode(k, val []byte) (index.PointShape[T], error) {
	var s index.PointShape[T]
	if len(val) < pointSize {
		return s, errors.Errorf("short value for key %x", k)
	}
	s.Cell = s2.CellID(binary.BigEndian.Uint64(k))
	s.Point.X = math.Float64frombits(binary.LittleEndian.Uint64(val[0:]))
	s.Point.Y = math.Float64frombits(binary.LittleEndian.Uint64(val[8:]))
	s.Point.Z = math.Float64frombits(binary.LittleEndian.Uint64(val[16:]))
	data, err := b.codec.Unmarshal(val[pointSize:])
	if err != nil {
		return s, err
	}
	s.Data = data
	return s, nil
}

func (b *Badger[T]) get(txn *badger.Txn, k []byte) (index.PointShape[T], error) {
	var s index.PointShape[T]
	item, err := txn.Get(k)
	if err != nil {
		return s, errors.Wrapf(err, "badger get %x", k)
	}
	err = item.Value(func(val []byte) error {
		s, err = b.decode(k, val)
		return err
	})
	return s, err
}

func (b *Badger[T]) Get(_ context.Context, i int) (index.PointShape[T], error) {
	if i < 0 || i >= len(b.keys) {
		var zero index.PointShape[T]
		return zero, errors.Wrapf(index.ErrIndexOutOfRange, "get %d of %d", i, len(b.keys))
	}
	var s index.PointShape[T]
	err := b.db.View(func(txn *badger.Txn) error {
		var err error
		s, err = b.get(txn, b.keys[i])
		return err
	})
	return s, err
}

func (b *Badger[T]) GetRange(ctx context.Context, lo, hi int) ([]index.PointShape[T], error) {
	if lo < 0 || hi > len(b.keys) || lo > hi {
		return nil, errors.Wrapf(index.ErrIndexOutOfRange, "range [%d, %d) of %d", lo, hi, len(b.keys))
	}
	res := make([]index.PointShape[T], 0, hi-lo)
	err := b.db.View(func(txn *badger.Txn) error {
		for _, k := range b.keys[lo:hi] {
			if err := ctx.Err(); err != nil {
				return err
			}
			s, err := b.get(txn, k)
			if err != nil {
				return err
			}
			res = append(res, s)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (b *Badger[T]) Len(context.Context) (int, error) {
	return len(b.keys), nil
}

// Sort reloads the key list in database order, which is cell order with
// ties broken by insertion.
func (b *Badger[T]) Sort(context.Context) error {
	if isSorted(b.keys) {
		return nil
	}
	return errors.Wrap(b.loadKeys(), "sort")
}

func isSorted(keys [][]byte) bool {
	for i := 1; i < len(keys); i++ {
		if bytes.Compare(keys[i-1], keys[i]) > 0 {
			return false
		}
	}
	return true
}

// Each streams entries in position order with a single read transaction.
func (b *Badger[T]) Each(ctx context.Context, fn func(index.PointShape[T]) bool) error {
	return b.db.View(func(txn *badger.Txn) error {
		for _, k := range b.keys {
			if err := ctx.Err(); err != nil {
				return err
			}
			s, err := b.get(txn, k)
			if err != nil {
				return err
			}
			if !fn(s) {
				return nil
			}
		}
		return nil
	})
}

// Close flushes and closes the database.
func (b *Badger[T]) Close() error {
	return errors.Wrap(b.db.Close(), "close badger store")
}
