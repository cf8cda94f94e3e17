package index

import (
	"encoding/binary"
	"math"

	"github.com/dgraph-io/ristretto/v2"
	"github.com/dgryski/go-farm"
	"github.com/golang/geo/s1"
	"github.com/pkg/errors"

	"github.com/Open-S2/gis-tools-sub000/s2"
)

// CoveringCache remembers the coverings of recently queried caps. Its
// cost is measured in cells, so maxCells bounds the memory it holds.
//
// A CoveringCache is safe for concurrent use. Cached coverings are shared
// and must not be modified.
type CoveringCache struct {
	cache *ristretto.Cache[uint64, *coveringEntry]
}

type coveringEntry struct {
	center s2.Point
	radius s1.ChordAngle
	params coverParams
	cells  s2.CellUnion
}

// coverParams identifies how a covering was computed. The zero value is
// the default depth first covering.
type coverParams struct {
	bounded bool
	coverer s2.RegionCoverer
}

func paramsOf(rc *s2.RegionCoverer) coverParams {
	if rc == nil {
		return coverParams{}
	}
	return coverParams{bounded: true, coverer: *rc}
}

// NewCoveringCache returns a cache holding up to roughly maxCells cells.
func NewCoveringCache(maxCells int64) (*CoveringCache, error) {
	if maxCells <= 0 {
		return nil, errors.Errorf("covering cache size must be positive, got %d", maxCells)
	}
	c, err := ristretto.NewCache(&ristretto.Config[uint64, *coveringEntry]{
		// Ten counters per expected entry at about twenty cells an entry.
		NumCounters:        max(1000, maxCells/2),
		MaxCost:            maxCells,
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "new covering cache")
	}
	return &CoveringCache{cache: c}, nil
}

// Covering returns the cells intersecting the cap at center with the given
// radius, computing and storing them on a miss.
func (cc *CoveringCache) Covering(center s2.Point, radius s1.ChordAngle) s2.CellUnion {
	return cc.lookup(center, radius, nil)
}

// lookup returns the covering of the cap, computed by rc when it is not
// nil. Entries are checked against the exact cap and coverer, so a
// fingerprint collision misses instead of returning a wrong covering.
func (cc *CoveringCache) lookup(center s2.Point, radius s1.ChordAngle, rc *s2.RegionCoverer) s2.CellUnion {
	params := paramsOf(rc)
	key := coveringKey(center, radius, params)
	if e, ok := cc.cache.Get(key); ok && e.center == center && e.radius == radius && e.params == params {
		return e.cells
	}
	cells := computeCovering(center, radius, rc)
	cc.cache.Set(key, &coveringEntry{center: center, radius: radius, params: params, cells: cells}, int64(max(1, len(cells))))
	return cells
}

// computeCovering covers the cap with rc, or depth first when rc is nil.
func computeCovering(center s2.Point, radius s1.ChordAngle, rc *s2.RegionCoverer) s2.CellUnion {
	c := s2.CapFromChordAngle(center, radius, struct{}{})
	if rc != nil {
		return rc.CellCovering(c)
	}
	return c.IntersectingCells()
}

// Wait blocks until pending writes are visible to Covering.
func (cc *CoveringCache) Wait() { cc.cache.Wait() }

// Close stops the cache's background goroutines.
func (cc *CoveringCache) Close() { cc.cache.Close() }

// coveringKey fingerprints the exact bits of a cap and its coverer.
func coveringKey(center s2.Point, radius s1.ChordAngle, p coverParams) uint64 {
	var buf [64]byte
	binary.LittleEndian.PutUint64(buf[0:], math.Float64bits(center.X))
	binary.LittleEndian.PutUint64(buf[8:], math.Float64bits(center.Y))
	binary.LittleEndian.PutUint64(buf[16:], math.Float64bits(center.Z))
	binary.LittleEndian.PutUint64(buf[24:], math.Float64bits(float64(radius)))
	if p.bounded {
		buf[32] = 1
		binary.LittleEndian.PutUint64(buf[33:], uint64(p.coverer.MinLevel))
		binary.LittleEndian.PutUint64(buf[41:], uint64(p.coverer.MaxLevel))
		binary.LittleEndian.PutUint32(buf[49:], uint32(p.coverer.LevelMod))
		binary.LittleEndian.PutUint64(buf[53:], uint64(p.coverer.MaxCells))
	}
	return farm.Fingerprint64(buf[:])
}
