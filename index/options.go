package index

import (
	"go.uber.org/zap"

	"github.com/Open-S2/gis-tools-sub000/s2"
)

type options struct {
	logger  *zap.Logger
	cache   *CoveringCache
	coverer *s2.RegionCoverer
}

// Option configures a PointIndex.
type Option func(*options)

// WithLogger sets the logger used for debug output. The default discards
// everything.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithCoveringCache lets radius queries reuse cap coverings. The cache may
// be shared by several indexes.
func WithCoveringCache(c *CoveringCache) Option {
	return func(o *options) { o.cache = c }
}

// WithRegionCoverer makes radius queries cover their cap with rc instead
// of the default depth first covering. A small MaxCells gives fewer,
// larger cells: fewer range scans, each over more candidates.
func WithRegionCoverer(rc *s2.RegionCoverer) Option {
	return func(o *options) { o.coverer = rc }
}

type searchOptions struct {
	maxResults int
}

// SearchOption configures a single query.
type SearchOption func(*searchOptions)

// WithMaxResults caps the number of entries scanned per cell range. Radius
// searches apply it to each covering cell separately. Values below one mean
// no cap.
func WithMaxResults(n int) SearchOption {
	return func(o *searchOptions) {
		if n > 0 {
			o.maxResults = n
		}
	}
}

func newSearchOptions(opts []SearchOption) searchOptions {
	so := searchOptions{}
	for _, opt := range opts {
		opt(&so)
	}
	return so
}

// limit reports whether n results reach the cap.
func (o searchOptions) limit(n int) bool {
	return o.maxResults > 0 && n >= o.maxResults
}
