// Package cache stores derived artifacts, such as analysis reports and
// rendered lineage trees, keyed by a hash of the data file they came from.
//
// Three backends are available: [FileCache] for the CLI, [RedisCache] for
// a shared server cache and [NullCache] to disable caching.
package cache

import (
	"context"
	"time"
)

// Cache is a byte store with optional expiry.
type Cache interface {
	// Get returns the stored data and whether it was found.
	// A missing or expired entry is not an error.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data. A ttl of zero or less never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes an entry. Deleting a missing entry is not an error.
	Delete(ctx context.Context, key string) error
	Close() error
}

// ReportKeyOpts are the settings an analysis report depends on.
type ReportKeyOpts struct {
	DivisionLookahead int `json:"division_lookahead"`
	MinSpurLength     int `json:"min_spur_length"`
	Window            int `json:"window"`
}

// TreeKeyOpts are the settings a rendered lineage tree depends on.
type TreeKeyOpts struct {
	MinDivisions  int    `json:"min_divisions"`
	Detailed      bool   `json:"detailed"`
	LastTimePoint int    `json:"last_time_point"`
	Format        string `json:"format"`
}

// Keyer builds cache keys. dataHash is the [Hash] of the data file.
type Keyer interface {
	ReportKey(dataHash string, opts ReportKeyOpts) string
	TreeKey(dataHash string, opts TreeKeyOpts) string
}

// DefaultKeyer hashes all options into the key.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

func (DefaultKeyer) ReportKey(dataHash string, opts ReportKeyOpts) string {
	return hashKey("report", dataHash, opts)
}

func (DefaultKeyer) TreeKey(dataHash string, opts TreeKeyOpts) string {
	return hashKey("tree", dataHash, opts)
}

// ScopedKeyer prefixes every key of an inner keyer, so that several
// deployments can share one Redis database.
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix. A nil inner keyer means
// the [DefaultKeyer].
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

func (k *ScopedKeyer) ReportKey(dataHash string, opts ReportKeyOpts) string {
	return k.prefix + k.inner.ReportKey(dataHash, opts)
}

func (k *ScopedKeyer) TreeKey(dataHash string, opts TreeKeyOpts) string {
	return k.prefix + k.inner.TreeKey(dataHash, opts)
}
