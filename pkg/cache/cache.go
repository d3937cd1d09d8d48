// Package cache stores derived artifacts (commit lists, layouts, rendered
// output) so repeated runs against an unchanged repository skip work.
//
// # Backends
//
//   - [FileCache]: one JSON file per entry under a directory, for the CLI
//   - [RedisCache]: shared cache for several `lanegraph serve` instances
//   - [NullCache]: stores nothing, for --no-cache and tests
//
// # Keys
//
// A [Keyer] derives keys from content. History keys include a fingerprint
// of the repository's refs, so any commit, branch move or stash invalidates
// them. Layout and artifact keys hash the data they are derived from, so
// they stay valid for as long as the inputs do.
//
// # Failure policy
//
// Callers treat cache errors as misses. A broken cache slows a run down but
// never fails it.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with optional expiry.
type Cache interface {
	// Get returns the value for key. A miss is (nil, false, nil).
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores data under key. A ttl of 0 means no expiry.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases backend resources.
	Close() error
}

// Default time-to-live per entry kind.
const (
	// TTLHistory bounds how long a commit list outlives its refs.
	TTLHistory = 10 * time.Minute
	// TTLLayout and TTLArtifact are content-addressed.
	TTLLayout   = 7 * 24 * time.Hour
	TTLArtifact = 7 * 24 * time.Hour
)
