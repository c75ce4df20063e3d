// Package cache stores solve outcomes and rendered artifacts by content key.
//
// Keys are derived from the instance fingerprint and every option that can
// change the result (see [Keyer]). Backends: [FileCache] for the CLI,
// [RedisCache] for shared deployments of the HTTP API, and [NullCache]
// to disable caching.
//
// Only proven verdicts are worth caching: an Optimal or Infeasible outcome
// is the same on every run, a timeout is not. The pipeline enforces that.
package cache

import (
	"context"
	"time"
)

// Default time-to-live values.
const (
	// TTLOutcome is how long a proven outcome is kept.
	TTLOutcome = 30 * 24 * time.Hour
	// TTLArtifact is how long a rendered artifact is kept.
	TTLArtifact = 7 * 24 * time.Hour
)

// Cache is a byte-oriented key/value store with expiry.
// A miss is reported as (nil, false, nil). Errors are backend failures or
// ErrCorrupt for an entry that could not be decoded.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}
