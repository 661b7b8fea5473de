// Package genstore keeps per-key generation counters for mirrored snapshots.
// A mirror stamps every entry with the generation current at write time and
// bumps it on disconnect, which orphans whatever the closed connection left
// behind.
package genstore

import (
	"context"
	"time"
)

// GenStore abstracts where generations live.
// Use LocalGenStore for a mirror read only in-process, or RedisGenStore when
// readers live in other processes.
type GenStore interface {
	// Snapshot returns the current generation; missing => 0.
	Snapshot(ctx context.Context, storageKey string) (uint64, error)
	// Bump atomically increments and returns the new generation.
	Bump(ctx context.Context, storageKey string) (uint64, error)
	// Cleanup prunes old metadata if applicable (no-op for Redis).
	Cleanup(retention time.Duration)
	// Close releases resources (no-op ok).
	Close(context.Context) error
}
