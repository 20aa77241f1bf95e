// Package dedupe provides an advisory lock used by the worker to guard the
// one genuinely non-transactional side effect in the pipeline: the call to
// the external publisher. The database's row-level locking already keeps two
// workers from claiming the same job, but it can't stop a job the sweeper
// rescued from being published twice if the original worker's call was still
// in flight — this TTL'd lock is that extra guard.
package dedupe

import (
	"context"
	"time"
)

// Store is a set-if-absent-with-TTL lock keyed by dedupe key.
type Store interface {
	// Acquire returns true if key was not already held, setting it with ttl.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Release removes the lock before its TTL runs out; the worker calls it
	// once a job has succeeded, been dead-lettered or been found cancelled.
	Release(ctx context.Context, key string) error
}
