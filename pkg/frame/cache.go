package frame

import (
	"sync"

	"github.com/gazelink-protocol/gazelink-go/pkg/status"
)

// Cache is the local snapshot for one data domain. A fetch stores the
// latest upstream frame into the cache only if it is newer than what is
// already held; getters read the snapshot without synchronizing, so a
// sequence of reads between two fetches is guaranteed to originate from a
// single upstream frame.
//
// The zero value is an empty cache.
type Cache[T any] struct {
	mu    sync.RWMutex
	ts    Timestamp
	data  T
	valid bool
}

// Store records a frame snapshot if it is newer than the cached one.
// It returns true when the cache was updated. Storing an older or
// identical frame is a no-op, leaving the cached timestamp unchanged.
func (c *Cache[T]) Store(ts Timestamp, data T) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.valid && !ts.After(c.ts) {
		return false
	}
	c.ts = ts
	c.data = data
	c.valid = true
	return true
}

// Snapshot returns the cached frame and its timestamp.
// It fails with Data_NoUpdate if no frame was ever stored.
func (c *Cache[T]) Snapshot() (T, Timestamp, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.valid {
		var zero T
		return zero, Timestamp{}, status.ErrNoUpdate
	}
	return c.data, c.ts, nil
}

// Timestamp returns the timestamp of the last stored frame.
// It fails with Data_NoUpdate if no frame was ever stored.
func (c *Cache[T]) Timestamp() (Timestamp, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.valid {
		return Timestamp{}, status.ErrNoUpdate
	}
	return c.ts, nil
}

// Invalidate empties the cache, as if nothing was ever stored.
func (c *Cache[T]) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	c.ts = Timestamp{}
	c.data = zero
	c.valid = false
}
