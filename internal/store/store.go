// Package store defines the contract rdx needs from a remote key-value
// store: cursor-based key iteration plus independent point commands. The
// browsing core only depends on the interfaces here; the redis-backed
// implementation lives alongside them.
package store

import "context"

// CursorSet carries one pagination cursor per backing shard. A single-node
// store always uses a set of length one.
type CursorSet []uint64

// Done reports whether iteration is complete: every shard cursor is zero.
func (c CursorSet) Done() bool {
	var sum uint64
	for _, cursor := range c {
		sum += cursor
	}
	return sum == 0
}

// Clone returns an independent copy of the cursor set.
func (c CursorSet) Clone() CursorSet {
	if c == nil {
		return nil
	}
	out := make(CursorSet, len(c))
	copy(out, c)
	return out
}

// TTL sentinels, matching the store's TTL command semantics.
const (
	// TTLPersistent means the key exists but carries no expiry.
	TTLPersistent int64 = -1
	// TTLKeyMissing means the key does not exist.
	TTLKeyMissing int64 = -2
)

// Handle is a usable, possibly pooled connection to one named store target.
// Every method is an independent request/response; implementations must be
// safe for many concurrent in-flight requests.
type Handle interface {
	// FirstScan starts pattern iteration from the zero cursor.
	FirstScan(ctx context.Context, pattern string, count int64) (CursorSet, []string, error)
	// Scan continues pattern iteration from a previously returned set.
	Scan(ctx context.Context, cursors CursorSet, pattern string, count int64) (CursorSet, []string, error)

	// Type returns the store's lowercase type name for the key.
	Type(ctx context.Context, key string) (string, error)
	// TTL returns remaining seconds, or the TTLPersistent/TTLKeyMissing
	// sentinels.
	TTL(ctx context.Context, key string) (int64, error)
	// Get fetches the raw value of a string key.
	Get(ctx context.Context, key string) ([]byte, error)
	// LLen returns the total length of a list key.
	LLen(ctx context.Context, key string) (int64, error)
	// LRange fetches list elements in the inclusive [start, stop] range.
	LRange(ctx context.Context, key string, start, stop int64) ([]string, error)
	// Set writes a string value, replacing any previous value and TTL.
	Set(ctx context.Context, key, value string) error
	// Expire sets a relative expiry; the bool reports acceptance.
	Expire(ctx context.Context, key string, seconds int64) (bool, error)
	// Del removes the key.
	Del(ctx context.Context, key string) error
}

// Provider hands out handles for named connections. GetClient and
// GetConnection are distinct in the contract to allow pooled-vs-dedicated
// implementations; the redis provider backs both with the same pooled
// client.
type Provider interface {
	GetClient(ctx context.Context, name string) (Handle, error)
	GetConnection(ctx context.Context, name string) (Handle, error)
	// Close releases the handle for the named connection, if any.
	Close(name string) error
}
