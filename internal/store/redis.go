package store

import (
	"context"
	"fmt"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
	"github.com/redis/go-redis/v9"
)

// URLResolver maps a connection name to its redis URL.
type URLResolver func(name string) (string, bool)

// RedisProvider creates and caches go-redis clients per connection name.
// Handles are pooled by the underlying client, so a single handle is safe
// for many concurrent requests.
type RedisProvider struct {
	resolve URLResolver
	handles *xsync.MapOf[string, *redisHandle]
}

// NewRedisProvider returns a provider that resolves connection names
// through the given resolver (typically backed by the config file).
func NewRedisProvider(resolve URLResolver) *RedisProvider {
	return &RedisProvider{
		resolve: resolve,
		handles: xsync.NewMapOf[string, *redisHandle](),
	}
}

// GetClient returns the cached handle for the named connection, creating
// and ping-testing it on first use.
func (p *RedisProvider) GetClient(ctx context.Context, name string) (Handle, error) {
	if h, ok := p.handles.Load(name); ok {
		return h, nil
	}
	url, ok := p.resolve(name)
	if !ok {
		return nil, fmt.Errorf("unknown connection %q", name)
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse url for connection %q: %w", name, err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to %q: %w", name, err)
	}
	h, loaded := p.handles.LoadOrStore(name, &redisHandle{client: client})
	if loaded {
		// lost the race, another goroutine connected first
		_ = client.Close()
	}
	return h, nil
}

// GetConnection is an alias of GetClient; the pooled client serves both
// iteration and point commands.
func (p *RedisProvider) GetConnection(ctx context.Context, name string) (Handle, error) {
	return p.GetClient(ctx, name)
}

// Close releases the client cached for the named connection.
func (p *RedisProvider) Close(name string) error {
	h, ok := p.handles.LoadAndDelete(name)
	if !ok {
		return nil
	}
	return h.client.Close()
}

// redisHandle adapts a single-node go-redis client to the Handle contract.
// Cursor sets are always length one.
type redisHandle struct {
	client *redis.Client
}

func (h *redisHandle) FirstScan(ctx context.Context, pattern string, count int64) (CursorSet, []string, error) {
	return h.Scan(ctx, CursorSet{0}, pattern, count)
}

func (h *redisHandle) Scan(ctx context.Context, cursors CursorSet, pattern string, count int64) (CursorSet, []string, error) {
	var cursor uint64
	if len(cursors) > 0 {
		cursor = cursors[0]
	}
	keys, next, err := h.client.Scan(ctx, cursor, pattern, count).Result()
	if err != nil {
		return nil, nil, fmt.Errorf("scan %q: %w", pattern, err)
	}
	return CursorSet{next}, keys, nil
}

func (h *redisHandle) Type(ctx context.Context, key string) (string, error) {
	t, err := h.client.Type(ctx, key).Result()
	if err != nil {
		return "", fmt.Errorf("type %q: %w", key, err)
	}
	return t, nil
}

func (h *redisHandle) TTL(ctx context.Context, key string) (int64, error) {
	d, err := h.client.TTL(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("ttl %q: %w", key, err)
	}
	return ttlSeconds(d), nil
}

// ttlSeconds maps go-redis TTL results to second counts. go-redis encodes
// the -1/-2 integer replies as raw negative durations (not scaled to
// seconds), so they must be passed through rather than divided.
func ttlSeconds(d time.Duration) int64 {
	switch {
	case d == time.Duration(TTLKeyMissing):
		return TTLKeyMissing
	case d == time.Duration(TTLPersistent):
		return TTLPersistent
	case d < 0:
		return TTLKeyMissing
	default:
		return int64(d / time.Second)
	}
}

func (h *redisHandle) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := h.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %q: %w", key, err)
	}
	return data, nil
}

func (h *redisHandle) LLen(ctx context.Context, key string) (int64, error) {
	n, err := h.client.LLen(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("llen %q: %w", key, err)
	}
	return n, nil
}

func (h *redisHandle) LRange(ctx context.Context, key string, start, stop int64) ([]string, error) {
	items, err := h.client.LRange(ctx, key, start, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("lrange %q: %w", key, err)
	}
	return items, nil
}

func (h *redisHandle) Set(ctx context.Context, key, value string) error {
	if err := h.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

func (h *redisHandle) Expire(ctx context.Context, key string, seconds int64) (bool, error) {
	ok, err := h.client.Expire(ctx, key, time.Duration(seconds)*time.Second).Result()
	if err != nil {
		return false, fmt.Errorf("expire %q: %w", key, err)
	}
	return ok, nil
}

func (h *redisHandle) Del(ctx context.Context, key string) error {
	if err := h.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("del %q: %w", key, err)
	}
	return nil
}
