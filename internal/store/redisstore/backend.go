// Package redisstore persists store buckets as fields of one Redis hash.
package redisstore

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/printdesk/printdesk/internal/platform/cache"
)

// DefaultPrefix namespaces the state hash.
const DefaultPrefix = "printdesk"

// Backend keeps every bucket under <prefix>:state.
type Backend struct {
	client *redis.Client
	key    string
	owned  bool
}

// New wraps an existing client. Close leaves the client open.
func New(client *redis.Client, prefix string) *Backend {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Backend{client: client, key: prefix + ":state"}
}

// Open dials addr (host:port or redis:// URL) and verifies the connection.
// Close closes the client.
func Open(ctx context.Context, addr, prefix string) (*Backend, error) {
	client, err := cache.New(ctx, addr)
	if err != nil {
		return nil, fmt.Errorf("store/redis: %w", err)
	}
	b := New(client, prefix)
	b.owned = true
	return b, nil
}

// Load reads the whole hash.
func (b *Backend) Load(ctx context.Context) (map[string][]byte, error) {
	fields, err := b.client.HGetAll(ctx, b.key).Result()
	if err != nil {
		return nil, fmt.Errorf("store/redis: hgetall: %w", err)
	}
	out := make(map[string][]byte, len(fields))
	for k, v := range fields {
		out[k] = []byte(v)
	}
	return out, nil
}

// Save writes all buckets with a single HSET, which Redis applies atomically.
func (b *Backend) Save(ctx context.Context, buckets map[string][]byte) error {
	if len(buckets) == 0 {
		return nil
	}
	values := make(map[string]any, len(buckets))
	for k, v := range buckets {
		values[k] = v
	}
	if err := b.client.HSet(ctx, b.key, values).Err(); err != nil {
		return fmt.Errorf("store/redis: hset: %w", err)
	}
	return nil
}

// Close closes the client when the backend dialled it.
func (b *Backend) Close() error {
	if b.owned {
		return b.client.Close()
	}
	return nil
}
