// Package memory provides a process-local store backend used in tests and
// for throwaway runs.
package memory

import (
	"context"
	"sync"
)

// Backend keeps bucket payloads in a map. Reopening a store on the same
// Backend sees what was saved before.
type Backend struct {
	mu      sync.RWMutex
	buckets map[string][]byte
	saves   int
}

// New returns an empty backend.
func New() *Backend {
	return &Backend{buckets: make(map[string][]byte)}
}

// Load returns a copy of the saved buckets.
func (b *Backend) Load(ctx context.Context) (map[string][]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[string][]byte, len(b.buckets))
	for k, v := range b.buckets {
		out[k] = append([]byte(nil), v...)
	}
	return out, nil
}

// Save overwrites the given buckets.
func (b *Backend) Save(ctx context.Context, buckets map[string][]byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	for k, v := range buckets {
		b.buckets[k] = append([]byte(nil), v...)
	}
	b.saves++
	return nil
}

// Bucket returns the raw payload of one bucket.
func (b *Backend) Bucket(name string) ([]byte, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.buckets[name]
	return v, ok
}

// Saves reports how many Save calls succeeded.
func (b *Backend) Saves() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.saves
}

// Close is a no-op.
func (b *Backend) Close() error { return nil }
