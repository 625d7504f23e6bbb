package store

import "context"

// Backend persists the store one bucket at a time. A bucket is a collection
// name (or the internal sequences bucket) and its payload is the whole
// collection encoded as a JSON array.
type Backend interface {
	// Load returns every persisted bucket.
	Load(ctx context.Context) (map[string][]byte, error)
	// Save writes the given buckets. Implementations apply all of them or none.
	Save(ctx context.Context, buckets map[string][]byte) error
	Close() error
}

// Schema normalises records crossing the persistence boundary: it fills
// defaults, validates, and migrates older shapes. A nil Schema stores records
// as given.
type Schema interface {
	Normalize(c Collection, rec Record) (Record, error)
}

// Change describes a committed mutation.
type Change struct {
	Collections []Collection
}

// Touches reports whether the change affected c.
func (c Change) Touches(col Collection) bool {
	for _, touched := range c.Collections {
		if touched == col {
			return true
		}
	}
	return false
}
