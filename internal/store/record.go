package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// Reserved record fields managed by the store.
const (
	FieldID        = "id"
	FieldCreatedAt = "createdAt"
	FieldUpdatedAt = "updatedAt"
)

// Record is a stored JSON document. Top-level fields map to their raw JSON
// values so an update can merge field by field without knowing the shape.
type Record map[string]json.RawMessage

// Encode converts a value into a Record. The value must marshal to a JSON object.
func Encode(v any) (Record, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("store: encode record: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	if rec == nil {
		return nil, fmt.Errorf("%w: null document", ErrInvalidRecord)
	}
	return rec, nil
}

// Decode unmarshals the record into dst.
func (r Record) Decode(dst any) error {
	raw, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("store: decode record: %w", err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("store: decode record: %w", err)
	}
	return nil
}

// Clone returns a shallow copy. Raw values are never mutated in place, so
// sharing them between copies is safe.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// ID returns the record identifier, or 0 when absent or not numeric.
func (r Record) ID() int64 {
	raw, ok := r[FieldID]
	if !ok {
		return 0
	}
	var n json.Number
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&n); err != nil {
		return 0
	}
	if id, err := n.Int64(); err == nil {
		return id
	}
	if f, err := n.Float64(); err == nil && f == math.Trunc(f) {
		return int64(f)
	}
	return 0
}

// Set stores v under key.
func (r Record) Set(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("store: set %s: %w", key, err)
	}
	r[key] = raw
	return nil
}

// String returns a string field, or "" when absent or of another type.
func (r Record) String(key string) string {
	raw, ok := r[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

func (r Record) setID(id int64) {
	r[FieldID] = json.RawMessage(fmt.Sprintf("%d", id))
}

func (r Record) stamp(key string, t time.Time) {
	raw, _ := json.Marshal(t.UTC())
	r[key] = raw
}
