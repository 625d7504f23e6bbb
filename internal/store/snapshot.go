package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Snapshot is the whole store in one structure: one array per collection
// plus the export time. On import, a collection missing from the snapshot is
// left untouched and a present one is replaced.
type Snapshot struct {
	ExportedAt  time.Time
	Collections map[Collection][]Record
}

const snapshotTimeField = "exportedAt"

// MarshalJSON writes the collections as top-level arrays in Collections order.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	ts, err := json.Marshal(s.ExportedAt.UTC())
	if err != nil {
		return nil, err
	}
	buf.WriteString(`"` + snapshotTimeField + `":`)
	buf.Write(ts)
	for _, c := range Collections {
		recs, ok := s.Collections[c]
		if !ok {
			continue
		}
		if recs == nil {
			recs = []Record{}
		}
		payload, err := json.Marshal(recs)
		if err != nil {
			return nil, fmt.Errorf("store: encode snapshot %s: %w", c, err)
		}
		buf.WriteString(`,"` + string(c) + `":`)
		buf.Write(payload)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads the known collections and ignores anything else.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return fmt.Errorf("store: decode snapshot: %w", err)
	}
	out := Snapshot{Collections: make(map[Collection][]Record)}
	if raw, ok := fields[snapshotTimeField]; ok {
		if err := json.Unmarshal(raw, &out.ExportedAt); err != nil {
			return fmt.Errorf("store: decode snapshot time: %w", err)
		}
	}
	for _, c := range Collections {
		raw, ok := fields[string(c)]
		if !ok {
			continue
		}
		var recs []Record
		if err := json.Unmarshal(raw, &recs); err != nil {
			return fmt.Errorf("store: decode snapshot %s: %w", c, err)
		}
		if recs == nil {
			recs = []Record{}
		}
		out.Collections[c] = recs
	}
	*s = out
	return nil
}

// ExportAll copies every collection, empty ones included, into a Snapshot.
func (s *Store) ExportAll(ctx context.Context) (Snapshot, error) {
	snap := Snapshot{ExportedAt: s.now().UTC(), Collections: make(map[Collection][]Record, len(Collections))}
	err := s.view(ctx, func(st *state) error {
		for _, c := range Collections {
			snap.Collections[c] = cloneAll(st.records[c])
		}
		return nil
	})
	return snap, err
}

// ImportAll replaces each collection present in snap, keeping the provided
// ids. Records without an id receive a fresh one. Counters move past the
// largest imported id so later adds cannot collide. Either the whole
// snapshot is applied or nothing is.
func (s *Store) ImportAll(ctx context.Context, snap Snapshot) error {
	return s.WithTx(ctx, func(_ context.Context, tx *Tx) error {
		for _, c := range Collections {
			recs, ok := snap.Collections[c]
			if !ok {
				continue
			}
			if err := tx.importCollection(c, recs); err != nil {
				return err
			}
		}
		return nil
	})
}

func (tx *Tx) importCollection(c Collection, recs []Record) error {
	top := maxID(recs)
	seen := make(map[int64]bool, len(recs))
	out := make([]Record, 0, len(recs))
	for _, rec := range recs {
		next := rec.Clone()
		if next == nil {
			return fmt.Errorf("%w: null record in %s", ErrInvalidRecord, c)
		}
		id := next.ID()
		if id <= 0 {
			top++
			id = top
			next.setID(id)
		}
		if seen[id] {
			return fmt.Errorf("%w: %s id %d", ErrDuplicateID, c, id)
		}
		seen[id] = true
		normalized, err := tx.store.normalize(c, next)
		if err != nil {
			return fmt.Errorf("store: import %s id %d: %w", c, id, err)
		}
		out = append(out, normalized)
	}
	tx.Replace(c, out)
	if top > tx.state.seq[c] {
		tx.state.seq[c] = top
		tx.seqTouched = true
	}
	return nil
}
