package store

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Tx is a unit of work against a private copy of the store state. It is only
// valid inside the WithTx callback that produced it.
type Tx struct {
	store      *Store
	state      *state
	touched    map[Collection]bool
	seqTouched bool
}

// GetAll returns every record of c as seen by the transaction.
func (tx *Tx) GetAll(c Collection) ([]Record, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCollection, c)
	}
	return cloneAll(tx.state.records[c]), nil
}

// Get returns the record with id, or ErrNotFound.
func (tx *Tx) Get(c Collection, id int64) (Record, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCollection, c)
	}
	idx := indexOf(tx.state.records[c], id)
	if idx < 0 {
		return nil, ErrNotFound
	}
	return tx.state.records[c][idx].Clone(), nil
}

// Add assigns the next id and a creation time, normalises rec and appends it.
// Any id or timestamps carried by rec are replaced.
func (tx *Tx) Add(c Collection, rec Record) (Record, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCollection, c)
	}
	next := rec.Clone()
	if next == nil {
		next = Record{}
	}
	delete(next, FieldUpdatedAt)
	id := tx.state.seq[c] + 1
	next.setID(id)
	if c != Settings {
		next.stamp(FieldCreatedAt, tx.store.now())
	}
	normalized, err := tx.store.normalize(c, next)
	if err != nil {
		return nil, err
	}
	tx.state.seq[c] = id
	tx.seqTouched = true
	recs := tx.writable(c)
	tx.state.records[c] = append(recs, normalized)
	return normalized.Clone(), nil
}

// Update shallow-merges patch into the record with id and stamps updatedAt.
// The id and creation time cannot be changed through a patch. The boolean
// result is false when no record has that id.
func (tx *Tx) Update(c Collection, id int64, patch Record) (Record, bool, error) {
	if !c.Valid() {
		return nil, false, fmt.Errorf("%w: %q", ErrUnknownCollection, c)
	}
	idx := indexOf(tx.state.records[c], id)
	if idx < 0 {
		return nil, false, nil
	}
	merged := tx.state.records[c][idx].Clone()
	for k, v := range patch {
		if k == FieldID || k == FieldCreatedAt {
			continue
		}
		merged[k] = v
	}
	merged.stamp(FieldUpdatedAt, tx.store.now())
	normalized, err := tx.store.normalize(c, merged)
	if err != nil {
		return nil, true, err
	}
	recs := tx.writable(c)
	recs[idx] = normalized
	return normalized.Clone(), true, nil
}

// Put replaces the stored record with rec wholesale, keeping its id and
// creation time and stamping updatedAt.
func (tx *Tx) Put(c Collection, rec Record) (Record, bool, error) {
	if !c.Valid() {
		return nil, false, fmt.Errorf("%w: %q", ErrUnknownCollection, c)
	}
	id := rec.ID()
	idx := indexOf(tx.state.records[c], id)
	if idx < 0 {
		return nil, false, nil
	}
	current := tx.state.records[c][idx]
	next := rec.Clone()
	if created, ok := current[FieldCreatedAt]; ok {
		next[FieldCreatedAt] = created
	}
	next.stamp(FieldUpdatedAt, tx.store.now())
	normalized, err := tx.store.normalize(c, next)
	if err != nil {
		return nil, true, err
	}
	recs := tx.writable(c)
	recs[idx] = normalized
	return normalized.Clone(), true, nil
}

// Delete removes the record with id and reports whether it existed.
func (tx *Tx) Delete(c Collection, id int64) (bool, error) {
	if !c.Valid() {
		return false, fmt.Errorf("%w: %q", ErrUnknownCollection, c)
	}
	idx := indexOf(tx.state.records[c], id)
	if idx < 0 {
		return false, nil
	}
	recs := tx.writable(c)
	tx.state.records[c] = append(recs[:idx], recs[idx+1:]...)
	return true, nil
}

// Replace swaps the whole content of c. Records keep their ids.
func (tx *Tx) Replace(c Collection, recs []Record) {
	out := make([]Record, len(recs))
	copy(out, recs)
	tx.state.records[c] = out
	tx.touched[c] = true
}

// GetSetting returns the raw value stored under key.
func (tx *Tx) GetSetting(key string) (json.RawMessage, bool) {
	return lookupSetting(tx.state.records[Settings], key)
}

// SaveSetting writes value under key, updating the existing entry in place.
func (tx *Tx) SaveSetting(key string, value any) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("%w: setting key required", ErrInvalidRecord)
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("store: encode setting %s: %w", key, err)
	}
	for i, rec := range tx.state.records[Settings] {
		if rec.String("key") != key {
			continue
		}
		next := rec.Clone()
		next["value"] = raw
		recs := tx.writable(Settings)
		recs[i] = next
		return nil
	}
	rec := Record{"value": raw}
	if err := rec.Set("key", key); err != nil {
		return err
	}
	_, err = tx.Add(Settings, rec)
	return err
}

func (tx *Tx) writable(c Collection) []Record {
	if !tx.touched[c] {
		src := tx.state.records[c]
		cp := make([]Record, len(src), len(src)+1)
		copy(cp, src)
		tx.state.records[c] = cp
		tx.touched[c] = true
	}
	return tx.state.records[c]
}

func (tx *Tx) payloads() (Change, map[string][]byte, error) {
	var change Change
	buckets := make(map[string][]byte, len(tx.touched)+1)
	for _, c := range Collections {
		if !tx.touched[c] {
			continue
		}
		recs := tx.state.records[c]
		if recs == nil {
			recs = []Record{}
		}
		payload, err := json.Marshal(recs)
		if err != nil {
			return Change{}, nil, fmt.Errorf("store: encode %s: %w", c, err)
		}
		buckets[string(c)] = payload
		change.Collections = append(change.Collections, c)
	}
	if tx.seqTouched {
		payload, err := json.Marshal(tx.state.seq)
		if err != nil {
			return Change{}, nil, fmt.Errorf("store: encode sequences: %w", err)
		}
		buckets[sequencesBucket] = payload
	}
	return change, buckets, nil
}
