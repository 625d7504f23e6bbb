// Package store keeps the print shop's named collections and settings.
//
// The working set lives in memory and every committed change writes the
// touched collections back to a Backend in full, one JSON payload per
// collection. Identifiers come from per-collection counters that are
// persisted alongside the data, so ids are never reused after a delete.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Store is the persistence layer shared by every service.
type Store struct {
	mu      sync.RWMutex
	backend Backend
	schema  Schema
	now     func() time.Time
	logger  *slog.Logger
	state   *state

	hooksMu sync.RWMutex
	hooks   []func(context.Context, Change)
}

// Option configures a Store.
type Option func(*Store)

// WithSchema installs the record schema.
func WithSchema(schema Schema) Option {
	return func(s *Store) { s.schema = schema }
}

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Open hydrates a Store from the backend.
func Open(ctx context.Context, backend Backend, opts ...Option) (*Store, error) {
	if backend == nil {
		return nil, fmt.Errorf("store: backend required")
	}
	s := &Store{
		backend: backend,
		now:     time.Now,
		logger:  slog.Default(),
		state:   newState(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.load(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load(ctx context.Context) error {
	buckets, err := s.backend.Load(ctx)
	if err != nil {
		return fmt.Errorf("store: load: %w", err)
	}
	st := newState()
	for _, c := range Collections {
		payload, ok := buckets[string(c)]
		if !ok || len(payload) == 0 {
			continue
		}
		var recs []Record
		if err := json.Unmarshal(payload, &recs); err != nil {
			return fmt.Errorf("store: decode %s: %w", c, err)
		}
		for i, rec := range recs {
			normalized, err := s.normalize(c, rec)
			if err != nil {
				// keep what was persisted rather than dropping data on open
				s.logger.Warn("store: record failed schema on load",
					slog.String("collection", string(c)),
					slog.Int64("id", rec.ID()),
					slog.Any("error", err))
				continue
			}
			recs[i] = normalized
		}
		st.records[c] = recs
	}
	if payload, ok := buckets[sequencesBucket]; ok && len(payload) > 0 {
		var seq map[Collection]int64
		if err := json.Unmarshal(payload, &seq); err != nil {
			return fmt.Errorf("store: decode sequences: %w", err)
		}
		for c, v := range seq {
			st.seq[c] = v
		}
	}
	for _, c := range Collections {
		if top := maxID(st.records[c]); top > st.seq[c] {
			st.seq[c] = top
		}
	}
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
	return nil
}

// Subscribe registers fn to run after every committed change.
func (s *Store) Subscribe(fn func(context.Context, Change)) {
	if fn == nil {
		return
	}
	s.hooksMu.Lock()
	s.hooks = append(s.hooks, fn)
	s.hooksMu.Unlock()
}

// WithTx runs fn against a private copy of the state. When fn returns nil the
// touched collections are written to the backend and the copy becomes the
// live state; otherwise nothing changes. fn must not call back into the Store.
func (s *Store) WithTx(ctx context.Context, fn func(context.Context, *Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	tx := &Tx{store: s, state: s.state.fork(), touched: make(map[Collection]bool)}
	if err := fn(ctx, tx); err != nil {
		s.mu.Unlock()
		return err
	}
	change, buckets, err := tx.payloads()
	if err != nil {
		s.mu.Unlock()
		return err
	}
	if len(buckets) > 0 {
		if err := s.backend.Save(ctx, buckets); err != nil {
			s.mu.Unlock()
			return fmt.Errorf("store: save: %w", err)
		}
	}
	s.state = tx.state
	s.mu.Unlock()

	if len(change.Collections) > 0 {
		s.notify(ctx, change)
	}
	return nil
}

func (s *Store) notify(ctx context.Context, change Change) {
	s.hooksMu.RLock()
	hooks := make([]func(context.Context, Change), len(s.hooks))
	copy(hooks, s.hooks)
	s.hooksMu.RUnlock()
	for _, hook := range hooks {
		hook(ctx, change)
	}
}

// view runs fn with the live state under a read lock.
func (s *Store) view(ctx context.Context, fn func(*state) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.state)
}

// GetAll returns every record of c in insertion order. A collection that was
// never written yields an empty list.
func (s *Store) GetAll(ctx context.Context, c Collection) ([]Record, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCollection, c)
	}
	var out []Record
	err := s.view(ctx, func(st *state) error {
		out = cloneAll(st.records[c])
		return nil
	})
	return out, err
}

// Count returns the number of records in c.
func (s *Store) Count(ctx context.Context, c Collection) (int, error) {
	if !c.Valid() {
		return 0, fmt.Errorf("%w: %q", ErrUnknownCollection, c)
	}
	var n int
	err := s.view(ctx, func(st *state) error {
		n = len(st.records[c])
		return nil
	})
	return n, err
}

// Get returns the record with id, or ErrNotFound.
func (s *Store) Get(ctx context.Context, c Collection, id int64) (Record, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCollection, c)
	}
	var out Record
	err := s.view(ctx, func(st *state) error {
		idx := indexOf(st.records[c], id)
		if idx < 0 {
			return ErrNotFound
		}
		out = st.records[c][idx].Clone()
		return nil
	})
	return out, err
}

// Add stores rec under a new id and returns the id.
func (s *Store) Add(ctx context.Context, c Collection, rec Record) (int64, error) {
	var id int64
	err := s.WithTx(ctx, func(_ context.Context, tx *Tx) error {
		stored, err := tx.Add(c, rec)
		if err != nil {
			return err
		}
		id = stored.ID()
		return nil
	})
	return id, err
}

// Update merges patch into the record with id and reports whether it existed.
// A missing record is not an error.
func (s *Store) Update(ctx context.Context, c Collection, id int64, patch Record) (bool, error) {
	var found bool
	err := s.WithTx(ctx, func(_ context.Context, tx *Tx) error {
		_, ok, err := tx.Update(c, id, patch)
		found = ok
		return err
	})
	return found, err
}

// Delete removes the record with id and reports whether it existed.
func (s *Store) Delete(ctx context.Context, c Collection, id int64) (bool, error) {
	var found bool
	err := s.WithTx(ctx, func(_ context.Context, tx *Tx) error {
		ok, err := tx.Delete(c, id)
		found = ok
		return err
	})
	return found, err
}

// GetSetting returns the raw JSON value stored under key.
func (s *Store) GetSetting(ctx context.Context, key string) (json.RawMessage, bool, error) {
	var (
		value json.RawMessage
		found bool
	)
	err := s.view(ctx, func(st *state) error {
		value, found = lookupSetting(st.records[Settings], key)
		return nil
	})
	return value, found, err
}

// GetSettingInto decodes the value stored under key into dst.
func (s *Store) GetSettingInto(ctx context.Context, key string, dst any) (bool, error) {
	raw, found, err := s.GetSetting(ctx, key)
	if err != nil || !found {
		return found, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return true, fmt.Errorf("store: decode setting %s: %w", key, err)
	}
	return true, nil
}

// SaveSetting stores value under key. The last write wins.
func (s *Store) SaveSetting(ctx context.Context, key string, value any) error {
	return s.WithTx(ctx, func(_ context.Context, tx *Tx) error {
		return tx.SaveSetting(key, value)
	})
}

// ClearAll empties every collection and the settings table, and resets ids.
func (s *Store) ClearAll(ctx context.Context) error {
	return s.WithTx(ctx, func(_ context.Context, tx *Tx) error {
		for _, c := range Collections {
			tx.Replace(c, nil)
			tx.state.seq[c] = 0
		}
		tx.seqTouched = true
		return nil
	})
}

// Close releases the backend.
func (s *Store) Close() error {
	return s.backend.Close()
}

func (s *Store) normalize(c Collection, rec Record) (Record, error) {
	if s.schema == nil {
		return rec, nil
	}
	out, err := s.schema.Normalize(c, rec)
	if err != nil {
		return nil, err
	}
	// the schema owns the shape, the store owns identity
	for _, key := range []string{FieldID, FieldCreatedAt, FieldUpdatedAt} {
		if v, ok := rec[key]; ok {
			out[key] = v
		}
	}
	return out, nil
}

type state struct {
	records map[Collection][]Record
	seq     map[Collection]int64
}

func newState() *state {
	return &state{
		records: make(map[Collection][]Record, len(Collections)),
		seq:     make(map[Collection]int64, len(Collections)),
	}
}

// fork copies the maps but shares the slices; Tx copies a slice before its
// first write to it.
func (st *state) fork() *state {
	out := newState()
	for c, recs := range st.records {
		out.records[c] = recs
	}
	for c, v := range st.seq {
		out.seq[c] = v
	}
	return out
}

func indexOf(recs []Record, id int64) int {
	for i, rec := range recs {
		if rec.ID() == id {
			return i
		}
	}
	return -1
}

func maxID(recs []Record) int64 {
	var top int64
	for _, rec := range recs {
		if id := rec.ID(); id > top {
			top = id
		}
	}
	return top
}

func cloneAll(recs []Record) []Record {
	out := make([]Record, len(recs))
	for i, rec := range recs {
		out[i] = rec.Clone()
	}
	return out
}

func lookupSetting(recs []Record, key string) (json.RawMessage, bool) {
	for _, rec := range recs {
		if rec.String("key") == key {
			value, ok := rec["value"]
			if !ok {
				return json.RawMessage("null"), true
			}
			return value, true
		}
	}
	return nil, false
}
