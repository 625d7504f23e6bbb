// Package catalog serves the flat collections (clients, suppliers, catalogue
// entries, tasks, notes, tags, expenses and materials) through one generic
// record API.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/printdesk/printdesk/internal/model"
	"github.com/printdesk/printdesk/internal/store"
)

// Editable lists the collections served here. Orders and purchases have side
// effects on stock and go through their own services; settings are keyed.
var Editable = []store.Collection{
	store.Clients, store.Materials, store.Suppliers, store.Categories,
	store.Products, store.Services, store.Tasks, store.Notes, store.Tags,
	store.Expenses,
}

var (
	// ErrNotEditable indicates a collection outside Editable.
	ErrNotEditable = fmt.Errorf("catalog: %w", store.ErrUnknownCollection)
	// ErrNotFound indicates the record does not exist.
	ErrNotFound = fmt.Errorf("catalog: %w", store.ErrNotFound)
)

// searchFields are matched by List's query, per collection.
var searchFields = map[store.Collection][]string{
	store.Clients:    {"name", "phone", "email"},
	store.Suppliers:  {"name", "phone", "email"},
	store.Materials:  {"name", "notes"},
	store.Categories: {"name"},
	store.Products:   {"name", "description"},
	store.Services:   {"name", "description"},
	store.Tasks:      {"title", "description"},
	store.Notes:      {"title", "content"},
	store.Tags:       {"name"},
	store.Expenses:   {"description", "category"},
}

// Service implements generic record operations.
type Service struct {
	store *store.Store
}

// NewService builds Service.
func NewService(st *store.Store) *Service {
	return &Service{store: st}
}

func editable(c store.Collection) error {
	if !slices.Contains(Editable, c) {
		return fmt.Errorf("%w: %q", ErrNotEditable, c)
	}
	return nil
}

// List returns the records of c. A non-empty query keeps records whose
// searchable text fields contain it, ignoring case.
func (s *Service) List(ctx context.Context, c store.Collection, query string) ([]store.Record, error) {
	if err := editable(c); err != nil {
		return nil, err
	}
	recs, err := s.store.GetAll(ctx, c)
	if err != nil {
		return nil, err
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return recs, nil
	}
	needle := model.Fold(query)
	out := make([]store.Record, 0, len(recs))
	for _, rec := range recs {
		for _, field := range searchFields[c] {
			if strings.Contains(model.Fold(rec.String(field)), needle) {
				out = append(out, rec)
				break
			}
		}
	}
	return out, nil
}

// Get returns one record.
func (s *Service) Get(ctx context.Context, c store.Collection, id int64) (store.Record, error) {
	if err := editable(c); err != nil {
		return nil, err
	}
	rec, err := s.store.Get(ctx, c, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	return rec, err
}

// Create stores rec and returns it as stored.
func (s *Service) Create(ctx context.Context, c store.Collection, rec store.Record) (store.Record, error) {
	if err := editable(c); err != nil {
		return nil, err
	}
	id, err := s.store.Add(ctx, c, rec)
	if err != nil {
		return nil, err
	}
	return s.store.Get(ctx, c, id)
}

// Update merges patch into the record and returns the result.
func (s *Service) Update(ctx context.Context, c store.Collection, id int64, patch store.Record) (store.Record, error) {
	if err := editable(c); err != nil {
		return nil, err
	}
	found, err := s.store.Update(ctx, c, id, patch)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNotFound
	}
	return s.store.Get(ctx, c, id)
}

// Delete removes a record and reports whether it existed.
func (s *Service) Delete(ctx context.Context, c store.Collection, id int64) (bool, error) {
	if err := editable(c); err != nil {
		return false, err
	}
	return s.store.Delete(ctx, c, id)
}

// ToggleTask flips a task between pending and completed.
func (s *Service) ToggleTask(ctx context.Context, id int64) (model.Task, error) {
	var out model.Task
	err := s.store.WithTx(ctx, func(_ context.Context, tx *store.Tx) error {
		rec, err := tx.Get(store.Tasks, id)
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		next := model.TaskCompleted
		if rec.String("status") == model.TaskCompleted {
			next = model.TaskPending
		}
		status, err := json.Marshal(next)
		if err != nil {
			return err
		}
		updated, _, err := tx.Update(store.Tasks, id, store.Record{"status": status})
		if err != nil {
			return err
		}
		out, err = model.DecodeAs[model.Task](updated)
		return err
	})
	return out, err
}
