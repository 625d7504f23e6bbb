package inventory

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/printdesk/printdesk/internal/model"
	"github.com/printdesk/printdesk/internal/store"
)

// TxRepository exposes transactional operations used by service.
type TxRepository interface {
	ListMaterials(ctx context.Context) ([]model.Material, error)
	GetMaterial(ctx context.Context, id int64) (model.Material, error)
	UpdateMaterial(ctx context.Context, id int64, patch store.Record) (model.Material, error)
	InsertPurchase(ctx context.Context, p model.Purchase) (model.Purchase, error)
	InsertExpense(ctx context.Context, e model.Expense) (model.Expense, error)
	GetSetting(ctx context.Context, key string) (json.RawMessage, bool)
	SaveSetting(ctx context.Context, key string, value any) error
}

// Repository persists inventory data in the shared store.
type Repository struct {
	store *store.Store
}

// NewRepository constructs Repository.
func NewRepository(st *store.Store) *Repository {
	return &Repository{store: st}
}

// WithTx runs fn inside one store commit.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return r.store.WithTx(ctx, func(ctx context.Context, tx *store.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

// ListMaterials returns every material in insertion order.
func (r *Repository) ListMaterials(ctx context.Context) ([]model.Material, error) {
	recs, err := r.store.GetAll(ctx, store.Materials)
	if err != nil {
		return nil, err
	}
	return decodeAll[model.Material](recs)
}

// ListPurchases returns every purchase in insertion order.
func (r *Repository) ListPurchases(ctx context.Context) ([]model.Purchase, error) {
	recs, err := r.store.GetAll(ctx, store.Purchases)
	if err != nil {
		return nil, err
	}
	return decodeAll[model.Purchase](recs)
}

type txRepository struct {
	tx *store.Tx
}

func (t *txRepository) ListMaterials(_ context.Context) ([]model.Material, error) {
	recs, err := t.tx.GetAll(store.Materials)
	if err != nil {
		return nil, err
	}
	return decodeAll[model.Material](recs)
}

func (t *txRepository) GetMaterial(_ context.Context, id int64) (model.Material, error) {
	rec, err := t.tx.Get(store.Materials, id)
	if errors.Is(err, store.ErrNotFound) {
		return model.Material{}, ErrMaterialNotFound
	}
	if err != nil {
		return model.Material{}, err
	}
	return model.DecodeAs[model.Material](rec)
}

func (t *txRepository) UpdateMaterial(_ context.Context, id int64, patch store.Record) (model.Material, error) {
	rec, found, err := t.tx.Update(store.Materials, id, patch)
	if err != nil {
		return model.Material{}, err
	}
	if !found {
		return model.Material{}, ErrMaterialNotFound
	}
	return model.DecodeAs[model.Material](rec)
}

func (t *txRepository) InsertPurchase(_ context.Context, p model.Purchase) (model.Purchase, error) {
	return insert(t.tx, store.Purchases, p)
}

func (t *txRepository) InsertExpense(_ context.Context, e model.Expense) (model.Expense, error) {
	return insert(t.tx, store.Expenses, e)
}

func (t *txRepository) GetSetting(_ context.Context, key string) (json.RawMessage, bool) {
	return t.tx.GetSetting(key)
}

func (t *txRepository) SaveSetting(_ context.Context, key string, value any) error {
	return t.tx.SaveSetting(key, value)
}

func insert[T any](tx *store.Tx, c store.Collection, v T) (T, error) {
	var zero T
	rec, err := store.Encode(v)
	if err != nil {
		return zero, err
	}
	stored, err := tx.Add(c, rec)
	if err != nil {
		return zero, err
	}
	return model.DecodeAs[T](stored)
}

func decodeAll[T any](recs []store.Record) ([]T, error) {
	out := make([]T, 0, len(recs))
	for _, rec := range recs {
		v, err := model.DecodeAs[T](rec)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}
