// Package orders prices print jobs and keeps material stock in step with the
// orders that consume it.
package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/printdesk/printdesk/internal/model"
	"github.com/printdesk/printdesk/internal/store"
)

// Result is a saved or quoted order plus any non-fatal problems found while
// resolving its materials.
type Result struct {
	Order    model.Order `json:"order"`
	Totals   Totals      `json:"totals"`
	Warnings []string    `json:"warnings,omitempty"`
}

// Service coordinates order persistence and stock synchronisation.
type Service struct {
	store  *store.Store
	schema *model.Schema
	logger *slog.Logger
	now    func() time.Time
}

// NewService builds Service.
func NewService(st *store.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: st, schema: model.NewSchema(), logger: logger, now: time.Now}
}

// Get returns one order.
func (s *Service) Get(ctx context.Context, id int64) (model.Order, error) {
	rec, err := s.store.Get(ctx, store.Orders, id)
	if errors.Is(err, store.ErrNotFound) {
		return model.Order{}, ErrNotFound
	}
	if err != nil {
		return model.Order{}, err
	}
	return model.DecodeAs[model.Order](rec)
}

// Quote prices an order against current stock data without saving it.
func (s *Service) Quote(ctx context.Context, order model.Order) (Result, error) {
	if err := prepare(&order); err != nil {
		return Result{}, err
	}
	if err := s.schema.Validate(store.Orders, &order); err != nil {
		return Result{}, err
	}
	warnings, err := resolveMaterials(func(c store.Collection, id int64) (store.Record, error) {
		return s.store.Get(ctx, c, id)
	}, order.Items)
	if err != nil {
		return Result{}, err
	}
	totals := Apply(&order)
	return Result{Order: order, Totals: totals, Warnings: warnings}, nil
}

// Create saves a new order and deducts the stock its items consume.
func (s *Service) Create(ctx context.Context, order model.Order) (Result, error) {
	if err := prepare(&order); err != nil {
		return Result{}, err
	}
	s.stampDelivery(&order)
	var res Result
	err := s.store.WithTx(ctx, func(_ context.Context, tx *store.Tx) error {
		warnings, err := resolveMaterials(tx.Get, order.Items)
		if err != nil {
			return err
		}
		totals := Apply(&order)
		order.Meta = model.Meta{}
		rec, err := store.Encode(order)
		if err != nil {
			return err
		}
		stored, err := tx.Add(store.Orders, rec)
		if err != nil {
			return err
		}
		if err := deduct(tx, order.Items); err != nil {
			return err
		}
		saved, err := model.DecodeAs[model.Order](stored)
		if err != nil {
			return err
		}
		res = Result{Order: saved, Totals: totals, Warnings: warnings}
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	s.logWarnings(res)
	return res, nil
}

// Update replaces an order. Stock consumed by the previous version is put
// back before the new items are deducted, all in one commit.
func (s *Service) Update(ctx context.Context, id int64, order model.Order) (Result, error) {
	if err := prepare(&order); err != nil {
		return Result{}, err
	}
	s.stampDelivery(&order)
	var res Result
	err := s.store.WithTx(ctx, func(_ context.Context, tx *store.Tx) error {
		prevRec, err := tx.Get(store.Orders, id)
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		prev, err := model.DecodeAs[model.Order](prevRec)
		if err != nil {
			return err
		}
		if err := restore(tx, prev.Items); err != nil {
			return err
		}
		warnings, err := resolveMaterials(tx.Get, order.Items)
		if err != nil {
			return err
		}
		totals := Apply(&order)
		order.Meta = model.Meta{ID: id}
		rec, err := store.Encode(order)
		if err != nil {
			return err
		}
		stored, _, err := tx.Put(store.Orders, rec)
		if err != nil {
			return err
		}
		if err := deduct(tx, order.Items); err != nil {
			return err
		}
		saved, err := model.DecodeAs[model.Order](stored)
		if err != nil {
			return err
		}
		res = Result{Order: saved, Totals: totals, Warnings: warnings}
		return nil
	})
	if err != nil {
		return Result{}, err
	}
	s.logWarnings(res)
	return res, nil
}

// Delete removes an order and returns its consumed stock. Deleting a missing
// order is a no-op and reports false.
func (s *Service) Delete(ctx context.Context, id int64) (bool, error) {
	var found bool
	err := s.store.WithTx(ctx, func(_ context.Context, tx *store.Tx) error {
		rec, err := tx.Get(store.Orders, id)
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		order, err := model.DecodeAs[model.Order](rec)
		if err != nil {
			return err
		}
		if err := restore(tx, order.Items); err != nil {
			return err
		}
		found, err = tx.Delete(store.Orders, id)
		return err
	})
	return found, err
}

// SetStatus moves an order to status. Marking it delivered without a delivery
// date records today.
func (s *Service) SetStatus(ctx context.Context, id int64, status model.OrderStatus) (model.Order, error) {
	switch status {
	case model.StatusPending, model.StatusReady, model.StatusDelivered:
	default:
		return model.Order{}, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	var out model.Order
	err := s.store.WithTx(ctx, func(_ context.Context, tx *store.Tx) error {
		rec, err := tx.Get(store.Orders, id)
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		current, err := model.DecodeAs[model.Order](rec)
		if err != nil {
			return err
		}
		patch := store.Record{}
		if err := patch.Set("status", status); err != nil {
			return err
		}
		if status == model.StatusDelivered && current.DeliveryDate.IsZero() {
			if err := patch.Set("deliveryDate", model.DateOf(s.now())); err != nil {
				return err
			}
		}
		updated, _, err := tx.Update(store.Orders, id, patch)
		if err != nil {
			return err
		}
		out, err = model.DecodeAs[model.Order](updated)
		return err
	})
	return out, err
}

func (s *Service) stampDelivery(o *model.Order) {
	if o.Status == model.StatusDelivered && o.DeliveryDate.IsZero() {
		o.DeliveryDate = model.DateOf(s.now())
	}
}

func (s *Service) logWarnings(res Result) {
	for _, w := range res.Warnings {
		s.logger.Warn("orders: saved with warning",
			slog.Int64("order_id", res.Order.ID),
			slog.String("warning", w))
	}
}

// prepare drops blank editor rows, fills defaults and checks that something
// is being sold.
func prepare(o *model.Order) error {
	items := make([]model.OrderItem, 0, len(o.Items))
	for _, item := range o.Items {
		item.ServiceName = strings.TrimSpace(item.ServiceName)
		if item.ServiceName == "" {
			continue
		}
		switch item.MaterialSource {
		case "":
			item.MaterialSource = model.SourceNone
		case "client":
			item.MaterialSource = model.SourceCustomer
		}
		if item.Quantity < 0 {
			return fmt.Errorf("%w: %q has quantity %g", ErrInvalidQuantity, item.ServiceName, item.Quantity)
		}
		if item.Quantity == 0 {
			item.Quantity = 1
		}
		items = append(items, item)
	}
	if len(items) == 0 {
		return ErrMissingService
	}
	o.Items = items
	if o.Status == "" {
		o.Status = model.StatusPending
	}
	switch o.Status {
	case model.StatusPending, model.StatusReady, model.StatusDelivered:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidStatus, o.Status)
	}
	return nil
}

type lookup func(c store.Collection, id int64) (store.Record, error)

// resolveMaterials fills material names and default prices from stock. An
// item pointing at a deleted material keeps its line but contributes no
// material money and touches no stock.
func resolveMaterials(get lookup, items []model.OrderItem) ([]string, error) {
	var warnings []string
	for i := range items {
		item := &items[i]
		if !item.MaterialID.Valid() {
			if item.MaterialSource == model.SourceMine {
				item.MaterialSource = model.SourceNone
			}
			continue
		}
		rec, err := get(store.Materials, item.MaterialID.Int64())
		if errors.Is(err, store.ErrNotFound) {
			warnings = append(warnings, fmt.Sprintf("material %d for %q no longer exists; its cost and stock were skipped",
				item.MaterialID, item.ServiceName))
			item.MaterialID = 0
			item.MaterialSource = model.SourceNone
			item.MaterialUnitCost = model.Amount(0)
			item.MaterialSellPrice = model.Amount(0)
			continue
		}
		if err != nil {
			return nil, err
		}
		mat, err := model.DecodeAs[model.Material](rec)
		if err != nil {
			return nil, err
		}
		if item.MaterialName == "" {
			item.MaterialName = mat.Name
		}
		if item.MaterialSource != model.SourceMine {
			item.MaterialUnitCost = model.Amount(0)
			item.MaterialSellPrice = model.Amount(0)
			continue
		}
		if item.MaterialUnitCost == nil {
			item.MaterialUnitCost = model.Amount(mat.Price)
		}
		if item.MaterialSellPrice == nil {
			item.MaterialSellPrice = model.Amount(mat.SellPrice)
		}
	}
	return warnings, nil
}

func restore(tx *store.Tx, items []model.OrderItem) error {
	return adjustStock(tx, items, 1)
}

func deduct(tx *store.Tx, items []model.OrderItem) error {
	return adjustStock(tx, items, -1)
}

// adjustStock moves each stock-consuming item's quantity in or out of its
// material. Stock never goes below zero; missing materials are skipped.
func adjustStock(tx *store.Tx, items []model.OrderItem, sign float64) error {
	for _, item := range items {
		if !item.UsesStock() {
			continue
		}
		id := item.MaterialID.Int64()
		rec, err := tx.Get(store.Materials, id)
		if errors.Is(err, store.ErrNotFound) {
			continue
		}
		if err != nil {
			return err
		}
		mat, err := model.DecodeAs[model.Material](rec)
		if err != nil {
			return err
		}
		qty := math.Max(0, mat.Quantity+sign*item.Quantity)
		patch := store.Record{}
		if err := patch.Set("quantity", qty); err != nil {
			return err
		}
		if _, _, err := tx.Update(store.Materials, id, patch); err != nil {
			return fmt.Errorf("orders: adjust stock of material %d: %w", id, err)
		}
	}
	return nil
}
