// Package inventory manages materials: stock purchases, low-stock checks and
// the units of measure offered to the operator.
package inventory

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/printdesk/printdesk/internal/model"
	"github.com/printdesk/printdesk/internal/store"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	ListMaterials(ctx context.Context) ([]model.Material, error)
	ListPurchases(ctx context.Context) ([]model.Purchase, error)
}

// Service coordinates inventory operations.
type Service struct {
	repo   RepositoryPort
	logger *slog.Logger
	now    func() time.Time
}

// NewService builds Service.
func NewService(repo RepositoryPort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, logger: logger, now: time.Now}
}

// RecordPurchase stores a purchase, adds its quantity to stock, makes its unit
// price the material's purchase price and books the spend as an expense.
// All of it commits together.
func (s *Service) RecordPurchase(ctx context.Context, input PurchaseInput) (PurchaseResult, error) {
	if !input.MaterialID.Valid() {
		return PurchaseResult{}, ErrMaterialRequired
	}
	if input.Quantity <= 0 {
		return PurchaseResult{}, ErrInvalidQuantity
	}
	if input.UnitPrice < 0 || input.Total < 0 {
		return PurchaseResult{}, ErrInvalidUnitPrice
	}
	total := input.Total
	if total == 0 {
		total = input.Quantity * input.UnitPrice
	}
	date := input.Date
	if date.IsZero() {
		date = model.DateOf(s.now())
	}

	var res PurchaseResult
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		mat, err := tx.GetMaterial(ctx, input.MaterialID.Int64())
		if err != nil {
			return err
		}
		purchase, err := tx.InsertPurchase(ctx, model.Purchase{
			MaterialID: input.MaterialID,
			SupplierID: input.SupplierID,
			Quantity:   input.Quantity,
			UnitPrice:  input.UnitPrice,
			Total:      total,
			Date:       date,
			Notes:      input.Notes,
		})
		if err != nil {
			return err
		}
		patch := store.Record{}
		if err := patch.Set("quantity", mat.Quantity+input.Quantity); err != nil {
			return err
		}
		if err := patch.Set("price", input.UnitPrice); err != nil {
			return err
		}
		if input.SupplierID.Valid() {
			if err := patch.Set("supplierId", input.SupplierID); err != nil {
				return err
			}
		}
		updated, err := tx.UpdateMaterial(ctx, mat.ID, patch)
		if err != nil {
			return err
		}
		res = PurchaseResult{Purchase: purchase, Material: updated}
		if total == 0 {
			// nothing was spent, so there is no expense to book
			return nil
		}
		expense, err := tx.InsertExpense(ctx, model.Expense{
			Description: "Purchase: " + mat.Name,
			Category:    model.ExpenseCategoryPurchases,
			Amount:      total,
			Date:        date,
			PurchaseID:  model.Ref(purchase.ID),
		})
		if err != nil {
			return err
		}
		res.Expense = expense
		return nil
	})
	if err != nil {
		return PurchaseResult{}, err
	}
	s.logger.Info("inventory: purchase recorded",
		slog.Int64("material_id", res.Material.ID),
		slog.Float64("quantity", input.Quantity),
		slog.Float64("stock", res.Material.Quantity))
	return res, nil
}

// ListPurchases returns purchases, newest date first.
func (s *Service) ListPurchases(ctx context.Context) ([]model.Purchase, error) {
	purchases, err := s.repo.ListPurchases(ctx)
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(purchases, func(a, b model.Purchase) int {
		return strings.Compare(b.Date.Day(), a.Date.Day())
	})
	return purchases, nil
}

// LowStock returns materials that have a minimum set and are at or below it.
func (s *Service) LowStock(ctx context.Context) ([]model.Material, error) {
	materials, err := s.repo.ListMaterials(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.Material, 0)
	for _, m := range materials {
		if m.LowStock() {
			out = append(out, m)
		}
	}
	return out, nil
}

// FlagLowStock marks every low-stock material as needing a check and returns
// the materials that were flagged by this call.
func (s *Service) FlagLowStock(ctx context.Context) ([]model.Material, error) {
	flagged := make([]model.Material, 0)
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		materials, err := tx.ListMaterials(ctx)
		if err != nil {
			return err
		}
		for _, m := range materials {
			if !m.LowStock() || m.NeedsCheck {
				continue
			}
			patch := store.Record{}
			if err := patch.Set("needsCheck", true); err != nil {
				return err
			}
			updated, err := tx.UpdateMaterial(ctx, m.ID, patch)
			if err != nil {
				return err
			}
			flagged = append(flagged, updated)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for _, m := range flagged {
		s.logger.Warn("material low on stock",
			slog.Int64("material_id", m.ID),
			slog.String("name", m.Name),
			slog.Float64("quantity", m.Quantity),
			slog.Float64("min_stock", m.MinStock))
	}
	return flagged, nil
}

// ToggleNeedsCheck flips the material's needs-check flag.
func (s *Service) ToggleNeedsCheck(ctx context.Context, id int64) (model.Material, error) {
	var out model.Material
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		mat, err := tx.GetMaterial(ctx, id)
		if err != nil {
			return err
		}
		patch := store.Record{}
		if err := patch.Set("needsCheck", !mat.NeedsCheck); err != nil {
			return err
		}
		out, err = tx.UpdateMaterial(ctx, id, patch)
		return err
	})
	return out, err
}

// Units returns the built-in units followed by the custom ones.
func (s *Service) Units(ctx context.Context) ([]Unit, error) {
	var custom []Unit
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		custom, err = customUnits(ctx, tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return append(slices.Clone(BuiltinUnits), custom...), nil
}

// AddUnit adds a custom unit. Its key is the label in lower snake case.
func (s *Service) AddUnit(ctx context.Context, label string) (Unit, error) {
	label = strings.TrimSpace(label)
	key := UnitKey(label)
	if key == "" {
		return Unit{}, ErrUnitLabelRequired
	}
	unit := Unit{Key: key, Label: label, Custom: true}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		custom, err := customUnits(ctx, tx)
		if err != nil {
			return err
		}
		if isBuiltin(key) || slices.ContainsFunc(custom, func(u Unit) bool { return u.Key == key }) {
			return fmt.Errorf("%w: %s", ErrUnitExists, key)
		}
		return tx.SaveSetting(ctx, CustomUnitsKey, append(custom, unit))
	})
	if err != nil {
		return Unit{}, err
	}
	return unit, nil
}

// RemoveUnit deletes a custom unit and reports whether it existed.
func (s *Service) RemoveUnit(ctx context.Context, key string) (bool, error) {
	if isBuiltin(key) {
		return false, ErrBuiltinUnit
	}
	var removed bool
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		custom, err := customUnits(ctx, tx)
		if err != nil {
			return err
		}
		kept := slices.DeleteFunc(custom, func(u Unit) bool { return u.Key == key })
		if len(kept) == len(custom) {
			return nil
		}
		removed = true
		return tx.SaveSetting(ctx, CustomUnitsKey, kept)
	})
	return removed, err
}

// UnitKey turns a label into its lower snake case key.
func UnitKey(label string) string {
	fields := strings.FieldsFunc(strings.ToLower(label), func(r rune) bool {
		return r == ' ' || r == '-' || r == '_' || r == '\t'
	})
	return strings.Join(fields, "_")
}

func customUnits(ctx context.Context, tx TxRepository) ([]Unit, error) {
	raw, ok := tx.GetSetting(ctx, CustomUnitsKey)
	if !ok {
		return nil, nil
	}
	var units []Unit
	if err := json.Unmarshal(raw, &units); err != nil {
		return nil, fmt.Errorf("inventory: decode %s: %w", CustomUnitsKey, err)
	}
	for i := range units {
		units[i].Custom = true
	}
	return units, nil
}

func isBuiltin(key string) bool {
	return slices.ContainsFunc(BuiltinUnits, func(u Unit) bool { return u.Key == key })
}
