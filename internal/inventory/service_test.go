package inventory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/printdesk/printdesk/internal/model"
	"github.com/printdesk/printdesk/internal/store"
	"github.com/printdesk/printdesk/internal/store/memory"
)

func newTestService(t *testing.T) (*Service, *store.Store) {
	t.Helper()
	st, err := store.Open(context.Background(), memory.New(), store.WithSchema(model.NewSchema()))
	require.NoError(t, err)
	svc := NewService(NewRepository(st), nil)
	svc.now = func() time.Time { return time.Date(2025, 2, 14, 10, 0, 0, 0, time.UTC) }
	return svc, st
}

func addMaterial(t *testing.T, st *store.Store, m model.Material) int64 {
	t.Helper()
	rec, err := store.Encode(m)
	require.NoError(t, err)
	id, err := st.Add(context.Background(), store.Materials, rec)
	require.NoError(t, err)
	return id
}

func TestRecordPurchase(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t)
	paper := addMaterial(t, st, model.Material{Name: "Paper", Quantity: 40, Price: 1.5})

	res, err := svc.RecordPurchase(ctx, PurchaseInput{MaterialID: model.Ref(paper), SupplierID: 3, Quantity: 60, UnitPrice: 1.75})
	require.NoError(t, err)
	require.InDelta(t, 100, res.Material.Quantity, 0.0001)
	require.InDelta(t, 1.75, res.Material.Price, 0.0001)
	require.InDelta(t, 105, res.Purchase.Total, 0.0001)
	assert.Equal(t, model.Date("2025-02-14"), res.Purchase.Date)
	assert.Equal(t, model.Ref(3), res.Material.SupplierID)

	assert.Equal(t, model.ExpenseCategoryPurchases, res.Expense.Category)
	require.InDelta(t, 105, res.Expense.Amount, 0.0001)
	assert.Equal(t, model.Ref(res.Purchase.ID), res.Expense.PurchaseID)
	assert.Contains(t, res.Expense.Description, "Paper")

	n, err := st.Count(ctx, store.Expenses)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestRecordPurchaseValidation(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t)
	paper := addMaterial(t, st, model.Material{Name: "Paper"})

	_, err := svc.RecordPurchase(ctx, PurchaseInput{Quantity: 1})
	require.ErrorIs(t, err, ErrMaterialRequired)

	_, err = svc.RecordPurchase(ctx, PurchaseInput{MaterialID: model.Ref(paper), Quantity: 0})
	require.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = svc.RecordPurchase(ctx, PurchaseInput{MaterialID: 99, Quantity: 2})
	require.ErrorIs(t, err, ErrMaterialNotFound)
	require.ErrorIs(t, err, store.ErrNotFound)

	n, err := st.Count(ctx, store.Purchases)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestLowStockAndNeedsCheck(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t)
	low := addMaterial(t, st, model.Material{Name: "Toner", Quantity: 2, MinStock: 2})
	addMaterial(t, st, model.Material{Name: "Vinyl", Quantity: 9, MinStock: 2})
	addMaterial(t, st, model.Material{Name: "Glue", Quantity: 0})

	materials, err := svc.LowStock(ctx)
	require.NoError(t, err)
	require.Len(t, materials, 1)
	assert.Equal(t, low, materials[0].ID)

	mat, err := svc.ToggleNeedsCheck(ctx, low)
	require.NoError(t, err)
	assert.True(t, mat.NeedsCheck)
	mat, err = svc.ToggleNeedsCheck(ctx, low)
	require.NoError(t, err)
	assert.False(t, mat.NeedsCheck)
}

func TestCustomUnits(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	unit, err := svc.AddUnit(ctx, "Square Foot")
	require.NoError(t, err)
	assert.Equal(t, "square_foot", unit.Key)

	_, err = svc.AddUnit(ctx, "square-foot")
	require.ErrorIs(t, err, ErrUnitExists)
	_, err = svc.AddUnit(ctx, "Roll")
	require.ErrorIs(t, err, ErrUnitExists)
	_, err = svc.AddUnit(ctx, "   ")
	require.ErrorIs(t, err, ErrUnitLabelRequired)

	units, err := svc.Units(ctx)
	require.NoError(t, err)
	require.Len(t, units, len(BuiltinUnits)+1)
	assert.True(t, units[len(units)-1].Custom)

	_, err = svc.RemoveUnit(ctx, "piece")
	require.ErrorIs(t, err, ErrBuiltinUnit)

	removed, err := svc.RemoveUnit(ctx, "square_foot")
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = svc.RemoveUnit(ctx, "square_foot")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestFlagLowStock(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t)
	toner := addMaterial(t, st, model.Material{Name: "Toner", Quantity: 1, MinStock: 3})
	addMaterial(t, st, model.Material{Name: "Paper", Quantity: 40, MinStock: 10})

	flagged, err := svc.FlagLowStock(ctx)
	require.NoError(t, err)
	require.Len(t, flagged, 1)
	assert.Equal(t, toner, flagged[0].ID)
	assert.True(t, flagged[0].NeedsCheck)

	flagged, err = svc.FlagLowStock(ctx)
	require.NoError(t, err)
	assert.Empty(t, flagged)
}
