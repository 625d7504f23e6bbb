package inventory

import (
	"fmt"

	"github.com/printdesk/printdesk/internal/model"
	"github.com/printdesk/printdesk/internal/platform/httpx"
	"github.com/printdesk/printdesk/internal/store"
)

// PurchaseInput records stock bought from a supplier.
type PurchaseInput struct {
	MaterialID model.Ref  `json:"materialId"`
	SupplierID model.Ref  `json:"supplierId"`
	Quantity   float64    `json:"quantity"`
	UnitPrice  float64    `json:"unitPrice"`
	Total      float64    `json:"total"`
	Date       model.Date `json:"date"`
	Notes      string     `json:"notes"`
}

// PurchaseResult is what RecordPurchase wrote.
type PurchaseResult struct {
	Purchase model.Purchase `json:"purchase"`
	Material model.Material `json:"material"`
	Expense  model.Expense  `json:"expense"`
}

// Unit is a unit of measure offered for materials.
type Unit struct {
	Key    string `json:"key"`
	Label  string `json:"label"`
	Custom bool   `json:"custom"`
}

// CustomUnitsKey is the setting holding operator-defined units.
const CustomUnitsKey = "customUnits"

// BuiltinUnits are always available.
var BuiltinUnits = []Unit{
	{Key: "piece", Label: "Piece"},
	{Key: "sheet", Label: "Sheet"},
	{Key: "meter", Label: "Meter"},
	{Key: "square_meter", Label: "Square meter"},
	{Key: "roll", Label: "Roll"},
	{Key: "box", Label: "Box"},
	{Key: "pack", Label: "Pack"},
	{Key: "kg", Label: "Kilogram"},
	{Key: "liter", Label: "Liter"},
}

var (
	// ErrInvalidQuantity indicates a purchase without a positive quantity.
	ErrInvalidQuantity = fmt.Errorf("%w: quantity must be greater than zero", model.ErrValidation)
	// ErrInvalidUnitPrice indicates a negative unit price.
	ErrInvalidUnitPrice = fmt.Errorf("%w: unit price must be >= 0", model.ErrValidation)
	// ErrMaterialRequired indicates a purchase without a material.
	ErrMaterialRequired = fmt.Errorf("%w: material required", model.ErrValidation)
	// ErrMaterialNotFound indicates the referenced material does not exist.
	ErrMaterialNotFound = fmt.Errorf("inventory: material %w", store.ErrNotFound)
	// ErrUnitLabelRequired indicates an empty unit label.
	ErrUnitLabelRequired = fmt.Errorf("%w: unit label required", model.ErrValidation)
	// ErrUnitExists indicates a unit key already in use.
	ErrUnitExists = fmt.Errorf("inventory: unit already exists: %w", httpx.ErrConflict)
	// ErrBuiltinUnit indicates an attempt to remove a built-in unit.
	ErrBuiltinUnit = fmt.Errorf("%w: built-in units cannot be removed", model.ErrValidation)
)
