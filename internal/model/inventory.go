package model

// DefaultUnit is used for materials saved without a unit.
const DefaultUnit = "piece"

// Material is a stock item consumed by orders.
type Material struct {
	Meta
	Name       string  `json:"name" validate:"required"`
	Unit       string  `json:"unit"`
	CustomUnit string  `json:"customUnit,omitempty"`
	Quantity   float64 `json:"quantity" validate:"gte=0"`
	Price      float64 `json:"price" validate:"gte=0"`
	SellPrice  float64 `json:"sellPrice" validate:"gte=0"`
	MinStock   float64 `json:"minStock" validate:"gte=0"`
	NeedsCheck bool    `json:"needsCheck"`
	SupplierID Ref     `json:"supplierId"`
	Notes      string  `json:"notes"`
}

// DisplayUnit returns the custom unit when set.
func (m Material) DisplayUnit() string {
	if m.CustomUnit != "" {
		return m.CustomUnit
	}
	return m.Unit
}

// LowStock reports whether a minimum is set and the quantity is at or below it.
func (m Material) LowStock() bool {
	return m.MinStock > 0 && m.Quantity <= m.MinStock
}

func (m *Material) applyDefaults() {
	if m.Unit == "" {
		m.Unit = DefaultUnit
	}
}

// Purchase records stock bought from a supplier.
type Purchase struct {
	Meta
	MaterialID Ref     `json:"materialId" validate:"required"`
	SupplierID Ref     `json:"supplierId"`
	Quantity   float64 `json:"quantity" validate:"gt=0"`
	UnitPrice  float64 `json:"unitPrice" validate:"gte=0"`
	Total      float64 `json:"total" validate:"gte=0"`
	Date       Date    `json:"date" validate:"day"`
	Notes      string  `json:"notes"`
}

func (p *Purchase) applyDefaults() {
	if p.Total == 0 {
		p.Total = p.Quantity * p.UnitPrice
	}
}
