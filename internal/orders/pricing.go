package orders

import "github.com/printdesk/printdesk/internal/model"

// ItemTotals is the money one item contributes.
type ItemTotals struct {
	ServiceRevenue  float64 `json:"serviceRevenue"`
	MaterialRevenue float64 `json:"materialRevenue"`
	MaterialCost    float64 `json:"materialCost"`
	Total           float64 `json:"total"`
}

// Extras are the order-level charges added on top of the items.
type Extras struct {
	DeliveryCost    float64
	IncludeDelivery bool
	OtherCost       float64
	IncludeOther    bool
	ExtraCosts      []model.ExtraCost
}

// Totals is the priced view of an order.
type Totals struct {
	Items           []ItemTotals `json:"items"`
	ServicePrice    float64      `json:"servicePrice"`
	MaterialRevenue float64      `json:"materialRevenue"`
	ExtraCostsTotal float64      `json:"extraCostsTotal"`
	TotalCost       float64      `json:"totalCost"`
	TotalPrice      float64      `json:"totalPrice"`
	Profit          float64      `json:"profit"`
}

// PriceItem prices a single item. Material money only counts when the shop
// supplies the material.
func PriceItem(item model.OrderItem) ItemTotals {
	out := ItemTotals{ServiceRevenue: item.ServicePrice}
	for _, sub := range item.SubServices {
		if sub.Selected {
			out.ServiceRevenue += sub.Price
		}
	}
	if item.MaterialSource == model.SourceMine {
		qty := item.Quantity
		out.MaterialCost = item.UnitCost() * qty
		out.MaterialRevenue = item.SellPrice() * qty
	}
	out.Total = out.ServiceRevenue + out.MaterialRevenue
	return out
}

// Price computes order totals from items and extras.
func Price(items []model.OrderItem, extras Extras) Totals {
	t := Totals{Items: make([]ItemTotals, len(items))}
	var itemsTotal float64
	for i, item := range items {
		it := PriceItem(item)
		t.Items[i] = it
		t.ServicePrice += it.ServiceRevenue
		t.MaterialRevenue += it.MaterialRevenue
		t.TotalCost += it.MaterialCost
		itemsTotal += it.Total
	}
	for _, extra := range extras.ExtraCosts {
		t.ExtraCostsTotal += extra.Amount
	}
	t.TotalPrice = itemsTotal + t.ExtraCostsTotal
	if extras.IncludeDelivery {
		t.TotalPrice += extras.DeliveryCost
	}
	if extras.IncludeOther {
		t.TotalPrice += extras.OtherCost
	}
	t.Profit = t.TotalPrice - t.TotalCost
	return t
}

// ExtrasOf collects the order-level charges of o.
func ExtrasOf(o model.Order) Extras {
	return Extras{
		DeliveryCost:    o.DeliveryCost,
		IncludeDelivery: o.IncludeDelivery,
		OtherCost:       o.OtherCost,
		IncludeOther:    o.IncludeOther,
		ExtraCosts:      o.ExtraCosts,
	}
}

// Apply prices o and writes the derived fields back onto it.
func Apply(o *model.Order) Totals {
	t := Price(o.Items, ExtrasOf(*o))
	for i := range o.Items {
		o.Items[i].Total = t.Items[i].Total
	}
	o.ServicePrice = t.ServicePrice
	o.ExtraCostsTotal = t.ExtraCostsTotal
	o.TotalCost = t.TotalCost
	o.TotalPrice = t.TotalPrice
	o.Profit = t.Profit
	return t
}
