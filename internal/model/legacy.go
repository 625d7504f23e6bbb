package model

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/printdesk/printdesk/internal/store"
)

// numericFields lists, per collection, the fields older data may hold as
// strings because they came straight from form inputs.
var numericFields = map[store.Collection][]string{
	store.Orders:    {"deliveryCost", "otherCost", "price", "quantity", "totalPrice", "totalCost"},
	store.Materials: {"quantity", "price", "sellPrice", "minStock"},
	store.Products:  {"price", "cost"},
	store.Services:  {"price"},
	store.Expenses:  {"amount"},
	store.Purchases: {"quantity", "unitPrice", "total"},
}

var itemNumericFields = []string{
	"servicePrice", "quantity", "materialUnitCost", "materialSellPrice",
	"materialPrice", "materialCost",
}

// coerceNumbers rewrites numeric strings in the named fields as JSON numbers.
// Empty strings become absent so defaults apply.
func coerceNumbers(rec map[string]json.RawMessage, fields []string) {
	for _, key := range fields {
		raw, ok := rec[key]
		if !ok || len(raw) == 0 || raw[0] != '"' {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			continue
		}
		s = strings.TrimSpace(s)
		if s == "" {
			delete(rec, key)
			continue
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			rec[key] = json.RawMessage(strconv.FormatFloat(f, 'f', -1, 64))
		}
	}
}

// migrateOrder converts the single-service order shape into the item list and
// maps renamed item fields. The legacy keys are left in place.
func migrateOrder(rec store.Record) (store.Record, error) {
	if raw, ok := rec["items"]; ok && !isNull(raw) {
		return migrateItems(rec)
	}
	service := rec.String("service")
	if service == "" {
		return rec, nil
	}
	var legacy struct {
		Quantity   float64  `json:"quantity"`
		Price      float64  `json:"price"`
		TotalPrice *float64 `json:"totalPrice"`
		TotalCost  *float64 `json:"totalCost"`
	}
	if err := rec.Decode(&legacy); err != nil {
		return nil, err
	}
	qty := legacy.Quantity
	if qty <= 0 {
		qty = 1
	}
	item := OrderItem{
		ServiceName:    service,
		ServicePrice:   legacy.Price,
		MaterialSource: SourceNone,
		Quantity:       qty,
		Total:          legacy.Price,
	}
	totalPrice := legacy.Price
	if legacy.TotalPrice != nil {
		totalPrice = *legacy.TotalPrice
	}
	var totalCost float64
	if legacy.TotalCost != nil {
		totalCost = *legacy.TotalCost
	}
	out := rec.Clone()
	derived := map[string]any{
		"items":        []OrderItem{item},
		"servicePrice": legacy.Price,
		"totalPrice":   totalPrice,
		"totalCost":    totalCost,
		"profit":       totalPrice - totalCost,
	}
	for key, v := range derived {
		if err := out.Set(key, v); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// migrateItems renames materialPrice/materialCost on items written before the
// unit cost and sell price were split.
func migrateItems(rec store.Record) (store.Record, error) {
	var items []map[string]json.RawMessage
	if err := json.Unmarshal(rec["items"], &items); err != nil {
		return nil, err
	}
	for _, item := range items {
		if item == nil {
			continue
		}
		coerceNumbers(item, itemNumericFields)
		if v, ok := item["materialPrice"]; ok {
			if _, has := item["materialSellPrice"]; !has {
				item["materialSellPrice"] = v
			}
			delete(item, "materialPrice")
		}
		if v, ok := item["materialCost"]; ok {
			if _, has := item["materialUnitCost"]; !has {
				item["materialUnitCost"] = v
			}
			delete(item, "materialCost")
		}
	}
	out := rec.Clone()
	if err := out.Set("items", items); err != nil {
		return nil, err
	}
	return out, nil
}

func isNull(raw json.RawMessage) bool {
	return strings.TrimSpace(string(raw)) == "null"
}
