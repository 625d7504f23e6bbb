package orders_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/printdesk/printdesk/internal/model"
	"github.com/printdesk/printdesk/internal/orders"
)

func TestPriceMineItem(t *testing.T) {
	items := []model.OrderItem{{
		ServiceName:       "Printing",
		ServicePrice:      50,
		MaterialID:        1,
		MaterialSource:    model.SourceMine,
		Quantity:          10,
		MaterialUnitCost:  model.Amount(2),
		MaterialSellPrice: model.Amount(5),
	}}
	totals := orders.Price(items, orders.Extras{})

	assert.InDelta(t, 20, totals.TotalCost, 1e-9)
	assert.InDelta(t, 50, totals.Items[0].MaterialRevenue, 1e-9)
	assert.InDelta(t, 100, totals.TotalPrice, 1e-9)
	assert.InDelta(t, 80, totals.Profit, 1e-9)
}

func TestPriceIgnoresMaterialUnlessMine(t *testing.T) {
	for _, source := range []model.MaterialSource{model.SourceCustomer, model.SourceNone} {
		item := model.OrderItem{
			ServiceName:       "Lamination",
			ServicePrice:      30,
			MaterialID:        4,
			MaterialSource:    source,
			Quantity:          3,
			MaterialUnitCost:  model.Amount(7),
			MaterialSellPrice: model.Amount(9),
		}
		got := orders.PriceItem(item)
		assert.Zero(t, got.MaterialCost, source)
		assert.Zero(t, got.MaterialRevenue, source)
		assert.InDelta(t, 30, got.Total, 1e-9, source)
	}
}

func TestPriceSubServicesAndExtras(t *testing.T) {
	items := []model.OrderItem{
		{
			ServiceName:  "Banner",
			ServicePrice: 100,
			SubServices: []model.SubService{
				{Name: "Eyelets", Price: 15, Selected: true},
				{Name: "Hemming", Price: 25, Selected: false},
			},
			MaterialSource: model.SourceNone,
			Quantity:       1,
		},
		{
			ServiceName:       "Stickers",
			ServicePrice:      20,
			MaterialID:        2,
			MaterialSource:    model.SourceMine,
			Quantity:          4,
			MaterialUnitCost:  model.Amount(1.5),
			MaterialSellPrice: model.Amount(3),
		},
	}
	extras := orders.Extras{
		DeliveryCost:    12,
		IncludeDelivery: true,
		OtherCost:       40,
		IncludeOther:    false,
		ExtraCosts:      []model.ExtraCost{{Name: "Rush", Amount: 10}, {Name: "Design", Amount: 5}},
	}
	totals := orders.Price(items, extras)

	assert.InDelta(t, 115, totals.Items[0].Total, 1e-9)
	assert.InDelta(t, 32, totals.Items[1].Total, 1e-9)
	assert.InDelta(t, 135, totals.ServicePrice, 1e-9)
	assert.InDelta(t, 15, totals.ExtraCostsTotal, 1e-9)
	assert.InDelta(t, 6, totals.TotalCost, 1e-9)
	assert.InDelta(t, 115+32+15+12, totals.TotalPrice, 1e-9)
	assert.InDelta(t, totals.TotalPrice-totals.TotalCost, totals.Profit, 1e-9)
}

func TestApplyWritesDerivedFields(t *testing.T) {
	order := model.Order{
		Items: []model.OrderItem{{ServiceName: "Copying", ServicePrice: 8, MaterialSource: model.SourceNone, Quantity: 1}},
		ExtraCosts: []model.ExtraCost{{Name: "Binding", Amount: 2}},
	}
	orders.Apply(&order)
	assert.InDelta(t, 8, order.Items[0].Total, 1e-9)
	assert.InDelta(t, 10, order.TotalPrice, 1e-9)
	assert.InDelta(t, 10, order.Profit, 1e-9)
	assert.InDelta(t, 2, order.ExtraCostsTotal, 1e-9)
}
