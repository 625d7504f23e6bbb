// Command seed fills the configured store with demo data: a few clients,
// suppliers, materials with purchases, orders and tasks.
package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/printdesk/printdesk/internal/app"
	"github.com/printdesk/printdesk/internal/inventory"
	"github.com/printdesk/printdesk/internal/model"
	"github.com/printdesk/printdesk/internal/store"
)

func main() {
	ctx := context.Background()
	cfg, err := app.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	services, err := app.Wire(ctx, cfg, app.NewLogger(cfg), nil)
	if err != nil {
		log.Fatalf("wire services: %v", err)
	}
	defer services.Close()

	fmt.Println("→ Seeding parties...")
	clients, err := seedAll(ctx, services, store.Clients, []any{
		model.Client{Name: "Atlas Bookshop", Phone: "555-0101", Type: "company"},
		model.Client{Name: "Mira Haddad", Phone: "555-0144"},
		model.Client{Name: "Northside School", Email: "office@northside.example", Type: "company"},
	})
	if err != nil {
		log.Fatalf("seed clients: %v", err)
	}
	suppliers, err := seedAll(ctx, services, store.Suppliers, []any{
		model.Supplier{Name: "Paper Wholesale Co", Phone: "555-0200"},
	})
	if err != nil {
		log.Fatalf("seed suppliers: %v", err)
	}

	fmt.Println("→ Seeding materials...")
	materials, err := seedAll(ctx, services, store.Materials, []any{
		model.Material{Name: "A4 paper 80g", Unit: "sheet", Price: 0.02, SellPrice: 0.05, MinStock: 500},
		model.Material{Name: "Glossy photo paper", Unit: "sheet", Price: 0.3, SellPrice: 0.8, MinStock: 50},
		model.Material{Name: "Lamination film", Unit: "roll", Price: 12, SellPrice: 0, MinStock: 2},
	})
	if err != nil {
		log.Fatalf("seed materials: %v", err)
	}
	for i, qty := range []float64{2500, 200, 4} {
		if _, err := services.Inventory.RecordPurchase(ctx, inventory.PurchaseInput{
			MaterialID: model.Ref(materials[i]),
			SupplierID: model.Ref(suppliers[0]),
			Quantity:   qty,
			UnitPrice:  []float64{0.02, 0.3, 12}[i],
		}); err != nil {
			log.Fatalf("seed purchase: %v", err)
		}
	}

	fmt.Println("→ Seeding orders...")
	today := time.Now()
	orders := []model.Order{
		{
			ClientID:     model.Ref(clients[0]),
			OrderDate:    model.DateOf(today.AddDate(0, 0, -3)),
			DeliveryDate: model.DateOf(today.AddDate(0, 0, -1)),
			Status:       model.StatusDelivered,
			Items: []model.OrderItem{{
				ServiceName:    "Printing",
				ServicePrice:   25,
				MaterialID:     model.Ref(materials[0]),
				MaterialSource: model.SourceMine,
				Quantity:       300,
			}},
		},
		{
			ClientID:     model.Ref(clients[1]),
			OrderDate:    model.DateOf(today),
			DeliveryDate: model.DateOf(today.AddDate(0, 0, 2)),
			Items: []model.OrderItem{
				{ServiceName: "Printing", ServicePrice: 10, MaterialID: model.Ref(materials[1]), MaterialSource: model.SourceMine, Quantity: 20,
					SubServices: []model.SubService{{Name: "Color", Price: 0.5, Selected: true}}},
				{ServiceName: "Lamination", ServicePrice: 8, MaterialSource: model.SourceCustomer, Quantity: 1},
			},
			IncludeDelivery: true,
			DeliveryCost:    5,
		},
	}
	for _, o := range orders {
		res, err := services.Orders.Create(ctx, o)
		if err != nil {
			log.Fatalf("seed order: %v", err)
		}
		for _, w := range res.Warnings {
			fmt.Println("  warning:", w)
		}
	}

	fmt.Println("→ Seeding tasks...")
	if _, err := seedAll(ctx, services, store.Tasks, []any{
		model.Task{Title: "Reorder lamination film", Priority: model.PriorityHigh, DueDate: model.DateOf(today.AddDate(0, 0, 1))},
		model.Task{Title: "Call Northside about yearbook quote"},
	}); err != nil {
		log.Fatalf("seed tasks: %v", err)
	}

	fmt.Println("✓ Seed complete")
}

func seedAll(ctx context.Context, services *app.Services, c store.Collection, values []any) ([]int64, error) {
	ids := make([]int64, 0, len(values))
	for _, v := range values {
		rec, err := store.Encode(v)
		if err != nil {
			return nil, err
		}
		stored, err := services.Catalog.Create(ctx, c, rec)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", c, err)
		}
		ids = append(ids, stored.ID())
	}
	return ids, nil
}
