package reports

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/printdesk/printdesk/internal/model"
	"github.com/printdesk/printdesk/internal/store"
	"github.com/printdesk/printdesk/internal/store/memory"
)

var testNow = time.Date(2025, 4, 20, 15, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, withCache bool) (*Service, *store.Store) {
	t.Helper()
	st, err := store.Open(context.Background(), memory.New(), store.WithSchema(model.NewSchema()))
	require.NoError(t, err)
	var cache *Cache
	if withCache {
		mr := miniredis.RunT(t)
		client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		t.Cleanup(func() { _ = client.Close() })
		cache = NewCache(client, time.Minute)
	}
	svc := NewService(st, cache, nil)
	svc.now = func() time.Time { return testNow }
	st.Subscribe(svc.Invalidate)
	return svc, st
}

func add(t *testing.T, st *store.Store, c store.Collection, v any) int64 {
	t.Helper()
	rec, err := store.Encode(v)
	require.NoError(t, err)
	id, err := st.Add(context.Background(), c, rec)
	require.NoError(t, err)
	return id
}

func deliveredOrder(day string, price, cost float64) model.Order {
	return model.Order{
		Status:       model.StatusDelivered,
		DeliveryDate: model.Date(day),
		Items:        []model.OrderItem{{ServiceName: "Printing", ServicePrice: price, Total: price}},
		TotalPrice:   price,
		TotalCost:    cost,
	}
}

func TestProfitReport(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t, false)
	client := add(t, st, store.Clients, model.Client{Name: "Atlas"})

	o := deliveredOrder("2025-04-02", 200, 50)
	o.ClientID = model.Ref(client)
	add(t, st, store.Orders, o)
	add(t, st, store.Orders, deliveredOrder("2025-04-10", 100, 0))
	add(t, st, store.Orders, deliveredOrder("2025-03-30", 999, 0))
	pending := deliveredOrder("2025-04-05", 500, 0)
	pending.Status = model.StatusReady
	add(t, st, store.Orders, pending)

	add(t, st, store.Expenses, model.Expense{Description: "Rent", Amount: 80, Date: "2025-04-01"})
	add(t, st, store.Expenses, model.Expense{Description: "Purchase: Paper", Amount: 30, Date: "2025-04-03", PurchaseID: 1})
	add(t, st, store.Purchases, model.Purchase{MaterialID: 1, Quantity: 10, UnitPrice: 3, Total: 30, Date: "2025-04-03"})

	report, err := svc.Profit(ctx, Range{From: "2025-04-01", To: "2025-04-30"})
	require.NoError(t, err)
	assert.Equal(t, 2, report.OrderCount)
	assert.InDelta(t, 300, report.Revenue, 1e-9)
	assert.InDelta(t, 50, report.OrderCost, 1e-9)
	assert.InDelta(t, 80, report.Expenses, 1e-9)
	assert.InDelta(t, 30, report.Purchases, 1e-9)
	assert.InDelta(t, 250, report.GrossProfit, 1e-9)
	assert.InDelta(t, 190, report.NetProfit, 1e-9)
	assert.InDelta(t, 300, report.RevenueByService["Printing"], 1e-9)
	require.Len(t, report.Orders, 2)
	assert.Equal(t, "Atlas", report.Orders[0].ClientName)
	assert.InDelta(t, 75, report.Orders[0].MarginPct, 1e-9)

	_, err = svc.Profit(ctx, Range{From: "2025-05-01", To: "2025-04-01"})
	require.ErrorIs(t, err, ErrInvalidRange)
}

func TestProfitDefaultsToCurrentMonth(t *testing.T) {
	svc, _ := newTestService(t, false)
	report, err := svc.Profit(context.Background(), Range{})
	require.NoError(t, err)
	assert.Equal(t, Range{From: "2025-04-01", To: "2025-04-20"}, report.Range)
	assert.NotNil(t, report.Orders)
}

func TestDashboard(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t, false)
	add(t, st, store.Clients, model.Client{Name: "Atlas"})
	add(t, st, store.Orders, deliveredOrder("2025-04-20", 120, 0))
	upcoming := deliveredOrder("2025-04-25", 60, 0)
	upcoming.Status = model.StatusPending
	add(t, st, store.Orders, upcoming)
	add(t, st, store.Materials, model.Material{Name: "Toner", Quantity: 1, MinStock: 2})
	add(t, st, store.Tasks, model.Task{Title: "Later", Priority: model.PriorityHigh, DueDate: "2025-04-28"})
	add(t, st, store.Tasks, model.Task{Title: "Soon", Priority: model.PriorityHigh, DueDate: "2025-04-21"})
	add(t, st, store.Tasks, model.Task{Title: "Done", Priority: model.PriorityHigh, Status: model.TaskCompleted})
	add(t, st, store.Tasks, model.Task{Title: "Minor", Priority: model.PriorityLow})

	dash, err := svc.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.Date("2025-04-20"), dash.Today)
	assert.Equal(t, 1, dash.ActiveOrders)
	assert.InDelta(t, 120, dash.TodayRevenue, 1e-9)
	assert.Equal(t, 1, dash.Clients)
	assert.Equal(t, 1, dash.LowStock)
	require.Len(t, dash.UrgentTasks, 2)
	assert.Equal(t, "Soon", dash.UrgentTasks[0].Title)
	require.Len(t, dash.UpcomingDeliveries, 1)
	require.Len(t, dash.RecentOrders, 2)
	assert.InDelta(t, 60, dash.RecentOrders[0].TotalPrice, 1e-9)
}

func TestCacheServesUntilStoreChanges(t *testing.T) {
	ctx := context.Background()
	svc, st := newTestService(t, true)
	add(t, st, store.Orders, deliveredOrder("2025-04-02", 100, 0))

	r := Range{From: "2025-04-01", To: "2025-04-30"}
	first, err := svc.Profit(ctx, r)
	require.NoError(t, err)
	assert.InDelta(t, 100, first.Revenue, 1e-9)

	ver, err := svc.cache.Version(ctx)
	require.NoError(t, err)

	add(t, st, store.Orders, deliveredOrder("2025-04-03", 50, 0))
	next, err := svc.cache.Version(ctx)
	require.NoError(t, err)
	assert.Greater(t, next, ver)

	second, err := svc.Profit(ctx, r)
	require.NoError(t, err)
	assert.InDelta(t, 150, second.Revenue, 1e-9)
}

func TestCachedLoadSurvivesCallerCancel(t *testing.T) {
	svc, _ := newTestService(t, false)
	ctx, cancel := context.WithCancel(context.Background())

	started := make(chan struct{})
	release := make(chan struct{})
	loaderErr := make(chan error, 1)
	callerErr := make(chan error, 1)
	go func() {
		var out map[string]int
		callerErr <- svc.cached(ctx, &out, func(ctx context.Context) (any, error) {
			close(started)
			<-release
			loaderErr <- ctx.Err()
			return map[string]int{"orders": 1}, nil
		}, "shared")
	}()

	<-started
	cancel()
	require.ErrorIs(t, <-callerErr, context.Canceled)
	close(release)
	assert.NoError(t, <-loaderErr)
}
