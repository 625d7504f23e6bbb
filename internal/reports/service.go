// Package reports computes the profit report and the dashboard summary from
// the store, caching results in Redis until the next change.
package reports

import (
	"cmp"
	"context"
	"encoding/json"
	"log/slog"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/printdesk/printdesk/internal/model"
	"github.com/printdesk/printdesk/internal/store"
)

// Service builds reports.
type Service struct {
	store  *store.Store
	cache  *Cache
	logger *slog.Logger
	group  singleflight.Group
	now    func() time.Time
}

// NewService builds Service. cache may be nil.
func NewService(st *store.Store, cache *Cache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: st, cache: cache, logger: logger, now: time.Now}
}

// Invalidate drops cached reports after a store change. It is meant to be
// registered with store.Subscribe.
func (s *Service) Invalidate(ctx context.Context, _ store.Change) {
	if err := s.cache.Bump(ctx); err != nil {
		s.logger.Warn("reports: cache bump failed", slog.Any("error", err))
	}
}

// Profit returns the profit report for r. Empty bounds default to the first
// of the current month and today.
func (s *Service) Profit(ctx context.Context, r Range) (Profit, error) {
	r, err := s.normalizeRange(r)
	if err != nil {
		return Profit{}, err
	}
	var out Profit
	err = s.cached(ctx, &out, func(ctx context.Context) (any, error) {
		data, err := s.load(ctx)
		if err != nil {
			return nil, err
		}
		return buildProfit(data, r), nil
	}, "profit", r.From.Day(), r.To.Day())
	return out, err
}

// Dashboard returns the summary for today.
func (s *Service) Dashboard(ctx context.Context) (Dashboard, error) {
	today := model.DateOf(s.now())
	var out Dashboard
	err := s.cached(ctx, &out, func(ctx context.Context) (any, error) {
		data, err := s.load(ctx)
		if err != nil {
			return nil, err
		}
		return buildDashboard(data, today), nil
	}, "dashboard", today.Day())
	return out, err
}

// cached collapses concurrent identical requests and serves from the cache.
func (s *Service) cached(ctx context.Context, dest any, build func(context.Context) (any, error), parts ...string) error {
	key, err := s.cache.BuildKey(ctx, parts...)
	if err != nil {
		return err
	}
	ch := s.group.DoChan(key, func() (any, error) {
		var raw json.RawMessage
		// Shared by every waiter on key, so one caller cancelling must not
		// fail the others.
		if err := s.cache.FetchJSON(context.WithoutCancel(ctx), key, &raw, build); err != nil {
			return nil, err
		}
		return raw, nil
	})
	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return res.Err
		}
		return json.Unmarshal(res.Val.(json.RawMessage), dest)
	}
}

func (s *Service) normalizeRange(r Range) (Range, error) {
	now := s.now()
	if r.From.IsZero() {
		r.From = model.DateOf(time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()))
	}
	if r.To.IsZero() {
		r.To = model.DateOf(now)
	}
	if _, ok := r.From.Time(); !ok {
		return Range{}, ErrInvalidRange
	}
	if _, ok := r.To.Time(); !ok {
		return Range{}, ErrInvalidRange
	}
	if r.From.Day() > r.To.Day() {
		return Range{}, ErrInvalidRange
	}
	return Range{From: model.Date(r.From.Day()), To: model.Date(r.To.Day())}, nil
}

type dataset struct {
	orders    []model.Order
	clients   []model.Client
	expenses  []model.Expense
	purchases []model.Purchase
	materials []model.Material
	tasks     []model.Task
}

// load reads the collections a report needs in parallel.
func (s *Service) load(ctx context.Context) (dataset, error) {
	var data dataset
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { data.orders, err = loadAll[model.Order](ctx, s.store, store.Orders); return })
	g.Go(func() (err error) { data.clients, err = loadAll[model.Client](ctx, s.store, store.Clients); return })
	g.Go(func() (err error) { data.expenses, err = loadAll[model.Expense](ctx, s.store, store.Expenses); return })
	g.Go(func() (err error) { data.purchases, err = loadAll[model.Purchase](ctx, s.store, store.Purchases); return })
	g.Go(func() (err error) { data.materials, err = loadAll[model.Material](ctx, s.store, store.Materials); return })
	g.Go(func() (err error) { data.tasks, err = loadAll[model.Task](ctx, s.store, store.Tasks); return })
	if err := g.Wait(); err != nil {
		return dataset{}, err
	}
	return data, nil
}

func loadAll[T any](ctx context.Context, st *store.Store, c store.Collection) ([]T, error) {
	recs, err := st.GetAll(ctx, c)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(recs))
	for _, rec := range recs {
		v, err := model.DecodeAs[T](rec)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func buildProfit(data dataset, r Range) Profit {
	names := clientNames(data.clients)
	out := Profit{Range: r, Orders: []OrderProfit{}, RevenueByService: map[string]float64{}}
	for _, o := range data.orders {
		if o.Status != model.StatusDelivered || !o.DeliveryDate.Within(r.From, r.To) {
			continue
		}
		row := OrderProfit{
			OrderID:      o.ID,
			ClientName:   names[o.ClientID.Int64()],
			DeliveryDate: o.DeliveryDate,
			Revenue:      o.TotalPrice,
			Cost:         o.TotalCost,
			Profit:       o.TotalPrice - o.TotalCost,
		}
		if row.Revenue != 0 {
			row.MarginPct = row.Profit / row.Revenue * 100
		}
		out.Orders = append(out.Orders, row)
		out.Revenue += row.Revenue
		out.OrderCost += row.Cost
		for _, item := range o.Items {
			out.RevenueByService[item.ServiceName] += item.Total
		}
	}
	for _, e := range data.expenses {
		// purchase expenses are counted through Purchases below
		if e.PurchaseID.Valid() || !e.Date.Within(r.From, r.To) {
			continue
		}
		out.Expenses += e.Amount
	}
	for _, p := range data.purchases {
		if p.Date.Within(r.From, r.To) {
			out.Purchases += p.Total
		}
	}
	out.OrderCount = len(out.Orders)
	out.GrossProfit = out.Revenue - out.OrderCost
	out.NetProfit = out.Revenue - out.Expenses - out.Purchases
	slices.SortFunc(out.Orders, func(a, b OrderProfit) int {
		return strings.Compare(a.DeliveryDate.Day(), b.DeliveryDate.Day())
	})
	return out
}

func buildDashboard(data dataset, today model.Date) Dashboard {
	out := Dashboard{
		Today:              today,
		Clients:            len(data.clients),
		UrgentTasks:        []model.Task{},
		UpcomingDeliveries: []model.Order{},
		RecentOrders:       []model.Order{},
	}
	for _, o := range data.orders {
		if o.Status != model.StatusDelivered {
			out.ActiveOrders++
			if !o.DeliveryDate.IsZero() && o.DeliveryDate.Day() >= today.Day() {
				out.UpcomingDeliveries = append(out.UpcomingDeliveries, o)
			}
			continue
		}
		if o.DeliveryDate.Day() == today.Day() {
			out.TodayRevenue += o.TotalPrice
		}
	}
	for _, m := range data.materials {
		if m.LowStock() {
			out.LowStock++
		}
	}
	for _, t := range data.tasks {
		if t.Priority == model.PriorityHigh && t.Status != model.TaskCompleted {
			out.UrgentTasks = append(out.UrgentTasks, t)
		}
	}
	slices.SortStableFunc(out.UrgentTasks, func(a, b model.Task) int {
		return compareDates(a.DueDate, b.DueDate)
	})
	slices.SortStableFunc(out.UpcomingDeliveries, func(a, b model.Order) int {
		return compareDates(a.DeliveryDate, b.DeliveryDate)
	})
	out.RecentOrders = append(out.RecentOrders, data.orders...)
	slices.SortStableFunc(out.RecentOrders, func(a, b model.Order) int {
		return compareCreated(b, a)
	})
	out.UrgentTasks = head(out.UrgentTasks)
	out.UpcomingDeliveries = head(out.UpcomingDeliveries)
	out.RecentOrders = head(out.RecentOrders)
	return out
}

// compareDates orders by day with undated entries last.
func compareDates(a, b model.Date) int {
	switch {
	case a.IsZero() && b.IsZero():
		return 0
	case a.IsZero():
		return 1
	case b.IsZero():
		return -1
	}
	return strings.Compare(a.Day(), b.Day())
}

func compareCreated(a, b model.Order) int {
	switch {
	case a.CreatedAt == nil || b.CreatedAt == nil:
	case a.CreatedAt.Before(*b.CreatedAt):
		return -1
	case a.CreatedAt.After(*b.CreatedAt):
		return 1
	}
	return cmp.Compare(a.ID, b.ID)
}

func head[T any](items []T) []T {
	if len(items) > dashboardListSize {
		return items[:dashboardListSize]
	}
	return items
}

func clientNames(clients []model.Client) map[int64]string {
	out := make(map[int64]string, len(clients))
	for _, c := range clients {
		out[c.ID] = c.Name
	}
	return out
}
