package orders

import (
	"context"
	"sort"
	"strings"

	"github.com/printdesk/printdesk/internal/model"
	"github.com/printdesk/printdesk/internal/store"
)

// Filter narrows List. Zero values match everything.
type Filter struct {
	Search  string
	Status  model.OrderStatus
	Service string
	From    model.Date
	To      model.Date
}

// Listed is an order with its client's name resolved for display.
type Listed struct {
	model.Order
	ClientName string `json:"clientName,omitempty"`
}

// List returns matching orders, newest first. Search matches the client
// name, service names and notes without regard to case.
func (s *Service) List(ctx context.Context, f Filter) ([]Listed, error) {
	recs, err := s.store.GetAll(ctx, store.Orders)
	if err != nil {
		return nil, err
	}
	clients, err := s.clientNames(ctx)
	if err != nil {
		return nil, err
	}
	needle := model.Fold(f.Search)
	service := model.Fold(f.Service)

	out := make([]Listed, 0, len(recs))
	for _, rec := range recs {
		order, err := model.DecodeAs[model.Order](rec)
		if err != nil {
			return nil, err
		}
		row := Listed{Order: order, ClientName: clients[order.ClientID.Int64()]}
		if f.Status != "" && order.Status != f.Status {
			continue
		}
		if (!f.From.IsZero() || !f.To.IsZero()) && !order.OrderDate.Within(f.From, f.To) {
			continue
		}
		names := order.ServiceNames()
		if service != "" && !containsFolded(names, service, true) {
			continue
		}
		if needle != "" {
			haystack := append([]string{row.ClientName, order.Notes}, names...)
			if !containsFolded(haystack, needle, false) {
				continue
			}
		}
		out = append(out, row)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].CreatedAt, out[j].CreatedAt
		switch {
		case a != nil && b != nil && !a.Equal(*b):
			return a.After(*b)
		case a == nil && b != nil:
			return false
		case a != nil && b == nil:
			return true
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *Service) clientNames(ctx context.Context) (map[int64]string, error) {
	recs, err := s.store.GetAll(ctx, store.Clients)
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(recs))
	for _, rec := range recs {
		names[rec.ID()] = rec.String("name")
	}
	return names, nil
}

// containsFolded reports whether any value equals (exact) or contains needle
// after case folding.
func containsFolded(values []string, needle string, exact bool) bool {
	for _, v := range values {
		v = model.Fold(v)
		if exact && v == needle || !exact && strings.Contains(v, needle) {
			return true
		}
	}
	return false
}
