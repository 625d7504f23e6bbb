package reports

import (
	"fmt"

	"github.com/printdesk/printdesk/internal/model"
)

// ErrInvalidRange indicates a range whose start is after its end or a
// malformed date.
var ErrInvalidRange = fmt.Errorf("%w: invalid date range", model.ErrValidation)

// Range is an inclusive span of days.
type Range struct {
	From model.Date `json:"from"`
	To   model.Date `json:"to"`
}

// Profit summarises delivered work and spending over a range.
type Profit struct {
	Range            Range              `json:"range"`
	Revenue          float64            `json:"revenue"`
	OrderCost        float64            `json:"orderCost"`
	Expenses         float64            `json:"expenses"`
	Purchases        float64            `json:"purchases"`
	GrossProfit      float64            `json:"grossProfit"`
	NetProfit        float64            `json:"netProfit"`
	OrderCount       int                `json:"orderCount"`
	Orders           []OrderProfit      `json:"orders"`
	RevenueByService map[string]float64 `json:"revenueByService"`
}

// OrderProfit is one delivered order's contribution.
type OrderProfit struct {
	OrderID      int64      `json:"orderId"`
	ClientName   string     `json:"clientName,omitempty"`
	DeliveryDate model.Date `json:"deliveryDate"`
	Revenue      float64    `json:"revenue"`
	Cost         float64    `json:"cost"`
	Profit       float64    `json:"profit"`
	MarginPct    float64    `json:"marginPct"`
}

// Dashboard is the home screen summary.
type Dashboard struct {
	Today              model.Date    `json:"today"`
	ActiveOrders       int           `json:"activeOrders"`
	TodayRevenue       float64       `json:"todayRevenue"`
	Clients            int           `json:"clients"`
	LowStock           int           `json:"lowStock"`
	UrgentTasks        []model.Task  `json:"urgentTasks"`
	UpcomingDeliveries []model.Order `json:"upcomingDeliveries"`
	RecentOrders       []model.Order `json:"recentOrders"`
}

const dashboardListSize = 5
