package model

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusReady     OrderStatus = "ready"
	StatusDelivered OrderStatus = "delivered"
)

// MaterialSource says who supplies an item's material.
type MaterialSource string

const (
	// SourceNone means the item uses no tracked material.
	SourceNone MaterialSource = "none"
	// SourceMine means the shop supplies the material and charges for it.
	SourceMine MaterialSource = "mine"
	// SourceCustomer means the client brings the material.
	SourceCustomer MaterialSource = "customer"
)

// Order is a client job made of one or more items.
type Order struct {
	Meta
	ClientID        Ref         `json:"clientId"`
	OrderDate       Date        `json:"orderDate" validate:"day"`
	DeliveryDate    Date        `json:"deliveryDate" validate:"day"`
	Status          OrderStatus `json:"status" validate:"oneof=pending ready delivered"`
	Notes           string      `json:"notes"`
	Items           []OrderItem `json:"items" validate:"dive"`
	ExtraCosts      []ExtraCost `json:"extraCosts" validate:"dive"`
	DeliveryCost    float64     `json:"deliveryCost" validate:"gte=0"`
	IncludeDelivery bool        `json:"includeDelivery"`
	OtherCost       float64     `json:"otherCost" validate:"gte=0"`
	IncludeOther    bool        `json:"includeOther"`

	// Derived by the pricing rules on every save.
	ServicePrice    float64 `json:"servicePrice"`
	ExtraCostsTotal float64 `json:"extraCostsTotal"`
	TotalCost       float64 `json:"totalCost"`
	TotalPrice      float64 `json:"totalPrice"`
	Profit          float64 `json:"profit"`
}

// OrderItem is one service line, optionally consuming a material.
type OrderItem struct {
	ServiceID         Ref            `json:"serviceId"`
	ServiceName       string         `json:"serviceName"`
	ServicePrice      float64        `json:"servicePrice" validate:"gte=0"`
	SubServices       []SubService   `json:"subServices,omitempty" validate:"dive"`
	MaterialID        Ref            `json:"materialId"`
	MaterialName      string         `json:"materialName,omitempty"`
	MaterialSource    MaterialSource `json:"materialSource" validate:"oneof=none mine customer"`
	Quantity          float64        `json:"quantity" validate:"gte=0"`
	MaterialUnitCost  *float64       `json:"materialUnitCost" validate:"omitempty,gte=0"`
	MaterialSellPrice *float64       `json:"materialSellPrice" validate:"omitempty,gte=0"`
	Total             float64        `json:"total"`
}

// SubService is an optional add-on of a service, toggled per item with its
// own price.
type SubService struct {
	Name     string  `json:"name" validate:"required"`
	Price    float64 `json:"price" validate:"gte=0"`
	Selected bool    `json:"selected"`
}

// ExtraCost is a named surcharge added to the order price.
type ExtraCost struct {
	Name   string  `json:"name" validate:"required"`
	Amount float64 `json:"amount" validate:"gte=0"`
}

// Amount returns a pointer to v. Item material prices use pointers so that an
// explicit zero is kept while an absent price takes the stock price.
func Amount(v float64) *float64 { return &v }

// UnitCost is the material purchase price per unit, zero when unset.
func (i OrderItem) UnitCost() float64 {
	if i.MaterialUnitCost == nil {
		return 0
	}
	return *i.MaterialUnitCost
}

// SellPrice is the material price charged per unit, zero when unset.
func (i OrderItem) SellPrice() float64 {
	if i.MaterialSellPrice == nil {
		return 0
	}
	return *i.MaterialSellPrice
}

// UsesStock reports whether the item draws on shop stock.
func (i OrderItem) UsesStock() bool {
	return i.MaterialSource == SourceMine && i.MaterialID.Valid()
}

// ServiceNames lists the non-empty service names of the order's items.
func (o Order) ServiceNames() []string {
	names := make([]string, 0, len(o.Items))
	for _, item := range o.Items {
		if item.ServiceName != "" {
			names = append(names, item.ServiceName)
		}
	}
	return names
}

func (o *Order) applyDefaults() {
	if o.Status == "" {
		o.Status = StatusPending
	}
	if o.Items == nil {
		o.Items = []OrderItem{}
	}
	if o.ExtraCosts == nil {
		o.ExtraCosts = []ExtraCost{}
	}
	for i := range o.Items {
		o.Items[i].applyDefaults()
	}
}

func (i *OrderItem) applyDefaults() {
	switch i.MaterialSource {
	case "":
		i.MaterialSource = SourceNone
	case "client":
		i.MaterialSource = SourceCustomer
	}
	if i.Quantity == 0 {
		i.Quantity = 1
	}
}
