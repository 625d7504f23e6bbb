package model

// Category groups products.
type Category struct {
	Meta
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	Color       string `json:"color"`
}

func (c *Category) applyDefaults() {}

// Product is a ready-made item the shop sells.
type Product struct {
	Meta
	Name        string  `json:"name" validate:"required"`
	CategoryID  Ref     `json:"categoryId"`
	Price       float64 `json:"price" validate:"gte=0"`
	Cost        float64 `json:"cost" validate:"gte=0"`
	Description string  `json:"description"`
}

func (p *Product) applyDefaults() {}

// Service is an entry of the service catalogue used when building orders.
type Service struct {
	Meta
	Name        string          `json:"name" validate:"required"`
	Price       float64         `json:"price" validate:"gte=0"`
	SubServices []SubServiceDef `json:"subServices" validate:"dive"`
	Description string          `json:"description"`
}

// SubServiceDef is an add-on offered with a service and its default price.
type SubServiceDef struct {
	Name  string  `json:"name" validate:"required"`
	Price float64 `json:"price" validate:"gte=0"`
}

func (s *Service) applyDefaults() {
	if s.SubServices == nil {
		s.SubServices = []SubServiceDef{}
	}
}
