package model

// Client is a customer of the shop. A name or a phone number is enough.
type Client struct {
	Meta
	Name    string `json:"name" validate:"required_without=Phone"`
	Phone   string `json:"phone" validate:"required_without=Name"`
	Email   string `json:"email" validate:"omitempty,email"`
	Address string `json:"address"`
	Type    string `json:"type"`
	Notes   string `json:"notes"`
}

func (c *Client) applyDefaults() {
	if c.Type == "" {
		c.Type = "individual"
	}
}

// Supplier sells materials to the shop.
type Supplier struct {
	Meta
	Name    string `json:"name" validate:"required"`
	Phone   string `json:"phone"`
	Email   string `json:"email" validate:"omitempty,email"`
	Address string `json:"address"`
	Notes   string `json:"notes"`
}

func (s *Supplier) applyDefaults() {}
