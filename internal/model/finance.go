package model

// ExpenseCategoryPurchases marks expenses created by stock purchases.
const ExpenseCategoryPurchases = "purchases"

// Expense is money spent by the shop.
type Expense struct {
	Meta
	Description string  `json:"description" validate:"required"`
	Category    string  `json:"category"`
	Amount      float64 `json:"amount" validate:"gt=0"`
	Date        Date    `json:"date" validate:"day"`
	PurchaseID  Ref     `json:"purchaseId"`
	Notes       string  `json:"notes"`
}

func (e *Expense) applyDefaults() {
	if e.Category == "" {
		e.Category = "general"
	}
}

// Setting is one entry of the key/value settings table.
type Setting struct {
	ID    int64  `json:"id"`
	Key   string `json:"key" validate:"required"`
	Value any    `json:"value"`
}

func (s *Setting) applyDefaults() {}
