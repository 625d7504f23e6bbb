package orders

import (
	"fmt"

	"github.com/printdesk/printdesk/internal/model"
	"github.com/printdesk/printdesk/internal/store"
)

var (
	// ErrMissingService indicates an order without any named service item.
	ErrMissingService = fmt.Errorf("%w: order needs at least one item with a service name", model.ErrValidation)
	// ErrInvalidQuantity indicates an item with a negative quantity.
	ErrInvalidQuantity = fmt.Errorf("%w: item quantity must not be negative", model.ErrValidation)
	// ErrInvalidStatus indicates a status outside pending, ready and delivered.
	ErrInvalidStatus = fmt.Errorf("%w: unknown order status", model.ErrValidation)
	// ErrNotFound indicates the order does not exist.
	ErrNotFound = fmt.Errorf("orders: %w", store.ErrNotFound)
)
