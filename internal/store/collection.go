package store

import (
	"fmt"
	"strings"
)

// Collection names a stored list of records.
type Collection string

const (
	Orders     Collection = "orders"
	Clients    Collection = "clients"
	Materials  Collection = "materials"
	Suppliers  Collection = "suppliers"
	Categories Collection = "categories"
	Products   Collection = "products"
	Services   Collection = "services"
	Tasks      Collection = "tasks"
	Notes      Collection = "notes"
	Tags       Collection = "tags"
	Expenses   Collection = "expenses"
	Purchases  Collection = "purchases"
	// Settings holds {id, key, value} records. It is reached through
	// GetSetting/SaveSetting but travels with the other collections in snapshots.
	Settings Collection = "settings"
)

// Collections lists every collection in snapshot order.
var Collections = []Collection{
	Orders, Clients, Materials, Suppliers, Categories, Products,
	Services, Tasks, Notes, Tags, Expenses, Purchases, Settings,
}

// sequencesBucket stores the per-collection id counters next to the data.
const sequencesBucket = "_sequences"

// Valid reports whether c is a known collection.
func (c Collection) Valid() bool {
	for _, known := range Collections {
		if c == known {
			return true
		}
	}
	return false
}

// ParseCollection resolves a collection name, case-insensitively.
func ParseCollection(name string) (Collection, error) {
	c := Collection(strings.ToLower(strings.TrimSpace(name)))
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownCollection, name)
	}
	return c, nil
}
