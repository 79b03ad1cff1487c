package locations

import "time"

// Location types recognised by the inventory module.
const (
	TypeWarehouse = "warehouse"
	TypeSite      = "site"
	TypeStore     = "store"
)

// Location represents a physical stock location.
type Location struct {
	ID        int64     `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	Type      string    `json:"type"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
