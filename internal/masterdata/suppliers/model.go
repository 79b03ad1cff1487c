package suppliers

import (
	"time"

	"github.com/shopspring/decimal"
)

// Supplier represents a supplier master record. Balance tracks the
// outstanding payable and is maintained by billing and payments.
type Supplier struct {
	ID        int64           `json:"id"`
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	Address   string          `json:"address"`
	Email     string          `json:"email"`
	Phone     string          `json:"phone"`
	Balance   decimal.Decimal `json:"balance"`
	IsActive  bool            `json:"is_active"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}
