package inventory

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType enumerates supported stock movements.
type TransactionType string

const (
	// TransactionTypePurchase represents goods received against a purchase.
	TransactionTypePurchase TransactionType = "purchase"
	// TransactionTypeSale represents goods issued against a sale.
	TransactionTypeSale TransactionType = "sale"
	// TransactionTypeAdjustment indicates manual corrections.
	TransactionTypeAdjustment TransactionType = "adjustment"
	// TransactionTypeTransfer is used for movements between locations.
	TransactionTypeTransfer TransactionType = "transfer"
)

// LedgerEntry is one immutable row of the stock ledger. Qty is signed:
// positive for receipts, negative for issues.
type LedgerEntry struct {
	ID          int64           `json:"id"`
	ItemID      int64           `json:"item_id"`
	ItemCode    string          `json:"item_code,omitempty"`
	ItemName    string          `json:"item_name,omitempty"`
	LocationID  int64           `json:"location_id"`
	TxType      TransactionType `json:"tx_type"`
	Qty         decimal.Decimal `json:"qty"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	BalanceQty  decimal.Decimal `json:"balance_qty"`
	BalanceCost decimal.Decimal `json:"balance_cost"`
	RefType     string          `json:"ref_type,omitempty"`
	RefID       int64           `json:"ref_id,omitempty"`
	Note        string          `json:"note,omitempty"`
	CreatedBy   int64           `json:"created_by"`
	CreatedAt   time.Time       `json:"created_at"`
}

// ItemStock summarises on-hand quantity per item and location.
type ItemStock struct {
	ItemID     int64           `json:"item_id"`
	ItemCode   string          `json:"item_code,omitempty"`
	ItemName   string          `json:"item_name,omitempty"`
	LocationID int64           `json:"location_id"`
	Qty        decimal.Decimal `json:"qty"`
	AvgCost    decimal.Decimal `json:"avg_cost"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// ReceiveInput describes an inbound posting.
type ReceiveInput struct {
	ItemID     int64
	LocationID int64
	Qty        decimal.Decimal
	UnitCost   decimal.Decimal
	TxType     TransactionType
	RefType    string
	RefID      int64
	Note       string
	ActorID    int64
}

// IssueInput describes an outbound posting. Cost is taken from the
// running average, never from the caller.
type IssueInput struct {
	ItemID     int64
	LocationID int64
	Qty        decimal.Decimal
	TxType     TransactionType
	RefType    string
	RefID      int64
	Note       string
	ActorID    int64
}

// AdjustInput corrects stock up or down by a signed quantity.
type AdjustInput struct {
	ItemID     int64
	LocationID int64
	Qty        decimal.Decimal
	UnitCost   decimal.Decimal
	Note       string
	ActorID    int64
}

// TransferInput moves stock between two locations.
type TransferInput struct {
	ItemID      int64
	SrcLocation int64
	DstLocation int64
	Qty         decimal.Decimal
	Note        string
	ActorID     int64
}

// LedgerFilter narrows ledger listings.
type LedgerFilter struct {
	ItemID     int64
	LocationID int64
	TxType     TransactionType
	From       time.Time
	To         time.Time
	Page       int
	Limit      int
}

// StockFilter narrows stock level listings.
type StockFilter struct {
	LocationID int64
	Search     string
	LowOnly    bool
	Page       int
	Limit      int
}

var (
	// ErrInsufficientStock is returned when an issue exceeds on-hand qty.
	ErrInsufficientStock = errors.New("inventory: insufficient stock")
	// ErrInvalidQuantity flags zero or negative movement quantities.
	ErrInvalidQuantity = errors.New("inventory: quantity must be positive")
	// ErrInvalidUnitCost flags negative unit costs on receipts.
	ErrInvalidUnitCost = errors.New("inventory: unit cost must not be negative")
	// ErrStockNotFound indicates a missing stock row.
	ErrStockNotFound = errors.New("inventory: stock not found")
)
