package purchase

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Requisition statuses.
const (
	RequisitionPending   = "pending"
	RequisitionApproved  = "approved"
	RequisitionRejected  = "rejected"
	RequisitionConverted = "converted"
)

// Order statuses.
const (
	OrderDraft     = "draft"
	OrderSent      = "sent"
	OrderReceived  = "received"
	OrderCancelled = "cancelled"
)

// Order types.
const (
	OrderTypeLocal   = "local"
	OrderTypeForeign = "foreign"
)

// Letter of credit statuses.
const (
	LCOpen      = "open"
	LCShipped   = "shipped"
	LCCompleted = "completed"
)

// Bill statuses.
const (
	BillPending = "pending"
	BillPartial = "partial"
	BillPaid    = "paid"
)

// Requisition is an internal purchase request raised by a department.
type Requisition struct {
	ID           int64             `json:"id"`
	Number       string            `json:"number"`
	RequestedBy  int64             `json:"requested_by"`
	DepartmentID int64             `json:"department_id,omitempty"`
	RequiredDate time.Time         `json:"required_date"`
	Priority     string            `json:"priority"`
	Status       string            `json:"status"`
	Note         string            `json:"note,omitempty"`
	Lines        []RequisitionLine `json:"lines,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// RequisitionLine is one requested item.
type RequisitionLine struct {
	ID       int64           `json:"id"`
	ItemID   int64           `json:"item_id"`
	ItemName string          `json:"item_name,omitempty"`
	Qty      decimal.Decimal `json:"qty"`
}

// Order is a purchase order placed with a supplier.
type Order struct {
	ID            int64           `json:"id"`
	Number        string          `json:"number"`
	SupplierID    int64           `json:"supplier_id"`
	SupplierName  string          `json:"supplier_name,omitempty"`
	RequisitionID int64           `json:"requisition_id,omitempty"`
	LCID          int64           `json:"lc_id,omitempty"`
	OrderType     string          `json:"order_type"`
	ExpectedDate  time.Time       `json:"expected_date"`
	Status        string          `json:"status"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Tax           decimal.Decimal `json:"tax"`
	Total         decimal.Decimal `json:"total"`
	ApprovedBy    int64           `json:"approved_by,omitempty"`
	Note          string          `json:"note,omitempty"`
	Lines         []OrderLine     `json:"lines,omitempty"`
	CreatedBy     int64           `json:"created_by"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// OrderLine is one purchase order line with its computed total.
type OrderLine struct {
	ID        int64           `json:"id"`
	ItemID    int64           `json:"item_id"`
	ItemName  string          `json:"item_name,omitempty"`
	Qty       decimal.Decimal `json:"qty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	TaxRate   decimal.Decimal `json:"tax_rate"`
	Total     decimal.Decimal `json:"total"`
}

// LetterOfCredit backs foreign purchases.
type LetterOfCredit struct {
	ID           int64           `json:"id"`
	Number       string          `json:"number"`
	SupplierID   int64           `json:"supplier_id"`
	SupplierName string          `json:"supplier_name,omitempty"`
	Bank         string          `json:"bank"`
	OpeningDate  time.Time       `json:"opening_date"`
	ShipmentDate time.Time       `json:"shipment_date"`
	ExpiryDate   time.Time       `json:"expiry_date"`
	TotalValue   decimal.Decimal `json:"total_value"`
	Currency     string          `json:"currency"`
	ExchangeRate decimal.Decimal `json:"exchange_rate"`
	Status       string          `json:"status"`
	Costs        []LCCost        `json:"costs,omitempty"`
	LandedTotal  decimal.Decimal `json:"landed_total"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// LCCost is one landed cost component attached to an LC.
type LCCost struct {
	ID           int64           `json:"id"`
	LCID         int64           `json:"lc_id"`
	CostType     string          `json:"cost_type"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency"`
	ExchangeRate decimal.Decimal `json:"exchange_rate"`
	CreatedAt    time.Time       `json:"created_at"`
}

// Bill is a supplier invoice awaiting payment.
type Bill struct {
	ID           int64           `json:"id"`
	Number       string          `json:"number"`
	SupplierID   int64           `json:"supplier_id"`
	SupplierName string          `json:"supplier_name,omitempty"`
	OrderID      int64           `json:"order_id,omitempty"`
	BillDate     time.Time       `json:"bill_date"`
	DueDate      time.Time       `json:"due_date"`
	Total        decimal.Decimal `json:"total"`
	Paid         decimal.Decimal `json:"paid"`
	Status       string          `json:"status"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

var (
	// ErrInvalidTransition flags a status change the workflow does not allow.
	ErrInvalidTransition = errors.New("purchase: invalid status transition")
	// ErrEmptyLines is returned when a document has no line items.
	ErrEmptyLines = errors.New("purchase: at least one line item required")
	// ErrNotFound indicates a missing purchase document.
	ErrNotFound = errors.New("purchase: not found")
	// ErrValidation flags invalid document input.
	ErrValidation = errors.New("purchase: validation failed")
)
