package sales

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Quotation workflow statuses.
const (
	QuotationDraft    = "draft"
	QuotationSent     = "sent"
	QuotationAccepted = "accepted"
	QuotationRejected = "rejected"
	QuotationExpired  = "expired"
)

// Sales order workflow statuses.
const (
	OrderPending            = "pending"
	OrderConfirmed          = "confirmed"
	OrderPartiallyDelivered = "partially_delivered"
	OrderDelivered          = "delivered"
	OrderClosed             = "closed"
)

// Invoice payment statuses.
const (
	InvoiceUnpaid  = "unpaid"
	InvoicePartial = "partial"
	InvoicePaid    = "paid"
)

var (
	ErrNotFound          = errors.New("sales: not found")
	ErrEmptyLines        = errors.New("sales: document needs at least one line")
	ErrInvalidTransition = errors.New("sales: invalid status transition")
	ErrValidation        = errors.New("sales: validation failed")
	ErrOverDelivery      = errors.New("sales: delivered quantity exceeds ordered quantity")
	ErrQuotationExpired  = errors.New("sales: quotation validity has passed")
)

// Quotation is a priced offer to a customer.
type Quotation struct {
	ID           int64           `json:"id"`
	Number       string          `json:"number"`
	CustomerID   int64           `json:"customerId"`
	CustomerName string          `json:"customerName,omitempty"`
	QuoteDate    time.Time       `json:"quoteDate"`
	ValidUntil   time.Time       `json:"validUntil"`
	Status       string          `json:"status"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	Tax          decimal.Decimal `json:"tax"`
	Discount     decimal.Decimal `json:"discount"`
	Total        decimal.Decimal `json:"total"`
	Note         string          `json:"note,omitempty"`
	Lines        []QuotationLine `json:"lines,omitempty"`
	CreatedBy    int64           `json:"createdBy"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

type QuotationLine struct {
	ID          int64           `json:"id"`
	QuotationID int64           `json:"quotationId"`
	ItemID      int64           `json:"itemId"`
	ItemName    string          `json:"itemName,omitempty"`
	Qty         decimal.Decimal `json:"qty"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Discount    decimal.Decimal `json:"discount"`
	TaxRate     decimal.Decimal `json:"taxRate"`
	Total       decimal.Decimal `json:"total"`
}

// Order tracks a confirmed sale through delivery.
type Order struct {
	ID           int64           `json:"id"`
	Number       string          `json:"number"`
	CustomerID   int64           `json:"customerId"`
	CustomerName string          `json:"customerName,omitempty"`
	QuotationID  int64           `json:"quotationId,omitempty"`
	OrderDate    time.Time       `json:"orderDate"`
	DeliveryDate time.Time       `json:"deliveryDate"`
	Status       string          `json:"status"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	Tax          decimal.Decimal `json:"tax"`
	Total        decimal.Decimal `json:"total"`
	Note         string          `json:"note,omitempty"`
	Lines        []OrderLine     `json:"lines,omitempty"`
	CreatedBy    int64           `json:"createdBy"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

type OrderLine struct {
	ID        int64           `json:"id"`
	OrderID   int64           `json:"orderId"`
	ItemID    int64           `json:"itemId"`
	ItemName  string          `json:"itemName,omitempty"`
	Qty       decimal.Decimal `json:"qty"`
	Delivered decimal.Decimal `json:"delivered"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Discount  decimal.Decimal `json:"discount"`
	TaxRate   decimal.Decimal `json:"taxRate"`
	Total     decimal.Decimal `json:"total"`
}

// Challan records goods leaving a location against an order.
type Challan struct {
	ID          int64         `json:"id"`
	Number      string        `json:"number"`
	OrderID     int64         `json:"orderId"`
	OrderNumber string        `json:"orderNumber,omitempty"`
	LocationID  int64         `json:"locationId"`
	ChallanDate time.Time     `json:"challanDate"`
	Driver      string        `json:"driver,omitempty"`
	Vehicle     string        `json:"vehicle,omitempty"`
	Note        string        `json:"note,omitempty"`
	Lines       []ChallanLine `json:"lines,omitempty"`
	CreatedBy   int64         `json:"createdBy"`
	CreatedAt   time.Time     `json:"createdAt"`
}

type ChallanLine struct {
	ID        int64           `json:"id"`
	ChallanID int64           `json:"challanId"`
	ItemID    int64           `json:"itemId"`
	ItemName  string          `json:"itemName,omitempty"`
	Qty       decimal.Decimal `json:"qty"`
}

// Invoice is a receivable against a customer.
type Invoice struct {
	ID           int64           `json:"id"`
	Number       string          `json:"number"`
	CustomerID   int64           `json:"customerId"`
	CustomerName string          `json:"customerName,omitempty"`
	OrderID      int64           `json:"orderId,omitempty"`
	ChallanID    int64           `json:"challanId,omitempty"`
	InvoiceDate  time.Time       `json:"invoiceDate"`
	DueDate      time.Time       `json:"dueDate"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	Tax          decimal.Decimal `json:"tax"`
	Discount     decimal.Decimal `json:"discount"`
	Total        decimal.Decimal `json:"total"`
	Paid         decimal.Decimal `json:"paid"`
	Status       string          `json:"status"`
	Note         string          `json:"note,omitempty"`
	Lines        []InvoiceLine   `json:"lines,omitempty"`
	CreatedBy    int64           `json:"createdBy"`
	CreatedAt    time.Time       `json:"createdAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

type InvoiceLine struct {
	ID        int64           `json:"id"`
	InvoiceID int64           `json:"invoiceId"`
	ItemID    int64           `json:"itemId"`
	ItemName  string          `json:"itemName,omitempty"`
	Qty       decimal.Decimal `json:"qty"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Discount  decimal.Decimal `json:"discount"`
	TaxRate   decimal.Decimal `json:"taxRate"`
	Total     decimal.Decimal `json:"total"`
}
