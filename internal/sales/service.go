package sales

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/inventory"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// StockPort is the slice of the inventory service used when delivering
// against a sales order.
type StockPort interface {
	Issue(ctx context.Context, input inventory.IssueInput) (inventory.LedgerEntry, error)
}

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates the quote-to-invoice workflow.
type Service struct {
	repo  Repository
	stock StockPort
	audit AuditPort
	now   func() time.Time
}

// NewService builds Service. stock and audit may be nil in tests.
func NewService(repo Repository, stock StockPort, audit AuditPort) *Service {
	return &Service{repo: repo, stock: stock, audit: audit, now: time.Now}
}

// CreateQuotationInput carries a new customer quotation.
type CreateQuotationInput struct {
	CustomerID int64
	QuoteDate  time.Time
	ValidUntil time.Time
	Discount   decimal.Decimal
	Note       string
	Lines      []QuotationLine
	ActorID    int64
}

func (s *Service) CreateQuotation(ctx context.Context, input CreateQuotationInput) (Quotation, error) {
	if input.CustomerID == 0 {
		return Quotation{}, fmt.Errorf("%w: customer required", ErrValidation)
	}
	if input.ValidUntil.Before(input.QuoteDate) {
		return Quotation{}, fmt.Errorf("%w: valid-until before quote date", ErrValidation)
	}
	if len(input.Lines) == 0 {
		return Quotation{}, ErrEmptyLines
	}
	calcLines := make([]shared.LineInput, 0, len(input.Lines))
	for i, line := range input.Lines {
		if line.ItemID == 0 || !line.Qty.IsPositive() || line.UnitPrice.IsNegative() {
			return Quotation{}, fmt.Errorf("%w: quotation line %d invalid", ErrValidation, i+1)
		}
		in := shared.LineInput{Qty: line.Qty, UnitPrice: line.UnitPrice, Discount: line.Discount, TaxRate: line.TaxRate}
		input.Lines[i].Total = shared.CalculateLine(in).Total
		calcLines = append(calcLines, in)
	}
	totals := shared.CalculateDocument(calcLines, input.Discount)

	q := Quotation{
		CustomerID: input.CustomerID,
		QuoteDate:  input.QuoteDate,
		ValidUntil: input.ValidUntil,
		Status:     QuotationDraft,
		Subtotal:   totals.Subtotal,
		Tax:        totals.Tax,
		Discount:   totals.Discount,
		Total:      totals.Net,
		Note:       input.Note,
		Lines:      input.Lines,
		CreatedBy:  input.ActorID,
	}
	created, err := s.repo.CreateQuotation(ctx, q)
	if err != nil {
		return Quotation{}, err
	}
	s.recordAudit(ctx, input.ActorID, "sales:quotation_created", "sales_quotation", created.Number)
	return created, nil
}

func (s *Service) ListQuotations(ctx context.Context, status string, customerID int64, page, limit int) ([]Quotation, int, error) {
	return s.repo.ListQuotations(ctx, status, customerID, page, limit)
}

func (s *Service) GetQuotation(ctx context.Context, id int64) (Quotation, error) {
	return s.repo.GetQuotation(ctx, id)
}

// SendQuotation moves a draft quotation to sent.
func (s *Service) SendQuotation(ctx context.Context, id int64, actorID int64) error {
	q, err := s.repo.GetQuotation(ctx, id)
	if err != nil {
		return err
	}
	if q.Status != QuotationDraft {
		return ErrInvalidTransition
	}
	return s.repo.SetQuotationStatus(ctx, id, QuotationSent)
}

// DecideQuotation accepts or rejects a sent quotation. A quotation past
// its validity is marked expired instead.
func (s *Service) DecideQuotation(ctx context.Context, id int64, accept bool, actorID int64) (Quotation, error) {
	q, err := s.repo.GetQuotation(ctx, id)
	if err != nil {
		return Quotation{}, err
	}
	if q.Status != QuotationSent {
		return Quotation{}, ErrInvalidTransition
	}
	if s.now().After(q.ValidUntil) {
		if err := s.repo.SetQuotationStatus(ctx, id, QuotationExpired); err != nil {
			return Quotation{}, err
		}
		return Quotation{}, ErrQuotationExpired
	}
	status := QuotationRejected
	if accept {
		status = QuotationAccepted
	}
	if err := s.repo.SetQuotationStatus(ctx, id, status); err != nil {
		return Quotation{}, err
	}
	q.Status = status
	s.recordAudit(ctx, actorID, "sales:quotation_"+status, "sales_quotation", q.Number)
	return q, nil
}

// CreateOrderInput carries a new sales order.
type CreateOrderInput struct {
	CustomerID   int64
	QuotationID  int64
	OrderDate    time.Time
	DeliveryDate time.Time
	Note         string
	Lines        []OrderLine
	ActorID      int64
}

// CreateOrder computes totals once. A linked quotation must be accepted.
func (s *Service) CreateOrder(ctx context.Context, input CreateOrderInput) (Order, error) {
	if input.CustomerID == 0 {
		return Order{}, fmt.Errorf("%w: customer required", ErrValidation)
	}
	if len(input.Lines) == 0 {
		return Order{}, ErrEmptyLines
	}
	calcLines := make([]shared.LineInput, 0, len(input.Lines))
	for i, line := range input.Lines {
		if line.ItemID == 0 || !line.Qty.IsPositive() || line.UnitPrice.IsNegative() {
			return Order{}, fmt.Errorf("%w: order line %d invalid", ErrValidation, i+1)
		}
		in := shared.LineInput{Qty: line.Qty, UnitPrice: line.UnitPrice, Discount: line.Discount, TaxRate: line.TaxRate}
		input.Lines[i].Total = shared.CalculateLine(in).Total
		input.Lines[i].Delivered = decimal.Zero
		calcLines = append(calcLines, in)
	}
	totals := shared.CalculateDocument(calcLines, decimal.Zero)

	if input.QuotationID != 0 {
		q, err := s.repo.GetQuotation(ctx, input.QuotationID)
		if err != nil {
			return Order{}, err
		}
		if q.Status != QuotationAccepted {
			return Order{}, fmt.Errorf("%w: quotation must be accepted before conversion", ErrInvalidTransition)
		}
	}

	order := Order{
		CustomerID:   input.CustomerID,
		QuotationID:  input.QuotationID,
		OrderDate:    input.OrderDate,
		DeliveryDate: input.DeliveryDate,
		Status:       OrderPending,
		Subtotal:     totals.Subtotal,
		Tax:          totals.Tax,
		Total:        totals.Net,
		Note:         input.Note,
		Lines:        input.Lines,
		CreatedBy:    input.ActorID,
	}
	created, err := s.repo.CreateOrder(ctx, order)
	if err != nil {
		return Order{}, err
	}
	s.recordAudit(ctx, input.ActorID, "sales:order_created", "sales_order", created.Number)
	return created, nil
}

func (s *Service) ListOrders(ctx context.Context, status string, customerID int64, page, limit int) ([]Order, int, error) {
	return s.repo.ListOrders(ctx, status, customerID, page, limit)
}

func (s *Service) GetOrder(ctx context.Context, id int64) (Order, error) {
	return s.repo.GetOrder(ctx, id)
}

// ConfirmOrder moves a pending order to confirmed.
func (s *Service) ConfirmOrder(ctx context.Context, id int64, actorID int64) error {
	order, err := s.repo.GetOrder(ctx, id)
	if err != nil {
		return err
	}
	if order.Status != OrderPending {
		return ErrInvalidTransition
	}
	if err := s.repo.SetOrderStatus(ctx, id, OrderConfirmed); err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, "sales:order_confirmed", "sales_order", order.Number)
	return nil
}

// CloseOrder closes a fully delivered order.
func (s *Service) CloseOrder(ctx context.Context, id int64, actorID int64) error {
	order, err := s.repo.GetOrder(ctx, id)
	if err != nil {
		return err
	}
	if order.Status != OrderDelivered {
		return ErrInvalidTransition
	}
	if err := s.repo.SetOrderStatus(ctx, id, OrderClosed); err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, "sales:order_closed", "sales_order", order.Number)
	return nil
}

// CreateChallanInput carries a delivery against a sales order.
type CreateChallanInput struct {
	OrderID     int64
	LocationID  int64
	ChallanDate time.Time
	Driver      string
	Vehicle     string
	Note        string
	Lines       []ChallanLine
	ActorID     int64
}

// CreateChallan records the delivery, advances the order's delivered
// quantities and status, then issues stock from the shipping location.
func (s *Service) CreateChallan(ctx context.Context, input CreateChallanInput) (Challan, error) {
	if input.OrderID == 0 || input.LocationID == 0 {
		return Challan{}, fmt.Errorf("%w: order and location required", ErrValidation)
	}
	if len(input.Lines) == 0 {
		return Challan{}, ErrEmptyLines
	}
	order, err := s.repo.GetOrder(ctx, input.OrderID)
	if err != nil {
		return Challan{}, err
	}
	if order.Status != OrderConfirmed && order.Status != OrderPartiallyDelivered {
		return Challan{}, ErrInvalidTransition
	}

	remaining := make(map[int64]decimal.Decimal, len(order.Lines))
	for _, line := range order.Lines {
		remaining[line.ItemID] = line.Qty.Sub(line.Delivered)
	}
	for i, line := range input.Lines {
		if line.ItemID == 0 || !line.Qty.IsPositive() {
			return Challan{}, fmt.Errorf("%w: challan line %d invalid", ErrValidation, i+1)
		}
		rem, ok := remaining[line.ItemID]
		if !ok {
			return Challan{}, fmt.Errorf("%w: item %d is not on the order", ErrValidation, line.ItemID)
		}
		if line.Qty.GreaterThan(rem) {
			return Challan{}, ErrOverDelivery
		}
		remaining[line.ItemID] = rem.Sub(line.Qty)
	}

	status := OrderDelivered
	for _, rem := range remaining {
		if rem.IsPositive() {
			status = OrderPartiallyDelivered
			break
		}
	}

	challan := Challan{
		OrderID:     input.OrderID,
		LocationID:  input.LocationID,
		ChallanDate: input.ChallanDate,
		Driver:      input.Driver,
		Vehicle:     input.Vehicle,
		Note:        input.Note,
		Lines:       input.Lines,
		CreatedBy:   input.ActorID,
	}
	created, err := s.repo.CreateChallan(ctx, challan, status)
	if err != nil {
		return Challan{}, err
	}

	for _, line := range created.Lines {
		_, err := s.stock.Issue(ctx, inventory.IssueInput{
			ItemID:     line.ItemID,
			LocationID: input.LocationID,
			Qty:        line.Qty,
			TxType:     inventory.TransactionTypeSale,
			RefType:    "delivery_challan",
			RefID:      created.ID,
			Note:       fmt.Sprintf("delivery against %s", order.Number),
			ActorID:    input.ActorID,
		})
		if err != nil && !errors.Is(err, shared.ErrIdempotencyConflict) {
			return Challan{}, err
		}
	}
	s.recordAudit(ctx, input.ActorID, "sales:challan_created", "delivery_challan", created.Number)
	return created, nil
}

func (s *Service) ListChallans(ctx context.Context, orderID int64, page, limit int) ([]Challan, int, error) {
	return s.repo.ListChallans(ctx, orderID, page, limit)
}

func (s *Service) GetChallan(ctx context.Context, id int64) (Challan, error) {
	return s.repo.GetChallan(ctx, id)
}

// CreateInvoiceInput carries a new sales invoice.
type CreateInvoiceInput struct {
	CustomerID  int64
	OrderID     int64
	ChallanID   int64
	InvoiceDate time.Time
	DueDate     time.Time
	Discount    decimal.Decimal
	Note        string
	Lines       []InvoiceLine
	ActorID     int64
}

// CreateInvoice registers a receivable and bumps the customer balance.
func (s *Service) CreateInvoice(ctx context.Context, input CreateInvoiceInput) (Invoice, error) {
	if input.CustomerID == 0 {
		return Invoice{}, fmt.Errorf("%w: customer required", ErrValidation)
	}
	if input.DueDate.Before(input.InvoiceDate) {
		return Invoice{}, fmt.Errorf("%w: due date before invoice date", ErrValidation)
	}
	if len(input.Lines) == 0 {
		return Invoice{}, ErrEmptyLines
	}
	calcLines := make([]shared.LineInput, 0, len(input.Lines))
	for i, line := range input.Lines {
		if line.ItemID == 0 || !line.Qty.IsPositive() || line.UnitPrice.IsNegative() {
			return Invoice{}, fmt.Errorf("%w: invoice line %d invalid", ErrValidation, i+1)
		}
		in := shared.LineInput{Qty: line.Qty, UnitPrice: line.UnitPrice, Discount: line.Discount, TaxRate: line.TaxRate}
		input.Lines[i].Total = shared.CalculateLine(in).Total
		calcLines = append(calcLines, in)
	}
	totals := shared.CalculateDocument(calcLines, input.Discount)

	inv := Invoice{
		CustomerID:  input.CustomerID,
		OrderID:     input.OrderID,
		ChallanID:   input.ChallanID,
		InvoiceDate: input.InvoiceDate,
		DueDate:     input.DueDate,
		Subtotal:    totals.Subtotal,
		Tax:         totals.Tax,
		Discount:    totals.Discount,
		Total:       totals.Net,
		Paid:        decimal.Zero,
		Status:      InvoiceUnpaid,
		Note:        input.Note,
		Lines:       input.Lines,
		CreatedBy:   input.ActorID,
	}
	created, err := s.repo.CreateInvoice(ctx, inv)
	if err != nil {
		return Invoice{}, err
	}
	s.recordAudit(ctx, input.ActorID, "sales:invoice_created", "sales_invoice", created.Number)
	return created, nil
}

func (s *Service) ListInvoices(ctx context.Context, status string, customerID int64, page, limit int) ([]Invoice, int, error) {
	return s.repo.ListInvoices(ctx, status, customerID, page, limit)
}

func (s *Service) GetInvoice(ctx context.Context, id int64) (Invoice, error) {
	return s.repo.GetInvoice(ctx, id)
}

func (s *Service) recordAudit(ctx context.Context, actorID int64, action, entity, entityID string) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{
		ActorID:  actorID,
		Action:   action,
		Entity:   entity,
		EntityID: entityID,
	})
}
