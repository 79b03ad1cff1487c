package purchase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/inventory"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// StockPort is the slice of the inventory service used when receiving
// purchase orders.
type StockPort interface {
	Receive(ctx context.Context, input inventory.ReceiveInput) (inventory.LedgerEntry, error)
}

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates the purchase workflow.
type Service struct {
	repo  Repository
	stock StockPort
	audit AuditPort
}

// NewService builds Service. stock and audit may be nil in tests.
func NewService(repo Repository, stock StockPort, audit AuditPort) *Service {
	return &Service{repo: repo, stock: stock, audit: audit}
}

// CreateRequisitionInput carries a new purchase requisition.
type CreateRequisitionInput struct {
	RequestedBy  int64
	DepartmentID int64
	RequiredDate time.Time
	Priority     string
	Note         string
	Lines        []RequisitionLine
}

func (s *Service) CreateRequisition(ctx context.Context, input CreateRequisitionInput) (Requisition, error) {
	if len(input.Lines) == 0 {
		return Requisition{}, ErrEmptyLines
	}
	for _, line := range input.Lines {
		if line.ItemID == 0 || !line.Qty.IsPositive() {
			return Requisition{}, fmt.Errorf("%w: requisition line needs item and positive qty", ErrValidation)
		}
	}
	priority := input.Priority
	if priority == "" {
		priority = "normal"
	}
	req := Requisition{
		RequestedBy:  input.RequestedBy,
		DepartmentID: input.DepartmentID,
		RequiredDate: input.RequiredDate,
		Priority:     priority,
		Status:       RequisitionPending,
		Note:         input.Note,
		Lines:        input.Lines,
	}
	return s.repo.CreateRequisition(ctx, req)
}

func (s *Service) ListRequisitions(ctx context.Context, status string, page, limit int) ([]Requisition, int, error) {
	return s.repo.ListRequisitions(ctx, status, page, limit)
}

func (s *Service) GetRequisition(ctx context.Context, id int64) (Requisition, error) {
	return s.repo.GetRequisition(ctx, id)
}

// DecideRequisition approves or rejects a pending requisition.
func (s *Service) DecideRequisition(ctx context.Context, id int64, approve bool, actorID int64) (Requisition, error) {
	req, err := s.repo.GetRequisition(ctx, id)
	if err != nil {
		return Requisition{}, err
	}
	if req.Status != RequisitionPending {
		return Requisition{}, ErrInvalidTransition
	}
	status := RequisitionRejected
	if approve {
		status = RequisitionApproved
	}
	if err := s.repo.SetRequisitionStatus(ctx, id, status); err != nil {
		return Requisition{}, err
	}
	req.Status = status
	s.recordAudit(ctx, actorID, "purchase:requisition_"+status, "purchase_requisition", req.Number)
	return req, nil
}

// CreateOrderInput carries a new purchase order.
type CreateOrderInput struct {
	SupplierID    int64
	RequisitionID int64
	LCID          int64
	OrderType     string
	ExpectedDate  time.Time
	Note          string
	Lines         []OrderLine
	ActorID       int64
}

// CreateOrder computes totals once and, when a requisition is linked,
// marks it converted in the same transaction.
func (s *Service) CreateOrder(ctx context.Context, input CreateOrderInput) (Order, error) {
	if input.SupplierID == 0 {
		return Order{}, fmt.Errorf("%w: supplier required", ErrValidation)
	}
	if len(input.Lines) == 0 {
		return Order{}, ErrEmptyLines
	}
	orderType := input.OrderType
	if orderType == "" {
		orderType = OrderTypeLocal
	}
	if orderType != OrderTypeLocal && orderType != OrderTypeForeign {
		return Order{}, fmt.Errorf("%w: unknown order type %q", ErrValidation, orderType)
	}

	var calcLines []shared.LineInput
	for i, line := range input.Lines {
		if line.ItemID == 0 || !line.Qty.IsPositive() || line.UnitPrice.IsNegative() {
			return Order{}, fmt.Errorf("%w: order line %d invalid", ErrValidation, i+1)
		}
		lt := shared.CalculateLine(shared.LineInput{Qty: line.Qty, UnitPrice: line.UnitPrice, TaxRate: line.TaxRate})
		input.Lines[i].Total = lt.Total
		calcLines = append(calcLines, shared.LineInput{Qty: line.Qty, UnitPrice: line.UnitPrice, TaxRate: line.TaxRate})
	}
	totals := shared.CalculateDocument(calcLines, decimal.Zero)

	if input.RequisitionID != 0 {
		req, err := s.repo.GetRequisition(ctx, input.RequisitionID)
		if err != nil {
			return Order{}, err
		}
		if req.Status != RequisitionApproved {
			return Order{}, fmt.Errorf("%w: requisition must be approved before conversion", ErrInvalidTransition)
		}
	}

	order := Order{
		SupplierID:    input.SupplierID,
		RequisitionID: input.RequisitionID,
		LCID:          input.LCID,
		OrderType:     orderType,
		ExpectedDate:  input.ExpectedDate,
		Status:        OrderDraft,
		Subtotal:      totals.Subtotal,
		Tax:           totals.Tax,
		Total:         totals.Net,
		Note:          input.Note,
		Lines:         input.Lines,
		CreatedBy:     input.ActorID,
	}
	created, err := s.repo.CreateOrder(ctx, order)
	if err != nil {
		return Order{}, err
	}
	s.recordAudit(ctx, input.ActorID, "purchase:order_created", "purchase_order", created.Number)
	return created, nil
}

func (s *Service) ListOrders(ctx context.Context, status string, supplierID int64, page, limit int) ([]Order, int, error) {
	return s.repo.ListOrders(ctx, status, supplierID, page, limit)
}

func (s *Service) GetOrder(ctx context.Context, id int64) (Order, error) {
	return s.repo.GetOrder(ctx, id)
}

// SendOrder moves a draft order to sent.
func (s *Service) SendOrder(ctx context.Context, id int64, actorID int64) error {
	order, err := s.repo.GetOrder(ctx, id)
	if err != nil {
		return err
	}
	if order.Status != OrderDraft {
		return ErrInvalidTransition
	}
	return s.repo.SetOrderStatus(ctx, id, OrderSent, 0)
}

// ApproveOrder records the approver on a draft or sent order.
func (s *Service) ApproveOrder(ctx context.Context, id int64, actorID int64) error {
	order, err := s.repo.GetOrder(ctx, id)
	if err != nil {
		return err
	}
	if order.Status != OrderDraft && order.Status != OrderSent {
		return ErrInvalidTransition
	}
	if err := s.repo.SetOrderStatus(ctx, id, order.Status, actorID); err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, "purchase:order_approved", "purchase_order", order.Number)
	return nil
}

// ReceiveOrder posts every line into stock at its order price and marks
// the order received. Posting is idempotent on (order, item, location).
func (s *Service) ReceiveOrder(ctx context.Context, id int64, locationID int64, actorID int64) (Order, error) {
	if locationID == 0 {
		return Order{}, fmt.Errorf("%w: receiving location required", ErrValidation)
	}
	order, err := s.repo.GetOrder(ctx, id)
	if err != nil {
		return Order{}, err
	}
	if order.Status != OrderSent {
		return Order{}, ErrInvalidTransition
	}
	for _, line := range order.Lines {
		_, err := s.stock.Receive(ctx, inventory.ReceiveInput{
			ItemID:     line.ItemID,
			LocationID: locationID,
			Qty:        line.Qty,
			UnitCost:   line.UnitPrice,
			TxType:     inventory.TransactionTypePurchase,
			RefType:    "purchase_order",
			RefID:      order.ID,
			Note:       fmt.Sprintf("receipt against %s", order.Number),
			ActorID:    actorID,
		})
		if err != nil && !errors.Is(err, shared.ErrIdempotencyConflict) {
			return Order{}, err
		}
	}
	if err := s.repo.SetOrderStatus(ctx, id, OrderReceived, 0); err != nil {
		return Order{}, err
	}
	order.Status = OrderReceived
	s.recordAudit(ctx, actorID, "purchase:order_received", "purchase_order", order.Number)
	return order, nil
}

// CancelOrder cancels a draft or sent order.
func (s *Service) CancelOrder(ctx context.Context, id int64, actorID int64) error {
	order, err := s.repo.GetOrder(ctx, id)
	if err != nil {
		return err
	}
	if order.Status != OrderDraft && order.Status != OrderSent {
		return ErrInvalidTransition
	}
	if err := s.repo.SetOrderStatus(ctx, id, OrderCancelled, 0); err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, "purchase:order_cancelled", "purchase_order", order.Number)
	return nil
}

// CreateLCInput carries a new letter of credit.
type CreateLCInput struct {
	Number       string
	SupplierID   int64
	Bank         string
	OpeningDate  time.Time
	ShipmentDate time.Time
	ExpiryDate   time.Time
	TotalValue   decimal.Decimal
	Currency     string
	ExchangeRate decimal.Decimal
}

func (s *Service) CreateLC(ctx context.Context, input CreateLCInput) (LetterOfCredit, error) {
	if input.Number == "" || input.SupplierID == 0 {
		return LetterOfCredit{}, fmt.Errorf("%w: LC number and supplier required", ErrValidation)
	}
	if input.TotalValue.IsNegative() || input.ExchangeRate.IsNegative() {
		return LetterOfCredit{}, fmt.Errorf("%w: LC value and exchange rate must not be negative", ErrValidation)
	}
	lc := LetterOfCredit{
		Number:       input.Number,
		SupplierID:   input.SupplierID,
		Bank:         input.Bank,
		OpeningDate:  input.OpeningDate,
		ShipmentDate: input.ShipmentDate,
		ExpiryDate:   input.ExpiryDate,
		TotalValue:   input.TotalValue,
		Currency:     input.Currency,
		ExchangeRate: input.ExchangeRate,
		Status:       LCOpen,
	}
	return s.repo.CreateLC(ctx, lc)
}

func (s *Service) ListLCs(ctx context.Context, status string, page, limit int) ([]LetterOfCredit, int, error) {
	return s.repo.ListLCs(ctx, status, page, limit)
}

// GetLC returns the LC with its costs and landed total.
func (s *Service) GetLC(ctx context.Context, id int64) (LetterOfCredit, error) {
	lc, err := s.repo.GetLC(ctx, id)
	if err != nil {
		return LetterOfCredit{}, err
	}
	lc.LandedTotal = landedTotal(lc)
	return lc, nil
}

var lcTransitions = map[string]string{
	LCOpen:    LCShipped,
	LCShipped: LCCompleted,
}

// AdvanceLC moves the LC to its next workflow status.
func (s *Service) AdvanceLC(ctx context.Context, id int64, actorID int64) (LetterOfCredit, error) {
	lc, err := s.repo.GetLC(ctx, id)
	if err != nil {
		return LetterOfCredit{}, err
	}
	next, ok := lcTransitions[lc.Status]
	if !ok {
		return LetterOfCredit{}, ErrInvalidTransition
	}
	if err := s.repo.SetLCStatus(ctx, id, next); err != nil {
		return LetterOfCredit{}, err
	}
	lc.Status = next
	s.recordAudit(ctx, actorID, "purchase:lc_"+next, "letter_of_credit", lc.Number)
	return lc, nil
}

// AddLCCost appends a landed cost component to an open or shipped LC.
func (s *Service) AddLCCost(ctx context.Context, lcID int64, cost LCCost) (LetterOfCredit, error) {
	if cost.CostType == "" || !cost.Amount.IsPositive() {
		return LetterOfCredit{}, fmt.Errorf("%w: cost type and positive amount required", ErrValidation)
	}
	if cost.ExchangeRate.IsZero() {
		cost.ExchangeRate = decimal.NewFromInt(1)
	}
	lc, err := s.repo.GetLC(ctx, lcID)
	if err != nil {
		return LetterOfCredit{}, err
	}
	if lc.Status == LCCompleted {
		return LetterOfCredit{}, ErrInvalidTransition
	}
	cost.LCID = lcID
	if err := s.repo.AddLCCost(ctx, cost); err != nil {
		return LetterOfCredit{}, err
	}
	return s.GetLC(ctx, lcID)
}

// CreateBillInput carries a new supplier bill.
type CreateBillInput struct {
	SupplierID int64
	OrderID    int64
	BillDate   time.Time
	DueDate    time.Time
	Total      decimal.Decimal
	ActorID    int64
}

// CreateBill registers a payable and bumps the supplier balance.
func (s *Service) CreateBill(ctx context.Context, input CreateBillInput) (Bill, error) {
	if input.SupplierID == 0 {
		return Bill{}, fmt.Errorf("%w: supplier required", ErrValidation)
	}
	if !input.Total.IsPositive() {
		return Bill{}, fmt.Errorf("%w: bill total must be positive", ErrValidation)
	}
	if input.DueDate.Before(input.BillDate) {
		return Bill{}, fmt.Errorf("%w: due date before bill date", ErrValidation)
	}
	bill := Bill{
		SupplierID: input.SupplierID,
		OrderID:    input.OrderID,
		BillDate:   input.BillDate,
		DueDate:    input.DueDate,
		Total:      input.Total,
		Status:     BillPending,
	}
	created, err := s.repo.CreateBill(ctx, bill)
	if err != nil {
		return Bill{}, err
	}
	s.recordAudit(ctx, input.ActorID, "purchase:bill_created", "supplier_bill", created.Number)
	return created, nil
}

func (s *Service) ListBills(ctx context.Context, status string, supplierID int64, page, limit int) ([]Bill, int, error) {
	return s.repo.ListBills(ctx, status, supplierID, page, limit)
}

func (s *Service) GetBill(ctx context.Context, id int64) (Bill, error) {
	return s.repo.GetBill(ctx, id)
}

func landedTotal(lc LetterOfCredit) decimal.Decimal {
	total := lc.TotalValue.Mul(rateOrOne(lc.ExchangeRate))
	for _, cost := range lc.Costs {
		total = total.Add(cost.Amount.Mul(rateOrOne(cost.ExchangeRate)))
	}
	return total
}

func rateOrOne(rate decimal.Decimal) decimal.Decimal {
	if rate.IsZero() {
		return decimal.NewFromInt(1)
	}
	return rate
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
