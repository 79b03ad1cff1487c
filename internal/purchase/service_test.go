package purchase

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/inventory"
)

type memoryRepo struct {
	requisitions map[int64]Requisition
	orders       map[int64]Order
	lcs          map[int64]LetterOfCredit
	bills        map[int64]Bill
	nextID       int64
	seq          map[string]int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		requisitions: make(map[int64]Requisition),
		orders:       make(map[int64]Order),
		lcs:          make(map[int64]LetterOfCredit),
		bills:        make(map[int64]Bill),
		seq:          make(map[string]int64),
	}
}

func (r *memoryRepo) number(prefix string) string {
	r.seq[prefix]++
	return fmt.Sprintf("%s-%05d", prefix, r.seq[prefix])
}

func (r *memoryRepo) CreateRequisition(ctx context.Context, req Requisition) (Requisition, error) {
	r.nextID++
	req.ID = r.nextID
	req.Number = r.number("PR")
	r.requisitions[req.ID] = req
	return req, nil
}

func (r *memoryRepo) ListRequisitions(ctx context.Context, status string, page, limit int) ([]Requisition, int, error) {
	var out []Requisition
	for _, req := range r.requisitions {
		if status == "" || req.Status == status {
			out = append(out, req)
		}
	}
	return out, len(out), nil
}

func (r *memoryRepo) GetRequisition(ctx context.Context, id int64) (Requisition, error) {
	req, ok := r.requisitions[id]
	if !ok {
		return Requisition{}, ErrNotFound
	}
	return req, nil
}

func (r *memoryRepo) SetRequisitionStatus(ctx context.Context, id int64, status string) error {
	req, ok := r.requisitions[id]
	if !ok {
		return ErrNotFound
	}
	req.Status = status
	r.requisitions[id] = req
	return nil
}

func (r *memoryRepo) CreateOrder(ctx context.Context, order Order) (Order, error) {
	r.nextID++
	order.ID = r.nextID
	order.Number = r.number("PO")
	r.orders[order.ID] = order
	if order.RequisitionID != 0 {
		_ = r.SetRequisitionStatus(ctx, order.RequisitionID, RequisitionConverted)
	}
	return order, nil
}

func (r *memoryRepo) ListOrders(ctx context.Context, status string, supplierID int64, page, limit int) ([]Order, int, error) {
	var out []Order
	for _, o := range r.orders {
		out = append(out, o)
	}
	return out, len(out), nil
}

func (r *memoryRepo) GetOrder(ctx context.Context, id int64) (Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return Order{}, ErrNotFound
	}
	return o, nil
}

func (r *memoryRepo) SetOrderStatus(ctx context.Context, id int64, status string, approvedBy int64) error {
	o, ok := r.orders[id]
	if !ok {
		return ErrNotFound
	}
	o.Status = status
	if approvedBy != 0 {
		o.ApprovedBy = approvedBy
	}
	r.orders[id] = o
	return nil
}

func (r *memoryRepo) CreateLC(ctx context.Context, lc LetterOfCredit) (LetterOfCredit, error) {
	r.nextID++
	lc.ID = r.nextID
	r.lcs[lc.ID] = lc
	return lc, nil
}

func (r *memoryRepo) ListLCs(ctx context.Context, status string, page, limit int) ([]LetterOfCredit, int, error) {
	var out []LetterOfCredit
	for _, lc := range r.lcs {
		out = append(out, lc)
	}
	return out, len(out), nil
}

func (r *memoryRepo) GetLC(ctx context.Context, id int64) (LetterOfCredit, error) {
	lc, ok := r.lcs[id]
	if !ok {
		return LetterOfCredit{}, ErrNotFound
	}
	return lc, nil
}

func (r *memoryRepo) SetLCStatus(ctx context.Context, id int64, status string) error {
	lc, ok := r.lcs[id]
	if !ok {
		return ErrNotFound
	}
	lc.Status = status
	r.lcs[id] = lc
	return nil
}

func (r *memoryRepo) AddLCCost(ctx context.Context, cost LCCost) error {
	lc, ok := r.lcs[cost.LCID]
	if !ok {
		return ErrNotFound
	}
	lc.Costs = append(lc.Costs, cost)
	r.lcs[cost.LCID] = lc
	return nil
}

func (r *memoryRepo) CreateBill(ctx context.Context, bill Bill) (Bill, error) {
	r.nextID++
	bill.ID = r.nextID
	bill.Number = r.number("BILL")
	r.bills[bill.ID] = bill
	return bill, nil
}

func (r *memoryRepo) ListBills(ctx context.Context, status string, supplierID int64, page, limit int) ([]Bill, int, error) {
	var out []Bill
	for _, b := range r.bills {
		out = append(out, b)
	}
	return out, len(out), nil
}

func (r *memoryRepo) GetBill(ctx context.Context, id int64) (Bill, error) {
	b, ok := r.bills[id]
	if !ok {
		return Bill{}, ErrNotFound
	}
	return b, nil
}

type fakeStock struct {
	receipts []inventory.ReceiveInput
}

func (f *fakeStock) Receive(ctx context.Context, input inventory.ReceiveInput) (inventory.LedgerEntry, error) {
	f.receipts = append(f.receipts, input)
	return inventory.LedgerEntry{ItemID: input.ItemID, Qty: input.Qty}, nil
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func testDate() time.Time {
	return time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
}

func TestRequisitionWorkflow(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, &fakeStock{}, nil)
	ctx := context.Background()

	req, err := svc.CreateRequisition(ctx, CreateRequisitionInput{
		RequestedBy:  1,
		RequiredDate: testDate(),
		Lines:        []RequisitionLine{{ItemID: 1, Qty: dec("5")}},
	})
	require.NoError(t, err)
	require.Equal(t, "PR-00001", req.Number)
	require.Equal(t, RequisitionPending, req.Status)
	require.Equal(t, "normal", req.Priority)

	approved, err := svc.DecideRequisition(ctx, req.ID, true, 2)
	require.NoError(t, err)
	require.Equal(t, RequisitionApproved, approved.Status)

	// A decided requisition cannot be decided again.
	_, err = svc.DecideRequisition(ctx, req.ID, false, 2)
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCreateRequisitionRejectsEmptyLines(t *testing.T) {
	svc := NewService(newMemoryRepo(), &fakeStock{}, nil)

	_, err := svc.CreateRequisition(context.Background(), CreateRequisitionInput{RequestedBy: 1, RequiredDate: testDate()})
	require.ErrorIs(t, err, ErrEmptyLines)
}

func TestCreateOrderComputesTotalsAndConvertsRequisition(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, &fakeStock{}, nil)
	ctx := context.Background()

	req, err := svc.CreateRequisition(ctx, CreateRequisitionInput{
		RequestedBy:  1,
		RequiredDate: testDate(),
		Lines:        []RequisitionLine{{ItemID: 1, Qty: dec("10")}},
	})
	require.NoError(t, err)
	_, err = svc.DecideRequisition(ctx, req.ID, true, 2)
	require.NoError(t, err)

	order, err := svc.CreateOrder(ctx, CreateOrderInput{
		SupplierID:    7,
		RequisitionID: req.ID,
		ExpectedDate:  testDate(),
		Lines: []OrderLine{
			{ItemID: 1, Qty: dec("10"), UnitPrice: dec("100"), TaxRate: dec("10")},
		},
		ActorID: 2,
	})
	require.NoError(t, err)
	require.Equal(t, "PO-00001", order.Number)
	require.Equal(t, OrderDraft, order.Status)
	require.True(t, order.Subtotal.Equal(dec("1000")))
	require.True(t, order.Tax.Equal(dec("100")))
	require.True(t, order.Total.Equal(dec("1100")))
	require.True(t, order.Lines[0].Total.Equal(dec("1100")))

	converted, err := repo.GetRequisition(ctx, req.ID)
	require.NoError(t, err)
	require.Equal(t, RequisitionConverted, converted.Status)
}

func TestCreateOrderRequiresApprovedRequisition(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, &fakeStock{}, nil)
	ctx := context.Background()

	req, err := svc.CreateRequisition(ctx, CreateRequisitionInput{
		RequestedBy:  1,
		RequiredDate: testDate(),
		Lines:        []RequisitionLine{{ItemID: 1, Qty: dec("1")}},
	})
	require.NoError(t, err)

	_, err = svc.CreateOrder(ctx, CreateOrderInput{
		SupplierID:    7,
		RequisitionID: req.ID,
		ExpectedDate:  testDate(),
		Lines:         []OrderLine{{ItemID: 1, Qty: dec("1"), UnitPrice: dec("10")}},
	})
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestReceiveOrderPostsStockPerLine(t *testing.T) {
	repo := newMemoryRepo()
	stock := &fakeStock{}
	svc := NewService(repo, stock, nil)
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, CreateOrderInput{
		SupplierID:   7,
		ExpectedDate: testDate(),
		Lines: []OrderLine{
			{ItemID: 1, Qty: dec("10"), UnitPrice: dec("100")},
			{ItemID: 2, Qty: dec("4"), UnitPrice: dec("25")},
		},
	})
	require.NoError(t, err)

	// Receiving a draft order is rejected.
	_, err = svc.ReceiveOrder(ctx, order.ID, 1, 9)
	require.ErrorIs(t, err, ErrInvalidTransition)

	require.NoError(t, svc.SendOrder(ctx, order.ID, 9))

	received, err := svc.ReceiveOrder(ctx, order.ID, 1, 9)
	require.NoError(t, err)
	require.Equal(t, OrderReceived, received.Status)
	require.Len(t, stock.receipts, 2)
	require.Equal(t, "purchase_order", stock.receipts[0].RefType)
	require.True(t, stock.receipts[0].UnitCost.Equal(dec("100")))
}

func TestLCWorkflowAndLandedCosts(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, &fakeStock{}, nil)
	ctx := context.Background()

	lc, err := svc.CreateLC(ctx, CreateLCInput{
		Number:       "LC-2026-001",
		SupplierID:   7,
		Bank:         "First National",
		OpeningDate:  testDate(),
		ShipmentDate: testDate().AddDate(0, 1, 0),
		ExpiryDate:   testDate().AddDate(0, 3, 0),
		TotalValue:   dec("10000"),
		Currency:     "USD",
		ExchangeRate: dec("110"),
	})
	require.NoError(t, err)
	require.Equal(t, LCOpen, lc.Status)

	withCost, err := svc.AddLCCost(ctx, lc.ID, LCCost{CostType: "freight", Amount: dec("500"), Currency: "BDT", ExchangeRate: dec("1")})
	require.NoError(t, err)
	// 10000 * 110 + 500 * 1
	require.True(t, withCost.LandedTotal.Equal(dec("1100500")), "landed %s", withCost.LandedTotal)

	shipped, err := svc.AdvanceLC(ctx, lc.ID, 1)
	require.NoError(t, err)
	require.Equal(t, LCShipped, shipped.Status)

	completed, err := svc.AdvanceLC(ctx, lc.ID, 1)
	require.NoError(t, err)
	require.Equal(t, LCCompleted, completed.Status)

	_, err = svc.AdvanceLC(ctx, lc.ID, 1)
	require.ErrorIs(t, err, ErrInvalidTransition)

	// Completed LCs take no further costs.
	_, err = svc.AddLCCost(ctx, lc.ID, LCCost{CostType: "insurance", Amount: dec("100")})
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCreateBillValidation(t *testing.T) {
	svc := NewService(newMemoryRepo(), &fakeStock{}, nil)
	ctx := context.Background()

	_, err := svc.CreateBill(ctx, CreateBillInput{SupplierID: 7, BillDate: testDate(), DueDate: testDate().AddDate(0, 0, -1), Total: dec("100")})
	require.ErrorIs(t, err, ErrValidation)

	bill, err := svc.CreateBill(ctx, CreateBillInput{SupplierID: 7, BillDate: testDate(), DueDate: testDate().AddDate(0, 0, 30), Total: dec("100")})
	require.NoError(t, err)
	require.Equal(t, BillPending, bill.Status)
	require.Equal(t, "BILL-00001", bill.Number)
}
