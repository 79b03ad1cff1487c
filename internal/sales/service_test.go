package sales

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
	quotations map[int64]Quotation
	orders     map[int64]Order
	challans   map[int64]Challan
	invoices   map[int64]Invoice
	nextID     int64
	seq        map[string]int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		quotations: make(map[int64]Quotation),
		orders:     make(map[int64]Order),
		challans:   make(map[int64]Challan),
		invoices:   make(map[int64]Invoice),
		seq:        make(map[string]int64),
	}
}

func (r *memoryRepo) number(prefix string) string {
	r.seq[prefix]++
	return fmt.Sprintf("%s-%05d", prefix, r.seq[prefix])
}

func (r *memoryRepo) CreateQuotation(ctx context.Context, q Quotation) (Quotation, error) {
	r.nextID++
	q.ID = r.nextID
	q.Number = r.number("QT")
	r.quotations[q.ID] = q
	return q, nil
}

func (r *memoryRepo) ListQuotations(ctx context.Context, status string, customerID int64, page, limit int) ([]Quotation, int, error) {
	var out []Quotation
	for _, q := range r.quotations {
		out = append(out, q)
	}
	return out, len(out), nil
}

func (r *memoryRepo) GetQuotation(ctx context.Context, id int64) (Quotation, error) {
	q, ok := r.quotations[id]
	if !ok {
		return Quotation{}, ErrNotFound
	}
	return q, nil
}

func (r *memoryRepo) SetQuotationStatus(ctx context.Context, id int64, status string) error {
	q, ok := r.quotations[id]
	if !ok {
		return ErrNotFound
	}
	q.Status = status
	r.quotations[id] = q
	return nil
}

func (r *memoryRepo) CreateOrder(ctx context.Context, order Order) (Order, error) {
	r.nextID++
	order.ID = r.nextID
	order.Number = r.number("SO")
	r.orders[order.ID] = order
	return order, nil
}

func (r *memoryRepo) ListOrders(ctx context.Context, status string, customerID int64, page, limit int) ([]Order, int, error) {
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

func (r *memoryRepo) SetOrderStatus(ctx context.Context, id int64, status string) error {
	o, ok := r.orders[id]
	if !ok {
		return ErrNotFound
	}
	o.Status = status
	r.orders[id] = o
	return nil
}

func (r *memoryRepo) CreateChallan(ctx context.Context, challan Challan, orderStatus string) (Challan, error) {
	order, ok := r.orders[challan.OrderID]
	if !ok {
		return Challan{}, ErrNotFound
	}
	r.nextID++
	challan.ID = r.nextID
	challan.Number = r.number("DC")
	for _, line := range challan.Lines {
		for i := range order.Lines {
			if order.Lines[i].ItemID == line.ItemID {
				order.Lines[i].Delivered = order.Lines[i].Delivered.Add(line.Qty)
			}
		}
	}
	order.Status = orderStatus
	r.orders[challan.OrderID] = order
	r.challans[challan.ID] = challan
	return challan, nil
}

func (r *memoryRepo) ListChallans(ctx context.Context, orderID int64, page, limit int) ([]Challan, int, error) {
	var out []Challan
	for _, c := range r.challans {
		out = append(out, c)
	}
	return out, len(out), nil
}

func (r *memoryRepo) GetChallan(ctx context.Context, id int64) (Challan, error) {
	c, ok := r.challans[id]
	if !ok {
		return Challan{}, ErrNotFound
	}
	return c, nil
}

func (r *memoryRepo) CreateInvoice(ctx context.Context, inv Invoice) (Invoice, error) {
	r.nextID++
	inv.ID = r.nextID
	inv.Number = r.number("INV")
	r.invoices[inv.ID] = inv
	return inv, nil
}

func (r *memoryRepo) ListInvoices(ctx context.Context, status string, customerID int64, page, limit int) ([]Invoice, int, error) {
	var out []Invoice
	for _, v := range r.invoices {
		out = append(out, v)
	}
	return out, len(out), nil
}

func (r *memoryRepo) GetInvoice(ctx context.Context, id int64) (Invoice, error) {
	v, ok := r.invoices[id]
	if !ok {
		return Invoice{}, ErrNotFound
	}
	return v, nil
}

type fakeStock struct {
	issues []inventory.IssueInput
}

func (f *fakeStock) Issue(ctx context.Context, input inventory.IssueInput) (inventory.LedgerEntry, error) {
	f.issues = append(f.issues, input)
	return inventory.LedgerEntry{ItemID: input.ItemID, Qty: input.Qty.Neg()}, nil
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func testDate() time.Time {
	return time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
}

func newTestService(repo *memoryRepo, stock *fakeStock) *Service {
	svc := NewService(repo, stock, nil)
	svc.now = func() time.Time { return testDate() }
	return svc
}

func confirmedOrder(t *testing.T, svc *Service) Order {
	t.Helper()
	order, err := svc.CreateOrder(context.Background(), CreateOrderInput{
		CustomerID:   3,
		OrderDate:    testDate(),
		DeliveryDate: testDate().AddDate(0, 0, 7),
		Lines: []OrderLine{
			{ItemID: 1, Qty: dec("10"), UnitPrice: dec("50")},
			{ItemID: 2, Qty: dec("4"), UnitPrice: dec("25")},
		},
	})
	require.NoError(t, err)
	require.NoError(t, svc.ConfirmOrder(context.Background(), order.ID, 9))
	return order
}

func TestQuotationWorkflow(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, &fakeStock{})
	ctx := context.Background()

	q, err := svc.CreateQuotation(ctx, CreateQuotationInput{
		CustomerID: 3,
		QuoteDate:  testDate(),
		ValidUntil: testDate().AddDate(0, 0, 14),
		Lines: []QuotationLine{
			{ItemID: 1, Qty: dec("10"), UnitPrice: dec("25.50"), Discount: dec("5"), TaxRate: dec("10")},
		},
	})
	require.NoError(t, err)
	require.Equal(t, "QT-00001", q.Number)
	require.Equal(t, QuotationDraft, q.Status)
	// gross 250, tax 25
	require.True(t, q.Subtotal.Equal(dec("250")))
	require.True(t, q.Tax.Equal(dec("25")))
	require.True(t, q.Total.Equal(dec("275")))

	// Accepting a draft is rejected, it must be sent first.
	_, err = svc.DecideQuotation(ctx, q.ID, true, 9)
	require.ErrorIs(t, err, ErrInvalidTransition)

	require.NoError(t, svc.SendQuotation(ctx, q.ID, 9))
	accepted, err := svc.DecideQuotation(ctx, q.ID, true, 9)
	require.NoError(t, err)
	require.Equal(t, QuotationAccepted, accepted.Status)
}

func TestDecideQuotationPastValidityExpires(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, &fakeStock{})
	ctx := context.Background()

	q, err := svc.CreateQuotation(ctx, CreateQuotationInput{
		CustomerID: 3,
		QuoteDate:  testDate().AddDate(0, -1, 0),
		ValidUntil: testDate().AddDate(0, 0, -1),
		Lines:      []QuotationLine{{ItemID: 1, Qty: dec("1"), UnitPrice: dec("10")}},
	})
	require.NoError(t, err)
	require.NoError(t, svc.SendQuotation(ctx, q.ID, 9))

	_, err = svc.DecideQuotation(ctx, q.ID, true, 9)
	require.ErrorIs(t, err, ErrQuotationExpired)

	stored, err := repo.GetQuotation(ctx, q.ID)
	require.NoError(t, err)
	require.Equal(t, QuotationExpired, stored.Status)
}

func TestCreateOrderFromQuotationRequiresAccepted(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, &fakeStock{})
	ctx := context.Background()

	q, err := svc.CreateQuotation(ctx, CreateQuotationInput{
		CustomerID: 3,
		QuoteDate:  testDate(),
		ValidUntil: testDate().AddDate(0, 0, 14),
		Lines:      []QuotationLine{{ItemID: 1, Qty: dec("2"), UnitPrice: dec("10")}},
	})
	require.NoError(t, err)

	_, err = svc.CreateOrder(ctx, CreateOrderInput{
		CustomerID:  3,
		QuotationID: q.ID,
		OrderDate:   testDate(),
		Lines:       []OrderLine{{ItemID: 1, Qty: dec("2"), UnitPrice: dec("10")}},
	})
	require.ErrorIs(t, err, ErrInvalidTransition)

	require.NoError(t, svc.SendQuotation(ctx, q.ID, 9))
	_, err = svc.DecideQuotation(ctx, q.ID, true, 9)
	require.NoError(t, err)

	order, err := svc.CreateOrder(ctx, CreateOrderInput{
		CustomerID:  3,
		QuotationID: q.ID,
		OrderDate:   testDate(),
		Lines:       []OrderLine{{ItemID: 1, Qty: dec("2"), UnitPrice: dec("10")}},
	})
	require.NoError(t, err)
	require.Equal(t, "SO-00001", order.Number)
	require.Equal(t, OrderPending, order.Status)
}

func TestChallanDeliversAndIssuesStock(t *testing.T) {
	repo := newMemoryRepo()
	stock := &fakeStock{}
	svc := newTestService(repo, stock)
	ctx := context.Background()

	order := confirmedOrder(t, svc)

	challan, err := svc.CreateChallan(ctx, CreateChallanInput{
		OrderID:     order.ID,
		LocationID:  5,
		ChallanDate: testDate(),
		Driver:      "Rahim",
		Vehicle:     "DH-1234",
		Lines:       []ChallanLine{{ItemID: 1, Qty: dec("6")}},
	})
	require.NoError(t, err)
	require.Equal(t, "DC-00001", challan.Number)
	require.Len(t, stock.issues, 1)
	require.Equal(t, "delivery_challan", stock.issues[0].RefType)
	require.Equal(t, challan.ID, stock.issues[0].RefID)
	require.True(t, stock.issues[0].Qty.Equal(dec("6")))

	partial, err := svc.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, OrderPartiallyDelivered, partial.Status)

	// Deliver the remainder of both lines.
	_, err = svc.CreateChallan(ctx, CreateChallanInput{
		OrderID:     order.ID,
		LocationID:  5,
		ChallanDate: testDate(),
		Lines:       []ChallanLine{{ItemID: 1, Qty: dec("4")}, {ItemID: 2, Qty: dec("4")}},
	})
	require.NoError(t, err)

	delivered, err := svc.GetOrder(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, OrderDelivered, delivered.Status)

	require.NoError(t, svc.CloseOrder(ctx, order.ID, 9))
}

func TestChallanRejectsOverDelivery(t *testing.T) {
	repo := newMemoryRepo()
	stock := &fakeStock{}
	svc := newTestService(repo, stock)
	ctx := context.Background()

	order := confirmedOrder(t, svc)

	_, err := svc.CreateChallan(ctx, CreateChallanInput{
		OrderID:     order.ID,
		LocationID:  5,
		ChallanDate: testDate(),
		Lines:       []ChallanLine{{ItemID: 1, Qty: dec("11")}},
	})
	require.ErrorIs(t, err, ErrOverDelivery)
	require.Empty(t, stock.issues)
}

func TestChallanRejectsItemNotOnOrder(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, &fakeStock{})

	order := confirmedOrder(t, svc)

	_, err := svc.CreateChallan(context.Background(), CreateChallanInput{
		OrderID:     order.ID,
		LocationID:  5,
		ChallanDate: testDate(),
		Lines:       []ChallanLine{{ItemID: 99, Qty: dec("1")}},
	})
	require.ErrorIs(t, err, ErrValidation)
}

func TestCreateInvoice(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo, &fakeStock{})
	ctx := context.Background()

	inv, err := svc.CreateInvoice(ctx, CreateInvoiceInput{
		CustomerID:  3,
		InvoiceDate: testDate(),
		DueDate:     testDate().AddDate(0, 0, 30),
		Discount:    dec("15"),
		Lines: []InvoiceLine{
			{ItemID: 1, Qty: dec("10"), UnitPrice: dec("20"), TaxRate: dec("5")},
			{ItemID: 2, Qty: dec("2"), UnitPrice: dec("20")},
		},
	})
	require.NoError(t, err)
	require.Equal(t, "INV-00001", inv.Number)
	require.Equal(t, InvoiceUnpaid, inv.Status)
	// subtotal 240, tax 10, net 240 + 10 - 15
	require.True(t, inv.Subtotal.Equal(dec("240")))
	require.True(t, inv.Tax.Equal(dec("10")))
	require.True(t, inv.Total.Equal(dec("235")))
	require.True(t, inv.Paid.IsZero())

	_, err = svc.CreateInvoice(ctx, CreateInvoiceInput{
		CustomerID:  3,
		InvoiceDate: testDate(),
		DueDate:     testDate().AddDate(0, 0, -1),
		Lines:       []InvoiceLine{{ItemID: 1, Qty: dec("1"), UnitPrice: dec("10")}},
	})
	require.ErrorIs(t, err, ErrValidation)
}
