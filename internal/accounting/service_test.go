package accounting

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type memoryDoc struct {
	number  string
	partyID int64
	total   decimal.Decimal
	paid    decimal.Decimal
	status  string
}

type memoryRepo struct {
	accounts map[int64]Account
	vouchers map[int64]Voucher
	payments map[int64]Payment
	invoices map[int64]*memoryDoc
	bills    map[int64]*memoryDoc
	balances map[int64]decimal.Decimal
	nextID   int64
	seq      map[string]int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		accounts: make(map[int64]Account),
		vouchers: make(map[int64]Voucher),
		payments: make(map[int64]Payment),
		invoices: make(map[int64]*memoryDoc),
		bills:    make(map[int64]*memoryDoc),
		balances: make(map[int64]decimal.Decimal),
		seq:      make(map[string]int64),
	}
}

func (r *memoryRepo) number(prefix string) string {
	r.seq[prefix]++
	return fmt.Sprintf("%s-%05d", prefix, r.seq[prefix])
}

func (r *memoryRepo) CreateAccount(ctx context.Context, account Account) (Account, error) {
	for _, a := range r.accounts {
		if a.Code == account.Code {
			return Account{}, fmt.Errorf("%w: duplicate value", ErrValidation)
		}
	}
	r.nextID++
	account.ID = r.nextID
	r.accounts[account.ID] = account
	return account, nil
}

func (r *memoryRepo) ListAccounts(ctx context.Context, activeOnly bool) ([]Account, error) {
	var out []Account
	for i := int64(1); i <= r.nextID; i++ {
		a, ok := r.accounts[i]
		if !ok {
			continue
		}
		if activeOnly && !a.IsActive {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (r *memoryRepo) GetAccount(ctx context.Context, id int64) (Account, error) {
	a, ok := r.accounts[id]
	if !ok {
		return Account{}, ErrNotFound
	}
	return a, nil
}

func (r *memoryRepo) UpdateAccount(ctx context.Context, account Account) (Account, error) {
	if _, ok := r.accounts[account.ID]; !ok {
		return Account{}, ErrNotFound
	}
	r.accounts[account.ID] = account
	return account, nil
}

func (r *memoryRepo) DeleteAccount(ctx context.Context, id int64) error {
	if _, ok := r.accounts[id]; !ok {
		return ErrNotFound
	}
	for _, v := range r.vouchers {
		for _, line := range v.Lines {
			if line.AccountID == id {
				return ErrAccountInUse
			}
		}
	}
	delete(r.accounts, id)
	return nil
}

func (r *memoryRepo) CreateVoucher(ctx context.Context, v Voucher) (Voucher, error) {
	r.nextID++
	v.ID = r.nextID
	v.Number = r.number(voucherPrefix(v.Type))
	r.vouchers[v.ID] = v
	return v, nil
}

func (r *memoryRepo) ListVouchers(ctx context.Context, status, voucherType string, page, limit int) ([]Voucher, int, error) {
	var out []Voucher
	for _, v := range r.vouchers {
		out = append(out, v)
	}
	return out, len(out), nil
}

func (r *memoryRepo) GetVoucher(ctx context.Context, id int64) (Voucher, error) {
	v, ok := r.vouchers[id]
	if !ok {
		return Voucher{}, ErrNotFound
	}
	return v, nil
}

func (r *memoryRepo) SetVoucherStatus(ctx context.Context, id int64, status string) error {
	v, ok := r.vouchers[id]
	if !ok {
		return ErrNotFound
	}
	v.Status = status
	r.vouchers[id] = v
	return nil
}

func (r *memoryRepo) ApplyPayment(ctx context.Context, p Payment) (Payment, error) {
	docs := r.invoices
	prefix := "RCV"
	if p.Direction == PaymentOutgoing {
		docs = r.bills
		prefix = "PAY"
	}
	doc, ok := docs[p.DocumentID]
	if !ok {
		return Payment{}, ErrNotFound
	}
	newPaid := doc.paid.Add(p.Amount)
	if newPaid.GreaterThan(doc.total) {
		return Payment{}, ErrOverpayment
	}
	doc.paid = newPaid
	doc.status = "partial"
	if newPaid.GreaterThanOrEqual(doc.total) {
		doc.status = "paid"
	}
	r.balances[doc.partyID] = r.balances[doc.partyID].Sub(p.Amount)

	r.nextID++
	p.ID = r.nextID
	p.Number = r.number(prefix)
	p.PartyID = doc.partyID
	p.DocumentNo = doc.number
	r.payments[p.ID] = p
	return p, nil
}

func (r *memoryRepo) ListPayments(ctx context.Context, direction string, page, limit int) ([]Payment, int, error) {
	var out []Payment
	for _, p := range r.payments {
		out = append(out, p)
	}
	return out, len(out), nil
}

func (r *memoryRepo) GetPayment(ctx context.Context, id int64) (Payment, error) {
	p, ok := r.payments[id]
	if !ok {
		return Payment{}, ErrNotFound
	}
	return p, nil
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func testDate() time.Time {
	return time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
}

func TestCreateAccountValidation(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	_, err := svc.CreateAccount(ctx, Account{Code: "1000", Name: "Assets", Type: "bogus", IsActive: true})
	require.ErrorIs(t, err, ErrValidation)

	parent, err := svc.CreateAccount(ctx, Account{Code: "1000", Name: "Assets", Type: AccountAsset, IsActive: true})
	require.NoError(t, err)

	// Child must share the parent's type.
	_, err = svc.CreateAccount(ctx, Account{Code: "4000", Name: "Revenue", Type: AccountIncome, ParentID: parent.ID, IsActive: true})
	require.ErrorIs(t, err, ErrValidation)

	child, err := svc.CreateAccount(ctx, Account{Code: "1010", Name: "Cash", Type: AccountAsset, ParentID: parent.ID, IsActive: true})
	require.NoError(t, err)
	require.Equal(t, parent.ID, child.ParentID)
}

func TestAccountTree(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	assets, err := svc.CreateAccount(ctx, Account{Code: "1000", Name: "Assets", Type: AccountAsset, IsActive: true})
	require.NoError(t, err)
	_, err = svc.CreateAccount(ctx, Account{Code: "1010", Name: "Cash", Type: AccountAsset, ParentID: assets.ID, IsActive: true})
	require.NoError(t, err)
	_, err = svc.CreateAccount(ctx, Account{Code: "4000", Name: "Revenue", Type: AccountIncome, IsActive: true})
	require.NoError(t, err)

	tree, err := svc.AccountTree(ctx, false)
	require.NoError(t, err)
	require.Len(t, tree, 2)
	require.Equal(t, "1000", tree[0].Code)
	require.Len(t, tree[0].Children, 1)
	require.Equal(t, "1010", tree[0].Children[0].Code)
	require.Empty(t, tree[1].Children)
}

func balancedLines(cashID, revenueID int64) []VoucherLine {
	return []VoucherLine{
		{AccountID: cashID, Debit: dec("500")},
		{AccountID: revenueID, Credit: dec("500")},
	}
}

func TestCreateVoucherDoubleEntry(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	cash, err := svc.CreateAccount(ctx, Account{Code: "1010", Name: "Cash", Type: AccountAsset, IsActive: true})
	require.NoError(t, err)
	revenue, err := svc.CreateAccount(ctx, Account{Code: "4000", Name: "Revenue", Type: AccountIncome, IsActive: true})
	require.NoError(t, err)

	v, err := svc.CreateVoucher(ctx, CreateVoucherInput{
		Type:  VoucherJournal,
		Date:  testDate(),
		Lines: balancedLines(cash.ID, revenue.ID),
	})
	require.NoError(t, err)
	require.Equal(t, "JV-00001", v.Number)
	require.Equal(t, VoucherDraft, v.Status)
	require.True(t, v.Total.Equal(dec("500")))

	// Single line is rejected.
	_, err = svc.CreateVoucher(ctx, CreateVoucherInput{
		Type:  VoucherJournal,
		Date:  testDate(),
		Lines: []VoucherLine{{AccountID: cash.ID, Debit: dec("500")}},
	})
	require.ErrorIs(t, err, ErrValidation)

	// Unbalanced lines are rejected.
	_, err = svc.CreateVoucher(ctx, CreateVoucherInput{
		Type: VoucherJournal,
		Date: testDate(),
		Lines: []VoucherLine{
			{AccountID: cash.ID, Debit: dec("500")},
			{AccountID: revenue.ID, Credit: dec("300")},
		},
	})
	require.ErrorIs(t, err, ErrUnbalanced)

	// A line with both debit and credit is rejected.
	_, err = svc.CreateVoucher(ctx, CreateVoucherInput{
		Type: VoucherJournal,
		Date: testDate(),
		Lines: []VoucherLine{
			{AccountID: cash.ID, Debit: dec("500"), Credit: dec("500")},
			{AccountID: revenue.ID, Credit: dec("500")},
		},
	})
	require.ErrorIs(t, err, ErrValidation)
}

func TestVoucherPrefixesByType(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	cash, _ := svc.CreateAccount(ctx, Account{Code: "1010", Name: "Cash", Type: AccountAsset, IsActive: true})
	bank, _ := svc.CreateAccount(ctx, Account{Code: "1020", Name: "Bank", Type: AccountAsset, IsActive: true})

	for voucherType, prefix := range map[string]string{
		VoucherJournal: "JV",
		VoucherPayment: "PV",
		VoucherReceipt: "RV",
		VoucherContra:  "CV",
	} {
		v, err := svc.CreateVoucher(ctx, CreateVoucherInput{
			Type:  voucherType,
			Date:  testDate(),
			Lines: balancedLines(cash.ID, bank.ID),
		})
		require.NoError(t, err)
		require.Equal(t, prefix+"-00001", v.Number)
	}
}

func TestVoucherWorkflow(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	cash, _ := svc.CreateAccount(ctx, Account{Code: "1010", Name: "Cash", Type: AccountAsset, IsActive: true})
	revenue, _ := svc.CreateAccount(ctx, Account{Code: "4000", Name: "Revenue", Type: AccountIncome, IsActive: true})

	v, err := svc.CreateVoucher(ctx, CreateVoucherInput{
		Type:  VoucherJournal,
		Date:  testDate(),
		Lines: balancedLines(cash.ID, revenue.ID),
	})
	require.NoError(t, err)

	// Approving a draft is rejected, it must be posted first.
	require.ErrorIs(t, svc.ApproveVoucher(ctx, v.ID, 9), ErrInvalidTransition)

	require.NoError(t, svc.PostVoucher(ctx, v.ID, 9))
	require.ErrorIs(t, svc.PostVoucher(ctx, v.ID, 9), ErrInvalidTransition)
	require.NoError(t, svc.ApproveVoucher(ctx, v.ID, 9))
}

func TestCreatePaymentAppliesToInvoice(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	repo.invoices[1] = &memoryDoc{number: "INV-00001", partyID: 3, total: dec("1000"), status: "unpaid"}
	repo.balances[3] = dec("1000")

	p, err := svc.CreatePayment(ctx, CreatePaymentInput{
		Direction:   PaymentIncoming,
		DocumentID:  1,
		PaymentDate: testDate(),
		Amount:      dec("400"),
		Mode:        "bank",
	})
	require.NoError(t, err)
	require.Equal(t, "RCV-00001", p.Number)
	require.Equal(t, int64(3), p.PartyID)
	require.Equal(t, "INV-00001", p.DocumentNo)
	require.Equal(t, "partial", repo.invoices[1].status)
	require.True(t, repo.balances[3].Equal(dec("600")))

	_, err = svc.CreatePayment(ctx, CreatePaymentInput{
		Direction:   PaymentIncoming,
		DocumentID:  1,
		PaymentDate: testDate(),
		Amount:      dec("600"),
		Mode:        "bank",
	})
	require.NoError(t, err)
	require.Equal(t, "paid", repo.invoices[1].status)
	require.True(t, repo.balances[3].IsZero())

	// The invoice is settled, further payments overpay.
	_, err = svc.CreatePayment(ctx, CreatePaymentInput{
		Direction:   PaymentIncoming,
		DocumentID:  1,
		PaymentDate: testDate(),
		Amount:      dec("1"),
		Mode:        "bank",
	})
	require.ErrorIs(t, err, ErrOverpayment)
}

func TestCreatePaymentOutgoing(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	repo.bills[7] = &memoryDoc{number: "BILL-00004", partyID: 5, total: dec("250"), status: "pending"}
	repo.balances[5] = dec("250")

	p, err := svc.CreatePayment(ctx, CreatePaymentInput{
		Direction:   PaymentOutgoing,
		DocumentID:  7,
		PaymentDate: testDate(),
		Amount:      dec("250"),
		Mode:        "cheque",
		Reference:   "CHQ-9921",
	})
	require.NoError(t, err)
	require.Equal(t, "PAY-00001", p.Number)
	require.Equal(t, "paid", repo.bills[7].status)
	require.True(t, repo.balances[5].IsZero())
}

func TestCreatePaymentValidation(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)
	ctx := context.Background()

	_, err := svc.CreatePayment(ctx, CreatePaymentInput{Direction: "sideways", DocumentID: 1, Amount: dec("10"), Mode: "cash"})
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.CreatePayment(ctx, CreatePaymentInput{Direction: PaymentIncoming, DocumentID: 1, Amount: dec("0"), Mode: "cash"})
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.CreatePayment(ctx, CreatePaymentInput{Direction: PaymentIncoming, DocumentID: 1, Amount: dec("10")})
	require.ErrorIs(t, err, ErrValidation)
}
