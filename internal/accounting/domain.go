package accounting

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Account types in the chart of accounts.
const (
	AccountAsset     = "asset"
	AccountLiability = "liability"
	AccountEquity    = "equity"
	AccountIncome    = "income"
	AccountExpense   = "expense"
)

// Voucher types and their workflow statuses.
const (
	VoucherJournal = "journal"
	VoucherPayment = "payment"
	VoucherReceipt = "receipt"
	VoucherContra  = "contra"

	VoucherDraft    = "draft"
	VoucherPosted   = "posted"
	VoucherApproved = "approved"
)

// Payment directions.
const (
	PaymentIncoming = "incoming"
	PaymentOutgoing = "outgoing"
)

var (
	ErrNotFound          = errors.New("accounting: not found")
	ErrValidation        = errors.New("accounting: validation failed")
	ErrUnbalanced        = errors.New("accounting: debits and credits do not balance")
	ErrInvalidTransition = errors.New("accounting: invalid status transition")
	ErrAccountInUse      = errors.New("accounting: account is referenced and cannot be deleted")
	ErrOverpayment       = errors.New("accounting: payment exceeds outstanding balance")
)

// Account is a node in the chart of accounts.
type Account struct {
	ID        int64      `json:"id"`
	Code      string     `json:"code"`
	Name      string     `json:"name"`
	Type      string     `json:"type"`
	ParentID  int64      `json:"parentId,omitempty"`
	IsActive  bool       `json:"isActive"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	Children  []*Account `json:"children,omitempty"`
}

// Voucher is a double-entry journal document.
type Voucher struct {
	ID        int64           `json:"id"`
	Number    string          `json:"number"`
	Type      string          `json:"type"`
	Date      time.Time       `json:"date"`
	Narrative string          `json:"narrative,omitempty"`
	Status    string          `json:"status"`
	Total     decimal.Decimal `json:"total"`
	Lines     []VoucherLine   `json:"lines,omitempty"`
	CreatedBy int64           `json:"createdBy"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// VoucherLine debits or credits a single account, never both.
type VoucherLine struct {
	ID          int64           `json:"id"`
	VoucherID   int64           `json:"voucherId"`
	AccountID   int64           `json:"accountId"`
	AccountName string          `json:"accountName,omitempty"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Narration   string          `json:"narration,omitempty"`
}

// Payment settles a sales invoice (incoming) or supplier bill (outgoing).
type Payment struct {
	ID          int64           `json:"id"`
	Number      string          `json:"number"`
	Direction   string          `json:"direction"`
	PartyID     int64           `json:"partyId"`
	PartyName   string          `json:"partyName,omitempty"`
	DocumentID  int64           `json:"documentId"`
	DocumentNo  string          `json:"documentNo,omitempty"`
	PaymentDate time.Time       `json:"paymentDate"`
	Amount      decimal.Decimal `json:"amount"`
	Mode        string          `json:"mode"`
	Reference   string          `json:"reference,omitempty"`
	Note        string          `json:"note,omitempty"`
	CreatedBy   int64           `json:"createdBy"`
	CreatedAt   time.Time       `json:"createdAt"`
}

func validAccountType(t string) bool {
	switch t {
	case AccountAsset, AccountLiability, AccountEquity, AccountIncome, AccountExpense:
		return true
	}
	return false
}

func voucherPrefix(voucherType string) string {
	switch voucherType {
	case VoucherPayment:
		return "PV"
	case VoucherReceipt:
		return "RV"
	case VoucherContra:
		return "CV"
	default:
		return "JV"
	}
}

func validVoucherType(t string) bool {
	switch t {
	case VoucherJournal, VoucherPayment, VoucherReceipt, VoucherContra:
		return true
	}
	return false
}
