package accounting

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates the chart of accounts, vouchers and payments.
type Service struct {
	repo  Repository
	audit AuditPort
}

// NewService builds Service. audit may be nil in tests.
func NewService(repo Repository, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit}
}

// CreateAccount adds a node to the chart of accounts.
func (s *Service) CreateAccount(ctx context.Context, account Account) (Account, error) {
	account.Code = strings.TrimSpace(account.Code)
	account.Name = strings.TrimSpace(account.Name)
	if account.Code == "" || account.Name == "" {
		return Account{}, fmt.Errorf("%w: code and name required", ErrValidation)
	}
	if !validAccountType(account.Type) {
		return Account{}, fmt.Errorf("%w: unknown account type %q", ErrValidation, account.Type)
	}
	if account.ParentID != 0 {
		parent, err := s.repo.GetAccount(ctx, account.ParentID)
		if err != nil {
			return Account{}, err
		}
		if parent.Type != account.Type {
			return Account{}, fmt.Errorf("%w: parent account must share the same type", ErrValidation)
		}
	}
	return s.repo.CreateAccount(ctx, account)
}

// UpdateAccount renames or re-parents an account. Code and type are
// immutable once created.
func (s *Service) UpdateAccount(ctx context.Context, id int64, name string, parentID int64, isActive bool) (Account, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Account{}, fmt.Errorf("%w: name required", ErrValidation)
	}
	account, err := s.repo.GetAccount(ctx, id)
	if err != nil {
		return Account{}, err
	}
	if parentID == id {
		return Account{}, fmt.Errorf("%w: account cannot be its own parent", ErrValidation)
	}
	if parentID != 0 {
		parent, err := s.repo.GetAccount(ctx, parentID)
		if err != nil {
			return Account{}, err
		}
		if parent.Type != account.Type {
			return Account{}, fmt.Errorf("%w: parent account must share the same type", ErrValidation)
		}
	}
	account.Name = name
	account.ParentID = parentID
	account.IsActive = isActive
	return s.repo.UpdateAccount(ctx, account)
}

func (s *Service) GetAccount(ctx context.Context, id int64) (Account, error) {
	return s.repo.GetAccount(ctx, id)
}

func (s *Service) ListAccounts(ctx context.Context, activeOnly bool) ([]Account, error) {
	return s.repo.ListAccounts(ctx, activeOnly)
}

// AccountTree returns root accounts with children nested by parent.
func (s *Service) AccountTree(ctx context.Context, activeOnly bool) ([]*Account, error) {
	accounts, err := s.repo.ListAccounts(ctx, activeOnly)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]*Account, len(accounts))
	for i := range accounts {
		byID[accounts[i].ID] = &accounts[i]
	}
	var roots []*Account
	for i := range accounts {
		node := &accounts[i]
		if parent, ok := byID[node.ParentID]; ok && node.ParentID != 0 {
			parent.Children = append(parent.Children, node)
			continue
		}
		roots = append(roots, node)
	}
	return roots, nil
}

// DeleteAccount removes an unreferenced account.
func (s *Service) DeleteAccount(ctx context.Context, id int64) error {
	return s.repo.DeleteAccount(ctx, id)
}

// CreateVoucherInput carries a new double-entry voucher.
type CreateVoucherInput struct {
	Type      string
	Date      time.Time
	Narrative string
	Lines     []VoucherLine
	ActorID   int64
}

// CreateVoucher validates double-entry balance and stores the voucher
// as a draft. Voucher total is the debit total.
func (s *Service) CreateVoucher(ctx context.Context, input CreateVoucherInput) (Voucher, error) {
	if !validVoucherType(input.Type) {
		return Voucher{}, fmt.Errorf("%w: unknown voucher type %q", ErrValidation, input.Type)
	}
	if len(input.Lines) < 2 {
		return Voucher{}, fmt.Errorf("%w: voucher needs at least two lines", ErrValidation)
	}
	debits, credits := decimal.Zero, decimal.Zero
	for i, line := range input.Lines {
		if line.AccountID == 0 {
			return Voucher{}, fmt.Errorf("%w: line %d missing account", ErrValidation, i+1)
		}
		hasDebit := line.Debit.IsPositive()
		hasCredit := line.Credit.IsPositive()
		if hasDebit == hasCredit {
			return Voucher{}, fmt.Errorf("%w: line %d must carry exactly one of debit or credit", ErrValidation, i+1)
		}
		if line.Debit.IsNegative() || line.Credit.IsNegative() {
			return Voucher{}, fmt.Errorf("%w: line %d has a negative amount", ErrValidation, i+1)
		}
		debits = debits.Add(line.Debit)
		credits = credits.Add(line.Credit)
	}
	if !debits.Equal(credits) {
		return Voucher{}, ErrUnbalanced
	}

	v := Voucher{
		Type:      input.Type,
		Date:      input.Date,
		Narrative: input.Narrative,
		Status:    VoucherDraft,
		Total:     debits,
		Lines:     input.Lines,
		CreatedBy: input.ActorID,
	}
	created, err := s.repo.CreateVoucher(ctx, v)
	if err != nil {
		return Voucher{}, err
	}
	s.recordAudit(ctx, input.ActorID, "accounting:voucher_created", "voucher", created.Number)
	return created, nil
}

func (s *Service) ListVouchers(ctx context.Context, status, voucherType string, page, limit int) ([]Voucher, int, error) {
	return s.repo.ListVouchers(ctx, status, voucherType, page, limit)
}

func (s *Service) GetVoucher(ctx context.Context, id int64) (Voucher, error) {
	return s.repo.GetVoucher(ctx, id)
}

// PostVoucher moves a draft voucher to posted.
func (s *Service) PostVoucher(ctx context.Context, id int64, actorID int64) error {
	return s.transitionVoucher(ctx, id, VoucherDraft, VoucherPosted, actorID)
}

// ApproveVoucher moves a posted voucher to approved.
func (s *Service) ApproveVoucher(ctx context.Context, id int64, actorID int64) error {
	return s.transitionVoucher(ctx, id, VoucherPosted, VoucherApproved, actorID)
}

func (s *Service) transitionVoucher(ctx context.Context, id int64, from, to string, actorID int64) error {
	v, err := s.repo.GetVoucher(ctx, id)
	if err != nil {
		return err
	}
	if v.Status != from {
		return ErrInvalidTransition
	}
	if err := s.repo.SetVoucherStatus(ctx, id, to); err != nil {
		return err
	}
	s.recordAudit(ctx, actorID, "accounting:voucher_"+to, "voucher", v.Number)
	return nil
}

// CreatePaymentInput carries a payment against an invoice or bill.
type CreatePaymentInput struct {
	Direction   string
	DocumentID  int64
	PaymentDate time.Time
	Amount      decimal.Decimal
	Mode        string
	Reference   string
	Note        string
	ActorID     int64
}

// CreatePayment applies the payment to its document and the party
// balance in one transaction.
func (s *Service) CreatePayment(ctx context.Context, input CreatePaymentInput) (Payment, error) {
	if input.Direction != PaymentIncoming && input.Direction != PaymentOutgoing {
		return Payment{}, fmt.Errorf("%w: direction must be incoming or outgoing", ErrValidation)
	}
	if input.DocumentID == 0 {
		return Payment{}, fmt.Errorf("%w: document required", ErrValidation)
	}
	if !input.Amount.IsPositive() {
		return Payment{}, fmt.Errorf("%w: amount must be positive", ErrValidation)
	}
	if input.Mode == "" {
		return Payment{}, fmt.Errorf("%w: payment mode required", ErrValidation)
	}
	p := Payment{
		Direction:   input.Direction,
		DocumentID:  input.DocumentID,
		PaymentDate: input.PaymentDate,
		Amount:      input.Amount,
		Mode:        input.Mode,
		Reference:   input.Reference,
		Note:        input.Note,
		CreatedBy:   input.ActorID,
	}
	applied, err := s.repo.ApplyPayment(ctx, p)
	if err != nil {
		return Payment{}, err
	}
	s.recordAudit(ctx, input.ActorID, "accounting:payment_applied", "payment", applied.Number)
	return applied, nil
}

func (s *Service) ListPayments(ctx context.Context, direction string, page, limit int) ([]Payment, int, error) {
	return s.repo.ListPayments(ctx, direction, page, limit)
}

func (s *Service) GetPayment(ctx context.Context, id int64) (Payment, error) {
	return s.repo.GetPayment(ctx, id)
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
