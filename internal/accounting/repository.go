package accounting

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Repository persists the chart of accounts, vouchers and payments.
type Repository interface {
	CreateAccount(ctx context.Context, account Account) (Account, error)
	ListAccounts(ctx context.Context, activeOnly bool) ([]Account, error)
	GetAccount(ctx context.Context, id int64) (Account, error)
	UpdateAccount(ctx context.Context, account Account) (Account, error)
	DeleteAccount(ctx context.Context, id int64) error

	CreateVoucher(ctx context.Context, v Voucher) (Voucher, error)
	ListVouchers(ctx context.Context, status, voucherType string, page, limit int) ([]Voucher, int, error)
	GetVoucher(ctx context.Context, id int64) (Voucher, error)
	SetVoucherStatus(ctx context.Context, id int64, status string) error

	ApplyPayment(ctx context.Context, p Payment) (Payment, error)
	ListPayments(ctx context.Context, direction string, page, limit int) ([]Payment, int, error)
	GetPayment(ctx context.Context, id int64) (Payment, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the PostgreSQL-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const accountColumns = `id, code, name, type, COALESCE(parent_id, 0), is_active, created_at, updated_at`

func (r *repository) CreateAccount(ctx context.Context, account Account) (Account, error) {
	now := time.Now()
	err := r.pool.QueryRow(ctx,
		`INSERT INTO chart_of_accounts (code, name, type, parent_id, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
		account.Code, account.Name, account.Type, nullableID(account.ParentID), account.IsActive, now, now).
		Scan(&account.ID)
	if err != nil {
		return Account{}, translateDBError(err)
	}
	account.CreatedAt = now
	account.UpdatedAt = now
	return account, nil
}

func (r *repository) ListAccounts(ctx context.Context, activeOnly bool) ([]Account, error) {
	query := `SELECT ` + accountColumns + ` FROM chart_of_accounts`
	if activeOnly {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY code`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []Account
	for rows.Next() {
		var a Account
		if err := rows.Scan(&a.ID, &a.Code, &a.Name, &a.Type, &a.ParentID, &a.IsActive, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

func (r *repository) GetAccount(ctx context.Context, id int64) (Account, error) {
	var a Account
	err := r.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM chart_of_accounts WHERE id = $1`, id).
		Scan(&a.ID, &a.Code, &a.Name, &a.Type, &a.ParentID, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Account{}, ErrNotFound
	}
	if err != nil {
		return Account{}, err
	}
	return a, nil
}

func (r *repository) UpdateAccount(ctx context.Context, account Account) (Account, error) {
	now := time.Now()
	tag, err := r.pool.Exec(ctx,
		`UPDATE chart_of_accounts SET name = $1, parent_id = $2, is_active = $3, updated_at = $4 WHERE id = $5`,
		account.Name, nullableID(account.ParentID), account.IsActive, now, account.ID)
	if err != nil {
		return Account{}, translateDBError(err)
	}
	if tag.RowsAffected() == 0 {
		return Account{}, ErrNotFound
	}
	account.UpdatedAt = now
	return account, nil
}

func (r *repository) DeleteAccount(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM chart_of_accounts WHERE id = $1`, id)
	if err != nil {
		return translateDBError(err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) CreateVoucher(ctx context.Context, v Voucher) (Voucher, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Voucher{}, err
	}
	defer tx.Rollback(ctx)

	number, err := shared.NextDocumentNumber(ctx, tx, voucherPrefix(v.Type))
	if err != nil {
		return Voucher{}, err
	}
	now := time.Now()
	var id int64
	err = tx.QueryRow(ctx,
		`INSERT INTO vouchers (number, type, date, narrative, status, total, created_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`,
		number, v.Type, v.Date, v.Narrative, v.Status, v.Total, v.CreatedBy, now, now).Scan(&id)
	if err != nil {
		return Voucher{}, err
	}
	for i := range v.Lines {
		err = tx.QueryRow(ctx,
			`INSERT INTO voucher_lines (voucher_id, account_id, debit, credit, narration)
			 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
			id, v.Lines[i].AccountID, v.Lines[i].Debit, v.Lines[i].Credit, v.Lines[i].Narration).Scan(&v.Lines[i].ID)
		if err != nil {
			return Voucher{}, translateDBError(err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return Voucher{}, err
	}
	v.ID = id
	v.Number = number
	v.CreatedAt = now
	v.UpdatedAt = now
	return v, nil
}

func (r *repository) ListVouchers(ctx context.Context, status, voucherType string, page, limit int) ([]Voucher, int, error) {
	query := `SELECT id, number, type, date, narrative, status, total, created_by, created_at, updated_at
		FROM vouchers WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM vouchers WHERE 1=1`
	args := []any{}
	argCount := 0
	if status != "" {
		argCount++
		clause := ` AND status = $` + strconv.Itoa(argCount)
		query += clause
		countQuery += clause
		args = append(args, status)
	}
	if voucherType != "" {
		argCount++
		clause := ` AND type = $` + strconv.Itoa(argCount)
		query += clause
		countQuery += clause
		args = append(args, voucherType)
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += pageClause("created_at", &argCount, &args, page, limit)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var vouchers []Voucher
	for rows.Next() {
		var v Voucher
		if err := rows.Scan(&v.ID, &v.Number, &v.Type, &v.Date, &v.Narrative, &v.Status, &v.Total,
			&v.CreatedBy, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, 0, err
		}
		vouchers = append(vouchers, v)
	}
	return vouchers, total, rows.Err()
}

func (r *repository) GetVoucher(ctx context.Context, id int64) (Voucher, error) {
	var v Voucher
	err := r.pool.QueryRow(ctx,
		`SELECT id, number, type, date, narrative, status, total, created_by, created_at, updated_at
		 FROM vouchers WHERE id = $1`, id).
		Scan(&v.ID, &v.Number, &v.Type, &v.Date, &v.Narrative, &v.Status, &v.Total,
			&v.CreatedBy, &v.CreatedAt, &v.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Voucher{}, ErrNotFound
	}
	if err != nil {
		return Voucher{}, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT l.id, l.account_id, a.name, l.debit, l.credit, l.narration
		 FROM voucher_lines l JOIN chart_of_accounts a ON a.id = l.account_id
		 WHERE l.voucher_id = $1 ORDER BY l.id`, id)
	if err != nil {
		return Voucher{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var line VoucherLine
		if err := rows.Scan(&line.ID, &line.AccountID, &line.AccountName, &line.Debit, &line.Credit, &line.Narration); err != nil {
			return Voucher{}, err
		}
		v.Lines = append(v.Lines, line)
	}
	return v, rows.Err()
}

func (r *repository) SetVoucherStatus(ctx context.Context, id int64, status string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE vouchers SET status = $1, updated_at = $2 WHERE id = $3`, status, time.Now(), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ApplyPayment locks the target document, advances its paid amount and
// status, adjusts the party balance and records the payment, all in one
// transaction.
func (r *repository) ApplyPayment(ctx context.Context, p Payment) (Payment, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return Payment{}, err
	}
	defer tx.Rollback(ctx)

	var (
		docTable, partyTable, partyColumn, prefix string
	)
	switch p.Direction {
	case PaymentIncoming:
		docTable, partyTable, partyColumn, prefix = "sales_invoices", "customers", "customer_id", "RCV"
	case PaymentOutgoing:
		docTable, partyTable, partyColumn, prefix = "supplier_bills", "suppliers", "supplier_id", "PAY"
	default:
		return Payment{}, fmt.Errorf("%w: direction must be incoming or outgoing", ErrValidation)
	}

	var (
		docNumber   string
		partyID     int64
		total, paid decimal.Decimal
	)
	err = tx.QueryRow(ctx,
		`SELECT number, `+partyColumn+`, total, paid FROM `+docTable+` WHERE id = $1 FOR UPDATE`, p.DocumentID).
		Scan(&docNumber, &partyID, &total, &paid)
	if errors.Is(err, pgx.ErrNoRows) {
		return Payment{}, ErrNotFound
	}
	if err != nil {
		return Payment{}, err
	}

	newPaid := paid.Add(p.Amount)
	if newPaid.GreaterThan(total) {
		return Payment{}, ErrOverpayment
	}
	status := "partial"
	if newPaid.GreaterThanOrEqual(total) {
		status = "paid"
	}

	now := time.Now()
	if _, err := tx.Exec(ctx,
		`UPDATE `+docTable+` SET paid = $1, status = $2, updated_at = $3 WHERE id = $4`,
		newPaid, status, now, p.DocumentID); err != nil {
		return Payment{}, err
	}
	if _, err := tx.Exec(ctx,
		`UPDATE `+partyTable+` SET balance = balance - $1, updated_at = $2 WHERE id = $3`,
		p.Amount, now, partyID); err != nil {
		return Payment{}, err
	}

	number, err := shared.NextDocumentNumber(ctx, tx, prefix)
	if err != nil {
		return Payment{}, err
	}
	err = tx.QueryRow(ctx,
		`INSERT INTO payments (number, direction, party_id, document_id, payment_date, amount, mode, reference, note, created_by, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11) RETURNING id`,
		number, p.Direction, partyID, p.DocumentID, p.PaymentDate, p.Amount, p.Mode, p.Reference,
		p.Note, p.CreatedBy, now).Scan(&p.ID)
	if err != nil {
		return Payment{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Payment{}, err
	}
	p.Number = number
	p.PartyID = partyID
	p.DocumentNo = docNumber
	p.CreatedAt = now
	return p, nil
}

func (r *repository) ListPayments(ctx context.Context, direction string, page, limit int) ([]Payment, int, error) {
	query := `SELECT id, number, direction, party_id, document_id, payment_date, amount, mode, reference, note, created_by, created_at
		FROM payments WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM payments WHERE 1=1`
	args := []any{}
	argCount := 0
	if direction != "" {
		argCount++
		clause := ` AND direction = $` + strconv.Itoa(argCount)
		query += clause
		countQuery += clause
		args = append(args, direction)
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += pageClause("created_at", &argCount, &args, page, limit)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var payments []Payment
	for rows.Next() {
		var p Payment
		if err := rows.Scan(&p.ID, &p.Number, &p.Direction, &p.PartyID, &p.DocumentID, &p.PaymentDate,
			&p.Amount, &p.Mode, &p.Reference, &p.Note, &p.CreatedBy, &p.CreatedAt); err != nil {
			return nil, 0, err
		}
		payments = append(payments, p)
	}
	return payments, total, rows.Err()
}

func (r *repository) GetPayment(ctx context.Context, id int64) (Payment, error) {
	var p Payment
	err := r.pool.QueryRow(ctx,
		`SELECT id, number, direction, party_id, document_id, payment_date, amount, mode, reference, note, created_by, created_at
		 FROM payments WHERE id = $1`, id).
		Scan(&p.ID, &p.Number, &p.Direction, &p.PartyID, &p.DocumentID, &p.PaymentDate,
			&p.Amount, &p.Mode, &p.Reference, &p.Note, &p.CreatedBy, &p.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Payment{}, ErrNotFound
	}
	if err != nil {
		return Payment{}, err
	}
	return p, nil
}

func translateDBError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return fmt.Errorf("%w: duplicate value", ErrValidation)
		case "23503":
			return ErrAccountInUse
		}
	}
	return err
}

func pageClause(orderBy string, argCount *int, args *[]any, page, limit int) string {
	if limit <= 0 {
		limit = 20
	}
	offset := (page - 1) * limit
	if offset < 0 {
		offset = 0
	}
	*argCount++
	clause := ` ORDER BY ` + orderBy + ` DESC LIMIT $` + strconv.Itoa(*argCount)
	*args = append(*args, limit)
	*argCount++
	clause += ` OFFSET $` + strconv.Itoa(*argCount)
	*args = append(*args, offset)
	return clause
}

func nullableID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}
