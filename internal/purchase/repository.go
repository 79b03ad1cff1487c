package purchase

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Repository persists purchase documents.
type Repository interface {
	CreateRequisition(ctx context.Context, req Requisition) (Requisition, error)
	ListRequisitions(ctx context.Context, status string, page, limit int) ([]Requisition, int, error)
	GetRequisition(ctx context.Context, id int64) (Requisition, error)
	SetRequisitionStatus(ctx context.Context, id int64, status string) error

	CreateOrder(ctx context.Context, order Order) (Order, error)
	ListOrders(ctx context.Context, status string, supplierID int64, page, limit int) ([]Order, int, error)
	GetOrder(ctx context.Context, id int64) (Order, error)
	SetOrderStatus(ctx context.Context, id int64, status string, approvedBy int64) error

	CreateLC(ctx context.Context, lc LetterOfCredit) (LetterOfCredit, error)
	ListLCs(ctx context.Context, status string, page, limit int) ([]LetterOfCredit, int, error)
	GetLC(ctx context.Context, id int64) (LetterOfCredit, error)
	SetLCStatus(ctx context.Context, id int64, status string) error
	AddLCCost(ctx context.Context, cost LCCost) error

	CreateBill(ctx context.Context, bill Bill) (Bill, error)
	ListBills(ctx context.Context, status string, supplierID int64, page, limit int) ([]Bill, int, error)
	GetBill(ctx context.Context, id int64) (Bill, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the PostgreSQL-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) CreateRequisition(ctx context.Context, req Requisition) (Requisition, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Requisition{}, err
	}
	defer tx.Rollback(ctx)

	number, err := shared.NextDocumentNumber(ctx, tx, "PR")
	if err != nil {
		return Requisition{}, err
	}
	now := time.Now()
	var id int64
	err = tx.QueryRow(ctx,
		`INSERT INTO purchase_requisitions (number, requested_by, department_id, required_date, priority, status, note, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`,
		number, req.RequestedBy, nullableID(req.DepartmentID), req.RequiredDate, req.Priority, req.Status, req.Note, now, now).Scan(&id)
	if err != nil {
		return Requisition{}, err
	}
	for i := range req.Lines {
		err = tx.QueryRow(ctx,
			`INSERT INTO purchase_requisition_lines (requisition_id, item_id, qty) VALUES ($1, $2, $3) RETURNING id`,
			id, req.Lines[i].ItemID, req.Lines[i].Qty).Scan(&req.Lines[i].ID)
		if err != nil {
			return Requisition{}, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return Requisition{}, err
	}
	req.ID = id
	req.Number = number
	req.CreatedAt = now
	req.UpdatedAt = now
	return req, nil
}

func (r *repository) ListRequisitions(ctx context.Context, status string, page, limit int) ([]Requisition, int, error) {
	query := `SELECT id, number, requested_by, COALESCE(department_id, 0), required_date, priority, status, note, created_at, updated_at
		FROM purchase_requisitions WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM purchase_requisitions WHERE 1=1`
	args := []any{}
	argCount := 0
	if status != "" {
		argCount++
		clause := ` AND status = $` + strconv.Itoa(argCount)
		query += clause
		countQuery += clause
		args = append(args, status)
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

	var reqs []Requisition
	for rows.Next() {
		var req Requisition
		if err := rows.Scan(&req.ID, &req.Number, &req.RequestedBy, &req.DepartmentID, &req.RequiredDate,
			&req.Priority, &req.Status, &req.Note, &req.CreatedAt, &req.UpdatedAt); err != nil {
			return nil, 0, err
		}
		reqs = append(reqs, req)
	}
	return reqs, total, rows.Err()
}

func (r *repository) GetRequisition(ctx context.Context, id int64) (Requisition, error) {
	var req Requisition
	err := r.pool.QueryRow(ctx,
		`SELECT id, number, requested_by, COALESCE(department_id, 0), required_date, priority, status, note, created_at, updated_at
		 FROM purchase_requisitions WHERE id = $1`, id).
		Scan(&req.ID, &req.Number, &req.RequestedBy, &req.DepartmentID, &req.RequiredDate,
			&req.Priority, &req.Status, &req.Note, &req.CreatedAt, &req.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Requisition{}, ErrNotFound
	}
	if err != nil {
		return Requisition{}, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT l.id, l.item_id, i.name, l.qty FROM purchase_requisition_lines l
		 JOIN items i ON i.id = l.item_id WHERE l.requisition_id = $1 ORDER BY l.id`, id)
	if err != nil {
		return Requisition{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var line RequisitionLine
		if err := rows.Scan(&line.ID, &line.ItemID, &line.ItemName, &line.Qty); err != nil {
			return Requisition{}, err
		}
		req.Lines = append(req.Lines, line)
	}
	return req, rows.Err()
}

func (r *repository) SetRequisitionStatus(ctx context.Context, id int64, status string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE purchase_requisitions SET status = $1, updated_at = $2 WHERE id = $3`, status, time.Now(), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) CreateOrder(ctx context.Context, order Order) (Order, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Order{}, err
	}
	defer tx.Rollback(ctx)

	number, err := shared.NextDocumentNumber(ctx, tx, "PO")
	if err != nil {
		return Order{}, err
	}
	now := time.Now()
	var id int64
	err = tx.QueryRow(ctx,
		`INSERT INTO purchase_orders (number, supplier_id, requisition_id, lc_id, order_type, expected_date, status, subtotal, tax, total, note, created_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14) RETURNING id`,
		number, order.SupplierID, nullableID(order.RequisitionID), nullableID(order.LCID), order.OrderType,
		order.ExpectedDate, order.Status, order.Subtotal, order.Tax, order.Total, order.Note, order.CreatedBy, now, now).Scan(&id)
	if err != nil {
		return Order{}, err
	}
	for i := range order.Lines {
		err = tx.QueryRow(ctx,
			`INSERT INTO purchase_order_lines (order_id, item_id, qty, unit_price, tax_rate, total)
			 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
			id, order.Lines[i].ItemID, order.Lines[i].Qty, order.Lines[i].UnitPrice,
			order.Lines[i].TaxRate, order.Lines[i].Total).Scan(&order.Lines[i].ID)
		if err != nil {
			return Order{}, err
		}
	}
	if order.RequisitionID != 0 {
		if _, err := tx.Exec(ctx,
			`UPDATE purchase_requisitions SET status = $1, updated_at = $2 WHERE id = $3`,
			RequisitionConverted, now, order.RequisitionID); err != nil {
			return Order{}, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return Order{}, err
	}
	order.ID = id
	order.Number = number
	order.CreatedAt = now
	order.UpdatedAt = now
	return order, nil
}

func (r *repository) ListOrders(ctx context.Context, status string, supplierID int64, page, limit int) ([]Order, int, error) {
	query := `SELECT o.id, o.number, o.supplier_id, s.name, COALESCE(o.requisition_id, 0), COALESCE(o.lc_id, 0),
		o.order_type, o.expected_date, o.status, o.subtotal, o.tax, o.total, COALESCE(o.approved_by, 0), o.note,
		o.created_by, o.created_at, o.updated_at
		FROM purchase_orders o JOIN suppliers s ON s.id = o.supplier_id WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM purchase_orders o WHERE 1=1`
	args := []any{}
	argCount := 0
	if status != "" {
		argCount++
		clause := ` AND o.status = $` + strconv.Itoa(argCount)
		query += clause
		countQuery += clause
		args = append(args, status)
	}
	if supplierID > 0 {
		argCount++
		clause := ` AND o.supplier_id = $` + strconv.Itoa(argCount)
		query += clause
		countQuery += clause
		args = append(args, supplierID)
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += pageClause("o.created_at", &argCount, &args, page, limit)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var orders []Order
	for rows.Next() {
		var o Order
		if err := rows.Scan(&o.ID, &o.Number, &o.SupplierID, &o.SupplierName, &o.RequisitionID, &o.LCID,
			&o.OrderType, &o.ExpectedDate, &o.Status, &o.Subtotal, &o.Tax, &o.Total, &o.ApprovedBy, &o.Note,
			&o.CreatedBy, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, 0, err
		}
		orders = append(orders, o)
	}
	return orders, total, rows.Err()
}

func (r *repository) GetOrder(ctx context.Context, id int64) (Order, error) {
	var o Order
	err := r.pool.QueryRow(ctx,
		`SELECT o.id, o.number, o.supplier_id, s.name, COALESCE(o.requisition_id, 0), COALESCE(o.lc_id, 0),
		 o.order_type, o.expected_date, o.status, o.subtotal, o.tax, o.total, COALESCE(o.approved_by, 0), o.note,
		 o.created_by, o.created_at, o.updated_at
		 FROM purchase_orders o JOIN suppliers s ON s.id = o.supplier_id WHERE o.id = $1`, id).
		Scan(&o.ID, &o.Number, &o.SupplierID, &o.SupplierName, &o.RequisitionID, &o.LCID,
			&o.OrderType, &o.ExpectedDate, &o.Status, &o.Subtotal, &o.Tax, &o.Total, &o.ApprovedBy, &o.Note,
			&o.CreatedBy, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrNotFound
	}
	if err != nil {
		return Order{}, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT l.id, l.item_id, i.name, l.qty, l.unit_price, l.tax_rate, l.total
		 FROM purchase_order_lines l JOIN items i ON i.id = l.item_id WHERE l.order_id = $1 ORDER BY l.id`, id)
	if err != nil {
		return Order{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var line OrderLine
		if err := rows.Scan(&line.ID, &line.ItemID, &line.ItemName, &line.Qty, &line.UnitPrice, &line.TaxRate, &line.Total); err != nil {
			return Order{}, err
		}
		o.Lines = append(o.Lines, line)
	}
	return o, rows.Err()
}

func (r *repository) SetOrderStatus(ctx context.Context, id int64, status string, approvedBy int64) error {
	var tag pgconn.CommandTag
	var err error
	if approvedBy != 0 {
		tag, err = r.pool.Exec(ctx,
			`UPDATE purchase_orders SET status = $1, approved_by = $2, updated_at = $3 WHERE id = $4`,
			status, approvedBy, time.Now(), id)
	} else {
		tag, err = r.pool.Exec(ctx,
			`UPDATE purchase_orders SET status = $1, updated_at = $2 WHERE id = $3`,
			status, time.Now(), id)
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) CreateLC(ctx context.Context, lc LetterOfCredit) (LetterOfCredit, error) {
	now := time.Now()
	err := r.pool.QueryRow(ctx,
		`INSERT INTO letters_of_credit (number, supplier_id, bank, opening_date, shipment_date, expiry_date, total_value, currency, exchange_rate, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12) RETURNING id`,
		lc.Number, lc.SupplierID, lc.Bank, lc.OpeningDate, lc.ShipmentDate, lc.ExpiryDate,
		lc.TotalValue, lc.Currency, lc.ExchangeRate, lc.Status, now, now).Scan(&lc.ID)
	if err != nil {
		return LetterOfCredit{}, err
	}
	lc.CreatedAt = now
	lc.UpdatedAt = now
	return lc, nil
}

func (r *repository) ListLCs(ctx context.Context, status string, page, limit int) ([]LetterOfCredit, int, error) {
	query := `SELECT l.id, l.number, l.supplier_id, s.name, l.bank, l.opening_date, l.shipment_date, l.expiry_date,
		l.total_value, l.currency, l.exchange_rate, l.status, l.created_at, l.updated_at
		FROM letters_of_credit l JOIN suppliers s ON s.id = l.supplier_id WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM letters_of_credit l WHERE 1=1`
	args := []any{}
	argCount := 0
	if status != "" {
		argCount++
		clause := ` AND l.status = $` + strconv.Itoa(argCount)
		query += clause
		countQuery += clause
		args = append(args, status)
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += pageClause("l.created_at", &argCount, &args, page, limit)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var lcs []LetterOfCredit
	for rows.Next() {
		var lc LetterOfCredit
		if err := rows.Scan(&lc.ID, &lc.Number, &lc.SupplierID, &lc.SupplierName, &lc.Bank,
			&lc.OpeningDate, &lc.ShipmentDate, &lc.ExpiryDate, &lc.TotalValue, &lc.Currency,
			&lc.ExchangeRate, &lc.Status, &lc.CreatedAt, &lc.UpdatedAt); err != nil {
			return nil, 0, err
		}
		lcs = append(lcs, lc)
	}
	return lcs, total, rows.Err()
}

func (r *repository) GetLC(ctx context.Context, id int64) (LetterOfCredit, error) {
	var lc LetterOfCredit
	err := r.pool.QueryRow(ctx,
		`SELECT l.id, l.number, l.supplier_id, s.name, l.bank, l.opening_date, l.shipment_date, l.expiry_date,
		 l.total_value, l.currency, l.exchange_rate, l.status, l.created_at, l.updated_at
		 FROM letters_of_credit l JOIN suppliers s ON s.id = l.supplier_id WHERE l.id = $1`, id).
		Scan(&lc.ID, &lc.Number, &lc.SupplierID, &lc.SupplierName, &lc.Bank,
			&lc.OpeningDate, &lc.ShipmentDate, &lc.ExpiryDate, &lc.TotalValue, &lc.Currency,
			&lc.ExchangeRate, &lc.Status, &lc.CreatedAt, &lc.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return LetterOfCredit{}, ErrNotFound
	}
	if err != nil {
		return LetterOfCredit{}, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, lc_id, cost_type, amount, currency, exchange_rate, created_at
		 FROM lc_costs WHERE lc_id = $1 ORDER BY id`, id)
	if err != nil {
		return LetterOfCredit{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var cost LCCost
		if err := rows.Scan(&cost.ID, &cost.LCID, &cost.CostType, &cost.Amount, &cost.Currency, &cost.ExchangeRate, &cost.CreatedAt); err != nil {
			return LetterOfCredit{}, err
		}
		lc.Costs = append(lc.Costs, cost)
	}
	return lc, rows.Err()
}

func (r *repository) SetLCStatus(ctx context.Context, id int64, status string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE letters_of_credit SET status = $1, updated_at = $2 WHERE id = $3`, status, time.Now(), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) AddLCCost(ctx context.Context, cost LCCost) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO lc_costs (lc_id, cost_type, amount, currency, exchange_rate, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		cost.LCID, cost.CostType, cost.Amount, cost.Currency, cost.ExchangeRate, time.Now())
	return err
}

// CreateBill inserts the bill and bumps the supplier payable balance in
// one transaction.
func (r *repository) CreateBill(ctx context.Context, bill Bill) (Bill, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Bill{}, err
	}
	defer tx.Rollback(ctx)

	number, err := shared.NextDocumentNumber(ctx, tx, "BILL")
	if err != nil {
		return Bill{}, err
	}
	now := time.Now()
	err = tx.QueryRow(ctx,
		`INSERT INTO supplier_bills (number, supplier_id, order_id, bill_date, due_date, total, paid, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, 0, $7, $8, $9) RETURNING id, paid`,
		number, bill.SupplierID, nullableID(bill.OrderID), bill.BillDate, bill.DueDate, bill.Total, bill.Status, now, now).
		Scan(&bill.ID, &bill.Paid)
	if err != nil {
		return Bill{}, err
	}
	if _, err := tx.Exec(ctx,
		`UPDATE suppliers SET balance = balance + $1, updated_at = $2 WHERE id = $3`,
		bill.Total, now, bill.SupplierID); err != nil {
		return Bill{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Bill{}, err
	}
	bill.Number = number
	bill.CreatedAt = now
	bill.UpdatedAt = now
	return bill, nil
}

func (r *repository) ListBills(ctx context.Context, status string, supplierID int64, page, limit int) ([]Bill, int, error) {
	query := `SELECT b.id, b.number, b.supplier_id, s.name, COALESCE(b.order_id, 0), b.bill_date, b.due_date,
		b.total, b.paid, b.status, b.created_at, b.updated_at
		FROM supplier_bills b JOIN suppliers s ON s.id = b.supplier_id WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM supplier_bills b WHERE 1=1`
	args := []any{}
	argCount := 0
	if status != "" {
		argCount++
		clause := ` AND b.status = $` + strconv.Itoa(argCount)
		query += clause
		countQuery += clause
		args = append(args, status)
	}
	if supplierID > 0 {
		argCount++
		clause := ` AND b.supplier_id = $` + strconv.Itoa(argCount)
		query += clause
		countQuery += clause
		args = append(args, supplierID)
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += pageClause("b.created_at", &argCount, &args, page, limit)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var bills []Bill
	for rows.Next() {
		var b Bill
		if err := rows.Scan(&b.ID, &b.Number, &b.SupplierID, &b.SupplierName, &b.OrderID, &b.BillDate, &b.DueDate,
			&b.Total, &b.Paid, &b.Status, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, 0, err
		}
		bills = append(bills, b)
	}
	return bills, total, rows.Err()
}

func (r *repository) GetBill(ctx context.Context, id int64) (Bill, error) {
	var b Bill
	err := r.pool.QueryRow(ctx,
		`SELECT b.id, b.number, b.supplier_id, s.name, COALESCE(b.order_id, 0), b.bill_date, b.due_date,
		 b.total, b.paid, b.status, b.created_at, b.updated_at
		 FROM supplier_bills b JOIN suppliers s ON s.id = b.supplier_id WHERE b.id = $1`, id).
		Scan(&b.ID, &b.Number, &b.SupplierID, &b.SupplierName, &b.OrderID, &b.BillDate, &b.DueDate,
			&b.Total, &b.Paid, &b.Status, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Bill{}, ErrNotFound
	}
	if err != nil {
		return Bill{}, err
	}
	return b, nil
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
