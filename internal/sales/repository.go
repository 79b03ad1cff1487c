package sales

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Repository persists sales documents.
type Repository interface {
	CreateQuotation(ctx context.Context, q Quotation) (Quotation, error)
	ListQuotations(ctx context.Context, status string, customerID int64, page, limit int) ([]Quotation, int, error)
	GetQuotation(ctx context.Context, id int64) (Quotation, error)
	SetQuotationStatus(ctx context.Context, id int64, status string) error

	CreateOrder(ctx context.Context, order Order) (Order, error)
	ListOrders(ctx context.Context, status string, customerID int64, page, limit int) ([]Order, int, error)
	GetOrder(ctx context.Context, id int64) (Order, error)
	SetOrderStatus(ctx context.Context, id int64, status string) error

	CreateChallan(ctx context.Context, challan Challan, orderStatus string) (Challan, error)
	ListChallans(ctx context.Context, orderID int64, page, limit int) ([]Challan, int, error)
	GetChallan(ctx context.Context, id int64) (Challan, error)

	CreateInvoice(ctx context.Context, inv Invoice) (Invoice, error)
	ListInvoices(ctx context.Context, status string, customerID int64, page, limit int) ([]Invoice, int, error)
	GetInvoice(ctx context.Context, id int64) (Invoice, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the PostgreSQL-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) CreateQuotation(ctx context.Context, q Quotation) (Quotation, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Quotation{}, err
	}
	defer tx.Rollback(ctx)

	number, err := shared.NextDocumentNumber(ctx, tx, "QT")
	if err != nil {
		return Quotation{}, err
	}
	now := time.Now()
	var id int64
	err = tx.QueryRow(ctx,
		`INSERT INTO sales_quotations (number, customer_id, quote_date, valid_until, status, subtotal, tax, discount, total, note, created_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13) RETURNING id`,
		number, q.CustomerID, q.QuoteDate, q.ValidUntil, q.Status, q.Subtotal, q.Tax, q.Discount, q.Total,
		q.Note, q.CreatedBy, now, now).Scan(&id)
	if err != nil {
		return Quotation{}, err
	}
	for i := range q.Lines {
		err = tx.QueryRow(ctx,
			`INSERT INTO sales_quotation_lines (quotation_id, item_id, qty, unit_price, discount, tax_rate, total)
			 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
			id, q.Lines[i].ItemID, q.Lines[i].Qty, q.Lines[i].UnitPrice, q.Lines[i].Discount,
			q.Lines[i].TaxRate, q.Lines[i].Total).Scan(&q.Lines[i].ID)
		if err != nil {
			return Quotation{}, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return Quotation{}, err
	}
	q.ID = id
	q.Number = number
	q.CreatedAt = now
	q.UpdatedAt = now
	return q, nil
}

func (r *repository) ListQuotations(ctx context.Context, status string, customerID int64, page, limit int) ([]Quotation, int, error) {
	query := `SELECT q.id, q.number, q.customer_id, c.name, q.quote_date, q.valid_until, q.status,
		q.subtotal, q.tax, q.discount, q.total, q.note, q.created_by, q.created_at, q.updated_at
		FROM sales_quotations q JOIN customers c ON c.id = q.customer_id WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM sales_quotations q WHERE 1=1`
	args := []any{}
	argCount := 0
	if status != "" {
		argCount++
		clause := ` AND q.status = $` + strconv.Itoa(argCount)
		query += clause
		countQuery += clause
		args = append(args, status)
	}
	if customerID > 0 {
		argCount++
		clause := ` AND q.customer_id = $` + strconv.Itoa(argCount)
		query += clause
		countQuery += clause
		args = append(args, customerID)
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += pageClause("q.created_at", &argCount, &args, page, limit)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var quotes []Quotation
	for rows.Next() {
		var q Quotation
		if err := rows.Scan(&q.ID, &q.Number, &q.CustomerID, &q.CustomerName, &q.QuoteDate, &q.ValidUntil,
			&q.Status, &q.Subtotal, &q.Tax, &q.Discount, &q.Total, &q.Note, &q.CreatedBy,
			&q.CreatedAt, &q.UpdatedAt); err != nil {
			return nil, 0, err
		}
		quotes = append(quotes, q)
	}
	return quotes, total, rows.Err()
}

func (r *repository) GetQuotation(ctx context.Context, id int64) (Quotation, error) {
	var q Quotation
	err := r.pool.QueryRow(ctx,
		`SELECT q.id, q.number, q.customer_id, c.name, q.quote_date, q.valid_until, q.status,
		 q.subtotal, q.tax, q.discount, q.total, q.note, q.created_by, q.created_at, q.updated_at
		 FROM sales_quotations q JOIN customers c ON c.id = q.customer_id WHERE q.id = $1`, id).
		Scan(&q.ID, &q.Number, &q.CustomerID, &q.CustomerName, &q.QuoteDate, &q.ValidUntil,
			&q.Status, &q.Subtotal, &q.Tax, &q.Discount, &q.Total, &q.Note, &q.CreatedBy,
			&q.CreatedAt, &q.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Quotation{}, ErrNotFound
	}
	if err != nil {
		return Quotation{}, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT l.id, l.item_id, i.name, l.qty, l.unit_price, l.discount, l.tax_rate, l.total
		 FROM sales_quotation_lines l JOIN items i ON i.id = l.item_id WHERE l.quotation_id = $1 ORDER BY l.id`, id)
	if err != nil {
		return Quotation{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var line QuotationLine
		if err := rows.Scan(&line.ID, &line.ItemID, &line.ItemName, &line.Qty, &line.UnitPrice,
			&line.Discount, &line.TaxRate, &line.Total); err != nil {
			return Quotation{}, err
		}
		q.Lines = append(q.Lines, line)
	}
	return q, rows.Err()
}

func (r *repository) SetQuotationStatus(ctx context.Context, id int64, status string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE sales_quotations SET status = $1, updated_at = $2 WHERE id = $3`, status, time.Now(), id)
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

	number, err := shared.NextDocumentNumber(ctx, tx, "SO")
	if err != nil {
		return Order{}, err
	}
	now := time.Now()
	var id int64
	err = tx.QueryRow(ctx,
		`INSERT INTO sales_orders (number, customer_id, quotation_id, order_date, delivery_date, status, subtotal, tax, total, note, created_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13) RETURNING id`,
		number, order.CustomerID, nullableID(order.QuotationID), order.OrderDate, order.DeliveryDate,
		order.Status, order.Subtotal, order.Tax, order.Total, order.Note, order.CreatedBy, now, now).Scan(&id)
	if err != nil {
		return Order{}, err
	}
	for i := range order.Lines {
		err = tx.QueryRow(ctx,
			`INSERT INTO sales_order_lines (order_id, item_id, qty, delivered, unit_price, discount, tax_rate, total)
			 VALUES ($1, $2, $3, 0, $4, $5, $6, $7) RETURNING id`,
			id, order.Lines[i].ItemID, order.Lines[i].Qty, order.Lines[i].UnitPrice,
			order.Lines[i].Discount, order.Lines[i].TaxRate, order.Lines[i].Total).Scan(&order.Lines[i].ID)
		if err != nil {
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

func (r *repository) ListOrders(ctx context.Context, status string, customerID int64, page, limit int) ([]Order, int, error) {
	query := `SELECT o.id, o.number, o.customer_id, c.name, COALESCE(o.quotation_id, 0), o.order_date, o.delivery_date,
		o.status, o.subtotal, o.tax, o.total, o.note, o.created_by, o.created_at, o.updated_at
		FROM sales_orders o JOIN customers c ON c.id = o.customer_id WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM sales_orders o WHERE 1=1`
	args := []any{}
	argCount := 0
	if status != "" {
		argCount++
		clause := ` AND o.status = $` + strconv.Itoa(argCount)
		query += clause
		countQuery += clause
		args = append(args, status)
	}
	if customerID > 0 {
		argCount++
		clause := ` AND o.customer_id = $` + strconv.Itoa(argCount)
		query += clause
		countQuery += clause
		args = append(args, customerID)
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
		if err := rows.Scan(&o.ID, &o.Number, &o.CustomerID, &o.CustomerName, &o.QuotationID, &o.OrderDate,
			&o.DeliveryDate, &o.Status, &o.Subtotal, &o.Tax, &o.Total, &o.Note, &o.CreatedBy,
			&o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, 0, err
		}
		orders = append(orders, o)
	}
	return orders, total, rows.Err()
}

func (r *repository) GetOrder(ctx context.Context, id int64) (Order, error) {
	var o Order
	err := r.pool.QueryRow(ctx,
		`SELECT o.id, o.number, o.customer_id, c.name, COALESCE(o.quotation_id, 0), o.order_date, o.delivery_date,
		 o.status, o.subtotal, o.tax, o.total, o.note, o.created_by, o.created_at, o.updated_at
		 FROM sales_orders o JOIN customers c ON c.id = o.customer_id WHERE o.id = $1`, id).
		Scan(&o.ID, &o.Number, &o.CustomerID, &o.CustomerName, &o.QuotationID, &o.OrderDate,
			&o.DeliveryDate, &o.Status, &o.Subtotal, &o.Tax, &o.Total, &o.Note, &o.CreatedBy,
			&o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Order{}, ErrNotFound
	}
	if err != nil {
		return Order{}, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT l.id, l.item_id, i.name, l.qty, l.delivered, l.unit_price, l.discount, l.tax_rate, l.total
		 FROM sales_order_lines l JOIN items i ON i.id = l.item_id WHERE l.order_id = $1 ORDER BY l.id`, id)
	if err != nil {
		return Order{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var line OrderLine
		if err := rows.Scan(&line.ID, &line.ItemID, &line.ItemName, &line.Qty, &line.Delivered,
			&line.UnitPrice, &line.Discount, &line.TaxRate, &line.Total); err != nil {
			return Order{}, err
		}
		o.Lines = append(o.Lines, line)
	}
	return o, rows.Err()
}

func (r *repository) SetOrderStatus(ctx context.Context, id int64, status string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE sales_orders SET status = $1, updated_at = $2 WHERE id = $3`, status, time.Now(), id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateChallan inserts the challan, advances the order's delivered
// quantities and writes the new order status, all in one transaction.
func (r *repository) CreateChallan(ctx context.Context, challan Challan, orderStatus string) (Challan, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Challan{}, err
	}
	defer tx.Rollback(ctx)

	number, err := shared.NextDocumentNumber(ctx, tx, "DC")
	if err != nil {
		return Challan{}, err
	}
	now := time.Now()
	var id int64
	err = tx.QueryRow(ctx,
		`INSERT INTO delivery_challans (number, order_id, location_id, challan_date, driver, vehicle, note, created_by, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9) RETURNING id`,
		number, challan.OrderID, challan.LocationID, challan.ChallanDate, challan.Driver,
		challan.Vehicle, challan.Note, challan.CreatedBy, now).Scan(&id)
	if err != nil {
		return Challan{}, err
	}
	for i := range challan.Lines {
		line := challan.Lines[i]
		err = tx.QueryRow(ctx,
			`INSERT INTO delivery_challan_lines (challan_id, item_id, qty) VALUES ($1, $2, $3) RETURNING id`,
			id, line.ItemID, line.Qty).Scan(&challan.Lines[i].ID)
		if err != nil {
			return Challan{}, err
		}
		if _, err := tx.Exec(ctx,
			`UPDATE sales_order_lines SET delivered = delivered + $1 WHERE order_id = $2 AND item_id = $3`,
			line.Qty, challan.OrderID, line.ItemID); err != nil {
			return Challan{}, err
		}
	}
	if _, err := tx.Exec(ctx,
		`UPDATE sales_orders SET status = $1, updated_at = $2 WHERE id = $3`,
		orderStatus, now, challan.OrderID); err != nil {
		return Challan{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Challan{}, err
	}
	challan.ID = id
	challan.Number = number
	challan.CreatedAt = now
	return challan, nil
}

func (r *repository) ListChallans(ctx context.Context, orderID int64, page, limit int) ([]Challan, int, error) {
	query := `SELECT d.id, d.number, d.order_id, o.number, d.location_id, d.challan_date, d.driver, d.vehicle,
		d.note, d.created_by, d.created_at
		FROM delivery_challans d JOIN sales_orders o ON o.id = d.order_id WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM delivery_challans d WHERE 1=1`
	args := []any{}
	argCount := 0
	if orderID > 0 {
		argCount++
		clause := ` AND d.order_id = $` + strconv.Itoa(argCount)
		query += clause
		countQuery += clause
		args = append(args, orderID)
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += pageClause("d.created_at", &argCount, &args, page, limit)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var challans []Challan
	for rows.Next() {
		var c Challan
		if err := rows.Scan(&c.ID, &c.Number, &c.OrderID, &c.OrderNumber, &c.LocationID, &c.ChallanDate,
			&c.Driver, &c.Vehicle, &c.Note, &c.CreatedBy, &c.CreatedAt); err != nil {
			return nil, 0, err
		}
		challans = append(challans, c)
	}
	return challans, total, rows.Err()
}

func (r *repository) GetChallan(ctx context.Context, id int64) (Challan, error) {
	var c Challan
	err := r.pool.QueryRow(ctx,
		`SELECT d.id, d.number, d.order_id, o.number, d.location_id, d.challan_date, d.driver, d.vehicle,
		 d.note, d.created_by, d.created_at
		 FROM delivery_challans d JOIN sales_orders o ON o.id = d.order_id WHERE d.id = $1`, id).
		Scan(&c.ID, &c.Number, &c.OrderID, &c.OrderNumber, &c.LocationID, &c.ChallanDate,
			&c.Driver, &c.Vehicle, &c.Note, &c.CreatedBy, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Challan{}, ErrNotFound
	}
	if err != nil {
		return Challan{}, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT l.id, l.item_id, i.name, l.qty
		 FROM delivery_challan_lines l JOIN items i ON i.id = l.item_id WHERE l.challan_id = $1 ORDER BY l.id`, id)
	if err != nil {
		return Challan{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var line ChallanLine
		if err := rows.Scan(&line.ID, &line.ItemID, &line.ItemName, &line.Qty); err != nil {
			return Challan{}, err
		}
		c.Lines = append(c.Lines, line)
	}
	return c, rows.Err()
}

// CreateInvoice inserts the invoice and bumps the customer receivable
// balance in one transaction.
func (r *repository) CreateInvoice(ctx context.Context, inv Invoice) (Invoice, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return Invoice{}, err
	}
	defer tx.Rollback(ctx)

	number, err := shared.NextDocumentNumber(ctx, tx, "INV")
	if err != nil {
		return Invoice{}, err
	}
	now := time.Now()
	var id int64
	err = tx.QueryRow(ctx,
		`INSERT INTO sales_invoices (number, customer_id, order_id, challan_id, invoice_date, due_date, subtotal, tax, discount, total, paid, status, note, created_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 0, $11, $12, $13, $14, $15) RETURNING id, paid`,
		number, inv.CustomerID, nullableID(inv.OrderID), nullableID(inv.ChallanID), inv.InvoiceDate, inv.DueDate,
		inv.Subtotal, inv.Tax, inv.Discount, inv.Total, inv.Status, inv.Note, inv.CreatedBy, now, now).
		Scan(&id, &inv.Paid)
	if err != nil {
		return Invoice{}, err
	}
	for i := range inv.Lines {
		err = tx.QueryRow(ctx,
			`INSERT INTO sales_invoice_lines (invoice_id, item_id, qty, unit_price, discount, tax_rate, total)
			 VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
			id, inv.Lines[i].ItemID, inv.Lines[i].Qty, inv.Lines[i].UnitPrice, inv.Lines[i].Discount,
			inv.Lines[i].TaxRate, inv.Lines[i].Total).Scan(&inv.Lines[i].ID)
		if err != nil {
			return Invoice{}, err
		}
	}
	if _, err := tx.Exec(ctx,
		`UPDATE customers SET balance = balance + $1, updated_at = $2 WHERE id = $3`,
		inv.Total, now, inv.CustomerID); err != nil {
		return Invoice{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return Invoice{}, err
	}
	inv.ID = id
	inv.Number = number
	inv.CreatedAt = now
	inv.UpdatedAt = now
	return inv, nil
}

func (r *repository) ListInvoices(ctx context.Context, status string, customerID int64, page, limit int) ([]Invoice, int, error) {
	query := `SELECT v.id, v.number, v.customer_id, c.name, COALESCE(v.order_id, 0), COALESCE(v.challan_id, 0),
		v.invoice_date, v.due_date, v.subtotal, v.tax, v.discount, v.total, v.paid, v.status, v.note,
		v.created_by, v.created_at, v.updated_at
		FROM sales_invoices v JOIN customers c ON c.id = v.customer_id WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM sales_invoices v WHERE 1=1`
	args := []any{}
	argCount := 0
	if status != "" {
		argCount++
		clause := ` AND v.status = $` + strconv.Itoa(argCount)
		query += clause
		countQuery += clause
		args = append(args, status)
	}
	if customerID > 0 {
		argCount++
		clause := ` AND v.customer_id = $` + strconv.Itoa(argCount)
		query += clause
		countQuery += clause
		args = append(args, customerID)
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query += pageClause("v.created_at", &argCount, &args, page, limit)
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var invoices []Invoice
	for rows.Next() {
		var v Invoice
		if err := rows.Scan(&v.ID, &v.Number, &v.CustomerID, &v.CustomerName, &v.OrderID, &v.ChallanID,
			&v.InvoiceDate, &v.DueDate, &v.Subtotal, &v.Tax, &v.Discount, &v.Total, &v.Paid, &v.Status,
			&v.Note, &v.CreatedBy, &v.CreatedAt, &v.UpdatedAt); err != nil {
			return nil, 0, err
		}
		invoices = append(invoices, v)
	}
	return invoices, total, rows.Err()
}

func (r *repository) GetInvoice(ctx context.Context, id int64) (Invoice, error) {
	var v Invoice
	err := r.pool.QueryRow(ctx,
		`SELECT v.id, v.number, v.customer_id, c.name, COALESCE(v.order_id, 0), COALESCE(v.challan_id, 0),
		 v.invoice_date, v.due_date, v.subtotal, v.tax, v.discount, v.total, v.paid, v.status, v.note,
		 v.created_by, v.created_at, v.updated_at
		 FROM sales_invoices v JOIN customers c ON c.id = v.customer_id WHERE v.id = $1`, id).
		Scan(&v.ID, &v.Number, &v.CustomerID, &v.CustomerName, &v.OrderID, &v.ChallanID,
			&v.InvoiceDate, &v.DueDate, &v.Subtotal, &v.Tax, &v.Discount, &v.Total, &v.Paid, &v.Status,
			&v.Note, &v.CreatedBy, &v.CreatedAt, &v.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Invoice{}, ErrNotFound
	}
	if err != nil {
		return Invoice{}, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT l.id, l.item_id, i.name, l.qty, l.unit_price, l.discount, l.tax_rate, l.total
		 FROM sales_invoice_lines l JOIN items i ON i.id = l.item_id WHERE l.invoice_id = $1 ORDER BY l.id`, id)
	if err != nil {
		return Invoice{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var line InvoiceLine
		if err := rows.Scan(&line.ID, &line.ItemID, &line.ItemName, &line.Qty, &line.UnitPrice,
			&line.Discount, &line.TaxRate, &line.Total); err != nil {
			return Invoice{}, err
		}
		v.Lines = append(v.Lines, line)
	}
	return v, rows.Err()
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
