package inventory

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// TxRepository exposes the operations available inside a stock posting
// transaction.
type TxRepository interface {
	GetStockForUpdate(ctx context.Context, itemID, locationID int64) (ItemStock, error)
	UpsertStock(ctx context.Context, stock ItemStock) error
	InsertLedgerEntry(ctx context.Context, entry LedgerEntry) (int64, error)
	UpdateItemCostPrice(ctx context.Context, itemID int64, cost LedgerEntry) error
}

// Repository persists inventory data in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// WithTx executes the callback inside a repeatable-read transaction so
// the ledger insert and the balance upsert commit or roll back together.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := fn(ctx, &txRepo{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

type txRepo struct {
	tx pgx.Tx
}

func (r *txRepo) GetStockForUpdate(ctx context.Context, itemID, locationID int64) (ItemStock, error) {
	var stock ItemStock
	err := r.tx.QueryRow(ctx,
		`SELECT item_id, location_id, qty, avg_cost, updated_at FROM item_stocks
		 WHERE item_id = $1 AND location_id = $2 FOR UPDATE`,
		itemID, locationID).
		Scan(&stock.ItemID, &stock.LocationID, &stock.Qty, &stock.AvgCost, &stock.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ItemStock{}, ErrStockNotFound
	}
	if err != nil {
		return ItemStock{}, err
	}
	return stock, nil
}

func (r *txRepo) UpsertStock(ctx context.Context, stock ItemStock) error {
	_, err := r.tx.Exec(ctx,
		`INSERT INTO item_stocks (item_id, location_id, qty, avg_cost, updated_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (item_id, location_id)
		 DO UPDATE SET qty = EXCLUDED.qty, avg_cost = EXCLUDED.avg_cost, updated_at = EXCLUDED.updated_at`,
		stock.ItemID, stock.LocationID, stock.Qty, stock.AvgCost, time.Now())
	return err
}

func (r *txRepo) InsertLedgerEntry(ctx context.Context, entry LedgerEntry) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx,
		`INSERT INTO stock_ledger (item_id, location_id, tx_type, qty, unit_cost, balance_qty, balance_cost, ref_type, ref_id, note, created_by, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12) RETURNING id`,
		entry.ItemID, entry.LocationID, entry.TxType, entry.Qty, entry.UnitCost,
		entry.BalanceQty, entry.BalanceCost, nullableString(entry.RefType), nullableID(entry.RefID),
		entry.Note, entry.CreatedBy, entry.CreatedAt).Scan(&id)
	return id, err
}

func (r *txRepo) UpdateItemCostPrice(ctx context.Context, itemID int64, entry LedgerEntry) error {
	_, err := r.tx.Exec(ctx,
		`UPDATE items SET cost_price = $1, updated_at = $2 WHERE id = $3`,
		entry.UnitCost, time.Now(), itemID)
	return err
}

// ListLedger returns ledger entries newest first.
func (r *Repository) ListLedger(ctx context.Context, filter LedgerFilter) ([]LedgerEntry, int, error) {
	query := `SELECT l.id, l.item_id, i.code, i.name, l.location_id, l.tx_type, l.qty, l.unit_cost,
		l.balance_qty, l.balance_cost, COALESCE(l.ref_type, ''), COALESCE(l.ref_id, 0), l.note, l.created_by, l.created_at
		FROM stock_ledger l JOIN items i ON i.id = l.item_id WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM stock_ledger l WHERE 1=1`
	args := []any{}
	argCount := 0

	appendClause := func(clause string, value any) {
		argCount++
		suffix := clause + strconv.Itoa(argCount)
		query += suffix
		countQuery += suffix
		args = append(args, value)
	}

	if filter.ItemID > 0 {
		appendClause(` AND l.item_id = $`, filter.ItemID)
	}
	if filter.LocationID > 0 {
		appendClause(` AND l.location_id = $`, filter.LocationID)
	}
	if filter.TxType != "" {
		appendClause(` AND l.tx_type = $`, filter.TxType)
	}
	if !filter.From.IsZero() {
		appendClause(` AND l.created_at >= $`, filter.From)
	}
	if !filter.To.IsZero() {
		appendClause(` AND l.created_at < $`, filter.To)
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := (filter.Page - 1) * limit
	if offset < 0 {
		offset = 0
	}
	argCount++
	query += ` ORDER BY l.created_at DESC, l.id DESC LIMIT $` + strconv.Itoa(argCount)
	args = append(args, limit)
	argCount++
	query += ` OFFSET $` + strconv.Itoa(argCount)
	args = append(args, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var entries []LedgerEntry
	for rows.Next() {
		var e LedgerEntry
		if err := rows.Scan(&e.ID, &e.ItemID, &e.ItemCode, &e.ItemName, &e.LocationID, &e.TxType,
			&e.Qty, &e.UnitCost, &e.BalanceQty, &e.BalanceCost, &e.RefType, &e.RefID,
			&e.Note, &e.CreatedBy, &e.CreatedAt); err != nil {
			return nil, 0, err
		}
		entries = append(entries, e)
	}
	return entries, total, rows.Err()
}

// ListStock returns current stock levels with item details.
func (r *Repository) ListStock(ctx context.Context, filter StockFilter) ([]ItemStock, int, error) {
	query := `SELECT s.item_id, i.code, i.name, s.location_id, s.qty, s.avg_cost, s.updated_at
		FROM item_stocks s JOIN items i ON i.id = s.item_id WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM item_stocks s JOIN items i ON i.id = s.item_id WHERE 1=1`
	args := []any{}
	argCount := 0

	if filter.LocationID > 0 {
		argCount++
		clause := ` AND s.location_id = $` + strconv.Itoa(argCount)
		query += clause
		countQuery += clause
		args = append(args, filter.LocationID)
	}
	if filter.Search != "" {
		argCount++
		clause := ` AND (i.name ILIKE $` + strconv.Itoa(argCount) + ` OR i.code ILIKE $` + strconv.Itoa(argCount) + `)`
		query += clause
		countQuery += clause
		args = append(args, "%"+filter.Search+"%")
	}
	if filter.LowOnly {
		clause := ` AND s.qty <= i.reorder_level`
		query += clause
		countQuery += clause
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := (filter.Page - 1) * limit
	if offset < 0 {
		offset = 0
	}
	argCount++
	query += ` ORDER BY i.name ASC LIMIT $` + strconv.Itoa(argCount)
	args = append(args, limit)
	argCount++
	query += ` OFFSET $` + strconv.Itoa(argCount)
	args = append(args, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var stocks []ItemStock
	for rows.Next() {
		var s ItemStock
		if err := rows.Scan(&s.ItemID, &s.ItemCode, &s.ItemName, &s.LocationID, &s.Qty, &s.AvgCost, &s.UpdatedAt); err != nil {
			return nil, 0, err
		}
		stocks = append(stocks, s)
	}
	return stocks, total, rows.Err()
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullableID(id int64) any {
	if id == 0 {
		return nil
	}
	return id
}
