package reports

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the PostgreSQL-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) OpenReceivables(ctx context.Context) ([]AgingDocument, error) {
	return r.openDocuments(ctx,
		`SELECT v.id, v.number, v.customer_id, c.name, v.due_date, v.total, v.paid
		 FROM sales_invoices v JOIN customers c ON c.id = v.customer_id
		 WHERE v.status <> 'paid' ORDER BY v.due_date`)
}

func (r *repository) OpenPayables(ctx context.Context) ([]AgingDocument, error) {
	return r.openDocuments(ctx,
		`SELECT b.id, b.number, b.supplier_id, s.name, b.due_date, b.total, b.paid
		 FROM supplier_bills b JOIN suppliers s ON s.id = b.supplier_id
		 WHERE b.status <> 'paid' ORDER BY b.due_date`)
}

func (r *repository) openDocuments(ctx context.Context, query string) ([]AgingDocument, error) {
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []AgingDocument
	for rows.Next() {
		var d AgingDocument
		if err := rows.Scan(&d.ID, &d.Number, &d.PartyID, &d.PartyName, &d.DueDate, &d.Total, &d.Paid); err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}
