package shared

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// RowQuerier is the minimal query surface shared by pgxpool.Pool and pgx.Tx.
type RowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// NextDocumentNumber increments the named counter and formats it with
// the given prefix, e.g. NextDocumentNumber(ctx, q, "PR") -> "PR-00001".
// The upsert makes concurrent callers serialize on the counter row.
func NextDocumentNumber(ctx context.Context, q RowQuerier, prefix string) (string, error) {
	var value int64
	err := q.QueryRow(ctx,
		`INSERT INTO doc_sequences (name, value) VALUES ($1, 1)
		 ON CONFLICT (name) DO UPDATE SET value = doc_sequences.value + 1
		 RETURNING value`, prefix).Scan(&value)
	if err != nil {
		return "", fmt.Errorf("shared: next document number %s: %w", prefix, err)
	}
	return fmt.Sprintf("%s-%05d", prefix, value), nil
}
