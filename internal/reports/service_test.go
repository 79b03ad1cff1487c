package reports

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	receivables []AgingDocument
	payables    []AgingDocument
	loads       int
}

func (f *fakeRepo) OpenReceivables(ctx context.Context) ([]AgingDocument, error) {
	f.loads++
	return f.receivables, nil
}

func (f *fakeRepo) OpenPayables(ctx context.Context) ([]AgingDocument, error) {
	f.loads++
	return f.payables, nil
}

func newTestService(t *testing.T, repo Repository) (*Service, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	svc := NewService(slog.New(slog.DiscardHandler), repo, client)
	svc.now = asOf
	return svc, mr
}

func TestReceivablesCachesResult(t *testing.T) {
	repo := &fakeRepo{receivables: []AgingDocument{doc("INV-00001", 10, "100", "0")}}
	svc, _ := newTestService(t, repo)
	ctx := context.Background()

	first, err := svc.Receivables(ctx)
	require.NoError(t, err)
	require.True(t, first.Total.Equal(dec("100")))
	require.Equal(t, 1, repo.loads)

	// The second read is served from Redis without touching the repo.
	second, err := svc.Receivables(ctx)
	require.NoError(t, err)
	require.True(t, second.Total.Equal(first.Total))
	require.Equal(t, 1, repo.loads)
}

func TestReceivablesRebuildsAfterTTL(t *testing.T) {
	repo := &fakeRepo{receivables: []AgingDocument{doc("INV-00001", 10, "100", "0")}}
	svc, mr := newTestService(t, repo)
	ctx := context.Background()

	_, err := svc.Receivables(ctx)
	require.NoError(t, err)

	mr.FastForward(cacheTTL + time.Second)

	_, err = svc.Receivables(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, repo.loads)
}

func TestWarmPopulatesBothCaches(t *testing.T) {
	repo := &fakeRepo{
		receivables: []AgingDocument{doc("INV-00001", 10, "100", "0")},
		payables:    []AgingDocument{doc("BILL-00001", 40, "250", "50")},
	}
	svc, mr := newTestService(t, repo)
	ctx := context.Background()

	require.NoError(t, svc.Warm(ctx))
	require.True(t, mr.Exists(cacheKeyReceivables))
	require.True(t, mr.Exists(cacheKeyPayables))

	// Reads after warmup are cache hits.
	loads := repo.loads
	ar, err := svc.Receivables(ctx)
	require.NoError(t, err)
	require.True(t, ar.Total.Equal(dec("100")))
	ap, err := svc.Payables(ctx)
	require.NoError(t, err)
	require.True(t, ap.Total.Equal(dec("200")))
	require.Equal(t, loads, repo.loads)
}

func TestWriteCSV(t *testing.T) {
	report := BuildAging([]AgingDocument{
		{Number: "INV-00001", PartyName: "Acme Traders", DueDate: asOf().AddDate(0, 0, -45), Total: dec("1250.50"), Paid: dec("250.50")},
	}, asOf())

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, report))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	require.Equal(t, "number,party,due_date,days_overdue,bucket,balance", lines[0])
	require.Contains(t, lines[1], "INV-00001")
	require.Contains(t, lines[1], "Acme Traders")
	require.Contains(t, lines[1], "31-60")
	require.Contains(t, lines[1], "1,000.00")
	require.Contains(t, lines[2], "total")
}
