package inventory

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	stocks    map[string]ItemStock
	ledger    []LedgerEntry
	itemCosts map[int64]decimal.Decimal
	nextID    int64
}

type memoryTx struct {
	repo *memoryRepo
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		stocks:    make(map[string]ItemStock),
		itemCosts: make(map[int64]decimal.Decimal),
	}
}

func stockKey(itemID, locationID int64) string {
	return fmt.Sprintf("%d:%d", itemID, locationID)
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryTx{repo: r})
}

func (r *memoryRepo) ListLedger(ctx context.Context, filter LedgerFilter) ([]LedgerEntry, int, error) {
	result := make([]LedgerEntry, len(r.ledger))
	copy(result, r.ledger)
	return result, len(result), nil
}

func (r *memoryRepo) ListStock(ctx context.Context, filter StockFilter) ([]ItemStock, int, error) {
	var result []ItemStock
	for _, s := range r.stocks {
		result = append(result, s)
	}
	return result, len(result), nil
}

func (tx *memoryTx) GetStockForUpdate(ctx context.Context, itemID, locationID int64) (ItemStock, error) {
	if stock, ok := tx.repo.stocks[stockKey(itemID, locationID)]; ok {
		return stock, nil
	}
	return ItemStock{}, ErrStockNotFound
}

func (tx *memoryTx) UpsertStock(ctx context.Context, stock ItemStock) error {
	tx.repo.stocks[stockKey(stock.ItemID, stock.LocationID)] = stock
	return nil
}

func (tx *memoryTx) InsertLedgerEntry(ctx context.Context, entry LedgerEntry) (int64, error) {
	tx.repo.nextID++
	entry.ID = tx.repo.nextID
	tx.repo.ledger = append(tx.repo.ledger, entry)
	return entry.ID, nil
}

func (tx *memoryTx) UpdateItemCostPrice(ctx context.Context, itemID int64, entry LedgerEntry) error {
	tx.repo.itemCosts[itemID] = entry.UnitCost
	return nil
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestReceiveMovingAverage(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil, nil)
	ctx := context.Background()

	entry, err := svc.Receive(ctx, ReceiveInput{ItemID: 1, LocationID: 1, Qty: dec("10"), UnitCost: dec("100")})
	require.NoError(t, err)
	require.True(t, entry.BalanceQty.Equal(dec("10")))
	require.True(t, entry.BalanceCost.Equal(dec("100")))

	// 10 @ 100 plus 10 @ 200 averages to 150.
	entry, err = svc.Receive(ctx, ReceiveInput{ItemID: 1, LocationID: 1, Qty: dec("10"), UnitCost: dec("200")})
	require.NoError(t, err)
	require.True(t, entry.BalanceQty.Equal(dec("20")))
	require.True(t, entry.BalanceCost.Equal(dec("150")))
}

func TestReceiveOverwritesItemCostPrice(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil, nil)
	ctx := context.Background()

	_, err := svc.Receive(ctx, ReceiveInput{ItemID: 7, LocationID: 1, Qty: dec("5"), UnitCost: dec("80")})
	require.NoError(t, err)
	_, err = svc.Receive(ctx, ReceiveInput{ItemID: 7, LocationID: 1, Qty: dec("5"), UnitCost: dec("95")})
	require.NoError(t, err)

	require.True(t, repo.itemCosts[7].Equal(dec("95")))
}

func TestIssueAtAverageCost(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil, nil)
	ctx := context.Background()

	_, err := svc.Receive(ctx, ReceiveInput{ItemID: 1, LocationID: 1, Qty: dec("10"), UnitCost: dec("100")})
	require.NoError(t, err)
	_, err = svc.Receive(ctx, ReceiveInput{ItemID: 1, LocationID: 1, Qty: dec("10"), UnitCost: dec("200")})
	require.NoError(t, err)

	entry, err := svc.Issue(ctx, IssueInput{ItemID: 1, LocationID: 1, Qty: dec("5")})
	require.NoError(t, err)
	require.True(t, entry.UnitCost.Equal(dec("150")))
	require.True(t, entry.BalanceQty.Equal(dec("15")))
	require.True(t, entry.Qty.Equal(dec("-5")))
	// Issues leave the average untouched.
	require.True(t, entry.BalanceCost.Equal(dec("150")))
}

func TestIssueInsufficientStock(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil, nil)
	ctx := context.Background()

	_, err := svc.Receive(ctx, ReceiveInput{ItemID: 1, LocationID: 1, Qty: dec("3"), UnitCost: dec("10")})
	require.NoError(t, err)

	_, err = svc.Issue(ctx, IssueInput{ItemID: 1, LocationID: 1, Qty: dec("4")})
	require.ErrorIs(t, err, ErrInsufficientStock)

	// Balance is untouched after the rejected issue.
	stock := repo.stocks[stockKey(1, 1)]
	require.True(t, stock.Qty.Equal(dec("3")))

	_, err = svc.Issue(ctx, IssueInput{ItemID: 1, LocationID: 99, Qty: dec("1")})
	require.ErrorIs(t, err, ErrInsufficientStock)
}

func TestIssueToZeroResetsAverage(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil, nil)
	ctx := context.Background()

	_, err := svc.Receive(ctx, ReceiveInput{ItemID: 1, LocationID: 1, Qty: dec("4"), UnitCost: dec("25")})
	require.NoError(t, err)

	entry, err := svc.Issue(ctx, IssueInput{ItemID: 1, LocationID: 1, Qty: dec("4")})
	require.NoError(t, err)
	require.True(t, entry.BalanceQty.IsZero())
	require.True(t, entry.BalanceCost.IsZero())
}

func TestAdjustRejectsZeroQty(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil, nil)

	_, err := svc.Adjust(context.Background(), AdjustInput{ItemID: 1, LocationID: 1, Qty: decimal.Zero})
	require.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestTransferMovesAtSourceAverage(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil, nil)
	ctx := context.Background()

	_, err := svc.Receive(ctx, ReceiveInput{ItemID: 1, LocationID: 1, Qty: dec("10"), UnitCost: dec("40")})
	require.NoError(t, err)

	out, in, err := svc.Transfer(ctx, TransferInput{ItemID: 1, SrcLocation: 1, DstLocation: 2, Qty: dec("6")})
	require.NoError(t, err)
	require.True(t, out.Qty.Equal(dec("-6")))
	require.True(t, in.Qty.Equal(dec("6")))
	require.True(t, in.UnitCost.Equal(dec("40")))

	src := repo.stocks[stockKey(1, 1)]
	dst := repo.stocks[stockKey(1, 2)]
	require.True(t, src.Qty.Equal(dec("4")))
	require.True(t, dst.Qty.Equal(dec("6")))
	require.True(t, dst.AvgCost.Equal(dec("40")))
}

func TestTransferSameLocationRejected(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil, nil)

	_, _, err := svc.Transfer(context.Background(), TransferInput{ItemID: 1, SrcLocation: 1, DstLocation: 1, Qty: dec("1")})
	require.Error(t, err)
}
