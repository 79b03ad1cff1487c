package items

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/masterdata/shared"
)

type memoryRepo struct {
	items  map[int64]Item
	nextID int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{items: make(map[int64]Item)}
}

func (r *memoryRepo) List(ctx context.Context, filters shared.ListFilters) ([]Item, int, error) {
	var out []Item
	for _, it := range r.items {
		if filters.Search != "" && !strings.Contains(strings.ToLower(it.Name), strings.ToLower(filters.Search)) {
			continue
		}
		out = append(out, it)
	}
	return out, len(out), nil
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (Item, error) {
	it, ok := r.items[id]
	if !ok {
		return Item{}, shared.ErrNotFound
	}
	return it, nil
}

func (r *memoryRepo) Create(ctx context.Context, item Item) (Item, error) {
	for _, existing := range r.items {
		if existing.Code == item.Code {
			return Item{}, shared.ErrDuplicate
		}
	}
	r.nextID++
	item.ID = r.nextID
	item.CreatedAt = time.Now()
	item.UpdatedAt = item.CreatedAt
	r.items[item.ID] = item
	return item, nil
}

func (r *memoryRepo) Update(ctx context.Context, id int64, item Item) error {
	if _, ok := r.items[id]; !ok {
		return shared.ErrNotFound
	}
	item.ID = id
	r.items[id] = item
	return nil
}

func (r *memoryRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.items[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func validItem() Item {
	return Item{
		Code:         "ITM-001",
		Name:         "Steel Bolt M8",
		Unit:         "pcs",
		Category:     "fasteners",
		CostPrice:    decimal.NewFromFloat(1.25),
		SellingPrice: decimal.NewFromFloat(2.00),
		ReorderLevel: decimal.NewFromInt(100),
		IsActive:     true,
	}
}

func TestCreateValidation(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	missingCode := validItem()
	missingCode.Code = " "
	_, err := svc.Create(ctx, missingCode)
	require.ErrorIs(t, err, shared.ErrRequiredField)

	negativePrice := validItem()
	negativePrice.CostPrice = decimal.NewFromInt(-1)
	_, err = svc.Create(ctx, negativePrice)
	require.ErrorIs(t, err, shared.ErrValidation)

	created, err := svc.Create(ctx, validItem())
	require.NoError(t, err)
	require.NotZero(t, created.ID)
}

func TestCreateDuplicateCode(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	_, err := svc.Create(ctx, validItem())
	require.NoError(t, err)

	_, err = svc.Create(ctx, validItem())
	require.ErrorIs(t, err, shared.ErrDuplicate)
}

func TestGetAndUpdate(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	created, err := svc.Create(ctx, validItem())
	require.NoError(t, err)

	_, err = svc.Get(ctx, 0)
	require.ErrorIs(t, err, shared.ErrInvalidID)

	_, err = svc.Get(ctx, created.ID+99)
	require.ErrorIs(t, err, shared.ErrNotFound)

	updated := validItem()
	updated.Name = "Steel Bolt M10"
	require.NoError(t, svc.Update(ctx, created.ID, updated))

	got, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "Steel Bolt M10", got.Name)
}

func TestDelete(t *testing.T) {
	svc := NewService(newMemoryRepo())
	ctx := context.Background()

	created, err := svc.Create(ctx, validItem())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, created.ID))
	require.ErrorIs(t, svc.Delete(ctx, created.ID), shared.ErrNotFound)
}
