package locations

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/masterdata/shared"
)

type memoryRepo struct {
	locations map[int64]Location
	nextID    int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{locations: make(map[int64]Location)}
}

func (r *memoryRepo) List(ctx context.Context, filters shared.ListFilters) ([]Location, int, error) {
	var out []Location
	for _, loc := range r.locations {
		out = append(out, loc)
	}
	return out, len(out), nil
}

func (r *memoryRepo) Get(ctx context.Context, id int64) (Location, error) {
	loc, ok := r.locations[id]
	if !ok {
		return Location{}, shared.ErrNotFound
	}
	return loc, nil
}

func (r *memoryRepo) Create(ctx context.Context, loc Location) (Location, error) {
	for _, existing := range r.locations {
		if existing.Code == loc.Code {
			return Location{}, shared.ErrDuplicate
		}
	}
	r.nextID++
	loc.ID = r.nextID
	r.locations[loc.ID] = loc
	return loc, nil
}

func (r *memoryRepo) Update(ctx context.Context, id int64, loc Location) error {
	if _, ok := r.locations[id]; !ok {
		return shared.ErrNotFound
	}
	loc.ID = id
	r.locations[id] = loc
	return nil
}

func (r *memoryRepo) Delete(ctx context.Context, id int64) error {
	if _, ok := r.locations[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.locations, id)
	return nil
}

func TestCreateAcceptsAllLocationTypes(t *testing.T) {
	svc := NewService(newMemoryRepo())

	seeded := []Location{
		{Code: "WH-MAIN", Name: "Main Warehouse", Type: TypeWarehouse},
		{Code: "SITE-01", Name: "Project Site 1", Type: TypeSite},
		{Code: "ST-HO", Name: "Head Office Store", Type: TypeStore},
	}
	for _, loc := range seeded {
		created, err := svc.Create(context.Background(), loc)
		require.NoError(t, err, "type %q", loc.Type)
		require.Equal(t, loc.Type, created.Type)

		// Seeded rows must survive an unchanged update.
		require.NoError(t, svc.Update(context.Background(), created.ID, created))
	}
}

func TestCreateRejectsUnknownLocationType(t *testing.T) {
	svc := NewService(newMemoryRepo())

	_, err := svc.Create(context.Background(), Location{Code: "SR-01", Name: "Showroom", Type: "showroom"})
	require.ErrorIs(t, err, shared.ErrValidation)
}

func TestCreateRequiresCodeAndName(t *testing.T) {
	svc := NewService(newMemoryRepo())

	_, err := svc.Create(context.Background(), Location{Name: "No Code", Type: TypeWarehouse})
	require.ErrorIs(t, err, shared.ErrRequiredField)

	_, err = svc.Create(context.Background(), Location{Code: "WH-02", Type: TypeWarehouse})
	require.ErrorIs(t, err, shared.ErrRequiredField)
}
