package locations

import (
	"context"
	"fmt"
	"strings"

	"github.com/meridian-erp/meridian-erp/internal/masterdata/shared"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) validate(loc Location) error {
	if strings.TrimSpace(loc.Code) == "" {
		return fmt.Errorf("%w: location code", shared.ErrRequiredField)
	}
	if strings.TrimSpace(loc.Name) == "" {
		return fmt.Errorf("%w: location name", shared.ErrRequiredField)
	}
	switch loc.Type {
	case TypeWarehouse, TypeSite, TypeStore:
	default:
		return fmt.Errorf("%w: location type must be %q, %q or %q", shared.ErrValidation, TypeWarehouse, TypeSite, TypeStore)
	}
	return nil
}

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Location, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Location, error) {
	if id <= 0 {
		return Location{}, shared.ErrInvalidID
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, loc Location) (Location, error) {
	if err := s.validate(loc); err != nil {
		return Location{}, err
	}
	return s.repo.Create(ctx, loc)
}

func (s *Service) Update(ctx context.Context, id int64, loc Location) error {
	if id <= 0 {
		return shared.ErrInvalidID
	}
	if err := s.validate(loc); err != nil {
		return err
	}
	return s.repo.Update(ctx, id, loc)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return shared.ErrInvalidID
	}
	return s.repo.Delete(ctx, id)
}
