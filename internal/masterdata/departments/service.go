package departments

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

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Department, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Department, error) {
	if id <= 0 {
		return Department{}, shared.ErrInvalidID
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, dept Department) (Department, error) {
	if strings.TrimSpace(dept.Name) == "" {
		return Department{}, fmt.Errorf("%w: department name", shared.ErrRequiredField)
	}
	return s.repo.Create(ctx, dept)
}

func (s *Service) Update(ctx context.Context, id int64, dept Department) error {
	if id <= 0 {
		return shared.ErrInvalidID
	}
	if strings.TrimSpace(dept.Name) == "" {
		return fmt.Errorf("%w: department name", shared.ErrRequiredField)
	}
	return s.repo.Update(ctx, id, dept)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return shared.ErrInvalidID
	}
	return s.repo.Delete(ctx, id)
}
