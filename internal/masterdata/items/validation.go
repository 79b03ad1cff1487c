package items

import (
	"fmt"
	"strings"

	"github.com/meridian-erp/meridian-erp/internal/masterdata/shared"
)

func (s *Service) validate(item Item) error {
	if strings.TrimSpace(item.Code) == "" {
		return fmt.Errorf("%w: item code", shared.ErrRequiredField)
	}
	if strings.TrimSpace(item.Name) == "" {
		return fmt.Errorf("%w: item name", shared.ErrRequiredField)
	}
	if strings.TrimSpace(item.Unit) == "" {
		return fmt.Errorf("%w: item unit", shared.ErrRequiredField)
	}
	if item.CostPrice.IsNegative() || item.SellingPrice.IsNegative() {
		return fmt.Errorf("%w: prices must not be negative", shared.ErrValidation)
	}
	if item.ReorderLevel.IsNegative() {
		return fmt.Errorf("%w: reorder level must not be negative", shared.ErrValidation)
	}
	return nil
}
