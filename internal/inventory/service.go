package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian-erp/meridian-erp/internal/observability"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// RepositoryPort abstracts repository usage for the service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	ListLedger(ctx context.Context, filter LedgerFilter) ([]LedgerEntry, int, error)
	ListStock(ctx context.Context, filter StockFilter) ([]ItemStock, int, error)
}

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates stock postings. Every posting writes the ledger
// entry and updates the running balance inside one transaction.
type Service struct {
	repo        RepositoryPort
	audit       AuditPort
	idempotency *shared.IdempotencyStore
	metrics     *observability.Metrics
}

// NewService builds Service. audit, idempotency and metrics may be nil.
func NewService(repo RepositoryPort, audit AuditPort, idem *shared.IdempotencyStore, metrics *observability.Metrics) *Service {
	return &Service{repo: repo, audit: audit, idempotency: idem, metrics: metrics}
}

// Receive posts an inbound movement and folds its cost into the moving
// average. The latest receipt cost also becomes the item's cost price.
func (s *Service) Receive(ctx context.Context, input ReceiveInput) (LedgerEntry, error) {
	if input.ItemID == 0 || input.LocationID == 0 {
		return LedgerEntry{}, errors.New("inventory: item and location required")
	}
	if !input.Qty.IsPositive() {
		return LedgerEntry{}, ErrInvalidQuantity
	}
	if input.UnitCost.IsNegative() {
		return LedgerEntry{}, ErrInvalidUnitCost
	}
	txType := input.TxType
	if txType == "" {
		txType = TransactionTypePurchase
	}
	return s.post(ctx, movement{
		itemID:     input.ItemID,
		locationID: input.LocationID,
		qtyChange:  input.Qty,
		unitCost:   input.UnitCost,
		txType:     txType,
		refType:    input.RefType,
		refID:      input.RefID,
		note:       input.Note,
		actorID:    input.ActorID,
	})
}

// Issue posts an outbound movement at the current average cost. Issues
// beyond the on-hand quantity are rejected.
func (s *Service) Issue(ctx context.Context, input IssueInput) (LedgerEntry, error) {
	if input.ItemID == 0 || input.LocationID == 0 {
		return LedgerEntry{}, errors.New("inventory: item and location required")
	}
	if !input.Qty.IsPositive() {
		return LedgerEntry{}, ErrInvalidQuantity
	}
	txType := input.TxType
	if txType == "" {
		txType = TransactionTypeSale
	}
	return s.post(ctx, movement{
		itemID:     input.ItemID,
		locationID: input.LocationID,
		qtyChange:  input.Qty.Neg(),
		txType:     txType,
		refType:    input.RefType,
		refID:      input.RefID,
		note:       input.Note,
		actorID:    input.ActorID,
	})
}

// Adjust corrects stock by a signed quantity.
func (s *Service) Adjust(ctx context.Context, input AdjustInput) (LedgerEntry, error) {
	if input.ItemID == 0 || input.LocationID == 0 {
		return LedgerEntry{}, errors.New("inventory: item and location required")
	}
	if input.Qty.IsZero() {
		return LedgerEntry{}, ErrInvalidQuantity
	}
	if input.Qty.IsPositive() && input.UnitCost.IsNegative() {
		return LedgerEntry{}, ErrInvalidUnitCost
	}
	return s.post(ctx, movement{
		itemID:     input.ItemID,
		locationID: input.LocationID,
		qtyChange:  input.Qty,
		unitCost:   input.UnitCost,
		txType:     TransactionTypeAdjustment,
		note:       input.Note,
		actorID:    input.ActorID,
	})
}

// Transfer moves stock between locations as an issue plus a receipt at
// the source location's average cost.
func (s *Service) Transfer(ctx context.Context, input TransferInput) (LedgerEntry, LedgerEntry, error) {
	if input.ItemID == 0 || input.SrcLocation == 0 || input.DstLocation == 0 {
		return LedgerEntry{}, LedgerEntry{}, errors.New("inventory: item and locations required")
	}
	if input.SrcLocation == input.DstLocation {
		return LedgerEntry{}, LedgerEntry{}, errors.New("inventory: source and destination must differ")
	}
	if !input.Qty.IsPositive() {
		return LedgerEntry{}, LedgerEntry{}, ErrInvalidQuantity
	}

	out, err := s.post(ctx, movement{
		itemID:     input.ItemID,
		locationID: input.SrcLocation,
		qtyChange:  input.Qty.Neg(),
		txType:     TransactionTypeTransfer,
		note:       fmt.Sprintf("transfer to location %d: %s", input.DstLocation, input.Note),
		actorID:    input.ActorID,
	})
	if err != nil {
		return LedgerEntry{}, LedgerEntry{}, err
	}
	in, err := s.post(ctx, movement{
		itemID:     input.ItemID,
		locationID: input.DstLocation,
		qtyChange:  input.Qty,
		unitCost:   out.UnitCost,
		txType:     TransactionTypeTransfer,
		note:       fmt.Sprintf("transfer from location %d: %s", input.SrcLocation, input.Note),
		actorID:    input.ActorID,
	})
	if err != nil {
		return LedgerEntry{}, LedgerEntry{}, err
	}
	return out, in, nil
}

// Ledger lists stock ledger entries.
func (s *Service) Ledger(ctx context.Context, filter LedgerFilter) ([]LedgerEntry, int, error) {
	return s.repo.ListLedger(ctx, filter)
}

// StockLevels lists current on-hand quantities.
func (s *Service) StockLevels(ctx context.Context, filter StockFilter) ([]ItemStock, int, error) {
	return s.repo.ListStock(ctx, filter)
}

type movement struct {
	itemID     int64
	locationID int64
	qtyChange  decimal.Decimal
	unitCost   decimal.Decimal
	txType     TransactionType
	refType    string
	refID      int64
	note       string
	actorID    int64
}

func (s *Service) post(ctx context.Context, m movement) (LedgerEntry, error) {
	now := time.Now().UTC()

	key := fmt.Sprintf("%s:%s:%d:%d:%d", m.txType, m.refType, m.refID, m.itemID, m.locationID)
	insertedKey := false
	if s.idempotency != nil && m.refID != 0 {
		if err := s.idempotency.CheckAndInsert(ctx, key, "inventory"); err != nil {
			return LedgerEntry{}, err
		}
		insertedKey = true
	}

	var entry LedgerEntry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		stock, err := tx.GetStockForUpdate(ctx, m.itemID, m.locationID)
		if err != nil && !errors.Is(err, ErrStockNotFound) {
			return err
		}
		if errors.Is(err, ErrStockNotFound) {
			stock = ItemStock{ItemID: m.itemID, LocationID: m.locationID}
		}

		newQty := stock.Qty.Add(m.qtyChange)
		if newQty.IsNegative() {
			return ErrInsufficientStock
		}

		var unitCost, newAvg decimal.Decimal
		if m.qtyChange.IsPositive() {
			unitCost = m.unitCost
			totalCost := stock.Qty.Mul(stock.AvgCost).Add(m.qtyChange.Mul(unitCost))
			if !newQty.IsZero() {
				newAvg = totalCost.DivRound(newQty, 4)
			}
		} else {
			unitCost = stock.AvgCost
			if newQty.IsZero() {
				newAvg = decimal.Zero
			} else {
				newAvg = stock.AvgCost
			}
		}

		entry = LedgerEntry{
			ItemID:      m.itemID,
			LocationID:  m.locationID,
			TxType:      m.txType,
			Qty:         m.qtyChange,
			UnitCost:    unitCost,
			BalanceQty:  newQty,
			BalanceCost: newAvg,
			RefType:     m.refType,
			RefID:       m.refID,
			Note:        m.note,
			CreatedBy:   m.actorID,
			CreatedAt:   now,
		}
		id, err := tx.InsertLedgerEntry(ctx, entry)
		if err != nil {
			return err
		}
		entry.ID = id

		stock.Qty = newQty
		stock.AvgCost = newAvg
		if err := tx.UpsertStock(ctx, stock); err != nil {
			return err
		}

		if m.txType == TransactionTypePurchase && m.qtyChange.IsPositive() {
			if err := tx.UpdateItemCostPrice(ctx, m.itemID, entry); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if insertedKey {
			_ = s.idempotency.Delete(ctx, key)
		}
		return LedgerEntry{}, err
	}

	if s.metrics != nil {
		s.metrics.RecordStockMovement(string(m.txType))
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  m.actorID,
			Action:   fmt.Sprintf("inventory:%s", m.txType),
			Entity:   "stock_ledger",
			EntityID: fmt.Sprintf("%d:%d", m.itemID, m.locationID),
			Meta: map[string]any{
				"item_id":     m.itemID,
				"location_id": m.locationID,
				"qty":         m.qtyChange.String(),
				"ref_type":    m.refType,
				"ref_id":      m.refID,
			},
		})
	}
	return entry, nil
}
