package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Abid-Al-Labib/erp-base-sub003/internal/ops/entity"
	"github.com/Abid-Al-Labib/erp-base-sub003/internal/ops/repository"
)

// MovementRef ties a ledger movement back to the business action that
// caused it, for the journal.
type MovementRef struct {
	Kind    string // entity.Move* constant
	RefType string // ORDER, ORDERED_PART, LOAN, ADJUST
	RefID   string
	ActorID string
	Notes   string
}

// LedgerService owns the (part, location) balances. All mutation goes
// through guarded single-statement updates, so each key is linearizable
// at the database; a transfer wraps both sides plus the journal rows in
// one transaction.
type LedgerService struct {
	repo   *repository.LedgerRepository
	logger *zap.Logger
}

func NewLedgerService(repo *repository.LedgerRepository, logger *zap.Logger) *LedgerService {
	return &LedgerService{repo: repo, logger: logger}
}

func (s *LedgerService) Quantity(ctx context.Context, partID string, loc entity.Location) (int64, error) {
	return s.repo.Quantity(partID, loc)
}

func (s *LedgerService) List(params repository.LedgerListParams) ([]entity.LedgerEntry, int64, error) {
	return s.repo.List(params)
}

func (s *LedgerService) ListMovements(partID string, page, size int) ([]entity.LedgerMovement, int64, error) {
	return s.repo.ListMovements(partID, page, size)
}

// LowStock lists storage balances at or below threshold, for restock
// alerts.
func (s *LedgerService) LowStock(threshold int64) ([]entity.LedgerEntry, error) {
	return s.repo.ListBelow(entity.LocationStorage, threshold)
}

// Adjust applies a signed delta to one balance and journals it, inside
// its own transaction. Fails with ErrInsufficientQuantity when the
// result would be negative; nothing is applied on failure.
func (s *LedgerService) Adjust(ctx context.Context, partID string, loc entity.Location, delta int64, ref MovementRef) error {
	return s.repo.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.AdjustTx(tx, partID, loc, delta, ref)
	})
}

// AdjustTx is Adjust running inside a caller-owned transaction, so a
// business action can bundle several ledger effects with its own state
// change.
func (s *LedgerService) AdjustTx(tx *gorm.DB, partID string, loc entity.Location, delta int64, ref MovementRef) error {
	if err := s.applyDelta(tx, partID, loc, delta); err != nil {
		return err
	}
	move := &entity.LedgerMovement{
		PartID:        partID,
		LocationKind:  loc.Kind,
		LocationID:    loc.ID,
		Delta:         delta,
		Kind:          ref.Kind,
		ReferenceType: ref.RefType,
		ReferenceID:   ref.RefID,
		ActorID:       ref.ActorID,
		Notes:         ref.Notes,
	}
	if err := s.repo.CreateMovement(tx, move); err != nil {
		return fmt.Errorf("journal movement: %w", err)
	}
	return nil
}

// applyDelta lands the guarded update, creating the row first when a
// positive delta targets a key with no entry yet. A lost insert race
// falls through to one more guarded update; after maxRetries it
// surfaces as ErrConcurrentModification.
func (s *LedgerService) applyDelta(tx *gorm.DB, partID string, loc entity.Location, delta int64) error {
	for attempt := 0; attempt < maxRetries; attempt++ {
		rows, err := s.repo.ApplyDelta(tx, partID, loc, delta)
		if err != nil {
			return fmt.Errorf("apply ledger delta: %w", err)
		}
		if rows > 0 {
			return nil
		}
		exists, err := s.repo.Exists(tx, partID, loc)
		if err != nil {
			return fmt.Errorf("check ledger entry: %w", err)
		}
		if exists {
			// Row is present but the guard rejected the delta.
			return fmt.Errorf("%w: part %s at %s/%s, delta %d",
				ErrInsufficientQuantity, partID, loc.Kind, loc.ID, delta)
		}
		if delta < 0 {
			// Missing row reads as zero; any debit from zero fails.
			return fmt.Errorf("%w: part %s at %s/%s has no stock",
				ErrInsufficientQuantity, partID, loc.Kind, loc.ID)
		}
		inserted, err := s.repo.InsertEntry(tx, &entity.LedgerEntry{
			PartID:       partID,
			LocationKind: loc.Kind,
			LocationID:   loc.ID,
			Quantity:     delta,
		})
		if err != nil {
			return fmt.Errorf("create ledger entry: %w", err)
		}
		if inserted {
			return nil
		}
		// Another writer created the row between our update and
		// insert; loop back to the guarded update.
	}
	return ErrConcurrentModification
}

// Transfer moves qty from one location to another as a single unit:
// debit, credit and both journal rows commit or roll back together.
func (s *LedgerService) Transfer(ctx context.Context, partID string, from, to entity.Location, qty int64, ref MovementRef) error {
	return s.repo.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.TransferTx(tx, partID, from, to, qty, ref)
	})
}

// TransferTx is Transfer inside a caller-owned transaction.
func (s *LedgerService) TransferTx(tx *gorm.DB, partID string, from, to entity.Location, qty int64, ref MovementRef) error {
	if qty <= 0 {
		return fmt.Errorf("%w: transfer qty must be positive", ErrPreconditionNotMet)
	}
	if err := s.AdjustTx(tx, partID, from, -qty, ref); err != nil {
		return err
	}
	if err := s.AdjustTx(tx, partID, to, qty, ref); err != nil {
		return err
	}
	return nil
}

// SetAvgUnitCost records the valuation of a storage or damaged bucket
// entry. Balance-neutral; no journal row.
func (s *LedgerService) SetAvgUnitCost(ctx context.Context, partID string, loc entity.Location, cost decimal.Decimal) error {
	return s.repo.DB().WithContext(ctx).Model(&entity.LedgerEntry{}).
		Where("part_id = ? AND location_kind = ? AND location_id = ?", partID, loc.Kind, loc.ID).
		Update("avg_unit_cost", cost).Error
}
