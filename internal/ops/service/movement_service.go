package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Abid-Al-Labib/erp-base-sub003/internal/ops/entity"
	"github.com/Abid-Al-Labib/erp-base-sub003/internal/ops/repository"
)

// ChangeNotifier pushes "changed" signals to other open sessions after
// a mutation commits. Transport is a collaborator concern.
type ChangeNotifier interface {
	EntityChanged(entityType, entityID, action string)
}

// Ordered-part action names accepted by Apply.
const (
	ActionApprovePendingFromFactory = "approve_pending_from_factory"
	ActionApproveOfficeOrder        = "approve_office_order"
	ActionApproveBudget             = "approve_budget"
	ActionApproveStorageWithdrawal  = "approve_storage_withdrawal"
	ActionSetQuotation              = "set_quotation"
	ActionMarkPurchased             = "mark_purchased"
	ActionMarkSentByOffice          = "mark_sent_by_office"
	ActionReceiveAtFactory          = "receive_at_factory"
	ActionInstallFromStorage        = "install_from_storage"
)

// MovementService translates named business actions on ordered parts
// into ledger effects plus flag/date updates, applied together in one
// transaction. Approval flags are one-way latches flipped by conditional
// updates, which doubles as the double-submission guard: the latch is
// taken first, so a duplicate click rolls back before touching the
// ledger.
type MovementService struct {
	orderRepo   *repository.OrderRepository
	machineRepo *repository.MachineRepository
	ledger      *LedgerService
	catalog     *WorkflowService
	notifier    ChangeNotifier
	logger      *zap.Logger
}

func NewMovementService(orderRepo *repository.OrderRepository, machineRepo *repository.MachineRepository,
	ledger *LedgerService, catalog *WorkflowService, notifier ChangeNotifier, logger *zap.Logger) *MovementService {
	return &MovementService{
		orderRepo:   orderRepo,
		machineRepo: machineRepo,
		ledger:      ledger,
		catalog:     catalog,
		notifier:    notifier,
		logger:      logger,
	}
}

// ActionParams carries the optional inputs of an ordered-part action.
type ActionParams struct {
	Brand    string          `json:"brand"`
	Vendor   string          `json:"vendor"`
	UnitCost decimal.Decimal `json:"unit_cost"`
}

// Apply dispatches an action by name.
func (s *MovementService) Apply(ctx context.Context, action, orderedPartID, actorID string, params ActionParams) error {
	switch action {
	case ActionApprovePendingFromFactory:
		return s.ApprovePendingFromFactory(ctx, orderedPartID, actorID)
	case ActionApproveOfficeOrder:
		return s.latchOnly(ctx, orderedPartID, actorID, "approved_office_order", action)
	case ActionApproveBudget:
		return s.ApproveBudget(ctx, orderedPartID, actorID)
	case ActionApproveStorageWithdrawal:
		return s.ApproveStorageWithdrawal(ctx, orderedPartID, actorID)
	case ActionSetQuotation:
		return s.SetQuotation(ctx, orderedPartID, actorID, params)
	case ActionMarkPurchased:
		return s.MarkPurchased(ctx, orderedPartID, actorID)
	case ActionMarkSentByOffice:
		return s.MarkSentByOffice(ctx, orderedPartID, actorID)
	case ActionReceiveAtFactory:
		return s.ReceiveAtFactory(ctx, orderedPartID, actorID)
	case ActionInstallFromStorage:
		return s.InstallFromStorage(ctx, orderedPartID, actorID)
	default:
		return fmt.Errorf("unknown action %q", action)
	}
}

func (s *MovementService) loadPart(id string) (*entity.OrderedPart, *entity.Order, error) {
	part, err := s.orderRepo.GetOrderedPart(id)
	if err != nil {
		return nil, nil, fmt.Errorf("ordered part not found: %w", err)
	}
	if part.Order == nil {
		return nil, nil, fmt.Errorf("ordered part %s has no order", id)
	}
	return part, part.Order, nil
}

// ApprovePendingFromFactory handles the defective-part approval on a
// machine order not sourced from storage: the defective quantity moves
// from the machine to the factory's damaged bucket, pending replacement.
func (s *MovementService) ApprovePendingFromFactory(ctx context.Context, orderedPartID, actorID string) error {
	part, order, err := s.loadPart(orderedPartID)
	if err != nil {
		return err
	}
	if order.OrderType != entity.OrderTypePFM || order.MachineID == nil {
		return fmt.Errorf("%w: pending approval applies to machine orders only", ErrPreconditionNotMet)
	}
	if part.FromStorage {
		return fmt.Errorf("%w: part is sourced from storage, use storage withdrawal approval", ErrPreconditionNotMet)
	}

	err = s.orderRepo.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		latched, err := s.orderRepo.LatchApproval(tx, part.ID, "approved_pending_order")
		if err != nil {
			return fmt.Errorf("latch pending approval: %w", err)
		}
		if !latched {
			return ErrAlreadyApproved
		}
		ref := MovementRef{
			Kind:    entity.MoveApproveDefect,
			RefType: "ORDERED_PART",
			RefID:   part.ID,
			ActorID: actorID,
		}
		if err := s.ledger.TransferTx(tx, part.PartID,
			entity.MachineLoc(*order.MachineID), entity.DamagedLoc(order.FactoryID),
			part.Qty, ref); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.notifier.EntityChanged("ordered_part", part.ID, ActionApprovePendingFromFactory)
	s.notifier.EntityChanged("ledger", part.PartID, "moved")
	return nil
}

// latchOnly flips a pure approval latch with no ledger effect.
func (s *MovementService) latchOnly(ctx context.Context, orderedPartID, actorID, column, action string) error {
	part, _, err := s.loadPart(orderedPartID)
	if err != nil {
		return err
	}
	latched, err := s.orderRepo.LatchApproval(s.orderRepo.DB().WithContext(ctx), part.ID, column)
	if err != nil {
		return fmt.Errorf("latch %s: %w", column, err)
	}
	if !latched {
		return ErrAlreadyApproved
	}
	s.logger.Info("approval latched",
		zap.String("ordered_part_id", part.ID),
		zap.String("latch", column),
		zap.String("actor_id", actorID))
	s.notifier.EntityChanged("ordered_part", part.ID, action)
	return nil
}

// ApproveBudget requires the quotation to be filled in first.
func (s *MovementService) ApproveBudget(ctx context.Context, orderedPartID, actorID string) error {
	part, _, err := s.loadPart(orderedPartID)
	if err != nil {
		return err
	}
	if !part.QuotationComplete() {
		return fmt.Errorf("%w: quotation (brand, vendor, unit cost) must be set before budget approval", ErrPreconditionNotMet)
	}
	return s.latchOnly(ctx, orderedPartID, actorID, "approved_budget", ActionApproveBudget)
}

// ApproveStorageWithdrawal gates the storage-sourced install path.
func (s *MovementService) ApproveStorageWithdrawal(ctx context.Context, orderedPartID, actorID string) error {
	part, _, err := s.loadPart(orderedPartID)
	if err != nil {
		return err
	}
	if !part.FromStorage {
		return fmt.Errorf("%w: part is not sourced from storage", ErrPreconditionNotMet)
	}
	return s.latchOnly(ctx, orderedPartID, actorID, "approved_storage_withdrawal", ActionApproveStorageWithdrawal)
}

// SetQuotation records brand, vendor and unit cost during quotation.
func (s *MovementService) SetQuotation(ctx context.Context, orderedPartID, actorID string, params ActionParams) error {
	part, _, err := s.loadPart(orderedPartID)
	if err != nil {
		return err
	}
	if params.Brand == "" || params.Vendor == "" || !params.UnitCost.IsPositive() {
		return fmt.Errorf("%w: quotation needs brand, vendor and a positive unit cost", ErrPreconditionNotMet)
	}
	err = s.orderRepo.UpdatePartFields(s.orderRepo.DB().WithContext(ctx), part.ID, map[string]interface{}{
		"brand":     params.Brand,
		"vendor":    params.Vendor,
		"unit_cost": params.UnitCost,
	})
	if err != nil {
		return fmt.Errorf("set quotation: %w", err)
	}
	s.notifier.EntityChanged("ordered_part", part.ID, ActionSetQuotation)
	return nil
}

// markMilestone stamps a nullable date column once.
func (s *MovementService) markMilestone(ctx context.Context, partID, column string) error {
	res := s.orderRepo.DB().WithContext(ctx).Model(&entity.OrderedPart{}).
		Where("id = ? AND "+column+" IS NULL", partID).
		Updates(map[string]interface{}{column: time.Now(), "updated_at": time.Now()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s already set", ErrAlreadyApproved, column)
	}
	return nil
}

// MarkPurchased requires the quotation and budget approval.
func (s *MovementService) MarkPurchased(ctx context.Context, orderedPartID, actorID string) error {
	part, _, err := s.loadPart(orderedPartID)
	if err != nil {
		return err
	}
	if !part.QuotationComplete() || !part.ApprovedBudget {
		return fmt.Errorf("%w: purchase needs a complete quotation and budget approval", ErrPreconditionNotMet)
	}
	if err := s.markMilestone(ctx, part.ID, "purchased_at"); err != nil {
		return err
	}
	s.notifier.EntityChanged("ordered_part", part.ID, ActionMarkPurchased)
	return nil
}

// MarkSentByOffice requires the purchase milestone.
func (s *MovementService) MarkSentByOffice(ctx context.Context, orderedPartID, actorID string) error {
	part, _, err := s.loadPart(orderedPartID)
	if err != nil {
		return err
	}
	if part.PurchasedAt == nil {
		return fmt.Errorf("%w: part has not been purchased", ErrPreconditionNotMet)
	}
	if err := s.markMilestone(ctx, part.ID, "sent_by_office_at"); err != nil {
		return err
	}
	s.notifier.EntityChanged("ordered_part", part.ID, ActionMarkSentByOffice)
	return nil
}

// ReceiveAtFactory stamps the received date and credits the destination
// ledger location: storage for PFS orders, the machine for PFM orders.
// External goods entering the ledger, unbalanced by design.
func (s *MovementService) ReceiveAtFactory(ctx context.Context, orderedPartID, actorID string) error {
	part, order, err := s.loadPart(orderedPartID)
	if err != nil {
		return err
	}
	if !part.QuotationComplete() || !part.ApprovedBudget {
		return fmt.Errorf("%w: receive needs a complete quotation and budget approval", ErrPreconditionNotMet)
	}
	if part.PurchasedAt == nil || part.SentByOfficeAt == nil {
		return fmt.Errorf("%w: purchase and ship dates must be set before receiving", ErrPreconditionNotMet)
	}

	var dest entity.Location
	switch order.OrderType {
	case entity.OrderTypePFS:
		dest = entity.StorageLoc(order.FactoryID)
	case entity.OrderTypePFM:
		if order.MachineID == nil {
			return fmt.Errorf("%w: machine order without a machine", ErrPreconditionNotMet)
		}
		dest = entity.MachineLoc(*order.MachineID)
	default:
		return fmt.Errorf("%w: order type %s does not receive goods", ErrPreconditionNotMet, order.OrderType)
	}

	err = s.orderRepo.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&entity.OrderedPart{}).
			Where("id = ? AND received_by_factory_at IS NULL", part.ID).
			Updates(map[string]interface{}{"received_by_factory_at": time.Now(), "updated_at": time.Now()})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: already received", ErrAlreadyApproved)
		}
		ref := MovementRef{
			Kind:    entity.MoveReceive,
			RefType: "ORDERED_PART",
			RefID:   part.ID,
			ActorID: actorID,
		}
		if err := s.ledger.AdjustTx(tx, part.PartID, dest, part.Qty, ref); err != nil {
			return err
		}
		// Valuation of the received stock.
		return tx.Model(&entity.LedgerEntry{}).
			Where("part_id = ? AND location_kind = ? AND location_id = ?", part.PartID, dest.Kind, dest.ID).
			Update("avg_unit_cost", part.UnitCost).Error
	})
	if err != nil {
		return err
	}
	s.notifier.EntityChanged("ordered_part", part.ID, ActionReceiveAtFactory)
	s.notifier.EntityChanged("ledger", part.PartID, "moved")
	return nil
}

// InstallFromStorage moves an approved storage-sourced part onto the
// order's machine (the STM withdrawal).
func (s *MovementService) InstallFromStorage(ctx context.Context, orderedPartID, actorID string) error {
	part, order, err := s.loadPart(orderedPartID)
	if err != nil {
		return err
	}
	if !part.FromStorage || !part.ApprovedStorageWithdrawal {
		return fmt.Errorf("%w: storage withdrawal has not been approved", ErrPreconditionNotMet)
	}
	if order.MachineID == nil {
		return fmt.Errorf("%w: order has no destination machine", ErrPreconditionNotMet)
	}
	srcFactory := order.FactoryID
	if order.SrcFactoryID != nil {
		srcFactory = *order.SrcFactoryID
	}

	err = s.orderRepo.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The install marker doubles as the double-submission guard:
		// it is stamped first, so a duplicate rolls back before the
		// ledger moves.
		res := tx.Model(&entity.OrderedPart{}).
			Where("id = ? AND installed_at IS NULL", part.ID).
			Updates(map[string]interface{}{"installed_at": time.Now(), "updated_at": time.Now()})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: already installed", ErrAlreadyApproved)
		}
		ref := MovementRef{
			Kind:    entity.MoveTransfer,
			RefType: "ORDERED_PART",
			RefID:   part.ID,
			ActorID: actorID,
		}
		return s.ledger.TransferTx(tx, part.PartID,
			entity.StorageLoc(srcFactory), entity.MachineLoc(*order.MachineID),
			part.Qty, ref)
	})
	if err != nil {
		return err
	}
	s.notifier.EntityChanged("ordered_part", part.ID, ActionInstallFromStorage)
	s.notifier.EntityChanged("ledger", part.PartID, "moved")
	return nil
}

// ScrapDamaged writes down quantity from a factory's damaged bucket.
// Explicitly unbalanced: the stock leaves the ledger.
func (s *MovementService) ScrapDamaged(ctx context.Context, factoryID, partID string, qty int64, actorID, reason string) error {
	if qty <= 0 {
		return fmt.Errorf("%w: scrap qty must be positive", ErrPreconditionNotMet)
	}
	err := s.ledger.Adjust(ctx, partID, entity.DamagedLoc(factoryID), -qty, MovementRef{
		Kind:    entity.MoveScrap,
		RefType: "ADJUST",
		RefID:   factoryID,
		ActorID: actorID,
		Notes:   reason,
	})
	if err != nil {
		return err
	}
	s.notifier.EntityChanged("ledger", partID, "scrapped")
	return nil
}

// ReactivateMachineIfIdle flips the order's machine back to active when
// no other order for it is still open. Runs inside the advance
// transaction so a failure blocks the status from moving.
func (s *MovementService) ReactivateMachineIfIdle(tx *gorm.DB, order *entity.Order) error {
	if order.MachineID == nil {
		return nil
	}
	others, err := s.orderRepo.ListOpenForMachine(tx, *order.MachineID, order.ID)
	if err != nil {
		return fmt.Errorf("list machine orders: %w", err)
	}
	for _, other := range others {
		terminal, err := s.catalog.IsTerminal(other.OrderType, other.CurrentStatusID)
		if err != nil || !terminal {
			// An unknown workflow counts as open rather than silently done.
			return nil
		}
	}
	if err := s.machineRepo.UpdateStatus(tx, *order.MachineID, entity.MachineStatusActive); err != nil {
		return fmt.Errorf("reactivate machine: %w", err)
	}
	s.logger.Info("machine reactivated",
		zap.String("machine_id", *order.MachineID),
		zap.String("order_id", order.ID))
	return nil
}
