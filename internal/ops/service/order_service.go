package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Abid-Al-Labib/erp-base-sub003/internal/ops/entity"
	"github.com/Abid-Al-Labib/erp-base-sub003/internal/ops/repository"
)

// OrderService is the per-order state machine: it validates and executes
// one forward step along the order type's status sequence, plus the
// deny/revise side paths. Ledger side effects bound to a status run in
// the same transaction as the status change and the tracker entry, so a
// caller never observes partial success.
type OrderService struct {
	orderRepo   *repository.OrderRepository
	partRepo    *repository.PartRepository
	factoryRepo *repository.FactoryRepository
	catalog     *WorkflowService
	tracker     *TrackerService
	movement    *MovementService
	notifier    ChangeNotifier
	logger      *zap.Logger
}

func NewOrderService(orderRepo *repository.OrderRepository, partRepo *repository.PartRepository,
	factoryRepo *repository.FactoryRepository, catalog *WorkflowService,
	tracker *TrackerService, movement *MovementService, notifier ChangeNotifier, logger *zap.Logger) *OrderService {
	return &OrderService{
		orderRepo:   orderRepo,
		partRepo:    partRepo,
		factoryRepo: factoryRepo,
		catalog:     catalog,
		tracker:     tracker,
		movement:    movement,
		notifier:    notifier,
		logger:      logger,
	}
}

// CreateOrderRequest opens a new order in its workflow's first status.
type CreateOrderRequest struct {
	OrderType    string            `json:"order_type" binding:"required"`
	FactoryID    string            `json:"factory_id" binding:"required"`
	MachineID    *string           `json:"machine_id"`
	SrcFactoryID *string           `json:"src_factory_id"`
	Note         string            `json:"note"`
	Parts        []CreateOrderPart `json:"parts" binding:"required,min=1"`
}

type CreateOrderPart struct {
	PartID      string `json:"part_id" binding:"required"`
	Qty         int64  `json:"qty" binding:"required,gt=0"`
	FromStorage bool   `json:"from_storage"`
}

func (s *OrderService) Create(ctx context.Context, req CreateOrderRequest, actorID string) (*entity.Order, error) {
	first, err := s.catalog.First(req.OrderType)
	if err != nil {
		return nil, err
	}
	if err := s.validateReferences(req); err != nil {
		return nil, err
	}
	order := &entity.Order{
		OrderType:       req.OrderType,
		FactoryID:       req.FactoryID,
		MachineID:       req.MachineID,
		SrcFactoryID:    req.SrcFactoryID,
		CurrentStatusID: first,
		Note:            req.Note,
		CreatedBy:       actorID,
	}
	for _, p := range req.Parts {
		order.Parts = append(order.Parts, entity.OrderedPart{
			PartID:      p.PartID,
			Qty:         p.Qty,
			FromStorage: p.FromStorage,
		})
	}
	// Order row and its creation history entry land together.
	err = s.orderRepo.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.orderRepo.Create(tx, order); err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		return s.tracker.RecordTx(tx, &entity.StatusTrackerEntry{
			OrderID:  order.ID,
			StatusID: first,
			Action:   entity.TrackerActionAdvance,
			ActionBy: actorID,
			Note:     "order created",
			ActionAt: time.Now(),
		})
	})
	if err != nil {
		return nil, err
	}
	s.notifier.EntityChanged("order", order.ID, "created")
	return order, nil
}

// validateReferences rejects orders pointing at factories or parts
// that do not exist, before anything is written.
func (s *OrderService) validateReferences(req CreateOrderRequest) error {
	factories := []string{req.FactoryID}
	if req.SrcFactoryID != nil {
		factories = append(factories, *req.SrcFactoryID)
	}
	for _, id := range factories {
		if _, err := s.factoryRepo.GetByID(id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: factory %s does not exist", ErrPreconditionNotMet, id)
			}
			return fmt.Errorf("check factory: %w", err)
		}
	}
	for _, p := range req.Parts {
		if _, err := s.partRepo.GetByID(p.PartID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: part %s does not exist", ErrPreconditionNotMet, p.PartID)
			}
			return fmt.Errorf("check part: %w", err)
		}
	}
	return nil
}

func (s *OrderService) GetByID(id string) (*entity.Order, error) {
	return s.orderRepo.GetByID(id)
}

func (s *OrderService) List(params repository.OrderListParams) ([]entity.Order, int64, error) {
	return s.orderRepo.List(params)
}

func (s *OrderService) Delete(ctx context.Context, id string) error {
	if err := s.orderRepo.Delete(id); err != nil {
		return fmt.Errorf("delete order: %w", err)
	}
	s.notifier.EntityChanged("order", id, "deleted")
	return nil
}

// Progress derives complete/current/pending per canonical step.
func (s *OrderService) Progress(id string) ([]entity.StepProgress, error) {
	order, err := s.orderRepo.GetByID(id)
	if err != nil {
		return nil, fmt.Errorf("order not found: %w", err)
	}
	return s.tracker.Progress(order)
}

// Advance moves the order one step forward. Retries the whole step a
// bounded number of times when a concurrent advance wins the status CAS,
// recomputing the next status each time so the same transition is never
// applied twice.
func (s *OrderService) Advance(ctx context.Context, orderID, actorID string) (int, error) {
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		next, err := s.advanceOnce(ctx, orderID, actorID)
		if err == nil {
			s.notifier.EntityChanged("order", orderID, "advanced")
			return next, nil
		}
		if !errors.Is(err, ErrConcurrentModification) {
			return 0, err
		}
		lastErr = err
	}
	return 0, lastErr
}

func (s *OrderService) advanceOnce(ctx context.Context, orderID, actorID string) (int, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return 0, fmt.Errorf("order not found: %w", err)
	}

	terminal, err := s.catalog.IsTerminal(order.OrderType, order.CurrentStatusID)
	if err != nil {
		return 0, err
	}
	if terminal {
		return 0, fmt.Errorf("%w: order %s at status %d", ErrAlreadyTerminal, order.ID, order.CurrentStatusID)
	}
	next, ok, err := s.catalog.NextStatus(order.OrderType, order.CurrentStatusID)
	if err != nil {
		return 0, err
	}
	if !ok {
		// Not terminal and no successor: the stored status is foreign
		// to the sequence. A data error, not a workflow end.
		return 0, fmt.Errorf("%w: status %d is not in the %s sequence",
			ErrNoNextStatus, order.CurrentStatusID, order.OrderType)
	}

	err = s.orderRepo.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Status-bound side effects run first; a failure here keeps
		// the status where it was.
		if err := s.sideEffects(tx, order, next); err != nil {
			return err
		}
		moved, err := s.orderRepo.UpdateStatusCAS(tx, order.ID, order.CurrentStatusID, next)
		if err != nil {
			return fmt.Errorf("update status: %w", err)
		}
		if !moved {
			return ErrConcurrentModification
		}
		return s.tracker.RecordTx(tx, &entity.StatusTrackerEntry{
			OrderID:  order.ID,
			StatusID: next,
			Action:   entity.TrackerActionAdvance,
			ActionBy: actorID,
			ActionAt: time.Now(),
		})
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("order advanced",
		zap.String("order_id", order.ID),
		zap.String("order_type", order.OrderType),
		zap.Int("from", order.CurrentStatusID),
		zap.Int("to", next),
		zap.String("actor_id", actorID))
	return next, nil
}

// sideEffects applies the ledger/collaborator effects bound to entering
// a status.
func (s *OrderService) sideEffects(tx *gorm.DB, order *entity.Order, next int) error {
	// A PFM order reaching "machine parts received" reactivates the
	// machine when nothing else is keeping it down.
	if order.OrderType == entity.OrderTypePFM && next == entity.StatusMachinePartsReceived {
		if err := s.movement.ReactivateMachineIfIdle(tx, order); err != nil {
			return err
		}
		s.notifier.EntityChanged("machine", derefOr(order.MachineID, ""), "reactivation_checked")
	}
	return nil
}

// Deny records an audited rejection without moving the status.
func (s *OrderService) Deny(ctx context.Context, orderID, actorID, note string) error {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return fmt.Errorf("order not found: %w", err)
	}
	if _, err := s.tracker.Record(order.ID, order.CurrentStatusID, entity.TrackerActionDeny, actorID, note, time.Now()); err != nil {
		return err
	}
	s.notifier.EntityChanged("order", order.ID, "denied")
	return nil
}

// Revise steps the order back one position for rework. The backward
// move is itself an audited transition, not a mutation of history.
func (s *OrderService) Revise(ctx context.Context, orderID, actorID, note string) (int, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return 0, fmt.Errorf("order not found: %w", err)
	}
	prev, ok, err := s.catalog.Previous(order.OrderType, order.CurrentStatusID)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("%w: status %d has no predecessor in the %s sequence",
			ErrNoPreviousStatus, order.CurrentStatusID, order.OrderType)
	}
	err = s.orderRepo.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		moved, err := s.orderRepo.UpdateStatusCAS(tx, order.ID, order.CurrentStatusID, prev)
		if err != nil {
			return fmt.Errorf("update status: %w", err)
		}
		if !moved {
			return ErrConcurrentModification
		}
		return s.tracker.RecordTx(tx, &entity.StatusTrackerEntry{
			OrderID:  order.ID,
			StatusID: prev,
			Action:   entity.TrackerActionRevise,
			ActionBy: actorID,
			Note:     note,
			ActionAt: time.Now(),
		})
	})
	if err != nil {
		return 0, err
	}
	s.notifier.EntityChanged("order", order.ID, "revised")
	return prev, nil
}

func derefOr(s *string, fallback string) string {
	if s != nil {
		return *s
	}
	return fallback
}
