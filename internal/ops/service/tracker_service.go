package service

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/Abid-Al-Labib/erp-base-sub003/internal/ops/entity"
	"github.com/Abid-Al-Labib/erp-base-sub003/internal/ops/repository"
)

// TrackerService keeps the append-only status history and derives
// per-step progress from it.
type TrackerService struct {
	repo      *repository.TrackerRepository
	orderRepo *repository.OrderRepository
	catalog   *WorkflowService
}

func NewTrackerService(repo *repository.TrackerRepository, orderRepo *repository.OrderRepository, catalog *WorkflowService) *TrackerService {
	return &TrackerService{repo: repo, orderRepo: orderRepo, catalog: catalog}
}

// Record appends a tracker entry. Fails only when the order does not
// exist.
func (s *TrackerService) Record(orderID string, statusID int, action, actorID, note string, at time.Time) (*entity.StatusTrackerEntry, error) {
	exists, err := s.orderRepo.Exists(orderID)
	if err != nil {
		return nil, fmt.Errorf("check order: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("order %s not found", orderID)
	}
	entry := &entity.StatusTrackerEntry{
		OrderID:  orderID,
		StatusID: statusID,
		Action:   action,
		ActionBy: actorID,
		Note:     note,
		ActionAt: at,
	}
	if err := s.repo.Create(s.orderRepo.DB(), entry); err != nil {
		return nil, fmt.Errorf("record status: %w", err)
	}
	return entry, nil
}

// RecordTx appends a tracker entry inside a caller-owned transaction;
// existence of the order is the caller's concern (it holds the row).
func (s *TrackerService) RecordTx(tx *gorm.DB, entry *entity.StatusTrackerEntry) error {
	return s.repo.Create(tx, entry)
}

// HistoryFor returns the audit trail, action time ascending.
func (s *TrackerService) HistoryFor(orderID string) ([]entity.StatusTrackerEntry, error) {
	return s.repo.ListByOrder(orderID)
}

// Progress reconstructs which canonical steps are complete, which is
// current, and which are still pending for an order.
func (s *TrackerService) Progress(order *entity.Order) ([]entity.StepProgress, error) {
	seq, err := s.catalog.Sequence(order.OrderType)
	if err != nil {
		return nil, err
	}
	history, err := s.repo.ListByOrder(order.ID)
	if err != nil {
		return nil, err
	}
	visited := make(map[int]bool, len(history))
	for _, e := range history {
		visited[e.StatusID] = true
	}
	progress := make([]entity.StepProgress, 0, len(seq))
	for i, statusID := range seq {
		state := entity.StepPending
		switch {
		case statusID == order.CurrentStatusID:
			state = entity.StepCurrent
		case visited[statusID]:
			state = entity.StepComplete
		}
		progress = append(progress, entity.StepProgress{
			Position: i + 1,
			StatusID: statusID,
			State:    state,
		})
	}
	return progress, nil
}
