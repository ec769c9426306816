package service

import (
	"fmt"
	"sync"

	"github.com/Abid-Al-Labib/erp-base-sub003/internal/ops/entity"
	"github.com/Abid-Al-Labib/erp-base-sub003/internal/ops/repository"
)

// WorkflowService is the catalog of per-order-type status sequences.
// The catalog is immutable reference data: it is read from the database
// once and served from memory afterwards.
type WorkflowService struct {
	repo *repository.WorkflowRepository

	mu        sync.RWMutex
	sequences map[string][]int
}

func NewWorkflowService(repo *repository.WorkflowRepository) *WorkflowService {
	return &WorkflowService{
		repo:      repo,
		sequences: make(map[string][]int),
	}
}

// Load reads the catalog from the database into memory. Called at
// startup after seeding.
func (s *WorkflowService) Load() error {
	steps, err := s.repo.ListSteps()
	if err != nil {
		return fmt.Errorf("load workflow steps: %w", err)
	}
	sequences := make(map[string][]int)
	for _, step := range steps {
		// ListSteps orders by (order_type, position).
		sequences[step.OrderType] = append(sequences[step.OrderType], step.StatusID)
	}
	s.mu.Lock()
	s.sequences = sequences
	s.mu.Unlock()
	return nil
}

// Sequence returns the canonical ordered status ids of an order type.
func (s *WorkflowService) Sequence(orderType string) ([]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seq, ok := s.sequences[orderType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownWorkflow, orderType)
	}
	out := make([]int, len(seq))
	copy(out, seq)
	return out, nil
}

// NextStatus returns the status after current in the sequence, or
// (0, false) when current is the last element or foreign to the
// sequence. Use IsTerminal / Contains to tell those apart.
func (s *WorkflowService) NextStatus(orderType string, current int) (int, bool, error) {
	seq, err := s.Sequence(orderType)
	if err != nil {
		return 0, false, err
	}
	for i, statusID := range seq {
		if statusID == current && i+1 < len(seq) {
			return seq[i+1], true, nil
		}
	}
	return 0, false, nil
}

// IsTerminal reports whether current is the last status of the sequence.
func (s *WorkflowService) IsTerminal(orderType string, current int) (bool, error) {
	seq, err := s.Sequence(orderType)
	if err != nil {
		return false, err
	}
	return len(seq) > 0 && seq[len(seq)-1] == current, nil
}

// Contains reports whether current appears anywhere in the sequence.
// False distinguishes a foreign/corrupt status from a terminal one.
func (s *WorkflowService) Contains(orderType string, current int) (bool, error) {
	seq, err := s.Sequence(orderType)
	if err != nil {
		return false, err
	}
	for _, statusID := range seq {
		if statusID == current {
			return true, nil
		}
	}
	return false, nil
}

// Previous returns the status before current, used by the revise side
// path. (0, false) when current is first or foreign.
func (s *WorkflowService) Previous(orderType string, current int) (int, bool, error) {
	seq, err := s.Sequence(orderType)
	if err != nil {
		return 0, false, err
	}
	for i, statusID := range seq {
		if statusID == current && i > 0 {
			return seq[i-1], true, nil
		}
	}
	return 0, false, nil
}

// First returns the initial status of the sequence, used at order
// creation.
func (s *WorkflowService) First(orderType string) (int, error) {
	seq, err := s.Sequence(orderType)
	if err != nil {
		return 0, err
	}
	if len(seq) == 0 {
		return 0, fmt.Errorf("%w: %s has an empty sequence", ErrUnknownWorkflow, orderType)
	}
	return seq[0], nil
}

// SeedDefaults writes the stock catalog (PFM, PFS, STM) and reloads the
// cache. Idempotent.
func (s *WorkflowService) SeedDefaults() error {
	statuses := []entity.Status{
		{ID: entity.StatusPending, Name: "Pending"},
		{ID: entity.StatusOfficeApproved, Name: "Office Approved"},
		{ID: entity.StatusQuoted, Name: "Quoted"},
		{ID: entity.StatusBudgetApproved, Name: "Budget Approved"},
		{ID: entity.StatusPurchased, Name: "Purchased"},
		{ID: entity.StatusSentByOffice, Name: "Sent By Office"},
		{ID: entity.StatusReceivedByFactory, Name: "Received By Factory"},
		{ID: entity.StatusMachinePartsReceived, Name: "Machine Parts Received"},
		{ID: entity.StatusStored, Name: "Stored"},
		{ID: entity.StatusWithdrawalApproved, Name: "Withdrawal Approved"},
		{ID: entity.StatusInstalled, Name: "Installed"},
	}
	workflows := []entity.OrderWorkflow{
		{OrderType: entity.OrderTypePFM, Name: "Part For Machine"},
		{OrderType: entity.OrderTypePFS, Name: "Part For Storage"},
		{OrderType: entity.OrderTypeSTM, Name: "Storage To Machine"},
	}
	sequences := map[string][]int{
		entity.OrderTypePFM: {
			entity.StatusPending, entity.StatusOfficeApproved, entity.StatusQuoted,
			entity.StatusBudgetApproved, entity.StatusPurchased, entity.StatusSentByOffice,
			entity.StatusReceivedByFactory, entity.StatusMachinePartsReceived,
		},
		entity.OrderTypePFS: {
			entity.StatusPending, entity.StatusOfficeApproved, entity.StatusQuoted,
			entity.StatusBudgetApproved, entity.StatusPurchased, entity.StatusSentByOffice,
			entity.StatusReceivedByFactory, entity.StatusStored,
		},
		entity.OrderTypeSTM: {
			entity.StatusPending, entity.StatusWithdrawalApproved, entity.StatusInstalled,
		},
	}
	var steps []entity.WorkflowStep
	for orderType, seq := range sequences {
		for i, statusID := range seq {
			steps = append(steps, entity.WorkflowStep{
				OrderType: orderType,
				Position:  i + 1,
				StatusID:  statusID,
			})
		}
	}
	if err := s.repo.Seed(statuses, workflows, steps); err != nil {
		return fmt.Errorf("seed workflows: %w", err)
	}
	return s.Load()
}
