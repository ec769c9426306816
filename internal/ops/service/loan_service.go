package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Abid-Al-Labib/erp-base-sub003/internal/ops/entity"
	"github.com/Abid-Al-Labib/erp-base-sub003/internal/ops/repository"
)

// LoanService runs the two-phase loan movement: quantity is withdrawn
// from the lender when the transfer starts and restored when it
// completes. Row creation and ledger movement share one transaction, so
// a failed withdrawal leaves no transfer row behind; completion is
// guarded by a conditional is_completed flip.
type LoanService struct {
	loanRepo *repository.LoanRepository
	ledger   *LedgerService
	notifier ChangeNotifier
	logger   *zap.Logger
}

func NewLoanService(loanRepo *repository.LoanRepository, ledger *LedgerService,
	notifier ChangeNotifier, logger *zap.Logger) *LoanService {
	return &LoanService{loanRepo: loanRepo, ledger: ledger, notifier: notifier, logger: logger}
}

// StartLoanRequest describes the outgoing half of a loan.
type StartLoanRequest struct {
	PartID     string `json:"part_id" binding:"required"`
	Qty        int64  `json:"qty" binding:"required"`
	LenderKind string `json:"lender_kind" binding:"required"` // STORAGE or MACHINE
	LenderID   string `json:"lender_id" binding:"required"`
	FactoryID  string `json:"factory_id" binding:"required"` // borrower factory
	MachineID  string `json:"machine_id" binding:"required"` // borrower machine
}

func (r StartLoanRequest) validate() error {
	if r.PartID == "" || r.LenderID == "" || r.FactoryID == "" || r.MachineID == "" {
		return fmt.Errorf("%w: part, lender, factory and machine are required", ErrIncompleteTransferData)
	}
	if r.LenderKind != entity.LocationStorage && r.LenderKind != entity.LocationMachine {
		return fmt.Errorf("%w: lender must be a storage or machine location", ErrIncompleteTransferData)
	}
	if r.Qty <= 0 {
		return fmt.Errorf("%w: qty must be positive", ErrIncompleteTransferData)
	}
	return nil
}

// Start creates the transfer and withdraws from the lender as one unit.
func (s *LoanService) Start(ctx context.Context, req StartLoanRequest, actorID string) (*entity.LoanTransfer, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	loan := &entity.LoanTransfer{
		PartID:     req.PartID,
		Qty:        req.Qty,
		LenderKind: req.LenderKind,
		LenderID:   req.LenderID,
		FactoryID:  req.FactoryID,
		MachineID:  req.MachineID,
		CreatedBy:  actorID,
	}
	err := s.loanRepo.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.loanRepo.Create(tx, loan); err != nil {
			return fmt.Errorf("create loan transfer: %w", err)
		}
		ref := MovementRef{
			Kind:    entity.MoveLoanOut,
			RefType: "LOAN",
			RefID:   loan.ID,
			ActorID: actorID,
		}
		return s.ledger.TransferTx(tx, loan.PartID, loan.Lender(), loan.Borrower(), loan.Qty, ref)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("loan transfer started",
		zap.String("loan_id", loan.ID),
		zap.String("part_id", loan.PartID),
		zap.Int64("qty", loan.Qty),
		zap.String("lender", loan.LenderKind+"/"+loan.LenderID),
		zap.String("borrower_machine", loan.MachineID))
	s.notifier.EntityChanged("loan_transfer", loan.ID, "started")
	s.notifier.EntityChanged("ledger", loan.PartID, "moved")
	return loan, nil
}

// Complete reverses the loan movement exactly once.
func (s *LoanService) Complete(ctx context.Context, loanID, actorID string) error {
	loan, err := s.loanRepo.GetByID(loanID)
	if err != nil {
		return fmt.Errorf("loan transfer not found: %w", err)
	}
	if loan.PartID == "" || loan.Qty <= 0 || loan.MachineID == "" || loan.FactoryID == "" {
		return fmt.Errorf("%w: loan %s is missing required fields", ErrIncompleteTransferData, loanID)
	}
	if loan.IsCompleted {
		return fmt.Errorf("%w: loan %s", ErrAlreadyCompleted, loanID)
	}

	now := time.Now()
	err = s.loanRepo.DB().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The CAS is the idempotency guard: losing it means another
		// caller completed the loan, and the reversing movement must
		// not run again.
		done, err := s.loanRepo.CompleteCAS(tx, loan.ID, actorID, now)
		if err != nil {
			return fmt.Errorf("complete loan transfer: %w", err)
		}
		if !done {
			return fmt.Errorf("%w: loan %s", ErrAlreadyCompleted, loanID)
		}
		ref := MovementRef{
			Kind:    entity.MoveLoanReturn,
			RefType: "LOAN",
			RefID:   loan.ID,
			ActorID: actorID,
		}
		return s.ledger.TransferTx(tx, loan.PartID, loan.Borrower(), loan.Lender(), loan.Qty, ref)
	})
	if err != nil {
		return err
	}
	s.logger.Info("loan transfer completed",
		zap.String("loan_id", loan.ID),
		zap.String("actor_id", actorID))
	s.notifier.EntityChanged("loan_transfer", loan.ID, "completed")
	s.notifier.EntityChanged("ledger", loan.PartID, "moved")
	return nil
}

func (s *LoanService) GetByID(id string) (*entity.LoanTransfer, error) {
	return s.loanRepo.GetByID(id)
}

func (s *LoanService) List(completed *bool, page, size int) ([]entity.LoanTransfer, int64, error) {
	return s.loanRepo.List(completed, page, size)
}
