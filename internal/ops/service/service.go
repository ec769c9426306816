package service

import (
	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"

	"github.com/Abid-Al-Labib/erp-base-sub003/internal/ops/repository"
)

// Services bundles the engine's service layer.
type Services struct {
	Ledger   *LedgerService
	Workflow *WorkflowService
	Tracker  *TrackerService
	Movement *MovementService
	Order    *OrderService
	Loan     *LoanService
	Document *DocumentService
}

func NewServices(repos *repository.Repositories, notifier ChangeNotifier,
	minioClient *minio.Client, bucket string, logger *zap.Logger) *Services {
	ledger := NewLedgerService(repos.Ledger, logger)
	workflow := NewWorkflowService(repos.Workflow)
	tracker := NewTrackerService(repos.Tracker, repos.Order, workflow)
	movement := NewMovementService(repos.Order, repos.Machine, ledger, workflow, notifier, logger)
	order := NewOrderService(repos.Order, repos.Part, repos.Factory, workflow, tracker, movement, notifier, logger)
	loan := NewLoanService(repos.Loan, ledger, notifier, logger)
	document := NewDocumentService(repos.Document, repos.Order, minioClient, bucket, logger)
	return &Services{
		Ledger:   ledger,
		Workflow: workflow,
		Tracker:  tracker,
		Movement: movement,
		Order:    order,
		Loan:     loan,
		Document: document,
	}
}
