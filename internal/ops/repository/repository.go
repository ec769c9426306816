package repository

import "gorm.io/gorm"

// Repositories bundles all ops repositories over one gorm connection.
type Repositories struct {
	Ledger   *LedgerRepository
	Order    *OrderRepository
	Workflow *WorkflowRepository
	Tracker  *TrackerRepository
	Loan     *LoanRepository
	Machine  *MachineRepository
	Part     *PartRepository
	Factory  *FactoryRepository
	Document *DocumentRepository

	db *gorm.DB
}

func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Ledger:   NewLedgerRepository(db),
		Order:    NewOrderRepository(db),
		Workflow: NewWorkflowRepository(db),
		Tracker:  NewTrackerRepository(db),
		Loan:     NewLoanRepository(db),
		Machine:  NewMachineRepository(db),
		Part:     NewPartRepository(db),
		Factory:  NewFactoryRepository(db),
		Document: NewDocumentRepository(db),
		db:       db,
	}
}

// DB returns the underlying connection for cross-repository transactions.
func (r *Repositories) DB() *gorm.DB {
	return r.db
}
