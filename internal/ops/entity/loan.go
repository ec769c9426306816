package entity

import "time"

// LoanTransfer is a two-phase reversible movement: quantity leaves the
// lender location when the transfer starts and returns when it completes.
// is_completed is flipped once by a conditional update; a transfer can
// never be completed twice.
type LoanTransfer struct {
	ID         string `json:"id" gorm:"primaryKey;type:uuid"`
	PartID     string `json:"part_id" gorm:"type:uuid;not null;index"`
	Qty        int64  `json:"qty" gorm:"not null"`
	LenderKind string `json:"lender_kind" gorm:"size:16;not null"` // STORAGE or MACHINE
	LenderID   string `json:"lender_id" gorm:"size:64;not null"`
	FactoryID  string `json:"factory_id" gorm:"size:64;not null;index"` // borrower factory
	MachineID  string `json:"machine_id" gorm:"size:64;not null;index"` // borrower machine

	IsCompleted bool       `json:"is_completed" gorm:"not null;default:false"`
	CompletedAt *time.Time `json:"completed_at"`
	CompletedBy string     `json:"completed_by" gorm:"size:64"`

	CreatedBy string    `json:"created_by" gorm:"size:64;not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (LoanTransfer) TableName() string {
	return "ops_loan_transfers"
}

// Lender returns the ledger location quantity was withdrawn from.
func (l *LoanTransfer) Lender() Location {
	return Location{Kind: l.LenderKind, ID: l.LenderID}
}

// Borrower returns the machine location holding the loaned quantity.
func (l *LoanTransfer) Borrower() Location {
	return MachineLoc(l.MachineID)
}
