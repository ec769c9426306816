package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementKind values for the ledger journal.
const (
	MoveReceive       = "RECEIVE"        // goods entering storage/machine from outside
	MoveTransfer      = "TRANSFER"       // between two ledger locations
	MoveApproveDefect = "APPROVE_DEFECT" // machine -> damaged bucket on pending approval
	MoveLoanOut       = "LOAN_OUT"       // lender -> borrower machine
	MoveLoanReturn    = "LOAN_RETURN"    // borrower machine -> lender
	MoveScrap         = "SCRAP"          // damaged bucket writedown
	MoveAdjust        = "ADJUST"         // manual correction
)

// LedgerEntry holds the balance of one part at one location.
// Quantity never goes below zero; a missing row reads as zero.
// Mutated only through LedgerService, never by handlers.
type LedgerEntry struct {
	ID           string          `json:"id" gorm:"primaryKey;type:uuid"`
	PartID       string          `json:"part_id" gorm:"type:uuid;not null;uniqueIndex:idx_ledger_key"`
	LocationKind string          `json:"location_kind" gorm:"size:16;not null;uniqueIndex:idx_ledger_key"`
	LocationID   string          `json:"location_id" gorm:"size:64;not null;uniqueIndex:idx_ledger_key"`
	Quantity     int64           `json:"quantity" gorm:"not null;default:0"`
	AvgUnitCost  decimal.Decimal `json:"avg_unit_cost" gorm:"type:decimal(14,4);default:0"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func (LedgerEntry) TableName() string {
	return "ops_ledger_entries"
}

// LedgerMovement is the append-only movement journal. Signed delta:
// positive credits the location, negative debits it. Rows for a single
// transfer are written in the same transaction as the balance updates,
// so the journal always sums to the balances.
type LedgerMovement struct {
	ID           string    `json:"id" gorm:"primaryKey;type:uuid"`
	PartID       string    `json:"part_id" gorm:"type:uuid;not null;index"`
	LocationKind string    `json:"location_kind" gorm:"size:16;not null;index:idx_movement_loc"`
	LocationID   string    `json:"location_id" gorm:"size:64;not null;index:idx_movement_loc"`
	Delta        int64     `json:"delta" gorm:"not null"`
	Kind         string    `json:"kind" gorm:"size:20;not null"`
	ReferenceType string   `json:"reference_type" gorm:"size:20;not null"` // ORDER, ORDERED_PART, LOAN, AUDIT
	ReferenceID  string    `json:"reference_id" gorm:"size:64;not null"`
	ActorID      string    `json:"actor_id" gorm:"size:64;not null"`
	Notes        string    `json:"notes" gorm:"type:text"`
	CreatedAt    time.Time `json:"created_at"`
}

func (LedgerMovement) TableName() string {
	return "ops_ledger_movements"
}
