package entity

import "time"

// Tracker actions. Advance walks the sequence forward, revise steps back
// one position, deny holds position with an audited entry.
const (
	TrackerActionAdvance = "advance"
	TrackerActionDeny    = "deny"
	TrackerActionRevise  = "revise"
)

// StatusTrackerEntry is the append-only audit trail of status changes.
// Never updated or deleted.
type StatusTrackerEntry struct {
	ID       uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	OrderID  string    `json:"order_id" gorm:"type:uuid;not null;index"`
	StatusID int       `json:"status_id" gorm:"not null"`
	Action   string    `json:"action" gorm:"size:16;not null;default:advance"`
	ActionBy string    `json:"action_by" gorm:"size:64;not null"`
	Note     string    `json:"note" gorm:"type:text"`
	ActionAt time.Time `json:"action_at" gorm:"not null;index"`
}

func (StatusTrackerEntry) TableName() string {
	return "ops_status_tracker"
}

// StepProgress states derived from the tracker against the canonical
// sequence.
const (
	StepComplete = "complete"
	StepCurrent  = "current"
	StepPending  = "pending"
)

// StepProgress is the derived state of one canonical workflow step for a
// given order.
type StepProgress struct {
	Position int    `json:"position"`
	StatusID int    `json:"status_id"`
	State    string `json:"state"`
}
