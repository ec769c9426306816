package entity

import "time"

// Canonical status ids shared by the default workflows. Test fixtures may
// seed their own sequences; nothing below is hard-coded outside seeding
// and the PFM receive side effect.
const (
	StatusPending              = 1
	StatusOfficeApproved       = 2
	StatusQuoted               = 3
	StatusBudgetApproved       = 4
	StatusPurchased            = 5
	StatusSentByOffice         = 6
	StatusReceivedByFactory    = 7
	StatusMachinePartsReceived = 8
	StatusStored               = 9
	StatusWithdrawalApproved   = 10
	StatusInstalled            = 11
)

// Status is a lookup row naming one workflow status.
type Status struct {
	ID   int    `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"size:64;not null"`
}

func (Status) TableName() string {
	return "ops_statuses"
}

// OrderWorkflow names the canonical status sequence of one order type.
// Immutable reference data, seeded at startup.
type OrderWorkflow struct {
	OrderType string    `json:"order_type" gorm:"primaryKey;size:8"`
	Name      string    `json:"name" gorm:"size:64;not null"`
	CreatedAt time.Time `json:"created_at"`
}

func (OrderWorkflow) TableName() string {
	return "ops_order_workflows"
}

// WorkflowStep is one position of a workflow's ordered status sequence.
type WorkflowStep struct {
	OrderType string `json:"order_type" gorm:"primaryKey;size:8"`
	Position  int    `json:"position" gorm:"primaryKey"`
	StatusID  int    `json:"status_id" gorm:"not null"`
}

func (WorkflowStep) TableName() string {
	return "ops_workflow_steps"
}
