package entity

import "time"

// Machine statuses. A machine waiting on parts is inactive; it is
// reactivated automatically when its last open PFM order receives parts.
const (
	MachineStatusActive   = "active"
	MachineStatusInactive = "inactive"
)

// Factory is a site owning storage, machines and a damaged bucket.
type Factory struct {
	ID        string    `json:"id" gorm:"primaryKey;size:64"`
	Name      string    `json:"name" gorm:"size:128;not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Factory) TableName() string {
	return "ops_factories"
}

// Machine belongs to a factory and can hold part quantity on its ledger
// location.
type Machine struct {
	ID        string    `json:"id" gorm:"primaryKey;size:64"`
	FactoryID string    `json:"factory_id" gorm:"size:64;not null;index"`
	Name      string    `json:"name" gorm:"size:128;not null"`
	Status    string    `json:"status" gorm:"size:16;not null;default:active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Machine) TableName() string {
	return "ops_machines"
}

// Part is a part/material type. Immutable once referenced by ledger rows.
type Part struct {
	ID        string    `json:"id" gorm:"primaryKey;type:uuid"`
	Name      string    `json:"name" gorm:"size:128;not null"`
	Unit      string    `json:"unit" gorm:"size:20;not null;default:pcs"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Part) TableName() string {
	return "ops_parts"
}
