package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderType values.
const (
	OrderTypePFM = "PFM" // part for machine (purchase)
	OrderTypePFS = "PFS" // part for storage (purchase)
	OrderTypeSTM = "STM" // storage to machine (internal withdrawal)
)

// Order is a purchase or transfer order. current_status_id only moves
// forward along the workflow sequence for its order type, one step per
// advance; deny/revise are the only sanctioned side paths.
type Order struct {
	ID              string     `json:"id" gorm:"primaryKey;type:uuid"`
	OrderType       string     `json:"order_type" gorm:"size:8;not null;index"`
	FactoryID       string     `json:"factory_id" gorm:"size:64;not null;index"`
	MachineID       *string    `json:"machine_id" gorm:"size:64;index"`
	SrcFactoryID    *string    `json:"src_factory_id" gorm:"size:64"`
	CurrentStatusID int        `json:"current_status_id" gorm:"not null"`
	Note            string     `json:"note" gorm:"type:text"`
	CreatedBy       string     `json:"created_by" gorm:"size:64;not null"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`

	Parts []OrderedPart `json:"parts,omitempty" gorm:"foreignKey:OrderID"`
}

func (Order) TableName() string {
	return "ops_orders"
}

// OrderedPart is one line item of an order. The approved_* columns are
// one-way latches: written false->true by a conditional update and never
// reset by normal flow.
type OrderedPart struct {
	ID          string          `json:"id" gorm:"primaryKey;type:uuid"`
	OrderID     string          `json:"order_id" gorm:"type:uuid;not null;index"`
	PartID      string          `json:"part_id" gorm:"type:uuid;not null;index"`
	Qty         int64           `json:"qty" gorm:"not null"`
	FromStorage bool            `json:"from_storage" gorm:"not null;default:false"`
	Brand       string          `json:"brand" gorm:"size:128"`
	Vendor      string          `json:"vendor" gorm:"size:128"`
	UnitCost    decimal.Decimal `json:"unit_cost" gorm:"type:decimal(14,4);default:0"`

	ApprovedPendingOrder      bool `json:"approved_pending_order" gorm:"not null;default:false"`
	ApprovedBudget            bool `json:"approved_budget" gorm:"not null;default:false"`
	ApprovedStorageWithdrawal bool `json:"approved_storage_withdrawal" gorm:"not null;default:false"`
	ApprovedOfficeOrder       bool `json:"approved_office_order" gorm:"not null;default:false"`

	PurchasedAt          *time.Time `json:"purchased_at"`
	SentByOfficeAt       *time.Time `json:"sent_by_office_at"`
	ReceivedByFactoryAt  *time.Time `json:"received_by_factory_at"`
	InstalledAt          *time.Time `json:"installed_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Order *Order `json:"order,omitempty" gorm:"foreignKey:OrderID"`
}

func (OrderedPart) TableName() string {
	return "ops_ordered_parts"
}

// QuotationComplete reports whether the quotation fields a receive/return
// depends on have been filled in.
func (p *OrderedPart) QuotationComplete() bool {
	return p.Brand != "" && p.Vendor != "" && p.UnitCost.IsPositive()
}
