package repository

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Abid-Al-Labib/erp-base-sub003/internal/ops/entity"
)

type OrderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

func (r *OrderRepository) Create(tx *gorm.DB, order *entity.Order) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	for i := range order.Parts {
		if order.Parts[i].ID == "" {
			order.Parts[i].ID = uuid.New().String()
		}
		order.Parts[i].OrderID = order.ID
	}
	return tx.Create(order).Error
}

func (r *OrderRepository) GetByID(id string) (*entity.Order, error) {
	var order entity.Order
	err := r.db.Preload("Parts").First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *OrderRepository) Exists(id string) (bool, error) {
	var count int64
	err := r.db.Model(&entity.Order{}).Where("id = ?", id).Count(&count).Error
	return count > 0, err
}

// UpdateStatusCAS moves current_status_id from -> to only when the order
// is still at from. Zero rows means a concurrent writer got there first.
func (r *OrderRepository) UpdateStatusCAS(tx *gorm.DB, orderID string, from, to int) (bool, error) {
	res := tx.Model(&entity.Order{}).
		Where("id = ? AND current_status_id = ?", orderID, from).
		Updates(map[string]interface{}{
			"current_status_id": to,
			"updated_at":        time.Now(),
		})
	return res.RowsAffected > 0, res.Error
}

func (r *OrderRepository) GetOrderedPart(id string) (*entity.OrderedPart, error) {
	var part entity.OrderedPart
	err := r.db.Preload("Order").First(&part, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &part, nil
}

// LatchApproval flips one approved_* column false -> true. Zero rows
// means the latch was already set (or the part is gone); the caller
// treats that as a duplicate submission.
func (r *OrderRepository) LatchApproval(tx *gorm.DB, partID, column string) (bool, error) {
	res := tx.Model(&entity.OrderedPart{}).
		Where("id = ? AND "+column+" = false", partID).
		Updates(map[string]interface{}{
			column:       true,
			"updated_at": time.Now(),
		})
	return res.RowsAffected > 0, res.Error
}

// UpdatePartFields writes milestone/quotation columns on a line item.
func (r *OrderRepository) UpdatePartFields(tx *gorm.DB, partID string, fields map[string]interface{}) error {
	fields["updated_at"] = time.Now()
	return tx.Model(&entity.OrderedPart{}).Where("id = ?", partID).Updates(fields).Error
}

// ListOpenForMachine returns orders targeting the machine other than
// excludeOrderID. The caller filters out terminal ones against the
// catalog.
func (r *OrderRepository) ListOpenForMachine(tx *gorm.DB, machineID, excludeOrderID string) ([]entity.Order, error) {
	var orders []entity.Order
	err := tx.Where("machine_id = ? AND id <> ?", machineID, excludeOrderID).
		Find(&orders).Error
	return orders, err
}

type OrderListParams struct {
	OrderType string
	FactoryID string
	MachineID string
	StatusID  int
	Page      int
	Size      int
}

func (r *OrderRepository) List(params OrderListParams) ([]entity.Order, int64, error) {
	query := r.db.Model(&entity.Order{})
	if params.OrderType != "" {
		query = query.Where("order_type = ?", params.OrderType)
	}
	if params.FactoryID != "" {
		query = query.Where("factory_id = ?", params.FactoryID)
	}
	if params.MachineID != "" {
		query = query.Where("machine_id = ?", params.MachineID)
	}
	if params.StatusID != 0 {
		query = query.Where("current_status_id = ?", params.StatusID)
	}
	var total int64
	query.Count(&total)
	if params.Page <= 0 {
		params.Page = 1
	}
	if params.Size <= 0 {
		params.Size = 20
	}
	var orders []entity.Order
	err := query.Preload("Parts").Order("created_at DESC").
		Offset((params.Page - 1) * params.Size).Limit(params.Size).
		Find(&orders).Error
	return orders, total, err
}

// Delete removes an order and its line items. Explicit deletion is the
// only way an ordered part goes away.
func (r *OrderRepository) Delete(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&entity.OrderedPart{}).Error; err != nil {
			return err
		}
		return tx.Delete(&entity.Order{}, "id = ?", id).Error
	})
}

func (r *OrderRepository) DB() *gorm.DB {
	return r.db
}
