package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/Abid-Al-Labib/erp-base-sub003/internal/ops/entity"
)

type TrackerRepository struct {
	db *gorm.DB
}

func NewTrackerRepository(db *gorm.DB) *TrackerRepository {
	return &TrackerRepository{db: db}
}

func (r *TrackerRepository) Create(tx *gorm.DB, e *entity.StatusTrackerEntry) error {
	if e.ActionAt.IsZero() {
		e.ActionAt = time.Now()
	}
	if e.Action == "" {
		e.Action = entity.TrackerActionAdvance
	}
	return tx.Create(e).Error
}

// ListByOrder returns the audit trail ordered by action time, insertion
// id as tie-break.
func (r *TrackerRepository) ListByOrder(orderID string) ([]entity.StatusTrackerEntry, error) {
	var entries []entity.StatusTrackerEntry
	err := r.db.Where("order_id = ?", orderID).
		Order("action_at ASC, id ASC").
		Find(&entries).Error
	return entries, err
}
