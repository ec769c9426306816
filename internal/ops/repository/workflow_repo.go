package repository

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Abid-Al-Labib/erp-base-sub003/internal/ops/entity"
)

type WorkflowRepository struct {
	db *gorm.DB
}

func NewWorkflowRepository(db *gorm.DB) *WorkflowRepository {
	return &WorkflowRepository{db: db}
}

func (r *WorkflowRepository) ListWorkflows() ([]entity.OrderWorkflow, error) {
	var workflows []entity.OrderWorkflow
	err := r.db.Find(&workflows).Error
	return workflows, err
}

func (r *WorkflowRepository) ListSteps() ([]entity.WorkflowStep, error) {
	var steps []entity.WorkflowStep
	err := r.db.Order("order_type, position").Find(&steps).Error
	return steps, err
}

// Seed writes reference data idempotently. Statuses and steps are
// immutable once deployed, so conflicts are left untouched.
func (r *WorkflowRepository) Seed(statuses []entity.Status, workflows []entity.OrderWorkflow, steps []entity.WorkflowStep) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if len(statuses) > 0 {
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&statuses).Error; err != nil {
				return err
			}
		}
		if len(workflows) > 0 {
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&workflows).Error; err != nil {
				return err
			}
		}
		if len(steps) > 0 {
			if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&steps).Error; err != nil {
				return err
			}
		}
		return nil
	})
}
