package repository

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Abid-Al-Labib/erp-base-sub003/internal/ops/entity"
)

type LoanRepository struct {
	db *gorm.DB
}

func NewLoanRepository(db *gorm.DB) *LoanRepository {
	return &LoanRepository{db: db}
}

func (r *LoanRepository) Create(tx *gorm.DB, loan *entity.LoanTransfer) error {
	if loan.ID == "" {
		loan.ID = uuid.New().String()
	}
	return tx.Create(loan).Error
}

func (r *LoanRepository) GetByID(id string) (*entity.LoanTransfer, error) {
	var loan entity.LoanTransfer
	err := r.db.First(&loan, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

// CompleteCAS flips is_completed false -> true. Zero rows means the loan
// was already completed by a concurrent caller.
func (r *LoanRepository) CompleteCAS(tx *gorm.DB, id, actorID string, at time.Time) (bool, error) {
	res := tx.Model(&entity.LoanTransfer{}).
		Where("id = ? AND is_completed = false", id).
		Updates(map[string]interface{}{
			"is_completed": true,
			"completed_at": at,
			"completed_by": actorID,
			"updated_at":   at,
		})
	return res.RowsAffected > 0, res.Error
}

func (r *LoanRepository) List(completed *bool, page, size int) ([]entity.LoanTransfer, int64, error) {
	query := r.db.Model(&entity.LoanTransfer{})
	if completed != nil {
		query = query.Where("is_completed = ?", *completed)
	}
	var total int64
	query.Count(&total)
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	var loans []entity.LoanTransfer
	err := query.Order("created_at DESC").
		Offset((page - 1) * size).Limit(size).
		Find(&loans).Error
	return loans, total, err
}

func (r *LoanRepository) DB() *gorm.DB {
	return r.db
}
