package repository

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Abid-Al-Labib/erp-base-sub003/internal/ops/entity"
)

type DocumentRepository struct {
	db *gorm.DB
}

func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

func (r *DocumentRepository) Create(doc *entity.OrderDocument) error {
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	return r.db.Create(doc).Error
}

func (r *DocumentRepository) GetByID(id string) (*entity.OrderDocument, error) {
	var doc entity.OrderDocument
	if err := r.db.First(&doc, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *DocumentRepository) ListByOrderedPart(orderedPartID string) ([]entity.OrderDocument, error) {
	var docs []entity.OrderDocument
	err := r.db.Where("ordered_part_id = ?", orderedPartID).
		Order("created_at ASC").
		Find(&docs).Error
	return docs, err
}
