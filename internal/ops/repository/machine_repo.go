package repository

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Abid-Al-Labib/erp-base-sub003/internal/ops/entity"
)

type MachineRepository struct {
	db *gorm.DB
}

func NewMachineRepository(db *gorm.DB) *MachineRepository {
	return &MachineRepository{db: db}
}

func (r *MachineRepository) GetByID(id string) (*entity.Machine, error) {
	var m entity.Machine
	err := r.db.First(&m, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MachineRepository) Create(m *entity.Machine) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	return r.db.Create(m).Error
}

func (r *MachineRepository) UpdateStatus(tx *gorm.DB, id, status string) error {
	return tx.Model(&entity.Machine{}).Where("id = ?", id).
		Updates(map[string]interface{}{"status": status, "updated_at": time.Now()}).Error
}

func (r *MachineRepository) ListByFactory(factoryID string) ([]entity.Machine, error) {
	var machines []entity.Machine
	err := r.db.Where("factory_id = ?", factoryID).Order("name").Find(&machines).Error
	return machines, err
}

type PartRepository struct {
	db *gorm.DB
}

func NewPartRepository(db *gorm.DB) *PartRepository {
	return &PartRepository{db: db}
}

func (r *PartRepository) GetByID(id string) (*entity.Part, error) {
	var p entity.Part
	err := r.db.First(&p, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PartRepository) Create(p *entity.Part) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return r.db.Create(p).Error
}

type FactoryRepository struct {
	db *gorm.DB
}

func NewFactoryRepository(db *gorm.DB) *FactoryRepository {
	return &FactoryRepository{db: db}
}

func (r *FactoryRepository) GetByID(id string) (*entity.Factory, error) {
	var f entity.Factory
	err := r.db.First(&f, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *FactoryRepository) Create(f *entity.Factory) error {
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	return r.db.Create(f).Error
}
