package repository

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Abid-Al-Labib/erp-base-sub003/internal/ops/entity"
)

type LedgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// Quantity reads the balance of one part at one location. A missing row
// reads as zero; missing and zero are never distinguished.
func (r *LedgerRepository) Quantity(partID string, loc entity.Location) (int64, error) {
	var entry entity.LedgerEntry
	err := r.db.Where("part_id = ? AND location_kind = ? AND location_id = ?",
		partID, loc.Kind, loc.ID).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return entry.Quantity, nil
}

// Get returns the ledger row for the key, gorm.ErrRecordNotFound when
// it was never written.
func (r *LedgerRepository) Get(partID string, loc entity.Location) (*entity.LedgerEntry, error) {
	var entry entity.LedgerEntry
	err := r.db.Where("part_id = ? AND location_kind = ? AND location_id = ?",
		partID, loc.Kind, loc.ID).First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// ApplyDelta adds delta to the balance with a single guarded statement:
// the update only lands when the resulting quantity stays >= 0, so
// concurrent adjustments cannot lose updates or drive a balance negative.
// Returns the number of rows the guard matched (0 = row missing or guard
// failed; the caller decides which by checking existence).
func (r *LedgerRepository) ApplyDelta(tx *gorm.DB, partID string, loc entity.Location, delta int64) (int64, error) {
	res := tx.Model(&entity.LedgerEntry{}).
		Where("part_id = ? AND location_kind = ? AND location_id = ? AND quantity + ? >= 0",
			partID, loc.Kind, loc.ID, delta).
		Updates(map[string]interface{}{
			"quantity":   gorm.Expr("quantity + ?", delta),
			"updated_at": time.Now(),
		})
	return res.RowsAffected, res.Error
}

// Exists reports whether a ledger row is present for the key.
func (r *LedgerRepository) Exists(tx *gorm.DB, partID string, loc entity.Location) (bool, error) {
	var count int64
	err := tx.Model(&entity.LedgerEntry{}).
		Where("part_id = ? AND location_kind = ? AND location_id = ?", partID, loc.Kind, loc.ID).
		Count(&count).Error
	return count > 0, err
}

// InsertEntry creates a fresh ledger row. DoNothing on conflict: a
// concurrent insert of the same key wins the race and the caller retries
// the guarded update. Returns false when the row already existed.
func (r *LedgerRepository) InsertEntry(tx *gorm.DB, entry *entity.LedgerEntry) (bool, error) {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	res := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "part_id"}, {Name: "location_kind"}, {Name: "location_id"},
		},
		DoNothing: true,
	}).Create(entry)
	return res.RowsAffected > 0, res.Error
}

func (r *LedgerRepository) CreateMovement(tx *gorm.DB, m *entity.LedgerMovement) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	return tx.Create(m).Error
}

type LedgerListParams struct {
	PartID       string
	LocationKind string
	LocationID   string
	Page         int
	Size         int
}

func (r *LedgerRepository) List(params LedgerListParams) ([]entity.LedgerEntry, int64, error) {
	query := r.db.Model(&entity.LedgerEntry{})
	if params.PartID != "" {
		query = query.Where("part_id = ?", params.PartID)
	}
	if params.LocationKind != "" {
		query = query.Where("location_kind = ?", params.LocationKind)
	}
	if params.LocationID != "" {
		query = query.Where("location_id = ?", params.LocationID)
	}
	var total int64
	query.Count(&total)
	if params.Page <= 0 {
		params.Page = 1
	}
	if params.Size <= 0 {
		params.Size = 20
	}
	var entries []entity.LedgerEntry
	err := query.Order("updated_at DESC").
		Offset((params.Page - 1) * params.Size).Limit(params.Size).
		Find(&entries).Error
	return entries, total, err
}

func (r *LedgerRepository) ListMovements(partID string, page, size int) ([]entity.LedgerMovement, int64, error) {
	query := r.db.Model(&entity.LedgerMovement{})
	if partID != "" {
		query = query.Where("part_id = ?", partID)
	}
	var total int64
	query.Count(&total)
	if page <= 0 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	var moves []entity.LedgerMovement
	err := query.Order("created_at DESC").
		Offset((page - 1) * size).Limit(size).
		Find(&moves).Error
	return moves, total, err
}

// ListBelow returns entries at the given location kind whose quantity is
// at or below threshold, lowest stock first.
func (r *LedgerRepository) ListBelow(kind string, threshold int64) ([]entity.LedgerEntry, error) {
	var entries []entity.LedgerEntry
	err := r.db.Where("location_kind = ? AND quantity <= ?", kind, threshold).
		Order("quantity ASC").Find(&entries).Error
	return entries, err
}

// KeyBalance pairs a ledger key with a quantity, used by the auditor to
// compare journal sums against live balances.
type KeyBalance struct {
	PartID       string
	LocationKind string
	LocationID   string
	Quantity     int64
}

// JournalTotals sums the movement journal per ledger key.
func (r *LedgerRepository) JournalTotals() ([]KeyBalance, error) {
	var totals []KeyBalance
	err := r.db.Raw(`
		SELECT part_id, location_kind, location_id, COALESCE(SUM(delta), 0) AS quantity
		FROM ops_ledger_movements
		GROUP BY part_id, location_kind, location_id
	`).Scan(&totals).Error
	return totals, err
}

// Balances reads all live ledger balances.
func (r *LedgerRepository) Balances() ([]KeyBalance, error) {
	var balances []KeyBalance
	err := r.db.Raw(`
		SELECT part_id, location_kind, location_id, quantity
		FROM ops_ledger_entries
	`).Scan(&balances).Error
	return balances, err
}

// DB returns the underlying db for transactions.
func (r *LedgerRepository) DB() *gorm.DB {
	return r.db
}
