package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stockledger/backend/internal/domain/ledger"
	"github.com/stockledger/backend/internal/domain/shared"
)

// GormLedgerEntryRepository implements LedgerEntryRepository using GORM.
// The movement log is append-only: this repository never updates or deletes.
type GormLedgerEntryRepository struct {
	db *gorm.DB
}

// NewGormLedgerEntryRepository creates a new GormLedgerEntryRepository
func NewGormLedgerEntryRepository(db *gorm.DB) *GormLedgerEntryRepository {
	return &GormLedgerEntryRepository{db: db}
}

// Append inserts new movement records
func (r *GormLedgerEntryRepository) Append(ctx context.Context, entries ...*ledger.LedgerEntry) error {
	if len(entries) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(entries).Error
}

// FindByProduct returns a product's movement log, newest first
func (r *GormLedgerEntryRepository) FindByProduct(ctx context.Context, productID uuid.UUID, filter shared.Filter) (*shared.Paginated[ledger.LedgerEntry], error) {
	query := r.db.WithContext(ctx).
		Model(&ledger.LedgerEntry{}).
		Where("product_id = ?", productID)

	if direction, ok := filter.Filters["direction"]; ok {
		query = query.Where("direction = ?", direction)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	query = query.Order("created_at DESC")
	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	var entries []ledger.LedgerEntry
	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}

	page := shared.NewPaginated(entries, total, filter.Page, filter.PageSize)
	return &page, nil
}

// FindByReference returns the movements caused by a specific document
func (r *GormLedgerEntryRepository) FindByReference(ctx context.Context, refType ledger.ReferenceType, refID string) ([]ledger.LedgerEntry, error) {
	var entries []ledger.LedgerEntry
	if err := r.db.WithContext(ctx).
		Where("reference_type = ? AND reference_id = ?", refType, refID).
		Order("created_at ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// Ensure GormLedgerEntryRepository implements LedgerEntryRepository
var _ ledger.LedgerEntryRepository = (*GormLedgerEntryRepository)(nil)
