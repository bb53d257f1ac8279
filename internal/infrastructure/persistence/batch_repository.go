package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/stockledger/backend/internal/domain/ledger"
	"github.com/stockledger/backend/internal/domain/shared"
)

// GormBatchRepository implements BatchRepository using GORM
type GormBatchRepository struct {
	db *gorm.DB
}

// NewGormBatchRepository creates a new GormBatchRepository
func NewGormBatchRepository(db *gorm.DB) *GormBatchRepository {
	return &GormBatchRepository{db: db}
}

// Save creates or updates a batch
func (r *GormBatchRepository) Save(ctx context.Context, batch *ledger.Batch) error {
	return r.db.WithContext(ctx).Save(batch).Error
}

// FindByID finds a batch by its ID
func (r *GormBatchRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.Batch, error) {
	var batch ledger.Batch
	if err := r.db.WithContext(ctx).First(&batch, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &batch, nil
}

// FindByBatchNumber finds a batch by its number within a product
func (r *GormBatchRepository) FindByBatchNumber(ctx context.Context, productID uuid.UUID, batchNumber string) (*ledger.Batch, error) {
	var batch ledger.Batch
	if err := r.db.WithContext(ctx).
		Where("product_id = ? AND batch_number = ?", productID, batchNumber).
		First(&batch).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &batch, nil
}

// FindByProduct returns every batch of a product, exhausted ones included
func (r *GormBatchRepository) FindByProduct(ctx context.Context, productID uuid.UUID) ([]ledger.Batch, error) {
	var batches []ledger.Batch
	if err := r.db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at ASC").
		Find(&batches).Error; err != nil {
		return nil, err
	}
	return batches, nil
}

// FindPickable returns the batches eligible for picking, ordered per the
// policy. Exhausted and calendar-expired batches are filtered out.
func (r *GormBatchRepository) FindPickable(ctx context.Context, productID uuid.UUID, policy ledger.PickPolicy) ([]ledger.Batch, error) {
	query := r.db.WithContext(ctx).
		Where("product_id = ? AND exhausted = ? AND remaining_quantity > 0", productID, false).
		Where("expiry_date IS NULL OR expiry_date > ?", time.Now())

	switch policy {
	case ledger.PickPolicyFEFO:
		// First Expired, First Out; batches without an expiry date go last
		query = query.Order("COALESCE(expiry_date, '9999-12-31') ASC, created_at ASC")
	case ledger.PickPolicyLIFO:
		query = query.Order("created_at DESC")
	default:
		query = query.Order("created_at ASC")
	}

	var batches []ledger.Batch
	if err := query.Find(&batches).Error; err != nil {
		return nil, err
	}
	return batches, nil
}

// DeductRemaining performs a conditional decrement. The UPDATE only applies
// when remaining_quantity still covers the deduction, so two transactions
// racing on the same batch can never drive it negative. A miss surfaces as
// CONCURRENT_MODIFICATION and the caller retries against fresh state.
func (r *GormBatchRepository) DeductRemaining(ctx context.Context, batchID uuid.UUID, quantity decimal.Decimal) error {
	result := r.db.WithContext(ctx).
		Model(&ledger.Batch{}).
		Where("id = ? AND remaining_quantity >= ?", batchID, quantity).
		Updates(map[string]interface{}{
			"remaining_quantity": gorm.Expr("remaining_quantity - ?", quantity),
			"exhausted":          gorm.Expr("remaining_quantity - ? <= 0", quantity),
			"updated_at":         time.Now(),
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrentModification
	}
	return nil
}

// FindExpiringSoon returns batches holding stock that will expire within the window
func (r *GormBatchRepository) FindExpiringSoon(ctx context.Context, within time.Duration) ([]ledger.Batch, error) {
	now := time.Now()
	var batches []ledger.Batch
	if err := r.db.WithContext(ctx).
		Where("exhausted = ? AND remaining_quantity > 0", false).
		Where("expiry_date IS NOT NULL AND expiry_date > ? AND expiry_date <= ?", now, now.Add(within)).
		Order("expiry_date ASC").
		Find(&batches).Error; err != nil {
		return nil, err
	}
	return batches, nil
}

// FindExpiredWithStock returns expired batches that still hold stock.
// These are excluded from picking but still count toward valuation.
func (r *GormBatchRepository) FindExpiredWithStock(ctx context.Context) ([]ledger.Batch, error) {
	var batches []ledger.Batch
	if err := r.db.WithContext(ctx).
		Where("exhausted = ? AND remaining_quantity > 0", false).
		Where("expiry_date IS NOT NULL AND expiry_date <= ?", time.Now()).
		Order("expiry_date ASC").
		Find(&batches).Error; err != nil {
		return nil, err
	}
	return batches, nil
}

// Delete deletes a batch
func (r *GormBatchRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&ledger.Batch{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure GormBatchRepository implements BatchRepository
var _ ledger.BatchRepository = (*GormBatchRepository)(nil)
