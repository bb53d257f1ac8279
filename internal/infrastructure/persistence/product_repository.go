package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/stockledger/backend/internal/domain/ledger"
	"github.com/stockledger/backend/internal/domain/shared"
)

// productSortFields contains allowed sort fields for products
var productSortFields = map[string]bool{
	"id":               true,
	"created_at":       true,
	"updated_at":       true,
	"name":             true,
	"code":             true,
	"category":         true,
	"quantity_on_hand": true,
	"unit_cost":        true,
}

// GormProductRepository implements ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// Create inserts a fresh product aggregate
func (r *GormProductRepository) Create(ctx context.Context, product *ledger.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

// Save updates an existing product under the optimistic version check: the
// UPDATE only applies when the stored row still carries the version the
// aggregate was loaded with, and advances the version by exactly one. The
// in-memory aggregate is moved to the new version on success.
func (r *GormProductRepository) Save(ctx context.Context, product *ledger.Product) error {
	nextVersion := product.Version + 1

	result := r.db.WithContext(ctx).
		Model(&ledger.Product{}).
		Where("id = ? AND version = ?", product.ID, product.Version).
		Updates(map[string]interface{}{
			"name":             product.Name,
			"category":         product.Category,
			"quantity_on_hand": product.QuantityOnHand,
			"unit_cost":        product.UnitCost,
			"selling_price":    product.SellingPrice,
			"version":          nextVersion,
			"updated_at":       product.UpdatedAt,
		})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrentModification
	}
	product.Version = nextVersion
	return nil
}

// FindByID finds a product by its ID
func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.Product, error) {
	var product ledger.Product
	if err := r.db.WithContext(ctx).First(&product, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &product, nil
}

// FindByCode finds a product by its unique code
func (r *GormProductRepository) FindByCode(ctx context.Context, code string) (*ledger.Product, error) {
	var product ledger.Product
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &product, nil
}

// FindAll finds products matching the filter with pagination
func (r *GormProductRepository) FindAll(ctx context.Context, filter shared.Filter) (*shared.Paginated[ledger.Product], error) {
	query := r.db.WithContext(ctx).Model(&ledger.Product{})

	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("name ILIKE ? OR code ILIKE ?", searchPattern, searchPattern)
	}
	if category, ok := filter.Filters["category"]; ok {
		query = query.Where("category = ?", category)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	orderBy := ValidateSortField(filter.OrderBy, productSortFields, "created_at")
	query = query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	var products []ledger.Product
	if err := query.Find(&products).Error; err != nil {
		return nil, err
	}

	page := shared.NewPaginated(products, total, filter.Page, filter.PageSize)
	return &page, nil
}

// Delete deletes a product
func (r *GormProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&ledger.Product{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ExistsByCode checks if a product exists with the given code
func (r *GormProductRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&ledger.Product{}).
		Where("code = ?", strings.TrimSpace(code)).
		Count(&count).Error
	return count > 0, err
}

// Ensure GormProductRepository implements ProductRepository
var _ ledger.ProductRepository = (*GormProductRepository)(nil)
