package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/stockledger/backend/internal/domain/ledger"
	"github.com/stockledger/backend/internal/domain/shared"
)

// purchaseOrderSortFields contains allowed sort fields for purchase orders
var purchaseOrderSortFields = map[string]bool{
	"id":           true,
	"created_at":   true,
	"updated_at":   true,
	"order_number": true,
	"status":       true,
	"total_amount": true,
	"received_at":  true,
}

// GormPurchaseOrderRepository implements PurchaseOrderRepository using GORM
type GormPurchaseOrderRepository struct {
	db *gorm.DB
}

// NewGormPurchaseOrderRepository creates a new GormPurchaseOrderRepository
func NewGormPurchaseOrderRepository(db *gorm.DB) *GormPurchaseOrderRepository {
	return &GormPurchaseOrderRepository{db: db}
}

// Save creates or updates a purchase order with its lines
func (r *GormPurchaseOrderRepository) Save(ctx context.Context, order *ledger.PurchaseOrder) error {
	return r.db.WithContext(ctx).
		Session(&gorm.Session{FullSaveAssociations: true}).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Save(order).Error
}

// FindByID finds a purchase order by ID, lines included
func (r *GormPurchaseOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.PurchaseOrder, error) {
	var order ledger.PurchaseOrder
	if err := r.db.WithContext(ctx).
		Preload("Lines").
		First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

// FindByOrderNumber finds a purchase order by its unique order number
func (r *GormPurchaseOrderRepository) FindByOrderNumber(ctx context.Context, orderNumber string) (*ledger.PurchaseOrder, error) {
	var order ledger.PurchaseOrder
	if err := r.db.WithContext(ctx).
		Preload("Lines").
		Where("order_number = ?", orderNumber).
		First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

// FindAll finds purchase orders matching the filter with pagination
func (r *GormPurchaseOrderRepository) FindAll(ctx context.Context, filter shared.Filter) (*shared.Paginated[ledger.PurchaseOrder], error) {
	return r.findPage(ctx, r.db.WithContext(ctx).Model(&ledger.PurchaseOrder{}), filter)
}

// FindByStatus finds purchase orders in the given status
func (r *GormPurchaseOrderRepository) FindByStatus(ctx context.Context, status ledger.PurchaseOrderStatus, filter shared.Filter) (*shared.Paginated[ledger.PurchaseOrder], error) {
	query := r.db.WithContext(ctx).
		Model(&ledger.PurchaseOrder{}).
		Where("status = ?", status)
	return r.findPage(ctx, query, filter)
}

// ExistsByOrderNumber checks if an order exists with the given number
func (r *GormPurchaseOrderRepository) ExistsByOrderNumber(ctx context.Context, orderNumber string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&ledger.PurchaseOrder{}).
		Where("order_number = ?", orderNumber).
		Count(&count).Error
	return count > 0, err
}

func (r *GormPurchaseOrderRepository) findPage(_ context.Context, query *gorm.DB, filter shared.Filter) (*shared.Paginated[ledger.PurchaseOrder], error) {
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("order_number ILIKE ? OR supplier_name ILIKE ?", searchPattern, searchPattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}

	orderBy := ValidateSortField(filter.OrderBy, purchaseOrderSortFields, "created_at")
	query = query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	var orders []ledger.PurchaseOrder
	if err := query.Preload("Lines").Find(&orders).Error; err != nil {
		return nil, err
	}

	page := shared.NewPaginated(orders, total, filter.Page, filter.PageSize)
	return &page, nil
}

// Ensure GormPurchaseOrderRepository implements PurchaseOrderRepository
var _ ledger.PurchaseOrderRepository = (*GormPurchaseOrderRepository)(nil)
