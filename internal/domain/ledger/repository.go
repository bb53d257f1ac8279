package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockledger/backend/internal/domain/shared"
)

// ProductRepository defines the interface for product persistence.
// Create inserts a fresh aggregate. Save updates an existing one under the
// optimistic version check: the write only applies when the stored row still
// carries the version the aggregate was loaded with, advances the version by
// one, and returns CONCURRENT_MODIFICATION when the stored version has moved
// on.
type ProductRepository interface {
	Create(ctx context.Context, product *Product) error
	Save(ctx context.Context, product *Product) error
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	FindByCode(ctx context.Context, code string) (*Product, error)
	FindAll(ctx context.Context, filter shared.Filter) (*shared.Paginated[Product], error)
	Delete(ctx context.Context, id uuid.UUID) error
	ExistsByCode(ctx context.Context, code string) (bool, error)
}

// BatchRepository defines the interface for batch persistence
type BatchRepository interface {
	Save(ctx context.Context, batch *Batch) error
	FindByID(ctx context.Context, id uuid.UUID) (*Batch, error)
	FindByBatchNumber(ctx context.Context, productID uuid.UUID, batchNumber string) (*Batch, error)
	// FindByProduct returns every batch of a product, exhausted ones included
	FindByProduct(ctx context.Context, productID uuid.UUID) ([]Batch, error)
	// FindPickable returns the batches eligible for picking, ordered per the
	// policy so the plan walk can consume them front to back
	FindPickable(ctx context.Context, productID uuid.UUID, policy PickPolicy) ([]Batch, error)
	// DeductRemaining performs a conditional decrement: the UPDATE only
	// applies when remaining_quantity still covers the deduction, and a
	// CONCURRENT_MODIFICATION error is returned when it does not
	DeductRemaining(ctx context.Context, batchID uuid.UUID, quantity decimal.Decimal) error
	FindExpiringSoon(ctx context.Context, within time.Duration) ([]Batch, error)
	FindExpiredWithStock(ctx context.Context) ([]Batch, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// PurchaseOrderRepository defines the interface for purchase order persistence
type PurchaseOrderRepository interface {
	Save(ctx context.Context, order *PurchaseOrder) error
	FindByID(ctx context.Context, id uuid.UUID) (*PurchaseOrder, error)
	FindByOrderNumber(ctx context.Context, orderNumber string) (*PurchaseOrder, error)
	FindAll(ctx context.Context, filter shared.Filter) (*shared.Paginated[PurchaseOrder], error)
	FindByStatus(ctx context.Context, status PurchaseOrderStatus, filter shared.Filter) (*shared.Paginated[PurchaseOrder], error)
	ExistsByOrderNumber(ctx context.Context, orderNumber string) (bool, error)
}

// LedgerEntryRepository persists the append-only movement log.
// Entries are only ever appended and read, never updated or deleted.
type LedgerEntryRepository interface {
	Append(ctx context.Context, entries ...*LedgerEntry) error
	FindByProduct(ctx context.Context, productID uuid.UUID, filter shared.Filter) (*shared.Paginated[LedgerEntry], error)
	FindByReference(ctx context.Context, refType ReferenceType, refID string) ([]LedgerEntry, error)
}
