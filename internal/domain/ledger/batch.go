package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockledger/backend/internal/domain/shared"
)

// Batch represents a lot of stock received at a point in time, tracked with
// its own remaining quantity and unit purchase cost.
//
// Exhaustion (RemainingQuantity == 0) and calendar expiry (ExpiryDate in the
// past) are orthogonal: an expired batch can still hold stock. Expired stock
// is excluded from picking but remains part of the product valuation until it
// is consumed or written off.
type Batch struct {
	shared.BaseEntity
	ProductID         uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_batches_product_number,priority:1"`
	BatchNumber       string          `gorm:"type:varchar(100);not null;uniqueIndex:idx_batches_product_number,priority:2"`
	Quantity          decimal.Decimal `gorm:"type:decimal(18,4);not null"` // Originally received quantity
	RemainingQuantity decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitCost          decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	ExpiryDate        *time.Time      `gorm:"index"`
	ManufactureDate   *time.Time
	Supplier          string `gorm:"type:varchar(200)"`
	Exhausted         bool   `gorm:"not null;default:false"`
	Notes             string `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (Batch) TableName() string {
	return "batches"
}

// NewBatch creates a new stock batch with remaining quantity equal to the
// received quantity.
func NewBatch(productID uuid.UUID, batchNumber string, quantity, unitCost decimal.Decimal, expiryDate, manufactureDate *time.Time, supplier string) (*Batch, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("PRODUCT_NOT_FOUND", "Product ID cannot be empty")
	}
	if batchNumber == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Batch number cannot be empty")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Batch quantity must be positive")
	}
	if unitCost.IsNegative() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Unit cost cannot be negative")
	}
	if expiryDate != nil && manufactureDate != nil && expiryDate.Before(*manufactureDate) {
		return nil, shared.NewDomainError("INVALID_INPUT", "Expiry date cannot precede manufacture date")
	}

	return &Batch{
		BaseEntity:        shared.NewBaseEntity(),
		ProductID:         productID,
		BatchNumber:       batchNumber,
		Quantity:          quantity,
		RemainingQuantity: quantity,
		UnitCost:          unitCost,
		ExpiryDate:        expiryDate,
		ManufactureDate:   manufactureDate,
		Supplier:          supplier,
		Exhausted:         false,
	}, nil
}

// IsExpired returns true if the batch has passed its expiry date
func (b *Batch) IsExpired() bool {
	if b.ExpiryDate == nil {
		return false
	}
	return b.ExpiryDate.Before(time.Now())
}

// WillExpireWithin returns true if the batch will expire within the given duration
func (b *Batch) WillExpireWithin(duration time.Duration) bool {
	if b.ExpiryDate == nil {
		return false
	}
	return b.ExpiryDate.Before(time.Now().Add(duration))
}

// IsPickable returns true if the batch may be consumed by a pick:
// it holds stock and is neither exhausted nor calendar-expired.
func (b *Batch) IsPickable() bool {
	return !b.Exhausted && b.RemainingQuantity.GreaterThan(decimal.Zero) && !b.IsExpired()
}

// CountsTowardValuation returns true if the batch contributes to the product
// aggregate. Expired stock still sits on the shelf, so it stays in valuation.
func (b *Batch) CountsTowardValuation() bool {
	return !b.Exhausted && b.RemainingQuantity.GreaterThan(decimal.Zero)
}

// Deduct reduces the remaining quantity by exactly the requested amount.
// The batch transitions to exhausted when remaining reaches zero.
func (b *Batch) Deduct(quantity decimal.Decimal) error {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Deduct quantity must be positive")
	}
	if quantity.GreaterThan(b.RemainingQuantity) {
		return shared.NewDomainError("INSUFFICIENT_STOCK", "Deduct quantity exceeds remaining batch quantity")
	}

	b.RemainingQuantity = b.RemainingQuantity.Sub(quantity)
	if b.RemainingQuantity.IsZero() {
		b.Exhausted = true
	}
	b.Touch()
	return nil
}

// AdjustQuantity changes the originally received quantity, propagating the
// delta to the remaining quantity. The already consumed portion is preserved.
func (b *Batch) AdjustQuantity(newQuantity decimal.Decimal) error {
	if newQuantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Batch quantity must be positive")
	}

	consumed := b.Quantity.Sub(b.RemainingQuantity)
	if newQuantity.LessThan(consumed) {
		return shared.NewDomainError("INVALID_QUANTITY", "Batch quantity cannot be less than the already consumed quantity")
	}

	b.Quantity = newQuantity
	b.RemainingQuantity = newQuantity.Sub(consumed)
	b.Exhausted = b.RemainingQuantity.IsZero()
	b.Touch()
	return nil
}

// UpdateCost changes the unit purchase cost of the batch
func (b *Batch) UpdateCost(unitCost decimal.Decimal) error {
	if unitCost.IsNegative() {
		return shared.NewDomainError("INVALID_INPUT", "Unit cost cannot be negative")
	}
	b.UnitCost = unitCost
	b.Touch()
	return nil
}

// Reschedule corrects the expiry and/or manufacture date. Nil arguments leave
// the corresponding date unchanged; the pair is validated as a whole.
func (b *Batch) Reschedule(expiryDate, manufactureDate *time.Time) error {
	newExpiry := b.ExpiryDate
	if expiryDate != nil {
		newExpiry = expiryDate
	}
	newManufacture := b.ManufactureDate
	if manufactureDate != nil {
		newManufacture = manufactureDate
	}
	if newExpiry != nil && newManufacture != nil && newExpiry.Before(*newManufacture) {
		return shared.NewDomainError("INVALID_INPUT", "Expiry date cannot precede manufacture date")
	}

	b.ExpiryDate = newExpiry
	b.ManufactureDate = newManufacture
	b.Touch()
	return nil
}

// SetSupplier corrects the supplier recorded on the batch
func (b *Batch) SetSupplier(supplier string) {
	b.Supplier = supplier
	b.Touch()
}

// CanDelete returns true if the batch may be removed. A batch holding stock
// must be consumed (or adjusted to zero) first.
func (b *Batch) CanDelete() bool {
	return b.RemainingQuantity.IsZero()
}

// TotalValue returns remaining quantity times unit cost
func (b *Batch) TotalValue() decimal.Decimal {
	return b.RemainingQuantity.Mul(b.UnitCost)
}

// ConsumedQuantity returns the quantity already picked from this batch
func (b *Batch) ConsumedQuantity() decimal.Decimal {
	return b.Quantity.Sub(b.RemainingQuantity)
}
