package ledger

import (
	"github.com/shopspring/decimal"
	"github.com/stockledger/backend/internal/domain/shared"
	"github.com/stockledger/backend/internal/domain/shared/valueobject"
)

// Product represents a sellable item. It is the aggregate root for valuation.
//
// QuantityOnHand and UnitCost are derived caches: the active batch set is the
// authoritative source of truth, and both fields are written only through
// ApplyValuation after a recompute.
//
// Version holds the stored row version the aggregate was loaded with. The
// repository advances it exactly once per successful save; domain mutators
// must not touch it, or the optimistic guard can never match.
type Product struct {
	shared.BaseAggregateRoot
	Name           string          `gorm:"type:varchar(200);not null"`
	Code           string          `gorm:"type:varchar(50);not null;uniqueIndex"`
	Category       string          `gorm:"type:varchar(100)"`
	QuantityOnHand decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"` // Derived: sum of counted batch remainders
	UnitCost       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"` // Derived: weighted average over counted batches
	SellingPrice   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// NewProduct creates a new product with zero stock
func NewProduct(name, code, category string, sellingPrice valueobject.Money) (*Product, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Product name cannot be empty")
	}
	if code == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Product code cannot be empty")
	}
	if sellingPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Selling price cannot be negative")
	}

	product := &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Code:              code,
		Category:          category,
		QuantityOnHand:    decimal.Zero,
		UnitCost:          decimal.Zero,
		SellingPrice:      sellingPrice.Amount(),
	}

	return product, nil
}

// ApplyValuation writes a recomputed aggregate onto the product. This is the
// only mutation path for QuantityOnHand and UnitCost.
func (p *Product) ApplyValuation(v Valuation) {
	changed := !p.QuantityOnHand.Equal(v.Quantity) || !p.UnitCost.Equal(v.UnitCost)

	p.QuantityOnHand = v.Quantity
	p.UnitCost = v.UnitCost
	p.Touch()

	if changed {
		p.AddDomainEvent(NewProductRevaluedEvent(p, v))
	}
}

// SetSellingPrice updates the selling price. The ledger never does this on
// its own; price suggestions are advisory outputs only.
func (p *Product) SetSellingPrice(price valueobject.Money) error {
	if price.IsNegative() {
		return shared.NewDomainError("INVALID_INPUT", "Selling price cannot be negative")
	}
	p.SellingPrice = price.Amount()
	p.Touch()
	return nil
}

// Rename updates the display attributes of the product
func (p *Product) Rename(name, category string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_INPUT", "Product name cannot be empty")
	}
	p.Name = name
	p.Category = category
	p.Touch()
	return nil
}

// HasStock returns true if the product has on-hand quantity
func (p *Product) HasStock() bool {
	return p.QuantityOnHand.GreaterThan(decimal.Zero)
}

// TotalValue returns the inventory value of the product (quantity * unit cost)
func (p *Product) TotalValue() decimal.Decimal {
	return p.QuantityOnHand.Mul(p.UnitCost)
}

// GetSellingPriceMoney returns the selling price as a Money value object
func (p *Product) GetSellingPriceMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(p.SellingPrice)
}

// GetUnitCostMoney returns the unit cost as a Money value object
func (p *Product) GetUnitCostMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(p.UnitCost)
}
