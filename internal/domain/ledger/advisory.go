package ledger

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PriceWarning is raised when a product's recomputed unit cost exceeds its
// selling price. Advisory only: the ledger never adjusts selling prices.
type PriceWarning struct {
	ProductID    uuid.UUID       `json:"product_id"`
	ProductName  string          `json:"product_name"`
	NewCost      decimal.Decimal `json:"new_cost"`
	SellingPrice decimal.Decimal `json:"selling_price"`
}

// PriceSuggestion proposes a selling price derived from the new cost and the
// configured markup multiplier.
type PriceSuggestion struct {
	ProductID      uuid.UUID       `json:"product_id"`
	ProductName    string          `json:"product_name"`
	NewCost        decimal.Decimal `json:"new_cost"`
	SuggestedPrice decimal.Decimal `json:"suggested_price"`
}

// EvaluatePrice compares a recomputed unit cost against the product's selling
// price. When the cost exceeds a positive selling price it returns a warning
// and a markup-based suggestion; otherwise both results are nil.
func EvaluatePrice(product *Product, newCost, markup decimal.Decimal) (*PriceWarning, *PriceSuggestion) {
	if product.SellingPrice.LessThanOrEqual(decimal.Zero) {
		return nil, nil
	}
	if newCost.LessThanOrEqual(product.SellingPrice) {
		return nil, nil
	}

	warning := &PriceWarning{
		ProductID:    product.ID,
		ProductName:  product.Name,
		NewCost:      newCost,
		SellingPrice: product.SellingPrice,
	}
	suggestion := &PriceSuggestion{
		ProductID:      product.ID,
		ProductName:    product.Name,
		NewCost:        newCost,
		SuggestedPrice: newCost.Mul(markup).Round(2),
	}
	return warning, suggestion
}
