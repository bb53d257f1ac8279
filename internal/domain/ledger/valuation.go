package ledger

import (
	"github.com/shopspring/decimal"
)

// Valuation is the recomputed product aggregate: total on-hand quantity and
// the cost-weighted mean unit cost over the counted batch set.
type Valuation struct {
	Quantity decimal.Decimal
	UnitCost decimal.Decimal
}

// ComputeValuation derives the product aggregate from its batch set. This is
// the single reconciliation formula: quantity is the sum of remaining
// quantities over counted batches, unit cost is the quantity-weighted mean of
// batch unit costs, zero when no stock remains.
//
// Decimal arithmetic is exact throughout; rounding happens once, on the
// final unit cost.
func ComputeValuation(batches []Batch) Valuation {
	totalQuantity := decimal.Zero
	totalValue := decimal.Zero

	for i := range batches {
		if !batches[i].CountsTowardValuation() {
			continue
		}
		totalQuantity = totalQuantity.Add(batches[i].RemainingQuantity)
		totalValue = totalValue.Add(batches[i].RemainingQuantity.Mul(batches[i].UnitCost))
	}

	if totalQuantity.IsZero() {
		return Valuation{Quantity: decimal.Zero, UnitCost: decimal.Zero}
	}

	return Valuation{
		Quantity: totalQuantity,
		UnitCost: totalValue.Div(totalQuantity).Round(4),
	}
}

// BlendValuation predicts the aggregate after receiving additional stock:
//
//	newCost = (oldQty*oldCost + recvQty*recvCost) / (oldQty + recvQty)
//
// When the persisted aggregate is consistent with the batch set, the blend
// equals ComputeValuation over the post-receipt batches. It exists for
// read-only advisory checks that must not touch the batch set.
func BlendValuation(oldQuantity, oldCost, receivedQuantity, receivedCost decimal.Decimal) Valuation {
	totalQuantity := oldQuantity.Add(receivedQuantity)
	if totalQuantity.LessThanOrEqual(decimal.Zero) {
		return Valuation{Quantity: decimal.Zero, UnitCost: decimal.Zero}
	}

	totalValue := oldQuantity.Mul(oldCost).Add(receivedQuantity.Mul(receivedCost))
	return Valuation{
		Quantity: totalQuantity,
		UnitCost: totalValue.Div(totalQuantity).Round(4),
	}
}
