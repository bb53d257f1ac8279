package ledger

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockledger/backend/internal/domain/shared"
)

// PickPolicy defines the ordering in which batches are consumed
type PickPolicy string

const (
	// PickPolicyFIFO consumes the oldest batches first (by creation time)
	PickPolicyFIFO PickPolicy = "FIFO"
	// PickPolicyFEFO consumes the batches closest to expiry first
	PickPolicyFEFO PickPolicy = "FEFO"
	// PickPolicyLIFO consumes the newest batches first (by creation time)
	PickPolicyLIFO PickPolicy = "LIFO"
	// PickPolicySpecified consumes caller-selected batches in the given order
	PickPolicySpecified PickPolicy = "SPECIFIED"
)

// IsValid checks if the policy is a known pick policy
func (p PickPolicy) IsValid() bool {
	switch p {
	case PickPolicyFIFO, PickPolicyFEFO, PickPolicyLIFO, PickPolicySpecified:
		return true
	}
	return false
}

// String returns the string representation
func (p PickPolicy) String() string {
	return string(p)
}

// AllPickPolicies returns all valid pick policies
func AllPickPolicies() []PickPolicy {
	return []PickPolicy{PickPolicyFIFO, PickPolicyFEFO, PickPolicyLIFO, PickPolicySpecified}
}

// SpecifiedPick selects a specific batch for the SPECIFIED policy.
// A zero quantity means "take as much as possible from this batch".
type SpecifiedPick struct {
	BatchID  uuid.UUID
	Quantity decimal.Decimal
}

// PickPlanLine is one batch's contribution to a pick, with cost attribution
// at that batch's unit cost.
type PickPlanLine struct {
	BatchID     uuid.UUID       `json:"batch_id"`
	BatchNumber string          `json:"batch_number"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	LineCost    decimal.Decimal `json:"line_cost"`
}

// PickPlan is the ephemeral result of allocating a requested quantity across
// one or more batches. It is returned to the caller and never persisted.
type PickPlan struct {
	ProductID           uuid.UUID       `json:"product_id"`
	Policy              PickPolicy      `json:"policy"`
	Lines               []PickPlanLine  `json:"lines"`
	RequestedQuantity   decimal.Decimal `json:"requested_quantity"`
	TotalQuantity       decimal.Decimal `json:"total_quantity"`
	TotalCost           decimal.Decimal `json:"total_cost"`
	WeightedAverageCost decimal.Decimal `json:"weighted_average_cost"`
	ExhaustedBatches    []uuid.UUID     `json:"exhausted_batches"`
}

// Fulfilled returns true if the plan covers the full requested quantity
func (p *PickPlan) Fulfilled() bool {
	return p.TotalQuantity.GreaterThanOrEqual(p.RequestedQuantity)
}

// Shortfall returns the quantity that could not be allocated
func (p *PickPlan) Shortfall() decimal.Decimal {
	shortfall := p.RequestedQuantity.Sub(p.TotalQuantity)
	if shortfall.IsNegative() {
		return decimal.Zero
	}
	return shortfall
}

// InsufficientStockError reports a pick that could not be fully satisfied.
// It carries the available quantity and the partial plan already computed so
// the caller can decide whether to accept a partial fulfillment.
type InsufficientStockError struct {
	ProductID   uuid.UUID
	Requested   decimal.Decimal
	Available   decimal.Decimal
	PartialPlan *PickPlan
}

// Error implements the error interface
func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %s, available %s",
		e.ProductID, e.Requested.String(), e.Available.String())
}

// DomainError returns the coded domain error for transport mapping
func (e *InsufficientStockError) DomainError() *shared.DomainError {
	return shared.NewDomainError("INSUFFICIENT_STOCK", e.Error())
}

// ComputePickPlan walks the batch set under the given policy and allocates
// the requested quantity greedily, taking min(remaining, still needed) from
// each batch in order. It does not mutate the input batches.
//
// On shortfall it returns an InsufficientStockError carrying the partial plan.
func ComputePickPlan(productID uuid.UUID, requested decimal.Decimal, policy PickPolicy, batches []Batch, specified []SpecifiedPick) (*PickPlan, error) {
	if requested.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Requested quantity must be positive")
	}
	if !policy.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Unknown pick policy: "+policy.String())
	}

	var candidates []pickCandidate
	if policy == PickPolicySpecified {
		if len(specified) == 0 {
			return nil, shared.NewDomainError("INVALID_INPUT", "Specified policy requires batch selections")
		}
		candidates = selectSpecifiedBatches(batches, specified)
	} else {
		candidates = sortPickable(batches, policy)
	}

	plan := &PickPlan{
		ProductID:         productID,
		Policy:            policy,
		Lines:             make([]PickPlanLine, 0, len(candidates)),
		RequestedQuantity: requested,
		TotalQuantity:     decimal.Zero,
		TotalCost:         decimal.Zero,
		ExhaustedBatches:  make([]uuid.UUID, 0),
	}

	remaining := requested
	for i := range candidates {
		if remaining.IsZero() {
			break
		}
		batch := candidates[i].batch

		take := decimal.Min(remaining, candidates[i].available)
		if take.LessThanOrEqual(decimal.Zero) {
			continue
		}
		lineCost := take.Mul(batch.UnitCost)

		plan.Lines = append(plan.Lines, PickPlanLine{
			BatchID:     batch.ID,
			BatchNumber: batch.BatchNumber,
			Quantity:    take,
			UnitCost:    batch.UnitCost,
			LineCost:    lineCost,
		})
		plan.TotalQuantity = plan.TotalQuantity.Add(take)
		plan.TotalCost = plan.TotalCost.Add(lineCost)
		remaining = remaining.Sub(take)

		if batch.RemainingQuantity.Equal(take) {
			plan.ExhaustedBatches = append(plan.ExhaustedBatches, batch.ID)
		}
	}

	if plan.TotalQuantity.GreaterThan(decimal.Zero) {
		plan.WeightedAverageCost = plan.TotalCost.Div(plan.TotalQuantity).Round(4)
	}

	if remaining.GreaterThan(decimal.Zero) {
		return nil, &InsufficientStockError{
			ProductID:   productID,
			Requested:   requested,
			Available:   plan.TotalQuantity,
			PartialPlan: plan,
		}
	}

	return plan, nil
}

// ApplyPickPlan deducts each plan line from the corresponding batch entities.
// Callers persist the mutated batches inside the same transaction as the pick.
func ApplyPickPlan(batches []*Batch, plan *PickPlan) error {
	if plan == nil {
		return shared.NewDomainError("INVALID_INPUT", "Pick plan cannot be nil")
	}

	batchMap := make(map[uuid.UUID]*Batch, len(batches))
	for _, batch := range batches {
		batchMap[batch.ID] = batch
	}

	for _, line := range plan.Lines {
		batch, exists := batchMap[line.BatchID]
		if !exists {
			return shared.NewDomainError("BATCH_NOT_FOUND", "Batch not found: "+line.BatchID.String())
		}
		if err := batch.Deduct(line.Quantity); err != nil {
			return err
		}
	}

	return nil
}

// AvailableQuantity sums the pickable stock across the batch set
func AvailableQuantity(batches []Batch) decimal.Decimal {
	total := decimal.Zero
	for i := range batches {
		if batches[i].IsPickable() {
			total = total.Add(batches[i].RemainingQuantity)
		}
	}
	return total
}

// pickCandidate pairs a batch with the quantity the walk may take from it.
// For the ordered policies available equals the batch remainder; SPECIFIED
// selections may cap it lower.
type pickCandidate struct {
	batch     Batch
	available decimal.Decimal
}

// sortPickable filters to pickable batches and orders them per the policy
func sortPickable(batches []Batch, policy PickPolicy) []pickCandidate {
	sorted := make([]Batch, 0, len(batches))
	for i := range batches {
		if batches[i].IsPickable() {
			sorted = append(sorted, batches[i])
		}
	}

	switch policy {
	case PickPolicyFEFO:
		// Earliest expiry first; batches without an expiry date go last.
		sort.SliceStable(sorted, func(i, j int) bool {
			ei, ej := sorted[i].ExpiryDate, sorted[j].ExpiryDate
			if ei != nil && ej != nil {
				if !ei.Equal(*ej) {
					return ei.Before(*ej)
				}
				return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
			}
			if ei != nil {
				return true
			}
			if ej != nil {
				return false
			}
			return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
		})
	case PickPolicyLIFO:
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
		})
	default: // FIFO
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].CreatedAt.Before(sorted[j].CreatedAt)
		})
	}

	candidates := make([]pickCandidate, len(sorted))
	for i := range sorted {
		candidates[i] = pickCandidate{batch: sorted[i], available: sorted[i].RemainingQuantity}
	}
	return candidates
}

// selectSpecifiedBatches resolves caller-selected batches in request order,
// capping each selection at the selected quantity when one is given.
func selectSpecifiedBatches(batches []Batch, specified []SpecifiedPick) []pickCandidate {
	batchMap := make(map[uuid.UUID]Batch, len(batches))
	for i := range batches {
		if batches[i].IsPickable() {
			batchMap[batches[i].ID] = batches[i]
		}
	}

	selected := make([]pickCandidate, 0, len(specified))
	for _, req := range specified {
		batch, exists := batchMap[req.BatchID]
		if !exists {
			continue
		}
		available := batch.RemainingQuantity
		if req.Quantity.GreaterThan(decimal.Zero) && req.Quantity.LessThan(available) {
			available = req.Quantity
		}
		selected = append(selected, pickCandidate{batch: batch, available: available})
		delete(batchMap, req.BatchID)
	}
	return selected
}
