package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/stockledger/backend/internal/domain/ledger"
	"github.com/stockledger/backend/internal/domain/shared"
)

// PickingService allocates outbound stock across batches. A pick computes a
// plan under the requested policy, applies it with conditional decrements so
// concurrent picks can never oversell a batch, writes outbound movement
// records and revalues the product, all in one transaction. Conflicting picks
// are retried a bounded number of times.
type PickingService struct {
	txScope       TransactionScope
	defaultPolicy ledger.PickPolicy
	logger        *zap.Logger
}

// NewPickingService creates a new PickingService
func NewPickingService(txScope TransactionScope, defaultPolicy ledger.PickPolicy, logger *zap.Logger) *PickingService {
	if !defaultPolicy.IsValid() {
		defaultPolicy = ledger.PickPolicyFIFO
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PickingService{
		txScope:       txScope,
		defaultPolicy: defaultPolicy,
		logger:        logger,
	}
}

// Pick allocates the requested quantity from the product's pickable batches.
func (s *PickingService) Pick(ctx context.Context, req PickRequest) (*PickResponse, error) {
	policy := s.defaultPolicy
	if req.Policy != "" {
		policy = ledger.PickPolicy(req.Policy)
		if !policy.IsValid() {
			return nil, shared.NewDomainError("INVALID_INPUT", "Unknown pick policy: "+req.Policy)
		}
	}

	specified := make([]ledger.SpecifiedPick, len(req.Batches))
	for i, b := range req.Batches {
		specified[i] = ledger.SpecifiedPick{BatchID: b.BatchID, Quantity: b.Quantity}
	}

	var plan *ledger.PickPlan
	var product *ledger.Product

	err := withConflictRetry(func() error {
		return s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
			batches, err := repos.BatchRepo().FindPickable(ctx, req.ProductID, policy)
			if err != nil {
				return err
			}

			plan, err = ledger.ComputePickPlan(req.ProductID, req.Quantity, policy, batches, specified)
			if err != nil {
				return err
			}

			// Conditional decrements: each line only applies if the batch
			// still holds the planned quantity, otherwise the whole pick
			// rolls back and is retried against fresh state.
			for _, line := range plan.Lines {
				if err := repos.BatchRepo().DeductRemaining(ctx, line.BatchID, line.Quantity); err != nil {
					return err
				}
			}

			refType := ledger.ReferenceTypeSale
			refID := req.Reference
			if refID == "" {
				refType = ledger.ReferenceTypeManual
				refID = fmt.Sprintf("PICK-%d", time.Now().UnixNano())
			}
			entries := make([]*ledger.LedgerEntry, 0, len(plan.Lines))
			for _, line := range plan.Lines {
				batchID := line.BatchID
				entry, err := ledger.NewLedgerEntry(req.ProductID, &batchID, ledger.EntryDirectionOutbound, line.Quantity, line.UnitCost, refType, refID, req.Remark)
				if err != nil {
					return err
				}
				entries = append(entries, entry)
			}
			if err := repos.EntryRepo().Append(ctx, entries...); err != nil {
				return err
			}

			product, err = revalueProduct(ctx, repos, req.ProductID)
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("stock picked",
		zap.String("product_id", req.ProductID.String()),
		zap.String("policy", policy.String()),
		zap.String("quantity", plan.TotalQuantity.String()),
		zap.Int("batches", len(plan.Lines)),
	)

	response := ToPickResponse(plan, product)
	return &response, nil
}

// RestoreQuantity returns stock to a product after a sale document is voided.
// The picked batches may be gone or partially consumed by now, so the stock
// comes back as a synthetic return batch priced at the product's current
// weighted-average cost.
func (s *PickingService) RestoreQuantity(ctx context.Context, req RestoreQuantityRequest) (*RestoreQuantityResponse, error) {
	if req.Quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Restore quantity must be positive")
	}

	var batch *ledger.Batch
	var product *ledger.Product

	err := withConflictRetry(func() error {
		return s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
			current, err := repos.ProductRepo().FindByID(ctx, req.ProductID)
			if err != nil {
				return err
			}

			// Nanosecond resolution keeps repeated restores of the same
			// reference from colliding on the batch number unique index
			batchNumber := fmt.Sprintf("RET-%s-%d", req.Reference, time.Now().UnixNano())
			batch, err = ledger.NewBatch(req.ProductID, batchNumber, req.Quantity, current.UnitCost, nil, nil, "")
			if err != nil {
				return err
			}
			batch.Notes = req.Remark

			if err := repos.BatchRepo().Save(ctx, batch); err != nil {
				return err
			}

			entry, err := ledger.NewLedgerEntry(req.ProductID, &batch.ID, ledger.EntryDirectionReturn, req.Quantity, current.UnitCost, ledger.ReferenceTypeReturn, req.Reference, req.Remark)
			if err != nil {
				return err
			}
			if err := repos.EntryRepo().Append(ctx, entry); err != nil {
				return err
			}

			product, err = revalueProduct(ctx, repos, req.ProductID)
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("quantity restored",
		zap.String("product_id", req.ProductID.String()),
		zap.String("quantity", req.Quantity.String()),
		zap.String("batch_number", batch.BatchNumber),
	)

	return &RestoreQuantityResponse{
		Batch:          ToBatchResponse(batch),
		QuantityOnHand: product.QuantityOnHand,
		UnitCost:       product.UnitCost,
	}, nil
}
