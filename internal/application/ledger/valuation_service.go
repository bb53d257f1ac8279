package ledger

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/stockledger/backend/internal/domain/ledger"
	"github.com/stockledger/backend/internal/domain/shared"
)

const (
	// maxRetries bounds the retry loop around optimistic concurrency conflicts
	maxRetries = 3
)

// ValuationService recomputes product aggregates from their batch sets.
// Every stock mutation ends with a recompute inside the same transaction;
// this service additionally exposes the recompute as a standalone repair
// operation for aggregates that have drifted.
type ValuationService struct {
	txScope TransactionScope
}

// NewValuationService creates a new ValuationService
func NewValuationService(txScope TransactionScope) *ValuationService {
	return &ValuationService{txScope: txScope}
}

// Revalue recomputes a product's quantity and unit cost from its batches and
// persists the result under the optimistic version check.
func (s *ValuationService) Revalue(ctx context.Context, productID uuid.UUID) (*ProductResponse, error) {
	var product *ledger.Product

	err := withConflictRetry(func() error {
		return s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
			var err error
			product, err = revalueProduct(ctx, repos, productID)
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	response := ToProductResponse(product)
	return &response, nil
}

// revalueProduct reloads the product and its full batch set, recomputes the
// aggregate and saves the product. It runs inside the caller's transaction so
// the recompute commits atomically with the stock mutation that triggered it.
func revalueProduct(ctx context.Context, repos TransactionalRepositories, productID uuid.UUID) (*ledger.Product, error) {
	product, err := repos.ProductRepo().FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	batches, err := repos.BatchRepo().FindByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	product.ApplyValuation(ledger.ComputeValuation(batches))

	if err := repos.ProductRepo().Save(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// withConflictRetry retries fn a bounded number of times when it fails with
// CONCURRENT_MODIFICATION. Each attempt must re-read its inputs, so fn is
// expected to open a fresh transaction.
func withConflictRetry(fn func() error) error {
	var err error
	for attempt := 0; attempt < maxRetries; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}
		if !isConcurrentModification(err) {
			return err
		}
	}
	return err
}

func isConcurrentModification(err error) bool {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == shared.ErrConcurrentModification.Code
	}
	return false
}
