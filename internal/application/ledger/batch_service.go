package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/stockledger/backend/internal/domain/ledger"
	"github.com/stockledger/backend/internal/domain/shared"
)

// BatchService manages the batch set behind each product. Every mutation
// recomputes the owning product's aggregate inside the same transaction, so
// a committed change is always reflected in the product's quantity and cost.
type BatchService struct {
	batchRepo ledger.BatchRepository
	txScope   TransactionScope
}

// NewBatchService creates a new BatchService
func NewBatchService(batchRepo ledger.BatchRepository, txScope TransactionScope) *BatchService {
	return &BatchService{
		batchRepo: batchRepo,
		txScope:   txScope,
	}
}

// Create registers a new stock batch and revalues the product.
func (s *BatchService) Create(ctx context.Context, req CreateBatchRequest) (*BatchResponse, error) {
	var batch *ledger.Batch

	err := withConflictRetry(func() error {
		return s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
			if _, err := repos.ProductRepo().FindByID(ctx, req.ProductID); err != nil {
				return err
			}

			existing, err := repos.BatchRepo().FindByBatchNumber(ctx, req.ProductID, req.BatchNumber)
			if err != nil && !isNotFound(err) {
				return err
			}
			if existing != nil {
				return shared.NewDomainError("ALREADY_EXISTS", "Batch number already exists for this product")
			}

			batch, err = ledger.NewBatch(req.ProductID, req.BatchNumber, req.Quantity, req.UnitCost, req.ExpiryDate, req.ManufactureDate, req.Supplier)
			if err != nil {
				return err
			}
			batch.Notes = req.Notes

			if err := repos.BatchRepo().Save(ctx, batch); err != nil {
				return err
			}

			refID := req.Reference
			if refID == "" {
				refID = batch.ID.String()
			}
			entry, err := ledger.NewLedgerEntry(req.ProductID, &batch.ID, ledger.EntryDirectionInbound, req.Quantity, req.UnitCost, ledger.ReferenceTypeManual, refID, req.Notes)
			if err != nil {
				return err
			}
			if err := repos.EntryRepo().Append(ctx, entry); err != nil {
				return err
			}

			_, err = revalueProduct(ctx, repos, req.ProductID)
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	response := ToBatchResponse(batch)
	return &response, nil
}

// Update corrects a batch's received quantity, unit cost, dates, supplier or
// notes, then revalues the product. Quantity corrections preserve the
// consumed portion.
func (s *BatchService) Update(ctx context.Context, batchID uuid.UUID, req UpdateBatchRequest) (*BatchResponse, error) {
	var batch *ledger.Batch

	err := withConflictRetry(func() error {
		return s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
			var err error
			batch, err = repos.BatchRepo().FindByID(ctx, batchID)
			if err != nil {
				return err
			}

			if req.Quantity != nil {
				if err := batch.AdjustQuantity(*req.Quantity); err != nil {
					return err
				}
			}
			if req.UnitCost != nil {
				if err := batch.UpdateCost(*req.UnitCost); err != nil {
					return err
				}
			}
			if req.ExpiryDate != nil || req.ManufactureDate != nil {
				if err := batch.Reschedule(req.ExpiryDate, req.ManufactureDate); err != nil {
					return err
				}
			}
			if req.Supplier != nil {
				batch.SetSupplier(*req.Supplier)
			}
			if req.Notes != nil {
				batch.Notes = *req.Notes
			}

			if err := repos.BatchRepo().Save(ctx, batch); err != nil {
				return err
			}

			_, err = revalueProduct(ctx, repos, batch.ProductID)
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	response := ToBatchResponse(batch)
	return &response, nil
}

// Delete removes a batch. Only fully consumed batches may be deleted; a
// batch still holding stock must be adjusted down first.
func (s *BatchService) Delete(ctx context.Context, batchID uuid.UUID) error {
	return withConflictRetry(func() error {
		return s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
			batch, err := repos.BatchRepo().FindByID(ctx, batchID)
			if err != nil {
				return err
			}

			if !batch.CanDelete() {
				return shared.NewDomainError("BATCH_NOT_EMPTY", "Cannot delete a batch that still holds stock")
			}

			if err := repos.BatchRepo().Delete(ctx, batchID); err != nil {
				return err
			}

			_, err = revalueProduct(ctx, repos, batch.ProductID)
			return err
		})
	})
}

// GetByID retrieves a batch by ID
func (s *BatchService) GetByID(ctx context.Context, batchID uuid.UUID) (*BatchResponse, error) {
	batch, err := s.batchRepo.FindByID(ctx, batchID)
	if err != nil {
		return nil, err
	}
	response := ToBatchResponse(batch)
	return &response, nil
}

// ListByProduct retrieves every batch of a product, exhausted ones included
func (s *BatchService) ListByProduct(ctx context.Context, productID uuid.UUID) ([]BatchResponse, error) {
	batches, err := s.batchRepo.FindByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}

	responses := make([]BatchResponse, len(batches))
	for i := range batches {
		responses[i] = ToBatchResponse(&batches[i])
	}
	return responses, nil
}

// ListExpiringSoon retrieves batches that will expire within the given window
func (s *BatchService) ListExpiringSoon(ctx context.Context, within time.Duration) ([]BatchResponse, error) {
	batches, err := s.batchRepo.FindExpiringSoon(ctx, within)
	if err != nil {
		return nil, err
	}

	responses := make([]BatchResponse, len(batches))
	for i := range batches {
		responses[i] = ToBatchResponse(&batches[i])
	}
	return responses, nil
}

func isNotFound(err error) bool {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == shared.ErrNotFound.Code
	}
	return false
}
