package ledger

import (
	"context"
	"sync"

	"github.com/stockledger/backend/internal/domain/ledger"
)

// TransactionScope provides transactional access to ledger repositories.
// When a function is executed within a transaction scope, all repository
// operations are part of the same database transaction and commit or roll
// back atomically.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	// If the function succeeds, the transaction is committed.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to the ledger repositories within
// a transaction. All repositories returned share the same underlying database
// transaction.
//
// Aggregate boundary notes:
//   - ProductRepo persists the Product aggregate; its Save applies the
//     optimistic version check that serializes concurrent revalues.
//   - BatchRepo persists batches independently: batches are mutated and
//     deleted by operations that do not load the full product aggregate.
//   - EntryRepo is append-only; movement records are never revised.
type TransactionalRepositories interface {
	// ProductRepo returns the product repository scoped to the current transaction
	ProductRepo() ledger.ProductRepository
	// BatchRepo returns the batch repository scoped to the current transaction
	BatchRepo() ledger.BatchRepository
	// OrderRepo returns the purchase order repository scoped to the current transaction
	OrderRepo() ledger.PurchaseOrderRepository
	// EntryRepo returns the ledger entry repository scoped to the current transaction
	EntryRepo() ledger.LedgerEntryRepository
}

// NoOpTransactionScope is a transaction scope that doesn't actually use
// transactions. Executions are serialized under a mutex so in-memory
// repositories see transaction-like isolation; there is no rollback.
// Useful for testing or when transaction support is not required.
type NoOpTransactionScope struct {
	mu          sync.Mutex
	productRepo ledger.ProductRepository
	batchRepo   ledger.BatchRepository
	orderRepo   ledger.PurchaseOrderRepository
	entryRepo   ledger.LedgerEntryRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	productRepo ledger.ProductRepository,
	batchRepo ledger.BatchRepository,
	orderRepo ledger.PurchaseOrderRepository,
	entryRepo ledger.LedgerEntryRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		productRepo: productRepo,
		batchRepo:   batchRepo,
		orderRepo:   orderRepo,
		entryRepo:   entryRepo,
	}
}

// Execute runs the function without a real transaction (for testing/compatibility).
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s)
}

// ProductRepo returns the product repository.
func (s *NoOpTransactionScope) ProductRepo() ledger.ProductRepository {
	return s.productRepo
}

// BatchRepo returns the batch repository.
func (s *NoOpTransactionScope) BatchRepo() ledger.BatchRepository {
	return s.batchRepo
}

// OrderRepo returns the purchase order repository.
func (s *NoOpTransactionScope) OrderRepo() ledger.PurchaseOrderRepository {
	return s.orderRepo
}

// EntryRepo returns the ledger entry repository.
func (s *NoOpTransactionScope) EntryRepo() ledger.LedgerEntryRepository {
	return s.entryRepo
}

// Ensure NoOpTransactionScope implements both interfaces
var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
