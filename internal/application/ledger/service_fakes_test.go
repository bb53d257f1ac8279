package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stockledger/backend/internal/domain/ledger"
	"github.com/stockledger/backend/internal/domain/shared"
)

// In-memory repositories backing the service tests. The batch repository's
// conditional decrement is atomic under a mutex, mirroring the check-and-set
// UPDATE the real implementation issues.

type fakeProductRepo struct {
	mu       sync.Mutex
	products map[uuid.UUID]ledger.Product
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: make(map[uuid.UUID]ledger.Product)}
}

func (r *fakeProductRepo) Create(_ context.Context, product *ledger.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.products[product.ID] = *product
	return nil
}

// Save mirrors the real repository's optimistic guard: the write only applies
// when the stored version matches the version the aggregate was loaded with,
// and the version advances by exactly one per save.
func (r *fakeProductRepo) Save(_ context.Context, product *ledger.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.products[product.ID]
	if !ok || stored.Version != product.Version {
		return shared.ErrConcurrentModification
	}
	product.Version++
	r.products[product.ID] = *product
	return nil
}

func (r *fakeProductRepo) FindByID(_ context.Context, id uuid.UUID) (*ledger.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	product, ok := r.products[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	clone := product
	return &clone, nil
}

func (r *fakeProductRepo) FindByCode(_ context.Context, code string) (*ledger.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, product := range r.products {
		if product.Code == code {
			clone := product
			return &clone, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeProductRepo) FindAll(_ context.Context, filter shared.Filter) (*shared.Paginated[ledger.Product], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := make([]ledger.Product, 0, len(r.products))
	for _, product := range r.products {
		items = append(items, product)
	}
	page := shared.NewPaginated(items, int64(len(items)), filter.Page, filter.PageSize)
	return &page, nil
}

func (r *fakeProductRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.products, id)
	return nil
}

func (r *fakeProductRepo) ExistsByCode(_ context.Context, code string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, product := range r.products {
		if product.Code == code {
			return true, nil
		}
	}
	return false, nil
}

type fakeBatchRepo struct {
	mu      sync.Mutex
	batches map[uuid.UUID]ledger.Batch
}

func newFakeBatchRepo() *fakeBatchRepo {
	return &fakeBatchRepo{batches: make(map[uuid.UUID]ledger.Batch)}
}

func (r *fakeBatchRepo) Save(_ context.Context, batch *ledger.Batch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches[batch.ID] = *batch
	return nil
}

func (r *fakeBatchRepo) FindByID(_ context.Context, id uuid.UUID) (*ledger.Batch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	batch, ok := r.batches[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	clone := batch
	return &clone, nil
}

func (r *fakeBatchRepo) FindByBatchNumber(_ context.Context, productID uuid.UUID, batchNumber string) (*ledger.Batch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, batch := range r.batches {
		if batch.ProductID == productID && batch.BatchNumber == batchNumber {
			clone := batch
			return &clone, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeBatchRepo) FindByProduct(_ context.Context, productID uuid.UUID) ([]ledger.Batch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]ledger.Batch, 0)
	for _, batch := range r.batches {
		if batch.ProductID == productID {
			result = append(result, batch)
		}
	}
	return result, nil
}

func (r *fakeBatchRepo) FindPickable(_ context.Context, productID uuid.UUID, _ ledger.PickPolicy) ([]ledger.Batch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]ledger.Batch, 0)
	for _, batch := range r.batches {
		if batch.ProductID == productID && batch.IsPickable() {
			result = append(result, batch)
		}
	}
	return result, nil
}

func (r *fakeBatchRepo) DeductRemaining(_ context.Context, batchID uuid.UUID, quantity decimal.Decimal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	batch, ok := r.batches[batchID]
	if !ok {
		return shared.ErrNotFound
	}
	if batch.RemainingQuantity.LessThan(quantity) {
		return shared.ErrConcurrentModification
	}
	if err := (&batch).Deduct(quantity); err != nil {
		return err
	}
	r.batches[batchID] = batch
	return nil
}

func (r *fakeBatchRepo) FindExpiringSoon(_ context.Context, within time.Duration) ([]ledger.Batch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]ledger.Batch, 0)
	for _, batch := range r.batches {
		b := batch
		if b.CountsTowardValuation() && (&b).WillExpireWithin(within) {
			result = append(result, b)
		}
	}
	return result, nil
}

func (r *fakeBatchRepo) FindExpiredWithStock(_ context.Context) ([]ledger.Batch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]ledger.Batch, 0)
	for _, batch := range r.batches {
		b := batch
		if b.CountsTowardValuation() && (&b).IsExpired() {
			result = append(result, b)
		}
	}
	return result, nil
}

func (r *fakeBatchRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.batches[id]; !ok {
		return shared.ErrNotFound
	}
	delete(r.batches, id)
	return nil
}

type fakeOrderRepo struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*ledger.PurchaseOrder
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[uuid.UUID]*ledger.PurchaseOrder)}
}

func (r *fakeOrderRepo) Save(_ context.Context, order *ledger.PurchaseOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[order.ID] = order
	return nil
}

func (r *fakeOrderRepo) FindByID(_ context.Context, id uuid.UUID) (*ledger.PurchaseOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.orders[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return order, nil
}

func (r *fakeOrderRepo) FindByOrderNumber(_ context.Context, orderNumber string) (*ledger.PurchaseOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, order := range r.orders {
		if order.OrderNumber == orderNumber {
			return order, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *fakeOrderRepo) FindAll(_ context.Context, filter shared.Filter) (*shared.Paginated[ledger.PurchaseOrder], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := make([]ledger.PurchaseOrder, 0, len(r.orders))
	for _, order := range r.orders {
		items = append(items, *order)
	}
	page := shared.NewPaginated(items, int64(len(items)), filter.Page, filter.PageSize)
	return &page, nil
}

func (r *fakeOrderRepo) FindByStatus(_ context.Context, status ledger.PurchaseOrderStatus, filter shared.Filter) (*shared.Paginated[ledger.PurchaseOrder], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := make([]ledger.PurchaseOrder, 0)
	for _, order := range r.orders {
		if order.Status == status {
			items = append(items, *order)
		}
	}
	page := shared.NewPaginated(items, int64(len(items)), filter.Page, filter.PageSize)
	return &page, nil
}

func (r *fakeOrderRepo) ExistsByOrderNumber(_ context.Context, orderNumber string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, order := range r.orders {
		if order.OrderNumber == orderNumber {
			return true, nil
		}
	}
	return false, nil
}

type fakeEntryRepo struct {
	mu      sync.Mutex
	entries []ledger.LedgerEntry
}

func newFakeEntryRepo() *fakeEntryRepo {
	return &fakeEntryRepo{entries: make([]ledger.LedgerEntry, 0)}
}

func (r *fakeEntryRepo) Append(_ context.Context, entries ...*ledger.LedgerEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, entry := range entries {
		r.entries = append(r.entries, *entry)
	}
	return nil
}

func (r *fakeEntryRepo) FindByProduct(_ context.Context, productID uuid.UUID, filter shared.Filter) (*shared.Paginated[ledger.LedgerEntry], error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := make([]ledger.LedgerEntry, 0)
	for _, entry := range r.entries {
		if entry.ProductID == productID {
			items = append(items, entry)
		}
	}
	page := shared.NewPaginated(items, int64(len(items)), filter.Page, filter.PageSize)
	return &page, nil
}

func (r *fakeEntryRepo) FindByReference(_ context.Context, refType ledger.ReferenceType, refID string) ([]ledger.LedgerEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]ledger.LedgerEntry, 0)
	for _, entry := range r.entries {
		if entry.ReferenceType == refType && entry.ReferenceID == refID {
			result = append(result, entry)
		}
	}
	return result, nil
}

// testEnv bundles the fakes and a no-op transaction scope for service tests
type testEnv struct {
	productRepo *fakeProductRepo
	batchRepo   *fakeBatchRepo
	orderRepo   *fakeOrderRepo
	entryRepo   *fakeEntryRepo
	txScope     *NoOpTransactionScope
}

func newTestEnv() *testEnv {
	productRepo := newFakeProductRepo()
	batchRepo := newFakeBatchRepo()
	orderRepo := newFakeOrderRepo()
	entryRepo := newFakeEntryRepo()
	return &testEnv{
		productRepo: productRepo,
		batchRepo:   batchRepo,
		orderRepo:   orderRepo,
		entryRepo:   entryRepo,
		txScope:     NewNoOpTransactionScope(productRepo, batchRepo, orderRepo, entryRepo),
	}
}
