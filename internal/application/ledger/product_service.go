package ledger

import (
	"context"

	"github.com/google/uuid"

	"github.com/stockledger/backend/internal/domain/ledger"
	"github.com/stockledger/backend/internal/domain/shared"
	"github.com/stockledger/backend/internal/domain/shared/valueobject"
)

// ProductService manages the product catalog surface. Stock quantities and
// costs on a product are derived from its batches and only move through the
// batch, picking and receiving services.
type ProductService struct {
	productRepo ledger.ProductRepository
	entryRepo   ledger.LedgerEntryRepository
	txScope     TransactionScope
}

// NewProductService creates a new ProductService
func NewProductService(productRepo ledger.ProductRepository, entryRepo ledger.LedgerEntryRepository, txScope TransactionScope) *ProductService {
	return &ProductService{
		productRepo: productRepo,
		entryRepo:   entryRepo,
		txScope:     txScope,
	}
}

// Create registers a new product with zero stock
func (s *ProductService) Create(ctx context.Context, req CreateProductRequest) (*ProductResponse, error) {
	exists, err := s.productRepo.ExistsByCode(ctx, req.Code)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Product code already exists")
	}

	product, err := ledger.NewProduct(req.Name, req.Code, req.Category, valueobject.NewMoneyUSD(req.SellingPrice))
	if err != nil {
		return nil, err
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}

	response := ToProductResponse(product)
	return &response, nil
}

// Update changes a product's display attributes and selling price
func (s *ProductService) Update(ctx context.Context, productID uuid.UUID, req UpdateProductRequest) (*ProductResponse, error) {
	var product *ledger.Product

	err := withConflictRetry(func() error {
		return s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
			var err error
			product, err = repos.ProductRepo().FindByID(ctx, productID)
			if err != nil {
				return err
			}

			if err := product.Rename(req.Name, req.Category); err != nil {
				return err
			}
			if req.SellingPrice != nil {
				if err := product.SetSellingPrice(valueobject.NewMoneyUSD(*req.SellingPrice)); err != nil {
					return err
				}
			}

			return repos.ProductRepo().Save(ctx, product)
		})
	})
	if err != nil {
		return nil, err
	}

	response := ToProductResponse(product)
	return &response, nil
}

// Delete removes a product. Only products without stock may be deleted.
func (s *ProductService) Delete(ctx context.Context, productID uuid.UUID) error {
	return s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		product, err := repos.ProductRepo().FindByID(ctx, productID)
		if err != nil {
			return err
		}

		if product.HasStock() {
			return shared.NewDomainError("INVALID_STATE", "Cannot delete a product that still holds stock")
		}

		return repos.ProductRepo().Delete(ctx, productID)
	})
}

// GetByID retrieves a product by ID
func (s *ProductService) GetByID(ctx context.Context, productID uuid.UUID) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	response := ToProductResponse(product)
	return &response, nil
}

// GetByCode retrieves a product by its unique code
func (s *ProductService) GetByCode(ctx context.Context, code string) (*ProductResponse, error) {
	product, err := s.productRepo.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	response := ToProductResponse(product)
	return &response, nil
}

// List retrieves products with pagination
func (s *ProductService) List(ctx context.Context, filter shared.Filter) (*shared.Paginated[ProductResponse], error) {
	page, err := s.productRepo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}

	items := make([]ProductResponse, len(page.Items))
	for i := range page.Items {
		items[i] = ToProductResponse(&page.Items[i])
	}
	result := shared.NewPaginated(items, page.Total, page.Page, page.PageSize)
	return &result, nil
}

// ListMovements retrieves the movement log of a product, newest first
func (s *ProductService) ListMovements(ctx context.Context, productID uuid.UUID, filter shared.Filter) (*shared.Paginated[ledger.LedgerEntry], error) {
	if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
		return nil, err
	}
	return s.entryRepo.FindByProduct(ctx, productID, filter)
}
