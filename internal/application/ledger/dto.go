package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stockledger/backend/internal/domain/ledger"
)

// ProductResponse represents a product in API responses
type ProductResponse struct {
	ID             uuid.UUID       `json:"id"`
	Name           string          `json:"name"`
	Code           string          `json:"code"`
	Category       string          `json:"category,omitempty"`
	QuantityOnHand decimal.Decimal `json:"quantity_on_hand"`
	UnitCost       decimal.Decimal `json:"unit_cost"`
	SellingPrice   decimal.Decimal `json:"selling_price"`
	TotalValue     decimal.Decimal `json:"total_value"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
	Version        int             `json:"version"`
}

// ToProductResponse converts a product entity to its response representation
func ToProductResponse(product *ledger.Product) ProductResponse {
	return ProductResponse{
		ID:             product.ID,
		Name:           product.Name,
		Code:           product.Code,
		Category:       product.Category,
		QuantityOnHand: product.QuantityOnHand,
		UnitCost:       product.UnitCost,
		SellingPrice:   product.SellingPrice,
		TotalValue:     product.TotalValue(),
		CreatedAt:      product.CreatedAt,
		UpdatedAt:      product.UpdatedAt,
		Version:        product.Version,
	}
}

// CreateProductRequest represents a request to create a product
type CreateProductRequest struct {
	Name         string          `json:"name" binding:"required,min=1,max=200"`
	Code         string          `json:"code" binding:"required,min=1,max=50"`
	Category     string          `json:"category" binding:"max=100"`
	SellingPrice decimal.Decimal `json:"selling_price"`
}

// UpdateProductRequest represents a request to update product attributes
type UpdateProductRequest struct {
	Name         string           `json:"name" binding:"required,min=1,max=200"`
	Category     string           `json:"category" binding:"max=100"`
	SellingPrice *decimal.Decimal `json:"selling_price"`
}

// BatchResponse represents a batch in API responses
type BatchResponse struct {
	ID                uuid.UUID       `json:"id"`
	ProductID         uuid.UUID       `json:"product_id"`
	BatchNumber       string          `json:"batch_number"`
	Quantity          decimal.Decimal `json:"quantity"`
	RemainingQuantity decimal.Decimal `json:"remaining_quantity"`
	UnitCost          decimal.Decimal `json:"unit_cost"`
	TotalValue        decimal.Decimal `json:"total_value"`
	ExpiryDate        *time.Time      `json:"expiry_date,omitempty"`
	ManufactureDate   *time.Time      `json:"manufacture_date,omitempty"`
	Supplier          string          `json:"supplier,omitempty"`
	Exhausted         bool            `json:"exhausted"`
	Expired           bool            `json:"expired"`
	Notes             string          `json:"notes,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// ToBatchResponse converts a batch entity to its response representation
func ToBatchResponse(batch *ledger.Batch) BatchResponse {
	return BatchResponse{
		ID:                batch.ID,
		ProductID:         batch.ProductID,
		BatchNumber:       batch.BatchNumber,
		Quantity:          batch.Quantity,
		RemainingQuantity: batch.RemainingQuantity,
		UnitCost:          batch.UnitCost,
		TotalValue:        batch.TotalValue(),
		ExpiryDate:        batch.ExpiryDate,
		ManufactureDate:   batch.ManufactureDate,
		Supplier:          batch.Supplier,
		Exhausted:         batch.Exhausted,
		Expired:           batch.IsExpired(),
		Notes:             batch.Notes,
		CreatedAt:         batch.CreatedAt,
		UpdatedAt:         batch.UpdatedAt,
	}
}

// CreateBatchRequest represents a request to register a stock batch
type CreateBatchRequest struct {
	ProductID       uuid.UUID       `json:"product_id" binding:"required"`
	BatchNumber     string          `json:"batch_number" binding:"required,min=1,max=100"`
	Quantity        decimal.Decimal `json:"quantity" binding:"required"`
	UnitCost        decimal.Decimal `json:"unit_cost"`
	ExpiryDate      *time.Time      `json:"expiry_date"`
	ManufactureDate *time.Time      `json:"manufacture_date"`
	Supplier        string          `json:"supplier" binding:"max=200"`
	Notes           string          `json:"notes" binding:"max=500"`
	Reference       string          `json:"reference"`
}

// UpdateBatchRequest represents a request to correct a batch after the fact.
// Nil fields are left unchanged.
type UpdateBatchRequest struct {
	Quantity        *decimal.Decimal `json:"quantity"`
	UnitCost        *decimal.Decimal `json:"unit_cost"`
	ExpiryDate      *time.Time       `json:"expiry_date"`
	ManufactureDate *time.Time       `json:"manufacture_date"`
	Supplier        *string          `json:"supplier"`
	Notes           *string          `json:"notes"`
}

// PickRequest represents a request to pick stock from a product's batches
type PickRequest struct {
	ProductID uuid.UUID              `json:"product_id" binding:"required"`
	Quantity  decimal.Decimal        `json:"quantity" binding:"required"`
	Policy    string                 `json:"policy"` // defaults to the configured policy
	Batches   []SpecifiedPickRequest `json:"batches"`
	Reference string                 `json:"reference"`
	Remark    string                 `json:"remark" binding:"max=500"`
}

// SpecifiedPickRequest selects a specific batch for the SPECIFIED policy
type SpecifiedPickRequest struct {
	BatchID  uuid.UUID       `json:"batch_id" binding:"required"`
	Quantity decimal.Decimal `json:"quantity"`
}

// PickPlanLineResponse is one batch's contribution to a pick
type PickPlanLineResponse struct {
	BatchID     uuid.UUID       `json:"batch_id"`
	BatchNumber string          `json:"batch_number"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitCost    decimal.Decimal `json:"unit_cost"`
	LineCost    decimal.Decimal `json:"line_cost"`
}

// PickResponse represents the outcome of a pick
type PickResponse struct {
	ProductID           uuid.UUID              `json:"product_id"`
	Policy              string                 `json:"policy"`
	Lines               []PickPlanLineResponse `json:"lines"`
	TotalQuantity       decimal.Decimal        `json:"total_quantity"`
	TotalCost           decimal.Decimal        `json:"total_cost"`
	WeightedAverageCost decimal.Decimal        `json:"weighted_average_cost"`
	QuantityOnHand      decimal.Decimal        `json:"quantity_on_hand"`
	UnitCost            decimal.Decimal        `json:"unit_cost"`
}

// ToPickResponse converts a pick plan and the revalued product to a response
func ToPickResponse(plan *ledger.PickPlan, product *ledger.Product) PickResponse {
	lines := make([]PickPlanLineResponse, len(plan.Lines))
	for i, line := range plan.Lines {
		lines[i] = PickPlanLineResponse{
			BatchID:     line.BatchID,
			BatchNumber: line.BatchNumber,
			Quantity:    line.Quantity,
			UnitCost:    line.UnitCost,
			LineCost:    line.LineCost,
		}
	}
	return PickResponse{
		ProductID:           plan.ProductID,
		Policy:              plan.Policy.String(),
		Lines:               lines,
		TotalQuantity:       plan.TotalQuantity,
		TotalCost:           plan.TotalCost,
		WeightedAverageCost: plan.WeightedAverageCost,
		QuantityOnHand:      product.QuantityOnHand,
		UnitCost:            product.UnitCost,
	}
}

// RestoreQuantityRequest represents a request to return stock to a product,
// typically after a sale document is voided
type RestoreQuantityRequest struct {
	ProductID uuid.UUID       `json:"product_id" binding:"required"`
	Quantity  decimal.Decimal `json:"quantity" binding:"required"`
	Reference string          `json:"reference" binding:"required"`
	Remark    string          `json:"remark" binding:"max=500"`
}

// CreatePurchaseOrderRequest represents a request to open a purchase order
type CreatePurchaseOrderRequest struct {
	OrderNumber  string                           `json:"order_number" binding:"required,min=1,max=50"`
	SupplierID   uuid.UUID                        `json:"supplier_id" binding:"required"`
	SupplierName string                           `json:"supplier_name" binding:"required,min=1,max=200"`
	Lines        []CreatePurchaseOrderLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// CreatePurchaseOrderLineRequest is one line of a new purchase order
type CreatePurchaseOrderLineRequest struct {
	ProductID uuid.UUID       `json:"product_id" binding:"required"`
	Quantity  decimal.Decimal `json:"quantity" binding:"required"`
	UnitPrice decimal.Decimal `json:"unit_price" binding:"required"`
}

// ReceiveRequest represents an inbound receipt against a purchase order
type ReceiveRequest struct {
	Lines []ReceiveLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// ReceiveLineRequest is one line of an inbound receipt
type ReceiveLineRequest struct {
	ProductID   uuid.UUID       `json:"product_id" binding:"required"`
	Quantity    decimal.Decimal `json:"quantity" binding:"required"`
	UnitPrice   decimal.Decimal `json:"unit_price"` // Optional override of the ordered price
	BatchNumber string          `json:"batch_number" binding:"max=100"`
	ExpiryDate  *time.Time      `json:"expiry_date"`
}

// CancelPurchaseOrderRequest represents a request to cancel an order
type CancelPurchaseOrderRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500"`
}

// PurchaseOrderLineResponse represents an order line in API responses
type PurchaseOrderLineResponse struct {
	ID               uuid.UUID       `json:"id"`
	ProductID        uuid.UUID       `json:"product_id"`
	ProductName      string          `json:"product_name"`
	OrderedQuantity  decimal.Decimal `json:"ordered_quantity"`
	ReceivedQuantity decimal.Decimal `json:"received_quantity"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	Amount           decimal.Decimal `json:"amount"`
}

// PurchaseOrderResponse represents a purchase order in API responses
type PurchaseOrderResponse struct {
	ID           uuid.UUID                   `json:"id"`
	OrderNumber  string                      `json:"order_number"`
	SupplierID   uuid.UUID                   `json:"supplier_id"`
	SupplierName string                      `json:"supplier_name"`
	Status       string                      `json:"status"`
	TotalAmount  decimal.Decimal             `json:"total_amount"`
	Lines        []PurchaseOrderLineResponse `json:"lines"`
	ReceivedAt   *time.Time                  `json:"received_at,omitempty"`
	CancelledAt  *time.Time                  `json:"cancelled_at,omitempty"`
	CancelReason string                      `json:"cancel_reason,omitempty"`
	CreatedAt    time.Time                   `json:"created_at"`
	UpdatedAt    time.Time                   `json:"updated_at"`
	Version      int                         `json:"version"`
}

// ToPurchaseOrderResponse converts an order aggregate to its response representation
func ToPurchaseOrderResponse(order *ledger.PurchaseOrder) PurchaseOrderResponse {
	lines := make([]PurchaseOrderLineResponse, len(order.Lines))
	for i, line := range order.Lines {
		lines[i] = PurchaseOrderLineResponse{
			ID:               line.ID,
			ProductID:        line.ProductID,
			ProductName:      line.ProductName,
			OrderedQuantity:  line.OrderedQuantity,
			ReceivedQuantity: line.ReceivedQuantity,
			UnitPrice:        line.UnitPrice,
			Amount:           line.Amount,
		}
	}
	return PurchaseOrderResponse{
		ID:           order.ID,
		OrderNumber:  order.OrderNumber,
		SupplierID:   order.SupplierID,
		SupplierName: order.SupplierName,
		Status:       order.Status.String(),
		TotalAmount:  order.TotalAmount,
		Lines:        lines,
		ReceivedAt:   order.ReceivedAt,
		CancelledAt:  order.CancelledAt,
		CancelReason: order.CancelReason,
		CreatedAt:    order.CreatedAt,
		UpdatedAt:    order.UpdatedAt,
		Version:      order.Version,
	}
}

// PriceWarningResponse flags a product whose recomputed cost exceeds its
// selling price
type PriceWarningResponse struct {
	ProductID    uuid.UUID       `json:"product_id"`
	ProductName  string          `json:"product_name"`
	NewCost      decimal.Decimal `json:"new_cost"`
	SellingPrice decimal.Decimal `json:"selling_price"`
}

// PriceSuggestionResponse proposes a markup-based selling price
type PriceSuggestionResponse struct {
	ProductID      uuid.UUID       `json:"product_id"`
	ProductName    string          `json:"product_name"`
	NewCost        decimal.Decimal `json:"new_cost"`
	SuggestedPrice decimal.Decimal `json:"suggested_price"`
}

// ReceiveResponse represents the outcome of an inbound receipt
type ReceiveResponse struct {
	Order       PurchaseOrderResponse     `json:"order"`
	Batches     []BatchResponse           `json:"batches"`
	Warnings    []PriceWarningResponse    `json:"warnings,omitempty"`
	Suggestions []PriceSuggestionResponse `json:"suggestions,omitempty"`
}

// CheckPricesResponse reports, without side effects, which products would
// need repricing if the order were received at the given prices
type CheckPricesResponse struct {
	OrderID     uuid.UUID                 `json:"order_id"`
	Warnings    []PriceWarningResponse    `json:"warnings"`
	Suggestions []PriceSuggestionResponse `json:"suggestions"`
}

// RestoreQuantityResponse reports the synthetic return batch created by a restore
type RestoreQuantityResponse struct {
	Batch          BatchResponse   `json:"batch"`
	QuantityOnHand decimal.Decimal `json:"quantity_on_hand"`
	UnitCost       decimal.Decimal `json:"unit_cost"`
}

func toPriceWarningResponse(w *ledger.PriceWarning) PriceWarningResponse {
	return PriceWarningResponse{
		ProductID:    w.ProductID,
		ProductName:  w.ProductName,
		NewCost:      w.NewCost,
		SellingPrice: w.SellingPrice,
	}
}

func toPriceSuggestionResponse(s *ledger.PriceSuggestion) PriceSuggestionResponse {
	return PriceSuggestionResponse{
		ProductID:      s.ProductID,
		ProductName:    s.ProductName,
		NewCost:        s.NewCost,
		SuggestedPrice: s.SuggestedPrice,
	}
}
