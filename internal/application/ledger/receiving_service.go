package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/stockledger/backend/internal/domain/ledger"
	"github.com/stockledger/backend/internal/domain/shared"
	"github.com/stockledger/backend/internal/domain/shared/valueobject"
)

// ReceivingService reconciles purchase order receipts with the batch ledger.
// Receiving goods creates one batch per received line, records the inbound
// movements, revalues the affected products and advances the order's state,
// all in one transaction. Price advisories are computed against the recomputed
// costs but never change a selling price.
type ReceivingService struct {
	orderRepo ledger.PurchaseOrderRepository
	txScope   TransactionScope
	markup    decimal.Decimal
	logger    *zap.Logger
}

// NewReceivingService creates a new ReceivingService. markup is the
// multiplier used for suggested selling prices, e.g. 1.2 for cost plus 20%.
func NewReceivingService(orderRepo ledger.PurchaseOrderRepository, txScope TransactionScope, markup decimal.Decimal, logger *zap.Logger) *ReceivingService {
	if markup.LessThanOrEqual(decimal.Zero) {
		markup = decimal.NewFromFloat(1.2)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReceivingService{
		orderRepo: orderRepo,
		txScope:   txScope,
		markup:    markup,
		logger:    logger,
	}
}

// CreateOrder opens a new purchase order with the given lines.
func (s *ReceivingService) CreateOrder(ctx context.Context, req CreatePurchaseOrderRequest) (*PurchaseOrderResponse, error) {
	var order *ledger.PurchaseOrder

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		exists, err := repos.OrderRepo().ExistsByOrderNumber(ctx, req.OrderNumber)
		if err != nil {
			return err
		}
		if exists {
			return shared.NewDomainError("ALREADY_EXISTS", "Order number already exists")
		}

		order, err = ledger.NewPurchaseOrder(req.OrderNumber, req.SupplierID, req.SupplierName)
		if err != nil {
			return err
		}

		for _, line := range req.Lines {
			product, err := repos.ProductRepo().FindByID(ctx, line.ProductID)
			if err != nil {
				return err
			}
			if _, err := order.AddLine(product.ID, product.Name, line.Quantity, valueobject.NewMoneyUSD(line.UnitPrice)); err != nil {
				return err
			}
		}

		return repos.OrderRepo().Save(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	response := ToPurchaseOrderResponse(order)
	return &response, nil
}

// Receive books an inbound receipt against an order. Each received line
// becomes a batch at the received price; the order transitions to RECEIVED
// once every line is fully received. The response carries advisory warnings
// for products whose recomputed cost now exceeds their selling price.
func (s *ReceivingService) Receive(ctx context.Context, orderID uuid.UUID, req ReceiveRequest) (*ReceiveResponse, error) {
	receiveLines := make([]ledger.ReceiveLine, len(req.Lines))
	for i, line := range req.Lines {
		receiveLines[i] = ledger.ReceiveLine{
			ProductID:   line.ProductID,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			BatchNumber: line.BatchNumber,
			ExpiryDate:  line.ExpiryDate,
		}
	}

	var order *ledger.PurchaseOrder
	var batches []BatchResponse
	var warnings []PriceWarningResponse
	var suggestions []PriceSuggestionResponse

	err := withConflictRetry(func() error {
		batches = nil
		warnings = nil
		suggestions = nil

		return s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
			var err error
			order, err = repos.OrderRepo().FindByID(ctx, orderID)
			if err != nil {
				return err
			}

			received, err := order.Receive(receiveLines)
			if err != nil {
				return err
			}

			for i, info := range received {
				batchNumber := info.BatchNumber
				if batchNumber == "" {
					// Nanosecond resolution keeps back-to-back receipts of
					// the same line from colliding on the batch number
					// unique index
					batchNumber = fmt.Sprintf("%s-%d-%d", order.OrderNumber, time.Now().UnixNano(), i)
				}

				batch, err := ledger.NewBatch(info.ProductID, batchNumber, info.Quantity, info.UnitPrice, info.ExpiryDate, nil, order.SupplierName)
				if err != nil {
					return err
				}
				if err := repos.BatchRepo().Save(ctx, batch); err != nil {
					return err
				}

				entry, err := ledger.NewLedgerEntry(info.ProductID, &batch.ID, ledger.EntryDirectionInbound, info.Quantity, info.UnitPrice, ledger.ReferenceTypePurchaseOrder, order.OrderNumber, "")
				if err != nil {
					return err
				}
				if err := repos.EntryRepo().Append(ctx, entry); err != nil {
					return err
				}

				product, err := revalueProduct(ctx, repos, info.ProductID)
				if err != nil {
					return err
				}

				if warning, suggestion := ledger.EvaluatePrice(product, product.UnitCost, s.markup); warning != nil {
					warnings = append(warnings, toPriceWarningResponse(warning))
					suggestions = append(suggestions, toPriceSuggestionResponse(suggestion))
				}

				batches = append(batches, ToBatchResponse(batch))
			}

			return repos.OrderRepo().Save(ctx, order)
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("purchase order received",
		zap.String("order_number", order.OrderNumber),
		zap.String("status", order.Status.String()),
		zap.Int("lines", len(req.Lines)),
		zap.Int("price_warnings", len(warnings)),
	)

	return &ReceiveResponse{
		Order:       ToPurchaseOrderResponse(order),
		Batches:     batches,
		Warnings:    warnings,
		Suggestions: suggestions,
	}, nil
}

// CheckPrices predicts, without any side effects, which products would need
// repricing if the order's remaining quantities were received at the ordered
// prices. The prediction blends each product's current aggregate with the
// incoming stock.
func (s *ReceivingService) CheckPrices(ctx context.Context, orderID uuid.UUID) (*CheckPricesResponse, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	response := &CheckPricesResponse{
		OrderID:     order.ID,
		Warnings:    make([]PriceWarningResponse, 0),
		Suggestions: make([]PriceSuggestionResponse, 0),
	}

	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		for _, line := range order.Lines {
			remaining := line.RemainingQuantity()
			if remaining.IsZero() {
				continue
			}

			product, err := repos.ProductRepo().FindByID(ctx, line.ProductID)
			if err != nil {
				return err
			}

			blended := ledger.BlendValuation(product.QuantityOnHand, product.UnitCost, remaining, line.UnitPrice)
			if warning, suggestion := ledger.EvaluatePrice(product, blended.UnitCost, s.markup); warning != nil {
				response.Warnings = append(response.Warnings, toPriceWarningResponse(warning))
				response.Suggestions = append(response.Suggestions, toPriceSuggestionResponse(suggestion))
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return response, nil
}

// CancelOrder cancels an order. Blocked once any goods have been received.
func (s *ReceivingService) CancelOrder(ctx context.Context, orderID uuid.UUID, req CancelPurchaseOrderRequest) (*PurchaseOrderResponse, error) {
	var order *ledger.PurchaseOrder

	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		order, err = repos.OrderRepo().FindByID(ctx, orderID)
		if err != nil {
			return err
		}

		if err := order.Cancel(req.Reason); err != nil {
			return err
		}

		return repos.OrderRepo().Save(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	response := ToPurchaseOrderResponse(order)
	return &response, nil
}

// GetOrder retrieves a purchase order by ID
func (s *ReceivingService) GetOrder(ctx context.Context, orderID uuid.UUID) (*PurchaseOrderResponse, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	response := ToPurchaseOrderResponse(order)
	return &response, nil
}

// ListOrders retrieves purchase orders with optional status filtering
func (s *ReceivingService) ListOrders(ctx context.Context, status string, filter shared.Filter) (*shared.Paginated[PurchaseOrderResponse], error) {
	var page *shared.Paginated[ledger.PurchaseOrder]
	var err error

	if status != "" {
		orderStatus := ledger.PurchaseOrderStatus(status)
		if !orderStatus.IsValid() {
			return nil, shared.NewDomainError("INVALID_INPUT", "Unknown order status: "+status)
		}
		page, err = s.orderRepo.FindByStatus(ctx, orderStatus, filter)
	} else {
		page, err = s.orderRepo.FindAll(ctx, filter)
	}
	if err != nil {
		return nil, err
	}

	items := make([]PurchaseOrderResponse, len(page.Items))
	for i := range page.Items {
		items[i] = ToPurchaseOrderResponse(&page.Items[i])
	}
	result := shared.NewPaginated(items, page.Total, page.Page, page.PageSize)
	return &result, nil
}
