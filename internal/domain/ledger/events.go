package ledger

import (
	"github.com/shopspring/decimal"
	"github.com/stockledger/backend/internal/domain/shared"
)

// Event type constants
const (
	EventTypeProductRevalued        = "ledger.product.revalued"
	EventTypePurchaseOrderReceived  = "ledger.purchase_order.received"
	EventTypePurchaseOrderCancelled = "ledger.purchase_order.cancelled"
)

// ProductRevaluedEvent is raised when a recompute changes the product's
// derived quantity or unit cost
type ProductRevaluedEvent struct {
	shared.BaseDomainEvent
	QuantityOnHand decimal.Decimal `json:"quantity_on_hand"`
	UnitCost       decimal.Decimal `json:"unit_cost"`
}

// NewProductRevaluedEvent creates a product revalued event
func NewProductRevaluedEvent(product *Product, v Valuation) *ProductRevaluedEvent {
	return &ProductRevaluedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeProductRevalued, "Product", product.ID),
		QuantityOnHand:  v.Quantity,
		UnitCost:        v.UnitCost,
	}
}

// PurchaseOrderReceivedEvent is raised after a (partial or full) receipt
type PurchaseOrderReceivedEvent struct {
	shared.BaseDomainEvent
	OrderNumber   string              `json:"order_number"`
	Status        PurchaseOrderStatus `json:"status"`
	ReceivedLines []ReceivedLineInfo  `json:"received_lines"`
}

// NewPurchaseOrderReceivedEvent creates a purchase order received event
func NewPurchaseOrderReceivedEvent(order *PurchaseOrder, received []ReceivedLineInfo) *PurchaseOrderReceivedEvent {
	return &PurchaseOrderReceivedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseOrderReceived, "PurchaseOrder", order.ID),
		OrderNumber:     order.OrderNumber,
		Status:          order.Status,
		ReceivedLines:   received,
	}
}

// PurchaseOrderCancelledEvent is raised when an order is cancelled
type PurchaseOrderCancelledEvent struct {
	shared.BaseDomainEvent
	OrderNumber string `json:"order_number"`
	Reason      string `json:"reason"`
}

// NewPurchaseOrderCancelledEvent creates a purchase order cancelled event
func NewPurchaseOrderCancelledEvent(order *PurchaseOrder) *PurchaseOrderCancelledEvent {
	return &PurchaseOrderCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseOrderCancelled, "PurchaseOrder", order.ID),
		OrderNumber:     order.OrderNumber,
		Reason:          order.CancelReason,
	}
}
