package ledger

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockledger/backend/internal/domain/shared"
	"github.com/stockledger/backend/internal/domain/shared/valueobject"
)

// PurchaseOrderStatus represents the status of a purchase order
type PurchaseOrderStatus string

const (
	// PurchaseOrderStatusOpen accepts further (partial) receipts
	PurchaseOrderStatusOpen PurchaseOrderStatus = "OPEN"
	// PurchaseOrderStatusReceived means every line is fully received (terminal)
	PurchaseOrderStatusReceived PurchaseOrderStatus = "RECEIVED"
	// PurchaseOrderStatusCancelled is terminal; no further receiving permitted
	PurchaseOrderStatusCancelled PurchaseOrderStatus = "CANCELLED"
)

// IsValid checks if the status is a valid PurchaseOrderStatus
func (s PurchaseOrderStatus) IsValid() bool {
	switch s {
	case PurchaseOrderStatusOpen, PurchaseOrderStatusReceived, PurchaseOrderStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation
func (s PurchaseOrderStatus) String() string {
	return string(s)
}

// IsTerminal returns true for RECEIVED and CANCELLED
func (s PurchaseOrderStatus) IsTerminal() bool {
	return s == PurchaseOrderStatusReceived || s == PurchaseOrderStatusCancelled
}

// CanReceive returns true if receiving goods is allowed in this status
func (s PurchaseOrderStatus) CanReceive() bool {
	return s == PurchaseOrderStatusOpen
}

// PurchaseOrderLine represents a line item in a purchase order
type PurchaseOrderLine struct {
	ID               uuid.UUID       `gorm:"type:uuid;primary_key"`
	OrderID          uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID        uuid.UUID       `gorm:"type:uuid;not null"`
	ProductName      string          `gorm:"type:varchar(200);not null"`
	OrderedQuantity  decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	ReceivedQuantity decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitPrice        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Amount           decimal.Decimal `gorm:"type:decimal(18,4);not null"` // OrderedQuantity * UnitPrice
	CreatedAt        time.Time       `gorm:"not null"`
	UpdatedAt        time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PurchaseOrderLine) TableName() string {
	return "purchase_order_lines"
}

// NewPurchaseOrderLine creates a new purchase order line
func NewPurchaseOrderLine(orderID, productID uuid.UUID, productName string, quantity decimal.Decimal, unitPrice valueobject.Money) (*PurchaseOrderLine, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("PRODUCT_NOT_FOUND", "Product ID cannot be empty")
	}
	if productName == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Product name cannot be empty")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Ordered quantity must be positive")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Unit price cannot be negative")
	}

	now := time.Now()
	return &PurchaseOrderLine{
		ID:               uuid.New(),
		OrderID:          orderID,
		ProductID:        productID,
		ProductName:      productName,
		OrderedQuantity:  quantity,
		ReceivedQuantity: decimal.Zero,
		UnitPrice:        unitPrice.Amount(),
		Amount:           quantity.Mul(unitPrice.Amount()),
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// Touch refreshes the update timestamp
func (l *PurchaseOrderLine) Touch() {
	l.UpdatedAt = time.Now()
}

// RemainingQuantity returns the quantity still to be received
func (l *PurchaseOrderLine) RemainingQuantity() decimal.Decimal {
	remaining := l.OrderedQuantity.Sub(l.ReceivedQuantity)
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}

// IsFullyReceived returns true if all ordered quantity has been received
func (l *PurchaseOrderLine) IsFullyReceived() bool {
	return l.ReceivedQuantity.GreaterThanOrEqual(l.OrderedQuantity)
}

// AddReceivedQuantity adds to the received counter, enforcing received <= ordered
func (l *PurchaseOrderLine) AddReceivedQuantity(quantity decimal.Decimal) error {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError("INVALID_QUANTITY", "Receive quantity must be positive")
	}

	newReceived := l.ReceivedQuantity.Add(quantity)
	if newReceived.GreaterThan(l.OrderedQuantity) {
		return shared.NewDomainError("OVER_RECEIPT", fmt.Sprintf("Cannot receive %s, only %s remaining on line", quantity.String(), l.RemainingQuantity().String()))
	}

	l.ReceivedQuantity = newReceived
	l.Touch()
	return nil
}

// ReceiveLine is a single line of an inbound receipt request
type ReceiveLine struct {
	ProductID   uuid.UUID       `json:"product_id"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price,omitempty"` // Optional override of the ordered price
	BatchNumber string          `json:"batch_number,omitempty"`
	ExpiryDate  *time.Time      `json:"expiry_date,omitempty"`
}

// ReceivedLineInfo describes one line's receipt after it has been applied
type ReceivedLineInfo struct {
	LineID      uuid.UUID
	ProductID   uuid.UUID
	ProductName string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	BatchNumber string
	ExpiryDate  *time.Time
}

// PurchaseOrder represents a supplier order aggregate root.
// Lifecycle: OPEN -> (partial receive)* -> RECEIVED, or OPEN -> CANCELLED.
type PurchaseOrder struct {
	shared.BaseAggregateRoot
	OrderNumber  string              `gorm:"type:varchar(50);not null;uniqueIndex"`
	SupplierID   uuid.UUID           `gorm:"type:uuid;not null;index"`
	SupplierName string              `gorm:"type:varchar(200);not null"`
	Lines        []PurchaseOrderLine `gorm:"foreignKey:OrderID;references:ID"`
	TotalAmount  decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	Status       PurchaseOrderStatus `gorm:"type:varchar(20);not null;default:'OPEN'"`
	ReceivedAt   *time.Time
	CancelledAt  *time.Time
	CancelReason string `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (PurchaseOrder) TableName() string {
	return "purchase_orders"
}

// NewPurchaseOrder creates a new open purchase order
func NewPurchaseOrder(orderNumber string, supplierID uuid.UUID, supplierName string) (*PurchaseOrder, error) {
	if orderNumber == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Order number cannot be empty")
	}
	if supplierID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "Supplier ID cannot be empty")
	}
	if supplierName == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "Supplier name cannot be empty")
	}

	return &PurchaseOrder{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderNumber:       orderNumber,
		SupplierID:        supplierID,
		SupplierName:      supplierName,
		Lines:             make([]PurchaseOrderLine, 0),
		TotalAmount:       decimal.Zero,
		Status:            PurchaseOrderStatusOpen,
	}, nil
}

// AddLine adds a line to the order. Allowed only while OPEN and before any
// goods have been received for the order.
func (o *PurchaseOrder) AddLine(productID uuid.UUID, productName string, quantity decimal.Decimal, unitPrice valueobject.Money) (*PurchaseOrderLine, error) {
	if o.Status != PurchaseOrderStatusOpen {
		return nil, shared.NewDomainError("INVALID_STATE", "Cannot add lines to a closed order")
	}
	if o.hasReceivedAnyGoods() {
		return nil, shared.NewDomainError("INVALID_STATE", "Cannot add lines after goods have been received")
	}
	for _, line := range o.Lines {
		if line.ProductID == productID {
			return nil, shared.NewDomainError("ALREADY_EXISTS", "Product already has a line on this order")
		}
	}

	line, err := NewPurchaseOrderLine(o.ID, productID, productName, quantity, unitPrice)
	if err != nil {
		return nil, err
	}

	o.Lines = append(o.Lines, *line)
	o.recalculateTotal()
	o.Touch()
	o.IncrementVersion()

	return line, nil
}

// Receive applies a set of receipt lines against the order. Each line's
// received counter is incremented (OVER_RECEIPT when it would exceed the
// ordered quantity); the order transitions to RECEIVED once every line is
// fully received, otherwise it stays OPEN for further partial receipts.
func (o *PurchaseOrder) Receive(receiveLines []ReceiveLine) ([]ReceivedLineInfo, error) {
	if !o.Status.CanReceive() {
		return nil, shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot receive goods for order in %s status", o.Status))
	}
	if len(receiveLines) == 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Receive lines cannot be empty")
	}

	received := make([]ReceivedLineInfo, 0, len(receiveLines))

	for _, rl := range receiveLines {
		if rl.Quantity.LessThanOrEqual(decimal.Zero) {
			return nil, shared.NewDomainError("INVALID_QUANTITY", fmt.Sprintf("Receive quantity for product %s must be positive", rl.ProductID))
		}

		line := o.GetLineByProduct(rl.ProductID)
		if line == nil {
			return nil, shared.NewDomainError("NOT_FOUND", fmt.Sprintf("Product %s not found on order", rl.ProductID))
		}

		if err := line.AddReceivedQuantity(rl.Quantity); err != nil {
			return nil, err
		}

		unitPrice := line.UnitPrice
		if rl.UnitPrice.GreaterThan(decimal.Zero) {
			unitPrice = rl.UnitPrice
		}

		received = append(received, ReceivedLineInfo{
			LineID:      line.ID,
			ProductID:   rl.ProductID,
			ProductName: line.ProductName,
			Quantity:    rl.Quantity,
			UnitPrice:   unitPrice,
			BatchNumber: rl.BatchNumber,
			ExpiryDate:  rl.ExpiryDate,
		})
	}

	if o.isFullyReceived() {
		now := time.Now()
		o.Status = PurchaseOrderStatusReceived
		o.ReceivedAt = &now
	}

	o.Touch()
	o.IncrementVersion()
	o.AddDomainEvent(NewPurchaseOrderReceivedEvent(o, received))

	return received, nil
}

// Cancel cancels the order. Blocked once any goods have been received,
// since received stock already sits in the batch ledger.
func (o *PurchaseOrder) Cancel(reason string) error {
	if o.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot cancel order in %s status", o.Status))
	}
	if reason == "" {
		return shared.NewDomainError("INVALID_INPUT", "Cancel reason is required")
	}
	if o.hasReceivedAnyGoods() {
		return shared.NewDomainError("INVALID_STATE", "Cannot cancel order after goods have been received")
	}

	now := time.Now()
	o.Status = PurchaseOrderStatusCancelled
	o.CancelledAt = &now
	o.CancelReason = reason
	o.Touch()
	o.IncrementVersion()
	o.AddDomainEvent(NewPurchaseOrderCancelledEvent(o))

	return nil
}

// GetLineByProduct returns the line for a product, or nil
func (o *PurchaseOrder) GetLineByProduct(productID uuid.UUID) *PurchaseOrderLine {
	for idx := range o.Lines {
		if o.Lines[idx].ProductID == productID {
			return &o.Lines[idx]
		}
	}
	return nil
}

// TotalRemainingQuantity returns the total quantity still to be received
func (o *PurchaseOrder) TotalRemainingQuantity() decimal.Decimal {
	total := decimal.Zero
	for _, line := range o.Lines {
		total = total.Add(line.RemainingQuantity())
	}
	return total
}

// IsFullyReceived returns true if the order has reached RECEIVED
func (o *PurchaseOrder) IsFullyReceived() bool {
	return o.Status == PurchaseOrderStatusReceived
}

func (o *PurchaseOrder) isFullyReceived() bool {
	for _, line := range o.Lines {
		if !line.IsFullyReceived() {
			return false
		}
	}
	return len(o.Lines) > 0
}

func (o *PurchaseOrder) hasReceivedAnyGoods() bool {
	for _, line := range o.Lines {
		if line.ReceivedQuantity.GreaterThan(decimal.Zero) {
			return true
		}
	}
	return false
}

func (o *PurchaseOrder) recalculateTotal() {
	total := decimal.Zero
	for _, line := range o.Lines {
		total = total.Add(line.Amount)
	}
	o.TotalAmount = total
}
