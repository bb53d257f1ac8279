package ledger

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stockledger/backend/internal/domain/shared"
)

// EntryDirection classifies a ledger entry as stock coming in or going out
type EntryDirection string

const (
	EntryDirectionInbound  EntryDirection = "INBOUND"
	EntryDirectionOutbound EntryDirection = "OUTBOUND"
	EntryDirectionReturn   EntryDirection = "RETURN"
)

// IsValid checks if the direction is a known entry direction
func (d EntryDirection) IsValid() bool {
	switch d {
	case EntryDirectionInbound, EntryDirectionOutbound, EntryDirectionReturn:
		return true
	}
	return false
}

// ReferenceType identifies the external document that caused a stock movement
type ReferenceType string

const (
	ReferenceTypePurchaseOrder ReferenceType = "PURCHASE_ORDER"
	ReferenceTypeSale          ReferenceType = "SALE"
	ReferenceTypeManual        ReferenceType = "MANUAL"
	ReferenceTypeReturn        ReferenceType = "RETURN"
)

// LedgerEntry is an append-only audit record of a single stock movement.
// Entries are never updated or deleted; they exist so every quantity and cost
// on a product can be traced back to the document that caused it.
type LedgerEntry struct {
	shared.BaseEntity
	ProductID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	BatchID       *uuid.UUID      `gorm:"type:uuid;index"`
	Direction     EntryDirection  `gorm:"type:varchar(20);not null"`
	Quantity      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	UnitCost      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	ReferenceType ReferenceType   `gorm:"type:varchar(30);not null;index:idx_ledger_entries_reference"`
	ReferenceID   string          `gorm:"type:varchar(100);not null;index:idx_ledger_entries_reference"`
	Remark        string          `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (LedgerEntry) TableName() string {
	return "ledger_entries"
}

// NewLedgerEntry creates a new stock movement record
func NewLedgerEntry(productID uuid.UUID, batchID *uuid.UUID, direction EntryDirection, quantity, unitCost decimal.Decimal, refType ReferenceType, refID, remark string) (*LedgerEntry, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError("PRODUCT_NOT_FOUND", "Product ID cannot be empty")
	}
	if !direction.IsValid() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Unknown ledger entry direction")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError("INVALID_QUANTITY", "Ledger entry quantity must be positive")
	}
	if unitCost.IsNegative() {
		return nil, shared.NewDomainError("INVALID_INPUT", "Ledger entry unit cost cannot be negative")
	}

	return &LedgerEntry{
		BaseEntity:    shared.NewBaseEntity(),
		ProductID:     productID,
		BatchID:       batchID,
		Direction:     direction,
		Quantity:      quantity,
		UnitCost:      unitCost,
		ReferenceType: refType,
		ReferenceID:   refID,
		Remark:        remark,
	}, nil
}

// TotalCost returns quantity times unit cost for this movement
func (e *LedgerEntry) TotalCost() decimal.Decimal {
	return e.Quantity.Mul(e.UnitCost)
}
