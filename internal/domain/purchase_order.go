package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PurchaseOrderStatus string

const (
	PoDraft      PurchaseOrderStatus = "DRAFT"
	PoIssued     PurchaseOrderStatus = "ISSUED"
	PoPartiallyReceived PurchaseOrderStatus = "PARTIALLY_RECEIVED"
	PoReceived   PurchaseOrderStatus = "RECEIVED"
	PoClosed     PurchaseOrderStatus = "CLOSED"
	PoCancelled  PurchaseOrderStatus = "CANCELLED"
)

var poTransitions = map[PurchaseOrderStatus][]PurchaseOrderStatus{
	PoDraft:             {PoIssued, PoCancelled},
	PoIssued:            {PoPartiallyReceived, PoReceived, PoCancelled},
	PoPartiallyReceived: {PoPartiallyReceived, PoReceived, PoCancelled},
	PoReceived:          {PoClosed},
	PoClosed:            {},
	PoCancelled:         {},
}

func CanTransitionPurchaseOrder(from, to PurchaseOrderStatus) bool {
	for _, allowed := range poTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

type PurchaseOrder struct {
	ID           uuid.UUID
	PoNumber     string
	VendorID     uuid.UUID
	Status       PurchaseOrderStatus
	Currency     string
	LocationID   string
	TenantID     *string
	Version      int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type PoLine struct {
	ID               uuid.UUID
	PurchaseOrderID  uuid.UUID
	LineNumber       int64
	ItemID           uuid.UUID
	QuantityOrdered  decimal.Decimal
	QuantityReceived decimal.Decimal
	QuantityReturned decimal.Decimal
	UnitCost         decimal.Decimal
}

// RemainingToReceive is QuantityOrdered minus everything already received.
func (l *PoLine) RemainingToReceive() decimal.Decimal {
	return l.QuantityOrdered.Sub(l.QuantityReceived)
}

type PoReceiptHeader struct {
	ID              uuid.UUID
	PurchaseOrderID uuid.UUID
	ReceivedAt      time.Time
	Notes           *string
}

type PoReceiptLine struct {
	ID              uuid.UUID
	ReceiptHeaderID uuid.UUID
	PoLineID        uuid.UUID
	QuantityReceived decimal.Decimal
	// Returned marks this posting as a return-to-vendor (negative
	// delta_on_hand) rather than a receipt.
	Returned bool
}

type PurchaseOrderRepository interface {
	Create(ctx context.Context, tx Tx, po *PurchaseOrder, lines []*PoLine) error
	GetByID(ctx context.Context, id uuid.UUID) (*PurchaseOrder, error)
	GetForUpdate(ctx context.Context, tx Tx, id uuid.UUID) (*PurchaseOrder, error)
	Update(ctx context.Context, tx Tx, po *PurchaseOrder, expectedVersion int64) error
	ListLines(ctx context.Context, poID uuid.UUID) ([]*PoLine, error)
	GetLineForUpdate(ctx context.Context, tx Tx, lineID uuid.UUID) (*PoLine, error)
	UpdateLine(ctx context.Context, tx Tx, l *PoLine) error

	CreateReceipt(ctx context.Context, tx Tx, h *PoReceiptHeader, lines []*PoReceiptLine) error
	ListReceipts(ctx context.Context, poID uuid.UUID) ([]*PoReceiptHeader, error)

	WithTx(ctx context.Context, fn func(tx Tx) error) error
}
