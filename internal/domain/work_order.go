package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type WorkOrderStatus string

const (
	WoPendingMaterials  WorkOrderStatus = "PENDING_MATERIALS"
	WoReady             WorkOrderStatus = "READY"
	WoInProgress        WorkOrderStatus = "IN_PROGRESS"
	WoPartiallyCompleted WorkOrderStatus = "PARTIALLY_COMPLETED"
	WoOnHold            WorkOrderStatus = "ON_HOLD"
	WoCompleted         WorkOrderStatus = "COMPLETED"
	WoCancelled         WorkOrderStatus = "CANCELLED"
)

var woTransitions = map[WorkOrderStatus][]WorkOrderStatus{
	WoPendingMaterials:   {WoReady, WoCancelled},
	WoReady:              {WoInProgress, WoCancelled, WoOnHold},
	WoInProgress:         {WoCompleted, WoPartiallyCompleted, WoOnHold},
	WoPartiallyCompleted: {WoInProgress, WoCompleted, WoPartiallyCompleted},
	WoOnHold:             {WoReady, WoInProgress},
	WoCompleted:          {},
	WoCancelled:          {},
}

func CanTransitionWorkOrder(from, to WorkOrderStatus) bool {
	for _, allowed := range woTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// WorkOrder ties a BomHeader to an inventory-consuming/producing
// manufacturing run. Scrap tracking is intentionally not modeled; see
// DESIGN.md's Open Question notes.
type WorkOrder struct {
	ID               uuid.UUID
	WoNumber         string
	ItemID           uuid.UUID
	BomHeaderID      uuid.UUID
	LocationID       string
	QuantityPlanned  decimal.Decimal
	QuantityProduced decimal.Decimal
	Status           WorkOrderStatus
	// HeldFrom remembers the status Hold suspended so Resume can restore it
	// (Ready or InProgress), per spec's "restores prior" resume semantics.
	HeldFrom       *WorkOrderStatus
	ActualStart    *time.Time
	TenantID       *string
	Version        int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type WorkOrderRepository interface {
	Create(ctx context.Context, tx Tx, wo *WorkOrder) error
	GetByID(ctx context.Context, id uuid.UUID) (*WorkOrder, error)
	GetForUpdate(ctx context.Context, tx Tx, id uuid.UUID) (*WorkOrder, error)
	Update(ctx context.Context, tx Tx, wo *WorkOrder, expectedVersion int64) error
	List(ctx context.Context, status *WorkOrderStatus, limit, offset int) ([]*WorkOrder, error)

	WithTx(ctx context.Context, fn func(tx Tx) error) error
}
