package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType enumerates the closed set of inventory journal postings.
// Every InventoryCore primitive maps to exactly one of these.
type TransactionType string

const (
	TxnPurchaseReceipt      TransactionType = "PURCHASE_RECEIPT"
	TxnPurchaseReturn       TransactionType = "PURCHASE_RETURN"
	TxnSalesAllocation      TransactionType = "SALES_ALLOCATION"
	TxnSalesRelease         TransactionType = "SALES_RELEASE"
	TxnSalesShip            TransactionType = "SALES_SHIP"
	TxnManufacturingReserve TransactionType = "MANUFACTURING_RESERVE"
	TxnManufacturingRelease TransactionType = "MANUFACTURING_RELEASE"
	TxnManufacturingConsume TransactionType = "MANUFACTURING_CONSUME"
	TxnManufacturingProduce TransactionType = "MANUFACTURING_PRODUCE"
	TxnAdjustment           TransactionType = "ADJUSTMENT"
	TxnCycleCount           TransactionType = "CYCLE_COUNT"
)

// AdjustmentReason constrains free-text adjustment reasons to a closed enum,
// matching the original system's constrained status/type enums rather than
// accepting arbitrary strings.
type AdjustmentReason string

const (
	ReasonCycleCount   AdjustmentReason = "CYCLE_COUNT"
	ReasonDamage       AdjustmentReason = "DAMAGE"
	ReasonShrinkage    AdjustmentReason = "SHRINKAGE"
	ReasonCorrection   AdjustmentReason = "CORRECTION"
	ReasonReclassification AdjustmentReason = "RECLASSIFICATION"
)

// InventoryBalance is the authoritative on_hand/allocated/available triple
// for one (item, location) pair. available = on_hand - allocated is an
// invariant maintained by every InventoryCore primitive, never stored
// independently to avoid drift.
type InventoryBalance struct {
	ID         uuid.UUID
	ItemID     uuid.UUID
	LocationID string
	OnHand     decimal.Decimal
	Allocated  decimal.Decimal
	Version    int64
	TenantID   *string
	UpdatedAt  time.Time
}

// Available returns on_hand - allocated. Callers must never persist this
// value; it is always derived.
func (b *InventoryBalance) Available() decimal.Decimal {
	return b.OnHand.Sub(b.Allocated)
}

// InventoryTransaction is one immutable, append-only journal row. The
// journal is the source of truth; InventoryBalance is a materialized
// projection that every primitive updates in the same database transaction
// as the journal insert.
type InventoryTransaction struct {
	ID              uuid.UUID
	ItemID          uuid.UUID
	LocationID      string
	TransactionType TransactionType
	DeltaOnHand     decimal.Decimal
	DeltaAllocated  decimal.Decimal
	Reason          *AdjustmentReason
	ReferenceType   *string
	ReferenceID     *uuid.UUID
	Notes           *string
	TenantID        *string
	CreatedAt       time.Time
}

type InventoryRepository interface {
	GetBalance(ctx context.Context, itemID uuid.UUID, locationID string) (*InventoryBalance, error)
	// GetBalanceForUpdate locks the balance row (SELECT ... FOR UPDATE) for
	// the duration of the caller's transaction. Used by every primitive
	// that mutates on_hand/allocated.
	GetBalanceForUpdate(ctx context.Context, tx Tx, itemID uuid.UUID, locationID string) (*InventoryBalance, error)
	CreateBalance(ctx context.Context, tx Tx, b *InventoryBalance) error
	// UpdateBalance applies the new on_hand/allocated values, enforcing
	// `WHERE version = $expected`, returning ErrConcurrentModification if
	// zero rows were affected.
	UpdateBalance(ctx context.Context, tx Tx, b *InventoryBalance, expectedVersion int64) error
	InsertTransaction(ctx context.Context, tx Tx, t *InventoryTransaction) error
	ListTransactions(ctx context.Context, itemID uuid.UUID, locationID string, limit, offset int) ([]*InventoryTransaction, error)

	WithTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx abstracts a database transaction handle so internal/service never
// imports pgx directly; internal/repository/postgres supplies the concrete
// implementation backed by pgx.Tx.
type Tx interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}
