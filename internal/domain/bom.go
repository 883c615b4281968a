package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BomStatus string

const (
	BomDraft  BomStatus = "DRAFT"
	BomActive BomStatus = "ACTIVE"
	BomRetired BomStatus = "RETIRED"
)

// BomHeader is one version of the bill of materials that produces ItemID.
// Only one ACTIVE header per item is consulted by BomEngine.Explode; prior
// versions are retained for audit/history.
type BomHeader struct {
	ID        uuid.UUID
	ItemID    uuid.UUID
	Status    BomStatus
	TenantID  *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// BomLine is one component requirement within a BomHeader: QuantityPer
// units of ComponentItemID are required per 1 unit of the parent item.
type BomLine struct {
	ID              uuid.UUID
	BomHeaderID     uuid.UUID
	ComponentItemID uuid.UUID
	QuantityPer     decimal.Decimal
	UomCode         string
}

// ComponentRequirement is one row of a flattened BOM explosion: the total
// quantity of ComponentItemID needed to build Quantity units of the root
// item, aggregated across every path the component appears on.
type ComponentRequirement struct {
	ItemID          uuid.UUID
	RequiredQuantity decimal.Decimal
	UomCode         string
}

// ComponentShortage is one row of ComponentAvailability.Shortages: the gap
// between what a work order needs and what is available to reserve.
type ComponentShortage struct {
	ItemID    uuid.UUID
	Required  decimal.Decimal
	Available decimal.Decimal
}

// ComponentAvailability is BomEngine.ValidateAvailability's verdict.
type ComponentAvailability struct {
	CanProduce bool
	Shortages  []ComponentShortage
}

type BomRepository interface {
	CreateHeader(ctx context.Context, h *BomHeader) error
	GetActiveHeaderForItem(ctx context.Context, itemID uuid.UUID) (*BomHeader, error)
	GetHeaderByID(ctx context.Context, id uuid.UUID) (*BomHeader, error)
	AddLine(ctx context.Context, l *BomLine) error
	ListLines(ctx context.Context, headerID uuid.UUID) ([]*BomLine, error)
}
