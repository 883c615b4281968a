package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CartStatus string

const (
	CartActive    CartStatus = "ACTIVE"
	CartConverting CartStatus = "CONVERTING"
	CartConverted CartStatus = "CONVERTED"
	CartAbandoned CartStatus = "ABANDONED"
)

type Cart struct {
	ID         uuid.UUID
	CustomerID *uuid.UUID
	Status     CartStatus
	Currency   string
	TenantID   *string
	Version    int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type CartItem struct {
	ID              uuid.UUID
	CartID          uuid.UUID
	ProductVariantID uuid.UUID
	Quantity        decimal.Decimal
	UnitPrice       decimal.Decimal
	DiscountAmount  decimal.Decimal
	TaxRate         *decimal.Decimal
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// LineTotal returns (quantity * unit_price) - discount_amount.
func (i *CartItem) LineTotal() decimal.Decimal {
	return i.Quantity.Mul(i.UnitPrice).Sub(i.DiscountAmount)
}

type CartRepository interface {
	Create(ctx context.Context, c *Cart) error
	GetByID(ctx context.Context, id uuid.UUID) (*Cart, error)
	GetForUpdate(ctx context.Context, tx Tx, id uuid.UUID) (*Cart, error)
	Update(ctx context.Context, tx Tx, c *Cart, expectedVersion int64) error
	AddItem(ctx context.Context, item *CartItem) error
	UpdateItem(ctx context.Context, item *CartItem) error
	RemoveItem(ctx context.Context, cartID, itemID uuid.UUID) error
	ListItems(ctx context.Context, cartID uuid.UUID) ([]*CartItem, error)

	WithTx(ctx context.Context, fn func(tx Tx) error) error
}
