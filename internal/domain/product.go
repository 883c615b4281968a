package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Product is the sellable/stockable catalog root. Variants, when present,
// carry their own SKU and inventory balances; a product with no variants is
// tracked directly by ProductID in InventoryBalance.
type Product struct {
	ID          uuid.UUID
	Sku         string
	Name        string
	Description *string
	UomCode     string
	TenantID    *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ProductVariant is an optional refinement of a Product (size, color, …).
type ProductVariant struct {
	ID          uuid.UUID
	ProductID   uuid.UUID
	Sku         string
	Name        string
	Attributes  map[string]string
	TenantID    *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type ProductRepository interface {
	Create(ctx context.Context, p *Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*Product, error)
	GetBySku(ctx context.Context, sku string) (*Product, error)
	Update(ctx context.Context, p *Product) error
	List(ctx context.Context, limit, offset int) ([]*Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type ProductVariantRepository interface {
	Create(ctx context.Context, v *ProductVariant) error
	GetByID(ctx context.Context, id uuid.UUID) (*ProductVariant, error)
	GetBySku(ctx context.Context, sku string) (*ProductVariant, error)
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]*ProductVariant, error)
	Update(ctx context.Context, v *ProductVariant) error
	Delete(ctx context.Context, id uuid.UUID) error
}
