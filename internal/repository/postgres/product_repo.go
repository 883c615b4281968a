package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/northbridge-systems/commerce-core/internal/domain"
)

type ProductRepository struct {
	pool *pgxpool.Pool
}

func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

func (r *ProductRepository) Create(ctx context.Context, p *domain.Product) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO products (id, sku, name, description, uom_code, tenant_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID, p.Sku, p.Name, p.Description, p.UomCode, p.TenantID, p.CreatedAt, p.UpdatedAt)
	return err
}

func (r *ProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return scanProduct(r.pool.QueryRow(ctx, productSelect+` WHERE id = $1`, id))
}

func (r *ProductRepository) GetBySku(ctx context.Context, sku string) (*domain.Product, error) {
	return scanProduct(r.pool.QueryRow(ctx, productSelect+` WHERE sku = $1`, sku))
}

const productSelect = `SELECT id, sku, name, description, uom_code, tenant_id, created_at, updated_at FROM products`

func scanProduct(row pgx.Row) (*domain.Product, error) {
	var p domain.Product
	if err := row.Scan(&p.ID, &p.Sku, &p.Name, &p.Description, &p.UomCode, &p.TenantID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProductNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *ProductRepository) Update(ctx context.Context, p *domain.Product) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE products SET sku = $1, name = $2, description = $3, uom_code = $4, updated_at = $5 WHERE id = $6`,
		p.Sku, p.Name, p.Description, p.UomCode, p.UpdatedAt, p.ID)
	return err
}

func (r *ProductRepository) List(ctx context.Context, limit, offset int) ([]*domain.Product, error) {
	rows, err := r.pool.Query(ctx, productSelect+` ORDER BY name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []*domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *ProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	return err
}

// ProductVariantRepository stores per-variant attributes as a JSON map
// rather than an EAV table, since BomEngine/InventoryCore only ever need
// the attributes for display and never filter by a specific one.
type ProductVariantRepository struct {
	pool *pgxpool.Pool
}

func NewProductVariantRepository(pool *pgxpool.Pool) *ProductVariantRepository {
	return &ProductVariantRepository{pool: pool}
}

func (r *ProductVariantRepository) Create(ctx context.Context, v *domain.ProductVariant) error {
	attrs, err := json.Marshal(v.Attributes)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO product_variants (id, product_id, sku, name, attributes, tenant_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		v.ID, v.ProductID, v.Sku, v.Name, attrs, v.TenantID, v.CreatedAt, v.UpdatedAt)
	return err
}

func (r *ProductVariantRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.ProductVariant, error) {
	return scanVariantRow(r.pool.QueryRow(ctx, variantSelect+` WHERE id = $1`, id))
}

func (r *ProductVariantRepository) GetBySku(ctx context.Context, sku string) (*domain.ProductVariant, error) {
	return scanVariantRow(r.pool.QueryRow(ctx, variantSelect+` WHERE sku = $1`, sku))
}

func (r *ProductVariantRepository) ListByProduct(ctx context.Context, productID uuid.UUID) ([]*domain.ProductVariant, error) {
	rows, err := r.pool.Query(ctx, variantSelect+` WHERE product_id = $1`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var variants []*domain.ProductVariant
	for rows.Next() {
		v, err := scanVariantRow(rows)
		if err != nil {
			return nil, err
		}
		variants = append(variants, v)
	}
	return variants, rows.Err()
}

const variantSelect = `SELECT id, product_id, sku, name, attributes, tenant_id, created_at, updated_at FROM product_variants`

func scanVariantRow(row pgx.Row) (*domain.ProductVariant, error) {
	var v domain.ProductVariant
	var attrs []byte
	if err := row.Scan(&v.ID, &v.ProductID, &v.Sku, &v.Name, &attrs, &v.TenantID, &v.CreatedAt, &v.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProductVariantNotFound
		}
		return nil, err
	}
	if len(attrs) > 0 {
		if err := json.Unmarshal(attrs, &v.Attributes); err != nil {
			return nil, err
		}
	}
	return &v, nil
}

func (r *ProductVariantRepository) Update(ctx context.Context, v *domain.ProductVariant) error {
	attrs, err := json.Marshal(v.Attributes)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		UPDATE product_variants SET sku = $1, name = $2, attributes = $3, updated_at = $4 WHERE id = $5`,
		v.Sku, v.Name, attrs, v.UpdatedAt, v.ID)
	return err
}

func (r *ProductVariantRepository) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM product_variants WHERE id = $1`, id)
	return err
}
