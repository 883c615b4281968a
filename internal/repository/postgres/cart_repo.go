package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/northbridge-systems/commerce-core/internal/domain"
)

type CartRepository struct {
	pool *pgxpool.Pool
}

func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

func (r *CartRepository) WithTx(ctx context.Context, fn func(tx domain.Tx) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *CartRepository) Create(ctx context.Context, c *domain.Cart) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO carts (id, customer_id, status, currency, tenant_id, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		c.ID, c.CustomerID, c.Status, c.Currency, c.TenantID, c.Version, c.CreatedAt, c.UpdatedAt)
	return err
}

func (r *CartRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Cart, error) {
	return scanCart(r.pool.QueryRow(ctx, cartSelect+` WHERE id = $1`, id))
}

func (r *CartRepository) GetForUpdate(ctx context.Context, tx domain.Tx, id uuid.UUID) (*domain.Cart, error) {
	return scanCart(unwrapTx(tx).QueryRow(ctx, cartSelect+` WHERE id = $1 FOR UPDATE`, id))
}

const cartSelect = `SELECT id, customer_id, status, currency, tenant_id, version, created_at, updated_at FROM carts`

func scanCart(row pgx.Row) (*domain.Cart, error) {
	var c domain.Cart
	if err := row.Scan(&c.ID, &c.CustomerID, &c.Status, &c.Currency, &c.TenantID, &c.Version, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCartNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (r *CartRepository) Update(ctx context.Context, tx domain.Tx, c *domain.Cart, expectedVersion int64) error {
	tag, err := unwrapTx(tx).Exec(ctx, `
		UPDATE carts SET status = $1, version = $2, updated_at = $3 WHERE id = $4 AND version = $5`,
		c.Status, c.Version, c.UpdatedAt, c.ID, expectedVersion)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrConcurrentModification
	}
	return nil
}

func (r *CartRepository) AddItem(ctx context.Context, item *domain.CartItem) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO cart_items (id, cart_id, product_variant_id, quantity, unit_price, discount_amount, tax_rate, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		item.ID, item.CartID, item.ProductVariantID, item.Quantity, item.UnitPrice, item.DiscountAmount, item.TaxRate, item.CreatedAt, item.UpdatedAt)
	return err
}

func (r *CartRepository) UpdateItem(ctx context.Context, item *domain.CartItem) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE cart_items SET quantity = $1, unit_price = $2, discount_amount = $3, tax_rate = $4, updated_at = $5
		WHERE id = $6`,
		item.Quantity, item.UnitPrice, item.DiscountAmount, item.TaxRate, item.UpdatedAt, item.ID)
	return err
}

func (r *CartRepository) RemoveItem(ctx context.Context, cartID, itemID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1 AND id = $2`, cartID, itemID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCartItemNotFound
	}
	return nil
}

func (r *CartRepository) ListItems(ctx context.Context, cartID uuid.UUID) ([]*domain.CartItem, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, cart_id, product_variant_id, quantity, unit_price, discount_amount, tax_rate, created_at, updated_at
		FROM cart_items WHERE cart_id = $1 ORDER BY created_at`, cartID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*domain.CartItem
	for rows.Next() {
		var i domain.CartItem
		if err := rows.Scan(&i.ID, &i.CartID, &i.ProductVariantID, &i.Quantity, &i.UnitPrice, &i.DiscountAmount, &i.TaxRate, &i.CreatedAt, &i.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, &i)
	}
	return items, rows.Err()
}
