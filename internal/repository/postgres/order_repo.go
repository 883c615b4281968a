package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/northbridge-systems/commerce-core/internal/domain"
)

// OrderRepository covers Order, OrderItem, Payment, Invoice and Shipment:
// the full set of rows that exist once checkout has produced an order,
// mirroring how the teacher groups a transaction and its transfer-pair
// sibling inside TransactionRepository rather than one repository per table.
type OrderRepository struct {
	pool *pgxpool.Pool
}

func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

func (r *OrderRepository) WithTx(ctx context.Context, fn func(tx domain.Tx) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *OrderRepository) Create(ctx context.Context, tx domain.Tx, o *domain.Order, items []*domain.OrderItem) error {
	t := unwrapTx(tx)
	_, err := t.Exec(ctx, `
		INSERT INTO orders
			(id, order_number, customer_id, status, payment_status, currency, subtotal, shipping_total, tax_total, total,
			 shipping_address, billing_address, shipping_method, tenant_id, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		o.ID, o.OrderNumber, o.CustomerID, o.Status, o.PaymentStatus, o.Currency, o.Subtotal, o.ShippingTotal, o.TaxTotal, o.Total,
		addressJSON(o.ShippingAddress), addressJSON(o.BillingAddress), o.ShippingMethod, o.TenantID, o.Version, o.CreatedAt, o.UpdatedAt)
	if err != nil {
		return err
	}
	for _, item := range items {
		if _, err := t.Exec(ctx, `
			INSERT INTO order_items
				(id, order_id, product_variant_id, sku, name, quantity, unit_price, discount_amount, tax_rate, tax_amount)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
			item.ID, item.OrderID, item.ProductVariantID, item.Sku, item.Name, item.Quantity, item.UnitPrice,
			item.DiscountAmount, item.TaxRate, item.TaxAmount); err != nil {
			return err
		}
	}
	return nil
}

func (r *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return scanOrder(r.pool.QueryRow(ctx, orderSelect+` WHERE id = $1`, id))
}

func (r *OrderRepository) GetForUpdate(ctx context.Context, tx domain.Tx, id uuid.UUID) (*domain.Order, error) {
	return scanOrder(unwrapTx(tx).QueryRow(ctx, orderSelect+` WHERE id = $1 FOR UPDATE`, id))
}

const orderSelect = `
	SELECT id, order_number, customer_id, status, payment_status, currency, subtotal, shipping_total, tax_total, total,
	       shipping_address, billing_address, shipping_method, tenant_id, version, created_at, updated_at
	FROM orders`

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var o domain.Order
	var shippingAddr, billingAddr []byte
	if err := row.Scan(&o.ID, &o.OrderNumber, &o.CustomerID, &o.Status, &o.PaymentStatus, &o.Currency,
		&o.Subtotal, &o.ShippingTotal, &o.TaxTotal, &o.Total, &shippingAddr, &billingAddr,
		&o.ShippingMethod, &o.TenantID, &o.Version, &o.CreatedAt, &o.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrOrderNotFound
		}
		return nil, err
	}
	if a, err := unmarshalAddress(shippingAddr); err != nil {
		return nil, err
	} else if a != nil {
		o.ShippingAddress = *a
	}
	if a, err := unmarshalAddress(billingAddr); err != nil {
		return nil, err
	} else if a != nil {
		o.BillingAddress = *a
	}
	return &o, nil
}

func (r *OrderRepository) Update(ctx context.Context, tx domain.Tx, o *domain.Order, expectedVersion int64) error {
	tag, err := unwrapTx(tx).Exec(ctx, `
		UPDATE orders
		SET status = $1, payment_status = $2, subtotal = $3, shipping_total = $4, tax_total = $5, total = $6,
		    version = $7, updated_at = $8
		WHERE id = $9 AND version = $10`,
		o.Status, o.PaymentStatus, o.Subtotal, o.ShippingTotal, o.TaxTotal, o.Total, o.Version, o.UpdatedAt, o.ID, expectedVersion)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrConcurrentModification
	}
	return nil
}

func (r *OrderRepository) ListItems(ctx context.Context, orderID uuid.UUID) ([]*domain.OrderItem, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, order_id, product_variant_id, sku, name, quantity, unit_price, discount_amount, tax_rate, tax_amount
		FROM order_items WHERE order_id = $1`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*domain.OrderItem
	for rows.Next() {
		var i domain.OrderItem
		if err := rows.Scan(&i.ID, &i.OrderID, &i.ProductVariantID, &i.Sku, &i.Name, &i.Quantity, &i.UnitPrice,
			&i.DiscountAmount, &i.TaxRate, &i.TaxAmount); err != nil {
			return nil, err
		}
		items = append(items, &i)
	}
	return items, rows.Err()
}

func (r *OrderRepository) List(ctx context.Context, customerID *uuid.UUID, limit, offset int) ([]*domain.Order, error) {
	var rows pgx.Rows
	var err error
	if customerID != nil {
		rows, err = r.pool.Query(ctx, orderSelect+` WHERE customer_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`, *customerID, limit, offset)
	} else {
		rows, err = r.pool.Query(ctx, orderSelect+` ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

func (r *OrderRepository) CreatePayment(ctx context.Context, tx domain.Tx, p *domain.Payment) error {
	_, err := unwrapTx(tx).Exec(ctx, `
		INSERT INTO payments (id, order_id, status, amount, currency, gateway_reference, failure_reason, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		p.ID, p.OrderID, p.Status, p.Amount, p.Currency, p.GatewayReference, p.FailureReason, p.CreatedAt, p.UpdatedAt)
	return err
}

func (r *OrderRepository) GetPaymentByOrderID(ctx context.Context, orderID uuid.UUID) (*domain.Payment, error) {
	var p domain.Payment
	err := r.pool.QueryRow(ctx, `
		SELECT id, order_id, status, amount, currency, gateway_reference, failure_reason, created_at, updated_at
		FROM payments WHERE order_id = $1`, orderID).
		Scan(&p.ID, &p.OrderID, &p.Status, &p.Amount, &p.Currency, &p.GatewayReference, &p.FailureReason, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrPaymentNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *OrderRepository) CreateInvoice(ctx context.Context, tx domain.Tx, inv *domain.Invoice) error {
	_, err := unwrapTx(tx).Exec(ctx, `
		INSERT INTO invoices (id, order_id, invoice_number, total, issued_at)
		VALUES ($1, $2, $3, $4, $5)`,
		inv.ID, inv.OrderID, inv.InvoiceNumber, inv.Total, inv.IssuedAt)
	return err
}

func (r *OrderRepository) GetInvoiceByOrderID(ctx context.Context, orderID uuid.UUID) (*domain.Invoice, error) {
	var inv domain.Invoice
	err := r.pool.QueryRow(ctx, `
		SELECT id, order_id, invoice_number, total, issued_at FROM invoices WHERE order_id = $1`, orderID).
		Scan(&inv.ID, &inv.OrderID, &inv.InvoiceNumber, &inv.Total, &inv.IssuedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrInvoiceNotFound
		}
		return nil, err
	}
	return &inv, nil
}

func (r *OrderRepository) CreateShipment(ctx context.Context, tx domain.Tx, s *domain.Shipment) error {
	_, err := unwrapTx(tx).Exec(ctx, `
		INSERT INTO shipments (id, order_id, status, tracking_number, carrier, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		s.ID, s.OrderID, s.Status, s.TrackingNumber, s.Carrier, s.CreatedAt, s.UpdatedAt)
	return err
}

func (r *OrderRepository) GetShipmentByOrderID(ctx context.Context, orderID uuid.UUID) (*domain.Shipment, error) {
	var s domain.Shipment
	err := r.pool.QueryRow(ctx, `
		SELECT id, order_id, status, tracking_number, carrier, created_at, updated_at
		FROM shipments WHERE order_id = $1`, orderID).
		Scan(&s.ID, &s.OrderID, &s.Status, &s.TrackingNumber, &s.Carrier, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrShipmentNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *OrderRepository) UpdateShipment(ctx context.Context, s *domain.Shipment) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE shipments SET status = $1, tracking_number = $2, carrier = $3, updated_at = $4 WHERE id = $5`,
		s.Status, s.TrackingNumber, s.Carrier, s.UpdatedAt, s.ID)
	return err
}
