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

// CheckoutSessionRepository stores CheckoutSession rows, serializing the
// two embedded Address values as JSON columns rather than normalized
// tables, since a session is never queried by address field. The optional
// ShippingMethod/TaxRateOverride are stored as plain nullable columns.
type CheckoutSessionRepository struct {
	pool *pgxpool.Pool
}

func NewCheckoutSessionRepository(pool *pgxpool.Pool) *CheckoutSessionRepository {
	return &CheckoutSessionRepository{pool: pool}
}

func (r *CheckoutSessionRepository) WithTx(ctx context.Context, fn func(tx domain.Tx) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *CheckoutSessionRepository) Create(ctx context.Context, s *domain.CheckoutSession) error {
	shippingAddr, billingAddr, err := marshalAddresses(s)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO checkout_sessions
			(id, cart_id, status, customer_email, shipping_address, billing_address,
			 shipping_method, tax_rate_override, order_id, payment_id, invoice_id, shipment_id,
			 tenant_id, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`,
		s.ID, s.CartID, s.Status, s.CustomerEmail, shippingAddr, billingAddr,
		s.ShippingMethod, s.TaxRateOverride, s.OrderID, s.PaymentID, s.InvoiceID, s.ShipmentID,
		s.TenantID, s.Version, s.CreatedAt, s.UpdatedAt)
	return err
}

func (r *CheckoutSessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.CheckoutSession, error) {
	return scanCheckoutSession(r.pool.QueryRow(ctx, checkoutSelect+` WHERE id = $1`, id))
}

func (r *CheckoutSessionRepository) GetForUpdate(ctx context.Context, tx domain.Tx, id uuid.UUID) (*domain.CheckoutSession, error) {
	return scanCheckoutSession(unwrapTx(tx).QueryRow(ctx, checkoutSelect+` WHERE id = $1 FOR UPDATE`, id))
}

const checkoutSelect = `
	SELECT id, cart_id, status, customer_email, shipping_address, billing_address,
	       shipping_method, tax_rate_override, order_id, payment_id, invoice_id, shipment_id,
	       tenant_id, version, created_at, updated_at
	FROM checkout_sessions`

func scanCheckoutSession(row pgx.Row) (*domain.CheckoutSession, error) {
	var s domain.CheckoutSession
	var shippingAddr, billingAddr []byte
	if err := row.Scan(&s.ID, &s.CartID, &s.Status, &s.CustomerEmail, &shippingAddr, &billingAddr,
		&s.ShippingMethod, &s.TaxRateOverride, &s.OrderID, &s.PaymentID, &s.InvoiceID, &s.ShipmentID,
		&s.TenantID, &s.Version, &s.CreatedAt, &s.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCheckoutSessionNotFound
		}
		return nil, err
	}
	if len(shippingAddr) > 0 {
		var a domain.Address
		if err := json.Unmarshal(shippingAddr, &a); err != nil {
			return nil, err
		}
		s.ShippingAddress = &a
	}
	if len(billingAddr) > 0 {
		var a domain.Address
		if err := json.Unmarshal(billingAddr, &a); err != nil {
			return nil, err
		}
		s.BillingAddress = &a
	}
	return &s, nil
}

func (r *CheckoutSessionRepository) Update(ctx context.Context, tx domain.Tx, s *domain.CheckoutSession, expectedVersion int64) error {
	shippingAddr, billingAddr, err := marshalAddresses(s)
	if err != nil {
		return err
	}
	tag, err := unwrapTx(tx).Exec(ctx, `
		UPDATE checkout_sessions
		SET status = $1, customer_email = $2, shipping_address = $3, billing_address = $4,
		    shipping_method = $5, tax_rate_override = $6, order_id = $7, payment_id = $8,
		    invoice_id = $9, shipment_id = $10, version = $11, updated_at = $12
		WHERE id = $13 AND version = $14`,
		s.Status, s.CustomerEmail, shippingAddr, billingAddr,
		s.ShippingMethod, s.TaxRateOverride, s.OrderID, s.PaymentID, s.InvoiceID, s.ShipmentID,
		s.Version, s.UpdatedAt, s.ID, expectedVersion)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrConcurrentModification
	}
	return nil
}

func marshalAddresses(s *domain.CheckoutSession) ([]byte, []byte, error) {
	var shippingAddr, billingAddr []byte
	var err error
	if s.ShippingAddress != nil {
		shippingAddr, err = json.Marshal(s.ShippingAddress)
		if err != nil {
			return nil, nil, err
		}
	}
	if s.BillingAddress != nil {
		billingAddr, err = json.Marshal(s.BillingAddress)
		if err != nil {
			return nil, nil, err
		}
	}
	return shippingAddr, billingAddr, nil
}
