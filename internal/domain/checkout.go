package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CheckoutSessionStatus string

const (
	CheckoutStarted          CheckoutSessionStatus = "STARTED"
	CheckoutReadyForPayment  CheckoutSessionStatus = "READY_FOR_PAYMENT"
	CheckoutCompletedStatus  CheckoutSessionStatus = "COMPLETED"
	CheckoutAbandoned        CheckoutSessionStatus = "ABANDONED"
)

type ShippingMethod string

const (
	ShippingStandard  ShippingMethod = "STANDARD"
	ShippingExpress   ShippingMethod = "EXPRESS"
	ShippingOvernight ShippingMethod = "OVERNIGHT"
)

// ShippingRate is the quoted cost and lead time for a ShippingMethod,
// computed by CheckoutService.QuoteShippingRate and echoed back to the client
// before checkout completion.
type ShippingRate struct {
	Method        ShippingMethod
	Amount        decimal.Decimal
	EstimatedDays int
}

type Address struct {
	FirstName    string
	LastName     string
	Company      *string
	AddressLine1 string
	AddressLine2 *string
	City         string
	Province     string
	CountryCode  string
	PostalCode   string
	Phone        *string
}

// CheckoutSession tracks the cart->order conversion workflow. It is kept
// after the order exists, carrying the IDs of the rows checkout created;
// OrderEngine writes the final addresses/shipping method onto the Order.
type CheckoutSession struct {
	ID              uuid.UUID
	CartID          uuid.UUID
	Status          CheckoutSessionStatus
	CustomerEmail   *string
	ShippingAddress *Address
	BillingAddress  *Address
	ShippingMethod  *ShippingMethod
	TaxRateOverride *decimal.Decimal
	// OrderID is stamped by CompleteCheckout as soon as the order row
	// exists, whatever the payment outcome; PaymentID/InvoiceID/ShipmentID
	// are stamped only on the successful-capture path. A session that already
	// carries an OrderID makes Complete idempotent: replaying it returns
	// the existing order instead of creating a second one.
	OrderID    *uuid.UUID
	PaymentID  *uuid.UUID
	InvoiceID  *uuid.UUID
	ShipmentID *uuid.UUID
	TenantID   *string
	Version    int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Ready reports whether every field complete_checkout requires has been
// set: customer email, shipping address, and shipping method.
func (s *CheckoutSession) Ready() bool {
	return s.CustomerEmail != nil && s.ShippingAddress != nil && s.ShippingMethod != nil
}

type CheckoutSessionRepository interface {
	Create(ctx context.Context, s *CheckoutSession) error
	GetByID(ctx context.Context, id uuid.UUID) (*CheckoutSession, error)
	GetForUpdate(ctx context.Context, tx Tx, id uuid.UUID) (*CheckoutSession, error)
	Update(ctx context.Context, tx Tx, s *CheckoutSession, expectedVersion int64) error

	WithTx(ctx context.Context, fn func(tx Tx) error) error
}
