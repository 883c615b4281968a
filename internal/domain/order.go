package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderPending    OrderStatus = "PENDING"
	OrderConfirmed  OrderStatus = "CONFIRMED"
	OrderProcessing OrderStatus = "PROCESSING"
	OrderShipped    OrderStatus = "SHIPPED"
	OrderDelivered  OrderStatus = "DELIVERED"
	OrderReturned   OrderStatus = "RETURNED"
	OrderCancelled  OrderStatus = "CANCELLED"
)

// orderTransitions is the closed adjacency list for Order.Status. Any
// transition not listed here is rejected with ErrInvalidOrderTransition.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:    {OrderConfirmed, OrderCancelled},
	OrderConfirmed:  {OrderProcessing, OrderCancelled},
	OrderProcessing: {OrderShipped, OrderCancelled},
	OrderShipped:    {OrderDelivered},
	OrderDelivered:  {OrderReturned},
	OrderReturned:   {},
	OrderCancelled:  {},
}

// CanTransitionOrder reports whether moving from `from` to `to` is a legal
// Order state transition.
func CanTransitionOrder(from, to OrderStatus) bool {
	for _, allowed := range orderTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentSucceeded PaymentStatus = "SUCCEEDED"
	PaymentFailed    PaymentStatus = "FAILED"
	PaymentRefunded  PaymentStatus = "REFUNDED"
)

type Order struct {
	ID              uuid.UUID
	OrderNumber     string
	CustomerID      *uuid.UUID
	Status          OrderStatus
	PaymentStatus   PaymentStatus
	Currency        string
	Subtotal        decimal.Decimal
	ShippingTotal   decimal.Decimal
	TaxTotal        decimal.Decimal
	Total           decimal.Decimal
	ShippingAddress Address
	BillingAddress  Address
	ShippingMethod  ShippingMethod
	TenantID        *string
	Version         int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type OrderItem struct {
	ID               uuid.UUID
	OrderID          uuid.UUID
	ProductVariantID uuid.UUID
	Sku              string
	Name             string
	Quantity         decimal.Decimal
	UnitPrice        decimal.Decimal
	DiscountAmount   decimal.Decimal
	TaxRate          *decimal.Decimal
	TaxAmount        decimal.Decimal
}

func (i *OrderItem) LineTotal() decimal.Decimal {
	return i.Quantity.Mul(i.UnitPrice).Sub(i.DiscountAmount).Add(i.TaxAmount)
}

type Payment struct {
	ID              uuid.UUID
	OrderID         uuid.UUID
	Status          PaymentStatus
	Amount          decimal.Decimal
	Currency        string
	GatewayReference *string
	FailureReason   *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type Invoice struct {
	ID          uuid.UUID
	OrderID     uuid.UUID
	InvoiceNumber string
	Total       decimal.Decimal
	IssuedAt    time.Time
}

type ShipmentStatus string

const (
	ShipmentPending   ShipmentStatus = "PENDING"
	ShipmentInTransit ShipmentStatus = "IN_TRANSIT"
	ShipmentDelivered ShipmentStatus = "DELIVERED"
)

type Shipment struct {
	ID             uuid.UUID
	OrderID        uuid.UUID
	Status         ShipmentStatus
	TrackingNumber *string
	Carrier        *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type OrderRepository interface {
	Create(ctx context.Context, tx Tx, o *Order, items []*OrderItem) error
	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)
	GetForUpdate(ctx context.Context, tx Tx, id uuid.UUID) (*Order, error)
	Update(ctx context.Context, tx Tx, o *Order, expectedVersion int64) error
	ListItems(ctx context.Context, orderID uuid.UUID) ([]*OrderItem, error)
	List(ctx context.Context, customerID *uuid.UUID, limit, offset int) ([]*Order, error)

	CreatePayment(ctx context.Context, tx Tx, p *Payment) error
	GetPaymentByOrderID(ctx context.Context, orderID uuid.UUID) (*Payment, error)

	CreateInvoice(ctx context.Context, tx Tx, inv *Invoice) error
	GetInvoiceByOrderID(ctx context.Context, orderID uuid.UUID) (*Invoice, error)

	CreateShipment(ctx context.Context, tx Tx, s *Shipment) error
	GetShipmentByOrderID(ctx context.Context, orderID uuid.UUID) (*Shipment, error)
	UpdateShipment(ctx context.Context, s *Shipment) error

	WithTx(ctx context.Context, fn func(tx Tx) error) error
}
