package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/northbridge-systems/commerce-core/internal/domain"
	"github.com/northbridge-systems/commerce-core/internal/eventbus"
)

// TaxConfig resolves the order total's tax rate when a checkout session has
// no per-line override, per spec.md's Open Question resolution: per-line
// OrderItem.TaxRate is authoritative when set, otherwise DefaultRate
// applies, and an explicit checkout-level override that conflicts with a
// per-line rate is rejected rather than silently preferred.
type TaxConfig struct {
	DefaultRate decimal.Decimal
}

var shippingRates = map[domain.ShippingMethod]struct {
	Amount        decimal.Decimal
	EstimatedDays int
}{
	domain.ShippingStandard:  {decimal.NewFromInt(10), 5},
	domain.ShippingExpress:   {decimal.NewFromInt(25), 2},
	domain.ShippingOvernight: {decimal.NewFromInt(50), 1},
}

// CheckoutService implements OrderEngine's cart->order conversion: the
// checkout session state machine and the complete-checkout protocol.
type CheckoutService struct {
	sessions   domain.CheckoutSessionRepository
	carts      domain.CartRepository
	orders     domain.OrderRepository
	gateway    domain.PaymentGateway
	inventory  *InventoryService
	locationID string
	publisher  eventbus.Publisher
	tax        TaxConfig
}

func NewCheckoutService(
	sessions domain.CheckoutSessionRepository,
	carts domain.CartRepository,
	orders domain.OrderRepository,
	gateway domain.PaymentGateway,
	inventory *InventoryService,
	locationID string,
	publisher eventbus.Publisher,
	tax TaxConfig,
) *CheckoutService {
	if publisher == nil {
		publisher = eventbus.NoOpPublisher{}
	}
	return &CheckoutService{
		sessions: sessions, carts: carts, orders: orders, gateway: gateway,
		inventory: inventory, locationID: locationID, publisher: publisher, tax: tax,
	}
}

// StartCheckout opens a CheckoutSession for an Active, non-empty cart and
// flips the cart to Converting so concurrent checkouts on the same cart
// are rejected.
func (s *CheckoutService) StartCheckout(ctx context.Context, cartID uuid.UUID) (*domain.CheckoutSession, error) {
	var session *domain.CheckoutSession

	err := s.carts.WithTx(ctx, func(tx domain.Tx) error {
		cart, err := s.carts.GetForUpdate(ctx, tx, cartID)
		if err != nil {
			return err
		}
		if cart.Status != domain.CartActive {
			return domain.NewDomainError(domain.KindInvalidStateTransition, "cart_not_active", "cart is not active", nil)
		}
		items, err := s.carts.ListItems(ctx, cartID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return domain.NewDomainError(domain.KindValidation, "cart_empty", "cart has no items", nil)
		}

		expectedVersion := cart.Version
		cart.Status = domain.CartConverting
		cart.Version++
		cart.UpdatedAt = time.Now()
		if err := s.carts.Update(ctx, tx, cart, expectedVersion); err != nil {
			return err
		}

		now := time.Now()
		session = &domain.CheckoutSession{
			ID:        uuid.New(),
			CartID:    cartID,
			Status:    domain.CheckoutStarted,
			Version:   1,
			CreatedAt: now,
			UpdatedAt: now,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// GetSession loads a checkout session by id, for read-only status checks.
func (s *CheckoutService) GetSession(ctx context.Context, sessionID uuid.UUID) (*domain.CheckoutSession, error) {
	return s.sessions.GetByID(ctx, sessionID)
}

func (s *CheckoutService) SetCustomerEmail(ctx context.Context, sessionID uuid.UUID, email string) error {
	return s.sessions.WithTx(ctx, func(tx domain.Tx) error {
		session, err := s.sessions.GetForUpdate(ctx, tx, sessionID)
		if err != nil {
			return err
		}
		expectedVersion := session.Version
		session.CustomerEmail = &email
		session.Version++
		session.UpdatedAt = time.Now()
		return s.sessions.Update(ctx, tx, session, expectedVersion)
	})
}

// SetShippingAddress sets the shipping address and, absent an explicit
// billing address, defaults billing to the same value, matching the
// original checkout flow's default.
func (s *CheckoutService) SetShippingAddress(ctx context.Context, sessionID uuid.UUID, address domain.Address) error {
	return s.sessions.WithTx(ctx, func(tx domain.Tx) error {
		session, err := s.sessions.GetForUpdate(ctx, tx, sessionID)
		if err != nil {
			return err
		}
		expectedVersion := session.Version
		session.ShippingAddress = &address
		session.BillingAddress = &address
		session.Version++
		session.UpdatedAt = time.Now()
		return s.sessions.Update(ctx, tx, session, expectedVersion)
	})
}

// SetTaxRateOverride sets the checkout-level tax rate used when no line
// item carries an explicit rate; see computeTax's conflict check.
func (s *CheckoutService) SetTaxRateOverride(ctx context.Context, sessionID uuid.UUID, rate decimal.Decimal) error {
	return s.sessions.WithTx(ctx, func(tx domain.Tx) error {
		session, err := s.sessions.GetForUpdate(ctx, tx, sessionID)
		if err != nil {
			return err
		}
		expectedVersion := session.Version
		session.TaxRateOverride = &rate
		session.Version++
		session.UpdatedAt = time.Now()
		return s.sessions.Update(ctx, tx, session, expectedVersion)
	})
}

// QuoteShippingRate computes the cost/lead-time for a method. Exposed
// separately from SetShippingMethod so a client can quote before
// committing to a method.
func (s *CheckoutService) QuoteShippingRate(method domain.ShippingMethod) (domain.ShippingRate, error) {
	rate, ok := shippingRates[method]
	if !ok {
		return domain.ShippingRate{}, domain.NewDomainError(domain.KindValidation, "invalid_shipping_method", "unknown shipping method", nil)
	}
	return domain.ShippingRate{Method: method, Amount: rate.Amount, EstimatedDays: rate.EstimatedDays}, nil
}

func (s *CheckoutService) SetShippingMethod(ctx context.Context, sessionID uuid.UUID, method domain.ShippingMethod) (domain.ShippingRate, error) {
	rate, err := s.QuoteShippingRate(method)
	if err != nil {
		return domain.ShippingRate{}, err
	}

	err = s.sessions.WithTx(ctx, func(tx domain.Tx) error {
		session, err := s.sessions.GetForUpdate(ctx, tx, sessionID)
		if err != nil {
			return err
		}
		expectedVersion := session.Version
		session.ShippingMethod = &method
		session.Status = domain.CheckoutReadyForPayment
		session.Version++
		session.UpdatedAt = time.Now()
		return s.sessions.Update(ctx, tx, session, expectedVersion)
	})
	if err != nil {
		return domain.ShippingRate{}, err
	}
	return rate, nil
}

// CancelCheckout abandons an in-progress checkout session and frees the
// cart back to Active so the customer can resume shopping or retry.
func (s *CheckoutService) CancelCheckout(ctx context.Context, sessionID uuid.UUID) (*domain.CheckoutSession, error) {
	var session *domain.CheckoutSession

	err := s.sessions.WithTx(ctx, func(tx domain.Tx) error {
		sess, err := s.sessions.GetForUpdate(ctx, tx, sessionID)
		if err != nil {
			return err
		}
		if sess.Status == domain.CheckoutCompletedStatus {
			return domain.NewDomainError(domain.KindInvalidStateTransition, "checkout_already_completed",
				"a completed checkout session cannot be cancelled", nil)
		}
		expectedVersion := sess.Version
		sess.Status = domain.CheckoutAbandoned
		sess.Version++
		sess.UpdatedAt = time.Now()
		if err := s.sessions.Update(ctx, tx, sess, expectedVersion); err != nil {
			return err
		}
		session = sess
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = s.carts.WithTx(ctx, func(tx domain.Tx) error {
		cart, err := s.carts.GetForUpdate(ctx, tx, session.CartID)
		if err != nil {
			return err
		}
		if cart.Status != domain.CartConverting {
			return nil
		}
		expectedVersion := cart.Version
		cart.Status = domain.CartActive
		cart.Version++
		cart.UpdatedAt = time.Now()
		return s.carts.Update(ctx, tx, cart, expectedVersion)
	})
	if err != nil {
		return nil, err
	}

	return session, nil
}

func generateOrderNumber(orderID uuid.UUID) string {
	return fmt.Sprintf("ORD-%s", strings.ToUpper(orderID.String()[:8]))
}

// CompleteCheckout runs the checkout completion protocol: reload the cart
// and session, verify every required field is set, compute totals, create
// the Order and its OrderItems in one transaction and commit, reserve every
// line's inventory through one BatchApply call, and only then call the
// payment gateway (an external call has no place inside a database
// transaction). A retry that lands after the order has already been
// created resumes from the stamped session.OrderID instead of re-charging:
// the session is stamped with the order as soon as it exists, well before
// the gateway is ever called, so a crash between reservation and capture
// replays into GetByID rather than a second AuthorizeAndCapture.
func (s *CheckoutService) CompleteCheckout(ctx context.Context, sessionID uuid.UUID) (*domain.Order, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.OrderID != nil {
		return s.orders.GetByID(ctx, *session.OrderID)
	}
	if session.Status != domain.CheckoutReadyForPayment {
		return nil, domain.NewDomainError(domain.KindInvalidStateTransition, "checkout_not_ready",
			"checkout session must be ReadyForPayment to complete", nil)
	}
	if !session.Ready() {
		return nil, domain.NewDomainError(domain.KindValidation, "checkout_incomplete", "checkout session is missing required fields", nil)
	}

	cart, items, err := (&CartService{repo: s.carts}).GetCart(ctx, session.CartID)
	if err != nil {
		return nil, err
	}

	order, err := s.createPendingOrder(ctx, session, cart, items)
	if err != nil {
		return nil, err
	}
	if err := s.stampSessionOrderID(ctx, session.ID, order.ID); err != nil {
		return nil, err
	}

	if err := s.reserveOrderItems(ctx, order); err != nil {
		return nil, err
	}

	now := time.Now()
	result, gwErr := s.gateway.AuthorizeAndCapture(ctx, order.ID, order.Total, order.Currency)

	if gwErr != nil || !result.Approved {
		reason := ""
		if gwErr != nil {
			reason = gwErr.Error()
		} else {
			reason = result.FailureReason
		}
		if err := s.recordPaymentFailure(ctx, order, reason); err != nil {
			return nil, err
		}
		_ = s.publisher.Publish(ctx, eventbus.PaymentFailed(uuid.New().String(), order.ID.String(), reason, now))
		return order, nil
	}

	if err := s.recordPaymentSuccess(ctx, session, order, result); err != nil {
		return nil, err
	}

	_ = s.publisher.Publish(ctx, eventbus.CheckoutCompleted(session.CartID.String(), session.ID.String(), order.ID.String(), now))
	_ = s.publisher.Publish(ctx, eventbus.OrderCreated(order.ID.String(), order.OrderNumber, orderCustomerID(order), now))
	_ = s.publisher.Publish(ctx, eventbus.PaymentCaptured(result.GatewayReference, order.ID.String(), now))

	return order, nil
}

// stampSessionOrderID brands the session with the order it produced as soon
// as the order exists, independent of payment outcome, so a replayed
// completion call resumes rather than creating a second order.
func (s *CheckoutService) stampSessionOrderID(ctx context.Context, sessionID, orderID uuid.UUID) error {
	return s.sessions.WithTx(ctx, func(tx domain.Tx) error {
		sess, err := s.sessions.GetForUpdate(ctx, tx, sessionID)
		if err != nil {
			return err
		}
		expected := sess.Version
		sess.OrderID = &orderID
		sess.Version++
		sess.UpdatedAt = time.Now()
		return s.sessions.Update(ctx, tx, sess, expected)
	})
}

func orderCustomerID(o *domain.Order) string {
	if o.CustomerID == nil {
		return ""
	}
	return o.CustomerID.String()
}

func (s *CheckoutService) createPendingOrder(ctx context.Context, session *domain.CheckoutSession, cart *domain.Cart, items []*domain.CartItem) (*domain.Order, error) {
	subtotal := Subtotal(items)
	shippingRate, err := s.QuoteShippingRate(*session.ShippingMethod)
	if err != nil {
		return nil, err
	}

	taxTotal, err := s.computeTax(subtotal, items, session)
	if err != nil {
		return nil, err
	}

	orderID := uuid.New()
	now := time.Now()
	order := &domain.Order{
		ID:              orderID,
		OrderNumber:     generateOrderNumber(orderID),
		CustomerID:      cart.CustomerID,
		Status:          domain.OrderPending,
		PaymentStatus:   domain.PaymentPending,
		Currency:        cart.Currency,
		Subtotal:        subtotal,
		ShippingTotal:   shippingRate.Amount,
		TaxTotal:        taxTotal,
		Total:           subtotal.Add(shippingRate.Amount).Add(taxTotal),
		ShippingAddress: *session.ShippingAddress,
		BillingAddress:  *session.BillingAddress,
		ShippingMethod:  *session.ShippingMethod,
		TenantID:        session.TenantID,
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	orderItems := make([]*domain.OrderItem, len(items))
	for i, item := range items {
		orderItems[i] = &domain.OrderItem{
			ID:               uuid.New(),
			OrderID:          orderID,
			ProductVariantID: item.ProductVariantID,
			Quantity:         item.Quantity,
			UnitPrice:        item.UnitPrice,
			DiscountAmount:   item.DiscountAmount,
			TaxRate:          item.TaxRate,
		}
	}

	err = s.orders.WithTx(ctx, func(tx domain.Tx) error {
		return s.orders.Create(ctx, tx, order, orderItems)
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// computeTax applies the Open Question resolution: a per-line tax rate is
// authoritative when set; an explicit session-level override is only valid
// when no line conflicts with it.
func (s *CheckoutService) computeTax(subtotal decimal.Decimal, items []*domain.CartItem, session *domain.CheckoutSession) (decimal.Decimal, error) {
	if session.TaxRateOverride != nil {
		for _, item := range items {
			if item.TaxRate != nil && !item.TaxRate.Equal(*session.TaxRateOverride) {
				return decimal.Decimal{}, domain.NewDomainError(domain.KindValidation, "conflicting_tax_rate",
					"checkout tax rate override conflicts with a line item's explicit tax rate", nil)
			}
		}
		return subtotal.Mul(*session.TaxRateOverride), nil
	}

	total := decimal.Zero
	for _, item := range items {
		rate := s.tax.DefaultRate
		if item.TaxRate != nil {
			rate = *item.TaxRate
		}
		total = total.Add(item.LineTotal().Mul(rate))
	}
	return total, nil
}

func (s *CheckoutService) recordPaymentFailure(ctx context.Context, order *domain.Order, reason string) error {
	return s.orders.WithTx(ctx, func(tx domain.Tx) error {
		order.PaymentStatus = domain.PaymentFailed
		order.Version++
		order.UpdatedAt = time.Now()
		if err := s.orders.Update(ctx, tx, order, order.Version-1); err != nil {
			return err
		}
		payment := &domain.Payment{
			ID:            uuid.New(),
			OrderID:       order.ID,
			Status:        domain.PaymentFailed,
			Amount:        order.Total,
			Currency:      order.Currency,
			FailureReason: &reason,
			CreatedAt:     time.Now(),
			UpdatedAt:     time.Now(),
		}
		return s.orders.CreatePayment(ctx, tx, payment)
	})
}

func (s *CheckoutService) recordPaymentSuccess(ctx context.Context, session *domain.CheckoutSession, order *domain.Order, result domain.PaymentGatewayResult) error {
	now := time.Now()
	paymentID := uuid.New()
	invoiceID := uuid.New()
	shipmentID := uuid.New()

	if err := s.orders.WithTx(ctx, func(tx domain.Tx) error {
		order.Status = domain.OrderConfirmed
		order.PaymentStatus = domain.PaymentSucceeded
		order.Version++
		order.UpdatedAt = now
		if err := s.orders.Update(ctx, tx, order, order.Version-1); err != nil {
			return err
		}

		payment := &domain.Payment{
			ID:               paymentID,
			OrderID:          order.ID,
			Status:           domain.PaymentSucceeded,
			Amount:           order.Total,
			Currency:         order.Currency,
			GatewayReference: &result.GatewayReference,
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		if err := s.orders.CreatePayment(ctx, tx, payment); err != nil {
			return err
		}

		invoice := &domain.Invoice{
			ID:            invoiceID,
			OrderID:       order.ID,
			InvoiceNumber: fmt.Sprintf("INV-%s", strings.ToUpper(order.ID.String()[:8])),
			Total:         order.Total,
			IssuedAt:      now,
		}
		if err := s.orders.CreateInvoice(ctx, tx, invoice); err != nil {
			return err
		}

		shipment := &domain.Shipment{
			ID:        shipmentID,
			OrderID:   order.ID,
			Status:    domain.ShipmentPending,
			CreatedAt: now,
			UpdatedAt: now,
		}
		return s.orders.CreateShipment(ctx, tx, shipment)
	}); err != nil {
		return err
	}

	if err := s.carts.WithTx(ctx, func(tx domain.Tx) error {
		cart, err := s.carts.GetForUpdate(ctx, tx, session.CartID)
		if err != nil {
			return err
		}
		expectedVersion := cart.Version
		cart.Status = domain.CartConverted
		cart.Version++
		cart.UpdatedAt = now
		return s.carts.Update(ctx, tx, cart, expectedVersion)
	}); err != nil {
		return err
	}

	return s.sessions.WithTx(ctx, func(tx domain.Tx) error {
		sess, err := s.sessions.GetForUpdate(ctx, tx, session.ID)
		if err != nil {
			return err
		}
		expected := sess.Version
		sess.Status = domain.CheckoutCompletedStatus
		sess.PaymentID = &paymentID
		sess.InvoiceID = &invoiceID
		sess.ShipmentID = &shipmentID
		sess.Version++
		sess.UpdatedAt = now
		return s.sessions.Update(ctx, tx, sess, expected)
	})
}

// reserveOrderItems posts a sales allocation (InventoryCore.Reserve) for
// every order line in one shared transaction via BatchApply, before payment
// is ever captured, so a mid-loop shortage fails the whole checkout instead
// of leaving a charged order with partially reserved lines.
func (s *CheckoutService) reserveOrderItems(ctx context.Context, order *domain.Order) error {
	if s.inventory == nil {
		return nil
	}
	items, err := s.orders.ListItems(ctx, order.ID)
	if err != nil {
		return err
	}
	orderID := order.ID
	inputs := make([]ApplyInput, len(items))
	for i, item := range items {
		refType := "order"
		inputs[i] = ApplyInput{
			ItemID: item.ProductVariantID, LocationID: s.locationID,
			TransactionType: domain.TxnSalesAllocation,
			DeltaAllocated:  item.Quantity,
			ReferenceType:   &refType,
			ReferenceID:     &orderID,
		}
	}
	_, err = s.inventory.BatchApply(ctx, inputs)
	return err
}
