package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/northbridge-systems/commerce-core/internal/domain"
	"github.com/northbridge-systems/commerce-core/internal/testutil"
)

func newCheckoutFixture(gateway *testutil.MockPaymentGateway) (*CheckoutService, *testutil.MockCartRepository, *testutil.MockCheckoutSessionRepository, *testutil.MockOrderRepository) {
	carts := testutil.NewMockCartRepository()
	sessions := testutil.NewMockCheckoutSessionRepository()
	orders := testutil.NewMockOrderRepository()
	svc := NewCheckoutService(sessions, carts, orders, gateway, nil, "DEFAULT", nil, TaxConfig{DefaultRate: decimal.NewFromFloat(0.1)})
	return svc, carts, sessions, orders
}

func seedActiveCartWithItem(t *testing.T, carts *testutil.MockCartRepository) *domain.Cart {
	t.Helper()
	cartSvc := NewCartService(carts)
	cart, err := cartSvc.CreateCart(context.Background(), nil, "USD", nil)
	if err != nil {
		t.Fatalf("failed to seed cart: %v", err)
	}
	if _, err := cartSvc.AddItem(context.Background(), cart.ID, uuid.New(), decimal.NewFromInt(2), decimal.NewFromInt(20)); err != nil {
		t.Fatalf("failed to seed cart item: %v", err)
	}
	return cart
}

func TestStartCheckout_RejectsEmptyCart(t *testing.T) {
	gateway := &testutil.MockPaymentGateway{}
	svc, carts, _, _ := newCheckoutFixture(gateway)

	cartSvc := NewCartService(carts)
	cart, _ := cartSvc.CreateCart(context.Background(), nil, "USD", nil)

	_, err := svc.StartCheckout(context.Background(), cart.ID)
	if err == nil {
		t.Fatal("expected error for empty cart, got nil")
	}
}

func TestStartCheckout_FlipsCartToConverting(t *testing.T) {
	gateway := &testutil.MockPaymentGateway{}
	svc, carts, _, _ := newCheckoutFixture(gateway)
	cart := seedActiveCartWithItem(t, carts)

	session, err := svc.StartCheckout(context.Background(), cart.ID)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if session.Status != domain.CheckoutStarted {
		t.Errorf("expected session STARTED, got %s", session.Status)
	}

	updated, _ := carts.GetByID(context.Background(), cart.ID)
	if updated.Status != domain.CartConverting {
		t.Errorf("expected cart CONVERTING, got %s", updated.Status)
	}
}

func TestCompleteCheckout_SuccessfulPayment(t *testing.T) {
	gateway := &testutil.MockPaymentGateway{}
	svc, carts, sessions, orders := newCheckoutFixture(gateway)
	cart := seedActiveCartWithItem(t, carts)

	session, err := svc.StartCheckout(context.Background(), cart.ID)
	if err != nil {
		t.Fatalf("failed to start checkout: %v", err)
	}

	email := "buyer@example.com"
	if err := svc.SetCustomerEmail(context.Background(), session.ID, email); err != nil {
		t.Fatalf("failed to set email: %v", err)
	}
	if err := svc.SetShippingAddress(context.Background(), session.ID, domain.Address{
		FirstName: "Ada", LastName: "Lovelace", AddressLine1: "1 Analytical Engine Way",
		City: "London", Province: "LDN", CountryCode: "GB", PostalCode: "SW1A",
	}); err != nil {
		t.Fatalf("failed to set address: %v", err)
	}
	if _, err := svc.SetShippingMethod(context.Background(), session.ID, domain.ShippingStandard); err != nil {
		t.Fatalf("failed to set shipping method: %v", err)
	}

	order, err := svc.CompleteCheckout(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if order.Status != domain.OrderConfirmed {
		t.Errorf("expected order CONFIRMED, got %s", order.Status)
	}
	if order.PaymentStatus != domain.PaymentSucceeded {
		t.Errorf("expected payment SUCCEEDED, got %s", order.PaymentStatus)
	}

	updatedCart, _ := carts.GetByID(context.Background(), cart.ID)
	if updatedCart.Status != domain.CartConverted {
		t.Errorf("expected cart CONVERTED, got %s", updatedCart.Status)
	}
	updatedSession, _ := sessions.GetByID(context.Background(), session.ID)
	if updatedSession.Status != domain.CheckoutCompletedStatus {
		t.Errorf("expected session COMPLETED, got %s", updatedSession.Status)
	}
	if _, err := orders.GetInvoiceByOrderID(context.Background(), order.ID); err != nil {
		t.Errorf("expected invoice to be created, got %v", err)
	}
	if _, err := orders.GetShipmentByOrderID(context.Background(), order.ID); err != nil {
		t.Errorf("expected shipment to be created, got %v", err)
	}
}

func TestCompleteCheckout_DeclinedPayment(t *testing.T) {
	gateway := &testutil.MockPaymentGateway{ShouldDecline: true, FailureReason: "insufficient_funds"}
	svc, carts, _, orders := newCheckoutFixture(gateway)
	cart := seedActiveCartWithItem(t, carts)

	session, _ := svc.StartCheckout(context.Background(), cart.ID)
	email := "buyer@example.com"
	_ = svc.SetCustomerEmail(context.Background(), session.ID, email)
	_ = svc.SetShippingAddress(context.Background(), session.ID, domain.Address{
		FirstName: "Ada", LastName: "Lovelace", AddressLine1: "1 Analytical Engine Way",
		City: "London", Province: "LDN", CountryCode: "GB", PostalCode: "SW1A",
	})
	_, _ = svc.SetShippingMethod(context.Background(), session.ID, domain.ShippingStandard)

	order, err := svc.CompleteCheckout(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("expected no error (declined payment is not a service error), got %v", err)
	}
	if order.PaymentStatus != domain.PaymentFailed {
		t.Errorf("expected payment FAILED, got %s", order.PaymentStatus)
	}

	payment, err := orders.GetPaymentByOrderID(context.Background(), order.ID)
	if err != nil {
		t.Fatalf("expected payment row, got %v", err)
	}
	if payment.FailureReason == nil || *payment.FailureReason != "insufficient_funds" {
		t.Errorf("expected failure reason recorded, got %v", payment.FailureReason)
	}
}

func TestCompleteCheckout_RejectsIncompleteSession(t *testing.T) {
	gateway := &testutil.MockPaymentGateway{}
	svc, carts, _, _ := newCheckoutFixture(gateway)
	cart := seedActiveCartWithItem(t, carts)

	session, _ := svc.StartCheckout(context.Background(), cart.ID)
	_, err := svc.CompleteCheckout(context.Background(), session.ID)
	if err == nil {
		t.Fatal("expected error for incomplete session, got nil")
	}
}

func TestCompleteCheckout_ReservesSoldInventory(t *testing.T) {
	gateway := &testutil.MockPaymentGateway{}
	carts := testutil.NewMockCartRepository()
	sessions := testutil.NewMockCheckoutSessionRepository()
	orders := testutil.NewMockOrderRepository()
	invRepo := testutil.NewMockInventoryRepository()
	inventory := NewInventoryService(invRepo, nil)
	svc := NewCheckoutService(sessions, carts, orders, gateway, inventory, testLocation, nil, TaxConfig{DefaultRate: decimal.NewFromFloat(0.1)})

	cartSvc := NewCartService(carts)
	cart, _ := cartSvc.CreateCart(context.Background(), nil, "USD", nil)
	variantID := uuid.New()
	if _, err := cartSvc.AddItem(context.Background(), cart.ID, variantID, decimal.NewFromInt(2), decimal.NewFromInt(20)); err != nil {
		t.Fatalf("failed to seed cart item: %v", err)
	}
	invRepo.SeedBalance(variantID, testLocation, decimal.NewFromInt(50), decimal.Zero)

	session, err := svc.StartCheckout(context.Background(), cart.ID)
	if err != nil {
		t.Fatalf("failed to start checkout: %v", err)
	}
	email := "buyer@example.com"
	_ = svc.SetCustomerEmail(context.Background(), session.ID, email)
	_ = svc.SetShippingAddress(context.Background(), session.ID, domain.Address{
		FirstName: "Ada", LastName: "Lovelace", AddressLine1: "1 Analytical Engine Way",
		City: "London", Province: "LDN", CountryCode: "GB", PostalCode: "SW1A",
	})
	_, _ = svc.SetShippingMethod(context.Background(), session.ID, domain.ShippingStandard)

	order, err := svc.CompleteCheckout(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	balance, _ := invRepo.GetBalance(context.Background(), variantID, testLocation)
	if !balance.Allocated.Equal(decimal.NewFromInt(2)) {
		t.Errorf("expected 2 allocated after checkout completion, got %s", balance.Allocated)
	}
	if !balance.OnHand.Equal(decimal.NewFromInt(50)) {
		t.Errorf("expected on_hand untouched at 50, got %s", balance.OnHand)
	}

	replay, err := svc.CompleteCheckout(context.Background(), session.ID)
	if err != nil {
		t.Fatalf("expected replay to succeed, got %v", err)
	}
	if replay.ID != order.ID {
		t.Errorf("expected replay to return the same order, got %s vs %s", replay.ID, order.ID)
	}

	balance, _ = invRepo.GetBalance(context.Background(), variantID, testLocation)
	if !balance.Allocated.Equal(decimal.NewFromInt(2)) {
		t.Errorf("expected replay not to double-reserve, allocated still 2, got %s", balance.Allocated)
	}
}

func TestQuoteShippingRate_UnknownMethod(t *testing.T) {
	gateway := &testutil.MockPaymentGateway{}
	svc, _, _, _ := newCheckoutFixture(gateway)

	_, err := svc.QuoteShippingRate(domain.ShippingMethod("TELEPORT"))
	if err == nil {
		t.Fatal("expected error for unknown shipping method, got nil")
	}
}
