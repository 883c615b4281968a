package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/northbridge-systems/commerce-core/internal/domain"
	"github.com/northbridge-systems/commerce-core/internal/testutil"
)

func seedOrder(repo *testutil.MockOrderRepository, status domain.OrderStatus) *domain.Order {
	order := &domain.Order{
		ID: uuid.New(), OrderNumber: "ORD-TEST", Status: status, PaymentStatus: domain.PaymentSucceeded,
		Currency: "USD", Version: 1, CreatedAt: time.Now(), UpdatedAt: time.Now(),
	}
	repo.Orders[order.ID] = order
	return order
}

func TestTransition_Success(t *testing.T) {
	repo := testutil.NewMockOrderRepository()
	svc := NewOrderService(repo, nil, "DEFAULT", nil)
	order := seedOrder(repo, domain.OrderPending)

	updated, err := svc.Transition(context.Background(), order.ID, domain.OrderConfirmed)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if updated.Status != domain.OrderConfirmed {
		t.Errorf("expected CONFIRMED, got %s", updated.Status)
	}
	if updated.Version != 2 {
		t.Errorf("expected version bumped to 2, got %d", updated.Version)
	}
}

func TestTransition_RejectsIllegalTransition(t *testing.T) {
	repo := testutil.NewMockOrderRepository()
	svc := NewOrderService(repo, nil, "DEFAULT", nil)
	order := seedOrder(repo, domain.OrderDelivered)

	_, err := svc.Transition(context.Background(), order.ID, domain.OrderPending)
	if err == nil {
		t.Fatal("expected error for illegal transition, got nil")
	}
	domErr, ok := err.(*domain.DomainError)
	if !ok || domErr.Kind != domain.KindInvalidStateTransition {
		t.Errorf("expected KindInvalidStateTransition, got %v", err)
	}
}

func TestTransition_CancelledIsTerminal(t *testing.T) {
	repo := testutil.NewMockOrderRepository()
	svc := NewOrderService(repo, nil, "DEFAULT", nil)
	order := seedOrder(repo, domain.OrderCancelled)

	_, err := svc.Transition(context.Background(), order.ID, domain.OrderConfirmed)
	if err == nil {
		t.Fatal("expected error transitioning out of CANCELLED, got nil")
	}
}

func TestUpdateShipmentTracking_Success(t *testing.T) {
	repo := testutil.NewMockOrderRepository()
	svc := NewOrderService(repo, nil, "DEFAULT", nil)
	order := seedOrder(repo, domain.OrderProcessing)
	repo.Shipments[order.ID] = &domain.Shipment{ID: uuid.New(), OrderID: order.ID, Status: domain.ShipmentPending, CreatedAt: time.Now(), UpdatedAt: time.Now()}

	err := svc.UpdateShipmentTracking(context.Background(), order.ID, "UPS", "1Z999", domain.ShipmentInTransit)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	shipment, _ := repo.GetShipmentByOrderID(context.Background(), order.ID)
	if shipment.Status != domain.ShipmentInTransit {
		t.Errorf("expected IN_TRANSIT, got %s", shipment.Status)
	}
	if shipment.TrackingNumber == nil || *shipment.TrackingNumber != "1Z999" {
		t.Errorf("expected tracking number 1Z999, got %v", shipment.TrackingNumber)
	}
}

func TestUpdateShipmentTracking_NotFound(t *testing.T) {
	repo := testutil.NewMockOrderRepository()
	svc := NewOrderService(repo, nil, "DEFAULT", nil)

	err := svc.UpdateShipmentTracking(context.Background(), uuid.New(), "UPS", "1Z999", domain.ShipmentInTransit)
	if err != domain.ErrShipmentNotFound {
		t.Errorf("expected ErrShipmentNotFound, got %v", err)
	}
}

func TestTransition_ShipConsumesAllocatedInventory(t *testing.T) {
	repo := testutil.NewMockOrderRepository()
	invRepo := testutil.NewMockInventoryRepository()
	inventory := NewInventoryService(invRepo, nil)
	svc := NewOrderService(repo, inventory, testLocation, nil)

	variantID := uuid.New()
	order := seedOrder(repo, domain.OrderProcessing)
	repo.Items[order.ID] = []*domain.OrderItem{
		{ID: uuid.New(), OrderID: order.ID, ProductVariantID: variantID, Quantity: decimal.NewFromInt(3)},
	}
	invRepo.SeedBalance(variantID, testLocation, decimal.NewFromInt(10), decimal.NewFromInt(3))

	if _, err := svc.Transition(context.Background(), order.ID, domain.OrderShipped); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	balance, _ := invRepo.GetBalance(context.Background(), variantID, testLocation)
	if !balance.OnHand.Equal(decimal.NewFromInt(7)) {
		t.Errorf("expected on_hand reduced to 7, got %s", balance.OnHand)
	}
	if !balance.Allocated.IsZero() {
		t.Errorf("expected allocated released to 0 on ship, got %s", balance.Allocated)
	}
}

func TestTransition_CancelReleasesAllocatedInventory(t *testing.T) {
	repo := testutil.NewMockOrderRepository()
	invRepo := testutil.NewMockInventoryRepository()
	inventory := NewInventoryService(invRepo, nil)
	svc := NewOrderService(repo, inventory, testLocation, nil)

	variantID := uuid.New()
	order := seedOrder(repo, domain.OrderConfirmed)
	repo.Items[order.ID] = []*domain.OrderItem{
		{ID: uuid.New(), OrderID: order.ID, ProductVariantID: variantID, Quantity: decimal.NewFromInt(4)},
	}
	invRepo.SeedBalance(variantID, testLocation, decimal.NewFromInt(10), decimal.NewFromInt(4))

	if _, err := svc.Transition(context.Background(), order.ID, domain.OrderCancelled); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	balance, _ := invRepo.GetBalance(context.Background(), variantID, testLocation)
	if !balance.OnHand.Equal(decimal.NewFromInt(10)) {
		t.Errorf("expected on_hand untouched at 10, got %s", balance.OnHand)
	}
	if !balance.Allocated.IsZero() {
		t.Errorf("expected allocated released to 0 on cancel, got %s", balance.Allocated)
	}
}
