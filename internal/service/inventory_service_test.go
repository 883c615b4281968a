package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/northbridge-systems/commerce-core/internal/domain"
	"github.com/northbridge-systems/commerce-core/internal/testutil"
)

const testLocation = "WH1"

func TestAdjust_IncreasesOnHand(t *testing.T) {
	repo := testutil.NewMockInventoryRepository()
	itemID := uuid.New()
	repo.SeedBalance(itemID, testLocation, decimal.NewFromInt(10), decimal.Zero)
	svc := NewInventoryService(repo, nil)

	reason := domain.ReasonCorrection
	balance, err := svc.Adjust(context.Background(), itemID, testLocation, decimal.NewFromInt(5), reason, nil, nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !balance.OnHand.Equal(decimal.NewFromInt(15)) {
		t.Errorf("expected on_hand 15, got %s", balance.OnHand)
	}
}

func TestAdjust_RejectsNegativeOnHand(t *testing.T) {
	repo := testutil.NewMockInventoryRepository()
	itemID := uuid.New()
	repo.SeedBalance(itemID, testLocation, decimal.NewFromInt(3), decimal.Zero)
	svc := NewInventoryService(repo, nil)

	reason := domain.ReasonDamage
	_, err := svc.Adjust(context.Background(), itemID, testLocation, decimal.NewFromInt(-10), reason, nil, nil)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	var domErr *domain.DomainError
	if de, ok := err.(*domain.DomainError); ok {
		domErr = de
	}
	if domErr == nil || domErr.Kind != domain.KindInsufficientStock {
		t.Errorf("expected KindInsufficientStock, got %v", err)
	}
}

func TestReserve_IncreasesAllocatedOnly(t *testing.T) {
	repo := testutil.NewMockInventoryRepository()
	itemID := uuid.New()
	repo.SeedBalance(itemID, testLocation, decimal.NewFromInt(10), decimal.Zero)
	svc := NewInventoryService(repo, nil)

	refID := uuid.New()
	balance, err := svc.Reserve(context.Background(), itemID, testLocation, decimal.NewFromInt(4), domain.TxnSalesAllocation, "cart", refID)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !balance.OnHand.Equal(decimal.NewFromInt(10)) {
		t.Errorf("expected on_hand unchanged at 10, got %s", balance.OnHand)
	}
	if !balance.Allocated.Equal(decimal.NewFromInt(4)) {
		t.Errorf("expected allocated 4, got %s", balance.Allocated)
	}
}

func TestReserve_RejectsWhenExceedsOnHand(t *testing.T) {
	repo := testutil.NewMockInventoryRepository()
	itemID := uuid.New()
	repo.SeedBalance(itemID, testLocation, decimal.NewFromInt(5), decimal.Zero)
	svc := NewInventoryService(repo, nil)

	_, err := svc.Reserve(context.Background(), itemID, testLocation, decimal.NewFromInt(6), domain.TxnSalesAllocation, "cart", uuid.New())
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestRelease_ReversesReservation(t *testing.T) {
	repo := testutil.NewMockInventoryRepository()
	itemID := uuid.New()
	repo.SeedBalance(itemID, testLocation, decimal.NewFromInt(10), decimal.NewFromInt(4))
	svc := NewInventoryService(repo, nil)

	refID := uuid.New()
	balance, err := svc.Release(context.Background(), itemID, testLocation, decimal.NewFromInt(4), domain.TxnSalesRelease, "cart", refID)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !balance.Allocated.IsZero() {
		t.Errorf("expected allocated 0, got %s", balance.Allocated)
	}
}

func TestConsume_ReducesOnHandAndAllocated(t *testing.T) {
	repo := testutil.NewMockInventoryRepository()
	itemID := uuid.New()
	repo.SeedBalance(itemID, testLocation, decimal.NewFromInt(10), decimal.NewFromInt(6))
	svc := NewInventoryService(repo, nil)

	balance, err := svc.Consume(context.Background(), itemID, testLocation, decimal.NewFromInt(6), domain.TxnSalesShip, "order", uuid.New())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !balance.OnHand.Equal(decimal.NewFromInt(4)) {
		t.Errorf("expected on_hand 4, got %s", balance.OnHand)
	}
	if !balance.Allocated.IsZero() {
		t.Errorf("expected allocated 0, got %s", balance.Allocated)
	}
}

func TestProduce_IncreasesOnHandOnly(t *testing.T) {
	repo := testutil.NewMockInventoryRepository()
	itemID := uuid.New()
	repo.SeedBalance(itemID, testLocation, decimal.NewFromInt(10), decimal.NewFromInt(2))
	svc := NewInventoryService(repo, nil)

	balance, err := svc.Produce(context.Background(), itemID, testLocation, decimal.NewFromInt(20), domain.TxnPurchaseReceipt, "purchase_order", uuid.New())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !balance.OnHand.Equal(decimal.NewFromInt(30)) {
		t.Errorf("expected on_hand 30, got %s", balance.OnHand)
	}
	if !balance.Allocated.Equal(decimal.NewFromInt(2)) {
		t.Errorf("expected allocated unchanged at 2, got %s", balance.Allocated)
	}
}

func TestCheckAvailability_ReturnsOnHandMinusAllocated(t *testing.T) {
	repo := testutil.NewMockInventoryRepository()
	itemID := uuid.New()
	repo.SeedBalance(itemID, testLocation, decimal.NewFromInt(10), decimal.NewFromInt(3))
	svc := NewInventoryService(repo, nil)

	available, err := svc.CheckAvailability(context.Background(), itemID, testLocation)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !available.Equal(decimal.NewFromInt(7)) {
		t.Errorf("expected available 7, got %s", available)
	}
}

func TestBatchCheckAvailability_ReportsOnlyShortages(t *testing.T) {
	repo := testutil.NewMockInventoryRepository()
	plentiful := uuid.New()
	scarce := uuid.New()
	repo.SeedBalance(plentiful, testLocation, decimal.NewFromInt(100), decimal.Zero)
	repo.SeedBalance(scarce, testLocation, decimal.NewFromInt(2), decimal.Zero)
	svc := NewInventoryService(repo, nil)

	shortages, err := svc.BatchCheckAvailability(context.Background(), []BatchCheckInput{
		{ItemID: plentiful, LocationID: testLocation, Required: decimal.NewFromInt(10)},
		{ItemID: scarce, LocationID: testLocation, Required: decimal.NewFromInt(10)},
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(shortages) != 1 {
		t.Fatalf("expected 1 shortage, got %d", len(shortages))
	}
	if shortages[0].ItemID != scarce {
		t.Errorf("expected shortage for scarce item, got %s", shortages[0].ItemID)
	}
}

func TestGetBalance_NotFound(t *testing.T) {
	repo := testutil.NewMockInventoryRepository()
	svc := NewInventoryService(repo, nil)

	_, err := svc.CheckAvailability(context.Background(), uuid.New(), testLocation)
	if err != domain.ErrInventoryBalanceNotFound {
		t.Errorf("expected ErrInventoryBalanceNotFound, got %v", err)
	}
}
