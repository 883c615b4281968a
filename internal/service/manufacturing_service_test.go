package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/northbridge-systems/commerce-core/internal/domain"
	"github.com/northbridge-systems/commerce-core/internal/testutil"
)

func newManufacturingFixture() (*ManufacturingService, *testutil.MockWorkOrderRepository, *testutil.MockBomRepository, *testutil.MockInventoryRepository) {
	woRepo := testutil.NewMockWorkOrderRepository()
	bomRepo := testutil.NewMockBomRepository()
	invRepo := testutil.NewMockInventoryRepository()
	inventory := NewInventoryService(invRepo, nil)
	bom := NewBomEngine(bomRepo, inventory)
	svc := NewManufacturingService(woRepo, bom, inventory, nil)
	return svc, woRepo, bomRepo, invRepo
}

func TestCreateWorkOrder_RejectsNonPositiveQuantity(t *testing.T) {
	svc, _, _, _ := newManufacturingFixture()
	_, err := svc.CreateWorkOrder(context.Background(), uuid.New(), uuid.New(), testLocation, decimal.Zero, nil)
	if err == nil {
		t.Fatal("expected error for non-positive quantity, got nil")
	}
}

func TestCreateWorkOrder_ShortageCreatesPendingMaterialsWithoutReservation(t *testing.T) {
	svc, woRepo, bomRepo, invRepo := newManufacturingFixture()
	itemID := uuid.New()
	component := uuid.New()
	header := bomRepo.SeedActiveBom(itemID, []*domain.BomLine{
		{ID: uuid.New(), ComponentItemID: component, QuantityPer: decimal.NewFromInt(5), UomCode: "EA"},
	})
	invRepo.SeedBalance(component, testLocation, decimal.NewFromInt(1), decimal.Zero)

	wo, err := svc.CreateWorkOrder(context.Background(), itemID, header.ID, testLocation, decimal.NewFromInt(1), nil)
	if err != nil {
		t.Fatalf("expected work order to be created despite shortage, got %v", err)
	}
	if wo.Status != domain.WoPendingMaterials {
		t.Errorf("expected PENDING_MATERIALS, got %s", wo.Status)
	}

	balance, _ := invRepo.GetBalance(context.Background(), component, testLocation)
	if !balance.Allocated.IsZero() {
		t.Errorf("expected no reservation made on shortage, got allocated %s", balance.Allocated)
	}
	if _, err := woRepo.GetByID(context.Background(), wo.ID); err != nil {
		t.Errorf("expected work order to be persisted, got %v", err)
	}
}

func TestCreateWorkOrder_ReservesComponents(t *testing.T) {
	svc, woRepo, bomRepo, invRepo := newManufacturingFixture()
	itemID := uuid.New()
	component := uuid.New()
	header := bomRepo.SeedActiveBom(itemID, []*domain.BomLine{
		{ID: uuid.New(), ComponentItemID: component, QuantityPer: decimal.NewFromInt(5), UomCode: "EA"},
	})
	invRepo.SeedBalance(component, testLocation, decimal.NewFromInt(100), decimal.Zero)

	wo, err := svc.CreateWorkOrder(context.Background(), itemID, header.ID, testLocation, decimal.NewFromInt(2), nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if wo.Status != domain.WoReady {
		t.Errorf("expected READY, got %s", wo.Status)
	}

	balance, _ := invRepo.GetBalance(context.Background(), component, testLocation)
	if !balance.Allocated.Equal(decimal.NewFromInt(10)) {
		t.Errorf("expected 10 allocated (5 per unit * 2), got %s", balance.Allocated)
	}

	_, err = woRepo.GetByID(context.Background(), wo.ID)
	if err != nil {
		t.Errorf("expected work order to be persisted, got %v", err)
	}
}

func TestStart_TransitionsReadyToInProgress(t *testing.T) {
	svc, woRepo, bomRepo, invRepo := newManufacturingFixture()
	itemID := uuid.New()
	component := uuid.New()
	header := bomRepo.SeedActiveBom(itemID, []*domain.BomLine{
		{ID: uuid.New(), ComponentItemID: component, QuantityPer: decimal.NewFromInt(1), UomCode: "EA"},
	})
	invRepo.SeedBalance(component, testLocation, decimal.NewFromInt(100), decimal.Zero)
	wo, _ := svc.CreateWorkOrder(context.Background(), itemID, header.ID, testLocation, decimal.NewFromInt(1), nil)

	updated, err := svc.Start(context.Background(), wo.ID)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if updated.Status != domain.WoInProgress {
		t.Errorf("expected IN_PROGRESS, got %s", updated.Status)
	}
	_ = woRepo
}

func TestCancel_ReleasesReservations(t *testing.T) {
	svc, _, bomRepo, invRepo := newManufacturingFixture()
	itemID := uuid.New()
	component := uuid.New()
	header := bomRepo.SeedActiveBom(itemID, []*domain.BomLine{
		{ID: uuid.New(), ComponentItemID: component, QuantityPer: decimal.NewFromInt(3), UomCode: "EA"},
	})
	invRepo.SeedBalance(component, testLocation, decimal.NewFromInt(100), decimal.Zero)
	wo, _ := svc.CreateWorkOrder(context.Background(), itemID, header.ID, testLocation, decimal.NewFromInt(2), nil)

	updated, err := svc.Cancel(context.Background(), wo.ID)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if updated.Status != domain.WoCancelled {
		t.Errorf("expected CANCELLED, got %s", updated.Status)
	}

	balance, _ := invRepo.GetBalance(context.Background(), component, testLocation)
	if !balance.Allocated.IsZero() {
		t.Errorf("expected allocated released to 0, got %s", balance.Allocated)
	}
}

func TestComplete_ConsumesComponentsAndProducesFinishedGoods(t *testing.T) {
	svc, _, bomRepo, invRepo := newManufacturingFixture()
	itemID := uuid.New()
	component := uuid.New()
	header := bomRepo.SeedActiveBom(itemID, []*domain.BomLine{
		{ID: uuid.New(), ComponentItemID: component, QuantityPer: decimal.NewFromInt(2), UomCode: "EA"},
	})
	invRepo.SeedBalance(component, testLocation, decimal.NewFromInt(100), decimal.Zero)
	invRepo.SeedBalance(itemID, testLocation, decimal.Zero, decimal.Zero)

	wo, _ := svc.CreateWorkOrder(context.Background(), itemID, header.ID, testLocation, decimal.NewFromInt(5), nil)
	if _, err := svc.Start(context.Background(), wo.ID); err != nil {
		t.Fatalf("failed to start work order: %v", err)
	}

	completed, err := svc.Complete(context.Background(), wo.ID, decimal.NewFromInt(5))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if completed.Status != domain.WoCompleted {
		t.Errorf("expected COMPLETED, got %s", completed.Status)
	}
	if !completed.QuantityProduced.Equal(decimal.NewFromInt(5)) {
		t.Errorf("expected quantity produced 5, got %s", completed.QuantityProduced)
	}

	componentBalance, _ := invRepo.GetBalance(context.Background(), component, testLocation)
	if !componentBalance.OnHand.Equal(decimal.NewFromInt(90)) {
		t.Errorf("expected component on_hand reduced to 90, got %s", componentBalance.OnHand)
	}
	if !componentBalance.Allocated.IsZero() {
		t.Errorf("expected component allocated back to 0, got %s", componentBalance.Allocated)
	}

	finishedBalance, _ := invRepo.GetBalance(context.Background(), itemID, testLocation)
	if !finishedBalance.OnHand.Equal(decimal.NewFromInt(5)) {
		t.Errorf("expected finished-goods on_hand 5, got %s", finishedBalance.OnHand)
	}
}

func TestComplete_RejectsWhenNotInProgress(t *testing.T) {
	svc, _, bomRepo, invRepo := newManufacturingFixture()
	itemID := uuid.New()
	component := uuid.New()
	header := bomRepo.SeedActiveBom(itemID, []*domain.BomLine{
		{ID: uuid.New(), ComponentItemID: component, QuantityPer: decimal.NewFromInt(1), UomCode: "EA"},
	})
	invRepo.SeedBalance(component, testLocation, decimal.NewFromInt(100), decimal.Zero)
	wo, _ := svc.CreateWorkOrder(context.Background(), itemID, header.ID, testLocation, decimal.NewFromInt(1), nil)

	_, err := svc.Complete(context.Background(), wo.ID, decimal.NewFromInt(1))
	if err == nil {
		t.Fatal("expected error completing a READY work order, got nil")
	}
}

func TestComplete_PartialYieldThenFinish(t *testing.T) {
	svc, _, bomRepo, invRepo := newManufacturingFixture()
	itemID := uuid.New()
	component := uuid.New()
	header := bomRepo.SeedActiveBom(itemID, []*domain.BomLine{
		{ID: uuid.New(), ComponentItemID: component, QuantityPer: decimal.NewFromInt(1), UomCode: "EA"},
	})
	invRepo.SeedBalance(component, testLocation, decimal.NewFromInt(100), decimal.Zero)
	invRepo.SeedBalance(itemID, testLocation, decimal.Zero, decimal.Zero)

	wo, _ := svc.CreateWorkOrder(context.Background(), itemID, header.ID, testLocation, decimal.NewFromInt(10), nil)
	if _, err := svc.Start(context.Background(), wo.ID); err != nil {
		t.Fatalf("failed to start work order: %v", err)
	}

	partial, err := svc.Complete(context.Background(), wo.ID, decimal.NewFromInt(4))
	if err != nil {
		t.Fatalf("expected no error on partial completion, got %v", err)
	}
	if partial.Status != domain.WoPartiallyCompleted {
		t.Errorf("expected PARTIALLY_COMPLETED, got %s", partial.Status)
	}

	finished, err := svc.Complete(context.Background(), wo.ID, decimal.NewFromInt(6))
	if err != nil {
		t.Fatalf("expected no error finishing the run, got %v", err)
	}
	if finished.Status != domain.WoCompleted {
		t.Errorf("expected COMPLETED, got %s", finished.Status)
	}
	if !finished.QuantityProduced.Equal(decimal.NewFromInt(10)) {
		t.Errorf("expected cumulative quantity produced 10, got %s", finished.QuantityProduced)
	}
}

func TestMaterialsAvailable_TransitionsPendingMaterialsToReadyAndReserves(t *testing.T) {
	svc, _, bomRepo, invRepo := newManufacturingFixture()
	itemID := uuid.New()
	component := uuid.New()
	header := bomRepo.SeedActiveBom(itemID, []*domain.BomLine{
		{ID: uuid.New(), ComponentItemID: component, QuantityPer: decimal.NewFromInt(5), UomCode: "EA"},
	})
	invRepo.SeedBalance(component, testLocation, decimal.NewFromInt(1), decimal.Zero)

	wo, err := svc.CreateWorkOrder(context.Background(), itemID, header.ID, testLocation, decimal.NewFromInt(1), nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	invRepo.SeedBalance(component, testLocation, decimal.NewFromInt(10), decimal.Zero)

	updated, err := svc.MaterialsAvailable(context.Background(), wo.ID)
	if err != nil {
		t.Fatalf("expected no error once materials are available, got %v", err)
	}
	if updated.Status != domain.WoReady {
		t.Errorf("expected READY, got %s", updated.Status)
	}

	balance, _ := invRepo.GetBalance(context.Background(), component, testLocation)
	if !balance.Allocated.Equal(decimal.NewFromInt(5)) {
		t.Errorf("expected 5 allocated, got %s", balance.Allocated)
	}
}
