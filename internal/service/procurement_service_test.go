package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/northbridge-systems/commerce-core/internal/domain"
	"github.com/northbridge-systems/commerce-core/internal/testutil"
)

func newProcurementFixture() (*ProcurementService, *testutil.MockPurchaseOrderRepository, *testutil.MockInventoryRepository) {
	poRepo := testutil.NewMockPurchaseOrderRepository()
	invRepo := testutil.NewMockInventoryRepository()
	inventory := NewInventoryService(invRepo, nil)
	svc := NewProcurementService(poRepo, inventory, nil)
	return svc, poRepo, invRepo
}

func TestCreatePurchaseOrder_RequiresLines(t *testing.T) {
	svc, _, _ := newProcurementFixture()
	_, err := svc.CreatePurchaseOrder(context.Background(), uuid.New(), testLocation, "USD", nil, nil)
	if err == nil {
		t.Fatal("expected error for no lines, got nil")
	}
}

func TestCreatePurchaseOrder_RejectsNonPositiveQuantity(t *testing.T) {
	svc, _, _ := newProcurementFixture()
	_, err := svc.CreatePurchaseOrder(context.Background(), uuid.New(), testLocation, "USD", []CreatePurchaseOrderLine{
		{ItemID: uuid.New(), QuantityOrdered: decimal.Zero, UnitCost: decimal.NewFromInt(5)},
	}, nil)
	if err == nil {
		t.Fatal("expected error for zero quantity, got nil")
	}
}

func TestCreatePurchaseOrder_Success(t *testing.T) {
	svc, poRepo, _ := newProcurementFixture()
	itemID := uuid.New()
	po, err := svc.CreatePurchaseOrder(context.Background(), uuid.New(), testLocation, "USD", []CreatePurchaseOrderLine{
		{ItemID: itemID, QuantityOrdered: decimal.NewFromInt(100), UnitCost: decimal.NewFromInt(5)},
	}, nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if po.Status != domain.PoDraft {
		t.Errorf("expected DRAFT, got %s", po.Status)
	}

	lines, _ := poRepo.ListLines(context.Background(), po.ID)
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
}

func issueAndSeedBalance(t *testing.T, svc *ProcurementService, poRepo *testutil.MockPurchaseOrderRepository, invRepo *testutil.MockInventoryRepository, itemID uuid.UUID, qty decimal.Decimal) *domain.PurchaseOrder {
	t.Helper()
	po, err := svc.CreatePurchaseOrder(context.Background(), uuid.New(), testLocation, "USD", []CreatePurchaseOrderLine{
		{ItemID: itemID, QuantityOrdered: qty, UnitCost: decimal.NewFromInt(1)},
	}, nil)
	if err != nil {
		t.Fatalf("failed to create po: %v", err)
	}
	if _, err := svc.Transition(context.Background(), po.ID, domain.PoIssued); err != nil {
		t.Fatalf("failed to issue po: %v", err)
	}
	invRepo.SeedBalance(itemID, testLocation, decimal.Zero, decimal.Zero)
	return po
}

func TestPostReceipt_FullyReceived_TransitionsToReceived(t *testing.T) {
	svc, poRepo, invRepo := newProcurementFixture()
	itemID := uuid.New()
	po := issueAndSeedBalance(t, svc, poRepo, invRepo, itemID, decimal.NewFromInt(50))
	lines, _ := poRepo.ListLines(context.Background(), po.ID)

	_, err := svc.PostReceipt(context.Background(), po.ID, []ReceiptLineInput{
		{PoLineID: lines[0].ID, QuantityReceived: decimal.NewFromInt(50)},
	}, nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	updated, _ := poRepo.GetByID(context.Background(), po.ID)
	if updated.Status != domain.PoReceived {
		t.Errorf("expected RECEIVED, got %s", updated.Status)
	}

	balance, _ := invRepo.GetBalance(context.Background(), itemID, testLocation)
	if !balance.OnHand.Equal(decimal.NewFromInt(50)) {
		t.Errorf("expected on_hand 50, got %s", balance.OnHand)
	}
}

func TestPostReceipt_PartialReceipt_TransitionsToPartiallyReceived(t *testing.T) {
	svc, poRepo, invRepo := newProcurementFixture()
	itemID := uuid.New()
	po := issueAndSeedBalance(t, svc, poRepo, invRepo, itemID, decimal.NewFromInt(50))
	lines, _ := poRepo.ListLines(context.Background(), po.ID)

	_, err := svc.PostReceipt(context.Background(), po.ID, []ReceiptLineInput{
		{PoLineID: lines[0].ID, QuantityReceived: decimal.NewFromInt(20)},
	}, nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	updated, _ := poRepo.GetByID(context.Background(), po.ID)
	if updated.Status != domain.PoPartiallyReceived {
		t.Errorf("expected PARTIALLY_RECEIVED, got %s", updated.Status)
	}
}

func TestPostReceipt_RejectsExceedingOrderedQuantity(t *testing.T) {
	svc, poRepo, invRepo := newProcurementFixture()
	itemID := uuid.New()
	po := issueAndSeedBalance(t, svc, poRepo, invRepo, itemID, decimal.NewFromInt(10))
	lines, _ := poRepo.ListLines(context.Background(), po.ID)

	_, err := svc.PostReceipt(context.Background(), po.ID, []ReceiptLineInput{
		{PoLineID: lines[0].ID, QuantityReceived: decimal.NewFromInt(99)},
	}, nil)
	if err == nil {
		t.Fatal("expected error for over-receipt, got nil")
	}
}

func TestReturnToVendor_DecreasesOnHandAndIncreasesReturned(t *testing.T) {
	svc, poRepo, invRepo := newProcurementFixture()
	itemID := uuid.New()
	po := issueAndSeedBalance(t, svc, poRepo, invRepo, itemID, decimal.NewFromInt(50))
	lines, _ := poRepo.ListLines(context.Background(), po.ID)

	_, err := svc.PostReceipt(context.Background(), po.ID, []ReceiptLineInput{
		{PoLineID: lines[0].ID, QuantityReceived: decimal.NewFromInt(50)},
	}, nil)
	if err != nil {
		t.Fatalf("failed to post receipt: %v", err)
	}

	_, err = svc.ReturnToVendor(context.Background(), po.ID, []ReceiptLineInput{
		{PoLineID: lines[0].ID, QuantityReceived: decimal.NewFromInt(10)},
	}, nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	balance, _ := invRepo.GetBalance(context.Background(), itemID, testLocation)
	if !balance.OnHand.Equal(decimal.NewFromInt(40)) {
		t.Errorf("expected on_hand 40 after return, got %s", balance.OnHand)
	}
}

func TestReturnToVendor_RejectsExceedingReceivedQuantity(t *testing.T) {
	svc, poRepo, invRepo := newProcurementFixture()
	itemID := uuid.New()
	po := issueAndSeedBalance(t, svc, poRepo, invRepo, itemID, decimal.NewFromInt(50))
	lines, _ := poRepo.ListLines(context.Background(), po.ID)

	_, _ = svc.PostReceipt(context.Background(), po.ID, []ReceiptLineInput{
		{PoLineID: lines[0].ID, QuantityReceived: decimal.NewFromInt(10)},
	}, nil)

	_, err := svc.ReturnToVendor(context.Background(), po.ID, []ReceiptLineInput{
		{PoLineID: lines[0].ID, QuantityReceived: decimal.NewFromInt(20)},
	}, nil)
	if err == nil {
		t.Fatal("expected error for over-return, got nil")
	}
}
