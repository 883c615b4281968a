package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/northbridge-systems/commerce-core/internal/domain"
	"github.com/northbridge-systems/commerce-core/internal/testutil"
)

func TestCreateCart_Success(t *testing.T) {
	repo := testutil.NewMockCartRepository()
	svc := NewCartService(repo)

	customerID := uuid.New()
	cart, err := svc.CreateCart(context.Background(), &customerID, "USD", nil)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if cart.Status != domain.CartActive {
		t.Errorf("expected new cart to be ACTIVE, got %s", cart.Status)
	}
	if cart.Version != 1 {
		t.Errorf("expected version 1, got %d", cart.Version)
	}
}

func TestAddItem_RejectsNonPositiveQuantity(t *testing.T) {
	repo := testutil.NewMockCartRepository()
	svc := NewCartService(repo)

	cart, _ := svc.CreateCart(context.Background(), nil, "USD", nil)
	_, err := svc.AddItem(context.Background(), cart.ID, uuid.New(), decimal.Zero, decimal.NewFromInt(10))
	if err == nil {
		t.Fatal("expected error for zero quantity, got nil")
	}
}

func TestAddItem_RejectsNegativeUnitPrice(t *testing.T) {
	repo := testutil.NewMockCartRepository()
	svc := NewCartService(repo)

	cart, _ := svc.CreateCart(context.Background(), nil, "USD", nil)
	_, err := svc.AddItem(context.Background(), cart.ID, uuid.New(), decimal.NewFromInt(1), decimal.NewFromInt(-5))
	if err == nil {
		t.Fatal("expected error for negative unit price, got nil")
	}
}

func TestAddItem_Success(t *testing.T) {
	repo := testutil.NewMockCartRepository()
	svc := NewCartService(repo)

	cart, _ := svc.CreateCart(context.Background(), nil, "USD", nil)
	variantID := uuid.New()
	item, err := svc.AddItem(context.Background(), cart.ID, variantID, decimal.NewFromInt(2), decimal.NewFromInt(25))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !item.LineTotal().Equal(decimal.NewFromInt(50)) {
		t.Errorf("expected line total 50, got %s", item.LineTotal())
	}
}

func TestAddItem_RejectsWhenCartNotActive(t *testing.T) {
	repo := testutil.NewMockCartRepository()
	svc := NewCartService(repo)

	cart, _ := svc.CreateCart(context.Background(), nil, "USD", nil)
	cart.Status = domain.CartConverted
	repo.Carts[cart.ID] = cart

	_, err := svc.AddItem(context.Background(), cart.ID, uuid.New(), decimal.NewFromInt(1), decimal.NewFromInt(10))
	if err == nil {
		t.Fatal("expected error when cart is not active, got nil")
	}
}

func TestUpdateItemQuantity_Success(t *testing.T) {
	repo := testutil.NewMockCartRepository()
	svc := NewCartService(repo)

	cart, _ := svc.CreateCart(context.Background(), nil, "USD", nil)
	item, _ := svc.AddItem(context.Background(), cart.ID, uuid.New(), decimal.NewFromInt(1), decimal.NewFromInt(10))

	err := svc.UpdateItemQuantity(context.Background(), cart.ID, item.ID, decimal.NewFromInt(5))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	items, _ := repo.ListItems(context.Background(), cart.ID)
	if !items[0].Quantity.Equal(decimal.NewFromInt(5)) {
		t.Errorf("expected quantity updated to 5, got %s", items[0].Quantity)
	}
}

func TestUpdateItemQuantity_NotFound(t *testing.T) {
	repo := testutil.NewMockCartRepository()
	svc := NewCartService(repo)

	cart, _ := svc.CreateCart(context.Background(), nil, "USD", nil)
	err := svc.UpdateItemQuantity(context.Background(), cart.ID, uuid.New(), decimal.NewFromInt(1))
	if err != domain.ErrCartItemNotFound {
		t.Errorf("expected ErrCartItemNotFound, got %v", err)
	}
}

func TestRemoveItem_Success(t *testing.T) {
	repo := testutil.NewMockCartRepository()
	svc := NewCartService(repo)

	cart, _ := svc.CreateCart(context.Background(), nil, "USD", nil)
	item, _ := svc.AddItem(context.Background(), cart.ID, uuid.New(), decimal.NewFromInt(1), decimal.NewFromInt(10))

	if err := svc.RemoveItem(context.Background(), cart.ID, item.ID); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	items, _ := repo.ListItems(context.Background(), cart.ID)
	if len(items) != 0 {
		t.Errorf("expected 0 items after removal, got %d", len(items))
	}
}

func TestSubtotal_SumsLineTotals(t *testing.T) {
	items := []*domain.CartItem{
		{Quantity: decimal.NewFromInt(2), UnitPrice: decimal.NewFromInt(10), DiscountAmount: decimal.Zero},
		{Quantity: decimal.NewFromInt(1), UnitPrice: decimal.NewFromInt(5), DiscountAmount: decimal.NewFromInt(1)},
	}
	total := Subtotal(items)
	if !total.Equal(decimal.NewFromInt(24)) {
		t.Errorf("expected subtotal 24, got %s", total)
	}
}
