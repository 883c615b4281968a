package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/northbridge-systems/commerce-core/internal/domain"
)

// CartService implements OrderEngine's cart-management surface: creating a
// cart and adding/updating/removing line items while it remains Active.
type CartService struct {
	repo domain.CartRepository
}

func NewCartService(repo domain.CartRepository) *CartService {
	return &CartService{repo: repo}
}

func (s *CartService) CreateCart(ctx context.Context, customerID *uuid.UUID, currency string, tenantID *string) (*domain.Cart, error) {
	now := time.Now()
	cart := &domain.Cart{
		ID:         uuid.New(),
		CustomerID: customerID,
		Status:     domain.CartActive,
		Currency:   currency,
		TenantID:   tenantID,
		Version:    1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.Create(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

func (s *CartService) GetCart(ctx context.Context, cartID uuid.UUID) (*domain.Cart, []*domain.CartItem, error) {
	cart, err := s.repo.GetByID(ctx, cartID)
	if err != nil {
		return nil, nil, err
	}
	items, err := s.repo.ListItems(ctx, cartID)
	if err != nil {
		return nil, nil, err
	}
	return cart, items, nil
}

// AddItem appends a line item to an Active cart. Quantity must be strictly
// positive; unit price must not be negative (zero is accepted).
func (s *CartService) AddItem(ctx context.Context, cartID uuid.UUID, variantID uuid.UUID, quantity, unitPrice decimal.Decimal) (*domain.CartItem, error) {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, domain.NewDomainError(domain.KindValidation, "invalid_quantity", "quantity must be positive", nil)
	}
	if unitPrice.IsNegative() {
		return nil, domain.NewDomainError(domain.KindValidation, "invalid_unit_price", "unit price must not be negative", nil)
	}

	cart, err := s.repo.GetByID(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if cart.Status != domain.CartActive {
		return nil, domain.NewDomainError(domain.KindInvalidStateTransition, "cart_not_active", "cart is not active", nil)
	}

	now := time.Now()
	item := &domain.CartItem{
		ID:               uuid.New(),
		CartID:           cartID,
		ProductVariantID: variantID,
		Quantity:         quantity,
		UnitPrice:        unitPrice,
		DiscountAmount:   decimal.Zero,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.repo.AddItem(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

func (s *CartService) UpdateItemQuantity(ctx context.Context, cartID, itemID uuid.UUID, quantity decimal.Decimal) error {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return domain.NewDomainError(domain.KindValidation, "invalid_quantity", "quantity must be positive", nil)
	}
	cart, err := s.repo.GetByID(ctx, cartID)
	if err != nil {
		return err
	}
	if cart.Status != domain.CartActive {
		return domain.NewDomainError(domain.KindInvalidStateTransition, "cart_not_active", "cart is not active", nil)
	}

	items, err := s.repo.ListItems(ctx, cartID)
	if err != nil {
		return err
	}
	for _, item := range items {
		if item.ID == itemID {
			item.Quantity = quantity
			item.UpdatedAt = time.Now()
			return s.repo.UpdateItem(ctx, item)
		}
	}
	return domain.ErrCartItemNotFound
}

func (s *CartService) RemoveItem(ctx context.Context, cartID, itemID uuid.UUID) error {
	cart, err := s.repo.GetByID(ctx, cartID)
	if err != nil {
		return err
	}
	if cart.Status != domain.CartActive {
		return domain.NewDomainError(domain.KindInvalidStateTransition, "cart_not_active", "cart is not active", nil)
	}
	return s.repo.RemoveItem(ctx, cartID, itemID)
}

// Subtotal sums every line item's LineTotal.
func Subtotal(items []*domain.CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineTotal())
	}
	return total
}
