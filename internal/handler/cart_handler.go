package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/northbridge-systems/commerce-core/internal/domain"
	"github.com/northbridge-systems/commerce-core/internal/service"
	"github.com/northbridge-systems/commerce-core/internal/validation"
)

// CartHandler adapts CartService onto the cart endpoints spec.md §6 names.
type CartHandler struct {
	carts *service.CartService
}

func NewCartHandler(carts *service.CartService) *CartHandler {
	return &CartHandler{carts: carts}
}

type createCartRequest struct {
	CustomerID *uuid.UUID `json:"customer_id,omitempty"`
	Currency   string     `json:"currency" validate:"required,len=3"`
	TenantID   *string    `json:"tenant_id,omitempty"`
}

type cartItemResponse struct {
	ID               uuid.UUID `json:"id"`
	ProductVariantID uuid.UUID `json:"product_variant_id"`
	Quantity         string    `json:"quantity"`
	UnitPrice        string    `json:"unit_price"`
	DiscountAmount   string    `json:"discount_amount"`
	LineTotal        string    `json:"line_total"`
}

type cartResponse struct {
	ID         uuid.UUID          `json:"id"`
	CustomerID *uuid.UUID         `json:"customer_id,omitempty"`
	Status     domain.CartStatus  `json:"status"`
	Currency   string             `json:"currency"`
	Version    int64              `json:"version"`
	Items      []cartItemResponse `json:"items,omitempty"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

func toCartResponse(cart *domain.Cart, items []*domain.CartItem) cartResponse {
	resp := cartResponse{
		ID: cart.ID, CustomerID: cart.CustomerID, Status: cart.Status,
		Currency: cart.Currency, Version: cart.Version,
		CreatedAt: cart.CreatedAt, UpdatedAt: cart.UpdatedAt,
	}
	for _, item := range items {
		resp.Items = append(resp.Items, cartItemResponse{
			ID: item.ID, ProductVariantID: item.ProductVariantID,
			Quantity: item.Quantity.String(), UnitPrice: item.UnitPrice.String(),
			DiscountAmount: item.DiscountAmount.String(), LineTotal: item.LineTotal().String(),
		})
	}
	return resp
}

// CreateCart handles POST /carts.
func (h *CartHandler) CreateCart(c echo.Context) error {
	var req createCartRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "invalid request body", nil)
	}
	if details := validation.Validate(&req); details != nil {
		return NewValidationError(c, "request failed validation", details)
	}

	cart, err := h.carts.CreateCart(c.Request().Context(), req.CustomerID, req.Currency, req.TenantID)
	if err != nil {
		return WriteError(c, err)
	}
	return c.JSON(http.StatusCreated, toCartResponse(cart, nil))
}

type addCartItemRequest struct {
	ProductVariantID uuid.UUID       `json:"product_variant_id" validate:"required"`
	Quantity         decimal.Decimal `json:"quantity"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
}

// AddItem handles POST /carts/{id}/items.
func (h *CartHandler) AddItem(c echo.Context) error {
	cartID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "invalid cart id", nil)
	}

	var req addCartItemRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "invalid request body", nil)
	}
	if details := validation.Validate(&req); details != nil {
		return NewValidationError(c, "request failed validation", details)
	}

	item, err := h.carts.AddItem(c.Request().Context(), cartID, req.ProductVariantID, req.Quantity, req.UnitPrice)
	if err != nil {
		return WriteError(c, err)
	}

	cart, items, err := h.carts.GetCart(c.Request().Context(), cartID)
	if err != nil {
		log.Error().Err(err).Str("cart_id", cartID.String()).Msg("failed to reload cart after AddItem")
		return WriteError(c, err)
	}
	_ = item
	return c.JSON(http.StatusCreated, toCartResponse(cart, items))
}

type updateCartItemRequest struct {
	Quantity decimal.Decimal `json:"quantity"`
}

// UpdateItemQuantity handles PATCH /carts/{id}/items/{variant_id}.
//
// The path names the variant; the handler resolves the matching cart item
// by scanning the cart's current lines, since quantity updates address a
// product variant rather than an opaque item id in the wire contract.
func (h *CartHandler) UpdateItemQuantity(c echo.Context) error {
	cartID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "invalid cart id", nil)
	}
	variantID, err := uuid.Parse(c.Param("variant_id"))
	if err != nil {
		return NewValidationError(c, "invalid variant id", nil)
	}

	var req updateCartItemRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "invalid request body", nil)
	}

	_, items, err := h.carts.GetCart(c.Request().Context(), cartID)
	if err != nil {
		return WriteError(c, err)
	}
	itemID, found := findCartItemByVariant(items, variantID)
	if !found {
		return WriteError(c, domain.ErrCartItemNotFound)
	}

	if err := h.carts.UpdateItemQuantity(c.Request().Context(), cartID, itemID, req.Quantity); err != nil {
		return WriteError(c, err)
	}

	cart, items, err := h.carts.GetCart(c.Request().Context(), cartID)
	if err != nil {
		return WriteError(c, err)
	}
	return c.JSON(http.StatusOK, toCartResponse(cart, items))
}

// RemoveItem handles DELETE /carts/{id}/items/{variant_id}.
func (h *CartHandler) RemoveItem(c echo.Context) error {
	cartID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "invalid cart id", nil)
	}
	variantID, err := uuid.Parse(c.Param("variant_id"))
	if err != nil {
		return NewValidationError(c, "invalid variant id", nil)
	}

	_, items, err := h.carts.GetCart(c.Request().Context(), cartID)
	if err != nil {
		return WriteError(c, err)
	}
	itemID, found := findCartItemByVariant(items, variantID)
	if !found {
		return WriteError(c, domain.ErrCartItemNotFound)
	}

	if err := h.carts.RemoveItem(c.Request().Context(), cartID, itemID); err != nil {
		return WriteError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func findCartItemByVariant(items []*domain.CartItem, variantID uuid.UUID) (uuid.UUID, bool) {
	for _, item := range items {
		if item.ProductVariantID == variantID {
			return item.ID, true
		}
	}
	return uuid.Nil, false
}
