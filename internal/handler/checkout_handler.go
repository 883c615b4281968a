package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/northbridge-systems/commerce-core/internal/domain"
	"github.com/northbridge-systems/commerce-core/internal/service"
	"github.com/northbridge-systems/commerce-core/internal/validation"
)

// CheckoutHandler adapts CheckoutService onto the checkout_sessions
// endpoints: the cart->order conversion workflow.
type CheckoutHandler struct {
	checkout *service.CheckoutService
}

func NewCheckoutHandler(checkout *service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkout: checkout}
}

type startCheckoutRequest struct {
	CartID uuid.UUID `json:"cart_id" validate:"required"`
}

type addressRequest struct {
	FirstName    string  `json:"first_name"`
	LastName     string  `json:"last_name"`
	Company      *string `json:"company,omitempty"`
	AddressLine1 string  `json:"address_line1"`
	AddressLine2 *string `json:"address_line2,omitempty"`
	City         string  `json:"city"`
	Province     string  `json:"province"`
	CountryCode  string  `json:"country_code"`
	PostalCode   string  `json:"postal_code"`
	Phone        *string `json:"phone,omitempty"`
}

func (r addressRequest) toDomain() domain.Address {
	return domain.Address{
		FirstName: r.FirstName, LastName: r.LastName, Company: r.Company,
		AddressLine1: r.AddressLine1, AddressLine2: r.AddressLine2,
		City: r.City, Province: r.Province, CountryCode: r.CountryCode,
		PostalCode: r.PostalCode, Phone: r.Phone,
	}
}

func addressResponse(a *domain.Address) *addressRequest {
	if a == nil {
		return nil
	}
	return &addressRequest{
		FirstName: a.FirstName, LastName: a.LastName, Company: a.Company,
		AddressLine1: a.AddressLine1, AddressLine2: a.AddressLine2,
		City: a.City, Province: a.Province, CountryCode: a.CountryCode,
		PostalCode: a.PostalCode, Phone: a.Phone,
	}
}

type checkoutSessionResponse struct {
	ID              uuid.UUID               `json:"id"`
	CartID          uuid.UUID               `json:"cart_id"`
	Status          domain.CheckoutSessionStatus `json:"status"`
	CustomerEmail   *string                 `json:"customer_email,omitempty"`
	ShippingAddress *addressRequest         `json:"shipping_address,omitempty"`
	BillingAddress  *addressRequest         `json:"billing_address,omitempty"`
	ShippingMethod  *domain.ShippingMethod  `json:"shipping_method,omitempty"`
	Version         int64                   `json:"version"`
	CreatedAt       time.Time               `json:"created_at"`
	UpdatedAt       time.Time               `json:"updated_at"`
}

func toCheckoutSessionResponse(s *domain.CheckoutSession) checkoutSessionResponse {
	return checkoutSessionResponse{
		ID: s.ID, CartID: s.CartID, Status: s.Status, CustomerEmail: s.CustomerEmail,
		ShippingAddress: addressResponse(s.ShippingAddress), BillingAddress: addressResponse(s.BillingAddress),
		ShippingMethod: s.ShippingMethod, Version: s.Version, CreatedAt: s.CreatedAt, UpdatedAt: s.UpdatedAt,
	}
}

// StartCheckout handles POST /checkout_sessions.
func (h *CheckoutHandler) StartCheckout(c echo.Context) error {
	var req startCheckoutRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "invalid request body", nil)
	}
	if details := validation.Validate(&req); details != nil {
		return NewValidationError(c, "request failed validation", details)
	}

	session, err := h.checkout.StartCheckout(c.Request().Context(), req.CartID)
	if err != nil {
		return WriteError(c, err)
	}
	return c.JSON(http.StatusCreated, toCheckoutSessionResponse(session))
}

// GetCheckoutSession handles GET /checkout_sessions/{id}.
func (h *CheckoutHandler) GetCheckoutSession(c echo.Context) error {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "invalid checkout session id", nil)
	}
	session, err := h.checkout.GetSession(c.Request().Context(), sessionID)
	if err != nil {
		return WriteError(c, err)
	}
	return c.JSON(http.StatusOK, toCheckoutSessionResponse(session))
}

type updateCheckoutSessionRequest struct {
	CustomerEmail     *string          `json:"customer_email,omitempty"`
	ShippingAddress   *addressRequest  `json:"shipping_address,omitempty"`
	ShippingMethod    *string          `json:"shipping_method,omitempty"`
	TaxRateOverride   *decimal.Decimal `json:"tax_rate_override,omitempty"`
}

// UpdateCheckoutSession handles POST /checkout_sessions/{id}: a partial
// update applying whichever fields the caller supplied, matching the
// teacher's pattern of one PATCH-style handler fanning out to several
// focused service calls rather than one do-everything service method.
func (h *CheckoutHandler) UpdateCheckoutSession(c echo.Context) error {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "invalid checkout session id", nil)
	}

	var req updateCheckoutSessionRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "invalid request body", nil)
	}

	ctx := c.Request().Context()

	if req.CustomerEmail != nil {
		if err := h.checkout.SetCustomerEmail(ctx, sessionID, *req.CustomerEmail); err != nil {
			return WriteError(c, err)
		}
	}
	if req.ShippingAddress != nil {
		if err := h.checkout.SetShippingAddress(ctx, sessionID, req.ShippingAddress.toDomain()); err != nil {
			return WriteError(c, err)
		}
	}
	if req.ShippingMethod != nil {
		if _, err := h.checkout.SetShippingMethod(ctx, sessionID, domain.ShippingMethod(*req.ShippingMethod)); err != nil {
			return WriteError(c, err)
		}
	}
	if req.TaxRateOverride != nil {
		if err := h.checkout.SetTaxRateOverride(ctx, sessionID, *req.TaxRateOverride); err != nil {
			return WriteError(c, err)
		}
	}

	session, err := h.checkout.GetSession(ctx, sessionID)
	if err != nil {
		return WriteError(c, err)
	}
	return c.JSON(http.StatusOK, toCheckoutSessionResponse(session))
}

type orderResponse struct {
	ID              uuid.UUID            `json:"id"`
	OrderNumber     string               `json:"order_number"`
	CustomerID      *uuid.UUID           `json:"customer_id,omitempty"`
	Status          domain.OrderStatus   `json:"status"`
	PaymentStatus   domain.PaymentStatus `json:"payment_status"`
	Currency        string               `json:"currency"`
	Subtotal        string               `json:"subtotal"`
	ShippingTotal   string               `json:"shipping_total"`
	TaxTotal        string               `json:"tax_total"`
	Total           string               `json:"total"`
	ShippingAddress addressRequest       `json:"shipping_address"`
	BillingAddress  addressRequest       `json:"billing_address"`
	ShippingMethod  domain.ShippingMethod `json:"shipping_method"`
	Version         int64                `json:"version"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
}

func toOrderResponse(o *domain.Order) orderResponse {
	return orderResponse{
		ID: o.ID, OrderNumber: o.OrderNumber, CustomerID: o.CustomerID, Status: o.Status,
		PaymentStatus: o.PaymentStatus, Currency: o.Currency,
		Subtotal: o.Subtotal.String(), ShippingTotal: o.ShippingTotal.String(),
		TaxTotal: o.TaxTotal.String(), Total: o.Total.String(),
		ShippingAddress: *addressResponse(&o.ShippingAddress), BillingAddress: *addressResponse(&o.BillingAddress),
		ShippingMethod: o.ShippingMethod, Version: o.Version, CreatedAt: o.CreatedAt, UpdatedAt: o.UpdatedAt,
	}
}

// CompleteCheckout handles POST /checkout_sessions/{id}/complete. A
// declined payment is a business outcome, not an error: it still returns
// 200/201 with payment_status=FAILED on the order.
func (h *CheckoutHandler) CompleteCheckout(c echo.Context) error {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "invalid checkout session id", nil)
	}

	order, err := h.checkout.CompleteCheckout(c.Request().Context(), sessionID)
	if err != nil {
		return WriteError(c, err)
	}
	return c.JSON(http.StatusCreated, toOrderResponse(order))
}

// CancelCheckout handles POST /checkout_sessions/{id}/cancel.
func (h *CheckoutHandler) CancelCheckout(c echo.Context) error {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "invalid checkout session id", nil)
	}

	session, err := h.checkout.CancelCheckout(c.Request().Context(), sessionID)
	if err != nil {
		return WriteError(c, err)
	}
	return c.JSON(http.StatusOK, toCheckoutSessionResponse(session))
}
