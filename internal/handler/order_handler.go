package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/northbridge-systems/commerce-core/internal/domain"
	"github.com/northbridge-systems/commerce-core/internal/service"
)

// OrderHandler adapts OrderService onto the orders endpoints: status
// transitions and shipment tracking once checkout has produced an order.
type OrderHandler struct {
	orders *service.OrderService
}

func NewOrderHandler(orders *service.OrderService) *OrderHandler {
	return &OrderHandler{orders: orders}
}

type orderItemResponse struct {
	ID               uuid.UUID `json:"id"`
	ProductVariantID uuid.UUID `json:"product_variant_id"`
	Sku              string    `json:"sku"`
	Name             string    `json:"name"`
	Quantity         string    `json:"quantity"`
	UnitPrice        string    `json:"unit_price"`
	DiscountAmount   string    `json:"discount_amount"`
	TaxAmount        string    `json:"tax_amount"`
	LineTotal        string    `json:"line_total"`
}

type orderWithItemsResponse struct {
	orderResponse
	Items []orderItemResponse `json:"items"`
}

func toOrderWithItemsResponse(o *domain.Order, items []*domain.OrderItem) orderWithItemsResponse {
	resp := orderWithItemsResponse{orderResponse: toOrderResponse(o)}
	for _, item := range items {
		resp.Items = append(resp.Items, orderItemResponse{
			ID: item.ID, ProductVariantID: item.ProductVariantID, Sku: item.Sku, Name: item.Name,
			Quantity: item.Quantity.String(), UnitPrice: item.UnitPrice.String(),
			DiscountAmount: item.DiscountAmount.String(), TaxAmount: item.TaxAmount.String(),
			LineTotal: item.LineTotal().String(),
		})
	}
	return resp
}

// GetOrder handles GET /orders/{id}.
func (h *OrderHandler) GetOrder(c echo.Context) error {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "invalid order id", nil)
	}

	order, items, err := h.orders.GetOrder(c.Request().Context(), orderID)
	if err != nil {
		return WriteError(c, err)
	}
	return c.JSON(http.StatusOK, toOrderWithItemsResponse(order, items))
}

// CancelOrder handles POST /orders/{id}/cancel.
func (h *OrderHandler) CancelOrder(c echo.Context) error {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "invalid order id", nil)
	}

	order, err := h.orders.Transition(c.Request().Context(), orderID, domain.OrderCancelled)
	if err != nil {
		return WriteError(c, err)
	}
	return c.JSON(http.StatusOK, toOrderResponse(order))
}

type shipOrderRequest struct {
	Carrier        string `json:"carrier"`
	TrackingNumber string `json:"tracking_number"`
}

// ShipOrder handles POST /orders/{id}/ship: advances the order to Shipped
// and records the carrier/tracking number on its shipment.
func (h *OrderHandler) ShipOrder(c echo.Context) error {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "invalid order id", nil)
	}

	var req shipOrderRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "invalid request body", nil)
	}
	if req.Carrier == "" || req.TrackingNumber == "" {
		return NewValidationError(c, "carrier and tracking_number are required", nil)
	}

	ctx := c.Request().Context()
	order, err := h.orders.Transition(ctx, orderID, domain.OrderShipped)
	if err != nil {
		return WriteError(c, err)
	}
	if err := h.orders.UpdateShipmentTracking(ctx, orderID, req.Carrier, req.TrackingNumber, domain.ShipmentInTransit); err != nil {
		return WriteError(c, err)
	}
	return c.JSON(http.StatusOK, toOrderResponse(order))
}

// ReturnOrder handles POST /orders/{id}/return.
func (h *OrderHandler) ReturnOrder(c echo.Context) error {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "invalid order id", nil)
	}

	order, err := h.orders.Return(c.Request().Context(), orderID)
	if err != nil {
		return WriteError(c, err)
	}
	return c.JSON(http.StatusOK, toOrderResponse(order))
}
