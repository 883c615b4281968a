package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/northbridge-systems/commerce-core/internal/domain"
	"github.com/northbridge-systems/commerce-core/internal/service"
)

// ProcurementHandler adapts ProcurementService onto the purchase_orders
// endpoints: issuing POs and posting goods receipts/returns against them.
type ProcurementHandler struct {
	procurement *service.ProcurementService
}

func NewProcurementHandler(procurement *service.ProcurementService) *ProcurementHandler {
	return &ProcurementHandler{procurement: procurement}
}

type purchaseOrderLineRequest struct {
	ItemID          uuid.UUID       `json:"item_id"`
	QuantityOrdered decimal.Decimal `json:"quantity_ordered"`
	UnitCost        decimal.Decimal `json:"unit_cost"`
}

type createPurchaseOrderRequest struct {
	VendorID   uuid.UUID                  `json:"vendor_id"`
	LocationID string                     `json:"location_id"`
	Currency   string                     `json:"currency"`
	Lines      []purchaseOrderLineRequest `json:"lines"`
	TenantID   *string                    `json:"tenant_id,omitempty"`
}

type purchaseOrderResponse struct {
	ID         uuid.UUID                   `json:"id"`
	PoNumber   string                      `json:"po_number"`
	VendorID   uuid.UUID                   `json:"vendor_id"`
	Status     domain.PurchaseOrderStatus  `json:"status"`
	Currency   string                      `json:"currency"`
	LocationID string                      `json:"location_id"`
	Version    int64                       `json:"version"`
	CreatedAt  time.Time                   `json:"created_at"`
	UpdatedAt  time.Time                   `json:"updated_at"`
}

func toPurchaseOrderResponse(po *domain.PurchaseOrder) purchaseOrderResponse {
	return purchaseOrderResponse{
		ID: po.ID, PoNumber: po.PoNumber, VendorID: po.VendorID, Status: po.Status,
		Currency: po.Currency, LocationID: po.LocationID, Version: po.Version,
		CreatedAt: po.CreatedAt, UpdatedAt: po.UpdatedAt,
	}
}

// CreatePurchaseOrder handles POST /purchase_orders.
func (h *ProcurementHandler) CreatePurchaseOrder(c echo.Context) error {
	var req createPurchaseOrderRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "invalid request body", nil)
	}
	if len(req.Lines) == 0 {
		return NewValidationError(c, "at least one line is required", nil)
	}

	lines := make([]service.CreatePurchaseOrderLine, len(req.Lines))
	for i, l := range req.Lines {
		lines[i] = service.CreatePurchaseOrderLine{ItemID: l.ItemID, QuantityOrdered: l.QuantityOrdered, UnitCost: l.UnitCost}
	}

	po, err := h.procurement.CreatePurchaseOrder(c.Request().Context(), req.VendorID, req.LocationID, req.Currency, lines, req.TenantID)
	if err != nil {
		return WriteError(c, err)
	}
	return c.JSON(http.StatusCreated, toPurchaseOrderResponse(po))
}

// ApprovePurchaseOrder handles POST /purchase_orders/{id}/approve, moving
// a Draft purchase order to Issued so it becomes eligible for receipt.
func (h *ProcurementHandler) ApprovePurchaseOrder(c echo.Context) error {
	poID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "invalid purchase order id", nil)
	}

	po, err := h.procurement.Transition(c.Request().Context(), poID, domain.PoIssued)
	if err != nil {
		return WriteError(c, err)
	}
	return c.JSON(http.StatusOK, toPurchaseOrderResponse(po))
}

// CancelPurchaseOrder handles POST /purchase_orders/{id}/cancel.
func (h *ProcurementHandler) CancelPurchaseOrder(c echo.Context) error {
	poID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "invalid purchase order id", nil)
	}

	po, err := h.procurement.Transition(c.Request().Context(), poID, domain.PoCancelled)
	if err != nil {
		return WriteError(c, err)
	}
	return c.JSON(http.StatusOK, toPurchaseOrderResponse(po))
}

type receiptLineRequest struct {
	PoLineID         uuid.UUID       `json:"po_line_id"`
	QuantityReceived decimal.Decimal `json:"quantity_received"`
}

type postReceiptRequest struct {
	Lines []receiptLineRequest `json:"lines"`
	Notes *string              `json:"notes,omitempty"`
}

type receiptHeaderResponse struct {
	ID              uuid.UUID `json:"id"`
	PurchaseOrderID uuid.UUID `json:"purchase_order_id"`
	ReceivedAt      time.Time `json:"received_at"`
}

func toReceiptLines(req []receiptLineRequest) []service.ReceiptLineInput {
	lines := make([]service.ReceiptLineInput, len(req))
	for i, l := range req {
		lines[i] = service.ReceiptLineInput{PoLineID: l.PoLineID, QuantityReceived: l.QuantityReceived}
	}
	return lines
}

// ReceivePurchaseOrder handles POST /purchase_orders/{id}/receive.
func (h *ProcurementHandler) ReceivePurchaseOrder(c echo.Context) error {
	poID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "invalid purchase order id", nil)
	}

	var req postReceiptRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "invalid request body", nil)
	}
	if len(req.Lines) == 0 {
		return NewValidationError(c, "at least one line is required", nil)
	}

	header, err := h.procurement.PostReceipt(c.Request().Context(), poID, toReceiptLines(req.Lines), req.Notes)
	if err != nil {
		return WriteError(c, err)
	}
	return c.JSON(http.StatusCreated, receiptHeaderResponse{ID: header.ID, PurchaseOrderID: header.PurchaseOrderID, ReceivedAt: header.ReceivedAt})
}

// ReturnPurchaseOrder handles POST /purchase_orders/{id}/return: posts a
// return-to-vendor against previously received quantity.
func (h *ProcurementHandler) ReturnPurchaseOrder(c echo.Context) error {
	poID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "invalid purchase order id", nil)
	}

	var req postReceiptRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "invalid request body", nil)
	}
	if len(req.Lines) == 0 {
		return NewValidationError(c, "at least one line is required", nil)
	}

	header, err := h.procurement.ReturnToVendor(c.Request().Context(), poID, toReceiptLines(req.Lines), req.Notes)
	if err != nil {
		return WriteError(c, err)
	}
	return c.JSON(http.StatusCreated, receiptHeaderResponse{ID: header.ID, PurchaseOrderID: header.PurchaseOrderID, ReceivedAt: header.ReceivedAt})
}
