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

// ManufacturingHandler adapts ManufacturingService onto the work_orders
// endpoints: the production run lifecycle atop BomEngine and InventoryCore.
type ManufacturingHandler struct {
	manufacturing *service.ManufacturingService
}

func NewManufacturingHandler(manufacturing *service.ManufacturingService) *ManufacturingHandler {
	return &ManufacturingHandler{manufacturing: manufacturing}
}

type createWorkOrderRequest struct {
	ItemID      uuid.UUID       `json:"item_id" validate:"required"`
	BomHeaderID uuid.UUID       `json:"bom_header_id" validate:"required"`
	LocationID  string          `json:"location_id" validate:"required"`
	Quantity    decimal.Decimal `json:"quantity"`
	TenantID    *string         `json:"tenant_id,omitempty"`
}

type workOrderResponse struct {
	ID               uuid.UUID              `json:"id"`
	WoNumber         string                 `json:"wo_number"`
	ItemID           uuid.UUID              `json:"item_id"`
	BomHeaderID      uuid.UUID              `json:"bom_header_id"`
	LocationID       string                 `json:"location_id"`
	QuantityPlanned  string                 `json:"quantity_planned"`
	QuantityProduced string                 `json:"quantity_produced"`
	Status           domain.WorkOrderStatus `json:"status"`
	Version          int64                  `json:"version"`
	CreatedAt        time.Time              `json:"created_at"`
	UpdatedAt        time.Time              `json:"updated_at"`
}

func toWorkOrderResponse(wo *domain.WorkOrder) workOrderResponse {
	return workOrderResponse{
		ID: wo.ID, WoNumber: wo.WoNumber, ItemID: wo.ItemID, BomHeaderID: wo.BomHeaderID,
		LocationID: wo.LocationID, QuantityPlanned: wo.QuantityPlanned.String(),
		QuantityProduced: wo.QuantityProduced.String(), Status: wo.Status,
		Version: wo.Version, CreatedAt: wo.CreatedAt, UpdatedAt: wo.UpdatedAt,
	}
}

// CreateWorkOrder handles POST /work_orders.
func (h *ManufacturingHandler) CreateWorkOrder(c echo.Context) error {
	var req createWorkOrderRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "invalid request body", nil)
	}
	if details := validation.Validate(&req); details != nil {
		return NewValidationError(c, "request failed validation", details)
	}

	wo, err := h.manufacturing.CreateWorkOrder(c.Request().Context(), req.ItemID, req.BomHeaderID, req.LocationID, req.Quantity, req.TenantID)
	if err != nil {
		return WriteError(c, err)
	}
	return c.JSON(http.StatusCreated, toWorkOrderResponse(wo))
}

// StartWorkOrder handles POST /work_orders/{id}/start.
func (h *ManufacturingHandler) StartWorkOrder(c echo.Context) error {
	woID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "invalid work order id", nil)
	}

	wo, err := h.manufacturing.Start(c.Request().Context(), woID)
	if err != nil {
		return WriteError(c, err)
	}
	return c.JSON(http.StatusOK, toWorkOrderResponse(wo))
}

// MaterialsAvailableWorkOrder handles POST /work_orders/{id}/materials_available.
func (h *ManufacturingHandler) MaterialsAvailableWorkOrder(c echo.Context) error {
	woID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "invalid work order id", nil)
	}

	wo, err := h.manufacturing.MaterialsAvailable(c.Request().Context(), woID)
	if err != nil {
		return WriteError(c, err)
	}
	return c.JSON(http.StatusOK, toWorkOrderResponse(wo))
}

// HoldWorkOrder handles POST /work_orders/{id}/hold.
func (h *ManufacturingHandler) HoldWorkOrder(c echo.Context) error {
	woID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "invalid work order id", nil)
	}

	wo, err := h.manufacturing.Hold(c.Request().Context(), woID)
	if err != nil {
		return WriteError(c, err)
	}
	return c.JSON(http.StatusOK, toWorkOrderResponse(wo))
}

// ResumeWorkOrder handles POST /work_orders/{id}/resume.
func (h *ManufacturingHandler) ResumeWorkOrder(c echo.Context) error {
	woID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "invalid work order id", nil)
	}

	wo, err := h.manufacturing.Resume(c.Request().Context(), woID)
	if err != nil {
		return WriteError(c, err)
	}
	return c.JSON(http.StatusOK, toWorkOrderResponse(wo))
}

// CancelWorkOrder handles POST /work_orders/{id}/cancel.
func (h *ManufacturingHandler) CancelWorkOrder(c echo.Context) error {
	woID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "invalid work order id", nil)
	}

	wo, err := h.manufacturing.Cancel(c.Request().Context(), woID)
	if err != nil {
		return WriteError(c, err)
	}
	return c.JSON(http.StatusOK, toWorkOrderResponse(wo))
}

type completeWorkOrderRequest struct {
	QuantityProduced decimal.Decimal `json:"quantity_produced" validate:"required"`
}

// CompleteWorkOrder handles POST /work_orders/{id}/complete.
func (h *ManufacturingHandler) CompleteWorkOrder(c echo.Context) error {
	woID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return NewValidationError(c, "invalid work order id", nil)
	}

	var req completeWorkOrderRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "invalid request body", nil)
	}
	if details := validation.Validate(&req); details != nil {
		return NewValidationError(c, "request failed validation", details)
	}

	wo, err := h.manufacturing.Complete(c.Request().Context(), woID, req.QuantityProduced)
	if err != nil {
		return WriteError(c, err)
	}
	return c.JSON(http.StatusOK, toWorkOrderResponse(wo))
}
