package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/northbridge-systems/commerce-core/internal/domain"
	"github.com/northbridge-systems/commerce-core/internal/service"
	"github.com/northbridge-systems/commerce-core/internal/validation"
)

// InventoryHandler adapts InventoryService onto the inventory endpoints:
// direct journal postings against a (item, location) balance.
type InventoryHandler struct {
	inventory *service.InventoryService
}

func NewInventoryHandler(inventory *service.InventoryService) *InventoryHandler {
	return &InventoryHandler{inventory: inventory}
}

type inventoryBalanceResponse struct {
	ItemID     uuid.UUID `json:"item_id"`
	LocationID string    `json:"location_id"`
	OnHand     string    `json:"on_hand"`
	Allocated  string    `json:"allocated"`
	Available  string    `json:"available"`
	Version    int64     `json:"version"`
}

func toInventoryBalanceResponse(b *domain.InventoryBalance) inventoryBalanceResponse {
	return inventoryBalanceResponse{
		ItemID: b.ItemID, LocationID: b.LocationID,
		OnHand: b.OnHand.String(), Allocated: b.Allocated.String(),
		Available: b.Available().String(), Version: b.Version,
	}
}

type adjustmentRequest struct {
	ItemID     uuid.UUID       `json:"item_id" validate:"required"`
	LocationID string          `json:"location_id" validate:"required"`
	Delta      decimal.Decimal `json:"delta"`
	Reason     string          `json:"reason" validate:"required,oneof=CYCLE_COUNT DAMAGE SHRINKAGE CORRECTION RECLASSIFICATION"`
	Notes      *string         `json:"notes,omitempty"`
	TenantID   *string         `json:"tenant_id,omitempty"`
}

// CreateAdjustment handles POST /inventory/adjustments.
func (h *InventoryHandler) CreateAdjustment(c echo.Context) error {
	var req adjustmentRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "invalid request body", nil)
	}
	if details := validation.Validate(&req); details != nil {
		return NewValidationError(c, "request failed validation", details)
	}

	balance, err := h.inventory.Adjust(c.Request().Context(), req.ItemID, req.LocationID, req.Delta,
		domain.AdjustmentReason(req.Reason), req.Notes, req.TenantID)
	if err != nil {
		return WriteError(c, err)
	}
	return c.JSON(http.StatusCreated, toInventoryBalanceResponse(balance))
}

// movementRequest is the manual-override body for /inventory/reservations,
// /inventory/releases, and /inventory/consumptions. Since a direct API call
// carries no order/work-order context of its own, the caller must name
// which closed-enum TransactionType the posting represents; each handler
// below additionally restricts it to the subset that primitive allows.
type movementRequest struct {
	ItemID        uuid.UUID             `json:"item_id" validate:"required"`
	LocationID    string                `json:"location_id" validate:"required"`
	Quantity      decimal.Decimal       `json:"quantity"`
	TransactionType domain.TransactionType `json:"transaction_type" validate:"required"`
	ReferenceType string                `json:"reference_type" validate:"required"`
	ReferenceID   uuid.UUID             `json:"reference_id" validate:"required"`
}

var reservationTypes = map[domain.TransactionType]bool{
	domain.TxnSalesAllocation:      true,
	domain.TxnManufacturingReserve: true,
}

var releaseTypes = map[domain.TransactionType]bool{
	domain.TxnSalesRelease:         true,
	domain.TxnManufacturingRelease: true,
}

var consumptionTypes = map[domain.TransactionType]bool{
	domain.TxnSalesShip:            true,
	domain.TxnManufacturingConsume: true,
}

// CreateReservation handles POST /inventory/reservations.
func (h *InventoryHandler) CreateReservation(c echo.Context) error {
	var req movementRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "invalid request body", nil)
	}
	if details := validation.Validate(&req); details != nil {
		return NewValidationError(c, "request failed validation", details)
	}
	if !reservationTypes[req.TransactionType] {
		return NewValidationError(c, "transaction_type must be SALES_ALLOCATION or MANUFACTURING_RESERVE for a reservation", nil)
	}

	balance, err := h.inventory.Reserve(c.Request().Context(), req.ItemID, req.LocationID, req.Quantity, req.TransactionType, req.ReferenceType, req.ReferenceID)
	if err != nil {
		return WriteError(c, err)
	}
	return c.JSON(http.StatusCreated, toInventoryBalanceResponse(balance))
}

// CreateRelease handles POST /inventory/releases.
func (h *InventoryHandler) CreateRelease(c echo.Context) error {
	var req movementRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "invalid request body", nil)
	}
	if details := validation.Validate(&req); details != nil {
		return NewValidationError(c, "request failed validation", details)
	}
	if !releaseTypes[req.TransactionType] {
		return NewValidationError(c, "transaction_type must be SALES_RELEASE or MANUFACTURING_RELEASE for a release", nil)
	}

	balance, err := h.inventory.Release(c.Request().Context(), req.ItemID, req.LocationID, req.Quantity, req.TransactionType, req.ReferenceType, req.ReferenceID)
	if err != nil {
		return WriteError(c, err)
	}
	return c.JSON(http.StatusCreated, toInventoryBalanceResponse(balance))
}

// CreateConsumption handles POST /inventory/consumptions.
func (h *InventoryHandler) CreateConsumption(c echo.Context) error {
	var req movementRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "invalid request body", nil)
	}
	if details := validation.Validate(&req); details != nil {
		return NewValidationError(c, "request failed validation", details)
	}
	if !consumptionTypes[req.TransactionType] {
		return NewValidationError(c, "transaction_type must be SALES_SHIP or MANUFACTURING_CONSUME for a consumption", nil)
	}

	balance, err := h.inventory.Consume(c.Request().Context(), req.ItemID, req.LocationID, req.Quantity,
		req.TransactionType, req.ReferenceType, req.ReferenceID)
	if err != nil {
		return WriteError(c, err)
	}
	return c.JSON(http.StatusCreated, toInventoryBalanceResponse(balance))
}

// GetBalance handles GET /inventory/{item}/{location}.
func (h *InventoryHandler) GetBalance(c echo.Context) error {
	itemID, err := uuid.Parse(c.Param("item"))
	if err != nil {
		return NewValidationError(c, "invalid item id", nil)
	}
	locationID := c.Param("location")
	if locationID == "" {
		return NewValidationError(c, "location is required", nil)
	}

	available, err := h.inventory.CheckAvailability(c.Request().Context(), itemID, locationID)
	if err != nil {
		return WriteError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{
		"item_id":    itemID.String(),
		"location_id": locationID,
		"available":  available.String(),
	})
}
