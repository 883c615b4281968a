package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/northbridge-systems/commerce-core/internal/idempotency"
	"github.com/northbridge-systems/commerce-core/internal/middleware"
)

// Handlers bundles every resource handler RegisterRoutes wires in. Built up
// front in internal/server's Run once every service is constructed.
type Handlers struct {
	Cart          *CartHandler
	Checkout      *CheckoutHandler
	Order         *OrderHandler
	Inventory     *InventoryHandler
	Procurement   *ProcurementHandler
	Manufacturing *ManufacturingHandler
}

// RegisterRoutes wires every commerce endpoint under /api/v1, applying the
// idempotency, version, and rate-limit middleware to the whole group the
// same way the teacher applies its auth middleware to a route group.
func RegisterRoutes(e *echo.Echo, h *Handlers, idemCache *idempotency.Cache, rl *middleware.RateLimiter) {
	api := e.Group("/api/v1")
	api.Use(middleware.VersionMiddleware())
	api.Use(middleware.RateLimitMiddleware(rl))
	api.Use(middleware.IdempotencyMiddleware(idemCache))

	carts := api.Group("/carts")
	carts.POST("", h.Cart.CreateCart)
	carts.POST("/:id/items", h.Cart.AddItem)
	carts.PATCH("/:id/items/:variant_id", h.Cart.UpdateItemQuantity)
	carts.DELETE("/:id/items/:variant_id", h.Cart.RemoveItem)

	checkoutSessions := api.Group("/checkout_sessions")
	checkoutSessions.POST("", h.Checkout.StartCheckout)
	checkoutSessions.GET("/:id", h.Checkout.GetCheckoutSession)
	checkoutSessions.POST("/:id", h.Checkout.UpdateCheckoutSession)
	checkoutSessions.POST("/:id/complete", h.Checkout.CompleteCheckout)
	checkoutSessions.POST("/:id/cancel", h.Checkout.CancelCheckout)

	orders := api.Group("/orders")
	orders.GET("/:id", h.Order.GetOrder)
	orders.POST("/:id/cancel", h.Order.CancelOrder)
	orders.POST("/:id/ship", h.Order.ShipOrder)
	orders.POST("/:id/return", h.Order.ReturnOrder)

	inventory := api.Group("/inventory")
	inventory.POST("/adjustments", h.Inventory.CreateAdjustment)
	inventory.POST("/reservations", h.Inventory.CreateReservation)
	inventory.POST("/releases", h.Inventory.CreateRelease)
	inventory.POST("/consumptions", h.Inventory.CreateConsumption)
	inventory.GET("/:item/:location", h.Inventory.GetBalance)

	purchaseOrders := api.Group("/purchase_orders")
	purchaseOrders.POST("", h.Procurement.CreatePurchaseOrder)
	purchaseOrders.POST("/:id/approve", h.Procurement.ApprovePurchaseOrder)
	purchaseOrders.POST("/:id/receive", h.Procurement.ReceivePurchaseOrder)
	purchaseOrders.POST("/:id/return", h.Procurement.ReturnPurchaseOrder)
	purchaseOrders.POST("/:id/cancel", h.Procurement.CancelPurchaseOrder)

	workOrders := api.Group("/work_orders")
	workOrders.POST("", h.Manufacturing.CreateWorkOrder)
	workOrders.POST("/:id/materials_available", h.Manufacturing.MaterialsAvailableWorkOrder)
	workOrders.POST("/:id/start", h.Manufacturing.StartWorkOrder)
	workOrders.POST("/:id/hold", h.Manufacturing.HoldWorkOrder)
	workOrders.POST("/:id/resume", h.Manufacturing.ResumeWorkOrder)
	workOrders.POST("/:id/complete", h.Manufacturing.CompleteWorkOrder)
	workOrders.POST("/:id/cancel", h.Manufacturing.CancelWorkOrder)
}
