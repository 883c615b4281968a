// Package server builds and runs the HTTP facade: every repository,
// engine, and middleware wired together and served until ctx is canceled.
// Both cmd/api and cmd/statetool's "serve" subcommand call Run so the two
// entrypoints never drift out of sync on how the facade is assembled.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/northbridge-systems/commerce-core/internal/config"
	"github.com/northbridge-systems/commerce-core/internal/eventbus"
	"github.com/northbridge-systems/commerce-core/internal/gateway"
	"github.com/northbridge-systems/commerce-core/internal/handler"
	"github.com/northbridge-systems/commerce-core/internal/idempotency"
	"github.com/northbridge-systems/commerce-core/internal/middleware"
	"github.com/northbridge-systems/commerce-core/internal/repository/postgres"
	"github.com/northbridge-systems/commerce-core/internal/service"
)

// Run connects to the database, wires every engine and handler, and serves
// until ctx is canceled, then shuts down gracefully within 10s.
func Run(ctx context.Context, cfg *config.Config) error {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	poolCfg.MaxConns = cfg.DBMaxConns
	poolCfg.MinConns = cfg.DBMinConns

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		return err
	}
	log.Info().Msg("connected to database")

	bus := eventbus.New(cfg.EventBusQueueDepth)
	defer bus.Close()

	idemCache := idempotency.New(cfg.IdempotencyTTL)
	defer idemCache.Stop()

	rl := middleware.NewRateLimiterWithConfig(cfg.RateLimitPerMinute, cfg.RateLimitBurst)
	defer rl.Stop()

	cartRepo := postgres.NewCartRepository(pool)
	checkoutRepo := postgres.NewCheckoutSessionRepository(pool)
	orderRepo := postgres.NewOrderRepository(pool)
	inventoryRepo := postgres.NewInventoryRepository(pool)
	bomRepo := postgres.NewBomRepository(pool)
	purchaseOrderRepo := postgres.NewPurchaseOrderRepository(pool)
	workOrderRepo := postgres.NewWorkOrderRepository(pool)

	inventoryService := service.NewInventoryService(inventoryRepo, bus)
	bomEngine := service.NewBomEngine(bomRepo, inventoryService)
	cartService := service.NewCartService(cartRepo)

	defaultTaxRate, err := decimal.NewFromString(cfg.DefaultTaxRate)
	if err != nil {
		return err
	}
	checkoutService := service.NewCheckoutService(checkoutRepo, cartRepo, orderRepo, gateway.Simulated{}, inventoryService, cfg.DefaultLocationID, bus, service.TaxConfig{DefaultRate: defaultTaxRate})
	orderService := service.NewOrderService(orderRepo, inventoryService, cfg.DefaultLocationID, bus)
	procurementService := service.NewProcurementService(purchaseOrderRepo, inventoryService, bus)
	manufacturingService := service.NewManufacturingService(workOrderRepo, bomEngine, inventoryService, bus)

	handlers := &handler.Handlers{
		Cart:          handler.NewCartHandler(cartService),
		Checkout:      handler.NewCheckoutHandler(checkoutService),
		Order:         handler.NewOrderHandler(orderService),
		Inventory:     handler.NewInventoryHandler(inventoryService),
		Procurement:   handler.NewProcurementHandler(procurementService),
		Manufacturing: handler.NewManufacturingHandler(manufacturingService),
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
		MaxAge:           86400,
	}))
	e.Use(echomiddleware.SecureWithConfig(echomiddleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            31536000,
		ContentSecurityPolicy: "default-src 'self'",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
	}))
	e.Use(zerologMiddleware())
	e.Use(echomiddleware.Recover())

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	handler.RegisterRoutes(e, handlers, idemCache, rl)

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Msg("starting server")
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}

func zerologMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()

			log.Info().
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", res.Status).
				Dur("latency", time.Since(start)).
				Str("request_id", res.Header().Get(echo.HeaderXRequestID)).
				Msg("request")

			return nil
		}
	}
}
