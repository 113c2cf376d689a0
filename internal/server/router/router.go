package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/farmerp/internal/server/handlers"
)

// Handlers bundles the HTTP adapters mounted under /api.
type Handlers struct {
	Inventory *handlers.InventoryHandler
	Agro      *handlers.AgroHandler
	CropSow   *handlers.CropSowHandler
	Feed      *handlers.FeedHandler
	Ledger    *handlers.LedgerHandler
	Crops     *handlers.CropHandler
	Dashboard *handlers.DashboardHandler
	Records   handlers.RecordHandlers
}

// HealthCheck reports whether a backing service is reachable.
type HealthCheck func(ctx context.Context) error

// New wires the Gin engine with required routes and middlewares.
func New(h Handlers, health HealthCheck, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	r.GET("/healthz", func(c *gin.Context) {
		if health != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := health(ctx); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")

	inv := api.Group("/inventory")
	inv.POST("/add", h.Inventory.Add)
	inv.POST("/remove", h.Inventory.Remove)
	inv.GET("", h.Inventory.List)
	inv.GET("/movements", h.Inventory.Movements)
	inv.GET("/low-stock", h.Inventory.LowStock)
	inv.GET("/export", h.Inventory.Export)
	inv.GET("/:id", h.Inventory.Get)

	agro := api.Group("/agro-inventory")
	agro.POST("/add", h.Agro.Add)
	agro.POST("/remove", h.Agro.Remove)
	agro.GET("", h.Agro.List)
	agro.GET("/:id", h.Agro.Get)
	agro.PUT("/:id", h.Agro.Adjust)
	agro.DELETE("/:id", h.Agro.Delete)

	sow := api.Group("/crop-sow")
	sow.POST("", h.CropSow.Create)
	sow.GET("", h.CropSow.List)
	sow.GET("/:id", h.CropSow.Get)
	sow.PUT("/:id", h.CropSow.Update)
	sow.DELETE("/:id", h.CropSow.Delete)

	api.POST("/feed-usage/log", h.Feed.Log)
	api.GET("/feed-usage/list", h.Feed.List)

	accounts := api.Group("/accounts")
	accounts.POST("", h.Ledger.CreateAccount)
	accounts.GET("", h.Ledger.ListAccounts)
	accounts.GET("/:id", h.Ledger.GetAccount)
	accounts.GET("/:id/entries", h.Ledger.Entries)

	crops := api.Group("/crops")
	crops.POST("", h.Crops.Create)
	crops.GET("", h.Crops.List)
	crops.GET("/:id", h.Crops.Get)
	crops.PUT("/:id", h.Crops.Update)
	crops.DELETE("/:id", h.Crops.Delete)

	h.Records.Farmers.Mount(api.Group("/farmers"))
	h.Records.Lands.Mount(api.Group("/lands"))
	h.Records.Varieties.Mount(api.Group("/crop-varieties"))
	h.Records.Suppliers.Mount(api.Group("/suppliers"))
	h.Records.Items.Mount(api.Group("/items"))
	h.Records.Cattle.Mount(api.Group("/cattle"))
	h.Records.ExitEvents.Mount(api.Group("/exit-events"))

	api.GET("/agriculture-dashboard", h.Dashboard.Agriculture)
	dash := api.Group("/crop-dashboard")
	dash.GET("/summary", h.Dashboard.Summary)
	dash.GET("/yield", h.Dashboard.Yield)
	dash.GET("/low-stock", h.Dashboard.LowStock)

	if logger != nil {
		logger.Info("router initialized", zap.Int("routes", len(r.Routes())))
	}

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", status),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if status >= http.StatusInternalServerError {
			logger.Warn("request completed", fields...)
			return
		}
		logger.Info("request completed", fields...)
	}
}
