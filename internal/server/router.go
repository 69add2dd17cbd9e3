// Package server wires the rule engines and reports into a gin router.
package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewRouter builds the HTTP router with logging, recovery and CORS
// middleware.
func NewRouter(handlers *Handlers, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(loggingMiddleware(logger))
	router.Use(corsMiddleware())

	router.GET("/health", handlers.Health)

	api := router.Group("/api/v1")
	{
		api.POST("/fifo/allocate", handlers.Allocate)
		api.POST("/fifo/allocate-from-stock", handlers.AllocateFromStock)
		api.POST("/movements/validate", handlers.ValidateMovement)
		api.POST("/stock/reconcile", handlers.Reconcile)
		api.GET("/stock/reconciliation", handlers.ReconcileStored)
		api.GET("/summary", handlers.Summary)

		api.GET("/reports/stock", handlers.StockReport)
		api.GET("/reports/expiry", handlers.ExpiryReport)
		api.GET("/reports/reconciliation", handlers.ReconcileReport)
		api.GET("/reports/kardex", handlers.KardexReport)
	}

	return router
}

// loggingMiddleware logs HTTP requests.
func loggingMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
		)
	}
}

// corsMiddleware adds CORS headers.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
