package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"marketplace-backend/internal/shared/middleware"
	"marketplace-backend/pkg/container"
)

func SetupRouter(c *container.Container) *gin.Engine {
	router := gin.New()

	// Global middlewares
	router.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.Metrics(),
		middleware.CORS(c.Config.App.CORSOrigins),
	)

	// Asset refs có dạng /uploads/<name>, serve ngoài /api/v1
	router.GET("/uploads/:name", c.AssetHandler.Serve)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthCheckHandler(c))

		setupAuthRoutes(v1, c)
		setupUserRoutes(v1, c)
		setupProductRoutes(v1, c)
	}

	return router
}

// ========================================
// AUTH ROUTES
// ========================================
func setupAuthRoutes(v1 *gin.RouterGroup, c *container.Container) {
	auth := v1.Group("/auth")
	{
		auth.POST("/register", c.UserHandler.Register)
		auth.POST("/login", c.UserHandler.Login)
		auth.GET("/me", middleware.AuthMiddleware(c.Gate), c.UserHandler.Me)
	}
}

// ========================================
// USER ROUTES
// ========================================
func setupUserRoutes(v1 *gin.RouterGroup, c *container.Container) {
	users := v1.Group("/users")
	{
		users.PUT("/profile", middleware.AuthMiddleware(c.Gate), c.UserHandler.UpdateProfile)
		users.GET("/:id", c.UserHandler.GetUser)
	}
}

// ========================================
// PRODUCT ROUTES
// ========================================
func setupProductRoutes(v1 *gin.RouterGroup, c *container.Container) {
	h := c.ProductHandler
	auth := middleware.AuthMiddleware(c.Gate)

	products := v1.Group("/products")
	{
		// Public
		products.GET("", h.ListProducts)
		products.GET("/:id", h.GetProduct)
		products.GET("/user/:userId", h.ListUserProducts)

		// Owner
		products.GET("/user/me", auth, h.ListMyProducts)
		products.GET("/user/me/export", auth, h.ExportMyProducts)
		products.POST("", auth, h.CreateProduct)
		products.PUT("/:id", auth, h.UpdateProduct)
		products.DELETE("/:id", auth, h.DeleteProduct)
		products.GET("/:id/download", auth, h.DownloadProduct)
	}
}

// ========================================
// HEALTH CHECK
// ========================================
func healthCheckHandler(appCtx *container.Container) gin.HandlerFunc {
	return func(c *gin.Context) {
		health := gin.H{
			"status":    "ok",
			"timestamp": time.Now().Format(time.RFC3339),
			"version":   appCtx.Config.App.Version,
		}

		// Check database
		dbStatus := "ok"
		if appCtx.DB == nil || appCtx.DB.Pool == nil {
			dbStatus = "disconnected"
			health["status"] = "degraded"
		} else {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()

			if err := appCtx.DB.HealthCheck(ctx); err != nil {
				dbStatus = fmt.Sprintf("error: %v", err)
				health["status"] = "degraded"
			}
		}

		// Check cache (Redis hoặc in-memory fallback)
		cacheStatus := "ok"
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := appCtx.Cache.Ping(ctx); err != nil {
			cacheStatus = fmt.Sprintf("error: %v", err)
		}

		health["services"] = gin.H{
			"database": dbStatus,
			"cache":    cacheStatus,
			"storage":  appCtx.Config.Storage.Backend,
		}
		if appCtx.DB != nil && appCtx.DB.Pool != nil {
			health["pool"] = appCtx.DB.Stats()
		}

		statusCode := http.StatusOK
		if dbStatus != "ok" {
			statusCode = http.StatusServiceUnavailable
		}

		c.JSON(statusCode, health)
	}
}
