package routes

import (
	"billing-dashboard-api/internal/handlers"
	"billing-dashboard-api/internal/middleware"

	"github.com/gin-gonic/gin"
)

// SetupRoutes wires the public and protected routes. The dashboard handler
// carries the injected cache and Zoho client.
func SetupRoutes(dashboard *handlers.DashboardHandler) *gin.Engine {
	// Create a new GIN Router
	ginRouter := gin.Default()

	// CORS middleware (for frontend integration)
	ginRouter.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204) // This depends on the implementation of the frontend
			return
		}

		c.Next()
	})

	// Health check endpoint
	ginRouter.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"message": "Billing Dashboard API is running in Health Check Endpoint",
		})
	})

	// Public routes (no authentication required)
	api := ginRouter.Group("/api")
	{
		// Login endpoint
		api.POST("/login", handlers.Login)
	}

	// Protected routes (authentication required)
	protectedRoutes := api.Group("")
	protectedRoutes.Use(middleware.JWTAuthMiddleware())
	{
		// Zoho-backed billing tables
		protectedRoutes.GET("/projects", dashboard.GetProjects)
		protectedRoutes.GET("/invoices", dashboard.GetInvoices)
		protectedRoutes.GET("/zoho/status", dashboard.ZohoStatus)
		// Overlay endpoints
		protectedRoutes.GET("/projects/:id/meta", handlers.GetProjectMeta)
		protectedRoutes.PUT("/projects/:id/meta", handlers.UpdateProjectMeta)
		protectedRoutes.GET("/projects/:id/projections", handlers.GetProjections)
		protectedRoutes.PUT("/projects/:id/projections", handlers.UpdateProjections)
		// Local-storage migration endpoint
		protectedRoutes.POST("/migrate", handlers.MigrateLocalData)
		// Cache diagnostics
		protectedRoutes.GET("/cache/stats", dashboard.CacheStats)
		protectedRoutes.DELETE("/cache", dashboard.ClearCache)
		protectedRoutes.DELETE("/cache/:key", dashboard.DeleteCacheKey)
		// Users endpoint
		protectedRoutes.GET("/users", handlers.GetAllUsers)
		// Realtime overlay-change events
		protectedRoutes.GET("/ws", handlers.WebSocketHandler)
	}

	return ginRouter
}
