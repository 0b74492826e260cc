package routes

import (
	"coffee-order-bot/handlers"
	"coffee-order-bot/middleware"
	"coffee-order-bot/models"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine) {
	// ── Public routes ──────────────────────────────────────────────
	public := r.Group("/api")
	{
		// Auth
		public.POST("/auth/register", handlers.Register)
		public.POST("/auth/login", handlers.Login)

		// State machine info (great for docs/Postman)
		public.GET("/state-machine", handlers.GetStateMachineInfo)
	}

	// ── Authenticated routes ───────────────────────────────────────
	auth := r.Group("/api")
	auth.Use(middleware.AuthRequired())
	{
		auth.GET("/profile", handlers.GetProfile)
	}

	// ── Barista routes ─────────────────────────────────────────────
	barista := r.Group("/api/orders")
	barista.Use(middleware.AuthRequired(), middleware.RoleRequired(models.RoleBarista, models.RoleAdmin))
	{
		// Polling this endpoint acknowledges the returned orders
		barista.GET("/incoming", handlers.GetIncomingOrders)
		barista.GET("", handlers.ListOrders)
		barista.PUT("/:id/complete", handlers.CompleteOrder)
	}

	// ── Admin routes ───────────────────────────────────────────────
	admin := r.Group("/api/admin")
	admin.Use(middleware.AuthRequired(), middleware.RoleRequired(models.RoleAdmin))
	{
		admin.GET("/products", handlers.ListProducts)
		admin.POST("/products", handlers.CreateProduct)
		admin.PUT("/products/:id", handlers.UpdateProduct)
		admin.DELETE("/products/:id", handlers.DeactivateProduct)
		admin.POST("/translations", handlers.UpsertTranslation)

		// Test console: drive the conversation without a chat transport
		admin.POST("/simulator/update", handlers.SimulateUpdate)
	}
}
