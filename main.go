package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"coffee-order-bot/config"
	"coffee-order-bot/handlers"
	"coffee-order-bot/journey"
	"coffee-order-bot/localization"
	"coffee-order-bot/orders"
	"coffee-order-bot/reminders"
	"coffee-order-bot/routes"
	"coffee-order-bot/store"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

func main() {
	// .env is optional; real deployments set the environment directly
	if err := godotenv.Load(); err != nil {
		log.Info("no .env file found, using environment as-is")
	}

	// Set Gin mode
	mode := os.Getenv("GIN_MODE")
	if mode == "" {
		gin.SetMode(gin.DebugMode)
	}

	// Initialize database
	config.InitDB()

	// Wire the conversational core. The chat transport is external: it calls
	// journeyService.HandleUpdate with each update and provides the Sender
	// used for pickup reminders.
	customers := store.NewCustomerStore(config.DB)
	loc := localization.New(config.DB)
	orderService := orders.NewService(config.DB, config.OrderNumberPrefix, config.KitchenURL)
	notifier := journey.NewPickupNotifier(transportSender(), loc)
	scheduler := reminders.New(config.DB, notifier)
	journeyService := journey.NewService(config.DB, customers, loc, orderService, scheduler)

	// Rebuild reminder timers lost to the restart, then sweep periodically
	if _, err := scheduler.InitFromStore(); err != nil {
		log.Errorf("failed to initialize pickup reminders: %v", err)
	}
	go scheduler.Run(context.Background(), 10*time.Minute)

	handlers.Init(orderService, scheduler, journeyService)

	// Create Gin router with default middleware (logger + recovery)
	r := gin.Default()

	// CORS middleware for the dashboard frontend
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "Coffee Pickup Order API",
			"version": "1.0.0",
		})
	})

	// Register all routes
	routes.SetupRoutes(r)

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Infof("🚀 Server running on http://localhost:%s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatal("Failed to start server: ", err)
	}
}

// transportSender returns the chat sender when one is configured. Without a
// transport the reminders are logged but not delivered.
func transportSender() journey.Sender {
	return nil
}
