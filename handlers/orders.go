package handlers

import (
	"net/http"

	"coffee-order-bot/journey"
	"coffee-order-bot/models"
	"coffee-order-bot/orders"
	"coffee-order-bot/reminders"

	"github.com/gin-gonic/gin"
)

// Wired once at startup
var (
	Orders    *orders.Service
	Reminders *reminders.Scheduler
)

// Init hands the handlers their services
func Init(o *orders.Service, r *reminders.Scheduler, j *journey.Service) {
	Orders = o
	Reminders = r
	Journey = j
}

// GetIncomingOrders returns every order still waiting for its receipt and
// marks each returned order ready — the barista dashboard poll doubles as the
// acknowledgement.
func GetIncomingOrders(c *gin.Context) {
	list, err := Orders.Incoming()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error":   "Error getting orders",
			"message": err.Error(),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"count":   len(list),
		"orders":  list,
	})
}

// ListOrders returns orders filtered by status (no side effects)
func ListOrders(c *gin.Context) {
	status := models.OrderStatus(c.DefaultQuery("status", string(models.StatusReady)))
	switch status {
	case models.StatusWaitingForReceipt, models.StatusReady, models.StatusCompleted:
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status filter"})
		return
	}
	list, err := Orders.ByStatus(status)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error getting orders"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(list), "orders": list})
}

// CompleteOrder is the manual fallback when a customer never taps the
// confirmation button
func CompleteOrder(c *gin.Context) {
	order, err := Orders.Complete(c.Param("id"))
	if err == orders.ErrNotFound {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Error completing order"})
		return
	}
	Reminders.Cancel(order.ID, order.PickupTime)
	c.JSON(http.StatusOK, gin.H{"message": "Order completed", "order": order})
}
