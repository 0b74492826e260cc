package journey

import (
	"strconv"
	"strings"
	"time"

	"coffee-order-bot/cart"
	"coffee-order-bot/models"

	log "github.com/sirupsen/logrus"
)

func runReviewCart(s *Service, ctx *Context) error {
	data := ctx.Update.Data
	switch {
	case data == "back":
		err := s.transition(ctx, func(c *models.Customer) error {
			c.State = models.StateExploreProducts
			return nil
		})
		if err != nil {
			return err
		}
		return s.showProductsMenu(ctx)

	case data == "select_pickup_time":
		if len(ctx.Customer.Cart) == 0 {
			return ctx.Conv.Answer(s.text(ctx, "cart_empty"), true)
		}
		err := s.transition(ctx, func(c *models.Customer) error {
			c.State = models.StateSelectPickupTime
			return nil
		})
		if err != nil {
			return err
		}
		return s.showPickupTimes(ctx)

	case data == "remove_all":
		err := s.transition(ctx, func(c *models.Customer) error {
			c.Cart = []models.CartLine{}
			c.State = models.StateHub
			c.StateDetails = models.StateDetailsNone
			return nil
		})
		if err != nil {
			return err
		}
		return s.showHub(ctx, true)

	case strings.HasPrefix(data, "remove_"):
		idx, err := strconv.Atoi(strings.TrimPrefix(data, "remove_"))
		if err != nil {
			return ctx.Conv.Answer("", false)
		}
		err = s.transition(ctx, func(c *models.Customer) error {
			lines, err := cart.RemoveLine(c.Cart, idx)
			if err != nil {
				return err
			}
			c.Cart = lines
			return nil
		})
		if err != nil {
			return ctx.Conv.Answer("", false)
		}
		return s.showCart(ctx)
	}
	return ctx.Conv.Answer("", false)
}

func runSelectPickupTime(s *Service, ctx *Context) error {
	data := ctx.Update.Data
	switch {
	case data == "refresh_times":
		if err := ctx.Conv.Answer(s.text(ctx, "times_refreshed"), false); err != nil {
			return err
		}
		return s.showPickupTimes(ctx)

	case data == "back":
		err := s.transition(ctx, func(c *models.Customer) error {
			c.State = models.StateReviewCart
			return nil
		})
		if err != nil {
			return err
		}
		return s.showCart(ctx)

	case strings.HasPrefix(data, "pickup_"):
		pickupTime := strings.TrimPrefix(data, "pickup_")
		t, err := time.Parse("15:04", pickupTime)
		if err != nil {
			return ctx.Conv.Answer("", false)
		}
		// A slot can age out while the keyboard sits on screen
		now := time.Now()
		selected := time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), 0, 0, now.Location())
		if selected.Before(now.Truncate(time.Minute)) {
			if err := ctx.Conv.Answer(s.text(ctx, "time_no_longer_available"), true); err != nil {
				return err
			}
			return s.showPickupTimes(ctx)
		}
		err = s.transition(ctx, func(c *models.Customer) error {
			c.State = models.StatePayingForOrder
			c.StateDetails = pickupTime
			return nil
		})
		if err != nil {
			return err
		}
		return s.showPayment(ctx)
	}
	return ctx.Conv.Answer("", false)
}

func runPayingForOrder(s *Service, ctx *Context) error {
	switch ctx.Update.Data {
	case "pay":
		order, err := s.orders.Place(ctx.Customer, ctx.Customer.StateDetails)
		if err != nil {
			log.WithField("chat_id", ctx.Customer.ChatID).Errorf("placing order: %v", err)
			return s.resetToHub(ctx)
		}

		// Populate customer and lines before anything leaves the process
		populated, err := s.orders.ByID(order.ID)
		if err != nil {
			populated = order
		}

		// Kitchen notification is best-effort: the order stands either way
		if err := s.orders.NotifyKitchen(populated); err != nil {
			log.WithField("order_number", order.OrderNumber).Errorf("kitchen notification failed: %v", err)
		}

		res := s.reminders.Schedule(populated)
		if !res.Scheduled {
			log.WithFields(log.Fields{
				"order_number": order.OrderNumber,
				"reason":       res.Reason,
			}).Info("pickup reminder not scheduled")
		}

		err = s.transition(ctx, func(c *models.Customer) error {
			c.State = models.StateWaitingForOrder
			c.StateDetails = order.OrderNumber
			return nil
		})
		if err != nil {
			return err
		}
		return s.showWaitScreen(ctx, order.OrderNumber)

	case "back":
		err := s.transition(ctx, func(c *models.Customer) error {
			c.State = models.StateSelectPickupTime
			c.StateDetails = models.StateDetailsNone
			return nil
		})
		if err != nil {
			return err
		}
		return s.showPickupTimes(ctx)
	}
	return ctx.Conv.Answer("", false)
}

func runWaitingForOrder(s *Service, ctx *Context) error {
	if ctx.Update.Data == "done" {
		err := s.transition(ctx, func(c *models.Customer) error {
			c.Cart = []models.CartLine{}
			c.State = models.StateHub
			c.StateDetails = models.StateDetailsNone
			return nil
		})
		if err != nil {
			return err
		}
		return s.showHub(ctx, true)
	}
	return ctx.Conv.Answer("", false)
}

// runPickupConfirmed handles the reminder's confirmation tap. The whole
// sequence is best-effort: the customer always ends up back at the hub even
// when the order lookup or the message delete fails along the way.
func runPickupConfirmed(s *Service, ctx *Context) error {
	orderID := strings.TrimPrefix(ctx.Update.Data, pickupConfirmedPrefix)

	order, err := s.orders.Complete(orderID)
	if err != nil {
		log.WithField("order_id", orderID).Errorf("completing order: %v", err)
	} else {
		s.reminders.Cancel(order.ID, order.PickupTime)
		log.WithFields(log.Fields{
			"order_number": order.OrderNumber,
			"chat_id":      ctx.Customer.ChatID,
		}).Info("✅ order marked completed by customer")
	}

	// The reminder message may already be gone
	if err := ctx.Conv.Delete(); err != nil {
		log.WithField("chat_id", ctx.Customer.ChatID).Debug("reminder message already deleted")
	}

	err = s.transition(ctx, func(c *models.Customer) error {
		c.Cart = []models.CartLine{}
		c.State = models.StateHub
		c.StateDetails = models.StateDetailsNone
		return nil
	})
	if err != nil {
		log.WithField("chat_id", ctx.Customer.ChatID).Errorf("reset after pickup confirmation: %v", err)
		return nil
	}
	return s.showHub(ctx, false)
}
