package journey

import (
	"fmt"

	"coffee-order-bot/localization"
	"coffee-order-bot/models"

	log "github.com/sirupsen/logrus"
)

// PickupNotifier turns a due reminder into a customer message carrying the
// order summary and the confirmation button. It satisfies reminders.Notifier.
type PickupNotifier struct {
	sender Sender
	loc    *localization.Localizer
}

func NewPickupNotifier(sender Sender, loc *localization.Localizer) *PickupNotifier {
	return &PickupNotifier{sender: sender, loc: loc}
}

func (n *PickupNotifier) NotifyPickup(order *models.Order) error {
	if n.sender == nil {
		// No transport wired (tests, dry runs): the reminder is logged only
		log.WithField("order_number", order.OrderNumber).Warn("no sender configured, pickup reminder not delivered")
		return nil
	}
	c := &order.Customer
	if c.ChatID == 0 {
		log.WithField("order_number", order.OrderNumber).Warn("order has no customer chat, reminder skipped")
		return nil
	}

	text := fmt.Sprintf("%s\n\n%s: %s\n%s: %s",
		n.loc.ForCustomer(c, "pickup_reminder"),
		n.loc.ForCustomer(c, "label_order_number"), order.OrderNumber,
		n.loc.ForCustomer(c, "label_pickup_time"), order.PickupTime)
	for _, line := range order.Lines {
		text += fmt.Sprintf("\n• %s (%s) x%d — %.0f",
			n.loc.ForCustomer(c, line.TitleKey), line.Size, line.Quantity, line.TotalPrice)
	}
	text += fmt.Sprintf("\n\n%s: %.0f", n.loc.ForCustomer(c, "label_total"), order.TotalPrice)

	keyboard := [][]Button{{{
		Text: n.loc.ForCustomer(c, "btn_picked_up"),
		Data: pickupConfirmedPrefix + order.ID,
	}}}
	return n.sender.Send(c.ChatID, text, keyboard)
}
