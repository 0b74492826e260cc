// Package reminders schedules in-process pickup reminders. The registry lives
// on the Scheduler value, not in package state, so tests and embedders run
// isolated instances. Timers do not survive a restart; InitFromStore rebuilds
// them from open orders on boot.
package reminders

import (
	"context"
	"fmt"
	"sync"
	"time"

	"coffee-order-bot/models"
	"coffee-order-bot/recovery"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Offset is how long before the pickup time the reminder fires
const Offset = 6 * time.Minute

// Notifier delivers the reminder to the customer. Delivery failure is logged
// and swallowed; a reminder is best-effort by definition.
type Notifier interface {
	NotifyPickup(order *models.Order) error
}

// Result reports whether a reminder was scheduled, and why not when declined.
// Declining is a normal outcome, not an error.
type Result struct {
	Scheduled  bool
	Reason     string // "missing_data", "invalid_time_format", "time_in_past"
	ReminderAt time.Time
}

type entry struct {
	orderID     string
	orderNumber string
	pickupTime  string
	reminderAt  time.Time
	timer       *time.Timer
}

type Scheduler struct {
	db       *gorm.DB
	notifier Notifier
	now      func() time.Time

	mu      sync.Mutex
	entries map[string]*entry
}

func New(db *gorm.DB, notifier Notifier) *Scheduler {
	return &Scheduler{
		db:       db,
		notifier: notifier,
		now:      time.Now,
		entries:  make(map[string]*entry),
	}
}

func key(orderID, pickupTime string) string {
	return orderID + "_" + pickupTime
}

// reminderAt anchors the "HH:mm" pickup time to today's wall clock and backs
// off by Offset.
func reminderAt(now time.Time, pickupTime string) (time.Time, error) {
	t, err := time.Parse("15:04", pickupTime)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid pickup time %q: %w", pickupTime, err)
	}
	pickup := time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), 0, 0, now.Location())
	return pickup.Add(-Offset), nil
}

// Schedule registers a reminder for an order. Orders without a pickup time,
// with an unparseable time, or whose reminder moment already passed are
// declined.
func (s *Scheduler) Schedule(order *models.Order) Result {
	if order.PickupTime == "" || order.CustomerID == 0 {
		log.WithField("order_number", order.OrderNumber).Warn("no pickup time or customer on order, reminder skipped")
		return Result{Reason: "missing_data"}
	}

	now := s.now()
	at, err := reminderAt(now, order.PickupTime)
	if err != nil {
		log.WithField("order_number", order.OrderNumber).Warnf("reminder skipped: %v", err)
		return Result{Reason: "invalid_time_format"}
	}
	if at.Before(now) {
		log.WithField("order_number", order.OrderNumber).Info("reminder moment already passed, skipped")
		return Result{Reason: "time_in_past"}
	}

	k := key(order.ID, order.PickupTime)
	e := &entry{
		orderID:     order.ID,
		orderNumber: order.OrderNumber,
		pickupTime:  order.PickupTime,
		reminderAt:  at,
	}

	s.mu.Lock()
	if old, ok := s.entries[k]; ok && old.timer != nil {
		old.timer.Stop()
	}
	e.timer = time.AfterFunc(at.Sub(now), func() { s.fire(k, order.ID) })
	s.entries[k] = e
	s.mu.Unlock()

	log.WithFields(log.Fields{
		"order_number": order.OrderNumber,
		"reminder_at":  at.Format("15:04"),
	}).Info("📅 pickup reminder scheduled")
	return Result{Scheduled: true, ReminderAt: at}
}

// fire re-reads the order before notifying: a completed or vanished order gets
// no reminder.
func (s *Scheduler) fire(k, orderID string) {
	defer func() {
		s.mu.Lock()
		delete(s.entries, k)
		s.mu.Unlock()
	}()

	var order models.Order
	err := s.db.Preload("Customer").Preload("Lines").First(&order, "id = ?", orderID).Error
	if err != nil {
		log.WithField("order_id", orderID).Warnf("order not found for reminder: %v", err)
		return
	}
	if order.Status == models.StatusCompleted {
		log.WithField("order_number", order.OrderNumber).Info("order already completed, reminder skipped")
		return
	}

	err = recovery.ExecuteWithRetry(recovery.KindNotify, "pickup_reminder", func() error {
		return s.notifier.NotifyPickup(&order)
	})
	if err != nil {
		log.WithField("order_number", order.OrderNumber).Errorf("failed to send pickup reminder: %v", err)
		return
	}
	log.WithField("order_number", order.OrderNumber).Info("✅ pickup reminder sent")
}

// Cancel is advisory: it removes the registry entry and stops the timer when
// one is still pending. Cancelling an unknown reminder is a no-op.
func (s *Scheduler) Cancel(orderID, pickupTime string) {
	k := key(orderID, pickupTime)
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[k]; ok {
		if e.timer != nil {
			e.timer.Stop()
		}
		delete(s.entries, k)
		log.WithField("order_id", orderID).Info("❌ pickup reminder cancelled")
	}
}

// Active returns a snapshot of pending reminders (dashboard/debugging)
func (s *Scheduler) Active() []Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Result, 0, len(s.entries))
	for _, e := range s.entries {
		out = append(out, Result{Scheduled: true, ReminderAt: e.reminderAt})
	}
	return out
}

// InitFromStore rebuilds timers after a restart from orders still in flight.
// Rows with a blank order number are legacy data and are skipped. Returns how
// many reminders were scheduled.
func (s *Scheduler) InitFromStore() (int, error) {
	var open []models.Order
	err := s.db.
		Where("status IN ?", []models.OrderStatus{models.StatusWaitingForReceipt, models.StatusReady}).
		Where("pickup_time <> ''").
		Find(&open).Error
	if err != nil {
		return 0, err
	}

	scheduled := 0
	for i := range open {
		if open[i].OrderNumber == "" {
			log.WithField("order_id", open[i].ID).Warn("⚠️ skipping order without proper order number")
			continue
		}
		if s.Schedule(&open[i]).Scheduled {
			scheduled++
		}
	}
	log.Infof("✅ pickup reminder system initialized, scheduled %d reminders", scheduled)
	return scheduled, nil
}

// Sweep drops registry entries whose reminder moment has passed. Fired timers
// clean up after themselves; this catches entries whose timers were lost.
func (s *Scheduler) Sweep() int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	cleaned := 0
	for k, e := range s.entries {
		if e.reminderAt.Before(now) {
			if e.timer != nil {
				e.timer.Stop()
			}
			delete(s.entries, k)
			cleaned++
		}
	}
	if cleaned > 0 {
		log.Infof("🧹 cleaned up %d stale reminders", cleaned)
	}
	return cleaned
}

// Run sweeps periodically until ctx is done
func (s *Scheduler) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}
