// Package orders owns the order lifecycle: creation at checkout, the
// read-advances handoff to the barista dashboard, and completion at pickup.
package orders

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"coffee-order-bot/models"
	"coffee-order-bot/recovery"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

var (
	ErrEmptyCart = errors.New("cannot place an order with an empty cart")
	ErrNotFound  = errors.New("order not found")
)

type Service struct {
	db         *gorm.DB
	prefix     string
	kitchenURL string
	client     *http.Client
	now        func() time.Time
}

func NewService(db *gorm.DB, prefix, kitchenURL string) *Service {
	return &Service{
		db:         db,
		prefix:     prefix,
		kitchenURL: kitchenURL,
		client:     &http.Client{Timeout: 10 * time.Second},
		now:        time.Now,
	}
}

// Place freezes the customer's cart into an order awaiting its receipt.
// Number generation and the insert share one transaction; the unique index on
// order_number turns the residual same-day race into a loud failure instead of
// a silent duplicate.
func (s *Service) Place(c *models.Customer, pickupTime string) (*models.Order, error) {
	if len(c.Cart) == 0 {
		return nil, ErrEmptyCart
	}

	titles, err := s.titleKeys(c.Cart)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		ID:         uuid.NewString(),
		CustomerID: c.ID,
		Status:     models.StatusWaitingForReceipt,
		PickupTime: pickupTime,
	}
	for _, line := range c.Cart {
		ol := models.OrderLine{
			OrderID:    order.ID,
			ProductID:  line.ProductID,
			TitleKey:   titles[line.ProductID],
			Size:       line.SizeOption.Size,
			UnitPrice:  line.SizeOption.Price,
			Quantity:   line.Quantity,
			AddOns:     line.AddOns,
			TotalPrice: line.TotalPrice,
		}
		order.TotalPrice += ol.TotalPrice
		order.Lines = append(order.Lines, ol)
	}

	// The whole transaction retries under the database budget; a lost
	// order_number race regenerates the number on the next attempt.
	err = recovery.ExecuteWithRetry(recovery.KindDatabase, "order_create", func() error {
		return s.db.Transaction(func(tx *gorm.DB) error {
			number, err := s.nextOrderNumber(tx)
			if err != nil {
				return err
			}
			order.OrderNumber = number
			return tx.Create(order).Error
		})
	})
	if err != nil {
		return nil, err
	}

	log.WithFields(log.Fields{
		"order_number": order.OrderNumber,
		"customer_id":  c.ID,
		"pickup_time":  pickupTime,
		"total":        order.TotalPrice,
	}).Info("order placed")
	return order, nil
}

func (s *Service) titleKeys(lines []models.CartLine) (map[uint]string, error) {
	ids := make([]uint, 0, len(lines))
	for _, l := range lines {
		ids = append(ids, l.ProductID)
	}
	var products []models.Product
	if err := s.db.Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, err
	}
	titles := make(map[uint]string, len(products))
	for _, p := range products {
		titles[p.ID] = p.TitleKey
	}
	return titles, nil
}

// nextOrderNumber builds <prefix>-YYYYMMDD-NNN where NNN restarts at 001
// every day.
func (s *Service) nextOrderNumber(tx *gorm.DB) (string, error) {
	now := s.now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	endOfDay := startOfDay.AddDate(0, 0, 1)

	var todayCount int64
	err := tx.Model(&models.Order{}).
		Where("created_at >= ? AND created_at < ?", startOfDay, endOfDay).
		Count(&todayCount).Error
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%s-%03d", s.prefix, now.Format("20060102"), todayCount+1), nil
}

// ByID loads an order with customer and line snapshots
func (s *Service) ByID(id string) (*models.Order, error) {
	var order models.Order
	err := s.db.Preload("Customer").Preload("Lines").First(&order, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ByStatus lists orders in a given status, newest first
func (s *Service) ByStatus(status models.OrderStatus) ([]models.Order, error) {
	var list []models.Order
	err := s.db.Preload("Customer").Preload("Lines").
		Where("status = ?", status).
		Order("created_at DESC").
		Find(&list).Error
	return list, err
}

// Incoming returns every order still waiting for its receipt and marks each
// returned order ready: the barista poll IS the acknowledgement.
func (s *Service) Incoming() ([]models.Order, error) {
	var list []models.Order
	err := s.db.Preload("Customer").Preload("Lines").
		Where("status = ?", models.StatusWaitingForReceipt).
		Order("created_at ASC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	for i := range list {
		err := s.db.Model(&models.Order{}).
			Where("id = ?", list[i].ID).
			Update("status", models.StatusReady).Error
		if err != nil {
			return nil, err
		}
	}
	return list, nil
}

// Complete marks an order picked up. Completing an already-completed order is
// a no-op, not an error: confirmation taps can arrive more than once.
func (s *Service) Complete(id string) (*models.Order, error) {
	order, err := s.ByID(id)
	if err != nil {
		return nil, err
	}
	if order.Status == models.StatusCompleted {
		return order, nil
	}
	err = s.db.Model(&models.Order{}).
		Where("id = ?", id).
		Update("status", models.StatusCompleted).Error
	if err != nil {
		return nil, err
	}
	order.Status = models.StatusCompleted
	log.WithField("order_number", order.OrderNumber).Info("order completed")
	return order, nil
}

// NotifyKitchen posts the full order payload to the receipt printer endpoint.
// Failure is the caller's to log, never to roll back: the order stands.
func (s *Service) NotifyKitchen(order *models.Order) error {
	payload, err := json.Marshal(order)
	if err != nil {
		return err
	}
	return recovery.ExecuteWithRetry(recovery.KindAPI, "kitchen_notification", func() error {
		resp, err := s.client.Post(s.kitchenURL, "application/json", bytes.NewReader(payload))
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return fmt.Errorf("kitchen endpoint returned HTTP %d", resp.StatusCode)
		}
		return nil
	})
}
