// Package store owns customer persistence and the optimistic save loop.
// Every customer row carries a version token; a save only lands when the row
// still has the version the caller read. Losers reload and re-apply.
package store

import (
	"errors"
	"time"

	"coffee-order-bot/models"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ErrConflict is returned when every save attempt lost the version race
var ErrConflict = errors.New("customer row was modified concurrently")

// maxSaveAttempts bounds the reload-and-retry loop
const maxSaveAttempts = 3

type CustomerStore struct {
	db *gorm.DB
}

func NewCustomerStore(db *gorm.DB) *CustomerStore {
	return &CustomerStore{db: db}
}

// ByChatID loads a customer by chat ID
func (s *CustomerStore) ByChatID(chatID int64) (*models.Customer, error) {
	var c models.Customer
	if err := s.db.Where("chat_id = ?", chatID).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// Exists reports whether a customer row exists for a chat ID
func (s *CustomerStore) Exists(chatID int64) (bool, error) {
	var count int64
	if err := s.db.Model(&models.Customer{}).Where("chat_id = ?", chatID).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// LoadOrCreate returns the customer for a chat ID, creating a fresh-start row
// on first contact.
func (s *CustomerStore) LoadOrCreate(chatID int64) (*models.Customer, error) {
	c, err := s.ByChatID(chatID)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	c = &models.Customer{
		ChatID:       chatID,
		State:        models.StateFreshStart,
		StateDetails: models.StateDetailsNone,
		Cart:         []models.CartLine{},
		LastActionAt: time.Now(),
	}
	if err := s.db.Create(c).Error; err != nil {
		// Lost a creation race with another update for the same chat
		if existing, lookupErr := s.ByChatID(chatID); lookupErr == nil {
			return existing, nil
		}
		return nil, err
	}
	log.WithField("chat_id", chatID).Info("new customer created")
	return c, nil
}

// Save writes the customer back only if nobody else has touched the row since
// it was read. On success the in-memory version is advanced to match.
func (s *CustomerStore) Save(c *models.Customer) error {
	next := c.Version + 1
	res := s.db.Model(&models.Customer{}).
		Where("id = ? AND version = ?", c.ID, c.Version).
		Select("full_name", "phone_number", "preferred_language", "agreed_to_terms",
			"state", "state_details", "cart", "last_action_at", "version", "updated_at").
		Updates(&models.Customer{
			FullName:          c.FullName,
			PhoneNumber:       c.PhoneNumber,
			PreferredLanguage: c.PreferredLanguage,
			AgreedToTerms:     c.AgreedToTerms,
			State:             c.State,
			StateDetails:      c.StateDetails,
			Cart:              c.Cart,
			LastActionAt:      c.LastActionAt,
			Version:           next,
			UpdatedAt:         time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConflict
	}
	c.Version = next
	return nil
}

// UpdateWithRetry loads the freshest row, applies mutate and saves under the
// version check. A conflicting writer triggers a reload and a re-apply of
// mutate against the new row, up to maxSaveAttempts times. Errors from mutate
// and non-conflict save errors propagate immediately.
func (s *CustomerStore) UpdateWithRetry(chatID int64, mutate func(*models.Customer) error) (*models.Customer, error) {
	for attempt := 1; attempt <= maxSaveAttempts; attempt++ {
		c, err := s.ByChatID(chatID)
		if err != nil {
			return nil, err
		}
		if err := mutate(c); err != nil {
			return nil, err
		}
		err = s.Save(c)
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, ErrConflict) {
			return nil, err
		}
		log.WithFields(log.Fields{
			"chat_id": chatID,
			"attempt": attempt,
			"of":      maxSaveAttempts,
		}).Warn("version conflict detected, retrying")
	}
	return nil, ErrConflict
}
