// Package localization resolves message keys into customer-facing strings.
// The journey only ever speaks in keys; the transport decides how to render.
package localization

import (
	"coffee-order-bot/models"

	"gorm.io/gorm"
)

const DefaultLanguage = "en"

// SupportedLanguages in button order
var SupportedLanguages = []string{"en", "ru", "uz"}

type Localizer struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Localizer {
	return &Localizer{db: db}
}

// Lookup returns the translation of key for lang, falling back to English and
// finally to the key itself so a missing row never blanks a message.
func (l *Localizer) Lookup(key, lang string) string {
	var t models.Translation
	if err := l.db.Where("key = ?", key).First(&t).Error; err != nil {
		return key
	}
	if s := pick(&t, lang); s != "" {
		return s
	}
	if s := pick(&t, DefaultLanguage); s != "" {
		return s
	}
	return key
}

// ForCustomer resolves a key in the customer's preferred language
func (l *Localizer) ForCustomer(c *models.Customer, key string) string {
	lang := c.PreferredLanguage
	if lang == "" {
		lang = DefaultLanguage
	}
	return l.Lookup(key, lang)
}

func pick(t *models.Translation, lang string) string {
	switch lang {
	case "en":
		return t.En
	case "ru":
		return t.Ru
	case "uz":
		return t.Uz
	}
	return ""
}

// IsSupported reports whether lang is one of the offered languages
func IsSupported(lang string) bool {
	for _, l := range SupportedLanguages {
		if l == lang {
			return true
		}
	}
	return false
}
