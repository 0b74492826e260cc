package localization

import (
	"testing"

	"coffee-order-bot/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestLocalizer(t *testing.T) *Localizer {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Translation{}))

	rows := []models.Translation{
		{Key: "hub_welcome", En: "Welcome!", Ru: "Добро пожаловать!", Uz: "Xush kelibsiz!"},
		{Key: "btn_back", En: "Back"}, // ru/uz never translated
	}
	require.NoError(t, db.Create(&rows).Error)
	return New(db)
}

func TestLookupPreferredLanguage(t *testing.T) {
	l := setupTestLocalizer(t)
	assert.Equal(t, "Добро пожаловать!", l.Lookup("hub_welcome", "ru"))
	assert.Equal(t, "Xush kelibsiz!", l.Lookup("hub_welcome", "uz"))
}

func TestLookupFallsBackToEnglish(t *testing.T) {
	l := setupTestLocalizer(t)
	assert.Equal(t, "Back", l.Lookup("btn_back", "ru"))
}

func TestLookupFallsBackToKey(t *testing.T) {
	l := setupTestLocalizer(t)
	assert.Equal(t, "no_such_key", l.Lookup("no_such_key", "en"))
}

func TestForCustomerDefaultsBeforeLanguageChosen(t *testing.T) {
	l := setupTestLocalizer(t)
	c := &models.Customer{ChatID: 1}
	assert.Equal(t, "Welcome!", l.ForCustomer(c, "hub_welcome"))
}

func TestIsSupported(t *testing.T) {
	for _, lang := range SupportedLanguages {
		assert.True(t, IsSupported(lang))
	}
	assert.False(t, IsSupported("fr"))
}
