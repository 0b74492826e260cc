package config

import (
	"os"

	"coffee-order-bot/models"

	"github.com/glebarez/sqlite"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// JWTSecret used to sign staff tokens — read from env or fallback
var JWTSecret = []byte(GetEnv("JWT_SECRET", "coffee_order_super_secret_2024"))

// OrderNumberPrefix is the short shop code at the front of every order number
var OrderNumberPrefix = GetEnv("ORDER_NUMBER_PREFIX", "DR")

// KitchenURL receives the full order payload when a customer pays
var KitchenURL = GetEnv("KITCHEN_URL", "http://localhost:3000/order")

func GetEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func InitDB() {
	var err error
	DB, err = gorm.Open(sqlite.Open(GetEnv("DB_PATH", "coffee_orders.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		log.Fatal("Failed to connect to database: ", err)
	}

	// Auto-migrate all models
	err = DB.AutoMigrate(
		&models.User{},
		&models.Customer{},
		&models.Product{},
		&models.Translation{},
		&models.Order{},
		&models.OrderLine{},
	)
	if err != nil {
		log.Fatal("Failed to migrate database: ", err)
	}

	log.Println("✅ Database connected and migrated successfully")
}
