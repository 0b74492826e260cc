package models

import "time"

// OrderStatus represents all possible states of a pickup order
type OrderStatus string

const (
	StatusWaitingForReceipt OrderStatus = "waiting-for-receipt"
	StatusReady             OrderStatus = "ready"
	StatusCompleted         OrderStatus = "completed"
)

type Order struct {
	ID          string      `json:"id" gorm:"primaryKey"` // uuid
	OrderNumber string      `json:"order_number" gorm:"uniqueIndex;not null"`
	CustomerID  uint        `json:"customer_id" gorm:"not null"`
	Customer    Customer    `json:"customer,omitempty" gorm:"foreignKey:CustomerID"`
	Status      OrderStatus `json:"status" gorm:"not null;default:'waiting-for-receipt'"`
	PickupTime  string      `json:"pickup_time" gorm:"not null"` // wall clock "HH:mm"
	TotalPrice  float64     `json:"total_price"`
	Lines       []OrderLine `json:"lines,omitempty" gorm:"foreignKey:OrderID"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// OrderLine is a frozen copy of a cart line at checkout time
type OrderLine struct {
	ID         uint    `json:"id" gorm:"primaryKey"`
	OrderID    string  `json:"order_id" gorm:"not null;index"`
	ProductID  uint    `json:"product_id" gorm:"not null"`
	TitleKey   string  `json:"title_key"` // snapshot of the product title key
	Size       string  `json:"size"`
	UnitPrice  float64 `json:"unit_price" gorm:"not null"` // snapshot size price
	Quantity   int     `json:"quantity" gorm:"not null"`
	AddOns     []AddOn `json:"add_ons" gorm:"serializer:json"`
	TotalPrice float64 `json:"total_price" gorm:"not null"`
}
