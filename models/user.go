package models

import (
	"time"
)

// UserRole defines allowed staff roles in the system
type UserRole string

const (
	RoleBarista UserRole = "barista"
	RoleAdmin   UserRole = "admin"
)

// User is a staff account for the dashboard API, not a chat customer
type User struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Name         string    `json:"name" gorm:"not null"`
	Email        string    `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"not null"`
	Role         UserRole  `json:"role" gorm:"not null;default:'barista'"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
