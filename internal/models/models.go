package models

import (
	"time"
)

type Product struct {
	ID          string    `gorm:"primaryKey"                json:"id"`
	Name        string    `gorm:"not null;index"            json:"name"`
	Description string    `gorm:"not null"                  json:"description"`
	Price       float64   `gorm:"not null"                  json:"price"`
	Category    string    `gorm:"not null;index"            json:"category"`
	ImageURL    string    `json:"image_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type User struct {
	ID           string    `gorm:"primaryKey"               json:"id"`
	Username     string    `gorm:"unique;not null"          json:"username"`
	PasswordHash string    `gorm:"not null"                 json:"-"`
	Role         string    `gorm:"not null;default:user"    json:"role"`
	Favorites    []Product `gorm:"many2many:user_favorite_products" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
