package models

import "time"

// Dish is the menu catalog entry. The floor engine only reads it.
type Dish struct {
	ID          uint         `gorm:"primaryKey" json:"id"`
	Name        string       `gorm:"type:varchar(255);not null;uniqueIndex" json:"name"`
	Description string       `gorm:"type:text" json:"description"`
	Price       float64      `gorm:"type:decimal(10,2);not null" json:"price"`
	Type        DishType     `gorm:"type:varchar(20);not null" json:"type"`
	Category    DishCategory `gorm:"type:varchar(20);not null" json:"category"`
	IsAvailable bool         `gorm:"not null" json:"isAvailable"`
	ImageURL    string       `gorm:"type:varchar(255)" json:"imageUrl"`
	PrepTime    int          `gorm:"not null" json:"prepTime"`
	CreatedAt   time.Time    `gorm:"not null" json:"createdAt"`
	UpdatedAt   time.Time    `gorm:"not null" json:"updatedAt"`
}
