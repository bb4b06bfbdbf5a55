package models

import (
	"time"
)

type OrderItem struct {
	ID       uint       `gorm:"primaryKey" json:"id"`
	OrderID  uint       `gorm:"not null;index" json:"orderId"`
	Order    *Order     `gorm:"foreignKey:OrderID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	DishID   uint       `gorm:"not null;index" json:"dishId"`
	Dish     *Dish      `gorm:"foreignKey:DishID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"dish,omitempty"`
	Quantity int        `gorm:"not null" json:"quantity"`
	Status   ItemStatus `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	Notes    string     `gorm:"type:varchar(255)" json:"notes"`
	// CustomerID together with OrderID points at the OrderCustomer link of the
	// guest who asked for the item.
	CustomerID uint      `gorm:"not null;index" json:"customerId"`
	Customer   *Customer `gorm:"foreignKey:CustomerID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"customer,omitempty"`
	CreatedAt  time.Time `gorm:"not null;index" json:"createdAt"`
	UpdatedAt  time.Time `gorm:"not null" json:"updatedAt"`
}
