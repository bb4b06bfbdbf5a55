package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Order struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	Code      string          `gorm:"type:varchar(64);not null;uniqueIndex" json:"code"`
	Status    OrderStatus     `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	Total     float64         `gorm:"type:decimal(10,2);not null;default:0.00" json:"total"`
	TableID   uint            `gorm:"not null;index" json:"tableId"`
	Table     *Table          `gorm:"foreignKey:TableID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"table,omitempty"`
	Customers []OrderCustomer `gorm:"foreignKey:OrderID" json:"customers,omitempty"`
	Items     []OrderItem     `gorm:"foreignKey:OrderID" json:"items,omitempty"`
	CreatedAt time.Time       `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time       `gorm:"not null" json:"updatedAt"`
}

// OrderCustomer links the customers that take part in an order.
type OrderCustomer struct {
	OrderID    uint      `gorm:"primaryKey" json:"orderId"`
	CustomerID uint      `gorm:"primaryKey" json:"customerId"`
	Customer   *Customer `gorm:"foreignKey:CustomerID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"customer,omitempty"`
	CreatedAt  time.Time `gorm:"not null" json:"createdAt"`
}

// GenerateOrderCode returns a code that stays unique under concurrent creation.
func GenerateOrderCode(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("ORD-%d-%s", now.UnixMilli(), suffix)
}
