package models

import (
	"time"
)

// Customer is a temporary, table-scoped guest created by a QR scan.
type Customer struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(100);not null" json:"name_customer"`
	TableID   uint      `gorm:"not null;index:idx_customer_table_available" json:"tableId"`
	Table     *Table    `gorm:"foreignKey:TableID;references:ID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"table,omitempty"`
	Available bool      `gorm:"not null;default:true;index:idx_customer_table_available" json:"available"`
	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`
}
