package models

import "time"

type Table struct {
	ID             uint        `gorm:"primaryKey" json:"id"`
	Number         int         `gorm:"not null;uniqueIndex" json:"number"`
	Capacity       int         `gorm:"not null" json:"capacity"`
	Status         TableStatus `gorm:"type:varchar(20);not null;default:'AVAILABLE';index" json:"status"`
	IsNotification bool        `gorm:"not null;default:false" json:"isNotification"`
	Deleted        bool        `gorm:"not null;default:false;index" json:"delete"`
	QRCode         string      `gorm:"type:varchar(100);not null;uniqueIndex" json:"qrCode"`
	QRCodeURL      string      `gorm:"type:varchar(255)" json:"qrCodeUrl"`
	Customers      []Customer  `gorm:"foreignKey:TableID" json:"-"`
	CreatedAt      time.Time   `gorm:"not null" json:"createdAt"`
	UpdatedAt      time.Time   `gorm:"not null" json:"updatedAt"`
}
