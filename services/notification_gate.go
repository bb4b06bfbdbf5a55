package services

import (
	"github.com/yeremiapane/restaurant-floor/models"
	"gorm.io/gorm"
)

// NotificationGate owns the per-table "order ready" latch. CheckTable trips it
// and PayCheck clears it; nothing else writes is_notification.
type NotificationGate struct{}

// Trip sets the latch and reports whether this call flipped it. The guarded
// update keeps concurrent checks from both claiming the flip.
func (NotificationGate) Trip(tx *gorm.DB, table *models.Table) (bool, error) {
	res := tx.Model(&models.Table{}).
		Where("id = ? AND is_notification = ?", table.ID, false).
		Update("is_notification", true)
	if res.Error != nil {
		return false, res.Error
	}
	table.IsNotification = true
	return res.RowsAffected == 1, nil
}

func (NotificationGate) Clear(tx *gorm.DB, table *models.Table) error {
	if err := tx.Model(&models.Table{}).Where("id = ?", table.ID).Update("is_notification", false).Error; err != nil {
		return err
	}
	table.IsNotification = false
	return nil
}
