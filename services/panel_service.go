package services

import (
	"context"

	"github.com/yeremiapane/restaurant-floor/models"
	"github.com/yeremiapane/restaurant-floor/store"
	"gorm.io/gorm"
)

// PanelService builds the kitchen queue. It only reads.
type PanelService struct {
	store *store.Store
}

func NewPanelService(st *store.Store) *PanelService {
	return &PanelService{store: st}
}

type PanelFilter struct {
	// ActiveOnly drops items whose order is already DELIVERED, CANCELLED or PAID.
	ActiveOnly bool
}

// Panel returns the kitchen items oldest first.
func (s *PanelService) Panel(ctx context.Context, filter PanelFilter) ([]models.ItemView, error) {
	var items []models.OrderItem
	err := s.store.Read(ctx, func(db *gorm.DB) error {
		q := itemsWithRelations(db).Where("order_items.status IN ?", models.ItemStatuses)
		if filter.ActiveOnly {
			q = q.Joins("JOIN orders ON orders.id = order_items.order_id").
				Where("orders.status NOT IN ?", models.ClosedOrderStatuses)
		}
		return q.Order("order_items.created_at ASC, order_items.id ASC").Find(&items).Error
	})
	if err != nil {
		return nil, err
	}
	return projectItems(items), nil
}
