package services

import (
	"sort"

	"github.com/yeremiapane/restaurant-floor/models"
	"gorm.io/gorm"
)

// DishCatalog is the read-only view of the menu used by the order manager.
// Lookups take the caller's handle so they join its transaction.
type DishCatalog interface {
	FindByID(db *gorm.DB, id uint) (*models.Dish, error)
	FindByIDs(db *gorm.DB, ids []uint) (map[uint]models.Dish, error)
}

type GormDishCatalog struct{}

func (GormDishCatalog) FindByID(db *gorm.DB, id uint) (*models.Dish, error) {
	var dish models.Dish
	if err := db.First(&dish, id).Error; err != nil {
		return nil, notFound(err, "dish %d not found", id)
	}
	return &dish, nil
}

func (GormDishCatalog) FindByIDs(db *gorm.DB, ids []uint) (map[uint]models.Dish, error) {
	found := make(map[uint]models.Dish, len(ids))
	if len(ids) == 0 {
		return found, nil
	}

	var dishes []models.Dish
	if err := db.Where("id IN ?", ids).Find(&dishes).Error; err != nil {
		return nil, err
	}
	for _, d := range dishes {
		found[d.ID] = d
	}
	return found, nil
}

// missingIDs returns the ids absent from found, sorted and without duplicates.
func missingIDs(ids []uint, found map[uint]models.Dish) []uint {
	seen := make(map[uint]bool)
	var missing []uint
	for _, id := range ids {
		if _, ok := found[id]; ok || seen[id] {
			continue
		}
		seen[id] = true
		missing = append(missing, id)
	}
	sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })
	return missing
}
