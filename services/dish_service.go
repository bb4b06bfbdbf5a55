package services

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/yeremiapane/restaurant-floor/models"
	"github.com/yeremiapane/restaurant-floor/store"
	"github.com/yeremiapane/restaurant-floor/utils"
	"gorm.io/gorm"
)

// DishService manages the menu catalog the floor reads from.
type DishService struct {
	store   *store.Store
	catalog DishCatalog
}

func NewDishService(st *store.Store, catalog DishCatalog) *DishService {
	if catalog == nil {
		catalog = GormDishCatalog{}
	}
	return &DishService{store: st, catalog: catalog}
}

type DishInput struct {
	Name        string
	Description string
	Price       float64
	Type        string
	Category    string
	IsAvailable *bool
	ImageURL    string
	PrepTime    int
}

type DishPatch struct {
	Name        *string
	Description *string
	Price       *float64
	Type        *string
	Category    *string
	IsAvailable *bool
	ImageURL    *string
	PrepTime    *int
}

func (in DishInput) toModel() (*models.Dish, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, utils.ErrValidation("name is required")
	}
	if in.Price <= 0 {
		return nil, utils.ErrValidation("price must be greater than zero")
	}
	if in.PrepTime <= 0 {
		return nil, utils.ErrValidation("prepTime must be a positive number of minutes")
	}
	dishType, err := models.ParseDishType(in.Type)
	if err != nil {
		return nil, err
	}
	category, err := models.ParseDishCategory(in.Category)
	if err != nil {
		return nil, err
	}

	available := true
	if in.IsAvailable != nil {
		available = *in.IsAvailable
	}
	return &models.Dish{
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		Price:       in.Price,
		Type:        dishType,
		Category:    category,
		IsAvailable: available,
		ImageURL:    strings.TrimSpace(in.ImageURL),
		PrepTime:    in.PrepTime,
	}, nil
}

// updates validates the patch as a whole and returns the column map.
func (p DishPatch) updates() (map[string]interface{}, error) {
	u := map[string]interface{}{}
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return nil, utils.ErrValidation("name cannot be empty")
		}
		u["name"] = name
	}
	if p.Description != nil {
		u["description"] = strings.TrimSpace(*p.Description)
	}
	if p.Price != nil {
		if *p.Price <= 0 {
			return nil, utils.ErrValidation("price must be greater than zero")
		}
		u["price"] = *p.Price
	}
	if p.Type != nil {
		t, err := models.ParseDishType(*p.Type)
		if err != nil {
			return nil, err
		}
		u["type"] = t
	}
	if p.Category != nil {
		c, err := models.ParseDishCategory(*p.Category)
		if err != nil {
			return nil, err
		}
		u["category"] = c
	}
	if p.IsAvailable != nil {
		u["is_available"] = *p.IsAvailable
	}
	if p.ImageURL != nil {
		u["image_url"] = strings.TrimSpace(*p.ImageURL)
	}
	if p.PrepTime != nil {
		if *p.PrepTime <= 0 {
			return nil, utils.ErrValidation("prepTime must be a positive number of minutes")
		}
		u["prep_time"] = *p.PrepTime
	}
	if len(u) == 0 {
		return nil, utils.ErrValidation("at least one field must be provided")
	}
	return u, nil
}

func (s *DishService) List(ctx context.Context) ([]models.Dish, error) {
	dishes := []models.Dish{}
	err := s.store.Read(ctx, func(db *gorm.DB) error {
		return db.Order("name ASC").Find(&dishes).Error
	})
	return dishes, err
}

func (s *DishService) Get(ctx context.Context, id uint) (*models.Dish, error) {
	var dish *models.Dish
	err := s.store.Read(ctx, func(db *gorm.DB) error {
		var err error
		dish, err = s.catalog.FindByID(db, id)
		return err
	})
	return dish, err
}

func (s *DishService) Create(ctx context.Context, in DishInput) (*models.Dish, error) {
	dish, err := in.toModel()
	if err != nil {
		return nil, err
	}

	err = s.store.WithTransaction(ctx, func(tx *gorm.DB) error {
		if err := ensureDishNameFree(tx, dish.Name, 0); err != nil {
			return err
		}
		dish.ID = 0
		return tx.Create(dish).Error
	})
	if err != nil {
		return nil, err
	}

	utils.InfoLogger.WithFields(logrus.Fields{"dish_id": dish.ID, "name": dish.Name}).Info("dish created")
	return dish, nil
}

func (s *DishService) Update(ctx context.Context, id uint, patch DishPatch) (*models.Dish, error) {
	updates, err := patch.updates()
	if err != nil {
		return nil, err
	}

	var dish *models.Dish
	err = s.store.WithTransaction(ctx, func(tx *gorm.DB) error {
		current, err := s.catalog.FindByID(tx, id)
		if err != nil {
			return err
		}
		if name, ok := updates["name"].(string); ok {
			if err := ensureDishNameFree(tx, name, id); err != nil {
				return err
			}
		}
		if err := tx.Model(&models.Dish{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return err
		}
		dish, err = s.catalog.FindByID(tx, current.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return dish, nil
}

// Delete removes a dish no order item refers to. Dishes of past orders stay so
// their history keeps its prices; mark them unavailable instead.
func (s *DishService) Delete(ctx context.Context, id uint) error {
	err := s.store.WithTransaction(ctx, func(tx *gorm.DB) error {
		if _, err := s.catalog.FindByID(tx, id); err != nil {
			return err
		}

		var active int64
		err := tx.Model(&models.OrderItem{}).
			Joins("JOIN orders ON orders.id = order_items.order_id").
			Where("order_items.dish_id = ? AND orders.status NOT IN ?", id, models.ClosedOrderStatuses).
			Count(&active).Error
		if err != nil {
			return err
		}
		if active > 0 {
			return utils.ErrConflict("dish %d is part of %d items of active orders", id, active)
		}

		var referenced int64
		if err := tx.Model(&models.OrderItem{}).Where("dish_id = ?", id).Count(&referenced).Error; err != nil {
			return err
		}
		if referenced > 0 {
			return utils.ErrConflict("dish %d belongs to past orders, mark it unavailable instead", id)
		}

		return tx.Delete(&models.Dish{}, id).Error
	})
	if err != nil {
		return err
	}

	utils.InfoLogger.WithField("dish_id", id).Info("dish deleted")
	return nil
}

func ensureDishNameFree(db *gorm.DB, name string, exceptID uint) error {
	var n int64
	q := db.Model(&models.Dish{}).Where("LOWER(name) = ?", strings.ToLower(name))
	if exceptID != 0 {
		q = q.Where("id <> ?", exceptID)
	}
	if err := q.Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return utils.ErrConflict("a dish named %q already exists", name)
	}
	return nil
}
