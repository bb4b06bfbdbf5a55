package database

import (
	"errors"
	"strings"

	"github.com/yeremiapane/restaurant-floor/models"
	"github.com/yeremiapane/restaurant-floor/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Models lists every record kind in migration order.
var Models = []interface{}{
	&models.User{},
	&models.Table{},
	&models.Customer{},
	&models.Dish{},
	&models.Order{},
	&models.OrderCustomer{},
	&models.OrderItem{},
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models...); err != nil {
		return err
	}
	utils.InfoLogger.Println("AutoMigrate completed.")
	return nil
}

// SeedAdmin creates the first admin account when none exists yet.
func SeedAdmin(db *gorm.DB, email, password string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		utils.InfoLogger.Debug("ADMIN_EMAIL/ADMIN_PASSWORD not set, skipping admin seed")
		return nil
	}

	var existing models.User
	err := db.Where("role = ?", models.RoleAdmin).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := models.User{
		Name:     "Administrator",
		Email:    email,
		Password: string(hashed),
		Role:     models.RoleAdmin,
	}
	if err := db.Create(&admin).Error; err != nil {
		return err
	}

	utils.InfoLogger.WithField("email", email).Info("admin account seeded")
	return nil
}
