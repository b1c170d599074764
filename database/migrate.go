package database

import (
	"fmt"

	"gorm.io/gorm"

	"vieclam_backend/internal/models"
)

// AutoMigrate выполняет миграцию всех моделей
func AutoMigrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&models.User{},
		&models.ProviderLink{},
		&models.SubscriptionPlan{},
		&models.SubscriptionGrant{},
	)
	if err != nil {
		return fmt.Errorf("automigrate failed: %w", err)
	}
	return nil
}
