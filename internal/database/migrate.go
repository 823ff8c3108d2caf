package database

import (
	"payflow_backend/internal/logger"
	"payflow_backend/internal/models"

	"gorm.io/gorm"
)

// Migrate выполняет авто-синхронизацию схемы. В production схема
// управляется миграциями деплоя, авто-sync выключен.
func Migrate(db *gorm.DB, env string) error {
	if env == "production" {
		logger.Info("Skipping auto schema sync in production")
		return nil
	}

	// uuid_generate_v4() для default-значений первичных ключей
	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`).Error; err != nil {
		return err
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Transaction{},
	); err != nil {
		return err
	}

	logger.Info("Database schema synchronized")
	return nil
}
