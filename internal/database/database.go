package database

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/geosight/backend/internal/config"
	"github.com/geosight/backend/internal/models"
)

// Connect opens the shared connection pool and prepares the schema.
// Lifecycle: connect, verify, sync schema, serve; torn down at process exit.
func Connect(cfg config.DBConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.Name,
		cfg.SSLMode,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := Prepare(db); err != nil {
		return nil, err
	}

	return db, nil
}

// Prepare migrates the schema and seeds the default roles. It is shared with
// the test harness, which runs against in-memory sqlite.
func Prepare(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.UserRole{},
		&models.User{},
		&models.Sighting{},
		&models.Comment{},
	); err != nil {
		return err
	}

	return seedDefaultRoles(db)
}

func seedDefaultRoles(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.UserRole{}).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		return nil
	}

	for _, role := range models.DefaultRoles() {
		if err := db.Create(&role).Error; err != nil {
			return err
		}
	}

	return nil
}
