package database

import (
	"fmt"

	"github.com/hyi96/taskweb/internal/models"

	"gorm.io/gorm"
)

// AutoMigrate runs database schema migrations for all models.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Account{},
		&models.Profile{},
		&models.Tag{},
		&models.Task{},
		&models.ChecklistItem{},
		&models.StreakBonusRule{},
		&models.LogEntry{},
		&models.InspirationalPhrase{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}
