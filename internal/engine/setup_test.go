package engine

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/hyi96/taskweb/internal/database"
	"github.com/hyi96/taskweb/internal/models"
)

func newTestEngine(t *testing.T) (*Engine, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return New(db, time.UTC), db
}

func newAccountProfile(t *testing.T, db *gorm.DB, username string, balance string) (*models.Account, *models.Profile) {
	t.Helper()
	account := models.Account{Username: username, PasswordHash: "x"}
	if err := db.Create(&account).Error; err != nil {
		t.Fatalf("create account: %v", err)
	}
	profile := models.Profile{AccountID: account.ID, Name: "Default", GoldBalance: dec(balance)}
	if err := db.Create(&profile).Error; err != nil {
		t.Fatalf("create profile: %v", err)
	}
	return &account, &profile
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// mustCreateTask persists a task with a controlled creation date, which is
// the anchor all period buckets count from.
func mustCreateTask(t *testing.T, db *gorm.DB, task *models.Task, createdAt time.Time) {
	t.Helper()
	task.CreatedAt = createdAt
	if err := task.Validate(); err != nil {
		t.Fatalf("task fixture invalid: %v", err)
	}
	if err := db.Create(task).Error; err != nil {
		t.Fatalf("create task: %v", err)
	}
}

func reloadTask(t *testing.T, db *gorm.DB, id interface{}) *models.Task {
	t.Helper()
	var task models.Task
	if err := db.First(&task, "id = ?", id).Error; err != nil {
		t.Fatalf("reload task: %v", err)
	}
	return &task
}

func reloadProfile(t *testing.T, db *gorm.DB, id interface{}) *models.Profile {
	t.Helper()
	var profile models.Profile
	if err := db.First(&profile, "id = ?", id).Error; err != nil {
		t.Fatalf("reload profile: %v", err)
	}
	return &profile
}

func countLogs(t *testing.T, db *gorm.DB, profileID interface{}) int64 {
	t.Helper()
	var n int64
	if err := db.Model(&models.LogEntry{}).Where("profile_id = ?", profileID).Count(&n).Error; err != nil {
		t.Fatalf("count logs: %v", err)
	}
	return n
}

func at(year int, month time.Month, day, hour int) time.Time {
	return time.Date(year, month, day, hour, 0, 0, 0, time.UTC)
}
