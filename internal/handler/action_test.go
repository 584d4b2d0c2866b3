package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/hyi96/taskweb/internal/database"
	"github.com/hyi96/taskweb/internal/engine"
	"github.com/hyi96/taskweb/internal/models"
)

func newHandlerTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestHabitIncrementReportsPostActionBalance(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db := newHandlerTestDB(t)

	account := models.Account{Username: "handleruser", PasswordHash: "x"}
	if err := db.Create(&account).Error; err != nil {
		t.Fatal(err)
	}
	profile := models.Profile{AccountID: account.ID, Name: "Default", GoldBalance: decimal.NewFromInt(10)}
	if err := db.Create(&profile).Error; err != nil {
		t.Fatal(err)
	}
	task := models.Task{
		ProfileID: profile.ID,
		Type:      models.TaskHabit,
		Title:     "Pushups",
		GoldDelta: decimal.RequireFromString("2.00"),
		Habit:     models.HabitFields{CountIncrement: decimal.RequireFromString("1.50")},
	}
	task.CreatedAt = time.Now().AddDate(0, 0, -1)
	if err := db.Create(&task).Error; err != nil {
		t.Fatal(err)
	}

	h := NewActionHandler(db, engine.New(db, time.UTC))
	r := gin.New()
	r.POST("/tasks/:id/increment", func(c *gin.Context) {
		c.Set("currentAccount", &account)
		h.HabitIncrement(c)
	})

	req := httptest.NewRequest(http.MethodPost,
		"/tasks/"+task.ID.String()+"/increment?profile_id="+profile.ID.String(),
		strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var body struct {
		Code int `json:"code"`
		Data struct {
			GoldBalance string `json:"gold_balance"`
			Task        struct {
				Habit struct {
					CurrentCount string `json:"current_count"`
				} `json:"habit"`
			} `json:"task"`
		} `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	// The balance in the response must be the one the action produced, not
	// the balance read before the transaction.
	if body.Data.GoldBalance != "12.00" {
		t.Errorf("gold_balance = %s, want 12.00", body.Data.GoldBalance)
	}
	if body.Data.Task.Habit.CurrentCount != "1.50" {
		t.Errorf("current_count = %s, want 1.50", body.Data.Task.Habit.CurrentCount)
	}
}
