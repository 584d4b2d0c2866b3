package phrase

import (
	"path/filepath"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/hyi96/taskweb/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.AutoMigrate(&models.InspirationalPhrase{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestDayOrdinal(t *testing.T) {
	// Day 1 is year 1, Jan 1; 2025-03-03 is day 739313 on that calendar.
	if got := dayOrdinal(time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC)); got != 739313 {
		t.Errorf("ordinal(2025-03-03) = %d, want 739313", got)
	}
	if got := dayOrdinal(time.Date(1970, time.January, 1, 0, 0, 0, 0, time.UTC)); got != 719163 {
		t.Errorf("ordinal(1970-01-01) = %d, want 719163", got)
	}

	// Consecutive dates must produce consecutive ordinals, including across
	// month and year boundaries, or the rotation stalls.
	dates := []time.Time{
		time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC),
		time.Date(2025, time.February, 28, 0, 0, 0, 0, time.UTC),
		time.Date(2025, time.December, 31, 0, 0, 0, 0, time.UTC),
	}
	for _, d := range dates {
		if got, want := dayOrdinal(d.AddDate(0, 0, 1)), dayOrdinal(d)+1; got != want {
			t.Errorf("ordinal(%s + 1 day) = %d, want %d", d.Format("2006-01-02"), got, want)
		}
	}
}

func TestDailyPhraseEmptyBankFallsBack(t *testing.T) {
	db := newTestDB(t)
	p, err := DailyPhrase(db, time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("daily phrase: %v", err)
	}
	if p != Fallback {
		t.Errorf("got %+v, want fallback", p)
	}
}

func TestDailyPhraseDeterministicAndRotating(t *testing.T) {
	db := newTestDB(t)
	for i, text := range []string{"First", "Second", "Third"} {
		p := models.InspirationalPhrase{Text: text, Author: "A", IsActive: true, SortOrder: i}
		if err := db.Create(&p).Error; err != nil {
			t.Fatalf("seed phrase: %v", err)
		}
	}
	// Inactive phrases never appear.
	inactive := models.InspirationalPhrase{Text: "Hidden", Author: "A", IsActive: false}
	if err := db.Create(&inactive).Error; err != nil {
		t.Fatalf("seed inactive: %v", err)
	}

	day := time.Date(2025, time.March, 3, 0, 0, 0, 0, time.UTC)

	first, err := DailyPhrase(db, day)
	if err != nil {
		t.Fatalf("daily phrase: %v", err)
	}
	again, err := DailyPhrase(db, day)
	if err != nil {
		t.Fatalf("daily phrase repeat: %v", err)
	}
	if first != again {
		t.Errorf("same day must give the same phrase: %+v vs %+v", first, again)
	}
	if first.Text == "Hidden" {
		t.Error("inactive phrase selected")
	}

	// Three consecutive days cover all three active phrases exactly once.
	seen := map[string]bool{}
	for i := 0; i < 3; i++ {
		p, err := DailyPhrase(db, day.AddDate(0, 0, i))
		if err != nil {
			t.Fatalf("day %d: %v", i, err)
		}
		seen[p.Text] = true
	}
	if len(seen) != 3 {
		t.Errorf("three days covered %d phrases, want 3", len(seen))
	}
}
