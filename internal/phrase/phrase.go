// Package phrase serves the deterministic phrase of the day: the active
// phrase bank indexed by the date's ordinal, so every visitor sees the same
// phrase on the same day without any stored rotation state.
package phrase

import (
	"time"

	"gorm.io/gorm"

	"github.com/hyi96/taskweb/internal/models"
)

// Fallback is returned when the phrase bank is empty.
var Fallback = Phrase{
	Text:   "Build your day with deliberate courage.",
	Author: "Taskweb",
}

type Phrase struct {
	Text   string `json:"text"`
	Author string `json:"author"`
}

var unixEpoch = time.Date(1970, time.January, 1, 0, 0, 0, 0, time.UTC)

// Days from year 1, Jan 1 to the Unix epoch. Counting from the Unix epoch
// keeps the subtraction inside time.Duration's range; a span measured from
// year 1 saturates the Duration and every modern date collapses onto one
// ordinal.
const unixEpochOrdinal = 719163

// dayOrdinal counts days since year 1, Jan 1 (that date is day 1).
func dayOrdinal(d time.Time) int {
	return int(d.Sub(unixEpoch)/(24*time.Hour)) + unixEpochOrdinal
}

// DailyPhrase picks the phrase for the given date from the active bank,
// ordered by sort order then creation time.
func DailyPhrase(db *gorm.DB, forDate time.Time) (Phrase, error) {
	var count int64
	base := db.Model(&models.InspirationalPhrase{}).Where("is_active = ?", true)
	if err := base.Count(&count).Error; err != nil {
		return Fallback, err
	}
	if count == 0 {
		return Fallback, nil
	}

	index := dayOrdinal(forDate) % int(count)
	var p models.InspirationalPhrase
	if err := db.Where("is_active = ?", true).
		Order("sort_order, created_at, id").
		Offset(index).
		First(&p).Error; err != nil {
		return Fallback, err
	}
	return Phrase{Text: p.Text, Author: p.Author}, nil
}
