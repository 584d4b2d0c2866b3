package periods

import (
	"testing"
	"time"

	"github.com/hyi96/taskweb/internal/models"
)

func TestDailyPeriodStartDay(t *testing.T) {
	anchor := Date(2025, time.March, 3)

	tests := []struct {
		name   string
		target time.Time
		every  int
		want   time.Time
	}{
		{"same day", Date(2025, time.March, 3), 1, Date(2025, time.March, 3)},
		{"next day", Date(2025, time.March, 4), 1, Date(2025, time.March, 4)},
		{"every 3, inside first bucket", Date(2025, time.March, 5), 3, Date(2025, time.March, 3)},
		{"every 3, second bucket", Date(2025, time.March, 6), 3, Date(2025, time.March, 6)},
		{"before anchor clamps", Date(2025, time.February, 20), 1, Date(2025, time.March, 3)},
		{"zero interval treated as 1", Date(2025, time.March, 4), 0, Date(2025, time.March, 4)},
	}
	for _, tt := range tests {
		got := DailyPeriodStart(tt.target, models.CadenceDay, tt.every, anchor)
		if !got.Equal(tt.want) {
			t.Errorf("%s: got %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestDailyPeriodStartWeek(t *testing.T) {
	// Wednesday 2025-03-05; its Monday is 2025-03-03.
	anchor := Date(2025, time.March, 5)

	tests := []struct {
		name   string
		target time.Time
		every  int
		want   time.Time
	}{
		{"same week", Date(2025, time.March, 7), 1, Date(2025, time.March, 3)},
		{"sunday still same week", Date(2025, time.March, 9), 1, Date(2025, time.March, 3)},
		{"next monday starts new week", Date(2025, time.March, 10), 1, Date(2025, time.March, 10)},
		{"every 2, week 2 maps to first bucket", Date(2025, time.March, 12), 2, Date(2025, time.March, 3)},
		{"every 2, week 3 starts second bucket", Date(2025, time.March, 17), 2, Date(2025, time.March, 17)},
		{"before anchor clamps to anchor week", Date(2025, time.February, 10), 1, Date(2025, time.March, 3)},
	}
	for _, tt := range tests {
		got := DailyPeriodStart(tt.target, models.CadenceWeek, tt.every, anchor)
		if !got.Equal(tt.want) {
			t.Errorf("%s: got %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestDailyPeriodStartMonth(t *testing.T) {
	anchor := Date(2025, time.November, 15)

	tests := []struct {
		name   string
		target time.Time
		every  int
		want   time.Time
	}{
		{"anchor month", Date(2025, time.November, 30), 1, Date(2025, time.November, 1)},
		{"next month", Date(2025, time.December, 1), 1, Date(2025, time.December, 1)},
		{"year rollover", Date(2026, time.January, 10), 1, Date(2026, time.January, 1)},
		{"every 2 inside first bucket", Date(2025, time.December, 20), 2, Date(2025, time.November, 1)},
		{"every 2 second bucket crosses year", Date(2026, time.January, 2), 2, Date(2026, time.January, 1)},
		{"before anchor clamps", Date(2025, time.June, 1), 1, Date(2025, time.November, 1)},
	}
	for _, tt := range tests {
		got := DailyPeriodStart(tt.target, models.CadenceMonth, tt.every, anchor)
		if !got.Equal(tt.want) {
			t.Errorf("%s: got %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestDailyPeriodStartYear(t *testing.T) {
	anchor := Date(2023, time.July, 4)

	tests := []struct {
		name   string
		target time.Time
		every  int
		want   time.Time
	}{
		{"anchor year", Date(2023, time.December, 31), 1, Date(2023, time.January, 1)},
		{"next year", Date(2024, time.January, 1), 1, Date(2024, time.January, 1)},
		{"every 3 inside first bucket", Date(2025, time.June, 1), 3, Date(2023, time.January, 1)},
		{"every 3 second bucket", Date(2026, time.February, 1), 3, Date(2026, time.January, 1)},
		{"before anchor clamps", Date(2020, time.May, 5), 1, Date(2023, time.January, 1)},
	}
	for _, tt := range tests {
		got := DailyPeriodStart(tt.target, models.CadenceYear, tt.every, anchor)
		if !got.Equal(tt.want) {
			t.Errorf("%s: got %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestPreviousDailyPeriodStart(t *testing.T) {
	tests := []struct {
		name    string
		current time.Time
		cadence models.Cadence
		every   int
		want    time.Time
	}{
		{"day", Date(2025, time.March, 10), models.CadenceDay, 1, Date(2025, time.March, 9)},
		{"day every 3", Date(2025, time.March, 10), models.CadenceDay, 3, Date(2025, time.March, 7)},
		{"day across month", Date(2025, time.March, 1), models.CadenceDay, 1, Date(2025, time.February, 28)},
		{"week", Date(2025, time.March, 10), models.CadenceWeek, 1, Date(2025, time.March, 3)},
		{"week every 2", Date(2025, time.March, 17), models.CadenceWeek, 2, Date(2025, time.March, 3)},
		{"month", Date(2025, time.March, 1), models.CadenceMonth, 1, Date(2025, time.February, 1)},
		{"month january wraps", Date(2025, time.January, 1), models.CadenceMonth, 1, Date(2024, time.December, 1)},
		{"month every 14 wraps deep", Date(2025, time.March, 1), models.CadenceMonth, 14, Date(2024, time.January, 1)},
		{"year", Date(2025, time.January, 1), models.CadenceYear, 1, Date(2024, time.January, 1)},
		{"year every 5", Date(2025, time.January, 1), models.CadenceYear, 5, Date(2020, time.January, 1)},
	}
	for _, tt := range tests {
		got := PreviousDailyPeriodStart(tt.current, tt.cadence, tt.every)
		if !got.Equal(tt.want) {
			t.Errorf("%s: got %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestPreviousIsInverseOfAdjacentBuckets(t *testing.T) {
	// For every cadence, the previous of a bucket start must itself be a
	// bucket start one width earlier.
	anchor := Date(2025, time.January, 6) // a Monday
	for _, cadence := range []models.Cadence{models.CadenceDay, models.CadenceWeek, models.CadenceMonth, models.CadenceYear} {
		current := DailyPeriodStart(Date(2026, time.June, 15), cadence, 1, anchor)
		previous := PreviousDailyPeriodStart(current, cadence, 1)
		if !previous.Before(current) {
			t.Errorf("%s: previous %v not before current %v", cadence, previous, current)
		}
		recomputed := DailyPeriodStart(previous, cadence, 1, anchor)
		if !recomputed.Equal(previous) {
			t.Errorf("%s: previous %v is not a bucket start (recomputed %v)", cadence, previous, recomputed)
		}
	}
}

func TestHabitResetPeriodStart(t *testing.T) {
	target := Date(2025, time.March, 9) // a Sunday

	tests := []struct {
		cadence models.Cadence
		want    time.Time
	}{
		{models.CadenceDay, Date(2025, time.March, 9)},
		{models.CadenceWeek, Date(2025, time.March, 3)},
		{models.CadenceMonth, Date(2025, time.March, 1)},
		{models.CadenceYear, Date(2025, time.January, 1)},
	}
	for _, tt := range tests {
		got := HabitResetPeriodStart(target, tt.cadence)
		if !got.Equal(tt.want) {
			t.Errorf("%s: got %v, want %v", tt.cadence, got, tt.want)
		}
	}
}

func TestDateOfUsesLocation(t *testing.T) {
	// 23:30 UTC on March 3 is already March 4 in UTC+2.
	instant := time.Date(2025, time.March, 3, 23, 30, 0, 0, time.UTC)
	loc := time.FixedZone("UTC+2", 2*3600)

	if got := DateOf(instant, time.UTC); !got.Equal(Date(2025, time.March, 3)) {
		t.Errorf("UTC date: got %v", got)
	}
	if got := DateOf(instant, loc); !got.Equal(Date(2025, time.March, 4)) {
		t.Errorf("UTC+2 date: got %v", got)
	}
}

func TestSameDate(t *testing.T) {
	a := time.Date(2025, time.March, 3, 8, 0, 0, 0, time.UTC)
	b := Date(2025, time.March, 3)
	if !SameDate(a, b) {
		t.Error("same calendar date should match regardless of clock time")
	}
	if SameDate(b, Date(2025, time.March, 4)) {
		t.Error("different dates must not match")
	}
}
