// Package periods maps calendar dates onto cadence buckets. A "period" is
// the date bucket a given instant falls into for a task's cadence; daily
// completions use it as their idempotency key and streak continuity checks
// compare adjacent buckets. Everything here is pure date arithmetic.
package periods

import (
	"time"

	"github.com/hyi96/taskweb/internal/models"
)

// Date builds a normalized calendar date (midnight UTC). All period math
// operates on values produced by Date or DateOf so comparisons are exact.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// DateOf extracts the calendar date of an instant in the given location.
// The location is the profile's local timezone, resolved by the caller.
func DateOf(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return Date(y, m, d)
}

// SameDate reports whether two values fall on the same calendar date.
func SameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// mondayStart returns the Monday on or before the given date.
func mondayStart(d time.Time) time.Time {
	offset := (int(d.Weekday()) + 6) % 7 // Monday=0 .. Sunday=6
	return d.AddDate(0, 0, -offset)
}

// DailyPeriodStart resolves the start of the period containing targetDate
// for a daily task's cadence. Buckets are repeatEvery units wide, counted
// forward from the anchor date (week buckets from the Monday on/before the
// anchor, month buckets from day 1 of the anchor month, year buckets from
// Jan 1 of the anchor year). Dates before the anchor clamp to the first
// bucket; there is no period before the anchor.
func DailyPeriodStart(targetDate time.Time, cadence models.Cadence, repeatEvery int, anchorDate time.Time) time.Time {
	interval := repeatEvery
	if interval < 1 {
		interval = 1
	}

	switch cadence {
	case models.CadenceDay:
		daysDiff := daysBetween(anchorDate, targetDate)
		if daysDiff < 0 {
			daysDiff = 0
		}
		return anchorDate.AddDate(0, 0, (daysDiff/interval)*interval)

	case models.CadenceWeek:
		currentStart := mondayStart(targetDate)
		anchorStart := mondayStart(anchorDate)
		weeksDiff := daysBetween(anchorStart, currentStart) / 7
		if weeksDiff < 0 {
			weeksDiff = 0
		}
		return anchorStart.AddDate(0, 0, (weeksDiff/interval)*interval*7)

	case models.CadenceMonth:
		anchorIdx := anchorDate.Year()*12 + int(anchorDate.Month()) - 1
		currentIdx := targetDate.Year()*12 + int(targetDate.Month()) - 1
		monthsDiff := currentIdx - anchorIdx
		if monthsDiff < 0 {
			monthsDiff = 0
		}
		targetIdx := anchorIdx + (monthsDiff/interval)*interval
		return Date(targetIdx/12, time.Month(targetIdx%12+1), 1)

	case models.CadenceYear:
		yearsDiff := targetDate.Year() - anchorDate.Year()
		if yearsDiff < 0 {
			yearsDiff = 0
		}
		return Date(anchorDate.Year()+(yearsDiff/interval)*interval, time.January, 1)
	}

	return targetDate
}

// PreviousDailyPeriodStart subtracts exactly one bucket width from a period
// start. This is arithmetic on the boundary itself, independent of the
// anchor; it backs streak continuity checks, not bucket recomputation.
func PreviousDailyPeriodStart(currentPeriodStart time.Time, cadence models.Cadence, repeatEvery int) time.Time {
	interval := repeatEvery
	if interval < 1 {
		interval = 1
	}

	switch cadence {
	case models.CadenceDay:
		return currentPeriodStart.AddDate(0, 0, -interval)
	case models.CadenceWeek:
		return currentPeriodStart.AddDate(0, 0, -7*interval)
	case models.CadenceMonth:
		month := int(currentPeriodStart.Month()) - interval
		year := currentPeriodStart.Year()
		for month <= 0 {
			month += 12
			year--
		}
		return Date(year, time.Month(month), 1)
	case models.CadenceYear:
		return Date(currentPeriodStart.Year()-interval, time.January, 1)
	}

	return currentPeriodStart
}

// HabitResetPeriodStart buckets a date for habit counter resets. Habits do
// not support multi-unit cadences, so this is the plain day/week/month/year
// boundary containing the date.
func HabitResetPeriodStart(targetDate time.Time, cadence models.Cadence) time.Time {
	switch cadence {
	case models.CadenceDay:
		return Date(targetDate.Date())
	case models.CadenceWeek:
		return mondayStart(targetDate)
	case models.CadenceMonth:
		return Date(targetDate.Year(), targetDate.Month(), 1)
	case models.CadenceYear:
		return Date(targetDate.Year(), time.January, 1)
	}
	return targetDate
}

// daysBetween counts whole calendar days from a to b (negative when b is
// earlier). Both values are normalized dates, so hour arithmetic is safe.
func daysBetween(a, b time.Time) int {
	return int(b.Sub(a) / (24 * time.Hour))
}
