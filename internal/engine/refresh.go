package engine

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/hyi96/taskweb/internal/models"
	"github.com/hyi96/taskweb/internal/periods"
)

// UncompletedDaily describes a daily task the user could still backfill for
// the previous period, for client display in the new-day flow.
type UncompletedDaily struct {
	ID                   uuid.UUID  `json:"id"`
	Title                string     `json:"title"`
	PreviousPeriodStart  time.Time  `json:"previous_period_start"`
	LastCompletionPeriod *time.Time `json:"last_completion_period"`
}

// RefreshProfilePeriodState settles read-time rollovers for one profile:
// daily streaks break once more than one full period has elapsed without a
// completion, and habit counters with a reset cadence drop to zero when the
// last action falls in an earlier reset bucket than the given timestamp.
// Calling it twice with the same timestamp changes nothing.
func (e *Engine) RefreshProfilePeriodState(ctx context.Context, profileID uuid.UUID, accountID uint, timestamp time.Time) error {
	return e.inTx(ctx, func(tx *gorm.DB) error {
		var profile models.Profile
		if err := locked(tx).First(&profile, "id = ?", profileID).Error; err != nil {
			return translateDBErr(err, "profile")
		}
		if err := assertOwnership(nil, &profile, accountID); err != nil {
			return err
		}
		return e.refreshLocked(tx, &profile, timestamp)
	})
}

// refreshLocked is the rollover body, shared with StartNewDay so the
// backfill and the settling refresh run in one transaction. The caller must
// already hold the profile lock.
func (e *Engine) refreshLocked(tx *gorm.DB, profile *models.Profile, timestamp time.Time) error {
	today := periods.DateOf(timestamp, e.loc)

	var tasks []models.Task
	if err := locked(tx).
		Where("profile_id = ? AND task_type IN ?", profile.ID, []models.TaskType{models.TaskDaily, models.TaskHabit}).
		Find(&tasks).Error; err != nil {
		return translateDBErr(err, "tasks")
	}

	for i := range tasks {
		task := &tasks[i]
		switch task.Type {
		case models.TaskDaily:
			last := task.Daily.LastCompletionPeriod
			if last == nil || task.Daily.CurrentStreak == 0 {
				continue
			}
			current := periods.DailyPeriodStart(today, task.Daily.RepeatCadence, task.Daily.RepeatEvery, task.AnchorDate(e.loc))
			expectedPrevious := periods.PreviousDailyPeriodStart(current, task.Daily.RepeatCadence, task.Daily.RepeatEvery)
			lastDate := periods.Date(last.Date())
			if lastDate.Before(expectedPrevious) {
				// Streak broken by a missed period; best streak stays.
				task.Daily.CurrentStreak = 0
				if err := tx.Model(task).Update("daily_current_streak", 0).Error; err != nil {
					return translateDBErr(err, "task")
				}
			}

		case models.TaskHabit:
			reset := task.Habit.ResetCadence
			if reset == nil || !reset.IsRepeating() {
				continue
			}
			if task.Habit.CurrentCount.IsZero() || task.LastActionAt == nil {
				continue
			}
			lastBucket := periods.HabitResetPeriodStart(periods.DateOf(*task.LastActionAt, e.loc), *reset)
			nowBucket := periods.HabitResetPeriodStart(today, *reset)
			if lastBucket.Before(nowBucket) {
				task.Habit.CurrentCount = decimal.Zero
				if err := tx.Model(task).Update("habit_current_count", decimal.Zero).Error; err != nil {
					return translateDBErr(err, "task")
				}
			}
		}
	}
	return nil
}

// UncompletedDailiesFromPreviousPeriod lists the daily tasks that were not
// completed for the period immediately before the current one, ordered by
// title. Tasks already satisfied for the current or previous period are
// skipped, as are sub-period cadences where both buckets coincide.
func (e *Engine) UncompletedDailiesFromPreviousPeriod(ctx context.Context, profileID uuid.UUID, accountID uint, timestamp time.Time) ([]UncompletedDaily, error) {
	var out []UncompletedDaily
	err := e.inTx(ctx, func(tx *gorm.DB) error {
		var profile models.Profile
		if err := tx.First(&profile, "id = ?", profileID).Error; err != nil {
			return translateDBErr(err, "profile")
		}
		if err := assertOwnership(nil, &profile, accountID); err != nil {
			return err
		}

		today := periods.DateOf(timestamp, e.loc)
		var dailies []models.Task
		if err := tx.Where("profile_id = ? AND task_type = ?", profile.ID, models.TaskDaily).
			Find(&dailies).Error; err != nil {
			return translateDBErr(err, "tasks")
		}

		for i := range dailies {
			task := &dailies[i]
			current := periods.DailyPeriodStart(today, task.Daily.RepeatCadence, task.Daily.RepeatEvery, task.AnchorDate(e.loc))
			previous := periods.PreviousDailyPeriodStart(current, task.Daily.RepeatCadence, task.Daily.RepeatEvery)
			if periods.SameDate(current, previous) {
				continue
			}
			last := task.Daily.LastCompletionPeriod
			if last != nil && (periods.SameDate(*last, current) || periods.SameDate(*last, previous)) {
				continue
			}
			out = append(out, UncompletedDaily{
				ID:                   task.ID,
				Title:                task.Title,
				PreviousPeriodStart:  previous,
				LastCompletionPeriod: last,
			})
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// StartNewDay backfills the named daily tasks for the previous period. The
// client's checked list is a hint only; every guard is re-validated under
// lock. Backfill continues the streak when the completion before it was the
// period before the previous one, otherwise the streak restarts at 1. No
// log entry is written and no gold moves: this is a streak and period
// correction, not an earning action. Remaining rollovers are settled by a
// refresh in the same transaction. Returns the number of tasks updated.
func (e *Engine) StartNewDay(ctx context.Context, profileID uuid.UUID, accountID uint, checkedDailyIDs []uuid.UUID, timestamp time.Time) (int, error) {
	updated := 0
	err := e.inTx(ctx, func(tx *gorm.DB) error {
		var profile models.Profile
		if err := locked(tx).First(&profile, "id = ?", profileID).Error; err != nil {
			return translateDBErr(err, "profile")
		}
		if err := assertOwnership(nil, &profile, accountID); err != nil {
			return err
		}

		today := periods.DateOf(timestamp, e.loc)
		for _, id := range checkedDailyIDs {
			var task models.Task
			if err := locked(tx).
				First(&task, "id = ? AND profile_id = ?", id, profile.ID).Error; err != nil {
				if err == gorm.ErrRecordNotFound {
					continue
				}
				return translateDBErr(err, "task")
			}
			if task.Type != models.TaskDaily {
				continue
			}

			current := periods.DailyPeriodStart(today, task.Daily.RepeatCadence, task.Daily.RepeatEvery, task.AnchorDate(e.loc))
			previous := periods.PreviousDailyPeriodStart(current, task.Daily.RepeatCadence, task.Daily.RepeatEvery)
			if periods.SameDate(current, previous) {
				continue
			}
			last := task.Daily.LastCompletionPeriod
			if last != nil && (periods.SameDate(*last, current) || periods.SameDate(*last, previous)) {
				continue
			}

			beforePrevious := periods.PreviousDailyPeriodStart(previous, task.Daily.RepeatCadence, task.Daily.RepeatEvery)
			if last != nil && periods.SameDate(*last, beforePrevious) {
				task.Daily.CurrentStreak++
			} else {
				task.Daily.CurrentStreak = 1
			}
			if task.Daily.CurrentStreak > task.Daily.BestStreak {
				task.Daily.BestStreak = task.Daily.CurrentStreak
			}
			task.Daily.LastCompletionPeriod = &previous

			if err := task.Validate(); err != nil {
				return DataIntegrityError{Detail: err.Error()}
			}
			if err := tx.Save(&task).Error; err != nil {
				return translateDBErr(err, "task")
			}
			updated++
		}

		return e.refreshLocked(tx, &profile, timestamp)
	})
	if err != nil {
		return 0, err
	}
	return updated, nil
}
