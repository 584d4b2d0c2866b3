package engine

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/hyi96/taskweb/internal/ledger"
	"github.com/hyi96/taskweb/internal/models"
	"github.com/hyi96/taskweb/internal/periods"
)

var (
	oneHundred = decimal.NewFromInt(100)
	one        = decimal.NewFromInt(1)
)

// HabitIncrement bumps a habit counter by `by` (or the task's configured
// increment when nil), pays out the task's flat gold delta, and appends a
// habit_incremented log entry, all in one transaction.
func (e *Engine) HabitIncrement(ctx context.Context, taskID, profileID uuid.UUID, accountID uint, by *decimal.Decimal, timestamp time.Time) (*models.Task, error) {
	var updated *models.Task
	err := e.inTx(ctx, func(tx *gorm.DB) error {
		task, profile, err := lockTaskAndProfile(tx, taskID, profileID)
		if err != nil {
			return err
		}
		if err := assertOwnership(task, profile, accountID); err != nil {
			return err
		}
		if task.Type != models.TaskHabit {
			return TypeMismatchError{Want: models.TaskHabit, Got: task.Type}
		}

		deltaCount := task.Habit.CountIncrement
		if by != nil {
			deltaCount = *by
		}
		deltaCount = ledger.Cents(deltaCount)

		task.Habit.CurrentCount = ledger.Cents(task.Habit.CurrentCount.Add(deltaCount))
		task.TotalActionsCount++
		task.LastActionAt = &timestamp

		goldDelta := ledger.Cents(task.GoldDelta)
		profile.GoldBalance = ledger.Apply(profile.GoldBalance, goldDelta)

		log := &models.LogEntry{
			ProfileID:     profile.ID,
			Timestamp:     timestamp,
			Type:          models.LogHabitIncremented,
			TaskID:        &task.ID,
			GoldDelta:     goldDelta,
			UserGold:      profile.GoldBalance,
			CountDelta:    &deltaCount,
			TitleSnapshot: task.Title,
		}
		if err := saveTaskProfileLog(tx, task, profile, log); err != nil {
			return err
		}
		updated = task
		return nil
	})
	return updated, err
}

// DailyComplete marks a daily done for exactly one period. The period is
// the explicit completionPeriod when given (trusted as an already bucketed
// date); otherwise the timestamp's local date bucketed by the task cadence
// with the creation date as anchor. A second completion for the same period
// is rejected. The streak continues only when the last completion was the
// immediately preceding period, and the highest eligible bonus percent is
// applied to the base reward.
func (e *Engine) DailyComplete(ctx context.Context, taskID, profileID uuid.UUID, accountID uint, timestamp time.Time, completionPeriod *time.Time) (*models.Task, error) {
	var updated *models.Task
	err := e.inTx(ctx, func(tx *gorm.DB) error {
		task, profile, err := lockTaskAndProfile(tx, taskID, profileID)
		if err != nil {
			return err
		}
		if err := assertOwnership(task, profile, accountID); err != nil {
			return err
		}
		if task.Type != models.TaskDaily {
			return TypeMismatchError{Want: models.TaskDaily, Got: task.Type}
		}

		var period time.Time
		if completionPeriod != nil {
			period = periods.Date(completionPeriod.Date())
		} else {
			period = periods.DailyPeriodStart(
				periods.DateOf(timestamp, e.loc),
				task.Daily.RepeatCadence,
				task.Daily.RepeatEvery,
				task.AnchorDate(e.loc),
			)
		}

		last := task.Daily.LastCompletionPeriod
		if last != nil && periods.SameDate(*last, period) {
			return AlreadyCompletedError{Detail: "task is already completed for this period"}
		}

		previous := periods.PreviousDailyPeriodStart(period, task.Daily.RepeatCadence, task.Daily.RepeatEvery)
		if last != nil && periods.SameDate(*last, previous) {
			task.Daily.CurrentStreak++
		} else {
			task.Daily.CurrentStreak = 1
		}
		if task.Daily.CurrentStreak > task.Daily.BestStreak {
			task.Daily.BestStreak = task.Daily.CurrentStreak
		}
		task.Daily.LastCompletionPeriod = &period
		task.LastActionAt = &timestamp
		task.TotalActionsCount++

		var rule models.StreakBonusRule
		bonusPercent := decimal.Zero
		ruleErr := tx.Where("task_id = ? AND streak_goal <= ?", task.ID, task.Daily.CurrentStreak).
			Order("bonus_percent DESC").
			First(&rule).Error
		if ruleErr == nil {
			bonusPercent = rule.BonusPercent
		} else if ruleErr != gorm.ErrRecordNotFound {
			return translateDBErr(ruleErr, "streak bonus rule")
		}

		baseGold := ledger.Cents(task.GoldDelta)
		finalGold := ledger.Cents(baseGold.Mul(one.Add(bonusPercent.Div(oneHundred))))
		profile.GoldBalance = ledger.Apply(profile.GoldBalance, finalGold)

		log := &models.LogEntry{
			ProfileID:     profile.ID,
			Timestamp:     timestamp,
			Type:          models.LogDailyCompleted,
			TaskID:        &task.ID,
			GoldDelta:     finalGold,
			UserGold:      profile.GoldBalance,
			TitleSnapshot: task.Title,
		}
		if err := saveTaskProfileLog(tx, task, profile, log); err != nil {
			return err
		}
		updated = task
		return nil
	})
	return updated, err
}

// TodoComplete marks a todo done once, pays the flat gold delta, and logs
// the completion. A done todo cannot be completed again.
func (e *Engine) TodoComplete(ctx context.Context, taskID, profileID uuid.UUID, accountID uint, timestamp time.Time) (*models.Task, error) {
	var updated *models.Task
	err := e.inTx(ctx, func(tx *gorm.DB) error {
		task, profile, err := lockTaskAndProfile(tx, taskID, profileID)
		if err != nil {
			return err
		}
		if err := assertOwnership(task, profile, accountID); err != nil {
			return err
		}
		if task.Type != models.TaskTodo {
			return TypeMismatchError{Want: models.TaskTodo, Got: task.Type}
		}
		if task.Todo.IsDone {
			return AlreadyCompletedError{Detail: "todo task is already completed"}
		}

		task.Todo.IsDone = true
		task.Todo.CompletedAt = &timestamp
		task.LastActionAt = &timestamp
		task.TotalActionsCount++

		goldDelta := ledger.Cents(task.GoldDelta)
		profile.GoldBalance = ledger.Apply(profile.GoldBalance, goldDelta)

		log := &models.LogEntry{
			ProfileID:     profile.ID,
			Timestamp:     timestamp,
			Type:          models.LogTodoCompleted,
			TaskID:        &task.ID,
			GoldDelta:     goldDelta,
			UserGold:      profile.GoldBalance,
			TitleSnapshot: task.Title,
		}
		if err := saveTaskProfileLog(tx, task, profile, log); err != nil {
			return err
		}
		updated = task
		return nil
	})
	return updated, err
}

// RewardClaim spends gold on a reward. The cost must be strictly negative,
// non-repeatable rewards claim once, and a claim that would overdraw the
// balance is rejected whole with no state mutated. The log entry carries
// both the task and reward references pointing at this same task, since
// rewards are modeled as a task variant.
func (e *Engine) RewardClaim(ctx context.Context, taskID, profileID uuid.UUID, accountID uint, timestamp time.Time) (*models.Task, error) {
	var updated *models.Task
	err := e.inTx(ctx, func(tx *gorm.DB) error {
		task, profile, err := lockTaskAndProfile(tx, taskID, profileID)
		if err != nil {
			return err
		}
		if err := assertOwnership(task, profile, accountID); err != nil {
			return err
		}
		if task.Type != models.TaskReward {
			return TypeMismatchError{Want: models.TaskReward, Got: task.Type}
		}
		if task.GoldDelta.Sign() >= 0 {
			return DataIntegrityError{Detail: "reward cost must be negative"}
		}
		if !task.Reward.IsRepeatable && task.Reward.IsClaimed {
			return AlreadyClaimedError{}
		}
		if ledger.WouldOverdraw(profile.GoldBalance, task.GoldDelta) {
			return InsufficientFundsError{}
		}

		goldDelta := ledger.Cents(task.GoldDelta)
		profile.GoldBalance = ledger.Apply(profile.GoldBalance, goldDelta)
		task.Reward.ClaimCount++
		task.Reward.IsClaimed = true
		task.Reward.ClaimedAt = &timestamp
		task.LastActionAt = &timestamp
		task.TotalActionsCount++

		log := &models.LogEntry{
			ProfileID:     profile.ID,
			Timestamp:     timestamp,
			Type:          models.LogRewardClaimed,
			TaskID:        &task.ID,
			RewardID:      &task.ID,
			GoldDelta:     goldDelta,
			UserGold:      profile.GoldBalance,
			TitleSnapshot: task.Title,
		}
		if err := saveTaskProfileLog(tx, task, profile, log); err != nil {
			return err
		}
		updated = task
		return nil
	})
	return updated, err
}

// LogActivityDuration appends a pure audit entry for time spent, with no
// task mutation and no gold movement. Optional task/reward references must
// belong to the same profile; the reward reference must be a reward task.
func (e *Engine) LogActivityDuration(ctx context.Context, profileID uuid.UUID, accountID uint, duration time.Duration, title string, timestamp time.Time, taskID, rewardID *uuid.UUID) (*models.LogEntry, error) {
	if duration <= 0 {
		return nil, InvalidInputError{Field: "duration", Detail: "must be positive"}
	}
	if strings.TrimSpace(title) == "" {
		return nil, InvalidInputError{Field: "title", Detail: "must not be blank"}
	}

	var entry *models.LogEntry
	err := e.inTx(ctx, func(tx *gorm.DB) error {
		var profile models.Profile
		if err := locked(tx).First(&profile, "id = ?", profileID).Error; err != nil {
			return translateDBErr(err, "profile")
		}
		if err := assertOwnership(nil, &profile, accountID); err != nil {
			return err
		}

		if taskID != nil {
			var task models.Task
			if err := tx.First(&task, "id = ?", *taskID).Error; err != nil {
				return translateDBErr(err, "task")
			}
			if task.ProfileID != profile.ID {
				return OwnershipError{Detail: "task does not belong to the selected profile"}
			}
		}
		if rewardID != nil {
			var reward models.Task
			if err := tx.First(&reward, "id = ?", *rewardID).Error; err != nil {
				return translateDBErr(err, "reward")
			}
			if reward.ProfileID != profile.ID {
				return OwnershipError{Detail: "reward does not belong to the selected profile"}
			}
			if reward.Type != models.TaskReward {
				return InvalidInputError{Field: "reward", Detail: "must reference a reward task"}
			}
		}

		d := duration
		entry = &models.LogEntry{
			ProfileID:     profile.ID,
			Timestamp:     timestamp,
			Type:          models.LogActivityDuration,
			TaskID:        taskID,
			RewardID:      rewardID,
			GoldDelta:     decimal.Zero,
			UserGold:      profile.GoldBalance,
			Duration:      &d,
			TitleSnapshot: title,
		}
		if err := tx.Create(entry).Error; err != nil {
			return translateDBErr(err, "log")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}
