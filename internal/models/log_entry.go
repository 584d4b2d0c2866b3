package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LogType tags the action that produced a log entry.
type LogType string

const (
	LogHabitIncremented LogType = "habit_incremented"
	LogDailyCompleted   LogType = "daily_completed"
	LogTodoCompleted    LogType = "todo_completed"
	LogRewardClaimed    LogType = "reward_claimed"
	LogActivityDuration LogType = "activity_duration"
)

func (t LogType) IsValid() bool {
	switch t {
	case LogHabitIncremented, LogDailyCompleted, LogTodoCompleted, LogRewardClaimed, LogActivityDuration:
		return true
	default:
		return false
	}
}

// LogEntry is the append-only audit record written by every action.
// Timestamp is the caller-supplied occurrence time (may be backdated);
// CreatedAt is system time. UserGold is the profile balance immediately
// after this entry's delta was applied, persisted in the same transaction —
// the core auditability guarantee.
type LogEntry struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	ProfileID uuid.UUID `gorm:"type:uuid;index:idx_log_profile_ts;not null"`
	Timestamp time.Time `gorm:"index:idx_log_profile_ts;not null"`
	CreatedAt time.Time

	Type LogType `gorm:"size:32;index;not null"`

	TaskID   *uuid.UUID `gorm:"type:uuid;index"`
	RewardID *uuid.UUID `gorm:"type:uuid;index"` // must reference a reward-type task

	GoldDelta decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	UserGold  decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	CountDelta *decimal.Decimal `gorm:"type:decimal(12,2)"` // habit increments only
	Duration   *time.Duration   // activity duration entries only

	TitleSnapshot string `gorm:"size:200"`

	Profile Profile `gorm:"constraint:OnDelete:CASCADE"`
	Task    *Task   `gorm:"foreignKey:TaskID;constraint:OnDelete:SET NULL"`
	Reward  *Task   `gorm:"foreignKey:RewardID;constraint:OnDelete:SET NULL"`
}

func (l *LogEntry) BeforeCreate(_ *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
