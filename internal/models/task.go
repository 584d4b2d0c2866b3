package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// TaskType discriminates the four task variants sharing one table.
type TaskType string

const (
	TaskHabit  TaskType = "habit"
	TaskDaily  TaskType = "daily"
	TaskTodo   TaskType = "todo"
	TaskReward TaskType = "reward"
)

func (t TaskType) IsValid() bool {
	switch t {
	case TaskHabit, TaskDaily, TaskTodo, TaskReward:
		return true
	default:
		return false
	}
}

// Cadence is a calendar repetition unit. "never" is only meaningful for
// habit counter resets; daily tasks must use a real unit.
type Cadence string

const (
	CadenceNever Cadence = "never"
	CadenceDay   Cadence = "day"
	CadenceWeek  Cadence = "week"
	CadenceMonth Cadence = "month"
	CadenceYear  Cadence = "year"
)

func (c Cadence) IsValid() bool {
	switch c {
	case CadenceNever, CadenceDay, CadenceWeek, CadenceMonth, CadenceYear:
		return true
	default:
		return false
	}
}

// IsRepeating reports whether the cadence describes an actual calendar unit.
func (c Cadence) IsRepeating() bool {
	switch c {
	case CadenceDay, CadenceWeek, CadenceMonth, CadenceYear:
		return true
	default:
		return false
	}
}

// HabitFields is the habit variant payload: a running decimal counter that
// can optionally reset by cadence.
type HabitFields struct {
	CurrentCount   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	CountIncrement decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	ResetCadence   *Cadence        `gorm:"size:10"`
}

// DailyFields is the daily variant payload: cadence scheduling plus streak
// bookkeeping. LastCompletionPeriod is a date bucket, not a timestamp; it
// doubles as the idempotency key for completions.
type DailyFields struct {
	RepeatCadence        Cadence `gorm:"size:10"`
	RepeatEvery          int     `gorm:"not null;default:1"`
	CurrentStreak        int     `gorm:"not null;default:0"`
	BestStreak           int     `gorm:"not null;default:0"`
	StreakGoal           int     `gorm:"not null;default:0"`
	LastCompletionPeriod *time.Time
	AutocompleteAfter    *time.Duration
}

// TodoFields is the todo variant payload.
type TodoFields struct {
	DueAt       *time.Time `gorm:"index"`
	IsDone      bool       `gorm:"not null;default:false"`
	CompletedAt *time.Time
}

// RewardFields is the reward variant payload. A reward's GoldDelta on the
// envelope must be strictly negative (a cost).
type RewardFields struct {
	IsRepeatable bool `gorm:"not null;default:false"`
	IsClaimed    bool `gorm:"not null;default:false"`
	ClaimedAt    *time.Time
	ClaimCount   int `gorm:"not null;default:0"`
}

// Task is the tagged union over habit/daily/todo/reward. The envelope holds
// the shared fields; each variant payload is embedded with a column prefix
// so the table stays a single polymorphic one, while Go code addresses the
// payload through the matching sub-struct only.
type Task struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	ProfileID uuid.UUID `gorm:"type:uuid;index;not null"`

	Type     TaskType `gorm:"column:task_type;size:10;index;not null"`
	Title    string   `gorm:"size:200;not null"`
	Notes    string   `gorm:"type:text"`
	IsHidden bool     `gorm:"not null;default:false"`

	// + earn, - spend (rewards)
	GoldDelta decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	CreatedAt time.Time
	UpdatedAt time.Time

	LastActionAt      *time.Time `gorm:"index"`
	TotalActionsCount int        `gorm:"not null;default:0"`

	Habit  HabitFields  `gorm:"embedded;embeddedPrefix:habit_"`
	Daily  DailyFields  `gorm:"embedded;embeddedPrefix:daily_"`
	Todo   TodoFields   `gorm:"embedded;embeddedPrefix:todo_"`
	Reward RewardFields `gorm:"embedded;embeddedPrefix:reward_"`

	Tags    []Tag   `gorm:"many2many:task_tags"`
	Profile Profile `gorm:"constraint:OnDelete:CASCADE"`
}

func (t *Task) BeforeCreate(_ *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// AnchorDate returns the reference date from which period buckets are
// counted: the task creation date. Editing cadence or repeat-every later
// does not recompute historical completion periods.
func (t *Task) AnchorDate(loc *time.Location) time.Time {
	y, m, d := t.CreatedAt.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Validate checks the envelope and the payload of the matching variant.
// Payloads of the other variants are simply ignored; they sit at their zero
// values and carry no meaning for this task.
func (t *Task) Validate() error {
	if !t.Type.IsValid() {
		return fmt.Errorf("unknown task type %q", t.Type)
	}
	if strings.TrimSpace(t.Title) == "" {
		return fmt.Errorf("task title must not be blank")
	}
	if len(t.Title) > 200 {
		return fmt.Errorf("task title too long, max 200 characters")
	}

	switch t.Type {
	case TaskHabit:
		if t.Habit.ResetCadence != nil && !t.Habit.ResetCadence.IsValid() {
			return fmt.Errorf("invalid habit reset cadence %q", *t.Habit.ResetCadence)
		}
	case TaskDaily:
		if !t.Daily.RepeatCadence.IsRepeating() {
			return fmt.Errorf("daily tasks require a repeat cadence of day/week/month/year")
		}
		if t.Daily.RepeatEvery < 1 {
			return fmt.Errorf("repeat_every must be at least 1")
		}
	case TaskReward:
		if t.GoldDelta.Sign() >= 0 {
			return fmt.Errorf("reward cost must be negative")
		}
		if t.Reward.IsClaimed && t.Reward.ClaimedAt == nil {
			return fmt.Errorf("claimed reward requires a claimed_at timestamp")
		}
	case TaskTodo:
		if t.Todo.IsDone && t.Todo.CompletedAt == nil {
			return fmt.Errorf("done todo requires a completed_at timestamp")
		}
		if !t.Todo.IsDone && t.Todo.CompletedAt != nil {
			return fmt.Errorf("todo completed_at is only valid once done")
		}
	}
	return nil
}
