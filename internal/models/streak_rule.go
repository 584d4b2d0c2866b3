package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StreakBonusRule boosts a daily task's reward once the streak reaches the
// goal. The engine picks the highest bonus percent among rules whose goal is
// at or below the current streak; rules are unique per (task, goal).
type StreakBonusRule struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey"`
	TaskID       uuid.UUID       `gorm:"type:uuid;index:uniq_bonus_rule_per_task_goal,unique;not null"`
	StreakGoal   int             `gorm:"index:uniq_bonus_rule_per_task_goal,unique;not null"`
	BonusPercent decimal.Decimal `gorm:"type:decimal(6,2);not null"`
	CreatedAt    time.Time

	Task Task `gorm:"constraint:OnDelete:CASCADE"`
}

func (r *StreakBonusRule) BeforeCreate(_ *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

func (r *StreakBonusRule) Validate() error {
	if r.StreakGoal < 1 {
		return fmt.Errorf("streak goal must be at least 1")
	}
	if r.BonusPercent.Sign() < 0 {
		return fmt.Errorf("bonus percent must not be negative")
	}
	return nil
}
