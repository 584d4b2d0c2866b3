package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ChecklistItem is a sub-item of a todo task. Checklist completion does not
// move gold or produce log entries; it is display state only.
type ChecklistItem struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	TaskID      uuid.UUID `gorm:"type:uuid;index:idx_checklist_task_order;not null"`
	Text        string    `gorm:"size:300;not null"`
	IsCompleted bool      `gorm:"not null;default:false"`
	SortOrder   int       `gorm:"index:idx_checklist_task_order;not null;default:0"`
	CreatedAt   time.Time

	Task Task `gorm:"constraint:OnDelete:CASCADE"`
}

func (c *ChecklistItem) BeforeCreate(_ *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (c *ChecklistItem) Validate() error {
	if strings.TrimSpace(c.Text) == "" {
		return fmt.Errorf("checklist text must not be blank")
	}
	if len(c.Text) > 300 {
		return fmt.Errorf("checklist text too long, max 300 characters")
	}
	return nil
}
