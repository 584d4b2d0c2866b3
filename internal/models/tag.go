package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Tag labels tasks within one profile. System tags are created internally
// and cannot be renamed or deleted from the UI.
type Tag struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	ProfileID uuid.UUID `gorm:"type:uuid;index:uniq_tag_name_per_profile,unique;not null"`
	Name      string    `gorm:"size:60;index:uniq_tag_name_per_profile,unique;not null"`
	IsSystem  bool      `gorm:"not null;default:false"`
	CreatedAt time.Time

	Profile Profile `gorm:"constraint:OnDelete:CASCADE"`
}

func (t *Tag) BeforeCreate(_ *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

func (t *Tag) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("tag name must not be blank")
	}
	if len(t.Name) > 60 {
		return fmt.Errorf("tag name too long, max 60 characters")
	}
	return nil
}
