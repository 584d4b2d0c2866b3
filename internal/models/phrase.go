package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// InspirationalPhrase is the site-wide phrase bank used for deterministic
// phrase-of-the-day selection.
type InspirationalPhrase struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Text      string    `gorm:"size:220;uniqueIndex;not null"`
	Author    string    `gorm:"size:120;not null;default:Unknown"`
	IsActive  bool      `gorm:"index:idx_phrase_active_order;not null;default:true"`
	SortOrder int       `gorm:"index:idx_phrase_active_order;not null;default:0"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (p *InspirationalPhrase) BeforeCreate(_ *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
