package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Profile is a named container owned by exactly one account (desktop-like
// "switchable users"). GoldBalance is a cached value; the log entries remain
// the audit trail, and the balance must always equal the running sum of
// logged gold deltas at cent precision.
type Profile struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	AccountID uint      `gorm:"index:uniq_profile_name_per_account,unique;not null"`
	Name      string    `gorm:"size:80;index:uniq_profile_name_per_account,unique;not null"`
	CreatedAt time.Time

	GoldBalance decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	Account Account `gorm:"constraint:OnDelete:CASCADE"`
}

// BeforeCreate assigns a UUID if the caller did not provide one.
func (p *Profile) BeforeCreate(_ *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// Validate is the pre-commit check run before any write: validate the
// proposed state, then commit.
func (p *Profile) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("profile name must not be blank")
	}
	if len(p.Name) > 80 {
		return fmt.Errorf("profile name too long, max 80 characters")
	}
	return nil
}
