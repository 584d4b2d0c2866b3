package models

import "time"

// Account represents an authentication identity. Profiles hang off accounts;
// all task data is owned through a profile, never directly by the account.
type Account struct {
	ID           uint   `gorm:"primaryKey"`
	Username     string `gorm:"size:64;uniqueIndex;not null"`
	Email        string `gorm:"size:255;index"`
	PasswordHash string `gorm:"size:255;not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	LastLoginAt *time.Time
}
