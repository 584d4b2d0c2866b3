// Package engine implements the task-action and period-accounting core:
// the atomic state transitions on tasks and profile balances, and the
// read-time period rollover. Each mutating action runs as one gorm
// transaction that locks the profile and task rows, asserts ownership and
// variant, applies the transition, and persists task, profile and a new log
// entry together. Any validation failure rolls the whole transaction back.
package engine

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hyi96/taskweb/internal/models"
)

// Engine carries the shared DB handle and the timezone used to resolve
// calendar dates from instants. The location is the profile-local timezone;
// the HTTP layer resolves it once at startup from configuration.
type Engine struct {
	db  *gorm.DB
	loc *time.Location
}

// New builds an engine. A nil location falls back to time.Local.
func New(db *gorm.DB, loc *time.Location) *Engine {
	if loc == nil {
		loc = time.Local
	}
	return &Engine{db: db, loc: loc}
}

// Location exposes the timezone the engine buckets dates in.
func (e *Engine) Location() *time.Location { return e.loc }

// locked applies FOR UPDATE on dialects that support it. SQLite has no row
// locks; its single-writer transaction already serializes actions, and its
// parser rejects the clause.
func locked(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}

// lockTaskAndProfile re-reads both rows under the row lock inside the
// transaction so concurrent actions on the same task or balance serialize.
func lockTaskAndProfile(tx *gorm.DB, taskID, profileID uuid.UUID) (*models.Task, *models.Profile, error) {
	var profile models.Profile
	if err := locked(tx).First(&profile, "id = ?", profileID).Error; err != nil {
		return nil, nil, translateDBErr(err, "profile")
	}
	var task models.Task
	if err := locked(tx).First(&task, "id = ?", taskID).Error; err != nil {
		return nil, nil, translateDBErr(err, "task")
	}
	return &task, &profile, nil
}

// assertOwnership enforces the tenant chain: task -> profile -> account.
func assertOwnership(task *models.Task, profile *models.Profile, accountID uint) error {
	if task != nil && task.ProfileID != profile.ID {
		return OwnershipError{Detail: "task does not belong to the selected profile"}
	}
	if profile.AccountID != accountID {
		return OwnershipError{Detail: "profile does not belong to the authenticated account"}
	}
	return nil
}

// saveTaskProfileLog persists the three records of one action as a unit,
// validating the proposed task state first (validate-then-commit).
func saveTaskProfileLog(tx *gorm.DB, task *models.Task, profile *models.Profile, log *models.LogEntry) error {
	if err := task.Validate(); err != nil {
		return DataIntegrityError{Detail: err.Error()}
	}
	if err := tx.Save(task).Error; err != nil {
		return translateDBErr(err, "task")
	}
	if err := tx.Model(profile).Update("gold_balance", profile.GoldBalance).Error; err != nil {
		return translateDBErr(err, "profile")
	}
	if err := tx.Create(log).Error; err != nil {
		return translateDBErr(err, "log")
	}
	return nil
}

// translateDBErr maps store failures onto the engine taxonomy. Busy/locked
// conditions become RetryableError so callers can distinguish a transient
// conflict from a semantic rejection.
func translateDBErr(err error, entity string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return InvalidInputError{Field: entity, Detail: "not found"}
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "deadlock") ||
		strings.Contains(msg, "lock wait timeout") {
		return RetryableError{Err: err}
	}
	return err
}

// inTx runs fn inside a transaction with the request context attached.
func (e *Engine) inTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return e.db.WithContext(ctx).Transaction(fn)
}
