package engine

import (
	"fmt"

	"github.com/hyi96/taskweb/internal/models"
)

// OwnershipError signals a cross-tenant access attempt: the task does not
// belong to the profile, or the profile does not belong to the caller.
type OwnershipError struct {
	Detail string
}

func (e OwnershipError) Error() string { return e.Detail }

// TypeMismatchError signals an action applied to the wrong task variant.
type TypeMismatchError struct {
	Want models.TaskType
	Got  models.TaskType
}

func (e TypeMismatchError) Error() string {
	return fmt.Sprintf("this action is only valid for %s tasks, got %s", e.Want, e.Got)
}

// AlreadyCompletedError signals an idempotency violation: a daily completed
// twice for the same period, or a todo completed twice.
type AlreadyCompletedError struct {
	Detail string
}

func (e AlreadyCompletedError) Error() string { return e.Detail }

// AlreadyClaimedError signals a second claim on a non-repeatable reward.
type AlreadyClaimedError struct{}

func (AlreadyClaimedError) Error() string { return "reward has already been claimed" }

// InsufficientFundsError signals a reward claim that would overdraw the
// profile balance. The claim is rejected whole; nothing is spent.
type InsufficientFundsError struct{}

func (InsufficientFundsError) Error() string { return "insufficient funds to claim this reward" }

// InvalidInputError signals malformed caller input (bad duration, blank
// title, invalid decimal, unknown task id).
type InvalidInputError struct {
	Field  string
	Detail string
}

func (e InvalidInputError) Error() string { return e.Field + ": " + e.Detail }

// DataIntegrityError signals stored state that violates a model invariant,
// such as a reward with a non-negative gold delta. It indicates upstream
// data corruption rather than a bad request.
type DataIntegrityError struct {
	Detail string
}

func (e DataIntegrityError) Error() string { return e.Detail }

// RetryableError wraps lock timeouts and deadlocks from the store. The
// transaction rolled back cleanly; the caller may retry the whole action.
type RetryableError struct {
	Err error
}

func (e RetryableError) Error() string { return "transient storage conflict: " + e.Err.Error() }

func (e RetryableError) Unwrap() error { return e.Err }
