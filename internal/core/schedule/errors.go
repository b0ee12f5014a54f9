package schedule

import (
	"errors"
	"fmt"
)

// Error kinds. Every error produced by the engine matches at most one of these
// with errors.Is, which is how callers decide between branching, acknowledging,
// retrying and parking.
var (
	// ErrNotFound is an expected, non-fatal absence.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists signals an active schedule is already in place.
	ErrAlreadyExists = errors.New("already exists")
	// ErrPrecondition is a data-quality problem that retrying will not fix.
	ErrPrecondition = errors.New("precondition failed")
	// ErrTransient is a retryable dependency failure.
	ErrTransient = errors.New("transient failure")
	// ErrVersionConflict is a write that observed a stale version.
	ErrVersionConflict = errors.New("version conflict")
	// ErrInvariantViolation means uniqueness enforcement was bypassed.
	ErrInvariantViolation = errors.New("invariant violation")
)

// Entity names used in NotFoundError.
const (
	EntityInductionSchedule = "induction schedule"
	EntityReviewSchedule    = "review schedule"
	EntityInduction         = "induction"
	EntityActionPlan        = "action plan"
	EntityPrisoner          = "prisoner"
)

// NotFoundError reports a missing entity for a person.
type NotFoundError struct {
	Entity   string
	PersonID string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s not found for prisoner %s", e.Entity, e.PersonID)
}

// Is matches ErrNotFound.
func (e NotFoundError) Is(target error) bool { return target == ErrNotFound }

// AlreadyExistsError reports an active schedule already held by the person.
type AlreadyExistsError struct {
	Kind      Kind
	PersonID  string
	Reference string
}

func (e AlreadyExistsError) Error() string {
	if e.Reference == "" {
		return fmt.Sprintf("active %s schedule already exists for prisoner %s", e.Kind, e.PersonID)
	}
	return fmt.Sprintf("active %s schedule %s already exists for prisoner %s", e.Kind, e.Reference, e.PersonID)
}

// Is matches ErrAlreadyExists.
func (e AlreadyExistsError) Is(target error) bool { return target == ErrAlreadyExists }

// NoReleaseDateForSentenceTypeError is raised when the sentence type needs a
// release date to calculate a review window and none is recorded.
type NoReleaseDateForSentenceTypeError struct {
	PersonID     string
	SentenceType string
}

func (e NoReleaseDateForSentenceTypeError) Error() string {
	return fmt.Sprintf("prisoner %s has no release date for sentence type %s", e.PersonID, e.SentenceType)
}

// Is matches ErrPrecondition.
func (e NoReleaseDateForSentenceTypeError) Is(target error) bool { return target == ErrPrecondition }

// InvalidEventError is an inbound event that cannot be interpreted.
type InvalidEventError struct {
	Reason string
}

func (e InvalidEventError) Error() string { return "invalid event: " + e.Reason }

// Is matches ErrPrecondition.
func (e InvalidEventError) Is(target error) bool { return target == ErrPrecondition }

// TransientError wraps a retryable failure from a dependency.
type TransientError struct {
	Op  string
	Err error
}

func (e TransientError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap exposes the underlying failure.
func (e TransientError) Unwrap() error { return e.Err }

// Is matches ErrTransient.
func (e TransientError) Is(target error) bool { return target == ErrTransient }

// InvariantViolationError reports a second active schedule being written.
type InvariantViolationError struct {
	Kind     Kind
	PersonID string
	Detail   string
}

func (e InvariantViolationError) Error() string {
	return fmt.Sprintf("invariant violation for %s schedule of prisoner %s: %s", e.Kind, e.PersonID, e.Detail)
}

// Is matches ErrInvariantViolation.
func (e InvariantViolationError) Is(target error) bool { return target == ErrInvariantViolation }

// IsRetryable reports whether err should lead to redelivery rather than an
// acknowledgement.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransient) || errors.Is(err, ErrVersionConflict)
}
