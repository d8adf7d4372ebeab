// Package errs defines the error kinds raised by the domain engines.
//
// Each kind is a struct carrying enough context for the adapter layer to
// present it, and matches its sentinel through errors.Is.
package errs

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidRange      = errors.New("invalid date range")
	ErrInvalidRule       = errors.New("invalid pricing rule")
	ErrInvalidTransition = errors.New("invalid booking status transition")
	ErrNotFound          = errors.New("not found")
)

// InvalidRangeError reports an interval whose end is not after its start.
type InvalidRangeError struct {
	Start time.Time
	End   time.Time
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid date range: %s must be after %s",
		e.End.Format(time.DateOnly), e.Start.Format(time.DateOnly))
}

func (e *InvalidRangeError) Is(target error) bool { return target == ErrInvalidRange }

// InvalidRuleError reports a pricing rule whose payload cannot be interpreted.
type InvalidRuleError struct {
	Rule   string
	Field  string
	Value  string
	Reason string
}

func (e *InvalidRuleError) Error() string {
	msg := fmt.Sprintf("invalid pricing rule %q: %s %q", e.Rule, e.Field, e.Value)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *InvalidRuleError) Is(target error) bool { return target == ErrInvalidRule }

// InvalidTransitionError reports an illegal booking status change.
type InvalidTransitionError struct {
	BookingID string
	From      string
	To        string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("booking %s: cannot move from %s to %s", e.BookingID, e.From, e.To)
}

func (e *InvalidTransitionError) Is(target error) bool { return target == ErrInvalidTransition }

// NotFoundError reports a room, booking or tenant id absent from a snapshot.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// NotFound is shorthand for building a NotFoundError.
func NotFound(kind, id string) error {
	return &NotFoundError{Kind: kind, ID: id}
}
