// Package booking owns the guest booking lifecycle: intake validation,
// construction of new bookings and the status state machine.
package booking

import (
	"property-ops-backend/internal/errs"
	"property-ops-backend/internal/model"
)

var transitions = map[model.BookingStatus][]model.BookingStatus{
	model.BookingPending:   {model.BookingConfirmed, model.BookingCancelled},
	model.BookingConfirmed: {model.BookingCheckedIn, model.BookingCancelled},
	model.BookingCheckedIn: {model.BookingCheckedOut},
}

// CanTransition reports whether a booking may move from one status to another.
func CanTransition(from, to model.BookingStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Transition returns a copy of b moved to status to. The argument is never
// modified; on failure the returned error is an *errs.InvalidTransitionError.
func Transition(b model.Booking, to model.BookingStatus) (model.Booking, error) {
	if !CanTransition(b.Status, to) {
		return b, &errs.InvalidTransitionError{BookingID: b.ID, From: string(b.Status), To: string(to)}
	}
	b.Status = to
	return b, nil
}

// Action is an operator command on a booking.
type Action string

const (
	ActionConfirm  Action = "confirm"
	ActionCheckIn  Action = "check-in"
	ActionCheckOut Action = "check-out"
	ActionCancel   Action = "cancel"
)

// Target maps an action to the status it moves a booking into.
func (a Action) Target() (model.BookingStatus, bool) {
	switch a {
	case ActionConfirm:
		return model.BookingConfirmed, true
	case ActionCheckIn:
		return model.BookingCheckedIn, true
	case ActionCheckOut:
		return model.BookingCheckedOut, true
	case ActionCancel:
		return model.BookingCancelled, true
	}
	return "", false
}
