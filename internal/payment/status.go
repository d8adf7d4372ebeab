// Package payment derives per-room rent status from the last payment date.
package payment

import (
	"time"

	"property-ops-backend/internal/dates"
	"property-ops-backend/internal/model"
)

// StatusAt derives the rent status of a room as of now.
//
// Rooms that are not Occupied are NotApplicable. An occupied room is Paid when
// the last payment falls on or after the first of now's month, Due when it
// falls in the previous month, and Overdue otherwise, including when it has
// never been paid.
func StatusAt(occupancy model.Occupancy, lastPayment *time.Time, now time.Time) model.PaymentStatus {
	if occupancy != model.OccupancyOccupied {
		return model.PaymentNotApplicable
	}
	if lastPayment == nil {
		return model.PaymentOverdue
	}
	paid := lastPayment.In(now.Location())
	switch {
	case !paid.Before(dates.FirstOfMonth(now)):
		return model.PaymentPaid
	case !paid.Before(dates.FirstOfPreviousMonth(now)):
		return model.PaymentDue
	default:
		return model.PaymentOverdue
	}
}

// RoomStatus pairs a room with its persisted and freshly derived status.
type RoomStatus struct {
	RoomID   string
	Previous model.PaymentStatus
	Current  model.PaymentStatus
}

// Changed reports whether the derived status differs from the persisted one.
func (r RoomStatus) Changed() bool {
	return r.Previous != r.Current
}

// Engine evaluates rooms against an injectable clock.
type Engine struct {
	now func() time.Time
}

// NewEngine returns an engine reading the time from now; nil means time.Now.
func NewEngine(now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{now: now}
}

// Status derives one room's status at the engine's current time.
func (e *Engine) Status(occupancy model.Occupancy, lastPayment *time.Time) model.PaymentStatus {
	return StatusAt(occupancy, lastPayment, e.now())
}

// Evaluate derives the status of every room in the snapshot, in input order.
// Each room is evaluated independently.
func (e *Engine) Evaluate(rooms []model.Room) []RoomStatus {
	now := e.now()
	out := make([]RoomStatus, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, RoomStatus{
			RoomID:   r.ID,
			Previous: r.PaymentStatus,
			Current:  StatusAt(r.Occupancy, r.LastPaymentDate, now),
		})
	}
	return out
}

// Filter returns the ids of statuses whose current value is one of want.
func Filter(statuses []RoomStatus, want ...model.PaymentStatus) []string {
	var ids []string
	for _, s := range statuses {
		for _, w := range want {
			if s.Current == w {
				ids = append(ids, s.RoomID)
				break
			}
		}
	}
	return ids
}
