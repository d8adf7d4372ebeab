// Package store is the tabular store adapter: it loads snapshots of rooms,
// tenants, bookings, ledger entries and pricing rules for the engines, and
// persists the results they produce.
package store

import (
	"context"
	"errors"
	"time"

	"property-ops-backend/internal/model"
)

// ErrStaleWrite is returned when an optimistic update finds the row at a
// different version than the caller read.
var ErrStaleWrite = errors.New("stale write: record was modified concurrently")

// ErrDuplicate is returned when creating a record whose id already exists.
var ErrDuplicate = errors.New("record already exists")

// Store defines every read and write the service performs against the
// tabular data. Reads return copies; callers never see partially updated rows.
type Store interface {
	ListRooms(ctx context.Context) ([]model.Room, error)
	GetRoom(ctx context.Context, id string) (model.Room, error)
	ListTenants(ctx context.Context) ([]model.Tenant, error)
	ListBookings(ctx context.Context) ([]model.Booking, error)
	GetBooking(ctx context.Context, id string) (model.Booking, error)
	// ListLedgerEntries returns entries dated within [start, end], both days inclusive.
	ListLedgerEntries(ctx context.Context, start, end time.Time) ([]model.LedgerEntry, error)
	ListPricingRules(ctx context.Context) ([]model.PricingRule, error)

	WriteRoomStatus(ctx context.Context, roomID string, status model.PaymentStatus) error
	UpdateRoomOccupancy(ctx context.Context, roomID string, occ model.Occupancy, occupantID *string) error
	// RecordRoomPayment appends entry and moves the room's last payment date
	// forward to paidOn. An older paidOn leaves the date unchanged.
	RecordRoomPayment(ctx context.Context, roomID string, paidOn time.Time, entry model.LedgerEntry) (model.Room, error)
	AppendLedgerEntry(ctx context.Context, entry model.LedgerEntry) error

	CreateBooking(ctx context.Context, b model.Booking) error
	// UpdateBookingStatus moves booking id to status if it is still at version.
	UpdateBookingStatus(ctx context.Context, id string, version int64, status model.BookingStatus) (model.Booking, error)
	// MoveGuest moves booking id to status and sets the occupancy of the
	// booking's room in the same write; if either fails neither is kept.
	MoveGuest(ctx context.Context, id string, version int64, status model.BookingStatus, occ model.Occupancy, occupantID *string) (model.Booking, error)
	// RecordBookingPayment adds entry.Amount to the booking's paid amount and
	// appends entry, provided the booking is still at version.
	RecordBookingPayment(ctx context.Context, id string, version int64, entry model.LedgerEntry) (model.Booking, error)

	SaveSubscription(ctx context.Context, sub model.PushSubscription) error
	GetSubscription(ctx context.Context, endpoint string) (model.PushSubscription, error)
	DeleteSubscription(ctx context.Context, endpoint string) error
	ListSubscriptions(ctx context.Context) ([]model.PushSubscription, error)
}

// LedgerBounds turns an inclusive day range into the half-open instant range
// [from, to) used by queries.
func LedgerBounds(start, end time.Time) (time.Time, time.Time) {
	y, m, d := start.Date()
	from := time.Date(y, m, d, 0, 0, 0, 0, start.Location())
	y, m, d = end.Date()
	to := time.Date(y, m, d+1, 0, 0, 0, 0, end.Location())
	return from, to
}
