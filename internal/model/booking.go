package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// BookingStatus is the lifecycle position of a guest booking.
type BookingStatus string

const (
	BookingPending    BookingStatus = "Pending"
	BookingConfirmed  BookingStatus = "Confirmed"
	BookingCheckedIn  BookingStatus = "CheckedIn"
	BookingCheckedOut BookingStatus = "CheckedOut"
	BookingCancelled  BookingStatus = "Cancelled"
)

// Blocking reports whether a booking in this status makes its room unavailable.
func (s BookingStatus) Blocking() bool {
	return s == BookingConfirmed || s == BookingCheckedIn
}

// Terminal reports whether no further transition is possible.
func (s BookingStatus) Terminal() bool {
	return s == BookingCheckedOut || s == BookingCancelled
}

// Booking is a short-stay reservation of a guest room over [CheckIn, CheckOut).
type Booking struct {
	ID         string          `gorm:"primaryKey;size:36" json:"id"`
	RoomID     string          `gorm:"index;size:32;not null" json:"roomId"`
	GuestName  string          `gorm:"size:256;not null" json:"guestName"`
	GuestEmail string          `gorm:"size:256" json:"guestEmail"`
	GuestPhone string          `gorm:"size:64" json:"guestPhone,omitempty"`
	Guests     int             `gorm:"not null;default:1" json:"guests"`
	CheckIn    time.Time       `gorm:"not null;index" json:"checkIn"`
	CheckOut   time.Time       `gorm:"not null" json:"checkOut"`
	Total      decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total"`
	Paid       decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"paid"`
	Status     BookingStatus   `gorm:"size:16;not null;index" json:"status"`
	Source     string          `gorm:"size:64" json:"source,omitempty"`
	Notes      string          `gorm:"size:1024" json:"notes,omitempty"`
	Version    int64           `gorm:"not null;default:0" json:"version"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// Balance is the amount still owed on the booking.
func (b Booking) Balance() decimal.Decimal {
	return b.Total.Sub(b.Paid)
}
