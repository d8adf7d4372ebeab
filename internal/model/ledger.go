package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Common ledger categories. Category is free text; these are the ones the
// service writes itself.
const (
	CategoryRent    = "rent"
	CategoryBooking = "booking"
)

// LedgerEntry is one signed financial record: positive amounts are income,
// negative amounts are expenses. Entries are append-only.
type LedgerEntry struct {
	ID          string          `gorm:"primaryKey;size:36" json:"id"`
	Date        time.Time       `gorm:"not null;index" json:"date"`
	Category    string          `gorm:"size:64;not null;index" json:"category"`
	Amount      decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	Description string          `gorm:"size:1024" json:"description"`
	RoomID      *string         `gorm:"index;size:32" json:"roomId,omitempty"`
	BookingID   *string         `gorm:"index;size:36" json:"bookingId,omitempty"`
	CreatedAt   time.Time       `json:"-"`
}
