package model

import "time"

// Occupancy is the physical state of a room.
type Occupancy string

const (
	OccupancyVacant      Occupancy = "Vacant"
	OccupancyOccupied    Occupancy = "Occupied"
	OccupancyPending     Occupancy = "Pending"
	OccupancyMaintenance Occupancy = "Maintenance"
)

// Valid reports whether o is one of the known occupancy values.
func (o Occupancy) Valid() bool {
	switch o {
	case OccupancyVacant, OccupancyOccupied, OccupancyPending, OccupancyMaintenance:
		return true
	}
	return false
}

// RoomKind separates long-term tenancies from short-stay guest rooms.
type RoomKind string

const (
	RoomKindLongTerm RoomKind = "long_term"
	RoomKindGuest    RoomKind = "guest"
)

// PaymentStatus is the rent status derived for a room.
type PaymentStatus string

const (
	PaymentNotApplicable PaymentStatus = "NotApplicable"
	PaymentPaid          PaymentStatus = "Paid"
	PaymentDue           PaymentStatus = "Due"
	PaymentOverdue       PaymentStatus = "Overdue"
)

// Room is a rentable unit. PaymentStatus is the last derived value written back
// by the status refresh; it is never an input to the derivation.
type Room struct {
	ID              string        `gorm:"primaryKey;size:32" json:"id"`
	Name            string        `gorm:"size:128" json:"name"`
	Kind            RoomKind      `gorm:"size:16;not null;default:long_term" json:"kind"`
	BaseRate        float64       `gorm:"not null" json:"baseRate"`
	NegotiatedRate  *float64      `json:"negotiatedRate,omitempty"`
	Occupancy       Occupancy     `gorm:"size:16;not null;default:Vacant" json:"occupancy"`
	OccupantID      *string       `gorm:"size:36" json:"occupantId,omitempty"`
	LastPaymentDate *time.Time    `json:"lastPaymentDate,omitempty"`
	PaymentStatus   PaymentStatus `gorm:"size:16" json:"paymentStatus"`
	Version         int64         `gorm:"not null;default:0" json:"version"`
	CreatedAt       time.Time     `json:"-"`
	UpdatedAt       time.Time     `json:"-"`
}

// EffectiveRate is the rate used for billing: the negotiated rate when one is
// set, the base rate otherwise.
func (r Room) EffectiveRate() float64 {
	if r.NegotiatedRate != nil {
		return *r.NegotiatedRate
	}
	return r.BaseRate
}
