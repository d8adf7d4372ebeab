package model

import "time"

// Tenant is a long-term occupant of a room.
type Tenant struct {
	ID        string     `gorm:"primaryKey;size:36" json:"id"`
	RoomID    string     `gorm:"index;size:32;not null" json:"roomId"`
	Name      string     `gorm:"size:256;not null" json:"name"`
	Email     string     `gorm:"size:256" json:"email"`
	Phone     string     `gorm:"size:64" json:"phone,omitempty"`
	MoveIn    time.Time  `gorm:"not null" json:"moveIn"`
	MoveOut   *time.Time `json:"moveOut,omitempty"`
	CreatedAt time.Time  `json:"-"`
	UpdatedAt time.Time  `json:"-"`
}

// ActiveOn reports whether the tenant occupies the room on the given day.
func (t Tenant) ActiveOn(day time.Time) bool {
	if day.Before(t.MoveIn) {
		return false
	}
	return t.MoveOut == nil || day.Before(*t.MoveOut)
}
