package model

import "time"

// PushSubscription holds a manager's browser push subscription.
type PushSubscription struct {
	Endpoint  string    `gorm:"primaryKey" json:"endpoint"`
	P256DH    string    `gorm:"column:p256dh;not null" json:"p256dh"`
	Auth      string    `gorm:"not null" json:"auth"`
	Label     string    `gorm:"size:128" json:"label,omitempty"`
	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
}
