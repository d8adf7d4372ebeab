package model

// PricingRule is a stored rate-adjustment rule as entered by the operator.
// The free-text Type, Condition and Adjustment columns are validated into a
// typed rule by the pricing package when rules are loaded.
type PricingRule struct {
	ID         int64  `gorm:"primaryKey" json:"id"`
	Name       string `gorm:"uniqueIndex;size:128;not null" json:"name"`
	Type       string `gorm:"size:32;not null" json:"type"`
	Condition  string `gorm:"size:256" json:"condition"`
	Adjustment string `gorm:"size:32;not null" json:"adjustment"`
	Priority   int    `gorm:"not null;default:0" json:"priority"`
	Active     bool   `gorm:"not null" json:"active"`
}
