package models

import "time"

// CycleProfile is the owner's current cycle configuration. Revision grows
// by one on every save and versions the projections derived from it.
type CycleProfile struct {
	ID             uint      `gorm:"primaryKey"`
	OwnerID        string    `gorm:"not null;uniqueIndex"`
	LastPeriodDate time.Time `gorm:"type:date;not null"`
	CycleLength    int       `gorm:"not null"`
	PeriodLength   int       `gorm:"not null"`
	Revision       int64     `gorm:"not null;default:0"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
