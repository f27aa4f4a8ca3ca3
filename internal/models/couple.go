package models

import "time"

// Couple pairs an owner with a partner under a shareable code.
type Couple struct {
	ID        string `gorm:"primaryKey"`
	Code      string `gorm:"not null;uniqueIndex"`
	OwnerID   string `gorm:"not null;uniqueIndex"`
	PartnerID string `gorm:"not null;default:''"`
	PairedAt  *time.Time
	CreatedAt time.Time
}

func (couple Couple) HasPartner() bool {
	return couple.PartnerID != ""
}
