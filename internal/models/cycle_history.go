package models

import "time"

type CycleHistory struct {
	ID             string     `gorm:"primaryKey"`
	OwnerID        string     `gorm:"not null;index"`
	PeriodStart    time.Time  `gorm:"type:date;not null"`
	PeriodEnd      *time.Time `gorm:"type:date"`
	CycleLength    *int
	ExpectedLength int `gorm:"not null;default:0"`
	DaysDifference *int
	Notes          string
	CreatedAt      time.Time
}

func (CycleHistory) TableName() string {
	return "cycle_history"
}
