package db

import "gorm.io/gorm"

type Repositories struct {
	CycleProfiles *CycleProfileRepository
	CycleHistory  *CycleHistoryRepository
	Couples       *CoupleRepository
}

func NewRepositories(database *gorm.DB) *Repositories {
	return &Repositories{
		CycleProfiles: NewCycleProfileRepository(database),
		CycleHistory:  NewCycleHistoryRepository(database),
		Couples:       NewCoupleRepository(database),
	}
}
