package db

import (
	"context"
	"errors"

	"github.com/terraincognita07/duet/internal/fertility"
	"github.com/terraincognita07/duet/internal/models"
	"gorm.io/gorm"
)

type CycleProfileRepository struct {
	database *gorm.DB
}

func NewCycleProfileRepository(database *gorm.DB) *CycleProfileRepository {
	return &CycleProfileRepository{database: database}
}

func (repo *CycleProfileRepository) FindByOwnerID(ctx context.Context, ownerID string) (models.CycleProfile, bool, error) {
	return findProfile(repo.database.WithContext(ctx), ownerID)
}

// Upsert overwrites the owner's profile and bumps its revision. Saving
// values identical to the stored ones leaves the revision untouched.
func (repo *CycleProfileRepository) Upsert(ctx context.Context, profile models.CycleProfile) (models.CycleProfile, error) {
	var saved models.CycleProfile
	err := repo.database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		saved, err = upsertProfile(tx, profile)
		return err
	})
	return saved, err
}

// RecordPeriodStart inserts a history entry and moves the profile to the
// new period in one transaction.
func (repo *CycleProfileRepository) RecordPeriodStart(ctx context.Context, entry *models.CycleHistory, profile models.CycleProfile) (models.CycleProfile, error) {
	var saved models.CycleProfile
	err := repo.database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(entry).Error; err != nil {
			return err
		}
		var err error
		saved, err = upsertProfile(tx, profile)
		return err
	})
	return saved, err
}

func findProfile(database *gorm.DB, ownerID string) (models.CycleProfile, bool, error) {
	var profile models.CycleProfile
	result := database.Where("owner_id = ?", ownerID).First(&profile)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return models.CycleProfile{}, false, nil
	}
	if result.Error != nil {
		return models.CycleProfile{}, false, result.Error
	}
	return profile, true, nil
}

func upsertProfile(tx *gorm.DB, profile models.CycleProfile) (models.CycleProfile, error) {
	existing, found, err := findProfile(tx, profile.OwnerID)
	if err != nil {
		return models.CycleProfile{}, err
	}
	if !found {
		profile.ID = 0
		profile.Revision = 1
		if err := tx.Create(&profile).Error; err != nil {
			return models.CycleProfile{}, err
		}
		return profile, nil
	}

	if sameCycleValues(existing, profile) {
		return existing, nil
	}

	existing.LastPeriodDate = profile.LastPeriodDate
	existing.CycleLength = profile.CycleLength
	existing.PeriodLength = profile.PeriodLength
	existing.Revision++
	if err := tx.Save(&existing).Error; err != nil {
		return models.CycleProfile{}, err
	}
	return existing, nil
}

func sameCycleValues(left models.CycleProfile, right models.CycleProfile) bool {
	return fertility.DateOf(left.LastPeriodDate.UTC()) == fertility.DateOf(right.LastPeriodDate.UTC()) &&
		left.CycleLength == right.CycleLength &&
		left.PeriodLength == right.PeriodLength
}
