package db

import (
	"context"
	"errors"
	"time"

	"github.com/terraincognita07/duet/internal/models"
	"gorm.io/gorm"
)

type CycleHistoryRepository struct {
	database *gorm.DB
}

func NewCycleHistoryRepository(database *gorm.DB) *CycleHistoryRepository {
	return &CycleHistoryRepository{database: database}
}

func (repo *CycleHistoryRepository) LatestByOwner(ctx context.Context, ownerID string) (models.CycleHistory, bool, error) {
	var entry models.CycleHistory
	result := repo.database.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("period_start DESC, created_at DESC").
		First(&entry)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return models.CycleHistory{}, false, nil
	}
	if result.Error != nil {
		return models.CycleHistory{}, false, result.Error
	}
	return entry, true, nil
}

func (repo *CycleHistoryRepository) FindByID(ctx context.Context, ownerID string, historyID string) (models.CycleHistory, bool, error) {
	var entry models.CycleHistory
	result := repo.database.WithContext(ctx).Where("id = ? AND owner_id = ?", historyID, ownerID).First(&entry)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return models.CycleHistory{}, false, nil
	}
	if result.Error != nil {
		return models.CycleHistory{}, false, result.Error
	}
	return entry, true, nil
}

// ListByOwner returns the newest limit entries, newest first.
func (repo *CycleHistoryRepository) ListByOwner(ctx context.Context, ownerID string, limit int) ([]models.CycleHistory, error) {
	entries := make([]models.CycleHistory, 0)
	if err := repo.database.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("period_start DESC, created_at DESC").
		Limit(limit).
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// MeasuredLengths returns the newest limit measured cycle lengths.
func (repo *CycleHistoryRepository) MeasuredLengths(ctx context.Context, ownerID string, limit int) ([]int, error) {
	var rows []struct {
		CycleLength int `gorm:"column:cycle_length"`
	}
	if err := repo.database.WithContext(ctx).
		Model(&models.CycleHistory{}).
		Select("cycle_length").
		Where("owner_id = ? AND cycle_length IS NOT NULL", ownerID).
		Order("period_start DESC").
		Limit(limit).
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	lengths := make([]int, 0, len(rows))
	for _, row := range rows {
		lengths = append(lengths, row.CycleLength)
	}
	return lengths, nil
}

// SetPeriodEnd reports false when no entry of ownerID has historyID.
func (repo *CycleHistoryRepository) SetPeriodEnd(ctx context.Context, ownerID string, historyID string, end time.Time) (bool, error) {
	result := repo.database.WithContext(ctx).
		Model(&models.CycleHistory{}).
		Where("id = ? AND owner_id = ?", historyID, ownerID).
		Update("period_end", end)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
