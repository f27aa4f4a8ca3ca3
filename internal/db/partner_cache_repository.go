package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/terraincognita07/duet/internal/fertility"
	"github.com/terraincognita07/duet/internal/models"
	"github.com/terraincognita07/duet/internal/partnercache"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PartnerCacheRepository is the sqlite-backed partnercache.Storage.
type PartnerCacheRepository struct {
	database *gorm.DB
}

var _ partnercache.Storage = (*PartnerCacheRepository)(nil)

func NewPartnerCacheRepository(database *gorm.DB) *PartnerCacheRepository {
	return &PartnerCacheRepository{database: database}
}

func (repo *PartnerCacheRepository) Load(ctx context.Context, key string) (partnercache.Entry, bool, error) {
	var row models.PartnerCacheEntry
	result := repo.database.WithContext(ctx).Where("cache_key = ?", key).First(&row)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return partnercache.Entry{}, false, nil
	}
	if result.Error != nil {
		return partnercache.Entry{}, false, result.Error
	}

	var projection fertility.Projection
	if err := json.Unmarshal([]byte(row.Payload), &projection); err != nil {
		return partnercache.Entry{}, false, fmt.Errorf("decode cached projection: %w", err)
	}
	return partnercache.Entry{
		Version:    row.Version,
		Projection: projection,
		CachedAt:   row.CachedAt,
	}, true, nil
}

func (repo *PartnerCacheRepository) Save(ctx context.Context, key string, entry partnercache.Entry) error {
	payload, err := json.Marshal(entry.Projection)
	if err != nil {
		return fmt.Errorf("encode projection: %w", err)
	}
	row := models.PartnerCacheEntry{
		CacheKey: key,
		Version:  entry.Version,
		Payload:  string(payload),
		CachedAt: entry.CachedAt,
	}
	return repo.database.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "cache_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"version", "payload", "cached_at", "updated_at"}),
	}).Create(&row).Error
}

func (repo *PartnerCacheRepository) Delete(ctx context.Context, key string) error {
	return repo.database.WithContext(ctx).Where("cache_key = ?", key).Delete(&models.PartnerCacheEntry{}).Error
}
