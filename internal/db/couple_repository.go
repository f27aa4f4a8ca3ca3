package db

import (
	"context"
	"errors"
	"strings"

	"github.com/terraincognita07/duet/internal/models"
	"gorm.io/gorm"
)

type CoupleRepository struct {
	database *gorm.DB
}

func NewCoupleRepository(database *gorm.DB) *CoupleRepository {
	return &CoupleRepository{database: database}
}

func (repo *CoupleRepository) Create(ctx context.Context, couple *models.Couple) error {
	return repo.database.WithContext(ctx).Create(couple).Error
}

func (repo *CoupleRepository) FindByCode(ctx context.Context, code string) (models.Couple, bool, error) {
	return repo.findOne(ctx, "code = ?", strings.ToUpper(strings.TrimSpace(code)))
}

func (repo *CoupleRepository) FindByOwnerID(ctx context.Context, ownerID string) (models.Couple, bool, error) {
	return repo.findOne(ctx, "owner_id = ?", ownerID)
}

// FindByMember finds the couple a user belongs to as owner or partner.
func (repo *CoupleRepository) FindByMember(ctx context.Context, userID string) (models.Couple, bool, error) {
	return repo.findOne(ctx, "owner_id = ? OR partner_id = ?", userID, userID)
}

func (repo *CoupleRepository) findOne(ctx context.Context, query string, args ...any) (models.Couple, bool, error) {
	var couple models.Couple
	result := repo.database.WithContext(ctx).Where(query, args...).First(&couple)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return models.Couple{}, false, nil
	}
	if result.Error != nil {
		return models.Couple{}, false, result.Error
	}
	return couple, true, nil
}
