package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/terraincognita07/duet/internal/models"
	"github.com/terraincognita07/duet/internal/security"
)

var (
	ErrPartnerIDRequired   = errors.New("partner id is required")
	ErrPartnerIsOwner      = errors.New("partner must differ from owner")
	ErrAlreadyPaired       = errors.New("owner is already paired")
	ErrCoupleCodeExhausted = errors.New("could not allocate a unique couple code")
)

const coupleCodeAttempts = 5

type CoupleRepository interface {
	Create(ctx context.Context, couple *models.Couple) error
	FindByCode(ctx context.Context, code string) (models.Couple, bool, error)
	FindByOwnerID(ctx context.Context, ownerID string) (models.Couple, bool, error)
}

type CoupleService struct {
	couples CoupleRepository
	now     func() time.Time
}

func NewCoupleService(couples CoupleRepository) *CoupleService {
	return &CoupleService{couples: couples, now: time.Now}
}

// Pair links partnerID to ownerID under a freshly generated couple code.
func (service *CoupleService) Pair(ctx context.Context, ownerID string, partnerID string) (models.Couple, error) {
	ownerID, err := normalizeOwnerID(ownerID)
	if err != nil {
		return models.Couple{}, err
	}
	partnerID = strings.TrimSpace(partnerID)
	if partnerID == "" {
		return models.Couple{}, invalid("partner_id", ErrPartnerIDRequired)
	}
	if partnerID == ownerID {
		return models.Couple{}, invalid("partner_id", ErrPartnerIsOwner)
	}

	if _, paired, err := service.couples.FindByOwnerID(ctx, ownerID); err != nil {
		return models.Couple{}, fmt.Errorf("%w: %v", ErrCoupleLookupFailed, err)
	} else if paired {
		return models.Couple{}, ErrAlreadyPaired
	}

	code, err := service.unusedCode(ctx)
	if err != nil {
		return models.Couple{}, err
	}

	pairedAt := service.now().UTC()
	couple := models.Couple{
		ID:        uuid.NewString(),
		Code:      code,
		OwnerID:   ownerID,
		PartnerID: partnerID,
		PairedAt:  &pairedAt,
	}
	if err := service.couples.Create(ctx, &couple); err != nil {
		return models.Couple{}, fmt.Errorf("create couple: %w", err)
	}
	return couple, nil
}

func (service *CoupleService) unusedCode(ctx context.Context) (string, error) {
	for attempt := 0; attempt < coupleCodeAttempts; attempt++ {
		code, err := security.NewCoupleCode()
		if err != nil {
			return "", fmt.Errorf("generate couple code: %w", err)
		}
		_, taken, err := service.couples.FindByCode(ctx, code)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrCoupleLookupFailed, err)
		}
		if !taken {
			return code, nil
		}
	}
	return "", ErrCoupleCodeExhausted
}
