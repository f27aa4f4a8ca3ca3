package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/terraincognita07/duet/internal/config"
	"github.com/terraincognita07/duet/internal/fertility"
	"github.com/terraincognita07/duet/internal/keylock"
	"github.com/terraincognita07/duet/internal/models"
)

var (
	ErrCycleNotConfigured  = errors.New("cycle not configured")
	ErrCoupleNotFound      = errors.New("couple not found")
	ErrCoupleAccessDenied  = errors.New("viewer is not a member of this couple")
	ErrHorizonOutOfRange   = errors.New("horizon out of range")
	ErrCycleLoadFailed     = errors.New("load cycle profile failed")
	ErrCycleSaveFailed     = errors.New("save cycle profile failed")
	ErrCoupleLookupFailed  = errors.New("couple lookup failed")
	ErrProjectionUndefined = errors.New("stored profile cannot be projected")
)

const maxRequestedHorizon = 24

type CycleProfileRepository interface {
	FindByOwnerID(ctx context.Context, ownerID string) (models.CycleProfile, bool, error)
	Upsert(ctx context.Context, profile models.CycleProfile) (models.CycleProfile, error)
	RecordPeriodStart(ctx context.Context, entry *models.CycleHistory, profile models.CycleProfile) (models.CycleProfile, error)
}

type CycleHistoryRepository interface {
	LatestByOwner(ctx context.Context, ownerID string) (models.CycleHistory, bool, error)
	FindByID(ctx context.Context, ownerID string, historyID string) (models.CycleHistory, bool, error)
	ListByOwner(ctx context.Context, ownerID string, limit int) ([]models.CycleHistory, error)
	MeasuredLengths(ctx context.Context, ownerID string, limit int) ([]int, error)
	SetPeriodEnd(ctx context.Context, ownerID string, historyID string, end time.Time) (bool, error)
}

type CoupleLookup interface {
	FindByCode(ctx context.Context, code string) (models.Couple, bool, error)
	FindByMember(ctx context.Context, userID string) (models.Couple, bool, error)
}

// CycleProfileView is the stored profile as callers see it. Revision is
// the version of every projection derived from it.
type CycleProfileView struct {
	OwnerID        string         `json:"owner_id"`
	LastPeriodDate fertility.Date `json:"last_period_date"`
	CycleLength    int            `json:"cycle_length"`
	PeriodLength   int            `json:"period_length"`
	Revision       int64          `json:"revision"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

func (view CycleProfileView) Profile() fertility.Profile {
	return fertility.Profile{
		LastPeriodDate: view.LastPeriodDate,
		CycleLength:    view.CycleLength,
		PeriodLength:   view.PeriodLength,
	}
}

func profileView(profile models.CycleProfile) CycleProfileView {
	return CycleProfileView{
		OwnerID:        profile.OwnerID,
		LastPeriodDate: fertility.DateOf(profile.LastPeriodDate.UTC()),
		CycleLength:    profile.CycleLength,
		PeriodLength:   profile.PeriodLength,
		Revision:       profile.Revision,
		UpdatedAt:      profile.UpdatedAt,
	}
}

type CycleService struct {
	profiles CycleProfileRepository
	history  CycleHistoryRepository
	couples  CoupleLookup
	bounds   config.CycleBounds
	params   fertility.Params
	horizon  int
	location *time.Location
	now      func() time.Time
	locks    keylock.Locker
}

func NewCycleService(profiles CycleProfileRepository, history CycleHistoryRepository, couples CoupleLookup, cfg config.Config, location *time.Location) *CycleService {
	if location == nil {
		location = time.UTC
	}
	return &CycleService{
		profiles: profiles,
		history:  history,
		couples:  couples,
		bounds:   cfg.Cycle,
		params:   cfg.FertilityParams(),
		horizon:  cfg.Fertility.HorizonCycles,
		location: location,
		now:      time.Now,
	}
}

func (service *CycleService) today() fertility.Date {
	return fertility.DateIn(service.now(), service.location)
}

// SaveCycle validates input and overwrites the owner's profile. Saves for
// the same owner are serialized; the last one wins.
func (service *CycleService) SaveCycle(ctx context.Context, ownerID string, input CycleInput) (CycleProfileView, error) {
	ownerID, err := normalizeOwnerID(ownerID)
	if err != nil {
		return CycleProfileView{}, err
	}
	profile, err := ValidateCycleProfile(input, service.today(), service.bounds, service.params)
	if err != nil {
		return CycleProfileView{}, err
	}

	unlock := service.locks.Lock(ownerID)
	defer unlock()

	saved, err := service.profiles.Upsert(ctx, models.CycleProfile{
		OwnerID:        ownerID,
		LastPeriodDate: profile.LastPeriodDate.Time(time.UTC),
		CycleLength:    profile.CycleLength,
		PeriodLength:   profile.PeriodLength,
	})
	if err != nil {
		return CycleProfileView{}, fmt.Errorf("%w: %v", ErrCycleSaveFailed, err)
	}
	return profileView(saved), nil
}

func (service *CycleService) GetCycle(ctx context.Context, ownerID string) (CycleProfileView, error) {
	ownerID, err := normalizeOwnerID(ownerID)
	if err != nil {
		return CycleProfileView{}, err
	}
	profile, found, err := service.profiles.FindByOwnerID(ctx, ownerID)
	if err != nil {
		return CycleProfileView{}, fmt.Errorf("%w: %v", ErrCycleLoadFailed, err)
	}
	if !found {
		return CycleProfileView{}, ErrCycleNotConfigured
	}
	return profileView(profile), nil
}

// FertilityRequest names whose projection is wanted and who is asking.
// Either OwnerID or CoupleCode selects the profile; when both are empty the
// viewer's own couple is used.
type FertilityRequest struct {
	OwnerID     string
	CoupleCode  string
	ViewerID    string
	Role        Role
	Entitlement Entitlement
	Horizon     int
}

// VisibleProjection is a projection after the viewer filter. A gated
// response carries empty date sets and Visible=false.
type VisibleProjection struct {
	Visible bool  `json:"visible"`
	Gated   bool  `json:"gated"`
	Version int64 `json:"version"`
	Horizon int   `json:"horizon"`
	fertility.Projection
}

func (service *CycleService) GetFertility(ctx context.Context, request FertilityRequest) (VisibleProjection, error) {
	if request.Horizon < 0 || request.Horizon > maxRequestedHorizon {
		return VisibleProjection{}, invalid("horizon", ErrHorizonOutOfRange)
	}
	view, err := service.resolveProfile(ctx, request)
	if err != nil {
		return VisibleProjection{}, err
	}

	profile := view.Profile()
	horizon := request.Horizon
	if horizon == 0 {
		horizon = service.horizon
	}
	if minimum := fertility.HorizonFor(profile, service.today(), 1); horizon < minimum {
		horizon = minimum
	}

	projection, err := fertility.Project(profile, horizon, service.params)
	if err != nil {
		return VisibleProjection{}, fmt.Errorf("%w: %v", ErrProjectionUndefined, err)
	}

	filtered, visible := FilterProjection(projection, request.Role, request.Entitlement)
	return VisibleProjection{
		Visible:    visible,
		Gated:      !visible,
		Version:    view.Revision,
		Horizon:    horizon,
		Projection: filtered,
	}, nil
}

// VisiblePrediction is nil-Prediction when gated.
type VisiblePrediction struct {
	Visible    bool                  `json:"visible"`
	Gated      bool                  `json:"gated"`
	Version    int64                 `json:"version"`
	Prediction *fertility.Prediction `json:"prediction"`
}

func (service *CycleService) GetPredictions(ctx context.Context, request FertilityRequest) (VisiblePrediction, error) {
	view, err := service.resolveProfile(ctx, request)
	if err != nil {
		return VisiblePrediction{}, err
	}
	if !CanViewFertility(request.Role, request.Entitlement) {
		return VisiblePrediction{Gated: true, Version: view.Revision}, nil
	}

	prediction, err := fertility.Predict(view.Profile(), service.today(), service.params)
	if err != nil {
		return VisiblePrediction{}, fmt.Errorf("%w: %v", ErrProjectionUndefined, err)
	}
	return VisiblePrediction{Visible: true, Version: view.Revision, Prediction: &prediction}, nil
}

func (service *CycleService) resolveProfile(ctx context.Context, request FertilityRequest) (CycleProfileView, error) {
	ownerID, err := service.resolveOwnerID(ctx, request)
	if err != nil {
		return CycleProfileView{}, err
	}
	return service.GetCycle(ctx, ownerID)
}

func (service *CycleService) resolveOwnerID(ctx context.Context, request FertilityRequest) (string, error) {
	if request.CoupleCode == "" && request.OwnerID != "" {
		if request.ViewerID != "" && request.ViewerID != request.OwnerID {
			return "", ErrCoupleAccessDenied
		}
		return request.OwnerID, nil
	}

	var (
		couple models.Couple
		found  bool
		err    error
	)
	switch {
	case request.CoupleCode != "":
		couple, found, err = service.couples.FindByCode(ctx, request.CoupleCode)
	case request.ViewerID != "":
		couple, found, err = service.couples.FindByMember(ctx, request.ViewerID)
	default:
		return "", invalid("owner_id", ErrOwnerIDRequired)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrCoupleLookupFailed, err)
	}
	if !found {
		return "", ErrCoupleNotFound
	}

	if request.ViewerID != "" && !isCoupleMember(couple, request.ViewerID, request.Role) {
		return "", ErrCoupleAccessDenied
	}
	return couple.OwnerID, nil
}

func isCoupleMember(couple models.Couple, viewerID string, role Role) bool {
	switch role {
	case RoleOwner:
		return couple.OwnerID == viewerID
	case RolePartner:
		return couple.HasPartner() && couple.PartnerID == viewerID
	default:
		return false
	}
}

// VisibleCycle wraps a profile read on behalf of a viewer. Partners without
// fertility access learn only that a profile exists.
type VisibleCycle struct {
	Visible bool              `json:"visible"`
	Gated   bool              `json:"gated"`
	Version int64             `json:"version"`
	Profile *CycleProfileView `json:"profile"`
}

func (service *CycleService) ViewCycle(ctx context.Context, request FertilityRequest) (VisibleCycle, error) {
	view, err := service.resolveProfile(ctx, request)
	if err != nil {
		return VisibleCycle{}, err
	}
	if !CanViewFertility(request.Role, request.Entitlement) {
		return VisibleCycle{Gated: true, Version: view.Revision}, nil
	}
	return VisibleCycle{Visible: true, Version: view.Revision, Profile: &view}, nil
}
