package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/terraincognita07/duet/internal/config"
	"github.com/terraincognita07/duet/internal/fertility"
	"github.com/terraincognita07/duet/internal/models"
)

type cycleProfileRepositoryStub struct {
	mu       sync.Mutex
	profiles map[string]models.CycleProfile
	history  *cycleHistoryRepositoryStub
	saveErr  error
	saves    int
}

func newCycleProfileRepositoryStub(history *cycleHistoryRepositoryStub) *cycleProfileRepositoryStub {
	return &cycleProfileRepositoryStub{profiles: make(map[string]models.CycleProfile), history: history}
}

func (stub *cycleProfileRepositoryStub) FindByOwnerID(_ context.Context, ownerID string) (models.CycleProfile, bool, error) {
	stub.mu.Lock()
	defer stub.mu.Unlock()
	profile, ok := stub.profiles[ownerID]
	return profile, ok, nil
}

func (stub *cycleProfileRepositoryStub) Upsert(_ context.Context, profile models.CycleProfile) (models.CycleProfile, error) {
	stub.mu.Lock()
	defer stub.mu.Unlock()
	return stub.upsertLocked(profile)
}

func (stub *cycleProfileRepositoryStub) RecordPeriodStart(_ context.Context, entry *models.CycleHistory, profile models.CycleProfile) (models.CycleProfile, error) {
	stub.mu.Lock()
	defer stub.mu.Unlock()
	if stub.saveErr != nil {
		return models.CycleProfile{}, stub.saveErr
	}
	stub.history.add(*entry)
	return stub.upsertLocked(profile)
}

func (stub *cycleProfileRepositoryStub) upsertLocked(profile models.CycleProfile) (models.CycleProfile, error) {
	if stub.saveErr != nil {
		return models.CycleProfile{}, stub.saveErr
	}
	stub.saves++
	existing, ok := stub.profiles[profile.OwnerID]
	if ok && existing.LastPeriodDate.Equal(profile.LastPeriodDate) &&
		existing.CycleLength == profile.CycleLength && existing.PeriodLength == profile.PeriodLength {
		return existing, nil
	}
	profile.ID = existing.ID
	if !ok {
		profile.ID = uint(len(stub.profiles) + 1)
	}
	profile.Revision = existing.Revision + 1
	profile.UpdatedAt = time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	stub.profiles[profile.OwnerID] = profile
	return profile, nil
}

type cycleHistoryRepositoryStub struct {
	mu      sync.Mutex
	entries []models.CycleHistory
}

func (stub *cycleHistoryRepositoryStub) add(entry models.CycleHistory) {
	stub.mu.Lock()
	defer stub.mu.Unlock()
	stub.entries = append(stub.entries, entry)
}

func (stub *cycleHistoryRepositoryStub) newestFirst(ownerID string) []models.CycleHistory {
	owned := make([]models.CycleHistory, 0)
	for _, entry := range stub.entries {
		if entry.OwnerID == ownerID {
			owned = append(owned, entry)
		}
	}
	sort.SliceStable(owned, func(i, j int) bool {
		return owned[i].PeriodStart.After(owned[j].PeriodStart)
	})
	return owned
}

func (stub *cycleHistoryRepositoryStub) LatestByOwner(_ context.Context, ownerID string) (models.CycleHistory, bool, error) {
	stub.mu.Lock()
	defer stub.mu.Unlock()
	owned := stub.newestFirst(ownerID)
	if len(owned) == 0 {
		return models.CycleHistory{}, false, nil
	}
	return owned[0], true, nil
}

func (stub *cycleHistoryRepositoryStub) FindByID(_ context.Context, ownerID string, historyID string) (models.CycleHistory, bool, error) {
	stub.mu.Lock()
	defer stub.mu.Unlock()
	for _, entry := range stub.entries {
		if entry.ID == historyID && entry.OwnerID == ownerID {
			return entry, true, nil
		}
	}
	return models.CycleHistory{}, false, nil
}

func (stub *cycleHistoryRepositoryStub) ListByOwner(_ context.Context, ownerID string, limit int) ([]models.CycleHistory, error) {
	stub.mu.Lock()
	defer stub.mu.Unlock()
	owned := stub.newestFirst(ownerID)
	if len(owned) > limit {
		owned = owned[:limit]
	}
	return owned, nil
}

func (stub *cycleHistoryRepositoryStub) MeasuredLengths(_ context.Context, ownerID string, limit int) ([]int, error) {
	stub.mu.Lock()
	defer stub.mu.Unlock()
	lengths := make([]int, 0)
	for _, entry := range stub.newestFirst(ownerID) {
		if entry.CycleLength != nil && len(lengths) < limit {
			lengths = append(lengths, *entry.CycleLength)
		}
	}
	return lengths, nil
}

func (stub *cycleHistoryRepositoryStub) SetPeriodEnd(_ context.Context, ownerID string, historyID string, end time.Time) (bool, error) {
	stub.mu.Lock()
	defer stub.mu.Unlock()
	for index := range stub.entries {
		if stub.entries[index].ID == historyID && stub.entries[index].OwnerID == ownerID {
			stub.entries[index].PeriodEnd = &end
			return true, nil
		}
	}
	return false, nil
}

type coupleRepositoryStub struct {
	couples   []models.Couple
	lookupErr error
}

func (stub *coupleRepositoryStub) Create(_ context.Context, couple *models.Couple) error {
	for _, existing := range stub.couples {
		if existing.Code == couple.Code {
			return errors.New("UNIQUE constraint failed: couples.code")
		}
	}
	stub.couples = append(stub.couples, *couple)
	return nil
}

func (stub *coupleRepositoryStub) find(match func(models.Couple) bool) (models.Couple, bool, error) {
	if stub.lookupErr != nil {
		return models.Couple{}, false, stub.lookupErr
	}
	for _, couple := range stub.couples {
		if match(couple) {
			return couple, true, nil
		}
	}
	return models.Couple{}, false, nil
}

func (stub *coupleRepositoryStub) FindByCode(_ context.Context, code string) (models.Couple, bool, error) {
	normalized := strings.ToUpper(strings.TrimSpace(code))
	return stub.find(func(couple models.Couple) bool { return couple.Code == normalized })
}

func (stub *coupleRepositoryStub) FindByOwnerID(_ context.Context, ownerID string) (models.Couple, bool, error) {
	return stub.find(func(couple models.Couple) bool { return couple.OwnerID == ownerID })
}

func (stub *coupleRepositoryStub) FindByMember(_ context.Context, userID string) (models.Couple, bool, error) {
	return stub.find(func(couple models.Couple) bool { return couple.OwnerID == userID || couple.PartnerID == userID })
}

type cycleServiceFixture struct {
	service  *CycleService
	profiles *cycleProfileRepositoryStub
	history  *cycleHistoryRepositoryStub
	couples  *coupleRepositoryStub
}

// newCycleServiceFixture pins "now" to noon UTC on today.
func newCycleServiceFixture(today string) cycleServiceFixture {
	history := &cycleHistoryRepositoryStub{}
	profiles := newCycleProfileRepositoryStub(history)
	couples := &coupleRepositoryStub{couples: []models.Couple{{
		ID:        "couple-1",
		Code:      "DUET-ABCD-EFGH",
		OwnerID:   "owner-1",
		PartnerID: "partner-1",
	}}}

	service := NewCycleService(profiles, history, couples, config.Default(), time.UTC)
	now, err := time.Parse("2006-01-02", today)
	if err != nil {
		panic(err)
	}
	service.now = func() time.Time { return now.Add(12 * time.Hour) }

	return cycleServiceFixture{service: service, profiles: profiles, history: history, couples: couples}
}

func mustDate(value string) fertility.Date {
	return fertility.MustParseDate(value)
}
