package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/terraincognita07/duet/internal/fertility"
	"github.com/terraincognita07/duet/internal/models"
)

var (
	ErrHistoryEntryNotFound    = errors.New("history entry not found")
	ErrPeriodStartInvalid      = errors.New("period start date invalid")
	ErrPeriodStartNotAfterLast = errors.New("period start must follow the last recorded period")
	ErrPeriodEndInvalid        = errors.New("period end date invalid")
	ErrPeriodEndBeforeStart    = errors.New("period end precedes its start")
	ErrHistoryLoadFailed       = errors.New("load cycle history failed")
	ErrHistorySaveFailed       = errors.New("save cycle history failed")
)

const (
	historyListLimit       = 24
	averagingWindow        = 12
	minCyclesForAveraging  = 3
	defaultNewCycleLength  = 28
	defaultNewPeriodLength = 5
)

type StartPeriodInput struct {
	Date  string `json:"period_start_date"`
	Notes string `json:"notes"`
}

type HistoryEntryView struct {
	ID             string         `json:"id"`
	PeriodStart    fertility.Date `json:"period_start_date"`
	PeriodEnd      fertility.Date `json:"period_end_date,omitzero"`
	CycleLength    *int           `json:"cycle_length"`
	ExpectedLength int            `json:"expected_cycle_length"`
	DaysDifference *int           `json:"days_difference"`
	WasEarly       *bool          `json:"was_early"`
	Notes          string         `json:"notes,omitempty"`
}

func historyView(entry models.CycleHistory) HistoryEntryView {
	view := HistoryEntryView{
		ID:             entry.ID,
		PeriodStart:    fertility.DateOf(entry.PeriodStart.UTC()),
		CycleLength:    entry.CycleLength,
		ExpectedLength: entry.ExpectedLength,
		DaysDifference: entry.DaysDifference,
		Notes:          entry.Notes,
	}
	if entry.PeriodEnd != nil {
		view.PeriodEnd = fertility.DateOf(entry.PeriodEnd.UTC())
	}
	if entry.DaysDifference != nil {
		early := *entry.DaysDifference < 0
		view.WasEarly = &early
	}
	return view
}

type StartPeriodResult struct {
	Entry   HistoryEntryView `json:"entry"`
	Profile CycleProfileView `json:"profile"`
}

// StartPeriod records an observed period start, measures the cycle that
// just ended against the expected length, and moves the profile forward.
// Once enough cycles are measured the profile's cycle length becomes their
// rounded average, clamped to the configured bounds.
func (service *CycleService) StartPeriod(ctx context.Context, ownerID string, input StartPeriodInput) (StartPeriodResult, error) {
	ownerID, err := normalizeOwnerID(ownerID)
	if err != nil {
		return StartPeriodResult{}, err
	}
	start, err := fertility.ParseDate(input.Date)
	if err != nil {
		return StartPeriodResult{}, invalid("period_start_date", ErrPeriodStartInvalid)
	}
	if start.After(service.today()) {
		return StartPeriodResult{}, invalid("period_start_date", ErrLastPeriodDateInFuture)
	}
	if start.Before(EarliestPeriodDate(service.today(), service.bounds)) {
		return StartPeriodResult{}, invalid("period_start_date", ErrPeriodStartInvalid)
	}

	unlock := service.locks.Lock(ownerID)
	defer unlock()

	current, hasProfile, err := service.profiles.FindByOwnerID(ctx, ownerID)
	if err != nil {
		return StartPeriodResult{}, fmt.Errorf("%w: %v", ErrCycleLoadFailed, err)
	}
	latest, hasLatest, err := service.history.LatestByOwner(ctx, ownerID)
	if err != nil {
		return StartPeriodResult{}, fmt.Errorf("%w: %v", ErrHistoryLoadFailed, err)
	}

	next := models.CycleProfile{
		OwnerID:        ownerID,
		LastPeriodDate: start.Time(time.UTC),
		CycleLength:    clampCycleLength(defaultNewCycleLength, service.bounds),
		PeriodLength:   defaultNewPeriodLength,
	}
	if hasProfile {
		next.CycleLength = current.CycleLength
		next.PeriodLength = current.PeriodLength
		if fertility.DateOf(current.LastPeriodDate.UTC()).After(start) {
			next.LastPeriodDate = current.LastPeriodDate
		}
	}

	entry := models.CycleHistory{
		ID:             uuid.NewString(),
		OwnerID:        ownerID,
		PeriodStart:    start.Time(time.UTC),
		ExpectedLength: next.CycleLength,
		Notes:          strings.TrimSpace(input.Notes),
	}
	if hasLatest {
		actual := fertility.DateOf(latest.PeriodStart.UTC()).DaysUntil(start)
		if actual <= 0 {
			return StartPeriodResult{}, invalid("period_start_date", ErrPeriodStartNotAfterLast)
		}
		difference := actual - next.CycleLength
		entry.CycleLength = &actual
		entry.DaysDifference = &difference

		measured, err := service.history.MeasuredLengths(ctx, ownerID, averagingWindow-1)
		if err != nil {
			return StartPeriodResult{}, fmt.Errorf("%w: %v", ErrHistoryLoadFailed, err)
		}
		if average := fertility.RoundedAverage(append(measured, actual), minCyclesForAveraging); average > 0 {
			next.CycleLength = clampCycleLength(average, service.bounds)
		}
	}

	saved, err := service.profiles.RecordPeriodStart(ctx, &entry, next)
	if err != nil {
		return StartPeriodResult{}, fmt.Errorf("%w: %v", ErrHistorySaveFailed, err)
	}
	return StartPeriodResult{Entry: historyView(entry), Profile: profileView(saved)}, nil
}

func (service *CycleService) EndPeriod(ctx context.Context, ownerID string, historyID string, endRaw string) (HistoryEntryView, error) {
	ownerID, err := normalizeOwnerID(ownerID)
	if err != nil {
		return HistoryEntryView{}, err
	}
	end, err := fertility.ParseDate(endRaw)
	if err != nil {
		return HistoryEntryView{}, invalid("end_date", ErrPeriodEndInvalid)
	}
	if end.After(service.today()) {
		return HistoryEntryView{}, invalid("end_date", ErrPeriodEndInvalid)
	}

	entry, found, err := service.history.FindByID(ctx, ownerID, strings.TrimSpace(historyID))
	if err != nil {
		return HistoryEntryView{}, fmt.Errorf("%w: %v", ErrHistoryLoadFailed, err)
	}
	if !found {
		return HistoryEntryView{}, ErrHistoryEntryNotFound
	}
	if end.Before(fertility.DateOf(entry.PeriodStart.UTC())) {
		return HistoryEntryView{}, invalid("end_date", ErrPeriodEndBeforeStart)
	}

	endTime := end.Time(time.UTC)
	updated, err := service.history.SetPeriodEnd(ctx, ownerID, entry.ID, endTime)
	if err != nil {
		return HistoryEntryView{}, fmt.Errorf("%w: %v", ErrHistorySaveFailed, err)
	}
	if !updated {
		return HistoryEntryView{}, ErrHistoryEntryNotFound
	}
	entry.PeriodEnd = &endTime
	return historyView(entry), nil
}

type HistoryView struct {
	Visible bool                   `json:"visible"`
	Gated   bool                   `json:"gated"`
	Entries []HistoryEntryView     `json:"history"`
	Stats   fertility.HistoryStats `json:"stats"`
}

// GetHistory lists recorded periods newest first with summary statistics.
// Partners see it under the same entitlement as the fertility projection.
func (service *CycleService) GetHistory(ctx context.Context, request FertilityRequest) (HistoryView, error) {
	ownerID, err := service.resolveOwnerID(ctx, request)
	if err != nil {
		return HistoryView{}, err
	}
	if !CanViewFertility(request.Role, request.Entitlement) {
		return HistoryView{Gated: true, Entries: []HistoryEntryView{}, Stats: fertility.SummarizeCycleLengths(0, nil)}, nil
	}

	entries, err := service.history.ListByOwner(ctx, ownerID, historyListLimit)
	if err != nil {
		return HistoryView{}, fmt.Errorf("%w: %v", ErrHistoryLoadFailed, err)
	}

	views := make([]HistoryEntryView, 0, len(entries))
	lengths := make([]int, 0, len(entries))
	for _, entry := range entries {
		views = append(views, historyView(entry))
		if entry.CycleLength != nil {
			lengths = append(lengths, *entry.CycleLength)
		}
	}
	return HistoryView{
		Visible: true,
		Entries: views,
		Stats:   fertility.SummarizeCycleLengths(len(entries), lengths),
	}, nil
}
