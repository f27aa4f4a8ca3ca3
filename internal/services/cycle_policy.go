package services

import (
	"errors"
	"strings"

	"github.com/terraincognita07/duet/internal/config"
	"github.com/terraincognita07/duet/internal/fertility"
)

var (
	ErrOwnerIDRequired          = errors.New("owner id is required")
	ErrCycleLengthOutOfRange    = errors.New("cycle length out of range")
	ErrPeriodLengthOutOfRange   = errors.New("period length out of range")
	ErrPeriodLengthIncompatible = errors.New("period length must be shorter than cycle length")
	ErrLastPeriodDateInvalid    = errors.New("last period date invalid")
	ErrLastPeriodDateInFuture   = errors.New("last period date is in the future")
)

// ValidationError names the rejected field and wraps its sentinel, so
// callers may match either with errors.As or errors.Is.
type ValidationError struct {
	Field string
	Err   error
}

func (err *ValidationError) Error() string {
	return err.Field + ": " + err.Err.Error()
}

func (err *ValidationError) Unwrap() error {
	return err.Err
}

func invalid(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}

type CycleInput struct {
	LastPeriodDate string `json:"last_period_date"`
	CycleLength    int    `json:"cycle_length"`
	PeriodLength   int    `json:"period_length"`
}

// ValidateCycleProfile checks input against bounds and returns the profile
// the projector will see. today is the owner's current calendar day.
func ValidateCycleProfile(input CycleInput, today fertility.Date, bounds config.CycleBounds, params fertility.Params) (fertility.Profile, error) {
	lastPeriod, err := fertility.ParseDate(input.LastPeriodDate)
	if err != nil {
		return fertility.Profile{}, invalid("last_period_date", ErrLastPeriodDateInvalid)
	}
	if input.CycleLength < bounds.MinCycleLength || input.CycleLength > bounds.MaxCycleLength {
		return fertility.Profile{}, invalid("cycle_length", ErrCycleLengthOutOfRange)
	}
	if input.PeriodLength < bounds.MinPeriodLength || input.PeriodLength > bounds.MaxPeriodLength {
		return fertility.Profile{}, invalid("period_length", ErrPeriodLengthOutOfRange)
	}
	if input.PeriodLength >= input.CycleLength {
		return fertility.Profile{}, invalid("period_length", ErrPeriodLengthIncompatible)
	}
	if lastPeriod.After(today) {
		return fertility.Profile{}, invalid("last_period_date", ErrLastPeriodDateInFuture)
	}
	if lastPeriod.Before(EarliestPeriodDate(today, bounds)) {
		return fertility.Profile{}, invalid("last_period_date", ErrLastPeriodDateInvalid)
	}
	if _, ok := params.OvulationOffset(input.CycleLength); !ok {
		return fertility.Profile{}, invalid("cycle_length", ErrCycleLengthOutOfRange)
	}

	return fertility.Profile{
		LastPeriodDate: lastPeriod,
		CycleLength:    input.CycleLength,
		PeriodLength:   input.PeriodLength,
	}, nil
}

// EarliestPeriodDate is the oldest period start accepted on today. A zero
// MaxLastPeriodAgeDays leaves the date unbounded.
func EarliestPeriodDate(today fertility.Date, bounds config.CycleBounds) fertility.Date {
	if bounds.MaxLastPeriodAgeDays <= 0 {
		return fertility.Date{}
	}
	return today.AddDays(-bounds.MaxLastPeriodAgeDays)
}

func normalizeOwnerID(raw string) (string, error) {
	ownerID := strings.TrimSpace(raw)
	if ownerID == "" {
		return "", invalid("owner_id", ErrOwnerIDRequired)
	}
	return ownerID, nil
}

func clampCycleLength(length int, bounds config.CycleBounds) int {
	if length < bounds.MinCycleLength {
		return bounds.MinCycleLength
	}
	if length > bounds.MaxCycleLength {
		return bounds.MaxCycleLength
	}
	return length
}
