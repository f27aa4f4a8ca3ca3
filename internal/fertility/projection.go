package fertility

import (
	"encoding/json"
	"errors"
	"sort"
)

var (
	ErrInvalidHorizon     = errors.New("projection horizon must be at least one cycle")
	ErrInvalidProfile     = errors.New("cycle profile is incomplete")
	ErrOvulationUndefined = errors.New("cycle too short to place ovulation")
)

type Profile struct {
	LastPeriodDate Date
	CycleLength    int
	PeriodLength   int
}

// DateSet is an unordered set of calendar days. It encodes to JSON as a
// sorted array of ISO dates.
type DateSet map[Date]struct{}

func NewDateSet(dates ...Date) DateSet {
	set := make(DateSet, len(dates))
	for _, date := range dates {
		set.Add(date)
	}
	return set
}

func (set DateSet) Add(date Date) {
	if date.IsZero() {
		return
	}
	set[date] = struct{}{}
}

func (set DateSet) AddRange(start Date, end Date) {
	for day := start; !day.After(end); day = day.AddDays(1) {
		set.Add(day)
	}
}

func (set DateSet) Has(date Date) bool {
	_, ok := set[date]
	return ok
}

func (set DateSet) Len() int {
	return len(set)
}

func (set DateSet) Sorted() []Date {
	dates := make([]Date, 0, len(set))
	for date := range set {
		dates = append(dates, date)
	}
	sort.Slice(dates, func(i, j int) bool {
		return dates[i].Before(dates[j])
	})
	return dates
}

func (set DateSet) Strings() []string {
	sorted := set.Sorted()
	values := make([]string, 0, len(sorted))
	for _, date := range sorted {
		values = append(values, date.String())
	}
	return values
}

// SubsetOf reports whether every date of set is also in other.
func (set DateSet) SubsetOf(other DateSet) bool {
	for date := range set {
		if !other.Has(date) {
			return false
		}
	}
	return true
}

func (set DateSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(set.Strings())
}

func (set *DateSet) UnmarshalJSON(data []byte) error {
	var raw []string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed := make(DateSet, len(raw))
	for _, value := range raw {
		date, err := ParseDate(value)
		if err != nil {
			return err
		}
		parsed.Add(date)
	}
	*set = parsed
	return nil
}

type Projection struct {
	Periods       DateSet `json:"periods"`
	FertileDays   DateSet `json:"fertile_days"`
	OvulationDays DateSet `json:"ovulation_days"`
}

func EmptyProjection() Projection {
	return Projection{
		Periods:       DateSet{},
		FertileDays:   DateSet{},
		OvulationDays: DateSet{},
	}
}

func (projection Projection) IsEmpty() bool {
	return projection.Periods.Len() == 0 &&
		projection.FertileDays.Len() == 0 &&
		projection.OvulationDays.Len() == 0
}

// Classify reports every classification that applies to day.
func (projection Projection) Classify(day Date) DayStatus {
	return DayStatus{
		IsPeriod:    projection.Periods.Has(day),
		IsFertile:   projection.FertileDays.Has(day),
		IsOvulation: projection.OvulationDays.Has(day),
	}
}

// Project expands profile into horizon consecutive cycles starting at the
// reported last period. It has no side effects.
func Project(profile Profile, horizon int, params Params) (Projection, error) {
	if horizon < 1 {
		return Projection{}, ErrInvalidHorizon
	}
	if err := params.Validate(); err != nil {
		return Projection{}, err
	}
	if profile.LastPeriodDate.IsZero() || profile.CycleLength <= 0 || profile.PeriodLength <= 0 {
		return Projection{}, ErrInvalidProfile
	}
	ovulationOffset, ok := params.OvulationOffset(profile.CycleLength)
	if !ok {
		return Projection{}, ErrOvulationUndefined
	}

	projection := EmptyProjection()
	for k := 0; k < horizon; k++ {
		cycleStart := profile.LastPeriodDate.AddDays(k * profile.CycleLength)
		projection.Periods.AddRange(cycleStart, cycleStart.AddDays(profile.PeriodLength-1))

		ovulation := cycleStart.AddDays(ovulationOffset)
		projection.OvulationDays.Add(ovulation)
		projection.FertileDays.AddRange(
			ovulation.AddDays(-params.FertileDaysBefore),
			ovulation.AddDays(params.FertileDaysAfter),
		)
	}
	return projection, nil
}

// HorizonFor returns the number of cycles Project needs so that the cycle
// containing today is covered, followed by cyclesAhead further cycles.
func HorizonFor(profile Profile, today Date, cyclesAhead int) int {
	if cyclesAhead < 0 {
		cyclesAhead = 0
	}
	if profile.CycleLength <= 0 || profile.LastPeriodDate.IsZero() || today.Before(profile.LastPeriodDate) {
		return 1 + cyclesAhead
	}
	elapsedCycles := profile.LastPeriodDate.DaysUntil(today) / profile.CycleLength
	return elapsedCycles + 1 + cyclesAhead
}
