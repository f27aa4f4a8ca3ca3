package fertility

// Prediction summarizes where today falls in the projected cycle and what
// comes next. DaysToFertile is zero while today is inside the fertile window.
type Prediction struct {
	Today             Date   `json:"today"`
	TodayStatus       Status `json:"today_status"`
	CycleDay          int    `json:"cycle_day"`
	CurrentCycleStart Date   `json:"current_cycle_start"`
	NextPeriod        Date   `json:"next_period"`
	NextFertileStart  Date   `json:"next_fertile_start"`
	NextFertileEnd    Date   `json:"next_fertile_end"`
	NextOvulation     Date   `json:"next_ovulation"`
	DaysToPeriod      int    `json:"days_to_period"`
	DaysToOvulation   int    `json:"days_to_ovulation"`
	DaysToFertile     int    `json:"days_to_fertile"`
	ConceptionDay     bool   `json:"is_trying_to_conceive_day"`
}

// Predict locates the cycle containing today by stepping whole cycles
// from the last reported period, then reports the upcoming fertile
// window and ovulation (rolling into the next cycle once today's have
// passed).
func Predict(profile Profile, today Date, params Params) (Prediction, error) {
	if err := params.Validate(); err != nil {
		return Prediction{}, err
	}
	if profile.LastPeriodDate.IsZero() || profile.CycleLength <= 0 || profile.PeriodLength <= 0 || today.IsZero() {
		return Prediction{}, ErrInvalidProfile
	}
	ovulationOffset, ok := params.OvulationOffset(profile.CycleLength)
	if !ok {
		return Prediction{}, ErrOvulationUndefined
	}

	cycleStart := profile.LastPeriodDate
	cycleDay := 0
	if !today.Before(profile.LastPeriodDate) {
		elapsed := profile.LastPeriodDate.DaysUntil(today)
		cycleStart = profile.LastPeriodDate.AddDays((elapsed / profile.CycleLength) * profile.CycleLength)
		cycleDay = elapsed%profile.CycleLength + 1
	}

	prediction := Prediction{
		Today:             today,
		CycleDay:          cycleDay,
		CurrentCycleStart: cycleStart,
		NextPeriod:        cycleStart.AddDays(profile.CycleLength),
	}
	if today.Before(profile.LastPeriodDate) {
		prediction.NextPeriod = profile.LastPeriodDate
	}
	prediction.DaysToPeriod = today.DaysUntil(prediction.NextPeriod)

	ovulation := cycleStart.AddDays(ovulationOffset)
	fertileStart := ovulation.AddDays(-params.FertileDaysBefore)
	fertileEnd := ovulation.AddDays(params.FertileDaysAfter)
	periodEnd := cycleStart.AddDays(profile.PeriodLength - 1)

	status := DayStatus{
		IsPeriod:    today.Between(cycleStart, periodEnd),
		IsFertile:   today.Between(fertileStart, fertileEnd),
		IsOvulation: today.Equal(ovulation),
	}
	prediction.TodayStatus = status.Primary()
	prediction.ConceptionDay = status.IsFertile || status.IsOvulation

	if fertileEnd.Before(today) {
		fertileStart = fertileStart.AddDays(profile.CycleLength)
		fertileEnd = fertileEnd.AddDays(profile.CycleLength)
	}
	if ovulation.Before(today) {
		ovulation = ovulation.AddDays(profile.CycleLength)
	}
	prediction.NextFertileStart = fertileStart
	prediction.NextFertileEnd = fertileEnd
	prediction.NextOvulation = ovulation
	prediction.DaysToOvulation = today.DaysUntil(ovulation)
	if days := today.DaysUntil(fertileStart); days > 0 {
		prediction.DaysToFertile = days
	}
	return prediction, nil
}
