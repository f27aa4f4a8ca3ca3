package fertility

type Status string

const (
	StatusPeriod    Status = "period"
	StatusOvulation Status = "ovulation"
	StatusFertile   Status = "fertile"
	StatusSafe      Status = "safe"
)

type DayStatus struct {
	IsPeriod    bool `json:"is_period"`
	IsFertile   bool `json:"is_fertile"`
	IsOvulation bool `json:"is_ovulation"`
}

// Primary collapses the flags into the single status shown on a
// calendar cell. A period day wins over an overlapping fertile window.
func (status DayStatus) Primary() Status {
	switch {
	case status.IsPeriod:
		return StatusPeriod
	case status.IsOvulation:
		return StatusOvulation
	case status.IsFertile:
		return StatusFertile
	default:
		return StatusSafe
	}
}

type ClassifiedDay struct {
	Date    Date      `json:"date"`
	Status  DayStatus `json:"status"`
	Primary Status    `json:"primary"`
}

// ClassifyRange walks [from, to] and classifies each day.
func (projection Projection) ClassifyRange(from Date, to Date) []ClassifiedDay {
	if from.IsZero() || to.IsZero() || to.Before(from) {
		return nil
	}
	days := make([]ClassifiedDay, 0, from.DaysUntil(to)+1)
	for day := from; !day.After(to); day = day.AddDays(1) {
		status := projection.Classify(day)
		days = append(days, ClassifiedDay{Date: day, Status: status, Primary: status.Primary()})
	}
	return days
}
