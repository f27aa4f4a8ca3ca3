package fertility

import "errors"

const (
	DefaultLutealPhaseDays   = 14
	DefaultFertileDaysBefore = 5
	DefaultFertileDaysAfter  = 1
)

var ErrInvalidParams = errors.New("invalid fertility parameters")

// Params holds the clinical approximations used by the projector.
// The fertile window spans FertileDaysBefore days before ovulation
// through FertileDaysAfter days after it.
type Params struct {
	LutealPhaseDays   int `yaml:"luteal_phase_days" json:"luteal_phase_days"`
	FertileDaysBefore int `yaml:"fertile_days_before" json:"fertile_days_before"`
	FertileDaysAfter  int `yaml:"fertile_days_after" json:"fertile_days_after"`
}

func DefaultParams() Params {
	return Params{
		LutealPhaseDays:   DefaultLutealPhaseDays,
		FertileDaysBefore: DefaultFertileDaysBefore,
		FertileDaysAfter:  DefaultFertileDaysAfter,
	}
}

func (params Params) Validate() error {
	if params.LutealPhaseDays <= 0 || params.FertileDaysBefore < 0 || params.FertileDaysAfter < 0 {
		return ErrInvalidParams
	}
	return nil
}

// OvulationOffset returns the zero-based day of the cycle on which
// ovulation is projected, and false when the cycle is too short for the
// luteal phase.
func (params Params) OvulationOffset(cycleLength int) (int, bool) {
	offset := cycleLength - params.LutealPhaseDays
	if offset <= 0 {
		return 0, false
	}
	return offset, true
}
