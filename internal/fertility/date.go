package fertility

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

var ErrInvalidDate = errors.New("invalid calendar date")

// Date is a calendar day without time-of-day or zone. The zero value is
// "no date" and is comparable, so dates can be used as map keys.
type Date struct {
	year  int
	month time.Month
	day   int
}

const secondsPerDay = 24 * 60 * 60

func NewDate(year int, month time.Month, day int) Date {
	return DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// DateOf takes the calendar day of value in its own location.
func DateOf(value time.Time) Date {
	if value.IsZero() {
		return Date{}
	}
	year, month, day := value.Date()
	return Date{year: year, month: month, day: day}
}

// DateIn takes the calendar day of value as observed in location.
func DateIn(value time.Time, location *time.Location) Date {
	if location == nil {
		location = time.UTC
	}
	return DateOf(value.In(location))
}

func ParseDate(raw string) (Date, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Date{}, ErrInvalidDate
	}
	parsed, err := time.ParseInLocation(DateLayout, trimmed, time.UTC)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, trimmed)
	}
	return DateOf(parsed), nil
}

func MustParseDate(raw string) Date {
	date, err := ParseDate(raw)
	if err != nil {
		panic(err)
	}
	return date
}

func (d Date) IsZero() bool {
	return d == Date{}
}

func (d Date) Year() int { return d.year }

func (d Date) Month() time.Month { return d.month }

func (d Date) Day() int { return d.day }

func (d Date) Weekday() time.Weekday { return d.Time(time.UTC).Weekday() }

// Time returns midnight of d in location.
func (d Date) Time(location *time.Location) time.Time {
	if d.IsZero() {
		return time.Time{}
	}
	if location == nil {
		location = time.UTC
	}
	return time.Date(d.year, d.month, d.day, 0, 0, 0, 0, location)
}

func (d Date) AddDays(days int) Date {
	if d.IsZero() {
		return d
	}
	return DateOf(time.Date(d.year, d.month, d.day+days, 0, 0, 0, 0, time.UTC))
}

// DaysUntil returns the whole-day offset from d to other; negative when
// other is earlier.
func (d Date) DaysUntil(other Date) int {
	return int((other.Time(time.UTC).Unix() - d.Time(time.UTC).Unix()) / secondsPerDay)
}

func (d Date) Before(other Date) bool {
	return d.compare(other) < 0
}

func (d Date) After(other Date) bool {
	return d.compare(other) > 0
}

func (d Date) Equal(other Date) bool {
	return d == other
}

func (d Date) compare(other Date) int {
	switch {
	case d.year != other.year:
		return d.year - other.year
	case d.month != other.month:
		return int(d.month) - int(other.month)
	default:
		return d.day - other.day
	}
}

// Between reports whether d lies in [start, end].
func (d Date) Between(start Date, end Date) bool {
	if start.IsZero() || end.IsZero() {
		return false
	}
	return !d.Before(start) && !d.After(end)
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", d.year, int(d.month), d.day)
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(text []byte) error {
	if len(strings.TrimSpace(string(text))) == 0 {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
