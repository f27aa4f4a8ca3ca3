// Package calendar renders a fertility projection as an iCalendar feed of
// all-day events.
package calendar

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/emersion/go-ical"
	"github.com/terraincognita07/duet/internal/fertility"
)

const (
	icalVersion = "2.0"
	icalProdID  = "-//Duet//Fertility Calendar//EN"
	icalScale   = "GREGORIAN"
	icalMethod  = "PUBLISH"
	uidDomain   = "duet"

	propCalName      = "X-WR-CALNAME"
	propCalScale     = "CALSCALE"
	propMethod       = "METHOD"
	propRefresh      = "REFRESH-INTERVAL"
	propTransparency = "TRANSP"
	propCategories   = "CATEGORIES"

	refreshInterval = 6 * time.Hour
)

const (
	KindPeriod    = "period"
	KindFertile   = "fertile"
	KindOvulation = "ovulation"
)

// Translator supplies event labels. *i18n.Localizer satisfies it.
type Translator interface {
	Text(id string) string
}

// Event is one all-day span. End is inclusive.
type Event struct {
	Kind  string
	Start fertility.Date
	End   fertility.Date
}

func (event Event) UID() string {
	return fmt.Sprintf("%s-%s@%s", event.Kind, event.Start.String(), uidDomain)
}

// Events groups each date set of projection into contiguous runs. Ovulation
// days stay single-day events even when adjacent.
func Events(projection fertility.Projection) []Event {
	events := make([]Event, 0)
	events = append(events, runs(KindPeriod, projection.Periods)...)
	events = append(events, runs(KindFertile, projection.FertileDays)...)
	for _, day := range projection.OvulationDays.Sorted() {
		events = append(events, Event{Kind: KindOvulation, Start: day, End: day})
	}

	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].Start.Equal(events[j].Start) {
			return events[i].Start.Before(events[j].Start)
		}
		return kindOrder(events[i].Kind) < kindOrder(events[j].Kind)
	})
	return events
}

func runs(kind string, set fertility.DateSet) []Event {
	result := make([]Event, 0)
	for _, day := range set.Sorted() {
		if last := len(result) - 1; last >= 0 && result[last].End.AddDays(1).Equal(day) {
			result[last].End = day
			continue
		}
		result = append(result, Event{Kind: kind, Start: day, End: day})
	}
	return result
}

func kindOrder(kind string) int {
	switch kind {
	case KindPeriod:
		return 0
	case KindFertile:
		return 1
	default:
		return 2
	}
}

// BuildICS encodes projection as a VCALENDAR. An empty projection yields a
// valid calendar without events.
func BuildICS(projection fertility.Projection, labels Translator, now time.Time) ([]byte, error) {
	calendarName := label(labels, "calendar.name")
	events := Events(projection)
	if len(events) == 0 {
		return []byte(emptyCalendar(calendarName)), nil
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, icalVersion)
	cal.Props.SetText(ical.PropProductID, icalProdID)
	cal.Props.SetText(propCalName, calendarName)
	cal.Props.SetText(propCalScale, icalScale)
	cal.Props.SetText(propMethod, icalMethod)

	refresh := ical.NewProp(propRefresh)
	refresh.SetDuration(refreshInterval)
	cal.Props.Set(refresh)

	stamp := ical.NewProp(ical.PropDateTimeStamp)
	stamp.SetDateTime(now.UTC())
	description := label(labels, "calendar.description")

	for _, event := range events {
		component := ical.NewEvent()
		component.Props.SetText(ical.PropUID, event.UID())
		component.Props.SetText(ical.PropSummary, label(labels, "calendar."+event.Kind))
		component.Props.SetText(ical.PropDescription, description)
		component.Props.SetText(propCategories, event.Kind)
		component.Props.SetText(propTransparency, "TRANSPARENT")
		component.Props.Set(stamp)

		start := ical.NewProp(ical.PropDateTimeStart)
		start.SetDate(event.Start.Time(time.UTC))
		component.Props.Set(start)

		end := ical.NewProp(ical.PropDateTimeEnd)
		end.SetDate(event.End.AddDays(1).Time(time.UTC))
		component.Props.Set(end)

		cal.Children = append(cal.Children, component.Component)
	}

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return nil, fmt.Errorf("encode calendar: %w", err)
	}
	return buf.Bytes(), nil
}

// emptyCalendar is written by hand because the ical encoder refuses a
// VCALENDAR without child components.
func emptyCalendar(name string) string {
	return "BEGIN:VCALENDAR\r\nVERSION:" + icalVersion + "\r\nPRODID:" + icalProdID +
		"\r\nX-WR-CALNAME:" + textEscaper.Replace(name) + "\r\nEND:VCALENDAR\r\n"
}

var textEscaper = strings.NewReplacer(`\`, `\\`, ";", `\;`, ",", `\,`, "\r\n", `\n`, "\n", `\n`)

func label(labels Translator, id string) string {
	if labels == nil {
		return id
	}
	return labels.Text(id)
}
