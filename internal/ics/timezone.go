package ics

import (
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"

	"custodycal/internal/model"
)

const (
	propTzOffsetFrom = ical.ComponentProperty(ical.PropertyTzoffsetfrom)
	propTzOffsetTo   = ical.ComponentProperty(ical.PropertyTzoffsetto)
	propTzName       = ical.ComponentProperty(ical.PropertyTzname)
)

// span returns the earliest start and latest end of events.
func span(events []model.Event) (time.Time, time.Time) {
	from, to := events[0].Start, events[0].End
	for _, ev := range events[1:] {
		if ev.Start.Before(from) {
			from = ev.Start
		}
		if ev.End.After(to) {
			to = ev.End
		}
	}
	return from, to
}

// addTimezone adds a VTIMEZONE for tz with one STANDARD or DAYLIGHT
// observance per offset period overlapping the naive range [from, to].
func addTimezone(cal *ical.Calendar, tz string, from, to time.Time) error {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return err
	}
	vtz := cal.AddTimezone(tz)

	end := wallIn(to, loc)
	for cur := wallIn(from, loc); ; {
		name, offset := cur.Zone()
		onset, next := cur.ZoneBounds()
		prev := offset
		if onset.IsZero() {
			onset = time.Date(1970, time.January, 1, 0, 0, 0, 0, time.UTC)
		} else {
			_, prev = onset.Add(-time.Second).Zone()
		}

		var obs *ical.ComponentBase
		if cur.IsDST() {
			d := &ical.Daylight{}
			vtz.Components = append(vtz.Components, d)
			obs = &d.ComponentBase
		} else {
			obs = &vtz.AddStandard().ComponentBase
		}
		// DTSTART of an observance is the onset in the offset it replaces.
		obs.SetProperty(ical.ComponentPropertyDtStart,
			onset.UTC().Add(time.Duration(prev)*time.Second).Format(localLayout))
		obs.SetProperty(propTzOffsetFrom, formatOffset(prev))
		obs.SetProperty(propTzOffsetTo, formatOffset(offset))
		obs.SetProperty(propTzName, name)

		if next.IsZero() || next.After(end) {
			return nil
		}
		cur = next.In(loc)
	}
}

// wallIn reads the naive wall clock t in loc.
func wallIn(t time.Time, loc *time.Location) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc)
}

// formatOffset renders seconds east of UTC as +HHMM (or +HHMMSS).
func formatOffset(sec int) string {
	sign := '+'
	if sec < 0 {
		sign = '-'
		sec = -sec
	}
	h, m, s := sec/3600, sec/60%60, sec%60
	if s != 0 {
		return fmt.Sprintf("%c%02d%02d%02d", sign, h, m, s)
	}
	return fmt.Sprintf("%c%02d%02d", sign, h, m)
}
