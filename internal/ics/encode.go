package ics

import (
	"io"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "custodycal/internal/log"
	"custodycal/internal/model"
)

const (
	defaultProductID = "-//custodycal//Custody Calendar//EN"

	// localLayout is a DATE-TIME without a zone designator. With a TZID
	// parameter it is a zoned time; without one it is floating.
	localLayout = "20060102T150405"
)

// Options controls calendar-level properties of an encoded feed.
type Options struct {
	// Name is published as X-WR-CALNAME. Empty omits it.
	Name string
	// ProductID overrides PRODID.
	ProductID string
	// Stamp is used for every DTSTAMP. Zero means now.
	Stamp time.Time
}

// Encode renders events as a VCALENDAR with CRLF line endings. The naive
// wall clock of every event is written unchanged:
//
//   - TimeZone "UTC" is written in UTC form (YYYYMMDDTHHMMSSZ).
//   - An IANA zone is written with a TZID parameter and a matching
//     VTIMEZONE.
//   - "Local" or empty is written as floating time.
func Encode(events []model.Event, opts Options) string {
	return build(events, opts).Serialize(ical.WithNewLineWindows)
}

// Write encodes events to w.
func Write(w io.Writer, events []model.Event, opts Options) error {
	return build(events, opts).SerializeTo(w, ical.WithNewLineWindows)
}

func build(events []model.Event, opts Options) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	if opts.ProductID != "" {
		cal.SetProductId(opts.ProductID)
	} else {
		cal.SetProductId(defaultProductID)
	}
	if opts.Name != "" {
		cal.SetXWRCalName(opts.Name)
	}
	if len(events) > 0 && isNamedZone(events[0].TimeZone) {
		tz := events[0].TimeZone
		cal.SetXWRTimezone(tz)
		from, to := span(events)
		if err := addTimezone(cal, tz, from, to); err != nil {
			appLog.Warn("ics: no VTIMEZONE for zone", "tz", tz, "error", err)
		}
	}

	stamp := opts.Stamp
	if stamp.IsZero() {
		stamp = time.Now()
	}

	for _, ev := range events {
		ve := cal.AddEvent(ev.UID)
		ve.SetDtStampTime(stamp.UTC())
		ve.SetSummary(ev.Summary)
		setTime(ve, ical.ComponentPropertyDtStart, ev.Start, ev.TimeZone)
		setTime(ve, ical.ComponentPropertyDtEnd, ev.End, ev.TimeZone)
	}
	return cal
}

// setTime writes t's fields as they are. t is a naive wall clock, so a
// time that falls into a DST gap is not normalized.
func setTime(ve *ical.VEvent, prop ical.ComponentProperty, t time.Time, tz string) {
	switch {
	case tz == "UTC":
		ve.SetProperty(prop, t.Format(localLayout)+"Z")
	case isNamedZone(tz):
		ve.SetProperty(prop, t.Format(localLayout),
			&ical.KeyValues{Key: string(ical.ParameterTzid), Value: []string{tz}})
	default:
		ve.SetProperty(prop, t.Format(localLayout))
	}
}

func isNamedZone(tz string) bool {
	return tz != "" && tz != "Local" && tz != "UTC"
}
