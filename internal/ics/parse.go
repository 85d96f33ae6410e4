package ics

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "custodycal/internal/log"
	"custodycal/internal/model"
)

// Parse reads a calendar produced by Encode (or edited by a calendar
// application) back into events. The summary is taken as the custodian.
//
//   - Times come back as naive wall clocks; TimeZone carries the TZID,
//     "UTC" for UTC times or "Local" for floating ones.
//   - A VEVENT without UID or DTSTART is logged and skipped.
func Parse(body []byte) ([]model.Event, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, errors.New("ics: empty calendar body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		appLog.Error("ics parse failed", err)
		return nil, err
	}

	events := make([]model.Event, 0, len(cal.Events()))
	for _, ve := range cal.Events() {
		ev, perr := parseVEvent(ve)
		if perr != nil {
			// Keep the rest of the feed.
			appLog.Error("ics vevent parse failed", perr)
			continue
		}
		events = append(events, ev)
	}

	appLog.Debug("ics parse completed", "event_count", len(events))
	return events, nil
}

func parseVEvent(ve *ical.VEvent) (model.Event, error) {
	var out model.Event

	uidProp := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uidProp == nil || uidProp.Value == "" {
		return out, errors.New("missing UID")
	}
	out.UID = uidProp.Value

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Summary = p.Value
		out.Custodian = strings.TrimSpace(p.Value)
	}

	dtstart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtstart == nil {
		return out, errors.New("missing DTSTART")
	}
	start, err := naiveTime(dtstart.Value)
	if err != nil {
		return out, err
	}
	out.Start, out.End = start, start
	if p := ve.GetProperty(ical.ComponentPropertyDtEnd); p != nil {
		if out.End, err = naiveTime(p.Value); err != nil {
			return out, err
		}
	}

	out.TimeZone = "Local"
	if tzs, ok := dtstart.ICalParameters[string(ical.ParameterTzid)]; ok && len(tzs) > 0 {
		out.TimeZone = tzs[0]
	} else if strings.HasSuffix(dtstart.Value, "Z") {
		out.TimeZone = "UTC"
	}
	return out, nil
}

// naiveTime reads a DATE-TIME or DATE value without applying any zone.
func naiveTime(v string) (time.Time, error) {
	v = strings.TrimSuffix(v, "Z")
	layout := localLayout
	if len(v) == len("20060102") {
		layout = "20060102"
	}
	t, err := time.Parse(layout, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad date-time %q: %w", v, err)
	}
	return t, nil
}
