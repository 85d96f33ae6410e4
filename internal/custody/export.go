package custody

import (
	"time"

	"github.com/google/uuid"

	"custodycal/internal/model"
)

// eventNamespace seeds the name-based UIDs so that exporting the same
// schedule twice yields the same UIDs.
var eventNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("urn:custodycal:event"))

// Export turns merged runs into events for loc. Start and end stay naive
// wall clocks; only the zone name is attached, so a time inside a DST gap is
// exported exactly as resolved. A nil loc means time.Local.
func Export(runs []model.Interval, loc *time.Location) []model.Event {
	if loc == nil {
		loc = time.Local
	}
	events := make([]model.Event, 0, len(runs))
	for _, r := range runs {
		events = append(events, model.Event{
			UID:       eventUID(r.Custodian, r.Start),
			Custodian: r.Custodian,
			Summary:   r.Custodian,
			Start:     r.Start,
			End:       r.End,
			TimeZone:  loc.String(),
		})
	}
	return events
}

func eventUID(custodian string, start time.Time) string {
	key := custodian + "|" + start.Format("20060102T150405")
	return uuid.NewSHA1(eventNamespace, []byte(key)).String()
}
