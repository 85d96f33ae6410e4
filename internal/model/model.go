package model

import "time"

// CustodyWindow is one row of a schedule's repeating pattern: the custodian
// holds the child from StartDay/StartTime to EndDay/EndTime during the given
// cycle position. Times are offsets from midnight; 24h means midnight of the
// following day.
type CustodyWindow struct {
	Custodian string

	// Position is the 1-based week of the cycle this window belongs to.
	Position int
	// Index orders windows within a position.
	Index int

	StartDay  time.Weekday
	StartTime time.Duration
	EndDay    time.Weekday
	EndTime   time.Duration
}

// ClockRange is a time-of-day range [Start, End) on a single day.
type ClockRange struct {
	Start time.Duration
	End   time.Duration
}

// Interval is a resolved custody interval on the naive local clock. Start
// and End carry wall-clock values in UTC; no timezone is attached until the
// interval is exported.
type Interval struct {
	Custodian string
	// Schedule is the schedule the interval was resolved from. It is empty
	// for merged runs that span more than one schedule.
	Schedule string

	Start time.Time
	End   time.Time
}

// Duration returns End - Start.
func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

// Event is a merged run of contiguous same-custodian intervals, annotated
// with the timezone it should be read in.
type Event struct {
	// UID is a stable identifier derived from the custodian and start.
	UID string

	Custodian string
	Summary   string

	// Start / End are naive wall-clock times (UTC location) to be read in
	// TimeZone.
	Start    time.Time
	End      time.Time
	TimeZone string
}
