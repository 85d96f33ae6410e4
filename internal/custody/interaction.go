package custody

import (
	"time"

	"custodycal/internal/model"
)

// Restriction limits interaction accounting to a time-of-day range per
// weekday. Weekdays without a range contribute nothing.
type Restriction struct {
	days [7]*model.ClockRange
}

// NewRestriction validates the per-weekday ranges. Each range must satisfy
// 00:00 <= start < end <= 24:00.
func NewRestriction(ranges map[time.Weekday]model.ClockRange) (*Restriction, error) {
	r := &Restriction{}
	for wd, cr := range ranges {
		if wd < time.Sunday || wd > time.Saturday {
			return nil, configErrorf("interaction weekday %d is not a weekday", int(wd))
		}
		if !validClock(cr.Start) || !validClock(cr.End) {
			return nil, configErrorf("interaction range on %s is outside 00:00-24:00", wd)
		}
		if cr.Start >= cr.End {
			return nil, configErrorf("interaction range on %s starts at %s but ends at %s",
				wd, FormatClock(cr.Start), FormatClock(cr.End))
		}
		r.days[wd] = &cr
	}
	return r, nil
}

// Range returns the range configured for a weekday.
func (r *Restriction) Range(wd time.Weekday) (model.ClockRange, bool) {
	if cr := r.days[wd]; cr != nil {
		return *cr, true
	}
	return model.ClockRange{}, false
}

// Filter returns the parts of iv that fall inside the restricted ranges of
// every day it touches, in chronological order.
func (r *Restriction) Filter(iv model.Interval) []model.Interval {
	var out []model.Interval
	y, m, d := iv.Start.Date()
	for day := time.Date(y, m, d, 0, 0, 0, 0, iv.Start.Location()); day.Before(iv.End); day = day.AddDate(0, 0, 1) {
		cr := r.days[day.Weekday()]
		if cr == nil {
			continue
		}
		from := later(iv.Start, day.Add(cr.Start))
		to := earlier(iv.End, day.Add(cr.End))
		if from.Before(to) {
			out = append(out, model.Interval{
				Custodian: iv.Custodian,
				Schedule:  iv.Schedule,
				Start:     from,
				End:       to,
			})
		}
	}
	return out
}

func later(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func earlier(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
