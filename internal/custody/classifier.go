package custody

import "fmt"

// Placement is the outcome of classifying one ISO week.
type Placement struct {
	// Schedule is empty for unmapped weeks.
	Schedule string
	// Position is the 1-based cycle position for the week.
	Position int
	// Occurrence counts the weeks of Schedule seen so far in this pass,
	// including this one.
	Occurrence int
}

// Assigned reports whether the week belongs to a schedule.
func (p Placement) Assigned() bool { return p.Schedule != "" }

type isoWeek struct {
	year, week int
}

func (w isoWeek) before(o isoWeek) bool {
	if w.year != o.year {
		return w.year < o.year
	}
	return w.week < o.week
}

// WeekClassifier assigns ISO weeks to schedules and tracks how many weeks of
// each schedule have gone by. A schedule's cycle only advances on its own
// weeks, so interleaved schedules do not disturb each other.
//
// A classifier must be driven in chronological order and belongs to a single
// resolution pass. It is not safe for concurrent use.
type WeekClassifier struct {
	assignment *Assignment
	lengths    map[string]int
	counts     map[string]int

	started bool
	last    isoWeek
	current Placement
}

// NewWeekClassifier returns a classifier with all occurrence counters at
// zero. lengths holds the cycle length of every schedule.
func NewWeekClassifier(a *Assignment, lengths map[string]int) *WeekClassifier {
	return &WeekClassifier{
		assignment: a,
		lengths:    lengths,
		counts:     make(map[string]int),
	}
}

// Classify returns the placement for ISO week (year, week). Asking again for
// the most recent week returns the same placement without advancing.
func (c *WeekClassifier) Classify(year, week int) (Placement, error) {
	key := isoWeek{year: year, week: week}
	if c.started {
		if key == c.last {
			return c.current, nil
		}
		if key.before(c.last) {
			return Placement{}, fmt.Errorf("%w: %d-W%02d requested after %d-W%02d",
				ErrOutOfOrder, year, week, c.last.year, c.last.week)
		}
	}
	if week < 1 || week > 53 {
		return Placement{}, rangeErrorf("week %d is outside 1-53", week)
	}

	name, ok := c.assignment.ScheduleFor(week)
	if !ok {
		c.started, c.last, c.current = true, key, Placement{}
		return c.current, nil
	}
	length := c.lengths[name]
	if length < 1 {
		return Placement{}, configErrorf("schedule %q has no cycle", name)
	}

	c.counts[name]++
	n := c.counts[name]
	c.started, c.last = true, key
	c.current = Placement{
		Schedule:   name,
		Position:   (n-1)%length + 1,
		Occurrence: n,
	}
	return c.current, nil
}
