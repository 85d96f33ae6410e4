package custody

import (
	"iter"
	"time"

	"github.com/teambition/rrule-go"

	"custodycal/internal/model"
)

// ResolvedDay is the resolution of one calendar date.
type ResolvedDay struct {
	// Date is midnight of the day on the naive (UTC) clock.
	Date time.Time

	ISOYear int
	ISOWeek int

	Placement Placement

	// Intervals tile the day when the week is assigned and are empty
	// otherwise. They are clipped to the day; a window crossing midnight
	// shows up on both dates.
	Intervals []model.Interval
}

// Engine resolves an assignment against its schedules' cycles. It holds
// only immutable inputs; every pass builds its own classifier.
type Engine struct {
	assignment   *Assignment
	cycles       map[string]*Cycle
	restrictions map[string]*Restriction
}

// NewEngine checks that every schedule used by the assignment has a cycle
// and that every restriction belongs to a known schedule.
func NewEngine(a *Assignment, cycles []*Cycle, restrictions map[string]*Restriction) (*Engine, error) {
	if a == nil {
		return nil, configErrorf("no schedule assignment")
	}
	e := &Engine{
		assignment:   a,
		cycles:       make(map[string]*Cycle, len(cycles)),
		restrictions: make(map[string]*Restriction, len(restrictions)),
	}
	for _, c := range cycles {
		if _, dup := e.cycles[c.Name()]; dup {
			return nil, configErrorf("schedule %q is defined twice", c.Name())
		}
		e.cycles[c.Name()] = c
	}
	for _, name := range a.Schedules() {
		if _, ok := e.cycles[name]; !ok {
			return nil, configErrorf("schedule %q is assigned to weeks but has no cycle", name)
		}
	}
	for name, r := range restrictions {
		if _, ok := e.cycles[name]; !ok {
			return nil, configErrorf("interaction restriction for unknown schedule %q", name)
		}
		if r != nil {
			e.restrictions[name] = r
		}
	}
	return e, nil
}

// Assignment returns the engine's week assignment.
func (e *Engine) Assignment() *Assignment { return e.assignment }

// Restriction returns the interaction restriction of a schedule.
func (e *Engine) Restriction(schedule string) (*Restriction, bool) {
	r, ok := e.restrictions[schedule]
	return r, ok
}

func (e *Engine) cycleLengths() map[string]int {
	lengths := make(map[string]int, len(e.cycles))
	for name, c := range e.cycles {
		lengths[name] = c.Length()
	}
	return lengths
}

// Days lazily resolves every date from January 1 of the start year to
// December 31 of the end year. Each range over the sequence starts a fresh
// pass. Iteration stops after the first error.
func (e *Engine) Days() iter.Seq2[ResolvedDay, error] {
	return func(yield func(ResolvedDay, error) bool) {
		rule, err := rrule.NewRRule(rrule.ROption{
			Freq:    rrule.DAILY,
			Dtstart: e.assignment.FirstDay(),
			Until:   e.assignment.LastDay(),
		})
		if err != nil {
			yield(ResolvedDay{}, err)
			return
		}

		classifier := NewWeekClassifier(e.assignment, e.cycleLengths())
		next := rule.Iterator()
		for date, ok := next(); ok; date, ok = next() {
			day, err := e.resolve(classifier, date)
			if !yield(day, err) || err != nil {
				return
			}
		}
	}
}

func (e *Engine) resolve(classifier *WeekClassifier, date time.Time) (ResolvedDay, error) {
	year, week := date.ISOWeek()
	placement, err := classifier.Classify(year, week)
	if err != nil {
		return ResolvedDay{}, err
	}

	day := ResolvedDay{Date: date, ISOYear: year, ISOWeek: week, Placement: placement}
	if !placement.Assigned() {
		return day, nil
	}

	cycle := e.cycles[placement.Schedule]
	for _, p := range cycle.day(placement.Position, date.Weekday()) {
		day.Intervals = append(day.Intervals, model.Interval{
			Custodian: p.custodian,
			Schedule:  placement.Schedule,
			Start:     date.Add(p.from),
			End:       date.Add(p.to),
		})
	}
	return day, nil
}

// Options tune a Compute pass.
type Options struct {
	// Location is attached to exported events. Nil means time.Local.
	Location *time.Location
	// KeepDays retains every ResolvedDay in the result.
	KeepDays bool
}

// Result is the output of one Compute pass.
type Result struct {
	Start    time.Time
	End      time.Time
	Location *time.Location

	Days    []ResolvedDay
	Events  []model.Event
	Summary *Aggregator
}

// Compute walks the whole range once, feeding the merger and aggregator as
// days are resolved.
func (e *Engine) Compute(opts Options) (*Result, error) {
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}

	agg := NewAggregator()
	merger := NewMerger()
	res := &Result{
		Start:    e.assignment.FirstDay(),
		End:      e.assignment.LastDay().Add(Day),
		Location: loc,
	}

	var runs []model.Interval
	for day, err := range e.Days() {
		if err != nil {
			return nil, err
		}
		agg.Observe(day.Date)
		for _, iv := range day.Intervals {
			agg.Add(iv)
			if r, ok := e.restrictions[iv.Schedule]; ok {
				agg.AddInteraction(iv.Start, r.Filter(iv))
			}
			runs = append(runs, merger.Add(iv)...)
		}
		if opts.KeepDays {
			res.Days = append(res.Days, day)
		}
	}
	runs = append(runs, merger.Flush()...)
	SortIntervals(runs)

	res.Events = Export(runs, loc)
	res.Summary = agg
	return res, nil
}
