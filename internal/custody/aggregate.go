package custody

import (
	"sort"
	"time"

	"custodycal/internal/model"
)

// Bucket accumulates custody durations for one month, one year, or the
// whole range. Month is zero for year and overall buckets; Year is zero for
// the overall bucket.
type Bucket struct {
	Year  int
	Month time.Month

	// Span is the calendar time walked inside the bucket.
	Span time.Duration

	Custody     map[string]time.Duration
	Interaction map[string]time.Duration

	// Restricted is set once any day in the bucket had an interaction
	// restriction. Interaction figures are undefined otherwise.
	Restricted bool
}

func newBucket(year int, month time.Month) *Bucket {
	return &Bucket{
		Year:        year,
		Month:       month,
		Custody:     make(map[string]time.Duration),
		Interaction: make(map[string]time.Duration),
	}
}

// Total is the custody time summed over all custodians.
func (b *Bucket) Total() time.Duration { return sum(b.Custody) }

// InteractionTotal is the interaction time summed over all custodians.
func (b *Bucket) InteractionTotal() time.Duration { return sum(b.Interaction) }

// Unassigned is the part of Span that no custodian holds.
func (b *Bucket) Unassigned() time.Duration { return b.Span - b.Total() }

// Percent returns the custodian's share of Total in percent. ok is false
// when Total is zero.
func (b *Bucket) Percent(custodian string) (pct float64, ok bool) {
	return share(b.Custody[custodian], b.Total())
}

// InteractionPercent returns the custodian's share of InteractionTotal in
// percent. ok is false when the bucket is unrestricted or the total is zero.
func (b *Bucket) InteractionPercent(custodian string) (pct float64, ok bool) {
	if !b.Restricted {
		return 0, false
	}
	return share(b.Interaction[custodian], b.InteractionTotal())
}

func share(part, total time.Duration) (float64, bool) {
	if total <= 0 {
		return 0, false
	}
	return float64(part) / float64(total) * 100, true
}

func sum(m map[string]time.Duration) time.Duration {
	var total time.Duration
	for _, d := range m {
		total += d
	}
	return total
}

type monthKey struct {
	year  int
	month time.Month
}

// Aggregator rolls intervals up into month, year and overall buckets. Feed
// it in any order; read it once the pass is complete.
type Aggregator struct {
	months     map[monthKey]*Bucket
	years      map[int]*Bucket
	overall    *Bucket
	custodians map[string]struct{}
}

func NewAggregator() *Aggregator {
	return &Aggregator{
		months:     make(map[monthKey]*Bucket),
		years:      make(map[int]*Bucket),
		overall:    newBucket(0, 0),
		custodians: make(map[string]struct{}),
	}
}

func (a *Aggregator) buckets(t time.Time) [3]*Bucket {
	y, m, _ := t.Date()
	mb, ok := a.months[monthKey{y, m}]
	if !ok {
		mb = newBucket(y, m)
		a.months[monthKey{y, m}] = mb
	}
	yb, ok := a.years[y]
	if !ok {
		yb = newBucket(y, 0)
		a.years[y] = yb
	}
	return [3]*Bucket{mb, yb, a.overall}
}

// Observe records that the calendar day starting at date was walked.
func (a *Aggregator) Observe(date time.Time) {
	for _, b := range a.buckets(date) {
		b.Span += Day
	}
}

// Add accumulates raw custody time.
func (a *Aggregator) Add(iv model.Interval) {
	a.custodians[iv.Custodian] = struct{}{}
	a.accumulate(iv, func(b *Bucket) map[string]time.Duration { return b.Custody })
}

// AddInteraction marks the buckets containing at as restricted and
// accumulates the filtered pieces. Call it for every interval resolved under
// a restricted schedule, even when pieces is empty.
func (a *Aggregator) AddInteraction(at time.Time, pieces []model.Interval) {
	for _, b := range a.buckets(at) {
		b.Restricted = true
	}
	for _, p := range pieces {
		a.accumulate(p, func(b *Bucket) map[string]time.Duration { return b.Interaction })
	}
}

// accumulate adds iv to every bucket it touches, splitting at month
// boundaries.
func (a *Aggregator) accumulate(iv model.Interval, pick func(*Bucket) map[string]time.Duration) {
	for start := iv.Start; start.Before(iv.End); {
		y, m, _ := start.Date()
		end := earlier(iv.End, time.Date(y, m+1, 1, 0, 0, 0, 0, start.Location()))
		for _, b := range a.buckets(start) {
			pick(b)[iv.Custodian] += end.Sub(start)
		}
		start = end
	}
}

// Month returns the bucket for a month, or nil if nothing fell in it.
func (a *Aggregator) Month(year int, month time.Month) *Bucket {
	return a.months[monthKey{year, month}]
}

// Year returns the bucket for a year, or nil if nothing fell in it.
func (a *Aggregator) Year(year int) *Bucket {
	return a.years[year]
}

// Overall returns the bucket spanning the whole pass.
func (a *Aggregator) Overall() *Bucket {
	return a.overall
}

// Months returns all month buckets in chronological order.
func (a *Aggregator) Months() []*Bucket {
	out := make([]*Bucket, 0, len(a.months))
	for _, b := range a.months {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Month < out[j].Month
	})
	return out
}

// Years returns all year buckets in chronological order.
func (a *Aggregator) Years() []*Bucket {
	out := make([]*Bucket, 0, len(a.years))
	for _, b := range a.years {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Year < out[j].Year })
	return out
}

// Custodians returns every custodian seen, sorted.
func (a *Aggregator) Custodians() []string {
	out := make([]string, 0, len(a.custodians))
	for c := range a.custodians {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
