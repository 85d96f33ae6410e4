package custody

import (
	"sort"

	"custodycal/internal/model"
)

// Merger joins contiguous intervals of the same custodian into runs. Each
// custodian has its own open run, so custodians may interleave freely; only
// each custodian's own intervals need to arrive in chronological order.
type Merger struct {
	open map[string]model.Interval
}

func NewMerger() *Merger {
	return &Merger{open: make(map[string]model.Interval)}
}

// Add feeds the next interval. It returns the run it closed, if any.
func (m *Merger) Add(iv model.Interval) []model.Interval {
	run, ok := m.open[iv.Custodian]
	if ok && run.End.Equal(iv.Start) {
		run.End = iv.End
		if run.Schedule != iv.Schedule {
			run.Schedule = ""
		}
		m.open[iv.Custodian] = run
		return nil
	}
	m.open[iv.Custodian] = iv
	if ok {
		return []model.Interval{run}
	}
	return nil
}

// Flush closes every open run and resets the merger.
func (m *Merger) Flush() []model.Interval {
	out := make([]model.Interval, 0, len(m.open))
	for _, run := range m.open {
		out = append(out, run)
	}
	clear(m.open)
	SortIntervals(out)
	return out
}

// Merge merges a chronologically ordered slice in one go. The result is
// sorted by start time.
func Merge(ivs []model.Interval) []model.Interval {
	m := NewMerger()
	var out []model.Interval
	for _, iv := range ivs {
		out = append(out, m.Add(iv)...)
	}
	out = append(out, m.Flush()...)
	SortIntervals(out)
	return out
}

// SortIntervals orders intervals by start, then custodian.
func SortIntervals(ivs []model.Interval) {
	sort.SliceStable(ivs, func(i, j int) bool {
		if !ivs[i].Start.Equal(ivs[j].Start) {
			return ivs[i].Start.Before(ivs[j].Start)
		}
		return ivs[i].Custodian < ivs[j].Custodian
	})
}
