package custody

import (
	"sort"
	"strings"
	"time"

	"custodycal/internal/model"
)

// segment is a custody span on a cycle timeline, measured from Monday 00:00
// of cycle position 1.
type segment struct {
	custodian  string
	start, end time.Duration
}

// piece is a custody span within one day, as offsets from that day's midnight.
type piece struct {
	custodian string
	from, to  time.Duration
}

// Cycle is one named schedule's repeating pattern. Its length in weeks is
// the highest cycle position among its windows.
type Cycle struct {
	name      string
	length    int
	positions [][]model.CustodyWindow
	segments  []segment
}

// NewCycle validates windows and lays them out on a timeline of length
// weeks. The windows must tile the timeline exactly: a gap or an overlap
// anywhere in the cycle is a configuration error.
func NewCycle(name string, windows []model.CustodyWindow) (*Cycle, error) {
	if len(windows) == 0 {
		return nil, configErrorf("schedule %q: no custody windows, cycle length is zero", name)
	}

	length := 0
	for _, w := range windows {
		if w.Position < 1 {
			return nil, configErrorf("schedule %q: cycle position %d is not 1-based", name, w.Position)
		}
		if strings.TrimSpace(w.Custodian) == "" {
			return nil, configErrorf("schedule %q: position %d window %d has no custodian", name, w.Position, w.Index)
		}
		if !validClock(w.StartTime) || !validClock(w.EndTime) {
			return nil, configErrorf("schedule %q: position %d window %d has a time outside 00:00-24:00", name, w.Position, w.Index)
		}
		length = max(length, w.Position)
	}

	positions := make([][]model.CustodyWindow, length)
	for _, w := range windows {
		positions[w.Position-1] = append(positions[w.Position-1], w)
	}
	for i, ws := range positions {
		if len(ws) == 0 {
			return nil, configErrorf("schedule %q: cycle position %d has no custody windows", name, i+1)
		}
		sort.SliceStable(ws, func(a, b int) bool { return ws[a].Index < ws[b].Index })
		for j := 1; j < len(ws); j++ {
			if ws[j].Index == ws[j-1].Index {
				return nil, configErrorf("schedule %q: position %d defines window %d twice", name, i+1, ws[j].Index)
			}
		}
	}

	total := time.Duration(length) * Week
	segments := make([]segment, 0, len(windows)+1)
	for _, ws := range positions {
		for _, w := range ws {
			base := time.Duration(w.Position-1) * Week
			start := base + weekOffset(w.StartDay, w.StartTime)
			end := base + weekOffset(w.EndDay, w.EndTime)
			if end <= start {
				end += Week
			}
			if start >= total {
				start, end = start-total, end-total
			}
			if end > total {
				segments = append(segments,
					segment{custodian: w.Custodian, start: start, end: total},
					segment{custodian: w.Custodian, start: 0, end: end - total},
				)
				continue
			}
			segments = append(segments, segment{custodian: w.Custodian, start: start, end: end})
		}
	}

	sort.Slice(segments, func(a, b int) bool { return segments[a].start < segments[b].start })

	var at time.Duration
	for _, s := range segments {
		switch {
		case s.start > at:
			return nil, configErrorf("schedule %q: no custodian from %s to %s", name, describeOffset(at), describeOffset(s.start))
		case s.start < at:
			return nil, configErrorf("schedule %q: %s overlaps another window at %s", name, s.custodian, describeOffset(s.start))
		}
		at = s.end
	}
	if at != total {
		return nil, configErrorf("schedule %q: no custodian from %s to the end of the cycle", name, describeOffset(at))
	}

	return &Cycle{
		name:      name,
		length:    length,
		positions: positions,
		segments:  segments,
	}, nil
}

// Name returns the schedule name.
func (c *Cycle) Name() string { return c.name }

// Length returns the cycle length in weeks.
func (c *Cycle) Length() int { return c.length }

// Windows returns the windows of a cycle position in index order.
func (c *Cycle) Windows(position int) []model.CustodyWindow {
	if position < 1 || position > c.length {
		return nil
	}
	return append([]model.CustodyWindow(nil), c.positions[position-1]...)
}

// day returns the custody pieces covering weekday wd of the given position.
func (c *Cycle) day(position int, wd time.Weekday) []piece {
	start := time.Duration(position-1)*Week + time.Duration(isoIndex(wd))*Day
	end := start + Day

	i := sort.Search(len(c.segments), func(i int) bool { return c.segments[i].end > start })
	var out []piece
	for ; i < len(c.segments) && c.segments[i].start < end; i++ {
		s := c.segments[i]
		out = append(out, piece{
			custodian: s.custodian,
			from:      max(s.start, start) - start,
			to:        min(s.end, end) - start,
		})
	}
	return out
}
