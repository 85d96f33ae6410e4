package custody

import (
	"sort"
	"strings"
	"time"
)

// Assignment maps ISO week numbers to schedule names over an inclusive
// range of calendar years. Weeks absent from the map carry no custody.
type Assignment struct {
	startYear int
	endYear   int
	weeks     map[int]string
}

// NewAssignment validates the year range and week numbers. The map is copied.
func NewAssignment(startYear, endYear int, weeks map[int]string) (*Assignment, error) {
	if startYear > endYear {
		return nil, rangeErrorf("start year %d is after end year %d", startYear, endYear)
	}
	copied := make(map[int]string, len(weeks))
	for week, name := range weeks {
		if week < 1 || week > 53 {
			return nil, rangeErrorf("week %d is outside 1-53", week)
		}
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, configErrorf("week %d is mapped to an empty schedule name", week)
		}
		copied[week] = name
	}
	return &Assignment{startYear: startYear, endYear: endYear, weeks: copied}, nil
}

func (a *Assignment) StartYear() int { return a.startYear }
func (a *Assignment) EndYear() int   { return a.endYear }

// FirstDay is January 1 of the start year, as a naive UTC date.
func (a *Assignment) FirstDay() time.Time {
	return time.Date(a.startYear, time.January, 1, 0, 0, 0, 0, time.UTC)
}

// LastDay is December 31 of the end year, as a naive UTC date.
func (a *Assignment) LastDay() time.Time {
	return time.Date(a.endYear, time.December, 31, 0, 0, 0, 0, time.UTC)
}

// ScheduleFor returns the schedule assigned to an ISO week number.
func (a *Assignment) ScheduleFor(week int) (string, bool) {
	name, ok := a.weeks[week]
	return name, ok
}

// Schedules returns the distinct schedule names in use, sorted.
func (a *Assignment) Schedules() []string {
	seen := make(map[string]struct{})
	for _, name := range a.weeks {
		seen[name] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
