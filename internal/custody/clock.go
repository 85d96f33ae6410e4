package custody

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	Day  = 24 * time.Hour
	Week = 7 * Day
)

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ParseWeekday accepts full English weekday names and their three-letter
// abbreviations, case-insensitively.
func ParseWeekday(s string) (time.Weekday, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if wd, ok := weekdayNames[name]; ok {
		return wd, nil
	}
	if len(name) == 3 {
		for full, wd := range weekdayNames {
			if strings.HasPrefix(full, name) {
				return wd, nil
			}
		}
	}
	return time.Sunday, configErrorf("unrecognized weekday %q", s)
}

// ParseClock parses "HH:MM" into an offset from midnight. "24:00" is
// midnight of the following day.
func ParseClock(s string) (time.Duration, error) {
	v := strings.TrimSpace(s)
	hs, ms, ok := strings.Cut(v, ":")
	if !ok || hs == "" || len(ms) != 2 {
		return 0, configErrorf("time %q is not HH:MM", s)
	}
	h, err := strconv.Atoi(hs)
	if err != nil {
		return 0, configErrorf("time %q is not HH:MM", s)
	}
	m, err := strconv.Atoi(ms)
	if err != nil {
		return 0, configErrorf("time %q is not HH:MM", s)
	}
	if h < 0 || m < 0 || m > 59 || h > 24 || (h == 24 && m != 0) {
		return 0, configErrorf("time %q is outside 00:00-24:00", s)
	}
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute, nil
}

// FormatClock is the inverse of ParseClock for offsets within a day.
func FormatClock(d time.Duration) string {
	return fmt.Sprintf("%02d:%02d", int(d/time.Hour), int(d%time.Hour/time.Minute))
}

func validClock(d time.Duration) bool {
	return d >= 0 && d <= Day && d%time.Minute == 0
}

// isoIndex maps a weekday to its position in an ISO week (Monday = 0).
func isoIndex(wd time.Weekday) int {
	return (int(wd) + 6) % 7
}

func isoWeekday(i int) time.Weekday {
	return time.Weekday((i + 1) % 7)
}

// weekOffset normalizes a weekday and time of day to an offset from
// Monday 00:00.
func weekOffset(wd time.Weekday, clock time.Duration) time.Duration {
	return time.Duration(isoIndex(wd))*Day + clock
}

// describeOffset renders a cycle timeline offset as "position N Weekday HH:MM".
func describeOffset(off time.Duration) string {
	pos := int(off/Week) + 1
	inWeek := off % Week
	return fmt.Sprintf("position %d %s %s", pos, isoWeekday(int(inWeek/Day)), FormatClock(inWeek%Day))
}
