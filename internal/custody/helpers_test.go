package custody

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"custodycal/internal/model"
)

func clock(t *testing.T, s string) time.Duration {
	t.Helper()
	d, err := ParseClock(s)
	require.NoError(t, err)
	return d
}

func window(t *testing.T, custodian string, pos int, startDay time.Weekday, start string, endDay time.Weekday, end string) model.CustodyWindow {
	t.Helper()
	return model.CustodyWindow{
		Custodian: custodian,
		Position:  pos,
		StartDay:  startDay,
		StartTime: clock(t, start),
		EndDay:    endDay,
		EndTime:   clock(t, end),
	}
}

// indexed numbers windows in argument order.
func indexed(ws ...model.CustodyWindow) []model.CustodyWindow {
	for i := range ws {
		ws[i].Index = i + 1
	}
	return ws
}

func allWeeks(name string) map[int]string {
	weeks := make(map[int]string, 53)
	for w := 1; w <= 53; w++ {
		weeks[w] = name
	}
	return weeks
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// handoffCycle: Mom from Sunday 00:00 to Monday 08:30, Dad the rest.
func handoffCycle(t *testing.T) *Cycle {
	t.Helper()
	c, err := NewCycle("school", indexed(
		window(t, "Mom", 1, time.Sunday, "00:00", time.Monday, "08:30"),
		window(t, "Dad", 1, time.Monday, "08:30", time.Sunday, "00:00"),
	))
	require.NoError(t, err)
	return c
}

// alternatingCycle: Mom all of position 1, Dad all of position 2.
func alternatingCycle(t *testing.T, name string) *Cycle {
	t.Helper()
	c, err := NewCycle(name, indexed(
		window(t, "Mom", 1, time.Monday, "00:00", time.Monday, "00:00"),
		window(t, "Dad", 2, time.Monday, "00:00", time.Monday, "00:00"),
	))
	require.NoError(t, err)
	return c
}
