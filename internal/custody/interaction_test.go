package custody

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"custodycal/internal/model"
)

func mondayEvening(t *testing.T) *Restriction {
	t.Helper()
	r, err := NewRestriction(map[time.Weekday]model.ClockRange{
		time.Monday: {Start: 17 * time.Hour, End: 20 * time.Hour},
	})
	require.NoError(t, err)
	return r
}

func filteredTotal(r *Restriction, ivs []model.Interval) map[string]time.Duration {
	out := make(map[string]time.Duration)
	for _, v := range ivs {
		for _, p := range r.Filter(v) {
			out[p.Custodian] += p.Duration()
		}
	}
	return out
}

func TestRestriction_FullWeekPerDay(t *testing.T) {
	r := mondayEvening(t)

	// Monday Mar 3 2025 through Sunday Mar 9, one interval per day.
	var week []model.Interval
	for d := 3; d <= 9; d++ {
		week = append(week, iv("Mom", at(d, 0), at(d+1, 0)))
	}

	got := filteredTotal(r, week)
	assert.Equal(t, 3*time.Hour, got["Mom"])
	assert.Equal(t, time.Duration(0), got["Dad"])
}

func TestRestriction_SingleMultiDayInterval(t *testing.T) {
	r := mondayEvening(t)

	pieces := r.Filter(iv("Mom", at(2, 12), at(10, 0)))
	require.Len(t, pieces, 1)
	assert.Equal(t, at(3, 17), pieces[0].Start)
	assert.Equal(t, at(3, 20), pieces[0].End)
	assert.Equal(t, "Mom", pieces[0].Custodian)
}

func TestRestriction_OtherCustodianHoldsMonday(t *testing.T) {
	r := mondayEvening(t)

	got := filteredTotal(r, []model.Interval{
		iv("Dad", at(3, 0), at(3, 18)),
		iv("Mom", at(3, 18), at(4, 0)),
	})
	assert.Equal(t, time.Hour, got["Dad"])
	assert.Equal(t, 2*time.Hour, got["Mom"])
}

func TestRestriction_UntilMidnight(t *testing.T) {
	r, err := NewRestriction(map[time.Weekday]model.ClockRange{
		time.Saturday: {Start: 8 * time.Hour, End: Day},
	})
	require.NoError(t, err)

	// Saturday Mar 8 2025.
	pieces := r.Filter(iv("Dad", at(8, 0), at(9, 0)))
	require.Len(t, pieces, 1)
	assert.Equal(t, 16*time.Hour, pieces[0].Duration())

	cr, ok := r.Range(time.Saturday)
	assert.True(t, ok)
	assert.Equal(t, Day, cr.End)
	_, ok = r.Range(time.Sunday)
	assert.False(t, ok)
}

func TestNewRestriction_Rejects(t *testing.T) {
	tests := map[string]model.ClockRange{
		"empty":      {Start: 9 * time.Hour, End: 9 * time.Hour},
		"backwards":  {Start: 20 * time.Hour, End: 8 * time.Hour},
		"past 24:00": {Start: 9 * time.Hour, End: 25 * time.Hour},
	}
	for name, cr := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := NewRestriction(map[time.Weekday]model.ClockRange{time.Friday: cr})
			assert.ErrorIs(t, err, ErrConfiguration)
		})
	}
}
