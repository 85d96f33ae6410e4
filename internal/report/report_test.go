package report

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"custodycal/internal/custody"
	"custodycal/internal/model"
)

var generated = time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)

func hm(h, m int) time.Duration {
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute
}

// computeSample resolves 2025 with only ISO weeks 1-5 assigned. Mom holds
// Monday 00:00 to Thursday 12:00 (in two windows), Dad the rest. Interaction
// counts Saturdays 09:00-12:00. Dec 29-31 2025 fall in ISO week 1 of 2026,
// so they are assigned too.
func computeSample(t *testing.T) *custody.Result {
	t.Helper()
	cycle, err := custody.NewCycle("school", []model.CustodyWindow{
		{Custodian: "Mom", Position: 1, Index: 1, StartDay: time.Monday, EndDay: time.Tuesday, EndTime: hm(6, 0)},
		{Custodian: "Mom", Position: 1, Index: 2, StartDay: time.Tuesday, StartTime: hm(6, 0), EndDay: time.Thursday, EndTime: hm(12, 0)},
		{Custodian: "Dad", Position: 1, Index: 3, StartDay: time.Thursday, StartTime: hm(12, 0), EndDay: time.Monday},
	})
	require.NoError(t, err)

	a, err := custody.NewAssignment(2025, 2025, map[int]string{1: "school", 2: "school", 3: "school", 4: "school", 5: "school"})
	require.NoError(t, err)

	r, err := custody.NewRestriction(map[time.Weekday]model.ClockRange{
		time.Saturday: {Start: hm(9, 0), End: hm(12, 0)},
	})
	require.NoError(t, err)

	e, err := custody.NewEngine(a, []*custody.Cycle{cycle}, map[string]*custody.Restriction{"school": r})
	require.NoError(t, err)

	res, err := e.Compute(custody.Options{Location: time.UTC, KeepDays: true})
	require.NoError(t, err)
	return res
}

func readAudit(t *testing.T, res *custody.Result) [][]string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, WriteAudit(&buf, res, generated))

	r := csv.NewReader(&buf)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	require.NoError(t, err)
	return rows
}

func findRow(rows [][]string, first ...string) []string {
	for _, row := range rows {
		if len(row) < len(first) {
			continue
		}
		match := true
		for i, f := range first {
			if row[i] != f {
				match = false
				break
			}
		}
		if match {
			return row
		}
	}
	return nil
}

func TestWriteAudit_Summary(t *testing.T) {
	rows := readAudit(t, computeSample(t))

	assert.Equal(t, []string{"Custody Percentage Calculation Audit File"}, rows[0])
	assert.Equal(t, []string{"Generated On:", "2025-06-01"}, rows[1])
	assert.Equal(t, "Purpose:", rows[2][0])

	assert.NotNil(t, findRow(rows, "OVERALL SUMMARY (2025 - 2025)"))
	assert.Equal(t,
		[]string{"Calculation Type", "Dad's Hours", "Mom's Hours", "Total Hours", "Dad's Percentage", "Mom's Percentage"},
		findRow(rows, "Calculation Type"))
	assert.Equal(t,
		[]string{"Total Custody Time", "420.00", "444.00", "864.00", "48.61%", "51.39%"},
		findRow(rows, "Total Custody Time"))
	assert.Equal(t,
		[]string{"Interaction Time", "15.00", "0.00", "15.00", "100.00%", "0.00%"},
		findRow(rows, "Interaction Time"))
	assert.Equal(t, []string{"Unassigned Time", "7896.00"}, findRow(rows, "Unassigned Time"))
}

func TestWriteAudit_MonthlyBreakdown(t *testing.T) {
	rows := readAudit(t, computeSample(t))

	header := findRow(rows, "Year", "Month")
	require.NotNil(t, header)
	assert.Equal(t, []string{
		"Year", "Month", "Total Hours",
		"Dad's Hours", "Mom's Hours", "Dad %", "Mom %",
		"Interaction Dad Hours", "Interaction Mom Hours", "Interaction Total",
		"Interaction Dad %", "Interaction Mom %",
		"Unassigned Hours",
	}, header)

	assert.Equal(t, []string{
		"2025", "January", "744.00", "372.00", "372.00", "50.00%", "50.00%",
		"12.00", "0.00", "12.00", "100.00%", "0.00%", "0.00",
	}, findRow(rows, "2025", "January"))

	assert.Equal(t, []string{
		"2025", "February", "48.00", "48.00", "0.00", "100.00%", "0.00%",
		"3.00", "0.00", "3.00", "100.00%", "0.00%", "624.00",
	}, findRow(rows, "2025", "February"))

	assert.Equal(t, []string{
		"2025", "March", "0.00", "0.00", "0.00", NA, NA,
		"0.00", "0.00", "0.00", NA, NA, "744.00",
	}, findRow(rows, "2025", "March"))

	// ISO week 1 of 2026 starts on Monday Dec 29 and is mapped.
	assert.Equal(t, []string{
		"2025", "December", "72.00", "0.00", "72.00", "0.00%", "100.00%",
		"0.00", "0.00", "0.00", NA, NA, "672.00",
	}, findRow(rows, "2025", "December"))

	months := 0
	for _, row := range rows {
		if len(row) > 0 && row[0] == "2025" {
			months++
		}
	}
	assert.Equal(t, 12, months)
}

func TestWriteAudit_NoInteractionRowWhenUnrestricted(t *testing.T) {
	cycle, err := custody.NewCycle("school", []model.CustodyWindow{
		{Custodian: "Mom", Position: 1, Index: 1, StartDay: time.Monday, EndDay: time.Monday},
	})
	require.NoError(t, err)
	a, err := custody.NewAssignment(2025, 2025, map[int]string{10: "school"})
	require.NoError(t, err)
	e, err := custody.NewEngine(a, []*custody.Cycle{cycle}, nil)
	require.NoError(t, err)
	res, err := e.Compute(custody.Options{Location: time.UTC})
	require.NoError(t, err)

	rows := readAudit(t, res)
	assert.Nil(t, findRow(rows, "Interaction Time"))
	assert.Equal(t, []string{"Total Custody Time", "168.00", "168.00", "100.00%"}, findRow(rows, "Total Custody Time"))
}

func TestBuildDocument(t *testing.T) {
	doc := BuildDocument(computeSample(t), generated)

	assert.Equal(t, 2025, doc.StartYear)
	assert.Equal(t, 2025, doc.EndYear)
	assert.Equal(t, "UTC", doc.TimeZone)
	assert.Equal(t, []string{"Dad", "Mom"}, doc.Custodians)
	require.Len(t, doc.Days, 365)
	require.Len(t, doc.Months, 12)
	require.Len(t, doc.Years, 1)

	// Tuesday: two windows of the same custodian collapse into one bar.
	tue := doc.Days[6]
	assert.Equal(t, "2025-01-07", tue.Date)
	assert.Equal(t, "school", tue.Schedule)
	assert.Equal(t, 1, tue.Position)
	assert.Equal(t, []Bar{{Custodian: "Mom", Start: "00:00", End: "24:00", Hours: 24}}, tue.Bars)

	thu := doc.Days[1]
	assert.Equal(t, "2025-01-02", thu.Date)
	assert.Equal(t, []Bar{
		{Custodian: "Mom", Start: "00:00", End: "12:00", Hours: 12},
		{Custodian: "Dad", Start: "12:00", End: "24:00", Hours: 12},
	}, thu.Bars)

	march := doc.Days[70]
	assert.Equal(t, "2025-03-12", march.Date)
	assert.Empty(t, march.Schedule)
	assert.Empty(t, march.Bars)

	jan := doc.Months[0]
	assert.Equal(t, 1, jan.Month)
	require.True(t, jan.Percent["Mom"].IsPresent())
	assert.InDelta(t, 50.0, jan.Percent["Mom"].MustGet(), 0.001)
	require.True(t, jan.InteractionPercent["Dad"].IsPresent())
	assert.InDelta(t, 100.0, jan.InteractionPercent["Dad"].MustGet(), 0.001)

	mar := doc.Months[2]
	assert.True(t, mar.Percent["Mom"].IsAbsent())
	assert.Nil(t, mar.InteractionPercent)
	assert.InDelta(t, 744.0, mar.UnassignedHours, 0.001)

	assert.Equal(t, 48.61, doc.Overall.Percent["Dad"].MustGet())
	assert.Equal(t, 51.39, doc.Overall.Percent["Mom"].MustGet())

	dec := doc.Days[len(doc.Days)-1]
	assert.Equal(t, "2025-12-31", dec.Date)
	assert.Equal(t, 1, dec.ISOWeek)
	assert.Equal(t, "school", dec.Schedule)
	assert.Equal(t, []Bar{{Custodian: "Mom", Start: "00:00", End: "24:00", Hours: 24}}, dec.Bars)
	assert.InDelta(t, 420.0, doc.Years[0].Hours["Dad"], 0.001)
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, BuildDocument(computeSample(t), generated)))

	var raw map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &raw))
	assert.Equal(t, float64(2025), raw["start_year"])

	months := raw["months"].([]any)
	march := months[2].(map[string]any)
	percent, has := march["percent"].(map[string]any)["Mom"]
	assert.True(t, has)
	assert.Nil(t, percent)

	jan := months[0].(map[string]any)
	assert.Equal(t, 50.0, jan["percent"].(map[string]any)["Mom"])
	_, has = march["interaction_percent"]
	assert.False(t, has)

	days := raw["days"].([]any)
	first := days[0].(map[string]any)
	assert.Equal(t, "2025-01-01", first["date"])
	assert.Equal(t, float64(1), first["iso_week"])
}

func TestFilterDays(t *testing.T) {
	days := BuildDocument(computeSample(t), generated).Days

	assert.Len(t, FilterDays(days, 0, 0), 365)
	assert.Len(t, FilterDays(days, 2025, 0), 365)
	assert.Len(t, FilterDays(days, 2025, 2), 28)
	assert.Empty(t, FilterDays(days, 2024, 0))

	feb := FilterDays(days, 2025, 2)
	assert.Equal(t, "2025-02-01", feb[0].Date)
	assert.Equal(t, "2025-02-28", feb[27].Date)
}
