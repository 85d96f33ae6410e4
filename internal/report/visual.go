package report

import (
	"encoding/json"
	"io"
	"time"

	"github.com/samber/mo"

	"custodycal/internal/custody"
)

// Document is the visualization payload: per-day bars plus month and year
// percentages. It is written to disk and served by the API.
type Document struct {
	Generated  time.Time `json:"generated"`
	StartYear  int       `json:"start_year"`
	EndYear    int       `json:"end_year"`
	TimeZone   string    `json:"timezone"`
	Custodians []string  `json:"custodians"`

	Overall Period    `json:"overall"`
	Years   []Period  `json:"years"`
	Months  []Period  `json:"months"`
	Days    []DayView `json:"days"`
}

// Period is one aggregation bucket. Percentages are null when undefined.
type Period struct {
	Year  int `json:"year,omitempty"`
	Month int `json:"month,omitempty"`

	Hours              map[string]float64            `json:"hours"`
	Percent            map[string]mo.Option[float64] `json:"percent"`
	InteractionHours   map[string]float64            `json:"interaction_hours,omitempty"`
	InteractionPercent map[string]mo.Option[float64] `json:"interaction_percent,omitempty"`
	UnassignedHours    float64                       `json:"unassigned_hours"`
}

// DayView is one calendar date with its custody collapsed into bars.
type DayView struct {
	Date     string `json:"date"`
	ISOWeek  int    `json:"iso_week"`
	Schedule string `json:"schedule,omitempty"`
	Position int    `json:"position,omitempty"`
	Bars     []Bar  `json:"bars"`
}

// Bar is a same-custodian span within a day, as wall-clock HH:MM.
// End is "24:00" when the span runs to midnight.
type Bar struct {
	Custodian string  `json:"custodian"`
	Start     string  `json:"start"`
	End       string  `json:"end"`
	Hours              float64                       `json:"hours"`
}

// BuildDocument assembles the document. res must have been computed with
// KeepDays, otherwise Days is empty.
func BuildDocument(res *custody.Result, generated time.Time) Document {
	agg := res.Summary
	custodians := agg.Custodians()
	startYear, endYear := yearRange(res)

	doc := Document{
		Generated:  generated,
		StartYear:  startYear,
		EndYear:    endYear,
		TimeZone:   res.Location.String(),
		Custodians: custodians,
		Overall:    period(agg.Overall(), custodians),
		Years:      make([]Period, 0, len(agg.Years())),
		Months:     make([]Period, 0, len(agg.Months())),
		Days:       make([]DayView, 0, len(res.Days)),
	}
	for _, b := range agg.Years() {
		doc.Years = append(doc.Years, period(b, custodians))
	}
	for _, b := range agg.Months() {
		doc.Months = append(doc.Months, period(b, custodians))
	}
	for _, d := range res.Days {
		doc.Days = append(doc.Days, dayView(d))
	}
	return doc
}

func period(b *custody.Bucket, custodians []string) Period {
	p := Period{
		Year:            b.Year,
		Month:           int(b.Month),
		Hours:           make(map[string]float64, len(custodians)),
		Percent:         make(map[string]mo.Option[float64], len(custodians)),
		UnassignedHours: round2(b.Unassigned().Hours()),
	}
	for _, c := range custodians {
		p.Hours[c] = round2(b.Custody[c].Hours())
		p.Percent[c] = rounded(option(b.Percent(c)))
	}
	if b.Restricted {
		p.InteractionHours = make(map[string]float64, len(custodians))
		p.InteractionPercent = make(map[string]mo.Option[float64], len(custodians))
		for _, c := range custodians {
			p.InteractionHours[c] = round2(b.Interaction[c].Hours())
			p.InteractionPercent[c] = rounded(option(b.InteractionPercent(c)))
		}
	}
	return p
}

func dayView(d custody.ResolvedDay) DayView {
	v := DayView{
		Date:     d.Date.Format(time.DateOnly),
		ISOWeek:  d.ISOWeek,
		Schedule: d.Placement.Schedule,
		Position: d.Placement.Position,
		Bars:     []Bar{},
	}
	for _, iv := range custody.Merge(d.Intervals) {
		v.Bars = append(v.Bars, Bar{
			Custodian: iv.Custodian,
			Start:     custody.FormatClock(iv.Start.Sub(d.Date)),
			End:       custody.FormatClock(iv.End.Sub(d.Date)),
			Hours:     round2(iv.Duration().Hours()),
		})
	}
	return v
}

// FilterDays keeps the days of one year, or of one month when month is
// non-zero. A zero year keeps everything.
func FilterDays(days []DayView, year, month int) []DayView {
	if year == 0 {
		return days
	}
	out := make([]DayView, 0, 31)
	for _, d := range days {
		t, err := time.Parse(time.DateOnly, d.Date)
		if err != nil {
			continue
		}
		if t.Year() != year || (month != 0 && int(t.Month()) != month) {
			continue
		}
		out = append(out, d)
	}
	return out
}

// WriteJSON writes doc as indented JSON.
func WriteJSON(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}
