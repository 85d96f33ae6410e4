// Package report renders a computed custody result for people: a CSV audit
// of the percentage calculations and a JSON document for visualization.
package report

import (
	"fmt"
	"math"
	"time"

	"github.com/samber/mo"

	"custodycal/internal/custody"
)

// NA marks a percentage that is undefined for the period.
const NA = "N/A"

func hours(d time.Duration) string {
	return fmt.Sprintf("%.2f", d.Hours())
}

// option adapts a (value, ok) percentage to an Option.
func option(v float64, ok bool) mo.Option[float64] {
	return mo.TupleToOption(v, ok)
}

func percent(o mo.Option[float64]) string {
	if o.IsAbsent() {
		return NA
	}
	return fmt.Sprintf("%.2f%%", o.MustGet())
}

// rounded keeps a present percentage to two decimals; absent stays absent
// and marshals as JSON null.
func rounded(o mo.Option[float64]) mo.Option[float64] {
	return o.Map(func(v float64) (float64, bool) { return round2(v), true })
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// yearRange returns the first and last calendar year covered by res.
func yearRange(res *custody.Result) (int, int) {
	return res.Start.Year(), res.End.Add(-custody.Day).Year()
}

// monthBucket returns the month bucket or an empty one for months that
// saw no days.
func monthBucket(agg *custody.Aggregator, year int, month time.Month) *custody.Bucket {
	if b := agg.Month(year, month); b != nil {
		return b
	}
	return &custody.Bucket{Year: year, Month: month}
}
