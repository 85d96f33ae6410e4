package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"custodycal/internal/custody"
)

const auditPurpose = "This file breaks down the custody schedule to show how time percentages are calculated. All time is measured in hours."

// WriteAudit writes the percentage calculation audit for res. Every month of
// every year in range gets a row, including months with no assigned time.
func WriteAudit(w io.Writer, res *custody.Result, generated time.Time) error {
	agg := res.Summary
	custodians := agg.Custodians()
	startYear, endYear := yearRange(res)

	cw := csv.NewWriter(w)
	rows := [][]string{
		{"Custody Percentage Calculation Audit File"},
		{"Generated On:", generated.Format("2006-01-02")},
		{"Purpose:", auditPurpose},
		{},
		{fmt.Sprintf("OVERALL SUMMARY (%d - %d)", startYear, endYear)},
		summaryHeader(custodians),
		summaryRow("Total Custody Time", agg.Overall(), custodians, false),
	}
	if overall := agg.Overall(); overall.Restricted && overall.InteractionTotal() > 0 {
		rows = append(rows, summaryRow("Interaction Time", overall, custodians, true))
	}
	rows = append(rows,
		[]string{"Unassigned Time", hours(agg.Overall().Unassigned())},
		[]string{},
		[]string{},
		[]string{"MONTHLY BREAKDOWN"},
		monthlyHeader(custodians),
	)
	for year := startYear; year <= endYear; year++ {
		for month := time.January; month <= time.December; month++ {
			rows = append(rows, monthlyRow(monthBucket(agg, year, month), custodians))
		}
	}

	for _, r := range rows {
		if err := cw.Write(r); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func summaryHeader(custodians []string) []string {
	h := []string{"Calculation Type"}
	for _, c := range custodians {
		h = append(h, c+"'s Hours")
	}
	h = append(h, "Total Hours")
	for _, c := range custodians {
		h = append(h, c+"'s Percentage")
	}
	return h
}

func summaryRow(label string, b *custody.Bucket, custodians []string, interaction bool) []string {
	values, total, pct := b.Custody, b.Total(), b.Percent
	if interaction {
		values, total, pct = b.Interaction, b.InteractionTotal(), b.InteractionPercent
	}
	row := []string{label}
	for _, c := range custodians {
		row = append(row, hours(values[c]))
	}
	row = append(row, hours(total))
	for _, c := range custodians {
		row = append(row, percent(option(pct(c))))
	}
	return row
}

func monthlyHeader(custodians []string) []string {
	h := []string{"Year", "Month", "Total Hours"}
	for _, c := range custodians {
		h = append(h, c+"'s Hours")
	}
	for _, c := range custodians {
		h = append(h, c+" %")
	}
	for _, c := range custodians {
		h = append(h, "Interaction "+c+" Hours")
	}
	h = append(h, "Interaction Total")
	for _, c := range custodians {
		h = append(h, "Interaction "+c+" %")
	}
	return append(h, "Unassigned Hours")
}

func monthlyRow(b *custody.Bucket, custodians []string) []string {
	row := []string{strconv.Itoa(b.Year), b.Month.String(), hours(b.Total())}
	for _, c := range custodians {
		row = append(row, hours(b.Custody[c]))
	}
	for _, c := range custodians {
		row = append(row, percent(option(b.Percent(c))))
	}
	for _, c := range custodians {
		row = append(row, hours(b.Interaction[c]))
	}
	row = append(row, hours(b.InteractionTotal()))
	for _, c := range custodians {
		row = append(row, percent(option(b.InteractionPercent(c))))
	}
	return append(row, hours(b.Unassigned()))
}
