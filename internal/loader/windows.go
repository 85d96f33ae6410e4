package loader

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"custodycal/internal/custody"
	"custodycal/internal/model"
)

const (
	colCustodian = "custodian"
	colPosition  = "position"
	colIndex     = "index"
	colStartDay  = "start_day"
	colStartTime = "start_time"
	colEndDay    = "end_day"
	colEndTime   = "end_time"
)

// columnAliases maps normalized header text to a column. The long names
// are the headers of the classic schedule CSVs.
var columnAliases = map[string]string{
	"custodian":               colCustodian,
	"parent":                  colCustodian,
	"week of four week cycle": colPosition,
	"week of cycle":           colPosition,
	"cycle week":              colPosition,
	"cycle position":          colPosition,
	"position":                colPosition,
	"week":                    colPosition,
	"window":                  colIndex,
	"window index":            colIndex,
	"start day of window":     colStartDay,
	"start day":               colStartDay,
	"start time of window":    colStartTime,
	"start time":              colStartTime,
	"end day of window":       colEndDay,
	"end day":                 colEndDay,
	"end time of window":      colEndTime,
	"end time":                colEndTime,
}

var requiredColumns = []string{colCustodian, colPosition, colStartDay, colStartTime, colEndDay, colEndTime}

// ParseWindows reads a custody window CSV. The window index column is
// optional; without it windows are numbered in row order.
func ParseWindows(r io.Reader) ([]model.CustodyWindow, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: schedule csv is empty", custody.ErrConfiguration)
		}
		return nil, fmt.Errorf("row 1: %w: %w", custody.ErrConfiguration, err)
	}

	cols := make(map[string]int)
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if col, ok := columnAliases[key]; ok {
			cols[col] = i
		}
	}
	for _, col := range requiredColumns {
		if _, ok := cols[col]; !ok {
			return nil, fmt.Errorf("%w: schedule csv has no %s column", custody.ErrConfiguration, col)
		}
	}

	var out []model.CustodyWindow
	for row := 2; ; row++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("row %d: %w: %w", row, custody.ErrConfiguration, err)
		}
		w, err := parseWindow(rec, cols, len(out)+1)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", row, err)
		}
		out = append(out, w)
	}
	return out, nil
}

func parseWindow(rec []string, cols map[string]int, defaultIndex int) (model.CustodyWindow, error) {
	field := func(col string) string {
		return strings.TrimSpace(rec[cols[col]])
	}

	w := model.CustodyWindow{Custodian: field(colCustodian), Index: defaultIndex}

	pos, err := strconv.Atoi(field(colPosition))
	if err != nil {
		return w, fmt.Errorf("%w: cycle position %q is not a number", custody.ErrConfiguration, field(colPosition))
	}
	w.Position = pos

	if _, ok := cols[colIndex]; ok && field(colIndex) != "" {
		idx, err := strconv.Atoi(field(colIndex))
		if err != nil {
			return w, fmt.Errorf("%w: window index %q is not a number", custody.ErrConfiguration, field(colIndex))
		}
		w.Index = idx
	}

	if w.StartDay, err = custody.ParseWeekday(field(colStartDay)); err != nil {
		return w, err
	}
	if w.StartTime, err = custody.ParseClock(field(colStartTime)); err != nil {
		return w, err
	}
	if w.EndDay, err = custody.ParseWeekday(field(colEndDay)); err != nil {
		return w, err
	}
	if w.EndTime, err = custody.ParseClock(field(colEndTime)); err != nil {
		return w, err
	}
	return w, nil
}
