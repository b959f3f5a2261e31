// Package core provides the dataset model, the range filter and the
// aggregators behind the dashboard.
//
// This file turns raw tabular cells (CSV, spreadsheet, Sheets API values)
// into DailyRecords.
package core

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Column names expected in every dataset source.
const (
	ColDate       = "dteday"
	ColSeason     = "season"
	ColWeekday    = "weekday"
	ColWeathersit = "weathersit"
	ColCasual     = "casual"
	ColRegistered = "registered"
	ColTotal      = "cnt"
)

// RequiredColumns lists the header names a source must provide.
var RequiredColumns = []string{ColDate, ColSeason, ColWeekday, ColWeathersit, ColCasual, ColRegistered, ColTotal}

// dayLayouts are tried in order by ParseDay.
var dayLayouts = []string{
	DateLayout,
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006/01/02",
	"1/2/2006",
	"1/2/06",
}

// ParseDay parses a date cell. Timestamps are truncated to their day.
func ParseDay(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, fmt.Errorf("%w: empty value", ErrInvalidDate)
	}
	for _, layout := range dayLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateOf(t), nil
		}
	}
	return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// ParseCount parses an integer cell. Spreadsheet exports sometimes write
// "12.0"; integral floats are accepted, fractional ones are not.
func ParseCount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty value", ErrInvalidCount)
	}
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidCount, s)
	}
	// float64(math.MaxInt64) rounds up to 2^63, which is already out of range.
	if f >= math.MaxInt64 || f < math.MinInt64 {
		return 0, fmt.Errorf("%w: %q out of range", ErrInvalidCount, s)
	}
	return int64(f), nil
}

// ColumnIndex maps required column names to their position in header.
// Matching ignores case, surrounding spaces and a leading byte order mark.
func ColumnIndex(header []string) (map[string]int, error) {
	idx := make(map[string]int, len(RequiredColumns))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		name := strings.ToLower(strings.TrimSpace(h))
		if _, seen := idx[name]; !seen {
			idx[name] = i
		}
	}
	var missing []string
	for _, c := range RequiredColumns {
		if _, ok := idx[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ","))
	}
	return idx, nil
}

// ParseTable converts a header row plus data rows into records. Blank rows
// are skipped. Any malformed cell fails the whole table with a *LoadError.
func ParseTable(path string, rows [][]string) ([]DailyRecord, error) {
	if len(rows) == 0 {
		return nil, &LoadError{Path: path, Op: "read header", Err: fmt.Errorf("%w: empty table", ErrMissingColumn)}
	}
	idx, err := ColumnIndex(rows[0])
	if err != nil {
		return nil, &LoadError{Path: path, Op: "read header", Err: err}
	}
	records := make([]DailyRecord, 0, len(rows)-1)
	for i := 1; i < len(rows); i++ {
		row := rows[i]
		if blankRow(row) {
			continue
		}
		rec, err := parseRow(row, idx)
		if err != nil {
			return nil, &LoadError{Path: path, Op: fmt.Sprintf("parse row %d", i+1), Err: err}
		}
		records = append(records, rec)
	}
	return records, nil
}

func parseRow(row []string, idx map[string]int) (DailyRecord, error) {
	var rec DailyRecord
	day, err := ParseDay(cell(row, idx[ColDate]))
	if err != nil {
		return rec, err
	}
	rec.Date = day

	ints := []struct {
		col string
		dst *int
	}{
		{ColSeason, &rec.Season},
		{ColWeekday, &rec.Weekday},
		{ColWeathersit, &rec.Weathersit},
	}
	for _, f := range ints {
		v, err := ParseCount(cell(row, idx[f.col]))
		if err != nil {
			return rec, fmt.Errorf("%s: %w", f.col, err)
		}
		*f.dst = int(v)
	}

	counts := []struct {
		col string
		dst *int64
	}{
		{ColCasual, &rec.Casual},
		{ColRegistered, &rec.Registered},
		{ColTotal, &rec.Total},
	}
	for _, f := range counts {
		v, err := ParseCount(cell(row, idx[f.col]))
		if err != nil {
			return rec, fmt.Errorf("%s: %w", f.col, err)
		}
		*f.dst = v
	}

	if err := rec.Validate(); err != nil {
		return rec, fmt.Errorf("%w: %v", ErrInvalidCount, err)
	}
	return rec, nil
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
