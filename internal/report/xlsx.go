// Package report builds the downloadable workbook for a date range.
package report

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"bikeshare/internal/core"
)

// Sheet names in workbook order.
const (
	SheetDaily      = "Daily"
	SheetSeason     = "Season"
	SheetWeathersit = "Weathersit"
	SheetWeekday    = "Weekday"
)

// Workbook is the aggregated view of one date range.
type Workbook struct {
	Start, End core.Date
	Summary    core.Summary
	Daily      []core.DailyTotal
	Season     []core.CategoryTotal
	Weathersit []core.CategoryTotal
	Weekday    []core.CategoryTotal
}

// Build aggregates records once for every sheet.
func Build(start, end core.Date, records []core.DailyRecord) Workbook {
	return Workbook{
		Start:      start,
		End:        end,
		Summary:    core.Summarize(records),
		Daily:      core.DailyTotals(records),
		Season:     core.BySeason(records),
		Weathersit: core.ByWeathersit(records),
		Weekday:    core.ByWeekday(records),
	}
}

// Filename suggests a download name for the range.
func (w Workbook) Filename() string {
	return fmt.Sprintf("bikeshare_%s_%s.xlsx", w.Start, w.End)
}

// WriteXLSX writes the workbook. Category sheets use labels for names and
// are ordered by total descending like the charts.
func (w Workbook) WriteXLSX(out io.Writer, labels core.Labels) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetDaily); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := w.writeDaily(f); err != nil {
		return err
	}

	categories := []struct {
		sheet  string
		header string
		table  core.LabelTable
		rows   []core.CategoryTotal
	}{
		{SheetSeason, "Season", labels.Season, w.Season},
		{SheetWeathersit, "Weather Situation", labels.Weathersit, w.Weathersit},
		{SheetWeekday, "Weekday", labels.Weekday, w.Weekday},
	}
	for _, c := range categories {
		if _, err := f.NewSheet(c.sheet); err != nil {
			return fmt.Errorf("create sheet %s: %w", c.sheet, err)
		}
		if err := writeCategory(f, c.sheet, c.header, c.table, c.rows); err != nil {
			return err
		}
	}
	f.SetActiveSheet(0)

	if err := f.Write(out); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func (w Workbook) writeDaily(f *excelize.File) error {
	header := []any{"Date", "Casual", "Registered", "Total"}
	if err := f.SetSheetRow(SheetDaily, "A1", &header); err != nil {
		return fmt.Errorf("write %s header: %w", SheetDaily, err)
	}
	for i, d := range w.Daily {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []any{d.Date.String(), d.Casual, d.Registered, d.Total}
		if err := f.SetSheetRow(SheetDaily, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", SheetDaily, i+2, err)
		}
	}
	cell, _ := excelize.CoordinatesToCellName(1, len(w.Daily)+2)
	total := []any{"Total", w.Summary.CasualRentals, w.Summary.RegisteredRentals, w.Summary.TotalRentals}
	if err := f.SetSheetRow(SheetDaily, cell, &total); err != nil {
		return fmt.Errorf("write %s totals: %w", SheetDaily, err)
	}
	return nil
}

func writeCategory(f *excelize.File, sheet, header string, labels core.LabelTable, rows []core.CategoryTotal) error {
	head := []any{"Code", header, "Total Rentals"}
	if err := f.SetSheetRow(sheet, "A1", &head); err != nil {
		return fmt.Errorf("write %s header: %w", sheet, err)
	}
	for i, row := range core.RankByTotal(rows) {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		values := []any{row.Code, labels.Label(row.Code), row.Total}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+2, err)
		}
	}
	return nil
}
