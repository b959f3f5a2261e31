package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"bikeshare/internal/chart"
	"bikeshare/internal/core"
	"bikeshare/internal/dataset"
	"bikeshare/internal/source/file"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print rental metrics and category totals for a date range",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("file")
		sheet, _ := cmd.Flags().GetString("sheet")
		start, _ := cmd.Flags().GetString("start")
		end, _ := cmd.Flags().GetString("end")
		return runSummary(cmd, path, sheet, start, end)
	},
}

func init() {
	summaryCmd.Flags().String("file", envOr("DATASET_PATH", "./data/day.csv"), "dataset file (.csv or .xlsx)")
	summaryCmd.Flags().String("sheet", "", "worksheet name for .xlsx files (default first sheet)")
	summaryCmd.Flags().String("start", "", "first day, YYYY-MM-DD (default dataset start)")
	summaryCmd.Flags().String("end", "", "last day, YYYY-MM-DD (default dataset end)")
}

func runSummary(cmd *cobra.Command, path, sheet, startFlag, endFlag string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	labels := core.DefaultLabels()
	ds, err := dataset.Load(ctx, file.New(path, sheet), labels)
	if err != nil {
		return err
	}

	start, err := dateFlag("start", startFlag, ds.MinDate())
	if err != nil {
		return err
	}
	end, err := dateFlag("end", endFlag, ds.MaxDate())
	if err != nil {
		return err
	}
	records := ds.Filter(start, end)
	sum := core.Summarize(records)

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Range\t%s to %s (%d days)\n", start, end, sum.Days)
	_, _ = fmt.Fprintf(w, "Total Bike Rental Users\t%s\n", chart.FormatCount(sum.TotalRentals))
	_, _ = fmt.Fprintf(w, "Casual Users\t%s\n", chart.FormatCount(sum.CasualRentals))
	_, _ = fmt.Fprintf(w, "Registered Users\t%s\n", chart.FormatCount(sum.RegisteredRentals))
	writeCategory(w, "Season", labels.Season, core.BySeason(records))
	writeCategory(w, "Weather", labels.Weathersit, core.ByWeathersit(records))
	writeCategory(w, "Weekday", labels.Weekday, core.ByWeekday(records))
	return w.Flush()
}

func writeCategory(w *tabwriter.Writer, title string, table core.LabelTable, rows []core.CategoryTotal) {
	_, _ = fmt.Fprintf(w, "\n%s\t\n", title)
	for _, r := range core.RankByTotal(rows) {
		_, _ = fmt.Fprintf(w, "  %s\t%s\n", table.Label(r.Code), chart.FormatCount(r.Total))
	}
}

func dateFlag(name, value string, fallback core.Date) (core.Date, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback, nil
	}
	d, err := core.ParseDate(value)
	if err != nil {
		return core.Date{}, fmt.Errorf("invalid --%s %q: want YYYY-MM-DD", name, value)
	}
	return d, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
