package http

import (
	"time"

	"bikeshare/internal/chart"
	"bikeshare/internal/core"
)

type metricCard struct {
	Label string
	Value string
}

type chartView struct {
	Name  string
	Title string
	URL   string
}

// dashboardView feeds the "dashboard" partial.
type dashboardView struct {
	Start     string
	End       string
	Days      int
	Empty     bool
	Metrics   []metricCard
	Charts    []chartView
	ExportURL string
}

// pageView feeds the "dashboard_page" template.
type pageView struct {
	Title     string
	Subtitle  string
	Min       string
	Max       string
	Pinned    bool
	LoadedAt  string
	Version   string
	Dashboard dashboardView
}

type errorView struct {
	Title   string
	Message string
	Details []string
}

func newDashboardView(rng dateRange, records []core.DailyRecord) dashboardView {
	sum := core.Summarize(records)
	q := rng.query()
	v := dashboardView{
		Start: rng.ViewStart.String(),
		End:   rng.ViewEnd.String(),
		Days:  sum.Days,
		Empty: sum.Days == 0,
		Metrics: []metricCard{
			{Label: "Total Bike Rental Users", Value: chart.FormatCount(sum.TotalRentals)},
			{Label: "Casual Users", Value: chart.FormatCount(sum.CasualRentals)},
			{Label: "Registered Users", Value: chart.FormatCount(sum.RegisteredRentals)},
		},
		ExportURL: "/export.xlsx?" + q,
	}
	for _, n := range chart.Names {
		v.Charts = append(v.Charts, chartView{
			Name:  string(n),
			Title: n.Title(),
			URL:   "/charts/" + string(n) + ".svg?" + q,
		})
	}
	return v
}

func newPageView(ds *core.Dataset, loadedAt time.Time, rng dateRange, records []core.DailyRecord) pageView {
	return pageView{
		Title:     "Bike Sharing Dashboard",
		Subtitle:  "Bike Sharing User Data",
		Min:       ds.MinDate().String(),
		Max:       ds.MaxDate().String(),
		Pinned:    rng.Pinned,
		LoadedAt:  loadedAt.UTC().Format(time.RFC3339),
		Version:   ds.Version(),
		Dashboard: newDashboardView(rng, records),
	}
}

// Wire types for /api/summary.
type (
	summaryResponse struct {
		Start          string         `json:"start"`
		End            string         `json:"end"`
		DatasetVersion string         `json:"dataset_version"`
		Summary        summaryJSON    `json:"summary"`
		Daily          []dailyJSON    `json:"daily"`
		Season         []categoryJSON `json:"season"`
		Weathersit     []categoryJSON `json:"weathersit"`
		Weekday        []categoryJSON `json:"weekday"`
	}

	summaryJSON struct {
		Days              int   `json:"days"`
		TotalRentals      int64 `json:"total_rentals"`
		CasualRentals     int64 `json:"casual_rentals"`
		RegisteredRentals int64 `json:"registered_rentals"`
	}

	dailyJSON struct {
		Date       string `json:"date"`
		Casual     int64  `json:"casual"`
		Registered int64  `json:"registered"`
		Total      int64  `json:"total"`
	}

	categoryJSON struct {
		Code  int    `json:"code"`
		Label string `json:"label"`
		Total int64  `json:"total"`
	}
)

func newSummaryResponse(ds *core.Dataset, labels core.Labels, rng dateRange, records []core.DailyRecord) summaryResponse {
	sum := core.Summarize(records)
	resp := summaryResponse{
		Start:          rng.ViewStart.String(),
		End:            rng.ViewEnd.String(),
		DatasetVersion: ds.Version(),
		Summary: summaryJSON{
			Days:              sum.Days,
			TotalRentals:      sum.TotalRentals,
			CasualRentals:     sum.CasualRentals,
			RegisteredRentals: sum.RegisteredRentals,
		},
		Daily:      []dailyJSON{},
		Season:     categoriesJSON(labels.Season, core.BySeason(records)),
		Weathersit: categoriesJSON(labels.Weathersit, core.ByWeathersit(records)),
		Weekday:    categoriesJSON(labels.Weekday, core.ByWeekday(records)),
	}
	for _, d := range core.DailyTotals(records) {
		resp.Daily = append(resp.Daily, dailyJSON{
			Date:       d.Date.String(),
			Casual:     d.Casual,
			Registered: d.Registered,
			Total:      d.Total,
		})
	}
	return resp
}

func categoriesJSON(table core.LabelTable, rows []core.CategoryTotal) []categoryJSON {
	out := make([]categoryJSON, 0, len(rows))
	for _, r := range rows {
		out = append(out, categoryJSON{Code: r.Code, Label: table.Label(r.Code), Total: r.Total})
	}
	return out
}
