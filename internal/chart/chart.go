// Package chart renders the dashboard charts as SVG.
package chart

import (
	"bytes"
	"fmt"
	"html"
	"time"

	gochart "github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"bikeshare/internal/core"
	"bikeshare/internal/metrics"
)

// Name identifies one of the dashboard charts.
type Name string

const (
	Daily      Name = "daily"
	Users      Name = "users"
	Season     Name = "season"
	Weathersit Name = "weathersit"
	Weekday    Name = "weekday"
)

// Names lists the charts in page order.
var Names = []Name{Daily, Users, Season, Weathersit, Weekday}

// ParseName validates a chart name taken from a URL.
func ParseName(s string) (Name, bool) {
	for _, n := range Names {
		if string(n) == s {
			return n, true
		}
	}
	return "", false
}

// Title returns the heading shown above the chart.
func (n Name) Title() string {
	switch n {
	case Daily:
		return "Bicycle Sharing Usage"
	case Users:
		return "Casual vs Registered Users"
	case Season:
		return "Total Users by Season"
	case Weathersit:
		return "Total Users by Weather Situation"
	case Weekday:
		return "Total Users by Weekday"
	default:
		return string(n)
	}
}

var (
	dailyColor      = drawing.ColorFromHex("90CAF9")
	casualColor     = drawing.ColorFromHex("ffa500")
	registeredColor = drawing.ColorFromHex("87ceeb")

	// Bars take colors in rank order.
	barPalette = []drawing.Color{
		drawing.ColorFromHex("90ee90"), // lightgreen
		drawing.ColorFromHex("87ceeb"), // skyblue
		drawing.ColorFromHex("ffa500"), // orange
		drawing.ColorFromHex("00ffff"), // cyan
		drawing.ColorFromHex("f08080"), // lightcoral
		drawing.ColorFromHex("ff0000"), // red
		drawing.ColorFromHex("800080"), // purple
	}
)

// Renderer draws charts with fixed dimensions and label tables.
type Renderer struct {
	labels core.Labels
	width  int
	height int
}

func NewRenderer(labels core.Labels) *Renderer {
	return &Renderer{labels: labels, width: 960, height: 420}
}

// Render aggregates records for the named chart and draws it. An empty
// record slice yields a placeholder image, not an error.
func (r *Renderer) Render(name Name, records []core.DailyRecord) ([]byte, error) {
	start := time.Now()
	defer func() { metrics.ObserveChartRender(string(name), time.Since(start)) }()

	switch name {
	case Daily:
		return r.daily(core.DailyTotals(records))
	case Users:
		return r.users(core.DailyTotals(records))
	case Season:
		return r.bars(name, r.labels.Season, core.BySeason(records))
	case Weathersit:
		return r.bars(name, r.labels.Weathersit, core.ByWeathersit(records))
	case Weekday:
		return r.bars(name, r.labels.Weekday, core.ByWeekday(records))
	default:
		return nil, fmt.Errorf("unknown chart %q", name)
	}
}

func (r *Renderer) daily(rows []core.DailyTotal) ([]byte, error) {
	if len(rows) == 0 {
		return r.placeholder(Daily), nil
	}
	xs, total := timeAxis(rows, func(d core.DailyTotal) int64 { return d.Total })
	series := []gochart.Series{
		gochart.TimeSeries{
			Name:    "Total",
			XValues: xs,
			YValues: total,
			Style:   lineStyle(dailyColor, len(rows)),
		},
	}
	return r.renderLines(Daily, series, maxOf(total))
}

func (r *Renderer) users(rows []core.DailyTotal) ([]byte, error) {
	if len(rows) == 0 {
		return r.placeholder(Users), nil
	}
	xs, casual := timeAxis(rows, func(d core.DailyTotal) int64 { return d.Casual })
	_, registered := timeAxis(rows, func(d core.DailyTotal) int64 { return d.Registered })
	series := []gochart.Series{
		gochart.TimeSeries{Name: "Casual", XValues: xs, YValues: casual, Style: lineStyle(casualColor, len(rows))},
		gochart.TimeSeries{Name: "Registered", XValues: xs, YValues: registered, Style: lineStyle(registeredColor, len(rows))},
	}
	return r.renderLines(Users, series, max(maxOf(casual), maxOf(registered)))
}

func (r *Renderer) renderLines(name Name, series []gochart.Series, maxY float64) ([]byte, error) {
	ch := gochart.Chart{
		Title:      name.Title(),
		Width:      r.width,
		Height:     r.height,
		Background: gochart.Style{Padding: gochart.Box{Top: 40, Left: 16, Right: 16, Bottom: 24}},
		XAxis: gochart.XAxis{
			ValueFormatter: gochart.TimeValueFormatterWithFormat(core.DateLayout),
		},
		YAxis: gochart.YAxis{
			Range:          &gochart.ContinuousRange{Min: 0, Max: niceMax(maxY)},
			ValueFormatter: countFormatter,
		},
		Series: series,
	}
	if len(series) > 1 {
		ch.Elements = []gochart.Renderable{gochart.Legend(&ch)}
	}
	var buf bytes.Buffer
	if err := ch.Render(gochart.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render %s chart: %w", name, err)
	}
	return buf.Bytes(), nil
}

// bars draws a bar per category, ranked by total descending.
func (r *Renderer) bars(name Name, labels core.LabelTable, rows []core.CategoryTotal) ([]byte, error) {
	if len(rows) == 0 {
		return r.placeholder(name), nil
	}
	ranked := core.RankByTotal(rows)
	values := make([]gochart.Value, len(ranked))
	var maxY float64
	for i, row := range ranked {
		color := barPalette[i%len(barPalette)]
		values[i] = gochart.Value{
			Label: labels.Label(row.Code),
			Value: float64(row.Total),
			Style: gochart.Style{FillColor: color, StrokeColor: color, StrokeWidth: 1},
		}
		maxY = max(maxY, float64(row.Total))
	}
	bc := gochart.BarChart{
		Title:      name.Title(),
		Width:      r.width,
		Height:     r.height,
		BarWidth:   barWidth(r.width, len(values)),
		Background: gochart.Style{Padding: gochart.Box{Top: 40, Left: 16, Right: 16, Bottom: 24}},
		YAxis: gochart.YAxis{
			Range:          &gochart.ContinuousRange{Min: 0, Max: niceMax(maxY)},
			ValueFormatter: countFormatter,
		},
		Bars: values,
	}
	var buf bytes.Buffer
	if err := bc.Render(gochart.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render %s chart: %w", name, err)
	}
	return buf.Bytes(), nil
}

// placeholder is drawn for an empty range.
func (r *Renderer) placeholder(name Name) []byte {
	return []byte(fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`+
		`<rect width="100%%" height="100%%" fill="#ffffff"/>`+
		`<text x="50%%" y="24" text-anchor="middle" font-family="sans-serif" font-size="16">%s</text>`+
		`<text x="50%%" y="50%%" text-anchor="middle" font-family="sans-serif" font-size="14" fill="#888888">No data in selected range</text>`+
		`</svg>`, r.width, r.height, r.width, r.height, html.EscapeString(name.Title())))
}

// timeAxis builds X and Y slices. A single day is padded with a second
// point one day later since go-chart cannot draw a zero-width range.
func timeAxis(rows []core.DailyTotal, value func(core.DailyTotal) int64) ([]time.Time, []float64) {
	xs := make([]time.Time, 0, len(rows)+1)
	ys := make([]float64, 0, len(rows)+1)
	for _, row := range rows {
		xs = append(xs, row.Date.Time)
		ys = append(ys, float64(value(row)))
	}
	if len(rows) == 1 {
		xs = append(xs, rows[0].Date.AddDate(0, 0, 1))
		ys = append(ys, ys[0])
	}
	return xs, ys
}

func lineStyle(color drawing.Color, points int) gochart.Style {
	st := gochart.Style{StrokeColor: color, StrokeWidth: 2}
	// Markers only help on short ranges; on a full year they turn into a smear.
	if points <= 62 {
		st.DotColor = color
		st.DotWidth = 3
	}
	return st
}

func maxOf(vs []float64) float64 {
	var m float64
	for _, v := range vs {
		m = max(m, v)
	}
	return m
}

// niceMax pads the top of the Y axis and keeps it positive so an all-zero
// range still has height.
func niceMax(v float64) float64 {
	if v <= 0 {
		return 1
	}
	return v * 1.1
}

func barWidth(width, bars int) int {
	w := (width - 120) / (bars * 2)
	return min(max(w, 20), 120)
}

func countFormatter(v interface{}) string {
	if f, ok := v.(float64); ok {
		return FormatCount(int64(f))
	}
	return fmt.Sprint(v)
}
