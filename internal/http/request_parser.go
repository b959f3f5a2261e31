package http

import (
	"net/http"
	"net/url"
	"strings"

	"bikeshare/internal/core"
	"bikeshare/internal/log"
)

// dateRange is the interval a request asked for. Start and End feed the
// filter; ViewStart and ViewEnd are clamped to the dataset span for display.
type dateRange struct {
	Start, End         core.Date
	ViewStart, ViewEnd core.Date
	Pinned             bool
}

// parseRange reads the start and end query parameters. Missing values take
// the dataset bounds; unparsable values do too, with a warning. A single-day
// dataset pins both bounds to that day.
func parseRange(r *http.Request, ds *core.Dataset) dateRange {
	if ds.SingleDay() {
		day := ds.MinDate()
		return dateRange{Start: day, End: day, ViewStart: day, ViewEnd: day, Pinned: true}
	}

	q := r.URL.Query()
	start := parseBound(r, q, "start", ds.MinDate())
	end := parseBound(r, q, "end", ds.MaxDate())

	rng := dateRange{Start: start, End: end}
	rng.ViewStart, rng.ViewEnd = ds.Clamp(start, end)
	return rng
}

func parseBound(r *http.Request, q url.Values, key string, fallback core.Date) core.Date {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return fallback
	}
	d, err := core.ParseDate(v)
	if err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "Invalid date parameter, using dataset bound",
			"param", key,
			"value", v,
			"fallback", fallback.String(),
			log.FieldError, err)
		return fallback
	}
	return d
}

// query encodes the filter bounds for chart and export links.
func (d dateRange) query() string {
	v := url.Values{}
	v.Set("start", d.Start.String())
	v.Set("end", d.End.String())
	return v.Encode()
}
