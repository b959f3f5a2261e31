package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"bikeshare/internal/cache"
	"bikeshare/internal/chart"
	"bikeshare/internal/core"
	"bikeshare/internal/log"
	"bikeshare/internal/report"
)

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if !s.holder.Ready() {
		http.Error(w, "dataset not loaded", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// dataset returns the current dataset, or writes 503 and returns nil.
func (s *Server) dataset(w http.ResponseWriter, r *http.Request) *core.Dataset {
	if s.loadErr != nil {
		http.Error(w, "dataset failed to load", http.StatusServiceUnavailable)
		return nil
	}
	ds := s.holder.Dataset()
	if ds == nil {
		http.Error(w, "dataset not loaded", http.StatusServiceUnavailable)
		return nil
	}
	return ds
}

// handleDashboardPage renders the full page: sidebar range form plus the
// dashboard partial for the requested range.
func (s *Server) handleDashboardPage(w http.ResponseWriter, r *http.Request) {
	if s.loadErr != nil {
		s.renderLoadError(w, r)
		return
	}
	ds := s.dataset(w, r)
	if ds == nil {
		return
	}
	rng := parseRange(r, ds)
	data := newPageView(ds, s.holder.LoadedAt(), rng, ds.Filter(rng.Start, rng.End))

	s.execute(w, r, http.StatusOK, "dashboard_page", data)
}

// handleDashboard renders the htmx partial with metrics and chart images.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ds := s.dataset(w, r)
	if ds == nil {
		return
	}
	rng := parseRange(r, ds)
	data := newDashboardView(rng, ds.Filter(rng.Start, rng.End))

	s.execute(w, r, http.StatusOK, "dashboard", data)
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	name, ok := chart.ParseName(strings.TrimSuffix(r.PathValue("name"), ".svg"))
	if !ok {
		http.NotFound(w, r)
		return
	}
	ds := s.dataset(w, r)
	if ds == nil {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	rng := parseRange(r, ds)
	key := cache.ChartKey{
		Version: ds.Version(),
		Chart:   string(name),
		Start:   rng.Start.String(),
		End:     rng.End.String(),
	}
	svg, err := s.charts.GetOrRender(key, func() ([]byte, error) {
		return s.renderer.Render(name, ds.Filter(rng.Start, rng.End))
	})
	if err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "Chart render failed",
			log.FieldChart, string(name),
			log.FieldRangeStart, key.Start,
			log.FieldRangeEnd, key.End,
			log.FieldError, err)
		http.Error(w, "chart render failed", http.StatusInternalServerError)
		return
	}
	if ctx.Err() != nil {
		http.Error(w, "request timed out", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "private, max-age=60")
	w.Header().Set("Content-Length", strconv.Itoa(len(svg)))
	_, _ = w.Write(svg)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	ds := s.dataset(w, r)
	if ds == nil {
		return
	}
	rng := parseRange(r, ds)
	resp := newSummaryResponse(ds, s.labels, rng, ds.Filter(rng.Start, rng.End))

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Summary encode failed", log.FieldError, err)
	}
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	ds := s.dataset(w, r)
	if ds == nil {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	rng := parseRange(r, ds)
	wb := report.Build(rng.ViewStart, rng.ViewEnd, ds.Filter(rng.Start, rng.End))

	var buf bytes.Buffer
	if err := wb.WriteXLSX(&buf, s.labels); err != nil {
		log.FromContext(ctx).WithComponent(log.ComponentExport).ErrorContext(ctx, "Export failed",
			log.FieldRangeStart, rng.ViewStart.String(),
			log.FieldRangeEnd, rng.ViewEnd.String(),
			log.FieldError, err)
		http.Error(w, "export failed", http.StatusInternalServerError)
		return
	}
	if ctx.Err() != nil {
		http.Error(w, "request timed out", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+wb.Filename()+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	_, _ = buf.WriteTo(w)
}

// renderLoadError shows why the dataset could not be loaded.
func (s *Server) renderLoadError(w http.ResponseWriter, r *http.Request) {
	data := errorView{
		Title:   "Dataset unavailable",
		Message: s.loadErr.Error(),
	}
	var labelErr *core.LabelError
	if errors.As(s.loadErr, &labelErr) {
		data.Message = "The dataset contains category codes without a label."
		for _, u := range labelErr.Unmapped {
			data.Details = append(data.Details,
				u.Category+" code "+strconv.Itoa(u.Code)+" on "+strconv.Itoa(u.Days)+" days")
		}
	}
	s.execute(w, r, http.StatusServiceUnavailable, "error_page", data)
}

// execute renders name into a buffer and writes it with status. Template
// failures become a 500.
func (s *Server) execute(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		log.FromContext(r.Context()).WithComponent(log.ComponentTemplate).ErrorContext(r.Context(),
			"Template execution failed", "template", name, log.FieldError, err)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}
