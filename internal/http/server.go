package http

import (
	"context"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"bikeshare/internal/cache"
	"bikeshare/internal/chart"
	"bikeshare/internal/core"
	"bikeshare/internal/dataset"
	"bikeshare/internal/log"
	"bikeshare/internal/middleware/ratelimit"
	"bikeshare/internal/middleware/security"
	"bikeshare/internal/middleware/trace"
	appweb "bikeshare/web"
)

// requestTimeout bounds the work a single handler may do.
const requestTimeout = 7 * time.Second

// Options configures NewServer.
type Options struct {
	Addr           string
	Holder         *dataset.Holder
	Labels         core.Labels
	Logger         *log.Logger
	ChartCacheSize int
	ChartCacheTTL  time.Duration
	RateLimitRPM   int
	TrustedProxies []string

	// LoadErr, when set, is shown on every dashboard route instead of data.
	LoadErr error
}

// Server serves the dashboard UI, chart images, exports and probes.
type Server struct {
	http.Server
	holder    *dataset.Holder
	labels    core.Labels
	logger    *log.Logger
	templates *template.Template
	renderer  *chart.Renderer
	charts    *cache.ChartCache
	cacheMgr  *cache.Manager
	limiter   *ratelimit.Limiter
	detector  *security.Detector
	loadErr   error

	shutdownOnce sync.Once
}

// NewServer configures routes, middleware and templates.
func NewServer(opts Options) (*Server, error) {
	if opts.Holder == nil {
		opts.Holder = dataset.NewHolder()
	}
	if opts.Logger == nil {
		opts.Logger = log.New(log.DefaultConfig())
	}
	if opts.ChartCacheTTL <= 0 {
		opts.ChartCacheTTL = 10 * time.Minute
	}

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	detector := security.NewDetector()
	for _, cidr := range opts.TrustedProxies {
		if err := detector.AddTrustedProxy(cidr); err != nil {
			return nil, err
		}
	}

	s := &Server{
		holder:    opts.Holder,
		labels:    opts.Labels,
		logger:    opts.Logger.WithComponent(log.ComponentHTTP),
		templates: t,
		renderer:  chart.NewRenderer(opts.Labels),
		charts:    cache.NewChartCache(opts.ChartCacheSize, opts.ChartCacheTTL),
		cacheMgr:  cache.NewManager(opts.Logger),
		limiter:   ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitRPM}),
		detector:  detector,
		loadErr:   opts.LoadErr,
	}
	s.cacheMgr.Register(s.charts)
	s.cacheMgr.StartCleanup(opts.ChartCacheTTL)

	mux := http.NewServeMux()

	sub, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("mount static assets: %w", err)
	}
	static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
	mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))

	mux.HandleFunc("GET /{$}", s.handleDashboardPage)
	mux.HandleFunc("GET /ui/dashboard", s.handleDashboard)
	mux.HandleFunc("GET /charts/{name}", s.handleChart)
	mux.HandleFunc("GET /api/summary", s.handleSummary)
	mux.HandleFunc("GET /export.xlsx", s.handleExport)
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.Handle("GET /metrics", promhttp.Handler())

	var handler http.Handler = mux
	handler = security.Headers(security.DefaultHeadersConfig())(handler)
	handler = s.limiter.Middleware(detector.ExtractClientIP)(handler)
	handler = detector.Middleware(handler)
	handler = trace.NewMiddleware(opts.Logger, detector.ExtractClientIP, routeLabel).Middleware(handler)

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

// Shutdown stops background cleanup and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheMgr.Stop()
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// routeLabel collapses request paths into a bounded set for metrics.
func routeLabel(r *http.Request) string {
	p := r.URL.Path
	switch p {
	case "/", "/ui/dashboard", "/api/summary", "/export.xlsx", "/healthz", "/readyz", "/metrics":
		return p
	}
	switch {
	case strings.HasPrefix(p, "/charts/"):
		return "/charts/{name}"
	case strings.HasPrefix(p, "/static/"):
		return "/static/"
	default:
		return "other"
	}
}
