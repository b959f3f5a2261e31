package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"golang.org/x/sync/errgroup"

	"bikeshare/internal/backend"
	"bikeshare/internal/cli"
	"bikeshare/internal/core"
	"bikeshare/internal/dataset"
	apphttp "bikeshare/internal/http"
	"bikeshare/internal/log"
	"bikeshare/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg, logger := cli.LoadAndValidateConfig()

	ctx, stop := cli.SignalContext(context.Background(), logger)
	defer stop()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", log.FieldError, err, log.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}
	defer func() {
		if err := res.Close(); err != nil {
			logger.Warn("Backend cleanup failed", log.FieldError, err)
		}
	}()

	labels := core.DefaultLabels()
	holder := dataset.NewHolder()
	dsLogger := logger.WithComponent(log.ComponentDataset)

	ds, loadErr := dataset.Load(ctx, res.Source, labels)
	if loadErr != nil {
		dsLogger.Error("Dataset load failed", log.FieldBackend, cfg.DataBackend, log.FieldError, loadErr,
			"load_error", errors.Is(loadErr, core.ErrLoad), "label_error", errors.Is(loadErr, core.ErrLabel))
		if !cfg.ServeLoadErrors {
			res.Close()
			os.Exit(1)
		}
	} else {
		holder.Store(ds)
		dsLogger.Info("Dataset loaded",
			log.NewFields().WithDataset(ds.Len(), ds.Version()).
				WithRange(ds.MinDate().String(), ds.MaxDate().String()).ToSlice()...)
	}

	srv, err := apphttp.NewServer(apphttp.Options{
		Addr:           cfg.Addr(),
		Holder:         holder,
		Labels:         labels,
		Logger:         logger,
		ChartCacheSize: cfg.ChartCacheSize,
		ChartCacheTTL:  cfg.ChartCacheTTL,
		RateLimitRPM:   cfg.RateLimitRPM,
		TrustedProxies: cfg.TrustedProxies,
		LoadErr:        loadErr,
	})
	if err != nil {
		logger.Error("Failed to build HTTP server", log.FieldError, err)
		os.Exit(1)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting bikeshare server", "addr", srv.Addr, log.FieldBackend, cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cli.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if cfg.DatasetWatch && res.WatchPath != "" && loadErr == nil {
		reload := func(ctx context.Context) error {
			return holder.Reload(ctx, res.Source, labels)
		}
		w := dataset.NewWatcher(res.WatchPath, dataset.DefaultDebounce, reload, logger.WithComponent(log.ComponentWatcher))
		g.Go(func() error { return w.Run(gctx) })
	}

	if cfg.DatasetRefreshInterval > 0 && loadErr == nil {
		rw := worker.NewRefreshWorker(holder, res.Source, labels, cfg.DatasetRefreshInterval, logger)
		g.Go(func() error { return rw.Run(gctx) })
	}

	if err := g.Wait(); err != nil {
		logger.Error("Server error", log.FieldError, err)
		res.Close()
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}
