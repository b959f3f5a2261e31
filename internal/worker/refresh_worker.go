// Package worker runs background jobs next to the HTTP server.
package worker

import (
	"context"
	"fmt"
	"time"

	"bikeshare/internal/core"
	"bikeshare/internal/dataset"
	"bikeshare/internal/log"
	"bikeshare/internal/metrics"
	"bikeshare/internal/source"
)

// RefreshWorker polls a record source and publishes a new dataset when the
// contents change. It covers backends that cannot be watched, such as a
// shared SQLite snapshot or a Google Sheet.
type RefreshWorker struct {
	holder   *dataset.Holder
	src      source.RecordSource
	labels   core.Labels
	interval time.Duration
	logger   *log.Logger
}

func NewRefreshWorker(holder *dataset.Holder, src source.RecordSource, labels core.Labels, interval time.Duration, logger *log.Logger) *RefreshWorker {
	return &RefreshWorker{
		holder:   holder,
		src:      src,
		labels:   labels,
		interval: interval,
		logger:   logger.WithComponent(log.ComponentDataset),
	}
}

// Refresh loads the source once. The holder is only updated when the new
// dataset has a different version; the return value reports whether it was.
func (w *RefreshWorker) Refresh(ctx context.Context) (bool, error) {
	ds, err := dataset.Load(ctx, w.src, w.labels)
	metrics.RecordReload(err)
	if err != nil {
		return false, fmt.Errorf("refresh dataset: %w", err)
	}
	if cur := w.holder.Dataset(); cur != nil && cur.Version() == ds.Version() {
		return false, nil
	}
	w.holder.Store(ds)
	w.logger.InfoContext(ctx, "Dataset refreshed",
		log.NewFields().WithDataset(ds.Len(), ds.Version()).ToSlice()...)
	return true, nil
}

// Run refreshes on every tick until ctx is done. Failures are logged and the
// previous dataset stays in place.
func (w *RefreshWorker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.logger.InfoContext(ctx, "Periodic dataset refresh enabled", "interval", w.interval.String())
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := w.Refresh(ctx); err != nil {
				w.logger.ErrorContext(ctx, "Periodic refresh failed, keeping previous dataset",
					log.NewFields().WithOperation(log.OpReload).WithError(err).ToSlice()...)
			}
		}
	}
}
