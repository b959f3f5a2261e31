// Package dataset owns the lifecycle of the in-memory Dataset: the initial
// load, label validation, atomic swaps on reload and the file watcher.
package dataset

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"bikeshare/internal/core"
	"bikeshare/internal/metrics"
	"bikeshare/internal/source"
)

// Holder publishes the current Dataset to concurrent readers. Readers get
// an immutable snapshot; a reload swaps the pointer and never touches the
// old snapshot.
type Holder struct {
	current atomic.Pointer[snapshot]
}

type snapshot struct {
	ds       *core.Dataset
	loadedAt time.Time
}

func NewHolder() *Holder {
	return &Holder{}
}

// Dataset returns the current snapshot, or nil before the first Store.
func (h *Holder) Dataset() *core.Dataset {
	if s := h.current.Load(); s != nil {
		return s.ds
	}
	return nil
}

// LoadedAt returns when the current snapshot was stored.
func (h *Holder) LoadedAt() time.Time {
	if s := h.current.Load(); s != nil {
		return s.loadedAt
	}
	return time.Time{}
}

// Ready reports whether a dataset has been stored.
func (h *Holder) Ready() bool {
	return h.current.Load() != nil
}

// Store publishes ds.
func (h *Holder) Store(ds *core.Dataset) {
	now := time.Now()
	h.current.Store(&snapshot{ds: ds, loadedAt: now})
	metrics.RecordDatasetLoaded(ds.Len(), now)
}

// Reload loads a fresh dataset from src and swaps it in. On failure the
// current snapshot stays in place.
func (h *Holder) Reload(ctx context.Context, src source.RecordSource, labels core.Labels) error {
	ds, err := Load(ctx, src, labels)
	if err != nil {
		return err
	}
	h.Store(ds)
	return nil
}

// Load reads records from src, checks every category code against labels
// and builds the sorted Dataset.
func Load(ctx context.Context, src source.RecordSource, labels core.Labels) (*core.Dataset, error) {
	records, err := src.LoadRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("load records: %w", err)
	}
	if err := labels.Validate(records); err != nil {
		return nil, err
	}
	ds, err := core.NewDataset(records)
	if err != nil {
		return nil, fmt.Errorf("index records: %w", err)
	}
	return ds, nil
}
