package dataset

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"bikeshare/internal/log"
	"bikeshare/internal/metrics"
)

// DefaultDebounce collapses the burst of events an editor or copy produces.
const DefaultDebounce = 500 * time.Millisecond

// Watcher calls reload when the dataset file changes.
type Watcher struct {
	path     string
	debounce time.Duration
	reload   func(context.Context) error
	logger   *log.Logger
}

func NewWatcher(path string, debounce time.Duration, reload func(context.Context) error, logger *log.Logger) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Watcher{
		path:     filepath.Clean(path),
		debounce: debounce,
		reload:   reload,
		logger:   logger.WithComponent(log.ComponentWatcher),
	}
}

// Run watches until ctx is done. The parent directory is watched rather
// than the file so that atomic replace-by-rename is seen too.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}
	w.logger.InfoContext(ctx, "Watching dataset file", log.FieldPath, w.path)

	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			fire = time.After(w.debounce)
		case <-fire:
			fire = nil
			err := w.reload(ctx)
			metrics.RecordReload(err)
			if err != nil {
				w.logger.ErrorContext(ctx, "Dataset reload failed, keeping previous dataset",
					log.FieldPath, w.path, log.FieldError, err)
				continue
			}
			w.logger.InfoContext(ctx, "Dataset reloaded", log.FieldPath, w.path)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.WarnContext(ctx, "Watcher error", log.FieldError, err)
		}
	}
}
