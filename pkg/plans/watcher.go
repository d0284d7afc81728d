package plans

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/eventlane/eventlane/pkg/observability"
)

const seedReloadTimeout = 30 * time.Second

// SeedWatcher re-applies a plan seed file whenever it changes on disk, so
// plan definitions managed as deployment config (e.g. a mounted ConfigMap)
// roll out without a restart.
type SeedWatcher struct {
	path     string
	catalog  Catalog
	logger   *observability.Logger
	watcher  *fsnotify.Watcher
	debounce time.Duration
	done     chan struct{}
}

// NewSeedWatcher creates a watcher for the given seed file
func NewSeedWatcher(path string, catalog Catalog, logger *observability.Logger) (*SeedWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	return &SeedWatcher{
		path:     path,
		catalog:  catalog,
		logger:   logger,
		watcher:  watcher,
		debounce: 500 * time.Millisecond,
		done:     make(chan struct{}),
	}, nil
}

// Start applies the seed file once, then watches for changes until the
// context is cancelled or Close is called. Watching the parent directory
// rather than the file itself survives the rename-over-replace pattern
// editors and ConfigMap mounts use.
func (w *SeedWatcher) Start(ctx context.Context) error {
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		w.watcher.Close()
		close(w.done)
		return fmt.Errorf("failed to watch seed directory: %w", err)
	}

	w.reload(ctx)

	go w.loop(ctx)
	return nil
}

// Close stops the watcher and waits for the event loop to exit
func (w *SeedWatcher) Close() error {
	err := w.watcher.Close()
	<-w.done
	return err
}

func (w *SeedWatcher) loop(ctx context.Context) {
	defer close(w.done)
	defer observability.RecoverPanic(w.logger, "seed watcher")

	base := filepath.Base(w.path)
	var pending <-chan time.Time

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			if filepath.Base(event.Name) != base {
				continue
			}
			// Editors emit bursts of events per save; collapse them
			pending = time.After(w.debounce)

		case <-pending:
			pending = nil
			w.reload(ctx)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.WithError(err).Warn("seed watcher error")

		case <-ctx.Done():
			return
		}
	}
}

func (w *SeedWatcher) reload(ctx context.Context) {
	reloadCtx, cancel := context.WithTimeout(ctx, seedReloadTimeout)
	defer cancel()

	doc, err := LoadSeed(w.path)
	if err != nil {
		w.logger.WithError(err).WithField("path", w.path).Error("failed to load plan seed file")
		return
	}

	applied, err := ApplySeed(reloadCtx, w.catalog, doc)
	if err != nil {
		w.logger.WithError(err).WithField("applied", applied).Error("failed to apply plan seed file")
		return
	}

	w.logger.WithFields(map[string]interface{}{
		"path":  w.path,
		"plans": applied,
	}).Info("applied plan seed file")
}
