// Package catalogwatch watches a directory for catalog-delta JSON files
// dropped by an external PIMS export job and applies them through the same
// sync.Manager path used for a network pull (SPEC_FULL.md §C.4's
// supplemented file-drop update channel).
package catalogwatch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vetcore/vetcore/internal/sync"
)

const debounceDelay = 500 * time.Millisecond

// Applier is the subset of *sync.Manager a Watcher needs, narrowed for
// testability.
type Applier interface {
	ApplyCatalogDelta(ctx context.Context, delta sync.CatalogDelta) error
}

// Watcher applies every *.delta.json file written to a directory, then
// removes it so a restart doesn't reapply a stale delta.
type Watcher struct {
	dir     string
	applier Applier
	logger  *slog.Logger
}

// New builds a Watcher over dir. A nil logger falls back to slog's default.
func New(dir string, applier Applier, logger *slog.Logger) *Watcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{dir: dir, applier: applier, logger: logger}
}

// Run watches until ctx is canceled, debouncing bursts of writes to the
// same file before applying it.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating catalog watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Add(w.dir); err != nil {
		return fmt.Errorf("watching %s: %w", w.dir, err)
	}

	debounce := map[string]*time.Timer{}
	defer func() {
		for _, t := range debounce {
			t.Stop()
		}
	}()

	applyNow := func(path string) {
		if err := w.apply(ctx, path); err != nil {
			w.logger.Error("applying catalog delta file", "path", path, "error", err)
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if !strings.HasSuffix(filepath.Base(event.Name), ".delta.json") {
				continue
			}
			path := event.Name
			if t := debounce[path]; t != nil {
				t.Stop()
			}
			debounce[path] = time.AfterFunc(debounceDelay, func() { applyNow(path) })
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("catalog watcher error", "error", err)
		}
	}
}

func (w *Watcher) apply(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Already consumed by a prior debounced fire for the same path.
			return nil
		}
		return fmt.Errorf("reading %s: %w", path, err)
	}

	var delta sync.CatalogDelta
	if err := json.Unmarshal(data, &delta); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	if err := w.applier.ApplyCatalogDelta(ctx, delta); err != nil {
		return fmt.Errorf("applying %s: %w", path, err)
	}

	w.logger.Info("applied catalog delta", "path", path, "items", len(delta.Items), "deactivated", len(delta.DeactivatedSKUs))

	if err := os.Remove(path); err != nil {
		return fmt.Errorf("removing consumed delta file %s: %w", path, err)
	}
	return nil
}
