package catalogwatch_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/vetcore/vetcore/internal/catalogwatch"
	syncpkg "github.com/vetcore/vetcore/internal/sync"
	"github.com/vetcore/vetcore/internal/types"
)

type recordingApplier struct {
	mu      sync.Mutex
	applied []syncpkg.CatalogDelta
}

func (r *recordingApplier) ApplyCatalogDelta(ctx context.Context, delta syncpkg.CatalogDelta) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.applied = append(r.applied, delta)
	return nil
}

func (r *recordingApplier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.applied)
}

func TestWatcherAppliesAndRemovesDroppedDeltaFile(t *testing.T) {
	dir := t.TempDir()
	applier := &recordingApplier{}
	w := catalogwatch.New(dir, applier, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Give the watcher time to register before the write happens.
	time.Sleep(100 * time.Millisecond)

	deltaPath := filepath.Join(dir, "update-1.delta.json")
	delta := syncpkg.CatalogDelta{
		Items:     []types.CatalogItem{{SKU: "sku-1", Name: "Carprofen 25mg", Active: true}},
		Timestamp: 42,
	}
	data, err := json.Marshal(delta)
	if err != nil {
		t.Fatalf("marshaling fixture delta: %v", err)
	}
	if err := os.WriteFile(deltaPath, data, 0600); err != nil {
		t.Fatalf("writing delta file: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if applier.count() > 0 {
			break
		}
		time.Sleep(50 * time.Millisecond)
	}
	if applier.count() != 1 {
		t.Fatalf("expected the delta to be applied exactly once, got %d applications", applier.count())
	}

	if _, err := os.Stat(deltaPath); !os.IsNotExist(err) {
		t.Errorf("expected the delta file to be removed after application, stat err: %v", err)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned an error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Error("Run did not return after context cancellation")
	}
}

func TestWatcherIgnoresFilesWithoutDeltaSuffix(t *testing.T) {
	dir := t.TempDir()
	applier := &recordingApplier{}
	w := catalogwatch.New(dir, applier, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() { _ = w.Run(ctx) }()
	time.Sleep(100 * time.Millisecond)

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("hello"), 0600); err != nil {
		t.Fatalf("writing unrelated file: %v", err)
	}

	time.Sleep(1 * time.Second)
	if applier.count() != 0 {
		t.Errorf("expected non-.delta.json files to be ignored, got %d applications", applier.count())
	}
}

