package configfile_test

import (
	"path/filepath"
	"testing"

	"github.com/vetcore/vetcore/internal/configfile"
)

func TestLoadReturnsNilWhenAbsent(t *testing.T) {
	dir := t.TempDir()
	cfg, err := configfile.Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg != nil {
		t.Errorf("expected nil config for an absent sidecar, got %+v", cfg)
	}
}

func TestLoadOrCreateCreatesAndPersistsDefault(t *testing.T) {
	dir := t.TempDir()

	cfg, err := configfile.LoadOrCreate(dir)
	if err != nil {
		t.Fatalf("LoadOrCreate: %v", err)
	}
	if cfg.Database != "vetcore.db" {
		t.Errorf("expected default database filename, got %q", cfg.Database)
	}
	if cfg.DeviceID == "" {
		t.Error("expected a generated device id")
	}

	if _, err := filepath.Abs(configfile.Path(dir)); err != nil {
		t.Fatalf("Path: %v", err)
	}

	reloaded, err := configfile.Load(dir)
	if err != nil {
		t.Fatalf("reloading: %v", err)
	}
	if reloaded == nil || reloaded.DeviceID != cfg.DeviceID {
		t.Errorf("expected the same device id to persist across reload, got %+v", reloaded)
	}
}

func TestLoadOrCreateIsStableAcrossCalls(t *testing.T) {
	dir := t.TempDir()

	first, err := configfile.LoadOrCreate(dir)
	if err != nil {
		t.Fatalf("first LoadOrCreate: %v", err)
	}
	second, err := configfile.LoadOrCreate(dir)
	if err != nil {
		t.Fatalf("second LoadOrCreate: %v", err)
	}
	if first.DeviceID != second.DeviceID {
		t.Error("expected LoadOrCreate to not regenerate the device id once saved")
	}
}

func TestDatabasePathJoinsDirAndFilename(t *testing.T) {
	cfg := &configfile.Config{Database: "clinic.db"}
	got := cfg.DatabasePath("/data/clinic-1")
	want := filepath.Join("/data/clinic-1", "clinic.db")
	if got != want {
		t.Errorf("DatabasePath = %q, want %q", got, want)
	}
}
