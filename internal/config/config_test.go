package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/vetcore/vetcore/internal/config"
)

func TestLoadDefaultsWhenFileAbsent(t *testing.T) {
	dir := t.TempDir()

	settings, err := config.Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if settings.LockTimeout != 5*time.Second {
		t.Errorf("expected default lock timeout of 5s, got %v", settings.LockTimeout)
	}
	if settings.ReviewQueuePageSize != 25 {
		t.Errorf("expected default review queue page size of 25, got %d", settings.ReviewQueuePageSize)
	}
	if settings.DatabaseDir != dir {
		t.Errorf("expected database_dir to default to configDir %q, got %q", dir, settings.DatabaseDir)
	}
}

func TestLoadParsesYAMLSettings(t *testing.T) {
	dir := t.TempDir()
	contents := `
sync_peer_address: "https://pims.example.test"
lock_timeout: "10s"
review_queue_page_size: 50
aliases:
  rimadyl-extra: carprofen
routes:
  per-os: PO
units:
  ml:
    canonical: milliliters
    multiplier: 1.0
  mcg:
    canonical: mg
    multiplier: 0.001
`
	if err := os.WriteFile(filepath.Join(dir, "vetcore.yaml"), []byte(contents), 0600); err != nil {
		t.Fatalf("writing fixture config: %v", err)
	}

	settings, err := config.Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if settings.SyncPeerAddress != "https://pims.example.test" {
		t.Errorf("expected sync_peer_address to parse, got %q", settings.SyncPeerAddress)
	}
	if settings.LockTimeout != 10*time.Second {
		t.Errorf("expected lock_timeout of 10s, got %v", settings.LockTimeout)
	}
	if settings.ReviewQueuePageSize != 50 {
		t.Errorf("expected review_queue_page_size of 50, got %d", settings.ReviewQueuePageSize)
	}
	if settings.ExtraAliases["rimadyl-extra"] != "carprofen" {
		t.Errorf("expected aliases table to parse, got %+v", settings.ExtraAliases)
	}
	if settings.ExtraRoutes["per-os"] != "PO" {
		t.Errorf("expected routes table to parse, got %+v", settings.ExtraRoutes)
	}
	unit, ok := settings.ExtraUnits["mcg"]
	if !ok || unit.Canonical != "mg" || unit.Multiplier != 0.001 {
		t.Errorf("expected units table to parse mcg entry, got %+v (ok=%v)", unit, ok)
	}
}

func TestLoadRejectsInvalidLockTimeout(t *testing.T) {
	dir := t.TempDir()
	contents := "lock_timeout: \"not-a-duration\"\n"
	if err := os.WriteFile(filepath.Join(dir, "vetcore.yaml"), []byte(contents), 0600); err != nil {
		t.Fatalf("writing fixture config: %v", err)
	}

	if _, err := config.Load(dir); err == nil {
		t.Fatal("expected an error for an unparseable lock_timeout")
	}
}
