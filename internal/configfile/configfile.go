// Package configfile reads and writes the metadata.json sidecar kept next
// to a VetCore database: the database filename, the schema version it was
// last opened with, and a stable per-device identifier used in sync and
// compliance exports (spec.md §6's supplemented device-identity need).
package configfile

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// FileName is the sidecar's fixed filename within a clinic's data directory.
const FileName = "metadata.json"

// CurrentSchemaVersion is bumped whenever the SQLite schema changes in a
// way a reader of metadata.json should know about.
const CurrentSchemaVersion = 1

// Config is the sidecar's persisted shape.
type Config struct {
	Database      string `json:"database"`
	SchemaVersion int    `json:"schema_version"`
	DeviceID      string `json:"device_id"`
}

// DefaultConfig returns a fresh Config with a newly generated device ID.
func DefaultConfig() *Config {
	return &Config{
		Database:      "vetcore.db",
		SchemaVersion: CurrentSchemaVersion,
		DeviceID:      uuid.NewString(),
	}
}

// Path returns the sidecar path within dir.
func Path(dir string) string {
	return filepath.Join(dir, FileName)
}

// Load reads the sidecar from dir, returning (nil, nil) if it does not
// exist yet — the caller is expected to fall back to DefaultConfig.
func Load(dir string) (*Config, error) {
	data, err := os.ReadFile(Path(dir))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", Path(dir), err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", Path(dir), err)
	}
	return &cfg, nil
}

// Save writes c to dir.
func (c *Config) Save(dir string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling metadata: %w", err)
	}
	if err := os.WriteFile(Path(dir), data, 0600); err != nil {
		return fmt.Errorf("writing %s: %w", Path(dir), err)
	}
	return nil
}

// DatabasePath returns c's database filename joined onto dir.
func (c *Config) DatabasePath(dir string) string {
	return filepath.Join(dir, c.Database)
}

// LoadOrCreate loads the sidecar from dir, creating and saving a default
// one if it does not yet exist.
func LoadOrCreate(dir string) (*Config, error) {
	cfg, err := Load(dir)
	if err != nil {
		return nil, err
	}
	if cfg != nil {
		return cfg, nil
	}
	cfg = DefaultConfig()
	if err := cfg.Save(dir); err != nil {
		return nil, err
	}
	return cfg, nil
}
