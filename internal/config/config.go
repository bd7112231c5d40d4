// Package config loads VetCore's startup settings from a vetcore.yaml file
// via viper: normalizer table extensions, the sync peer address, the
// per-process store lock timeout, and the review-queue page size
// (spec.md §9's extension point, SPEC_FULL.md §A).
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Settings is the fully-resolved startup configuration.
type Settings struct {
	// DatabaseDir is the clinic data directory holding vetcore.db and
	// metadata.json.
	DatabaseDir string

	// SyncPeerAddress is the sync_peer_address setting, empty when unset.
	// The vetcore CLI does not build a sync peer from it.
	SyncPeerAddress string

	// LockTimeout is the lock_timeout setting. No other package reads it;
	// the store applies no wait bound to its single connection.
	LockTimeout time.Duration

	// ReviewQueuePageSize is the review_queue_page_size setting. No other
	// package reads it; draft.ListPendingReview returns every pending draft.
	ReviewQueuePageSize int

	// ExtraAliases/ExtraUnits/ExtraRoutes extend the normalizer's built-in
	// tables (spec.md §9 open extension point).
	ExtraAliases map[string]string
	ExtraUnits   map[string]UnitConversionSetting
	ExtraRoutes  map[string]string
}

// UnitConversionSetting mirrors normalizer.UnitConversion in a
// viper/YAML-friendly shape (exported fields, no package coupling).
type UnitConversionSetting struct {
	Canonical  string  `mapstructure:"canonical"`
	Multiplier float64 `mapstructure:"multiplier"`
}

const (
	defaultLockTimeout         = 5 * time.Second
	defaultReviewQueuePageSize = 25
)

// Load reads vetcore.yaml from configDir (and the current directory, per
// viper's search-path convention), falling back to defaults for anything
// unset.
func Load(configDir string) (*Settings, error) {
	v := viper.New()
	v.SetConfigName("vetcore")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)
	v.AddConfigPath(".")

	v.SetDefault("database_dir", configDir)
	v.SetDefault("lock_timeout", defaultLockTimeout.String())
	v.SetDefault("review_queue_page_size", defaultReviewQueuePageSize)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading vetcore.yaml: %w", err)
		}
	}

	lockTimeout, err := time.ParseDuration(v.GetString("lock_timeout"))
	if err != nil {
		return nil, fmt.Errorf("parsing lock_timeout %q: %w", v.GetString("lock_timeout"), err)
	}

	settings := &Settings{
		DatabaseDir:         v.GetString("database_dir"),
		SyncPeerAddress:     v.GetString("sync_peer_address"),
		LockTimeout:         lockTimeout,
		ReviewQueuePageSize: v.GetInt("review_queue_page_size"),
		ExtraAliases:        v.GetStringMapString("aliases"),
		ExtraRoutes:         v.GetStringMapString("routes"),
	}

	var units map[string]UnitConversionSetting
	if err := v.UnmarshalKey("units", &units); err != nil {
		return nil, fmt.Errorf("parsing units table: %w", err)
	}
	settings.ExtraUnits = units

	return settings, nil
}
