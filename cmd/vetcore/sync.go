package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var errSyncPeerUnconfigured = errors.New("no sync peer configured: the vetcore CLI does not construct a sync peer")

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Inspect and drive one-way sync against the configured PIMS peer",
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

var syncStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report whether the local tree has unsynced changes",
	RunE: func(cmd *cobra.Command, args []string) error {
		unsynced, err := core.Sync.HasUnsyncedChanges(rootCtx)
		if err != nil {
			return fmt.Errorf("checking sync status: %w", err)
		}
		printResult(map[string]bool{"has_unsynced_changes": unsynced})
		return nil
	},
}

func init() {
	syncCmd.AddCommand(syncStatusCmd)
}

var syncRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Drive one sync round-trip and a catalog pull against the peer",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !core.Sync.HasPeer() {
			return errSyncPeerUnconfigured
		}
		now := time.Now()
		synced, err := core.Sync.RunSync(rootCtx, now)
		if err != nil {
			return fmt.Errorf("running sync: %w", err)
		}
		if err := core.Sync.PullCatalog(rootCtx); err != nil {
			return fmt.Errorf("pulling catalog: %w", err)
		}
		printResult(map[string]bool{"synced": synced})
		return nil
	},
}

func init() {
	syncCmd.AddCommand(syncRunCmd)
}
