package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
)

var catalogWatchDir string

var catalogWatchCmd = &cobra.Command{
	Use:   "catalogwatch",
	Short: "Watch a directory for dropped catalog-delta files and apply them",
}

func init() {
	rootCmd.AddCommand(catalogWatchCmd)
}

var catalogWatchRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Block, applying every *.delta.json file written to --dir until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		if catalogWatchDir == "" {
			return fmt.Errorf("--dir is required")
		}
		logger := slog.Default()
		logger.Info("watching catalog delta directory", "dir", catalogWatchDir)
		return core.WatchCatalog(rootCtx, catalogWatchDir, logger)
	},
}

func init() {
	catalogWatchRunCmd.Flags().StringVar(&catalogWatchDir, "dir", "", "directory to watch for *.delta.json files")
	catalogWatchCmd.AddCommand(catalogWatchRunCmd)
}
