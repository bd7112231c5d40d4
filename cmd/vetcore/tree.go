package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var treeStatsCmd = &cobra.Command{
	Use:   "tree-stats",
	Short: "Show the current Merkle root, height, and leaf count",
	RunE: func(cmd *cobra.Command, args []string) error {
		stats, err := core.Merkle.TreeStats(rootCtx)
		if err != nil {
			return fmt.Errorf("reading tree stats: %w", err)
		}
		printResult(stats)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(treeStatsCmd)
}
