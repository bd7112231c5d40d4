package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Diagnose the local database",
}

func init() {
	rootCmd.AddCommand(dbCmd)
}

var dbCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Report leaf/internal node counts against the stored root, and any orphaned Merkle children",
	RunE: func(cmd *cobra.Command, args []string) error {
		report, err := core.Merkle.CheckIntegrity(rootCtx)
		if err != nil {
			return fmt.Errorf("checking database integrity: %w", err)
		}
		printResult(report)
		if len(report.OrphanedChildren) > 0 {
			return fmt.Errorf("found %d orphaned merkle child reference(s)", len(report.OrphanedChildren))
		}
		return nil
	},
}

func init() {
	dbCmd.AddCommand(dbCheckCmd)
}
