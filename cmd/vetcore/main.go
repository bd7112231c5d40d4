// Command vetcore is a CLI boundary over the core: catalog and patient
// management, mention resolution, draft review, Merkle commit/proof
// inspection, sync, and export, all driven through vetcore.Core.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vetcore/vetcore"
	"github.com/vetcore/vetcore/internal/config"
	"github.com/vetcore/vetcore/internal/normalizer"
)

var (
	dbDir      string
	jsonOutput bool

	core    *vetcore.Core
	rootCtx context.Context
)

var rootCmd = &cobra.Command{
	Use:   "vetcore",
	Short: "Local-first veterinary drug resolution and audit core",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		settings, err := config.Load(dbDir)
		if err != nil {
			return fmt.Errorf("loading settings: %w", err)
		}
		opened, err := vetcore.Open(dbDir, vetcore.Options{
			ExtraAliases: settings.ExtraAliases,
			ExtraRoutes:  settings.ExtraRoutes,
			ExtraUnits:   unitSettingsToNormalizer(settings.ExtraUnits),
		})
		if err != nil {
			return fmt.Errorf("opening store: %w", err)
		}
		core = opened
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if core == nil {
			return nil
		}
		return core.Close()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbDir, "db", ".", "clinic data directory")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "emit JSON output")
}

func unitSettingsToNormalizer(in map[string]config.UnitConversionSetting) map[string]normalizer.UnitConversion {
	if in == nil {
		return nil
	}
	out := make(map[string]normalizer.UnitConversion, len(in))
	for k, v := range in {
		out[k] = normalizer.UnitConversion{Canonical: v.Canonical, Multiplier: v.Multiplier}
	}
	return out
}

func printResult(v interface{}) {
	if jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(v)
		return
	}
	fmt.Printf("%+v\n", v)
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	rootCtx = ctx

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
