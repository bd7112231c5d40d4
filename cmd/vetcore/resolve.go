package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vetcore/vetcore/internal/resolver"
	"github.com/vetcore/vetcore/internal/types"
)

var (
	resolveDrugName string
	resolveDose     float64
	resolveHasDose  bool
	resolveUnit     string
	resolveRoute    string
	resolveSpecies  string
	resolveWeightKg float64
)

var resolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Resolve a single drug mention against the catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		mention := types.DrugMention{
			RawText:  resolveDrugName,
			DrugName: resolveDrugName,
		}
		if resolveHasDose {
			mention.Dose = &resolveDose
		}
		if resolveUnit != "" {
			mention.Unit = &resolveUnit
		}
		if resolveRoute != "" {
			mention.Route = &resolveRoute
		}

		in := resolver.Input{Mention: mention}
		if resolveSpecies != "" {
			in.Species = &resolveSpecies
		}
		if resolveWeightKg > 0 {
			in.WeightKg = &resolveWeightKg
		}

		item, err := core.Resolver.Resolve(rootCtx, in)
		if err != nil {
			return fmt.Errorf("resolving %q: %w", resolveDrugName, err)
		}
		printResult(item)
		return nil
	},
}

func init() {
	resolveCmd.Flags().StringVar(&resolveDrugName, "drug", "", "raw drug name or alias (required)")
	resolveCmd.Flags().Float64Var(&resolveDose, "dose", 0, "dose amount")
	resolveCmd.Flags().StringVar(&resolveUnit, "unit", "", "dose unit")
	resolveCmd.Flags().StringVar(&resolveRoute, "route", "", "administration route")
	resolveCmd.Flags().StringVar(&resolveSpecies, "species", "", "patient species")
	resolveCmd.Flags().Float64Var(&resolveWeightKg, "weight-kg", 0, "patient weight in kilograms")
	_ = resolveCmd.MarkFlagRequired("drug")
	resolveCmd.PreRun = func(cmd *cobra.Command, args []string) {
		resolveHasDose = cmd.Flags().Changed("dose")
	}
	rootCmd.AddCommand(resolveCmd)
}
