package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vetcore/vetcore/internal/types"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage the drug catalog",
}

func init() {
	rootCmd.AddCommand(catalogCmd)
}

var (
	catalogSKU     string
	catalogName    string
	catalogAliases []string
	catalogSpecies []string
	catalogRoutes  []string
	catalogActive  bool
)

var catalogUpsertCmd = &cobra.Command{
	Use:   "upsert",
	Short: "Create or update a catalog item",
	RunE: func(cmd *cobra.Command, args []string) error {
		item := &types.CatalogItem{
			SKU:     catalogSKU,
			Name:    catalogName,
			Aliases: catalogAliases,
			Species: catalogSpecies,
			Routes:  catalogRoutes,
			Active:  catalogActive,
		}
		if err := core.Store.UpsertCatalogItem(rootCtx, item); err != nil {
			return fmt.Errorf("upserting %s: %w", catalogSKU, err)
		}
		printResult(item)
		return nil
	},
}

func init() {
	catalogUpsertCmd.Flags().StringVar(&catalogSKU, "sku", "", "catalog item SKU (required)")
	catalogUpsertCmd.Flags().StringVar(&catalogName, "name", "", "canonical product name (required)")
	catalogUpsertCmd.Flags().StringSliceVar(&catalogAliases, "alias", nil, "alias name (repeatable)")
	catalogUpsertCmd.Flags().StringSliceVar(&catalogSpecies, "species", nil, "supported species (repeatable, empty = unrestricted)")
	catalogUpsertCmd.Flags().StringSliceVar(&catalogRoutes, "route", nil, "supported route (repeatable, empty = unrestricted)")
	catalogUpsertCmd.Flags().BoolVar(&catalogActive, "active", true, "whether the item is active")
	_ = catalogUpsertCmd.MarkFlagRequired("sku")
	_ = catalogUpsertCmd.MarkFlagRequired("name")
	catalogCmd.AddCommand(catalogUpsertCmd)
}

var (
	searchQuery      string
	searchActiveOnly bool
	searchLimit      int
)

var catalogSearchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search the catalog by name, SKU, or alias",
	RunE: func(cmd *cobra.Command, args []string) error {
		results, err := core.Store.SearchCatalog(rootCtx, searchQuery, searchActiveOnly, searchLimit)
		if err != nil {
			return fmt.Errorf("searching catalog: %w", err)
		}
		printResult(results)
		return nil
	},
}

func init() {
	catalogSearchCmd.Flags().StringVar(&searchQuery, "query", "", "search text (required)")
	catalogSearchCmd.Flags().BoolVar(&searchActiveOnly, "active-only", true, "restrict to active items")
	catalogSearchCmd.Flags().IntVar(&searchLimit, "limit", 20, "maximum results")
	_ = catalogSearchCmd.MarkFlagRequired("query")
	catalogCmd.AddCommand(catalogSearchCmd)
}

var listActiveOnly bool

var catalogListCmd = &cobra.Command{
	Use:   "list",
	Short: "List catalog items",
	RunE: func(cmd *cobra.Command, args []string) error {
		items, err := core.Store.ListCatalog(rootCtx, listActiveOnly)
		if err != nil {
			return fmt.Errorf("listing catalog: %w", err)
		}
		printResult(items)
		return nil
	},
}

func init() {
	catalogListCmd.Flags().BoolVar(&listActiveOnly, "active-only", true, "restrict to active items")
	catalogCmd.AddCommand(catalogListCmd)
}

var deactivateSKU string

var catalogDeactivateCmd = &cobra.Command{
	Use:   "deactivate",
	Short: "Mark a catalog item inactive",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := core.Store.DeactivateCatalogItem(rootCtx, deactivateSKU); err != nil {
			return fmt.Errorf("deactivating %s: %w", deactivateSKU, err)
		}
		return nil
	},
}

func init() {
	catalogDeactivateCmd.Flags().StringVar(&deactivateSKU, "sku", "", "catalog item SKU (required)")
	_ = catalogDeactivateCmd.MarkFlagRequired("sku")
	catalogCmd.AddCommand(catalogDeactivateCmd)
}
