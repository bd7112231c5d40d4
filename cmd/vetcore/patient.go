package main

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/vetcore/vetcore/internal/types"
)

var patientCmd = &cobra.Command{
	Use:   "patient",
	Short: "Manage patient records",
}

func init() {
	rootCmd.AddCommand(patientCmd)
}

var (
	patientName    string
	patientSpecies string
)

var patientCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new patient",
	RunE: func(cmd *cobra.Command, args []string) error {
		p := types.NewPatient(patientName, patientSpecies, time.Now())
		if err := core.Store.InsertPatient(rootCtx, p); err != nil {
			return fmt.Errorf("creating patient: %w", err)
		}
		printResult(p)
		return nil
	},
}

func init() {
	patientCreateCmd.Flags().StringVar(&patientName, "name", "", "patient name (required)")
	patientCreateCmd.Flags().StringVar(&patientSpecies, "species", "", "patient species (required)")
	_ = patientCreateCmd.MarkFlagRequired("name")
	_ = patientCreateCmd.MarkFlagRequired("species")
	patientCmd.AddCommand(patientCreateCmd)
}

var (
	patientSearchPrefix string
	patientSearchLimit  int
)

var patientSearchCmd = &cobra.Command{
	Use:   "search",
	Short: "Search patients by name prefix",
	RunE: func(cmd *cobra.Command, args []string) error {
		results, err := core.Store.SearchPatientsByNamePrefix(rootCtx, patientSearchPrefix, patientSearchLimit)
		if err != nil {
			return fmt.Errorf("searching patients: %w", err)
		}
		printResult(results)
		return nil
	},
}

func init() {
	patientSearchCmd.Flags().StringVar(&patientSearchPrefix, "prefix", "", "name prefix (required)")
	patientSearchCmd.Flags().IntVar(&patientSearchLimit, "limit", 20, "maximum results")
	_ = patientSearchCmd.MarkFlagRequired("prefix")
	patientCmd.AddCommand(patientSearchCmd)
}

var (
	patientGetID string
)

var patientShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show a patient by local ID",
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := uuid.Parse(patientGetID)
		if err != nil {
			return fmt.Errorf("parsing patient id: %w", err)
		}
		p, err := core.Store.GetPatientByLocalID(rootCtx, id)
		if err != nil {
			return fmt.Errorf("fetching patient: %w", err)
		}
		printResult(p)
		return nil
	},
}

func init() {
	patientShowCmd.Flags().StringVar(&patientGetID, "id", "", "patient local ID (required)")
	_ = patientShowCmd.MarkFlagRequired("id")
	patientCmd.AddCommand(patientShowCmd)
}
