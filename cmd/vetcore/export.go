package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vetcore/vetcore/internal/export"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export committed encounters for billing or compliance review",
}

func init() {
	rootCmd.AddCommand(exportCmd)
}

var (
	billingSince  string
	billingFormat string
	billingOut    string
)

var exportBillingCmd = &cobra.Command{
	Use:   "billing",
	Short: "Export committed line items as CSV or JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		since, err := parseSinceFlag(billingSince)
		if err != nil {
			return err
		}

		rows, err := core.Export.Billing(rootCtx, since)
		if err != nil {
			return fmt.Errorf("building billing export: %w", err)
		}

		var data []byte
		switch billingFormat {
		case "csv":
			data, err = export.BillingCSV(rows)
		case "json":
			data, err = export.BillingJSON(rows)
		default:
			return fmt.Errorf("unknown format %q (want csv or json)", billingFormat)
		}
		if err != nil {
			return fmt.Errorf("formatting billing export: %w", err)
		}

		if billingOut == "" {
			fmt.Print(string(data))
			return nil
		}
		return export.WriteFile(billingOut, data)
	},
}

func init() {
	exportBillingCmd.Flags().StringVar(&billingSince, "since", "", "only include encounters committed after this RFC3339 timestamp")
	exportBillingCmd.Flags().StringVar(&billingFormat, "format", "csv", "csv or json")
	exportBillingCmd.Flags().StringVar(&billingOut, "out", "", "output file path (default: stdout)")
	exportCmd.AddCommand(exportBillingCmd)
}

var (
	complianceSince    string
	complianceOut      string
	complianceSystemID string
)

var exportComplianceCmd = &cobra.Command{
	Use:   "compliance",
	Short: "Export committed encounters with inclusion proofs for audit",
	RunE: func(cmd *cobra.Command, args []string) error {
		since, err := parseSinceFlag(complianceSince)
		if err != nil {
			return err
		}

		var systemID *string
		if complianceSystemID != "" {
			systemID = &complianceSystemID
		}

		batch, err := core.Export.Compliance(rootCtx, since, time.Now(), systemID)
		if err != nil {
			return fmt.Errorf("building compliance export: %w", err)
		}

		data, err := export.ComplianceBatchJSON(batch)
		if err != nil {
			return fmt.Errorf("formatting compliance export: %w", err)
		}

		if complianceOut == "" {
			fmt.Print(string(data))
			return nil
		}
		return export.WriteFile(complianceOut, data)
	},
}

func init() {
	exportComplianceCmd.Flags().StringVar(&complianceSince, "since", "", "only include encounters committed after this RFC3339 timestamp")
	exportComplianceCmd.Flags().StringVar(&complianceOut, "out", "", "output file path (default: stdout)")
	exportComplianceCmd.Flags().StringVar(&complianceSystemID, "system-id", "", "identifier for the exporting system, recorded in the proof metadata")
	exportCmd.AddCommand(exportComplianceCmd)
}

func parseSinceFlag(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, fmt.Errorf("parsing --since %q: %w", raw, err)
	}
	return &t, nil
}
