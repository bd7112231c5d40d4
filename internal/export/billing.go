// Package export renders committed encounters as billing and compliance
// artifacts: flat per-line-item records for billing (JSON or CSV) and
// per-leaf proof bundles for compliance (spec.md §4.H).
package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/vetcore/vetcore/internal/types"
)

// BillingRow is one flat billing record, one per encounter line item
// (spec.md §4.H).
type BillingRow struct {
	DraftID       string  `json:"draft_id"`
	PatientID     string  `json:"patient_id"`
	SKU           string  `json:"sku"`
	Description   string  `json:"description"`
	Quantity      float64 `json:"quantity"`
	Unit          string  `json:"unit"`
	Route         *string `json:"route,omitempty"`
	ReviewedBy    string  `json:"reviewed_by"`
	ReviewedAt    time.Time `json:"reviewed_at"`
	MerkleLeafHash string  `json:"merkle_leaf_hash"`
}

// BillingRowsFor flattens one encounter's line items into billing rows,
// tagged with the Merkle leaf hash that committed it.
func BillingRowsFor(encounter types.ReviewedEncounter, leafHash string) []BillingRow {
	rows := make([]BillingRow, 0, len(encounter.LineItems))
	for _, item := range encounter.LineItems {
		rows = append(rows, BillingRow{
			DraftID:        encounter.DraftID.String(),
			PatientID:      encounter.PatientID.String(),
			SKU:            item.SKU,
			Description:    item.Name,
			Quantity:       item.Quantity,
			Unit:           item.Unit,
			Route:          item.Route,
			ReviewedBy:     encounter.ReviewedBy,
			ReviewedAt:     encounter.ReviewedAt,
			MerkleLeafHash: leafHash,
		})
	}
	return rows
}

// BillingJSON renders rows as pretty JSON.
func BillingJSON(rows []BillingRow) ([]byte, error) {
	out, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling billing rows: %w", err)
	}
	return out, nil
}

var billingCSVHeader = []string{
	"draft_id", "patient_id", "sku", "description", "quantity", "unit",
	"route", "reviewed_by", "reviewed_at", "merkle_leaf_hash",
}

// BillingCSV renders rows as CSV, quote-escaping any field containing a
// comma, quote, or newline by wrapping it in double quotes and doubling
// interior quotes (spec.md §4.H). encoding/csv already implements exactly
// this RFC 4180 quoting rule, so no hand-rolled escaping is written here.
func BillingCSV(rows []BillingRow) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(billingCSVHeader); err != nil {
		return nil, fmt.Errorf("writing csv header: %w", err)
	}
	for _, row := range rows {
		route := ""
		if row.Route != nil {
			route = *row.Route
		}
		record := []string{
			row.DraftID,
			row.PatientID,
			row.SKU,
			row.Description,
			strconv.FormatFloat(row.Quantity, 'f', -1, 64),
			row.Unit,
			route,
			row.ReviewedBy,
			row.ReviewedAt.Format(time.RFC3339),
			row.MerkleLeafHash,
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("writing csv row for %s: %w", row.SKU, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flushing csv: %w", err)
	}
	return buf.Bytes(), nil
}
