package export_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/vetcore/vetcore/internal/export"
	"github.com/vetcore/vetcore/internal/merkle"
	"github.com/vetcore/vetcore/internal/storage/sqlite"
	"github.com/vetcore/vetcore/internal/types"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.OpenInMemory()
	if err != nil {
		t.Fatalf("opening in-memory store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("closing store: %v", err)
		}
	})
	return store
}

func reviewedEncounter(sku string) *types.ReviewedEncounter {
	route := "PO"
	return &types.ReviewedEncounter{
		DraftID:    uuid.New(),
		PatientID:  uuid.New(),
		Transcript: "gave " + sku,
		LineItems: []types.EncounterLineItem{
			{SKU: sku, Name: "Drug " + sku, Quantity: 25, Unit: "mg", Route: &route},
		},
		ReviewedBy: "dr. vet",
		ReviewedAt: time.Now(),
	}
}

func TestBatchBillingFlattensLineItems(t *testing.T) {
	store := newTestStore(t)
	log := merkle.New(store)
	ctx := context.Background()
	now := time.Now()

	if _, _, err := log.Commit(ctx, reviewedEncounter("sku-a"), now); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if _, _, err := log.Commit(ctx, reviewedEncounter("sku-b"), now); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	batch := export.NewBatch(store, log)
	rows, err := batch.Billing(ctx, nil)
	if err != nil {
		t.Fatalf("Billing: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 billing rows, got %d", len(rows))
	}

	csvData, err := export.BillingCSV(rows)
	if err != nil {
		t.Fatalf("BillingCSV: %v", err)
	}
	if !strings.Contains(string(csvData), "sku-a") {
		t.Error("expected CSV output to contain sku-a")
	}

	jsonData, err := export.BillingJSON(rows)
	if err != nil {
		t.Fatalf("BillingJSON: %v", err)
	}
	var decoded []export.BillingRow
	if err := json.Unmarshal(jsonData, &decoded); err != nil {
		t.Fatalf("decoding billing JSON: %v", err)
	}
	if len(decoded) != 2 {
		t.Fatalf("expected 2 decoded rows, got %d", len(decoded))
	}
}

func TestBatchComplianceProofsVerify(t *testing.T) {
	store := newTestStore(t)
	log := merkle.New(store)
	ctx := context.Background()
	now := time.Now()

	for i := 0; i < 3; i++ {
		if _, _, err := log.Commit(ctx, reviewedEncounter(string(rune('a'+i))), now); err != nil {
			t.Fatalf("Commit %d: %v", i, err)
		}
	}

	batch := export.NewBatch(store, log)
	systemID := "clinic-pos-1"
	compliance, err := batch.Compliance(ctx, nil, now, &systemID)
	if err != nil {
		t.Fatalf("Compliance: %v", err)
	}
	if len(compliance.Records) != 3 {
		t.Fatalf("expected 3 compliance records, got %d", len(compliance.Records))
	}
	if failed := export.VerifyBatch(compliance); len(failed) != 0 {
		t.Errorf("expected all proofs to verify, failed: %v", failed)
	}

	data, err := export.ComplianceBatchJSON(compliance)
	if err != nil {
		t.Fatalf("ComplianceBatchJSON: %v", err)
	}
	if !strings.Contains(string(data), "clinic-pos-1") {
		t.Error("expected system id to appear in compliance batch JSON")
	}
}

func TestVerifyBatchCatchesTamperedRecord(t *testing.T) {
	store := newTestStore(t)
	log := merkle.New(store)
	ctx := context.Background()
	now := time.Now()

	if _, _, err := log.Commit(ctx, reviewedEncounter("sku-x"), now); err != nil {
		t.Fatalf("Commit: %v", err)
	}

	batch := export.NewBatch(store, log)
	compliance, err := batch.Compliance(ctx, nil, now, nil)
	if err != nil {
		t.Fatalf("Compliance: %v", err)
	}
	compliance.Records[0].Proof.RootHash = "tampered"

	failed := export.VerifyBatch(compliance)
	if len(failed) != 1 {
		t.Fatalf("expected exactly 1 failed proof, got %d", len(failed))
	}
}

func TestWriteFileAtomicallyWritesData(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "billing.csv")

	if err := export.WriteFile(path, []byte("draft_id,sku\n")); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading back written file: %v", err)
	}
	if string(data) != "draft_id,sku\n" {
		t.Errorf("expected written content to round-trip, got %q", string(data))
	}
}
