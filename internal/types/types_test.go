package types_test

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/vetcore/vetcore/internal/types"
)

func TestDoseRangeValidateRejectsInvertedBounds(t *testing.T) {
	r := types.DoseRange{MinPerKg: 5, MaxPerKg: 2, Unit: "mg"}
	if err := r.Validate(); err == nil {
		t.Fatal("expected an error when min_per_kg exceeds max_per_kg")
	}
}

func TestDoseRangeValidateAcceptsEqualBounds(t *testing.T) {
	r := types.DoseRange{MinPerKg: 2, MaxPerKg: 2, Unit: "mg"}
	if err := r.Validate(); err != nil {
		t.Errorf("expected equal min/max to be valid, got %v", err)
	}
}

func TestCatalogItemValidateRequiresSKUAndName(t *testing.T) {
	tests := []struct {
		name string
		item types.CatalogItem
		ok   bool
	}{
		{"missing sku", types.CatalogItem{Name: "Drug"}, false},
		{"missing name", types.CatalogItem{SKU: "sku-1"}, false},
		{"valid", types.CatalogItem{SKU: "sku-1", Name: "Drug"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.item.Validate()
			if tt.ok && err != nil {
				t.Errorf("expected valid, got %v", err)
			}
			if !tt.ok && err == nil {
				t.Error("expected an error, got nil")
			}
		})
	}
}

func TestPatientValidateRequiresLocalIDAndName(t *testing.T) {
	if err := (types.Patient{}).Validate(); err == nil {
		t.Error("expected an error for a zero-value patient")
	}
	valid := types.Patient{LocalID: uuid.New(), Name: "Fido"}
	if err := valid.Validate(); err != nil {
		t.Errorf("expected valid patient, got %v", err)
	}
}

func TestDraftStatusCanTransitionIsMonotonic(t *testing.T) {
	if !types.DraftRecording.CanTransition(types.DraftTranscribed) {
		t.Error("expected forward transition to be allowed")
	}
	if types.DraftTranscribed.CanTransition(types.DraftRecording) {
		t.Error("expected backward transition to be rejected")
	}
	if !types.DraftPendingReview.CanTransition(types.DraftPendingReview) {
		t.Error("expected a no-op transition to be allowed")
	}
}

func TestEncounterDraftTransitionRejectsMutationAfterCommitted(t *testing.T) {
	d := types.NewDraft(uuid.New(), time.Now())
	d.Status = types.DraftCommitted
	if err := d.Transition(types.DraftReviewed, time.Now()); err == nil {
		t.Fatal("expected an error transitioning a committed draft")
	}
}

func TestEncounterDraftLowestConfidenceIgnoresNonPendingItems(t *testing.T) {
	d := &types.EncounterDraft{
		Items: []types.ResolvedItem{
			{Status: types.Approved(), TopCandidate: &types.ScoredCandidate{Confidence: 0.1}},
			{Status: types.PendingReview(), TopCandidate: &types.ScoredCandidate{Confidence: 0.7}},
		},
	}
	if got := d.LowestConfidence(); got != 0.7 {
		t.Errorf("expected lowest confidence among pending items only (0.7), got %v", got)
	}
}

func TestEncounterDraftLowestConfidenceDefaultsToOneWhenNonePending(t *testing.T) {
	d := &types.EncounterDraft{
		Items: []types.ResolvedItem{{Status: types.Approved()}},
	}
	if got := d.LowestConfidence(); got != 1.0 {
		t.Errorf("expected 1.0 when no items are pending, got %v", got)
	}
}

func TestEncounterDraftAllReviewed(t *testing.T) {
	d := &types.EncounterDraft{
		Items: []types.ResolvedItem{{Status: types.PendingReview()}},
	}
	if d.AllReviewed() {
		t.Error("expected AllReviewed to be false while an item is pending")
	}
	d.Items[0].Status = types.Rejected()
	if !d.AllReviewed() {
		t.Error("expected AllReviewed to be true once the item clears pending")
	}
}
