package types

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DraftStatus is the draft lifecycle state, per spec.md §4.E. Transitions
// are monotonic: Recording -> Transcribed -> PendingReview -> Reviewed ->
// Committed.
type DraftStatus string

const (
	DraftRecording     DraftStatus = "recording"
	DraftTranscribed   DraftStatus = "transcribed"
	DraftPendingReview DraftStatus = "pending_review"
	DraftReviewed      DraftStatus = "reviewed"
	DraftCommitted     DraftStatus = "committed"
)

// draftOrder gives each status its position in the monotonic sequence, used
// to reject backward transitions.
var draftOrder = map[DraftStatus]int{
	DraftRecording:     0,
	DraftTranscribed:   1,
	DraftPendingReview: 2,
	DraftReviewed:      3,
	DraftCommitted:     4,
}

// CanTransition reports whether moving from s to next is a forward (or
// no-op) move in the draft lifecycle.
func (s DraftStatus) CanTransition(next DraftStatus) bool {
	return draftOrder[next] >= draftOrder[s]
}

// EncounterDraft is the mutable, pre-commit record of a clinical encounter.
type EncounterDraft struct {
	DraftID     uuid.UUID      `json:"draft_id"`
	PatientID   uuid.UUID      `json:"patient_id"`
	Transcript  string         `json:"transcript"`
	Items       []ResolvedItem `json:"items"`
	Status      DraftStatus    `json:"status"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// NewDraft creates a draft in the initial Recording state.
func NewDraft(patientID uuid.UUID, now time.Time) *EncounterDraft {
	return &EncounterDraft{
		DraftID:   uuid.New(),
		PatientID: patientID,
		Status:    DraftRecording,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// AllReviewed reports whether every item has moved off PendingReview, the
// precondition for the Reviewed transition (spec.md §4.E).
func (d *EncounterDraft) AllReviewed() bool {
	for _, item := range d.Items {
		if item.Status.IsPending() {
			return false
		}
	}
	return true
}

// LowestConfidence returns the lowest top-candidate confidence among items
// still pending review, or 1.0 if none are pending (spec.md §4.E review
// queue ordering: "drafts with no pending items take a sort key of 1.0").
func (d *EncounterDraft) LowestConfidence() float64 {
	lowest := 1.0
	found := false
	for _, item := range d.Items {
		if !item.Status.IsPending() {
			continue
		}
		found = true
		conf := 0.0
		if item.TopCandidate != nil {
			conf = item.TopCandidate.Confidence
		}
		if conf < lowest {
			lowest = conf
		}
	}
	if !found {
		return 1.0
	}
	return lowest
}

// Transition moves the draft to next, rejecting backward transitions and
// any mutation once Committed (spec.md §3 invariant).
func (d *EncounterDraft) Transition(next DraftStatus, now time.Time) error {
	if d.Status == DraftCommitted {
		return fmt.Errorf("draft %s: already committed, immutable", d.DraftID)
	}
	if !d.Status.CanTransition(next) {
		return fmt.Errorf("draft %s: cannot move from %s to %s", d.DraftID, d.Status, next)
	}
	d.Status = next
	d.UpdatedAt = now
	return nil
}

// ResolutionMethodKind enumerates how a line item's sku was decided.
type ResolutionMethodKind string

const (
	MethodSystemApproved      ResolutionMethodKind = "system_approved"
	MethodAlternativeSelected ResolutionMethodKind = "alternative_selected"
	MethodManualOverride      ResolutionMethodKind = "manual_override"
	MethodManualEntry         ResolutionMethodKind = "manual_entry"
)

// ResolutionMethod is a tagged variant recording how an EncounterLineItem's
// sku was chosen, carrying a confidence payload only for the variants that
// have one (spec.md §3).
type ResolutionMethod struct {
	Kind               ResolutionMethodKind `json:"kind"`
	Confidence         *float64             `json:"confidence,omitempty"`
	OriginalConfidence *float64             `json:"original_confidence,omitempty"`
}

// EncounterLineItem is one resolved drug entry within a ReviewedEncounter.
type EncounterLineItem struct {
	SKU              string           `json:"sku"`
	Name             string           `json:"name"`
	Quantity         float64          `json:"quantity"`
	Unit             string           `json:"unit"`
	Route            *string          `json:"route,omitempty"`
	OriginalMention  string           `json:"original_mention"`
	ResolutionMethod ResolutionMethod `json:"resolution_method"`
}

// ReviewedEncounter is the immutable snapshot produced from a fully
// reviewed draft; it is what the Merkle log hashes and commits.
//
// All timestamps here are supplied by the caller (draft manager); the
// Merkle log never mints its own (spec.md §4.F).
type ReviewedEncounter struct {
	DraftID          uuid.UUID           `json:"draft_id"`
	PatientID        uuid.UUID           `json:"patient_id"`
	PatientServerID  *string             `json:"patient_server_id,omitempty"`
	Transcript       string              `json:"transcript"`
	LineItems        []EncounterLineItem `json:"line_items"`
	ReviewedBy       string              `json:"reviewed_by"`
	ReviewedAt       time.Time           `json:"reviewed_at"`
	Notes            *string             `json:"notes,omitempty"`
}
