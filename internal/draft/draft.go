// Package draft owns the EncounterDraft lifecycle state machine and the
// review-queue ordering described in spec.md §4.E.
package draft

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/vetcore/vetcore/internal/storage"
	"github.com/vetcore/vetcore/internal/types"
)

// Manager owns draft creation, mutation, and review-queue ordering over a
// Store handle. It holds no state of its own beyond the store handle,
// matching the rest of the core's "non-owning handle" convention
// (spec.md §3).
type Manager struct {
	store storage.Store
}

// New builds a Manager over store.
func New(store storage.Store) *Manager {
	return &Manager{store: store}
}

// StartRecording creates a new draft in the Recording state for patientID.
func (m *Manager) StartRecording(ctx context.Context, patientID uuid.UUID, now time.Time) (*types.EncounterDraft, error) {
	d := types.NewDraft(patientID, now)
	if err := m.store.InsertDraft(ctx, d); err != nil {
		return nil, fmt.Errorf("starting recording for patient %s: %w", patientID, err)
	}
	return d, nil
}

// FinalizeTranscript attaches the finalized transcript and moves the draft
// to Transcribed.
func (m *Manager) FinalizeTranscript(ctx context.Context, draftID uuid.UUID, transcript string, now time.Time) (*types.EncounterDraft, error) {
	d, err := m.store.GetDraft(ctx, draftID)
	if err != nil {
		return nil, fmt.Errorf("finalizing transcript for draft %s: %w", draftID, err)
	}
	d.Transcript = transcript
	if err := d.Transition(types.DraftTranscribed, now); err != nil {
		return nil, err
	}
	if err := m.store.UpdateDraft(ctx, d); err != nil {
		return nil, fmt.Errorf("saving transcribed draft %s: %w", draftID, err)
	}
	return d, nil
}

// AttachResolvedItems records the resolver's output against the draft and
// moves it to PendingReview.
func (m *Manager) AttachResolvedItems(ctx context.Context, draftID uuid.UUID, items []types.ResolvedItem, now time.Time) (*types.EncounterDraft, error) {
	d, err := m.store.GetDraft(ctx, draftID)
	if err != nil {
		return nil, fmt.Errorf("attaching items to draft %s: %w", draftID, err)
	}
	d.Items = items
	if err := d.Transition(types.DraftPendingReview, now); err != nil {
		return nil, err
	}
	if err := m.store.UpdateDraft(ctx, d); err != nil {
		return nil, fmt.Errorf("saving draft %s with resolved items: %w", draftID, err)
	}
	return d, nil
}

// SetItemStatus updates the status of the item at index in draftID's item
// list, and advances the draft to Reviewed if every item has now cleared
// PendingReview.
func (m *Manager) SetItemStatus(ctx context.Context, draftID uuid.UUID, index int, status types.ResolutionStatus, now time.Time) (*types.EncounterDraft, error) {
	d, err := m.store.GetDraft(ctx, draftID)
	if err != nil {
		return nil, fmt.Errorf("reviewing draft %s: %w", draftID, err)
	}
	if index < 0 || index >= len(d.Items) {
		return nil, fmt.Errorf("reviewing draft %s: item index %d out of range", draftID, index)
	}
	d.Items[index].Status = status

	if d.AllReviewed() {
		if err := d.Transition(types.DraftReviewed, now); err != nil {
			return nil, err
		}
	} else {
		d.UpdatedAt = now
	}

	if err := m.store.UpdateDraft(ctx, d); err != nil {
		return nil, fmt.Errorf("saving reviewed draft %s: %w", draftID, err)
	}
	return d, nil
}

// MarkCommitted moves draftID to Committed, the final step of a successful
// Merkle commit (spec.md §4.E). Callers invoke this only after the Merkle
// log has durably appended the corresponding leaf.
func (m *Manager) MarkCommitted(ctx context.Context, draftID uuid.UUID, now time.Time) error {
	if err := m.store.MarkDraftCommitted(ctx, draftID, now); err != nil {
		return fmt.Errorf("committing draft %s: %w", draftID, err)
	}
	return nil
}

// ToReviewedEncounter snapshots a fully-reviewed draft into the immutable
// record the Merkle log commits. d must satisfy AllReviewed(); callers are
// expected to have transitioned it to Reviewed already.
func ToReviewedEncounter(d *types.EncounterDraft, patientServerID *string, reviewedBy string, reviewedAt time.Time, notes *string) (*types.ReviewedEncounter, error) {
	if !d.AllReviewed() {
		return nil, fmt.Errorf("draft %s: not all items reviewed", d.DraftID)
	}

	lineItems := make([]types.EncounterLineItem, 0, len(d.Items))
	for _, item := range d.Items {
		line, ok := lineItemFor(item)
		if !ok {
			continue // Rejected items do not become line items.
		}
		lineItems = append(lineItems, line)
	}

	return &types.ReviewedEncounter{
		DraftID:         d.DraftID,
		PatientID:       d.PatientID,
		PatientServerID: patientServerID,
		Transcript:      d.Transcript,
		LineItems:       lineItems,
		ReviewedBy:      reviewedBy,
		ReviewedAt:      reviewedAt,
		Notes:           notes,
	}, nil
}

func lineItemFor(item types.ResolvedItem) (types.EncounterLineItem, bool) {
	var method types.ResolutionMethod
	var sku, name string

	switch item.Status.Kind {
	case types.StatusApproved:
		if item.TopCandidate == nil {
			return types.EncounterLineItem{}, false
		}
		sku, name = item.TopCandidate.SKU, item.TopCandidate.Name
		confidence := item.TopCandidate.Confidence
		method = types.ResolutionMethod{Kind: types.MethodSystemApproved, Confidence: &confidence}
	case types.StatusAlternativeSelected:
		sku = item.Status.SKU
		name = nameForSKU(item, sku)
		var originalConfidence float64
		if item.TopCandidate != nil {
			originalConfidence = item.TopCandidate.Confidence
		}
		method = types.ResolutionMethod{Kind: types.MethodAlternativeSelected, OriginalConfidence: &originalConfidence}
	case types.StatusManualOverride:
		sku = item.Status.SKU
		name = nameForSKU(item, sku)
		method = types.ResolutionMethod{Kind: types.MethodManualOverride}
	default:
		return types.EncounterLineItem{}, false
	}

	var route *string
	if item.Mention.NormalizedRoute != "" {
		r := item.Mention.NormalizedRoute
		route = &r
	}
	var quantity float64
	var unit string
	if item.Mention.NormalizedDose != nil {
		quantity = *item.Mention.NormalizedDose
	}
	if item.Mention.NormalizedUnit != nil {
		unit = *item.Mention.NormalizedUnit
	}

	return types.EncounterLineItem{
		SKU:              sku,
		Name:             name,
		Quantity:         quantity,
		Unit:             unit,
		Route:            route,
		OriginalMention:  item.Mention.Original.RawText,
		ResolutionMethod: method,
	}, true
}

func nameForSKU(item types.ResolvedItem, sku string) string {
	if item.TopCandidate != nil && item.TopCandidate.SKU == sku {
		return item.TopCandidate.Name
	}
	for _, alt := range item.Alternatives {
		if alt.SKU == sku {
			return alt.Name
		}
	}
	return ""
}

// ListPendingReview returns drafts in PendingReview ordered by ascending
// lowest-item-confidence (drafts needing the most attention first), ties
// falling back to store-level order (spec.md §4.E).
func (m *Manager) ListPendingReview(ctx context.Context) ([]*types.EncounterDraft, error) {
	drafts, err := m.store.ListDraftsByStatus(ctx, types.DraftPendingReview)
	if err != nil {
		return nil, fmt.Errorf("listing pending-review drafts: %w", err)
	}
	sort.SliceStable(drafts, func(i, j int) bool {
		return drafts[i].LowestConfidence() < drafts[j].LowestConfidence()
	})
	return drafts, nil
}
