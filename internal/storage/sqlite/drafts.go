package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vetcore/vetcore/internal/storage"
	"github.com/vetcore/vetcore/internal/types"
)

// InsertDraft inserts d.
func (s *Store) InsertDraft(ctx context.Context, d *types.EncounterDraft) error {
	items, err := json.Marshal(d.Items)
	if err != nil {
		return fmt.Errorf("marshaling draft %s items: %w", d.DraftID, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO drafts (draft_id, patient_id, transcript, items, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, d.DraftID.String(), d.PatientID.String(), d.Transcript, string(items), string(d.Status),
		d.CreatedAt.Format(time.RFC3339Nano), d.UpdatedAt.Format(time.RFC3339Nano))
	return storage.WrapDBError("insert draft", err)
}

// UpdateDraft replaces d's mutable fields.
func (s *Store) UpdateDraft(ctx context.Context, d *types.EncounterDraft) error {
	items, err := json.Marshal(d.Items)
	if err != nil {
		return fmt.Errorf("marshaling draft %s items: %w", d.DraftID, err)
	}
	_, err = s.db.ExecContext(ctx, `
		UPDATE drafts SET transcript = ?, items = ?, status = ?, updated_at = ?
		WHERE draft_id = ?
	`, d.Transcript, string(items), string(d.Status), d.UpdatedAt.Format(time.RFC3339Nano), d.DraftID.String())
	return storage.WrapDBError("update draft", err)
}

// GetDraft returns storage.ErrNotFound if id is unknown.
func (s *Store) GetDraft(ctx context.Context, id uuid.UUID) (*types.EncounterDraft, error) {
	row := s.db.QueryRowContext(ctx, draftSelect+` WHERE draft_id = ?`, id.String())
	d, err := scanDraft(row)
	if err != nil {
		return nil, storage.WrapDBError(fmt.Sprintf("get draft %s", id), err)
	}
	return d, nil
}

// ListDraftsByStatus returns every draft with the given status, in
// store-level (creation) order; callers needing confidence-based ordering
// (internal/draft's review queue) sort the result themselves.
func (s *Store) ListDraftsByStatus(ctx context.Context, status types.DraftStatus) ([]*types.EncounterDraft, error) {
	rows, err := s.db.QueryContext(ctx, draftSelect+` WHERE status = ? ORDER BY created_at`, string(status))
	if err != nil {
		return nil, storage.WrapDBError("list drafts by status", err)
	}
	defer func() { _ = rows.Close() }()
	return scanDrafts(rows)
}

// ListDraftsForPatient returns every draft for patientID, in creation order.
func (s *Store) ListDraftsForPatient(ctx context.Context, patientID uuid.UUID) ([]*types.EncounterDraft, error) {
	rows, err := s.db.QueryContext(ctx, draftSelect+` WHERE patient_id = ? ORDER BY created_at`, patientID.String())
	if err != nil {
		return nil, storage.WrapDBError("list drafts for patient", err)
	}
	defer func() { _ = rows.Close() }()
	return scanDrafts(rows)
}

// MarkDraftCommitted transitions id to Committed, the final step of a
// successful Merkle commit (spec.md §4.E).
func (s *Store) MarkDraftCommitted(ctx context.Context, id uuid.UUID, now time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE drafts SET status = ?, updated_at = ? WHERE draft_id = ?
	`, string(types.DraftCommitted), now.Format(time.RFC3339Nano), id.String())
	return storage.WrapDBError(fmt.Sprintf("mark draft %s committed", id), err)
}

// DeleteDraft removes a draft outright (only meaningful pre-commit; a
// committed draft is never deleted since it underlies a Merkle leaf).
func (s *Store) DeleteDraft(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM drafts WHERE draft_id = ?`, id.String())
	return storage.WrapDBError(fmt.Sprintf("delete draft %s", id), err)
}

const draftSelect = `
	SELECT draft_id, patient_id, transcript, items, status, created_at, updated_at
	FROM drafts
`

func scanDrafts(rows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}) ([]*types.EncounterDraft, error) {
	var out []*types.EncounterDraft
	for rows.Next() {
		d, err := scanDraft(rows)
		if err != nil {
			return nil, storage.WrapDBError("scan draft row", err)
		}
		out = append(out, d)
	}
	return out, storage.WrapDBError("iterate draft rows", rows.Err())
}

func scanDraft(row rowScanner) (*types.EncounterDraft, error) {
	var (
		draftID, patientID, transcript, itemsJSON, status string
		createdAt, updatedAt                               string
	)
	if err := row.Scan(&draftID, &patientID, &transcript, &itemsJSON, &status, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	did, err := uuid.Parse(draftID)
	if err != nil {
		return nil, fmt.Errorf("parsing draft_id %q: %w", draftID, err)
	}
	pid, err := uuid.Parse(patientID)
	if err != nil {
		return nil, fmt.Errorf("parsing draft patient_id %q: %w", patientID, err)
	}
	var items []types.ResolvedItem
	if err := json.Unmarshal([]byte(itemsJSON), &items); err != nil {
		return nil, fmt.Errorf("decoding draft %s items: %w", draftID, err)
	}
	created, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing draft created_at %q: %w", createdAt, err)
	}
	updated, err := time.Parse(time.RFC3339Nano, updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing draft updated_at %q: %w", updatedAt, err)
	}

	return &types.EncounterDraft{
		DraftID:    did,
		PatientID:  pid,
		Transcript: transcript,
		Items:      items,
		Status:     types.DraftStatus(status),
		CreatedAt:  created,
		UpdatedAt:  updated,
	}, nil
}
