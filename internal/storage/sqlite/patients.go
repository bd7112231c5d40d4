package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/vetcore/vetcore/internal/storage"
	"github.com/vetcore/vetcore/internal/types"
)

// InsertPatient inserts p.
func (s *Store) InsertPatient(ctx context.Context, p *types.Patient) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("inserting patient: %w", err)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO patients (local_id, server_id, name, species, breed, weight_kg,
			date_of_birth, owner_name, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, p.LocalID.String(), p.ServerID, p.Name, p.Species, p.Breed, p.WeightKg,
		formatDateOfBirth(p.DateOfBirth), p.OwnerName, p.Notes,
		p.CreatedAt.Format(time.RFC3339Nano), p.UpdatedAt.Format(time.RFC3339Nano))
	return storage.WrapDBError("insert patient", err)
}

// UpdatePatient replaces p's mutable fields, touching updated_at.
func (s *Store) UpdatePatient(ctx context.Context, p *types.Patient) error {
	if err := p.Validate(); err != nil {
		return fmt.Errorf("updating patient: %w", err)
	}
	_, err := s.db.ExecContext(ctx, `
		UPDATE patients SET
			server_id = ?, name = ?, species = ?, breed = ?, weight_kg = ?,
			date_of_birth = ?, owner_name = ?, notes = ?, updated_at = ?
		WHERE local_id = ?
	`, p.ServerID, p.Name, p.Species, p.Breed, p.WeightKg,
		formatDateOfBirth(p.DateOfBirth), p.OwnerName, p.Notes,
		p.UpdatedAt.Format(time.RFC3339Nano), p.LocalID.String())
	return storage.WrapDBError("update patient", err)
}

// GetPatientByLocalID returns storage.ErrNotFound if id is unknown.
func (s *Store) GetPatientByLocalID(ctx context.Context, id uuid.UUID) (*types.Patient, error) {
	row := s.db.QueryRowContext(ctx, patientSelect+` WHERE local_id = ?`, id.String())
	p, err := scanPatient(row)
	if err != nil {
		return nil, storage.WrapDBError(fmt.Sprintf("get patient %s", id), err)
	}
	return p, nil
}

// GetPatientByServerID returns storage.ErrNotFound if serverID is unknown.
func (s *Store) GetPatientByServerID(ctx context.Context, serverID string) (*types.Patient, error) {
	row := s.db.QueryRowContext(ctx, patientSelect+` WHERE server_id = ?`, serverID)
	p, err := scanPatient(row)
	if err != nil {
		return nil, storage.WrapDBError(fmt.Sprintf("get patient by server id %s", serverID), err)
	}
	return p, nil
}

// SearchPatientsByNamePrefix returns up to limit patients whose name begins
// with prefix, case-insensitively.
func (s *Store) SearchPatientsByNamePrefix(ctx context.Context, prefix string, limit int) ([]*types.Patient, error) {
	rows, err := s.db.QueryContext(ctx, patientSelect+`
		WHERE name LIKE ? ESCAPE '\' ORDER BY name LIMIT ?
	`, likePrefix(prefix)+"%", limit)
	if err != nil {
		return nil, storage.WrapDBError("search patients by name prefix", err)
	}
	defer func() { _ = rows.Close() }()

	var out []*types.Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, storage.WrapDBError("scan patient row", err)
		}
		out = append(out, p)
	}
	return out, storage.WrapDBError("iterate patient rows", rows.Err())
}

// LinkPatientServerID sets server_id for id, enforcing the
// bind-once invariant at the type layer (types.Patient.LinkServerID);
// the store simply persists the already-validated value.
func (s *Store) LinkPatientServerID(ctx context.Context, id uuid.UUID, serverID string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE patients SET server_id = ? WHERE local_id = ?`, serverID, id.String())
	return storage.WrapDBError(fmt.Sprintf("link patient %s to server id", id), err)
}

const patientSelect = `
	SELECT local_id, server_id, name, species, breed, weight_kg,
	       date_of_birth, owner_name, notes, created_at, updated_at
	FROM patients
`

func scanPatient(row rowScanner) (*types.Patient, error) {
	var (
		localID, name, species                    string
		serverID, breed, dob, ownerName, notes     sql.NullString
		weightKg                                   sql.NullFloat64
		createdAt, updatedAt                       string
	)
	if err := row.Scan(&localID, &serverID, &name, &species, &breed, &weightKg,
		&dob, &ownerName, &notes, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	id, err := uuid.Parse(localID)
	if err != nil {
		return nil, fmt.Errorf("parsing patient local_id %q: %w", localID, err)
	}
	created, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing patient created_at %q: %w", createdAt, err)
	}
	updated, err := time.Parse(time.RFC3339Nano, updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing patient updated_at %q: %w", updatedAt, err)
	}

	p := &types.Patient{
		LocalID:   id,
		Name:      name,
		Species:   species,
		CreatedAt: created,
		UpdatedAt: updated,
	}
	if serverID.Valid {
		p.ServerID = &serverID.String
	}
	if breed.Valid {
		p.Breed = &breed.String
	}
	if weightKg.Valid {
		p.WeightKg = &weightKg.Float64
	}
	if ownerName.Valid {
		p.OwnerName = &ownerName.String
	}
	if notes.Valid {
		p.Notes = &notes.String
	}
	if dob.Valid {
		t, err := time.Parse(time.RFC3339, dob.String)
		if err != nil {
			return nil, fmt.Errorf("parsing patient date_of_birth %q: %w", dob.String, err)
		}
		p.DateOfBirth = &t
	}
	return p, nil
}

func formatDateOfBirth(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}

// likePrefix escapes LIKE metacharacters (%, _, \) in prefix so a literal
// prefix search behaves as one.
func likePrefix(prefix string) string {
	out := make([]byte, 0, len(prefix))
	for i := 0; i < len(prefix); i++ {
		c := prefix[i]
		if c == '%' || c == '_' || c == '\\' {
			out = append(out, '\\')
		}
		out = append(out, c)
	}
	return string(out)
}
