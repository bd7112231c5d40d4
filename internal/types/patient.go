package types

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Patient is a clinic patient record. LocalID is generated on-device and
// never changes; ServerID is bound once by the sync peer and is immutable
// thereafter (spec.md §3).
type Patient struct {
	LocalID     uuid.UUID  `json:"local_id"`
	ServerID    *string    `json:"server_id,omitempty"`
	Name        string     `json:"name"`
	Species     string     `json:"species"`
	Breed       *string    `json:"breed,omitempty"`
	WeightKg    *float64   `json:"weight_kg,omitempty"`
	DateOfBirth *time.Time `json:"date_of_birth,omitempty"`
	OwnerName   *string    `json:"owner_name,omitempty"`
	Notes       *string    `json:"notes,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// Validate enforces the minimal required fields for a Patient record.
func (p Patient) Validate() error {
	if p.LocalID == uuid.Nil {
		return fmt.Errorf("patient: local_id is required")
	}
	if p.Name == "" {
		return fmt.Errorf("patient: name is required")
	}
	return nil
}

// NewPatient builds a Patient with a freshly generated LocalID and
// CreatedAt/UpdatedAt stamped at now.
func NewPatient(name, species string, now time.Time) *Patient {
	return &Patient{
		LocalID:   uuid.New(),
		Name:      name,
		Species:   species,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// LinkServerID binds the immutable server identifier. It is an error to
// call this more than once with a different value (spec.md §3 invariant:
// "server_id, once set, is immutable").
func (p *Patient) LinkServerID(serverID string) error {
	if p.ServerID != nil && *p.ServerID != serverID {
		return fmt.Errorf("patient %s: server_id already bound to %q, cannot rebind to %q", p.LocalID, *p.ServerID, serverID)
	}
	p.ServerID = &serverID
	return nil
}
