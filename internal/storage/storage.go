// Package storage defines the canonical store's abstract contract (§4.A):
// a transactional, durable mapping for catalog items, patients, drafts,
// Merkle nodes, and sync state, plus a full-text index over the catalog.
//
// Every other component (normalizer excluded — it is stateless) holds only
// a non-owning Store handle; the store exclusively owns all persisted rows.
package storage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/vetcore/vetcore/internal/types"
)

// CatalogSearchResult is one ranked hit from a full-text catalog query.
type CatalogSearchResult struct {
	Item types.CatalogItem
	Rank float64
}

// Store is the full canonical-store contract consumed by the rest of the
// core. A single implementation (sqlite) backs it; see internal/storage/sqlite.
type Store interface {
	// Catalog
	UpsertCatalogItem(ctx context.Context, item *types.CatalogItem) error
	GetCatalogItemBySKU(ctx context.Context, sku string) (*types.CatalogItem, error)
	SearchCatalog(ctx context.Context, query string, activeOnly bool, limit int) ([]CatalogSearchResult, error)
	ListCatalog(ctx context.Context, activeOnly bool) ([]*types.CatalogItem, error)
	DeactivateCatalogItem(ctx context.Context, sku string) error

	// Patients
	InsertPatient(ctx context.Context, p *types.Patient) error
	UpdatePatient(ctx context.Context, p *types.Patient) error
	GetPatientByLocalID(ctx context.Context, id uuid.UUID) (*types.Patient, error)
	GetPatientByServerID(ctx context.Context, serverID string) (*types.Patient, error)
	SearchPatientsByNamePrefix(ctx context.Context, prefix string, limit int) ([]*types.Patient, error)
	LinkPatientServerID(ctx context.Context, id uuid.UUID, serverID string) error

	// Drafts
	InsertDraft(ctx context.Context, d *types.EncounterDraft) error
	UpdateDraft(ctx context.Context, d *types.EncounterDraft) error
	GetDraft(ctx context.Context, id uuid.UUID) (*types.EncounterDraft, error)
	ListDraftsByStatus(ctx context.Context, status types.DraftStatus) ([]*types.EncounterDraft, error)
	ListDraftsForPatient(ctx context.Context, patientID uuid.UUID) ([]*types.EncounterDraft, error)
	MarkDraftCommitted(ctx context.Context, id uuid.UUID, now time.Time) error
	DeleteDraft(ctx context.Context, id uuid.UUID) error

	// Merkle log
	InsertLeaf(ctx context.Context, node *types.MerkleNode) error
	InsertInternal(ctx context.Context, node *types.MerkleNode) error
	GetNodeByHash(ctx context.Context, hash string) (*types.MerkleNode, error)
	NodeExists(ctx context.Context, hash string) (bool, error)
	ListLeafHashes(ctx context.Context) ([]string, error)
	ListNodesSince(ctx context.Context, since time.Time) ([]*types.MerkleNode, error)
	ListNodesByHashes(ctx context.Context, hashes []string) ([]*types.MerkleNode, error)
	ReadRoot(ctx context.Context) (*types.MerkleRootState, error)
	UpdateRoot(ctx context.Context, root *types.MerkleRootState) error

	// Sync state
	GetSyncState(ctx context.Context, key types.SyncStateKey) (string, bool, error)
	SetSyncState(ctx context.Context, key types.SyncStateKey, value string) error

	// Lifecycle
	Close() error
}
