// Package vetcore provides the public entry point for embedding the
// veterinary drug resolution and audit core: opening a clinic's on-device
// store and wiring the normalizer, disambiguator, resolver, draft manager,
// Merkle log, sync manager, and export helpers together over it.
//
// Most callers only need Open and the Core it returns; the internal
// packages remain importable directly for anyone building a narrower tool
// against one layer (a search-only CLI, a standalone export job).
package vetcore

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vetcore/vetcore/internal/catalogwatch"
	"github.com/vetcore/vetcore/internal/configfile"
	"github.com/vetcore/vetcore/internal/disambiguator"
	"github.com/vetcore/vetcore/internal/draft"
	"github.com/vetcore/vetcore/internal/export"
	"github.com/vetcore/vetcore/internal/merkle"
	"github.com/vetcore/vetcore/internal/normalizer"
	"github.com/vetcore/vetcore/internal/resolver"
	"github.com/vetcore/vetcore/internal/storage"
	"github.com/vetcore/vetcore/internal/storage/sqlite"
	"github.com/vetcore/vetcore/internal/sync"
	"github.com/vetcore/vetcore/internal/types"
)

// Core types for working with catalog entries, patients, drafts, and
// encounters. Re-exported so a caller of this package never needs to
// import internal/types directly.
type (
	CatalogItem      = types.CatalogItem
	Patient          = types.Patient
	DrugMention      = types.DrugMention
	NormalizedMention = types.NormalizedMention
	ResolvedItem     = types.ResolvedItem
	ResolutionStatus = types.ResolutionStatus
	EncounterDraft   = types.EncounterDraft
	ReviewedEncounter = types.ReviewedEncounter
	InclusionProof   = types.InclusionProof
	MerkleRootState  = types.MerkleRootState
)

// Draft status constants.
const (
	DraftRecording     = types.DraftRecording
	DraftTranscribed   = types.DraftTranscribed
	DraftPendingReview = types.DraftPendingReview
	DraftReviewed      = types.DraftReviewed
	DraftCommitted     = types.DraftCommitted
)

// Resolution status constants.
const (
	StatusPendingReview      = types.StatusPendingReview
	StatusApproved           = types.StatusApproved
	StatusAlternativeSelected = types.StatusAlternativeSelected
	StatusManualOverride     = types.StatusManualOverride
	StatusRejected           = types.StatusRejected
)

// Store is the canonical storage interface a Core is built over.
type Store = storage.Store

// Core bundles every layer of the resolution/audit pipeline against a
// single opened Store.
type Core struct {
	Store         Store
	Normalizer    *normalizer.Normalizer
	Disambiguator *disambiguator.Disambiguator
	Resolver      *resolver.Resolver
	Drafts        *draft.Manager
	Merkle        *merkle.Log
	Sync          *sync.Manager
	Export        *export.Batch

	configDir string
}

// Options configures Open. A zero-value Options is a valid configuration:
// it opens (or creates) a database in dir using the built-in normalizer
// tables and no sync peer.
type Options struct {
	// ExtraAliases/ExtraUnits/ExtraRoutes extend the normalizer's default
	// tables, typically sourced from internal/config.Settings.
	ExtraAliases map[string]string
	ExtraUnits   map[string]normalizer.UnitConversion
	ExtraRoutes  map[string]string

	// Peer is the sync counterpart. A nil Peer means sync operations are
	// unavailable; Core.Sync is still built so HasUnsyncedChanges and the
	// export-side methods keep working for a clinic that never syncs.
	Peer sync.Peer
}

// Open opens (or creates) the database in dir, ensures its metadata.json
// sidecar exists, runs migrations, and returns a fully wired Core.
func Open(dir string, opts Options) (*Core, error) {
	cfg, err := configfile.LoadOrCreate(dir)
	if err != nil {
		return nil, fmt.Errorf("loading device metadata: %w", err)
	}

	store, err := sqlite.Open(cfg.DatabasePath(dir))
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	return newCore(dir, store, opts), nil
}

// OpenInMemory builds a Core over a private in-process database, used by
// tests and short-lived tooling that doesn't need metadata.json bookkeeping.
func OpenInMemory(opts Options) (*Core, error) {
	store, err := sqlite.OpenInMemory()
	if err != nil {
		return nil, fmt.Errorf("opening in-memory database: %w", err)
	}
	return newCore("", store, opts), nil
}

func newCore(dir string, store Store, opts Options) *Core {
	norm := normalizer.New(opts.ExtraAliases, opts.ExtraUnits, opts.ExtraRoutes)
	disambig := disambiguator.New(store)
	res := resolver.New(norm, disambig)
	drafts := draft.New(store)
	log := merkle.New(store)

	// Built unconditionally: a nil Peer only disables the peer-exchange
	// methods (RequestSync/SendPayload/FetchCatalogDelta's caller,
	// PullCatalog), not ApplyCatalogDelta or HasUnsyncedChanges, which
	// catalogwatch and the export/billing paths need regardless of whether
	// this clinic ever talks to a sync peer.
	syncMgr := sync.New(store, opts.Peer)

	return &Core{
		Store:         store,
		Normalizer:    norm,
		Disambiguator: disambig,
		Resolver:      res,
		Drafts:        drafts,
		Merkle:        log,
		Sync:          syncMgr,
		Export:        export.NewBatch(store, log),
		configDir:     dir,
	}
}

// Close releases the underlying store.
func (c *Core) Close() error {
	return c.Store.Close()
}

// WatchCatalog watches dir for dropped catalog-delta files and applies them
// through Core.Sync, blocking until ctx is canceled. A nil logger falls
// back to slog's default. This is the supplemented folder-drop update
// channel alongside peer-based sync (SPEC_FULL.md §C.4).
func (c *Core) WatchCatalog(ctx context.Context, dir string, logger *slog.Logger) error {
	w := catalogwatch.New(dir, c.Sync, logger)
	return w.Run(ctx)
}
