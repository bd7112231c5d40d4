package sync

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/vetcore/vetcore/internal/storage"
	"github.com/vetcore/vetcore/internal/types"
)

var tracer = otel.Tracer("github.com/vetcore/vetcore/internal/sync")

// errNoPeer is returned by the peer-exchange methods when the Manager was
// built with a nil Peer. Callers with no peer still use ApplyCatalogDelta
// and HasUnsyncedChanges directly.
var errNoPeer = fmt.Errorf("sync: no peer configured")

// Peer is the round-trip boundary to a Practice Information Management
// System. Authentication and transport are out of scope (spec.md §1); an
// implementation wraps whatever client carries the bytes.
type Peer interface {
	RequestSync(ctx context.Context, req SyncRequest) (SyncResponse, error)
	SendPayload(ctx context.Context, payload SyncPayload) (SyncAck, error)
	FetchCatalogDelta(ctx context.Context, sinceUnix int64) (CatalogDelta, error)
}

// Manager drives the one-way sync protocol over a Store handle and a Peer.
type Manager struct {
	store   storage.Store
	peer    Peer
	backoff func() backoff.BackOff
}

// New builds a Manager over store and peer, using a bounded exponential
// backoff for each peer round-trip.
func New(store storage.Store, peer Peer) *Manager {
	return &Manager{
		store: store,
		peer:  peer,
		backoff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.MaxElapsedTime = 30 * time.Second
			return b
		},
	}
}

// HasPeer reports whether this Manager was built with a live Peer. Callers
// that only need ApplyCatalogDelta or HasUnsyncedChanges can ignore this;
// the peer-exchange methods (RunSync, PullCatalog) fail if called without one.
func (m *Manager) HasPeer() bool {
	return m.peer != nil
}

// HasUnsyncedChanges reports whether the current root exists and differs
// from the last-synced root (spec.md §4.G).
func (m *Manager) HasUnsyncedChanges(ctx context.Context) (bool, error) {
	root, err := m.store.ReadRoot(ctx)
	if err != nil {
		return false, fmt.Errorf("reading root: %w", err)
	}
	if root.RootHash == nil {
		return false, nil
	}
	lastSynced, ok, err := m.store.GetSyncState(ctx, types.SyncKeyLastSyncedRoot)
	if err != nil {
		return false, fmt.Errorf("reading last synced root: %w", err)
	}
	if !ok {
		return true, nil
	}
	return lastSynced != *root.RootHash, nil
}

// PrepareRequest builds the SyncRequest for the current tree, or nil if the
// local root is empty (no request is produced, per spec.md §4.G step 1).
func (m *Manager) PrepareRequest(ctx context.Context) (*SyncRequest, error) {
	root, err := m.store.ReadRoot(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading root: %w", err)
	}
	if root.RootHash == nil {
		return nil, nil
	}
	return &SyncRequest{
		RootHash:   *root.RootHash,
		TreeHeight: root.TreeHeight,
		LeafCount:  root.LeafCount,
	}, nil
}

// BuildPayload materializes the nodes the peer asked for by hash, together
// with the expected resulting root (spec.md §4.G step 2).
func (m *Manager) BuildPayload(ctx context.Context, missingHashes []string) (SyncPayload, error) {
	nodes, err := m.store.ListNodesByHashes(ctx, missingHashes)
	if err != nil {
		return SyncPayload{}, fmt.Errorf("materializing %d nodes: %w", len(missingHashes), err)
	}
	root, err := m.store.ReadRoot(ctx)
	if err != nil {
		return SyncPayload{}, fmt.Errorf("reading root for payload: %w", err)
	}
	expected := ""
	if root.RootHash != nil {
		expected = *root.RootHash
	}

	out := make([]types.MerkleNode, len(nodes))
	for i, n := range nodes {
		out[i] = *n
	}
	return SyncPayload{Nodes: out, ExpectedRoot: expected}, nil
}

// HandleAck records the peer's acknowledged root and advances
// encounters_last_sync, per spec.md §4.G step 3. A failed ack leaves state
// untouched: the next HasUnsyncedChanges call still reports true.
func (m *Manager) HandleAck(ctx context.Context, ack SyncAck, now time.Time) error {
	if !ack.Success {
		return nil
	}
	if err := m.store.SetSyncState(ctx, types.SyncKeyLastSyncedRoot, ack.NewRoot); err != nil {
		return fmt.Errorf("recording last synced root: %w", err)
	}
	if err := m.store.SetSyncState(ctx, types.SyncKeyEncountersLastSync, strconv.FormatInt(now.Unix(), 10)); err != nil {
		return fmt.Errorf("recording encounters_last_sync: %w", err)
	}
	return nil
}

// RunSync drives one full request/response/ack round-trip against the
// peer, wrapping each network call in bounded retry/backoff. It is a no-op
// returning (false, nil) when there is nothing to sync.
func (m *Manager) RunSync(ctx context.Context, now time.Time) (bool, error) {
	if m.peer == nil {
		return false, errNoPeer
	}
	ctx, span := tracer.Start(ctx, "sync.RunSync")
	defer span.End()

	req, err := m.PrepareRequest(ctx)
	if err != nil {
		span.RecordError(err)
		return false, err
	}
	if req == nil {
		return false, nil
	}
	span.SetAttributes(
		attribute.String("sync.root_hash", req.RootHash),
		attribute.Int64("sync.leaf_count", int64(req.LeafCount)),
	)

	var resp SyncResponse
	err = backoff.Retry(func() error {
		var opErr error
		resp, opErr = m.peer.RequestSync(ctx, *req)
		return opErr
	}, backoff.WithContext(m.backoff(), ctx))
	if err != nil {
		return false, fmt.Errorf("requesting sync: %w", err)
	}

	payload, err := m.BuildPayload(ctx, resp.MissingHashes)
	if err != nil {
		return false, err
	}

	var ack SyncAck
	err = backoff.Retry(func() error {
		var opErr error
		ack, opErr = m.peer.SendPayload(ctx, payload)
		return opErr
	}, backoff.WithContext(m.backoff(), ctx))
	if err != nil {
		return false, fmt.Errorf("sending payload: %w", err)
	}

	if err := m.HandleAck(ctx, ack, now); err != nil {
		return false, err
	}
	return ack.Success, nil
}

// ApplyCatalogDelta upserts each changed item (preserving any
// locally-authored dose range), deactivates the listed SKUs, and advances
// catalog_last_sync (spec.md §4.G).
func (m *Manager) ApplyCatalogDelta(ctx context.Context, delta CatalogDelta) error {
	for i := range delta.Items {
		item := delta.Items[i]
		existing, err := m.store.GetCatalogItemBySKU(ctx, item.SKU)
		if err == nil && existing.DoseRange != nil {
			item.DoseRange = existing.DoseRange
		} else if err != nil && !storage.IsNotFound(err) {
			return fmt.Errorf("looking up existing catalog item %s: %w", item.SKU, err)
		}
		if err := m.store.UpsertCatalogItem(ctx, &item); err != nil {
			return fmt.Errorf("upserting catalog item %s: %w", item.SKU, err)
		}
	}
	for _, sku := range delta.DeactivatedSKUs {
		if err := m.store.DeactivateCatalogItem(ctx, sku); err != nil {
			return fmt.Errorf("deactivating catalog item %s: %w", sku, err)
		}
	}
	if err := m.store.SetSyncState(ctx, types.SyncKeyCatalogLastSync, strconv.FormatInt(delta.Timestamp, 10)); err != nil {
		return fmt.Errorf("recording catalog_last_sync: %w", err)
	}
	return nil
}

// PullCatalog fetches and applies the peer's catalog delta since the
// locally recorded catalog_last_sync timestamp.
func (m *Manager) PullCatalog(ctx context.Context) error {
	if m.peer == nil {
		return errNoPeer
	}
	sinceStr, ok, err := m.store.GetSyncState(ctx, types.SyncKeyCatalogLastSync)
	if err != nil {
		return fmt.Errorf("reading catalog_last_sync: %w", err)
	}
	var since int64
	if ok {
		since, err = strconv.ParseInt(sinceStr, 10, 64)
		if err != nil {
			return fmt.Errorf("parsing catalog_last_sync %q: %w", sinceStr, err)
		}
	}

	var delta CatalogDelta
	err = backoff.Retry(func() error {
		var opErr error
		delta, opErr = m.peer.FetchCatalogDelta(ctx, since)
		return opErr
	}, backoff.WithContext(m.backoff(), ctx))
	if err != nil {
		return fmt.Errorf("fetching catalog delta: %w", err)
	}

	return m.ApplyCatalogDelta(ctx, delta)
}
