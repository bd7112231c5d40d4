package sync_test

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/vetcore/vetcore/internal/storage/sqlite"
	"github.com/vetcore/vetcore/internal/sync"
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

type fakePeer struct {
	missingHashes []string
	ack           sync.SyncAck
	requestErr    error
	delta         sync.CatalogDelta
	deltaErr      error
	lastRequest   sync.SyncRequest
	lastPayload   sync.SyncPayload
}

func (f *fakePeer) RequestSync(ctx context.Context, req sync.SyncRequest) (sync.SyncResponse, error) {
	f.lastRequest = req
	if f.requestErr != nil {
		return sync.SyncResponse{}, f.requestErr
	}
	return sync.SyncResponse{MissingHashes: f.missingHashes}, nil
}

func (f *fakePeer) SendPayload(ctx context.Context, payload sync.SyncPayload) (sync.SyncAck, error) {
	f.lastPayload = payload
	return f.ack, nil
}

func (f *fakePeer) FetchCatalogDelta(ctx context.Context, sinceUnix int64) (sync.CatalogDelta, error) {
	return f.delta, f.deltaErr
}

func TestHasUnsyncedChangesFalseWhenRootEmpty(t *testing.T) {
	store := newTestStore(t)
	m := sync.New(store, &fakePeer{})

	unsynced, err := m.HasUnsyncedChanges(context.Background())
	if err != nil {
		t.Fatalf("HasUnsyncedChanges: %v", err)
	}
	if unsynced {
		t.Error("expected no unsynced changes on an empty tree")
	}
}

func TestRunSyncNoopWhenNothingToSync(t *testing.T) {
	store := newTestStore(t)
	peer := &fakePeer{}
	m := sync.New(store, peer)

	synced, err := m.RunSync(context.Background(), time.Now())
	if err != nil {
		t.Fatalf("RunSync: %v", err)
	}
	if synced {
		t.Error("expected RunSync to report false with nothing to sync")
	}
}

func TestHandleAckFailureLeavesStateUntouched(t *testing.T) {
	store := newTestStore(t)
	m := sync.New(store, &fakePeer{})
	ctx := context.Background()

	if err := m.HandleAck(ctx, sync.SyncAck{Success: false, NewRoot: "deadbeef"}, time.Now()); err != nil {
		t.Fatalf("HandleAck: %v", err)
	}
	_, ok, err := store.GetSyncState(ctx, types.SyncKeyLastSyncedRoot)
	if err != nil {
		t.Fatalf("GetSyncState: %v", err)
	}
	if ok {
		t.Error("expected a failed ack to leave last_synced_root unset")
	}
}

func TestHandleAckSuccessRecordsRootAndTimestamp(t *testing.T) {
	store := newTestStore(t)
	m := sync.New(store, &fakePeer{})
	ctx := context.Background()
	now := time.Now()

	if err := m.HandleAck(ctx, sync.SyncAck{Success: true, NewRoot: "abc123"}, now); err != nil {
		t.Fatalf("HandleAck: %v", err)
	}
	root, ok, err := store.GetSyncState(ctx, types.SyncKeyLastSyncedRoot)
	if err != nil {
		t.Fatalf("GetSyncState: %v", err)
	}
	if !ok || root != "abc123" {
		t.Errorf("expected last_synced_root to be recorded as abc123, got %q (ok=%v)", root, ok)
	}
	ts, ok, err := store.GetSyncState(ctx, types.SyncKeyEncountersLastSync)
	if err != nil {
		t.Fatalf("GetSyncState: %v", err)
	}
	if want := strconv.FormatInt(now.Unix(), 10); !ok || ts != want {
		t.Errorf("expected encounters_last_sync to be recorded as %s, got %q (ok=%v)", want, ts, ok)
	}
}

func TestApplyCatalogDeltaPreservesLocalDoseRange(t *testing.T) {
	store := newTestStore(t)
	m := sync.New(store, &fakePeer{})
	ctx := context.Background()

	localRange := &types.DoseRange{MinPerKg: 1, MaxPerKg: 2, Unit: "mg"}
	if err := store.UpsertCatalogItem(ctx, &types.CatalogItem{SKU: "sku-1", Name: "Drug", Active: true, DoseRange: localRange}); err != nil {
		t.Fatalf("seeding catalog item: %v", err)
	}

	delta := sync.CatalogDelta{
		Items: []types.CatalogItem{
			{SKU: "sku-1", Name: "Drug Renamed", Active: true},
		},
		Timestamp: 1000,
	}
	if err := m.ApplyCatalogDelta(ctx, delta); err != nil {
		t.Fatalf("ApplyCatalogDelta: %v", err)
	}

	updated, err := store.GetCatalogItemBySKU(ctx, "sku-1")
	if err != nil {
		t.Fatalf("GetCatalogItemBySKU: %v", err)
	}
	if updated.Name != "Drug Renamed" {
		t.Errorf("expected name to be updated from the delta, got %q", updated.Name)
	}
	if updated.DoseRange == nil || *updated.DoseRange != *localRange {
		t.Errorf("expected locally-authored dose range to survive the delta, got %+v", updated.DoseRange)
	}
}

func TestApplyCatalogDeltaDeactivatesListedSKUs(t *testing.T) {
	store := newTestStore(t)
	m := sync.New(store, &fakePeer{})
	ctx := context.Background()

	if err := store.UpsertCatalogItem(ctx, &types.CatalogItem{SKU: "sku-2", Name: "Drug", Active: true}); err != nil {
		t.Fatalf("seeding catalog item: %v", err)
	}

	delta := sync.CatalogDelta{DeactivatedSKUs: []string{"sku-2"}, Timestamp: 2000}
	if err := m.ApplyCatalogDelta(ctx, delta); err != nil {
		t.Fatalf("ApplyCatalogDelta: %v", err)
	}

	updated, err := store.GetCatalogItemBySKU(ctx, "sku-2")
	if err != nil {
		t.Fatalf("GetCatalogItemBySKU: %v", err)
	}
	if updated.Active {
		t.Error("expected sku-2 to be deactivated")
	}
}

func TestPullCatalogPropagatesPeerError(t *testing.T) {
	store := newTestStore(t)
	peer := &fakePeer{deltaErr: errors.New("peer unreachable")}
	m := sync.New(store, peer)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := m.PullCatalog(ctx); err == nil {
		t.Fatal("expected PullCatalog to propagate a peer fetch error")
	}
}
