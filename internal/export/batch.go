package export

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/vetcore/vetcore/internal/merkle"
	"github.com/vetcore/vetcore/internal/storage"
	"github.com/vetcore/vetcore/internal/types"
)

// Batch builds billing and compliance exports over every committed leaf, or
// only those committed since a given time (spec.md §4.H).
type Batch struct {
	store storage.Store
	log   *merkle.Log
}

// NewBatch builds a Batch over store and log.
func NewBatch(store storage.Store, log *merkle.Log) *Batch {
	return &Batch{store: store, log: log}
}

// leaves returns every leaf node, or only those inserted after since.
func (b *Batch) leaves(ctx context.Context, since *time.Time) ([]*types.MerkleNode, error) {
	if since == nil {
		hashes, err := b.store.ListLeafHashes(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing leaf hashes: %w", err)
		}
		nodes, err := b.store.ListNodesByHashes(ctx, hashes)
		if err != nil {
			return nil, fmt.Errorf("materializing leaves: %w", err)
		}
		return nodes, nil
	}

	all, err := b.store.ListNodesSince(ctx, *since)
	if err != nil {
		return nil, fmt.Errorf("listing nodes since %s: %w", *since, err)
	}
	var leafNodes []*types.MerkleNode
	for _, n := range all {
		if n.NodeType == types.NodeLeaf {
			leafNodes = append(leafNodes, n)
		}
	}
	return leafNodes, nil
}

func decodeEncounter(node *types.MerkleNode) (types.ReviewedEncounter, error) {
	if node.Payload == nil {
		return types.ReviewedEncounter{}, fmt.Errorf("leaf %s has no payload", node.Hash)
	}
	var encounter types.ReviewedEncounter
	if err := json.Unmarshal([]byte(*node.Payload), &encounter); err != nil {
		return types.ReviewedEncounter{}, fmt.Errorf("decoding leaf %s payload: %w", node.Hash, err)
	}
	return encounter, nil
}

// Billing builds flat billing rows for every matching leaf.
func (b *Batch) Billing(ctx context.Context, since *time.Time) ([]BillingRow, error) {
	nodes, err := b.leaves(ctx, since)
	if err != nil {
		return nil, err
	}
	var rows []BillingRow
	for _, node := range nodes {
		encounter, err := decodeEncounter(node)
		if err != nil {
			return nil, err
		}
		rows = append(rows, BillingRowsFor(encounter, node.Hash)...)
	}
	return rows, nil
}

// Compliance builds the full compliance batch: every matching leaf's
// record plus the tree summary at export time.
func (b *Batch) Compliance(ctx context.Context, since *time.Time, exportedAt time.Time, systemID *string) (ComplianceBatch, error) {
	nodes, err := b.leaves(ctx, since)
	if err != nil {
		return ComplianceBatch{}, err
	}

	root, err := b.log.TreeStats(ctx)
	if err != nil {
		return ComplianceBatch{}, err
	}

	records := make([]ComplianceRecord, 0, len(nodes))
	for _, node := range nodes {
		encounter, err := decodeEncounter(node)
		if err != nil {
			return ComplianceBatch{}, err
		}
		proof, err := b.log.GenerateProof(ctx, node.Hash)
		if err != nil {
			return ComplianceBatch{}, fmt.Errorf("generating proof for leaf %s: %w", node.Hash, err)
		}
		records = append(records, ComplianceRecordFor(encounter, proof, exportedAt, systemID))
	}

	rootHash := ""
	if root.RootHash != nil {
		rootHash = *root.RootHash
	}
	return ComplianceBatch{
		RootHash:   rootHash,
		TreeHeight: root.TreeHeight,
		LeafCount:  root.LeafCount,
		Records:    records,
	}, nil
}
