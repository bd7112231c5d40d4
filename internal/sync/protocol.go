// Package sync implements the one-way, content-addressed sync protocol
// against a peer Practice Information Management System: root-driven node
// exchange, catalog delta application, and sync-state bookkeeping
// (spec.md §4.G).
package sync

import "github.com/vetcore/vetcore/internal/types"

// SyncRequest is sent to the peer describing the local tree's current tip.
type SyncRequest struct {
	RootHash   string `json:"root_hash"`
	TreeHeight uint32 `json:"tree_height"`
	LeafCount  uint32 `json:"leaf_count"`
}

// SyncResponse is the peer's reply: the node hashes it wants materialized,
// and optionally its own root hash for reconciliation.
type SyncResponse struct {
	MissingHashes  []string `json:"missing_hashes"`
	ServerRootHash *string  `json:"server_root_hash,omitempty"`
}

// SyncPayload carries the materialized nodes the peer requested.
type SyncPayload struct {
	Nodes         []types.MerkleNode `json:"nodes"`
	ExpectedRoot  string              `json:"expected_root"`
}

// SyncAck is the peer's final acknowledgement of a completed sync round.
type SyncAck struct {
	Success bool   `json:"success"`
	NewRoot string `json:"new_root"`
}

// CatalogDelta is the peer's catalog update batch, applied locally while
// preserving any locally-authored dose range (spec.md §4.G).
type CatalogDelta struct {
	Items           []types.CatalogItem `json:"items"`
	DeactivatedSKUs []string             `json:"deactivated_skus"`
	Timestamp       int64                `json:"timestamp"`
}
