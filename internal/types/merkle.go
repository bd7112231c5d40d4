package types

import "time"

// MerkleNodeType discriminates leaf from internal nodes.
type MerkleNodeType string

const (
	NodeLeaf     MerkleNodeType = "leaf"
	NodeInternal MerkleNodeType = "internal"
)

// MerkleNode is a single node in the append-only Merkle log. A leaf carries
// a payload and no children; an internal node has a non-null LeftChild and
// no payload (RightChild may be null for a promoted odd node). Nodes are
// never mutated once inserted (spec.md §3).
type MerkleNode struct {
	Hash       string         `json:"hash"`
	NodeType   MerkleNodeType `json:"node_type"`
	LeftChild  *string        `json:"left_child,omitempty"`
	RightChild *string        `json:"right_child,omitempty"`
	Payload    *string        `json:"payload,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// MerkleRootState is the single-row summary of the current tree.
type MerkleRootState struct {
	RootHash   *string   `json:"root_hash,omitempty"`
	TreeHeight uint32    `json:"tree_height"`
	LeafCount  uint32    `json:"leaf_count"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// InclusionProof is the sibling path that reconstructs RootHash from
// LeafHash (spec.md §4.F).
type InclusionProof struct {
	LeafHash        string   `json:"leaf_hash"`
	RootHash        string   `json:"root_hash"`
	ProofHashes     []string `json:"proof_hashes"`
	ProofDirections []bool   `json:"proof_directions"` // true = sibling_on_right
	LeafIndex       uint32   `json:"leaf_index"`
}

// SyncStateKey enumerates the well-known sync-state store keys (spec.md
// §3's SyncState entity).
type SyncStateKey string

const (
	SyncKeyCatalogLastSync    SyncStateKey = "catalog_last_sync"
	SyncKeyEncountersLastSync SyncStateKey = "encounters_last_sync"
	SyncKeyLastSyncedRoot     SyncStateKey = "last_synced_root"
)
