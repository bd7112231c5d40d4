// Package merkle implements the append-only, content-addressed audit log:
// canonical-JSON leaf hashing, idempotent commits, bottom-up tree rebuild,
// and RFC-6962-flavored inclusion proofs with a documented odd-node
// self-promotion divergence (spec.md §4.F).
package merkle

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/vetcore/vetcore/internal/storage"
	"github.com/vetcore/vetcore/internal/types"
)

var tracer = otel.Tracer("github.com/vetcore/vetcore/internal/merkle")

// ErrInvalidState is returned when the store rejects a node at insert time
// (spec.md §4.F failure modes).
var ErrInvalidState = errors.New("merkle: invalid node state")

// Log is the append-only Merkle audit log, backed by a Store handle. It owns
// no state beyond that handle.
type Log struct {
	store storage.Store
}

// New builds a Log over store.
func New(store storage.Store) *Log {
	return &Log{store: store}
}

// CommitResult is the externally-visible summary of a commit, per the
// boundary operation named in spec.md §6.
type CommitResult struct {
	LeafHash   string
	RootHash   string
	TreeHeight uint32
	LeafCount  uint32
}

// Commit canonicalizes encounter, hashes it into a leaf, and rebuilds the
// tree bottom-up. Re-committing an encounter whose leaf already exists is
// idempotent: it returns the current root state and a fresh proof without
// mutating anything (spec.md §4.F steps 1-2).
func (l *Log) Commit(ctx context.Context, encounter *types.ReviewedEncounter, now time.Time) (CommitResult, types.InclusionProof, error) {
	ctx, span := tracer.Start(ctx, "merkle.Commit")
	defer span.End()

	payload, err := canonicalJSON(encounter)
	if err != nil {
		span.RecordError(err)
		return CommitResult{}, types.InclusionProof{}, fmt.Errorf("canonicalizing encounter %s: %w", encounter.DraftID, err)
	}
	hash := leafHash(payload)
	span.SetAttributes(attribute.String("merkle.leaf_hash", hash))

	exists, err := l.store.NodeExists(ctx, hash)
	if err != nil {
		span.RecordError(err)
		return CommitResult{}, types.InclusionProof{}, fmt.Errorf("checking existing leaf %s: %w", hash, err)
	}
	if exists {
		return l.idempotentResult(ctx, hash)
	}

	payloadStr := string(payload)
	leaf := &types.MerkleNode{
		Hash:      hash,
		NodeType:  types.NodeLeaf,
		Payload:   &payloadStr,
		CreatedAt: now,
	}
	if err := l.store.InsertLeaf(ctx, leaf); err != nil {
		span.RecordError(err)
		return CommitResult{}, types.InclusionProof{}, fmt.Errorf("%w: inserting leaf %s: %v", ErrInvalidState, hash, err)
	}

	leaves, err := l.store.ListLeafHashes(ctx)
	if err != nil {
		span.RecordError(err)
		return CommitResult{}, types.InclusionProof{}, fmt.Errorf("listing leaf hashes: %w", err)
	}

	root, height, err := l.buildTree(ctx, leaves, now)
	if err != nil {
		span.RecordError(err)
		return CommitResult{}, types.InclusionProof{}, err
	}

	rootState := &types.MerkleRootState{
		RootHash:   &root,
		TreeHeight: height,
		LeafCount:  uint32(len(leaves)),
		UpdatedAt:  now,
	}
	if err := l.store.UpdateRoot(ctx, rootState); err != nil {
		span.RecordError(err)
		return CommitResult{}, types.InclusionProof{}, fmt.Errorf("updating root: %w", err)
	}

	proofHashes, directions, rootHash, leafIndex, ok := generateProofFromLeaves(hash, leaves)
	if !ok {
		return CommitResult{}, types.InclusionProof{}, fmt.Errorf("merkle: leaf %s missing from its own tree build", hash)
	}

	result := CommitResult{LeafHash: hash, RootHash: root, TreeHeight: height, LeafCount: uint32(len(leaves))}
	proof := types.InclusionProof{
		LeafHash:        hash,
		RootHash:        rootHash,
		ProofHashes:     proofHashes,
		ProofDirections: directions,
		LeafIndex:       uint32(leafIndex),
	}
	return result, proof, nil
}

// idempotentResult handles the re-commit-of-existing-leaf path: the current
// root state plus a freshly generated proof, with no store mutation
// (spec.md §4.F step 2).
func (l *Log) idempotentResult(ctx context.Context, hash string) (CommitResult, types.InclusionProof, error) {
	root, err := l.store.ReadRoot(ctx)
	if err != nil {
		return CommitResult{}, types.InclusionProof{}, fmt.Errorf("reading root for idempotent commit of %s: %w", hash, err)
	}
	proof, err := l.GenerateProof(ctx, hash)
	if err != nil {
		return CommitResult{}, types.InclusionProof{}, err
	}
	var rootHash string
	if root.RootHash != nil {
		rootHash = *root.RootHash
	}
	return CommitResult{
		LeafHash:   hash,
		RootHash:   rootHash,
		TreeHeight: root.TreeHeight,
		LeafCount:  root.LeafCount,
	}, proof, nil
}

// buildTree rebuilds the tree bottom-up from leaves in insertion order,
// inserting any internal node that does not already exist, and returns the
// new root hash and tree height (number of levels built, leaf level
// counted as height 1) (spec.md §4.F step 3).
func (l *Log) buildTree(ctx context.Context, leaves []string, now time.Time) (string, uint32, error) {
	level := leaves
	height := uint32(1)

	for len(level) > 1 {
		next := make([]string, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			left := level[i]
			var rightChild *string
			right := left // odd-node self-promotion
			if i+1 < len(level) {
				right = level[i+1]
				r := right
				rightChild = &r
			}
			hash := internalHash(left, right)
			next = append(next, hash)

			exists, err := l.store.NodeExists(ctx, hash)
			if err != nil {
				return "", 0, fmt.Errorf("checking internal node %s: %w", hash, err)
			}
			if exists {
				continue
			}
			leftCopy := left
			node := &types.MerkleNode{
				Hash:       hash,
				NodeType:   types.NodeInternal,
				LeftChild:  &leftCopy,
				RightChild: rightChild,
				CreatedAt:  now,
			}
			if err := l.store.InsertInternal(ctx, node); err != nil {
				return "", 0, fmt.Errorf("%w: inserting internal node %s: %v", ErrInvalidState, hash, err)
			}
		}
		level = next
		height++
	}

	return level[0], height, nil
}

// GenerateProof generates a fresh inclusion proof for an already-committed
// leaf hash, by reading the current leaf set and replaying the tree build
// (spec.md §4.F proof generation).
func (l *Log) GenerateProof(ctx context.Context, leafHash string) (types.InclusionProof, error) {
	leaves, err := l.store.ListLeafHashes(ctx)
	if err != nil {
		return types.InclusionProof{}, fmt.Errorf("listing leaf hashes for proof of %s: %w", leafHash, err)
	}
	proofHashes, directions, rootHash, leafIndex, ok := generateProofFromLeaves(leafHash, leaves)
	if !ok {
		return types.InclusionProof{}, fmt.Errorf("merkle: leaf %s not found", leafHash)
	}
	return types.InclusionProof{
		LeafHash:        leafHash,
		RootHash:        rootHash,
		ProofHashes:     proofHashes,
		ProofDirections: directions,
		LeafIndex:       uint32(leafIndex),
	}, nil
}

// TreeStats reports the current root summary, per the boundary's
// tree-stats operation (spec.md §6).
func (l *Log) TreeStats(ctx context.Context) (*types.MerkleRootState, error) {
	root, err := l.store.ReadRoot(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading tree stats: %w", err)
	}
	return root, nil
}

// IntegrityReport summarizes a local consistency pass over the node table:
// counted leaves/internal nodes against the stored root summary, plus any
// internal node whose LeftChild/RightChild hash has no corresponding row.
type IntegrityReport struct {
	LeafCount        uint32   `json:"leaf_count"`
	InternalCount    uint32   `json:"internal_count"`
	StoredLeafCount  uint32   `json:"stored_leaf_count"`
	StoredRootHash   *string  `json:"stored_root_hash,omitempty"`
	RootNodePresent  bool     `json:"root_node_present"`
	OrphanedChildren []string `json:"orphaned_children,omitempty"`
}

// CheckIntegrity walks every node in the log and reports leaf/internal
// counts against the stored root summary, and any internal node's child
// reference that points at a hash the store no longer (or never did) have
// a row for. It never mutates anything; repair is left to an operator.
func (l *Log) CheckIntegrity(ctx context.Context) (*IntegrityReport, error) {
	nodes, err := l.store.ListNodesSince(ctx, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("listing merkle nodes for integrity check: %w", err)
	}

	byHash := make(map[string]struct{}, len(nodes))
	for _, n := range nodes {
		byHash[n.Hash] = struct{}{}
	}

	report := &IntegrityReport{}
	for _, n := range nodes {
		switch n.NodeType {
		case types.NodeLeaf:
			report.LeafCount++
		case types.NodeInternal:
			report.InternalCount++
			for _, child := range []*string{n.LeftChild, n.RightChild} {
				if child == nil {
					continue
				}
				if _, ok := byHash[*child]; !ok {
					report.OrphanedChildren = append(report.OrphanedChildren, *child)
				}
			}
		}
	}

	root, err := l.store.ReadRoot(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading root for integrity check: %w", err)
	}
	report.StoredLeafCount = root.LeafCount
	report.StoredRootHash = root.RootHash
	if root.RootHash != nil {
		_, report.RootNodePresent = byHash[*root.RootHash]
	}
	return report, nil
}
