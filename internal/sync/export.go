package sync

import (
	"context"
	"fmt"

	"github.com/vetcore/vetcore/internal/storage"
	"github.com/vetcore/vetcore/internal/types"
)

// ExportFull walks the tree from the root depth-first, via an explicit work
// stack keyed on child hashes, collecting every reachable node (spec.md
// §4.G). An empty tree yields no nodes.
func (m *Manager) ExportFull(ctx context.Context) ([]types.MerkleNode, error) {
	root, err := m.store.ReadRoot(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading root for export: %w", err)
	}
	if root.RootHash == nil {
		return nil, nil
	}
	return m.walkFrom(ctx, *root.RootHash)
}

// ExportSince performs an incremental export: nodes inserted after
// sinceRootHash's created_at. If sinceRootHash is not a known node, it falls
// back to a full walk (spec.md §4.G).
func (m *Manager) ExportSince(ctx context.Context, sinceRootHash string) ([]types.MerkleNode, error) {
	ref, err := m.store.GetNodeByHash(ctx, sinceRootHash)
	if err != nil {
		if storage.IsNotFound(err) {
			return m.ExportFull(ctx)
		}
		return nil, fmt.Errorf("looking up reference node %s: %w", sinceRootHash, err)
	}

	nodes, err := m.store.ListNodesSince(ctx, ref.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("listing nodes since %s: %w", sinceRootHash, err)
	}
	out := make([]types.MerkleNode, len(nodes))
	for i, n := range nodes {
		out[i] = *n
	}
	return out, nil
}

// walkFrom performs the depth-first reachability walk from rootHash.
func (m *Manager) walkFrom(ctx context.Context, rootHash string) ([]types.MerkleNode, error) {
	visited := make(map[string]bool)
	stack := []string{rootHash}
	var nodes []types.MerkleNode

	for len(stack) > 0 {
		hash := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[hash] {
			continue
		}
		visited[hash] = true

		node, err := m.store.GetNodeByHash(ctx, hash)
		if err != nil {
			return nil, fmt.Errorf("fetching node %s during export walk: %w", hash, err)
		}
		nodes = append(nodes, *node)

		if node.LeftChild != nil {
			stack = append(stack, *node.LeftChild)
		}
		if node.RightChild != nil {
			stack = append(stack, *node.RightChild)
		}
	}
	return nodes, nil
}
