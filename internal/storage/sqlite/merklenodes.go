package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/vetcore/vetcore/internal/storage"
	"github.com/vetcore/vetcore/internal/types"
)

// InsertLeaf inserts a leaf node. The schema's CHECK constraint rejects a
// leaf that is missing its payload or carries children, surfacing as
// storage.ErrConstraint (spec.md §4.A's "triggers that reject malformed
// Merkle nodes").
func (s *Store) InsertLeaf(ctx context.Context, node *types.MerkleNode) error {
	return s.insertNode(ctx, node)
}

// InsertInternal inserts an internal node, subject to the same constraint
// enforcement as InsertLeaf.
func (s *Store) InsertInternal(ctx context.Context, node *types.MerkleNode) error {
	return s.insertNode(ctx, node)
}

func (s *Store) insertNode(ctx context.Context, node *types.MerkleNode) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO merkle_nodes (hash, node_type, left_child, right_child, payload, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, node.Hash, string(node.NodeType), node.LeftChild, node.RightChild, node.Payload,
		node.CreatedAt.Format(time.RFC3339Nano))
	if err != nil && strings.Contains(err.Error(), "CHECK constraint failed") {
		return fmt.Errorf("inserting node %s: %w", node.Hash, storage.ErrConstraint)
	}
	return storage.WrapDBError(fmt.Sprintf("insert merkle node %s", node.Hash), err)
}

// GetNodeByHash returns storage.ErrNotFound if hash is unknown.
func (s *Store) GetNodeByHash(ctx context.Context, hash string) (*types.MerkleNode, error) {
	row := s.db.QueryRowContext(ctx, merkleNodeSelect+` WHERE hash = ?`, hash)
	node, err := scanMerkleNode(row)
	if err != nil {
		return nil, storage.WrapDBError(fmt.Sprintf("get merkle node %s", hash), err)
	}
	return node, nil
}

// NodeExists reports whether hash is already present, the check behind
// both leaf-commit idempotence and internal-node dedup during rebuild.
func (s *Store) NodeExists(ctx context.Context, hash string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM merkle_nodes WHERE hash = ?)`, hash).Scan(&exists)
	if err != nil {
		return false, storage.WrapDBError(fmt.Sprintf("check merkle node %s exists", hash), err)
	}
	return exists, nil
}

// ListLeafHashes returns every leaf hash in insertion order, the order the
// tree is rebuilt from (spec.md §4.F step 3).
func (s *Store) ListLeafHashes(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT hash FROM merkle_nodes WHERE node_type = 'leaf' ORDER BY created_at
	`)
	if err != nil {
		return nil, storage.WrapDBError("list leaf hashes", err)
	}
	defer func() { _ = rows.Close() }()

	var hashes []string
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, storage.WrapDBError("scan leaf hash", err)
		}
		hashes = append(hashes, h)
	}
	return hashes, storage.WrapDBError("iterate leaf hashes", rows.Err())
}

// ListNodesSince returns every node inserted after since, used for
// incremental tree export (spec.md §4.G).
func (s *Store) ListNodesSince(ctx context.Context, since time.Time) ([]*types.MerkleNode, error) {
	rows, err := s.db.QueryContext(ctx, merkleNodeSelect+` WHERE created_at > ? ORDER BY created_at`,
		since.Format(time.RFC3339Nano))
	if err != nil {
		return nil, storage.WrapDBError("list merkle nodes since", err)
	}
	defer func() { _ = rows.Close() }()
	return scanMerkleNodes(rows)
}

// ListNodesByHashes materializes exactly the requested hashes, used to
// build a SyncPayload (spec.md §4.G step 2).
func (s *Store) ListNodesByHashes(ctx context.Context, hashes []string) ([]*types.MerkleNode, error) {
	if len(hashes) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(hashes)), ",")
	args := make([]interface{}, len(hashes))
	for i, h := range hashes {
		args[i] = h
	}
	rows, err := s.db.QueryContext(ctx, merkleNodeSelect+fmt.Sprintf(` WHERE hash IN (%s)`, placeholders), args...)
	if err != nil {
		return nil, storage.WrapDBError("list merkle nodes by hashes", err)
	}
	defer func() { _ = rows.Close() }()
	return scanMerkleNodes(rows)
}

// ReadRoot returns the single root-state row.
func (s *Store) ReadRoot(ctx context.Context) (*types.MerkleRootState, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT root_hash, tree_height, leaf_count, updated_at FROM merkle_root WHERE id = 1
	`)
	var (
		rootHash  *string
		height    uint32
		leafCount uint32
		updatedAt string
	)
	if err := row.Scan(&rootHash, &height, &leafCount, &updatedAt); err != nil {
		return nil, storage.WrapDBError("read root", err)
	}
	updated, err := time.Parse(time.RFC3339Nano, updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parsing root updated_at %q: %w", updatedAt, err)
	}
	return &types.MerkleRootState{RootHash: rootHash, TreeHeight: height, LeafCount: leafCount, UpdatedAt: updated}, nil
}

// UpdateRoot overwrites the single root-state row atomically.
func (s *Store) UpdateRoot(ctx context.Context, root *types.MerkleRootState) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE merkle_root SET root_hash = ?, tree_height = ?, leaf_count = ?, updated_at = ? WHERE id = 1
	`, root.RootHash, root.TreeHeight, root.LeafCount, root.UpdatedAt.Format(time.RFC3339Nano))
	return storage.WrapDBError("update root", err)
}

const merkleNodeSelect = `
	SELECT hash, node_type, left_child, right_child, payload, created_at
	FROM merkle_nodes
`

func scanMerkleNodes(rows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}) ([]*types.MerkleNode, error) {
	var out []*types.MerkleNode
	for rows.Next() {
		n, err := scanMerkleNode(rows)
		if err != nil {
			return nil, storage.WrapDBError("scan merkle node row", err)
		}
		out = append(out, n)
	}
	return out, storage.WrapDBError("iterate merkle node rows", rows.Err())
}

func scanMerkleNode(row rowScanner) (*types.MerkleNode, error) {
	var (
		hash, nodeType                string
		leftChild, rightChild, payload *string
		createdAt                     string
	)
	if err := row.Scan(&hash, &nodeType, &leftChild, &rightChild, &payload, &createdAt); err != nil {
		return nil, err
	}
	created, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parsing merkle node %s created_at %q: %w", hash, createdAt, err)
	}
	return &types.MerkleNode{
		Hash:       hash,
		NodeType:   types.MerkleNodeType(nodeType),
		LeftChild:  leftChild,
		RightChild: rightChild,
		Payload:    payload,
		CreatedAt:  created,
	}, nil
}
