package merkle

import "github.com/vetcore/vetcore/internal/types"

// computeLevels replays the tree-building rule over leaves (bottom to top),
// returning every level including the leaf level itself and ending with the
// single-hash root level. It is a pure function purely of the leaf hashes
// in insertion order, so it can reconstruct exactly what buildTree persisted
// without touching the store again (spec.md §4.F).
func computeLevels(leaves []string) [][]string {
	levels := [][]string{leaves}
	level := leaves
	for len(level) > 1 {
		next := make([]string, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			left := level[i]
			right := left // odd-node self-promotion
			if i+1 < len(level) {
				right = level[i+1]
			}
			next = append(next, internalHash(left, right))
		}
		levels = append(levels, next)
		level = next
	}
	return levels
}

// generateProofFromLeaves builds the inclusion proof for leafHash given the
// full ordered leaf set, per spec.md §4.F's bottom-up sibling walk.
func generateProofFromLeaves(leafHash string, leaves []string) (proofHashes []string, proofDirections []bool, rootHash string, leafIndex int, ok bool) {
	leafIndex = -1
	for i, h := range leaves {
		if h == leafHash {
			leafIndex = i
			break
		}
	}
	if leafIndex < 0 {
		return nil, nil, "", -1, false
	}

	levels := computeLevels(leaves)
	i := leafIndex
	for _, level := range levels {
		if len(level) == 1 {
			break
		}
		siblingIdx := i ^ 1
		sibling := level[i]
		if siblingIdx < len(level) {
			sibling = level[siblingIdx]
		}
		proofHashes = append(proofHashes, sibling)
		proofDirections = append(proofDirections, i%2 == 0) // sibling_on_right
		i = i / 2
	}
	rootHash = levels[len(levels)-1][0]
	return proofHashes, proofDirections, rootHash, leafIndex, true
}

// Verify recomputes the root from proof and reports whether it matches
// proof.RootHash. It touches no store: a pure function of the proof object
// (spec.md §4.F).
func Verify(proof types.InclusionProof) bool {
	current := proof.LeafHash
	for i, sibling := range proof.ProofHashes {
		right := proof.ProofDirections[i]
		if right {
			current = internalHash(current, sibling)
		} else {
			current = internalHash(sibling, current)
		}
	}
	return current == proof.RootHash
}
