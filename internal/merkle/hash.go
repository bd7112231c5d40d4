package merkle

import (
	"crypto/sha256"
	"encoding/hex"
)

// leafHash computes the leaf hash of a canonical JSON payload: lowercase hex
// SHA-256 of the payload bytes (spec.md §4.F).
func leafHash(canonicalPayload []byte) string {
	sum := sha256.Sum256(canonicalPayload)
	return hex.EncodeToString(sum[:])
}

// internalHash computes the hash of an internal node over its two children,
// by byte-concatenating their hex hash strings before hashing. For a
// promoted odd node, right should equal left: sha256(hex(L) ++ hex(L))
// (spec.md §4.F, a documented divergence from RFC 6962's untouched
// duplication).
func internalHash(left, right string) string {
	sum := sha256.Sum256([]byte(left + right))
	return hex.EncodeToString(sum[:])
}
