package export

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/vetcore/vetcore/internal/merkle"
	"github.com/vetcore/vetcore/internal/types"
)

const (
	formatVersion  = 1
	hashAlgorithm  = "SHA-256"
	proofAlgorithm = "sha256-merkle-v1"
)

// ComplianceMetadata describes the export itself, independent of the
// encounter it accompanies (spec.md §4.H).
type ComplianceMetadata struct {
	FormatVersion int       `json:"format_version"`
	ExportedAt    time.Time `json:"exported_at"`
	HashAlgorithm string    `json:"hash_algorithm"`
	SystemID      *string   `json:"system_id,omitempty"`
}

// AuditPathEntry is one step of a compliance proof's audit path.
type AuditPathEntry struct {
	Hash     string `json:"hash"`
	Position string `json:"position"` // "left" or "right"
}

// ComplianceProof is the proof bundle embedded in a compliance export
// (spec.md §4.H).
type ComplianceProof struct {
	Version   int              `json:"version"`
	Algorithm string           `json:"algorithm"`
	LeafHash  string           `json:"leaf_hash"`
	RootHash  string           `json:"root_hash"`
	AuditPath []AuditPathEntry `json:"audit_path"`
	LeafIndex uint32           `json:"leaf_index"`
}

// ComplianceRecord is one per-leaf compliance export.
type ComplianceRecord struct {
	Metadata  ComplianceMetadata    `json:"metadata"`
	Encounter types.ReviewedEncounter `json:"encounter"`
	Proof     ComplianceProof       `json:"proof"`
}

// ToComplianceProof converts an InclusionProof into its exported form. The
// spec's `sibling_on_right` direction maps directly onto "position": a
// sibling on the right is recorded as "right", else "left".
func ToComplianceProof(proof types.InclusionProof) ComplianceProof {
	path := make([]AuditPathEntry, len(proof.ProofHashes))
	for i, h := range proof.ProofHashes {
		position := "left"
		if proof.ProofDirections[i] {
			position = "right"
		}
		path[i] = AuditPathEntry{Hash: h, Position: position}
	}
	return ComplianceProof{
		Version:   formatVersion,
		Algorithm: proofAlgorithm,
		LeafHash:  proof.LeafHash,
		RootHash:  proof.RootHash,
		AuditPath: path,
		LeafIndex: proof.LeafIndex,
	}
}

// ComplianceRecordFor builds the full per-leaf compliance record.
func ComplianceRecordFor(encounter types.ReviewedEncounter, proof types.InclusionProof, exportedAt time.Time, systemID *string) ComplianceRecord {
	return ComplianceRecord{
		Metadata: ComplianceMetadata{
			FormatVersion: formatVersion,
			ExportedAt:    exportedAt,
			HashAlgorithm: hashAlgorithm,
			SystemID:      systemID,
		},
		Encounter: encounter,
		Proof:     ToComplianceProof(proof),
	}
}

// ComplianceJSON renders a single record as pretty JSON.
func ComplianceJSON(record ComplianceRecord) ([]byte, error) {
	out, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling compliance record for %s: %w", record.Proof.LeafHash, err)
	}
	return out, nil
}

// ComplianceBatch is the batch export form: every record plus the tree
// summary at export time (spec.md §4.H).
type ComplianceBatch struct {
	RootHash   string             `json:"root_hash"`
	TreeHeight uint32             `json:"tree_height"`
	LeafCount  uint32             `json:"leaf_count"`
	Records    []ComplianceRecord `json:"records"`
}

// ComplianceBatchJSON renders a batch as pretty JSON.
func ComplianceBatchJSON(batch ComplianceBatch) ([]byte, error) {
	out, err := json.MarshalIndent(batch, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling compliance batch: %w", err)
	}
	return out, nil
}

// VerifyBatch bulk-verifies every record's proof, returning the leaf hashes
// of any record whose proof does not verify (spec.md §4.H "offers bulk
// proof verification").
func VerifyBatch(batch ComplianceBatch) []string {
	var failed []string
	for _, record := range batch.Records {
		proof := types.InclusionProof{
			LeafHash:        record.Proof.LeafHash,
			RootHash:        record.Proof.RootHash,
			ProofDirections: make([]bool, len(record.Proof.AuditPath)),
			ProofHashes:     make([]string, len(record.Proof.AuditPath)),
			LeafIndex:       record.Proof.LeafIndex,
		}
		for i, entry := range record.Proof.AuditPath {
			proof.ProofHashes[i] = entry.Hash
			proof.ProofDirections[i] = entry.Position == "right"
		}
		if !merkle.Verify(proof) {
			failed = append(failed, record.Proof.LeafHash)
		}
	}
	return failed
}
