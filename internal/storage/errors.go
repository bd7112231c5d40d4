package storage

import (
	"database/sql"
	"errors"
	"fmt"
)

// Sentinel errors. Components compare against these with errors.Is
// rather than matching strings.
var (
	// ErrNotFound indicates the requested resource was not found.
	ErrNotFound = errors.New("not found")

	// ErrConstraint indicates a store-level invariant was violated (e.g. a
	// malformed Merkle node). Treated as fatal and not retried.
	ErrConstraint = errors.New("constraint violation")

	// ErrConflict indicates a unique-constraint violation that is not
	// itself a protocol error (distinct from the idempotent leaf-hash
	// re-commit path, which is handled explicitly by the Merkle log).
	ErrConflict = errors.New("conflict")
)

// WrapDBError wraps a database error with operation context, converting
// sql.ErrNoRows into ErrNotFound so callers can use errors.Is uniformly.
func WrapDBError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// IsNotFound reports whether err is or wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
