package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vetcore/vetcore/internal/storage"
	"github.com/vetcore/vetcore/internal/types"
)

// GetSyncState returns (value, true, nil) if key is set, or ("", false, nil)
// if it is not — unset sync state is a normal, expected condition, not an
// error (spec.md §4.G).
func (s *Store) GetSyncState(ctx context.Context, key types.SyncStateKey) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM sync_state WHERE key = ?`, string(key)).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, storage.WrapDBError(fmt.Sprintf("get sync state %s", key), err)
	}
	return value, true, nil
}

// SetSyncState upserts key's value.
func (s *Store) SetSyncState(ctx context.Context, key types.SyncStateKey, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sync_state (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value
	`, string(key), value)
	return storage.WrapDBError(fmt.Sprintf("set sync state %s", key), err)
}
