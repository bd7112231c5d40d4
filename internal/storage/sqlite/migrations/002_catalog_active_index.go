package migrations

import (
	"database/sql"
	"fmt"
)

// addCatalogActiveIndex adds an index on catalog_items.active, introduced
// after the initial schema to speed up active-only catalog listing.
// CREATE INDEX IF NOT EXISTS makes this idempotent without a table_info
// probe, unlike a column addition.
func addCatalogActiveIndex(db *sql.DB) error {
	_, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_catalog_items_active ON catalog_items(active)`)
	if err != nil {
		return fmt.Errorf("creating active index: %w", err)
	}
	return nil
}
