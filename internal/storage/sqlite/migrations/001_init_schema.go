package migrations

import (
	"database/sql"
	_ "embed"
	"fmt"
)

//go:embed schema.sql
var schemaSQL string

// initSchema creates every table, index, and the catalog FTS5 virtual
// table if they do not already exist. Every statement is IF NOT EXISTS, so
// this is safe to run against an already-initialized database.
func initSchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
