// Package migrations applies VetCore's schema in numbered, idempotent
// steps. Each migration uses IF NOT EXISTS DDL, so re-running the
// full sequence against an already-current database is a no-op
// (spec.md §9 open question (i), resolved as forward-only numbered files).
package migrations

import (
	"database/sql"
	"fmt"
)

// step is one numbered, idempotent migration.
type step struct {
	name string
	run  func(db *sql.DB) error
}

var steps = []step{
	{name: "001_init_schema", run: initSchema},
	{name: "002_catalog_active_index", run: addCatalogActiveIndex},
}

// Run applies every migration in order against db.
func Run(db *sql.DB) error {
	for _, s := range steps {
		if err := s.run(db); err != nil {
			return fmt.Errorf("migration %s: %w", s.name, err)
		}
	}
	return nil
}
