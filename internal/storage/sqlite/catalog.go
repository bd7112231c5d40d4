package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/vetcore/vetcore/internal/storage"
	"github.com/vetcore/vetcore/internal/types"
)

// UpsertCatalogItem inserts or replaces item and its FTS index row.
func (s *Store) UpsertCatalogItem(ctx context.Context, item *types.CatalogItem) error {
	if err := item.Validate(); err != nil {
		return fmt.Errorf("upserting catalog item: %w", err)
	}

	aliases, err := json.Marshal(item.Aliases)
	if err != nil {
		return fmt.Errorf("marshaling aliases for %s: %w", item.SKU, err)
	}
	species, err := json.Marshal(item.Species)
	if err != nil {
		return fmt.Errorf("marshaling species for %s: %w", item.SKU, err)
	}
	routes, err := json.Marshal(item.Routes)
	if err != nil {
		return fmt.Errorf("marshaling routes for %s: %w", item.SKU, err)
	}

	var doseMin, doseMax *float64
	var doseUnit *string
	if item.DoseRange != nil {
		doseMin = &item.DoseRange.MinPerKg
		doseMax = &item.DoseRange.MaxPerKg
		doseUnit = &item.DoseRange.Unit
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storage.WrapDBError("begin upsert catalog item", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO catalog_items (
			sku, name, aliases, concentration, package_size, species, routes,
			dose_min_per_kg, dose_max_per_kg, dose_unit, active, server_id, last_synced
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (sku) DO UPDATE SET
			name = excluded.name,
			aliases = excluded.aliases,
			concentration = excluded.concentration,
			package_size = excluded.package_size,
			species = excluded.species,
			routes = excluded.routes,
			dose_min_per_kg = excluded.dose_min_per_kg,
			dose_max_per_kg = excluded.dose_max_per_kg,
			dose_unit = excluded.dose_unit,
			active = excluded.active,
			server_id = excluded.server_id,
			last_synced = excluded.last_synced
	`, item.SKU, item.Name, string(aliases), item.Concentration, item.PackageSize,
		string(species), string(routes), doseMin, doseMax, doseUnit,
		item.Active, item.ServerID, item.LastSynced)
	if err != nil {
		return storage.WrapDBError("upsert catalog item", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM catalog_fts WHERE sku = ?`, item.SKU); err != nil {
		return storage.WrapDBError("clear catalog fts row", err)
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO catalog_fts (sku, name, aliases_joined) VALUES (?, ?, ?)`,
		item.SKU, item.Name, strings.Join(item.Aliases, " "))
	if err != nil {
		return storage.WrapDBError("index catalog fts row", err)
	}

	if err := tx.Commit(); err != nil {
		return storage.WrapDBError("commit upsert catalog item", err)
	}
	return nil
}

// GetCatalogItemBySKU returns storage.ErrNotFound if sku is unknown.
func (s *Store) GetCatalogItemBySKU(ctx context.Context, sku string) (*types.CatalogItem, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT sku, name, aliases, concentration, package_size, species, routes,
		       dose_min_per_kg, dose_max_per_kg, dose_unit, active, server_id, last_synced
		FROM catalog_items WHERE sku = ?
	`, sku)
	item, err := scanCatalogItem(row)
	if err != nil {
		return nil, storage.WrapDBError(fmt.Sprintf("get catalog item %s", sku), err)
	}
	return item, nil
}

// SearchCatalog ranks catalog items by FTS relevance against query.
func (s *Store) SearchCatalog(ctx context.Context, query string, activeOnly bool, limit int) ([]storage.CatalogSearchResult, error) {
	match := ftsQuery(query)
	if match == "" {
		return nil, nil
	}

	sqlText := `
		SELECT c.sku, c.name, c.aliases, c.concentration, c.package_size, c.species, c.routes,
		       c.dose_min_per_kg, c.dose_max_per_kg, c.dose_unit, c.active, c.server_id, c.last_synced,
		       bm25(catalog_fts) AS rank
		FROM catalog_fts
		JOIN catalog_items c ON c.sku = catalog_fts.sku
		WHERE catalog_fts MATCH ?
	`
	if activeOnly {
		sqlText += " AND c.active = 1"
	}
	sqlText += " ORDER BY rank LIMIT ?"

	rows, err := s.db.QueryContext(ctx, sqlText, match, limit)
	if err != nil {
		return nil, storage.WrapDBError("search catalog", err)
	}
	defer func() { _ = rows.Close() }()

	var results []storage.CatalogSearchResult
	for rows.Next() {
		item, rank, err := scanCatalogSearchRow(rows)
		if err != nil {
			return nil, storage.WrapDBError("scan catalog search row", err)
		}
		// bm25 returns lower-is-better; invert so higher means stronger
		// match, a more natural "rank" for callers to sort descending on.
		results = append(results, storage.CatalogSearchResult{Item: *item, Rank: -rank})
	}
	return results, storage.WrapDBError("iterate catalog search rows", rows.Err())
}

// ListCatalog returns every catalog item, optionally restricted to active ones.
func (s *Store) ListCatalog(ctx context.Context, activeOnly bool) ([]*types.CatalogItem, error) {
	sqlText := `
		SELECT sku, name, aliases, concentration, package_size, species, routes,
		       dose_min_per_kg, dose_max_per_kg, dose_unit, active, server_id, last_synced
		FROM catalog_items
	`
	if activeOnly {
		sqlText += " WHERE active = 1"
	}
	sqlText += " ORDER BY sku"

	rows, err := s.db.QueryContext(ctx, sqlText)
	if err != nil {
		return nil, storage.WrapDBError("list catalog", err)
	}
	defer func() { _ = rows.Close() }()

	var items []*types.CatalogItem
	for rows.Next() {
		item, err := scanCatalogItem(rows)
		if err != nil {
			return nil, storage.WrapDBError("scan catalog row", err)
		}
		items = append(items, item)
	}
	return items, storage.WrapDBError("iterate catalog rows", rows.Err())
}

// DeactivateCatalogItem sets active = 0 for sku.
func (s *Store) DeactivateCatalogItem(ctx context.Context, sku string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE catalog_items SET active = 0 WHERE sku = ?`, sku)
	return storage.WrapDBError(fmt.Sprintf("deactivate catalog item %s", sku), err)
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCatalogItem(row rowScanner) (*types.CatalogItem, error) {
	item, _, err := scanCatalogItemWithRank(row, false)
	return item, err
}

func scanCatalogSearchRow(row rowScanner) (*types.CatalogItem, float64, error) {
	return scanCatalogItemWithRank(row, true)
}

func scanCatalogItemWithRank(row rowScanner, withRank bool) (*types.CatalogItem, float64, error) {
	var (
		item                   types.CatalogItem
		aliases, species, rt   string
		doseMin, doseMax       sql.NullFloat64
		doseUnit, serverID     sql.NullString
		lastSynced             sql.NullInt64
		rank                   float64
	)

	var err error
	if withRank {
		err = row.Scan(&item.SKU, &item.Name, &aliases, &item.Concentration, &item.PackageSize,
			&species, &rt, &doseMin, &doseMax, &doseUnit, &item.Active, &serverID, &lastSynced, &rank)
	} else {
		err = row.Scan(&item.SKU, &item.Name, &aliases, &item.Concentration, &item.PackageSize,
			&species, &rt, &doseMin, &doseMax, &doseUnit, &item.Active, &serverID, &lastSynced)
	}
	if err != nil {
		return nil, 0, err
	}

	if err := json.Unmarshal([]byte(aliases), &item.Aliases); err != nil {
		return nil, 0, fmt.Errorf("decoding aliases for %s: %w", item.SKU, err)
	}
	if err := json.Unmarshal([]byte(species), &item.Species); err != nil {
		return nil, 0, fmt.Errorf("decoding species for %s: %w", item.SKU, err)
	}
	if err := json.Unmarshal([]byte(rt), &item.Routes); err != nil {
		return nil, 0, fmt.Errorf("decoding routes for %s: %w", item.SKU, err)
	}
	if doseMin.Valid && doseMax.Valid {
		item.DoseRange = &types.DoseRange{MinPerKg: doseMin.Float64, MaxPerKg: doseMax.Float64}
		if doseUnit.Valid {
			item.DoseRange.Unit = doseUnit.String
		}
	}
	if serverID.Valid {
		item.ServerID = &serverID.String
	}
	if lastSynced.Valid {
		item.LastSynced = &lastSynced.Int64
	}

	return &item, rank, nil
}
