// Package types holds the entity structs and enums shared across VetCore's
// components: the catalog and patient records, the mention/resolution
// pipeline's intermediate types, the draft lifecycle, and the Merkle log's
// node and root records.
package types

import (
	"fmt"
	"strings"
)

// DoseRange expresses an inclusive per-kilogram dosing range for a CatalogItem.
type DoseRange struct {
	MinPerKg float64 `json:"min_per_kg"`
	MaxPerKg float64 `json:"max_per_kg"`
	Unit     string  `json:"unit"`
}

// Validate checks the DoseRange invariant: min must not exceed max.
func (d DoseRange) Validate() error {
	if d.MinPerKg > d.MaxPerKg {
		return fmt.Errorf("dose range: min_per_kg (%g) exceeds max_per_kg (%g)", d.MinPerKg, d.MaxPerKg)
	}
	return nil
}

// CatalogItem is a single inventory product: a SKU with aliases, species and
// route restrictions, and an optional dosing range.
type CatalogItem struct {
	SKU             string     `json:"sku"`
	Name            string     `json:"name"`
	Aliases         []string   `json:"aliases"`
	Concentration   *float64   `json:"concentration,omitempty"`
	PackageSize     *float64   `json:"package_size,omitempty"`
	Species         []string   `json:"species"`
	Routes          []string   `json:"routes"`
	DoseRange       *DoseRange `json:"dose_range,omitempty"`
	Active          bool       `json:"active"`
	ServerID        *string    `json:"server_id,omitempty"`
	LastSynced      *int64     `json:"last_synced,omitempty"` // unix seconds
}

// Validate enforces the CatalogItem invariants documented in spec.md §3.
func (c CatalogItem) Validate() error {
	if c.SKU == "" {
		return fmt.Errorf("catalog item: sku is required")
	}
	if c.Name == "" {
		return fmt.Errorf("catalog item: name is required")
	}
	if c.DoseRange != nil {
		if err := c.DoseRange.Validate(); err != nil {
			return fmt.Errorf("catalog item %s: %w", c.SKU, err)
		}
	}
	return nil
}

// RestrictsSpecies reports whether the item restricts usage to a known set
// of species. An empty set means "no restriction" per spec.md §3.
func (c CatalogItem) RestrictsSpecies() bool {
	return len(c.Species) > 0
}

// RestrictsRoutes reports whether the item restricts its administration
// routes. An empty set means "no restriction".
func (c CatalogItem) RestrictsRoutes() bool {
	return len(c.Routes) > 0
}

// SupportsSpecies reports whether species is compatible with this item.
// An unrestricted item supports every species.
func (c CatalogItem) SupportsSpecies(species string) bool {
	if !c.RestrictsSpecies() {
		return true
	}
	for _, s := range c.Species {
		if strings.EqualFold(s, species) {
			return true
		}
	}
	return false
}

// SupportsRoute reports whether route is compatible with this item.
func (c CatalogItem) SupportsRoute(route string) bool {
	if !c.RestrictsRoutes() {
		return true
	}
	for _, r := range c.Routes {
		if strings.EqualFold(r, route) {
			return true
		}
	}
	return false
}
