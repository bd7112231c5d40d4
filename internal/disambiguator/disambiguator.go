// Package disambiguator retrieves catalog candidates for a normalized
// mention via the store's full-text index and ranks them with the
// four-factor scorer in spec.md §4.C.
package disambiguator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/vetcore/vetcore/internal/storage"
	"github.com/vetcore/vetcore/internal/types"
)

// ErrNoCandidates is returned when no catalog item clears the minimum
// score threshold, per spec.md §7's NoCandidates error.
var ErrNoCandidates = errors.New("no qualifying candidates")

const (
	weightName    = 0.40
	weightSpecies = 0.25
	weightRoute   = 0.20
	weightDose    = 0.15

	minWeightedScore = 0.20
	candidateLimit   = 20
	maxAlternatives  = 4
)

// Disambiguator scores and ranks catalog candidates for a normalized
// mention.
type Disambiguator struct {
	store storage.Store
}

// New builds a Disambiguator over store.
func New(store storage.Store) *Disambiguator {
	return &Disambiguator{store: store}
}

// Disambiguate retrieves candidates for mention and returns them ranked by
// descending confidence. species and weightKg are optional patient context.
func (d *Disambiguator) Disambiguate(ctx context.Context, mention types.NormalizedMention, species *string, weightKg *float64) ([]types.ScoredCandidate, error) {
	hits, err := d.retrieve(ctx, mention)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return nil, ErrNoCandidates
	}

	candidates := make([]types.ScoredCandidate, 0, len(hits))
	for _, item := range hits {
		breakdown := scoreCandidate(item, mention, species, weightKg)
		confidence := breakdown.Weighted()
		if confidence < minWeightedScore {
			continue
		}
		candidates = append(candidates, types.ScoredCandidate{
			SKU:            item.SKU,
			Name:           item.Name,
			Confidence:     confidence,
			ScoreBreakdown: breakdown,
		})
	}
	if len(candidates) == 0 {
		return nil, ErrNoCandidates
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Confidence != candidates[j].Confidence {
			return candidates[i].Confidence > candidates[j].Confidence
		}
		// Open question (spec.md §9(ii)): tie-break order is
		// implementation-defined. VetCore breaks ties by ascending SKU for
		// a deterministic, documented order (see DESIGN.md).
		return candidates[i].SKU < candidates[j].SKU
	})
	return candidates, nil
}

// retrieve queries the index with the normalized name first, falling back
// to the original drug_name, per spec.md §4.C step 1.
func (d *Disambiguator) retrieve(ctx context.Context, mention types.NormalizedMention) ([]types.CatalogItem, error) {
	results, err := d.store.SearchCatalog(ctx, mention.NormalizedName, true, candidateLimit)
	if err != nil {
		return nil, fmt.Errorf("searching catalog for %q: %w", mention.NormalizedName, err)
	}
	if len(results) == 0 {
		results, err = d.store.SearchCatalog(ctx, mention.Original.DrugName, true, candidateLimit)
		if err != nil {
			return nil, fmt.Errorf("searching catalog for %q: %w", mention.Original.DrugName, err)
		}
	}
	items := make([]types.CatalogItem, len(results))
	for i, r := range results {
		items[i] = r.Item
	}
	return items, nil
}

// scoreCandidate computes the four sub-scores for item against mention,
// species, and weightKg, per spec.md §4.C step 2.
func scoreCandidate(item types.CatalogItem, mention types.NormalizedMention, species *string, weightKg *float64) types.ScoreBreakdown {
	return types.ScoreBreakdown{
		Name:    nameScore(item, mention.NormalizedName),
		Species: speciesScore(item, species),
		Route:   routeScore(item, mention.NormalizedRoute),
		Dose:    doseScore(item, mention.NormalizedDose, mention.NormalizedUnit, weightKg),
	}
}

func nameScore(item types.CatalogItem, query string) float64 {
	q := strings.ToLower(strings.TrimSpace(query))
	name := strings.ToLower(item.Name)

	if strings.Contains(name, q) {
		return 1.0
	}
	for _, alias := range item.Aliases {
		if strings.EqualFold(alias, q) {
			return 1.0
		}
	}

	best := fuzzy(q, name)
	for _, alias := range item.Aliases {
		if f := fuzzy(q, alias); f > best {
			best = f
		}
	}
	return best
}

func speciesScore(item types.CatalogItem, species *string) float64 {
	if species == nil || *species == "" {
		if !item.RestrictsSpecies() {
			return 1.0
		}
		return 0.75
	}
	if !item.RestrictsSpecies() {
		return 1.0
	}
	if item.SupportsSpecies(*species) {
		return 1.0
	}
	return 0.1
}

func routeScore(item types.CatalogItem, route string) float64 {
	if route == "" {
		return 0.75
	}
	if !item.RestrictsRoutes() {
		return 0.75
	}
	if item.SupportsRoute(route) {
		return 1.0
	}
	return 0.2
}

func doseScore(item types.CatalogItem, dose *float64, unit *string, weightKg *float64) float64 {
	if item.DoseRange == nil || dose == nil || unit == nil || weightKg == nil || *weightKg <= 0 {
		return 0.6
	}
	if unit != nil && item.DoseRange.Unit != "" && !strings.EqualFold(*unit, item.DoseRange.Unit) {
		return 0.6
	}

	perKg := *dose / *weightKg
	if perKg >= item.DoseRange.MinPerKg && perKg <= item.DoseRange.MaxPerKg {
		return 1.0
	}
	return 0.3
}
