package disambiguator_test

import (
	"context"
	"testing"

	"github.com/vetcore/vetcore/internal/disambiguator"
	"github.com/vetcore/vetcore/internal/storage/sqlite"
	"github.com/vetcore/vetcore/internal/types"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.OpenInMemory()
	if err != nil {
		t.Fatalf("opening in-memory store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Fatalf("closing store: %v", err)
		}
	})
	return store
}

func seedCatalog(t *testing.T, store *sqlite.Store, items ...types.CatalogItem) {
	t.Helper()
	for i := range items {
		if err := store.UpsertCatalogItem(context.Background(), &items[i]); err != nil {
			t.Fatalf("seeding catalog item %s: %v", items[i].SKU, err)
		}
	}
}

func TestDisambiguateRanksByConfidenceDescending(t *testing.T) {
	store := newTestStore(t)
	seedCatalog(t, store,
		types.CatalogItem{
			SKU: "carprofen-25", Name: "Carprofen 25mg", Active: true,
			Species: []string{"canine"}, Routes: []string{"PO"},
		},
		types.CatalogItem{
			SKU: "carprofen-75", Name: "Carprofen 75mg", Active: true,
			Species: []string{"feline"}, Routes: []string{"PO"},
		},
	)

	d := disambiguator.New(store)
	species := "canine"
	mention := types.NormalizedMention{NormalizedName: "carprofen", NormalizedRoute: "PO"}

	candidates, err := d.Disambiguate(context.Background(), mention, &species, nil)
	if err != nil {
		t.Fatalf("Disambiguate: %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(candidates))
	}
	if candidates[0].SKU != "carprofen-25" {
		t.Errorf("expected canine-matching item ranked first, got %s", candidates[0].SKU)
	}
	for i := 1; i < len(candidates); i++ {
		if candidates[i].Confidence > candidates[i-1].Confidence {
			t.Errorf("candidates not sorted descending by confidence at index %d", i)
		}
	}
}

func TestDisambiguateNoCandidates(t *testing.T) {
	store := newTestStore(t)
	d := disambiguator.New(store)

	_, err := d.Disambiguate(context.Background(), types.NormalizedMention{NormalizedName: "nonexistent-drug"}, nil, nil)
	if err != disambiguator.ErrNoCandidates {
		t.Fatalf("expected ErrNoCandidates, got %v", err)
	}
}

func TestDisambiguateTieBreaksBySKU(t *testing.T) {
	store := newTestStore(t)
	seedCatalog(t, store,
		types.CatalogItem{SKU: "zzz-sku", Name: "Meloxicam", Active: true},
		types.CatalogItem{SKU: "aaa-sku", Name: "Meloxicam", Active: true},
	)

	d := disambiguator.New(store)
	candidates, err := d.Disambiguate(context.Background(), types.NormalizedMention{NormalizedName: "meloxicam"}, nil, nil)
	if err != nil {
		t.Fatalf("Disambiguate: %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("expected 2 equally scored candidates, got %d", len(candidates))
	}
	if candidates[0].Confidence != candidates[1].Confidence {
		t.Skip("fixture drifted from an actual tie; not exercising the tie-break path")
	}
	if candidates[0].SKU != "aaa-sku" {
		t.Errorf("expected tie broken by ascending SKU, got order %s, %s", candidates[0].SKU, candidates[1].SKU)
	}
}

func TestDisambiguateDoseScoreWithinRangeScoresFull(t *testing.T) {
	store := newTestStore(t)
	seedCatalog(t, store, types.CatalogItem{
		SKU: "carp-100", Name: "Carprofen 100mg", Active: true,
		DoseRange: &types.DoseRange{MinPerKg: 2.0, MaxPerKg: 4.4, Unit: "mg"},
	})

	d := disambiguator.New(store)
	dose := 100.0
	unit := "mg"
	weight := 30.0
	mention := types.NormalizedMention{NormalizedName: "carprofen", NormalizedDose: &dose, NormalizedUnit: &unit}

	candidates, err := d.Disambiguate(context.Background(), mention, nil, &weight)
	if err != nil {
		t.Fatalf("Disambiguate: %v", err)
	}
	if got, want := candidates[0].ScoreBreakdown.Dose, 1.0; got != want {
		t.Errorf("dose score = %v, want %v (100mg/30kg = 3.3mg/kg, within 2.0-4.4)", got, want)
	}
}

func TestDisambiguateDoseScoreOutOfRangeScoresLow(t *testing.T) {
	store := newTestStore(t)
	seedCatalog(t, store, types.CatalogItem{
		SKU: "carp-100", Name: "Carprofen 100mg", Active: true,
		DoseRange: &types.DoseRange{MinPerKg: 2.0, MaxPerKg: 4.4, Unit: "mg"},
	})

	d := disambiguator.New(store)
	dose := 100.0
	unit := "mg"
	weight := 10.0
	mention := types.NormalizedMention{NormalizedName: "carprofen", NormalizedDose: &dose, NormalizedUnit: &unit}

	candidates, err := d.Disambiguate(context.Background(), mention, nil, &weight)
	if err != nil {
		t.Fatalf("Disambiguate: %v", err)
	}
	if got, want := candidates[0].ScoreBreakdown.Dose, 0.3; got != want {
		t.Errorf("dose score = %v, want %v (100mg/10kg = 10mg/kg, above 2.0-4.4)", got, want)
	}
}

func TestDisambiguateDoseScoreMissingUnitIsModerateNotFull(t *testing.T) {
	store := newTestStore(t)
	seedCatalog(t, store, types.CatalogItem{
		SKU: "carp-100", Name: "Carprofen 100mg", Active: true,
		DoseRange: &types.DoseRange{MinPerKg: 2.0, MaxPerKg: 4.4, Unit: "mg"},
	})

	d := disambiguator.New(store)
	dose := 100.0
	weight := 30.0
	// No unit: comparison against the stored per-kg range is impossible even
	// though dose and weight are both present, so this must not fall through
	// to a plausibility check against the bare numbers.
	mention := types.NormalizedMention{NormalizedName: "carprofen", NormalizedDose: &dose}

	candidates, err := d.Disambiguate(context.Background(), mention, nil, &weight)
	if err != nil {
		t.Fatalf("Disambiguate: %v", err)
	}
	if got, want := candidates[0].ScoreBreakdown.Dose, 0.6; got != want {
		t.Errorf("dose score = %v, want %v (unit missing, comparison impossible)", got, want)
	}
}

func TestDisambiguateFallsBackToRawNameWhenNormalizedMisses(t *testing.T) {
	store := newTestStore(t)
	seedCatalog(t, store, types.CatalogItem{SKU: "rim-75", Name: "Rimadyl 75mg", Active: true})

	d := disambiguator.New(store)
	mention := types.NormalizedMention{
		Original:       types.DrugMention{DrugName: "Rimadyl"},
		NormalizedName: "carprofen",
	}
	candidates, err := d.Disambiguate(context.Background(), mention, nil, nil)
	if err != nil {
		t.Fatalf("Disambiguate: %v", err)
	}
	if len(candidates) == 0 || candidates[0].SKU != "rim-75" {
		t.Errorf("expected fallback search on original drug name to find rim-75, got %+v", candidates)
	}
}
