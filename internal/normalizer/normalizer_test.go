package normalizer_test

import (
	"testing"

	"github.com/vetcore/vetcore/internal/normalizer"
	"github.com/vetcore/vetcore/internal/types"
)

func ptr[T any](v T) *T { return &v }

func TestExpandAlias(t *testing.T) {
	n := normalizer.NewDefault()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"known brand name", "Rimadyl", "carprofen"},
		{"case insensitive", "RIMADYL", "carprofen"},
		{"leading/trailing whitespace", "  Metacam  ", "meloxicam"},
		{"unknown name passes through lowercased", "Xylazine", "xylazine"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := n.ExpandAlias(tt.in); got != tt.want {
				t.Errorf("ExpandAlias(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestConvertUnit(t *testing.T) {
	n := normalizer.NewDefault()

	tests := []struct {
		name     string
		dose     float64
		unit     string
		wantDose float64
		wantUnit string
	}{
		{"ml passthrough", 5, "ml", 5, "mL"},
		{"mcg to mg", 500, "mcg", 0.5, "mg"},
		{"g to mg", 1, "g", 1000, "mg"},
		{"kg to mg", 1, "kg", 1e6, "mg"},
		{"unknown unit uppercased, dose unchanged", 3, "drops", 3, "DROPS"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dose, unit := n.ConvertUnit(tt.dose, tt.unit)
			if dose != tt.wantDose || unit != tt.wantUnit {
				t.Errorf("ConvertUnit(%v, %q) = (%v, %q), want (%v, %q)",
					tt.dose, tt.unit, dose, unit, tt.wantDose, tt.wantUnit)
			}
		})
	}
}

func TestCanonicalRoute(t *testing.T) {
	n := normalizer.NewDefault()

	tests := []struct{ in, want string }{
		{"by mouth", "PO"},
		{"Orally", "PO"},
		{"subq", "SQ"},
		{"unknown-route", "UNKNOWN-ROUTE"},
	}
	for _, tt := range tests {
		if got := n.CanonicalRoute(tt.in); got != tt.want {
			t.Errorf("CanonicalRoute(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// TestNormalizeIdempotent checks spec.md §8.1: normalizing an already
// normalized mention (round-tripped through AsMention) yields the same
// canonical fields.
func TestNormalizeIdempotent(t *testing.T) {
	n := normalizer.NewDefault()

	mention := types.DrugMention{
		RawText:  "rimadyl 50mg by mouth",
		DrugName: "Rimadyl",
		Dose:     ptr(50.0),
		Unit:     ptr("mg"),
		Route:    ptr("by mouth"),
	}

	first := n.Normalize(mention)
	second := n.Normalize(first.AsMention())

	if first.NormalizedName != second.NormalizedName {
		t.Errorf("name not idempotent: %q vs %q", first.NormalizedName, second.NormalizedName)
	}
	if first.NormalizedRoute != second.NormalizedRoute {
		t.Errorf("route not idempotent: %q vs %q", first.NormalizedRoute, second.NormalizedRoute)
	}
	if *first.NormalizedDose != *second.NormalizedDose {
		t.Errorf("dose not idempotent: %v vs %v", *first.NormalizedDose, *second.NormalizedDose)
	}
	if *first.NormalizedUnit != *second.NormalizedUnit {
		t.Errorf("unit not idempotent: %q vs %q", *first.NormalizedUnit, *second.NormalizedUnit)
	}
}

func TestNormalizeWithoutDoseOrUnitPassesThrough(t *testing.T) {
	n := normalizer.NewDefault()
	out := n.Normalize(types.DrugMention{DrugName: "Rimadyl"})
	if out.NormalizedDose != nil {
		t.Errorf("expected nil dose when mention has none, got %v", *out.NormalizedDose)
	}
	if out.NormalizedUnit != nil {
		t.Errorf("expected nil unit when mention has none, got %q", *out.NormalizedUnit)
	}
}

func TestNormalizeUnitAloneIsPassedThroughVerbatim(t *testing.T) {
	n := normalizer.NewDefault()
	out := n.Normalize(types.DrugMention{DrugName: "Rimadyl", Unit: ptr("cc")})
	if out.NormalizedDose != nil {
		t.Errorf("expected nil dose when mention has none, got %v", *out.NormalizedDose)
	}
	if out.NormalizedUnit == nil || *out.NormalizedUnit != "cc" {
		t.Errorf("expected unit passed through verbatim as %q, got %v", "cc", out.NormalizedUnit)
	}
}

func TestExtensionTablesTakePrecedence(t *testing.T) {
	n := normalizer.New(
		map[string]string{"rimadyl": "overridden-name"},
		map[string]normalizer.UnitConversion{"ml": {Canonical: "milliliters-custom", Multiplier: 2}},
		map[string]string{"by mouth": "CUSTOM-PO"},
	)

	if got := n.ExpandAlias("Rimadyl"); got != "overridden-name" {
		t.Errorf("extension alias not applied, got %q", got)
	}
	if dose, unit := n.ConvertUnit(1, "ml"); dose != 2 || unit != "milliliters-custom" {
		t.Errorf("extension unit not applied, got (%v, %q)", dose, unit)
	}
	if got := n.CanonicalRoute("by mouth"); got != "CUSTOM-PO" {
		t.Errorf("extension route not applied, got %q", got)
	}

	// Built-in entries not touched by the extension still resolve normally.
	if got := n.ExpandAlias("Metacam"); got != "meloxicam" {
		t.Errorf("unrelated built-in alias affected by extension, got %q", got)
	}
}
