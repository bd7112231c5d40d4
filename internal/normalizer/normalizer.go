package normalizer

import (
	"strings"

	"github.com/vetcore/vetcore/internal/types"
)

// Normalizer normalizes drug mentions against an alias table, a unit
// conversion table, and a route table. The zero value is unusable; use New
// or NewDefault.
type Normalizer struct {
	aliases map[string]string
	units   map[string]UnitConversion
	routes  map[string]string
}

// NewDefault builds a Normalizer over the built-in alias/unit/route tables.
func NewDefault() *Normalizer {
	return New(nil, nil, nil)
}

// New builds a Normalizer over the built-in tables, merged with any
// caller-supplied extensions (which take precedence on key collision).
// This is the construction-time extension point called for by spec.md §9.
func New(extraAliases map[string]string, extraUnits map[string]UnitConversion, extraRoutes map[string]string) *Normalizer {
	n := &Normalizer{
		aliases: cloneStringMap(defaultAliases),
		units:   cloneUnitMap(defaultUnits),
		routes:  cloneStringMap(defaultRoutes),
	}
	for k, v := range extraAliases {
		n.aliases[strings.ToLower(k)] = v
	}
	for k, v := range extraUnits {
		n.units[strings.ToLower(k)] = v
	}
	for k, v := range extraRoutes {
		n.routes[strings.ToLower(k)] = v
	}
	return n
}

func cloneStringMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneUnitMap(m map[string]UnitConversion) map[string]UnitConversion {
	out := make(map[string]UnitConversion, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// ExpandAlias maps a brand/abbreviation name to its canonical ingredient
// name, case-insensitively. Unknown names pass through lowercased
// (spec.md §4.B).
func (n *Normalizer) ExpandAlias(name string) string {
	if canon, ok := lookupFold(n.aliases, name); ok {
		return canon
	}
	return strings.ToLower(strings.TrimSpace(name))
}

// ConvertUnit converts dose from the given raw unit into its canonical
// unit, returning the converted dose and the canonical unit name. If the
// unit is unrecognized, it is uppercased as-is and the dose is returned
// unchanged.
func (n *Normalizer) ConvertUnit(dose float64, unit string) (float64, string) {
	key := strings.ToLower(strings.TrimSpace(unit))
	if conv, ok := n.units[key]; ok {
		return dose * conv.Multiplier, conv.Canonical
	}
	return dose, strings.ToUpper(strings.TrimSpace(unit))
}

// CanonicalRoute maps a spoken route form to its canonical abbreviation.
// Unknown routes are uppercased as-is (spec.md §4.B).
func (n *Normalizer) CanonicalRoute(route string) string {
	if canon, ok := lookupFold(n.routes, route); ok {
		return canon
	}
	return strings.ToUpper(strings.TrimSpace(route))
}

// Normalize maps a DrugMention to its NormalizedMention. The original
// mention is preserved verbatim. When dose or unit is absent, the pair is
// passed through unchanged rather than multiplied (spec.md §4.B).
func (n *Normalizer) Normalize(m types.DrugMention) types.NormalizedMention {
	out := types.NormalizedMention{
		Original:       m,
		NormalizedName: n.ExpandAlias(m.DrugName),
	}

	if m.Route != nil {
		route := n.CanonicalRoute(*m.Route)
		out.NormalizedRoute = route
	}

	switch {
	case m.Dose != nil && m.Unit != nil:
		dose, unit := n.ConvertUnit(*m.Dose, *m.Unit)
		out.NormalizedDose = &dose
		out.NormalizedUnit = &unit
	case m.Dose != nil:
		dose := *m.Dose
		out.NormalizedDose = &dose
	case m.Unit != nil:
		unit := *m.Unit
		out.NormalizedUnit = &unit
	}

	return out
}
