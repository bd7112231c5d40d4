// Package resolver composes the normalizer and disambiguator into the
// single operation consumed by the rest of the core: normalize a mention,
// retrieve and score candidates, and wrap the result in a ResolvedItem
// (spec.md §4.D).
package resolver

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/vetcore/vetcore/internal/disambiguator"
	"github.com/vetcore/vetcore/internal/normalizer"
	"github.com/vetcore/vetcore/internal/types"
)

var tracer = otel.Tracer("github.com/vetcore/vetcore/internal/resolver")

// Disambiguator is the subset of disambiguator.Disambiguator the resolver
// needs, scoped narrowly in the style of internal/decision/iterate.go's
// Storage interface.
type Disambiguator interface {
	Disambiguate(ctx context.Context, mention types.NormalizedMention, species *string, weightKg *float64) ([]types.ScoredCandidate, error)
}

// Resolver is a thin composition of a Normalizer and a Disambiguator. It
// never sets any ResolvedItem status other than PendingReview
// (spec.md §4.D).
type Resolver struct {
	normalizer    *normalizer.Normalizer
	disambiguator Disambiguator
}

// New builds a Resolver over norm and disambig.
func New(norm *normalizer.Normalizer, disambig Disambiguator) *Resolver {
	return &Resolver{normalizer: norm, disambiguator: disambig}
}

// Input bundles the optional patient context a single resolution may use.
type Input struct {
	Mention  types.DrugMention
	Species  *string
	WeightKg *float64
}

// Resolve normalizes and disambiguates one mention, returning a
// ResolvedItem with status PendingReview. If disambiguation yields no
// candidates, it returns disambiguator.ErrNoCandidates.
func (r *Resolver) Resolve(ctx context.Context, in Input) (*types.ResolvedItem, error) {
	ctx, span := tracer.Start(ctx, "resolver.Resolve")
	defer span.End()
	span.SetAttributes(attribute.String("mention.drug_name", in.Mention.DrugName))

	normalized := r.normalizer.Normalize(in.Mention)

	candidates, err := r.disambiguator.Disambiguate(ctx, normalized, in.Species, in.WeightKg)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	top := candidates[0]
	alternatives := candidates[1:]
	if len(alternatives) > 4 {
		alternatives = alternatives[:4]
	}

	return &types.ResolvedItem{
		Mention:      normalized,
		TopCandidate: &top,
		Alternatives: alternatives,
		Status:       types.PendingReview(),
	}, nil
}

// BatchResult pairs one input mention's outcome: exactly one of Item or Err
// is set.
type BatchResult struct {
	Item *types.ResolvedItem
	Err  error
}

// ResolveBatch resolves every input independently, returning one result per
// input with per-item success/failure (spec.md §4.D).
func (r *Resolver) ResolveBatch(ctx context.Context, inputs []Input) []BatchResult {
	ctx, span := tracer.Start(ctx, "resolver.ResolveBatch")
	defer span.End()
	span.SetAttributes(attribute.Int("mention.count", len(inputs)))

	results := make([]BatchResult, len(inputs))
	for i, in := range inputs {
		item, err := r.Resolve(ctx, in)
		results[i] = BatchResult{Item: item, Err: err}
	}
	return results
}
