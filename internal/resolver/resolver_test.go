package resolver_test

import (
	"context"
	"testing"

	"github.com/vetcore/vetcore/internal/disambiguator"
	"github.com/vetcore/vetcore/internal/normalizer"
	"github.com/vetcore/vetcore/internal/resolver"
	"github.com/vetcore/vetcore/internal/types"
)

type fakeDisambiguator struct {
	candidates []types.ScoredCandidate
	err        error
}

func (f *fakeDisambiguator) Disambiguate(ctx context.Context, mention types.NormalizedMention, species *string, weightKg *float64) ([]types.ScoredCandidate, error) {
	return f.candidates, f.err
}

func TestResolveReturnsPendingReviewWithTopAndAlternatives(t *testing.T) {
	fake := &fakeDisambiguator{candidates: []types.ScoredCandidate{
		{SKU: "a", Confidence: 0.9},
		{SKU: "b", Confidence: 0.8},
		{SKU: "c", Confidence: 0.7},
		{SKU: "d", Confidence: 0.6},
		{SKU: "e", Confidence: 0.5},
		{SKU: "f", Confidence: 0.4},
	}}
	r := resolver.New(normalizer.NewDefault(), fake)

	item, err := r.Resolve(context.Background(), resolver.Input{Mention: types.DrugMention{DrugName: "rimadyl"}})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if item.Status.Kind != types.StatusPendingReview {
		t.Errorf("expected PendingReview status, got %v", item.Status.Kind)
	}
	if item.TopCandidate == nil || item.TopCandidate.SKU != "a" {
		t.Errorf("expected top candidate 'a', got %+v", item.TopCandidate)
	}
	if len(item.Alternatives) != 4 {
		t.Errorf("expected alternatives capped at 4, got %d", len(item.Alternatives))
	}
	if item.Mention.NormalizedName != "carprofen" {
		t.Errorf("expected normalizer applied to mention, got %q", item.Mention.NormalizedName)
	}
}

func TestResolvePropagatesDisambiguatorError(t *testing.T) {
	fake := &fakeDisambiguator{err: disambiguator.ErrNoCandidates}
	r := resolver.New(normalizer.NewDefault(), fake)

	_, err := r.Resolve(context.Background(), resolver.Input{Mention: types.DrugMention{DrugName: "unknown"}})
	if err != disambiguator.ErrNoCandidates {
		t.Fatalf("expected ErrNoCandidates, got %v", err)
	}
}

func TestResolveBatchIsolatesPerItemFailure(t *testing.T) {
	good := &fakeDisambiguator{candidates: []types.ScoredCandidate{{SKU: "a", Confidence: 0.9}}}
	r := resolver.New(normalizer.NewDefault(), good)

	results := r.ResolveBatch(context.Background(), []resolver.Input{
		{Mention: types.DrugMention{DrugName: "rimadyl"}},
		{Mention: types.DrugMention{DrugName: "metacam"}},
	})
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	for i, r := range results {
		if r.Err != nil {
			t.Errorf("result %d: unexpected error %v", i, r.Err)
		}
		if r.Item == nil {
			t.Errorf("result %d: expected item, got nil", i)
		}
	}
}
