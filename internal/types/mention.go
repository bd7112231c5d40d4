package types

// DrugMention is the extractor's raw token for a drug reference in a
// transcript: the schema consumed from the (out-of-scope) NER extractor,
// per spec.md §6.
type DrugMention struct {
	RawText      string   `json:"raw_text"`
	DrugName     string   `json:"drug_name"`
	Dose         *float64 `json:"dose,omitempty"`
	Unit         *string  `json:"unit,omitempty"`
	Route        *string  `json:"route,omitempty"`
	Species      *string  `json:"species,omitempty"`
	StartOffset  int      `json:"start_offset"`
	EndOffset    int      `json:"end_offset"`
}

// MentionBatch is the top-level envelope the extractor emits, per
// spec.md §6's mention-input schema.
type MentionBatch struct {
	Mentions []DrugMention `json:"mentions"`
}

// NormalizedMention wraps the original mention with the normalizer's
// canonical output fields. The original mention is preserved verbatim.
type NormalizedMention struct {
	Original        DrugMention `json:"original"`
	NormalizedName  string      `json:"normalized_name"`
	NormalizedDose  *float64    `json:"normalized_dose,omitempty"`
	NormalizedUnit  *string     `json:"normalized_unit,omitempty"`
	NormalizedRoute string      `json:"normalized_route"`
}

// AsMention reconstructs a DrugMention from a NormalizedMention's canonical
// fields, used to test normalization idempotence (spec.md §8.1).
func (n NormalizedMention) AsMention() DrugMention {
	m := n.Original
	m.DrugName = n.NormalizedName
	m.Dose = n.NormalizedDose
	m.Unit = n.NormalizedUnit
	route := n.NormalizedRoute
	m.Route = &route
	return m
}

// ScoreBreakdown carries the four sub-scores that compose a candidate's
// confidence, per spec.md §4.C.
type ScoreBreakdown struct {
	Name    float64 `json:"name"`
	Species float64 `json:"species"`
	Route   float64 `json:"route"`
	Dose    float64 `json:"dose"`
}

// Weighted combines the four sub-scores using the spec's fixed weights
// (0.40/0.25/0.20/0.15), matching spec.md §8.4's confidence equation.
func (s ScoreBreakdown) Weighted() float64 {
	return 0.40*s.Name + 0.25*s.Species + 0.20*s.Route + 0.15*s.Dose
}

// ScoredCandidate is one catalog item scored against a NormalizedMention.
type ScoredCandidate struct {
	SKU            string         `json:"sku"`
	Name           string         `json:"name"`
	Confidence     float64        `json:"confidence"`
	ScoreBreakdown ScoreBreakdown `json:"score_breakdown"`
}

// ResolutionStatus is a tagged variant over a ResolvedItem's disposition.
// Modeled as a struct with a Kind discriminant plus an optional SKU payload
// rather than nullable fields. The constructors below set SKU only for
// AlternativeSelected and ManualOverride; the struct itself does not stop
// another Kind from carrying one (spec.md §9 design note).
type ResolutionStatus struct {
	Kind ResolutionKind `json:"kind"`
	SKU  string         `json:"sku,omitempty"`
}

// ResolutionKind enumerates the resolution status variants.
type ResolutionKind string

const (
	StatusPendingReview       ResolutionKind = "pending_review"
	StatusApproved            ResolutionKind = "approved"
	StatusAlternativeSelected ResolutionKind = "alternative_selected"
	StatusManualOverride      ResolutionKind = "manual_override"
	StatusRejected            ResolutionKind = "rejected"
)

// PendingReview constructs the PendingReview status.
func PendingReview() ResolutionStatus { return ResolutionStatus{Kind: StatusPendingReview} }

// Approved constructs the Approved status.
func Approved() ResolutionStatus { return ResolutionStatus{Kind: StatusApproved} }

// AlternativeSelected constructs the AlternativeSelected status for sku.
func AlternativeSelected(sku string) ResolutionStatus {
	return ResolutionStatus{Kind: StatusAlternativeSelected, SKU: sku}
}

// ManualOverride constructs the ManualOverride status for sku.
func ManualOverride(sku string) ResolutionStatus {
	return ResolutionStatus{Kind: StatusManualOverride, SKU: sku}
}

// Rejected constructs the Rejected status.
func Rejected() ResolutionStatus { return ResolutionStatus{Kind: StatusRejected} }

// IsPending reports whether the status is still awaiting clinician review.
func (s ResolutionStatus) IsPending() bool {
	return s.Kind == StatusPendingReview
}

// ResolvedItem is a normalized mention together with its top candidate and
// up to four ranked alternatives (spec.md §3).
type ResolvedItem struct {
	Mention      NormalizedMention `json:"mention"`
	TopCandidate *ScoredCandidate  `json:"top_candidate"`
	Alternatives []ScoredCandidate `json:"alternatives"`
	Status       ResolutionStatus  `json:"status"`
}
