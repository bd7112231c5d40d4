package sqlite

import (
	"regexp"
	"strings"
)

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)

// ftsQuery turns a free-text query into an FTS5 MATCH expression: each
// token becomes a prefix match (token*), tolerating punctuation and casing
// differences the way a clinician's free-text entry does (spec.md §4.A's
// full-text index over (sku, name, aliases_joined)).
func ftsQuery(raw string) string {
	lower := strings.ToLower(strings.TrimSpace(raw))
	normalized := nonAlphanumeric.ReplaceAllString(lower, " ")
	tokens := strings.Fields(normalized)
	if len(tokens) == 0 {
		return ""
	}
	for i, tok := range tokens {
		tokens[i] = tok + "*"
	}
	return strings.Join(tokens, " ")
}
