// Package nlp turns a free-text clinical query into a structured
// representation: an intent classification plus extracted entities (age
// constraints, canonical condition names, named entities).
//
// The extractors are deliberately table-driven — ordered lists of
// (pattern, label) pairs folded by pure functions — so their priority
// ordering is auditable and testable independently of control flow.
package nlp

import "strings"

// Interpreter composes the entity extractors and the intent classifier.
// It holds no mutable state beyond the injected tagger, so a single
// instance is safe to share across concurrent requests.
type Interpreter struct {
	tagger Tagger
}

// NewInterpreter returns an interpreter backed by the given tagger. The
// tagger is constructed once at process start and held for the process
// lifetime.
func NewInterpreter(tagger Tagger) *Interpreter {
	return &Interpreter{tagger: tagger}
}

// Process interprets one raw query. It never fails: any string, including
// the empty string, yields a well-formed result — unclassifiable input
// comes back as general_search with empty entity collections. The four
// extractors have no data dependency on each other.
func (i *Interpreter) Process(query string) *ProcessedQuery {
	lower := strings.ToLower(query)

	return &ProcessedQuery{
		Intent: ClassifyIntent(lower),
		Entities: Entities{
			Named:      i.tagger.Tag(query),
			AgeFilter:  ExtractAgeFilter(lower),
			Conditions: ExtractConditions(lower),
		},
		OriginalQuery: query,
	}
}
