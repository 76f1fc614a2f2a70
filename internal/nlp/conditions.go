package nlp

import "strings"

// conditionEntry maps a canonical condition name to the surface forms that
// should resolve to it.
type conditionEntry struct {
	Canonical string
	Synonyms  []string
}

// conditionTable is the static synonym table. Output order follows this
// table, not the order phrases appear in the query text, so extending the
// table never reshuffles existing results.
var conditionTable = []conditionEntry{
	{Canonical: "diabetes", Synonyms: []string{"diabetes", "diabetic"}},
	{Canonical: "hypertension", Synonyms: []string{"hypertension", "high blood pressure", "hbp"}},
	{Canonical: "asthma", Synonyms: []string{"asthma", "asthmatic"}},
	{Canonical: "heart disease", Synonyms: []string{"heart disease", "cardiac disease", "coronary"}},
	{Canonical: "copd", Synonyms: []string{"copd", "chronic obstructive pulmonary"}},
	{Canonical: "arthritis", Synonyms: []string{"arthritis", "arthritic"}},
}

// ExtractConditions returns the canonical names whose synonyms occur as
// substrings of the lower-cased text. Each canonical name appears at most
// once: the scan moves to the next table entry as soon as one synonym hits.
func ExtractConditions(lower string) []string {
	found := []string{}
	for _, entry := range conditionTable {
		for _, syn := range entry.Synonyms {
			if strings.Contains(lower, syn) {
				found = append(found, entry.Canonical)
				break
			}
		}
	}
	return found
}
