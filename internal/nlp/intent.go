package nlp

import "strings"

// intentRule pairs an intent with the keywords that trigger it.
type intentRule struct {
	Intent   Intent
	Keywords []string
}

// intentRules is the ordered classification table. Earlier rules win, so a
// query mentioning both "patient" and "medication" classifies as
// patient_search. The order is a deliberate tie-break policy, not an
// accident of iteration.
var intentRules = []intentRule{
	{Intent: IntentPatientSearch, Keywords: []string{"patient"}},
	{Intent: IntentConditionSearch, Keywords: []string{"condition", "diagnosis"}},
	{Intent: IntentMedicationSearch, Keywords: []string{"medication", "prescription"}},
	{Intent: IntentObservationSearch, Keywords: []string{"observation", "vital"}},
}

// ClassifyIntent returns the first intent whose keyword set has a substring
// hit in the lower-cased text, or general_search when nothing matches.
func ClassifyIntent(lower string) Intent {
	for _, rule := range intentRules {
		for _, kw := range rule.Keywords {
			if strings.Contains(lower, kw) {
				return rule.Intent
			}
		}
	}
	return IntentGeneralSearch
}
