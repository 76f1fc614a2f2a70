package nlp

// Intent is the coarse category of what a query is asking for.
type Intent string

const (
	IntentPatientSearch     Intent = "patient_search"
	IntentConditionSearch   Intent = "condition_search"
	IntentMedicationSearch  Intent = "medication_search"
	IntentObservationSearch Intent = "observation_search"
	IntentGeneralSearch     Intent = "general_search"
)

// Age filter operators as they appear on the wire.
const (
	AgeOpGreaterThan = "gt"
	AgeOpLessThan    = "lt"
	AgeOpEquals      = "eq"
	AgeOpRange       = "range"
)

// AgeFilter is a single numeric age constraint extracted from a query.
// Value is set for gt/lt/eq; Min and Max are set for range.
type AgeFilter struct {
	Operator string `json:"operator"`
	Value    *int   `json:"value,omitempty"`
	Min      *int   `json:"min,omitempty"`
	Max      *int   `json:"max,omitempty"`
}

// GreaterThan builds an age filter matching ages strictly above n.
func GreaterThan(n int) *AgeFilter {
	return &AgeFilter{Operator: AgeOpGreaterThan, Value: &n}
}

// LessThan builds an age filter matching ages strictly below n.
func LessThan(n int) *AgeFilter {
	return &AgeFilter{Operator: AgeOpLessThan, Value: &n}
}

// Equals builds an age filter matching exactly age n.
func Equals(n int) *AgeFilter {
	return &AgeFilter{Operator: AgeOpEquals, Value: &n}
}

// Range builds an age filter matching ages between min and max inclusive.
func Range(min, max int) *AgeFilter {
	return &AgeFilter{Operator: AgeOpRange, Min: &min, Max: &max}
}

// NamedEntities holds the output of the statistical tagger, bucketed into
// the four categories the downstream search cares about. Slices are always
// non-nil so they serialize as [] rather than null.
type NamedEntities struct {
	Persons []string `json:"persons"`
	Dates   []string `json:"dates"`
	Numbers []string `json:"numbers"`
	Orgs    []string `json:"orgs"`
}

// EmptyNamedEntities returns a NamedEntities value with all buckets
// initialized to empty slices.
func EmptyNamedEntities() NamedEntities {
	return NamedEntities{
		Persons: []string{},
		Dates:   []string{},
		Numbers: []string{},
		Orgs:    []string{},
	}
}

// Entities aggregates everything extracted from one query. The "spacy" JSON
// key is kept for compatibility with the frontend, which predates the
// current tagger.
type Entities struct {
	Named      NamedEntities `json:"spacy"`
	AgeFilter  *AgeFilter    `json:"age_filter"`
	Conditions []string      `json:"conditions"`
}

// ProcessedQuery is the structured interpretation of one raw query string.
// It is created fresh per call and never mutated after construction.
type ProcessedQuery struct {
	Intent        Intent   `json:"intent"`
	Entities      Entities `json:"entities"`
	OriginalQuery string   `json:"original_query"`
}
