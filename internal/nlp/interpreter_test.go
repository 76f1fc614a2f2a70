package nlp

import (
	"encoding/json"
	"reflect"
	"strings"
	"testing"
)

// fakeTagger returns a fixed entity set, keeping interpreter tests free of
// the statistical model.
type fakeTagger struct {
	entities NamedEntities
}

func (f *fakeTagger) Tag(text string) NamedEntities {
	return f.entities
}

func newTestInterpreter() *Interpreter {
	return NewInterpreter(&fakeTagger{entities: EmptyNamedEntities()})
}

func TestProcess_EndToEnd(t *testing.T) {
	pq := newTestInterpreter().Process("Show me diabetic patients over 50")

	if pq.Intent != IntentPatientSearch {
		t.Errorf("expected patient_search, got %s", pq.Intent)
	}
	af := pq.Entities.AgeFilter
	if af == nil || af.Operator != AgeOpGreaterThan || *af.Value != 50 {
		t.Errorf("expected gt 50, got %+v", af)
	}
	if !reflect.DeepEqual(pq.Entities.Conditions, []string{"diabetes"}) {
		t.Errorf("expected [diabetes], got %v", pq.Entities.Conditions)
	}
	if pq.OriginalQuery != "Show me diabetic patients over 50" {
		t.Errorf("original query was modified: %q", pq.OriginalQuery)
	}
}

func TestProcess_EmptyInput(t *testing.T) {
	pq := newTestInterpreter().Process("")

	if pq.Intent != IntentGeneralSearch {
		t.Errorf("expected general_search, got %s", pq.Intent)
	}
	if pq.Entities.AgeFilter != nil {
		t.Errorf("expected no age filter, got %+v", pq.Entities.AgeFilter)
	}
	if len(pq.Entities.Conditions) != 0 {
		t.Errorf("expected no conditions, got %v", pq.Entities.Conditions)
	}
	named := pq.Entities.Named
	if len(named.Persons)+len(named.Dates)+len(named.Numbers)+len(named.Orgs) != 0 {
		t.Errorf("expected empty entity buckets, got %+v", named)
	}
}

func TestProcess_Idempotent(t *testing.T) {
	interp := newTestInterpreter()
	q := "patients between 30 and 50 with asthma"

	a := interp.Process(q)
	b := interp.Process(q)
	if !reflect.DeepEqual(a, b) {
		t.Errorf("two calls disagree:\n%+v\n%+v", a, b)
	}
	if a.Entities.AgeFilter.Operator != AgeOpRange {
		t.Errorf("expected range, got %s", a.Entities.AgeFilter.Operator)
	}
}

func TestProcess_WireShape(t *testing.T) {
	interp := NewInterpreter(&fakeTagger{entities: NamedEntities{
		Persons: []string{"Mary Williams"},
		Dates:   []string{},
		Numbers: []string{"50"},
		Orgs:    []string{},
	}})
	pq := interp.Process("patients over 50")

	raw, err := json.Marshal(pq)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	body := string(raw)

	for _, want := range []string{
		`"intent":"patient_search"`,
		`"spacy"`,
		`"persons":["Mary Williams"]`,
		`"age_filter":{"operator":"gt","value":50}`,
		`"conditions":[]`,
		`"original_query":"patients over 50"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("response body missing %s:\n%s", want, body)
		}
	}
}

func TestProcess_AgeFilterAbsentSerializesNull(t *testing.T) {
	raw, err := json.Marshal(newTestInterpreter().Process("anything at all"))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(raw), `"age_filter":null`) {
		t.Errorf("expected explicit null age_filter:\n%s", raw)
	}
}
