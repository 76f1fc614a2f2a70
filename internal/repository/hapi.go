package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Moyowalker/onye-test/internal/nlp"
	"github.com/Moyowalker/onye-test/internal/platform/auth"
)

const defaultHAPITimeout = 10 * time.Second

// HAPIRepository is a read-only REST client for a public HAPI FHIR R4
// server. It converts the interpreted query into FHIR search parameters
// and passes the server's response through untouched.
type HAPIRepository struct {
	base   string
	client *http.Client
	now    func() time.Time
}

// NewHAPIRepository creates a client for the given base URL, e.g.
// https://hapi.fhir.org/baseR4.
func NewHAPIRepository(baseURL string, timeout time.Duration) *HAPIRepository {
	if timeout <= 0 {
		timeout = defaultHAPITimeout
	}
	return &HAPIRepository{
		base:   strings.TrimRight(baseURL, "/"),
		client: &http.Client{Timeout: timeout},
		now:    time.Now,
	}
}

// Search translates the interpreted query into a FHIR REST search. Intents
// with no mapped resource search fall back to the server's capability
// statement, which at least demonstrates connectivity.
func (r *HAPIRepository) Search(ctx context.Context, pq *nlp.ProcessedQuery, fc *auth.FilterContext) (json.RawMessage, error) {
	switch pq.Intent {
	case nlp.IntentPatientSearch:
		return r.get(ctx, "Patient", r.patientParams(pq, fc))
	case nlp.IntentConditionSearch:
		return r.get(ctx, "Condition", conditionParams(pq, fc))
	case nlp.IntentMedicationSearch:
		return r.get(ctx, "MedicationRequest", patientContextParams(fc))
	case nlp.IntentObservationSearch:
		params := patientContextParams(fc)
		params.Set("category", "vital-signs")
		return r.get(ctx, "Observation", params)
	default:
		return r.get(ctx, "metadata", nil)
	}
}

func (r *HAPIRepository) patientParams(pq *nlp.ProcessedQuery, fc *auth.FilterContext) url.Values {
	params := url.Values{}

	if w := BirthdateWindowFromAge(pq.Entities.AgeFilter, r.now()); w != nil {
		for _, v := range w.SearchValues() {
			params.Add("birthdate", v)
		}
	}
	if persons := pq.Entities.Named.Persons; len(persons) > 0 {
		params.Set("name", persons[0])
	}
	if fc != nil && fc.FilterPatientID != "" {
		params.Set("_id", fc.FilterPatientID)
	}
	return params
}

func conditionParams(pq *nlp.ProcessedQuery, fc *auth.FilterContext) url.Values {
	params := patientContextParams(fc)
	if conds := pq.Entities.Conditions; len(conds) > 0 {
		params.Set("_text", conds[0])
	}
	return params
}

// patientContextParams restricts a search to the launch patient when the
// caller's access is patient-scoped.
func patientContextParams(fc *auth.FilterContext) url.Values {
	params := url.Values{}
	if fc != nil && fc.FilterPatientID != "" {
		params.Set("patient", fc.FilterPatientID)
	}
	return params
}

func (r *HAPIRepository) get(ctx context.Context, path string, params url.Values) (json.RawMessage, error) {
	u := r.base + "/" + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/fhir+json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", u, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response from %s: %w", u, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("FHIR server returned status %d for %s", resp.StatusCode, path)
	}
	return json.RawMessage(body), nil
}
