// Package query turns natural-language clinical questions into FHIR
// searches: interpret the text, check the caller's SMART scopes for the
// target resource, then run the search against the configured data source.
package query

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Moyowalker/onye-test/internal/nlp"
	"github.com/Moyowalker/onye-test/internal/platform/auth"
	"github.com/Moyowalker/onye-test/internal/platform/metrics"
	"github.com/Moyowalker/onye-test/internal/repository"
)

// intentResources maps each search intent to the FHIR resource type the
// caller must be allowed to read.
var intentResources = map[nlp.Intent]string{
	nlp.IntentPatientSearch:     "Patient",
	nlp.IntentConditionSearch:   "Condition",
	nlp.IntentMedicationSearch:  "MedicationRequest",
	nlp.IntentObservationSearch: "Observation",
}

// generalSearchResources are the types a general search may touch. The
// caller needs read access to at least one of them.
var generalSearchResources = []string{"Patient", "Condition", "Observation"}

// ScopeError is returned when the caller's scopes do not cover the
// resource the query resolves to.
type ScopeError struct {
	Resource string
	Missing  []string
}

func (e *ScopeError) Error() string {
	return auth.MissingScopeMessage(e.Missing)
}

type Service struct {
	interp *nlp.Interpreter
	repo   repository.Repository
	log    zerolog.Logger
}

func NewService(interp *nlp.Interpreter, repo repository.Repository, log zerolog.Logger) *Service {
	return &Service{interp: interp, repo: repo, log: log}
}

// Execute interprets the query, enforces scope access for the resolved
// resource, and runs the search with the caller's filter context applied.
func (s *Service) Execute(ctx context.Context, user *auth.User, rawQuery string) (*Response, error) {
	pq := s.interp.Process(rawQuery)
	metrics.CountQuery(string(pq.Intent))

	if err := s.authorize(user, pq.Intent); err != nil {
		s.log.Warn().
			Str("user_id", user.ID).
			Str("intent", string(pq.Intent)).
			Msg("query denied by scope check")
		return nil, err
	}

	results, err := s.repo.Search(ctx, pq, user.FilterContext())
	if err != nil {
		return nil, fmt.Errorf("searching FHIR source: %w", err)
	}

	s.log.Info().
		Str("user_id", user.ID).
		Str("intent", string(pq.Intent)).
		Str("role", string(user.Role)).
		Msg("query executed")

	return &Response{ProcessedQuery: pq, Results: results}, nil
}

func (s *Service) authorize(user *auth.User, intent nlp.Intent) error {
	if resource, ok := intentResources[intent]; ok {
		if !user.CanReadResource(resource) {
			return &ScopeError{
				Resource: resource,
				Missing:  []string{fmt.Sprintf("user/%s.read", resource)},
			}
		}
		return nil
	}

	// A general search is allowed as long as the caller can read
	// something at all.
	for _, resource := range generalSearchResources {
		if user.CanReadResource(resource) {
			return nil
		}
	}
	return &ScopeError{
		Resource: "Patient",
		Missing:  []string{"user/Patient.read"},
	}
}
