package query

import (
	"encoding/json"

	"github.com/Moyowalker/onye-test/internal/nlp"
)

// Request is the natural-language query submitted by the frontend.
type Request struct {
	Query string `json:"query"`
}

// Response pairs the interpretation of the query with the FHIR payload it
// produced, so clients can show both what was understood and what was
// found.
type Response struct {
	ProcessedQuery *nlp.ProcessedQuery `json:"processed_query"`
	Results        json.RawMessage     `json:"results"`
}
