// Package fhir holds the slice of the FHIR R4 wire format this service
// speaks: searchset Bundles for query results and OperationOutcomes for
// errors. Upstream server responses decode into the same Bundle type, so
// remote results pass through unchanged.
package fhir

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Bundle represents a FHIR Bundle resource.
type Bundle struct {
	ResourceType string        `json:"resourceType"`
	ID           string        `json:"id,omitempty"`
	Type         string        `json:"type"`
	Total        *int          `json:"total,omitempty"`
	Link         []BundleLink  `json:"link,omitempty"`
	Entry        []BundleEntry `json:"entry,omitempty"`
	Timestamp    *time.Time    `json:"timestamp,omitempty"`
}

type BundleLink struct {
	Relation string `json:"relation"`
	URL      string `json:"url"`
}

type BundleEntry struct {
	FullURL  string          `json:"fullUrl,omitempty"`
	Resource json.RawMessage `json:"resource,omitempty"`
	Search   *BundleSearch   `json:"search,omitempty"`
}

type BundleSearch struct {
	Mode string `json:"mode,omitempty"`
}

// NewSearchBundle creates a searchset Bundle from a list of resources.
// Each entry gets a fullUrl derived from the resource's type and id and a
// search mode of "match"; the bundle carries a self link and a fresh id.
func NewSearchBundle(resources []interface{}, selfURL string) *Bundle {
	now := time.Now().UTC()
	total := len(resources)

	entries := make([]BundleEntry, len(resources))
	for i, r := range resources {
		raw, _ := json.Marshal(r)
		entries[i] = BundleEntry{
			FullURL:  extractFullURL(r),
			Resource: raw,
			Search:   &BundleSearch{Mode: "match"},
		}
	}

	b := &Bundle{
		ResourceType: "Bundle",
		ID:           uuid.NewString(),
		Type:         "searchset",
		Total:        &total,
		Timestamp:    &now,
		Entry:        entries,
	}
	if selfURL != "" {
		b.Link = []BundleLink{{Relation: "self", URL: selfURL}}
	}
	return b
}

// extractFullURL builds a relative fullUrl from a resource's resourceType
// and id, when both are present.
func extractFullURL(r interface{}) string {
	m, ok := toMap(r)
	if !ok {
		return ""
	}
	rt, _ := m["resourceType"].(string)
	id, _ := m["id"].(string)
	if rt != "" && id != "" {
		return fmt.Sprintf("%s/%s", rt, id)
	}
	return ""
}

func toMap(v interface{}) (map[string]interface{}, bool) {
	switch val := v.(type) {
	case map[string]interface{}:
		return val, true
	default:
		// Round-trip structs through JSON to inspect their fields.
		raw, err := json.Marshal(v)
		if err != nil {
			return nil, false
		}
		var m map[string]interface{}
		if err := json.Unmarshal(raw, &m); err != nil {
			return nil, false
		}
		return m, true
	}
}
