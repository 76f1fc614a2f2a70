package fhir

import (
	"encoding/json"
	"testing"
)

func TestNewSearchBundle(t *testing.T) {
	resources := []interface{}{
		map[string]interface{}{"resourceType": "Patient", "id": "P001", "name": "Moloski Ajayi"},
		map[string]interface{}{"resourceType": "Patient", "id": "P002", "name": "Dipo Ajayi"},
	}

	b := NewSearchBundle(resources, "http://localhost:8000/api/query")

	if b.ResourceType != "Bundle" || b.Type != "searchset" {
		t.Errorf("unexpected bundle envelope: %s/%s", b.ResourceType, b.Type)
	}
	if b.Total == nil || *b.Total != 2 {
		t.Errorf("expected total 2, got %v", b.Total)
	}
	if b.ID == "" {
		t.Error("expected a bundle id")
	}
	if len(b.Entry) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(b.Entry))
	}
	if b.Entry[0].FullURL != "Patient/P001" {
		t.Errorf("unexpected fullUrl: %q", b.Entry[0].FullURL)
	}
	if b.Entry[0].Search == nil || b.Entry[0].Search.Mode != "match" {
		t.Errorf("expected search mode match, got %+v", b.Entry[0].Search)
	}
	if len(b.Link) != 1 || b.Link[0].Relation != "self" {
		t.Errorf("expected a self link, got %+v", b.Link)
	}
}

func TestNewSearchBundle_Empty(t *testing.T) {
	b := NewSearchBundle(nil, "")
	if b.Total == nil || *b.Total != 0 {
		t.Errorf("expected total 0, got %v", b.Total)
	}
	if len(b.Entry) != 0 {
		t.Errorf("expected no entries, got %d", len(b.Entry))
	}
}

func TestNewSearchBundle_StructResource(t *testing.T) {
	type patient struct {
		ResourceType string `json:"resourceType"`
		ID           string `json:"id"`
	}
	b := NewSearchBundle([]interface{}{patient{ResourceType: "Patient", ID: "P003"}}, "")
	if b.Entry[0].FullURL != "Patient/P003" {
		t.Errorf("expected fullUrl from struct fields, got %q", b.Entry[0].FullURL)
	}
}

func TestOperationOutcome(t *testing.T) {
	oo := ForbiddenOutcome("missing required scope: patient/*.read")
	raw, err := json.Marshal(oo)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded OperationOutcome
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.ResourceType != "OperationOutcome" {
		t.Errorf("unexpected resourceType: %q", decoded.ResourceType)
	}
	if len(decoded.Issue) != 1 || decoded.Issue[0].Code != IssueTypeForbidden {
		t.Errorf("unexpected issues: %+v", decoded.Issue)
	}
}
