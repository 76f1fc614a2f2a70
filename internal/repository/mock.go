package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/Moyowalker/onye-test/internal/nlp"
	"github.com/Moyowalker/onye-test/internal/platform/auth"
	"github.com/Moyowalker/onye-test/internal/platform/fhir"
)

// PatientRecord is a demo patient fixture.
type PatientRecord struct {
	ID        string
	Name      string
	BirthDate string
	Gender    string
}

// ConditionRecord is a demo condition fixture. Code is a SNOMED CT code.
type ConditionRecord struct {
	ID          string
	PatientID   string
	PatientName string
	Code        string
	Display     string
	OnsetDate   string
}

// MedicationRecord is a demo medication fixture.
type MedicationRecord struct {
	ID         string
	PatientID  string
	Medication string
	Dosage     string
	Frequency  string
}

// ObservationRecord is a demo vital-sign fixture.
type ObservationRecord struct {
	ID        string
	PatientID string
	Type      string
	Value     string
	Unit      string
	Date      string
}

var mockPatients = []PatientRecord{
	{ID: "P001", Name: "Moloski Ajayi", BirthDate: "1985-03-15", Gender: "male"},
	{ID: "P002", Name: "Dipo Ajayi", BirthDate: "1990-07-22", Gender: "female"},
	{ID: "P003", Name: "Bob Johnson", BirthDate: "1978-11-30", Gender: "male"},
	{ID: "P004", Name: "Mary Williams", BirthDate: "1965-05-12", Gender: "female"},
	{ID: "P005", Name: "James Brown", BirthDate: "1955-09-20", Gender: "male"},
	{ID: "P006", Name: "Sarah Davis", BirthDate: "2000-02-14", Gender: "female"},
}

var mockConditions = []ConditionRecord{
	{ID: "C001", PatientID: "P001", PatientName: "Moloski Ajayi", Code: "38341003", Display: "Hypertension", OnsetDate: "2020-01-15"},
	{ID: "C002", PatientID: "P002", PatientName: "Dipo Ajayi", Code: "73211009", Display: "Diabetes mellitus", OnsetDate: "2019-06-10"},
	{ID: "C003", PatientID: "P004", PatientName: "Mary Williams", Code: "73211009", Display: "Diabetes mellitus", OnsetDate: "2015-03-22"},
	{ID: "C004", PatientID: "P005", PatientName: "James Brown", Code: "38341003", Display: "Hypertension", OnsetDate: "2010-07-18"},
	{ID: "C005", PatientID: "P005", PatientName: "James Brown", Code: "195967001", Display: "Asthma", OnsetDate: "2008-11-05"},
}

var mockMedications = []MedicationRecord{
	{ID: "M001", PatientID: "P001", Medication: "Lisinopril", Dosage: "10mg", Frequency: "Once daily"},
	{ID: "M002", PatientID: "P002", Medication: "Metformin", Dosage: "500mg", Frequency: "Twice daily"},
}

// MockRepository serves the static fixture dataset with age, condition and
// patient-context filtering applied in memory.
type MockRepository struct {
	now func() time.Time
}

// NewMockRepository creates the fixture-backed repository.
func NewMockRepository() *MockRepository {
	return &MockRepository{now: time.Now}
}

// Search filters the fixtures by the interpreted query and returns a
// searchset Bundle. An unclassified query yields an empty bundle rather
// than an error.
func (r *MockRepository) Search(ctx context.Context, pq *nlp.ProcessedQuery, fc *auth.FilterContext) (json.RawMessage, error) {
	today := r.now()

	var resources []interface{}
	switch pq.Intent {
	case nlp.IntentPatientSearch:
		resources = r.searchPatients(pq, fc, today)
	case nlp.IntentConditionSearch:
		resources = r.searchConditions(pq, fc)
	case nlp.IntentMedicationSearch:
		resources = r.searchMedications(fc)
	case nlp.IntentObservationSearch:
		resources = r.searchObservations(fc, today)
	default:
		resources = []interface{}{}
	}

	bundle := fhir.NewSearchBundle(resources, "")
	raw, err := json.Marshal(bundle)
	if err != nil {
		return nil, fmt.Errorf("encoding bundle: %w", err)
	}
	return raw, nil
}

func (r *MockRepository) searchPatients(pq *nlp.ProcessedQuery, fc *auth.FilterContext, today time.Time) []interface{} {
	var out []interface{}
	for _, p := range mockPatients {
		if restricted(fc, p.ID) {
			continue
		}
		if af := pq.Entities.AgeFilter; af != nil {
			birth, err := time.Parse("2006-01-02", p.BirthDate)
			if err != nil || !MatchesAge(CalculateAge(birth, today), af) {
				continue
			}
		}
		out = append(out, patientResource(p, today))
	}
	if out == nil {
		out = []interface{}{}
	}
	return out
}

func (r *MockRepository) searchConditions(pq *nlp.ProcessedQuery, fc *auth.FilterContext) []interface{} {
	var out []interface{}
	for _, c := range mockConditions {
		if restricted(fc, c.PatientID) {
			continue
		}
		if len(pq.Entities.Conditions) > 0 && !displayMatches(c.Display, pq.Entities.Conditions) {
			continue
		}
		out = append(out, conditionResource(c))
	}
	if out == nil {
		out = []interface{}{}
	}
	return out
}

func (r *MockRepository) searchMedications(fc *auth.FilterContext) []interface{} {
	var out []interface{}
	for _, m := range mockMedications {
		if restricted(fc, m.PatientID) {
			continue
		}
		out = append(out, medicationResource(m))
	}
	if out == nil {
		out = []interface{}{}
	}
	return out
}

func (r *MockRepository) searchObservations(fc *auth.FilterContext, today time.Time) []interface{} {
	var out []interface{}
	for _, o := range generateObservations(today) {
		if restricted(fc, o.PatientID) {
			continue
		}
		out = append(out, observationResource(o))
	}
	if out == nil {
		out = []interface{}{}
	}
	return out
}

// generateObservations produces a rolling window of weekly blood pressure
// readings for the first fixture patient.
func generateObservations(today time.Time) []ObservationRecord {
	obs := make([]ObservationRecord, 0, 5)
	for i := 0; i < 5; i++ {
		obs = append(obs, ObservationRecord{
			ID:        fmt.Sprintf("O%03d", i),
			PatientID: "P001",
			Type:      "Blood Pressure",
			Value:     fmt.Sprintf("%d/%d", 110+rand.Intn(31), 70+rand.Intn(21)),
			Unit:      "mmHg",
			Date:      today.AddDate(0, 0, -i*7).Format("2006-01-02"),
		})
	}
	return obs
}

// restricted reports whether the filter context excludes records for the
// given patient.
func restricted(fc *auth.FilterContext, patientID string) bool {
	return fc != nil && fc.FilterPatientID != "" && fc.FilterPatientID != patientID
}

// displayMatches reports whether any extracted condition name occurs in
// the record's display text.
func displayMatches(display string, conditions []string) bool {
	lower := strings.ToLower(display)
	for _, c := range conditions {
		if strings.Contains(lower, strings.ToLower(c)) {
			return true
		}
	}
	return false
}

func patientResource(p PatientRecord, today time.Time) map[string]interface{} {
	res := map[string]interface{}{
		"resourceType": "Patient",
		"id":           p.ID,
		"name":         []map[string]interface{}{{"text": p.Name}},
		"gender":       p.Gender,
		"birthDate":    p.BirthDate,
	}
	if birth, err := time.Parse("2006-01-02", p.BirthDate); err == nil {
		res["extension"] = []map[string]interface{}{{
			"url":          "http://example.org/fhir/StructureDefinition/patient-age",
			"valueInteger": CalculateAge(birth, today),
		}}
	}
	return res
}

func conditionResource(c ConditionRecord) map[string]interface{} {
	return map[string]interface{}{
		"resourceType": "Condition",
		"id":           c.ID,
		"subject": map[string]interface{}{
			"reference": "Patient/" + c.PatientID,
			"display":   c.PatientName,
		},
		"code": map[string]interface{}{
			"coding": []map[string]interface{}{{
				"system":  "http://snomed.info/sct",
				"code":    c.Code,
				"display": c.Display,
			}},
			"text": c.Display,
		},
		"onsetDateTime": c.OnsetDate,
	}
}

func medicationResource(m MedicationRecord) map[string]interface{} {
	return map[string]interface{}{
		"resourceType": "MedicationStatement",
		"id":           m.ID,
		"subject":      map[string]interface{}{"reference": "Patient/" + m.PatientID},
		"medicationCodeableConcept": map[string]interface{}{
			"text": m.Medication,
		},
		"dosage": []map[string]interface{}{{
			"text": m.Dosage + " " + m.Frequency,
		}},
	}
}

func observationResource(o ObservationRecord) map[string]interface{} {
	return map[string]interface{}{
		"resourceType": "Observation",
		"id":           o.ID,
		"status":       "final",
		"category": []map[string]interface{}{{
			"coding": []map[string]interface{}{{
				"system": "http://terminology.hl7.org/CodeSystem/observation-category",
				"code":   "vital-signs",
			}},
		}},
		"code":              map[string]interface{}{"text": o.Type},
		"subject":           map[string]interface{}{"reference": "Patient/" + o.PatientID},
		"valueString":       o.Value + " " + o.Unit,
		"effectiveDateTime": o.Date,
	}
}
