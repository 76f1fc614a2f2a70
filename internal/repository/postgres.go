package repository

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Moyowalker/onye-test/internal/nlp"
	"github.com/Moyowalker/onye-test/internal/platform/auth"
	"github.com/Moyowalker/onye-test/internal/platform/fhir"
)

//go:embed schema.sql
var schemaSQL string

// PostgresRepository serves the same record shapes as the fixture source
// from Postgres, pushing age and patient-context filters into SQL.
type PostgresRepository struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewPostgresRepository wraps an existing connection pool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool, now: time.Now}
}

// Migrate creates the schema and seeds it with the demo dataset. Idempotent.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}
	return nil
}

// Search runs the structured query against the per-intent table and
// returns a searchset Bundle. Unclassified queries yield an empty bundle.
func (r *PostgresRepository) Search(ctx context.Context, pq *nlp.ProcessedQuery, fc *auth.FilterContext) (json.RawMessage, error) {
	var (
		resources []interface{}
		err       error
	)

	switch pq.Intent {
	case nlp.IntentPatientSearch:
		resources, err = r.queryPatients(ctx, pq, fc)
	case nlp.IntentConditionSearch:
		resources, err = r.queryConditions(ctx, pq, fc)
	case nlp.IntentMedicationSearch:
		resources, err = r.queryMedications(ctx, fc)
	case nlp.IntentObservationSearch:
		resources, err = r.queryObservations(ctx, fc)
	default:
		resources = []interface{}{}
	}
	if err != nil {
		return nil, err
	}

	raw, err := json.Marshal(fhir.NewSearchBundle(resources, ""))
	if err != nil {
		return nil, fmt.Errorf("encoding bundle: %w", err)
	}
	return raw, nil
}

func (r *PostgresRepository) queryPatients(ctx context.Context, pq *nlp.ProcessedQuery, fc *auth.FilterContext) ([]interface{}, error) {
	q := `SELECT id, name, to_char(birth_date, 'YYYY-MM-DD'), gender FROM patients`
	var (
		clauses []string
		args    []interface{}
	)

	if w := BirthdateWindowFromAge(pq.Entities.AgeFilter, r.now()); w != nil {
		if !w.NotBefore.IsZero() {
			args = append(args, w.NotBefore)
			clauses = append(clauses, fmt.Sprintf("birth_date >= $%d", len(args)))
		}
		if !w.NotAfter.IsZero() {
			args = append(args, w.NotAfter)
			clauses = append(clauses, fmt.Sprintf("birth_date <= $%d", len(args)))
		}
	}
	if fc != nil && fc.FilterPatientID != "" {
		args = append(args, fc.FilterPatientID)
		clauses = append(clauses, fmt.Sprintf("id = $%d", len(args)))
	}
	q += whereClause(clauses) + ` ORDER BY id`

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying patients: %w", err)
	}
	defer rows.Close()

	today := r.now()
	var out []interface{}
	for rows.Next() {
		var p PatientRecord
		if err := rows.Scan(&p.ID, &p.Name, &p.BirthDate, &p.Gender); err != nil {
			return nil, fmt.Errorf("scanning patient: %w", err)
		}
		out = append(out, patientResource(p, today))
	}
	return emptyIfNil(out), rows.Err()
}

func (r *PostgresRepository) queryConditions(ctx context.Context, pq *nlp.ProcessedQuery, fc *auth.FilterContext) ([]interface{}, error) {
	q := `SELECT id, patient_id, patient_name, code, display, to_char(onset_date, 'YYYY-MM-DD') FROM conditions`
	var (
		clauses []string
		args    []interface{}
	)

	if conds := pq.Entities.Conditions; len(conds) > 0 {
		var likes []string
		for _, c := range conds {
			args = append(args, "%"+c+"%")
			likes = append(likes, fmt.Sprintf("display ILIKE $%d", len(args)))
		}
		clauses = append(clauses, "("+joinOr(likes)+")")
	}
	if fc != nil && fc.FilterPatientID != "" {
		args = append(args, fc.FilterPatientID)
		clauses = append(clauses, fmt.Sprintf("patient_id = $%d", len(args)))
	}
	q += whereClause(clauses) + ` ORDER BY id`

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying conditions: %w", err)
	}
	defer rows.Close()

	var out []interface{}
	for rows.Next() {
		var c ConditionRecord
		if err := rows.Scan(&c.ID, &c.PatientID, &c.PatientName, &c.Code, &c.Display, &c.OnsetDate); err != nil {
			return nil, fmt.Errorf("scanning condition: %w", err)
		}
		out = append(out, conditionResource(c))
	}
	return emptyIfNil(out), rows.Err()
}

func (r *PostgresRepository) queryMedications(ctx context.Context, fc *auth.FilterContext) ([]interface{}, error) {
	q := `SELECT id, patient_id, medication, dosage, frequency FROM medications`
	var args []interface{}
	if fc != nil && fc.FilterPatientID != "" {
		args = append(args, fc.FilterPatientID)
		q += ` WHERE patient_id = $1`
	}
	q += ` ORDER BY id`

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying medications: %w", err)
	}
	defer rows.Close()

	var out []interface{}
	for rows.Next() {
		var m MedicationRecord
		if err := rows.Scan(&m.ID, &m.PatientID, &m.Medication, &m.Dosage, &m.Frequency); err != nil {
			return nil, fmt.Errorf("scanning medication: %w", err)
		}
		out = append(out, medicationResource(m))
	}
	return emptyIfNil(out), rows.Err()
}

func (r *PostgresRepository) queryObservations(ctx context.Context, fc *auth.FilterContext) ([]interface{}, error) {
	q := `SELECT id, patient_id, type, value, unit, to_char(observed_at, 'YYYY-MM-DD') FROM observations`
	var args []interface{}
	if fc != nil && fc.FilterPatientID != "" {
		args = append(args, fc.FilterPatientID)
		q += ` WHERE patient_id = $1`
	}
	q += ` ORDER BY observed_at DESC`

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying observations: %w", err)
	}
	defer rows.Close()

	var out []interface{}
	for rows.Next() {
		var o ObservationRecord
		if err := rows.Scan(&o.ID, &o.PatientID, &o.Type, &o.Value, &o.Unit, &o.Date); err != nil {
			return nil, fmt.Errorf("scanning observation: %w", err)
		}
		out = append(out, observationResource(o))
	}
	return emptyIfNil(out), rows.Err()
}

func whereClause(clauses []string) string {
	if len(clauses) == 0 {
		return ""
	}
	out := " WHERE " + clauses[0]
	for _, c := range clauses[1:] {
		out += " AND " + c
	}
	return out
}

func joinOr(parts []string) string {
	out := parts[0]
	for _, p := range parts[1:] {
		out += " OR " + p
	}
	return out
}

func emptyIfNil(out []interface{}) []interface{} {
	if out == nil {
		return []interface{}{}
	}
	return out
}
