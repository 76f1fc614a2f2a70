// Package repository answers structured queries against a pluggable FHIR
// data source. The interpreter's output plus the caller's filter context go
// in; a FHIR payload (normally a searchset Bundle) comes out. The rest of
// the service does not know whether records came from the in-memory
// fixtures, a remote FHIR server, or Postgres.
package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Moyowalker/onye-test/internal/nlp"
	"github.com/Moyowalker/onye-test/internal/platform/auth"
)

// Supported data source kinds.
const (
	TypeMock     = "mock"
	TypeHAPI     = "hapi"
	TypePostgres = "postgres"
)

// Repository searches a FHIR data source with an interpreted query. The
// returned payload is FHIR JSON: a searchset Bundle for record searches,
// or whatever the upstream server answered for passthrough intents.
type Repository interface {
	Search(ctx context.Context, pq *nlp.ProcessedQuery, fc *auth.FilterContext) (json.RawMessage, error)
}

// Options carries the source-specific configuration a repository kind may
// need. Only the fields relevant to the chosen kind are consulted.
type Options struct {
	BaseURL string
	Timeout time.Duration
	Pool    *pgxpool.Pool
}

// New builds the repository for the configured kind.
func New(kind string, opts Options) (Repository, error) {
	switch kind {
	case TypeMock, "":
		return NewMockRepository(), nil
	case TypeHAPI:
		return NewHAPIRepository(opts.BaseURL, opts.Timeout), nil
	case TypePostgres:
		if opts.Pool == nil {
			return nil, fmt.Errorf("postgres repository requires a connection pool")
		}
		return NewPostgresRepository(opts.Pool), nil
	default:
		return nil, fmt.Errorf("unknown FHIR server type %q", kind)
	}
}
