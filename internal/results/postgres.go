package results

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"github.com/parsebench/parsebench-go/internal/domain"
)

const schema = `CREATE TABLE IF NOT EXISTS benchmark_summaries (
	id            UUID PRIMARY KEY,
	backend_name  TEXT NOT NULL,
	document_type TEXT NOT NULL,
	payload       JSONB NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS benchmark_summaries_key_idx
	ON benchmark_summaries (backend_name, document_type, created_at DESC)`

// PostgresStore appends every saved Summary; loads return the newest row.
type PostgresStore struct {
	db  *sql.DB
	now func() time.Time
}

// OpenPostgres connects with the lib/pq driver.
func OpenPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("results: open postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("results: ping postgres: %w", err)
	}
	return NewPostgresStore(db), nil
}

// NewPostgresStore wraps an existing connection pool.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, now: time.Now}
}

// Migrate creates the summaries table if it does not exist.
func (p *PostgresStore) Migrate(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("results: migrate: %w", err)
	}
	return nil
}

func (p *PostgresStore) Close() error {
	return p.db.Close()
}

func (p *PostgresStore) SaveSummary(ctx context.Context, s domain.Summary) error {
	payload, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("results: encode summary: %w", err)
	}
	_, err = p.db.ExecContext(ctx,
		`INSERT INTO benchmark_summaries (id, backend_name, document_type, payload, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		uuid.NewString(), s.BackendName, s.DocumentType, payload, p.now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("results: insert %s/%s: %w", s.BackendName, s.DocumentType, err)
	}
	return nil
}

func (p *PostgresStore) LoadSummary(ctx context.Context, backend, docType string) (domain.Summary, error) {
	var payload []byte
	err := p.db.QueryRowContext(ctx,
		`SELECT payload FROM benchmark_summaries
		 WHERE backend_name = $1 AND document_type = $2
		 ORDER BY created_at DESC LIMIT 1`,
		backend, docType,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Summary{}, ErrNotFound
	}
	if err != nil {
		return domain.Summary{}, fmt.Errorf("results: query %s/%s: %w", backend, docType, err)
	}
	return decodeSummary(payload)
}

// ListSummaries returns the newest summary per backend and document type.
func (p *PostgresStore) ListSummaries(ctx context.Context) ([]domain.Summary, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT DISTINCT ON (backend_name, document_type) payload
		 FROM benchmark_summaries
		 ORDER BY backend_name, document_type, created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("results: list: %w", err)
	}
	defer rows.Close()

	out := []domain.Summary{}
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("results: scan: %w", err)
		}
		s, err := decodeSummary(payload)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("results: list: %w", err)
	}
	return out, nil
}

func decodeSummary(payload []byte) (domain.Summary, error) {
	var s domain.Summary
	if err := json.Unmarshal(payload, &s); err != nil {
		return domain.Summary{}, fmt.Errorf("results: decode summary: %w", err)
	}
	if s.Errors == nil {
		s.Errors = []string{}
	}
	return s, nil
}
