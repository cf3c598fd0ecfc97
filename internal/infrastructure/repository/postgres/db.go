package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

// EnsureSchema creates the tables this service reads and owns. The
// incident-side tables are normally owned by the incidents module and are
// only created when missing.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker/cli startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026022001)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	if _, err := tx.ExecContext(ctx, schemaDDL); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS company_clients (
	id TEXT PRIMARY KEY,
	firm_id TEXT NOT NULL,
	name TEXT NOT NULL,
	is_active BOOLEAN NOT NULL DEFAULT TRUE
);

CREATE TABLE IF NOT EXISTS workers (
	id TEXT PRIMARY KEY,
	firm_id TEXT NOT NULL,
	company_client_id TEXT NOT NULL REFERENCES company_clients(id),
	full_name TEXT,
	national_id TEXT
);

CREATE TABLE IF NOT EXISTS incident_types (
	id SERIAL PRIMARY KEY,
	code TEXT NOT NULL UNIQUE,
	name TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS incidents (
	id TEXT PRIMARY KEY,
	firm_id TEXT NOT NULL,
	code TEXT,
	worker_id TEXT NOT NULL REFERENCES workers(id),
	incident_type_id INTEGER NOT NULL REFERENCES incident_types(id),
	incident_date DATE NOT NULL,
	received_day DATE,
	observations TEXT
);

CREATE INDEX IF NOT EXISTS idx_incidents_firm_date ON incidents(firm_id, incident_date);

CREATE TABLE IF NOT EXISTS document_templates (
	id TEXT PRIMARY KEY,
	firm_id TEXT NOT NULL,
	company_client_id TEXT NOT NULL,
	template_key TEXT NOT NULL,
	version INTEGER NOT NULL CHECK (version > 0),
	storage_path TEXT NOT NULL,
	is_active BOOLEAN NOT NULL DEFAULT TRUE,
	created_at TIMESTAMPTZ NOT NULL,
	UNIQUE (firm_id, company_client_id, template_key, version)
);

CREATE UNIQUE INDEX IF NOT EXISTS uq_document_templates_active
	ON document_templates(firm_id, company_client_id, template_key)
	WHERE is_active;

CREATE TABLE IF NOT EXISTS generated_documents (
	id TEXT PRIMARY KEY,
	firm_id TEXT NOT NULL,
	company_client_id TEXT NOT NULL,
	incident_id TEXT NOT NULL,
	template_key TEXT NOT NULL,
	template_version INTEGER NOT NULL,
	output_path TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	UNIQUE (firm_id, incident_id, template_key, template_version)
);
`

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
