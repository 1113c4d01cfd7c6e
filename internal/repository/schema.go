package repository

import (
	"context"
	"fmt"

	"entgo.io/ent/dialect"
)

const (
	tableFiles        = "pdf_files"
	tableSalarySlips  = "salary_slips"
	tableExtractJobs  = "extract_jobs"
	uniqueSlipPerDate = "salary_slips_employee_payment_date_key"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS pdf_files (
		id          TEXT PRIMARY KEY,
		filename    TEXT NOT NULL,
		source_path TEXT NOT NULL DEFAULT '',
		file_size   BIGINT NOT NULL,
		uploaded_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS salary_slips (
		id               UUID PRIMARY KEY,
		file_id          TEXT NOT NULL DEFAULT '',
		source_file_name TEXT NOT NULL DEFAULT '',
		employee_id      TEXT NOT NULL,
		employee_name    TEXT NOT NULL DEFAULT '',
		company_name     TEXT NOT NULL DEFAULT '',
		payment_date     TEXT NOT NULL,
		period_start     TEXT NOT NULL DEFAULT '',
		period_end       TEXT NOT NULL DEFAULT '',
		total_payment    BIGINT NOT NULL DEFAULT 0,
		total_deductions BIGINT NOT NULL DEFAULT 0,
		net_payment      BIGINT NOT NULL DEFAULT 0,
		confidence       DOUBLE PRECISION NOT NULL DEFAULT 0,
		method           TEXT NOT NULL DEFAULT '',
		placeholder      BOOLEAN NOT NULL DEFAULT false,
		payload          JSONB NOT NULL,
		created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ` + uniqueSlipPerDate + ` ON salary_slips (employee_id, payment_date)`,
	`CREATE TABLE IF NOT EXISTS extract_jobs (
		id            UUID PRIMARY KEY,
		file_id       TEXT NOT NULL,
		status        TEXT NOT NULL,
		method        TEXT NOT NULL DEFAULT '',
		confidence    DOUBLE PRECISION,
		error_message TEXT NOT NULL DEFAULT '',
		attempts      JSONB,
		started_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
		finished_at   TIMESTAMPTZ
	)`,
	`CREATE INDEX IF NOT EXISTS extract_jobs_file_id_idx ON extract_jobs (file_id)`,
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS pdf_files (
		id          TEXT PRIMARY KEY,
		filename    TEXT NOT NULL,
		source_path TEXT NOT NULL DEFAULT '',
		file_size   INTEGER NOT NULL,
		uploaded_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS salary_slips (
		id               TEXT PRIMARY KEY,
		file_id          TEXT NOT NULL DEFAULT '',
		source_file_name TEXT NOT NULL DEFAULT '',
		employee_id      TEXT NOT NULL,
		employee_name    TEXT NOT NULL DEFAULT '',
		company_name     TEXT NOT NULL DEFAULT '',
		payment_date     TEXT NOT NULL,
		period_start     TEXT NOT NULL DEFAULT '',
		period_end       TEXT NOT NULL DEFAULT '',
		total_payment    INTEGER NOT NULL DEFAULT 0,
		total_deductions INTEGER NOT NULL DEFAULT 0,
		net_payment      INTEGER NOT NULL DEFAULT 0,
		confidence       REAL NOT NULL DEFAULT 0,
		method           TEXT NOT NULL DEFAULT '',
		placeholder      BOOLEAN NOT NULL DEFAULT 0,
		payload          TEXT NOT NULL,
		created_at       TIMESTAMP NOT NULL
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS ` + uniqueSlipPerDate + ` ON salary_slips (employee_id, payment_date)`,
	`CREATE TABLE IF NOT EXISTS extract_jobs (
		id            TEXT PRIMARY KEY,
		file_id       TEXT NOT NULL,
		status        TEXT NOT NULL,
		method        TEXT NOT NULL DEFAULT '',
		confidence    REAL,
		error_message TEXT NOT NULL DEFAULT '',
		attempts      TEXT,
		started_at    TIMESTAMP NOT NULL,
		finished_at   TIMESTAMP
	)`,
	`CREATE INDEX IF NOT EXISTS extract_jobs_file_id_idx ON extract_jobs (file_id)`,
}

// Migrate creates the tables and indexes if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	stmts := postgresSchema
	if s.dialect == dialect.SQLite {
		stmts = sqliteSchema
	}
	for i, stmt := range stmts {
		if err := s.drv.Exec(ctx, stmt, []any{}, nil); err != nil {
			s.logger.Error("migration failed", "step", i, "error", err)
			return fmt.Errorf("migrate step %d: %w", i, err)
		}
	}
	s.logger.Info("schema up to date", "dialect", s.dialect, "statements", len(stmts))
	return nil
}
