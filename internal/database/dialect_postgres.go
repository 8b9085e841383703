package database

import (
	"errors"

	"github.com/lib/pq"
)

// PostgresDialect implements Dialect for PostgreSQL
type PostgresDialect struct{}

// NewPostgresDialect creates a new PostgreSQL dialect
func NewPostgresDialect() *PostgresDialect {
	return &PostgresDialect{}
}

func (d *PostgresDialect) Name() string       { return "postgres" }
func (d *PostgresDialect) DriverName() string { return "postgres" }

func (d *PostgresDialect) DSN(config DialectConfig) string {
	return config.URL
}

func (d *PostgresDialect) Placeholders() PlaceholderStyle { return PlaceholderDollar }

// InsertReturning is true: lib/pq has no LastInsertId
func (d *PostgresDialect) InsertReturning() bool { return true }

// SessionSetup is empty; foreign keys are always enforced
func (d *PostgresDialect) SessionSetup() []string { return nil }

func (d *PostgresDialect) MigrationsTableDDL() string {
	return `
		CREATE TABLE IF NOT EXISTS migrations (
			id BIGSERIAL PRIMARY KEY,
			filename TEXT UNIQUE NOT NULL,
			executed_at TIMESTAMPTZ DEFAULT CURRENT_TIMESTAMP
		);
	`
}

func (d *PostgresDialect) IsUniqueViolation(err error) bool {
	return pqCode(err) == "23505"
}

// IsRetryable matches serialization_failure, deadlock_detected and lock_not_available
func (d *PostgresDialect) IsRetryable(err error) bool {
	switch pqCode(err) {
	case "40001", "40P01", "55P03":
		return true
	}
	return false
}

func pqCode(err error) pq.ErrorCode {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code
	}
	return ""
}
