package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"tearound/internal/config"
)

// DB wraps the database connection with dialect support
type DB struct {
	*sql.DB
	Dialect Dialect
}

// Initialize opens a SQLite database at dbPath with the default pool
func Initialize(dbPath string) (*DB, error) {
	return open(NewSQLiteDialect(), DialectConfig{Path: dbPath, Pool: DefaultPoolConfig()})
}

// InitializeWithConfig opens the database selected by DB_TYPE
func InitializeWithConfig(cfg *config.Config) (*DB, error) {
	dialect, err := DialectFor(cfg.DatabaseType)
	if err != nil {
		return nil, err
	}

	pool := DefaultPoolConfig()
	pool.MaxOpenConns = cfg.DBMaxOpenConns
	pool.MaxIdleConns = cfg.DBMaxIdleConns

	return open(dialect, DialectConfig{
		Path: cfg.DatabasePath,
		URL:  cfg.DatabaseURL,
		Pool: pool,
	})
}

func open(dialect Dialect, dc DialectConfig) (*DB, error) {
	if dialect.Name() != "sqlite" && dc.URL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required for %s", dialect.Name())
	}

	sqlDB, err := sql.Open(dialect.DriverName(), dialect.DSN(dc))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	dc.Pool.apply(sqlDB)

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping %s database: %w", dialect.Name(), err)
	}

	for _, stmt := range dialect.SessionSetup() {
		if _, err := sqlDB.Exec(stmt); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("failed to run %q: %w", stmt, err)
		}
	}

	return &DB{DB: sqlDB, Dialect: dialect}, nil
}

// ExecContext executes a statement with automatic placeholder rewriting
func (db *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return db.DB.ExecContext(ctx, RewriteQuery(db.Dialect, query), args...)
}

// QueryContext executes a query with automatic placeholder rewriting
func (db *DB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return db.DB.QueryContext(ctx, RewriteQuery(db.Dialect, query), args...)
}

// QueryRowContext executes a single-row query with automatic placeholder rewriting
func (db *DB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return db.DB.QueryRowContext(ctx, RewriteQuery(db.Dialect, query), args...)
}

// ExecReturningID executes an INSERT and returns the new row's ID
func (db *DB) ExecReturningID(ctx context.Context, query string, args ...any) (int64, error) {
	return insertID(ctx, db.DB, db.Dialect, query, args...)
}

// rawExecer is the unwrapped *sql.DB or *sql.Tx; queries passed to it are
// already rewritten.
type rawExecer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func insertID(ctx context.Context, q rawExecer, dialect Dialect, query string, args ...any) (int64, error) {
	query = RewriteQuery(dialect, query)

	if !dialect.InsertReturning() {
		res, err := q.ExecContext(ctx, query, args...)
		if err != nil {
			return 0, err
		}
		return res.LastInsertId()
	}

	query = strings.TrimSuffix(strings.TrimSpace(query), ";") + " RETURNING id"

	var id int64
	if err := q.QueryRowContext(ctx, query, args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}
