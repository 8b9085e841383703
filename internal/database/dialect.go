package database

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// PlaceholderStyle is how a driver expects bind parameters
type PlaceholderStyle int

const (
	PlaceholderQuestion PlaceholderStyle = iota // ?
	PlaceholderDollar                           // $1, $2, ...
)

// Dialect captures what differs between the supported databases.
// Repositories always write SQL with ? placeholders.
type Dialect interface {
	// Name is the DB_TYPE value and the migrations subdirectory
	Name() string
	DriverName() string
	DSN(config DialectConfig) string
	Placeholders() PlaceholderStyle

	// InsertReturning reports whether new IDs come from INSERT ... RETURNING id
	// instead of LastInsertId
	InsertReturning() bool

	// SessionSetup returns statements run once after the pool is opened
	SessionSetup() []string

	MigrationsTableDDL() string

	IsUniqueViolation(err error) bool

	// IsRetryable reports lock contention or serialization failures that may
	// succeed when attempted again
	IsRetryable(err error) bool
}

// DialectConfig holds what a dialect needs to open a connection
type DialectConfig struct {
	Path string // SQLite file
	URL  string // PostgreSQL/MySQL connection URL
	Pool PoolConfig
}

// PoolConfig sizes the connection pool
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// DefaultPoolConfig returns the pool used when nothing is configured
func DefaultPoolConfig() PoolConfig {
	return PoolConfig{
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
		ConnMaxIdleTime: 1 * time.Minute,
	}
}

func (p PoolConfig) apply(db *sql.DB) {
	def := DefaultPoolConfig()
	if p.MaxOpenConns <= 0 {
		p.MaxOpenConns = def.MaxOpenConns
	}
	if p.MaxIdleConns <= 0 {
		p.MaxIdleConns = def.MaxIdleConns
	}
	if p.ConnMaxLifetime <= 0 {
		p.ConnMaxLifetime = def.ConnMaxLifetime
	}
	if p.ConnMaxIdleTime <= 0 {
		p.ConnMaxIdleTime = def.ConnMaxIdleTime
	}

	db.SetMaxOpenConns(p.MaxOpenConns)
	db.SetMaxIdleConns(p.MaxIdleConns)
	db.SetConnMaxLifetime(p.ConnMaxLifetime)
	db.SetConnMaxIdleTime(p.ConnMaxIdleTime)
}

// DialectFor returns the dialect registered under a DB_TYPE value
func DialectFor(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sqlite", "sqlite3", "":
		return NewSQLiteDialect(), nil
	case "postgres", "postgresql":
		return NewPostgresDialect(), nil
	case "mysql":
		return NewMySQLDialect(), nil
	default:
		return nil, fmt.Errorf("unsupported database type: %s", name)
	}
}

// RewriteQuery converts ? placeholders to the dialect's style
func RewriteQuery(d Dialect, query string) string {
	if d.Placeholders() != PlaceholderDollar || !strings.Contains(query, "?") {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}
