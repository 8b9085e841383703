package database

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// MySQLDialect implements Dialect for MySQL
type MySQLDialect struct{}

// NewMySQLDialect creates a new MySQL dialect
func NewMySQLDialect() *MySQLDialect {
	return &MySQLDialect{}
}

func (d *MySQLDialect) Name() string       { return "mysql" }
func (d *MySQLDialect) DriverName() string { return "mysql" }

// DSN forces parseTime and multiStatements, which round timestamps and
// migration files depend on, and stores times as UTC.
func (d *MySQLDialect) DSN(config DialectConfig) string {
	cfg, err := mysql.ParseDSN(config.URL)
	if err != nil {
		return config.URL
	}
	cfg.ParseTime = true
	cfg.MultiStatements = true
	return cfg.FormatDSN()
}

func (d *MySQLDialect) Placeholders() PlaceholderStyle { return PlaceholderQuestion }
func (d *MySQLDialect) InsertReturning() bool          { return false }
func (d *MySQLDialect) SessionSetup() []string         { return nil }

func (d *MySQLDialect) MigrationsTableDDL() string {
	return `
		CREATE TABLE IF NOT EXISTS migrations (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			filename VARCHAR(255) UNIQUE NOT NULL,
			executed_at DATETIME(6) DEFAULT CURRENT_TIMESTAMP(6)
		);
	`
}

func (d *MySQLDialect) IsUniqueViolation(err error) bool {
	return mysqlNumber(err) == 1062
}

// IsRetryable matches deadlocks (1213) and lock wait timeouts (1205)
func (d *MySQLDialect) IsRetryable(err error) bool {
	n := mysqlNumber(err)
	return n == 1213 || n == 1205
}

func mysqlNumber(err error) uint16 {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number
	}
	return 0
}
