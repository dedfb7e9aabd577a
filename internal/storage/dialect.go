package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
)

type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
	DialectMySQL    Dialect = "mysql"
)

func ParseDialect(s string) (Dialect, error) {
	switch Dialect(s) {
	case DialectSQLite, DialectPostgres, DialectMySQL:
		return Dialect(s), nil
	case "sqlite3":
		return DialectSQLite, nil
	case "postgresql", "pg":
		return DialectPostgres, nil
	}
	return "", fmt.Errorf("unsupported storage driver %q", s)
}

// ConnParams describes a hosted SQL server.
type ConnParams struct {
	Host     string
	Port     int
	Database string
	Username string
	SSLMode  string
}

// Open connects to a hosted postgres or mysql database and migrates it.
func Open(ctx context.Context, dialect Dialect, dsn string) (*DB, error) {
	if dialect == DialectSQLite {
		return nil, fmt.Errorf("use New for sqlite databases")
	}
	conn, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect, err)
	}
	conn.SetMaxOpenConns(10)
	conn.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping %s: %w", dialect, err)
	}

	db := &DB{conn: conn, dialect: dialect}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// BuildDSN constructs a driver connection string from p.
func BuildDSN(dialect Dialect, p ConnParams, password string) (string, error) {
	switch dialect {
	case DialectPostgres:
		return buildPostgresDSN(p, password), nil
	case DialectMySQL:
		return buildMySQLDSN(p, password), nil
	}
	return "", fmt.Errorf("no DSN builder for %q", dialect)
}

func buildPostgresDSN(p ConnParams, password string) string {
	port := p.Port
	if port == 0 {
		port = 5432
	}
	sslMode := p.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, port, p.Username, password, p.Database, sslMode,
	)
}

func buildMySQLDSN(p ConnParams, password string) string {
	port := p.Port
	if port == 0 {
		port = 3306
	}
	// Format: user:password@tcp(host:port)/dbname?parseTime=true
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4",
		p.Username, password, p.Host, port, p.Database,
	)
	if p.SSLMode == "require" {
		dsn += "&tls=true"
	}
	return dsn
}
