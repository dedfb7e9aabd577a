package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	_ "modernc.org/sqlite"
)

// DB wraps an SQL connection to the article database.
type DB struct {
	conn    *sql.DB
	dialect Dialect
	dataDir string // root directory for exported articles
}

// New creates a new DB, opening (or creating) the SQLite file at dbPath.
// dataDir is the root directory where exported markdown files are written.
func New(dbPath, dataDir string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	conn, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite only supports one writer; a single connection avoids SQLITE_BUSY.
	conn.SetMaxOpenConns(1)

	db := &DB{conn: conn, dialect: DialectSQLite, dataDir: dataDir}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// DataDir returns the root data directory.
func (db *DB) DataDir() string {
	return db.dataDir
}

// Conn returns the underlying database connection.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

func (db *DB) Dialect() Dialect {
	return db.dialect
}

// rebind rewrites ? placeholders into the dialect's bind syntax.
func (db *DB) rebind(query string) string {
	if db.dialect != DialectPostgres {
		return query
	}
	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

func (db *DB) migrate() error {
	for _, m := range migrations(db.dialect) {
		if _, err := db.conn.Exec(m); err != nil {
			// Re-running ADD COLUMN on an upgraded schema is expected to fail.
			if strings.Contains(m, "ALTER TABLE") && isDuplicateColumn(err) {
				continue
			}
			return fmt.Errorf("migration failed: %s: %w", firstLine(m), err)
		}
	}
	return nil
}

func migrations(d Dialect) []string {
	idType, textType, timeType := "TEXT", "TEXT", "DATETIME"
	switch d {
	case DialectPostgres:
		timeType = "TIMESTAMPTZ"
	case DialectMySQL:
		idType, textType, timeType = "VARCHAR(64)", "LONGTEXT", "DATETIME(6)"
	}

	return []string{
		`CREATE TABLE IF NOT EXISTS articles (
			id ` + idType + ` PRIMARY KEY,
			title VARCHAR(255) NOT NULL DEFAULT '',
			content ` + textType + ` NOT NULL,
			created_at ` + timeType + ` NOT NULL,
			updated_at ` + timeType + ` NOT NULL
		)`,
		// Structured block document next to the flat body.
		`ALTER TABLE articles ADD COLUMN document ` + textType,
		`CREATE TABLE IF NOT EXISTS revisions (
			id ` + idType + ` PRIMARY KEY,
			article_id ` + idType + ` NOT NULL,
			label VARCHAR(255) NOT NULL DEFAULT '',
			content ` + textType + ` NOT NULL,
			document ` + textType + `,
			created_at ` + timeType + ` NOT NULL
		)`,
		createIndex(d, "idx_revisions_article", "revisions", "article_id, created_at"),
	}
}

func createIndex(d Dialect, name, table, cols string) string {
	if d == DialectMySQL {
		// MySQL has no IF NOT EXISTS for indexes; a duplicate is reported and skipped.
		return `ALTER TABLE ` + table + ` ADD INDEX ` + name + ` (` + cols + `)`
	}
	return `CREATE INDEX IF NOT EXISTS ` + name + ` ON ` + table + `(` + cols + `)`
}

func isDuplicateColumn(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate column") ||
		strings.Contains(msg, "already exists") ||
		strings.Contains(msg, "duplicate key name")
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
