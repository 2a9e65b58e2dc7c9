// Package sqlite implements the repository interfaces using SQLite as the storage backend.
//
// WHY SQLITE?
// SQLite is an embedded database. It lives inside the binary as a single file.
// For a single-instance audit backend that only ever inserts audits and reads
// them back per user, a separate database server is unnecessary overhead.
// Deployments that need one can switch to the postgres package instead.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo, which means a C compiler at build time and painful
// cross-compilation. modernc.org/sqlite is a pure Go translation of SQLite.
//
// MIGRATIONS:
// The schema lives in migrations/*.sql, embedded into the binary with go:embed
// and applied by goose on startup. goose records applied versions in its own
// table, so running New() against an existing database is a no-op.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/pressly/goose/v3"

	// Importing modernc.org/sqlite also registers the "sqlite" database/sql driver.
	modsqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sakif/contract-auditor/internal/repository"
)

//go:embed migrations/*.sql
var migrations embed.FS

// compile-time check that *DB satisfies the full store contract
var _ repository.Store = (*DB)(nil)

// DB wraps a sql.DB connection pool and provides repository methods.
type DB struct {
	conn *sql.DB
}

// New creates a new SQLite database connection and runs migrations.
//
// dbPath examples:
//   - "data/auditor.db"  → file-based database (persistent)
//   - ":memory:"         → in-memory database (tests)
//
// IN-MEMORY AND THE CONNECTION POOL:
// Every new connection to ":memory:" opens a brand-new, empty database.
// sql.DB is a pool, so without limiting it to one connection a query could
// land on a connection that never saw the migrations.
func New(dbPath string) (*DB, error) {
	// PRAGMAs passed in the DSN are applied by the driver to every pooled
	// connection, not just the first one.
	dsn := dbPath
	if !strings.Contains(dsn, "?") {
		dsn += "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	}

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	if dbPath == ":memory:" {
		conn.SetMaxOpenConns(1)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL mode allows concurrent reads while a write is happening, so several
	// audit submissions can be in flight at once.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	// Foreign keys are OFF by default in SQLite. audits.user_id relies on them.
	// Repeated here so a caller-supplied DSN still gets them on this connection.
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: enabling foreign keys: %w", err)
	}

	db := &DB{conn: conn}

	if err := db.migrate(context.Background()); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close closes the database connection pool.
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate applies all pending embedded migrations.
//
// We use goose's Provider API rather than the package-level goose.Up so no
// global state (dialect, base FS) is shared between databases; the tests
// open many in-memory databases back to back.
func (db *DB) migrate(ctx context.Context) error {
	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("loading embedded migrations: %w", err)
	}

	provider, err := goose.NewProvider(goose.DialectSQLite3, db.conn, fsys)
	if err != nil {
		return fmt.Errorf("creating migration provider: %w", err)
	}

	if _, err := provider.Up(ctx); err != nil {
		return fmt.Errorf("applying migrations: %w", err)
	}
	return nil
}

// isUniqueViolation reports whether err is SQLite's UNIQUE constraint failure.
// The primary-code branch covers connections without extended result codes.
func isUniqueViolation(err error) bool {
	var se *modsqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE:
		return true
	case sqlite3.SQLITE_CONSTRAINT:
		return strings.Contains(se.Error(), "UNIQUE")
	}
	return false
}
