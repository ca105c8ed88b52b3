// Package sqlite persists the shared event tree in SQLite.
//
// WHY SQLITE FOR A DOCUMENT TREE?
// The tree is tiny (one row per device) and read whole on every change,
// so a document-per-owner layout fits naturally: each row holds one
// owner's registeredAt plus their raw eventDetails subtree as JSON. The
// tagged-variant decode in the store package handles both schema
// revisions of that JSON, which keeps legacy rows readable without a
// migration sweep.
//
// WHY modernc.org/sqlite INSTEAD OF github.com/mattn/go-sqlite3?
// mattn/go-sqlite3 uses CGo, which needs a C compiler and makes
// cross-compilation painful. modernc.org/sqlite is a pure Go translation
// of SQLite — works everywhere Go works.
package sqlite

import (
	"database/sql"
	"fmt"
	"log/slog"

	// Blank import: the driver registers itself with database/sql under
	// the name "sqlite" in its init function.
	_ "modernc.org/sqlite"

	"github.com/saicojavc/When-Babe/internal/model"
	"github.com/saicojavc/When-Babe/internal/store"
)

// DB wraps a sql.DB connection pool and implements store.Store.
//
// The embedded Notifier carries change subscriptions: every committed
// write re-reads the tree and broadcasts the flattened snapshot.
type DB struct {
	conn     *sql.DB
	notifier *store.Notifier
	logger   *slog.Logger
}

// New opens (or creates) the database at dbPath and runs migrations.
//
// dbPath examples:
//   - "data/whenbabe.db" → file-based, persistent
//   - ":memory:"         → in-memory, great for tests, lost on close
func New(dbPath string, logger *slog.Logger) (*DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}

	// Ping forces an immediate connection so a bad path or permissions
	// problem surfaces here, not on the first query.
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: pinging database: %w", err)
	}

	// WAL mode allows concurrent reads while a write is in progress —
	// the snapshot re-fetch after each write depends on this.
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: setting WAL mode: %w", err)
	}

	db := &DB{
		conn:     conn,
		notifier: store.NewNotifier(),
		logger:   logger,
	}

	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlite: running migrations: %w", err)
	}

	return db, nil
}

// Close cancels all subscriptions and closes the connection pool.
func (db *DB) Close() error {
	db.notifier.CloseAll()
	return db.conn.Close()
}

// Subscribe registers for full-snapshot change notifications.
func (db *DB) Subscribe() (<-chan []model.EventRecord, func()) {
	return db.notifier.Subscribe()
}

// migrate creates the schema. CREATE TABLE IF NOT EXISTS is idempotent,
// so this is safe to run on every start.
//
// One row per device: registered_at is the device-local first-launch
// timestamp in epoch milliseconds, event_details the owner's raw JSON
// subtree in whichever schema revision it was written.
func (db *DB) migrate() error {
	_, err := db.conn.Exec(`
		CREATE TABLE IF NOT EXISTS users (
			owner_id      TEXT PRIMARY KEY,
			registered_at INTEGER NOT NULL,
			event_details TEXT NOT NULL DEFAULT '{}'
		);
	`)
	if err != nil {
		return fmt.Errorf("creating users table: %w", err)
	}
	return nil
}
