package ticket

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/h1v3-io/tkt/pkg/protocol"
)

// SQLiteBackend keeps the collection in a SQLite table. The seq column
// preserves insertion order across reloads.
type SQLiteBackend struct {
	db *sql.DB
}

// NewSQLiteBackend opens (or creates) a SQLite database and runs migrations.
func NewSQLiteBackend(path string) (*SQLiteBackend, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("ticket sqlite: open: %w", err)
	}

	// Enable WAL mode for better concurrent reads
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("ticket sqlite: wal: %w", err)
	}

	b := &SQLiteBackend{db: db}
	if err := b.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return b, nil
}

func (b *SQLiteBackend) migrate() error {
	_, err := b.db.Exec(`
		CREATE TABLE IF NOT EXISTS tickets (
			seq         INTEGER NOT NULL,
			id          TEXT PRIMARY KEY,
			title       TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			cat         TEXT NOT NULL,
			pri         INTEGER NOT NULL,
			stat        TEXT NOT NULL DEFAULT 'open',
			created     TEXT NOT NULL,
			res         TEXT NOT NULL DEFAULT ''
		);

		CREATE INDEX IF NOT EXISTS idx_tickets_seq ON tickets(seq);
	`)
	if err != nil {
		return fmt.Errorf("ticket sqlite: migrate: %w", err)
	}
	return nil
}

// Load reads every row in insertion order. Rows carrying values outside
// the closed enums are reported as corrupt.
func (b *SQLiteBackend) Load() (*Collection, error) {
	rows, err := b.db.Query(`SELECT id, title, description, cat, pri, stat, created, res FROM tickets ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("ticket sqlite: load: %w", err)
	}
	defer rows.Close()

	c := NewCollection()
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		c.Set(t.ID, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ticket sqlite: load: %w", err)
	}
	if c.Len() == 0 {
		return nil, ErrNoData
	}
	return c, nil
}

// Save replaces the table contents in one transaction.
func (b *SQLiteBackend) Save(c *Collection) error {
	tx, err := b.db.Begin()
	if err != nil {
		return fmt.Errorf("ticket sqlite: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM tickets`); err != nil {
		return fmt.Errorf("ticket sqlite: clear: %w", err)
	}
	stmt, err := tx.Prepare(`
		INSERT INTO tickets (seq, id, title, description, cat, pri, stat, created, res)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("ticket sqlite: prepare: %w", err)
	}
	defer stmt.Close()

	seq := 0
	for pair := c.Oldest(); pair != nil; pair = pair.Next() {
		t := pair.Value
		if _, err := stmt.Exec(seq, pair.Key, t.Title, t.Desc, string(t.Cat), int(t.Pri), string(t.Stat), t.Created, t.Res); err != nil {
			return fmt.Errorf("ticket sqlite: insert %s: %w", pair.Key, err)
		}
		seq++
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("ticket sqlite: commit: %w", err)
	}
	return nil
}

// DB returns the underlying database connection (for testing or direct access).
func (b *SQLiteBackend) DB() *sql.DB {
	return b.db
}

// Close closes the database.
func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}

func scanTicket(rows *sql.Rows) (*protocol.Ticket, error) {
	var t protocol.Ticket
	var cat, stat string
	var pri int
	if err := rows.Scan(&t.ID, &t.Title, &t.Desc, &cat, &pri, &stat, &t.Created, &t.Res); err != nil {
		return nil, fmt.Errorf("ticket sqlite: scan: %w", err)
	}

	var err error
	if t.Cat, err = protocol.ParseCategory(cat); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, t.ID, err)
	}
	if t.Stat, err = protocol.ParseStatus(stat); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorrupt, t.ID, err)
	}
	t.Pri = protocol.Priority(pri)
	if !t.Pri.Valid() {
		return nil, fmt.Errorf("%w: %s: priority %d", ErrCorrupt, t.ID, pri)
	}
	return &t, nil
}
