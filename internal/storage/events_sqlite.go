package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure Go driver

	"quicktimer/internal/core/model"
)

const eventsDBName = "events.sqlite"

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS events (
	id          INTEGER PRIMARY KEY,
	position    INTEGER NOT NULL,
	name        TEXT    NOT NULL,
	status      TEXT    NOT NULL,
	duration_ns INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS meta (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);`

// SQLiteEvents persists the event collection in a SQLite database.
type SQLiteEvents struct {
	db *sql.DB
}

// OpenSQLiteEvents opens (and creates if needed) the database at path.
func OpenSQLiteEvents(path string) (*SQLiteEvents, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("create events directory: %w", err)
	}

	db, err := sql.Open("sqlite", sqliteDSN(path))
	if err != nil {
		return nil, fmt.Errorf("sqlite: open failed: %w", err)
	}
	// One writer; the store serializes saves anyway.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: ping failed: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: migrate schema: %w", err)
	}

	return &SQLiteEvents{db: db}, nil
}

// sqliteDSN builds a file: URI for path. The path is percent-encoded so
// characters such as '?', '#' and '%' stay part of the file name.
func sqliteDSN(path string) string {
	uriPath := filepath.ToSlash(path)
	if filepath.IsAbs(path) && !strings.HasPrefix(uriPath, "/") {
		uriPath = "/" + uriPath
	}

	query := url.Values{}
	query.Add("_pragma", "journal_mode(WAL)")
	query.Add("_pragma", "busy_timeout("+strconv.FormatInt((5*time.Second).Milliseconds(), 10)+")")
	query.Add("_pragma", "synchronous(NORMAL)")

	dsn := url.URL{Scheme: "file", OmitHost: true, Path: uriPath, RawQuery: query.Encode()}
	return dsn.String()
}

// Load reads all events in display order.
func (store *SQLiteEvents) Load() (model.State, error) {
	state := model.EmptyState()

	var rawNextID string
	err := store.db.QueryRow(`SELECT value FROM meta WHERE key = 'next_id'`).Scan(&rawNextID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return model.State{}, fmt.Errorf("sqlite: read next id: %w", err)
	default:
		nextID, convErr := strconv.Atoi(rawNextID)
		if convErr != nil {
			return model.State{}, fmt.Errorf("sqlite: parse next id %q: %w", rawNextID, convErr)
		}
		state.NextID = nextID
	}

	rows, err := store.db.Query(`SELECT id, name, status, duration_ns FROM events ORDER BY position`)
	if err != nil {
		return model.State{}, fmt.Errorf("sqlite: query events: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			event      model.Event
			status     string
			durationNS int64
		)
		if err := rows.Scan(&event.ID, &event.Name, &status, &durationNS); err != nil {
			return model.State{}, fmt.Errorf("sqlite: scan event: %w", err)
		}
		event.Status = model.Status(status)
		event.Duration = time.Duration(durationNS)
		state.Events = append(state.Events, event)
	}
	if err := rows.Err(); err != nil {
		return model.State{}, fmt.Errorf("sqlite: iterate events: %w", err)
	}
	return state, nil
}

// Save replaces the stored collection in a single transaction.
func (store *SQLiteEvents) Save(state model.State) (err error) {
	tx, err := store.db.Begin()
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.Exec(`DELETE FROM events`); err != nil {
		return fmt.Errorf("sqlite: clear events: %w", err)
	}

	insert, err := tx.Prepare(`INSERT INTO events (id, position, name, status, duration_ns) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("sqlite: prepare insert: %w", err)
	}
	defer insert.Close()

	for position, event := range state.Events {
		if _, err = insert.Exec(event.ID, position, event.Name, string(event.Status), int64(event.Duration)); err != nil {
			return fmt.Errorf("sqlite: insert event %d: %w", event.ID, err)
		}
	}

	if _, err = tx.Exec(`INSERT OR REPLACE INTO meta (key, value) VALUES ('next_id', ?)`, strconv.Itoa(state.NextID)); err != nil {
		return fmt.Errorf("sqlite: write next id: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}
	return nil
}

// Close releases the database handle.
func (store *SQLiteEvents) Close() error {
	return store.db.Close()
}
