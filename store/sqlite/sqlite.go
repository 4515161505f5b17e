/*
Package sqlite provides a SQLite-backed implementation of timesheet.RawStore.

PURPOSE:
  Same whole-collection contract as the CSV file store, for deployments
  that prefer a database file. Load returns rows in insertion order;
  Save replaces every row inside one transaction.

SCHEMA VERSIONS (PRAGMA user_version):
  0 -> 1: entries(position, date, person, hours) created
  1 -> 2: category column added, existing rows default to 'Normal'

  A database created before categories existed is upgraded in place on
  New(). Rows with an empty category still load as Normal.

CORRUPT ROWS:
  Skipped with a WARNING line by default, like the CSV store. With
  Strict(true) the first one is returned as *timesheet.CorruptStoreError.

KEY TABLE:
  entries: position is the store order; no uniqueness index on
  (date, person, category) because the admin overwrite path may store
  duplicates.

CONCURRENCY:
  sync.Mutex around each whole-collection operation. Single writer.

USAGE:
  store, err := sqlite.New("./data/timesheet.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - timesheet/store.go: Interface definitions
  - store/csvfile: Default flat-file backend
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/timesheet/timesheet"
)

// Store implements timesheet.RawStore using SQLite.
type Store struct {
	db     *sql.DB
	path   string
	strict bool
	mu     sync.Mutex
	logger *log.Logger
}

// Option configures a Store.
type Option func(*Store)

// Strict makes an unreadable row an error instead of a skipped row.
func Strict(strict bool) Option {
	return func(s *Store) { s.strict = strict }
}

// WithLogger sets where warnings and migration notices go. Default is log.Default().
func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string, opts ...Option) (*Store, error) {
	dsn := dbPath + "?_journal_mode=WAL"
	if dbPath == ":memory:" {
		dsn = dbPath
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection so ":memory:" is a single database.
	db.SetMaxOpenConns(1)

	store := &Store{db: db, path: dbPath, logger: log.Default()}
	for _, opt := range opts {
		opt(store)
	}
	if err := store.migrate(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// =============================================================================
// MIGRATIONS
// =============================================================================

var migrations = []string{
	// v1: no category
	`CREATE TABLE IF NOT EXISTS entries (
		position INTEGER PRIMARY KEY,
		date TEXT NOT NULL,
		person TEXT NOT NULL,
		hours TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_entries_person_date ON entries(person, date);`,

	// v2: on-call category
	`ALTER TABLE entries ADD COLUMN category TEXT NOT NULL DEFAULT 'Normal';`,
}

// SchemaVersion returns the database's user_version.
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	var v int
	err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&v)
	return v, err
}

func (s *Store) migrate(ctx context.Context) error {
	version, err := s.SchemaVersion(ctx)
	if err != nil {
		return err
	}

	for i := version; i < len(migrations); i++ {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("failed to begin migration %d: %w", i+1, err)
		}
		if _, err := tx.ExecContext(ctx, migrations[i]); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
		if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", i+1)); err != nil {
			tx.Rollback()
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
		if version > 0 {
			s.logger.Printf("sqlite: schema upgraded to version %d", i+1)
		}
	}
	return nil
}

// =============================================================================
// ENTRY STORE (timesheet.RawStore interface)
// =============================================================================

// Load returns all entries in insertion order. A row that cannot be read
// is skipped with a WARNING line, or returned as *timesheet.CorruptStoreError
// in strict mode.
func (s *Store) Load(ctx context.Context) (timesheet.Entries, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT position, date, person, hours, category FROM entries ORDER BY position ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	entries := timesheet.Entries{}
	for rows.Next() {
		var rec record
		if err := rows.Scan(&rec.position, &rec.date, &rec.person, &rec.hours, &rec.category); err != nil {
			return nil, fmt.Errorf("failed to scan entry: %w", err)
		}
		e, err := rec.entry()
		if err != nil {
			corrupt := &timesheet.CorruptStoreError{Path: s.path, Line: int(rec.position), Err: err}
			if s.strict {
				return nil, corrupt
			}
			s.logger.Printf("WARNING: skipping row: %v", corrupt)
			continue
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// record is one raw row of the entries table.
type record struct {
	position int64
	date     string
	person   string
	hours    string
	category sql.NullString
}

func (r record) entry() (timesheet.Entry, error) {
	d, err := timesheet.ParseDate(r.date)
	if err != nil {
		return timesheet.Entry{}, err
	}
	h, err := timesheet.ParseHours(r.hours)
	if err != nil {
		return timesheet.Entry{}, err
	}
	c, err := timesheet.ParseCategory(r.category.String)
	if err != nil {
		return timesheet.Entry{}, err
	}
	return timesheet.Entry{Date: d, Person: r.person, Hours: h, Category: c}, nil
}

// Save replaces every row atomically.
func (s *Store) Save(ctx context.Context, entries timesheet.Entries) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM entries`); err != nil {
		return fmt.Errorf("failed to clear entries: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO entries (position, date, person, hours, category) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, e := range entries {
		category := e.Category
		if category == "" {
			category = timesheet.CategoryNormal
		}
		if _, err := stmt.ExecContext(ctx, i+1, e.Date.String(), e.Person, e.Hours.String(), string(category)); err != nil {
			return fmt.Errorf("failed to insert entry %d: %w", i+1, err)
		}
	}

	return tx.Commit()
}

// Overwrite is the admin path. Persistence is identical to Save.
func (s *Store) Overwrite(ctx context.Context, entries timesheet.Entries) error {
	return s.Save(ctx, entries)
}
