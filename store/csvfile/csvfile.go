/*
Package csvfile stores the entry collection in one CSV file.

FILE FORMAT:
  See package sheet. Header Date,Nom,Heures,Type; the legacy header
  without Type is migrated to Normal on read.

LOAD:
  - File absent: created with the header only, returns empty
  - File empty or structurally unreadable: returns empty and logs a
    WARNING line; in strict mode returns *timesheet.CorruptStoreError
  - Unreadable rows: skipped with a WARNING line; in strict mode the
    first one is returned as *timesheet.CorruptStoreError
  - Permission or device errors: returned

  A lenient load followed by a save drops whatever could not be read.

SAVE:
  Written to a temporary file in the same directory, synced, then renamed
  over the target. A failed save leaves the previous file untouched.

USAGE:
  store, err := csvfile.New("heures_maintenance.csv")
  entries, err := store.Load(ctx)
*/
package csvfile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/warp/timesheet/sheet"
	"github.com/warp/timesheet/timesheet"
)

// Store implements timesheet.RawStore over a CSV file.
type Store struct {
	path   string
	strict bool
	logger *log.Logger
	mu     sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// Strict makes corrupt content an error instead of an empty collection.
func Strict(strict bool) Option {
	return func(s *Store) { s.strict = strict }
}

// WithLogger sets where warnings go. Default is log.Default().
func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// New returns a store for path. The file is not touched until the first Load or Save.
func New(path string, opts ...Option) (*Store, error) {
	if path == "" {
		return nil, errors.New("csv store path is required")
	}
	s := &Store{path: path, logger: log.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Path returns the backing file.
func (s *Store) Path() string { return s.path }

// Load reads the whole file.
func (s *Store) Load(ctx context.Context) (timesheet.Entries, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		if err := s.writeLocked(timesheet.Entries{}); err != nil {
			return nil, fmt.Errorf("failed to initialize %s: %w", s.path, err)
		}
		return timesheet.Entries{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.path, err)
	}

	decoded, err := sheet.DecodeCSV(bytes.NewReader(data))
	if errors.Is(err, sheet.ErrEmpty) {
		s.logger.Printf("WARNING: %s is empty, loading as an empty collection", s.path)
		return timesheet.Entries{}, nil
	}
	if err != nil {
		corrupt := &timesheet.CorruptStoreError{Path: s.path, Err: err}
		var perr *sheet.ParseError
		if errors.As(err, &perr) {
			corrupt.Line = perr.Line
		}
		if s.strict {
			return nil, corrupt
		}
		s.logger.Printf("WARNING: %v; loading as an empty collection, the next save will discard it", corrupt)
		return timesheet.Entries{}, nil
	}

	for _, skipped := range decoded.Skipped {
		corrupt := &timesheet.CorruptStoreError{Path: s.path, Line: skipped.Line, Err: skipped.Err}
		if s.strict {
			return nil, corrupt
		}
		s.logger.Printf("WARNING: skipping row: %v", corrupt)
	}
	if decoded.Migrated() {
		s.logger.Printf("%s uses the legacy schema; %d entries loaded as %s", s.path, len(decoded.Entries), timesheet.CategoryNormal)
	}

	return decoded.Entries, nil
}

// Save atomically replaces the file with entries.
func (s *Store) Save(ctx context.Context, entries timesheet.Entries) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeLocked(entries)
}

// Overwrite is the admin path. Persistence is identical to Save.
func (s *Store) Overwrite(ctx context.Context, entries timesheet.Entries) error {
	return s.Save(ctx, entries)
}

func (s *Store) writeLocked(entries timesheet.Entries) error {
	var buf bytes.Buffer
	if err := sheet.EncodeCSV(&buf, entries); err != nil {
		return fmt.Errorf("failed to encode entries: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create dir %q: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", tmpName, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync %s: %w", tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmpName, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("failed to chmod %s: %w", tmpName, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", s.path, err)
	}
	return nil
}
