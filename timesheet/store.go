/*
store.go - Persistence interfaces for the entry collection

PURPOSE:
  The collection is loaded and saved as a whole. There are no partial
  writes, no merges and no per-row updates.

KEY INTERFACES:
  Store:    Load + Save, used by the Reconciler
  RawStore: Store plus Overwrite, the lower-trust admin path

LOAD CONTRACT:
  - Missing storage: initialized empty, returns empty
  - Empty or corrupt storage: returns empty and logs a warning
    (strict stores return *CorruptStoreError instead)
  - Records without a category load as Normal
  - I/O failures are returned

SAVE CONTRACT:
  Save atomically replaces the whole collection with exactly the given
  entries. Callers pass the complete collection.

CONCURRENCY:
  Single writer. Two sessions saving concurrently: the later Save wins
  for the whole collection.

IMPLEMENTATIONS:
  - store/csvfile: flat CSV file (default)
  - store/sqlite: SQLite database
  - timesheet/store: in-memory for tests
*/
package timesheet

import "context"

// Store persists the entire entry collection.
type Store interface {
	// Load returns all entries in store order.
	Load(ctx context.Context) (Entries, error)

	// Save replaces the collection with exactly entries.
	Save(ctx context.Context, entries Entries) error
}

// RawStore adds the admin overwrite path. Overwrite has Save's persistence
// semantics but is kept as its own capability so callers that must preserve
// the per-slot uniqueness invariant never reach it.
type RawStore interface {
	Store

	// Overwrite replaces the collection with an arbitrary edited snapshot.
	// No invariant is enforced.
	Overwrite(ctx context.Context, entries Entries) error
}

// Query loads the store and returns the first entry for the slot.
func Query(ctx context.Context, s Store, date Date, person string, category Category) (Entry, bool, error) {
	entries, err := s.Load(ctx)
	if err != nil {
		return Entry{}, false, err
	}
	e, ok := entries.Query(date, person, category)
	return e, ok, nil
}
