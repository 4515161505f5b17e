package sqlite_test

import (
	"bytes"
	"context"
	"database/sql"
	"log"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/timesheet/store/sqlite"
	"github.com/warp/timesheet/timesheet"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()
	s, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func date(t *testing.T, s string) timesheet.Date {
	t.Helper()
	d, err := timesheet.ParseDate(s)
	require.NoError(t, err)
	return d
}

func lines(entries timesheet.Entries) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.String()
	}
	return out
}

func TestNew_MigratesToLatest(t *testing.T) {
	s := newTestStore(t)

	v, err := s.SchemaVersion(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, v)
}

func TestLoad_EmptyDatabase(t *testing.T) {
	entries, err := newTestStore(t).Load(context.Background())

	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestSaveLoad_PreservesOrderAndDuplicates(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	// GIVEN: entries deliberately out of date order, with a duplicate slot
	original := timesheet.Entries{
		{Date: date(t, "2025-03-16"), Person: "Bob", Hours: decimal.NewFromInt(10), Category: timesheet.CategoryOnCall},
		{Date: date(t, "2025-03-10"), Person: "Alice", Hours: decimal.RequireFromString("7.5"), Category: timesheet.CategoryNormal},
		{Date: date(t, "2025-03-10"), Person: "Alice", Hours: decimal.RequireFromString("0.5"), Category: timesheet.CategoryNormal},
		{Date: date(t, "2025-03-11"), Person: "Alice", Hours: decimal.NewFromInt(3)},
	}

	// WHEN
	require.NoError(t, s.Save(ctx, original))
	loaded, err := s.Load(ctx)

	// THEN: same sequence; blank category stored as Normal
	require.NoError(t, err)
	assert.Equal(t, []string{
		"2025-03-16 Bob 10 Astreinte",
		"2025-03-10 Alice 7.5 Normal",
		"2025-03-10 Alice 0.5 Normal",
		"2025-03-11 Alice 3 Normal",
	}, lines(loaded))
}

func TestSave_ReplacesEverything(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	first := timesheet.Entries{
		{Date: date(t, "2025-03-10"), Person: "Alice", Hours: decimal.NewFromInt(8), Category: timesheet.CategoryNormal},
		{Date: date(t, "2025-03-11"), Person: "Alice", Hours: decimal.NewFromInt(8), Category: timesheet.CategoryNormal},
	}
	require.NoError(t, s.Save(ctx, first))

	require.NoError(t, s.Overwrite(ctx, first[1:]))
	loaded, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, lines(first[1:]), lines(loaded))

	require.NoError(t, s.Save(ctx, nil))
	loaded, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestNew_UpgradesLegacyDatabase(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "legacy.db")

	// GIVEN: a database written before categories existed
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE entries (
		position INTEGER PRIMARY KEY,
		date TEXT NOT NULL,
		person TEXT NOT NULL,
		hours TEXT NOT NULL
	);
	INSERT INTO entries (position, date, person, hours) VALUES (1, '2025-03-10', 'Alice', '8');
	PRAGMA user_version = 1;`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	// WHEN
	var logs bytes.Buffer
	s, err := sqlite.New(path, sqlite.WithLogger(log.New(&logs, "", 0)))
	require.NoError(t, err)
	defer s.Close()

	// THEN: the row reads as Normal and the schema is current
	v, err := s.SchemaVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, v)
	loaded, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-03-10 Alice 8 Normal"}, lines(loaded))
	assert.Contains(t, logs.String(), "schema upgraded to version 2")
}

func TestLoad_CorruptRow(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "corrupt.db")

	// GIVEN: a readable row followed by one with a broken date
	s, err := sqlite.New(path)
	require.NoError(t, err)
	require.NoError(t, s.Close())
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO entries (position, date, person, hours, category) VALUES
		(1, '2025-03-10', 'Alice', '8', 'Normal'),
		(2, 'lundi', 'Bob', '6', 'Normal')`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	t.Run("lenient skips the row", func(t *testing.T) {
		var logs bytes.Buffer
		s, err := sqlite.New(path, sqlite.WithLogger(log.New(&logs, "", 0)))
		require.NoError(t, err)
		defer s.Close()

		entries, err := s.Load(ctx)

		require.NoError(t, err)
		assert.Equal(t, []string{"2025-03-10 Alice 8 Normal"}, lines(entries))
		assert.Contains(t, logs.String(), "WARNING")
		assert.Contains(t, logs.String(), "lundi")
	})

	t.Run("strict fails", func(t *testing.T) {
		s, err := sqlite.New(path, sqlite.Strict(true))
		require.NoError(t, err)
		defer s.Close()

		_, err = s.Load(ctx)

		var corrupt *timesheet.CorruptStoreError
		require.ErrorAs(t, err, &corrupt)
		assert.ErrorIs(t, err, timesheet.ErrCorruptStore)
		assert.Equal(t, path, corrupt.Path)
		assert.Equal(t, 2, corrupt.Line)
	})
}
