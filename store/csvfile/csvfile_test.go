package csvfile_test

import (
	"bytes"
	"context"
	"log"
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/timesheet/sheet"
	"github.com/warp/timesheet/store/csvfile"
	"github.com/warp/timesheet/timesheet"
)

func newStore(t *testing.T, content *string, opts ...csvfile.Option) (*csvfile.Store, *bytes.Buffer) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "heures.csv")
	if content != nil {
		require.NoError(t, os.WriteFile(path, []byte(*content), 0o644))
	}
	var logs bytes.Buffer
	opts = append(opts, csvfile.WithLogger(log.New(&logs, "", 0)))
	s, err := csvfile.New(path, opts...)
	require.NoError(t, err)
	return s, &logs
}

func ptr(s string) *string { return &s }

func lines(entries timesheet.Entries) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.String()
	}
	return out
}

func TestLoad_MissingFileIsCreated(t *testing.T) {
	s, _ := newStore(t, nil)

	entries, err := s.Load(context.Background())

	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.Equal(t, "Date,Nom,Heures,Type\n", string(data))
}

func TestLoad_EmptyFileWarns(t *testing.T) {
	s, logs := newStore(t, ptr(""))

	entries, err := s.Load(context.Background())

	require.NoError(t, err)
	assert.Empty(t, entries)
	assert.Contains(t, logs.String(), "WARNING")
}

func TestLoad_CorruptFile(t *testing.T) {
	corrupt := "Quand,Qui\nlundi,Alice\n"

	t.Run("lenient", func(t *testing.T) {
		s, logs := newStore(t, ptr(corrupt))

		entries, err := s.Load(context.Background())

		require.NoError(t, err)
		assert.Empty(t, entries)
		assert.Contains(t, logs.String(), "WARNING")
	})

	t.Run("strict", func(t *testing.T) {
		s, _ := newStore(t, ptr(corrupt), csvfile.Strict(true))

		_, err := s.Load(context.Background())

		var corruptErr *timesheet.CorruptStoreError
		require.ErrorAs(t, err, &corruptErr)
		assert.ErrorIs(t, err, timesheet.ErrCorruptStore)
		assert.Equal(t, s.Path(), corruptErr.Path)
		assert.Equal(t, 1, corruptErr.Line)
	})
}

func TestLoad_BadRows(t *testing.T) {
	content := "Date,Nom,Heures,Type\n2025-03-10,Alice,8,Normal\n2025-03-11,Alice,huit,Normal\n"

	t.Run("lenient skips", func(t *testing.T) {
		s, logs := newStore(t, ptr(content))

		entries, err := s.Load(context.Background())

		require.NoError(t, err)
		assert.Equal(t, []string{"2025-03-10 Alice 8 Normal"}, lines(entries))
		assert.Contains(t, logs.String(), "skipping row")
	})

	t.Run("strict fails", func(t *testing.T) {
		s, _ := newStore(t, ptr(content), csvfile.Strict(true))

		_, err := s.Load(context.Background())

		var corruptErr *timesheet.CorruptStoreError
		require.ErrorAs(t, err, &corruptErr)
		assert.Equal(t, 3, corruptErr.Line)
		assert.ErrorIs(t, err, timesheet.ErrInvalidHours)
	})
}

func TestLoad_LegacyFileMigrates(t *testing.T) {
	s, logs := newStore(t, ptr("Date,Nom,Heures\n2025-03-10,Alice,8\n"))

	entries, err := s.Load(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"2025-03-10 Alice 8 Normal"}, lines(entries))
	assert.Contains(t, logs.String(), "legacy schema")

	// A save writes the current header.
	require.NoError(t, s.Save(context.Background(), entries))
	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.Equal(t, "Date,Nom,Heures,Type\n2025-03-10,Alice,8,Normal\n", string(data))
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t, nil)
	monday, _ := timesheet.ParseDate("2025-03-10")
	sunday, _ := timesheet.ParseDate("2025-03-16")

	// GIVEN: entries with a duplicate slot and both categories
	original := timesheet.Entries{
		{Date: monday, Person: "Mélanie BOUVIER", Hours: decimal.RequireFromString("7.5"), Category: timesheet.CategoryNormal},
		{Date: monday, Person: "Mélanie BOUVIER", Hours: decimal.RequireFromString("1"), Category: timesheet.CategoryNormal},
		{Date: sunday, Person: "Régis ANGER", Hours: decimal.RequireFromString("12"), Category: timesheet.CategoryOnCall},
	}

	// WHEN
	require.NoError(t, s.Save(ctx, original))
	loaded, err := s.Load(ctx)

	// THEN: equal as a sequence
	require.NoError(t, err)
	assert.Equal(t, lines(original), lines(loaded))

	// Overwrite persists the same way.
	require.NoError(t, s.Overwrite(ctx, original[:1]))
	loaded, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, lines(original[:1]), lines(loaded))
}

func TestSave_FailureLeavesFileUntouched(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	blocker := filepath.Join(dir, "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	// A path under a regular file cannot be written.
	s, err := csvfile.New(filepath.Join(blocker, "heures.csv"))
	require.NoError(t, err)
	assert.Error(t, s.Save(ctx, nil))

	// An existing file survives a cancelled save.
	good, _ := newStore(t, ptr("Date,Nom,Heures,Type\n2025-03-10,Alice,8,Normal\n"))
	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, good.Save(cancelled, nil), context.Canceled)

	entries, err := good.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	leftovers, err := filepath.Glob(filepath.Join(filepath.Dir(good.Path()), "*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestNew_RequiresPath(t *testing.T) {
	_, err := csvfile.New("")
	assert.Error(t, err)
}

func TestStore_FileIsReadableBySheet(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t, nil)
	d, _ := timesheet.ParseDate("2025-03-10")
	require.NoError(t, s.Save(ctx, timesheet.Entries{{Date: d, Person: "Alice", Hours: decimal.NewFromInt(8)}}))

	f, err := os.Open(s.Path())
	require.NoError(t, err)
	defer f.Close()
	decoded, err := sheet.DecodeCSV(f)

	require.NoError(t, err)
	assert.Equal(t, sheet.Current, decoded.Schema)
	assert.Equal(t, []string{"2025-03-10 Alice 8 Normal"}, lines(decoded.Entries))
}
