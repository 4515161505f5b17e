package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/timesheet/config"
)

func run(t *testing.T, cfg config.Config, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCommand(&cfg)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func testConfig(t *testing.T) config.Config {
	t.Setenv("TIMESHEET_STORE", "")
	return config.Config{
		Backend:     config.BackendCSV,
		AdminSecret: "s3cret",
		People:      []string{"Alice", "Bob"},
	}
}

func TestImportWeekExport(t *testing.T) {
	dir := t.TempDir()
	storePath := filepath.Join(dir, "heures.csv")
	upload := filepath.Join(dir, "upload.csv")
	require.NoError(t, os.WriteFile(upload, []byte(
		"Date,Nom,Heures,Type\n2025-03-10,Alice,8,Normal\n2025-03-16,Alice,3,Astreinte\n"), 0o644))
	cfg := testConfig(t)

	// GIVEN: an imported sheet
	out, err := run(t, cfg, "import", upload, "--store", storePath)
	require.NoError(t, err, out)
	assert.Contains(t, out, "imported 2 entries")

	// WHEN: Alice's week is printed
	out, err = run(t, cfg, "week", "--person", "Alice", "--date", "2025-03-12", "--store", storePath)

	// THEN
	require.NoError(t, err, out)
	assert.Contains(t, out, "Week 11 (10/03 - 16/03)")
	assert.Contains(t, out, "Total hours: 8.0 h")
	assert.Contains(t, out, "Total on-call: 3.0 h")

	out, err = run(t, cfg, "export", "--out", "-", "--store", storePath)
	require.NoError(t, err)
	assert.Equal(t, "Date,Nom,Heures,Type\n2025-03-10,Alice,8,Normal\n2025-03-16,Alice,3,Astreinte\n", out)
}

func TestImport_WrongSecretLeavesStore(t *testing.T) {
	dir := t.TempDir()
	storePath := filepath.Join(dir, "heures.csv")
	upload := filepath.Join(dir, "upload.csv")
	require.NoError(t, os.WriteFile(upload, []byte("Date,Nom,Heures\n2025-03-10,Alice,8\n"), 0o644))

	_, err := run(t, testConfig(t), "import", upload, "--store", storePath, "--secret", "nope")

	assert.Error(t, err)
	_, statErr := os.Stat(storePath)
	assert.True(t, os.IsNotExist(statErr))
}

func TestImport_RefusesEmptyFile(t *testing.T) {
	for name, content := range map[string]string{
		"blank":           "",
		"header only":     "Date,Nom,Heures,Type\n",
		"no readable row": "Date,Nom,Heures\nlundi,Bob,6\n",
	} {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			storePath := filepath.Join(dir, "heures.csv")
			existing := "Date,Nom,Heures,Type\n2025-03-10,Alice,8,Normal\n"
			require.NoError(t, os.WriteFile(storePath, []byte(existing), 0o644))
			upload := filepath.Join(dir, "upload.csv")
			require.NoError(t, os.WriteFile(upload, []byte(content), 0o644))

			_, err := run(t, testConfig(t), "import", upload, "--store", storePath)

			assert.ErrorContains(t, err, "holds no data")
			data, err := os.ReadFile(storePath)
			require.NoError(t, err)
			assert.Equal(t, existing, string(data))
		})
	}
}

func TestWeek_UnknownPerson(t *testing.T) {
	_, err := run(t, testConfig(t), "week", "--person", "Mallory", "--store", filepath.Join(t.TempDir(), "h.csv"))
	assert.Error(t, err)
}

func TestHash(t *testing.T) {
	out, err := run(t, testConfig(t), "hash", "s3cret", "--store", filepath.Join(t.TempDir(), "h.csv"))

	require.NoError(t, err)
	assert.Contains(t, out, "v1$")
}
