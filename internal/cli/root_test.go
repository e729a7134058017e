package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with args and returns its stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeCSV(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "people.csv")
	csv := "name,age,city\nana,31,Madrid\nbruno,45,Madrid\ncarla,28,Lisboa\n"
	require.NoError(t, os.WriteFile(path, []byte(csv), 0o644))
	return path
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, Version)
}

func TestVersionFlag(t *testing.T) {
	out, err := execute(t, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, "Built with Go and DuckDB")
}

func TestPreviewCommand(t *testing.T) {
	path := writeCSV(t)
	out, err := execute(t, "preview", path, "-n", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "3 columns, 3 rows")
	assert.Contains(t, out, "ana")
	assert.Contains(t, out, "(2 rows)")
}

func TestPreviewCommandJSONOutput(t *testing.T) {
	path := writeCSV(t)
	out, err := execute(t, "preview", path, "-o", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"name": "ana"`)
}

func TestPreviewCommandMissingFile(t *testing.T) {
	_, err := execute(t, "preview", filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
}

func TestGroupsCommand(t *testing.T) {
	path := writeCSV(t)
	out, err := execute(t, "groups", path, "-c", "city", "--desc")
	require.NoError(t, err)
	assert.Contains(t, out, "Group_1")
	assert.Contains(t, out, "2")
}

func TestGroupsCommandDefaultsToAllColumns(t *testing.T) {
	path := writeCSV(t)
	out, err := execute(t, "groups", path)
	require.NoError(t, err)
	// Every fixture row is unique, so whole-row grouping yields one
	// group per row.
	assert.Contains(t, out, "Group_3")
}

func TestRunCommand(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.csv")
	out := filepath.Join(dir, "out.csv")
	require.NoError(t, os.WriteFile(in, []byte("dni,age\n12345678,31\n98765432,45\n"), 0o644))

	rec := filepath.Join(dir, "recipe.yaml")
	yaml := "input:\n  csv: " + in + "\nsteps:\n  - op: mask\n    column: dni\n    right: 4\noutput:\n  csv: " + out + "\n"
	require.NoError(t, os.WriteFile(rec, []byte(yaml), 0o644))

	stdout, err := execute(t, "run", rec)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Applied 1 steps to 2 rows")

	_, err = os.Stat(out)
	assert.NoError(t, err)
}

func TestRunCommandBadRecipe(t *testing.T) {
	rec := filepath.Join(t.TempDir(), "recipe.yaml")
	require.NoError(t, os.WriteFile(rec, []byte("steps: []\n"), 0o644))

	_, err := execute(t, "run", rec)
	require.Error(t, err)
}
