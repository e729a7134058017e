package duckdb

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dataveil/dataveil/pkg/adapter"
)

func newConnected(t *testing.T) *Adapter {
	t.Helper()
	a := New(nil)
	require.NoError(t, a.Connect(context.Background(), adapter.Config{Type: "duckdb"}))
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestConnectInMemory(t *testing.T) {
	a := newConnected(t)
	assert.True(t, a.IsConnected())
}

func TestRegisteredInRegistry(t *testing.T) {
	assert.True(t, adapter.IsRegistered("duckdb"))
}

func TestExecAndQuery(t *testing.T) {
	a := newConnected(t)
	ctx := context.Background()

	require.NoError(t, a.Exec(ctx, `CREATE TABLE t (a INT, b VARCHAR)`))
	require.NoError(t, a.Exec(ctx, `INSERT INTO t VALUES (1, 'x'), (2, 'y')`))

	var n int64
	require.NoError(t, a.QueryRow(ctx, `SELECT COUNT(*) FROM t`).Scan(&n))
	assert.Equal(t, int64(2), n)
}

func TestTempTablesSurviveAcrossStatements(t *testing.T) {
	a := newConnected(t)
	ctx := context.Background()

	require.NoError(t, a.Exec(ctx, `CREATE TEMP TABLE staging (v INT)`))
	require.NoError(t, a.Exec(ctx, `INSERT INTO staging VALUES (42)`))

	var v int
	require.NoError(t, a.QueryRow(ctx, `SELECT v FROM staging`).Scan(&v))
	assert.Equal(t, 42, v)
}

func TestGetTableMetadata(t *testing.T) {
	a := newConnected(t)
	ctx := context.Background()

	require.NoError(t, a.Exec(ctx, `CREATE TABLE people (name VARCHAR, age BIGINT)`))
	require.NoError(t, a.Exec(ctx, `INSERT INTO people VALUES ('ana', 30), ('bruno', 41)`))

	meta, err := a.GetTableMetadata(ctx, "people")
	require.NoError(t, err)
	assert.Equal(t, "people", meta.Name)
	assert.Equal(t, int64(2), meta.RowCount)
	require.Len(t, meta.Columns, 2)
	assert.Equal(t, "name", meta.Columns[0].Name)
	assert.Equal(t, "VARCHAR", meta.Columns[0].Type)
	assert.Equal(t, "BIGINT", meta.Columns[1].Type)
	assert.Equal(t, 2, meta.Columns[1].Position)
}

func TestGetTableMetadataNotFound(t *testing.T) {
	a := newConnected(t)
	_, err := a.GetTableMetadata(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestLoadCSV(t *testing.T) {
	a := newConnected(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte("id,name\n1,ana\n2,bruno\n"), 0o644))

	require.NoError(t, a.LoadCSV(ctx, "people", path))

	meta, err := a.GetTableMetadata(ctx, "people")
	require.NoError(t, err)
	assert.Equal(t, int64(2), meta.RowCount)
}

func TestLoadCSVReplacesExisting(t *testing.T) {
	a := newConnected(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte("id\n1\n2\n3\n"), 0o644))

	require.NoError(t, a.Exec(ctx, `CREATE TABLE people (old INT)`))
	require.NoError(t, a.LoadCSV(ctx, "people", path))

	meta, err := a.GetTableMetadata(ctx, "people")
	require.NoError(t, err)
	assert.Equal(t, int64(3), meta.RowCount)
	assert.Equal(t, "id", meta.Columns[0].Name)
}

func TestConnectFilePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.duckdb")
	ctx := context.Background()

	a := New(nil)
	require.NoError(t, a.Connect(ctx, adapter.Config{Type: "duckdb", Path: path}))
	require.NoError(t, a.Exec(ctx, `CREATE TABLE t AS SELECT 1 AS a`))
	require.NoError(t, a.Close())

	b := New(nil)
	require.NoError(t, b.Connect(ctx, adapter.Config{Type: "duckdb", Path: path}))
	t.Cleanup(func() { _ = b.Close() })

	var v int
	require.NoError(t, b.QueryRow(ctx, `SELECT a FROM t`).Scan(&v))
	assert.Equal(t, 1, v)
}
