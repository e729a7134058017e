package dataset

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDropColumns(t *testing.T) {
	d := newTestDataset(t, peopleFrame(t))
	ctx := context.Background()

	require.NoError(t, d.DropColumns(ctx, "city"))

	names, err := d.ColumnNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "age"}, names)

	// Row count is untouched.
	n, err := d.RowCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)
}

func TestDropColumnsCaseInsensitive(t *testing.T) {
	d := newTestDataset(t, peopleFrame(t))
	ctx := context.Background()

	require.NoError(t, d.DropColumns(ctx, "CITY"))
	names, err := d.ColumnNames(ctx)
	require.NoError(t, err)
	assert.NotContains(t, names, "city")
}

func TestDropColumnsEmptyIsNoOp(t *testing.T) {
	d := newTestDataset(t, peopleFrame(t))
	ctx := context.Background()

	require.NoError(t, d.DropColumns(ctx))
	names, err := d.ColumnNames(ctx)
	require.NoError(t, err)
	assert.Len(t, names, 3)
}

func TestDropColumnsUnknownColumn(t *testing.T) {
	d := newTestDataset(t, peopleFrame(t))
	err := d.DropColumns(context.Background(), "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestDropColumnsRejectsDroppingAll(t *testing.T) {
	d := newTestDataset(t, peopleFrame(t))
	err := d.DropColumns(context.Background(), "name", "age", "city")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot drop all columns")

	// The table survives untouched.
	names, err := d.ColumnNames(context.Background())
	require.NoError(t, err)
	assert.Len(t, names, 3)
}

func TestAddThenDropRoundTrip(t *testing.T) {
	d := newTestDataset(t, peopleFrame(t))
	ctx := context.Background()

	before, err := d.ToFrame(ctx)
	require.NoError(t, err)

	require.NoError(t, d.AddColumn(ctx, NewVector("extra", 1, 2, 3, 4, 5)))
	require.NoError(t, d.DropColumns(ctx, "extra"))

	after, err := d.ToFrame(ctx)
	require.NoError(t, err)
	assert.Equal(t, before.Columns, after.Columns)
	assert.Equal(t, before.Rows, after.Rows)
}

func TestReplaceColumns(t *testing.T) {
	d := newTestDataset(t, peopleFrame(t))
	ctx := context.Background()

	require.NoError(t, d.AddColumn(ctx, NewVector("alias", "a", "b", "c", "d", "e")))
	require.NoError(t, d.ReplaceColumns(ctx, []string{"name"}, []string{"alias"}))

	f, err := d.ToFrame(ctx)
	require.NoError(t, err)

	// name keeps its position but carries alias values; alias survives.
	assert.Equal(t, []string{"name", "age", "city", "alias"}, f.Columns)
	assert.Equal(t, "a", f.Rows[0][0])
	assert.Equal(t, "e", f.Rows[4][0])
}

func TestReplaceColumnsLengthMismatch(t *testing.T) {
	d := newTestDataset(t, peopleFrame(t))
	err := d.ReplaceColumns(context.Background(), []string{"name", "age"}, []string{"city"})
	require.Error(t, err)
}

func TestRenameColumns(t *testing.T) {
	d := newTestDataset(t, peopleFrame(t))
	ctx := context.Background()

	require.NoError(t, d.RenameColumns(ctx, []string{"name", "city"}, []string{"full_name", "municipality"}))

	names, err := d.ColumnNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"full_name", "age", "municipality"}, names)
}

func TestRenameColumnsRejectsCollision(t *testing.T) {
	d := newTestDataset(t, peopleFrame(t))
	err := d.RenameColumns(context.Background(), []string{"name"}, []string{"age"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestRenameColumnsRejectsInvalidName(t *testing.T) {
	d := newTestDataset(t, peopleFrame(t))
	err := d.RenameColumns(context.Background(), []string{"name"}, []string{"bad name"})
	require.Error(t, err)
}

func TestSetColumnType(t *testing.T) {
	d := newTestDataset(t, peopleFrame(t))
	ctx := context.Background()

	require.NoError(t, d.SetColumnType(ctx, []string{"age"}, []string{"DOUBLE"}))

	cols, err := d.Columns(ctx)
	require.NoError(t, err)
	assert.Equal(t, "DOUBLE", cols[1].Type)
}

func TestSetColumnTypeRejectsBadType(t *testing.T) {
	d := newTestDataset(t, peopleFrame(t))
	err := d.SetColumnType(context.Background(), []string{"age"}, []string{"DOUBLE; DROP TABLE x"})
	require.Error(t, err)
}
