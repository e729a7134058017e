package dataset

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dataveil/dataveil/pkg/frame"
)

func TestFilterRowsKeepsMatching(t *testing.T) {
	d := newTestDataset(t, peopleFrame(t))
	ctx := context.Background()

	require.NoError(t, d.FilterRows(ctx, []string{"age"}, "? >= 30", "", true))

	out, err := d.ToFrame(ctx)
	require.NoError(t, err)
	idx := out.ColumnIndex("age")
	for _, row := range out.Rows {
		require.NotNil(t, row[idx])
		assert.GreaterOrEqual(t, row[idx].(int64), int64(30))
	}
	// Schema is untouched, only rows go, and survivors keep their order.
	assert.Equal(t, []string{"name", "age", "city"}, out.Columns)
	names, err := out.Column("name")
	require.NoError(t, err)
	assert.Equal(t, []any{"ana", "bruno", "dario"}, names)
}

func TestFilterRowsDisjunctive(t *testing.T) {
	f, err := frame.FromColumns(
		[]string{"a", "b"},
		[][]any{{1, 5, 1}, {5, 1, 1}},
	)
	require.NoError(t, err)
	d := newTestDataset(t, f)
	ctx := context.Background()

	// Keep rows where a = 5 OR b = 5: drops only the (1, 1) row.
	require.NoError(t, d.FilterRows(ctx, []string{"a", "b"}, "? = 5", "?", false))

	n, err := d.RowCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestFilterRowsEmptyColumnsIsNoOp(t *testing.T) {
	d := newTestDataset(t, peopleFrame(t))
	ctx := context.Background()

	require.NoError(t, d.FilterRows(ctx, nil, "? > 0", "?", true))
	require.NoError(t, d.RemoveRows(ctx, nil, "? > 0", "?", true))

	n, err := d.RowCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n)
}

func TestFilterRowsMissingPlaceholder(t *testing.T) {
	d := newTestDataset(t, peopleFrame(t))
	err := d.FilterRows(context.Background(), []string{"age"}, "age > 30", "?", true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "placeholder")
}

func TestFilterRowsUnknownColumn(t *testing.T) {
	d := newTestDataset(t, peopleFrame(t))
	err := d.FilterRows(context.Background(), []string{"missing"}, "? > 0", "?", true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestRemoveRowsDeletesMatching(t *testing.T) {
	d := newTestDataset(t, peopleFrame(t))
	ctx := context.Background()

	require.NoError(t, d.RemoveRows(ctx, []string{"age"}, "? < 30", "?", true))

	out, err := d.ToFrame(ctx)
	require.NoError(t, err)
	idx := out.ColumnIndex("age")
	for _, row := range out.Rows {
		if row[idx] == nil {
			continue
		}
		assert.GreaterOrEqual(t, row[idx].(int64), int64(30))
	}
}

func TestRemoveRowsCustomPlaceholder(t *testing.T) {
	d := newTestDataset(t, peopleFrame(t))
	ctx := context.Background()

	require.NoError(t, d.RemoveRows(ctx, []string{"city"}, "@col = 'Madrid'", "@col", true))

	f, err := d.RunSQL(ctx, `SELECT COUNT(*) FROM `+quoteIdent(d.TableName())+` WHERE city = 'Madrid'`)
	require.NoError(t, err)
	assert.Equal(t, int64(0), f.Rows[0][0])
}

func TestRemoveNullRows(t *testing.T) {
	d := newTestDataset(t, peopleFrame(t))
	ctx := context.Background()

	// One row carries a NULL age.
	require.NoError(t, d.RemoveNullRows(ctx, "age"))

	out, err := d.ToFrame(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, out.NumRows())
	idx := out.ColumnIndex("age")
	for _, row := range out.Rows {
		assert.NotNil(t, row[idx])
	}
}

func TestRemoveNullRowsAllColumns(t *testing.T) {
	f, err := frame.FromColumns(
		[]string{"a", "b"},
		[][]any{{1, nil, 3}, {"x", "y", nil}},
	)
	require.NoError(t, err)
	d := newTestDataset(t, f)
	ctx := context.Background()

	// No columns named: a NULL anywhere removes the row.
	require.NoError(t, d.RemoveNullRows(ctx))

	n, err := d.RowCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
