package frame

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromColumns(t *testing.T) {
	f, err := FromColumns(
		[]string{"a", "b"},
		[][]any{{1, 2, 3}, {"x", nil, "z"}},
	)
	require.NoError(t, err)
	assert.Equal(t, 3, f.NumRows())
	assert.Equal(t, 2, f.NumColumns())
	assert.Equal(t, []any{1, "x"}, f.Rows[0])
	assert.Equal(t, []any{2, nil}, f.Rows[1])
}

func TestFromColumnsLengthMismatch(t *testing.T) {
	_, err := FromColumns([]string{"a", "b"}, [][]any{{1, 2}, {1}})
	require.Error(t, err)

	_, err = FromColumns([]string{"a"}, [][]any{{1}, {2}})
	require.Error(t, err)
}

func TestFromColumnsEmpty(t *testing.T) {
	f, err := FromColumns(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, f.NumRows())
	assert.Equal(t, 0, f.NumColumns())
}

func TestAppend(t *testing.T) {
	f := New("a", "b")
	require.NoError(t, f.Append(1, "x"))
	require.NoError(t, f.Append(nil, "y"))
	assert.Equal(t, 2, f.NumRows())

	err := f.Append(1)
	require.Error(t, err)
	assert.Equal(t, 2, f.NumRows())
}

func TestColumnIndex(t *testing.T) {
	f := New("a", "b")
	assert.Equal(t, 1, f.ColumnIndex("b"))
	assert.Equal(t, -1, f.ColumnIndex("c"))
}

func TestColumn(t *testing.T) {
	f, err := FromColumns([]string{"a", "b"}, [][]any{{1, 2}, {"x", "y"}})
	require.NoError(t, err)

	vals, err := f.Column("b")
	require.NoError(t, err)
	assert.Equal(t, []any{"x", "y"}, vals)

	_, err = f.Column("missing")
	require.Error(t, err)
}
