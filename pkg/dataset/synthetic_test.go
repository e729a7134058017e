package dataset

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dataveil/dataveil/pkg/frame"
)

func TestAddSyntheticDateColumnWithinBounds(t *testing.T) {
	f, err := frame.FromColumns([]string{"joined"},
		[][]any{{"2020-01-15", "2021-06-30", nil, "2022-12-01"}})
	require.NoError(t, err)
	d := newTestDataset(t, f)
	ctx := context.Background()

	require.NoError(t, d.AddSyntheticDateColumn(ctx, "joined", "", DateOptions{
		Start: "2000-01-01",
		End:   "2009-12-31",
	}))

	out, err := d.ToFrame(ctx)
	require.NoError(t, err)
	idx := out.ColumnIndex("synthetic_joined")
	require.GreaterOrEqual(t, idx, 0)

	lo, _ := time.Parse("2006-01-02", "2000-01-01")
	hi, _ := time.Parse("2006-01-02", "2009-12-31")
	// Both bounds fixed: every row gets a value, NULL base included.
	for i, row := range out.Rows {
		require.NotNil(t, row[idx], "row %d", i)
		got, perr := time.Parse("2006-01-02", row[idx].(string))
		require.NoError(t, perr)
		assert.False(t, got.Before(lo))
		assert.True(t, got.Before(hi.AddDate(0, 0, 1)))
	}
}

func TestSyntheticDateStartDerivesFromColumn(t *testing.T) {
	f, err := frame.FromColumns([]string{"d"},
		[][]any{{"2015-03-01", "2015-03-10", "2015-03-20"}})
	require.NoError(t, err)
	d := newTestDataset(t, f)
	ctx := context.Background()

	require.NoError(t, d.AddSyntheticDateColumn(ctx, "d", "s", DateOptions{
		End: "2016-01-01",
	}))

	out, err := d.ToFrame(ctx)
	require.NoError(t, err)
	idx := out.ColumnIndex("s")
	hi, _ := time.Parse("2006-01-02", "2016-01-01")
	for _, row := range out.Rows {
		lo, perr := time.Parse("2006-01-02", row[0].(string))
		require.NoError(t, perr)
		got, perr := time.Parse("2006-01-02", row[idx].(string))
		require.NoError(t, perr)
		assert.False(t, got.Before(lo), "generated date before the row's own start")
		assert.True(t, got.Before(hi.AddDate(0, 0, 1)))
	}
}

func TestSyntheticDateUnresolvableRowsYieldNull(t *testing.T) {
	// Row 2 is unparsable, row 3 sits past the fixed end, row 4 is NULL:
	// each yields NULL without failing the rows that do resolve.
	f, err := frame.FromColumns([]string{"d"},
		[][]any{{"2015-03-01", "not a date", "2016-06-01", nil}})
	require.NoError(t, err)
	d := newTestDataset(t, f)
	ctx := context.Background()

	require.NoError(t, d.AddSyntheticDateColumn(ctx, "d", "s", DateOptions{
		End: "2016-01-01",
	}))

	out, err := d.ToFrame(ctx)
	require.NoError(t, err)
	idx := out.ColumnIndex("s")
	assert.NotNil(t, out.Rows[0][idx])
	assert.Nil(t, out.Rows[1][idx])
	assert.Nil(t, out.Rows[2][idx])
	assert.Nil(t, out.Rows[3][idx])
}

func TestSyntheticDateRequiresABound(t *testing.T) {
	f, err := frame.FromColumns([]string{"d"}, [][]any{{"2020-01-01"}})
	require.NoError(t, err)
	d := newTestDataset(t, f)

	err = d.AddSyntheticDateColumn(context.Background(), "d", "", DateOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Start or End")
}

func TestSyntheticDateCustomFormat(t *testing.T) {
	f, err := frame.FromColumns([]string{"d"}, [][]any{{"01/02/2020"}})
	require.NoError(t, err)
	d := newTestDataset(t, f)
	ctx := context.Background()

	require.NoError(t, d.AddSyntheticDateColumn(ctx, "d", "s", DateOptions{
		Start:  "01/01/2020",
		End:    "31/12/2020",
		Format: "02/01/2006",
	}))

	out, err := d.ToFrame(ctx)
	require.NoError(t, err)
	idx := out.ColumnIndex("s")
	_, perr := time.Parse("02/01/2006", out.Rows[0][idx].(string))
	assert.NoError(t, perr)
}

func TestSyntheticDateEndBeforeStart(t *testing.T) {
	f, err := frame.FromColumns([]string{"d"}, [][]any{{"2020-01-01", "2020-02-01"}})
	require.NoError(t, err)
	d := newTestDataset(t, f)
	ctx := context.Background()

	// Unordered fixed window: the column materializes all-NULL.
	require.NoError(t, d.AddSyntheticDateColumn(ctx, "d", "s", DateOptions{
		Start: "2021-01-01",
		End:   "2020-01-01",
	}))

	out, err := d.ToFrame(ctx)
	require.NoError(t, err)
	idx := out.ColumnIndex("s")
	require.GreaterOrEqual(t, idx, 0)
	for _, row := range out.Rows {
		assert.Nil(t, row[idx])
	}
}

func TestSyntheticDateColumnInPlace(t *testing.T) {
	f, err := frame.FromColumns([]string{"d"},
		[][]any{{"2020-01-01", "2020-06-01"}})
	require.NoError(t, err)
	d := newTestDataset(t, f)
	ctx := context.Background()

	require.NoError(t, d.SyntheticDateColumn(ctx, "d", DateOptions{
		Start: "1990-01-01",
		End:   "1999-12-31",
	}))

	names, err := d.ColumnNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"d"}, names)
}

func TestSyntheticCategoryReferentialConsistency(t *testing.T) {
	f, err := frame.FromColumns([]string{"city"},
		[][]any{{"Madrid", "Berlin", "Madrid", "Paris", "Berlin", "Madrid"}})
	require.NoError(t, err)
	d := newTestDataset(t, f)
	ctx := context.Background()

	require.NoError(t, d.AddSyntheticCategoryColumn(ctx, "city", "", CategoryOptions{Kind: CategoryCity}))

	out, err := d.ToFrame(ctx)
	require.NoError(t, err)
	idx := out.ColumnIndex("synthetic_city")
	require.GreaterOrEqual(t, idx, 0)

	// Equal originals map to equal synthetics.
	seen := map[string]string{}
	for _, row := range out.Rows {
		orig := row[0].(string)
		syn := row[idx].(string)
		if prev, ok := seen[orig]; ok {
			assert.Equal(t, prev, syn, "original %q", orig)
		}
		seen[orig] = syn
	}
	assert.Len(t, seen, 3)
}

func TestSyntheticCategoryEquivalenceTable(t *testing.T) {
	f, err := frame.FromColumns([]string{"city"},
		[][]any{{"Madrid", "Berlin", "Madrid", nil}})
	require.NoError(t, err)
	d := newTestDataset(t, f)
	ctx := context.Background()

	require.NoError(t, d.AddSyntheticCategoryColumn(ctx, "city", "", CategoryOptions{Kind: CategoryCity}))

	eq := d.EquivalenceTable()
	assert.Equal(t, d.TableName()+"_equivalences", eq)

	rows, err := d.RunSQL(ctx, fmt.Sprintf(`SELECT original, replacement FROM %s`, quoteIdent(eq)))
	require.NoError(t, err)
	// One entry per distinct non-NULL original, every replacement filled.
	require.Equal(t, 2, rows.NumRows())
	for _, row := range rows.Rows {
		assert.NotNil(t, row[1])
	}
}

func TestSyntheticCategoryHighCardinalityFallsBack(t *testing.T) {
	f, err := frame.FromColumns([]string{"name"},
		[][]any{{"a", "b", "c", "d", "e"}})
	require.NoError(t, err)
	d := newTestDataset(t, f)
	ctx := context.Background()

	require.NoError(t, d.AddSyntheticCategoryColumn(ctx, "name", "", CategoryOptions{
		Kind:       CategoryFirstName,
		MaxUniques: 2,
	}))

	out, err := d.ToFrame(ctx)
	require.NoError(t, err)
	idx := out.ColumnIndex("synthetic_name")
	for _, row := range out.Rows {
		require.NotNil(t, row[idx])
		assert.NotEmpty(t, row[idx].(string))
	}
	// No equivalence table materializes on the fallback path.
	assert.Empty(t, d.EquivalenceTable())
}

func TestSyntheticCategoryKeepsNulls(t *testing.T) {
	f, err := frame.FromColumns([]string{"city"},
		[][]any{{"Madrid", nil, "Berlin"}})
	require.NoError(t, err)
	d := newTestDataset(t, f)
	ctx := context.Background()

	require.NoError(t, d.AddSyntheticCategoryColumn(ctx, "city", "s", CategoryOptions{Kind: CategoryCity}))

	out, err := d.ToFrame(ctx)
	require.NoError(t, err)
	idx := out.ColumnIndex("s")
	assert.NotNil(t, out.Rows[0][idx])
	assert.Nil(t, out.Rows[1][idx])
}

func TestSyntheticCategoryUnknownKind(t *testing.T) {
	d := newTestDataset(t, peopleFrame(t))
	err := d.AddSyntheticCategoryColumn(context.Background(), "city", "", CategoryOptions{Kind: "planet"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown category kind")
}

func TestSyntheticCategoryColumnInPlace(t *testing.T) {
	f, err := frame.FromColumns([]string{"city"},
		[][]any{{"Madrid", "Berlin", "Madrid"}})
	require.NoError(t, err)
	d := newTestDataset(t, f)
	ctx := context.Background()

	require.NoError(t, d.SyntheticCategoryColumn(ctx, "city", CategoryOptions{Kind: CategoryCity}))

	out, err := d.ToFrame(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"city"}, out.Columns)
	// Referential consistency survives in-place replacement.
	assert.Equal(t, out.Rows[0][0], out.Rows[2][0])
}
