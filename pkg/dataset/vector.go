package dataset

// vector.go - positional (row-ordinal) column addition
//
// A vector is aligned with the canonical table by row ordinal, not by
// value. Alignment is made explicit: the vector lands in a transient table
// carrying its own ordinal column, and the canonical side derives ordinals
// with row_number() inside the same joining query, so the pairing never
// depends on scan order between statements.

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dataveil/dataveil/pkg/adapter"
)

// Vector is a named column of values destined for positional alignment.
// A nil value is a SQL NULL.
type Vector struct {
	Name   string
	Values []any
}

// NewVector builds a vector from a name and values.
func NewVector(name string, values ...any) Vector {
	return Vector{Name: name, Values: values}
}

// AddColumn appends v as a new column of the canonical table, pairing
// values with rows by ordinal. The vector length must equal the current
// row count and its name must not collide with an existing column.
func (d *Dataset) AddColumn(ctx context.Context, v Vector) error {
	if err := validIdent(v.Name); err != nil {
		return err
	}
	cols, err := d.Columns(ctx)
	if err != nil {
		return err
	}
	if d.hasColumn(cols, v.Name) {
		return fmt.Errorf("column %q already exists in table %s", v.Name, d.tableName)
	}

	n, err := d.RowCount(ctx)
	if err != nil {
		return err
	}
	if int64(len(v.Values)) != n {
		return fmt.Errorf("vector %q has %d values, table %s has %d rows",
			v.Name, len(v.Values), d.tableName, n)
	}

	tmp := d.tempName("vec")
	valType := sqlTypeOfValues(v.Values)
	create := fmt.Sprintf(`CREATE TEMP TABLE %s (__ord BIGINT, %s %s)`,
		quoteIdent(tmp), quoteIdent(v.Name), valType)
	if err := d.db.Exec(ctx, create); err != nil {
		return fmt.Errorf("failed to stage vector: %w", err)
	}
	defer d.dropIfExists(ctx, tmp)

	ins := fmt.Sprintf(`INSERT INTO %s VALUES (?, ?)`, quoteIdent(tmp))
	for i, val := range v.Values {
		if err := d.db.Exec(ctx, ins, i, val); err != nil {
			return fmt.Errorf("failed to stage vector value %d: %w", i, err)
		}
	}

	return d.joinStagedColumn(ctx, cols, tmp, v.Name, fmt.Sprintf("t.%s", quoteIdent(v.Name)))
}

// joinStagedColumn rewrites the canonical table joining the staged ordinal
// table tmp on row ordinal, appending valueExpr under newName. cols is the
// canonical column set at the time of staging; valueExpr may reference the
// staged table as t.
func (d *Dataset) joinStagedColumn(ctx context.Context, cols []adapter.Column, tmp, newName, valueExpr string) error {
	parts := make([]string, 0, len(cols)+1)
	for _, c := range cols {
		parts = append(parts, fmt.Sprintf("b.%s", quoteIdent(c.Name)))
	}
	parts = append(parts, fmt.Sprintf("%s AS %s", valueExpr, quoteIdent(newName)))

	proj := fmt.Sprintf(
		`SELECT %s
		 FROM (SELECT *, row_number() OVER () - 1 AS __ord FROM %s) b
		 JOIN %s t ON b.__ord = t.__ord
		 ORDER BY b.__ord`,
		strings.Join(parts, ", "), quoteIdent(d.tableName), quoteIdent(tmp))
	if err := d.rewrite(ctx, proj); err != nil {
		return err
	}
	d.logger.Debug("column added", "table", d.tableName, "column", newName)
	return nil
}

// sqlTypeOfValues infers a storage type from the first non-nil value.
func sqlTypeOfValues(vals []any) string {
	for _, v := range vals {
		switch v.(type) {
		case nil:
			continue
		case bool:
			return "BOOLEAN"
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
			return "BIGINT"
		case float32, float64:
			return "DOUBLE"
		case time.Time:
			return "TIMESTAMP"
		default:
			return "VARCHAR"
		}
	}
	return "VARCHAR"
}
