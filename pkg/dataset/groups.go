package dataset

// groups.go - group frequency analysis

import (
	"context"
	"fmt"
	"strings"

	"github.com/dataveil/dataveil/pkg/frame"
)

// GroupsOptions controls group analysis over one or more columns.
type GroupsOptions struct {
	// Columns are the grouping columns. Empty groups by every column.
	Columns []string

	// NamePrefix labels each group as "{prefix}{ordinal}". Defaults to
	// "Group_".
	NamePrefix string
	// GroupColumn, CountColumn and DataColumn name the result columns.
	// They default to "Group_Name", "Count" and "Data".
	GroupColumn string
	CountColumn string
	DataColumn  string

	// CountFilter is a HAVING template over the group size; the
	// placeholder is substituted with the count expression (e.g.
	// "? >= 10"). Empty keeps every group.
	CountFilter string
	// Placeholder is the token in CountFilter. Defaults to "?".
	Placeholder string

	// Descending orders groups by decreasing size. Labels follow the
	// chosen order.
	Descending bool
	// Limit caps the number of returned groups; 0 means no cap.
	Limit int
}

func (o *GroupsOptions) defaults() {
	if o.NamePrefix == "" {
		o.NamePrefix = "Group_"
	}
	if o.GroupColumn == "" {
		o.GroupColumn = "Group_Name"
	}
	if o.CountColumn == "" {
		o.CountColumn = "Count"
	}
	if o.DataColumn == "" {
		o.DataColumn = "Data"
	}
	if o.Placeholder == "" {
		o.Placeholder = DefaultPlaceholder
	}
}

// Groups returns the value groups of the given columns with their sizes
// and member values: one row per group, labeled "{prefix}{n}" in size
// order.
func (d *Dataset) Groups(ctx context.Context, opts GroupsOptions) (*frame.Frame, error) {
	opts.defaults()
	if len(opts.Columns) == 0 {
		var err error
		opts.Columns, err = d.ColumnNames(ctx)
		if err != nil {
			return nil, err
		}
	}
	existing, err := d.Columns(ctx)
	if err != nil {
		return nil, err
	}
	quoted := make([]string, len(opts.Columns))
	for i, c := range opts.Columns {
		if !d.hasColumn(existing, c) {
			return nil, fmt.Errorf("column %q does not exist in table %s", c, d.tableName)
		}
		quoted[i] = quoteIdent(c)
	}
	for _, n := range []string{opts.GroupColumn, opts.CountColumn, opts.DataColumn} {
		if err := validIdent(n); err != nil {
			return nil, err
		}
	}

	having := ""
	if opts.CountFilter != "" {
		if !strings.Contains(opts.CountFilter, opts.Placeholder) {
			return nil, fmt.Errorf("count filter %q does not contain placeholder %q",
				opts.CountFilter, opts.Placeholder)
		}
		having = " HAVING " + strings.ReplaceAll(opts.CountFilter, opts.Placeholder, "COUNT(*)")
	}
	dir := "ASC"
	if opts.Descending {
		dir = "DESC"
	}
	limit := ""
	if opts.Limit > 0 {
		limit = fmt.Sprintf(" LIMIT %d", opts.Limit)
	}

	// Labels and output share the one ordinal, so groups with equal
	// counts still come back in label-suffix order.
	cols := strings.Join(quoted, ", ")
	q := fmt.Sprintf(
		`SELECT %s || CAST(ord AS VARCHAR) AS %s, cnt AS %s, data AS %s
		 FROM (SELECT row_number() OVER (ORDER BY cnt %s) AS ord, cnt, data
		       FROM (SELECT COUNT(*) AS cnt, list_value(%s) AS data
		             FROM %s GROUP BY %s%s))
		 ORDER BY ord%s`,
		quoteLiteral(opts.NamePrefix), quoteIdent(opts.GroupColumn),
		quoteIdent(opts.CountColumn), quoteIdent(opts.DataColumn),
		dir, cols, quoteIdent(d.tableName), cols, having, limit)
	return d.queryFrame(ctx, q)
}

// Groupings returns group labels and sizes only, without member values.
func (d *Dataset) Groupings(ctx context.Context, opts GroupsOptions) (*frame.Frame, error) {
	opts.defaults()
	full, err := d.Groups(ctx, opts)
	if err != nil {
		return nil, err
	}
	out := frame.New(opts.GroupColumn, opts.CountColumn)
	for _, row := range full.Rows {
		if err := out.Append(row[0], row[1]); err != nil {
			return nil, err
		}
	}
	return out, nil
}
