package dataset

// synthetic.go - synthetic date and category replacement
//
// Category replacement is referentially consistent when the base column's
// cardinality is low: every occurrence of one original value maps to the
// same synthetic value, recorded in a side equivalence table the caller
// can inspect. High-cardinality columns fall back to independent per-row
// values.

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
)

// DateOptions controls synthetic date generation.
type DateOptions struct {
	// Start and End bound the generated dates, rendered in Format. A bound
	// left empty is derived per row from the base column's value. At least
	// one must be set.
	Start string
	End   string
	// Format is a Go time layout. Defaults to "2006-01-02".
	Format string
}

// AddSyntheticDateColumn appends a VARCHAR column of random dates drawn
// uniformly between the start and end bounds. With both bounds fixed the
// base column only aligns the rows; with one bound fixed the other derives
// from each row's base value. Rows whose window cannot be resolved (base
// NULL or unparsable, or lower bound not strictly before the upper) get
// NULL instead of failing the operation. newName empty defaults to
// "synthetic_{base}".
func (d *Dataset) AddSyntheticDateColumn(ctx context.Context, base, newName string, opts DateOptions) error {
	col, err := d.resolveColumn(ctx, base)
	if err != nil {
		return err
	}
	if newName == "" {
		newName = "synthetic_" + col.Name
	}
	layout := opts.Format
	if layout == "" {
		layout = "2006-01-02"
	}
	if opts.Start == "" && opts.End == "" {
		return fmt.Errorf("set at least one of Start or End")
	}
	var fixedStart, fixedEnd time.Time
	if opts.Start != "" {
		fixedStart, err = time.Parse(layout, opts.Start)
		if err != nil {
			return fmt.Errorf("invalid start date %q: %w", opts.Start, err)
		}
	}
	if opts.End != "" {
		fixedEnd, err = time.Parse(layout, opts.End)
		if err != nil {
			return fmt.Errorf("invalid end date %q: %w", opts.End, err)
		}
	}

	total, err := d.RowCount(ctx)
	if err != nil {
		return err
	}
	if total == 0 {
		return d.AddColumn(ctx, Vector{Name: newName})
	}
	values := make([]any, total)

	if opts.Start != "" && opts.End != "" {
		// Both bounds fixed: the base column only aligns the rows. An
		// unordered window yields all NULLs, per the per-row rule.
		if fixedStart.Before(fixedEnd) {
			for i := range values {
				values[i] = d.faker.DateRange(fixedStart, fixedEnd).Format(layout)
			}
		}
		return d.AddColumn(ctx, Vector{Name: newName, Values: values})
	}

	derived, err := d.dateValues(ctx, col.Name, col.Type, layout)
	if err != nil {
		return err
	}
	for i, dv := range derived {
		if dv == nil {
			continue
		}
		lo, hi := *dv, fixedEnd
		if opts.Start != "" {
			lo, hi = fixedStart, *dv
		}
		if !lo.Before(hi) {
			continue
		}
		values[i] = d.faker.DateRange(lo, hi).Format(layout)
	}
	return d.AddColumn(ctx, Vector{Name: newName, Values: values})
}

// SyntheticDateColumn replaces base with random dates in place.
func (d *Dataset) SyntheticDateColumn(ctx context.Context, base string, opts DateOptions) error {
	staged := d.tempName("sdate")
	return d.replaceViaStaged(ctx, base, staged, func() error {
		return d.AddSyntheticDateColumn(ctx, base, staged, opts)
	})
}

// dateValues reads the base column as times in row order; nil marks a
// missing or unparsable value. Text columns parse with layout, numeric
// columns are unix epoch seconds.
func (d *Dataset) dateValues(ctx context.Context, col, colType, layout string) ([]*time.Time, error) {
	t := strings.ToUpper(colType)
	q := fmt.Sprintf(`SELECT %s FROM %s ORDER BY rowid`,
		quoteIdent(col), quoteIdent(d.tableName))
	rows, err := d.db.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []*time.Time
	for rows.Next() {
		switch {
		case strings.Contains(t, "DATE"), strings.Contains(t, "TIMESTAMP"):
			var v sql.NullTime
			if err := rows.Scan(&v); err != nil {
				return nil, fmt.Errorf("failed to scan date value: %w", err)
			}
			if v.Valid {
				tv := v.Time
				out = append(out, &tv)
			} else {
				out = append(out, nil)
			}
		case strings.Contains(t, "CHAR"), strings.Contains(t, "STRING"), strings.Contains(t, "TEXT"):
			var v sql.NullString
			if err := rows.Scan(&v); err != nil {
				return nil, fmt.Errorf("failed to scan date value: %w", err)
			}
			tv, perr := time.Parse(layout, v.String)
			if !v.Valid || perr != nil {
				out = append(out, nil)
			} else {
				out = append(out, &tv)
			}
		default:
			var v sql.NullInt64
			if err := rows.Scan(&v); err != nil {
				return nil, fmt.Errorf("failed to scan date value: %w", err)
			}
			if v.Valid {
				tv := time.Unix(v.Int64, 0).UTC()
				out = append(out, &tv)
			} else {
				out = append(out, nil)
			}
		}
	}
	return out, rows.Err()
}

// CategoryKind names a synthetic category generator.
type CategoryKind string

const (
	CategoryCity      CategoryKind = "city"
	CategoryFirstName CategoryKind = "first_name"
	CategoryLastName  CategoryKind = "last_name"
	CategoryFullName  CategoryKind = "full_name"
	CategoryCompany   CategoryKind = "company"
	CategoryCountry   CategoryKind = "country"
	CategoryStreet    CategoryKind = "street"
)

func categoryGenerator(f *gofakeit.Faker, kind CategoryKind) (func() string, error) {
	switch kind {
	case CategoryCity:
		return f.City, nil
	case CategoryFirstName:
		return f.FirstName, nil
	case CategoryLastName:
		return f.LastName, nil
	case CategoryFullName:
		return f.Name, nil
	case CategoryCompany:
		return f.Company, nil
	case CategoryCountry:
		return f.Country, nil
	case CategoryStreet:
		return f.StreetName, nil
	default:
		return nil, fmt.Errorf("unknown category kind %q", kind)
	}
}

// CategoryOptions controls synthetic category replacement.
type CategoryOptions struct {
	Kind CategoryKind
	// MaxUniques overrides the dataset-level bound on the distinct-value
	// count for which an equivalence table is built.
	MaxUniques int
}

// AddSyntheticCategoryColumn appends a VARCHAR column of synthetic
// category values. When the base column's distinct count is within the
// uniques bound, equal originals map to equal synthetics and the mapping
// is materialized as "{table}_equivalences"; above the bound each row gets
// an independent value. newName empty defaults to "synthetic_{base}".
func (d *Dataset) AddSyntheticCategoryColumn(ctx context.Context, base, newName string, opts CategoryOptions) error {
	col, err := d.resolveColumn(ctx, base)
	if err != nil {
		return err
	}
	gen, err := categoryGenerator(d.faker, opts.Kind)
	if err != nil {
		return err
	}
	if newName == "" {
		newName = "synthetic_" + col.Name
	}
	maxUniq := opts.MaxUniques
	if maxUniq <= 0 {
		maxUniq = d.maxUniq
	}

	total, err := d.RowCount(ctx)
	if err != nil {
		return err
	}
	if total == 0 {
		return d.AddColumn(ctx, Vector{Name: newName})
	}

	var distinct int64
	q := fmt.Sprintf(`SELECT COUNT(DISTINCT %s) FROM %s`,
		quoteIdent(col.Name), quoteIdent(d.tableName))
	if err := d.db.QueryRow(ctx, q).Scan(&distinct); err != nil {
		return fmt.Errorf("failed to count distinct values: %w", err)
	}

	if distinct > int64(maxUniq) {
		d.logger.Debug("category cardinality above bound, generating independent values",
			"column", col.Name, "distinct", distinct, "max", maxUniq)
		nulls, err := d.nullMask(ctx, col.Name)
		if err != nil {
			return err
		}
		values := make([]any, total)
		for i := range values {
			if nulls[i] {
				continue
			}
			values[i] = gen()
		}
		return d.AddColumn(ctx, Vector{Name: newName, Values: values})
	}

	return d.addEquivalentCategoryColumn(ctx, col.Name, newName, gen, distinct)
}

// SyntheticCategoryColumn replaces base with synthetic category values in
// place. The equivalence table, when built, survives the replacement.
func (d *Dataset) SyntheticCategoryColumn(ctx context.Context, base string, opts CategoryOptions) error {
	staged := d.tempName("scat")
	return d.replaceViaStaged(ctx, base, staged, func() error {
		return d.AddSyntheticCategoryColumn(ctx, base, staged, opts)
	})
}

// addEquivalentCategoryColumn builds the original-to-synthetic equivalence
// table and joins it back by value.
func (d *Dataset) addEquivalentCategoryColumn(ctx context.Context, base, newName string, gen func() string, distinct int64) error {
	if err := validIdent(newName); err != nil {
		return err
	}
	eq := d.tableName + "_equivalences"
	b := quoteIdent(base)
	tbl := quoteIdent(d.tableName)

	create := fmt.Sprintf(
		`CREATE OR REPLACE TABLE %s AS
		 SELECT DISTINCT %s AS original, CAST(NULL AS VARCHAR) AS replacement
		 FROM %s WHERE %s IS NOT NULL`,
		quoteIdent(eq), b, tbl, b)
	if err := d.db.Exec(ctx, create); err != nil {
		return fmt.Errorf("failed to build equivalence table: %w", err)
	}

	tmp := d.tempName("cat")
	createTmp := fmt.Sprintf(`CREATE TEMP TABLE %s (__ord BIGINT, val VARCHAR)`, quoteIdent(tmp))
	if err := d.db.Exec(ctx, createTmp); err != nil {
		return fmt.Errorf("failed to stage category values: %w", err)
	}
	defer d.dropIfExists(ctx, tmp)

	ins := fmt.Sprintf(`INSERT INTO %s VALUES (?, ?)`, quoteIdent(tmp))
	for i := int64(0); i < distinct; i++ {
		if err := d.db.Exec(ctx, ins, i, gen()); err != nil {
			return fmt.Errorf("failed to stage category value: %w", err)
		}
	}

	fill := fmt.Sprintf(
		`UPDATE %s SET replacement = t.val
		 FROM (SELECT rowid AS rid, row_number() OVER (ORDER BY rowid) - 1 AS __ord FROM %s) m
		 JOIN %s t ON m.__ord = t.__ord
		 WHERE %s.rowid = m.rid`,
		quoteIdent(eq), quoteIdent(eq), quoteIdent(tmp), quoteIdent(eq))
	if err := d.db.Exec(ctx, fill); err != nil {
		return fmt.Errorf("failed to fill equivalence table: %w", err)
	}

	add := fmt.Sprintf(`ALTER TABLE %s ADD COLUMN %s VARCHAR`, tbl, quoteIdent(newName))
	if err := d.db.Exec(ctx, add); err != nil {
		return fmt.Errorf("failed to add column %s: %w", newName, err)
	}
	join := fmt.Sprintf(
		`UPDATE %s SET %s = e.replacement FROM %s e WHERE %s.%s = e.original`,
		tbl, quoteIdent(newName), quoteIdent(eq), tbl, b)
	if err := d.db.Exec(ctx, join); err != nil {
		if cerr := d.DropColumns(ctx, newName); cerr != nil {
			d.logger.Warn("failed to drop half-added column", "column", newName, "error", cerr)
		}
		return fmt.Errorf("failed to apply equivalences: %w", err)
	}

	d.equivalenceTable = eq
	d.logger.Info("equivalence table built", "table", eq, "entries", distinct)
	return nil
}
