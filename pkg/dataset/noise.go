package dataset

// noise.go - gaussian, impulse and salt-and-pepper noise injection
//
// Gaussian noise is a fresh column sampled from the base column's own
// distribution. Impulse and salt-and-pepper perturb a copy of the base at
// randomly sampled row positions; positions travel through a transient
// ordinal table and land in a single set-oriented UPDATE.

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dataveil/dataveil/pkg/adapter"
)

// SampleOptions selects how many rows a noise operation perturbs. Exactly
// one of SamplePct or NSamples must be set.
type SampleOptions struct {
	// SamplePct is the percentage of rows to perturb, in (0, 100].
	SamplePct float64
	// NSamples is the absolute number of rows to perturb.
	NSamples int
}

// sampleCount resolves o against the table's row count. At least one row
// is always sampled when the table is non-empty.
func (o SampleOptions) sampleCount(total int64) (int, error) {
	switch {
	case o.SamplePct != 0 && o.NSamples != 0:
		return 0, fmt.Errorf("set exactly one of SamplePct or NSamples, got both")
	case o.SamplePct == 0 && o.NSamples == 0:
		return 0, fmt.Errorf("set exactly one of SamplePct or NSamples")
	case o.SamplePct != 0:
		if o.SamplePct < 0 || o.SamplePct > 100 {
			return 0, fmt.Errorf("SamplePct must be in (0, 100], got %v", o.SamplePct)
		}
		k := int(o.SamplePct / 100 * float64(total))
		if k < 1 {
			k = 1
		}
		if int64(k) > total {
			k = int(total)
		}
		return k, nil
	default:
		if o.NSamples < 1 || int64(o.NSamples) > total {
			return 0, fmt.Errorf("NSamples must be in [1, %d], got %d", total, o.NSamples)
		}
		return o.NSamples, nil
	}
}

// ensureNumeric fails unless col holds a numeric type.
func ensureNumeric(col adapter.Column) error {
	t := strings.ToUpper(col.Type)
	for _, kw := range []string{"INT", "DECIMAL", "NUMERIC", "FLOAT", "DOUBLE", "REAL"} {
		if strings.Contains(t, kw) {
			return nil
		}
	}
	return fmt.Errorf("column %q has type %s, noise needs a numeric column", col.Name, col.Type)
}

// AddGaussianNoiseColumn appends a DOUBLE column of samples drawn from a
// normal distribution parameterized by the base column's mean and
// population standard deviation. Rows where the base is NULL get NULL.
// newName empty defaults to "gaussian_{base}".
func (d *Dataset) AddGaussianNoiseColumn(ctx context.Context, base, newName string) error {
	col, err := d.resolveColumn(ctx, base)
	if err != nil {
		return err
	}
	if err := ensureNumeric(col); err != nil {
		return err
	}
	if newName == "" {
		newName = "gaussian_" + col.Name
	}

	var count int64
	var mean, sd sql.NullFloat64
	stats := fmt.Sprintf(`SELECT COUNT(%s), AVG(%s), STDDEV_POP(%s) FROM %s`,
		quoteIdent(col.Name), quoteIdent(col.Name), quoteIdent(col.Name), quoteIdent(d.tableName))
	if err := d.db.QueryRow(ctx, stats).Scan(&count, &mean, &sd); err != nil {
		return fmt.Errorf("failed to compute column statistics: %w", err)
	}

	total, err := d.RowCount(ctx)
	if err != nil {
		return err
	}
	if total == 0 {
		return d.AddColumn(ctx, Vector{Name: newName})
	}
	if count > 0 && (!mean.Valid || !sd.Valid) {
		return fmt.Errorf("could not compute statistics for column %q", col.Name)
	}

	nulls, err := d.nullMask(ctx, col.Name)
	if err != nil {
		return err
	}
	values := make([]any, total)
	for i := range values {
		if nulls[i] {
			continue
		}
		values[i] = d.rng.NormFloat64()*sd.Float64 + mean.Float64
	}
	return d.AddColumn(ctx, Vector{Name: newName, Values: values})
}

// GaussianColumn replaces base with gaussian samples drawn from its own
// distribution.
func (d *Dataset) GaussianColumn(ctx context.Context, base string) error {
	staged := d.tempName("gauss")
	return d.replaceViaStaged(ctx, base, staged, func() error {
		return d.AddGaussianNoiseColumn(ctx, base, staged)
	})
}

// ImpulseOptions controls impulse noise. Exactly one of Magnitude or
// MagnitudePct must be set, on top of the sampling directive.
type ImpulseOptions struct {
	SampleOptions

	// Magnitude is the absolute impulse bound: each perturbed row moves
	// by a uniform draw from [-Magnitude, Magnitude].
	Magnitude float64
	// MagnitudePct sets the bound as a percentage of max(abs(base)).
	MagnitudePct float64
}

// AddImpulseNoiseColumn appends a DOUBLE copy of base where a random
// sample of rows is shifted by bounded uniform impulses. newName empty
// defaults to "impulse_{base}".
func (d *Dataset) AddImpulseNoiseColumn(ctx context.Context, base, newName string, opts ImpulseOptions) error {
	col, err := d.resolveColumn(ctx, base)
	if err != nil {
		return err
	}
	if err := ensureNumeric(col); err != nil {
		return err
	}
	if (opts.Magnitude != 0) == (opts.MagnitudePct != 0) {
		return fmt.Errorf("set exactly one of Magnitude or MagnitudePct")
	}
	if opts.Magnitude < 0 || opts.MagnitudePct < 0 {
		return fmt.Errorf("impulse magnitude must be positive")
	}
	if newName == "" {
		newName = "impulse_" + col.Name
	}

	total, err := d.RowCount(ctx)
	if err != nil {
		return err
	}
	if total == 0 {
		return d.AddColumn(ctx, Vector{Name: newName})
	}
	k, err := opts.sampleCount(total)
	if err != nil {
		return err
	}

	bound := opts.Magnitude
	if opts.MagnitudePct != 0 {
		var maxAbs sql.NullFloat64
		q := fmt.Sprintf(`SELECT MAX(ABS(%s)) FROM %s`, quoteIdent(col.Name), quoteIdent(d.tableName))
		if err := d.db.QueryRow(ctx, q).Scan(&maxAbs); err != nil {
			return fmt.Errorf("failed to compute magnitude bound: %w", err)
		}
		if !maxAbs.Valid {
			return fmt.Errorf("could not compute magnitude bound for column %q", col.Name)
		}
		bound = opts.MagnitudePct / 100 * maxAbs.Float64
	}

	deltas := make([]any, k)
	for i := range deltas {
		deltas[i] = (d.rng.Float64()*2 - 1) * bound
	}
	return d.perturbCopy(ctx, col.Name, newName, "+", deltas, k, int(total))
}

// ImpulseColumn applies impulse noise to base in place.
func (d *Dataset) ImpulseColumn(ctx context.Context, base string, opts ImpulseOptions) error {
	staged := d.tempName("imp")
	return d.replaceViaStaged(ctx, base, staged, func() error {
		return d.AddImpulseNoiseColumn(ctx, base, staged, opts)
	})
}

// AddSaltPepperNoiseColumn appends a DOUBLE copy of base where a random
// sample of rows is pinned to the column's minimum or maximum, each with
// even odds. newName empty defaults to "salt_pepper_{base}".
func (d *Dataset) AddSaltPepperNoiseColumn(ctx context.Context, base, newName string, opts SampleOptions) error {
	col, err := d.resolveColumn(ctx, base)
	if err != nil {
		return err
	}
	if err := ensureNumeric(col); err != nil {
		return err
	}
	if newName == "" {
		newName = "salt_pepper_" + col.Name
	}

	total, err := d.RowCount(ctx)
	if err != nil {
		return err
	}
	if total == 0 {
		return d.AddColumn(ctx, Vector{Name: newName})
	}
	k, err := opts.sampleCount(total)
	if err != nil {
		return err
	}

	var lo, hi sql.NullFloat64
	q := fmt.Sprintf(`SELECT MIN(%s), MAX(%s) FROM %s`,
		quoteIdent(col.Name), quoteIdent(col.Name), quoteIdent(d.tableName))
	if err := d.db.QueryRow(ctx, q).Scan(&lo, &hi); err != nil {
		return fmt.Errorf("failed to compute column extremes: %w", err)
	}
	if !lo.Valid || !hi.Valid {
		return fmt.Errorf("could not compute extremes for column %q", col.Name)
	}

	values := make([]any, k)
	for i := range values {
		if d.rng.IntN(2) == 0 {
			values[i] = lo.Float64
		} else {
			values[i] = hi.Float64
		}
	}
	return d.perturbCopy(ctx, col.Name, newName, "=", values, k, int(total))
}

// SaltPepperColumn applies salt-and-pepper noise to base in place.
func (d *Dataset) SaltPepperColumn(ctx context.Context, base string, opts SampleOptions) error {
	staged := d.tempName("sp")
	return d.replaceViaStaged(ctx, base, staged, func() error {
		return d.AddSaltPepperNoiseColumn(ctx, base, staged, opts)
	})
}

// perturbCopy adds newName as a DOUBLE copy of base, samples k distinct
// row positions, and applies vals at those positions. op "+" shifts the
// copied value, op "=" overwrites it.
func (d *Dataset) perturbCopy(ctx context.Context, base, newName, op string, vals []any, k, total int) error {
	copyExpr := fmt.Sprintf("CAST(%s AS DOUBLE)", quoteIdent(base))
	if err := d.addComputedColumn(ctx, newName, "DOUBLE", copyExpr); err != nil {
		return err
	}
	fail := func(err error) error {
		if cerr := d.DropColumns(ctx, newName); cerr != nil {
			d.logger.Warn("failed to drop half-added column", "column", newName, "error", cerr)
		}
		return err
	}

	positions := d.rng.Perm(total)[:k]
	tmp := d.tempName("noise")
	create := fmt.Sprintf(`CREATE TEMP TABLE %s (__ord BIGINT, delta DOUBLE)`, quoteIdent(tmp))
	if err := d.db.Exec(ctx, create); err != nil {
		return fail(fmt.Errorf("failed to stage noise: %w", err))
	}
	defer d.dropIfExists(ctx, tmp)

	ins := fmt.Sprintf(`INSERT INTO %s VALUES (?, ?)`, quoteIdent(tmp))
	for i, pos := range positions {
		if err := d.db.Exec(ctx, ins, pos, vals[i]); err != nil {
			return fail(fmt.Errorf("failed to stage noise value: %w", err))
		}
	}

	var rhs string
	if op == "+" {
		rhs = fmt.Sprintf("%s.%s + i.delta", quoteIdent(d.tableName), quoteIdent(newName))
	} else {
		rhs = "i.delta"
	}
	upd := fmt.Sprintf(
		`UPDATE %s SET %s = %s
		 FROM (SELECT rowid AS rid, row_number() OVER (ORDER BY rowid) - 1 AS __ord FROM %s) m
		 JOIN %s i ON m.__ord = i.__ord
		 WHERE %s.rowid = m.rid`,
		quoteIdent(d.tableName), quoteIdent(newName), rhs,
		quoteIdent(d.tableName), quoteIdent(tmp), quoteIdent(d.tableName))
	if err := d.db.Exec(ctx, upd); err != nil {
		return fail(fmt.Errorf("failed to apply noise: %w", err))
	}
	return nil
}

// nullMask returns, in row order, whether each value of col is NULL.
func (d *Dataset) nullMask(ctx context.Context, col string) ([]bool, error) {
	q := fmt.Sprintf(`SELECT %s IS NULL FROM %s ORDER BY rowid`,
		quoteIdent(col), quoteIdent(d.tableName))
	rows, err := d.db.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var mask []bool
	for rows.Next() {
		var isNull bool
		if err := rows.Scan(&isNull); err != nil {
			return nil, fmt.Errorf("failed to scan null mask: %w", err)
		}
		mask = append(mask, isNull)
	}
	return mask, rows.Err()
}
