package dataset

// ranges.go - range bucketing for integer, float and age columns
//
// Bucketing maps each value to the [start, end] interval it falls in,
// given either a target bucket count or a fixed bucket width. The pair
// lands in the canonical table as a two-element list column unless the
// caller asks for starts only.

import (
	"context"
	"database/sql"
	"fmt"
	"math"
)

// IntegerRangeOptions controls integer bucketing. Exactly one of NumRanges
// or RangeSize must be set.
type IntegerRangeOptions struct {
	// NumRanges is the number of buckets covering [min, max].
	NumRanges int
	// RangeSize is the fixed bucket width; the bucket count follows.
	RangeSize int
	// OnlyStart emits just the bucket start instead of a [start, end] pair.
	OnlyStart bool
	// MinStart overrides the observed minimum as the first bucket start.
	// Values below it clamp into the first bucket.
	MinStart *int64
}

// AddIntegerRangeColumn appends a column bucketing base into integer
// ranges. Bucket ends are inclusive; the last bucket's end is the observed
// maximum. newName empty defaults to "range_{base}".
func (d *Dataset) AddIntegerRangeColumn(ctx context.Context, base, newName string, opts IntegerRangeOptions) error {
	col, err := d.resolveColumn(ctx, base)
	if err != nil {
		return err
	}
	if err := ensureNumeric(col); err != nil {
		return err
	}
	if (opts.NumRanges != 0) == (opts.RangeSize != 0) {
		return fmt.Errorf("set exactly one of NumRanges or RangeSize")
	}
	if opts.NumRanges < 0 || opts.RangeSize < 0 {
		return fmt.Errorf("bucket parameters must be positive")
	}
	if newName == "" {
		newName = "range_" + col.Name
	}

	total, err := d.RowCount(ctx)
	if err != nil {
		return err
	}
	if total == 0 {
		return d.AddColumn(ctx, Vector{Name: newName})
	}

	var lo, hi sql.NullInt64
	q := fmt.Sprintf(`SELECT MIN(%s), MAX(%s) FROM %s`,
		quoteIdent(col.Name), quoteIdent(col.Name), quoteIdent(d.tableName))
	if err := d.db.QueryRow(ctx, q).Scan(&lo, &hi); err != nil {
		return fmt.Errorf("failed to compute range bounds: %w", err)
	}
	if !lo.Valid || !hi.Valid {
		return fmt.Errorf("could not compute range bounds for column %q", col.Name)
	}
	minV := lo.Int64
	if opts.MinStart != nil {
		minV = *opts.MinStart
	}
	maxV := hi.Int64
	if minV > maxV {
		return fmt.Errorf("range start %d exceeds column maximum %d", minV, maxV)
	}

	span := maxV - minV + 1
	var width, num int64
	if opts.NumRanges != 0 {
		num = int64(opts.NumRanges)
		width = ceilDiv(span, num)
	} else {
		width = int64(opts.RangeSize)
		num = ceilDiv(span, width)
	}

	values, err := d.int64Column(ctx, col.Name)
	if err != nil {
		return err
	}
	starts := make([]any, total)
	ends := make([]any, total)
	for i, v := range values {
		if v == nil {
			continue
		}
		bucket := (*v - minV) / width
		if *v < minV {
			bucket = 0
		}
		if bucket > num-1 {
			bucket = num - 1
		}
		start := minV + bucket*width
		end := start + width - 1
		if end > maxV {
			end = maxV
		}
		starts[i] = start
		ends[i] = end
	}

	if opts.OnlyStart {
		return d.AddColumn(ctx, Vector{Name: newName, Values: starts})
	}
	return d.addPairColumn(ctx, newName, "BIGINT", starts, ends)
}

// IntegerRangeColumn buckets base in place.
func (d *Dataset) IntegerRangeColumn(ctx context.Context, base string, opts IntegerRangeOptions) error {
	staged := d.tempName("irange")
	return d.replaceViaStaged(ctx, base, staged, func() error {
		return d.AddIntegerRangeColumn(ctx, base, staged, opts)
	})
}

// FloatRangeOptions controls float bucketing. Exactly one of NumRanges or
// RangeSize must be set.
type FloatRangeOptions struct {
	NumRanges int
	RangeSize float64
	// Decimals is the rounding precision for bucket edges; non-final
	// bucket ends back off by 10^-Decimals so adjacent buckets never
	// overlap. Defaults to 2.
	Decimals  int
	OnlyStart bool
	MinStart  *float64
}

// AddFloatRangeColumn appends a column bucketing base into float ranges.
// newName empty defaults to "range_{base}".
func (d *Dataset) AddFloatRangeColumn(ctx context.Context, base, newName string, opts FloatRangeOptions) error {
	col, err := d.resolveColumn(ctx, base)
	if err != nil {
		return err
	}
	if err := ensureNumeric(col); err != nil {
		return err
	}
	if (opts.NumRanges != 0) == (opts.RangeSize != 0) {
		return fmt.Errorf("set exactly one of NumRanges or RangeSize")
	}
	if opts.NumRanges < 0 || opts.RangeSize < 0 {
		return fmt.Errorf("bucket parameters must be positive")
	}
	decimals := opts.Decimals
	if decimals <= 0 {
		decimals = 2
	}
	if newName == "" {
		newName = "range_" + col.Name
	}

	total, err := d.RowCount(ctx)
	if err != nil {
		return err
	}
	if total == 0 {
		return d.AddColumn(ctx, Vector{Name: newName})
	}

	var lo, hi sql.NullFloat64
	q := fmt.Sprintf(`SELECT MIN(%s), MAX(%s) FROM %s`,
		quoteIdent(col.Name), quoteIdent(col.Name), quoteIdent(d.tableName))
	if err := d.db.QueryRow(ctx, q).Scan(&lo, &hi); err != nil {
		return fmt.Errorf("failed to compute range bounds: %w", err)
	}
	if !lo.Valid || !hi.Valid {
		return fmt.Errorf("could not compute range bounds for column %q", col.Name)
	}
	minV := lo.Float64
	if opts.MinStart != nil {
		minV = *opts.MinStart
	}
	maxV := hi.Float64
	if minV > maxV {
		return fmt.Errorf("range start %v exceeds column maximum %v", minV, maxV)
	}

	span := maxV - minV
	var width float64
	var num int64
	if opts.NumRanges != 0 {
		num = int64(opts.NumRanges)
		width = span / float64(num)
	} else {
		width = opts.RangeSize
		num = int64(math.Ceil(span / width))
		if num < 1 {
			num = 1
		}
	}
	if width <= 0 {
		// Degenerate single-value column: one bucket covering it.
		width, num = 1, 1
	}
	eps := math.Pow(10, -float64(decimals))

	values, err := d.float64Column(ctx, col.Name)
	if err != nil {
		return err
	}
	starts := make([]any, total)
	ends := make([]any, total)
	for i, v := range values {
		if v == nil {
			continue
		}
		bucket := int64(math.Floor((*v - minV) / width))
		if bucket < 0 {
			bucket = 0
		}
		if bucket > num-1 {
			bucket = num - 1
		}
		start := roundTo(minV+float64(bucket)*width, decimals)
		var end float64
		if bucket == num-1 {
			end = roundTo(maxV, decimals)
		} else {
			end = roundTo(minV+float64(bucket+1)*width, decimals) - eps
		}
		starts[i] = start
		ends[i] = roundTo(end, decimals)
	}

	if opts.OnlyStart {
		return d.AddColumn(ctx, Vector{Name: newName, Values: starts})
	}
	return d.addPairColumn(ctx, newName, "DOUBLE", starts, ends)
}

// FloatRangeColumn buckets base in place.
func (d *Dataset) FloatRangeColumn(ctx context.Context, base string, opts FloatRangeOptions) error {
	staged := d.tempName("frange")
	return d.replaceViaStaged(ctx, base, staged, func() error {
		return d.AddFloatRangeColumn(ctx, base, staged, opts)
	})
}

// AgeRangeOptions controls age bucketing.
type AgeRangeOptions struct {
	NumRanges int
	RangeSize int
	OnlyStart bool
	// MinAge anchors the first bucket; ages below it clamp into the
	// first bucket. Nil uses the observed minimum.
	MinAge *int64
}

// AddAgeRangeColumn appends a column bucketing an age column. It only
// buckets; rows outside a desired age window are the business of
// FilterRows, not of this operation.
func (d *Dataset) AddAgeRangeColumn(ctx context.Context, base, newName string, opts AgeRangeOptions) error {
	return d.AddIntegerRangeColumn(ctx, base, newName, IntegerRangeOptions{
		NumRanges: opts.NumRanges,
		RangeSize: opts.RangeSize,
		OnlyStart: opts.OnlyStart,
		MinStart:  opts.MinAge,
	})
}

// AgeRangeColumn buckets an age column in place.
func (d *Dataset) AgeRangeColumn(ctx context.Context, base string, opts AgeRangeOptions) error {
	staged := d.tempName("arange")
	return d.replaceViaStaged(ctx, base, staged, func() error {
		return d.AddAgeRangeColumn(ctx, base, staged, opts)
	})
}

// addPairColumn appends a two-element list column built from aligned
// start/end vectors, pairing with rows by ordinal.
func (d *Dataset) addPairColumn(ctx context.Context, name, elemType string, starts, ends []any) error {
	if err := validIdent(name); err != nil {
		return err
	}
	cols, err := d.Columns(ctx)
	if err != nil {
		return err
	}
	if d.hasColumn(cols, name) {
		return fmt.Errorf("column %q already exists in table %s", name, d.tableName)
	}

	tmp := d.tempName("pair")
	create := fmt.Sprintf(`CREATE TEMP TABLE %s (__ord BIGINT, lo %s, hi %s)`,
		quoteIdent(tmp), elemType, elemType)
	if err := d.db.Exec(ctx, create); err != nil {
		return fmt.Errorf("failed to stage range pairs: %w", err)
	}
	defer d.dropIfExists(ctx, tmp)

	ins := fmt.Sprintf(`INSERT INTO %s VALUES (?, ?, ?)`, quoteIdent(tmp))
	for i := range starts {
		if err := d.db.Exec(ctx, ins, i, starts[i], ends[i]); err != nil {
			return fmt.Errorf("failed to stage range pair %d: %w", i, err)
		}
	}

	valueExpr := "CASE WHEN t.lo IS NULL THEN NULL ELSE list_value(t.lo, t.hi) END"
	return d.joinStagedColumn(ctx, cols, tmp, name, valueExpr)
}

// int64Column fetches col cast to BIGINT in row order; nil marks NULL.
func (d *Dataset) int64Column(ctx context.Context, col string) ([]*int64, error) {
	q := fmt.Sprintf(`SELECT CAST(%s AS BIGINT) FROM %s ORDER BY rowid`,
		quoteIdent(col), quoteIdent(d.tableName))
	rows, err := d.db.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []*int64
	for rows.Next() {
		var v sql.NullInt64
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan value: %w", err)
		}
		if v.Valid {
			n := v.Int64
			out = append(out, &n)
		} else {
			out = append(out, nil)
		}
	}
	return out, rows.Err()
}

// float64Column fetches col cast to DOUBLE in row order; nil marks NULL.
func (d *Dataset) float64Column(ctx context.Context, col string) ([]*float64, error) {
	q := fmt.Sprintf(`SELECT CAST(%s AS DOUBLE) FROM %s ORDER BY rowid`,
		quoteIdent(col), quoteIdent(d.tableName))
	rows, err := d.db.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []*float64
	for rows.Next() {
		var v sql.NullFloat64
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan value: %w", err)
		}
		if v.Valid {
			f := v.Float64
			out = append(out, &f)
		} else {
			out = append(out, nil)
		}
	}
	return out, rows.Err()
}

func ceilDiv(a, b int64) int64 {
	return (a + b - 1) / b
}

func roundTo(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
