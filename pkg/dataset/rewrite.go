package dataset

// rewrite.go - the canonical-table rewrite kernel and structural column
// operations built on it

import (
	"context"
	"fmt"
	"strings"
)

// rewrite evaluates projection (a full SELECT over the canonical table),
// materializes it into a swap table, and installs the result under the
// canonical name. If any step fails the canonical table is left untouched
// and the swap table is removed.
func (d *Dataset) rewrite(ctx context.Context, projection string) error {
	swap := d.tempName("swap")
	create := fmt.Sprintf(`CREATE TABLE %s AS %s`, quoteIdent(swap), projection)
	if err := d.db.Exec(ctx, create); err != nil {
		return fmt.Errorf("failed to materialize rewrite: %w", err)
	}
	drop := fmt.Sprintf(`DROP TABLE %s`, quoteIdent(d.tableName))
	if err := d.db.Exec(ctx, drop); err != nil {
		d.dropIfExists(ctx, swap)
		return fmt.Errorf("failed to replace table %s: %w", d.tableName, err)
	}
	rename := fmt.Sprintf(`ALTER TABLE %s RENAME TO %s`, quoteIdent(swap), quoteIdent(d.tableName))
	if err := d.db.Exec(ctx, rename); err != nil {
		return fmt.Errorf("failed to install rewrite as %s: %w", d.tableName, err)
	}
	return nil
}

// DropColumns removes the named columns from the canonical table. An empty
// name list is a no-op. Dropping every column is rejected.
func (d *Dataset) DropColumns(ctx context.Context, names ...string) error {
	if len(names) == 0 {
		d.logger.Debug("drop columns: nothing to drop")
		return nil
	}
	cols, err := d.Columns(ctx)
	if err != nil {
		return err
	}
	doomed := make(map[string]bool, len(names))
	for _, n := range names {
		if !d.hasColumn(cols, n) {
			return fmt.Errorf("column %q does not exist in table %s", n, d.tableName)
		}
		doomed[strings.ToLower(n)] = true
	}

	var keep []string
	for _, c := range cols {
		if !doomed[strings.ToLower(c.Name)] {
			keep = append(keep, quoteIdent(c.Name))
		}
	}
	if len(keep) == 0 {
		return fmt.Errorf("cannot drop all columns of table %s", d.tableName)
	}

	proj := fmt.Sprintf(`SELECT %s FROM %s`, strings.Join(keep, ", "), quoteIdent(d.tableName))
	if err := d.rewrite(ctx, proj); err != nil {
		return err
	}
	d.logger.Info("columns dropped", "table", d.tableName, "columns", names)
	return nil
}

// ReplaceColumns substitutes each target column's values with those of the
// paired source column. The target keeps its name and ordinal position; the
// source column survives (drop it separately if it was a staging column).
func (d *Dataset) ReplaceColumns(ctx context.Context, targets, sources []string) error {
	if len(targets) == 0 || len(targets) != len(sources) {
		return fmt.Errorf("replace columns: %d targets for %d sources", len(targets), len(sources))
	}
	cols, err := d.Columns(ctx)
	if err != nil {
		return err
	}
	repl := make(map[string]string, len(targets))
	for i, t := range targets {
		if !d.hasColumn(cols, t) {
			return fmt.Errorf("column %q does not exist in table %s", t, d.tableName)
		}
		if !d.hasColumn(cols, sources[i]) {
			return fmt.Errorf("column %q does not exist in table %s", sources[i], d.tableName)
		}
		repl[strings.ToLower(t)] = sources[i]
	}

	parts := make([]string, len(cols))
	for i, c := range cols {
		if src, ok := repl[strings.ToLower(c.Name)]; ok {
			parts[i] = fmt.Sprintf("%s AS %s", quoteIdent(src), quoteIdent(c.Name))
		} else {
			parts[i] = quoteIdent(c.Name)
		}
	}
	proj := fmt.Sprintf(`SELECT %s FROM %s`, strings.Join(parts, ", "), quoteIdent(d.tableName))
	return d.rewrite(ctx, proj)
}

// RenameColumns renames each old column to the paired new name. New names
// must be valid identifiers and must not collide with surviving columns.
func (d *Dataset) RenameColumns(ctx context.Context, oldNames, newNames []string) error {
	if len(oldNames) == 0 || len(oldNames) != len(newNames) {
		return fmt.Errorf("rename columns: %d old names for %d new names", len(oldNames), len(newNames))
	}
	cols, err := d.Columns(ctx)
	if err != nil {
		return err
	}
	renamed := make(map[string]bool, len(oldNames))
	for _, o := range oldNames {
		renamed[strings.ToLower(o)] = true
	}
	for i, o := range oldNames {
		if !d.hasColumn(cols, o) {
			return fmt.Errorf("column %q does not exist in table %s", o, d.tableName)
		}
		n := newNames[i]
		if err := validIdent(n); err != nil {
			return err
		}
		for _, c := range cols {
			if strings.EqualFold(c.Name, n) && !renamed[strings.ToLower(c.Name)] {
				return fmt.Errorf("column %q already exists in table %s", n, d.tableName)
			}
		}
	}

	for i, o := range oldNames {
		stmt := fmt.Sprintf(`ALTER TABLE %s RENAME COLUMN %s TO %s`,
			quoteIdent(d.tableName), quoteIdent(o), quoteIdent(newNames[i]))
		if err := d.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to rename column %s: %w", o, err)
		}
	}
	return nil
}

// SetColumnType casts each named column to the paired SQL type in place.
func (d *Dataset) SetColumnType(ctx context.Context, names, types []string) error {
	if len(names) == 0 || len(names) != len(types) {
		return fmt.Errorf("set column type: %d names for %d types", len(names), len(types))
	}
	cols, err := d.Columns(ctx)
	if err != nil {
		return err
	}
	for i, n := range names {
		if !d.hasColumn(cols, n) {
			return fmt.Errorf("column %q does not exist in table %s", n, d.tableName)
		}
		if err := validType(types[i]); err != nil {
			return err
		}
	}
	for i, n := range names {
		stmt := fmt.Sprintf(`ALTER TABLE %s ALTER COLUMN %s SET DATA TYPE %s USING CAST(%s AS %s)`,
			quoteIdent(d.tableName), quoteIdent(n), types[i], quoteIdent(n), types[i])
		if err := d.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to retype column %s: %w", n, err)
		}
	}
	return nil
}

// replaceViaStaged runs stage, which must add a column named staged, then
// adopts the staged values into base and drops the staged column. On an
// adoption failure the staged column is cleaned up and the original error
// is returned; a failing cleanup is logged, never surfaced.
func (d *Dataset) replaceViaStaged(ctx context.Context, base, staged string, stage func() error) error {
	if err := stage(); err != nil {
		return err
	}
	if err := d.ReplaceColumns(ctx, []string{base}, []string{staged}); err != nil {
		if cerr := d.DropColumns(ctx, staged); cerr != nil {
			d.logger.Warn("failed to drop staged column after error",
				"column", staged, "error", cerr)
		}
		return err
	}
	return d.DropColumns(ctx, staged)
}
