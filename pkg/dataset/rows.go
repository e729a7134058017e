package dataset

// rows.go - row-level retention and removal
//
// Conditions are templates: the placeholder token is substituted with each
// named column in turn and the instances are combined with AND or OR. The
// template text itself is caller-owned SQL.

import (
	"context"
	"fmt"
	"strings"
)

// DefaultPlaceholder is the token substituted with each column name in
// row-condition templates.
const DefaultPlaceholder = "?"

// buildRowCondition expands the template across cols.
func (d *Dataset) buildRowCondition(ctx context.Context, cols []string, condition, placeholder string, conjunctive bool) (string, error) {
	if len(cols) == 0 {
		return "", fmt.Errorf("no columns given")
	}
	if condition == "" {
		return "", fmt.Errorf("no condition given")
	}
	if placeholder == "" {
		placeholder = DefaultPlaceholder
	}
	if !strings.Contains(condition, placeholder) {
		return "", fmt.Errorf("condition %q does not contain placeholder %q", condition, placeholder)
	}
	existing, err := d.Columns(ctx)
	if err != nil {
		return "", err
	}
	parts := make([]string, len(cols))
	for i, c := range cols {
		if !d.hasColumn(existing, c) {
			return "", fmt.Errorf("column %q does not exist in table %s", c, d.tableName)
		}
		parts[i] = "(" + strings.ReplaceAll(condition, placeholder, quoteIdent(c)) + ")"
	}
	sep := " OR "
	if conjunctive {
		sep = " AND "
	}
	return strings.Join(parts, sep), nil
}

// FilterRows keeps only the rows satisfying the expanded condition. With
// conjunctive set, every column instance must hold; otherwise any one
// suffices.
func (d *Dataset) FilterRows(ctx context.Context, cols []string, condition, placeholder string, conjunctive bool) error {
	if len(cols) == 0 {
		d.logger.Debug("filter rows: no columns, nothing to do")
		return nil
	}
	cond, err := d.buildRowCondition(ctx, cols, condition, placeholder, conjunctive)
	if err != nil {
		return err
	}
	proj := fmt.Sprintf(`SELECT * FROM %s WHERE %s`, quoteIdent(d.tableName), cond)
	if err := d.rewrite(ctx, proj); err != nil {
		return err
	}
	d.logger.Info("rows filtered", "table", d.tableName, "condition", cond)
	return nil
}

// RemoveRows deletes the rows satisfying the expanded condition.
func (d *Dataset) RemoveRows(ctx context.Context, cols []string, condition, placeholder string, conjunctive bool) error {
	if len(cols) == 0 {
		d.logger.Debug("remove rows: no columns, nothing to do")
		return nil
	}
	cond, err := d.buildRowCondition(ctx, cols, condition, placeholder, conjunctive)
	if err != nil {
		return err
	}
	del := fmt.Sprintf(`DELETE FROM %s WHERE %s`, quoteIdent(d.tableName), cond)
	if err := d.db.Exec(ctx, del); err != nil {
		return fmt.Errorf("failed to remove rows: %w", err)
	}
	d.logger.Info("rows removed", "table", d.tableName, "condition", cond)
	return nil
}

// RemoveNullRows deletes every row where any of the named columns is NULL.
// With no columns, all columns participate.
func (d *Dataset) RemoveNullRows(ctx context.Context, cols ...string) error {
	if len(cols) == 0 {
		var err error
		cols, err = d.ColumnNames(ctx)
		if err != nil {
			return err
		}
	}
	return d.RemoveRows(ctx, cols, "? IS NULL", "?", false)
}
