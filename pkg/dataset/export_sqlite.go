package dataset

// export_sqlite.go - export into a standalone SQLite database file

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite" // sqlite driver
)

// ToSQLite writes the canonical table into a SQLite database at path,
// replacing a table of the same name. table empty uses the canonical name.
// Column types narrow to INTEGER, REAL, BOOLEAN and TEXT.
func (d *Dataset) ToSQLite(ctx context.Context, path, table string) error {
	if table == "" {
		table = d.tableName
	}
	if err := validIdent(table); err != nil {
		return err
	}

	names, defs, mapped, err := d.exportColumnDefs(ctx)
	if err != nil {
		return err
	}
	f, err := d.ToFrame(ctx)
	if err != nil {
		return err
	}

	out, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("failed to open sqlite file: %w", err)
	}
	defer func() { _ = out.Close() }()

	drop := fmt.Sprintf(`DROP TABLE IF EXISTS %s`, quoteIdent(table))
	if _, err := out.ExecContext(ctx, drop); err != nil {
		return fmt.Errorf("failed to replace sqlite table: %w", err)
	}
	create := fmt.Sprintf(`CREATE TABLE %s (%s)`, quoteIdent(table), strings.Join(defs, ", "))
	if _, err := out.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("failed to create sqlite table: %w", err)
	}

	tx, err := out.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin sqlite transaction: %w", err)
	}
	holders := make([]string, len(names))
	for i := range holders {
		holders[i] = "?"
	}
	ins := fmt.Sprintf(`INSERT INTO %s VALUES (%s)`, quoteIdent(table), strings.Join(holders, ", "))
	stmt, err := tx.PrepareContext(ctx, ins)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to prepare sqlite insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, row := range f.Rows {
		vals := make([]any, len(row))
		for i, v := range row {
			vals[i] = normalizeForExport(mapped[i], v)
		}
		if _, err := stmt.ExecContext(ctx, vals...); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to insert sqlite row: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit sqlite export: %w", err)
	}

	d.logger.Info("exported to sqlite", "table", table, "path", path, "rows", f.NumRows())
	return nil
}
