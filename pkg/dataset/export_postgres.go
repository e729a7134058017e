package dataset

// export_postgres.go - export into a PostgreSQL table

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

// ToPostgres writes the canonical table into PostgreSQL at dsn, replacing
// a table of the same name. table empty uses the canonical name. Rows
// travel over the COPY protocol.
func (d *Dataset) ToPostgres(ctx context.Context, dsn, table string) error {
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

	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}
	defer func() { _ = conn.Close(ctx) }()

	drop := fmt.Sprintf(`DROP TABLE IF EXISTS %s`, quoteIdent(table))
	if _, err := conn.Exec(ctx, drop); err != nil {
		return fmt.Errorf("failed to replace postgres table: %w", err)
	}
	create := fmt.Sprintf(`CREATE TABLE %s (%s)`, quoteIdent(table), strings.Join(defs, ", "))
	if _, err := conn.Exec(ctx, create); err != nil {
		return fmt.Errorf("failed to create postgres table: %w", err)
	}

	rows := make([][]any, len(f.Rows))
	for r, row := range f.Rows {
		vals := make([]any, len(row))
		for i, v := range row {
			vals[i] = normalizeForExport(mapped[i], v)
		}
		rows[r] = vals
	}
	n, err := conn.CopyFrom(ctx, pgx.Identifier{table}, names, pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("failed to copy rows to postgres: %w", err)
	}

	d.logger.Info("exported to postgres", "table", table, "rows", n)
	return nil
}
