package dataset

// export.go - file exports through the engine's COPY and ATTACH

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// CSVOptions controls CSV export.
type CSVOptions struct {
	// Delimiter is the field separator. Defaults to ",".
	Delimiter string
	// NoHeader suppresses the header row.
	NoHeader bool
}

// ToCSV writes the canonical table to a CSV file.
func (d *Dataset) ToCSV(ctx context.Context, path string, opts CSVOptions) error {
	delim := opts.Delimiter
	if delim == "" {
		delim = ","
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve export path: %w", err)
	}
	stmt := fmt.Sprintf(`COPY (SELECT * FROM %s) TO %s (FORMAT CSV, HEADER %t, DELIMITER %s)`,
		quoteIdent(d.tableName), quoteLiteral(abs), !opts.NoHeader, quoteLiteral(delim))
	if err := d.db.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("failed to export CSV: %w", err)
	}
	d.logger.Info("exported CSV", "table", d.tableName, "path", abs)
	return nil
}

// ParquetOptions controls Parquet export.
type ParquetOptions struct {
	// Compression selects the codec (e.g. "zstd", "snappy"). Empty uses
	// the engine default.
	Compression string
}

// ToParquet writes the canonical table to a Parquet file.
func (d *Dataset) ToParquet(ctx context.Context, path string, opts ParquetOptions) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve export path: %w", err)
	}
	with := "FORMAT PARQUET"
	if opts.Compression != "" {
		with += ", COMPRESSION " + quoteLiteral(opts.Compression)
	}
	stmt := fmt.Sprintf(`COPY (SELECT * FROM %s) TO %s (%s)`,
		quoteIdent(d.tableName), quoteLiteral(abs), with)
	if err := d.db.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("failed to export Parquet: %w", err)
	}
	d.logger.Info("exported Parquet", "table", d.tableName, "path", abs)
	return nil
}

// JSONOptions controls JSON export.
type JSONOptions struct {
	// Array emits one JSON array instead of newline-delimited objects.
	Array bool
}

// ToJSON writes the canonical table to a JSON file.
func (d *Dataset) ToJSON(ctx context.Context, path string, opts JSONOptions) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve export path: %w", err)
	}
	stmt := fmt.Sprintf(`COPY (SELECT * FROM %s) TO %s (FORMAT JSON, ARRAY %t)`,
		quoteIdent(d.tableName), quoteLiteral(abs), opts.Array)
	if err := d.db.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("failed to export JSON: %w", err)
	}
	d.logger.Info("exported JSON", "table", d.tableName, "path", abs)
	return nil
}

// ToDatabaseFile writes the canonical table into an engine database file,
// creating or updating the file at path. table empty uses the canonical
// name.
func (d *Dataset) ToDatabaseFile(ctx context.Context, path, table string) error {
	if table == "" {
		table = d.tableName
	}
	if err := validIdent(table); err != nil {
		return err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve export path: %w", err)
	}

	alias := d.tempName("export")
	attach := fmt.Sprintf(`ATTACH %s AS %s`, quoteLiteral(abs), quoteIdent(alias))
	if err := d.db.Exec(ctx, attach); err != nil {
		return fmt.Errorf("failed to attach database file: %w", err)
	}
	defer func() {
		detach := fmt.Sprintf(`DETACH %s`, quoteIdent(alias))
		if derr := d.db.Exec(ctx, detach); derr != nil {
			d.logger.Warn("failed to detach export database", "path", abs, "error", derr)
		}
	}()

	stmt := fmt.Sprintf(`CREATE OR REPLACE TABLE %s.%s AS SELECT * FROM %s`,
		quoteIdent(alias), quoteIdent(table), quoteIdent(d.tableName))
	if err := d.db.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("failed to export table: %w", err)
	}
	d.logger.Info("exported database file", "table", table, "path", abs)
	return nil
}

// exportColumnDefs maps the canonical schema onto a narrower SQL type
// system for foreign stores: integers, reals and text.
func (d *Dataset) exportColumnDefs(ctx context.Context) (names, defs, mapped []string, err error) {
	cols, err := d.Columns(ctx)
	if err != nil {
		return nil, nil, nil, err
	}
	names = make([]string, len(cols))
	defs = make([]string, len(cols))
	mapped = make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
		t := strings.ToUpper(c.Type)
		switch {
		case strings.Contains(t, "INT"):
			mapped[i] = "INTEGER"
		case strings.Contains(t, "DOUBLE"), strings.Contains(t, "FLOAT"),
			strings.Contains(t, "REAL"), strings.Contains(t, "DECIMAL"):
			mapped[i] = "REAL"
		case strings.Contains(t, "BOOL"):
			mapped[i] = "BOOLEAN"
		default:
			mapped[i] = "TEXT"
		}
		defs[i] = fmt.Sprintf("%s %s", quoteIdent(c.Name), mapped[i])
	}
	return names, defs, mapped, nil
}

// normalizeForExport coerces an engine value for a foreign store given the
// mapped column type. Times, lists and other rich values render as text.
func normalizeForExport(mapped string, v any) any {
	if v == nil {
		return nil
	}
	switch mapped {
	case "INTEGER", "REAL", "BOOLEAN":
		return v
	default:
		switch x := v.(type) {
		case string:
			return x
		case []byte:
			return string(x)
		case time.Time:
			return x.Format(time.RFC3339)
		default:
			return fmt.Sprint(x)
		}
	}
}
