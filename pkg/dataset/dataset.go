// Package dataset implements stateful anonymization and synthetic-data
// augmentation over an embedded analytical SQL engine.
//
// A Dataset owns exactly one canonical materialized table. Every operation
// that changes data rewrites that table in place; readers between
// operations always observe a fully materialized result, never a view or a
// half-applied change.
package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"

	"github.com/brianvoe/gofakeit/v7"
	"golang.org/x/text/language"

	"github.com/dataveil/dataveil/pkg/adapter"
	"github.com/dataveil/dataveil/pkg/frame"

	_ "github.com/dataveil/dataveil/pkg/adapters/duckdb" // default engine
)

// Config carries construction options for a Dataset. The zero value is
// usable: in-memory engine, discard logger, shared default naming service.
type Config struct {
	// Engine selects the registered adapter type. Defaults to "duckdb".
	Engine string

	// Path is the engine database location. Empty means in-memory.
	Path string

	// Locale is a BCP 47 tag used by synthetic generators (e.g. "es",
	// "en-US"). Validated at construction time; empty means engine
	// default.
	Locale string

	// Seed makes synthetic generators deterministic when non-zero.
	Seed uint64

	// MaxCategoryUniques bounds the distinct-value count for which
	// category replacement builds an equivalence table. Defaults to 1000.
	MaxCategoryUniques int

	// Naming overrides the table naming service. Nil uses the package
	// default.
	Naming *NamingService

	// Logger receives structured operation logs. Nil discards.
	Logger *slog.Logger
}

// Dataset is a handle over one canonical table plus the engine session that
// holds it. It is not safe for concurrent use.
type Dataset struct {
	db        adapter.Adapter
	logger    *slog.Logger
	naming    *NamingService
	faker     *gofakeit.Faker
	rng       *rand.Rand
	tableName string
	locale    string
	maxUniq   int

	// equivalenceTable names the side table produced by the most recent
	// category replacement, empty if none was built.
	equivalenceTable string
}

// New creates a dataset from the given input. The canonical table name is
// drawn from the naming service before loading; if loading fails the
// engine session is closed and the name is not reused.
func New(ctx context.Context, input Input, cfg Config) (*Dataset, error) {
	if !input.set {
		return nil, fmt.Errorf("no input provided")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	naming := cfg.Naming
	if naming == nil {
		naming = defaultNaming
	}
	if cfg.Locale != "" {
		if _, err := language.Parse(cfg.Locale); err != nil {
			return nil, fmt.Errorf("invalid locale %q: %w", cfg.Locale, err)
		}
	}
	maxUniq := cfg.MaxCategoryUniques
	if maxUniq <= 0 {
		maxUniq = 1000
	}
	engine := cfg.Engine
	if engine == "" {
		engine = "duckdb"
	}

	db, err := adapter.NewAdapter(adapter.Config{Type: engine, Path: cfg.Path}, logger)
	if err != nil {
		return nil, err
	}
	if err := db.Connect(ctx, adapter.Config{Type: engine, Path: cfg.Path}); err != nil {
		return nil, fmt.Errorf("failed to connect engine: %w", err)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	d := &Dataset{
		db:        db,
		logger:    logger,
		naming:    naming,
		faker:     gofakeit.New(cfg.Seed),
		rng:       rand.New(rand.NewPCG(seed, seed)),
		tableName: naming.NextName(),
		locale:    cfg.Locale,
		maxUniq:   maxUniq,
	}

	if err := d.load(ctx, input); err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Info("dataset created", "table", d.tableName, "engine", engine)
	return d, nil
}

// Close releases the engine session. The dataset must not be used after.
func (d *Dataset) Close() error {
	return d.db.Close()
}

// TableName returns the canonical table name.
func (d *Dataset) TableName() string {
	return d.tableName
}

// EquivalenceTable returns the name of the side table built by the most
// recent category replacement, or "" if none exists.
func (d *Dataset) EquivalenceTable() string {
	return d.equivalenceTable
}

// load materializes input under the canonical name.
func (d *Dataset) load(ctx context.Context, input Input) error {
	switch input.kind {
	case inputCSV:
		return d.db.LoadCSV(ctx, d.tableName, input.path)
	case inputCSVFiles:
		if len(input.paths) == 0 {
			return fmt.Errorf("no CSV files provided")
		}
		if err := d.db.LoadCSV(ctx, d.tableName, input.paths[0]); err != nil {
			return err
		}
		for _, p := range input.paths[1:] {
			stmt := fmt.Sprintf(
				`INSERT INTO %s SELECT * FROM read_csv_auto(?, header=true)`,
				quoteIdent(d.tableName),
			)
			if err := d.db.Exec(ctx, stmt, p); err != nil {
				return fmt.Errorf("failed to append CSV %s: %w", p, err)
			}
		}
		return nil
	case inputFrame:
		return d.createTableFromFrame(ctx, d.tableName, input.frame)
	case inputQuery:
		stmt := fmt.Sprintf(`CREATE OR REPLACE TABLE %s AS %s`, quoteIdent(d.tableName), input.query)
		if err := d.db.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to materialize query: %w", err)
		}
		return nil
	case inputVector:
		f, err := frame.FromColumns([]string{input.vector.Name}, [][]any{input.vector.Values})
		if err != nil {
			return err
		}
		return d.createTableFromFrame(ctx, d.tableName, f)
	default:
		return fmt.Errorf("unsupported input kind")
	}
}

// AddData appends rows from input to the canonical table. The incoming
// schema must be union-compatible with the existing one.
func (d *Dataset) AddData(ctx context.Context, input Input) error {
	if !input.set {
		return fmt.Errorf("no input provided")
	}
	switch input.kind {
	case inputCSV:
		stmt := fmt.Sprintf(
			`INSERT INTO %s SELECT * FROM read_csv_auto(?, header=true)`,
			quoteIdent(d.tableName),
		)
		return d.db.Exec(ctx, stmt, input.path)
	case inputCSVFiles:
		for _, p := range input.paths {
			if err := d.AddData(ctx, FromCSV(p)); err != nil {
				return err
			}
		}
		return nil
	case inputFrame:
		tmp := d.tempName("append")
		if err := d.createTableFromFrame(ctx, tmp, input.frame); err != nil {
			return err
		}
		defer d.dropIfExists(ctx, tmp)
		stmt := fmt.Sprintf(`INSERT INTO %s SELECT * FROM %s`, quoteIdent(d.tableName), quoteIdent(tmp))
		return d.db.Exec(ctx, stmt)
	case inputQuery:
		stmt := fmt.Sprintf(`INSERT INTO %s %s`, quoteIdent(d.tableName), input.query)
		return d.db.Exec(ctx, stmt)
	case inputVector:
		f, err := frame.FromColumns([]string{input.vector.Name}, [][]any{input.vector.Values})
		if err != nil {
			return err
		}
		return d.AddData(ctx, FromFrame(f))
	default:
		return fmt.Errorf("unsupported input kind")
	}
}

// RunSQL executes an arbitrary statement against the engine session and
// returns its result set. Statements without a result produce an empty
// frame. This is the escape hatch; it bypasses identifier validation, so
// callers own the SQL they pass.
func (d *Dataset) RunSQL(ctx context.Context, stmt string, args ...any) (*frame.Frame, error) {
	return d.queryFrame(ctx, stmt, args...)
}

// RowCount returns the number of rows in the canonical table.
func (d *Dataset) RowCount(ctx context.Context) (int64, error) {
	var n int64
	row := d.db.QueryRow(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM %s`, quoteIdent(d.tableName)))
	if row == nil {
		return 0, fmt.Errorf("database connection not established")
	}
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count rows: %w", err)
	}
	return n, nil
}

// Columns returns the canonical table's column metadata in ordinal order.
func (d *Dataset) Columns(ctx context.Context) ([]adapter.Column, error) {
	meta, err := d.db.GetTableMetadata(ctx, d.tableName)
	if err != nil {
		return nil, err
	}
	return meta.Columns, nil
}

// ColumnNames returns the canonical table's column names in ordinal order.
func (d *Dataset) ColumnNames(ctx context.Context) ([]string, error) {
	cols, err := d.Columns(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return names, nil
}

// ToFrame fetches the full canonical table into memory.
func (d *Dataset) ToFrame(ctx context.Context) (*frame.Frame, error) {
	return d.queryFrame(ctx, fmt.Sprintf(`SELECT * FROM %s`, quoteIdent(d.tableName)))
}

// resolveColumn finds the stored column whose name matches name
// case-insensitively, returning its metadata.
func (d *Dataset) resolveColumn(ctx context.Context, name string) (adapter.Column, error) {
	cols, err := d.Columns(ctx)
	if err != nil {
		return adapter.Column{}, err
	}
	for _, c := range cols {
		if strings.EqualFold(c.Name, name) {
			return c, nil
		}
	}
	return adapter.Column{}, fmt.Errorf("column %q does not exist in table %s", name, d.tableName)
}

// hasColumn reports whether a column with the given name exists,
// case-insensitively.
func (d *Dataset) hasColumn(cols []adapter.Column, name string) bool {
	for _, c := range cols {
		if strings.EqualFold(c.Name, name) {
			return true
		}
	}
	return false
}

// queryFrame runs a query and scans the entire result into a frame.
func (d *Dataset) queryFrame(ctx context.Context, stmt string, args ...any) (*frame.Frame, error) {
	rows, err := d.db.Query(ctx, stmt, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	names, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read result columns: %w", err)
	}
	f := frame.New(names...)
	for rows.Next() {
		vals := make([]any, len(names))
		ptrs := make([]any, len(names))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		if err := f.Append(vals...); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return f, nil
}

// createTableFromFrame materializes f as a new table named name.
func (d *Dataset) createTableFromFrame(ctx context.Context, name string, f *frame.Frame) error {
	if f == nil || f.NumColumns() == 0 {
		return fmt.Errorf("frame has no columns")
	}
	defs := make([]string, f.NumColumns())
	for i, col := range f.Columns {
		if err := validIdent(col); err != nil {
			return err
		}
		defs[i] = fmt.Sprintf("%s %s", quoteIdent(col), sqlTypeOfColumn(f, i))
	}
	stmt := fmt.Sprintf(`CREATE OR REPLACE TABLE %s (%s)`, quoteIdent(name), strings.Join(defs, ", "))
	if err := d.db.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("failed to create table %s: %w", name, err)
	}

	if f.NumRows() == 0 {
		return nil
	}
	holders := make([]string, f.NumColumns())
	for i := range holders {
		holders[i] = "?"
	}
	ins := fmt.Sprintf(`INSERT INTO %s VALUES (%s)`, quoteIdent(name), strings.Join(holders, ", "))
	for _, row := range f.Rows {
		if err := d.db.Exec(ctx, ins, row...); err != nil {
			return fmt.Errorf("failed to insert row into %s: %w", name, err)
		}
	}
	return nil
}

// sqlTypeOfColumn infers a storage type from the first non-nil value in
// column idx of f.
func sqlTypeOfColumn(f *frame.Frame, idx int) string {
	vals := make([]any, 0, len(f.Rows))
	for _, row := range f.Rows {
		vals = append(vals, row[idx])
	}
	return sqlTypeOfValues(vals)
}

// dropIfExists drops a table, logging on failure; used for transient
// artifacts where the caller's error takes precedence.
func (d *Dataset) dropIfExists(ctx context.Context, name string) {
	stmt := fmt.Sprintf(`DROP TABLE IF EXISTS %s`, quoteIdent(name))
	if err := d.db.Exec(ctx, stmt); err != nil {
		d.logger.Warn("failed to drop transient table", "table", name, "error", err)
	}
}
