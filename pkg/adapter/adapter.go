// Package adapter defines the embedded-engine capability contract used by
// the dataset layer: execute statements, evaluate queries, inspect catalog
// metadata, and bulk-load delimited files.
package adapter

import (
	"context"
	"database/sql"
)

// Config holds the configuration for connecting to an engine.
type Config struct {
	// Type specifies the engine type (e.g., "duckdb")
	Type string

	// Path is the database file path. Use ":memory:" (or empty) for an
	// in-memory database.
	Path string

	// Options contains additional driver-specific options
	Options map[string]string
}

// Column represents a column in an engine table.
type Column struct {
	// Name is the column name
	Name string

	// Type is the declared data type of the column
	Type string

	// Nullable indicates whether the column allows NULL values
	Nullable bool

	// Position is the ordinal position of the column in the table
	Position int
}

// Metadata holds metadata about an engine table.
type Metadata struct {
	// Name is the table name
	Name string

	// Columns contains metadata for each column, in ordinal order
	Columns []Column

	// RowCount is the number of rows at the time of the metadata read
	RowCount int64
}

// Rows wraps sql.Rows to provide a consistent interface across adapters.
type Rows struct {
	*sql.Rows
}

// Adapter is the capability surface every embedded engine must provide.
type Adapter interface {
	// Connect establishes a connection using the provided config.
	Connect(ctx context.Context, cfg Config) error

	// Close closes the connection and releases resources.
	Close() error

	// Exec executes a statement that doesn't return rows.
	Exec(ctx context.Context, sql string, args ...any) error

	// Query executes a statement that returns rows.
	Query(ctx context.Context, sql string, args ...any) (*Rows, error)

	// QueryRow executes a statement expected to return at most one row.
	QueryRow(ctx context.Context, sql string, args ...any) *sql.Row

	// GetTableMetadata retrieves column and row-count metadata for a table.
	GetTableMetadata(ctx context.Context, table string) (*Metadata, error)

	// LoadCSV bulk-loads a delimited file into a table, inferring the
	// schema. If the table exists it is replaced.
	LoadCSV(ctx context.Context, tableName string, filePath string) error
}
