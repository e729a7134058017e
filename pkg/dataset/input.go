package dataset

// input.go - data source descriptors for New and AddData

import (
	"github.com/dataveil/dataveil/pkg/frame"
)

type inputKind int

const (
	inputCSV inputKind = iota
	inputCSVFiles
	inputFrame
	inputQuery
	inputVector
)

// Input describes a data source for creating a dataset or appending rows to
// one. Construct values with the From* helpers; the zero value is invalid.
type Input struct {
	kind   inputKind
	path   string
	paths  []string
	frame  *frame.Frame
	query  string
	vector Vector
	set    bool
}

// FromCSV loads a single CSV file. The schema is inferred by the engine.
func FromCSV(path string) Input {
	return Input{kind: inputCSV, path: path, set: true}
}

// FromCSVFiles loads several CSV files with identical schemas into one
// table, concatenated in argument order.
func FromCSVFiles(paths ...string) Input {
	return Input{kind: inputCSVFiles, paths: paths, set: true}
}

// FromFrame materializes an in-memory frame. Column types are inferred
// from the first non-nil value in each column; all-nil columns become
// VARCHAR.
func FromFrame(f *frame.Frame) Input {
	return Input{kind: inputFrame, frame: f, set: true}
}

// FromQuery materializes the result of an arbitrary SQL query. The query
// runs against the dataset's own engine, so it can reference files via
// functions such as read_csv_auto or read_parquet.
func FromQuery(query string) Input {
	return Input{kind: inputQuery, query: query, set: true}
}

// FromVector materializes a single-column table from a vector.
func FromVector(v Vector) Input {
	return Input{kind: inputVector, vector: v, set: true}
}
