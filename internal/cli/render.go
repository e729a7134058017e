package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/dataveil/dataveil/pkg/frame"
)

// renderFrame writes a frame in the selected format.
func renderFrame(w io.Writer, f *frame.Frame, format string) error {
	switch format {
	case "json":
		return renderJSON(w, f)
	case "csv":
		return renderCSV(w, f)
	default:
		return renderTable(w, f)
	}
}

func renderTable(w io.Writer, f *frame.Frame) error {
	if f.NumRows() == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	headerRow := make(table.Row, f.NumColumns())
	for i, col := range f.Columns {
		headerRow[i] = col
	}
	t.AppendHeader(headerRow)

	for _, r := range f.Rows {
		row := make(table.Row, len(r))
		for i, v := range r {
			row[i] = formatValue(v)
		}
		t.AppendRow(row)
	}

	t.Render()
	_, _ = fmt.Fprintf(w, "(%d rows)\n", f.NumRows())
	return nil
}

func renderJSON(w io.Writer, f *frame.Frame) error {
	results := make([]map[string]any, 0, f.NumRows())
	for _, r := range f.Rows {
		row := make(map[string]any, len(r))
		for i, col := range f.Columns {
			v := r[i]
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			row[col] = v
		}
		results = append(results, row)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

func renderCSV(w io.Writer, f *frame.Frame) error {
	_, _ = fmt.Fprintln(w, strings.Join(f.Columns, ","))
	for _, r := range f.Rows {
		values := make([]string, len(r))
		for i, v := range r {
			values[i] = escapeCSV(formatValue(v))
		}
		_, _ = fmt.Fprintln(w, strings.Join(values, ","))
	}
	return nil
}

// formatValue renders a cell value for display.
func formatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(x)
	default:
		return fmt.Sprint(x)
	}
}

// escapeCSV quotes a value when it contains separators or quotes.
func escapeCSV(s string) string {
	if strings.ContainsAny(s, ",\"\n") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}
