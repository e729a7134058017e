package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dataveil/dataveil/pkg/dataset"
)

// newPreviewCommand creates the preview command.
func newPreviewCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "preview <file.csv>",
		Short: "Preview the first rows of a CSV file",
		Long: `Load a CSV file into the engine and print its first rows with the
inferred schema.`,
		Example: `  # Show the first 10 rows
  dataveil preview people.csv

  # Show 50 rows as JSON
  dataveil preview people.csv -n 50 -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPreview(cmd, args[0], limit)
		},
	}
	cmd.Flags().IntVarP(&limit, "rows", "n", 10, "Number of rows to show")
	return cmd
}

func runPreview(cmd *cobra.Command, path string, limit int) error {
	ctx := cmd.Context()
	ds, err := dataset.New(ctx, dataset.FromCSV(path), datasetConfig(getConfig()))
	if err != nil {
		return err
	}
	defer func() { _ = ds.Close() }()

	cols, err := ds.Columns(ctx)
	if err != nil {
		return err
	}
	total, err := ds.RowCount(ctx)
	if err != nil {
		return err
	}

	f, err := ds.RunSQL(ctx, fmt.Sprintf(`SELECT * FROM %q LIMIT %d`, ds.TableName(), limit))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if getConfig().Output == "table" {
		_, _ = fmt.Fprintf(out, "%s: %d columns, %d rows\n\n", path, len(cols), total)
	}
	return renderFrame(out, f, getConfig().Output)
}
