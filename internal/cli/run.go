package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dataveil/dataveil/internal/recipe"
	"github.com/dataveil/dataveil/pkg/dataset"
)

// newRunCommand creates the run command.
func newRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <recipe.yaml>",
		Short: "Run an anonymization recipe",
		Long: `Run a YAML recipe: load the input, apply each step in order, and write
the configured outputs.`,
		Example: `  # Run a recipe
  dataveil run anonymize.yaml

  # Run with verbose step logging
  dataveil run anonymize.yaml -v`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecipe(cmd, args[0])
		},
	}
	return cmd
}

func runRecipe(cmd *cobra.Command, path string) error {
	r, err := recipe.LoadFile(path)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	start := time.Now()

	ds, err := dataset.New(ctx, r.DatasetInput(), datasetConfig(getConfig()))
	if err != nil {
		return err
	}
	defer func() { _ = ds.Close() }()

	if err := r.Run(ctx, ds); err != nil {
		return err
	}

	rows, err := ds.RowCount(ctx)
	if err != nil {
		return err
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Applied %d steps to %d rows in %s\n",
		len(r.Steps), rows, time.Since(start).Round(time.Millisecond))
	return nil
}
