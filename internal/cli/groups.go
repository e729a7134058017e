package cli

import (
	"github.com/spf13/cobra"

	"github.com/dataveil/dataveil/pkg/dataset"
	"github.com/dataveil/dataveil/pkg/frame"
)

// newGroupsCommand creates the groups command.
func newGroupsCommand() *cobra.Command {
	var (
		columns     []string
		countFilter string
		limit       int
		descending  bool
		withData    bool
	)
	cmd := &cobra.Command{
		Use:   "groups <file.csv>",
		Short: "Analyze value groups in a CSV file",
		Long: `Group a CSV file by one or more columns and report each group's size.
Groups are labeled in size order; use --data to include the grouped
values themselves.`,
		Example: `  # Group sizes by city
  dataveil groups people.csv -c city

  # Groups of at least 10 rows, largest first, with values
  dataveil groups people.csv -c city,country --filter "? >= 10" --desc --data`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			ds, err := dataset.New(ctx, dataset.FromCSV(args[0]), datasetConfig(getConfig()))
			if err != nil {
				return err
			}
			defer func() { _ = ds.Close() }()

			opts := dataset.GroupsOptions{
				Columns:     columns,
				CountFilter: countFilter,
				Descending:  descending,
				Limit:       limit,
			}
			var f *frame.Frame
			if withData {
				f, err = ds.Groups(ctx, opts)
			} else {
				f, err = ds.Groupings(ctx, opts)
			}
			if err != nil {
				return err
			}
			return renderFrame(cmd.OutOrStdout(), f, getConfig().Output)
		},
	}
	cmd.Flags().StringSliceVarP(&columns, "columns", "c", nil, "Columns to group by (default: all columns)")
	cmd.Flags().StringVar(&countFilter, "filter", "", `Group size filter, ? is the count (e.g. "? >= 10")`)
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of groups to show")
	cmd.Flags().BoolVar(&descending, "desc", false, "Largest groups first")
	cmd.Flags().BoolVar(&withData, "data", false, "Include grouped values")
	return cmd
}
