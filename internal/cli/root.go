// Package cli provides the command-line interface for dataveil.
package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/dataveil/dataveil/internal/config"
	"github.com/dataveil/dataveil/pkg/dataset"
)

var (
	cfgFile string
	cfg     *config.Config
	logger  *slog.Logger
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "dataveil",
		Short: "Dataveil - Data Anonymization Toolkit",
		Long: `Dataveil anonymizes tabular data and augments it with synthetic values,
backed by an embedded analytical SQL engine.

Load a CSV, apply masking, noise, range bucketing and synthetic
replacement steps, then export the result to CSV, Parquet, JSON or a
database.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			var err error
			cfg, err = config.Load(cfgFile)
			if err != nil {
				return err
			}
			if v, _ := cmd.Root().PersistentFlags().GetBool("verbose"); v {
				cfg.Verbose = true
			}
			if o, _ := cmd.Root().PersistentFlags().GetString("output"); o != "" {
				cfg.Output = o
			}

			level := slog.LevelWarn
			if cfg.Verbose {
				level = slog.LevelDebug
			}
			logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
				Level: level,
			}))
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
Built with Go and DuckDB
`)

	// Flags are case-insensitive.
	rootCmd.PersistentFlags().SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ToLower(name))
	})

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./dataveil.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output format (table|csv|json)")

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"table", "csv", "json"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(newVersionCommand())
	rootCmd.AddCommand(newRunCommand())
	rootCmd.AddCommand(newPreviewCommand())
	rootCmd.AddCommand(newGroupsCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// getConfig returns the loaded config, falling back to defaults.
func getConfig() *config.Config {
	if cfg != nil {
		return cfg
	}
	c := &config.Config{}
	c.ApplyDefaults()
	return c
}

// getLogger returns the CLI logger, falling back to discard.
func getLogger() *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.New(slog.DiscardHandler)
}

// datasetConfig builds a dataset config from the tool config.
func datasetConfig(c *config.Config) dataset.Config {
	return dataset.Config{
		Engine:             c.Engine,
		Path:               c.Database,
		Locale:             c.Locale,
		Seed:               c.Seed,
		MaxCategoryUniques: c.MaxUniques,
		Naming:             dataset.NewNamingService(c.Naming.Prefix, c.Naming.Separator),
		Logger:             getLogger(),
	}
}
