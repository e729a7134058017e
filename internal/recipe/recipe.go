// Package recipe parses and runs YAML anonymization pipelines: one input,
// an ordered list of steps, and any number of outputs.
package recipe

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dataveil/dataveil/pkg/dataset"
)

// Recipe is a declarative anonymization pipeline.
type Recipe struct {
	Input  Input  `yaml:"input"`
	Steps  []Step `yaml:"steps"`
	Output Output `yaml:"output"`
}

// Input selects the data source. Exactly one field must be set.
type Input struct {
	CSV   string   `yaml:"csv"`
	CSVs  []string `yaml:"csvs"`
	Query string   `yaml:"query"`
}

// Output lists export destinations. Any combination may be set.
type Output struct {
	CSV      string `yaml:"csv"`
	Parquet  string `yaml:"parquet"`
	JSON     string `yaml:"json"`
	Database string `yaml:"database"`
	SQLite   string `yaml:"sqlite"`
	Postgres string `yaml:"postgres"`
	// Table names the exported table for database destinations; empty
	// uses the canonical name.
	Table string `yaml:"table"`
}

// Step is one pipeline operation. Op selects the operation; the remaining
// fields parameterize it and unused ones are ignored.
type Step struct {
	Op     string `yaml:"op"`
	Column string `yaml:"column"`
	// Add keeps the base column and appends the result as a new column
	// instead of replacing in place.
	Add bool `yaml:"add"`
	// Name names the added column; empty uses the operation's default.
	Name string `yaml:"name"`

	// Character masking.
	Left  int    `yaml:"left"`
	Right int    `yaml:"right"`
	Char  string `yaml:"char"`

	// Email masking.
	MaskUser          bool     `yaml:"mask_user"`
	UserReplacement   string   `yaml:"user_replacement"`
	MaskDomain        bool     `yaml:"mask_domain"`
	DomainReplacement string   `yaml:"domain_replacement"`
	DomainChoices     []string `yaml:"domain_choices"`

	// Noise sampling and magnitude.
	SamplePct    float64 `yaml:"sample_pct"`
	NSamples     int     `yaml:"n_samples"`
	Magnitude    float64 `yaml:"magnitude"`
	MagnitudePct float64 `yaml:"magnitude_pct"`

	// Range bucketing.
	NumRanges int      `yaml:"num_ranges"`
	RangeSize float64  `yaml:"range_size"`
	Decimals  int      `yaml:"decimals"`
	OnlyStart bool     `yaml:"only_start"`
	MinStart  *float64 `yaml:"min_start"`
	MinAge    *int64   `yaml:"min_age"`

	// Synthetic dates and categories.
	Start      string `yaml:"start"`
	End        string `yaml:"end"`
	Format     string `yaml:"format"`
	Kind       string `yaml:"kind"`
	MaxUniques int    `yaml:"max_uniques"`

	// Structural and row operations.
	Columns     []string `yaml:"columns"`
	NewNames    []string `yaml:"new_names"`
	Types       []string `yaml:"types"`
	Condition   string   `yaml:"condition"`
	Placeholder string   `yaml:"placeholder"`
	MatchAll    bool     `yaml:"match_all"`
}

// LoadFile parses a recipe from a YAML file.
func LoadFile(path string) (*Recipe, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read recipe: %w", err)
	}
	return Parse(data)
}

// Parse parses a recipe from YAML bytes.
func Parse(data []byte) (*Recipe, error) {
	var r Recipe
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse recipe: %w", err)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

// Validate checks the recipe's shape before running anything.
func (r *Recipe) Validate() error {
	set := 0
	if r.Input.CSV != "" {
		set++
	}
	if len(r.Input.CSVs) > 0 {
		set++
	}
	if r.Input.Query != "" {
		set++
	}
	if set != 1 {
		return fmt.Errorf("recipe input must set exactly one of csv, csvs or query")
	}
	for i, s := range r.Steps {
		if s.Op == "" {
			return fmt.Errorf("step %d has no op", i+1)
		}
	}
	return nil
}

// DatasetInput converts the recipe input into a dataset input.
func (r *Recipe) DatasetInput() dataset.Input {
	switch {
	case r.Input.CSV != "":
		return dataset.FromCSV(r.Input.CSV)
	case len(r.Input.CSVs) > 0:
		return dataset.FromCSVFiles(r.Input.CSVs...)
	default:
		return dataset.FromQuery(r.Input.Query)
	}
}

// Run applies every step to ds in order, then writes the outputs.
func (r *Recipe) Run(ctx context.Context, ds *dataset.Dataset) error {
	for i, s := range r.Steps {
		if err := s.apply(ctx, ds); err != nil {
			return fmt.Errorf("step %d (%s): %w", i+1, s.Op, err)
		}
	}
	return r.export(ctx, ds)
}

func (s Step) apply(ctx context.Context, ds *dataset.Dataset) error {
	switch s.Op {
	case "mask":
		opts := dataset.MaskOptions{Left: s.Left, Right: s.Right, Char: s.Char}
		if s.Add {
			return ds.AddMaskedColumn(ctx, s.Column, s.Name, opts)
		}
		return ds.MaskColumn(ctx, s.Column, opts)
	case "mask_mail":
		opts := dataset.MailMaskOptions{
			MaskUser:          s.MaskUser,
			UserReplacement:   s.UserReplacement,
			MaskDomain:        s.MaskDomain,
			DomainReplacement: s.DomainReplacement,
			DomainChoices:     s.DomainChoices,
		}
		if s.Add {
			return ds.AddMaskedMailColumn(ctx, s.Column, s.Name, opts)
		}
		return ds.MaskMailColumn(ctx, s.Column, opts)
	case "gaussian":
		if s.Add {
			return ds.AddGaussianNoiseColumn(ctx, s.Column, s.Name)
		}
		return ds.GaussianColumn(ctx, s.Column)
	case "impulse":
		opts := dataset.ImpulseOptions{
			SampleOptions: dataset.SampleOptions{SamplePct: s.SamplePct, NSamples: s.NSamples},
			Magnitude:     s.Magnitude,
			MagnitudePct:  s.MagnitudePct,
		}
		if s.Add {
			return ds.AddImpulseNoiseColumn(ctx, s.Column, s.Name, opts)
		}
		return ds.ImpulseColumn(ctx, s.Column, opts)
	case "salt_pepper":
		opts := dataset.SampleOptions{SamplePct: s.SamplePct, NSamples: s.NSamples}
		if s.Add {
			return ds.AddSaltPepperNoiseColumn(ctx, s.Column, s.Name, opts)
		}
		return ds.SaltPepperColumn(ctx, s.Column, opts)
	case "integer_range":
		opts := dataset.IntegerRangeOptions{
			NumRanges: s.NumRanges,
			RangeSize: int(s.RangeSize),
			OnlyStart: s.OnlyStart,
		}
		if s.MinStart != nil {
			m := int64(*s.MinStart)
			opts.MinStart = &m
		}
		if s.Add {
			return ds.AddIntegerRangeColumn(ctx, s.Column, s.Name, opts)
		}
		return ds.IntegerRangeColumn(ctx, s.Column, opts)
	case "float_range":
		opts := dataset.FloatRangeOptions{
			NumRanges: s.NumRanges,
			RangeSize: s.RangeSize,
			Decimals:  s.Decimals,
			OnlyStart: s.OnlyStart,
			MinStart:  s.MinStart,
		}
		if s.Add {
			return ds.AddFloatRangeColumn(ctx, s.Column, s.Name, opts)
		}
		return ds.FloatRangeColumn(ctx, s.Column, opts)
	case "age_range":
		opts := dataset.AgeRangeOptions{
			NumRanges: s.NumRanges,
			RangeSize: int(s.RangeSize),
			OnlyStart: s.OnlyStart,
			MinAge:    s.MinAge,
		}
		if s.Add {
			return ds.AddAgeRangeColumn(ctx, s.Column, s.Name, opts)
		}
		return ds.AgeRangeColumn(ctx, s.Column, opts)
	case "synthetic_date":
		opts := dataset.DateOptions{Start: s.Start, End: s.End, Format: s.Format}
		if s.Add {
			return ds.AddSyntheticDateColumn(ctx, s.Column, s.Name, opts)
		}
		return ds.SyntheticDateColumn(ctx, s.Column, opts)
	case "synthetic_category":
		opts := dataset.CategoryOptions{
			Kind:       dataset.CategoryKind(s.Kind),
			MaxUniques: s.MaxUniques,
		}
		if s.Add {
			return ds.AddSyntheticCategoryColumn(ctx, s.Column, s.Name, opts)
		}
		return ds.SyntheticCategoryColumn(ctx, s.Column, opts)
	case "drop_columns":
		return ds.DropColumns(ctx, s.Columns...)
	case "rename_columns":
		return ds.RenameColumns(ctx, s.Columns, s.NewNames)
	case "set_column_type":
		return ds.SetColumnType(ctx, s.Columns, s.Types)
	case "filter_rows":
		return ds.FilterRows(ctx, s.Columns, s.Condition, s.Placeholder, s.MatchAll)
	case "remove_rows":
		return ds.RemoveRows(ctx, s.Columns, s.Condition, s.Placeholder, s.MatchAll)
	case "remove_null_rows":
		return ds.RemoveNullRows(ctx, s.Columns...)
	default:
		return fmt.Errorf("unknown op %q", s.Op)
	}
}

func (r *Recipe) export(ctx context.Context, ds *dataset.Dataset) error {
	if r.Output.CSV != "" {
		if err := ds.ToCSV(ctx, r.Output.CSV, dataset.CSVOptions{}); err != nil {
			return err
		}
	}
	if r.Output.Parquet != "" {
		if err := ds.ToParquet(ctx, r.Output.Parquet, dataset.ParquetOptions{}); err != nil {
			return err
		}
	}
	if r.Output.JSON != "" {
		if err := ds.ToJSON(ctx, r.Output.JSON, dataset.JSONOptions{}); err != nil {
			return err
		}
	}
	if r.Output.Database != "" {
		if err := ds.ToDatabaseFile(ctx, r.Output.Database, r.Output.Table); err != nil {
			return err
		}
	}
	if r.Output.SQLite != "" {
		if err := ds.ToSQLite(ctx, r.Output.SQLite, r.Output.Table); err != nil {
			return err
		}
	}
	if r.Output.Postgres != "" {
		if err := ds.ToPostgres(ctx, r.Output.Postgres, r.Output.Table); err != nil {
			return err
		}
	}
	return nil
}
