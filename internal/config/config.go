// Package config loads tool configuration from dataveil.yaml and
// environment variables.
package config

// Defaults applied when the config file or environment leaves a field
// unset.
const (
	DefaultEngine        = "duckdb"
	DefaultNamePrefix    = "table"
	DefaultNameSeparator = "_"
	DefaultMaxUniques    = 1000
)

// Config is the tool-level configuration.
type Config struct {
	// Engine selects the embedded engine adapter.
	Engine string `koanf:"engine"`

	// Database is the engine database path. Empty means in-memory.
	Database string `koanf:"database"`

	// Locale is the BCP 47 tag for synthetic generators.
	Locale string `koanf:"locale"`

	// Seed makes synthetic generators deterministic when non-zero.
	Seed uint64 `koanf:"seed"`

	// MaxUniques bounds the distinct-value count for which category
	// replacement builds an equivalence table.
	MaxUniques int `koanf:"max_uniques"`

	// Naming controls canonical table names.
	Naming NamingConfig `koanf:"naming"`

	// Verbose enables debug logging.
	Verbose bool `koanf:"verbose"`

	// Output selects the CLI render format (table|csv|json).
	Output string `koanf:"output"`
}

// NamingConfig controls generated table names.
type NamingConfig struct {
	Prefix    string `koanf:"prefix"`
	Separator string `koanf:"separator"`
}

// ApplyDefaults fills unset fields with defaults.
func (c *Config) ApplyDefaults() {
	if c.Engine == "" {
		c.Engine = DefaultEngine
	}
	if c.MaxUniques == 0 {
		c.MaxUniques = DefaultMaxUniques
	}
	if c.Naming.Prefix == "" {
		c.Naming.Prefix = DefaultNamePrefix
	}
	if c.Naming.Separator == "" {
		c.Naming.Separator = DefaultNameSeparator
	}
	if c.Output == "" {
		c.Output = "table"
	}
}
