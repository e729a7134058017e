package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// ConfigFileName is the name of the config file.
const ConfigFileName = "dataveil.yaml"

// ConfigFileNameAlt is the alternate name of the config file.
const ConfigFileNameAlt = "dataveil.yml"

// Load reads configuration from the given file, falling back to
// dataveil.yaml or dataveil.yml in the working directory, then overlays
// DATAVEIL_-prefixed environment variables. A missing config file is not
// an error; defaults still apply.
// Precedence (highest to lowest): env vars > config file > defaults.
func Load(cfgFile string) (*Config, error) {
	k := koanf.New(".")

	path := findConfigFile(cfgFile)
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	// Transform: DATAVEIL_MAX_UNIQUES -> max_uniques.
	// Nested keys use double underscore: DATAVEIL_NAMING__PREFIX -> naming.prefix.
	if err := k.Load(env.Provider("DATAVEIL_", ".", func(s string) string {
		s = strings.ToLower(strings.TrimPrefix(s, "DATAVEIL_"))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.ApplyDefaults()
	return &cfg, nil
}

// findConfigFile picks the config file to use.
// Priority: explicit path > dataveil.yaml > dataveil.yml
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if _, err := os.Stat(ConfigFileName); err == nil {
		return ConfigFileName
	}
	if _, err := os.Stat(ConfigFileNameAlt); err == nil {
		return ConfigFileNameAlt
	}
	return ""
}
