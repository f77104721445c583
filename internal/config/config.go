// Package config loads scan settings from defaults, a YAML file, the
// environment and command line flags, in increasing order of precedence.
package config

import (
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/vitebski/spatial-qa/internal/dialect"
	"github.com/vitebski/spatial-qa/internal/utils"
	"github.com/vitebski/spatial-qa/pkg/models"
)

// Config holds every setting of a scan
type Config struct {
	Dialect     string   `koanf:"dialect"`
	Host        string   `koanf:"host"`
	Port        string   `koanf:"port"`
	Database    string   `koanf:"database"`
	User        string   `koanf:"user"`
	Password    string   `koanf:"password"`
	Schema      string   `koanf:"schema"`
	Tables      []string `koanf:"tables"`
	Output      string   `koanf:"output"`
	Rule        string   `koanf:"rule"`
	Summary     string   `koanf:"summary"`
	Admissibles string   `koanf:"admissibles"`
	IDColumn    string   `koanf:"id_column"`
	GeomColumn  string   `koanf:"geom_column"`
	Workers     int      `koanf:"workers"`
	LogLevel    string   `koanf:"log_level"`
	Language    string   `koanf:"language"`
}

// Defaults returns the lowest precedence layer
func Defaults() map[string]interface{} {
	columns := dialect.DefaultColumns()
	return map[string]interface{}{
		"dialect":     "postgis",
		"host":        "localhost",
		"schema":      "public",
		"output":      "output",
		"rule":        string(models.RuleAll),
		"summary":     "summary.txt",
		"id_column":   columns.ID,
		"geom_column": columns.Geom,
		"workers":     1,
		"log_level":   "info",
		"language":    "en",
	}
}

// Load builds the configuration. Only flags that were explicitly set
// override the other layers; flag names map to keys with dashes replaced by
// underscores.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(Defaults(), "."), nil); err != nil {
		return nil, errors.Wrap(err, "failed to load defaults")
	}

	if cfgFile != "" {
		if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return nil, errors.Wrapf(err, "error reading config file %s", cfgFile)
		}
	}

	// SPATIALQA_GEOM_COLUMN -> geom_column
	if err := k.Load(env.Provider(utils.EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, utils.EnvPrefix))
	}), nil); err != nil {
		return nil, errors.Wrap(err, "failed to load env vars")
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, errors.Wrap(err, "failed to load flags")
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, errors.Wrap(err, "unable to decode config")
	}
	cfg.Tables = splitList(cfg.Tables)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// splitList accepts both repeated values and comma separated lists
func splitList(values []string) []string {
	var out []string
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// Validate checks the settings that do not need a database
func (c *Config) Validate() error {
	if _, ok := models.ParseRule(c.Rule); !ok {
		return errors.Errorf("invalid rule %q, expected one of %v", c.Rule, models.Rules)
	}
	if _, err := dialect.New(c.Dialect, c.Columns()); err != nil {
		return err
	}
	if c.Workers < 1 {
		return errors.Errorf("workers must be at least 1, got %d", c.Workers)
	}
	if c.Schema == "" {
		return errors.New("schema is required")
	}
	return nil
}

// ParsedRule returns the validated rule
func (c *Config) ParsedRule() models.Rule {
	rule, _ := models.ParseRule(c.Rule)
	return rule
}

// Columns returns the id and geometry column names
func (c *Config) Columns() dialect.Columns {
	return dialect.Columns{ID: c.IDColumn, Geom: c.GeomColumn}
}
