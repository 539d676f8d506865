// Package config defines the standings tool configuration and its loader.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Load layers a YAML file and GPSTANDINGS_ env vars over the defaults.
// - Errors are wrapped with this package's sentinels.
package config

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/okian/gpstandings/internal/adapters/render"
)

// Input sources.
const (
	SourceYAML   = "yaml"
	SourceSQLite = "sqlite"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogJSON switches log records to JSON lines.
	LogJSON bool `koanf:"log_json"`

	// Source selects the input store: yaml or sqlite.
	Source string `koanf:"source"`
	// DatasetPath is the YAML dataset read when Source is yaml.
	DatasetPath string `koanf:"dataset_path"`
	// DatabaseDSN is the sqlite DSN used when Source is sqlite.
	DatabaseDSN string `koanf:"database_dsn"`

	// OutputDir receives the standings files.
	OutputDir string `koanf:"output_dir"`
	// Formats lists the file formats written per series.
	Formats []string `koanf:"formats"`
	// ClubName prefixes the text title line.
	ClubName string `koanf:"club_name"`
	// NameWidth is the text name column width.
	NameWidth int `koanf:"name_width"`

	// MetricsPath, when set, receives a Prometheus textfile snapshot after a run.
	MetricsPath string `koanf:"metrics_path"`

	// Series restricts the run to these series names. Empty renders every active series.
	Series []string `koanf:"series"`
}

// New creates a Config with defaults.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:    "info",
		Source:      SourceYAML,
		DatasetPath: "dataset.yaml",
		OutputDir:   ".",
		Formats:     []string{render.FormatText},
		NameWidth:   40,
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch c.Source {
	case SourceYAML:
		if c.DatasetPath == "" {
			return fmt.Errorf("%w: dataset_path must not be empty", ErrInvalidConfig)
		}
	case SourceSQLite:
	default:
		return fmt.Errorf("%w: unknown source %q", ErrInvalidConfig, c.Source)
	}
	if c.NameWidth <= 0 {
		return fmt.Errorf("%w: name_width must be positive", ErrInvalidConfig)
	}
	for _, f := range c.Formats {
		if !render.ValidFormat(f) {
			return fmt.Errorf("%w: unknown format %q", ErrInvalidConfig, f)
		}
	}
	return nil
}

// normalize trims and lower-cases list entries and drops empties.
func (c *Config) normalize() {
	c.Source = strings.ToLower(strings.TrimSpace(c.Source))
	c.Formats = cleanList(c.Formats, true)
	c.Series = cleanList(c.Series, false)
}

func cleanList(in []string, lower bool) []string {
	var out []string
	for _, s := range in {
		s = strings.TrimSpace(s)
		if lower {
			s = strings.ToLower(s)
		}
		if s != "" && !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	return out
}
