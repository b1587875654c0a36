// Package config holds the reporter's settings.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"reporter_service/internal/render/palette"
)

// Boundary sources.
const (
	BoundaryFiles    = "files"
	BoundaryOverpass = "overpass"
)

type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Postgres   PostgresConfig   `yaml:"postgres"`
	Boundaries BoundariesConfig `yaml:"boundaries"`
	Reports    ReportsConfig    `yaml:"reports"`
	Client     ClientConfig     `yaml:"client"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type ServerConfig struct {
	Addr            string `yaml:"addr"`
	ReadTimeout     string `yaml:"read_timeout"`
	WriteTimeout    string `yaml:"write_timeout"`
	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

type PostgresConfig struct {
	URL string `yaml:"url"`
}

type BoundariesConfig struct {
	Source string `yaml:"source"` // files, overpass
	Dir    string `yaml:"dir"`
	Watch  bool   `yaml:"watch"`

	OverpassURL     string `yaml:"overpass_url"`
	OverpassArea    string `yaml:"overpass_area"`
	OverpassTimeout string `yaml:"overpass_timeout"`
}

type ReportsConfig struct {
	Save           bool     `yaml:"save"`
	DefaultPalette string   `yaml:"default_palette"`
	HideLabels     []string `yaml:"hide_labels"`
}

// ClientConfig is used by the render and export commands.
type ClientConfig struct {
	BaseURL string `yaml:"base_url"`
	Timeout string `yaml:"timeout"`
}

type LoggingConfig struct {
	Level       string `yaml:"level"` // debug, info, warn, error
	Development bool   `yaml:"development"`
}

func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ReadTimeout:     "15s",
			WriteTimeout:    "60s",
			ShutdownTimeout: "10s",
		},
		Boundaries: BoundariesConfig{
			Source:          BoundaryFiles,
			Dir:             "data",
			OverpassURL:     "https://overpass-api.de/api/interpreter",
			OverpassArea:    "Chicago",
			OverpassTimeout: "60s",
		},
		Reports: ReportsConfig{
			DefaultPalette: palette.Default,
		},
		Client: ClientConfig{
			BaseURL: "http://localhost:8080",
			Timeout: "30s",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads path over the defaults. A missing file yields the defaults.
// Environment overrides are applied last in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if url := os.Getenv("POSTGRES_URL"); url != "" {
		c.Postgres.URL = url
	}
	if url := os.Getenv("OVERPASS_URL"); url != "" {
		c.Boundaries.OverpassURL = url
		c.Boundaries.Source = BoundaryOverpass
	}
	if dir := os.Getenv("BOUNDARY_DIR"); dir != "" {
		c.Boundaries.Dir = dir
	}
	if v := os.Getenv("SAVE_REPORTS"); v != "" {
		if save, err := strconv.ParseBool(v); err == nil {
			c.Reports.Save = save
		}
	}
	if addr := os.Getenv("REPORTER_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
	if url := os.Getenv("REPORTER_URL"); url != "" {
		c.Client.BaseURL = url
	}
}

func (c *Config) Validate() error {
	for name, v := range map[string]string{
		"server.read_timeout":         c.Server.ReadTimeout,
		"server.write_timeout":        c.Server.WriteTimeout,
		"server.shutdown_timeout":     c.Server.ShutdownTimeout,
		"boundaries.overpass_timeout": c.Boundaries.OverpassTimeout,
		"client.timeout":              c.Client.Timeout,
	} {
		if _, err := parseDuration(v); err != nil {
			return fmt.Errorf("invalid %s: %w", name, err)
		}
	}

	switch c.Boundaries.Source {
	case BoundaryFiles:
		if c.Boundaries.Dir == "" {
			return fmt.Errorf("boundaries.dir is required for the files source")
		}
	case BoundaryOverpass:
		if c.Boundaries.OverpassURL == "" || c.Boundaries.OverpassArea == "" {
			return fmt.Errorf("boundaries.overpass_url and boundaries.overpass_area are required for the overpass source")
		}
	default:
		return fmt.Errorf("unknown boundaries.source %q", c.Boundaries.Source)
	}

	if c.Reports.DefaultPalette != "" && !palette.Known(c.Reports.DefaultPalette) {
		return fmt.Errorf("unknown reports.default_palette %q", c.Reports.DefaultPalette)
	}
	if c.Reports.Save && c.Postgres.URL == "" {
		return fmt.Errorf("reports.save needs postgres.url")
	}
	return nil
}

// parseDuration accepts an empty string as zero.
func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	return time.ParseDuration(s)
}

// Duration returns a validated duration field.
func Duration(s string) time.Duration {
	d, _ := parseDuration(s)
	return d
}
