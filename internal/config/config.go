// Package config loads chartdeck settings from a YAML file.
package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"unicode/utf8"

	"github.com/user/chartdeck-go/internal/branding"
	"github.com/user/chartdeck-go/internal/chart"
	"github.com/user/chartdeck-go/internal/loader"
	"github.com/user/chartdeck-go/internal/selector"
	"github.com/viant/afs"
	"gonum.org/v1/plot/vg"
	"gopkg.in/yaml.v3"
)

// Chart sizes images rendered onto slides.
type Chart struct {
	WidthInches  float64 `yaml:"width_inches"`
	HeightInches float64 `yaml:"height_inches"`
	Stacked      bool    `yaml:"stacked"`
}

// Config holds every setting the generator needs.
type Config struct {
	Selector  selector.Options `yaml:"selector"`
	Theme     branding.Theme   `yaml:"theme"`
	Chart     Chart            `yaml:"chart"`
	MaxCharts int              `yaml:"max_charts"`
	// Template is an optional PPTX whose slides are kept at the front of every deck.
	Template string `yaml:"template"`
	// CacheDir holds cached insights; empty disables caching.
	CacheDir string `yaml:"cache_dir"`
	Workers  int    `yaml:"workers"`
	Author   string `yaml:"author"`
	// Sheet and Delimiter are passed to the loader.
	Sheet     string `yaml:"sheet"`
	Delimiter string `yaml:"delimiter"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Selector: selector.DefaultOptions(),
		Theme:    branding.Default(),
		Chart: Chart{
			WidthInches:  float64(chart.DefaultWidth / vg.Inch),
			HeightInches: float64(chart.DefaultHeight / vg.Inch),
		},
		MaxCharts: selector.DefaultMaxCharts,
		CacheDir:  DefaultCacheDir(),
		Workers:   runtime.NumCPU(),
		Author:    "chartdeck",
	}
}

// DefaultCacheDir is <user cache dir>/chartdeck, or .chartdeck/cache when the
// user cache dir is unknown.
func DefaultCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(".chartdeck", "cache")
	}
	return filepath.Join(dir, "chartdeck")
}

// Load reads the YAML file at location over the defaults. An empty location
// returns Default().
func Load(ctx context.Context, location string) (*Config, error) {
	cfg := Default()
	if location == "" {
		return cfg, nil
	}
	fs := afs.New()
	data, err := fs.DownloadWithURL(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", location, err)
	}
	if err := cfg.apply(data); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", location, err)
	}
	return cfg, nil
}

// Parse decodes YAML config data over the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := cfg.apply(data); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) apply(data []byte) error {
	base := c.Theme
	c.Theme = branding.Theme{}
	if err := yaml.Unmarshal(data, c); err != nil {
		return err
	}
	// theme entries override individual fields of the default theme
	c.Theme = base.Merge(c.Theme)
	return c.Validate()
}

// Validate checks the settings.
func (c *Config) Validate() error {
	if err := c.Theme.Validate(); err != nil {
		return fmt.Errorf("invalid theme: %w", err)
	}
	if c.MaxCharts < 0 {
		return fmt.Errorf("max_charts must not be negative, got %d", c.MaxCharts)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	if c.Chart.WidthInches < 0 || c.Chart.HeightInches < 0 {
		return fmt.Errorf("chart size must not be negative")
	}
	if utf8.RuneCountInString(c.Delimiter) > 1 {
		return fmt.Errorf("delimiter must be a single character, got %q", c.Delimiter)
	}
	return nil
}

// LoadOptions returns the loader settings.
func (c *Config) LoadOptions() loader.Options {
	opts := loader.Options{Sheet: c.Sheet}
	if c.Delimiter != "" {
		opts.Delimiter, _ = utf8.DecodeRuneInString(c.Delimiter)
	}
	return opts
}

// RenderOptions returns the chart image settings.
func (c *Config) RenderOptions() chart.RenderOptions {
	return chart.RenderOptions{
		Width:   vg.Length(c.Chart.WidthInches) * vg.Inch,
		Height:  vg.Length(c.Chart.HeightInches) * vg.Inch,
		Stacked: c.Chart.Stacked,
	}
}
