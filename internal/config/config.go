// Package config provides configuration management for circuitmap.
//
// The config file holds how the service runs; the inventory and committed
// site coordinates live in the database.
//
// Config file locations (priority order):
//  1. $CIRCUITMAP_CONFIG
//  2. ./circuitmap.yaml
//  3. $XDG_CONFIG_HOME/circuitmap/config.yaml
//  4. ~/.config/circuitmap/config.yaml
//  5. /etc/circuitmap/config.yaml
//
// Inventory paths in the file are relative to the file itself.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"circuitmap/internal/domain"
	"circuitmap/internal/layout"
	"circuitmap/internal/routing"
	"circuitmap/internal/viewport"
)

var validate = validator.New()

// Load finds and loads the config file, or returns defaults if none found
func Load() (*Config, string, error) {
	path := FindConfigPath()

	if path == "" {
		// No config found - return defaults
		return DefaultConfig(), "", nil
	}

	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path. Keys missing from the file
// keep their default values; relative inventory paths are taken relative to
// the file.
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, path, err
	}
	cfg.Inventory.Paths = ResolveInventoryPaths(path, cfg.Inventory.Paths)
	return cfg, path, nil
}

// Parse decodes and validates a YAML config document
func Parse(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes config to the specified path
func (c *Config) Save(path string) error {
	if err := EnsureConfigDir(path); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// DefaultConfig returns sensible defaults for a new installation
func DefaultConfig() *Config {
	vp := viewport.DefaultOptions()
	remeasure := make([]Duration, len(vp.Remeasure))
	for i, d := range vp.Remeasure {
		remeasure[i] = Duration(d)
	}

	return &Config{
		Version: 1,
		Server: ServerConfig{
			Addr:     ":3000",
			LogLevel: "info",
		},
		Database: DatabaseConfig{Path: "./circuitmap.db"},
		Inventory: InventoryConfig{
			Debounce: Duration(500 * time.Millisecond),
		},
		Layout: LayoutConfig{
			Mode:   string(domain.ModeCategorical),
			Bands:  layout.DefaultBandConfig(),
			Margin: layout.DefaultMargin,
			Geo:    layout.DefaultGeoConfig(),
		},
		Routing: routing.DefaultOptions(),
		Viewport: ViewportConfig{
			Padding:    vp.Padding,
			CommitMin:  vp.CommitMin,
			CommitMax:  vp.CommitMax,
			Remeasure:  remeasure,
			SessionTTL: Duration(30 * time.Minute),
		},
	}
}

// applyDefaults fills in values an explicit empty key cleared
func (c *Config) applyDefaults() {
	def := DefaultConfig()

	if c.Version == 0 {
		c.Version = 1
	}
	if c.Server.Addr == "" {
		c.Server.Addr = def.Server.Addr
	}
	c.Server.LogLevel = strings.ToLower(strings.TrimSpace(c.Server.LogLevel))
	if c.Server.LogLevel == "" {
		c.Server.LogLevel = def.Server.LogLevel
	}
	if c.Database.Path == "" {
		c.Database.Path = def.Database.Path
	}
	if c.Layout.Mode == "" {
		c.Layout.Mode = def.Layout.Mode
	}
	if c.Layout.Bands == (layout.BandConfig{}) {
		c.Layout.Bands = def.Layout.Bands
	}
	if c.Layout.Geo == (layout.GeoConfig{}) {
		c.Layout.Geo = def.Layout.Geo
	}
	if c.Routing.MaxAngle == 0 {
		c.Routing = def.Routing
	}
	if len(c.Viewport.Remeasure) == 0 {
		c.Viewport.Remeasure = def.Viewport.Remeasure
	}
	if c.Viewport.CommitMin == 0 && c.Viewport.CommitMax == 0 {
		c.Viewport.CommitMin = def.Viewport.CommitMin
		c.Viewport.CommitMax = def.Viewport.CommitMax
	}
	if c.Viewport.SessionTTL <= 0 {
		c.Viewport.SessionTTL = def.Viewport.SessionTTL
	}
}

// Validate checks every section against its constraints
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// DefaultMode returns the layout mode served when a request names none
func (c *Config) DefaultMode() domain.Mode {
	return domain.ParseMode(c.Layout.Mode)
}

// ViewportOptions converts the viewport section for viewport.New
func (c *Config) ViewportOptions() viewport.Options {
	remeasure := make([]time.Duration, len(c.Viewport.Remeasure))
	for i, d := range c.Viewport.Remeasure {
		remeasure[i] = d.Duration()
	}
	return viewport.Options{
		Padding:   c.Viewport.Padding,
		CommitMin: c.Viewport.CommitMin,
		CommitMax: c.Viewport.CommitMax,
		Remeasure: remeasure,
	}
}

// Strategies builds the placement strategies of the layout section
func (c *Config) Strategies() []layout.Strategy {
	return []layout.Strategy{
		layout.NewCategorical(c.Layout.Bands, c.Layout.Margin),
		layout.NewGeographic(c.Layout.Geo),
	}
}

// Summary returns a human-readable config summary
func (c *Config) Summary() string {
	summary := fmt.Sprintf("Addr: %s, Log level: %s, Database: %s\n", c.Server.Addr, c.Server.LogLevel, c.Database.Path)
	summary += fmt.Sprintf("Layout: %s, Margin: %.2f, Fan step: %.2f\n", c.Layout.Mode, c.Layout.Margin, c.Routing.FanStep)
	summary += fmt.Sprintf("Inventory files (%d):", len(c.Inventory.Paths))
	for _, p := range c.Inventory.Paths {
		summary += fmt.Sprintf(" %s", p)
	}
	return summary
}
