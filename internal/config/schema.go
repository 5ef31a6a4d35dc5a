package config

import (
	"time"

	"circuitmap/internal/layout"
	"circuitmap/internal/routing"
)

// Config is the root configuration structure
type Config struct {
	Version   int             `yaml:"version" validate:"gte=1"`
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Inventory InventoryConfig `yaml:"inventory"`
	Layout    LayoutConfig    `yaml:"layout"`
	Routing   routing.Options `yaml:"routing"`
	Viewport  ViewportConfig  `yaml:"viewport"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Addr     string `yaml:"addr" validate:"required"`
	LogLevel string `yaml:"log_level" validate:"oneof=trace debug info warn warning error fatal panic"`
}

// DatabaseConfig holds database settings
type DatabaseConfig struct {
	Path string `yaml:"path" validate:"required"`
}

// InventoryConfig lists inventory files imported at startup and watched for
// changes
type InventoryConfig struct {
	Paths    []string `yaml:"paths,omitempty" validate:"dive,required"`
	Debounce Duration `yaml:"debounce"`
}

// LayoutConfig tunes placement
type LayoutConfig struct {
	// Mode is the layout served when a request names none
	Mode   string            `yaml:"mode" validate:"oneof=categorical geographic"`
	Bands  layout.BandConfig `yaml:"bands"`
	Margin float64           `yaml:"margin" validate:"gte=0,lt=0.5"`
	Geo    layout.GeoConfig  `yaml:"geo"`
}

// ViewportConfig tunes interactive sessions
type ViewportConfig struct {
	Padding   float64    `yaml:"padding" validate:"gte=0"`
	CommitMin float64    `yaml:"commit_min" validate:"gte=0.05,lt=0.95"`
	CommitMax float64    `yaml:"commit_max" validate:"gtfield=CommitMin,lte=0.95"`
	Remeasure []Duration `yaml:"remeasure" validate:"dive,gte=0"`
	// SessionTTL closes sessions idle for longer than this
	SessionTTL Duration `yaml:"session_ttl"`
}

// Duration wraps time.Duration for YAML unmarshaling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}
