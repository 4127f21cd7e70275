// Package config loads quadplot.yaml, applies defaults and environment
// overrides, and builds the process logger.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the config file looked up when no path is given.
const FileName = "quadplot.yaml"

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Config represents the quadplot.yaml configuration
type Config struct {
	// Peer (equation server) configuration
	Server *ServerConfig `yaml:"server,omitempty"`

	// Interactive client configuration
	Client *ClientConfig `yaml:"client,omitempty"`

	// Drawing surface configuration
	Canvas *CanvasConfig `yaml:"canvas,omitempty"`

	Log     *LogConfig     `yaml:"log,omitempty"`
	Metrics *MetricsConfig `yaml:"metrics,omitempty"`

	// Path to a YAML theme file; empty uses the built-in palette
	Theme string `yaml:"theme,omitempty"`
}

// ServerConfig contains peer configuration
type ServerConfig struct {
	// Listen address
	Listen string `yaml:"listen,omitempty"`

	// Websocket path
	Path string `yaml:"path,omitempty"`

	// Largest point count one request may ask for
	MaxInvolutions int `yaml:"max_involutions,omitempty"`

	// Inbound messages per second per connection; 0 disables limiting
	RateLimit float64 `yaml:"rate_limit,omitempty"`
	RateBurst int     `yaml:"rate_burst,omitempty"`

	// Whether to announce the peer over mDNS
	Advertise bool `yaml:"advertise,omitempty"`

	// mDNS instance name; defaults to the host name
	Instance string `yaml:"instance,omitempty"`
}

// ClientConfig contains client configuration
type ClientConfig struct {
	// Websocket endpoint of the peer
	Endpoint string `yaml:"endpoint,omitempty"`

	// Resolve the endpoint over mDNS before connecting
	Discover bool `yaml:"discover,omitempty"`

	// How long discovery waits for answers
	DiscoverTimeout time.Duration `yaml:"discover_timeout,omitempty"`

	// Log file for the interactive client, which owns the terminal
	LogFile string `yaml:"log_file,omitempty"`
}

// CanvasConfig contains drawing surface configuration
type CanvasConfig struct {
	// Terminal grid size in cells
	Cols int `yaml:"cols,omitempty"`
	Rows int `yaml:"rows,omitempty"`

	// Pixels covered by one cell
	CellWidth  float64 `yaml:"cell_width,omitempty"`
	CellHeight float64 `yaml:"cell_height,omitempty"`

	// Pixels per math unit at zoom 1
	BaseScale float64 `yaml:"base_scale,omitempty"`

	// Snapshot image size in pixels
	Width  int `yaml:"width,omitempty"`
	Height int `yaml:"height,omitempty"`
}

// LogConfig contains logging configuration
type LogConfig struct {
	// debug, info, warn or error
	Level string `yaml:"level,omitempty"`

	// text or json
	Format string `yaml:"format,omitempty"`
}

// MetricsConfig contains OpenTelemetry export configuration
type MetricsConfig struct {
	// OTLP/gRPC collector address; empty disables export
	OTLPEndpoint string `yaml:"otlp_endpoint,omitempty"`

	Insecure bool `yaml:"insecure,omitempty"`

	// How often metrics are pushed
	Interval time.Duration `yaml:"interval,omitempty"`
}

// Load loads configuration from path, or from quadplot.yaml in the working
// directory when path is empty. A missing default file yields the defaults.
// Environment overrides are applied last.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = FileName
	}

	var config *Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		config = &Config{}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
		applyDefaults(config)
		if config.Theme != "" && !filepath.IsAbs(config.Theme) {
			config.Theme = filepath.Join(filepath.Dir(path), config.Theme)
		}
	case os.IsNotExist(err) && !explicit:
		config = DefaultConfig()
	default:
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	applyEnv(config, os.LookupEnv)
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Save writes config to path as YAML
func Save(config *Config, path string) error {
	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Server: &ServerConfig{
			Listen:         ":4000",
			Path:           "/",
			MaxInvolutions: 10000,
		},
		Client: &ClientConfig{
			Endpoint:        "ws://localhost:4000/",
			DiscoverTimeout: 2 * time.Second,
			LogFile:         "quadplot.log",
		},
		Canvas: &CanvasConfig{
			Cols:       80,
			Rows:       24,
			CellWidth:  8,
			CellHeight: 16,
			BaseScale:  20,
			Width:      400,
			Height:     400,
		},
		Log: &LogConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: &MetricsConfig{
			Interval: 15 * time.Second,
		},
	}
}

// applyDefaults applies default values to missing configuration
func applyDefaults(config *Config) {
	defaults := DefaultConfig()

	if config.Server == nil {
		config.Server = defaults.Server
	} else {
		if config.Server.Listen == "" {
			config.Server.Listen = defaults.Server.Listen
		}
		if config.Server.Path == "" {
			config.Server.Path = defaults.Server.Path
		}
		if config.Server.MaxInvolutions == 0 {
			config.Server.MaxInvolutions = defaults.Server.MaxInvolutions
		}
	}

	if config.Client == nil {
		config.Client = defaults.Client
	} else {
		if config.Client.Endpoint == "" {
			config.Client.Endpoint = defaults.Client.Endpoint
		}
		if config.Client.DiscoverTimeout == 0 {
			config.Client.DiscoverTimeout = defaults.Client.DiscoverTimeout
		}
		if config.Client.LogFile == "" {
			config.Client.LogFile = defaults.Client.LogFile
		}
	}

	if config.Canvas == nil {
		config.Canvas = defaults.Canvas
	} else {
		c, d := config.Canvas, defaults.Canvas
		if c.Cols == 0 {
			c.Cols = d.Cols
		}
		if c.Rows == 0 {
			c.Rows = d.Rows
		}
		if c.CellWidth == 0 {
			c.CellWidth = d.CellWidth
		}
		if c.CellHeight == 0 {
			c.CellHeight = d.CellHeight
		}
		if c.BaseScale == 0 {
			c.BaseScale = d.BaseScale
		}
		if c.Width == 0 {
			c.Width = d.Width
		}
		if c.Height == 0 {
			c.Height = d.Height
		}
	}

	if config.Log == nil {
		config.Log = defaults.Log
	} else {
		if config.Log.Level == "" {
			config.Log.Level = defaults.Log.Level
		}
		if config.Log.Format == "" {
			config.Log.Format = defaults.Log.Format
		}
	}

	if config.Metrics == nil {
		config.Metrics = defaults.Metrics
	} else if config.Metrics.Interval == 0 {
		config.Metrics.Interval = defaults.Metrics.Interval
	}
}

// Environment variables that override file values.
const (
	EnvEndpoint = "QUADPLOT_ENDPOINT"
	EnvListen   = "QUADPLOT_LISTEN"
	EnvLogLevel = "QUADPLOT_LOG_LEVEL"
	EnvOTLP     = "QUADPLOT_OTLP_ENDPOINT"
	EnvMaxInv   = "QUADPLOT_MAX_INVOLUTIONS"
)

func applyEnv(config *Config, lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvEndpoint); ok && v != "" {
		config.Client.Endpoint = v
	}
	if v, ok := lookup(EnvListen); ok && v != "" {
		config.Server.Listen = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		config.Log.Level = v
	}
	if v, ok := lookup(EnvOTLP); ok && v != "" {
		config.Metrics.OTLPEndpoint = v
	}
	if v, ok := lookup(EnvMaxInv); ok && v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			config.Server.MaxInvolutions = n
		}
	}
}

// Validate reports the first unusable value.
func (c *Config) Validate() error {
	switch {
	case c.Server.MaxInvolutions < 0:
		return fmt.Errorf("%w: server.max_involutions must not be negative", ErrInvalid)
	case c.Server.RateLimit < 0:
		return fmt.Errorf("%w: server.rate_limit must not be negative", ErrInvalid)
	case !strings.HasPrefix(c.Server.Path, "/"):
		return fmt.Errorf("%w: server.path %q must start with /", ErrInvalid, c.Server.Path)
	case !strings.HasPrefix(c.Client.Endpoint, "ws://") && !strings.HasPrefix(c.Client.Endpoint, "wss://"):
		return fmt.Errorf("%w: client.endpoint %q is not a websocket url", ErrInvalid, c.Client.Endpoint)
	case c.Canvas.Cols <= 0 || c.Canvas.Rows <= 0:
		return fmt.Errorf("%w: canvas size %dx%d", ErrInvalid, c.Canvas.Cols, c.Canvas.Rows)
	case c.Canvas.CellWidth <= 0 || c.Canvas.CellHeight <= 0:
		return fmt.Errorf("%w: canvas cell size must be positive", ErrInvalid)
	case c.Canvas.BaseScale <= 0:
		return fmt.Errorf("%w: canvas.base_scale must be positive", ErrInvalid)
	case c.Canvas.Width <= 0 || c.Canvas.Height <= 0:
		return fmt.Errorf("%w: snapshot size %dx%d", ErrInvalid, c.Canvas.Width, c.Canvas.Height)
	case c.Log.Format != "text" && c.Log.Format != "json":
		return fmt.Errorf("%w: log.format %q", ErrInvalid, c.Log.Format)
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// ParseLevel maps a level name to a slog level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("%w: log level %q", ErrInvalid, s)
	}
	return level, nil
}

// NewLogger builds a logger writing to w in the configured format.
func NewLogger(cfg *LogConfig, w io.Writer) (*slog.Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}
