// Package config loads lanegraph settings from TOML or YAML files.
//
// Settings are layered: [Default] provides a complete configuration, a file
// overlays the keys it sets, and the CLI overlays its flags last. A file
// only needs the keys it changes:
//
//	[log]
//	max_commits = 5000
//	stashes = true
//
//	[render]
//	palette = ["#1f77b4", "#ff7f0e"]
//
//	[server]
//	addr = ":8080"
//	debounce = "500ms"
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	lgerrors "github.com/matzehuels/lanegraph/pkg/errors"
	"github.com/matzehuels/lanegraph/pkg/render"
	"github.com/matzehuels/lanegraph/pkg/render/rail"
)

// ErrUnknownFormat is returned for a config file that is neither TOML nor YAML.
var ErrUnknownFormat = errors.New("unknown config format")

// Config is the full set of file-configurable settings.
type Config struct {
	Log    LogConfig    `toml:"log" yaml:"log"`
	Render RenderConfig `toml:"render" yaml:"render"`
	Cache  CacheConfig  `toml:"cache" yaml:"cache"`
	Server ServerConfig `toml:"server" yaml:"server"`
}

// LogConfig controls which commits are read.
type LogConfig struct {
	MaxCommits int  `toml:"max_commits" yaml:"max_commits"` // negative reads everything
	Stashes    bool `toml:"stashes" yaml:"stashes"`
	All        bool `toml:"all" yaml:"all"`
}

// RenderConfig holds the drawing geometry.
type RenderConfig struct {
	LaneWidth  float64  `toml:"lane_width" yaml:"lane_width"`
	RowHeight  float64  `toml:"row_height" yaml:"row_height"`
	NodeRadius float64  `toml:"node_radius" yaml:"node_radius"`
	Palette    []string `toml:"palette" yaml:"palette"`
	Labels     bool     `toml:"labels" yaml:"labels"`
}

// CacheConfig selects the cache backend. A non-empty RedisAddr selects
// Redis; otherwise entries are files under Dir. Prefix scopes every key so
// several checkouts or deployments can share one backend.
type CacheConfig struct {
	Dir       string   `toml:"dir" yaml:"dir"`
	RedisAddr string   `toml:"redis_addr" yaml:"redis_addr"`
	Prefix    string   `toml:"prefix" yaml:"prefix"`
	TTL       Duration `toml:"ttl" yaml:"ttl"` // overrides the per-kind TTLs when set
	Disabled  bool     `toml:"disabled" yaml:"disabled"`
}

// ServerConfig configures "lanegraph serve".
type ServerConfig struct {
	Addr     string   `toml:"addr" yaml:"addr"`
	Debounce Duration `toml:"debounce" yaml:"debounce"`
}

// Duration is a time.Duration written as a string such as "250ms".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Log: LogConfig{
			MaxCommits: 1000,
		},
		Render: RenderConfig{
			LaneWidth:  rail.DefaultLaneWidth,
			RowHeight:  rail.DefaultRowHeight,
			NodeRadius: rail.DefaultNodeRadius,
			Labels:     true,
		},
		Cache: CacheConfig{
			Dir: defaultCacheDir(),
		},
		Server: ServerConfig{
			Addr:     "127.0.0.1:7420",
			Debounce: Duration{300 * time.Millisecond},
		},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/lanegraph/config.toml, falling back
// to ~/.config/lanegraph/config.toml.
func DefaultPath() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "lanegraph", "config.toml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "lanegraph", "config.toml")
}

func defaultCacheDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "lanegraph")
	}
	return filepath.Join(os.TempDir(), "lanegraph-cache")
}

// Load overlays the file at path on [Default] and validates the result.
// An empty path loads [DefaultPath]; a missing default file is not an
// error, a missing explicit file is.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return cfg, nil
		}
		if os.IsNotExist(err) {
			return cfg, lgerrors.Wrap(lgerrors.ErrCodeFileNotFound, err, "config %s", path)
		}
		return cfg, fmt.Errorf("read config: %w", err)
	}

	if err := Decode(data, formatOf(path), &cfg); err != nil {
		return cfg, lgerrors.Wrap(lgerrors.ErrCodeInvalidConfig, err, "config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Decode overlays data onto cfg. format is "toml" or "yaml".
func Decode(data []byte, format string, cfg *Config) error {
	switch format {
	case "toml":
		_, err := toml.NewDecoder(bytes.NewReader(data)).Decode(cfg)
		return err
	case "yaml":
		// An empty document leaves cfg untouched.
		if len(bytes.TrimSpace(data)) == 0 {
			return nil
		}
		return yaml.Unmarshal(data, cfg)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

func formatOf(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return "toml"
	case ".yaml", ".yml":
		return "yaml"
	default:
		return strings.TrimPrefix(filepath.Ext(path), ".")
	}
}

// Validate checks value ranges. It returns an INVALID_CONFIG error naming
// the first offending key.
func (c Config) Validate() error {
	invalid := func(key, format string, args ...any) error {
		return lgerrors.New(lgerrors.ErrCodeInvalidConfig, key+": "+format, args...)
	}
	switch {
	case c.Render.LaneWidth <= 0:
		return invalid("render.lane_width", "must be positive, got %v", c.Render.LaneWidth)
	case c.Render.RowHeight <= 0:
		return invalid("render.row_height", "must be positive, got %v", c.Render.RowHeight)
	case c.Render.NodeRadius <= 0 || c.Render.NodeRadius*2 > c.Render.RowHeight:
		return invalid("render.node_radius", "must be in (0, row_height/2], got %v", c.Render.NodeRadius)
	case c.Cache.TTL.Duration < 0:
		return invalid("cache.ttl", "must not be negative")
	case strings.ContainsAny(c.Cache.Prefix, " \t\r\n"):
		return invalid("cache.prefix", "must not contain whitespace, got %q", c.Cache.Prefix)
	case c.Server.Debounce.Duration < 0:
		return invalid("server.debounce", "must not be negative")
	case c.Server.Addr == "":
		return invalid("server.addr", "is required")
	}
	if err := render.Palette(c.Render.Palette).Validate(); err != nil {
		return invalid("render.palette", "%v", err)
	}
	return nil
}
