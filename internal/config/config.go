// Package config loads the jsontree configuration file.
//
// The file lives at $XDG_CONFIG_HOME/jsontree/config.toml (falling back to
// ~/.config). Every field is optional; missing fields keep their defaults,
// and command-line flags override whatever the file says.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/jsontree/pkg/cache"
	"github.com/matzehuels/jsontree/pkg/errors"
	"github.com/matzehuels/jsontree/pkg/layout"
	"github.com/matzehuels/jsontree/pkg/pipeline"
	"github.com/matzehuels/jsontree/pkg/session"
)

// AppName names the config and cache directories.
const AppName = "jsontree"

// Config holds jsontree configuration.
type Config struct {
	Layout LayoutConfig `toml:"layout"`
	Render RenderConfig `toml:"render"`
	Limits LimitsConfig `toml:"limits"`
	Cache  CacheConfig  `toml:"cache"`
	Server ServerConfig `toml:"server"`
}

// LayoutConfig sets the default layout options.
type LayoutConfig struct {
	VizType  string  `toml:"viz_type"`
	HSpacing float64 `toml:"h_spacing"`
	VSpacing float64 `toml:"v_spacing"`
}

// RenderConfig sets the default render options.
type RenderConfig struct {
	Style   string   `toml:"style"`
	Formats []string `toml:"formats"`
	Scale   float64  `toml:"scale"`
}

// LimitsConfig bounds the documents accepted.
type LimitsConfig struct {
	MaxBytes int64 `toml:"max_bytes"`
	MaxDepth int   `toml:"max_depth"`
	MaxNodes int   `toml:"max_nodes"`
}

// CacheConfig selects the cache backend.
type CacheConfig struct {
	Backend    string `toml:"backend"` // "file", "redis", "mongo", "none"
	Dir        string `toml:"dir"`
	URL        string `toml:"url"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Addr       string   `toml:"addr"`
	SessionTTL Duration `toml:"session_ttl"`
	Timeout    Duration `toml:"timeout"`
}

// Duration is a time.Duration written as a string ("2h", "30s") in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText parses a duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText formats the duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Layout: LayoutConfig{
			VizType:  pipeline.DefaultVizType,
			HSpacing: layout.DefaultHSpacing,
			VSpacing: layout.DefaultVSpacing,
		},
		Render: RenderConfig{
			Style:   pipeline.DefaultStyle,
			Formats: []string{pipeline.FormatSVG},
			Scale:   2,
		},
		Limits: LimitsConfig{
			MaxBytes: pipeline.DefaultMaxBytes,
			MaxDepth: pipeline.DefaultMaxDepth,
			MaxNodes: pipeline.DefaultMaxNodes,
		},
		Cache: CacheConfig{
			Backend: cache.BackendFile,
			Dir:     DefaultCacheDir(),
		},
		Server: ServerConfig{
			Addr:       "127.0.0.1:8080",
			SessionTTL: Duration{session.DefaultTTL},
			Timeout:    Duration{30 * time.Second},
		},
	}
}

// Dir returns the jsontree config directory path.
func Dir() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, _ := os.UserHomeDir()
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, AppName)
}

// Path returns the config file path.
func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

// DefaultCacheDir returns $XDG_CACHE_HOME/jsontree, falling back to the
// platform cache directory.
func DefaultCacheDir() string {
	dir := os.Getenv("XDG_CACHE_HOME")
	if dir == "" {
		var err error
		if dir, err = os.UserCacheDir(); err != nil {
			dir = os.TempDir()
		}
	}
	return filepath.Join(dir, AppName)
}

// Load reads the config file at path on top of the defaults. A missing
// file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("parse %s: unknown key %q", path, undecoded[0].String())
	}
	return cfg, cfg.Validate()
}

// Save writes cfg to path, creating the directory if needed.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// Validate checks the enumerated settings.
func (c *Config) Validate() error {
	if err := pipeline.ValidateVizType(c.Layout.VizType); err != nil {
		return err
	}
	if err := pipeline.ValidateStyle(c.Render.Style); err != nil {
		return err
	}
	if err := pipeline.ValidateFormats(c.Render.Formats); err != nil {
		return err
	}
	switch c.Cache.Backend {
	case cache.BackendFile, cache.BackendRedis, cache.BackendMongo, cache.BackendNone:
	default:
		return errors.New(errors.ErrCodeInvalidInput, "invalid cache backend %q", c.Cache.Backend)
	}
	if (c.Cache.Backend == cache.BackendRedis || c.Cache.Backend == cache.BackendMongo) && c.Cache.URL == "" {
		return errors.New(errors.ErrCodeInvalidInput, "cache backend %q requires a url", c.Cache.Backend)
	}
	return nil
}

// PipelineOptions returns pipeline options carrying the configured defaults.
func (c *Config) PipelineOptions() pipeline.Options {
	return pipeline.Options{
		MaxBytes: c.Limits.MaxBytes,
		MaxDepth: c.Limits.MaxDepth,
		MaxNodes: c.Limits.MaxNodes,
		VizType:  c.Layout.VizType,
		HSpacing: c.Layout.HSpacing,
		VSpacing: c.Layout.VSpacing,
		Formats:  append([]string(nil), c.Render.Formats...),
		Style:    c.Render.Style,
		Scale:    c.Render.Scale,
	}
}

// CacheOptions returns the options for cache.Open.
func (c *Config) CacheOptions() cache.Options {
	return cache.Options{
		Backend:    c.Cache.Backend,
		Dir:        c.Cache.Dir,
		URL:        c.Cache.URL,
		Database:   c.Cache.Database,
		Collection: c.Cache.Collection,
	}
}
