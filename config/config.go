// Package config loads the fieldmap service configuration.
package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/viant/afs"
	"gopkg.in/yaml.v3"

	"github.com/skosovsky/fieldmap"
)

// Defaults applied by Load and Default.
const (
	DefaultAddr           = ":8080"
	DefaultTimeout        = 5 * time.Second
	DefaultMaxConcurrency = 10
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "text"
)

// Server configures the HTTP surface.
type Server struct {
	Addr           string   `yaml:"addr,omitempty"           json:"addr,omitempty"`
	AllowedOrigins []string `yaml:"allowedOrigins,omitempty" json:"allowedOrigins,omitempty"`
	// AuthToken, when set, is the bearer token every call must present.
	AuthToken string `yaml:"authToken,omitempty" json:"authToken,omitempty"`
}

// Registry configures tool execution.
type Registry struct {
	Timeout        time.Duration `yaml:"timeout,omitempty"        json:"timeout,omitempty"`
	MaxConcurrency int           `yaml:"maxConcurrency,omitempty" json:"maxConcurrency,omitempty"`
	RecoverPanics  *bool         `yaml:"recoverPanics,omitempty"  json:"recoverPanics,omitempty"`
}

// Log configures the slog handler.
type Log struct {
	Level  string `yaml:"level,omitempty"  json:"level,omitempty"`
	Format string `yaml:"format,omitempty" json:"format,omitempty"`
}

type Config struct {
	Server   Server   `yaml:"server,omitempty"   json:"server,omitempty"`
	Registry Registry `yaml:"registry,omitempty" json:"registry,omitempty"`
	Log      Log      `yaml:"log,omitempty"      json:"log,omitempty"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load downloads the YAML (or JSON) document at URL through afs, so local paths,
// file:// and any storage scheme afs supports all work. Defaults fill unset fields.
func Load(ctx context.Context, URL string) (*Config, error) {
	fs := afs.New()
	data, err := fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %q: %w", URL, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config %q: %w", URL, err)
	}
	return cfg, nil
}

// Parse decodes data, applies defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
	if c.Registry.Timeout == 0 {
		c.Registry.Timeout = DefaultTimeout
	}
	if c.Registry.MaxConcurrency == 0 {
		c.Registry.MaxConcurrency = DefaultMaxConcurrency
	}
	if c.Registry.RecoverPanics == nil {
		enabled := true
		c.Registry.RecoverPanics = &enabled
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
}

func (c *Config) Validate() error {
	var errs []error
	if c.Registry.Timeout < 0 {
		errs = append(errs, fmt.Errorf("registry.timeout must not be negative, got %s", c.Registry.Timeout))
	}
	if _, err := c.Log.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

// SlogLevel parses Level with slog's own names (debug, info, warn, error).
func (l Log) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}

// RegistryOptions translates the registry section into fieldmap options.
// A negative MaxConcurrency disables the semaphore.
func (c *Config) RegistryOptions() []fieldmap.RegistryOption {
	recoverPanics := c.Registry.RecoverPanics == nil || *c.Registry.RecoverPanics
	opts := []fieldmap.RegistryOption{
		fieldmap.WithDefaultTimeout(c.Registry.Timeout),
		fieldmap.WithMaxConcurrency(c.Registry.MaxConcurrency),
		fieldmap.WithRecoverPanics(recoverPanics),
	}
	if c.Server.AuthToken != "" {
		opts = append(opts, fieldmap.WithAuthenticator(fieldmap.StaticTokenAuthenticator(c.Server.AuthToken)))
	}
	return opts
}
