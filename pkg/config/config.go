// Package config loads chatproxy settings from an optional TOML file and the environment.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/papercomputeco/chatproxy/pkg/llm"
	"github.com/papercomputeco/chatproxy/pkg/openrouter"
)

const (
	// EnvAPIKey holds the upstream credential. It takes precedence over the file.
	EnvAPIKey = "OPENROUTER_API_KEY"

	// EnvListen overrides the listen address.
	EnvListen = "CHATPROXY_LISTEN"

	DefaultListen = ":8080"
	DefaultRoute  = "/api/openrouter"
)

// Config is the full set of server settings.
type Config struct {
	APIKey          string   `toml:"api_key"`
	Listen          string   `toml:"listen"`
	Route           string   `toml:"route"`
	UpstreamURL     string   `toml:"upstream_url"`
	DefaultModel    string   `toml:"default_model"`
	UpstreamTimeout Duration `toml:"upstream_timeout"`
	ReadTimeout     Duration `toml:"read_timeout"`
	WriteTimeout    Duration `toml:"write_timeout"`
	Debug           bool     `toml:"debug"`
}

// Duration is a time.Duration written as a string ("90s", "2m") in TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Default returns the settings used when nothing else is configured.
func Default() *Config {
	return &Config{
		Listen:          DefaultListen,
		Route:           DefaultRoute,
		UpstreamURL:     openrouter.DefaultURL,
		DefaultModel:    llm.DefaultModel,
		UpstreamTimeout: Duration{openrouter.DefaultTimeout},
		ReadTimeout:     Duration{30 * time.Second},
		WriteTimeout:    Duration{3 * time.Minute},
	}
}

// Load reads the file at path (if non-empty) over the defaults and applies
// environment overrides.
func Load(path string) (*Config, error) {
	return LoadWithEnv(path, os.Getenv)
}

// LoadWithEnv is Load with an explicit environment lookup.
func LoadWithEnv(path string, getenv func(string) string) (*Config, error) {
	cfg := Default()

	if path != "" {
		md, err := toml.DecodeFile(path, cfg)
		if err != nil {
			return nil, fmt.Errorf("could not read config %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, 0, len(undecoded))
			for _, k := range undecoded {
				keys = append(keys, k.String())
			}
			return nil, fmt.Errorf("unknown keys in config %s: %s", path, strings.Join(keys, ", "))
		}
	}

	if v := getenv(EnvAPIKey); v != "" {
		cfg.APIKey = v
	}
	if v := getenv(EnvListen); v != "" {
		cfg.Listen = v
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks settings that would make the server unusable. A missing API
// key is not an error here: it is reported per request.
func (c *Config) Validate() error {
	if c.Listen == "" {
		return fmt.Errorf("listen address must not be empty")
	}
	if !strings.HasPrefix(c.Route, "/") {
		return fmt.Errorf("route must start with '/': %q", c.Route)
	}
	if c.UpstreamURL == "" {
		return fmt.Errorf("upstream_url must not be empty")
	}
	if c.DefaultModel == "" {
		return fmt.Errorf("default_model must not be empty")
	}
	if c.UpstreamTimeout.Duration < 0 || c.ReadTimeout.Duration < 0 || c.WriteTimeout.Duration < 0 {
		return fmt.Errorf("timeouts must not be negative")
	}
	return nil
}
