package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variable prefix for config overrides.
const envPrefix = "LLMOCK_"

// Strategy names accepted in configuration.
const (
	StrategyMirror = "mirror"
	StrategyFixed  = "fixed"
	StrategyProxy  = "proxy"
)

// Config represents the application configuration parsed from YAML.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	APIKey   string         `yaml:"api_key"`
	CORS     CORSConfig     `yaml:"cors"`
	Models   []ModelConfig  `yaml:"models"`
	Strategy StrategyConfig `yaml:"strategy"`
	Stream   StreamConfig   `yaml:"stream"`
}

// ServerConfig defines listener configuration.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// CORSConfig lists origins allowed to reach the API from a browser.
type CORSConfig struct {
	AllowOrigins []string `yaml:"allow_origins"`
}

// ModelConfig describes a model exposed by the mock.
type ModelConfig struct {
	ID      string `yaml:"id"`
	Created int64  `yaml:"created"`
	OwnedBy string `yaml:"owned_by"`
}

// StrategyConfig selects and parameterises the response strategy.
type StrategyConfig struct {
	Name  string       `yaml:"name"`
	Text  string       `yaml:"text"`
	Proxy *ProxyConfig `yaml:"proxy"`
}

// ProxyConfig captures the upstream used by the proxy strategy.
type ProxyConfig struct {
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
}

// StreamConfig tunes streaming behaviour. Delay is the pause inserted between
// consecutive SSE events to simulate generation latency.
type StreamConfig struct {
	Delay Duration `yaml:"delay"`
}

// Duration is a time.Duration that unmarshals from YAML strings like "10ms".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return fmt.Errorf("decode duration: %w", err)
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the standard library representation.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Load reads YAML configuration from disk, applies environment overrides and
// validates the result.
func Load(path string) (Config, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return Config{}, fmt.Errorf("resolve config path: %w", err)
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return Config{}, fmt.Errorf("read config file %q: %w", absPath, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config file %q: %w", absPath, err)
	}

	cfg.applyDefaults()
	if err := cfg.applyEnvOverrides(); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Strategy.Name == "" {
		c.Strategy.Name = StrategyMirror
	}
}

// applyEnvOverrides lets LLMOCK_API_KEY and LLMOCK_PORT take precedence over
// the file, so containerised runs can inject secrets without editing YAML.
func (c *Config) applyEnvOverrides() error {
	if key, ok := os.LookupEnv(envPrefix + "API_KEY"); ok {
		c.APIKey = key
	}
	if port, ok := os.LookupEnv(envPrefix + "PORT"); ok {
		parsed, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("parse %sPORT %q: %w", envPrefix, port, err)
		}
		c.Server.Port = parsed
	}
	return nil
}

// Validate performs strict sanity checks on the configuration.
func (c Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be a valid TCP port, got %d", c.Server.Port)
	}

	if len(c.Models) == 0 {
		return fmt.Errorf("at least one model must be configured")
	}
	seen := make(map[string]struct{}, len(c.Models))
	for _, model := range c.Models {
		id := strings.TrimSpace(model.ID)
		if id == "" {
			return fmt.Errorf("model id must not be empty")
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("model %q configured more than once", id)
		}
		seen[id] = struct{}{}
	}

	switch c.Strategy.Name {
	case StrategyMirror, StrategyFixed:
	case StrategyProxy:
		if c.Strategy.Proxy == nil {
			return fmt.Errorf("strategy %s requires a strategy.proxy block", StrategyProxy)
		}
		if strings.TrimSpace(c.Strategy.Proxy.BaseURL) == "" {
			return fmt.Errorf("strategy.proxy.base_url must be provided")
		}
	default:
		return fmt.Errorf("strategy.name %q must be one of %q, %q or %q",
			c.Strategy.Name, StrategyMirror, StrategyFixed, StrategyProxy)
	}

	if c.Stream.Delay < 0 {
		return fmt.Errorf("stream.delay must not be negative")
	}

	return nil
}
