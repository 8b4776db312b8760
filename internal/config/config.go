// Package config loads the reflow.yaml runtime configuration.
package config

import (
	"net"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/reflow-ui/reflow/internal/errors"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "reflow.yaml"

	// DefaultAddr is the default serve address.
	DefaultAddr = "localhost:3000"

	// DefaultReadTimeout is the default websocket read timeout.
	DefaultReadTimeout = 60 * time.Second

	// DefaultWriteTimeout is the default websocket write timeout.
	DefaultWriteTimeout = 10 * time.Second

	// DefaultMetricsNamespace is the default Prometheus namespace.
	DefaultMetricsNamespace = "reflow"
)

// Config is the complete reflow.yaml configuration.
type Config struct {
	// Serve contains the remote host server settings.
	Serve ServeConfig `yaml:"serve,omitempty"`

	// Metrics contains Prometheus metrics settings.
	Metrics MetricsConfig `yaml:"metrics,omitempty"`

	// Debug enables verbose runtime logging.
	Debug bool `yaml:"debug,omitempty"`

	// configPath stores the path the config was loaded from.
	configPath string
}

// ServeConfig contains remote host server settings.
type ServeConfig struct {
	// Addr is the host:port to listen on.
	Addr string `yaml:"addr,omitempty"`

	// ReadTimeout is the websocket read deadline.
	ReadTimeout time.Duration `yaml:"readTimeout,omitempty"`

	// WriteTimeout is the websocket write deadline.
	WriteTimeout time.Duration `yaml:"writeTimeout,omitempty"`
}

// MetricsConfig contains Prometheus metrics settings.
type MetricsConfig struct {
	// Enabled exposes /metrics on the serve address.
	Enabled bool `yaml:"enabled,omitempty"`

	// Namespace is the metrics namespace.
	Namespace string `yaml:"namespace,omitempty"`
}

// Default returns a configuration with all defaults applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// Load reads and parses the configuration file at path.
// Missing fields receive defaults; a missing file yields the default config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, errors.FromError(err, "C001")
	}

	cfg := &Config{configPath: path}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.New("C001").Wrap(err)
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Path returns the path the configuration was loaded from, or "" for defaults.
func (c *Config) Path() string {
	return c.configPath
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if _, _, err := net.SplitHostPort(c.Serve.Addr); err != nil {
		return errors.New("C002").Wrap(err).
			WithSuggestion("use host:port form, e.g. localhost:3000")
	}
	return nil
}

// applyDefaults fills in zero-valued fields.
func (c *Config) applyDefaults() {
	if c.Serve.Addr == "" {
		c.Serve.Addr = DefaultAddr
	}
	if c.Serve.ReadTimeout == 0 {
		c.Serve.ReadTimeout = DefaultReadTimeout
	}
	if c.Serve.WriteTimeout == 0 {
		c.Serve.WriteTimeout = DefaultWriteTimeout
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultMetricsNamespace
	}
}
