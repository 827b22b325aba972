package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config models the server configuration file.
type Config struct {
	Server struct {
		Host            string        `yaml:"host"`
		Port            int           `yaml:"port"`
		MetricsPort     int           `yaml:"metrics_port"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	} `yaml:"server"`
	Policy struct {
		// Path to a policy overrides file. Empty means built-in defaults.
		File string `yaml:"file"`
	} `yaml:"policy"`
	Store struct {
		// ExpirySweepInterval controls how often expired allocations are
		// cleared. Zero disables the sweeper.
		ExpirySweepInterval time.Duration `yaml:"expiry_sweep_interval"`
	} `yaml:"store"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`
}

// Default returns the built-in server configuration.
func Default() *Config {
	var cfg Config
	cfg.Server.Host = "0.0.0.0"
	cfg.Server.Port = 8080
	cfg.Server.MetricsPort = 9090
	cfg.Server.ShutdownTimeout = 10 * time.Second
	cfg.Store.ExpirySweepInterval = time.Minute
	cfg.Logging.Level = "info"
	cfg.Logging.Format = "text"
	return &cfg
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config.server.port must be in (0, 65535], got %d", c.Server.Port)
	}
	if c.Server.MetricsPort < 0 || c.Server.MetricsPort > 65535 {
		return fmt.Errorf("config.server.metrics_port must be in [0, 65535], got %d", c.Server.MetricsPort)
	}
	if c.Server.MetricsPort == c.Server.Port && c.Server.MetricsPort != 0 {
		return fmt.Errorf("config.server.metrics_port must differ from config.server.port")
	}
	if c.Server.ShutdownTimeout < 0 {
		return fmt.Errorf("config.server.shutdown_timeout must not be negative")
	}
	if c.Store.ExpirySweepInterval < 0 {
		return fmt.Errorf("config.store.expiry_sweep_interval must not be negative")
	}
	switch c.Logging.Level {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("config.logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("config.logging.format must be text or json, got %q", c.Logging.Format)
	}
	return nil
}

// FromYAML parses and validates config from raw YAML bytes, applied over
// the defaults.
func FromYAML(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromFile reads YAML config from the given path.
func FromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

// LoadOptional returns the defaults when path is empty or the file does
// not exist.
func LoadOptional(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	return FromYAML(data)
}

// Addr returns the host:port the API server binds to.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// MetricsAddr returns the host:port the metrics listener binds to, or ""
// when metrics are disabled.
func (c *Config) MetricsAddr() string {
	if c.Server.MetricsPort == 0 {
		return ""
	}
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.MetricsPort)
}
