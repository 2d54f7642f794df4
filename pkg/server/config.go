package server

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML configs can use "20m" / "1m30s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("server: invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Config holds the chat server settings.
type Config struct {
	// ListenAddr is the TCP address clients connect to.
	ListenAddr string `yaml:"listen_addr"`

	// MetricsAddr serves Prometheus metrics and /healthz over HTTP.
	// Empty disables the endpoint.
	MetricsAddr string `yaml:"metrics_addr"`

	// DBPath is the SQLite account database file.
	DBPath string `yaml:"db_path"`

	// IdleTimeout is how long a session may be silent before the
	// reaper disconnects it.
	IdleTimeout Duration `yaml:"idle_timeout"`

	// ReapInterval is how often the reaper scans for idle sessions.
	ReapInterval Duration `yaml:"reap_interval"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// DefaultConfig returns the stock settings.
func DefaultConfig() Config {
	return Config{
		ListenAddr:   ":8189",
		MetricsAddr:  ":9602",
		DBPath:       "chat.db",
		IdleTimeout:  Duration(20 * time.Minute),
		ReapInterval: Duration(time.Minute),
		LogLevel:     "info",
		LogFormat:    "text",
	}
}

// LoadConfig reads a YAML file over the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("server: read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("server: parse config: %w", err)
	}
	return cfg, nil
}

// Validate rejects settings the server cannot run with.
func (c Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("server: listen_addr must not be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("server: db_path must not be empty")
	}
	if c.IdleTimeout <= 0 {
		return fmt.Errorf("server: idle_timeout must be positive")
	}
	if c.ReapInterval <= 0 {
		return fmt.Errorf("server: reap_interval must be positive")
	}
	return nil
}
