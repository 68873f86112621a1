// Package config loads the server configuration from an optional TOML
// file layered over built-in defaults.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds the complete application configuration.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	Storage StorageConfig `toml:"storage"`
	Device  DeviceConfig  `toml:"device"`
	Queue   QueueConfig   `toml:"queue"`
}

// ServerConfig holds the HTTP gateway settings.
type ServerConfig struct {
	Host         string   `toml:"host"`
	Port         int      `toml:"port"`
	ReadTimeout  Duration `toml:"read_timeout"`
	WriteTimeout Duration `toml:"write_timeout"`
}

// StorageConfig holds the SQLite settings.
type StorageConfig struct {
	// Path of the database file; ":memory:" keeps everything in RAM.
	Path string `toml:"path"`
}

// DeviceConfig holds robot driver settings.
type DeviceConfig struct {
	// Driver selects the device driver. "sim" is the only in-tree driver;
	// real SDK drivers register under their own names.
	Driver string `toml:"driver"`

	// CommandTimeout bounds each command's execution within a batch.
	CommandTimeout Duration `toml:"command_timeout"`
}

// QueueConfig holds command queue settings.
type QueueConfig struct {
	// MaxPending caps the commands a session can queue; 0 = unlimited.
	MaxPending int `toml:"max_pending"`
}

// Duration wraps time.Duration for TOML strings like "30s".
type Duration time.Duration

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  Duration(30 * time.Second),
			WriteTimeout: Duration(120 * time.Second),
		},
		Storage: StorageConfig{
			Path: "botdeck.db",
		},
		Device: DeviceConfig{
			Driver:         "sim",
			CommandTimeout: Duration(10 * time.Second),
		},
		Queue: QueueConfig{
			MaxPending: 256,
		},
	}
}

// Load returns the default configuration, overlaid with the TOML file at
// path when one is given.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	if _, err := os.Stat(path); err != nil {
		return cfg, fmt.Errorf("config file %s: %w", path, err)
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	if c.Device.CommandTimeout <= 0 {
		return fmt.Errorf("device.command_timeout must be positive")
	}
	if c.Queue.MaxPending < 0 {
		return fmt.Errorf("queue.max_pending must not be negative")
	}
	return nil
}
