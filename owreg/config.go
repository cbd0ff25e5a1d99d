// Copyright 2026 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package owreg

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config describes how to reach a bus.
//
// It is typically loaded from YAML:
//
//	connection: "owserver://localhost:4304"
//	timeout: 2s
//	persist: true
//	resolution: 10
//	log_level: debug
type Config struct {
	// Connection is the connection string, see Open.
	Connection string `yaml:"connection"`
	// Timeout bounds network round trips.
	Timeout time.Duration `yaml:"timeout"`
	// Persist keeps owserver connections open between requests.
	Persist bool `yaml:"persist"`
	// Resolution is the thermometer resolution in bits (9..12) used by
	// locally rendered buses.
	Resolution int `yaml:"resolution"`
	// LogLevel enables logging to stderr at this level ("debug", "info",
	// "warn", "error"). Empty disables logging.
	LogLevel string `yaml:"log_level"`
}

// DefaultConfig is the configuration used by Open and the base of LoadConfig.
var DefaultConfig = Config{
	Connection: "localhost:4304",
	Timeout:    5 * time.Second,
	Persist:    true,
	Resolution: 12,
}

// LoadConfig reads a YAML configuration. Missing fields keep their
// DefaultConfig value.
func LoadConfig(r io.Reader) (*Config, error) {
	cfg := DefaultConfig
	if err := yaml.NewDecoder(r).Decode(&cfg); err != nil && err != io.EOF {
		return nil, fmt.Errorf("owreg: parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadConfigFile reads a YAML configuration file.
func LoadConfigFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("owreg: %w", err)
	}
	defer f.Close()
	return LoadConfig(f)
}

// Validate checks the values of the configuration.
func (c *Config) Validate() error {
	if c.Connection == "" {
		return fmt.Errorf("owreg: empty connection")
	}
	if c.Timeout < 0 {
		return fmt.Errorf("owreg: negative timeout %s", c.Timeout)
	}
	if c.Resolution < 9 || c.Resolution > 12 {
		return fmt.Errorf("owreg: invalid resolution %d, expected 9..12", c.Resolution)
	}
	if _, err := c.Logger(); err != nil {
		return err
	}
	return nil
}

// Logger returns the logger described by LogLevel, or nil when logging is
// disabled.
func (c *Config) Logger() (*slog.Logger, error) {
	if c.LogLevel == "" {
		return nil, nil
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return nil, fmt.Errorf("owreg: invalid log_level %q", c.LogLevel)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})), nil
}
