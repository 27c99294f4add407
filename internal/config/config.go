// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package config loads the breeze YAML configuration
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Thermoquad/breeze/internal/logger"
	"github.com/Thermoquad/breeze/pkg/blaster"
	"github.com/Thermoquad/breeze/pkg/panasonic"
)

// Link configures the connection to a remote emitter
type Link struct {
	Port        string `yaml:"port"`
	Baud        int    `yaml:"baud"`
	URL         string `yaml:"url"`
	Username    string `yaml:"username"`
	NoSSLVerify bool   `yaml:"no_ssl_verify"`
	TimeoutS    int    `yaml:"timeout_s"`
}

// Enabled reports whether a serial port or WebSocket URL is set
func (l Link) Enabled() bool {
	return l.Port != "" || l.URL != ""
}

func (l Link) Timeout() time.Duration {
	return time.Duration(l.TimeoutS) * time.Second
}

type Config struct {
	GPIOPin     int    `yaml:"gpio_pin"`
	UnitTimeUS  int    `yaml:"unit_time_us"`
	Repeat      int    `yaml:"repeat"`
	GapMS       int    `yaml:"gap_ms"`
	CarrierHz   int    `yaml:"carrier_hz"`
	DutyPercent int    `yaml:"duty_percent"`
	LogLevel    string `yaml:"log_level"`
	Database    string `yaml:"database"`
	Listen      string `yaml:"listen"`
	Link        Link   `yaml:"link"`

	Defaults panasonic.Settings `yaml:"defaults"`
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		GPIOPin:     17,
		UnitTimeUS:  425,
		Repeat:      1,
		GapMS:       0,
		CarrierHz:   blaster.DefaultFrequency,
		DutyPercent: blaster.DefaultDuty,
		LogLevel:    "info",
		Database:    "breeze.db",
		Listen:      ":8080",
		Link: Link{
			Baud:     115200,
			TimeoutS: 5,
		},
		Defaults: panasonic.DefaultSettings(),
	}
}

// DefaultPath is $XDG_CONFIG_HOME/breeze/config.yaml, falling back to ~/.config
func DefaultPath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "config.yaml"
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "breeze", "config.yaml")
}

// Load reads path over the defaults. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg as YAML, creating the directory
func Save(path string, cfg Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate checks every range; all problems are returned joined
func (c Config) Validate() error {
	var errs []error
	if c.GPIOPin < 0 {
		errs = append(errs, fmt.Errorf("gpio_pin %d must not be negative", c.GPIOPin))
	}
	if c.UnitTimeUS < 100 || c.UnitTimeUS > 2000 {
		errs = append(errs, fmt.Errorf("unit_time_us %d outside [100, 2000]", c.UnitTimeUS))
	}
	if c.Repeat < 1 || c.Repeat > blaster.MaxRepeat {
		errs = append(errs, fmt.Errorf("repeat %d outside [1, %d]", c.Repeat, blaster.MaxRepeat))
	}
	if c.GapMS < 0 {
		errs = append(errs, fmt.Errorf("gap_ms %d must not be negative", c.GapMS))
	}
	if err := c.Carrier().Validate(); err != nil {
		errs = append(errs, err)
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if c.Link.Port != "" && c.Link.URL != "" {
		errs = append(errs, errors.New("link: set either port or url, not both"))
	}
	if c.Link.TimeoutS < 1 {
		errs = append(errs, fmt.Errorf("link.timeout_s %d must be at least 1", c.Link.TimeoutS))
	}
	if err := panasonic.Validate(c.Defaults); err != nil {
		errs = append(errs, fmt.Errorf("defaults: %w", err))
	}
	return errors.Join(errs...)
}

func (c Config) UnitTime() time.Duration {
	return time.Duration(c.UnitTimeUS) * time.Microsecond
}

func (c Config) Gap() time.Duration {
	return time.Duration(c.GapMS) * time.Millisecond
}

func (c Config) Carrier() blaster.Carrier {
	return blaster.Carrier{Frequency: c.CarrierHz, DutyPercent: c.DutyPercent}
}
