// Copyright 2025 The Periph Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"
	"periph.io/x/conn/v3/gpio"
)

// config is the optional YAML configuration file. Command line flags take
// precedence over it.
type config struct {
	Pin        string `yaml:"pin"`
	Pull       string `yaml:"pull"` // "", "none" or "up"
	AlarmOnly  bool   `yaml:"alarm_only"`
	IntervalMs int    `yaml:"interval_ms"` // 0 scans once
	LogLevel   string `yaml:"log_level"`   // debug, info, warn or error
}

func defaultConfig() config {
	return config{Pin: "GPIO4", Pull: "none", LogLevel: "info"}
}

// loadConfig reads path over the defaults.
func loadConfig(path string) (config, error) {
	cfg := defaultConfig()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func (c *config) validate() error {
	if c.Pin == "" {
		return errors.New("pin is required")
	}
	if _, err := c.pull(); err != nil {
		return err
	}
	if _, err := c.level(); err != nil {
		return err
	}
	if c.IntervalMs < 0 {
		return fmt.Errorf("interval_ms must be >= 0, got %d", c.IntervalMs)
	}
	return nil
}

func (c *config) interval() time.Duration {
	return time.Duration(c.IntervalMs) * time.Millisecond
}

func (c *config) pull() (gpio.Pull, error) {
	switch c.Pull {
	case "", "none":
		return gpio.PullNoChange, nil
	case "up":
		return gpio.PullUp, nil
	default:
		return gpio.PullNoChange, fmt.Errorf("pull must be none or up, got %q", c.Pull)
	}
}

func (c *config) level() (slog.Level, error) {
	var l slog.Level
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log_level: %w", err)
	}
	return l, nil
}
