// Resumefeed - Continue Watching Feed Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/resumefeed

// Package config holds the application configuration and its layered loader.
package config

import (
	"fmt"
	"net/url"
	"time"
)

// Config holds all application configuration.
//
// Configuration Loading Order (Koanf v2):
//  1. Defaults: built-in sensible defaults for all optional settings
//  2. Config File: optional YAML config file (config.yaml)
//  3. Environment Variables: override any setting
//
// Config is immutable after Load() and safe for concurrent read access.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Catalog  CatalogConfig  `koanf:"catalog"`
	Playback PlaybackConfig `koanf:"playback"`
	Events   EventsConfig   `koanf:"events"`
	Security SecurityConfig `koanf:"security"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host    string        `koanf:"host"`
	Port    int           `koanf:"port"`
	Timeout time.Duration `koanf:"timeout"`
}

// Addr returns the host:port listen address.
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// CatalogConfig selects and configures the continuation feed backend.
//
// Backends:
//   - "memory": volatile in-process store, for development and tests
//   - "badger": embedded persistent store at Path
//   - "remote": the host platform's catalog API at Remote.URL
type CatalogConfig struct {
	Backend string              `koanf:"backend"`
	Path    string              `koanf:"path"`
	Remote  RemoteCatalogConfig `koanf:"remote"`
}

// RemoteCatalogConfig holds connection settings for the remote backend. The
// circuit breaker applies only to this backend.
type RemoteCatalogConfig struct {
	URL            string        `koanf:"url"`
	APIKey         string        `koanf:"api_key"`
	Timeout        time.Duration `koanf:"timeout"`
	CircuitBreaker bool          `koanf:"circuit_breaker"`
}

// PlaybackConfig holds the started-threshold classifier settings.
type PlaybackConfig struct {
	// StartedFraction of the duration after which a video counts as
	// started. Must be in (0, 1].
	StartedFraction float64 `koanf:"started_fraction"`
	// StartedMinimum caps the fraction rule for long videos.
	StartedMinimum time.Duration `koanf:"started_minimum"`
}

// EventsConfig controls the in-process mutation event bus.
type EventsConfig struct {
	Enabled bool `koanf:"enabled"`
}

// SecurityConfig holds API protection settings.
type SecurityConfig struct {
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Validate checks the configuration for structural errors. Called by Load;
// exposed for tests and for configs assembled by hand.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range 1-65535", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("server.timeout must be positive, got %v", c.Server.Timeout)
	}

	switch c.Catalog.Backend {
	case "memory":
	case "badger":
		if c.Catalog.Path == "" {
			return fmt.Errorf("catalog.path is required for the badger backend")
		}
	case "remote":
		if c.Catalog.Remote.URL == "" {
			return fmt.Errorf("catalog.remote.url is required for the remote backend")
		}
		if _, err := url.Parse(c.Catalog.Remote.URL); err != nil {
			return fmt.Errorf("catalog.remote.url is malformed: %w", err)
		}
	default:
		return fmt.Errorf("catalog.backend %q not one of memory, badger, remote", c.Catalog.Backend)
	}

	if c.Playback.StartedFraction <= 0 || c.Playback.StartedFraction > 1 {
		return fmt.Errorf("playback.started_fraction %v not in (0, 1]", c.Playback.StartedFraction)
	}
	if c.Playback.StartedMinimum < 0 {
		return fmt.Errorf("playback.started_minimum must not be negative, got %v", c.Playback.StartedMinimum)
	}

	if !c.Security.RateLimitDisabled {
		if c.Security.RateLimitReqs <= 0 {
			return fmt.Errorf("security.rate_limit_reqs must be positive, got %d", c.Security.RateLimitReqs)
		}
		if c.Security.RateLimitWindow <= 0 {
			return fmt.Errorf("security.rate_limit_window must be positive, got %v", c.Security.RateLimitWindow)
		}
	}

	return nil
}
