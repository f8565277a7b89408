// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Argus Contributors

// Package config loads and validates the Argus configuration from file and
// environment, and converts it into the typed settings the provider layer
// consumes.
package config

import (
	"errors"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/argus-dev/argus/internal/provider"
	"github.com/argus-dev/argus/internal/secrets"
	arguserr "github.com/argus-dev/argus/pkg/errors"
)

// Config is the top-level Argus configuration.
type Config struct {
	Server    ServerConfig              `mapstructure:"server"`
	Providers map[string]ProviderConfig `mapstructure:"providers"`
	Failover  FailoverConfig            `mapstructure:"failover"`
	Agent     AgentConfig               `mapstructure:"agent"`
}

// ServerConfig controls how the HTTP surface listens for connections.
type ServerConfig struct {
	Listen      string   `mapstructure:"listen"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// ProviderConfig holds credentials, endpoint, and model selection for one
// model backend. APIKey may be a keyring:// URI resolved after load.
type ProviderConfig struct {
	APIKey         string `mapstructure:"api_key"`
	Endpoint       string `mapstructure:"endpoint"`
	Model          string `mapstructure:"model"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

// FailoverConfig controls automatic backend switching.
type FailoverConfig struct {
	Enabled bool     `mapstructure:"enabled"`
	Chain   []string `mapstructure:"chain"`
}

// AgentConfig controls the orchestration loop.
type AgentConfig struct {
	Primary            string `mapstructure:"primary"`
	MaxIterations      int    `mapstructure:"max_iterations"`
	MaxTokens          int    `mapstructure:"max_tokens"`
	ScanTimeoutSeconds int    `mapstructure:"scan_timeout_seconds"`
}

// Load reads configuration from the given path (or defaults when empty)
// with environment variable overrides (prefix ARGUS_).
func Load(path string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.listen", "127.0.0.1:18990")
	v.SetDefault("server.cors_origins", []string{"http://localhost:3000"})
	v.SetDefault("failover.enabled", true)
	v.SetDefault("agent.primary", string(provider.DefaultChain()[0]))
	v.SetDefault("agent.max_iterations", 20)
	v.SetDefault("agent.max_tokens", 4096)
	v.SetDefault("agent.scan_timeout_seconds", 60)

	// Environment
	v.SetEnvPrefix("ARGUS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// File
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, arguserr.Errorf(arguserr.CodeConfigLoadReadFailure, "reading config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, arguserr.Errorf(arguserr.CodeConfigParseInvalidFormat, "unmarshalling config: %w", err)
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, arguserr.Errorf(arguserr.CodeConfigValidateInvalidValue, "validating config: %w", errors.Join(errs...))
	}

	return &cfg, nil
}

// Validate checks the configuration for logical errors. It returns all
// validation errors found rather than stopping at the first one.
func (c *Config) Validate() []error {
	var errs []error

	errs = append(errs, c.validateServer()...)
	errs = append(errs, c.validateProviders()...)
	errs = append(errs, c.validateFailover()...)
	errs = append(errs, c.validateAgent()...)

	return errs
}

func (c *Config) validateServer() []error {
	var errs []error

	if c.Server.Listen == "" {
		errs = append(errs, arguserr.Errorf(arguserr.CodeConfigValidateInvalidValue, "config: server.listen must not be empty"))
		return errs
	}

	_, portStr, err := net.SplitHostPort(c.Server.Listen)
	if err != nil {
		errs = append(errs, arguserr.Errorf(arguserr.CodeConfigValidateInvalidValue,
			"config: server.listen must be a valid host:port address, got %q: %w",
			c.Server.Listen, err,
		))
		return errs
	}

	port, err := strconv.Atoi(portStr)
	if err != nil {
		errs = append(errs, arguserr.Errorf(arguserr.CodeConfigValidateInvalidValue,
			"config: server.listen port must be a number, got %q",
			portStr,
		))
	} else if port < 1 || port > 65535 {
		errs = append(errs, arguserr.Errorf(arguserr.CodeConfigValidateInvalidValue,
			"config: server.listen port must be between 1 and 65535, got %d",
			port,
		))
	}

	return errs
}

func (c *Config) validateProviders() []error {
	var errs []error

	for name, pc := range c.Providers {
		if _, err := provider.ParseKind(name); err != nil {
			errs = append(errs, arguserr.Errorf(arguserr.CodeConfigValidateInvalidValue,
				"config: providers.%s is not a known backend kind", name))
		}
		if pc.TimeoutSeconds < 0 {
			errs = append(errs, arguserr.Errorf(arguserr.CodeConfigValidateInvalidValue,
				"config: providers.%s.timeout_seconds must not be negative, got %d",
				name, pc.TimeoutSeconds,
			))
		}
	}

	return errs
}

func (c *Config) validateFailover() []error {
	var errs []error

	for i, name := range c.Failover.Chain {
		if _, err := provider.ParseKind(name); err != nil {
			errs = append(errs, arguserr.Errorf(arguserr.CodeConfigValidateInvalidValue,
				"config: failover.chain[%d] %q is not a known backend kind",
				i, name,
			))
		}
	}

	return errs
}

func (c *Config) validateAgent() []error {
	var errs []error

	if _, err := provider.ParseKind(c.Agent.Primary); err != nil {
		errs = append(errs, arguserr.Errorf(arguserr.CodeConfigValidateInvalidValue,
			"config: agent.primary %q is not a known backend kind",
			c.Agent.Primary,
		))
	}

	if c.Agent.MaxIterations <= 0 {
		errs = append(errs, arguserr.Errorf(arguserr.CodeConfigValidateInvalidValue,
			"config: agent.max_iterations must be greater than 0, got %d",
			c.Agent.MaxIterations,
		))
	}

	if c.Agent.MaxTokens <= 0 {
		errs = append(errs, arguserr.Errorf(arguserr.CodeConfigValidateInvalidValue,
			"config: agent.max_tokens must be greater than 0, got %d",
			c.Agent.MaxTokens,
		))
	}

	if c.Agent.ScanTimeoutSeconds <= 0 {
		errs = append(errs, arguserr.Errorf(arguserr.CodeConfigValidateInvalidValue,
			"config: agent.scan_timeout_seconds must be greater than 0, got %d",
			c.Agent.ScanTimeoutSeconds,
		))
	}

	return errs
}

// ProviderSettings converts the providers section into the typed settings
// the provider layer consumes. Unknown kinds are skipped; Validate reports
// them.
func (c *Config) ProviderSettings() provider.Settings {
	settings := make(provider.Settings, len(c.Providers))
	for name, pc := range c.Providers {
		kind, err := provider.ParseKind(name)
		if err != nil {
			continue
		}
		settings[kind] = provider.Config{
			APIKey:   pc.APIKey,
			Endpoint: pc.Endpoint,
			Model:    pc.Model,
			Timeout:  time.Duration(pc.TimeoutSeconds) * time.Second,
		}
	}
	return settings
}

// Chain returns the configured failover chain, or nil when unset so the
// caller falls back to the built-in order.
func (c *Config) Chain() []provider.Kind {
	if len(c.Failover.Chain) == 0 {
		return nil
	}

	chain := make([]provider.Kind, 0, len(c.Failover.Chain))
	for _, name := range c.Failover.Chain {
		kind, err := provider.ParseKind(name)
		if err != nil {
			continue
		}
		chain = append(chain, kind)
	}
	return chain
}

// PrimaryKind returns the configured primary backend.
func (c *Config) PrimaryKind() provider.Kind {
	kind, err := provider.ParseKind(c.Agent.Primary)
	if err != nil {
		return provider.DefaultChain()[0]
	}
	return kind
}

// ScanTimeout returns the shortcut scan deadline as a duration.
func (c *Config) ScanTimeout() time.Duration {
	return time.Duration(c.Agent.ScanTimeoutSeconds) * time.Second
}

// ResolveSecrets replaces keyring:// URIs in provider API keys with the
// values from the store. Called once after Load, before the settings are
// handed to the provider layer.
func (c *Config) ResolveSecrets(store secrets.Store) error {
	for name, pc := range c.Providers {
		resolved, err := secrets.Resolve(store, pc.APIKey)
		if err != nil {
			return arguserr.Wrapf(err, arguserr.CodeSecretResolveFailure,
				"resolving api key for provider %s", name)
		}
		pc.APIKey = resolved
		c.Providers[name] = pc
	}
	return nil
}
