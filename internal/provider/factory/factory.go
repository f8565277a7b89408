// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Argus Contributors

// Package factory constructs concrete providers from a kind plus its
// configuration. It lives apart from package provider so the backend
// packages can import the shared types without a cycle.
package factory

import (
	"github.com/argus-dev/argus/internal/provider"
	"github.com/argus-dev/argus/internal/provider/anthropic"
	"github.com/argus-dev/argus/internal/provider/google"
	"github.com/argus-dev/argus/internal/provider/ollama"
	"github.com/argus-dev/argus/internal/provider/openai"
	arguserr "github.com/argus-dev/argus/pkg/errors"
)

// New builds the provider for the given kind using its configuration.
func New(kind provider.Kind, cfg provider.Config) (provider.Provider, error) {
	switch kind {
	case provider.KindAnthropic:
		return anthropic.New(cfg)
	case provider.KindOpenAI:
		return openai.New(cfg)
	case provider.KindGoogle:
		return google.New(cfg)
	case provider.KindOllama:
		return ollama.New(cfg)
	default:
		return nil, arguserr.Errorf(arguserr.CodeProviderUnknownKind,
			"unknown provider kind %q", kind)
	}
}

// NewFromSettings builds the provider for kind, applying the settings'
// timeout defaults (short for remote backends, long for local ones).
func NewFromSettings(kind provider.Kind, settings provider.Settings) (provider.Provider, error) {
	cfg := settings[kind]
	cfg.Timeout = settings.TimeoutFor(kind)
	return New(kind, cfg)
}
