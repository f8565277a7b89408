// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Argus Contributors

package provider

import "time"

// Config holds the per-backend settings the factory and availability check
// consume: credential, endpoint override, preferred model, and call timeout.
// A zero Timeout means the kind's default (remote 30s, local 15m).
type Config struct {
	APIKey   string
	Endpoint string
	Model    string
	Timeout  time.Duration
}

// Settings maps each backend kind to its configuration. Kinds absent from
// the map are treated as unconfigured.
type Settings map[Kind]Config

// TimeoutFor resolves the effective call timeout for a kind, applying the
// remote/local default asymmetry when no override is configured.
func (s Settings) TimeoutFor(kind Kind) time.Duration {
	if cfg, ok := s[kind]; ok && cfg.Timeout > 0 {
		return cfg.Timeout
	}
	if kind == KindOllama {
		return DefaultLocalTimeout
	}
	return DefaultRemoteTimeout
}

// defaultModels lists the candidate model identifiers per kind, most
// preferred first. The availability check puts a configured model override
// ahead of these.
var defaultModels = map[Kind][]string{
	KindAnthropic: {"claude-sonnet-4-5", "claude-haiku-4-5"},
	KindOpenAI:    {"gpt-4.1", "gpt-4.1-mini"},
	KindGoogle:    {"gemini-2.5-flash", "gemini-2.0-flash"},
	KindOllama:    {"llama3.1", "qwen2.5-coder"},
}

// DefaultModels returns the built-in candidate models for a kind, most
// preferred first.
func DefaultModels(kind Kind) []string {
	return append([]string(nil), defaultModels[kind]...)
}

// DefaultEndpoint returns the built-in endpoint for kinds that have one.
// Remote vendors default to their SDK's own endpoint (empty string).
func DefaultEndpoint(kind Kind) string {
	if kind == KindOllama {
		return "http://127.0.0.1:11434"
	}
	return ""
}
