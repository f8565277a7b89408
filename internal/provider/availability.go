// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Argus Contributors

package provider

import (
	"context"
	"net/http"
	"strings"
)

// Descriptor reports a backend's current fitness: whether it is configured
// (and, for local backends, reachable) plus its candidate model identifiers
// in preference order. Descriptors are recomputed on demand and never
// cached across resolution attempts, since credentials and local-service
// reachability can change between calls.
type Descriptor struct {
	Kind      Kind
	Models    []string
	Available bool
	Reason    string
}

// Checker performs on-demand availability checks against the configured
// settings. The probe is injectable for tests; the default issues a short
// HTTP GET against the local backend's tag listing.
type Checker struct {
	settings Settings
	probe    func(ctx context.Context, endpoint string) error
}

// NewChecker creates a Checker over the given settings.
func NewChecker(settings Settings) *Checker {
	return &Checker{
		settings: settings,
		probe:    probeHTTP,
	}
}

// SetProbe overrides the local reachability probe (for testing).
func (c *Checker) SetProbe(probe func(ctx context.Context, endpoint string) error) {
	c.probe = probe
}

// Describe computes the current descriptor for one backend kind.
func (c *Checker) Describe(ctx context.Context, kind Kind) Descriptor {
	d := Descriptor{Kind: kind, Models: c.candidateModels(kind)}

	cfg := c.settings[kind]

	if kind == KindOllama {
		endpoint := cfg.Endpoint
		if endpoint == "" {
			endpoint = DefaultEndpoint(kind)
		}
		if err := c.probe(ctx, endpoint); err != nil {
			d.Reason = "local backend not reachable at " + endpoint
			return d
		}
		d.Available = true
		return d
	}

	if cfg.APIKey == "" {
		d.Reason = "api key not configured"
		return d
	}
	d.Available = true
	return d
}

// DescribeAll returns descriptors for every kind in the chain, in order.
func (c *Checker) DescribeAll(ctx context.Context, chain []Kind) []Descriptor {
	out := make([]Descriptor, 0, len(chain))
	for _, kind := range chain {
		out = append(out, c.Describe(ctx, kind))
	}
	return out
}

// candidateModels puts a configured model override ahead of the built-in
// defaults for the kind.
func (c *Checker) candidateModels(kind Kind) []string {
	defaults := defaultModels[kind]
	cfg, ok := c.settings[kind]
	if !ok || cfg.Model == "" {
		return append([]string(nil), defaults...)
	}

	models := []string{cfg.Model}
	for _, m := range defaults {
		if m != cfg.Model {
			models = append(models, m)
		}
	}
	return models
}

// probeHTTP checks that a local backend answers within ProbeTimeout.
func probeHTTP(ctx context.Context, endpoint string) error {
	probeCtx, cancel := context.WithTimeout(ctx, ProbeTimeout)
	defer cancel()

	url := strings.TrimSuffix(endpoint, "/") + "/api/tags"
	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	return resp.Body.Close()
}
