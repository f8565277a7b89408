// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Argus Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/argus-dev/argus/internal/agent"
	"github.com/argus-dev/argus/internal/config"
	"github.com/argus-dev/argus/internal/provider"
	"github.com/argus-dev/argus/internal/provider/factory"
	"github.com/argus-dev/argus/internal/scanner"
	"github.com/argus-dev/argus/internal/secrets"
)

// secretStoreFactory creates a secrets.Store. It is a package-level
// variable so tests can substitute a mock implementation.
var secretStoreFactory = func() secrets.Store {
	return secrets.NewKeyringStore()
}

// loadConfig reads the configuration named by the persistent --config flag
// and resolves keyring URIs in provider credentials.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.ResolveSecrets(secretStoreFactory()); err != nil {
		return nil, err
	}
	return cfg, nil
}

// buildOrchestrator assembles the agent from loaded configuration: tool
// registry with builtins, scan runner, availability checker, and the
// failover resolver over the configured chain.
func buildOrchestrator(cfg *config.Config, n agent.Notifier, model string) *agent.Orchestrator {
	settings := cfg.ProviderSettings()

	reg := agent.NewRegistry()
	runner := scanner.NewRunner()
	agent.RegisterBuiltins(reg, runner)

	checker := provider.NewChecker(settings)
	resolver := provider.NewResolver(cfg.Chain(), checker)

	return agent.New(agent.Config{
		Registry:        reg,
		Scanner:         runner,
		Settings:        settings,
		Resolver:        resolver,
		Factory:         factory.New,
		Notifier:        n,
		Primary:         cfg.PrimaryKind(),
		Model:           model,
		MaxIterations:   cfg.Agent.MaxIterations,
		MaxTokens:       cfg.Agent.MaxTokens,
		FailoverEnabled: cfg.Failover.Enabled,
		ShortcutTimeout: cfg.ScanTimeout(),
	})
}
