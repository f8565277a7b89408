// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Argus Contributors

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/argus-dev/argus/internal/provider"
)

func newProvidersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "Show model backends and their availability",
		Long:  "Check each configured backend (credentials for remote vendors, reachability for local ones) and list its candidate models.",
		RunE:  runProviders,
	}
}

func runProviders(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	chain := cfg.Chain()
	if len(chain) == 0 {
		chain = provider.DefaultChain()
	}

	checker := provider.NewChecker(cfg.ProviderSettings())
	out := cmd.OutOrStdout()

	for _, d := range checker.DescribeAll(cmd.Context(), chain) {
		status := "available"
		if !d.Available {
			status = "unavailable (" + d.Reason + ")"
		}
		fmt.Fprintf(out, "%-10s %s\n", d.Kind, status)
		fmt.Fprintf(out, "           models: %s\n", strings.Join(d.Models, ", "))
	}
	return nil
}
