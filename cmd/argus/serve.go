// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Argus Contributors

package main

import (
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/argus-dev/argus/internal/agent"
	"github.com/argus-dev/argus/internal/provider"
	"github.com/argus-dev/argus/internal/server"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the Argus HTTP server",
		Long:  "Serve the health, providers, and streaming chat endpoints until interrupted.",
		RunE:  runServe,
	}

	cmd.Flags().String("listen", "", "listen address override (host:port)")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	listen := cfg.Server.Listen
	if override, _ := cmd.Flags().GetString("listen"); override != "" {
		listen = override
	}

	srv, err := server.New(server.Config{
		ListenAddr:  listen,
		CORSOrigins: cfg.Server.CORSOrigins,
	})
	if err != nil {
		return err
	}

	checker := provider.NewChecker(cfg.ProviderSettings())
	srv.RegisterProviderRoutes(checker, cfg.Chain())

	build := func(n agent.Notifier) *agent.Orchestrator {
		return buildOrchestrator(cfg, n, "")
	}
	srv.RegisterChatHandler(server.NewAgentStream(build, slog.Default()))

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(cmd.OutOrStdout(), "Argus listening on %s\n", listen)
	return srv.Start(ctx)
}
