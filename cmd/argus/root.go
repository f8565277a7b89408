// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Argus Contributors

package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root argus command with all subcommands registered.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "argus",
		Short:         "Argus — conversational security assistant",
		Long:          "Argus is a conversational assistant that scans codebases for security problems and helps fix them.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			verbose, _ := cmd.Flags().GetBool("verbose")
			setupLogger(verbose)
		},
	}

	root.PersistentFlags().StringP("config", "c", "", "path to config file")
	root.PersistentFlags().BoolP("verbose", "v", false, "enable verbose output")

	root.AddCommand(
		newChatCmd(),
		newScanCmd(),
		newProvidersCmd(),
		newSecretCmd(),
		newServeCmd(),
		newVersionCmd(),
	)

	return root
}

// setupLogger installs the process-wide slog handler. Debug output goes to
// stderr so it never mixes with command output.
func setupLogger(verbose bool) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}
