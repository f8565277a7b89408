// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Argus Contributors

package main

import (
	"encoding/json"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/argus-dev/argus/internal/scanner"
	"github.com/argus-dev/argus/internal/workspace"
	arguserr "github.com/argus-dev/argus/pkg/errors"
)

func newScanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan [path]",
		Short: "Scan a directory for security findings",
		Long:  "Run the secret, dependency, and insecure-code scanners over a directory and print the report.",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runScan,
	}

	cmd.Flags().StringP("format", "f", "json", "output format: json, yaml")
	cmd.Flags().StringSlice("include", nil, "glob patterns of files to scan")
	cmd.Flags().StringSlice("exclude", nil, "glob patterns of files to skip")
	cmd.Flags().String("min-severity", "", "drop findings below this severity (critical, high, medium, low, info)")

	return cmd
}

func runScan(cmd *cobra.Command, args []string) error {
	path := "."
	if len(args) > 0 {
		path = args[0]
	}

	ws, err := workspace.Open(path)
	if err != nil {
		return err
	}

	opts := scanner.Options{}
	opts.Include, _ = cmd.Flags().GetStringSlice("include")
	opts.Exclude, _ = cmd.Flags().GetStringSlice("exclude")

	if min, _ := cmd.Flags().GetString("min-severity"); min != "" {
		sev := scanner.Severity(min)
		if !sev.Valid() {
			return arguserr.Errorf(arguserr.CodeCLIInputInvalid, "unknown severity %q", min)
		}
		opts.MinSeverity = sev
	}

	report, err := scanner.NewRunner().Run(cmd.Context(), ws, opts)
	if err != nil {
		return err
	}

	format, _ := cmd.Flags().GetString("format")
	out := cmd.OutOrStdout()

	switch format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	case "yaml":
		enc := yaml.NewEncoder(out)
		defer enc.Close()
		return enc.Encode(report)
	default:
		return arguserr.Errorf(arguserr.CodeCLIInputInvalid, "unknown format %q (expected json or yaml)", format)
	}
}
