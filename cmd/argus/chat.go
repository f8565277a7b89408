// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Argus Contributors

package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/argus-dev/argus/internal/agent"
)

func newChatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat [message]",
		Short: "Chat with the security assistant",
		Long:  "Send a message to the assistant. Starts an interactive session if no message is provided.",
		RunE:  runChat,
	}

	cmd.Flags().StringP("workspace", "w", "", "workspace directory to open")
	cmd.Flags().StringP("model", "m", "", "model override for the primary backend")

	return cmd
}

func runChat(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	model, _ := cmd.Flags().GetString("model")
	out := cmd.OutOrStdout()

	orc := buildOrchestrator(cfg, &consoleNotifier{out: cmd.ErrOrStderr()}, model)

	if path, _ := cmd.Flags().GetString("workspace"); path != "" {
		if err := orc.OpenWorkspace(path); err != nil {
			return err
		}
		fmt.Fprintf(out, "Workspace: %s\n", path)
	}

	ctx := cmd.Context()

	// One-shot mode.
	if len(args) > 0 {
		answer, err := orc.ProcessRequest(ctx, strings.Join(args, " "))
		if err != nil {
			return err
		}
		fmt.Fprintln(out, answer)
		return nil
	}

	fmt.Fprintln(out, "Argus interactive session. Type /open <path> to attach a workspace, /quit to exit.")

	in := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Fprint(out, "> ")
		if !in.Scan() {
			return in.Err()
		}

		line := strings.TrimSpace(in.Text())
		switch {
		case line == "":
			continue
		case line == "/quit", line == "/exit":
			return nil
		case strings.HasPrefix(line, "/open "):
			if err := openAndRetry(cmd, orc, strings.TrimSpace(strings.TrimPrefix(line, "/open "))); err != nil {
				fmt.Fprintln(out, "Error:", err)
			}
			continue
		}

		answer, err := orc.ProcessRequest(ctx, line)
		if err != nil {
			fmt.Fprintln(out, "Error:", err)
			continue
		}
		fmt.Fprintln(out, answer)
	}
}

// openAndRetry attaches a workspace and immediately re-runs a request that
// was deferred waiting for one.
func openAndRetry(cmd *cobra.Command, orc *agent.Orchestrator, path string) error {
	if err := orc.OpenWorkspace(path); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Workspace: %s\n", path)

	answer, retried, err := orc.RetryPending(cmd.Context())
	if err != nil {
		return err
	}
	if retried {
		fmt.Fprintln(out, answer)
	}
	return nil
}

// consoleNotifier prints progress labels to stderr so they never mix with
// the assistant's answers on stdout.
type consoleNotifier struct {
	out io.Writer
}

func (n *consoleNotifier) Started()              { fmt.Fprintln(n.out, "...") }
func (n *consoleNotifier) Progress(label string) { fmt.Fprintln(n.out, "... "+label) }
func (n *consoleNotifier) Clear()                {}
func (n *consoleNotifier) Final(string)          {}
