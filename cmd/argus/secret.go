// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Argus Contributors

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	arguserr "github.com/argus-dev/argus/pkg/errors"
)

// serviceName is the keyring service under which Argus stores secrets.
// Config references them as keyring://argus/<name>.
const serviceName = "argus"

func newSecretCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secret",
		Short: "Manage secrets stored in the OS keyring",
		Long:  "Store, read, and delete secrets under the Argus service in the operating system keyring.",
	}

	cmd.AddCommand(
		newSecretSetCmd(),
		newSecretGetCmd(),
		newSecretDeleteCmd(),
	)

	return cmd
}

func newSecretSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <name> <value>",
		Short: "Store a secret",
		Args:  cobra.ExactArgs(2),
		RunE:  runSecretSet,
	}
}

func newSecretGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <name>",
		Short: "Print a secret value",
		Args:  cobra.ExactArgs(1),
		RunE:  runSecretGet,
	}
}

func newSecretDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a secret by name",
		Args:  cobra.ExactArgs(1),
		RunE:  runSecretDelete,
	}
}

func runSecretSet(cmd *cobra.Command, args []string) error {
	name, value := args[0], args[1]

	if err := secretStoreFactory().Set(serviceName, name, value); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Stored secret: %s\n", name)
	fmt.Fprintf(cmd.OutOrStdout(), "Reference it in config as keyring://%s/%s\n", serviceName, name)
	return nil
}

func runSecretGet(cmd *cobra.Command, args []string) error {
	name := args[0]

	value, err := secretStoreFactory().Get(serviceName, name)
	if err != nil {
		if arguserr.HasCode(err, arguserr.CodeSecretNotFound) {
			return arguserr.Errorf(arguserr.CodeSecretNotFound, "secret %q not found", name)
		}
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), value)
	return nil
}

func runSecretDelete(cmd *cobra.Command, args []string) error {
	name := args[0]

	if err := secretStoreFactory().Delete(serviceName, name); err != nil {
		if arguserr.HasCode(err, arguserr.CodeSecretNotFound) {
			return arguserr.Errorf(arguserr.CodeSecretNotFound, "secret %q not found", name)
		}
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Deleted secret: %s\n", name)
	return nil
}
