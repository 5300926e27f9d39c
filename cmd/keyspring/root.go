// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 keyspring Contributors

package main

import (
	"github.com/spf13/cobra"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the keyspring CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keyspring",
		Short: "keyspring - credential issuance and verification service",
		Long: `keyspring registers user accounts, verifies credentials and issues
signed bearer tokens carrying identity claims.`,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())

	return cmd
}
