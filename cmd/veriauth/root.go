// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Veriauth Contributors

package main

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for the veriauth CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "veriauth",
		Short: "Veriauth - user account service with email OTP verification",
		Long: `Veriauth is a user account service providing registration with
email OTP verification, login with signed session tokens, password
reset, and account management over a JSON HTTP API.`,
	}

	cmd.AddCommand(NewServeCmd())
	cmd.AddCommand(NewMigrateCmd())

	return cmd
}
