// Copyright (c) 2025 LedgerLens
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"fmt"

	"ledgerlens/cli/internal/keychain"

	"github.com/spf13/cobra"
)

// disconnectCmd removes the stored database connection from the keychain.
var disconnectCmd = &cobra.Command{
	Use:   "disconnect",
	Short: "Remove the saved database connection",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		km, err := keychain.GetManager()
		if err != nil {
			return fmt.Errorf("secure storage is not available on this system: %w", err)
		}
		if err := km.ClearDB(); err != nil {
			return err
		}
		fmt.Println("✅ Database connection removed")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(disconnectCmd)
}
