// Copyright (c) 2025 LedgerLens
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"ledgerlens/cli/internal/httperrors"
	"ledgerlens/cli/internal/ollama"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// statusCmd checks whether the configured inference server is reachable.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check the local inference server",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, snap, err := llmClient()
		if err != nil {
			return err
		}
		base := ollama.BaseURL(snap.LLM)
		if err := client.Status(cmd.Context()); err != nil {
			return httperrors.FormatNetworkError(err, "checking the inference server")
		}
		pterm.Println(pterm.NewStyle(pterm.FgGreen).Sprint("✅ Inference server running at ") + pterm.NewStyle(pterm.FgCyan).Sprint(base))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
