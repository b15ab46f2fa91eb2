// Copyright (c) 2025 LedgerLens
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"fmt"
	"strings"
	"time"

	"ledgerlens/cli/internal/httperrors"

	"github.com/spf13/cobra"
)

var (
	generateModel string
)

// generateCmd runs a one-shot completion without chat history.
var generateCmd = &cobra.Command{
	Use:   "generate <prompt>",
	Short: "Run a one-shot completion",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, snap, err := llmClient()
		if err != nil {
			return err
		}
		model := generateModel
		if model == "" {
			model = snap.LLM.SelectedModel
		}

		stop := startInlineSpinner(cmd.OutOrStdout(), "generating",
			[]string{"-", "\\", "|", "/"}, 100*time.Millisecond)
		text, err := client.Generate(cmd.Context(), model, strings.Join(args, " "), nil)
		stop()
		if err != nil {
			return httperrors.FormatNetworkError(err, "generate")
		}
		fmt.Println(text)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().StringVar(&generateModel, "model", "", "Model to generate with (defaults to the selected model)")
}
