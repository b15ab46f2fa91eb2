// Copyright (c) 2025 LedgerLens
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"fmt"
	"time"

	"ledgerlens/cli/internal/httperrors"
	"ledgerlens/cli/internal/ollama"
	"ledgerlens/cli/internal/settings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	pullInsecure bool
)

// llmClient opens the settings store and builds a client for the configured
// inference server.
func llmClient() (*ollama.Client, settings.AppSettings, error) {
	store, err := settings.Open()
	if err != nil {
		return nil, settings.AppSettings{}, err
	}
	snap := store.Snapshot()
	return ollama.New(snap.LLM), snap, nil
}

// modelsCmd groups local model management.
var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "Manage models on the local inference server",
}

var modelsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available models and their load state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, snap, err := llmClient()
		if err != nil {
			return err
		}
		models, err := client.Models(cmd.Context())
		if err != nil {
			return httperrors.FormatNetworkError(err, "listing models")
		}
		rows := pterm.TableData{{"NAME", "SIZE", "FAMILY", "LOADED", "VRAM"}}
		for _, m := range models {
			name, _ := m["name"].(string)
			family, _ := m["family"].(string)
			size := ""
			if b, ok := m["size"].(float64); ok {
				size = fmt.Sprintf("%.1f GB", b/(1024*1024*1024))
			}
			loaded := ""
			if l, ok := m["loaded"].(bool); ok && l {
				loaded = "yes"
			}
			vram, _ := m["vram_usage"].(string)
			mark := name
			if name == snap.LLM.SelectedModel {
				mark = name + " *"
			}
			rows = append(rows, []string{mark, size, family, loaded, vram})
		}
		return pterm.DefaultTable.WithHasHeader().WithData(rows).Render()
	},
}

var modelsPullCmd = &cobra.Command{
	Use:   "pull <model>",
	Short: "Download a model to the local server",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := llmClient()
		if err != nil {
			return err
		}
		stop := startInlineSpinner(cmd.OutOrStdout(), "pulling "+args[0],
			[]string{"-", "\\", "|", "/"}, 100*time.Millisecond)
		_, err = client.Pull(cmd.Context(), args[0], pullInsecure)
		stop()
		if err != nil {
			return httperrors.FormatNetworkError(err, "pulling "+args[0])
		}
		fmt.Printf("✅ Pulled %s\n", args[0])
		return nil
	},
}

var modelsRmCmd = &cobra.Command{
	Use:   "rm <model>",
	Short: "Delete a model from the local server",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := llmClient()
		if err != nil {
			return err
		}
		if _, err := client.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("✅ Deleted %s\n", args[0])
		return nil
	},
}

var modelsUnloadCmd = &cobra.Command{
	Use:   "unload <model>",
	Short: "Evict a loaded model from memory",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := llmClient()
		if err != nil {
			return err
		}
		if err := client.Unload(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Printf("✅ Unloaded %s\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
	modelsPullCmd.Flags().BoolVar(&pullInsecure, "insecure", false, "Allow insecure registry connections")
	modelsCmd.AddCommand(modelsListCmd)
	modelsCmd.AddCommand(modelsPullCmd)
	modelsCmd.AddCommand(modelsRmCmd)
	modelsCmd.AddCommand(modelsUnloadCmd)
}
