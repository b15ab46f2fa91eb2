// Copyright (c) 2025 LedgerLens
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"

	"ledgerlens/cli/internal/keychain"
	"ledgerlens/cli/internal/settings"

	"github.com/spf13/cobra"
)

var (
	llmHost          string
	llmPort          int
	llmModel         string
	llmContextWindow int
	llmTemperature   float32
	llmTopP          float32
	llmTopK          int
	llmSystemPrompt  string
	llmKeepAlive     string
)

// settingsCmd groups configuration management.
var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "View and change application settings",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := settings.Open()
		if err != nil {
			return err
		}
		b, err := json.MarshalIndent(store.Snapshot(), "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(b))
		return nil
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change one top-level setting",
	Long: `The set command changes one top-level setting and persists it.

Supported keys: auto_start_ollama (true/false), theme, language.
LLM settings are changed with 'ledgerlens settings llm'.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := settings.Open()
		if err != nil {
			return err
		}
		key, raw := args[0], args[1]
		var value any = raw
		if b, err := strconv.ParseBool(raw); err == nil && key == "auto_start_ollama" {
			value = b
		}
		if err := store.Set(key, value); err != nil {
			return err
		}
		fmt.Printf("✅ %s = %s\n", key, raw)
		return nil
	},
}

var settingsLLMCmd = &cobra.Command{
	Use:   "llm",
	Short: "Change inference server settings",
	Long: `The llm command updates the inference server connection and generation knobs.
Only the flags you pass change; everything else keeps its current value.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := settings.Open()
		if err != nil {
			return err
		}
		llm := store.Snapshot().LLM

		flags := cmd.Flags()
		if flags.Changed("host") {
			llm.OllamaHost = llmHost
		}
		if flags.Changed("port") {
			llm.OllamaPort = llmPort
		}
		if flags.Changed("model") {
			llm.SelectedModel = llmModel
		}
		if flags.Changed("context-window") {
			llm.ContextWindow = llmContextWindow
		}
		if flags.Changed("temperature") {
			llm.Temperature = llmTemperature
		}
		if flags.Changed("top-p") {
			llm.TopP = llmTopP
		}
		if flags.Changed("top-k") {
			llm.TopK = llmTopK
		}
		if flags.Changed("system-prompt") {
			llm.SystemPrompt = llmSystemPrompt
		}
		if flags.Changed("keep-alive") {
			llm.KeepAlive = llmKeepAlive
		}

		if err := store.UpdateLLM(llm); err != nil {
			return err
		}
		fmt.Println("✅ LLM settings updated")
		return nil
	},
}

var settingsAPIKeyCmd = &cobra.Command{
	Use:   "apikey [key]",
	Short: "Store or clear the market-data API key",
	Long: `The apikey command stores the market-data API key in the OS keychain. Scraper
lookups use it when the data source requires authentication. Pass --clear to
remove the stored key.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		km, err := keychain.GetManager()
		if err != nil {
			return fmt.Errorf("secure storage is not available on this system: %w", err)
		}
		if apikeyClear {
			if err := km.ClearMarketAPIKey(); err != nil {
				return err
			}
			fmt.Println("✅ Market-data API key cleared")
			return nil
		}
		if len(args) != 1 {
			return fmt.Errorf("pass the API key, or --clear to remove it")
		}
		if err := km.SaveMarketAPIKey(args[0]); err != nil {
			return err
		}
		fmt.Println("✅ Market-data API key saved")
		return nil
	},
}

var apikeyClear bool

func init() {
	rootCmd.AddCommand(settingsCmd)
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsLLMCmd)
	settingsCmd.AddCommand(settingsAPIKeyCmd)
	settingsAPIKeyCmd.Flags().BoolVar(&apikeyClear, "clear", false, "Remove the stored API key")

	f := settingsLLMCmd.Flags()
	f.StringVar(&llmHost, "host", "", "Inference server host")
	f.IntVar(&llmPort, "port", 0, "Inference server port")
	f.StringVar(&llmModel, "model", "", "Default model for chat and generate")
	f.IntVar(&llmContextWindow, "context-window", 0, "Context window size in tokens")
	f.Float32Var(&llmTemperature, "temperature", 0, "Sampling temperature")
	f.Float32Var(&llmTopP, "top-p", 0, "Nucleus sampling cutoff")
	f.IntVar(&llmTopK, "top-k", 0, "Top-k sampling cutoff")
	f.StringVar(&llmSystemPrompt, "system-prompt", "", "System prompt prepended to chats")
	f.StringVar(&llmKeepAlive, "keep-alive", "", "How long the server keeps the model loaded")
}
