// Copyright (c) 2025 LedgerLens
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"fmt"
	"strings"

	"ledgerlens/cli/internal/events"
	"ledgerlens/cli/internal/httperrors"
	"ledgerlens/cli/internal/logging"
	"ledgerlens/cli/internal/ollama"
	"ledgerlens/cli/internal/protocol"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var (
	chatModel    string
	chatNoStream bool
)

// chatCmd sends one chat turn to the configured model. Streaming is the
// default; tokens print as they arrive.
var chatCmd = &cobra.Command{
	Use:   "chat <prompt>",
	Short: "Chat with the configured model",
	Long: `The chat command sends a prompt to the selected model on the local inference
server. By default the reply streams token by token; --no-stream waits for the
complete reply instead.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, snap, err := llmClient()
		if err != nil {
			return err
		}
		model := chatModel
		if model == "" {
			model = snap.LLM.SelectedModel
		}
		prompt := strings.Join(args, " ")

		req := ollama.NewChatRequest(snap.LLM, model, prompt)

		if chatNoStream {
			out, err := client.Chat(cmd.Context(), req)
			if err != nil {
				return httperrors.FormatNetworkError(err, "chat")
			}
			if msg, ok := out["message"].(map[string]any); ok {
				if content, ok := msg["content"].(string); ok {
					fmt.Println(content)
					return nil
				}
			}
			return fmt.Errorf("no message content in reply")
		}

		sink := events.SinkFunc(func(topic string, payload any) {
			if topic != events.TopicChatStream {
				return
			}
			if p, ok := payload.(*protocol.ProgressUpdate); ok && p != nil {
				fmt.Print(p.Message)
			}
		})
		resp, err := client.ChatStream(cmd.Context(), req, sink, 0)
		if err != nil {
			fmt.Println()
			pterm.Printf("❌ Chat stream failed\n")
			pterm.Println(logging.PresentError("chat", err))
			return err
		}
		// The final chunk may carry trailing content.
		if resp.Message != "" {
			fmt.Print(resp.Message)
		}
		fmt.Println()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().StringVar(&chatModel, "model", "", "Model to chat with (defaults to the selected model)")
	chatCmd.Flags().BoolVar(&chatNoStream, "no-stream", false, "Wait for the complete reply instead of streaming")
}
