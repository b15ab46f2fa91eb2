// Copyright (c) 2025 LedgerLens
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package ollama provides the REST client for the local inference server.
// Single-document endpoints (model list, pull, delete, generate, chat) are
// plain request/response calls with no framing concerns. Token streaming goes
// through the framed-stream bridge with an HTTP transport so it shares the
// supervision logic of the document-analysis path.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"ledgerlens/cli/internal/bridge"
	"ledgerlens/cli/internal/bridge/httpstream"
	"ledgerlens/cli/internal/events"
	"ledgerlens/cli/internal/protocol"
	"ledgerlens/cli/internal/settings"
)

// ChatMessage is a single turn in a chat conversation.
type ChatMessage struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
}

// ChatRequest carries a chat call and its generation options.
type ChatRequest struct {
	Model    string         `json:"model"`
	Messages []ChatMessage  `json:"messages"`
	Stream   bool           `json:"stream"`
	Options  map[string]any `json:"options,omitempty"`
	Format   string         `json:"format,omitempty"`
	System   string         `json:"system,omitempty"`
}

// NewChatRequest builds a chat request carrying the generation knobs from a
// settings snapshot. The system prompt goes in as the leading message.
func NewChatRequest(llm settings.LLMSettings, model, prompt string) ChatRequest {
	options := map[string]any{
		"temperature":    llm.Temperature,
		"top_p":          llm.TopP,
		"top_k":          llm.TopK,
		"num_ctx":        llm.ContextWindow,
		"repeat_penalty": llm.RepeatPenalty,
	}
	if llm.Seed != nil {
		options["seed"] = *llm.Seed
	}
	if llm.NumPredict != nil {
		options["num_predict"] = *llm.NumPredict
	}
	messages := []ChatMessage{}
	if llm.SystemPrompt != "" {
		messages = append(messages, ChatMessage{Role: "system", Content: llm.SystemPrompt})
	}
	messages = append(messages, ChatMessage{Role: "user", Content: prompt})
	return ChatRequest{
		Model:    model,
		Messages: messages,
		Options:  options,
		Format:   llm.Format,
	}
}

// Client talks to one inference server resolved from a settings snapshot.
type Client struct {
	baseURL string
	client  *http.Client
	// slow handles requests with no sensible upper bound (model pulls).
	slow *http.Client
}

// BaseURL resolves the server address from LLM settings. An empty host and
// "localhost" are forced to 127.0.0.1 to avoid IPv6 resolution issues
// (::1 vs 127.0.0.1).
func BaseURL(llm settings.LLMSettings) string {
	host := strings.TrimSpace(llm.OllamaHost)
	if host == "" || strings.EqualFold(host, "localhost") {
		host = "127.0.0.1"
	}
	return fmt.Sprintf("http://%s:%d", host, llm.OllamaPort)
}

// New creates a client from a settings snapshot captured at call start.
func New(llm settings.LLMSettings) *Client {
	return &Client{
		baseURL: BaseURL(llm),
		client:  &http.Client{Timeout: 30 * time.Second},
		slow:    &http.Client{},
	}
}

// Status checks whether the server is reachable.
func (c *Client) Status(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama unreachable: %s", resp.Status)
	}
	return nil
}

// Models returns the available models merged with load state from /api/ps.
// Each entry carries the tag fields flattened with details, plus "loaded" and,
// when loaded, "vram_usage"/"expires_at".
func (c *Client) Models(ctx context.Context) ([]map[string]any, error) {
	var tags struct {
		Models []map[string]any `json:"models"`
	}
	if err := c.getJSON(ctx, "/api/tags", &tags); err != nil {
		return nil, fmt.Errorf("ollama not running: %w", err)
	}

	// Load state is best-effort; older servers have no /api/ps.
	loaded := map[string]map[string]any{}
	var ps struct {
		Models []map[string]any `json:"models"`
	}
	if err := c.getJSON(ctx, "/api/ps", &ps); err == nil {
		for _, m := range ps.Models {
			if name, ok := m["name"].(string); ok {
				loaded[name] = m
			}
		}
	}

	result := make([]map[string]any, 0, len(tags.Models))
	for _, m := range tags.Models {
		if details, ok := m["details"].(map[string]any); ok {
			for k, v := range details {
				m[k] = v
			}
		}
		name, _ := m["name"].(string)
		info, isLoaded := loaded[name]
		m["loaded"] = isLoaded
		if isLoaded {
			if vram, ok := info["size_vram"].(float64); ok {
				m["vram_bytes"] = vram
				m["vram_usage"] = fmt.Sprintf("%d MB", int64(vram)/(1024*1024))
			}
			if expires, ok := info["expires_at"]; ok {
				m["expires_at"] = expires
			}
		}
		result = append(result, m)
	}
	return result, nil
}

// Generate runs a non-streaming completion and returns the response text.
func (c *Client) Generate(ctx context.Context, model, prompt string, contextTokens []int) (string, error) {
	payload := map[string]any{
		"model":  model,
		"prompt": prompt,
		"stream": false,
	}
	if len(contextTokens) > 0 {
		payload["context"] = contextTokens
	}
	var out map[string]any
	if err := c.postJSON(ctx, c.client, "/api/generate", payload, &out); err != nil {
		return "", err
	}
	text, ok := out["response"].(string)
	if !ok {
		return "", fmt.Errorf("no response text in output")
	}
	return text, nil
}

// Chat runs a non-streaming chat call and returns the raw server document.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (map[string]any, error) {
	req.Stream = false
	var out map[string]any
	if err := c.postJSON(ctx, c.client, "/api/chat", req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Pull downloads a model. No client timeout; pulls are bounded by the caller's context.
func (c *Client) Pull(ctx context.Context, model string, insecure bool) (map[string]any, error) {
	payload := map[string]any{"model": model, "insecure": insecure, "stream": false}
	var out map[string]any
	if err := c.postJSON(ctx, c.slow, "/api/pull", payload, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes a model from the server.
func (c *Client) Delete(ctx context.Context, model string) (map[string]any, error) {
	var out map[string]any
	if err := c.postJSON(ctx, c.client, "/api/delete", map[string]any{"name": model}, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Unload asks the server to evict a loaded model by generating with keep_alive 0.
func (c *Client) Unload(ctx context.Context, model string) error {
	payload := map[string]any{
		"model":      model,
		"prompt":     "",
		"stream":     false,
		"keep_alive": 0,
	}
	var out map[string]any
	return c.postJSON(ctx, c.client, "/api/generate", payload, &out)
}

// ChatStream streams a chat completion through the framed-stream bridge,
// emitting each token chunk to the sink on the chat topic. The stream ends on
// the server's in-band done flag; timeout 0 means no independent deadline.
// The returned response message holds the final chunk's content.
func (c *Client) ChatStream(ctx context.Context, req ChatRequest, sink events.Sink, timeout time.Duration) (*protocol.Response, error) {
	req.Stream = true
	stream := httpstream.New(c.slow, c.baseURL+"/api/chat")
	resp, err := bridge.Call(ctx, stream, req, bridge.Options{
		Timeout:       timeout,
		Classify:      protocol.ClassifyChat,
		Sink:          sink,
		ProgressTopic: events.TopicChatStream,
	})
	if err != nil {
		sink.Emit(events.TopicChatStreamError, err.Error())
		return nil, err
	}
	return resp, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned %s", path, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *Client) postJSON(ctx context.Context, client *http.Client, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned %s", path, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
