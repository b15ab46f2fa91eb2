// Copyright (c) 2025 LedgerLens
// Licensed under the MIT License. See LICENSE file in the project root for details.

package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ledgerlens/cli/internal/events"
	"ledgerlens/cli/internal/protocol"
	"ledgerlens/cli/internal/settings"
)

// testClient points a client at an httptest server.
func testClient(srv *httptest.Server) *Client {
	return &Client{baseURL: srv.URL, client: srv.Client(), slow: srv.Client()}
}

func TestBaseURL(t *testing.T) {
	tests := []struct {
		host string
		port int
		want string
	}{
		{"localhost", 11434, "http://127.0.0.1:11434"},
		{"", 11434, "http://127.0.0.1:11434"},
		{"LOCALHOST", 8080, "http://127.0.0.1:8080"},
		{"gpu-box.lan", 11434, "http://gpu-box.lan:11434"},
	}
	for _, tt := range tests {
		got := BaseURL(settings.LLMSettings{OllamaHost: tt.host, OllamaPort: tt.port})
		if got != tt.want {
			t.Errorf("BaseURL(%q, %d) = %q, want %q", tt.host, tt.port, got, tt.want)
		}
	}
}

func TestModelsMergesLoadState(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/tags":
			fmt.Fprint(w, `{"models":[
				{"name":"llama3.2","size":2019393189,"details":{"family":"llama"}},
				{"name":"qwen2.5","size":4431400000,"details":{"family":"qwen"}}]}`)
		case "/api/ps":
			fmt.Fprint(w, `{"models":[{"name":"llama3.2","size_vram":3221225472,"expires_at":"2026-08-30T12:00:00Z"}]}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	models, err := testClient(srv).Models(context.Background())
	if err != nil {
		t.Fatalf("Models() error = %v", err)
	}
	if len(models) != 2 {
		t.Fatalf("got %d models, want 2", len(models))
	}

	byName := map[string]map[string]any{}
	for _, m := range models {
		byName[m["name"].(string)] = m
	}
	loadedModel := byName["llama3.2"]
	if loaded, _ := loadedModel["loaded"].(bool); !loaded {
		t.Error("llama3.2 should be marked loaded")
	}
	if vram, _ := loadedModel["vram_usage"].(string); vram != "3072 MB" {
		t.Errorf("vram_usage = %q, want 3072 MB", vram)
	}
	if family, _ := loadedModel["family"].(string); family != "llama" {
		t.Errorf("details must be flattened, family = %q", family)
	}
	if loaded, _ := byName["qwen2.5"]["loaded"].(bool); loaded {
		t.Error("qwen2.5 should not be marked loaded")
	}
}

func TestModelsWithoutPSEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tags" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `{"models":[{"name":"llama3.2"}]}`)
	}))
	defer srv.Close()

	models, err := testClient(srv).Models(context.Background())
	if err != nil {
		t.Fatalf("Models() error = %v", err)
	}
	if loaded, _ := models[0]["loaded"].(bool); loaded {
		t.Error("load state must default to false when /api/ps is unavailable")
	}
}

func TestUnloadSendsZeroKeepAlive(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			http.NotFound(w, r)
			return
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		fmt.Fprint(w, `{"done":true}`)
	}))
	defer srv.Close()

	if err := testClient(srv).Unload(context.Background(), "llama3.2"); err != nil {
		t.Fatalf("Unload() error = %v", err)
	}
	if ka, ok := got["keep_alive"].(float64); !ok || ka != 0 {
		t.Errorf("keep_alive = %v, want 0", got["keep_alive"])
	}
	if got["model"] != "llama3.2" {
		t.Errorf("model = %v, want llama3.2", got["model"])
	}
}

func TestGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"response":"net income rose 12%","done":true}`)
	}))
	defer srv.Close()

	text, err := testClient(srv).Generate(context.Background(), "llama3.2", "summarize", nil)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if text != "net income rose 12%" {
		t.Errorf("text = %q", text)
	}
}

func TestChatStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		if !req.Stream {
			t.Error("streaming chat must set stream=true")
		}
		fl := w.(http.Flusher)
		for _, c := range []string{"Q2", " looks", " strong"} {
			fmt.Fprintf(w, `{"message":{"content":"%s"},"done":false}`+"\n", c)
			fl.Flush()
		}
		fmt.Fprint(w, `{"message":{"content":""},"done":true}`+"\n")
	}))
	defer srv.Close()

	var tokens strings.Builder
	var errs []string
	sink := events.SinkFunc(func(topic string, payload any) {
		switch topic {
		case events.TopicChatStream:
			if p, ok := payload.(*protocol.ProgressUpdate); ok {
				tokens.WriteString(p.Message)
			}
		case events.TopicChatStreamError:
			errs = append(errs, fmt.Sprint(payload))
		}
	})

	resp, err := testClient(srv).ChatStream(context.Background(), ChatRequest{Model: "llama3.2"}, sink, 0)
	if err != nil {
		t.Fatalf("ChatStream() error = %v", err)
	}
	if resp == nil || resp.Status != protocol.StatusSuccess {
		t.Fatalf("resp = %+v, want terminal success", resp)
	}
	if tokens.String() != "Q2 looks strong" {
		t.Errorf("streamed tokens = %q, want %q", tokens.String(), "Q2 looks strong")
	}
	if len(errs) != 0 {
		t.Errorf("unexpected error events: %v", errs)
	}
}

func TestChatStreamEmitsErrorEvent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	var errorTopics int
	sink := events.SinkFunc(func(topic string, payload any) {
		if topic == events.TopicChatStreamError {
			errorTopics++
		}
	})

	_, err := testClient(srv).ChatStream(context.Background(), ChatRequest{Model: "x"}, sink, 0)
	if err == nil {
		t.Fatal("expected an error")
	}
	if errorTopics != 1 {
		t.Errorf("error events = %d, want exactly 1", errorTopics)
	}
}

func TestNewChatRequest(t *testing.T) {
	llm := settings.Defaults().LLM
	req := NewChatRequest(llm, "llama3.2", "what changed year over year?")
	if len(req.Messages) != 2 {
		t.Fatalf("got %d messages, want system + user", len(req.Messages))
	}
	if req.Messages[0].Role != "system" {
		t.Errorf("first message role = %q, want system", req.Messages[0].Role)
	}
	if req.Messages[1].Content != "what changed year over year?" {
		t.Errorf("user content = %q", req.Messages[1].Content)
	}
	if req.Options["num_ctx"] != llm.ContextWindow {
		t.Errorf("num_ctx = %v, want %d", req.Options["num_ctx"], llm.ContextWindow)
	}
	if _, ok := req.Options["seed"]; ok {
		t.Error("seed must be omitted when unset")
	}
}
