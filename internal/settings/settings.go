// Copyright (c) 2025 LedgerLens
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package settings loads and stores application settings in the XDG config dir.
// The store is guarded by a mutex held only for the duration of a read or
// write, never across a blocking call; callers take a Snapshot at the start of
// an operation and work with the copied value. Only non-secret settings live
// here; the database DSN goes to the OS keychain.
package settings

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"ledgerlens/cli/internal/xdg"
)

// LLMSettings holds the local inference server connection and generation knobs.
type LLMSettings struct {
	OllamaHost    string  `json:"ollama_host"`
	OllamaPort    int     `json:"ollama_port"`
	SelectedModel string  `json:"selected_model"`
	ContextWindow int     `json:"context_window"`
	Temperature   float32 `json:"temperature"`
	TopP          float32 `json:"top_p"`
	TopK          int     `json:"top_k"`
	SystemPrompt  string  `json:"system_prompt"`
	KeepAlive     string  `json:"keep_alive"`
	Seed          *int    `json:"seed,omitempty"`
	NumPredict    *int    `json:"num_predict,omitempty"`
	RepeatPenalty float32 `json:"repeat_penalty"`
	Format        string  `json:"format,omitempty"`
}

// AppSettings holds all non-sensitive application settings.
type AppSettings struct {
	LLM             LLMSettings `json:"llm"`
	AutoStartOllama bool        `json:"auto_start_ollama"`
	Theme           string      `json:"theme"`
	Language        string      `json:"language"`
}

// Defaults returns the settings used when no file exists yet.
func Defaults() AppSettings {
	return AppSettings{
		LLM: LLMSettings{
			OllamaHost:    "localhost",
			OllamaPort:    11434,
			SelectedModel: "llama3.2",
			ContextWindow: 4096,
			Temperature:   0.7,
			TopP:          0.9,
			TopK:          40,
			SystemPrompt:  "You are a helpful assistant.",
			KeepAlive:     "5m",
			RepeatPenalty: 1.1,
		},
		AutoStartOllama: true,
		Theme:           "system",
		Language:        "en",
	}
}

// Store is the mutex-guarded settings holder backing every command.
type Store struct {
	mu       sync.Mutex
	path     string
	settings AppSettings
}

// Open loads the settings file from the XDG config dir, falling back to
// defaults when it is missing or unreadable as JSON.
func Open() (*Store, error) {
	dir, err := xdg.ConfigDir()
	if err != nil {
		return nil, err
	}
	return openAt(filepath.Join(dir, "settings.json"))
}

func openAt(path string) (*Store, error) {
	s := &Store{path: path, settings: Defaults()}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(data, &s.settings); err != nil {
		// Corrupt file: keep defaults rather than failing startup.
		s.settings = Defaults()
	}
	return s, nil
}

// Snapshot returns a copy of the current settings. The lock is released before
// the caller does anything blocking with the value.
func (s *Store) Snapshot() AppSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

// UpdateLLM replaces the LLM section and persists the file.
func (s *Store) UpdateLLM(llm LLMSettings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings.LLM = llm
	return s.save()
}

// Set updates one top-level setting by key and persists the file.
func (s *Store) Set(key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch key {
	case "auto_start_ollama":
		b, ok := value.(bool)
		if !ok {
			return errors.New("auto_start_ollama expects true or false")
		}
		s.settings.AutoStartOllama = b
	case "theme":
		str, ok := value.(string)
		if !ok {
			return errors.New("theme expects a string")
		}
		s.settings.Theme = str
	case "language":
		str, ok := value.(string)
		if !ok {
			return errors.New("language expects a string")
		}
		s.settings.Language = str
	default:
		return errors.New("unknown setting: " + key)
	}
	return s.save()
}

// save writes the settings with 0600 permissions. Caller holds the lock.
func (s *Store) save() error {
	b, err := json.MarshalIndent(s.settings, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, b, 0o600)
}
