// Copyright (c) 2025 LedgerLens
// Licensed under the MIT License. See LICENSE file in the project root for details.

package settings

import (
	"os"
	"path/filepath"
	"testing"
)

func TestOpenMissingFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	s, err := openAt(path)
	if err != nil {
		t.Fatalf("openAt() error = %v", err)
	}
	snap := s.Snapshot()
	if snap.LLM.OllamaPort != 11434 {
		t.Errorf("OllamaPort = %d, want default 11434", snap.LLM.OllamaPort)
	}
	if !snap.AutoStartOllama {
		t.Error("AutoStartOllama should default to true")
	}
}

func TestOpenCorruptFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}
	s, err := openAt(path)
	if err != nil {
		t.Fatalf("openAt() error = %v", err)
	}
	if s.Snapshot().LLM.SelectedModel != Defaults().LLM.SelectedModel {
		t.Error("corrupt file must fall back to defaults")
	}
}

func TestUpdateLLMPersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	s, err := openAt(path)
	if err != nil {
		t.Fatal(err)
	}

	llm := s.Snapshot().LLM
	llm.SelectedModel = "qwen2.5"
	llm.Temperature = 0.2
	if err := s.UpdateLLM(llm); err != nil {
		t.Fatalf("UpdateLLM() error = %v", err)
	}

	reopened, err := openAt(path)
	if err != nil {
		t.Fatal(err)
	}
	got := reopened.Snapshot().LLM
	if got.SelectedModel != "qwen2.5" || got.Temperature != 0.2 {
		t.Errorf("reopened LLM = %+v, changes were not persisted", got)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("settings file mode = %o, want 600", perm)
	}
}

func TestSet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	s, err := openAt(path)
	if err != nil {
		t.Fatal(err)
	}

	if err := s.Set("theme", "dark"); err != nil {
		t.Fatalf("Set(theme) error = %v", err)
	}
	if err := s.Set("auto_start_ollama", false); err != nil {
		t.Fatalf("Set(auto_start_ollama) error = %v", err)
	}
	if err := s.Set("nonsense", "x"); err == nil {
		t.Error("Set with an unknown key must fail")
	}
	if err := s.Set("auto_start_ollama", "yes"); err == nil {
		t.Error("Set(auto_start_ollama) must reject non-bool values")
	}

	snap := s.Snapshot()
	if snap.Theme != "dark" || snap.AutoStartOllama {
		t.Errorf("snapshot = %+v, updates not applied", snap)
	}
}
