// Copyright (c) 2025 LedgerLens
// Licensed under the MIT License. See LICENSE file in the project root for details.

package protocol

import (
	"encoding/json"
	"testing"
)

// The worker switches on the exact command string, so the constants and the
// request field names are part of the wire contract.
func TestRequestWireFormat(t *testing.T) {
	tests := []struct {
		name string
		req  Request
		want string
	}{
		{
			"parse by path",
			Request{Command: CommandParse, FilePath: "/tmp/q2.pdf"},
			`{"command":"parse","file_path":"/tmp/q2.pdf"}`,
		},
		{
			"parse inline content",
			Request{Command: CommandParse, Content: "Revenue 100", FileName: "q2.txt"},
			`{"command":"parse","content":"Revenue 100","file_name":"q2.txt"}`,
		},
		{
			"calculate metrics",
			Request{Command: CommandCalculateMetrics, Items: `[{"label":"Revenue"}]`},
			`{"command":"calculate_metrics","items_json":"[{\"label\":\"Revenue\"}]"}`,
		},
		{
			"update mapping",
			Request{Command: CommandUpdateMapping, Mappings: json.RawMessage(`[{"term":"Umsatz","canonical":"revenue"}]`)},
			`{"command":"update_mapping","mappings":[{"term":"Umsatz","canonical":"revenue"}]}`,
		},
		{
			"get db data",
			Request{Command: CommandGetDBData},
			`{"command":"get_db_data"}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := json.Marshal(tt.req)
			if err != nil {
				t.Fatalf("Marshal: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("Marshal = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		line string
		want Class
	}{
		{"empty line", "", ClassNoise},
		{"whitespace only", "   \t ", ClassNoise},
		{"interpreter banner", "Python 3.11.4 (main)", ClassNoise},
		{"non json braceless", "loading model weights", ClassNoise},
		{"json without status", `{"level":"debug","msg":"chatter"}`, ClassNoise},
		{"broken json", `{"status": "succ`, ClassNoise},
		{"progress", `{"status":"progress","currentPage":3,"totalPages":10,"percentage":30}`, ClassProgress},
		{"success terminal", `{"status":"success","extractedData":{"items":[]}}`, ClassTerminal},
		{"error terminal", `{"status":"error","error":"parse failed"}`, ClassTerminal},
		{"unknown status terminal", `{"status":"partial"}`, ClassTerminal},
		{"empty status malformed", `{"status":""}`, ClassMalformed},
		{"leading whitespace json", `   {"status":"success"}`, ClassTerminal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.line)
			if got.Class != tt.want {
				t.Errorf("Classify(%q).Class = %v, want %v", tt.line, got.Class, tt.want)
			}
			switch tt.want {
			case ClassProgress:
				if got.Progress == nil {
					t.Error("progress message must carry a ProgressUpdate")
				}
			case ClassTerminal:
				if got.Terminal == nil {
					t.Error("terminal message must carry a Response")
				}
			}
		})
	}
}

func TestClassifyProgressFields(t *testing.T) {
	got := Classify(`{"status":"progress","currentPage":7,"totalPages":20,"percentage":35,"message":"page 7 of 20","partialText":"Revenue"}`)
	if got.Class != ClassProgress {
		t.Fatalf("Class = %v, want progress", got.Class)
	}
	p := got.Progress
	if p.CurrentPage != 7 || p.TotalPages != 20 || p.Percentage != 35 {
		t.Errorf("unexpected counters: %+v", p)
	}
	if p.PartialText != "Revenue" {
		t.Errorf("PartialText = %q, want Revenue", p.PartialText)
	}
}

func TestClassifyScrape(t *testing.T) {
	tests := []struct {
		name       string
		line       string
		want       Class
		wantStatus string
	}{
		{"noise", "scraper starting", ClassNoise, ""},
		{"broken json", `{"success": tru`, ClassNoise, ""},
		{"success result", `{"success":true,"results":[{"symbol":"ACME"}]}`, ClassTerminal, StatusSuccess},
		{"failed result", `{"success":false,"error":"symbol not found"}`, ClassTerminal, "error"},
		{"no success flag", `{"results":[]}`, ClassTerminal, StatusSuccess},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClassifyScrape(tt.line)
			if got.Class != tt.want {
				t.Fatalf("Class = %v, want %v", got.Class, tt.want)
			}
			if tt.want == ClassTerminal {
				if got.Terminal.Status != tt.wantStatus {
					t.Errorf("Status = %q, want %q", got.Terminal.Status, tt.wantStatus)
				}
				if len(got.Terminal.ExtractedData) == 0 {
					t.Error("scrape terminal must carry the raw document")
				}
			}
		})
	}
}

func TestClassifyChat(t *testing.T) {
	got := ClassifyChat(`{"message":{"content":"Hel"},"done":false}`)
	if got.Class != ClassProgress {
		t.Fatalf("Class = %v, want progress", got.Class)
	}
	if got.Progress.Message != "Hel" {
		t.Errorf("Message = %q, want Hel", got.Progress.Message)
	}

	got = ClassifyChat(`{"message":{"content":""},"done":true}`)
	if got.Class != ClassTerminal {
		t.Fatalf("Class = %v, want terminal", got.Class)
	}
	if got.Terminal.Status != StatusSuccess {
		t.Errorf("Status = %q, want success", got.Terminal.Status)
	}

	if got := ClassifyChat("event: ping"); got.Class != ClassNoise {
		t.Errorf("Class = %v, want noise", got.Class)
	}
}
