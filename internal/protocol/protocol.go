// Copyright (c) 2025 LedgerLens
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package protocol defines the newline-delimited JSON wire format spoken by
// analysis workers and the classification rules applied to each line of worker
// output. Every message is a single JSON object on its own line; anything else
// on the stream (interpreter banners, library warnings, debug prints) is noise
// and is skipped without affecting the outcome of a call.
//
// Lines are classified exactly once, in order: progress update first, then
// terminal response, then noise. The first terminal response wins; callers must
// stop reading once one is classified.
package protocol

import (
	"encoding/json"
	"strings"
)

// StatusProgress is the discriminator value marking an in-band progress update.
const StatusProgress = "progress"

// StatusSuccess is the status reported by workers on a successful terminal response.
const StatusSuccess = "success"

// Worker dispatch commands. These are the exact strings the analysis worker
// switches on; anything else draws an unknown-command error response.
const (
	CommandParse            = "parse"
	CommandCalculateMetrics = "calculate_metrics"
	CommandUpdateMapping    = "update_mapping"
	CommandGetDBData        = "get_db_data"
)

// Request is the single framed document sent to a worker before any output is read.
type Request struct {
	Command  string          `json:"command"`
	FilePath string          `json:"file_path,omitempty"`
	Content  string          `json:"content,omitempty"`
	FileName string          `json:"file_name,omitempty"`
	Options  json.RawMessage `json:"options,omitempty"`
	Mappings json.RawMessage `json:"mappings,omitempty"`
	Items    string          `json:"items_json,omitempty"`
}

// Response is the terminal message that ends a call. At most one per call is honored.
type Response struct {
	Status        string          `json:"status"`
	ExtractedData json.RawMessage `json:"extractedData,omitempty"`
	Metrics       json.RawMessage `json:"metrics,omitempty"`
	Metadata      json.RawMessage `json:"metadata,omitempty"`
	Message       string          `json:"message,omitempty"`
	Error         string          `json:"error,omitempty"`
}

// ProgressUpdate is an in-band, non-terminal status message describing partial completion.
type ProgressUpdate struct {
	Status       string          `json:"status"`
	CurrentPage  int             `json:"currentPage"`
	TotalPages   int             `json:"totalPages"`
	Percentage   int             `json:"percentage"`
	Message      string          `json:"message"`
	PartialItems json.RawMessage `json:"partialItems,omitempty"`
	PartialText  string          `json:"partialText,omitempty"`
}

// Class identifies what a single output line turned out to be.
type Class int

const (
	// ClassNoise marks a line that carries no protocol meaning and is discarded.
	ClassNoise Class = iota
	// ClassProgress marks an in-band progress update to forward to the UI sink.
	ClassProgress
	// ClassTerminal marks the authoritative result message that ends the read loop.
	ClassTerminal
	// ClassMalformed marks a terminal-shaped line that failed secondary validation.
	ClassMalformed
)

// Message is one classified line of worker output. Exactly one of Progress and
// Terminal is set, matching Class.
type Message struct {
	Class    Class
	Progress *ProgressUpdate
	Terminal *Response
}

// Classifier turns one raw output line into a classified message.
type Classifier func(line string) Message

// Classify is the document-analysis classifier. A trimmed line that does not
// begin with '{' is noise. A JSON object whose status is "progress" is a
// progress update. Any other JSON object carrying a status discriminator is the
// terminal response; an empty status fails validation and classifies as
// malformed. Unrecognized JSON is noise, for forward compatibility with newer
// workers.
func Classify(line string) Message {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "{") {
		return Message{Class: ClassNoise}
	}

	// Peek at the discriminator before committing to a shape.
	var head struct {
		Status *string `json:"status"`
	}
	if err := json.Unmarshal([]byte(trimmed), &head); err != nil || head.Status == nil {
		return Message{Class: ClassNoise}
	}

	if *head.Status == StatusProgress {
		var p ProgressUpdate
		if err := json.Unmarshal([]byte(trimmed), &p); err != nil {
			return Message{Class: ClassNoise}
		}
		return Message{Class: ClassProgress, Progress: &p}
	}

	var r Response
	if err := json.Unmarshal([]byte(trimmed), &r); err != nil {
		return Message{Class: ClassNoise}
	}
	if strings.TrimSpace(r.Status) == "" {
		return Message{Class: ClassMalformed, Terminal: &r}
	}
	return Message{Class: ClassTerminal, Terminal: &r}
}

// ClassifyScrape classifies scraper one-liner output. Those workers print a
// single JSON result with a success flag instead of the status-discriminated
// protocol, so the first JSON object on the stream is the terminal response;
// everything else is noise. The raw result rides in ExtractedData.
func ClassifyScrape(line string) Message {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "{") {
		return Message{Class: ClassNoise}
	}
	var head struct {
		Success *bool  `json:"success"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal([]byte(trimmed), &head); err != nil {
		return Message{Class: ClassNoise}
	}

	r := Response{Status: StatusSuccess, ExtractedData: json.RawMessage(trimmed)}
	if head.Success != nil && !*head.Success {
		r.Status = "error"
		r.Error = head.Error
	}
	return Message{Class: ClassTerminal, Terminal: &r}
}

// ChatChunk is one streamed fragment of an Ollama chat completion.
type ChatChunk struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	Done bool `json:"done"`
}

// ClassifyChat classifies Ollama chat-stream lines through the same bridge
// machinery: chunks with done=false are progress, the done=true chunk is the
// terminal response. The chunk content travels in the progress message / the
// terminal metadata so sinks and callers see the same payload the server sent.
func ClassifyChat(line string) Message {
	trimmed := strings.TrimSpace(line)
	if !strings.HasPrefix(trimmed, "{") {
		return Message{Class: ClassNoise}
	}
	var c ChatChunk
	if err := json.Unmarshal([]byte(trimmed), &c); err != nil {
		return Message{Class: ClassNoise}
	}
	if !c.Done {
		return Message{Class: ClassProgress, Progress: &ProgressUpdate{
			Status:  StatusProgress,
			Message: c.Message.Content,
		}}
	}
	return Message{Class: ClassTerminal, Terminal: &Response{
		Status:  StatusSuccess,
		Message: c.Message.Content,
	}}
}
