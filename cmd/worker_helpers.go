// Copyright (c) 2025 LedgerLens
// Licensed under the MIT License. See LICENSE file in the project root for details.

package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"

	"ledgerlens/cli/internal/bridge"
	"ledgerlens/cli/internal/protocol"
	"ledgerlens/cli/internal/pyworker"
)

// verboseLogf returns a bridge log function that writes to stderr when
// LEDGERLENS_VERBOSE is set, and discards everything otherwise.
func verboseLogf() func(format string, args ...any) {
	if os.Getenv("LEDGERLENS_VERBOSE") == "" {
		return nil
	}
	return func(format string, args ...any) {
		fmt.Fprintf(os.Stderr, format+"\n", args...)
	}
}

// callAPIWorker runs one request against the analysis worker script with the
// given deadline. Each call spawns a fresh worker.
func callAPIWorker(ctx context.Context, req protocol.Request, opts bridge.Options) (*protocol.Response, error) {
	worker, err := pyworker.NewAPIWorker()
	if err != nil {
		return nil, err
	}
	if opts.Logf == nil {
		opts.Logf = verboseLogf()
	}
	return bridge.Call(ctx, worker, req, opts)
}

// printJSON renders a raw JSON document indented to stdout. Empty documents
// print nothing.
func printJSON(raw json.RawMessage) {
	if len(raw) == 0 {
		return
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		fmt.Println(string(raw))
		return
	}
	fmt.Println(buf.String())
}

// printResponse renders a terminal worker response. Error-status responses
// return a non-nil error so the command exits non-zero.
func printResponse(resp *protocol.Response) error {
	if resp.Status != protocol.StatusSuccess {
		msg := resp.Error
		if msg == "" {
			msg = resp.Message
		}
		if msg == "" {
			msg = "worker reported status " + resp.Status
		}
		return fmt.Errorf("%s", msg)
	}
	if resp.Message != "" {
		fmt.Println(resp.Message)
	}
	printJSON(resp.ExtractedData)
	printJSON(resp.Metrics)
	return nil
}
