//go:build unix

// Copyright (c) 2025 LedgerLens
// Licensed under the MIT License. See LICENSE file in the project root for details.

package procworker

import (
	"context"
	"testing"
	"time"

	"ledgerlens/cli/internal/bridge"
	apperrors "ledgerlens/cli/internal/errors"
	"ledgerlens/cli/internal/protocol"
)

func fastOpts() bridge.Options {
	return bridge.Options{
		CleanupWindow: 200 * time.Millisecond,
		PollInterval:  10 * time.Millisecond,
	}
}

func TestWorkerEchoResponse(t *testing.T) {
	// Reads the framed request, then answers with a terminal response.
	w := New("sh", "-c", `read line; echo '{"status":"success","message":"got it"}'`)

	resp, err := bridge.Call(context.Background(), w, protocol.Request{Command: "analyze"}, fastOpts())
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if resp.Message != "got it" {
		t.Errorf("message = %q, want got it", resp.Message)
	}
	if !w.Exited() {
		t.Error("worker must have exited after the call")
	}
}

func TestWorkerFastExitKeepsResponse(t *testing.T) {
	// A worker that prints its terminal line and exits in the same instant
	// must never lose that line to process teardown. Run it repeatedly; the
	// race window is narrow.
	for i := 0; i < 100; i++ {
		w := New("sh", "-c", `cat >/dev/null; echo '{"status":"success","message":"ok"}'`)
		resp, err := bridge.Call(context.Background(), w, protocol.Request{Command: "parse"}, fastOpts())
		if err != nil {
			t.Fatalf("run %d: Call() error = %v", i, err)
		}
		if resp.Message != "ok" {
			t.Fatalf("run %d: message = %q, want ok", i, resp.Message)
		}
	}
}

func TestWorkerMissingBinary(t *testing.T) {
	w := New("/nonexistent/worker-binary")

	_, err := bridge.Call(context.Background(), w, struct{}{}, fastOpts())
	if kind := apperrors.KindOf(err); kind != apperrors.LaunchFailed {
		t.Fatalf("kind = %v, want launch_failed (err: %v)", kind, err)
	}
}

func TestWorkerCrashBeforeResponse(t *testing.T) {
	w := New("sh", "-c", `echo "dying" >&2; exit 3`)

	_, err := bridge.Call(context.Background(), w, struct{}{}, fastOpts())
	if kind := apperrors.KindOf(err); kind != apperrors.NoResponse {
		t.Fatalf("kind = %v, want no_response (err: %v)", kind, err)
	}
}

func TestWorkerTimeoutKillsProcess(t *testing.T) {
	w := New("sh", "-c", `sleep 60`)

	opts := fastOpts()
	opts.Timeout = 50 * time.Millisecond
	start := time.Now()
	_, err := bridge.Call(context.Background(), w, struct{}{}, opts)
	if kind := apperrors.KindOf(err); kind != apperrors.Timeout {
		t.Fatalf("kind = %v, want timeout (err: %v)", kind, err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("call took %s, the process was not killed promptly", elapsed)
	}
	if !w.Exited() {
		t.Error("worker must be dead after a timeout")
	}
}

func TestWorkerIgnoresStdinStillReaped(t *testing.T) {
	// Scraper-style worker: never reads stdin, prints one document, exits.
	w := New("sh", "-c", `echo '{"success":true,"data":1}'`)

	opts := fastOpts()
	opts.Classify = protocol.ClassifyScrape
	resp, err := bridge.Call(context.Background(), w, struct{}{}, opts)
	if err != nil {
		t.Fatalf("Call() error = %v", err)
	}
	if resp.Status != protocol.StatusSuccess {
		t.Errorf("status = %q, want success", resp.Status)
	}
}
