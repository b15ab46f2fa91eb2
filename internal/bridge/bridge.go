// Copyright (c) 2025 LedgerLens
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package bridge implements the framed-stream bridge between the CLI and
// out-of-process analysis workers. A bridge call starts one unit of external
// work, feeds it a single newline-terminated JSON request, consumes
// line-delimited JSON from its output channel, forwards progress updates to a
// UI sink without blocking completion, and enforces an overall deadline plus a
// bounded post-completion cleanup window. The worker is never left running
// after the call returns, on any outcome.
//
// The bridge is transport-agnostic: the same supervision logic drives a spawned
// interpreter process (procworker) and a chunked HTTP response stream
// (httpstream). Message shapes and deadline policy are parameters, so the
// document-analysis path and the chat-streaming path share one implementation.
package bridge

import (
	"bufio"
	"context"
	"fmt"
	"time"

	apperrors "ledgerlens/cli/internal/errors"
	"ledgerlens/cli/internal/events"
	"ledgerlens/cli/internal/protocol"
)

// Defaults for the supervision bounds. All of them are per-call configuration
// so tests can scale time down.
const (
	DefaultCleanupWindow = 5 * time.Second
	DefaultPollInterval  = 50 * time.Millisecond
	DefaultDrainLines    = 10
)

// Options configures one bridge call.
type Options struct {
	// Timeout is the overall deadline for the call. Zero means no deadline;
	// the call then ends only when the worker produces a terminal response or
	// closes its output channel.
	Timeout time.Duration

	// CleanupWindow bounds how long a worker may linger after a terminal
	// response (or end of output) before it is forcibly killed.
	CleanupWindow time.Duration

	// PollInterval is the sleep between worker-exit checks during cleanup.
	PollInterval time.Duration

	// DrainLines caps how many diagnostic lines are read for logging during
	// cleanup. Diagnostics never affect the returned result.
	DrainLines int

	// Classify maps one raw output line to a protocol message. Defaults to
	// protocol.Classify (the document-analysis shapes).
	Classify protocol.Classifier

	// Sink receives progress events. Sink failures are swallowed; they never
	// surface to the caller or abort the read loop.
	Sink events.Sink

	// ProgressTopic is the topic progress events are emitted under.
	ProgressTopic string

	// TimeoutHint is appended to the timeout failure message to help the user
	// (e.g. "the document may be very large").
	TimeoutHint string

	// Logf receives operator-level diagnostics (worker stderr, lifecycle
	// notes). Optional.
	Logf func(format string, args ...any)
}

func (o Options) withDefaults() Options {
	if o.CleanupWindow <= 0 {
		o.CleanupWindow = DefaultCleanupWindow
	}
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.DrainLines <= 0 {
		o.DrainLines = DefaultDrainLines
	}
	if o.Classify == nil {
		o.Classify = protocol.Classify
	}
	if o.Sink == nil {
		o.Sink = events.Discard
	}
	if o.ProgressTopic == "" {
		o.ProgressTopic = events.TopicPDFProgress
	}
	if o.Logf == nil {
		o.Logf = func(string, ...any) {}
	}
	return o
}

// Call runs one request/response cycle against a worker transport and returns
// exactly one outcome: the terminal response, or a typed failure
// (launch_failed, write_failed, timeout, no_response, malformed_response).
//
// The transport is exclusively owned by this call. Cleanup is unconditional:
// every path, including failures, reaps the worker before returning.
func Call(ctx context.Context, t Transport, req any, opts Options) (*protocol.Response, error) {
	opts = opts.withDefaults()
	start := time.Now()

	if err := t.Start(ctx); err != nil {
		return nil, apperrors.Wrap(apperrors.LaunchFailed, "failed to start worker", err)
	}

	writeErr := writeRequest(t.Input(), req)
	if writeErr != nil {
		opts.Logf("bridge: request delivery failed: %v", writeErr)
	}

	final, malformed, timedOut, canceled := readLoop(ctx, t, opts)

	reap(t, opts, final != nil)

	elapsed := time.Since(start)
	switch {
	case writeErr != nil:
		return nil, writeErr
	case timedOut:
		msg := fmt.Sprintf("worker timed out after %s", elapsed.Round(time.Second))
		if opts.TimeoutHint != "" {
			msg += ". " + opts.TimeoutHint
		}
		return nil, apperrors.New(apperrors.Timeout, msg)
	case canceled:
		return nil, apperrors.New(apperrors.Timeout, "call canceled before the worker responded")
	case malformed:
		return nil, apperrors.New(apperrors.MalformedResponse, "worker returned a response without a status")
	case final != nil:
		return final, nil
	default:
		return nil, apperrors.New(apperrors.NoResponse, "no response from worker; it may have crashed or produced only noise")
	}
}

// readLoop consumes classified lines until a terminal response, deadline
// expiry, context cancellation, or end of output. Progress events are forwarded
// in emission order. On deadline expiry the worker is killed immediately so it
// cannot produce a winning response afterwards.
func readLoop(ctx context.Context, t Transport, opts Options) (final *protocol.Response, malformed, timedOut, canceled bool) {
	stop := make(chan struct{})
	defer close(stop)

	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(t.Output())
		sc.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-stop:
				return
			}
		}
	}()

	var deadline <-chan time.Time
	if opts.Timeout > 0 {
		timer := time.NewTimer(opts.Timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	for {
		select {
		case <-deadline:
			_ = t.Kill()
			return nil, false, true, false
		case <-ctx.Done():
			_ = t.Kill()
			return nil, false, false, true
		case line, ok := <-lines:
			if !ok {
				return final, malformed, false, false
			}
			msg := opts.Classify(line)
			switch msg.Class {
			case protocol.ClassProgress:
				forward(opts.Sink, opts.ProgressTopic, msg.Progress)
			case protocol.ClassTerminal:
				return msg.Terminal, false, false, false
			case protocol.ClassMalformed:
				return nil, true, false, false
			case protocol.ClassNoise:
				// stray worker output, skip
			}
		}
	}
}

// forward pushes one progress event to the sink, fire-and-forget. A panicking
// sink is swallowed so reading continues.
func forward(sink events.Sink, topic string, p *protocol.ProgressUpdate) {
	defer func() { _ = recover() }()
	sink.Emit(topic, p)
}
