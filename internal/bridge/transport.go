// Copyright (c) 2025 LedgerLens
// Licensed under the MIT License. See LICENSE file in the project root for details.

package bridge

import (
	"context"
	"io"
)

// Transport is one unit of external work: a spawned interpreter process or a
// streaming HTTP exchange. A transport is exclusively owned by a single bridge
// call; it is never shared or pooled, and it is destroyed before the call
// returns on every exit path.
type Transport interface {
	// Start creates the worker. Failure here is fatal for the call and is
	// reported as a launch failure; nothing is retried.
	Start(ctx context.Context) error

	// Input is the worker's input channel. The bridge writes exactly one
	// framed request and then closes it; the close is the only end-of-input
	// signal the worker receives.
	Input() io.WriteCloser

	// Output is the worker's output channel, read as UTF-8 text split into
	// lines. It is valid only after Start (and, for transports that deliver
	// the request in-band, after Input has been closed).
	Output() io.Reader

	// Diagnostics is the worker's diagnostic channel, read best-effort and
	// only for logging. May return nil.
	Diagnostics() io.Reader

	// Exited reports whether the worker is no longer running. It must not
	// block; the reaper polls it.
	Exited() bool

	// Kill forcibly terminates the worker and releases its resources. It must
	// be safe to call more than once and after exit.
	Kill() error
}
