// Copyright (c) 2025 LedgerLens
// Licensed under the MIT License. See LICENSE file in the project root for details.

package bridge

import (
	"bufio"
	"time"
)

// reap runs after a terminal response was obtained or the output channel was
// exhausted. It drains a bounded number of diagnostic lines for logging, gives
// the worker the cleanup window to exit voluntarily, then kills it and makes
// one final exit check. The call never returns with the worker knowingly still
// running beyond the cleanup window.
func reap(t Transport, opts Options, gotResponse bool) {
	if gotResponse {
		opts.Logf("bridge: terminal response received, cleaning up worker")
	}

	// Drain in the background: a live worker that stays silent on its
	// diagnostic channel would otherwise stall cleanup. The goroutine ends
	// when the line budget is spent or the pipe closes on process death.
	drained := make(chan struct{})
	if d := t.Diagnostics(); d != nil {
		go func() {
			defer close(drained)
			sc := bufio.NewScanner(d)
			for i := 0; i < opts.DrainLines && sc.Scan(); i++ {
				opts.Logf("worker stderr: %s", sc.Text())
			}
		}()
	} else {
		close(drained)
	}

	deadline := time.Now().Add(opts.CleanupWindow)
	for time.Now().Before(deadline) {
		if t.Exited() {
			<-drained
			return
		}
		time.Sleep(opts.PollInterval)
	}

	opts.Logf("bridge: worker still running after cleanup window, killing it")
	_ = t.Kill()

	// One final check; Kill is best-effort on some platforms.
	time.Sleep(opts.PollInterval)
	if !t.Exited() {
		opts.Logf("bridge: worker did not confirm exit after kill")
	}
}
