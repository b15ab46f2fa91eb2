// Copyright (c) 2025 LedgerLens
// Licensed under the MIT License. See LICENSE file in the project root for details.

package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	base := stderrors.New("pipe closed")
	wrapped := Wrap(WriteFailed, "request delivery failed", base)

	if kind := KindOf(wrapped); kind != WriteFailed {
		t.Errorf("KindOf = %v, want write_failed", kind)
	}
	if !stderrors.Is(wrapped, base) {
		t.Error("wrapped error must unwrap to its cause")
	}

	// Kinds survive further wrapping by callers.
	outer := fmt.Errorf("analyze: %w", wrapped)
	if kind := KindOf(outer); kind != WriteFailed {
		t.Errorf("KindOf(wrapped again) = %v, want write_failed", kind)
	}

	if kind := KindOf(stderrors.New("plain")); kind != "" {
		t.Errorf("KindOf(plain error) = %v, want empty", kind)
	}
	if kind := KindOf(nil); kind != "" {
		t.Errorf("KindOf(nil) = %v, want empty", kind)
	}
}

func TestErrorMessage(t *testing.T) {
	e := New(Timeout, "worker timed out after 900s")
	if got := e.Error(); got != "timeout: worker timed out after 900s" {
		t.Errorf("Error() = %q", got)
	}

	wrapped := Wrap(LaunchFailed, "failed to start worker", stderrors.New("exec: not found"))
	if got := wrapped.Error(); got != "launch_failed: failed to start worker: exec: not found" {
		t.Errorf("Error() = %q", got)
	}
}
