// Copyright (c) 2025 LedgerLens
// Licensed under the MIT License. See LICENSE file in the project root for details.

package bridge

import (
	"encoding/json"
	"io"

	apperrors "ledgerlens/cli/internal/errors"
)

// writeRequest serializes the request to a single JSON line, writes it to the
// worker's input channel and closes the channel. The close is unconditional:
// workers block waiting for end-of-input, and a worker that never sees it
// would hang until the deadline fires.
//
// A serialization failure is the caller's fault and reported as write_failed.
// An I/O failure on the channel means the worker is unusable and is reported
// as launch_failed. Cleanup still runs in both cases.
func writeRequest(w io.WriteCloser, req any) error {
	if w == nil {
		return apperrors.New(apperrors.LaunchFailed, "worker has no input channel")
	}

	payload, err := json.Marshal(req)
	if err != nil {
		_ = w.Close()
		return apperrors.Wrap(apperrors.WriteFailed, "failed to serialize request", err)
	}

	_, werr := w.Write(append(payload, '\n'))
	cerr := w.Close()
	if werr != nil {
		return apperrors.Wrap(apperrors.LaunchFailed, "failed to write request to worker", werr)
	}
	if cerr != nil {
		return apperrors.Wrap(apperrors.LaunchFailed, "failed to close worker input", cerr)
	}
	return nil
}
