// Copyright (c) 2025 LedgerLens
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package procworker provides the child-process transport for the bridge. The
// worker is a spawned interpreter process with its stdin, stdout and stderr
// wired as the bridge's input, output and diagnostic channels. Each Worker is
// owned by exactly one bridge call; the process is always dead by the time the
// call returns.
package procworker

import (
	"context"
	"io"
	"os"
	"os/exec"

	"ledgerlens/cli/internal/bridge"
)

// Worker runs one external command with piped standard streams.
type Worker struct {
	path string
	args []string
	env  []string

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser
	stderr io.ReadCloser

	waitCh  chan struct{}
	waitErr error
}

// Compile-time interface verification.
var _ bridge.Transport = (*Worker)(nil)

// New creates a worker for the given executable and arguments. The process is
// not started until Start.
func New(path string, args ...string) *Worker {
	return &Worker{path: path, args: args}
}

// AppendEnv adds KEY=VALUE pairs to the process environment on top of the
// parent's. Must be called before Start.
func (w *Worker) AppendEnv(kv ...string) {
	w.env = append(w.env, kv...)
}

// Start spawns the process and begins waiting for its exit in the background
// so Exited can answer without blocking.
//
// The standard streams are plain os.Pipe pairs rather than the exec-managed
// StdinPipe/StdoutPipe ones. Wait closes the managed pipes as soon as the
// process exits, and a worker that prints its result and exits immediately
// can lose that result while it still sits in the pipe buffer. With our own
// pipes Wait only reaps the process; the read side stays open until the last
// buffered byte is consumed and then reports EOF.
func (w *Worker) Start(ctx context.Context) error {
	w.cmd = exec.Command(w.path, w.args...)
	if len(w.env) > 0 {
		w.cmd.Env = append(os.Environ(), w.env...)
	}

	inR, inW, err := os.Pipe()
	if err != nil {
		return err
	}
	outR, outW, err := os.Pipe()
	if err != nil {
		inR.Close()
		inW.Close()
		return err
	}
	errR, errW, err := os.Pipe()
	if err != nil {
		inR.Close()
		inW.Close()
		outR.Close()
		outW.Close()
		return err
	}

	w.cmd.Stdin = inR
	w.cmd.Stdout = outW
	w.cmd.Stderr = errW

	if err := w.cmd.Start(); err != nil {
		inR.Close()
		inW.Close()
		outR.Close()
		outW.Close()
		errR.Close()
		errW.Close()
		return err
	}

	// The child holds its own copies now; release the parent's so EOF
	// propagates when the process exits.
	inR.Close()
	outW.Close()
	errW.Close()

	w.stdin = inW
	w.stdout = outR
	w.stderr = errR

	w.waitCh = make(chan struct{})
	go func() {
		w.waitErr = w.cmd.Wait()
		close(w.waitCh)
	}()
	return nil
}

// Input returns the process stdin. Closing it is the worker's end-of-input signal.
func (w *Worker) Input() io.WriteCloser { return w.stdin }

// Output returns the process stdout.
func (w *Worker) Output() io.Reader { return w.stdout }

// Diagnostics returns the process stderr.
func (w *Worker) Diagnostics() io.Reader { return w.stderr }

// Exited reports whether the process has terminated. It never blocks.
func (w *Worker) Exited() bool {
	if w.waitCh == nil {
		return true // never started
	}
	select {
	case <-w.waitCh:
		return true
	default:
		return false
	}
}

// Kill forcibly terminates the process and closes the read ends so a blocked
// reader unblocks. Safe to call repeatedly and after exit.
func (w *Worker) Kill() error {
	if w.cmd == nil || w.cmd.Process == nil {
		return nil
	}
	if w.Exited() {
		return nil
	}
	err := w.cmd.Process.Kill()
	if w.stdout != nil {
		w.stdout.Close()
	}
	if w.stderr != nil {
		w.stderr.Close()
	}
	return err
}

// ExitErr returns the process exit error once it has terminated, nil otherwise.
func (w *Worker) ExitErr() error {
	if w.Exited() {
		return w.waitErr
	}
	return nil
}
