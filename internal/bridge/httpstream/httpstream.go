// Copyright (c) 2025 LedgerLens
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package httpstream provides the HTTP transport for the bridge. The framed
// request becomes the body of a POST and the chunked response body is the
// worker's output channel, read line by line like a process pipe. This lets the
// chat-streaming path share the exact supervision logic of the
// document-analysis path.
package httpstream

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"

	"ledgerlens/cli/internal/bridge"
)

// Stream is one streaming HTTP exchange with a remote worker.
type Stream struct {
	client *http.Client
	url    string

	ctx    context.Context
	cancel context.CancelFunc

	ready chan struct{} // closed once the response (or send error) is in

	mu      sync.Mutex
	resp    *http.Response
	sendErr error
	eof     bool
	closed  bool
}

// Compile-time interface verification.
var _ bridge.Transport = (*Stream)(nil)

// New creates a stream for the given endpoint. A nil client uses
// http.DefaultClient; streaming calls must not set a client timeout, the
// bridge deadline bounds the call instead.
func New(client *http.Client, url string) *Stream {
	if client == nil {
		client = http.DefaultClient
	}
	return &Stream{client: client, url: url}
}

// Start prepares the exchange. The POST itself fires when the input channel is
// closed, so the request flows through the same framed writer as a process
// worker's stdin.
func (s *Stream) Start(ctx context.Context) error {
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.ready = make(chan struct{})
	return nil
}

// Input returns the request body writer. Close sends the buffered request.
func (s *Stream) Input() io.WriteCloser {
	return &requestWriter{s: s}
}

// Output returns a reader over the chunked response body. Reads block until
// the response headers have arrived.
func (s *Stream) Output() io.Reader {
	return &responseReader{s: s}
}

// Diagnostics is nil for HTTP workers; the transport has no side channel.
func (s *Stream) Diagnostics() io.Reader { return nil }

// Exited reports whether the exchange is over: the body hit EOF, the send
// failed, or the stream was killed.
func (s *Stream) Exited() bool {
	select {
	case <-s.ready:
	default:
		return false // request not sent yet
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed || s.eof || s.sendErr != nil
}

// Kill cancels the exchange and closes the response body.
func (s *Stream) Kill() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.cancel != nil {
		s.cancel()
	}
	if s.resp != nil {
		return s.resp.Body.Close()
	}
	return nil
}

// requestWriter buffers the framed request and performs the POST on Close.
type requestWriter struct {
	s      *Stream
	buf    bytes.Buffer
	closed bool
}

func (w *requestWriter) Write(p []byte) (int, error) {
	if w.closed {
		return 0, io.ErrClosedPipe
	}
	return w.buf.Write(p)
}

func (w *requestWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	s := w.s
	defer close(s.ready)

	req, err := http.NewRequestWithContext(s.ctx, http.MethodPost, s.url, bytes.NewReader(w.buf.Bytes()))
	if err != nil {
		s.setSendErr(err)
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		s.setSendErr(err)
		return err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		err := fmt.Errorf("server returned %s", resp.Status)
		s.setSendErr(err)
		return err
	}

	s.mu.Lock()
	s.resp = resp
	s.mu.Unlock()
	return nil
}

func (s *Stream) setSendErr(err error) {
	s.mu.Lock()
	s.sendErr = err
	s.mu.Unlock()
}

// responseReader defers reads until the response is available.
type responseReader struct {
	s *Stream
}

func (r *responseReader) Read(p []byte) (int, error) {
	s := r.s
	select {
	case <-s.ready:
	case <-s.ctx.Done():
		return 0, s.ctx.Err()
	}

	s.mu.Lock()
	if s.sendErr != nil {
		err := s.sendErr
		s.mu.Unlock()
		return 0, err
	}
	if s.closed {
		s.mu.Unlock()
		return 0, io.EOF
	}
	body := s.resp.Body
	s.mu.Unlock()

	n, err := body.Read(p)
	if err == io.EOF {
		s.mu.Lock()
		s.eof = true
		s.mu.Unlock()
	}
	return n, err
}
