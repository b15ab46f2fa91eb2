// Package errors defines typed errors with categories for user-friendly reporting.
// It provides a structured approach to error handling with machine-readable error kinds
// and human-friendly messages. This enables better error categorization, logging,
// and user experience by providing context-aware error information.
//
// The package supports wrapping underlying errors while maintaining error kind information,
// making it easier to handle different types of failures appropriately.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind is a machine-readable error category.
type Kind string

const (
	// LaunchFailed indicates the worker executable or remote endpoint could not be started.
	LaunchFailed Kind = "launch_failed"
	// WriteFailed indicates the request could not be serialized or delivered to the worker.
	WriteFailed Kind = "write_failed"
	// Timeout indicates the overall deadline expired before a terminal response arrived.
	Timeout Kind = "timeout"
	// NoResponse indicates the worker's output ended without a parseable terminal response.
	NoResponse Kind = "no_response"
	// MalformedResponse indicates a terminal-shaped message failed secondary validation.
	MalformedResponse Kind = "malformed_response"
)

// E wraps an error with kind and human-friendly message.
type E struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *E) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e *E) Unwrap() error { return e.Err }

func Wrap(kind Kind, msg string, err error) *E { return &E{Kind: kind, Message: msg, Err: err} }
func New(kind Kind, msg string) *E             { return &E{Kind: kind, Message: msg} }

// KindOf returns the kind of err when it wraps an *E, or "" otherwise.
func KindOf(err error) Kind {
	var e *E
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return ""
}
