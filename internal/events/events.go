// Copyright (c) 2025 LedgerLens
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package events defines the UI-facing event sink used by bridges and
// background loops to surface incremental progress. Emission is fire-and-forget:
// a sink never acknowledges, never applies backpressure, and a failing sink
// must never abort the producer. Independent producers may interleave events on
// the same bus; within one producer, emission order is preserved.
package events

import "sync"

// Topics emitted across the application.
const (
	TopicPDFProgress     = "pdf-progress"
	TopicChatStream      = "chat-stream-event"
	TopicChatStreamError = "chat-stream-error"
	TopicDBUpdate        = "db-update"
	TopicDBStopped       = "db-streaming-stopped"
)

// Sink receives UI events. Implementations must be cheap and non-blocking;
// a slow sink delays the producer's next read.
type Sink interface {
	Emit(topic string, payload any)
}

// SinkFunc adapts a function to the Sink interface.
type SinkFunc func(topic string, payload any)

// Emit calls f(topic, payload).
func (f SinkFunc) Emit(topic string, payload any) { f(topic, payload) }

// Discard is a Sink that drops every event.
var Discard Sink = SinkFunc(func(string, any) {})

// Bus fans events out to every subscribed sink. Subscribers added during a
// broadcast see only subsequent events. A panicking subscriber is swallowed so
// one faulty renderer cannot take down the producing bridge.
type Bus struct {
	mu    sync.RWMutex
	sinks []Sink
}

// NewBus creates an empty bus.
func NewBus() *Bus { return &Bus{} }

// Subscribe registers a sink for all future events.
func (b *Bus) Subscribe(s Sink) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sinks = append(b.sinks, s)
}

// Emit broadcasts an event to every subscriber in subscription order.
func (b *Bus) Emit(topic string, payload any) {
	b.mu.RLock()
	sinks := make([]Sink, len(b.sinks))
	copy(sinks, b.sinks)
	b.mu.RUnlock()

	for _, s := range sinks {
		emitRecover(s, topic, payload)
	}
}

func emitRecover(s Sink, topic string, payload any) {
	defer func() { _ = recover() }()
	s.Emit(topic, payload)
}
