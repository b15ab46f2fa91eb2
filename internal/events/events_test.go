// Copyright (c) 2025 LedgerLens
// Licensed under the MIT License. See LICENSE file in the project root for details.

package events

import "testing"

func TestBusFanOut(t *testing.T) {
	bus := NewBus()
	var a, b []string
	bus.Subscribe(SinkFunc(func(topic string, payload any) { a = append(a, topic) }))
	bus.Subscribe(SinkFunc(func(topic string, payload any) { b = append(b, topic) }))

	bus.Emit(TopicPDFProgress, 1)
	bus.Emit(TopicDBUpdate, 2)

	want := []string{TopicPDFProgress, TopicDBUpdate}
	for i, topic := range want {
		if a[i] != topic || b[i] != topic {
			t.Errorf("event %d: a=%v b=%v, want %v", i, a, b, want)
		}
	}
}

func TestBusPanickingSubscriber(t *testing.T) {
	bus := NewBus()
	bus.Subscribe(SinkFunc(func(string, any) { panic("bad renderer") }))
	var delivered int
	bus.Subscribe(SinkFunc(func(string, any) { delivered++ }))

	bus.Emit(TopicChatStream, "token")
	bus.Emit(TopicChatStream, "token")

	if delivered != 2 {
		t.Errorf("delivered = %d, want 2; a panicking subscriber must not block others", delivered)
	}
}

func TestDiscard(t *testing.T) {
	// Must simply not panic.
	Discard.Emit(TopicDBStopped, nil)
}
