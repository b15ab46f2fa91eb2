// Copyright (c) 2025 LedgerLens
// Licensed under the MIT License. See LICENSE file in the project root for details.

package dbwatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"ledgerlens/cli/internal/events"
)

type fakeQuerier struct {
	calls int
	errOn map[int]error
}

func (f *fakeQuerier) Latest(ctx context.Context) ([]Row, error) {
	f.calls++
	if err, ok := f.errOn[f.calls]; ok {
		return nil, err
	}
	v := 100.0
	return []Row{{ID: int64(f.calls), Label: "Revenue", CurrentYear: &v}}, nil
}

func TestWatcherEmitsInitialThenIncremental(t *testing.T) {
	var updates []Update
	stopped := 0
	sink := events.SinkFunc(func(topic string, payload any) {
		switch topic {
		case events.TopicDBUpdate:
			updates = append(updates, payload.(Update))
		case events.TopicDBStopped:
			stopped++
		}
	})

	w := &Watcher{
		Querier:       &fakeQuerier{},
		Sink:          sink,
		Interval:      time.Millisecond,
		MaxIterations: 3,
	}
	if err := w.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(updates) != 3 {
		t.Fatalf("got %d updates, want 3", len(updates))
	}
	if updates[0].Action != "initial" {
		t.Errorf("first action = %q, want initial", updates[0].Action)
	}
	for i, u := range updates[1:] {
		if u.Action != "incremental" {
			t.Errorf("update %d action = %q, want incremental", i+1, u.Action)
		}
	}
	if stopped != 1 {
		t.Errorf("stopped events = %d, want exactly 1", stopped)
	}
}

func TestWatcherContinuesAfterQueryError(t *testing.T) {
	var updates int
	sink := events.SinkFunc(func(topic string, payload any) {
		if topic == events.TopicDBUpdate {
			updates++
		}
	})

	var logged []string
	w := &Watcher{
		Querier:       &fakeQuerier{errOn: map[int]error{2: errors.New("connection reset")}},
		Sink:          sink,
		Interval:      time.Millisecond,
		MaxIterations: 3,
		Logf:          func(format string, args ...any) { logged = append(logged, format) },
	}
	if err := w.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if updates != 2 {
		t.Errorf("updates = %d, want 2 (the failed poll skips its emit)", updates)
	}
	if len(logged) != 1 {
		t.Errorf("logged %d errors, want 1", len(logged))
	}
}

func TestWatcherStopsOnCancel(t *testing.T) {
	stopped := 0
	sink := events.SinkFunc(func(topic string, payload any) {
		if topic == events.TopicDBStopped {
			stopped++
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{
		Querier:       &fakeQuerier{},
		Sink:          sink,
		Interval:      50 * time.Millisecond,
		MaxIterations: 1000,
	}
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	err := w.Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Run() error = %v, want context.Canceled", err)
	}
	if stopped != 1 {
		t.Errorf("stopped events = %d, want exactly 1 even on cancel", stopped)
	}
}
