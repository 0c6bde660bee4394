package damper

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestSourceFunc(t *testing.T) {
	src := SourceFunc(func() Snapshot {
		return Snapshot{"title": "draft"}
	})

	if snap := src.Snapshot(); snap["title"] != "draft" {
		t.Errorf("expected adapter to call the function, got %v", snap)
	}
}

func TestChannelNotifier_ForwardsEvents(t *testing.T) {
	form := NewForm(map[string]any{"title": "draft"})

	var saves atomic.Int32
	saver := New(form, func(_ context.Context, _ Snapshot) error {
		saves.Add(1)
		return nil
	}).SyncMode()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := saver.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	events := make(chan struct{}, 1)
	NewChannelNotifier(events).Bind(ctx, saver)

	// Mutate without a bound form, then signal through the channel.
	form.Set("title", "hello")
	events <- struct{}{}

	if !waitFor(t, time.Second, func() bool { return saves.Load() == 1 }) {
		t.Fatalf("expected 1 save from channel notification, got %d", saves.Load())
	}
}

func TestChannelNotifier_StopsOnClose(t *testing.T) {
	form := NewForm(map[string]any{"title": "draft"})

	var saves atomic.Int32
	saver := New(form, func(_ context.Context, _ Snapshot) error {
		saves.Add(1)
		return nil
	}).SyncMode()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := saver.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	events := make(chan struct{})
	NewChannelNotifier(events).Bind(ctx, saver)
	close(events)

	// Closed channel must not spin Touch calls.
	time.Sleep(20 * time.Millisecond)
	if saves.Load() != 0 {
		t.Errorf("expected no saves after close, got %d", saves.Load())
	}
}
