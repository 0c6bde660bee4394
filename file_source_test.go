package damper

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func TestFileSource_LoadsJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "draft.json")
	if err := os.WriteFile(path, []byte(`{"title": "hello", "count": 2}`), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	src := NewFileSource(path)
	saver := New(src, func(_ context.Context, _ Snapshot) error {
		return nil
	}).SyncMode()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := saver.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := src.Bind(ctx, saver); err != nil {
		t.Fatalf("Bind failed: %v", err)
	}

	snap := src.Snapshot()
	if snap["title"] != "hello" {
		t.Errorf("expected title hello, got %v", snap["title"])
	}
}

func TestFileSource_LoadsYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "draft.yaml")
	if err := os.WriteFile(path, []byte("title: hello\ncount: 2\n"), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	src := NewFileSource(path)
	saver := New(src, func(_ context.Context, _ Snapshot) error {
		return nil
	}).SyncMode()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := saver.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := src.Bind(ctx, saver); err != nil {
		t.Fatalf("Bind failed: %v", err)
	}

	snap := src.Snapshot()
	if snap["count"] != 2 {
		t.Errorf("expected count 2, got %v", snap["count"])
	}
}

func TestFileSource_MissingFileFailsBind(t *testing.T) {
	src := NewFileSource(filepath.Join(t.TempDir(), "absent.json"))
	saver := New(src, func(_ context.Context, _ Snapshot) error {
		return nil
	}).SyncMode()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := saver.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := src.Bind(ctx, saver); err == nil {
		t.Error("expected Bind to fail for missing file")
	}
}

func TestFileSource_WriteTriggersSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "draft.json")
	if err := os.WriteFile(path, []byte(`{"title": "hello"}`), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	src := NewFileSource(path)

	var saves atomic.Int32
	var lastTitle atomic.Value
	saver := New(src, func(_ context.Context, snap Snapshot) error {
		saves.Add(1)
		lastTitle.Store(snap["title"])
		return nil
	}).SyncMode()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := saver.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := src.Bind(ctx, saver); err != nil {
		t.Fatalf("Bind failed: %v", err)
	}

	if err := os.WriteFile(path, []byte(`{"title": "edited"}`), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	if !waitFor(t, 2*time.Second, func() bool { return saves.Load() >= 1 }) {
		t.Fatal("expected save after file write")
	}
	if lastTitle.Load() != "edited" {
		t.Errorf("expected edited title saved, got %v", lastTitle.Load())
	}
}
