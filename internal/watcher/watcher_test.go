package watcher

import (
	"bytes"
	"context"
	"io"
	"log"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestWatcher(t *testing.T, dir string, minSize int64) *Watcher {
	t.Helper()
	w, err := New(dir, Options{
		Debounce: 50 * time.Millisecond,
		MinSize:  minSize,
		Logger:   log.New(io.Discard, "", 0),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { w.Close() })
	return w
}

func TestWatcherHandlesSettledArchive(t *testing.T) {
	dir := t.TempDir()
	w := newTestWatcher(t, dir, 10)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	handled := make(chan string, 4)
	go w.Run(ctx, func(ctx context.Context, path string) error {
		handled <- path
		return nil
	})

	// Give the watcher a moment to start reading events
	time.Sleep(50 * time.Millisecond)

	// Ignored: wrong extension, and too small
	os.WriteFile(filepath.Join(dir, "notes.txt"), bytes.Repeat([]byte("x"), 100), 0644)
	os.WriteFile(filepath.Join(dir, "tiny.nsp"), []byte("x"), 0644)

	archive := filepath.Join(dir, "game.NSP")
	f, err := os.Create(archive)
	if err != nil {
		t.Fatalf("create archive: %v", err)
	}
	// Several writes inside the debounce window produce one handler call
	for i := 0; i < 5; i++ {
		f.Write(bytes.Repeat([]byte{byte(i)}, 20))
		time.Sleep(5 * time.Millisecond)
	}
	f.Close()

	select {
	case path := <-handled:
		if path != archive {
			t.Fatalf("handled %s, want %s", path, archive)
		}
	case <-ctx.Done():
		t.Fatal("archive was never handled")
	}

	select {
	case path := <-handled:
		t.Fatalf("unexpected second handler call for %s", path)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcherStopsOnCancel(t *testing.T) {
	w := newTestWatcher(t, t.TempDir(), 0)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- w.Run(ctx, func(context.Context, string) error { return nil })
	}()

	cancel()
	select {
	case err := <-errCh:
		if err != context.Canceled {
			t.Fatalf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestNewRejectsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file.nsp")
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := New(path, Options{}); err == nil {
		t.Fatal("expected error watching a file")
	}
	if _, err := New(filepath.Join(t.TempDir(), "missing"), Options{}); err == nil {
		t.Fatal("expected error watching a missing directory")
	}
}
