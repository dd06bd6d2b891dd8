// Package watcher splits archives as they land in a drop folder.
//
// A Watcher follows one directory with fsnotify. When a file with an archive
// extension is created or written, it waits until the file has been quiet
// for the debounce interval, then hands it to a Handler if it is larger than
// the minimum size. Handlers run one at a time on the Run goroutine, so a
// slow split never overlaps another.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/nspsplit/nspsplit/pkg/parts"
)

// Handler processes a settled archive.
type Handler func(ctx context.Context, path string) error

// Options configures a Watcher.
type Options struct {
	// Extensions selects archive files. Default: parts.ArchiveExtensions
	Extensions []string

	// Debounce is how long a file must be quiet before it is handled.
	// Default: 2s
	Debounce time.Duration

	// MinSize skips archives of at most this many bytes.
	MinSize int64

	// Logger receives status lines. Default: log.Default()
	Logger *log.Logger
}

// Watcher turns file system events in one directory into Handler calls.
type Watcher struct {
	fsw  *fsnotify.Watcher
	dir  string
	opts Options

	ready chan string

	debounceMu sync.Mutex
	debouncer  map[string]*time.Timer
}

// New creates a Watcher for dir. Call Close when done.
func New(dir string, opts Options) (*Watcher, error) {
	if len(opts.Extensions) == 0 {
		opts.Extensions = parts.ArchiveExtensions
	}
	if opts.Debounce <= 0 {
		opts.Debounce = 2 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}

	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("watcher: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("watcher: %s is not a directory", dir)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watcher: add %s: %w", dir, err)
	}

	return &Watcher{
		fsw:       fsw,
		dir:       dir,
		opts:      opts,
		ready:     make(chan string, 16),
		debouncer: make(map[string]*time.Timer),
	}, nil
}

// Run handles events until ctx is cancelled or the watcher is closed.
// Handler errors are logged and do not stop the watcher.
func (w *Watcher) Run(ctx context.Context, handle Handler) error {
	w.opts.Logger.Printf("Watching directory: %s", w.dir)

	for {
		select {
		case <-ctx.Done():
			w.stopTimers()
			return ctx.Err()

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if parts.IsArchive(event.Name, w.opts.Extensions) {
				w.debouncedSend(ctx, event.Name)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.opts.Logger.Printf("Watcher error: %v", err)

		case path := <-w.ready:
			w.process(ctx, path, handle)
		}
	}
}

func (w *Watcher) process(ctx context.Context, path string, handle Handler) {
	info, err := os.Stat(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			w.opts.Logger.Printf("Skipping %s: %v", path, err)
		}
		return
	}
	if !info.Mode().IsRegular() || info.Size() <= w.opts.MinSize {
		return
	}

	w.opts.Logger.Printf("Processing %s (%d bytes)", path, info.Size())
	if err := handle(ctx, path); err != nil {
		w.opts.Logger.Printf("Error processing %s: %v", path, err)
	}
}

// debouncedSend queues path once no event for it has been seen for the
// debounce interval.
func (w *Watcher) debouncedSend(ctx context.Context, path string) {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if timer, exists := w.debouncer[path]; exists {
		timer.Stop()
	}

	w.debouncer[path] = time.AfterFunc(w.opts.Debounce, func() {
		w.debounceMu.Lock()
		delete(w.debouncer, path)
		w.debounceMu.Unlock()

		select {
		case w.ready <- path:
		case <-ctx.Done():
		}
	})
}

func (w *Watcher) stopTimers() {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()
	for path, timer := range w.debouncer {
		timer.Stop()
		delete(w.debouncer, path)
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	w.stopTimers()
	return w.fsw.Close()
}
