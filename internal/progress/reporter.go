package progress

import (
	"fmt"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// Options configures the progress reporter.
type Options struct {
	// Label names the operation in the header, e.g. "Splitting".
	Label string

	// Path is the file or directory being processed (for display).
	Path string

	// TotalSize is the expected number of bytes. Progress updates may
	// replace it.
	TotalSize int64

	// PartSize is the part size (for display, 0 to omit).
	PartSize int64

	// Output is where to write progress output.
	// Default: os.Stderr
	Output io.Writer

	// UpdateInterval is how often to update the progress display.
	// Default: 500ms
	UpdateInterval time.Duration
}

// Reporter outputs human-readable progress information. It satisfies
// parts.Observer; updates only touch atomics, rendering happens on a
// separate goroutine started by Start.
type Reporter struct {
	opts Options

	mu         sync.Mutex
	doneBytes  atomic.Int64
	totalBytes atomic.Int64
	updates    atomic.Int64
	startTime  time.Time
	lastUpdate time.Time
	lastBytes  int64
	stopCh     chan struct{}
	exited     chan struct{}
	started    bool
	stopped    bool
	finished   atomic.Bool
}

// NewReporter creates a new progress reporter.
func NewReporter(opts Options) *Reporter {
	if opts.Output == nil {
		opts.Output = os.Stderr
	}
	if opts.UpdateInterval == 0 {
		opts.UpdateInterval = 500 * time.Millisecond
	}

	r := &Reporter{
		opts:   opts,
		stopCh: make(chan struct{}),
		exited: make(chan struct{}),
	}
	r.totalBytes.Store(opts.TotalSize)
	return r
}

// Start prints the header and begins periodic output.
func (r *Reporter) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started {
		return
	}
	r.started = true
	r.startTime = time.Now()
	r.lastUpdate = r.startTime

	fmt.Fprintf(r.opts.Output, "[nspsplit] %s: %s\n", r.opts.Label, r.opts.Path)
	if r.opts.PartSize > 0 {
		fmt.Fprintf(r.opts.Output, "[nspsplit] Total size: %s | Part size: %s\n",
			formatBytes(r.opts.TotalSize),
			formatBytes(r.opts.PartSize),
		)
	} else {
		fmt.Fprintf(r.opts.Output, "[nspsplit] Total size: %s\n", formatBytes(r.opts.TotalSize))
	}

	go r.updateLoop()
}

// Stop stops periodic output and waits for the final line to be written.
// Safe to call multiple times, and without Start.
func (r *Reporter) Stop() {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	r.stopped = true
	started := r.started
	r.mu.Unlock()

	close(r.stopCh)
	if started {
		<-r.exited
	}
}

// Progress records done bytes out of total.
func (r *Reporter) Progress(done, total int64) {
	r.doneBytes.Store(done)
	r.totalBytes.Store(total)
	r.updates.Add(1)
}

// Finish marks the operation as successful and stops the reporter.
func (r *Reporter) Finish() {
	r.finished.Store(true)
	r.Stop()
}

// Done returns the last reported byte count.
func (r *Reporter) Done() int64 {
	return r.doneBytes.Load()
}

// updateLoop periodically updates the progress display.
func (r *Reporter) updateLoop() {
	defer close(r.exited)

	ticker := time.NewTicker(r.opts.UpdateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			r.printFinalStatus()
			return
		case <-ticker.C:
			r.printProgress()
		}
	}
}

// printProgress outputs the current progress.
func (r *Reporter) printProgress() {
	now := time.Now()
	done := r.doneBytes.Load()
	total := r.totalBytes.Load()

	// Calculate speed
	elapsed := now.Sub(r.lastUpdate).Seconds()
	if elapsed < 0.1 {
		elapsed = 0.1
	}
	speed := float64(done-r.lastBytes) / elapsed

	r.lastUpdate = now
	r.lastBytes = done

	// Calculate percentage and ETA
	var percent float64
	eta := "calculating..."
	if total > 0 {
		percent = float64(done) / float64(total) * 100
		if speed > 0 {
			remaining := float64(total - done)
			eta = formatDuration(time.Duration(remaining / speed * float64(time.Second)))
		}
	}

	fmt.Fprintf(r.opts.Output, "\r[nspsplit] Progress: %.1f%% | %s / %s | Speed: %s/s | ETA: %s    ",
		percent,
		formatBytes(done),
		formatBytes(total),
		formatBytes(int64(speed)),
		eta,
	)
}

// printFinalStatus outputs the final status.
func (r *Reporter) printFinalStatus() {
	done := r.doneBytes.Load()
	duration := time.Since(r.startTime)
	avgSpeed := float64(done) / max(duration.Seconds(), 0.001)

	if !r.finished.Load() {
		fmt.Fprintf(r.opts.Output, "\r[nspsplit] Stopped at %s / %s    \n",
			formatBytes(done),
			formatBytes(r.totalBytes.Load()),
		)
		return
	}

	fmt.Fprintf(r.opts.Output, "\r[nspsplit] Progress: 100.0%% | %s / %s | Complete!    \n",
		formatBytes(done),
		formatBytes(r.totalBytes.Load()),
	)
	fmt.Fprintf(r.opts.Output, "[nspsplit] Total time: %s | Average speed: %s/s\n",
		formatDuration(duration),
		formatBytes(int64(avgSpeed)),
	)
}

// formatDuration formats a duration as a human-readable string.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm %ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%dh %dm %ds", h, m, s)
}
