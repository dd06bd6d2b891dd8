package parts

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"testing"
)

// testData returns size bytes of a repeating pattern that differs per offset
// within a 251 byte cycle, so misplaced chunks are detected.
func testData(size int) []byte {
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i % 251)
	}
	return data
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func readFile(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return data
}

// writeParts creates a part directory holding the given parts by name.
func writeParts(t *testing.T, dir string, parts map[string][]byte) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	for name, data := range parts {
		writeFile(t, filepath.Join(dir, name), data)
	}
}

func dirNames(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name()
	}
	return names
}

func assertBytes(t *testing.T, got, want []byte) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %d, want %d", len(got), len(want))
	}
	if !bytes.Equal(got, want) {
		for i := range got {
			if got[i] != want[i] {
				t.Fatalf("data mismatch at offset %d", i)
			}
		}
	}
}

// recordingObserver records every progress update.
type recordingObserver struct {
	mu       sync.Mutex
	updates  [][2]int64
	finished int
}

func (o *recordingObserver) Progress(done, total int64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.updates = append(o.updates, [2]int64{done, total})
}

func (o *recordingObserver) Finish() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.finished++
}

// check verifies done never decreases, total is constant and the final
// update reports everything done.
func (o *recordingObserver) check(t *testing.T, total int64) {
	t.Helper()
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.finished != 1 {
		t.Errorf("Finish called %d times, want 1", o.finished)
	}
	if total == 0 {
		return
	}
	if len(o.updates) == 0 {
		t.Fatal("no progress updates")
	}
	var last int64
	for _, u := range o.updates {
		if u[0] < last {
			t.Fatalf("progress went backwards: %d after %d", u[0], last)
		}
		if u[1] != total {
			t.Fatalf("progress total = %d, want %d", u[1], total)
		}
		last = u[0]
	}
	if last != total {
		t.Errorf("final progress = %d, want %d", last, total)
	}
}
