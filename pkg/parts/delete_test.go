package parts

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDelete(t *testing.T) {
	tmpDir := t.TempDir()
	source := filepath.Join(tmpDir, "game.nsp")
	writeFile(t, source, testData(250))

	split, err := Split(context.Background(), source, WithPartSize(100), WithManifest(true))
	if err != nil {
		t.Fatalf("Split: %v", err)
	}

	removed, err := Delete(split.Dir)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if removed != 3 {
		t.Errorf("removed %d parts, want 3", removed)
	}
	if _, err := os.Stat(split.Dir); !os.IsNotExist(err) {
		t.Error("empty part directory not removed")
	}
	if _, err := os.Stat(ManifestPath(split.Dir)); !os.IsNotExist(err) {
		t.Error("manifest not removed")
	}
	if _, err := os.Stat(source); err != nil {
		t.Errorf("source removed: %v", err)
	}
}

func TestDeleteKeepsOtherFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "game_split")
	writeParts(t, dir, map[string][]byte{
		"01":        {1},
		"02":        {2},
		"notes.txt": []byte("keep me"),
	})

	removed, err := Delete(dir)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if removed != 2 {
		t.Errorf("removed %d parts, want 2", removed)
	}
	if names := dirNames(t, dir); len(names) != 1 || names[0] != "notes.txt" {
		t.Errorf("remaining = %v, want [notes.txt]", names)
	}
}

func TestDeleteNotFound(t *testing.T) {
	_, err := Delete(filepath.Join(t.TempDir(), "missing_split"))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
