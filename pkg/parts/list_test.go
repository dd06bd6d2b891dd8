package parts

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestList(t *testing.T) {
	tmpDir := t.TempDir()
	writeFile(t, filepath.Join(tmpDir, "a.nsp"), testData(30))
	writeFile(t, filepath.Join(tmpDir, "B.XCI"), testData(10))
	writeFile(t, filepath.Join(tmpDir, "01"), testData(5))
	writeFile(t, filepath.Join(tmpDir, "readme.txt"), testData(5))
	writeParts(t, filepath.Join(tmpDir, "game_split"), map[string][]byte{
		"01": testData(8),
		"02": testData(3),
	})
	writeParts(t, filepath.Join(tmpDir, "other"), map[string][]byte{"x.txt": nil})

	entries, err := List(tmpDir, ArchiveExtensions)
	if err != nil {
		t.Fatalf("List: %v", err)
	}

	want := []Entry{
		{Name: "01", Kind: KindPart, Size: 5},
		{Name: "B.XCI", Kind: KindArchive, Size: 10},
		{Name: "a.nsp", Kind: KindArchive, Size: 30},
		{Name: "game_split", Kind: KindPartDir, Size: 11, Parts: 2},
	}
	if len(entries) != len(want) {
		t.Fatalf("got %d entries (%+v), want %d", len(entries), entries, len(want))
	}
	for i, w := range want {
		got := entries[i]
		if got.Name != w.Name || got.Kind != w.Kind || got.Size != w.Size || got.Parts != w.Parts {
			t.Errorf("entry %d = %+v, want %+v", i, got, w)
		}
		if got.Path != filepath.Join(tmpDir, w.Name) {
			t.Errorf("entry %d path = %s", i, got.Path)
		}
	}

	if KindPartDir.String() != "parts" || KindArchive.String() != "archive" || KindPart.String() != "part" {
		t.Error("unexpected EntryKind names")
	}
}

func TestListErrors(t *testing.T) {
	tmpDir := t.TempDir()

	if _, err := List(filepath.Join(tmpDir, "missing"), ArchiveExtensions); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing dir, got %v", err)
	}

	file := filepath.Join(tmpDir, "a.nsp")
	writeFile(t, file, nil)
	if _, err := List(file, ArchiveExtensions); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for a file, got %v", err)
	}
}
