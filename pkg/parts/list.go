package parts

import (
	"errors"
	"os"
	"path/filepath"
)

// EntryKind classifies a listed path.
type EntryKind int

const (
	// KindArchive is a file with a recognised archive extension.
	KindArchive EntryKind = iota
	// KindPart is a file with a purely numeric name.
	KindPart
	// KindPartDir is a directory holding at least one part.
	KindPartDir
)

func (k EntryKind) String() string {
	switch k {
	case KindArchive:
		return "archive"
	case KindPart:
		return "part"
	case KindPartDir:
		return "parts"
	default:
		return "unknown"
	}
}

// Entry is a listed archive, part or part directory.
type Entry struct {
	Name  string
	Path  string
	Kind  EntryKind
	Size  int64 // File size, or total part size for a part directory
	Parts int   // Part count, only for KindPartDir
}

// List returns the archives (by extension, see ArchiveExtensions), part files
// and part directories directly inside dir, sorted by name. Everything else is
// ignored. Subdirectories that cannot be read are skipped.
func List(dir string, exts []string) ([]Entry, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, ioError("list", dir, err)
	}
	if !info.IsDir() {
		return nil, newError("list", dir, ErrNotFound, errors.New("not a directory"))
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, ioError("list", dir, err)
	}

	var result []Entry
	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())

		if entry.IsDir() {
			parts, err := ScanParts(path)
			if err != nil || len(parts) == 0 {
				continue
			}
			result = append(result, Entry{
				Name:  entry.Name(),
				Path:  path,
				Kind:  KindPartDir,
				Size:  totalSize(parts),
				Parts: len(parts),
			})
			continue
		}

		if !entry.Type().IsRegular() {
			continue
		}

		var kind EntryKind
		switch _, isPart := ParsePartName(entry.Name()); {
		case isPart:
			kind = KindPart
		case IsArchive(entry.Name(), exts):
			kind = KindArchive
		default:
			continue
		}

		fi, err := entry.Info()
		if err != nil {
			return nil, ioError("list", path, err)
		}
		result = append(result, Entry{
			Name: entry.Name(),
			Path: path,
			Kind: kind,
			Size: fi.Size(),
		})
	}
	return result, nil
}
