package parts

import (
	"errors"
	"io/fs"
	"os"
)

// Delete removes the parts in dir, the manifest sidecar and, when nothing
// else is left in it, dir itself. Files that are not parts are kept.
// Use it to clear the partial output of a failed split before retrying.
//
// Returns the number of parts removed, or an error if:
//   - dir doesn't exist (ErrNotFound)
//   - A part or the manifest cannot be removed (ErrIO)
func Delete(dir string) (int, error) {
	parts, err := ScanParts(dir)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, p := range parts {
		if err := os.Remove(p.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return removed, ioError("delete", p.Path, err)
		}
		removed++
	}

	manifestPath := ManifestPath(dir)
	if err := os.Remove(manifestPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return removed, ioError("delete", manifestPath, err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return removed, ioError("delete", dir, err)
	}
	if len(entries) == 0 {
		if err := os.Remove(dir); err != nil {
			return removed, ioError("delete", dir, err)
		}
	}
	return removed, nil
}
