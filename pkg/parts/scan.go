package parts

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// PartInfo describes a single part file.
type PartInfo struct {
	Seq      int
	Name     string
	Path     string
	Size     int64
	Checksum string // Hex SHA-256, empty unless computed
}

// ScanParts returns the part files in dir sorted by sequence number.
// Entries that are not regular files with purely numeric names are ignored.
// ScanParts does not check that the sequence is complete.
func ScanParts(dir string) ([]PartInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, ioError("scan", dir, err)
	}

	var parts []PartInfo
	for _, entry := range entries {
		seq, ok := ParsePartName(entry.Name())
		if !ok || !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, ioError("scan", filepath.Join(dir, entry.Name()), err)
		}
		parts = append(parts, PartInfo{
			Seq:  seq,
			Name: entry.Name(),
			Path: filepath.Join(dir, entry.Name()),
			Size: info.Size(),
		})
	}

	sort.Slice(parts, func(i, j int) bool {
		if parts[i].Seq != parts[j].Seq {
			return parts[i].Seq < parts[j].Seq
		}
		return parts[i].Name < parts[j].Name
	})
	return parts, nil
}

// checkSequence verifies that sorted parts are numbered 1..n with one name
// per number and a single name width, which keeps numeric and lexicographic
// order identical.
func checkSequence(parts []PartInfo) error {
	for i, p := range parts {
		if i > 0 && p.Seq == parts[i-1].Seq {
			return fmt.Errorf("duplicate part number %d (%s and %s)", p.Seq, parts[i-1].Name, p.Name)
		}
		if p.Seq != i+1 {
			return fmt.Errorf("missing part %d before %s", i+1, p.Name)
		}
		if len(p.Name) != len(parts[0].Name) {
			return fmt.Errorf("part %s is not %d digits wide", p.Name, len(parts[0].Name))
		}
	}
	return nil
}

func totalSize(parts []PartInfo) int64 {
	var total int64
	for _, p := range parts {
		total += p.Size
	}
	return total
}
