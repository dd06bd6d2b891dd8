package parts

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
)

const (
	// DefaultPartSize is 0xFFFF0000 bytes, the largest 64 KiB aligned size
	// below the FAT32 4 GiB file limit.
	DefaultPartSize int64 = 0xFFFF0000

	// DefaultBufferSize is the size of the single read buffer used while
	// streaming.
	DefaultBufferSize = 8 * 1024 * 1024

	// DefaultExtension is appended to the part directory name on combine
	// when no manifest records the source extension.
	DefaultExtension = ".nsp"

	// DirSuffix is appended to the source base name to form the part directory.
	DirSuffix = "_split"

	// ManifestSuffix is appended to the part directory path to form the
	// manifest sidecar path.
	ManifestSuffix = ".manifest.json"

	// MinNameWidth is the minimum number of digits in a part name.
	MinNameWidth = 2
)

// ArchiveExtensions lists the extensions recognised as archives by default.
var ArchiveExtensions = []string{".nsp", ".nsz", ".xci", ".xcz"}

// PartDirName returns the part directory name for a source file: its base
// name without extension plus DirSuffix.
func PartDirName(source string) string {
	base := filepath.Base(source)
	return strings.TrimSuffix(base, filepath.Ext(base)) + DirSuffix
}

// OutputName returns the combined file name for a part directory: the
// directory name without DirSuffix plus ext.
func OutputName(dir, ext string) string {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	base := strings.TrimSuffix(filepath.Base(dir), DirSuffix)
	return base + ext
}

// ManifestPath returns the sidecar manifest path for a part directory.
// A directory given as "." or ".." is resolved first so the sidecar still
// lands next to it.
func ManifestPath(dir string) string {
	dir = filepath.Clean(dir)
	if base := filepath.Base(dir); base == "." || base == ".." {
		if abs, err := filepath.Abs(dir); err == nil {
			dir = abs
		}
	}
	return dir + ManifestSuffix
}

// PartCount returns how many parts a source of size bytes splits into.
// An empty source still produces one part.
func PartCount(size, partSize int64) int {
	if size <= 0 {
		return 1
	}
	return int((size + partSize - 1) / partSize)
}

// NameWidth returns the part name width needed for count parts.
func NameWidth(count int) int {
	width := len(strconv.Itoa(count))
	if width < MinNameWidth {
		return MinNameWidth
	}
	return width
}

// PartName formats sequence number seq (starting at 1) zero padded to width.
// A number that does not fit in width is rejected, since a wider name would
// sort before its predecessors.
func PartName(seq, width int) (string, error) {
	if seq < 1 {
		return "", fmt.Errorf("part sequence %d out of range", seq)
	}
	name := fmt.Sprintf("%0*d", width, seq)
	if len(name) > width {
		return "", fmt.Errorf("part sequence %d exceeds %d digit names", seq, width)
	}
	return name, nil
}

// ParsePartName reports whether name is a part name and returns its sequence
// number. Part names consist only of ASCII digits.
func ParsePartName(name string) (int, bool) {
	if name == "" {
		return 0, false
	}
	for i := 0; i < len(name); i++ {
		if name[i] < '0' || name[i] > '9' {
			return 0, false
		}
	}
	seq, err := strconv.Atoi(name)
	if err != nil {
		return 0, false
	}
	return seq, true
}

// IsArchive reports whether name carries one of exts, ignoring case.
func IsArchive(name string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == "" {
		return false
	}
	for _, e := range exts {
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		if strings.ToLower(e) == ext {
			return true
		}
	}
	return false
}
