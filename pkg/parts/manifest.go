package parts

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"
)

// Manifest describes a completed split. It is optional: Combine works from
// file names and sizes alone.
type Manifest struct {
	Source      string      `json:"source,omitempty"`
	TotalSize   int64       `json:"total_size"`
	PartSize    int64       `json:"part_size"`
	Parts       []PartEntry `json:"parts"`
	CompletedAt time.Time   `json:"completed_at"`
}

// PartEntry describes a single part in the manifest.
// The sequence number is implicit from the array position.
type PartEntry struct {
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	Checksum string `json:"checksum,omitempty"`
}

func newManifest(source string, partSize int64, parts []PartInfo) *Manifest {
	m := &Manifest{
		Source:      source,
		PartSize:    partSize,
		Parts:       make([]PartEntry, len(parts)),
		CompletedAt: time.Now().UTC(),
	}
	for i, p := range parts {
		m.Parts[i] = PartEntry{Name: p.Name, Size: p.Size, Checksum: p.Checksum}
		m.TotalSize += p.Size
	}
	return m
}

// ReadManifest loads the sidecar manifest of a part directory.
// A missing manifest yields an error matching ErrNotFound.
func ReadManifest(dir string) (*Manifest, error) {
	path := ManifestPath(dir)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, ioError("read manifest", path, err)
	}
	m, err := decodeManifest(data)
	if err != nil {
		return nil, newError("read manifest", path, ErrCorrupt, err)
	}
	return m, nil
}

// WriteManifest stores m as the sidecar manifest of a part directory.
// The file is written to a temporary name and renamed into place.
func WriteManifest(dir string, m *Manifest) error {
	path := ManifestPath(dir)
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return newError("write manifest", path, ErrInvalidInput, err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return ioError("write manifest", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return ioError("write manifest", path, err)
	}
	return nil
}

// BuildManifest scans dir and hashes every part. Use it to create a manifest
// for parts that were split without one.
func BuildManifest(dir string) (*Manifest, error) {
	parts, err := ScanParts(dir)
	if err != nil {
		return nil, err
	}
	if len(parts) == 0 {
		return nil, newError("build manifest", dir, ErrEmptyInput, nil)
	}
	if err := checkSequence(parts); err != nil {
		return nil, newError("build manifest", dir, ErrInvalidInput, err)
	}

	buf := make([]byte, DefaultBufferSize)
	for i := range parts {
		sum, err := hashFile(parts[i].Path, buf)
		if err != nil {
			return nil, err
		}
		parts[i].Checksum = sum
	}
	return newManifest("", parts[0].Size, parts), nil
}

func decodeManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal manifest: %w", err)
	}
	for i, p := range m.Parts {
		if seq, ok := ParsePartName(p.Name); !ok || seq != i+1 {
			return nil, fmt.Errorf("manifest entry %d has invalid part name %q", i, p.Name)
		}
	}
	return &m, nil
}

func hashFile(path string, buf []byte) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", ioError("hash", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.CopyBuffer(h, onlyReader{f}, buf); err != nil {
		return "", ioError("hash", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// onlyReader hides io.WriterTo on *os.File so io.CopyBuffer uses our buffer.
type onlyReader struct {
	io.Reader
}
