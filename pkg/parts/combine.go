package parts

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"os"
	"path/filepath"
)

// CombineResult describes a completed combine.
type CombineResult struct {
	Output    string
	Parts     []PartInfo
	TotalSize int64
	Verified  bool // Parts were checked against a manifest
}

// Combine concatenates the parts in dir, in ascending sequence order, into a
// new file. By default the file is named by OutputName and placed next to dir.
// Without WithExtension the extension of the source recorded in the manifest
// is used, or DefaultExtension when there is none.
//
// Only regular files with purely numeric names are parts; anything else in
// dir is ignored. The parts must be numbered 1..n without gaps.
//
// Returns an error if:
//   - dir doesn't exist or isn't a directory (ErrNotFound)
//   - dir holds no parts (ErrEmptyInput); no output file is created
//   - Parts are duplicated or missing from the sequence (ErrInvalidInput)
//   - The output already exists and WithForce wasn't given (ErrAlreadyExists)
//   - WithVerify is set and parts disagree with the manifest (ErrCorrupt)
//   - Any read, write or flush fails (ErrIO)
//   - The context is cancelled (the context error)
//
// On error, a partially written output file is left on disk.
func Combine(ctx context.Context, dir string, options ...Option) (*CombineResult, error) {
	opts := applyOptions(options)

	if opts.BufferSize <= 0 {
		return nil, newError("combine", dir, ErrInvalidInput, errors.New("buffer size must be positive"))
	}

	dir, err := filepath.Abs(dir)
	if err != nil {
		return nil, newError("combine", dir, ErrInvalidInput, err)
	}
	info, err := os.Stat(dir)
	if err != nil {
		return nil, ioError("combine", dir, err)
	}
	if !info.IsDir() {
		return nil, newError("combine", dir, ErrNotFound, errors.New("not a directory"))
	}

	parts, err := ScanParts(dir)
	if err != nil {
		return nil, err
	}
	if len(parts) == 0 {
		return nil, newError("combine", dir, ErrEmptyInput, nil)
	}
	if err := checkSequence(parts); err != nil {
		return nil, newError("combine", dir, ErrInvalidInput, err)
	}

	var manifest *Manifest
	if opts.Verify {
		manifest, err = ReadManifest(dir)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return nil, err
		}
		if manifest != nil {
			if err := matchManifest(parts, manifest); err != nil {
				return nil, newError("combine", dir, ErrCorrupt, err)
			}
		}
	}

	output := opts.Output
	if output == "" {
		if filepath.Dir(dir) == dir {
			return nil, newError("combine", dir, ErrInvalidInput, errors.New("cannot derive output name"))
		}
		ext := opts.Extension
		if ext == "" {
			ext = sourceExtension(dir, manifest)
		}
		output = filepath.Join(filepath.Dir(dir), OutputName(dir, ext))
	}

	flags := os.O_WRONLY | os.O_CREATE | os.O_EXCL
	if opts.Force {
		flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}
	out, err := os.OpenFile(output, flags, 0o644)
	if err != nil {
		return nil, ioError("combine", output, err)
	}
	defer out.Close()

	total := totalSize(parts)
	buf := make([]byte, opts.BufferSize)
	var done int64
	for i, p := range parts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		var h hash.Hash
		if manifest != nil {
			h = sha256.New()
		}
		n, err := appendPart(out, output, p, buf, h, func(n int) {
			done += int64(n)
			opts.Observer.Progress(done, total)
		})
		if err != nil {
			return nil, err
		}
		if n != p.Size {
			return nil, newError("combine", p.Path, ErrIO, fmt.Errorf("part changed size: expected %d, read %d", p.Size, n))
		}
		if h != nil {
			if want, got := manifest.Parts[i].Checksum, hex.EncodeToString(h.Sum(nil)); want != "" && want != got {
				return nil, newError("combine", p.Path, ErrCorrupt, fmt.Errorf("checksum mismatch: expected %s, got %s", want, got))
			}
		}
	}

	if err := out.Sync(); err != nil {
		return nil, ioError("combine", output, err)
	}
	if err := out.Close(); err != nil {
		return nil, ioError("combine", output, err)
	}

	stat, err := os.Stat(output)
	if err != nil {
		return nil, ioError("combine", output, err)
	}
	if stat.Size() != total {
		return nil, newError("combine", output, ErrIO, fmt.Errorf("size mismatch: expected %d, got %d", total, stat.Size()))
	}

	opts.Observer.Finish()
	return &CombineResult{
		Output:    output,
		Parts:     parts,
		TotalSize: total,
		Verified:  manifest != nil,
	}, nil
}

// appendPart streams one part to out through buf, calling progress after
// every write.
func appendPart(out io.Writer, outPath string, p PartInfo, buf []byte, h hash.Hash, progress func(int)) (int64, error) {
	f, err := os.Open(p.Path)
	if err != nil {
		return 0, ioError("combine", p.Path, err)
	}
	defer f.Close()

	var read int64
	for {
		n, readErr := f.Read(buf)
		if n > 0 {
			if h != nil {
				h.Write(buf[:n])
			}
			if _, err := out.Write(buf[:n]); err != nil {
				return read, ioError("combine", outPath, err)
			}
			read += int64(n)
			progress(n)
		}
		if readErr == io.EOF {
			return read, nil
		}
		if readErr != nil {
			return read, ioError("combine", p.Path, readErr)
		}
	}
}

// matchManifest checks part names and sizes against m.
func matchManifest(parts []PartInfo, m *Manifest) error {
	if len(parts) != len(m.Parts) {
		return fmt.Errorf("expected %d parts, found %d", len(m.Parts), len(parts))
	}
	for i, p := range parts {
		want := m.Parts[i]
		if p.Name != want.Name {
			return fmt.Errorf("part %d: expected %s, found %s", i+1, want.Name, p.Name)
		}
		if p.Size != want.Size {
			return fmt.Errorf("part %s size mismatch: expected %d, got %d", p.Name, want.Size, p.Size)
		}
	}
	return nil
}

// sourceExtension returns the extension of the archive a part set was split
// from, as recorded in its manifest, or DefaultExtension.
func sourceExtension(dir string, m *Manifest) string {
	if m == nil {
		// Without verification a malformed manifest doesn't block combine.
		m, _ = ReadManifest(dir)
	}
	if m != nil {
		if ext := filepath.Ext(m.Source); ext != "" {
			return ext
		}
	}
	return DefaultExtension
}
