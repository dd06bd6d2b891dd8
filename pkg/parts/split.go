package parts

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"hash"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// SplitResult describes a completed split.
type SplitResult struct {
	Dir       string
	Parts     []PartInfo
	TotalSize int64
	Manifest  *Manifest // Set when WithManifest was used
}

// Split cuts source into parts of at most the configured part size, written
// to a new directory named by PartDirName. Every part but the last is exactly
// the part size. An empty source produces one empty part.
//
// The part directory must not exist unless WithForce is given, in which case
// its old parts and manifest are removed first.
//
// Returns an error if:
//   - The source doesn't exist (ErrNotFound)
//   - The source isn't a regular file, or an option is out of range (ErrInvalidInput)
//   - The part directory already exists (ErrAlreadyExists)
//   - Any read, create, write or flush fails (ErrIO)
//   - The context is cancelled (the context error)
//
// On error, parts written so far are left on disk.
func Split(ctx context.Context, source string, options ...Option) (*SplitResult, error) {
	opts := applyOptions(options)

	if opts.PartSize <= 0 {
		return nil, newError("split", source, ErrInvalidInput, errors.New("part size must be positive"))
	}
	if opts.BufferSize <= 0 {
		return nil, newError("split", source, ErrInvalidInput, errors.New("buffer size must be positive"))
	}

	info, err := os.Stat(source)
	if err != nil {
		return nil, ioError("split", source, err)
	}
	if !info.Mode().IsRegular() {
		return nil, newError("split", source, ErrInvalidInput, errors.New("not a regular file"))
	}

	src, err := os.Open(source)
	if err != nil {
		return nil, ioError("split", source, err)
	}
	defer src.Close()

	parent := opts.OutputDir
	if parent == "" {
		parent = filepath.Dir(source)
	}
	dir := filepath.Join(parent, PartDirName(source))
	if err := prepareDir("split", dir, opts.Force); err != nil {
		return nil, err
	}

	total := info.Size()
	w := &partWriter{
		dir:      dir,
		width:    NameWidth(PartCount(total, opts.PartSize)),
		partSize: opts.PartSize,
		checksum: opts.Manifest,
	}

	buf := make([]byte, opts.BufferSize)
	var done int64
	for {
		if err := ctx.Err(); err != nil {
			w.abort()
			return nil, err
		}

		n, readErr := src.Read(buf)
		if n > 0 {
			if _, err := w.Write(buf[:n]); err != nil {
				w.abort()
				return nil, err
			}
			done += int64(n)
			opts.Observer.Progress(done, total)
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			w.abort()
			return nil, ioError("split", source, readErr)
		}
	}

	if err := w.finish(); err != nil {
		return nil, err
	}

	result := &SplitResult{
		Dir:       dir,
		Parts:     w.parts,
		TotalSize: done,
	}
	if opts.Manifest {
		result.Manifest = newManifest(filepath.Base(source), opts.PartSize, w.parts)
		if err := WriteManifest(dir, result.Manifest); err != nil {
			return nil, err
		}
	}

	opts.Observer.Finish()
	return result, nil
}

// prepareDir creates dir. An existing dir is an error unless force is set, in
// which case its parts and manifest sidecar are removed. Other files in dir
// are kept.
func prepareDir(op, dir string, force bool) error {
	_, err := os.Lstat(dir)
	switch {
	case err == nil:
		if !force {
			return newError(op, dir, ErrAlreadyExists, nil)
		}
		if _, err := Delete(dir); err != nil {
			return err
		}
	case !errors.Is(err, fs.ErrNotExist):
		return ioError(op, dir, err)
	}

	if err := os.Remove(ManifestPath(dir)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return ioError(op, ManifestPath(dir), err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return ioError(op, dir, err)
	}
	return nil
}

// partWriter spreads written bytes over numbered part files, switching to a
// new part exactly when the current one reaches partSize. A part is opened
// only once there is a byte to put in it.
type partWriter struct {
	dir      string
	width    int
	partSize int64
	checksum bool

	seq   int
	cur   *os.File
	path  string
	size  int64
	hash  hash.Hash
	parts []PartInfo
}

func (w *partWriter) Write(p []byte) (int, error) {
	var written int
	for len(p) > 0 {
		if w.cur == nil || w.size >= w.partSize {
			if err := w.next(); err != nil {
				return written, err
			}
		}

		chunk := p
		if room := w.partSize - w.size; int64(len(chunk)) > room {
			chunk = chunk[:room]
		}
		n, err := w.cur.Write(chunk)
		if w.hash != nil {
			w.hash.Write(chunk[:n])
		}
		w.size += int64(n)
		written += n
		if err != nil {
			return written, ioError("split", w.path, err)
		}
		p = p[n:]
	}
	return written, nil
}

// next closes the current part and opens the following one.
func (w *partWriter) next() error {
	if w.cur != nil {
		if err := w.closePart(); err != nil {
			return err
		}
	}

	name, err := PartName(w.seq+1, w.width)
	if err != nil {
		return newError("split", w.dir, ErrInvalidInput, err)
	}
	path := filepath.Join(w.dir, name)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return ioError("split", path, err)
	}

	w.seq++
	w.cur = f
	w.path = path
	w.size = 0
	if w.checksum {
		w.hash = sha256.New()
	}
	return nil
}

// closePart flushes the current part to stable storage and records it.
func (w *partWriter) closePart() error {
	f := w.cur
	w.cur = nil
	if err := f.Sync(); err != nil {
		f.Close()
		return ioError("split", w.path, err)
	}
	if err := f.Close(); err != nil {
		return ioError("split", w.path, err)
	}

	info := PartInfo{
		Seq:  w.seq,
		Name: filepath.Base(w.path),
		Path: w.path,
		Size: w.size,
	}
	if w.hash != nil {
		info.Checksum = hex.EncodeToString(w.hash.Sum(nil))
	}
	w.parts = append(w.parts, info)
	return nil
}

// finish closes the last part, creating an empty first part if nothing was
// written at all.
func (w *partWriter) finish() error {
	if w.cur == nil && w.seq == 0 {
		if err := w.next(); err != nil {
			return err
		}
	}
	if w.cur == nil {
		return nil
	}
	return w.closePart()
}

// abort closes the open part without flushing it.
func (w *partWriter) abort() {
	if w.cur != nil {
		w.cur.Close()
		w.cur = nil
	}
}
