package parts

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gocloud.dev/blob"
	"gocloud.dev/gcerrors"
)

// Remote layout for a part set stored under prefix:
//
//	{bucket}/{prefix}/01
//	{bucket}/{prefix}/02
//	{bucket}/{prefix}.manifest.json

func remoteKey(prefix, name string) string {
	return strings.TrimSuffix(prefix, "/") + "/" + name
}

func remoteManifestKey(prefix string) string {
	return strings.TrimSuffix(prefix, "/") + ManifestSuffix
}

// Push uploads the parts of dir to bucket under prefix, followed by a
// manifest. Checksums are computed while uploading; if dir has a manifest
// sidecar the uploaded parts must match it.
//
// Returns the uploaded manifest, or an error if:
//   - dir doesn't exist (ErrNotFound) or holds no parts (ErrEmptyInput)
//   - The part sequence is incomplete (ErrInvalidInput)
//   - Parts disagree with the local manifest (ErrCorrupt)
//   - A read or upload fails (ErrIO)
//   - The context is cancelled (the context error)
func Push(ctx context.Context, bucket *blob.Bucket, dir, prefix string, options ...Option) (*Manifest, error) {
	opts := applyOptions(options)

	parts, err := ScanParts(dir)
	if err != nil {
		return nil, err
	}
	if len(parts) == 0 {
		return nil, newError("push", dir, ErrEmptyInput, nil)
	}
	if err := checkSequence(parts); err != nil {
		return nil, newError("push", dir, ErrInvalidInput, err)
	}

	local, err := ReadManifest(dir)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if local != nil {
		if err := matchManifest(parts, local); err != nil {
			return nil, newError("push", dir, ErrCorrupt, err)
		}
	}

	total := totalSize(parts)
	buf := make([]byte, opts.BufferSize)
	var done int64
	for i := range parts {
		key := remoteKey(prefix, parts[i].Name)
		sum, err := uploadPart(ctx, bucket, key, parts[i].Path, buf, func(n int) {
			done += int64(n)
			opts.Observer.Progress(done, total)
		})
		if err != nil {
			return nil, err
		}
		if local != nil && local.Parts[i].Checksum != "" && local.Parts[i].Checksum != sum {
			bucket.Delete(ctx, key)
			return nil, newError("push", parts[i].Path, ErrCorrupt, fmt.Errorf("checksum mismatch: expected %s, got %s", local.Parts[i].Checksum, sum))
		}
		parts[i].Checksum = sum
	}

	m := newManifest("", parts[0].Size, parts)
	if local != nil {
		m.Source = local.Source
		m.PartSize = local.PartSize
	}
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, newError("push", dir, ErrInvalidInput, err)
	}
	if err := bucket.WriteAll(ctx, remoteManifestKey(prefix), data, nil); err != nil {
		return nil, storageError("push", remoteManifestKey(prefix), err)
	}

	opts.Observer.Finish()
	return m, nil
}

func uploadPart(ctx context.Context, bucket *blob.Bucket, key, path string, buf []byte, progress func(int)) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", ioError("push", path, err)
	}
	defer f.Close()

	// Cancelling the writer context aborts the upload instead of committing it.
	wctx, cancel := context.WithCancel(ctx)
	defer cancel()
	w, err := bucket.NewWriter(wctx, key, nil)
	if err != nil {
		return "", storageError("push", key, err)
	}

	hash := sha256.New()
	for {
		n, readErr := f.Read(buf)
		if n > 0 {
			hash.Write(buf[:n])
			if _, err := w.Write(buf[:n]); err != nil {
				cancel()
				w.Close()
				return "", storageError("push", key, err)
			}
			progress(n)
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			cancel()
			w.Close()
			return "", ioError("push", path, readErr)
		}
	}

	if err := w.Close(); err != nil {
		return "", storageError("push", key, err)
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}

// Pull downloads the part set stored under prefix into dir, verifying every
// part's size and checksum against the remote manifest, and writes the
// manifest sidecar next to dir.
//
// Returns the manifest, or an error if:
//   - The remote manifest doesn't exist (ErrNotFound)
//   - dir already exists and WithForce wasn't given (ErrAlreadyExists);
//     with WithForce only its parts and manifest are replaced
//   - A part disagrees with the manifest (ErrCorrupt)
//   - A download or local write fails (ErrIO)
//   - The context is cancelled (the context error)
//
// On error, parts downloaded so far are left in dir.
func Pull(ctx context.Context, bucket *blob.Bucket, prefix, dir string, options ...Option) (*Manifest, error) {
	opts := applyOptions(options)

	m, err := readRemoteManifest(ctx, bucket, prefix)
	if err != nil {
		return nil, err
	}
	if err := prepareDir("pull", dir, opts.Force); err != nil {
		return nil, err
	}

	buf := make([]byte, opts.BufferSize)
	var done int64
	for _, entry := range m.Parts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		err := downloadPart(ctx, bucket, remoteKey(prefix, entry.Name), filepath.Join(dir, entry.Name), entry, buf, func(n int) {
			done += int64(n)
			opts.Observer.Progress(done, m.TotalSize)
		})
		if err != nil {
			return nil, err
		}
	}

	if err := WriteManifest(dir, m); err != nil {
		return nil, err
	}

	opts.Observer.Finish()
	return m, nil
}

func downloadPart(ctx context.Context, bucket *blob.Bucket, key, path string, entry PartEntry, buf []byte, progress func(int)) error {
	r, err := bucket.NewReader(ctx, key, nil)
	if err != nil {
		return storageError("pull", key, err)
	}
	defer r.Close()

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return ioError("pull", path, err)
	}
	defer f.Close()

	hash := sha256.New()
	var written int64
	for {
		n, readErr := r.Read(buf)
		if n > 0 {
			hash.Write(buf[:n])
			if _, err := f.Write(buf[:n]); err != nil {
				return ioError("pull", path, err)
			}
			written += int64(n)
			progress(n)
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return storageError("pull", key, readErr)
		}
	}

	if err := f.Sync(); err != nil {
		return ioError("pull", path, err)
	}
	if written != entry.Size {
		return newError("pull", key, ErrCorrupt, fmt.Errorf("size mismatch: expected %d, got %d", entry.Size, written))
	}
	if sum := hex.EncodeToString(hash.Sum(nil)); entry.Checksum != "" && sum != entry.Checksum {
		return newError("pull", key, ErrCorrupt, fmt.Errorf("checksum mismatch: expected %s, got %s", entry.Checksum, sum))
	}
	return nil
}

// ValidateRemote checks that every part listed in the remote manifest exists
// with the recorded size. It reads attributes only, not part data.
//
// Returns an error if the manifest is missing (ErrNotFound) or malformed
// (ErrCorrupt), or if the bucket cannot be queried (ErrIO).
// Missing parts and size mismatches are reported in the ValidationResult.
func ValidateRemote(ctx context.Context, bucket *blob.Bucket, prefix string) (*ValidationResult, error) {
	m, err := readRemoteManifest(ctx, bucket, prefix)
	if err != nil {
		return nil, err
	}

	result := &ValidationResult{
		Valid:       true,
		HasManifest: true,
		PartCount:   len(m.Parts),
		Errors:      make([]string, 0),
	}

	for _, entry := range m.Parts {
		key := remoteKey(prefix, entry.Name)
		attrs, err := bucket.Attributes(ctx, key)
		if err != nil {
			if isNotExist(err) {
				result.fail(&result.MissingParts, "part %s missing: %s", entry.Name, key)
				continue
			}
			return nil, storageError("validate", key, err)
		}
		result.TotalSize += attrs.Size
		if attrs.Size != entry.Size {
			result.fail(&result.SizeMismatches, "part %s size mismatch: expected %d, got %d", entry.Name, entry.Size, attrs.Size)
		}
	}

	return result, nil
}

// DeleteRemote removes the parts listed in the remote manifest and then the
// manifest itself. Parts that are already gone are skipped.
func DeleteRemote(ctx context.Context, bucket *blob.Bucket, prefix string) error {
	m, err := readRemoteManifest(ctx, bucket, prefix)
	if err != nil {
		return err
	}

	for _, entry := range m.Parts {
		key := remoteKey(prefix, entry.Name)
		if err := bucket.Delete(ctx, key); err != nil && !isNotExist(err) {
			return storageError("delete", key, err)
		}
	}

	if err := bucket.Delete(ctx, remoteManifestKey(prefix)); err != nil {
		return storageError("delete", remoteManifestKey(prefix), err)
	}
	return nil
}

func readRemoteManifest(ctx context.Context, bucket *blob.Bucket, prefix string) (*Manifest, error) {
	key := remoteManifestKey(prefix)
	data, err := bucket.ReadAll(ctx, key)
	if err != nil {
		return nil, storageError("read manifest", key, err)
	}
	m, err := decodeManifest(data)
	if err != nil {
		return nil, newError("read manifest", key, ErrCorrupt, err)
	}
	return m, nil
}

// storageError classifies a bucket error.
func storageError(op, key string, err error) *Error {
	if isNotExist(err) {
		return newError(op, key, ErrNotFound, err)
	}
	return newError(op, key, ErrIO, err)
}

// isNotExist returns true if the error indicates the object doesn't exist.
func isNotExist(err error) bool {
	return gcerrors.Code(err) == gcerrors.NotFound
}
