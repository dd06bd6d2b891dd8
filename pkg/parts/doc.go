// Package parts splits large archive files into fixed-size numbered parts and
// reassembles them.
//
// Parts exist to get multi-gigabyte archives (.nsp, .xci and friends) onto
// FAT32 media, whose files cannot reach 4 GiB. The package treats archives as
// opaque byte streams and never looks inside them.
//
// # Splitting
//
// Use [Split] to cut a file into parts. Every part except the last is exactly
// the configured part size; the last part holds the remainder. An empty file
// yields a single empty part so that it still round-trips.
//
// Options:
//   - [WithPartSize]: Maximum part size (default [DefaultPartSize])
//   - [WithBufferSize]: Size of the single streaming buffer
//   - [WithOutputDir]: Parent directory for the part directory
//   - [WithForce]: Replace an existing part directory instead of failing
//   - [WithManifest]: Write a checksum manifest next to the part directory
//   - [WithObserver]: Receive byte-count progress updates
//
// # Combining
//
// Use [Combine] to concatenate the parts of a directory, in ascending sequence
// order, into one output file. Files whose names are not purely numeric are
// ignored. [WithVerify] checks sizes and checksums against the manifest when
// one is present.
//
// # Storage Layout
//
//	games/title.nsp
//	games/title_split/01
//	games/title_split/02
//	games/title_split/03
//	games/title_split.manifest.json   (only with WithManifest)
//
// Part names are zero padded to the width needed for the whole split (at least
// two digits), so lexicographic and numeric order agree.
//
// # Manifest Format
//
//	{
//	  "source": "title.nsp",
//	  "total_size": 10485760,
//	  "part_size": 4194304,
//	  "parts": [
//	    {"name": "01", "size": 4194304, "checksum": "..."},
//	    ...
//	  ],
//	  "completed_at": "2025-01-15T10:30:00Z"
//	}
//
// # Failures
//
// Every error aborts the operation and is returned as an [*Error] whose kind
// can be tested with errors.Is against [ErrNotFound], [ErrInvalidInput],
// [ErrEmptyInput], [ErrAlreadyExists], [ErrCorrupt] or [ErrIO]. Partial
// output (an incomplete part directory or a truncated combined file) is left
// on disk; use [Delete] or remove it by hand before retrying.
//
// # Object Storage
//
// [Push] and [Pull] mirror a part directory to and from any gocloud.dev/blob
// bucket, using the manifest to verify what comes back.
package parts
