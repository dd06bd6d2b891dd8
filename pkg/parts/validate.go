package parts

import (
	"context"
	"errors"
	"fmt"
)

// ValidationResult contains the results of validating a part directory.
type ValidationResult struct {
	Valid              bool     // true if no problems were found
	HasManifest        bool     // a manifest sidecar was used
	TotalSize          int64    // sum of part sizes on disk
	PartCount          int      // number of parts on disk
	MissingParts       int      // parts in the manifest or sequence that don't exist
	ExtraParts         int      // parts on disk the manifest doesn't list
	SizeMismatches     int      // parts with the wrong size
	ChecksumMismatches int      // parts whose content hash differs (WithVerify)
	Errors             []string // detailed error messages
}

// Validate checks a part directory without combining it.
//
// With a manifest sidecar, every listed part must exist with the recorded
// size; WithVerify also hashes each part and compares checksums. Without a
// manifest, the sequence must be complete and every part but the last must
// have the size of the first one.
//
// Returns an error if:
//   - dir doesn't exist (ErrNotFound)
//   - dir holds no parts (ErrEmptyInput)
//   - The manifest is unreadable (ErrCorrupt)
//   - A part cannot be read for hashing (ErrIO)
//   - The context is cancelled (the context error)
//
// Problems with the parts themselves are NOT returned as errors.
// They are reported in the ValidationResult with Valid=false.
func Validate(ctx context.Context, dir string, options ...Option) (*ValidationResult, error) {
	opts := applyOptions(options)

	parts, err := ScanParts(dir)
	if err != nil {
		return nil, err
	}
	if len(parts) == 0 {
		return nil, newError("validate", dir, ErrEmptyInput, nil)
	}

	result := &ValidationResult{
		Valid:     true,
		TotalSize: totalSize(parts),
		PartCount: len(parts),
		Errors:    make([]string, 0),
	}

	manifest, err := ReadManifest(dir)
	switch {
	case err == nil:
		result.HasManifest = true
		if err := validateAgainstManifest(ctx, result, parts, manifest, opts); err != nil {
			return nil, err
		}
	case errors.Is(err, ErrNotFound):
		validateSequence(result, parts)
	default:
		return nil, err
	}

	return result, nil
}

func validateAgainstManifest(ctx context.Context, result *ValidationResult, parts []PartInfo, m *Manifest, opts Options) error {
	byName := make(map[string]PartInfo, len(parts))
	for _, p := range parts {
		byName[p.Name] = p
	}

	var buf []byte
	if opts.Verify {
		buf = make([]byte, opts.BufferSize)
	}

	for _, want := range m.Parts {
		if err := ctx.Err(); err != nil {
			return err
		}

		p, ok := byName[want.Name]
		if !ok {
			result.fail(&result.MissingParts, "part %s missing", want.Name)
			continue
		}
		delete(byName, want.Name)

		if p.Size != want.Size {
			result.fail(&result.SizeMismatches, "part %s size mismatch: expected %d, got %d", p.Name, want.Size, p.Size)
			continue
		}

		if opts.Verify && want.Checksum != "" {
			sum, err := hashFile(p.Path, buf)
			if err != nil {
				return err
			}
			if sum != want.Checksum {
				result.fail(&result.ChecksumMismatches, "part %s checksum mismatch", p.Name)
			}
		}
	}

	for _, p := range parts {
		if _, extra := byName[p.Name]; extra {
			result.fail(&result.ExtraParts, "part %s not in manifest", p.Name)
		}
	}
	if result.TotalSize != m.TotalSize && result.MissingParts == 0 && result.ExtraParts == 0 && result.SizeMismatches == 0 {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("total size mismatch: expected %d, got %d", m.TotalSize, result.TotalSize))
	}
	return nil
}

func validateSequence(result *ValidationResult, parts []PartInfo) {
	next := 1
	for i, p := range parts {
		switch {
		case p.Seq < next:
			result.Valid = false
			result.Errors = append(result.Errors, fmt.Sprintf("part %s out of sequence", p.Name))
			continue
		case p.Seq > next:
			for seq := next; seq < p.Seq; seq++ {
				result.fail(&result.MissingParts, "part %d missing", seq)
			}
		}
		next = p.Seq + 1

		if len(p.Name) != len(parts[0].Name) {
			result.Valid = false
			result.Errors = append(result.Errors, fmt.Sprintf("part %s is not %d digits wide", p.Name, len(parts[0].Name)))
		}
		if i == 0 || i == len(parts)-1 && p.Size <= parts[0].Size {
			continue
		}
		if p.Size != parts[0].Size {
			result.fail(&result.SizeMismatches, "part %s size %d differs from part size %d", p.Name, p.Size, parts[0].Size)
		}
	}
}

func (r *ValidationResult) fail(counter *int, format string, args ...any) {
	r.Valid = false
	*counter++
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}
