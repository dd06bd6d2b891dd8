package parts

import (
	"errors"
	"fmt"
	"io/fs"
)

// Error kinds. Match them with errors.Is.
var (
	// ErrNotFound means the source file or part directory does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput means a path, name or option cannot be used.
	ErrInvalidInput = errors.New("invalid input")
	// ErrEmptyInput means a directory holds no part files.
	ErrEmptyInput = errors.New("no part files")
	// ErrAlreadyExists means the output would replace existing data.
	ErrAlreadyExists = errors.New("already exists")
	// ErrCorrupt means parts disagree with their manifest.
	ErrCorrupt = errors.New("corrupt parts")
	// ErrIO covers every read, write, create, flush or storage failure.
	ErrIO = errors.New("i/o error")
)

// Error describes a failed operation on a path.
//
// Kind is one of the package error kinds; Err is the underlying cause, such
// as the *fs.PathError returned by the operating system. Both are reachable
// through errors.Is and errors.As.
type Error struct {
	Op   string
	Path string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("parts: %s %s: %v", e.Op, e.Path, e.Kind)
	}
	return fmt.Sprintf("parts: %s %s: %v: %v", e.Op, e.Path, e.Kind, e.Err)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

func newError(op, path string, kind, err error) *Error {
	return &Error{Op: op, Path: path, Kind: kind, Err: err}
}

// ioError classifies an operating system error. Missing files map to
// ErrNotFound and existing files to ErrAlreadyExists, everything else is ErrIO.
func ioError(op, path string, err error) *Error {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return newError(op, path, ErrNotFound, err)
	case errors.Is(err, fs.ErrExist):
		return newError(op, path, ErrAlreadyExists, err)
	default:
		return newError(op, path, ErrIO, err)
	}
}
