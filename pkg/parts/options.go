package parts

// Observer receives advisory progress updates while bytes stream through
// Split, Combine, Push and Pull. It never affects the outcome.
type Observer interface {
	// Progress reports done bytes out of total so far. done only grows.
	Progress(done, total int64)
	// Finish is called once after a successful run.
	Finish()
}

type nopObserver struct{}

func (nopObserver) Progress(done, total int64) {}
func (nopObserver) Finish()                    {}

// NopObserver discards all updates.
var NopObserver Observer = nopObserver{}

// Options configures split and combine operations.
type Options struct {
	PartSize   int64
	BufferSize int
	OutputDir  string // Parent of the part directory (split)
	Output     string // Combined file path (combine)
	Extension  string
	Force      bool
	Manifest   bool
	Verify     bool
	Observer   Observer
}

// Option is a functional option for configuring operations.
type Option func(*Options)

func applyOptions(options []Option) Options {
	opts := Options{
		PartSize:   DefaultPartSize,
		BufferSize: DefaultBufferSize,
	}
	for _, opt := range options {
		opt(&opts)
	}
	if opts.Observer == nil {
		opts.Observer = NopObserver
	}
	return opts
}

// WithPartSize sets the maximum size of each part.
func WithPartSize(size int64) Option {
	return func(o *Options) {
		o.PartSize = size
	}
}

// WithBufferSize sets the size of the streaming buffer. Memory use of an
// operation is bounded by this value, independent of file size.
func WithBufferSize(size int) Option {
	return func(o *Options) {
		o.BufferSize = size
	}
}

// WithOutputDir places the part directory under dir instead of next to the
// source file.
func WithOutputDir(dir string) Option {
	return func(o *Options) {
		o.OutputDir = dir
	}
}

// WithOutput sets the combined file path instead of deriving it from the part
// directory.
func WithOutput(path string) Option {
	return func(o *Options) {
		o.Output = path
	}
}

// WithExtension sets the extension appended to the combined file name. An
// empty ext restores the default of using the source extension.
func WithExtension(ext string) Option {
	return func(o *Options) {
		o.Extension = ext
	}
}

// WithForce replaces existing output instead of failing with ErrAlreadyExists.
// For Split and Pull the old parts and manifest are removed first, so stale
// parts are never merged with new ones. Other files in the directory are kept.
func WithForce(force bool) Option {
	return func(o *Options) {
		o.Force = force
	}
}

// WithManifest makes Split and Pull write a manifest sidecar with part sizes
// and SHA-256 checksums.
func WithManifest(manifest bool) Option {
	return func(o *Options) {
		o.Manifest = manifest
	}
}

// WithVerify makes Combine and Validate check parts against the manifest
// sidecar, including checksums, when one is present.
func WithVerify(verify bool) Option {
	return func(o *Options) {
		o.Verify = verify
	}
}

// WithObserver sets the progress observer.
func WithObserver(obs Observer) Option {
	return func(o *Options) {
		o.Observer = obs
	}
}
