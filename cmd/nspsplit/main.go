package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/s3blob"

	"github.com/nspsplit/nspsplit/internal/config"
	"github.com/nspsplit/nspsplit/internal/progress"
	"github.com/nspsplit/nspsplit/pkg/parts"
)

// Exit codes
const (
	ExitSuccess          = 0
	ExitGeneralError     = 1
	ExitInvalidArgs      = 2
	ExitNotFound         = 3
	ExitEmptyInput       = 4
	ExitStorageError     = 5
	ExitAlreadyExists    = 6
	ExitValidationFailed = 7
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return execute(ctx, args, os.Stdin, os.Stdout, os.Stderr)
}

// execute runs the command line in args and returns the exit code.
func execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	a := &app{}
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return ExitSuccess
	}
	if !a.ran {
		// Flag, argument or configuration problem
		fmt.Fprintf(stderr, "Error: %v\n", err)
		fmt.Fprintln(stderr, "Run 'nspsplit --help' for usage.")
		return ExitInvalidArgs
	}

	var ee *exitError
	if errors.As(err, &ee) {
		if ee.msg != "" {
			fmt.Fprintf(stderr, "Error: %s\n", ee.msg)
		}
		return ee.code
	}
	if ctx.Err() != nil {
		fmt.Fprintln(stderr, "\n[nspsplit] Interrupted, partial output left in place")
		return ExitGeneralError
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return exitCode(err)
}

// exitCode maps an operation error to an exit code by kind.
func exitCode(err error) int {
	switch {
	case errors.Is(err, parts.ErrNotFound), errors.Is(err, fs.ErrNotExist):
		return ExitNotFound
	case errors.Is(err, parts.ErrEmptyInput):
		return ExitEmptyInput
	case errors.Is(err, parts.ErrInvalidInput):
		return ExitInvalidArgs
	case errors.Is(err, parts.ErrAlreadyExists):
		return ExitAlreadyExists
	case errors.Is(err, parts.ErrCorrupt):
		return ExitValidationFailed
	case errors.Is(err, parts.ErrIO):
		return ExitStorageError
	default:
		return ExitGeneralError
	}
}

// exitError carries an explicit exit code out of a command.
type exitError struct {
	code int
	msg  string
}

func (e *exitError) Error() string {
	if e.msg == "" {
		return fmt.Sprintf("exit %d", e.code)
	}
	return e.msg
}

// app holds the effective configuration and the raw flag values of the
// running command.
type app struct {
	cfg config.Config
	ran bool

	configPath string
	partSize   string
	bufferSize string
	extension  string
	bucket     string
	progress   bool
	manifest   bool
	verify     bool
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "nspsplit",
		Short: "Split large archives into FAT32-sized parts and join them back",
		Long: `nspsplit cuts large archive files (.nsp, .xci, ...) into numbered parts
that fit on FAT32 storage, and concatenates such parts back into one file.
Part sets can be mirrored to object storage and a drop folder can be watched
for new archives.`,
		SilenceErrors:     true,
		SilenceUsage:      true,
		PersistentPreRunE: a.loadConfig,
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "YAML config file (default $NSPSPLIT_CONFIG)")
	root.PersistentFlags().BoolVar(&a.progress, "progress", false, "Show progress output")
	root.PersistentFlags().StringVar(&a.bufferSize, "buffer-size", "", "Read buffer size (default 8MiB)")

	root.AddCommand(
		a.splitCmd(),
		a.combineCmd(),
		a.listCmd(),
		a.validateCmd(),
		a.deleteCmd(),
		a.pushCmd(),
		a.pullCmd(),
		a.watchCmd(),
	)
	return root
}

// loadConfig builds the effective configuration: defaults, then the config
// file, then the environment, then flags given on the command line.
func (a *app) loadConfig(cmd *cobra.Command, args []string) error {
	a.cfg = config.Default()

	path := a.configPath
	if path == "" {
		path = os.Getenv("NSPSPLIT_CONFIG")
	}
	if path != "" {
		cfg, err := config.LoadFromFile(path)
		if err != nil {
			return err
		}
		a.cfg = cfg
	}
	if err := a.cfg.LoadFromEnv(); err != nil {
		return err
	}

	flags := cmd.Flags()
	if flags.Changed("part-size") {
		size, err := progress.ParseBytes(a.partSize)
		if err != nil {
			return fmt.Errorf("invalid --part-size: %w", err)
		}
		a.cfg.PartSize = size
	}
	if flags.Changed("buffer-size") {
		size, err := progress.ParseBytes(a.bufferSize)
		if err != nil {
			return fmt.Errorf("invalid --buffer-size: %w", err)
		}
		a.cfg.BufferSize = size
	}
	if flags.Changed("extension") {
		a.cfg.Extension = a.extension
	}
	if flags.Changed("bucket") {
		a.cfg.Bucket = a.bucket
	}
	if flags.Changed("progress") {
		a.cfg.Progress = a.progress
	}
	if flags.Changed("manifest") {
		a.cfg.Manifest = a.manifest
	}
	if flags.Changed("verify") {
		a.cfg.Verify = a.verify
	}

	return a.cfg.Validate()
}

// runE marks the command as started, so later errors are reported by kind
// rather than as usage errors.
func (a *app) runE(fn func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a.ran = true
		return fn(cmd, args)
	}
}

// options returns the parts options shared by every command.
func (a *app) options(obs parts.Observer) []parts.Option {
	return []parts.Option{
		parts.WithPartSize(a.cfg.PartSize),
		parts.WithBufferSize(int(a.cfg.BufferSize)),
		parts.WithExtension(a.cfg.Extension),
		parts.WithManifest(a.cfg.Manifest),
		parts.WithVerify(a.cfg.Verify),
		parts.WithObserver(obs),
	}
}

// observer returns a started progress reporter when progress output is on,
// and parts.NopObserver otherwise. The returned stop func is always safe to
// call.
func (a *app) observer(cmd *cobra.Command, label, path string, total, partSize int64) (parts.Observer, func()) {
	if !a.cfg.Progress {
		return parts.NopObserver, func() {}
	}
	reporter := progress.NewReporter(progress.Options{
		Label:     label,
		Path:      path,
		TotalSize: total,
		PartSize:  partSize,
		Output:    cmd.ErrOrStderr(),
	})
	reporter.Start()
	return reporter, reporter.Stop
}

func (a *app) openBucket(ctx context.Context) (*blob.Bucket, error) {
	if a.cfg.Bucket == "" {
		return nil, &exitError{code: ExitInvalidArgs, msg: "--bucket is required (or set bucket in the config)"}
	}
	bkt, err := blob.OpenBucket(ctx, a.cfg.Bucket)
	if err != nil {
		return nil, &exitError{code: ExitStorageError, msg: fmt.Sprintf("opening bucket: %v", err)}
	}
	return bkt, nil
}

// pathArg returns the first argument or the working directory.
func pathArg(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return "."
}

func statusf(cmd *cobra.Command, format string, args ...any) {
	fmt.Fprintf(cmd.ErrOrStderr(), "[nspsplit] "+format+"\n", args...)
}
