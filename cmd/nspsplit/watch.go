package main

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/spf13/cobra"
	"gocloud.dev/blob"

	"github.com/nspsplit/nspsplit/internal/watcher"
	"github.com/nspsplit/nspsplit/pkg/parts"
)

func (a *app) watchCmd() *cobra.Command {
	var (
		outputDir string
		debounce  time.Duration
		push      bool
	)

	cmd := &cobra.Command{
		Use:   "watch [dir]",
		Short: "Split archives as they land in a drop folder",
		Long: `Watch dir for new archives and split each one larger than the part size
once it has stopped changing for --debounce. Sources are never deleted.

With --push, every new part set is also uploaded to --bucket under the
archive name. Runs until interrupted.`,
		Args: cobra.MaximumNArgs(1),
	}
	cmd.Flags().StringVar(&a.partSize, "part-size", "", "Maximum part size (default 0xFFFF0000)")
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "Directory to create part directories in (default watch.output)")
	cmd.Flags().DurationVar(&debounce, "debounce", 0, "Quiet period before a file is split (default watch.debounce)")
	cmd.Flags().BoolVar(&a.manifest, "manifest", false, "Write a manifest with part checksums")
	cmd.Flags().BoolVar(&push, "push", false, "Upload each new part set to --bucket")
	cmd.Flags().StringVar(&a.bucket, "bucket", "", "Bucket URL for --push")

	cmd.RunE = a.runE(func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		dir := pathArg(args)

		if outputDir == "" {
			outputDir = a.cfg.Watch.Output
		}
		if debounce <= 0 {
			debounce = a.cfg.Watch.Debounce
		}

		var bkt *blob.Bucket
		if push {
			var err error
			if bkt, err = a.openBucket(ctx); err != nil {
				return err
			}
			defer bkt.Close()
		}

		w, err := watcher.New(dir, watcher.Options{
			Extensions: a.cfg.Extensions,
			Debounce:   debounce,
			MinSize:    a.cfg.PartSize,
			Logger:     log.New(cmd.ErrOrStderr(), "[nspsplit] ", log.LstdFlags),
		})
		if err != nil {
			return err
		}
		defer w.Close()

		err = w.Run(ctx, func(ctx context.Context, path string) error {
			// A rewritten archive replaces its earlier part set
			result, err := a.splitFile(ctx, cmd, path, outputDir, true)
			if err != nil || bkt == nil {
				return err
			}
			prefix := remotePrefix(result.Dir)
			if _, err := parts.Push(ctx, bkt, result.Dir, prefix, a.options(parts.NopObserver)...); err != nil {
				return err
			}
			statusf(cmd, "Pushed %s to %s under %s", result.Dir, a.cfg.Bucket, prefix)
			return nil
		})
		if errors.Is(err, context.Canceled) {
			statusf(cmd, "Stopped watching %s", dir)
			return nil
		}
		return err
	})
	return cmd
}
