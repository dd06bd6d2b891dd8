package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/nspsplit/nspsplit/internal/progress"
	"github.com/nspsplit/nspsplit/pkg/parts"
)

func (a *app) splitCmd() *cobra.Command {
	var (
		outputDir string
		force     bool
	)

	cmd := &cobra.Command{
		Use:   "split [file|dir]",
		Short: "Split an archive into numbered parts",
		Long: `Split an archive into numbered parts of at most --part-size bytes, written
to <name>_split next to the archive (or under --output-dir).

Given a directory, every archive in it larger than the part size is split.
The path defaults to the working directory.`,
		Args: cobra.MaximumNArgs(1),
	}
	cmd.Flags().StringVar(&a.partSize, "part-size", "", "Maximum part size (default 0xFFFF0000)")
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "Directory to create part directories in")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Replace the parts in an existing part directory")
	cmd.Flags().BoolVar(&a.manifest, "manifest", false, "Write a manifest with part checksums")

	cmd.RunE = a.runE(func(cmd *cobra.Command, args []string) error {
		path := pathArg(args)
		info, err := os.Stat(path)
		if err != nil {
			return err
		}
		if !info.IsDir() {
			_, err := a.splitFile(cmd.Context(), cmd, path, outputDir, force)
			return err
		}

		entries, err := parts.List(path, a.cfg.Extensions)
		if err != nil {
			return err
		}
		var firstErr error
		split := 0
		for _, e := range entries {
			if e.Kind != parts.KindArchive {
				continue
			}
			if e.Size <= a.cfg.PartSize {
				statusf(cmd, "Skipping %s: %s fits in one part", e.Name, progress.FormatBytes(e.Size))
				continue
			}
			if _, err := a.splitFile(cmd.Context(), cmd, e.Path, outputDir, force); err != nil {
				if cmd.Context().Err() != nil {
					return err
				}
				statusf(cmd, "Failed to split %s: %v", e.Name, err)
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			split++
		}
		if split == 0 && firstErr == nil {
			statusf(cmd, "No archives larger than %s in %s", progress.FormatBytes(a.cfg.PartSize), path)
		}
		return firstErr
	})
	return cmd
}

// splitFile splits one archive and reports the result.
func (a *app) splitFile(ctx context.Context, cmd *cobra.Command, path, outputDir string, force bool) (*parts.SplitResult, error) {
	var total int64
	if info, err := os.Stat(path); err == nil {
		total = info.Size()
	}
	obs, stop := a.observer(cmd, "Splitting", path, total, a.cfg.PartSize)
	defer stop()

	opts := append(a.options(obs),
		parts.WithOutputDir(outputDir),
		parts.WithForce(force),
	)
	result, err := parts.Split(ctx, path, opts...)
	if err != nil {
		return nil, err
	}

	statusf(cmd, "Split %s into %d parts: %s", path, len(result.Parts), result.Dir)
	if result.Manifest != nil {
		statusf(cmd, "Manifest: %s", parts.ManifestPath(result.Dir))
	}
	return result, nil
}
