package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/nspsplit/nspsplit/pkg/parts"
)

func (a *app) combineCmd() *cobra.Command {
	var (
		output string
		force  bool
	)

	cmd := &cobra.Command{
		Use:   "combine [dir]",
		Short: "Join numbered parts back into one archive",
		Long: `Concatenate the numbered parts in dir, in ascending order, into one file
named after the directory without its _split suffix plus --extension, placed
next to the directory.

If dir holds no parts itself, every part directory inside it is combined.
The path defaults to the working directory.`,
		Args: cobra.MaximumNArgs(1),
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (single part directory only)")
	cmd.Flags().StringVarP(&a.extension, "extension", "e", "", "Extension of the combined file (default: source extension from the manifest, else .nsp)")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Replace an existing output file")
	cmd.Flags().BoolVar(&a.verify, "verify", false, "Check parts against the manifest checksums")

	cmd.RunE = a.runE(func(cmd *cobra.Command, args []string) error {
		dir := pathArg(args)

		_, err := a.combineDir(cmd.Context(), cmd, dir, output, force)
		if !errors.Is(err, parts.ErrEmptyInput) || output != "" {
			return err
		}

		entries, listErr := parts.List(dir, a.cfg.Extensions)
		if listErr != nil {
			return err
		}
		var firstErr error
		combined := 0
		for _, e := range entries {
			if e.Kind != parts.KindPartDir {
				continue
			}
			if _, err := a.combineDir(cmd.Context(), cmd, e.Path, "", force); err != nil {
				if cmd.Context().Err() != nil {
					return err
				}
				statusf(cmd, "Failed to combine %s: %v", e.Name, err)
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			combined++
		}
		if combined == 0 && firstErr == nil {
			return err
		}
		return firstErr
	})
	return cmd
}

// combineDir combines one part directory and reports the result.
func (a *app) combineDir(ctx context.Context, cmd *cobra.Command, dir, output string, force bool) (*parts.CombineResult, error) {
	var total int64
	if found, err := parts.ScanParts(dir); err == nil {
		for _, p := range found {
			total += p.Size
		}
	}
	obs, stop := a.observer(cmd, "Combining", dir, total, 0)
	defer stop()

	opts := append(a.options(obs), parts.WithForce(force))
	if output != "" {
		opts = append(opts, parts.WithOutput(output))
	}
	result, err := parts.Combine(ctx, dir, opts...)
	if err != nil {
		return nil, err
	}

	if result.Verified {
		statusf(cmd, "Verified %d parts against manifest", len(result.Parts))
	}
	statusf(cmd, "Combined %d parts into %s", len(result.Parts), result.Output)
	return result, nil
}
