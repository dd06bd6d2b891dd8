package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nspsplit/nspsplit/pkg/parts"
)

// validateCmd checks a part set without combining it. With --prefix the
// remote copy is checked instead, using object attributes only.
func (a *app) validateCmd() *cobra.Command {
	var (
		prefix        string
		writeManifest bool
	)

	cmd := &cobra.Command{
		Use:   "validate [dir]",
		Short: "Check that a part set is complete",
		Long: `Check that the parts in dir form a complete sequence with consistent sizes.
If a manifest exists, parts are checked against it; --verify also compares
SHA-256 checksums.

With --prefix, the part set stored in --bucket under that prefix is checked
against its remote manifest instead. No part data is downloaded.

--write-manifest hashes a valid part set that has no manifest yet and writes
one next to the directory.`,
		Args: cobra.MaximumNArgs(1),
	}
	cmd.Flags().BoolVar(&a.verify, "verify", false, "Also compare part checksums")
	cmd.Flags().StringVar(&a.bucket, "bucket", "", "Bucket URL for --prefix")
	cmd.Flags().StringVar(&prefix, "prefix", "", "Validate the remote part set under this prefix")
	cmd.Flags().BoolVar(&writeManifest, "write-manifest", false, "Write a manifest for a valid part set without one")

	cmd.RunE = a.runE(func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		var (
			name   string
			result *parts.ValidationResult
			err    error
		)
		if prefix != "" {
			bkt, err := a.openBucket(ctx)
			if err != nil {
				return err
			}
			defer bkt.Close()

			name = prefix
			result, err = parts.ValidateRemote(ctx, bkt, prefix)
			if err != nil {
				return err
			}
		} else {
			name = pathArg(args)
			result, err = parts.Validate(ctx, name, a.options(parts.NopObserver)...)
			if err != nil {
				return err
			}
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "Parts: %s\n", name)
		fmt.Fprintf(out, "Total size: %d bytes\n", result.TotalSize)
		fmt.Fprintf(out, "Count: %d\n", result.PartCount)
		if result.HasManifest {
			fmt.Fprintln(out, "Manifest: yes")
		} else {
			fmt.Fprintln(out, "Manifest: no")
		}

		if result.Valid {
			fmt.Fprintln(out, "Status: VALID")
			if writeManifest && prefix == "" && !result.HasManifest {
				m, err := parts.BuildManifest(name)
				if err != nil {
					return err
				}
				if err := parts.WriteManifest(name, m); err != nil {
					return err
				}
				statusf(cmd, "Manifest: %s", parts.ManifestPath(name))
			}
			return nil
		}

		fmt.Fprintln(out, "Status: INVALID")
		fmt.Fprintf(out, "Missing parts: %d\n", result.MissingParts)
		fmt.Fprintf(out, "Extra parts: %d\n", result.ExtraParts)
		fmt.Fprintf(out, "Size mismatches: %d\n", result.SizeMismatches)
		fmt.Fprintf(out, "Checksum mismatches: %d\n", result.ChecksumMismatches)

		if len(result.Errors) > 0 {
			fmt.Fprintln(out, "\nErrors:")
			for _, e := range result.Errors {
				fmt.Fprintf(out, "  - %s\n", e)
			}
		}

		return &exitError{code: ExitValidationFailed}
	})
	return cmd
}
