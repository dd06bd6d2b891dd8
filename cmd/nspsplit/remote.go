package main

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nspsplit/nspsplit/pkg/parts"
)

func (a *app) pushCmd() *cobra.Command {
	var prefix string

	cmd := &cobra.Command{
		Use:   "push <dir>",
		Short: "Upload a part set to object storage",
		Long: `Upload the parts in dir to --bucket under --prefix, followed by a manifest
with part sizes and checksums. The prefix defaults to the directory name
without its _split suffix.

Bucket URLs use gocloud.dev syntax: file:///path, s3://bucket, gs://bucket.`,
		Args: cobra.ExactArgs(1),
	}
	cmd.Flags().StringVar(&a.bucket, "bucket", "", "Destination bucket URL")
	cmd.Flags().StringVar(&prefix, "prefix", "", "Object prefix for the parts")

	cmd.RunE = a.runE(func(cmd *cobra.Command, args []string) error {
		dir := args[0]
		if prefix == "" {
			prefix = remotePrefix(dir)
		}

		bkt, err := a.openBucket(cmd.Context())
		if err != nil {
			return err
		}
		defer bkt.Close()

		var total int64
		if found, err := parts.ScanParts(dir); err == nil {
			for _, p := range found {
				total += p.Size
			}
		}
		obs, stop := a.observer(cmd, "Pushing", dir, total, 0)
		defer stop()

		m, err := parts.Push(cmd.Context(), bkt, dir, prefix, a.options(obs)...)
		if err != nil {
			return err
		}
		statusf(cmd, "Pushed %d parts to %s under %s", len(m.Parts), a.cfg.Bucket, prefix)
		return nil
	})
	return cmd
}

func (a *app) pullCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "pull <prefix> [dir]",
		Short: "Download a part set from object storage",
		Long: `Download the part set stored in --bucket under prefix into dir, checking
every part against the remote manifest. dir defaults to <prefix name>_split
in the working directory and must not exist unless --force is given. With
--force only the old parts and manifest are replaced; other files in dir
are kept.`,
		Args: cobra.RangeArgs(1, 2),
	}
	cmd.Flags().StringVar(&a.bucket, "bucket", "", "Source bucket URL")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Replace the parts in an existing directory")

	cmd.RunE = a.runE(func(cmd *cobra.Command, args []string) error {
		prefix := args[0]
		dir := path.Base(strings.TrimSuffix(prefix, "/")) + parts.DirSuffix
		if len(args) > 1 {
			dir = args[1]
		}

		bkt, err := a.openBucket(cmd.Context())
		if err != nil {
			return err
		}
		defer bkt.Close()

		obs, stop := a.observer(cmd, "Pulling", prefix, 0, 0)
		defer stop()

		opts := append(a.options(obs), parts.WithForce(force))
		m, err := parts.Pull(cmd.Context(), bkt, prefix, dir, opts...)
		if err != nil {
			return err
		}
		statusf(cmd, "Pulled %d parts into %s", len(m.Parts), dir)
		return nil
	})
	return cmd
}

// remotePrefix derives an object prefix from a part directory path.
func remotePrefix(dir string) string {
	abs, err := filepath.Abs(dir)
	if err != nil {
		abs = dir
	}
	return strings.TrimSuffix(filepath.Base(abs), parts.DirSuffix)
}
