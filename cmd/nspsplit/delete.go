package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nspsplit/nspsplit/pkg/parts"
)

// deleteCmd removes a part set, locally or under a bucket prefix.
// By default it prompts for confirmation unless --force is specified.
func (a *app) deleteCmd() *cobra.Command {
	var (
		prefix string
		force  bool
	)

	cmd := &cobra.Command{
		Use:   "delete [dir]",
		Short: "Remove a part set and its manifest",
		Long: `Remove the numbered parts in dir and the manifest next to it, then dir
itself if nothing else is left in it. Use it to clear a failed split.

With --prefix, the part set stored in --bucket under that prefix is removed
instead.`,
		Args: cobra.MaximumNArgs(1),
	}
	cmd.Flags().StringVar(&a.bucket, "bucket", "", "Bucket URL for --prefix")
	cmd.Flags().StringVar(&prefix, "prefix", "", "Delete the remote part set under this prefix")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip confirmation prompt")

	cmd.RunE = a.runE(func(cmd *cobra.Command, args []string) error {
		target := pathArg(args)
		if prefix != "" {
			target = a.cfg.Bucket + " " + prefix
		}

		if !force {
			fmt.Fprintf(cmd.OutOrStdout(), "Delete parts %s? [y/N]: ", target)
			reader := bufio.NewReader(cmd.InOrStdin())
			response, _ := reader.ReadString('\n')
			response = strings.TrimSpace(strings.ToLower(response))
			if response != "y" && response != "yes" {
				fmt.Fprintln(cmd.ErrOrStderr(), "Cancelled")
				return nil
			}
		}

		if prefix != "" {
			bkt, err := a.openBucket(cmd.Context())
			if err != nil {
				return err
			}
			defer bkt.Close()

			if err := parts.DeleteRemote(cmd.Context(), bkt, prefix); err != nil {
				return err
			}
			statusf(cmd, "Deleted: %s", target)
			return nil
		}

		removed, err := parts.Delete(target)
		if err != nil {
			return err
		}
		statusf(cmd, "Deleted %d parts from %s", removed, target)
		return nil
	})
	return cmd
}
