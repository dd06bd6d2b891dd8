package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nspsplit/nspsplit/internal/progress"
	"github.com/nspsplit/nspsplit/pkg/parts"
)

func (a *app) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list [dir]",
		Short: "List archives, parts and part directories",
		Long: `List the archives (by extension), numbered part files and part directories
directly inside dir. The path defaults to the working directory.`,
		Args: cobra.MaximumNArgs(1),
		RunE: a.runE(func(cmd *cobra.Command, args []string) error {
			dir := pathArg(args)
			entries, err := parts.List(dir, a.cfg.Extensions)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				statusf(cmd, "No archives or parts in %s", dir)
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KIND\tSIZE\tPARTS\tNAME")
			for _, e := range entries {
				count := "-"
				if e.Kind == parts.KindPartDir {
					count = fmt.Sprint(e.Parts)
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.Kind, progress.FormatBytes(e.Size), count, e.Name)
			}
			return tw.Flush()
		}),
	}
}
