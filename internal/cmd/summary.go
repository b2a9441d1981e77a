package cmd

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/diskofflaner/diskofflaner/internal/contextual"
	"github.com/diskofflaner/diskofflaner/internal/system"
)

// summaryCommand creates a new command which prints the OS and disk totals.
func summaryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "show the OS and disk totals",
		Args:  cobra.NoArgs,
	}

	var asJSON, refresh bool
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the summary as JSON")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "Collect the summary again instead of using the cached one")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		cache := contextual.Summary(cmd.Context())
		if cache == nil {
			return errors.New("summary cache required in context")
		}

		get := cache.Get
		if refresh {
			get = cache.Refresh
		}
		summary, err := get(cmd.Context())
		if err != nil {
			return fmt.Errorf("cannot summarize system: %w", err)
		}

		if asJSON {
			return writeJSON(cmd.OutOrStdout(), summary)
		}
		return writeSummary(cmd.OutOrStdout(), summary)
	}

	return cmd
}

func writeSummary(w io.Writer, s system.Summary) error {
	systemDisk := s.SystemDiskID
	if systemDisk == "" {
		systemDisk = "unknown"
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "OS:\t%s %s\n", s.OSName, s.OSVersion)
	if s.Release != "" {
		fmt.Fprintf(tw, "Release:\t%s\n", s.Release)
	}
	fmt.Fprintf(tw, "Elevated:\t%t\n", s.Elevated)
	fmt.Fprintf(tw, "Disks:\t%d\n", s.DiskCount)
	fmt.Fprintf(tw, "Capacity:\t%s\n", humanize.Bytes(s.TotalBytes))
	fmt.Fprintf(tw, "System disk:\t%s\n", systemDisk)
	return tw.Flush()
}
