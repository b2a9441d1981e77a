package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/jwalton/gchalk"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/diskofflaner/diskofflaner/internal/topology"
)

// listCommand creates a new command which prints every physical disk with its partitions.
func listCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "list physical disks",
		Long: strings.TrimSpace(`
list prints every physical disk with its model, size, type, health and
online state, followed by its partitions and where they are mounted.
Disks that cannot be queried are left out.
`),
		Args: cobra.NoArgs,
	}

	var asJSON bool
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the disks as JSON")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		backend, err := backendFrom(cmd)
		if err != nil {
			return err
		}

		disks, err := backend.Enumerate(cmd.Context())
		if err != nil {
			return fmt.Errorf("cannot list disks: %w", err)
		}
		logrus.WithField("disks", len(disks)).Debug("Enumerated disks")

		if asJSON {
			return writeJSON(cmd.OutOrStdout(), disks)
		}
		return writeDisks(cmd.OutOrStdout(), disks)
	}

	return cmd
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeDisks prints the disks as an aligned table with one row per partition below each disk.
func writeDisks(w io.Writer, disks []topology.Disk) error {
	if len(disks) == 0 {
		_, err := fmt.Fprintln(w, "No disks found")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DISK\tMODEL\tSIZE\tTYPE\tHEALTH\tSTATUS")
	for _, d := range disks {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", d.ID, d.Model, humanize.Bytes(d.Size), d.Type, health(d.Health), status(d))
		for _, p := range d.Partitions {
			mounted := "-"
			if p.Mounted() {
				mounted = p.MountLabel
			}
			fmt.Fprintf(tw, "  #%d\t%s\t%s\t\t\t%s\n", p.Number, p.ID, humanize.Bytes(p.Size), mounted)
		}
	}
	return tw.Flush()
}

func health(h *uint8) string {
	if h == nil {
		return "n/a"
	}
	return fmt.Sprintf("%d%%", *h)
}

func status(d topology.Disk) string {
	s := gchalk.Red("offline")
	if d.Online {
		s = gchalk.Green("online")
	}
	if d.System {
		s += " " + gchalk.Yellow("(system)")
	}
	return s
}
