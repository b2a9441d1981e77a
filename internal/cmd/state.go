package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/jwalton/gchalk"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/diskofflaner/diskofflaner/internal/topology"
)

// onlineCommand creates a new command which brings a disk online.
func onlineCommand(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "online <disk-id>",
		Short:   "bring a disk online",
		Args:    cobra.ExactArgs(1),
		PreRunE: g.warnUnprivileged,
	}

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		backend, err := backendFrom(cmd)
		if err != nil {
			return err
		}

		id := args[0]
		logrus.WithField("disk", id).Info("Bringing disk online...")
		if err := backend.SetOnline(cmd.Context(), id); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Disk %s is %s\n", id, gchalk.Green("online"))
		return nil
	}

	return cmd
}

// offlineCommand creates a new command which takes a disk offline.
func offlineCommand(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "offline <disk-id>",
		Short: "take a disk offline",
		Long: strings.TrimSpace(`
offline takes the disk offline. A disk with mounted volumes is refused
unless --force is given; the system disk is always refused.
`),
		Args:    cobra.ExactArgs(1),
		PreRunE: g.warnUnprivileged,
	}

	var force bool
	cmd.Flags().BoolVar(&force, "force", false, "Take the disk offline even when volumes are mounted")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		backend, err := backendFrom(cmd)
		if err != nil {
			return err
		}

		id := args[0]
		if !force {
			if err := checkUnmounted(cmd.Context(), backend, id); err != nil {
				return err
			}
		}

		logrus.WithField("disk", id).Info("Taking disk offline...")
		if err := backend.SetOffline(cmd.Context(), id); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Disk %s is %s\n", id, gchalk.Red("offline"))
		return nil
	}

	return cmd
}

// checkUnmounted refuses disks with mounted volumes. A disk missing from the enumeration is left for the backend to
// validate.
func checkUnmounted(ctx context.Context, backend topology.DiskBackend, id string) error {
	disks, err := backend.Enumerate(ctx)
	if err != nil {
		return fmt.Errorf("cannot check mounted volumes: %w", err)
	}

	for _, d := range disks {
		if d.ID != id {
			continue
		}
		var labels []string
		for _, p := range d.Partitions {
			if p.Mounted() {
				labels = append(labels, p.MountLabel)
			}
		}
		if len(labels) > 0 {
			return fmt.Errorf("disk %s has mounted volumes (%s), use --force to take it offline anyway: %w",
				id, strings.Join(labels, ", "), topology.ErrResourceInUse)
		}
	}

	return nil
}
