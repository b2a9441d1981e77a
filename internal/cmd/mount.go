package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/diskofflaner/diskofflaner/internal/topology"
)

// mount is a struct for holding all information passed into the mount command.
type mount struct {
	disk      string
	partition uint32
	label     string
}

// mountCommand creates a new command which mounts a partition.
func mountCommand(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mount <disk-id> <partition>",
		Short: "mount a partition",
		Long: strings.TrimSpace(`
mount mounts a partition of the disk. On Windows the label is the drive
letter to assign (see 'letters'); on macOS it is the directory to mount
at. Without a label the OS picks one.
`),
		Args:    cobra.ExactArgs(2),
		PreRunE: g.warnUnprivileged,
	}

	mountArgs := mount{}
	cmd.Flags().StringVar(&mountArgs.label, "label", "", "drive letter or mount point to use")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		backend, err := backendFrom(cmd)
		if err != nil {
			return err
		}

		n, err := strconv.ParseUint(args[1], 10, 32)
		if err != nil {
			return fmt.Errorf("partition %q is not a number: %w", args[1], topology.ErrInvalidArgument)
		}
		mountArgs.disk = args[0]
		mountArgs.partition = uint32(n)

		logrus.WithField("args", mountArgs).Debug("Running mount command with args")
		assigned, err := backend.Mount(cmd.Context(), mountArgs.disk, mountArgs.partition, mountArgs.label)
		if err != nil {
			return err
		}

		if assigned == "" {
			fmt.Fprintf(cmd.OutOrStdout(), "Partition %d of disk %s mounted\n", mountArgs.partition, mountArgs.disk)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "Partition %d of disk %s mounted at %s\n", mountArgs.partition, mountArgs.disk, assigned)
		}
		return nil
	}

	return cmd
}

// unmountCommand creates a new command which unmounts a volume by its label.
func unmountCommand(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "unmount <label>",
		Short:   "unmount a volume by drive letter or mount point",
		Args:    cobra.ExactArgs(1),
		PreRunE: g.warnUnprivileged,
	}

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		backend, err := backendFrom(cmd)
		if err != nil {
			return err
		}

		label := args[0]
		logrus.WithField("label", label).Info("Unmounting volume...")
		if err := backend.Unmount(cmd.Context(), label); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Unmounted %s\n", label)
		return nil
	}

	return cmd
}

// lettersCommand creates a new command which lists the labels mount accepts.
func lettersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "letters",
		Short: "list the drive letters available to mount",
		Args:  cobra.NoArgs,
	}

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		backend, err := backendFrom(cmd)
		if err != nil {
			return err
		}

		labels, err := backend.AvailableMountLabels(cmd.Context())
		if err != nil {
			return err
		}
		if len(labels) == 0 {
			logrus.Info("No mount labels are offered on this platform")
			return nil
		}

		for _, l := range labels {
			fmt.Fprintln(cmd.OutOrStdout(), l)
		}
		return nil
	}

	return cmd
}
