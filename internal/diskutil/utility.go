package diskutil

import (
	"context"
	"fmt"

	"github.com/diskofflaner/diskofflaner/internal/util"
)

// UtilImpl outlines the functionality necessary for wrapping macOS's diskutil tool. The methods are intentionally
// named to correspond to diskutil(8)'s subcommand names as its API.
type UtilImpl interface {
	// Info fetches raw disk information for the specified device identifier.
	Info(ctx context.Context, id string) (string, error)
	// List fetches all disk and partition information for the system.
	// This output will be filtered based on the args provided.
	List(ctx context.Context, args []string) (string, error)
	// ListHuman fetches the human-readable listing for the specified device identifier.
	ListHuman(ctx context.Context, id string) (string, error)
	// MountDisk mounts the volumes of a whole disk.
	MountDisk(ctx context.Context, id string) (util.CommandOutput, error)
	// UnmountDisk unmounts the volumes of a whole disk.
	UnmountDisk(ctx context.Context, id string) (util.CommandOutput, error)
	// Mount mounts a single volume.
	Mount(ctx context.Context, id string, mountPoint string) (util.CommandOutput, error)
	// Unmount unmounts a single volume.
	Unmount(ctx context.Context, target string) (util.CommandOutput, error)
}

// DiskUtilityCmd provides the implementation for the UtilImpl interface.
type DiskUtilityCmd struct {
	runner util.Runner
}

// List uses the macOS diskutil list command to list disks and partitions in a plist format by passing the -plist arg.
// List also appends any given args to fully support the diskutil list verb.
func (d *DiskUtilityCmd) List(ctx context.Context, args []string) (string, error) {
	// Create the diskutil command for retrieving all disk and partition information
	//   * -plist converts diskutil's output from human-readable to the plist format
	cmdListDisks := []string{"diskutil", "list", "-plist"}

	// Append arguments to the diskutil list verb
	if len(args) > 0 {
		cmdListDisks = append(cmdListDisks, args...)
	}

	cmdOut, err := d.runner.Execute(ctx, cmdListDisks, "")
	if err != nil {
		return cmdOut.Stdout, fmt.Errorf("diskutil: failed to run diskutil command to list all disks, stderr: [%s]: %w", cmdOut.Stderr, err)
	}

	return cmdOut.Stdout, nil
}

// Info uses the macOS diskutil info command to get detailed information about a disk, partition, or container
// format by passing the -plist arg.
func (d *DiskUtilityCmd) Info(ctx context.Context, id string) (string, error) {
	// Create the diskutil command for retrieving disk information given a device identifier
	//   * -plist converts diskutil's output from human-readable to the plist format
	//   * id - the device identifier or mount point for the disk to be fetched
	cmdDiskInfo := []string{"diskutil", "info", "-plist", id}

	cmdOut, err := d.runner.Execute(ctx, cmdDiskInfo, "")
	if err != nil {
		return cmdOut.Stdout, fmt.Errorf("diskutil: failed to run diskutil command to fetch disk information, stderr: [%s]: %w", cmdOut.Stderr, err)
	}

	return cmdOut.Stdout, nil
}

// ListHuman uses the macOS diskutil list command without -plist, which is the only listing that names the physical
// store of an APFS container on every release.
func (d *DiskUtilityCmd) ListHuman(ctx context.Context, id string) (string, error) {
	cmdOut, err := d.runner.Execute(ctx, []string{"diskutil", "list", id}, "")
	if err != nil {
		return "", fmt.Errorf("diskutil: failed to list %s, stderr: [%s]: %w", id, cmdOut.Stderr, err)
	}

	return cmdOut.Stdout, nil
}

// MountDisk uses the macOS diskutil mountDisk command. The raw output is returned with any error so callers can
// classify the failure from diskutil's own text.
func (d *DiskUtilityCmd) MountDisk(ctx context.Context, id string) (util.CommandOutput, error) {
	return d.runner.Execute(ctx, []string{"diskutil", "mountDisk", id}, "")
}

// UnmountDisk uses the macOS diskutil unmountDisk command.
func (d *DiskUtilityCmd) UnmountDisk(ctx context.Context, id string) (util.CommandOutput, error) {
	return d.runner.Execute(ctx, []string{"diskutil", "unmountDisk", id}, "")
}

// Mount uses the macOS diskutil mount command.
//   - -mountPoint mounts the volume at the given directory instead of below /Volumes
func (d *DiskUtilityCmd) Mount(ctx context.Context, id string, mountPoint string) (util.CommandOutput, error) {
	cmdMount := []string{"diskutil", "mount"}
	if mountPoint != "" {
		cmdMount = append(cmdMount, "-mountPoint", mountPoint)
	}
	cmdMount = append(cmdMount, id)

	return d.runner.Execute(ctx, cmdMount, "")
}

// Unmount uses the macOS diskutil unmount command.
func (d *DiskUtilityCmd) Unmount(ctx context.Context, target string) (util.CommandOutput, error) {
	return d.runner.Execute(ctx, []string{"diskutil", "unmount", target}, "")
}
