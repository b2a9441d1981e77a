// Package diskutil provides the functionality necessary for interacting with macOS's diskutil CLI.
package diskutil

//go:generate mockgen -destination mocks/mock_diskutil.go github.com/diskofflaner/diskofflaner/internal/diskutil DiskUtil

import (
	"context"
	"strings"

	"github.com/diskofflaner/diskofflaner/internal/diskutil/types"
	"github.com/diskofflaner/diskofflaner/internal/util"
)

// DiskUtil outlines the functionality necessary for wrapping macOS's diskutil tool.
type DiskUtil interface {
	// Info fetches raw disk information for the specified device identifier or mount point.
	Info(ctx context.Context, id string) (*types.DiskInfo, error)
	// List fetches all disk and partition information for the system.
	// This output will be filtered based on the args provided.
	List(ctx context.Context, args []string) (*types.SystemPartitions, error)
	// PhysicalStore resolves the physical store backing an APFS container or volume from diskutil's human-readable
	// listing. It is used when the plist output omits the store.
	PhysicalStore(ctx context.Context, id string) (string, error)
	// MountDisk mounts every mountable volume of the whole disk.
	MountDisk(ctx context.Context, id string) (util.CommandOutput, error)
	// UnmountDisk unmounts every volume of the whole disk.
	UnmountDisk(ctx context.Context, id string) (util.CommandOutput, error)
	// Mount mounts a single volume, at mountPoint when it is not empty.
	Mount(ctx context.Context, id string, mountPoint string) (util.CommandOutput, error)
	// Unmount unmounts a single volume by device identifier or mount point.
	Unmount(ctx context.Context, target string) (util.CommandOutput, error)
}

// diskutilCmd wraps all the functionality necessary for interacting with macOS's diskutil in GoLang.
type diskutilCmd struct {
	// UtilImpl provides the raw diskutil verbs.
	UtilImpl

	// dec is the Decoder used to decode the raw output from UtilImpl into usable structs.
	dec Decoder
}

// Type assertion to ensure diskutilCmd implements the DiskUtil interface.
var _ DiskUtil = (*diskutilCmd)(nil)

// New creates a DiskUtil that runs diskutil through runner.
func New(runner util.Runner) DiskUtil {
	return &diskutilCmd{
		UtilImpl: &DiskUtilityCmd{runner: runner},
		dec:      &PlistDecoder{},
	}
}

// List utilizes the UtilImpl.List method to fetch the raw list output from diskutil and returns the decoded
// output in a SystemPartitions struct.
func (d *diskutilCmd) List(ctx context.Context, args []string) (*types.SystemPartitions, error) {
	return list(ctx, d.UtilImpl, d.dec, args)
}

// Info utilizes the UtilImpl.Info method to fetch the raw disk output from diskutil and returns the decoded
// output in a DiskInfo struct.
func (d *diskutilCmd) Info(ctx context.Context, id string) (*types.DiskInfo, error) {
	return info(ctx, d.UtilImpl, d.dec, id)
}

// PhysicalStore parses the human-readable listing for the given ID in order to fetch its physical store.
func (d *diskutilCmd) PhysicalStore(ctx context.Context, id string) (string, error) {
	raw, err := d.UtilImpl.ListHuman(ctx, id)
	if err != nil {
		return "", err
	}

	return parsePhysicalStoreID(raw)
}

// info is a wrapper that fetches the raw diskutil info data and decodes it into a usable types.DiskInfo struct.
func info(ctx context.Context, impl UtilImpl, decoder Decoder, id string) (*types.DiskInfo, error) {
	// Fetch the raw disk information from the util
	rawDisk, err := impl.Info(ctx, id)
	if err != nil {
		return nil, err
	}

	// Decode the raw data into a more usable DiskInfo struct
	return decoder.DecodeDiskInfo(strings.NewReader(rawDisk))
}

// list is a wrapper that fetches the raw diskutil list data and decodes it into a usable types.SystemPartitions struct.
func list(ctx context.Context, impl UtilImpl, decoder Decoder, args []string) (*types.SystemPartitions, error) {
	// Fetch the raw list information from the util
	rawPartitions, err := impl.List(ctx, args)
	if err != nil {
		return nil, err
	}

	// Decode the raw data into a more usable SystemPartitions struct
	return decoder.DecodeSystemPartitions(strings.NewReader(rawPartitions))
}
