package diskutil

import (
	"fmt"
	"io"

	"howett.net/plist"

	"github.com/diskofflaner/diskofflaner/internal/diskutil/types"
)

// Decoder outlines the functionality necessary for decoding plist output from the macOS diskutil command.
type Decoder interface {
	// DecodeSystemPartitions decodes the "diskutil list -plist" output.
	DecodeSystemPartitions(reader io.ReadSeeker) (*types.SystemPartitions, error)
	// DecodeDiskInfo decodes the "diskutil info -plist" output.
	DecodeDiskInfo(reader io.ReadSeeker) (*types.DiskInfo, error)
}

// PlistDecoder is an empty struct that provides the implementation for the Decoder interface.
type PlistDecoder struct{}

// DecodeSystemPartitions takes a reader containing the raw plist data for all disks and partition information
// and decodes it into a new SystemPartitions struct.
func (d *PlistDecoder) DecodeSystemPartitions(reader io.ReadSeeker) (partitions *types.SystemPartitions, err error) {
	// Catch panics thrown by the Decode method
	defer func() {
		if panicErr := recover(); panicErr != nil {
			partitions = nil
			err = fmt.Errorf("diskutil: panic occurred while decoding: %s", panicErr)
		}
	}()

	partitions = &types.SystemPartitions{}
	if err = plist.NewDecoder(reader).Decode(partitions); err != nil {
		return nil, fmt.Errorf("diskutil: failed to decode diskutil list disks output: %w", err)
	}

	return partitions, nil
}

// DecodeDiskInfo takes a reader containing the raw plist data for disk information and decodes it into
// a new DiskInfo struct.
func (d *PlistDecoder) DecodeDiskInfo(reader io.ReadSeeker) (disk *types.DiskInfo, err error) {
	// Catch panics thrown by the Decode method
	defer func() {
		if panicErr := recover(); panicErr != nil {
			disk = nil
			err = fmt.Errorf("diskutil: panic occurred while decoding: %s", panicErr)
		}
	}()

	disk = &types.DiskInfo{}
	if err = plist.NewDecoder(reader).Decode(disk); err != nil {
		return nil, fmt.Errorf("diskutil: failed to decode diskutil disk info output: %w", err)
	}

	return disk, nil
}
