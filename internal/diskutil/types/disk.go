// Package types mirrors the plist documents emitted by macOS's diskutil.
package types

import (
	"fmt"
	"regexp"
)

// diskIDRegex matches the whole-disk part of a device identifier.
var diskIDRegex = regexp.MustCompile("disk[0-9]+")

// DiskInfo mirrors the output format of the command "diskutil info -plist <disk>" to store information about a disk.
type DiskInfo struct {
	APFSContainerReference string              `plist:"APFSContainerReference"`
	APFSPhysicalStores     []APFSPhysicalStore `plist:"APFSPhysicalStores"`
	BusProtocol            string              `plist:"BusProtocol"`
	Content                string              `plist:"Content"`
	DeviceIdentifier       string              `plist:"DeviceIdentifier"`
	DeviceNode             string              `plist:"DeviceNode"`
	FilesystemType         string              `plist:"FilesystemType"`
	IORegistryEntryName    string              `plist:"IORegistryEntryName"`
	Internal               bool                `plist:"Internal"`
	MediaName              string              `plist:"MediaName"`
	MountPoint             string              `plist:"MountPoint"`
	ParentWholeDisk        string              `plist:"ParentWholeDisk"`
	Removable              bool                `plist:"Removable"`
	RemovableMedia         bool                `plist:"RemovableMedia"`
	SMARTStatus            string              `plist:"SMARTStatus"`
	Size                   uint64              `plist:"Size"`
	SolidState             bool                `plist:"SolidState"`
	TotalSize              uint64              `plist:"TotalSize"`
	VirtualOrPhysical      string              `plist:"VirtualOrPhysical"`
	VolumeName             string              `plist:"VolumeName"`
	WholeDisk              bool                `plist:"WholeDisk"`
}

// ParentDeviceID gets the parent device identifier for a physical store
func (d *DiskInfo) ParentDeviceID() (id string, err error) {
	// APFS Containers and Volumes are virtualized and should have a physical store which represents a physical disk
	if d.APFSPhysicalStores == nil {
		return "", fmt.Errorf("no physical stores found in disk")
	}

	// Having more than one APFS Physical Store indicates a fusion drive, which has no single parent.
	if len(d.APFSPhysicalStores) != 1 {
		return "", fmt.Errorf("expected 1 physical store but got [%d]", len(d.APFSPhysicalStores))
	}

	// Remove extra partition information from the store (e.g. "s4s1")
	id = diskIDRegex.FindString(d.APFSPhysicalStores[0].DeviceIdentifier)
	if id == "" {
		return "", fmt.Errorf("physical store [%s] does not contain the expected expression \"disk[0-9]+\"",
			d.APFSPhysicalStores[0].DeviceIdentifier)
	}

	return id, nil
}

// IsAPFSMedia checks if the DiskInfo is an APFS container or volume.
func (d *DiskInfo) IsAPFSMedia() bool {
	return d.FilesystemType == "apfs" || d.IORegistryEntryName == "AppleAPFSMedia"
}

// Bytes returns the disk size, preferring TotalSize which is set for whole disks.
func (d *DiskInfo) Bytes() uint64 {
	if d.TotalSize > 0 {
		return d.TotalSize
	}
	return d.Size
}

// APFSPhysicalStore represents the physical device usually relating to synthesized virtual devices.
type APFSPhysicalStore struct {
	DeviceIdentifier string `plist:"APFSPhysicalStore"`
}
