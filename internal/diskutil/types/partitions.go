package types

// SystemPartitions mirrors the output format of the command "diskutil list -plist" to store all disk
// and partition information.
type SystemPartitions struct {
	AllDisks              []string   `plist:"AllDisks"`
	AllDisksAndPartitions []DiskPart `plist:"AllDisksAndPartitions"`
	VolumesFromDisks      []string   `plist:"VolumesFromDisks"`
	WholeDisks            []string   `plist:"WholeDisks"`
}

// ContainersOn returns the APFS containers whose physical store is a slice of the whole disk id.
func (p *SystemPartitions) ContainersOn(id string) []DiskPart {
	var containers []DiskPart
	for _, disk := range p.AllDisksAndPartitions {
		for _, store := range disk.APFSPhysicalStores {
			if diskIDRegex.FindString(store.DeviceIdentifier) == id {
				containers = append(containers, disk)
				break
			}
		}
	}
	return containers
}

// APFSPhysicalStoreID represents the physical device usually relating
// to synthesized virtual devices.
type APFSPhysicalStoreID struct {
	DeviceIdentifier string `plist:"DeviceIdentifier"`
}

// DiskPart represents a subset of information from DiskInfo.
type DiskPart struct {
	APFSPhysicalStores []APFSPhysicalStoreID `plist:"APFSPhysicalStores"`
	APFSVolumes        []APFSVolume          `plist:"APFSVolumes"`
	Content            string                `plist:"Content"`
	DeviceIdentifier   string                `plist:"DeviceIdentifier"`
	MountPoint         string                `plist:"MountPoint"`
	OSInternal         bool                  `plist:"OSInternal"`
	Partitions         []Partition           `plist:"Partitions"`
	Size               uint64                `plist:"Size"`
}

// Partition stores relevant information about a partition in macOS.
type Partition struct {
	Content          string `plist:"Content"`
	DeviceIdentifier string `plist:"DeviceIdentifier"`
	MountPoint       string `plist:"MountPoint"`
	Size             uint64 `plist:"Size"`
	VolumeName       string `plist:"VolumeName"`
}

// APFSVolume represents a macOS APFS Volume with relevant information.
type APFSVolume struct {
	DeviceIdentifier string     `plist:"DeviceIdentifier"`
	MountPoint       string     `plist:"MountPoint"`
	MountedSnapshots []Snapshot `plist:"MountedSnapshots"`
	OSInternal       bool       `plist:"OSInternal"`
	Size             uint64     `plist:"Size"`
	VolumeName       string     `plist:"VolumeName"`
}

// MountedAt returns the volume's mount point, or the mount point of its sealed system snapshot.
func (v APFSVolume) MountedAt() string {
	if v.MountPoint != "" {
		return v.MountPoint
	}
	for _, s := range v.MountedSnapshots {
		if s.SnapshotMountPoint != "" {
			return s.SnapshotMountPoint
		}
	}
	return ""
}

// Snapshot stores relevant information about a snapshot in macOS.
type Snapshot struct {
	SnapshotBSD        string `plist:"SnapshotBSD"`
	SnapshotMountPoint string `plist:"SnapshotMountPoint"`
	SnapshotName       string `plist:"SnapshotName"`
}
