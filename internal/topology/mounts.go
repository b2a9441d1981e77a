package topology

import (
	"context"
	"path"
	"strings"

	"github.com/shirou/gopsutil/v3/disk"
)

// MountEntry is one line of the live mount table.
type MountEntry struct {
	Device     string
	Mountpoint string
	Fstype     string
}

// MountTable outlines the source of live mounts.
type MountTable interface {
	Mounts(ctx context.Context) ([]MountEntry, error)
}

// SystemMountTable reads the live mount table through gopsutil.
type SystemMountTable struct{}

// Mounts returns the physical device mounts, skipping pseudo filesystems.
func (SystemMountTable) Mounts(ctx context.Context) ([]MountEntry, error) {
	stats, err := disk.PartitionsWithContext(ctx, false)
	if err != nil {
		return nil, err
	}

	entries := make([]MountEntry, 0, len(stats))
	for _, s := range stats {
		entries = append(entries, MountEntry{Device: s.Device, Mountpoint: s.Mountpoint, Fstype: s.Fstype})
	}
	return entries, nil
}

// Type assertion to ensure SystemMountTable implements the MountTable interface.
var _ MountTable = SystemMountTable{}

// mountsByDevice indexes the first mount point of every /dev node by its base name.
func mountsByDevice(entries []MountEntry) map[string]string {
	byDevice := make(map[string]string, len(entries))
	for _, e := range entries {
		if !strings.HasPrefix(e.Device, "/dev/") {
			continue
		}
		name := path.Base(e.Device)
		if _, ok := byDevice[name]; !ok {
			byDevice[name] = e.Mountpoint
		}
	}
	return byDevice
}

// deviceForMountpoint finds the device mounted at mountpoint.
func deviceForMountpoint(entries []MountEntry, mountpoint string) (string, bool) {
	want := path.Clean(mountpoint)
	for _, e := range entries {
		if path.Clean(e.Mountpoint) == want {
			return e.Device, true
		}
	}
	return "", false
}
