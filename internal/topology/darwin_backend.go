package topology

import (
	"context"
	"fmt"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/diskofflaner/diskofflaner/internal/diskutil"
	"github.com/diskofflaner/diskofflaner/internal/diskutil/identifier"
	"github.com/diskofflaner/diskofflaner/internal/diskutil/types"
)

// sliceNumberRegexp extracts the slice number of a partition identifier such as disk0s2.
var sliceNumberRegexp = regexp.MustCompile(`^disk[0-9]+s([0-9]+)$`)

// smartHealth maps diskutil's SMARTStatus to a health score. "Not Supported" and other values are unknown.
var smartHealth = map[string]uint8{
	"verified": 100,
	"failing":  10,
}

// DarwinBackend implements DiskBackend with macOS's diskutil.
type DarwinBackend struct {
	du  diskutil.DiskUtil
	log logrus.FieldLogger
}

// NewDarwinBackend creates the macOS implementation of DiskBackend.
func NewDarwinBackend(opts ...Option) *DarwinBackend {
	return newDarwinBackend(newOptions(opts))
}

func newDarwinBackend(o options) *DarwinBackend {
	du := o.diskutil
	if du == nil {
		du = diskutil.New(o.runner)
	}
	return &DarwinBackend{du: du, log: o.log}
}

// Type assertion to ensure DarwinBackend implements the DiskBackend interface.
var _ DiskBackend = (*DarwinBackend)(nil)

// Enumerate lists the physical whole disks. APFS volumes are reported through the partition holding their
// container.
func (d *DarwinBackend) Enumerate(ctx context.Context) ([]Disk, error) {
	physical, err := d.du.List(ctx, []string{"physical"})
	if err != nil {
		return nil, fmt.Errorf("list physical disks: %w", err)
	}

	all, err := d.du.List(ctx, nil)
	if err != nil {
		d.log.WithError(err).Debug("Full disk listing unavailable, APFS volumes will not be reported as mounted")
		all = &types.SystemPartitions{}
	}

	disks := make([]Disk, 0, len(physical.AllDisksAndPartitions))
	for _, part := range physical.AllDisksAndPartitions {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		disks = append(disks, d.assembleDisk(ctx, part, all))
	}

	if id, err := d.systemDiskID(ctx); err != nil {
		d.log.WithError(err).Debug("System disk unavailable")
	} else {
		for i := range disks {
			if disks[i].ID == id {
				disks[i].System = true
				break
			}
		}
	}

	return disks, nil
}

func (d *DarwinBackend) assembleDisk(ctx context.Context, part types.DiskPart, all *types.SystemPartitions) Disk {
	id := part.DeviceIdentifier
	log := d.log.WithField("disk", id)

	signals := Signals{Unavailable: true}
	model := ""
	size := part.Size
	var health *uint8

	if info, err := d.du.Info(ctx, id); err != nil {
		log.WithError(err).Debug("Disk information unavailable")
	} else {
		model = strings.TrimSpace(info.MediaName)
		if info.Bytes() > 0 {
			size = info.Bytes()
		}
		if score, ok := smartHealth[strings.ToLower(info.SMARTStatus)]; ok {
			health = healthPtr(score)
		}
		signals = Signals{
			Bus:        ParseBusType(info.BusProtocol),
			Removable:  info.Removable || info.RemovableMedia,
			Rotational: boolPtr(!info.SolidState),
		}
	}
	if model == "" {
		model = "Disk " + id
	}
	signals.Model = model

	containers := all.ContainersOn(id)
	raw := make([]RawPartition, 0, len(part.Partitions))
	var mounted []MountedVolume
	for i, p := range part.Partitions {
		raw = append(raw, RawPartition{Number: sliceNumber(p.DeviceIdentifier, uint32(i+1)), Size: p.Size, ID: p.DeviceIdentifier})
		if label := partitionMountPoint(p, containers); label != "" {
			mounted = append(mounted, MountedVolume{ID: p.DeviceIdentifier, Label: label, Size: p.Size})
		}
	}

	partitions := ResolvePartitions(raw, mounted, log)
	online := len(partitions) == 0
	for _, p := range partitions {
		if p.Mounted() {
			online = true
			break
		}
	}

	return Disk{
		ID:         id,
		Model:      model,
		Size:       size,
		Online:     online,
		Type:       Classify(signals),
		Health:     health,
		Partitions: partitions,
	}
}

// sliceNumber reads the slice number of a partition identifier, falling back to its ordinal.
func sliceNumber(id string, ordinal uint32) uint32 {
	m := sliceNumberRegexp.FindStringSubmatch(id)
	if m == nil {
		return ordinal
	}
	n, err := strconv.ParseUint(m[1], 10, 32)
	if err != nil || n == 0 {
		return ordinal
	}
	return uint32(n)
}

// partitionMountPoint returns where the partition is mounted. A partition holding one of the disk's APFS containers
// reports the container's root volume when it is mounted, otherwise its first mounted volume.
func partitionMountPoint(p types.Partition, containers []types.DiskPart) string {
	if p.MountPoint != "" {
		return p.MountPoint
	}

	var first string
	for _, container := range containers {
		backed := false
		for _, store := range container.APFSPhysicalStores {
			if store.DeviceIdentifier == p.DeviceIdentifier {
				backed = true
				break
			}
		}
		if !backed {
			continue
		}
		for _, v := range container.APFSVolumes {
			mp := v.MountedAt()
			if mp == "/" {
				return mp
			}
			if first == "" {
				first = mp
			}
		}
	}
	return first
}

// systemDiskID resolves the physical disk backing the root volume.
func (d *DarwinBackend) systemDiskID(ctx context.Context) (string, error) {
	root, err := d.du.Info(ctx, "/")
	if err != nil {
		return "", err
	}

	if !root.IsAPFSMedia() {
		if id := identifier.ParseDiskID(root.ParentWholeDisk); id != "" {
			return id, nil
		}
		return identifier.ParseDiskID(root.DeviceIdentifier), nil
	}

	if id, err := root.ParentDeviceID(); err == nil {
		return id, nil
	}

	// Older diskutil releases omit the physical stores from the plist output.
	container := identifier.ParseDiskID(root.DeviceIdentifier)
	store, err := d.du.PhysicalStore(ctx, container)
	if err != nil {
		return "", err
	}
	return identifier.ParseDiskID(store), nil
}

// SetOnline mounts every volume of the disk.
func (d *DarwinBackend) SetOnline(ctx context.Context, id string) error {
	if err := validWholeDisk(id); err != nil {
		return err
	}

	out, err := d.du.MountDisk(ctx, id)
	return checkCommand("set online", "disk "+id, out, err)
}

// SetOffline unmounts every volume of the disk. The disk backing the root volume is refused.
func (d *DarwinBackend) SetOffline(ctx context.Context, id string) error {
	if err := validWholeDisk(id); err != nil {
		return err
	}

	if system, err := d.systemDiskID(ctx); err == nil && system == id {
		return &CommandError{Op: "set offline", Target: "disk " + id, Kind: ErrSystemDiskProtected}
	}

	out, err := d.du.UnmountDisk(ctx, id)
	return checkCommand("set offline", "disk "+id, out, err)
}

// Mount mounts the slice of the disk, at the directory label when it is not empty, and returns the mount point
// diskutil reports for it.
func (d *DarwinBackend) Mount(ctx context.Context, diskID string, partition uint32, label string) (string, error) {
	if err := validWholeDisk(diskID); err != nil {
		return "", err
	}
	if partition == 0 {
		return "", invalidArgument("partition numbers start at 1")
	}
	if label != "" && !path.IsAbs(label) {
		return "", invalidArgument("%q is not an absolute mount point", label)
	}

	slice := fmt.Sprintf("%ss%d", diskID, partition)
	out, err := d.du.Mount(ctx, slice, label)
	if err := checkCommand("mount", slice, out, err); err != nil {
		return "", err
	}

	info, err := d.du.Info(ctx, slice)
	if err != nil || info.MountPoint == "" {
		return label, nil
	}
	return info.MountPoint, nil
}

// Unmount unmounts the volume at the mount point label.
func (d *DarwinBackend) Unmount(ctx context.Context, label string) error {
	if strings.TrimSpace(label) == "" {
		return invalidArgument("empty mount point")
	}

	out, err := d.du.Unmount(ctx, label)
	return checkCommand("unmount", label, out, err)
}

// AvailableMountLabels returns no labels; volumes mount below /Volumes or at a caller supplied directory.
func (d *DarwinBackend) AvailableMountLabels(ctx context.Context) ([]string, error) {
	return []string{}, nil
}

// validWholeDisk accepts whole disk identifiers such as disk2.
func validWholeDisk(id string) error {
	if id == "" || identifier.ParseDiskID(id) != id {
		return invalidArgument("%q is not a whole disk identifier", id)
	}
	return nil
}
