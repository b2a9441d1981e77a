package topology

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"

	"github.com/diskofflaner/diskofflaner/internal/devio"
	"github.com/diskofflaner/diskofflaner/internal/util"
)

// maxPhysicalDrives bounds the \\.\PhysicalDriveN indexes probed by the elevated path.
const maxPhysicalDrives = 32

// DeviceQuerier outlines the raw device access the elevated Windows path needs.
type DeviceQuerier interface {
	// OpenDisk opens \\.\PhysicalDriveN. Failures wrap devio.ErrDeviceUnavailable.
	OpenDisk(number uint32) (DiskDevice, error)
	// VolumeExtents resolves the volume at the drive letter to its disk extents.
	VolumeExtents(letter byte) ([]devio.Extent, error)
	// LogicalDrives returns the assigned drive letter bitmask, bit 0 being A.
	LogicalDrives() (uint32, error)
	// SystemDiskNumber resolves the disk hosting the Windows system directory.
	SystemDiskNumber() (uint32, error)
}

// DiskDevice is an open physical drive. Every query may fail with devio.ErrQueryUnsupported.
type DiskDevice interface {
	Geometry() (devio.Geometry, error)
	DriveLayout() ([]devio.LayoutEntry, error)
	StorageDescriptor() (devio.StorageDescriptor, error)
	SeekPenalty() (bool, error)
	Health() (uint8, error)
	Close() error
}

// assemblyStage tracks how far a disk got through assembly, for diagnostics when it is skipped.
type assemblyStage uint8

const (
	stageDiscovered assemblyStage = iota
	stageOpened
	stageQueried
	stageClassified
	stageFinalized
	stageSkipped
)

func (s assemblyStage) String() string {
	switch s {
	case stageDiscovered:
		return "discovered"
	case stageOpened:
		return "opened"
	case stageQueried:
		return "queried"
	case stageClassified:
		return "classified"
	case stageFinalized:
		return "finalized"
	default:
		return "skipped"
	}
}

// volumeExtent is one extent of a lettered volume.
type volumeExtent struct {
	letter byte
	extent devio.Extent
}

// WindowsBackend implements DiskBackend with raw device queries, diskpart and PowerShell.
type WindowsBackend struct {
	runner   util.Runner
	devices  DeviceQuerier
	elevated func() bool
	getenv   func(string) string
	log      logrus.FieldLogger
}

// NewWindowsBackend creates the Windows implementation of DiskBackend.
func NewWindowsBackend(opts ...Option) *WindowsBackend {
	return newWindowsBackend(newOptions(opts))
}

func newWindowsBackend(o options) *WindowsBackend {
	return &WindowsBackend{
		runner:   o.runner,
		devices:  o.devices,
		elevated: o.elevated,
		getenv:   o.getenv,
		log:      o.log,
	}
}

// Type assertion to ensure WindowsBackend implements the DiskBackend interface.
var _ DiskBackend = (*WindowsBackend)(nil)

// Enumerate picks the elevated or the fallback path once and never mixes them within a call.
func (w *WindowsBackend) Enumerate(ctx context.Context) ([]Disk, error) {
	if w.elevated() && w.devices != nil {
		return w.enumerateDevices(ctx)
	}
	return w.enumerateFallback(ctx)
}

// enumerateDevices builds the disks from raw device queries and the batched status maps.
func (w *WindowsBackend) enumerateDevices(ctx context.Context) ([]Disk, error) {
	status := collectStatus(ctx, w.runner, w.log)
	volumes := w.scanVolumes()

	var disks []Disk
	for n := uint32(0); n < maxPhysicalDrives; n++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		disk, stage, err := w.assembleDisk(n, status, volumes)
		if err != nil {
			if stage != stageDiscovered {
				w.log.WithFields(logrus.Fields{"disk": n, "stage": stage}).WithError(err).Debug("Skipping disk")
			}
			continue
		}
		disks = append(disks, disk)
	}

	w.markSystemDisk(disks)

	return disks, nil
}

// scanVolumes reads the drive letter bitmask once and resolves every lettered volume to its extents.
func (w *WindowsBackend) scanVolumes() []volumeExtent {
	mask, err := w.devices.LogicalDrives()
	if err != nil {
		w.log.WithError(err).Debug("Drive letters unavailable, no partition will be reported as mounted")
		return nil
	}

	var volumes []volumeExtent
	for i := 0; i < 26; i++ {
		if mask&(1<<uint(i)) == 0 {
			continue
		}
		letter := byte('A' + i)
		extents, err := w.devices.VolumeExtents(letter)
		if err != nil {
			w.log.WithField("letter", string(letter)).WithError(err).Debug("Volume has no disk extents")
			continue
		}
		for _, e := range extents {
			volumes = append(volumes, volumeExtent{letter: letter, extent: e})
		}
	}

	return volumes
}

// assembleDisk walks one disk from discovery to a finished record. Every handle is closed before it returns.
func (w *WindowsBackend) assembleDisk(n uint32, status StatusMaps, volumes []volumeExtent) (Disk, assemblyStage, error) {
	stage := stageDiscovered

	dev, err := w.devices.OpenDisk(n)
	if err != nil {
		return Disk{}, stage, err
	}
	defer dev.Close()
	stage = stageOpened

	log := w.log.WithField("disk", n)
	failed := 0

	var size uint64
	if geometry, err := dev.Geometry(); err != nil {
		log.WithError(err).Debug("Geometry unavailable")
		failed++
	} else {
		size = geometry.DiskSize
	}

	var raw []RawPartition
	if layout, err := dev.DriveLayout(); err != nil {
		log.WithError(err).Debug("Drive layout unavailable, falling back to mounted volumes")
	} else {
		for _, e := range layout {
			raw = append(raw, RawPartition{Number: e.Number, Size: e.Length, ID: OffsetID(e.Offset)})
		}
	}

	descriptor, err := dev.StorageDescriptor()
	if err != nil {
		log.WithError(err).Debug("Storage descriptor unavailable")
		failed++
	}

	var rotational *bool
	if penalty, err := dev.SeekPenalty(); err != nil {
		log.WithError(err).Debug("Seek penalty unavailable")
		failed++
	} else {
		rotational = boolPtr(penalty)
	}

	health := status.HealthOf(n)
	if h, err := dev.Health(); err != nil {
		log.WithError(err).Debug("Failure prediction unavailable")
	} else {
		health = healthPtr(h)
	}
	stage = stageQueried

	model := strings.TrimSpace(descriptor.Vendor + " " + descriptor.Product)
	if model == "" {
		model = status.Model[n]
	}
	if model == "" {
		model = fmt.Sprintf("Disk %d", n)
	}

	diskType := Classify(Signals{
		Bus:         BusTypeFromStorage(descriptor.BusType),
		Removable:   descriptor.Removable,
		Rotational:  rotational,
		Model:       model,
		Unavailable: failed == 3,
	})
	stage = stageClassified

	var mounted []MountedVolume
	for _, v := range volumes {
		if v.extent.DiskNumber != n {
			continue
		}
		mounted = append(mounted, MountedVolume{
			ID:    OffsetID(v.extent.Offset),
			Label: string(v.letter),
			Size:  v.extent.Length,
		})
	}

	disk := Disk{
		ID:           strconv.FormatUint(uint64(n), 10),
		Model:        model,
		Size:         size,
		Online:       status.IsOnline(n),
		Type:         diskType,
		SerialNumber: descriptor.Serial,
		Health:       health,
		Partitions:   ResolvePartitions(raw, mounted, log),
	}
	log.WithFields(logrus.Fields{
		"stage": stageFinalized,
		"type":  diskType,
		"size":  humanize.Bytes(size),
	}).Debug("Assembled disk")

	return disk, stageFinalized, nil
}

// markSystemDisk flags the disk hosting the system directory, falling back to the disk carrying the SystemDrive
// letter. At most one disk is flagged.
func (w *WindowsBackend) markSystemDisk(disks []Disk) {
	if n, err := w.devices.SystemDiskNumber(); err == nil {
		id := strconv.FormatUint(uint64(n), 10)
		for i := range disks {
			if disks[i].ID == id {
				disks[i].System = true
				return
			}
		}
	} else {
		w.log.WithError(err).Debug("System disk number unavailable, using SystemDrive")
	}

	markSystemDriveLetter(disks, w.getenv("SystemDrive"))
}

// markSystemDriveLetter flags the first disk with a partition mounted at the SystemDrive letter.
func markSystemDriveLetter(disks []Disk, systemDrive string) bool {
	letter, err := parseDriveLetter(systemDrive)
	if err != nil {
		return false
	}
	for i := range disks {
		for _, p := range disks[i].Partitions {
			if p.MountLabel == string(letter) {
				disks[i].System = true
				return true
			}
		}
	}
	return false
}

// SetOnline brings the disk online with diskpart.
func (w *WindowsBackend) SetOnline(ctx context.Context, id string) error {
	return w.setDiskState(ctx, id, true)
}

// SetOffline takes the disk offline with diskpart.
func (w *WindowsBackend) SetOffline(ctx context.Context, id string) error {
	return w.setDiskState(ctx, id, false)
}

func (w *WindowsBackend) setDiskState(ctx context.Context, id string, online bool) error {
	n, err := parseDiskNumber(id)
	if err != nil {
		return err
	}

	op := "set offline"
	if online {
		op = "set online"
	}
	out, err := w.runner.Execute(ctx, diskpartCommand(), diskStateScript(n, online))
	return checkCommand(op, "disk "+id, out, err)
}

// Mount assigns a drive letter to the partition and returns the letter diskpart reports.
func (w *WindowsBackend) Mount(ctx context.Context, diskID string, partition uint32, label string) (string, error) {
	n, err := parseDiskNumber(diskID)
	if err != nil {
		return "", err
	}
	if partition == 0 {
		return "", invalidArgument("partition numbers start at 1")
	}

	var letter byte
	if label != "" {
		if letter, err = parseDriveLetter(label); err != nil {
			return "", err
		}
	}

	if err := w.checkLayoutNumber(n, partition); err != nil {
		return "", err
	}

	target := fmt.Sprintf("disk %d partition %d", n, partition)
	out, err := w.runner.Execute(ctx, diskpartCommand(), assignScript(n, partition, letter))
	if err := checkCommand("mount", target, out, err); err != nil {
		return "", err
	}

	if assigned, ok := ParseAssignedLetter(out.Stdout); ok {
		return assigned, nil
	}
	if letter != 0 {
		return string(letter), nil
	}
	return "", nil
}

// checkLayoutNumber refuses partition numbers the drive layout does not list, including the numbers given to
// partitions synthesized from mounted volumes when the layout is unreadable. A drive that cannot be opened is left
// for diskpart to judge.
func (w *WindowsBackend) checkLayoutNumber(n, partition uint32) error {
	if w.devices == nil {
		return nil
	}
	dev, err := w.devices.OpenDisk(n)
	if err != nil {
		w.log.WithError(err).WithField("disk", n).Debug("Cannot verify partition number")
		return nil
	}
	defer dev.Close()

	layout, err := dev.DriveLayout()
	if err != nil {
		return invalidArgument("disk %d has no readable partition table, partition %d cannot be addressed", n, partition)
	}
	for _, e := range layout {
		if e.Number == partition && e.Length > 0 {
			return nil
		}
	}
	return invalidArgument("disk %d has no partition %d", n, partition)
}

// Unmount removes the drive letter of the volume.
func (w *WindowsBackend) Unmount(ctx context.Context, label string) error {
	letter, err := parseDriveLetter(label)
	if err != nil {
		return err
	}

	out, err := w.runner.Execute(ctx, diskpartCommand(), removeScript(letter))
	return checkCommand("unmount", "volume "+string(letter), out, err)
}

// AvailableMountLabels lists every unassigned drive letter.
func (w *WindowsBackend) AvailableMountLabels(ctx context.Context) ([]string, error) {
	if w.devices == nil {
		return nil, fmt.Errorf("drive letters: %w", ErrUnsupportedPlatform)
	}
	mask, err := w.devices.LogicalDrives()
	if err != nil {
		return nil, err
	}

	var free []string
	for i := 0; i < 26; i++ {
		if mask&(1<<uint(i)) == 0 {
			free = append(free, string(rune('A'+i)))
		}
	}
	return free, nil
}
