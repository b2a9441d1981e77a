package topology

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"unicode"

	"github.com/sirupsen/logrus"

	"github.com/diskofflaner/diskofflaner/internal/util"
)

// lsblkColumns are the lsblk columns the Linux backend reads.
const lsblkColumns = "NAME,SIZE,TYPE,MOUNTPOINT,MODEL,SERIAL,STATE,RM,ROTA,TRAN"

// systemMountpoints are checked in order to find the disk the running system lives on.
var systemMountpoints = []string{"/", "/boot", "/boot/efi"}

// lsblkOutput mirrors "lsblk -J".
type lsblkOutput struct {
	BlockDevices []blockDevice `json:"blockdevices"`
}

// blockDevice mirrors one lsblk device. Older lsblk releases print every value as a string, newer ones use JSON
// numbers and booleans.
type blockDevice struct {
	Name       string        `json:"name"`
	Size       lsblkUint     `json:"size"`
	Type       string        `json:"type"`
	Mountpoint string        `json:"mountpoint"`
	Model      string        `json:"model"`
	Serial     string        `json:"serial"`
	State      string        `json:"state"`
	Removable  lsblkBool     `json:"rm"`
	Rotational *lsblkBool    `json:"rota"`
	Transport  string        `json:"tran"`
	Children   []blockDevice `json:"children"`
}

type lsblkUint uint64

func (u *lsblkUint) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "null" || s == "" {
		*u = 0
		return nil
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return err
	}
	*u = lsblkUint(v)
	return nil
}

type lsblkBool bool

func (v *lsblkBool) UnmarshalJSON(b []byte) error {
	switch strings.Trim(string(b), `"`) {
	case "1", "true":
		*v = true
	case "0", "false", "null", "":
		*v = false
	default:
		return fmt.Errorf("unexpected boolean %s", b)
	}
	return nil
}

// LinuxBackend implements DiskBackend with lsblk, sysfs and udisksctl.
type LinuxBackend struct {
	runner    util.Runner
	mounts    MountTable
	sysfsRoot string
	log       logrus.FieldLogger
}

// NewLinuxBackend creates the Linux implementation of DiskBackend.
func NewLinuxBackend(opts ...Option) *LinuxBackend {
	return newLinuxBackend(newOptions(opts))
}

func newLinuxBackend(o options) *LinuxBackend {
	return &LinuxBackend{
		runner:    o.runner,
		mounts:    o.mountTable,
		sysfsRoot: o.sysfsRoot,
		log:       o.log,
	}
}

// Type assertion to ensure LinuxBackend implements the DiskBackend interface.
var _ DiskBackend = (*LinuxBackend)(nil)

// Enumerate lists the "disk" devices reported by lsblk with their "part" children.
func (l *LinuxBackend) Enumerate(ctx context.Context) ([]Disk, error) {
	out, err := l.runner.Execute(ctx, []string{"lsblk", "-J", "-b", "-o", lsblkColumns}, "")
	if err != nil {
		return nil, fmt.Errorf("list block devices: %w", err)
	}

	var listing lsblkOutput
	if err := json.Unmarshal(bytes.TrimSpace([]byte(out.Stdout)), &listing); err != nil {
		return nil, fmt.Errorf("decode lsblk output: %v: %w", err, ErrParse)
	}

	live := l.liveMounts(ctx)

	var disks []Disk
	systemRank := len(systemMountpoints)
	systemIndex := -1
	for _, dev := range listing.BlockDevices {
		if dev.Type != "disk" {
			continue
		}

		disks = append(disks, l.assembleDisk(dev, live))

		if rank := systemMountRank(dev); rank < systemRank {
			systemRank = rank
			systemIndex = len(disks) - 1
		}
	}

	if systemIndex >= 0 {
		disks[systemIndex].System = true
	}

	return disks, nil
}

// liveMounts indexes the mount table by device name. A failing table only loses the reconciliation.
func (l *LinuxBackend) liveMounts(ctx context.Context) map[string]string {
	if l.mounts == nil {
		return nil
	}
	entries, err := l.mounts.Mounts(ctx)
	if err != nil {
		l.log.WithError(err).Debug("Mount table unavailable, using lsblk mount points only")
		return nil
	}
	return mountsByDevice(entries)
}

func (l *LinuxBackend) assembleDisk(dev blockDevice, live map[string]string) Disk {
	model := strings.TrimSpace(dev.Model)
	if model == "" {
		model = "Disk " + dev.Name
	}

	var rotational *bool
	if dev.Rotational != nil {
		rotational = boolPtr(bool(*dev.Rotational))
	}

	var raw []RawPartition
	var mounted []MountedVolume
	ordinal := uint32(0)
	for _, child := range dev.Children {
		if child.Type != "part" {
			continue
		}
		ordinal++

		raw = append(raw, RawPartition{
			Number: l.partitionNumber(child.Name, ordinal),
			Size:   uint64(child.Size),
			ID:     child.Name,
		})

		label := child.Mountpoint
		if label == "" {
			label = live[child.Name]
		}
		if label != "" {
			mounted = append(mounted, MountedVolume{ID: child.Name, Label: label, Size: uint64(child.Size)})
		}
	}

	return Disk{
		ID:     dev.Name,
		Model:  model,
		Size:   uint64(dev.Size),
		Online: !strings.EqualFold(dev.State, "offline"),
		Type: Classify(Signals{
			Bus:        ParseBusType(dev.Transport),
			Removable:  bool(dev.Removable),
			Rotational: rotational,
			Model:      model,
		}),
		SerialNumber: strings.TrimSpace(dev.Serial),
		Partitions:   ResolvePartitions(raw, mounted, l.log.WithField("disk", dev.Name)),
	}
}

// partitionNumber reads the kernel's partition number, falling back to the ordinal among the disk's partitions.
func (l *LinuxBackend) partitionNumber(name string, ordinal uint32) uint32 {
	b, err := os.ReadFile(filepath.Join(l.sysfsRoot, "class", "block", name, "partition"))
	if err != nil {
		return ordinal
	}
	n, err := strconv.ParseUint(strings.TrimSpace(string(b)), 10, 32)
	if err != nil || n == 0 {
		return ordinal
	}
	return uint32(n)
}

// systemMountRank returns the index in systemMountpoints of the best mount point found on the device or any of its
// descendants, or len(systemMountpoints) when none is present.
func systemMountRank(dev blockDevice) int {
	best := len(systemMountpoints)
	for i, mp := range systemMountpoints {
		if dev.Mountpoint == mp && i < best {
			best = i
		}
	}
	for _, child := range dev.Children {
		if r := systemMountRank(child); r < best {
			best = r
		}
	}
	return best
}

// SetOnline writes "running" to the disk's sysfs device state.
func (l *LinuxBackend) SetOnline(ctx context.Context, id string) error {
	return l.writeState(id, "running", "set online")
}

// SetOffline writes "offline" to the disk's sysfs device state. The disk carrying the running system is refused.
func (l *LinuxBackend) SetOffline(ctx context.Context, id string) error {
	if err := validDeviceName(id); err != nil {
		return err
	}

	disks, err := l.Enumerate(ctx)
	if err != nil {
		return fmt.Errorf("check system disk: %w", err)
	}
	for _, d := range disks {
		if d.ID == id && d.System {
			return &CommandError{Op: "set offline", Target: "disk " + id, Kind: ErrSystemDiskProtected}
		}
	}

	return l.writeState(id, "offline", "set offline")
}

func (l *LinuxBackend) writeState(id, state, op string) error {
	if err := validDeviceName(id); err != nil {
		return err
	}

	p := filepath.Join(l.sysfsRoot, "block", id, "device", "state")
	if _, err := os.Stat(p); err != nil {
		return invalidArgument("disk %s has no device state control", id)
	}

	if err := os.WriteFile(p, []byte(state), 0644); err != nil {
		cmdErr := &CommandError{Op: op, Target: "disk " + id, Err: err}
		if errors.Is(err, syscall.EBUSY) {
			cmdErr.Kind = ErrResourceInUse
		}
		return cmdErr
	}
	return nil
}

// Mount mounts the partition with udisksctl and returns the mount point it reports. udisks chooses the mount point,
// so a caller supplied label is rejected.
func (l *LinuxBackend) Mount(ctx context.Context, diskID string, partition uint32, label string) (string, error) {
	if err := validDeviceName(diskID); err != nil {
		return "", err
	}
	if partition == 0 {
		return "", invalidArgument("partition numbers start at 1")
	}
	if label != "" {
		return "", invalidArgument("mount points are chosen by udisks, cannot mount at %q", label)
	}

	device := "/dev/" + PartitionDeviceName(diskID, partition)
	out, err := l.runner.Execute(ctx, []string{"udisksctl", "mount", "-b", device}, "")
	if err := checkCommand("mount", device, out, err); err != nil {
		return "", err
	}

	return parseMountedAt(out.Stdout), nil
}

// PartitionDeviceName derives a partition's device node name from its disk. Disks whose name ends in a digit
// (nvme0n1, mmcblk0, loop0) separate the partition number with "p".
func PartitionDeviceName(disk string, partition uint32) string {
	if disk != "" && unicode.IsDigit(rune(disk[len(disk)-1])) {
		return fmt.Sprintf("%sp%d", disk, partition)
	}
	return fmt.Sprintf("%s%d", disk, partition)
}

// parseMountedAt reads the mount point from "Mounted /dev/sdb1 at /media/user/USB." output.
func parseMountedAt(out string) string {
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "Mounted ") {
			continue
		}
		if i := strings.Index(line, " at "); i >= 0 {
			return strings.TrimSuffix(strings.TrimSpace(line[i+len(" at "):]), ".")
		}
	}
	return ""
}

// Unmount resolves the device mounted at label with findmnt, or the mount table when findmnt is missing, and
// unmounts it with udisksctl.
func (l *LinuxBackend) Unmount(ctx context.Context, label string) error {
	if !strings.HasPrefix(label, "/") {
		return invalidArgument("%q is not a mount point", label)
	}

	device, err := l.sourceOf(ctx, label)
	if err != nil {
		return err
	}

	out, err := l.runner.Execute(ctx, []string{"udisksctl", "unmount", "-b", device}, "")
	return checkCommand("unmount", label, out, err)
}

func (l *LinuxBackend) sourceOf(ctx context.Context, mountpoint string) (string, error) {
	out, err := l.runner.Execute(ctx, []string{"findmnt", "-n", "-o", "SOURCE", mountpoint}, "")
	if err == nil {
		if device := strings.TrimSpace(out.Stdout); device != "" {
			return device, nil
		}
		return "", invalidArgument("nothing is mounted at %s", mountpoint)
	}
	if !errors.Is(err, util.ErrToolNotFound) {
		// findmnt exits 1 when the mount point is unknown.
		return "", invalidArgument("nothing is mounted at %s", mountpoint)
	}

	if l.mounts == nil {
		return "", err
	}
	entries, merr := l.mounts.Mounts(ctx)
	if merr != nil {
		return "", fmt.Errorf("find source of %s: %w", mountpoint, merr)
	}
	if device, ok := deviceForMountpoint(entries, mountpoint); ok {
		return device, nil
	}
	return "", invalidArgument("nothing is mounted at %s", mountpoint)
}

// AvailableMountLabels returns no labels; udisks chooses mount points itself.
func (l *LinuxBackend) AvailableMountLabels(ctx context.Context) ([]string, error) {
	return []string{}, nil
}

// validDeviceName rejects ids that could escape the sysfs or /dev directories.
func validDeviceName(id string) error {
	if id == "" || id == "." || id == ".." || strings.ContainsAny(id, `/\`) {
		return invalidArgument("%q is not a device name", id)
	}
	return nil
}
