package topology

import (
	"fmt"
	"strings"
)

// DiskType is the coarse media/transport classification of a physical disk.
type DiskType uint8

const (
	Unknown DiskType = iota
	HDD
	SSD
	NVMe
	ExternalHDD
	USBFlash
)

func (t DiskType) String() string {
	switch t {
	case HDD:
		return "HDD"
	case SSD:
		return "SSD"
	case NVMe:
		return "NVMe"
	case ExternalHDD:
		return "External HDD"
	case USBFlash:
		return "USB Flash"
	default:
		return "Unknown"
	}
}

// MarshalText renders the type by its display name.
func (t DiskType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText accepts the display names produced by MarshalText.
func (t *DiskType) UnmarshalText(text []byte) error {
	for _, c := range []DiskType{Unknown, HDD, SSD, NVMe, ExternalHDD, USBFlash} {
		if strings.EqualFold(string(text), c.String()) {
			*t = c
			return nil
		}
	}
	return fmt.Errorf("unknown disk type %q", text)
}

// Disk is a snapshot of one physical disk taken during a single enumeration. It is never updated in place.
type Disk struct {
	// ID is the OS-specific disk identity: the physical drive index on Windows, the device node name on Linux and
	// the whole-disk identifier on macOS. It is only stable for the lifetime of one enumeration.
	ID           string      `json:"id"`
	Model        string      `json:"model"`
	Size         uint64      `json:"size_bytes"`
	Online       bool        `json:"is_online"`
	System       bool        `json:"is_system_disk"`
	Type         DiskType    `json:"disk_type"`
	SerialNumber string      `json:"serial_number,omitempty"`
	Health       *uint8      `json:"health_percentage,omitempty"`
	Partitions   []Partition `json:"partitions"`
}

// Partition is a snapshot of one partition of a Disk.
type Partition struct {
	// Number is the 1-based partition number in table order. Synthesized partitions are numbered 1..n in identifier
	// order instead; the Windows backend refuses to mount by such a number.
	Number uint32 `json:"partition_number"`
	Size   uint64 `json:"size_bytes"`
	// MountLabel is the drive letter or mount path, empty when the partition is not mounted.
	MountLabel string `json:"mount_label"`
	// ID correlates layout entries with mounted volumes during enumeration. It is not an external identity.
	ID string `json:"partition_id"`
	// Synthesized is set when the record was built from a mounted volume because the partition table was
	// unavailable.
	Synthesized bool `json:"synthesized,omitempty"`
}

// Mounted reports whether the partition currently has a mount label.
func (p Partition) Mounted() bool {
	return p.MountLabel != ""
}

func healthPtr(v uint8) *uint8 {
	return &v
}
