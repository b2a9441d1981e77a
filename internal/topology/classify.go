package topology

import (
	"strconv"
	"strings"
)

// BusType is the transport a storage device is attached through. The values follow Windows' STORAGE_BUS_TYPE
// numbering so descriptor values convert directly.
type BusType uint32

const (
	BusUnknown BusType = iota
	BusSCSI
	BusATAPI
	BusATA
	Bus1394
	BusSSA
	BusFibre
	BusUSB
	BusRAID
	BusISCSI
	BusSAS
	BusSATA
	BusSD
	BusMMC
	BusVirtual
	BusFileBackedVirtual
	BusSpaces
	BusNVMe
	BusSCM
	BusUFS
)

var busNames = map[BusType]string{
	BusUnknown:           "Unknown",
	BusSCSI:              "SCSI",
	BusATAPI:             "ATAPI",
	BusATA:               "ATA",
	Bus1394:              "1394",
	BusSSA:               "SSA",
	BusFibre:             "Fibre Channel",
	BusUSB:               "USB",
	BusRAID:              "RAID",
	BusISCSI:             "iSCSI",
	BusSAS:               "SAS",
	BusSATA:              "SATA",
	BusSD:                "SD",
	BusMMC:               "MMC",
	BusVirtual:           "Virtual",
	BusFileBackedVirtual: "File Backed Virtual",
	BusSpaces:            "Storage Spaces",
	BusNVMe:              "NVMe",
	BusSCM:               "SCM",
	BusUFS:               "UFS",
}

func (b BusType) String() string {
	if name, ok := busNames[b]; ok {
		return name
	}
	return "Unknown"
}

// busAliases maps the names used by PowerShell's BusType, lsblk's TRAN column and diskutil's BusProtocol.
var busAliases = map[string]BusType{
	"scsi":                BusSCSI,
	"atapi":               BusATAPI,
	"ata":                 BusATA,
	"1394":                Bus1394,
	"firewire":            Bus1394,
	"ssa":                 BusSSA,
	"fibre channel":       BusFibre,
	"fc":                  BusFibre,
	"usb":                 BusUSB,
	"raid":                BusRAID,
	"iscsi":               BusISCSI,
	"sas":                 BusSAS,
	"sata":                BusSATA,
	"sd":                  BusSD,
	"secure digital":      BusSD,
	"mmc":                 BusMMC,
	"virtual":             BusVirtual,
	"virtio":              BusVirtual,
	"disk image":          BusVirtual,
	"file backed virtual": BusFileBackedVirtual,
	"spaces":              BusSpaces,
	"storage spaces":      BusSpaces,
	"nvme":                BusNVMe,
	"pci-express":         BusNVMe,
	"pci":                 BusNVMe,
	"apple fabric":        BusNVMe,
	"scm":                 BusSCM,
	"ufs":                 BusUFS,
}

// ParseBusType maps a tool-reported bus name or number to a BusType. Unrecognised input yields BusUnknown.
func ParseBusType(s string) BusType {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return BusUnknown
	}
	if n, err := strconv.ParseUint(s, 10, 32); err == nil {
		return BusTypeFromStorage(uint32(n))
	}
	if b, ok := busAliases[s]; ok {
		return b
	}
	return BusUnknown
}

// BusTypeFromStorage converts a raw STORAGE_BUS_TYPE value.
func BusTypeFromStorage(n uint32) BusType {
	if n > uint32(BusUFS) {
		return BusUnknown
	}
	return BusType(n)
}

// Signals are the per-disk observations the classifier decides from. Nil pointers mean the signal is unavailable.
type Signals struct {
	Bus        BusType
	Removable  bool
	Rotational *bool
	Model      string
	// Unavailable is set when nothing could be queried about the device at all.
	Unavailable bool
}

// Classify derives a DiskType from the available signals. An explicit bus type wins, then the rotational signal,
// then the model name. Without any signal the disk is assumed to be a hard drive.
func Classify(s Signals) DiskType {
	if s.Unavailable {
		return Unknown
	}

	switch s.Bus {
	case BusNVMe:
		return NVMe
	case BusUSB:
		if s.Removable {
			return USBFlash
		}
		return ExternalHDD
	}

	if s.Rotational != nil {
		if *s.Rotational {
			return HDD
		}
		return SSD
	}

	model := strings.ToLower(s.Model)
	switch {
	case strings.Contains(model, "nvme"):
		return NVMe
	case strings.Contains(model, "ssd"):
		return SSD
	}

	return HDD
}

func boolPtr(v bool) *bool {
	return &v
}
