package topology

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

const (
	diskDriveQuery = "Get-CimInstance Win32_DiskDrive | Select-Object Index,Model,Size,MediaType,InterfaceType,SerialNumber,Status | ConvertTo-Json"
	getDiskQuery   = "Get-Disk | Select-Object Number,IsOffline,BusType,IsSystem,IsBoot | ConvertTo-Json"
	partitionQuery = "Get-Partition | Select-Object DiskNumber,PartitionNumber,DriveLetter,Offset,Size | ConvertTo-Json"
)

// win32DiskDrive mirrors the selected Win32_DiskDrive properties.
type win32DiskDrive struct {
	Index         uint32   `json:"Index"`
	Model         string   `json:"Model"`
	Size          *uint64  `json:"Size"`
	MediaType     string   `json:"MediaType"`
	InterfaceType string   `json:"InterfaceType"`
	SerialNumber  string   `json:"SerialNumber"`
	Status        psString `json:"Status"`
}

// storageDisk mirrors the selected Get-Disk properties.
type storageDisk struct {
	Number    uint32   `json:"Number"`
	IsOffline bool     `json:"IsOffline"`
	BusType   psString `json:"BusType"`
	IsSystem  bool     `json:"IsSystem"`
	IsBoot    bool     `json:"IsBoot"`
}

// storagePartition mirrors the selected Get-Partition properties.
type storagePartition struct {
	DiskNumber      uint32   `json:"DiskNumber"`
	PartitionNumber uint32   `json:"PartitionNumber"`
	DriveLetter     psString `json:"DriveLetter"`
	Offset          uint64   `json:"Offset"`
	Size            uint64   `json:"Size"`
}

// driveStatusHealth maps Win32_DiskDrive's Status to a health score. Other states are treated as unknown.
var driveStatusHealth = map[string]uint8{
	"ok":        100,
	"degraded":  50,
	"pred fail": 10,
}

// enumerateFallback builds the disks from PowerShell listings only. It needs no elevation and sees no raw layout.
func (w *WindowsBackend) enumerateFallback(ctx context.Context) ([]Disk, error) {
	out, err := w.runner.Execute(ctx, powershellCommand(diskDriveQuery), "")
	if err != nil {
		return nil, fmt.Errorf("list disk drives: %w", err)
	}
	drives, err := decodePowerShellList[win32DiskDrive](out.Stdout)
	if err != nil {
		return nil, fmt.Errorf("list disk drives: %w", err)
	}

	storage := make(map[uint32]storageDisk)
	if out, err := w.runner.Execute(ctx, powershellCommand(getDiskQuery), ""); err != nil {
		w.log.WithError(err).Debug("Get-Disk unavailable, assuming disks are online")
	} else if rows, err := decodePowerShellList[storageDisk](out.Stdout); err != nil {
		w.log.WithError(err).Debug("Get-Disk output unusable, assuming disks are online")
	} else {
		for _, d := range rows {
			storage[d.Number] = d
		}
	}

	partitions := make(map[uint32][]storagePartition)
	if out, err := w.runner.Execute(ctx, powershellCommand(partitionQuery), ""); err != nil {
		w.log.WithError(err).Debug("Get-Partition unavailable, no partitions will be listed")
	} else if rows, err := decodePowerShellList[storagePartition](out.Stdout); err != nil {
		w.log.WithError(err).Debug("Get-Partition output unusable, no partitions will be listed")
	} else {
		for _, p := range rows {
			partitions[p.DiskNumber] = append(partitions[p.DiskNumber], p)
		}
	}

	disks := make([]Disk, 0, len(drives))
	for _, drive := range drives {
		disks = append(disks, w.fallbackDisk(drive, storage, partitions[drive.Index]))
	}

	markFallbackSystemDisk(disks, storage, w.getenv("SystemDrive"))

	return disks, nil
}

func (w *WindowsBackend) fallbackDisk(drive win32DiskDrive, storage map[uint32]storageDisk, parts []storagePartition) Disk {
	id := strconv.FormatUint(uint64(drive.Index), 10)

	model := strings.TrimSpace(drive.Model)
	if model == "" {
		model = "Disk " + id
	}

	var size uint64
	if drive.Size != nil {
		size = *drive.Size
	}

	online := true
	bus := BusUnknown
	if sd, ok := storage[drive.Index]; ok {
		online = !sd.IsOffline
		bus = ParseBusType(string(sd.BusType))
	}
	if bus == BusUnknown && strings.EqualFold(drive.InterfaceType, "USB") {
		bus = BusUSB
	}

	var health *uint8
	if score, ok := driveStatusHealth[strings.ToLower(string(drive.Status))]; ok {
		health = healthPtr(score)
	}

	raw := make([]RawPartition, 0, len(parts))
	var mounted []MountedVolume
	for _, p := range parts {
		pid := OffsetID(p.Offset)
		raw = append(raw, RawPartition{Number: p.PartitionNumber, Size: p.Size, ID: pid})
		if letter, err := parseDriveLetter(string(p.DriveLetter)); err == nil {
			mounted = append(mounted, MountedVolume{ID: pid, Label: string(letter), Size: p.Size})
		}
	}

	return Disk{
		ID:     id,
		Model:  model,
		Size:   size,
		Online: online,
		Type: Classify(Signals{
			Bus:       bus,
			Removable: strings.Contains(strings.ToLower(drive.MediaType), "removable"),
			Model:     model,
		}),
		SerialNumber: strings.TrimSpace(drive.SerialNumber),
		Health:       health,
		Partitions:   ResolvePartitions(raw, mounted, w.log.WithField("disk", id)),
	}
}

// markFallbackSystemDisk flags the disk Get-Disk reports as the system disk, then the boot disk, then the disk
// carrying the SystemDrive letter.
func markFallbackSystemDisk(disks []Disk, storage map[uint32]storageDisk, systemDrive string) {
	for _, pick := range []func(storageDisk) bool{
		func(d storageDisk) bool { return d.IsSystem },
		func(d storageDisk) bool { return d.IsBoot },
	} {
		for i := range disks {
			n, _ := strconv.ParseUint(disks[i].ID, 10, 32)
			if sd, ok := storage[uint32(n)]; ok && pick(sd) {
				disks[i].System = true
				return
			}
		}
	}

	markSystemDriveLetter(disks, systemDrive)
}
