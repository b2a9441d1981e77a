//go:build windows

package devio

import (
	"encoding/binary"
	"errors"
	"fmt"

	"golang.org/x/sys/windows"
)

const (
	ioctlDiskGetDriveGeometryEx       = 0x000700A0
	ioctlDiskGetDriveLayoutEx         = 0x00070050
	ioctlVolumeGetVolumeDiskExtents   = 0x00560000
	ioctlStorageQueryProperty         = 0x002D1400
	ioctlStoragePredictFailure        = 0x002D1100
	storageDeviceProperty             = 0
	storageDeviceSeekPenaltyProperty  = 7
	propertyStandardQuery             = 0
	initialBufferSize                 = 1024
	maxBufferSize                     = 1 << 20
	predictFailureResponseSize        = 4 + 512
	seekPenaltyDescriptorResponseSize = 12
)

// Disk is an open handle to \\.\PhysicalDriveN.
type Disk struct {
	number uint32
	handle windows.Handle
}

// OpenPhysicalDrive opens the physical drive with the given index for read with shared read/write access.
func OpenPhysicalDrive(number uint32) (*Disk, error) {
	h, err := open(fmt.Sprintf(`\\.\PhysicalDrive%d`, number), windows.GENERIC_READ)
	if err != nil {
		return nil, err
	}
	return &Disk{number: number, handle: h}, nil
}

// Number returns the physical drive index.
func (d *Disk) Number() uint32 {
	return d.number
}

// Close releases the drive handle.
func (d *Disk) Close() error {
	return windows.CloseHandle(d.handle)
}

// Geometry fetches the drive's size and sector size.
func (d *Disk) Geometry() (Geometry, error) {
	buf, err := ioctl(d.handle, ioctlDiskGetDriveGeometryEx, nil, initialBufferSize)
	if err != nil {
		return Geometry{}, err
	}
	return DecodeGeometry(buf)
}

// DriveLayout fetches the drive's partition table.
func (d *Disk) DriveLayout() ([]LayoutEntry, error) {
	buf, err := ioctl(d.handle, ioctlDiskGetDriveLayoutEx, nil, initialBufferSize)
	if err != nil {
		return nil, err
	}
	return DecodeDriveLayout(buf)
}

// StorageDescriptor fetches the device's vendor, product, serial number, bus type and removable flag.
func (d *Disk) StorageDescriptor() (StorageDescriptor, error) {
	buf, err := ioctl(d.handle, ioctlStorageQueryProperty, propertyQuery(storageDeviceProperty), initialBufferSize)
	if err != nil {
		return StorageDescriptor{}, err
	}
	return DecodeStorageDescriptor(buf)
}

// SeekPenalty reports whether the device incurs a seek penalty, i.e. is rotational.
func (d *Disk) SeekPenalty() (bool, error) {
	buf, err := ioctl(d.handle, ioctlStorageQueryProperty, propertyQuery(storageDeviceSeekPenaltyProperty), seekPenaltyDescriptorResponseSize)
	if err != nil {
		return false, err
	}
	return DecodeSeekPenalty(buf)
}

// Health derives a health score from the drive's SMART failure prediction.
func (d *Disk) Health() (uint8, error) {
	buf, err := ioctl(d.handle, ioctlStoragePredictFailure, nil, predictFailureResponseSize)
	if err != nil {
		return 0, err
	}
	return HealthFromPrediction(buf)
}

// VolumeExtents opens the volume mounted at the given drive letter and returns the disk extents backing it.
func VolumeExtents(letter byte) ([]Extent, error) {
	h, err := open(fmt.Sprintf(`\\.\%c:`, letter), 0)
	if err != nil {
		return nil, err
	}
	defer windows.CloseHandle(h)

	buf, err := ioctl(h, ioctlVolumeGetVolumeDiskExtents, nil, initialBufferSize)
	if err != nil {
		return nil, err
	}
	return DecodeVolumeExtents(buf)
}

// LogicalDrives returns the bitmask of assigned drive letters, bit 0 being A.
func LogicalDrives() (uint32, error) {
	mask, err := windows.GetLogicalDrives()
	if err != nil {
		return 0, fmt.Errorf("get logical drives: %w", err)
	}
	return mask, nil
}

// SystemDiskNumber resolves the physical drive hosting the Windows system directory.
func SystemDiskNumber() (uint32, error) {
	dir, err := windows.GetSystemDirectory()
	if err != nil {
		return 0, fmt.Errorf("get system directory: %w", err)
	}

	dirPtr, err := windows.UTF16PtrFromString(dir)
	if err != nil {
		return 0, err
	}
	volume := make([]uint16, windows.MAX_PATH)
	if err := windows.GetVolumePathName(dirPtr, &volume[0], uint32(len(volume))); err != nil {
		return 0, fmt.Errorf("get volume path for %s: %w", dir, err)
	}

	root := windows.UTF16ToString(volume)
	if len(root) < 2 || root[1] != ':' {
		return 0, fmt.Errorf("system volume %q has no drive letter: %w", root, ErrQueryUnsupported)
	}

	extents, err := VolumeExtents(root[0])
	if err != nil {
		return 0, err
	}
	if len(extents) == 0 {
		return 0, fmt.Errorf("system volume %s has no extents: %w", root, ErrQueryUnsupported)
	}
	return extents[0].DiskNumber, nil
}

func open(path string, access uint32) (windows.Handle, error) {
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return windows.InvalidHandle, err
	}
	h, err := windows.CreateFile(p, access, windows.FILE_SHARE_READ|windows.FILE_SHARE_WRITE, nil, windows.OPEN_EXISTING, 0, 0)
	if err != nil {
		return windows.InvalidHandle, fmt.Errorf("open %s: %v: %w", path, err, ErrDeviceUnavailable)
	}
	return h, nil
}

// propertyQuery builds a STORAGE_PROPERTY_QUERY for a standard query of the given property.
func propertyQuery(property uint32) []byte {
	q := make([]byte, 12)
	binary.LittleEndian.PutUint32(q[0:], property)
	binary.LittleEndian.PutUint32(q[4:], propertyStandardQuery)
	return q
}

// ioctl issues a control request, doubling the output buffer while the driver reports it as too small.
func ioctl(h windows.Handle, code uint32, in []byte, size int) ([]byte, error) {
	var inPtr *byte
	if len(in) > 0 {
		inPtr = &in[0]
	}

	for {
		out := make([]byte, size)
		var returned uint32
		err := windows.DeviceIoControl(h, code, inPtr, uint32(len(in)), &out[0], uint32(len(out)), &returned, nil)
		if err == nil {
			return out[:returned], nil
		}
		if (errors.Is(err, windows.ERROR_INSUFFICIENT_BUFFER) || errors.Is(err, windows.ERROR_MORE_DATA)) && size < maxBufferSize {
			size *= 2
			continue
		}
		return nil, fmt.Errorf("control request %#08x: %v: %w", code, err, ErrQueryUnsupported)
	}
}
