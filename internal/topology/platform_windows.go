package topology

import (
	"github.com/diskofflaner/diskofflaner/internal/devio"
)

// systemDevices implements DeviceQuerier on the devio IOCTL wrappers.
type systemDevices struct{}

func (systemDevices) OpenDisk(number uint32) (DiskDevice, error) {
	d, err := devio.OpenPhysicalDrive(number)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (systemDevices) VolumeExtents(letter byte) ([]devio.Extent, error) {
	return devio.VolumeExtents(letter)
}

func (systemDevices) LogicalDrives() (uint32, error) {
	return devio.LogicalDrives()
}

func (systemDevices) SystemDiskNumber() (uint32, error) {
	return devio.SystemDiskNumber()
}

// Type assertion to ensure systemDevices implements the DeviceQuerier interface.
var _ DeviceQuerier = systemDevices{}

func defaultDevices() DeviceQuerier {
	return systemDevices{}
}

func newPlatformBackend(o options) (DiskBackend, error) {
	return newWindowsBackend(o), nil
}
