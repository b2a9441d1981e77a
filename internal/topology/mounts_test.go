package topology

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMountsByDevice(t *testing.T) {
	entries := []MountEntry{
		{Device: "/dev/sda1", Mountpoint: "/media/usb"},
		{Device: "/dev/sda1", Mountpoint: "/mnt/bind"},
		{Device: "/dev/mapper/vg-root", Mountpoint: "/"},
		{Device: "proc", Mountpoint: "/proc"},
	}

	got := mountsByDevice(entries)

	assert.Equal(t, map[string]string{"sda1": "/media/usb", "vg-root": "/"}, got)
}

func TestDeviceForMountpoint(t *testing.T) {
	entries := []MountEntry{{Device: "/dev/sdb1", Mountpoint: "/media/data"}}

	got, ok := deviceForMountpoint(entries, "/media/data/")
	assert.True(t, ok)
	assert.Equal(t, "/dev/sdb1", got)

	_, ok = deviceForMountpoint(entries, "/media")
	assert.False(t, ok)
}
