package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDiskInfo_ParentDeviceID(t *testing.T) {
	tests := []struct {
		name    string
		disk    *DiskInfo
		wantID  string
		wantErr bool
	}{
		{
			name:    "Bad case: no APFS physical stores",
			disk:    &DiskInfo{APFSPhysicalStores: nil},
			wantErr: true,
		},
		{
			name: "Bad case: fusion drive with two physical stores",
			disk: &DiskInfo{
				APFSPhysicalStores: []APFSPhysicalStore{
					{DeviceIdentifier: "disk0s2"},
					{DeviceIdentifier: "disk1s2"},
				},
			},
			wantErr: true,
		},
		{
			name: "Bad case: physical store doesn't have expected device identifier format",
			disk: &DiskInfo{
				APFSPhysicalStores: []APFSPhysicalStore{{DeviceIdentifier: "device0s2"}},
				DeviceIdentifier:   "disk2",
			},
			wantErr: true,
		},
		{
			name: "Good case: one physical store",
			disk: &DiskInfo{
				APFSPhysicalStores: []APFSPhysicalStore{{DeviceIdentifier: "disk0s2"}},
				DeviceIdentifier:   "disk2",
			},
			wantID: "disk0",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotID, err := tt.disk.ParentDeviceID()

			assert.Equal(t, tt.wantID, gotID, "should have matching parent device ID")

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDiskInfo_Bytes(t *testing.T) {
	assert.Equal(t, uint64(500), (&DiskInfo{Size: 100, TotalSize: 500}).Bytes(), "should prefer total size")
	assert.Equal(t, uint64(100), (&DiskInfo{Size: 100}).Bytes(), "should fall back to size")
}

func TestDiskInfo_IsAPFSMedia(t *testing.T) {
	assert.True(t, (&DiskInfo{FilesystemType: "apfs"}).IsAPFSMedia())
	assert.True(t, (&DiskInfo{IORegistryEntryName: "AppleAPFSMedia"}).IsAPFSMedia())
	assert.False(t, (&DiskInfo{FilesystemType: "msdos"}).IsAPFSMedia())
}

func TestSystemPartitions_ContainersOn(t *testing.T) {
	p := &SystemPartitions{
		AllDisksAndPartitions: []DiskPart{
			{DeviceIdentifier: "disk0", Partitions: []Partition{{DeviceIdentifier: "disk0s2"}}},
			{DeviceIdentifier: "disk3", APFSPhysicalStores: []APFSPhysicalStoreID{{DeviceIdentifier: "disk0s2"}}},
			{DeviceIdentifier: "disk4", APFSPhysicalStores: []APFSPhysicalStoreID{{DeviceIdentifier: "disk10s2"}}},
		},
	}

	got := p.ContainersOn("disk0")

	if assert.Len(t, got, 1) {
		assert.Equal(t, "disk3", got[0].DeviceIdentifier)
	}
	assert.Empty(t, p.ContainersOn("disk1"), "disk1 must not match disk10")
}

func TestAPFSVolume_MountedAt(t *testing.T) {
	tests := []struct {
		name   string
		volume APFSVolume
		want   string
	}{
		{name: "mount point", volume: APFSVolume{MountPoint: "/System/Volumes/Data"}, want: "/System/Volumes/Data"},
		{
			name:   "sealed snapshot",
			volume: APFSVolume{MountedSnapshots: []Snapshot{{SnapshotMountPoint: "/"}}},
			want:   "/",
		},
		{name: "unmounted", volume: APFSVolume{}, want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.volume.MountedAt())
		})
	}
}
