package topology

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diskofflaner/diskofflaner/internal/util"
	mock_util "github.com/diskofflaner/diskofflaner/internal/util/mocks"
)

const lsblkJSON = `{
   "blockdevices": [
      {"name":"nvme0n1", "size":512110190592, "type":"disk", "mountpoint":null, "model":"Samsung SSD 970 EVO Plus 500GB",
       "serial":"S4EVNX0N", "state":"live", "rm":false, "rota":false, "tran":"nvme",
         "children": [
            {"name":"nvme0n1p1", "size":536870912, "type":"part", "mountpoint":"/boot/efi", "model":null, "serial":null,
             "state":null, "rm":false, "rota":false, "tran":null},
            {"name":"nvme0n1p2", "size":511000000000, "type":"part", "mountpoint":"/", "model":null, "serial":null,
             "state":null, "rm":false, "rota":false, "tran":null}
         ]
      },
      {"name":"sda", "size":"8053063680", "type":"disk", "mountpoint":null, "model":"Cruzer Blade", "serial":"4C530001",
       "state":"running", "rm":"1", "rota":"1", "tran":"usb",
         "children": [
            {"name":"sda1", "size":"8052000000", "type":"part", "mountpoint":null, "rm":"1", "rota":"1"}
         ]
      },
      {"name":"sdb", "size":1000204886016, "type":"disk", "mountpoint":null, "model":null, "serial":null,
       "state":"offline", "rm":false, "tran":null},
      {"name":"sr0", "size":1073741312, "type":"rom", "mountpoint":null, "model":"DVD-RW", "rm":true, "rota":true, "tran":"sata"}
   ]
}`

// fakeMountTable serves a fixed mount table.
type fakeMountTable struct {
	entries []MountEntry
	err     error
}

func (f fakeMountTable) Mounts(ctx context.Context) ([]MountEntry, error) {
	return f.entries, f.err
}

// newSysfs lays out the sysfs files the Linux backend reads and writes.
func newSysfs(t *testing.T) string {
	root := t.TempDir()
	write := func(rel, content string) {
		p := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	}
	write("class/block/nvme0n1p1/partition", "1\n")
	write("class/block/nvme0n1p2/partition", "2\n")
	write("block/sda/device/state", "running\n")
	write("block/sdb/device/state", "offline\n")
	write("block/nvme0n1/device/state", "live\n")
	return root
}

func newTestLinuxBackend(runner util.Runner, sysfs string, mounts MountTable) *LinuxBackend {
	log, _ := test.NewNullLogger()
	return NewLinuxBackend(WithRunner(runner), WithSysfsRoot(sysfs), WithMountTable(mounts), WithLogger(log))
}

func expectLsblk(runner *mock_util.MockRunner) *gomock.Call {
	return runner.EXPECT().Execute(gomock.Any(), []string{"lsblk", "-J", "-b", "-o", lsblkColumns}, "").
		Return(util.CommandOutput{Stdout: lsblkJSON}, nil)
}

func TestLinuxBackend_Enumerate(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	runner := mock_util.NewMockRunner(ctrl)
	expectLsblk(runner)
	mounts := fakeMountTable{entries: []MountEntry{
		{Device: "/dev/sda1", Mountpoint: "/media/user/CRUZER", Fstype: "vfat"},
		{Device: "tmpfs", Mountpoint: "/run", Fstype: "tmpfs"},
	}}

	disks, err := newTestLinuxBackend(runner, newSysfs(t), mounts).Enumerate(context.Background())

	assert.NoError(t, err)
	if !assert.Len(t, disks, 3, "only disk devices are reported") {
		return
	}

	nvme := disks[0]
	assert.Equal(t, "nvme0n1", nvme.ID)
	assert.Equal(t, "Samsung SSD 970 EVO Plus 500GB", nvme.Model)
	assert.Equal(t, uint64(512110190592), nvme.Size)
	assert.Equal(t, NVMe, nvme.Type)
	assert.True(t, nvme.Online)
	assert.True(t, nvme.System)
	assert.Equal(t, "S4EVNX0N", nvme.SerialNumber)
	assert.Nil(t, nvme.Health)
	assert.Equal(t, []Partition{
		{Number: 1, Size: 536870912, MountLabel: "/boot/efi", ID: "nvme0n1p1"},
		{Number: 2, Size: 511000000000, MountLabel: "/", ID: "nvme0n1p2"},
	}, nvme.Partitions)

	usb := disks[1]
	assert.Equal(t, USBFlash, usb.Type)
	assert.False(t, usb.System)
	assert.Equal(t, uint64(8053063680), usb.Size, "string sizes from older lsblk should parse")
	assert.Equal(t, []Partition{
		{Number: 1, Size: 8052000000, MountLabel: "/media/user/CRUZER", ID: "sda1"},
	}, usb.Partitions, "the mount table fills in what lsblk missed")

	offline := disks[2]
	assert.Equal(t, "Disk sdb", offline.Model)
	assert.False(t, offline.Online)
	assert.Equal(t, HDD, offline.Type)
	assert.Empty(t, offline.Partitions)
}

func TestLinuxBackend_Enumerate_MountTableUnavailable(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	runner := mock_util.NewMockRunner(ctrl)
	expectLsblk(runner)

	disks, err := newTestLinuxBackend(runner, newSysfs(t), fakeMountTable{err: errors.New("no /proc")}).
		Enumerate(context.Background())

	assert.NoError(t, err)
	assert.False(t, disks[1].Partitions[0].Mounted())
}

func TestLinuxBackend_Enumerate_DiscoveryFails(t *testing.T) {
	tests := []struct {
		name    string
		out     util.CommandOutput
		err     error
		wantErr error
	}{
		{name: "lsblk missing", err: fmt.Errorf("cannot start lsblk: %w", util.ErrToolNotFound), wantErr: util.ErrToolNotFound},
		{name: "garbage output", out: util.CommandOutput{Stdout: "lsblk: unknown column: STATE"}, wantErr: ErrParse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			runner := mock_util.NewMockRunner(ctrl)
			runner.EXPECT().Execute(gomock.Any(), gomock.Any(), "").Return(tt.out, tt.err)

			_, err := newTestLinuxBackend(runner, t.TempDir(), nil).Enumerate(context.Background())

			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLinuxBackend_SetOffline(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	runner := mock_util.NewMockRunner(ctrl)
	expectLsblk(runner).Times(2)
	sysfs := newSysfs(t)
	backend := newTestLinuxBackend(runner, sysfs, nil)

	assert.NoError(t, backend.SetOffline(context.Background(), "sda"))
	state, err := os.ReadFile(filepath.Join(sysfs, "block/sda/device/state"))
	assert.NoError(t, err)
	assert.Equal(t, "offline", string(state))

	err = backend.SetOffline(context.Background(), "nvme0n1")
	assert.ErrorIs(t, err, ErrSystemDiskProtected)
	state, _ = os.ReadFile(filepath.Join(sysfs, "block/nvme0n1/device/state"))
	assert.Equal(t, "live\n", string(state), "the system disk state must be left untouched")
}

func TestLinuxBackend_SetOnline(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	sysfs := newSysfs(t)
	backend := newTestLinuxBackend(mock_util.NewMockRunner(ctrl), sysfs, nil)

	assert.NoError(t, backend.SetOnline(context.Background(), "sdb"))
	state, _ := os.ReadFile(filepath.Join(sysfs, "block/sdb/device/state"))
	assert.Equal(t, "running", string(state))

	assert.ErrorIs(t, backend.SetOnline(context.Background(), "nvme9n9"), ErrInvalidArgument)
	assert.ErrorIs(t, backend.SetOnline(context.Background(), "../sda"), ErrInvalidArgument)
}

func TestLinuxBackend_Mount(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	runner := mock_util.NewMockRunner(ctrl)
	gomock.InOrder(
		runner.EXPECT().Execute(gomock.Any(), []string{"udisksctl", "mount", "-b", "/dev/sda1"}, "").
			Return(util.CommandOutput{Stdout: "Mounted /dev/sda1 at /media/user/CRUZER.\n"}, nil),
		runner.EXPECT().Execute(gomock.Any(), []string{"udisksctl", "mount", "-b", "/dev/nvme0n1p3"}, "").
			Return(util.CommandOutput{
				Stderr:   "Error mounting /dev/nvme0n1p3: GDBus.Error:org.freedesktop.UDisks2.Error.NotAuthorizedCanObtain",
				ExitCode: 1,
			}, &util.ToolError{Name: "udisksctl", ExitCode: 1}),
	)
	backend := newTestLinuxBackend(runner, t.TempDir(), nil)

	got, err := backend.Mount(context.Background(), "sda", 1, "")
	assert.NoError(t, err)
	assert.Equal(t, "/media/user/CRUZER", got)

	_, err = backend.Mount(context.Background(), "nvme0n1", 3, "")
	assert.ErrorIs(t, err, ErrServiceError)
	assert.ErrorIs(t, err, util.ErrToolFailed)

	_, err = backend.Mount(context.Background(), "sda", 1, "/mnt/usb")
	assert.ErrorIs(t, err, ErrInvalidArgument, "udisks picks the mount point itself")
}

func TestLinuxBackend_Mount_VolumeLabelIsNotAnError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	runner := mock_util.NewMockRunner(ctrl)
	runner.EXPECT().Execute(gomock.Any(), []string{"udisksctl", "mount", "-b", "/dev/sdb1"}, "").
		Return(util.CommandOutput{Stdout: "Mounted /dev/sdb1 at /media/user/System Disk.\n"}, nil)
	backend := newTestLinuxBackend(runner, t.TempDir(), nil)

	got, err := backend.Mount(context.Background(), "sdb", 1, "")

	assert.NoError(t, err)
	assert.Equal(t, "/media/user/System Disk", got)
}

func TestLinuxBackend_Unmount(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	runner := mock_util.NewMockRunner(ctrl)
	gomock.InOrder(
		runner.EXPECT().Execute(gomock.Any(), []string{"findmnt", "-n", "-o", "SOURCE", "/media/user/CRUZER"}, "").
			Return(util.CommandOutput{Stdout: "/dev/sda1\n"}, nil),
		runner.EXPECT().Execute(gomock.Any(), []string{"udisksctl", "unmount", "-b", "/dev/sda1"}, "").
			Return(util.CommandOutput{Stdout: "Unmounted /dev/sda1.\n"}, nil),
	)

	err := newTestLinuxBackend(runner, t.TempDir(), nil).Unmount(context.Background(), "/media/user/CRUZER")

	assert.NoError(t, err)
}

func TestLinuxBackend_Unmount_MountTableFallback(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	runner := mock_util.NewMockRunner(ctrl)
	gomock.InOrder(
		runner.EXPECT().Execute(gomock.Any(), []string{"findmnt", "-n", "-o", "SOURCE", "/media/usb/"}, "").
			Return(util.CommandOutput{ExitCode: -1}, fmt.Errorf("cannot start findmnt: %w", util.ErrToolNotFound)),
		runner.EXPECT().Execute(gomock.Any(), []string{"udisksctl", "unmount", "-b", "/dev/sdc1"}, "").
			Return(util.CommandOutput{Stderr: "Error unmounting /dev/sdc1: target is busy"}, &util.ToolError{Name: "udisksctl", ExitCode: 1}),
	)
	mounts := fakeMountTable{entries: []MountEntry{{Device: "/dev/sdc1", Mountpoint: "/media/usb"}}}

	err := newTestLinuxBackend(runner, t.TempDir(), mounts).Unmount(context.Background(), "/media/usb/")

	assert.ErrorIs(t, err, ErrResourceInUse)
}

func TestLinuxBackend_Unmount_NotMounted(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	runner := mock_util.NewMockRunner(ctrl)
	runner.EXPECT().Execute(gomock.Any(), []string{"findmnt", "-n", "-o", "SOURCE", "/nowhere"}, "").
		Return(util.CommandOutput{ExitCode: 1}, &util.ToolError{Name: "findmnt", ExitCode: 1})
	backend := newTestLinuxBackend(runner, t.TempDir(), nil)

	assert.ErrorIs(t, backend.Unmount(context.Background(), "/nowhere"), ErrInvalidArgument)
	assert.ErrorIs(t, backend.Unmount(context.Background(), "E:"), ErrInvalidArgument)
}

func TestLinuxBackend_AvailableMountLabels(t *testing.T) {
	got, err := newTestLinuxBackend(nil, t.TempDir(), nil).AvailableMountLabels(context.Background())

	assert.NoError(t, err)
	assert.Empty(t, got)
}

func TestPartitionDeviceName(t *testing.T) {
	assert.Equal(t, "sda1", PartitionDeviceName("sda", 1))
	assert.Equal(t, "nvme0n1p2", PartitionDeviceName("nvme0n1", 2))
	assert.Equal(t, "mmcblk0p1", PartitionDeviceName("mmcblk0", 1))
}

func TestParseMountedAt(t *testing.T) {
	assert.Equal(t, "/media/user/My Disk", parseMountedAt("Mounted /dev/sdb1 at /media/user/My Disk.\n"))
	assert.Equal(t, "", parseMountedAt("Error mounting /dev/sdb1"))
}
