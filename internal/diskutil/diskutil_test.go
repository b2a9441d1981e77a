package diskutil

import (
	"context"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"

	"github.com/diskofflaner/diskofflaner/internal/util"
	mock_util "github.com/diskofflaner/diskofflaner/internal/util/mocks"
)

const humanListing = `/dev/disk3 (synthesized):
   #:                       TYPE NAME                    SIZE       IDENTIFIER
   0:      APFS Container Scheme -                      +494.4 GB   disk3
                                 Physical Store disk0s2
   1:                APFS Volume Macintosh HD            15.3 GB    disk3s1
`

func TestDiskutil_Info(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	runner := mock_util.NewMockRunner(ctrl)
	runner.EXPECT().Execute(gomock.Any(), []string{"diskutil", "info", "-plist", "/"}, "").
		Return(util.CommandOutput{Stdout: infoPlist}, nil)

	got, err := New(runner).Info(context.Background(), "/")

	assert.NoError(t, err)
	assert.Equal(t, "disk0", got.DeviceIdentifier)
	assert.Equal(t, "Verified", got.SMARTStatus)
}

func TestDiskutil_List_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	runner := mock_util.NewMockRunner(ctrl)
	runner.EXPECT().Execute(gomock.Any(), []string{"diskutil", "list", "-plist", "physical"}, "").
		Return(util.CommandOutput{Stderr: "boom"}, util.ErrToolFailed)

	got, err := New(runner).List(context.Background(), []string{"physical"})

	assert.ErrorIs(t, err, util.ErrToolFailed, "should keep the runner error")
	assert.Nil(t, got)
}

func TestDiskutil_PhysicalStore(t *testing.T) {
	tests := []struct {
		name    string
		out     string
		err     error
		want    string
		wantErr bool
	}{
		{name: "Good case: container listing", out: humanListing, want: "disk0s2"},
		{name: "Bad case: no physical store", out: "/dev/disk0 (internal):\n", wantErr: true},
		{name: "Bad case: diskutil failed", err: errors.New("exit 1"), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			runner := mock_util.NewMockRunner(ctrl)
			runner.EXPECT().Execute(gomock.Any(), []string{"diskutil", "list", "disk3"}, "").
				Return(util.CommandOutput{Stdout: tt.out}, tt.err)

			got, err := New(runner).PhysicalStore(context.Background(), "disk3")

			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDiskutil_Mount(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	runner := mock_util.NewMockRunner(ctrl)
	gomock.InOrder(
		runner.EXPECT().Execute(gomock.Any(), []string{"diskutil", "mount", "disk4s1"}, "").
			Return(util.CommandOutput{Stdout: "Volume USB on disk4s1 mounted"}, nil),
		runner.EXPECT().Execute(gomock.Any(), []string{"diskutil", "mount", "-mountPoint", "/tmp/usb", "disk4s1"}, "").
			Return(util.CommandOutput{}, nil),
	)

	du := New(runner)

	out, err := du.Mount(context.Background(), "disk4s1", "")
	assert.NoError(t, err)
	assert.Contains(t, out.Stdout, "mounted")

	_, err = du.Mount(context.Background(), "disk4s1", "/tmp/usb")
	assert.NoError(t, err)
}

func TestDiskutil_DiskVerbs(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	runner := mock_util.NewMockRunner(ctrl)
	gomock.InOrder(
		runner.EXPECT().Execute(gomock.Any(), []string{"diskutil", "unmountDisk", "disk4"}, "").Return(util.CommandOutput{}, nil),
		runner.EXPECT().Execute(gomock.Any(), []string{"diskutil", "mountDisk", "disk4"}, "").Return(util.CommandOutput{}, nil),
		runner.EXPECT().Execute(gomock.Any(), []string{"diskutil", "unmount", "/Volumes/USB"}, "").Return(util.CommandOutput{}, nil),
	)

	du := New(runner)
	ctx := context.Background()

	_, err := du.UnmountDisk(ctx, "disk4")
	assert.NoError(t, err)
	_, err = du.MountDisk(ctx, "disk4")
	assert.NoError(t, err)
	_, err = du.Unmount(ctx, "/Volumes/USB")
	assert.NoError(t, err)
}

func TestParsePhysicalStoreID(t *testing.T) {
	got, err := parsePhysicalStoreID("Physical Store disk1s2s1")
	assert.NoError(t, err)
	assert.Equal(t, "disk1s2s1", got)

	_, err = parsePhysicalStoreID("")
	assert.Error(t, err, "should fail without a physical store")
}
