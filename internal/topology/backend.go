// Package topology enumerates physical disks with their partitions and changes their online and mount state through
// the OS disk tools.
package topology

//go:generate mockgen -destination mocks/mock_topology.go github.com/diskofflaner/diskofflaner/internal/topology DiskBackend

import (
	"context"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/diskofflaner/diskofflaner/internal/diskutil"
	"github.com/diskofflaner/diskofflaner/internal/util"
)

// DiskBackend outlines the disk operations every platform implementation provides. All methods block until the
// underlying tools finish.
type DiskBackend interface {
	// Enumerate returns a fresh snapshot of every physical disk. Disks that cannot be queried are omitted; an error
	// is only returned when the disks cannot be discovered at all.
	Enumerate(ctx context.Context) ([]Disk, error)
	// SetOnline brings the disk with the given id online.
	SetOnline(ctx context.Context, id string) error
	// SetOffline takes the disk with the given id offline.
	SetOffline(ctx context.Context, id string) error
	// Mount mounts a partition of the disk, at label when it is not empty, and returns the label it was mounted at.
	// The returned label is empty when the platform does not report it.
	Mount(ctx context.Context, diskID string, partition uint32, label string) (string, error)
	// Unmount unmounts the volume currently mounted at label.
	Unmount(ctx context.Context, label string) error
	// AvailableMountLabels lists the labels a caller may pass to Mount.
	AvailableMountLabels(ctx context.Context) ([]string, error)
}

// options holds the collaborators of a backend.
type options struct {
	runner     util.Runner
	log        logrus.FieldLogger
	elevated   func() bool
	sysfsRoot  string
	mountTable MountTable
	devices    DeviceQuerier
	diskutil   diskutil.DiskUtil
	getenv     func(string) string
}

// Option configures a backend created with New.
type Option func(*options)

// WithRunner sets the runner used to invoke external tools.
func WithRunner(r util.Runner) Option {
	return func(o *options) {
		o.runner = r
	}
}

// WithLogger sets the logger receiving degradation and consistency messages.
func WithLogger(l logrus.FieldLogger) Option {
	return func(o *options) {
		o.log = l
	}
}

// WithElevation sets the privilege check consulted once per enumeration.
func WithElevation(f func() bool) Option {
	return func(o *options) {
		o.elevated = f
	}
}

// WithSysfsRoot sets the sysfs mount point used for partition numbers and device state on Linux.
func WithSysfsRoot(root string) Option {
	return func(o *options) {
		o.sysfsRoot = root
	}
}

// WithMountTable sets the source of live mounts used to reconcile Linux mount points.
func WithMountTable(m MountTable) Option {
	return func(o *options) {
		o.mountTable = m
	}
}

// WithDevices sets the low-level device access used by the elevated Windows path.
func WithDevices(d DeviceQuerier) Option {
	return func(o *options) {
		o.devices = d
	}
}

// WithDiskUtil sets the diskutil wrapper used on macOS. By default one is built on the runner.
func WithDiskUtil(du diskutil.DiskUtil) Option {
	return func(o *options) {
		o.diskutil = du
	}
}

// WithEnv sets the environment lookup, used for the SystemDrive fallback on Windows.
func WithEnv(getenv func(string) string) Option {
	return func(o *options) {
		o.getenv = getenv
	}
}

func newOptions(opts []Option) options {
	o := options{
		runner:     util.ExecRunner{},
		log:        logrus.StandardLogger(),
		elevated:   IsElevated,
		sysfsRoot:  "/sys",
		mountTable: SystemMountTable{},
		devices:    defaultDevices(),
		getenv:     os.Getenv,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// New creates the DiskBackend for the running OS. The choice is made once; no method branches on the platform.
func New(opts ...Option) (DiskBackend, error) {
	return newPlatformBackend(newOptions(opts))
}
