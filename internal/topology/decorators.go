package topology

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
)

// readonlyWrapper provides a typed implementation for DiskBackend that substitutes mutating
// methods with dryrun alternatives.
type readonlyWrapper struct {
	// impl is the DiskBackend implementation that should have mutating methods substituted for dryrun methods.
	impl DiskBackend
}

func (r readonlyWrapper) Enumerate(ctx context.Context) ([]Disk, error) {
	return r.impl.Enumerate(ctx)
}

func (r readonlyWrapper) SetOnline(ctx context.Context, id string) error {
	return fmt.Errorf("skip set online %s: %w", id, ErrReadOnly)
}

func (r readonlyWrapper) SetOffline(ctx context.Context, id string) error {
	return fmt.Errorf("skip set offline %s: %w", id, ErrReadOnly)
}

func (r readonlyWrapper) Mount(ctx context.Context, diskID string, partition uint32, label string) (string, error) {
	return "", fmt.Errorf("skip mount %s partition %d: %w", diskID, partition, ErrReadOnly)
}

func (r readonlyWrapper) Unmount(ctx context.Context, label string) error {
	return fmt.Errorf("skip unmount %s: %w", label, ErrReadOnly)
}

func (r readonlyWrapper) AvailableMountLabels(ctx context.Context) ([]string, error) {
	return r.impl.AvailableMountLabels(ctx)
}

// Type assertion to ensure readonlyWrapper implements the DiskBackend interface.
var _ DiskBackend = (*readonlyWrapper)(nil)

// Dryrun takes a DiskBackend implementation and wraps the mutating methods with dryrun alternatives.
func Dryrun(impl DiskBackend) *readonlyWrapper {
	return &readonlyWrapper{impl}
}

// ActivityRecorder receives a human-readable line for every command that succeeded.
type ActivityRecorder interface {
	Record(message string) error
}

// activityWrapper records successful state changes of the wrapped DiskBackend.
type activityWrapper struct {
	impl DiskBackend
	rec  ActivityRecorder
	log  logrus.FieldLogger
}

func (a activityWrapper) Enumerate(ctx context.Context) ([]Disk, error) {
	return a.impl.Enumerate(ctx)
}

func (a activityWrapper) SetOnline(ctx context.Context, id string) error {
	if err := a.impl.SetOnline(ctx, id); err != nil {
		return err
	}
	a.record("Set disk %s online", id)
	return nil
}

func (a activityWrapper) SetOffline(ctx context.Context, id string) error {
	if err := a.impl.SetOffline(ctx, id); err != nil {
		return err
	}
	a.record("Set disk %s offline", id)
	return nil
}

func (a activityWrapper) Mount(ctx context.Context, diskID string, partition uint32, label string) (string, error) {
	assigned, err := a.impl.Mount(ctx, diskID, partition, label)
	if err != nil {
		return "", err
	}
	if assigned != "" {
		a.record("Mounted partition %d of disk %s at %s", partition, diskID, assigned)
	} else {
		a.record("Mounted partition %d of disk %s", partition, diskID)
	}
	return assigned, nil
}

func (a activityWrapper) Unmount(ctx context.Context, label string) error {
	if err := a.impl.Unmount(ctx, label); err != nil {
		return err
	}
	a.record("Unmounted %s", label)
	return nil
}

func (a activityWrapper) AvailableMountLabels(ctx context.Context) ([]string, error) {
	return a.impl.AvailableMountLabels(ctx)
}

// record writes the line without failing the command that already succeeded.
func (a activityWrapper) record(format string, args ...interface{}) {
	if err := a.rec.Record(fmt.Sprintf(format, args...)); err != nil {
		a.log.WithError(err).Warn("Unable to record activity")
	}
}

// Type assertion to ensure activityWrapper implements the DiskBackend interface.
var _ DiskBackend = (*activityWrapper)(nil)

// WithActivity takes a DiskBackend implementation and records every successful command with rec.
func WithActivity(impl DiskBackend, rec ActivityRecorder) *activityWrapper {
	return &activityWrapper{impl: impl, rec: rec, log: logrus.StandardLogger()}
}
