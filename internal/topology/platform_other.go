//go:build !windows && !linux && !darwin

package topology

import (
	"fmt"
	"runtime"
)

func defaultDevices() DeviceQuerier {
	return nil
}

func newPlatformBackend(o options) (DiskBackend, error) {
	return nil, fmt.Errorf("%s: %w", runtime.GOOS, ErrUnsupportedPlatform)
}
