// Package system identifies the running OS and summarizes its disks.
package system

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/shirou/gopsutil/v3/host"
	"howett.net/plist"
)

const (
	// versionPath is the path on the root filesystem to the SystemVersion plist
	versionPath = "/System/Library/CoreServices/SystemVersion.plist"

	// dotVersionPath is the path to the symlink that directly references versionPath and bypasses the compatibility
	// mode that was introduced with macOS 11.0.
	dotVersionPath = "/System/Library/CoreServices/.SystemVersionPlatform.plist"

	// dotVersionSwitch is the product version number returned by macOS when the system is in compat mode
	// (SYSTEM_VERSION_COMPAT=1). If this version is returned, dotVersionPath should be read to bypass compat mode.
	dotVersionSwitch = "10.16"
)

// OSInfo is the name and version of the running OS.
type OSInfo struct {
	// Name is the human-readable OS name (e.g. "Microsoft Windows 11 Pro", "ubuntu", "darwin").
	Name string
	// Platform is the GOOS style platform name.
	Platform string
	// Version is the OS version as reported by the platform.
	Version string
}

// HostInfo reads the OS name and version from the host.
type HostInfo func(ctx context.Context) (OSInfo, error)

// ReadHost reads the running OS through gopsutil. On macOS the compat mode version is replaced with the real one.
func ReadHost(ctx context.Context) (OSInfo, error) {
	stat, err := host.InfoWithContext(ctx)
	if err != nil {
		return OSInfo{}, fmt.Errorf("read host info: %w", err)
	}

	info := OSInfo{Name: stat.Platform, Platform: stat.OS, Version: stat.PlatformVersion}
	if info.Name == "" {
		info.Name = stat.OS
	}

	if info.Platform == "darwin" {
		info.Version = darwinVersion(info.Version)
	}

	return info, nil
}

// darwinVersion replaces a missing or compat mode version with the one read from the SystemVersion plists.
func darwinVersion(reported string) string {
	path := ""
	switch reported {
	case "":
		path = versionPath
	case dotVersionSwitch:
		path = dotVersionPath
	default:
		return reported
	}

	version, err := readProductVersionFile(path)
	if err != nil || version.ProductVersion == "" {
		return reported
	}
	return version.ProductVersion
}

// VersionInfo mirrors the raw data found in the SystemVersion plist file.
type VersionInfo struct {
	ProductBuildVersion       string `plist:"ProductBuildVersion"`
	ProductName               string `plist:"ProductName"`
	ProductUserVisibleVersion string `plist:"ProductUserVisibleVersion"`
	ProductVersion            string `plist:"ProductVersion"`
}

// decodeVersionInfo attempts to decode the raw data from the reader into a new VersionInfo struct.
func decodeVersionInfo(reader io.ReadSeeker) (version *VersionInfo, err error) {
	version = &VersionInfo{}
	if err = plist.NewDecoder(reader).Decode(version); err != nil {
		return nil, fmt.Errorf("system failed to decode contents of reader: %w", err)
	}

	return version, nil
}

// readProductVersionFile opens the given file and attempts to decode it as VersionInfo.
func readProductVersionFile(path string) (*VersionInfo, error) {
	versionFile, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer versionFile.Close()

	return decodeVersionInfo(versionFile)
}
