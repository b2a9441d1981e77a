package system

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver"
)

// Release is used to define OS releases in an enumerated constant (e.g. Windows 11, Sonoma)
type Release uint8

const (
	Unknown Release = iota
	Mojave
	Catalina
	BigSur
	Monterey
	Ventura
	Sonoma
	Sequoia
	CompatMode
	Windows10
	Windows11
	Linux
)

func (r Release) String() string {
	switch r {
	case Mojave:
		return "Mojave"
	case Catalina:
		return "Catalina"
	case BigSur:
		return "Big Sur"
	case Monterey:
		return "Monterey"
	case Ventura:
		return "Ventura"
	case Sonoma:
		return "Sonoma"
	case Sequoia:
		return "Sequoia"
	case CompatMode:
		return "Compatibility Mode"
	case Windows10:
		return "Windows 10"
	case Windows11:
		return "Windows 11"
	case Linux:
		return "Linux"
	default:
		return "unknown"
	}
}

var (
	// mojaveConstraints are the constraints used to identify Mojave versions (10.14.x).
	mojaveConstraints = mustInitConstraint(semver.NewConstraint("~10.14"))
	// catalinaConstraints are the constraints used to identify Catalina versions (10.15.x).
	catalinaConstraints = mustInitConstraint(semver.NewConstraint("~10.15"))
	// bigSurConstraints are the constraints used to identify BigSur versions (11.x.x).
	bigSurConstraints = mustInitConstraint(semver.NewConstraint("~11"))
	// montereyConstraints are the constraints used to identify Monterey versions (12.x.x).
	montereyConstraints = mustInitConstraint(semver.NewConstraint("~12"))
	// venturaConstraints are the constraints used to identify Ventura versions (13.x.x).
	venturaConstraints = mustInitConstraint(semver.NewConstraint("~13"))
	// sonomaConstraints are the constraints used to identify Sonoma versions (14.x.x).
	sonomaConstraints = mustInitConstraint(semver.NewConstraint("~14"))
	// sequoiaConstraints are the constraints used to identify Sequoia versions (15.x.x).
	sequoiaConstraints = mustInitConstraint(semver.NewConstraint("~15"))
	// compatModeConstraints are the constraints used to identify macOS Big Sur and later. This version is returned
	// when the system is in compat mode (SYSTEM_VERSION_COMPAT=1).
	compatModeConstraints = mustInitConstraint(semver.NewConstraint("~10.16"))

	// windows11Constraints identify Windows 11, which kept the 10.0 kernel version and starts at build 22000.
	windows11Constraints = mustInitConstraint(semver.NewConstraint(">= 10.0.22000"))
	// windows10Constraints identify the remaining 10.0 builds.
	windows10Constraints = mustInitConstraint(semver.NewConstraint("~10.0"))
)

// mustInitConstraint ensures that a semver.Constraints can be initialized and used.
func mustInitConstraint(c *semver.Constraints, err error) *semver.Constraints {
	if err != nil {
		panic(fmt.Errorf("must initialize semver constraint: %w", err))
	}
	return c
}

// Product identifies an OS release and product version (e.g. Windows 11 10.0.22631).
type Product struct {
	Release
	// Platform is the GOOS style platform name: windows, linux or darwin.
	Platform string
	Version  semver.Version
}

func (p Product) String() string {
	switch p.Platform {
	case "darwin":
		return fmt.Sprintf("macOS %s %s", p.Release, p.Version.String())
	case "windows":
		return fmt.Sprintf("%s (%s)", p.Release, p.Version.String())
	default:
		return fmt.Sprintf("%s %s", p.Release, p.Version.String())
	}
}

// NewProduct initializes a new Product given the platform and version string as input. It attempts to parse the
// version into a new semver.Version and then checks the platform's constraints to identify the Release.
func NewProduct(platform, version string) (*Product, error) {
	ver, err := semver.NewVersion(normalizeVersion(version))
	if err != nil {
		return nil, err
	}

	product := &Product{
		Release:  getVersionRelease(platform, *ver),
		Platform: platform,
		Version:  *ver,
	}

	return product, nil
}

// normalizeVersion strips trailing build annotations such as "10.0.22631 Build 22631".
func normalizeVersion(version string) string {
	fields := strings.Fields(version)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// getVersionRelease checks all known release constraints of the platform to determine which Release the version
// belongs to.
func getVersionRelease(platform string, version semver.Version) Release {
	switch platform {
	case "darwin":
		return macOSRelease(version)
	case "windows":
		switch {
		case windows11Constraints.Check(&version):
			return Windows11
		case windows10Constraints.Check(&version):
			return Windows10
		}
		return Unknown
	case "linux":
		return Linux
	default:
		return Unknown
	}
}

func macOSRelease(version semver.Version) Release {
	switch {
	case mojaveConstraints.Check(&version):
		return Mojave
	case catalinaConstraints.Check(&version):
		return Catalina
	case bigSurConstraints.Check(&version):
		return BigSur
	case montereyConstraints.Check(&version):
		return Monterey
	case venturaConstraints.Check(&version):
		return Ventura
	case sonomaConstraints.Check(&version):
		return Sonoma
	case sequoiaConstraints.Check(&version):
		return Sequoia
	case compatModeConstraints.Check(&version):
		return CompatMode
	default:
		return Unknown
	}
}
