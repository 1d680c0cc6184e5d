// Package version provides client/runtime version parsing, comparison,
// and the embedded hardware model catalog.
package version

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gazelink-protocol/gazelink-go/pkg/status"
)

// Current is the client library version.
const Current = "1.3"

// Version represents a parsed "major.minor" version.
type Version struct {
	Major uint16
	Minor uint16
}

// Parse parses a "major.minor" version string.
func Parse(s string) (Version, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 2 {
		return Version{}, fmt.Errorf("invalid version %q: expected major.minor", s)
	}

	major, err := strconv.ParseUint(parts[0], 10, 16)
	if err != nil || parts[0] == "" {
		return Version{}, fmt.Errorf("invalid version %q: bad major component", s)
	}

	minor, err := strconv.ParseUint(parts[1], 10, 16)
	if err != nil || parts[1] == "" {
		return Version{}, fmt.Errorf("invalid version %q: bad minor component", s)
	}

	return Version{Major: uint16(major), Minor: uint16(minor)}, nil
}

// MustParse parses a version string and panics on error. For constants.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// String returns the version as "major.minor".
func (v Version) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// Compare returns -1, 0 or 1 ordering v against other.
func (v Version) Compare(other Version) int {
	if v.Major != other.Major {
		if v.Major < other.Major {
			return -1
		}
		return 1
	}
	if v.Minor != other.Minor {
		if v.Minor < other.Minor {
			return -1
		}
		return 1
	}
	return 0
}

// Compatible reports whether a runtime at the other version can serve
// this client: same major version.
func (v Version) Compatible(other Version) bool {
	return v.Major == other.Major
}

// Versions carries the versions of all parts of a running system.
type Versions struct {
	// Client is the version of this library.
	Client Version
	// Runtime is the version of the connected service.
	Runtime Version
	// Firmware and MaxFirmware are the headset firmware revision and the
	// newest revision the runtime supports.
	Firmware    int
	MaxFirmware int
}

// CheckCompatibility verifies that the runtime can serve this client.
// It returns a Connect_RuntimeVersionTooOld status error when the
// runtime's major version is behind the client's.
func CheckCompatibility(client, runtime Version) error {
	if runtime.Major < client.Major {
		return status.Newf(status.CodeRuntimeVersionTooOld, "runtime %s, client requires %d.x", runtime, client.Major)
	}
	return nil
}
