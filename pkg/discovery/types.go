package discovery

import (
	"context"
	"time"

	"github.com/gazelink-protocol/gazelink-go/pkg/capability"
	"github.com/gazelink-protocol/gazelink-go/pkg/version"
)

const (
	// ServiceType is the mDNS service type of a GazeLink runtime.
	ServiceType = "_gazelink._tcp"

	// Domain is the mDNS domain.
	Domain = "local."

	// DefaultPort is the runtime's default service port.
	DefaultPort = 28732

	// MaxInstanceNameLen is the DNS limit on instance name length.
	MaxInstanceNameLen = 63
)

// TXT record keys.
const (
	TXTKeyVersion      = "rv" // runtime version, e.g. "1.3"
	TXTKeyModel        = "hw" // hardware model
	TXTKeyManufacturer = "mf"
	TXTKeySerial       = "sn"
	TXTKeyCapabilities = "ca" // capability bits, hex
	TXTKeyCalibrated   = "cal"
)

// RuntimeInfo describes a runtime to advertise.
type RuntimeInfo struct {
	// InstanceName is the mDNS instance name. Empty derives
	// "GazeLink-<serial>".
	InstanceName string

	SerialNumber string
	Model        string
	Manufacturer string

	// RuntimeVersion is the advertised runtime version.
	RuntimeVersion version.Version

	// Capabilities is the hardware's supported capability set.
	Capabilities capability.Capabilities

	// Calibrated reports whether a calibration exists for the current
	// profile.
	Calibrated bool

	// Port the runtime listens on. Zero means DefaultPort.
	Port uint16
}

// RuntimeService is a runtime found by browsing.
type RuntimeService struct {
	InstanceName string
	Host         string
	Port         uint16
	Addresses    []string

	SerialNumber   string
	Model          string
	Manufacturer   string
	RuntimeVersion version.Version
	Capabilities   capability.Capabilities
	Calibrated     bool
}

// Advertiser announces a runtime on the local network.
type Advertiser interface {
	// Advertise starts announcing the runtime. It keeps announcing
	// until Stop is called or ctx ends.
	Advertise(ctx context.Context, info *RuntimeInfo) error

	// Update replaces the TXT records of a running announcement, for
	// example after a calibration completes.
	Update(info *RuntimeInfo) error

	// Stop withdraws the announcement.
	Stop() error
}

// Browser finds runtimes on the local network.
type Browser interface {
	// Browse emits runtimes as they are found. The channel closes when
	// ctx ends.
	Browse(ctx context.Context) (<-chan *RuntimeService, error)

	// FindBySerial blocks until a runtime with the given serial number
	// appears, or ctx ends.
	FindBySerial(ctx context.Context, serial string) (*RuntimeService, error)
}

// AdvertiserConfig configures advertiser behavior.
type AdvertiserConfig struct {
	// Interface restricts announcements to one network interface.
	// Empty means all interfaces.
	Interface string

	// TTL is the DNS record TTL. Default: 120 seconds.
	TTL time.Duration
}

// DefaultAdvertiserConfig returns the default advertiser configuration.
func DefaultAdvertiserConfig() AdvertiserConfig {
	return AdvertiserConfig{TTL: 120 * time.Second}
}

// BrowserConfig configures browser behavior.
type BrowserConfig struct {
	// Interface restricts browsing to one network interface. Empty
	// means all interfaces.
	Interface string
}
