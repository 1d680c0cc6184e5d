package version

import (
	"embed"
	"fmt"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/gazelink-protocol/gazelink-go/pkg/capability"
)

//go:embed hardware/*.yaml
var hardwareFS embed.FS

// HardwareManifest describes a supported headset model: its identity,
// the minimum runtime it needs, and the capabilities its sensors offer.
type HardwareManifest struct {
	Model        string   `yaml:"model"`
	Manufacturer string   `yaml:"manufacturer"`
	MinRuntime   string   `yaml:"min_runtime"`
	Capabilities []string `yaml:"capabilities"`
}

var (
	manifestMu    sync.RWMutex
	manifestCache = make(map[string]*HardwareManifest)
)

// LoadHardware loads the manifest for a hardware model (e.g. "gl2").
func LoadHardware(model string) (*HardwareManifest, error) {
	manifestMu.RLock()
	if m, ok := manifestCache[model]; ok {
		manifestMu.RUnlock()
		return m, nil
	}
	manifestMu.RUnlock()

	data, err := hardwareFS.ReadFile("hardware/" + model + ".yaml")
	if err != nil {
		return nil, fmt.Errorf("hardware model %q not found: %w", model, err)
	}

	var m HardwareManifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing hardware manifest %q: %w", model, err)
	}

	manifestMu.Lock()
	manifestCache[model] = &m
	manifestMu.Unlock()

	return &m, nil
}

// AvailableHardware returns the model keys of all embedded manifests.
func AvailableHardware() ([]string, error) {
	entries, err := hardwareFS.ReadDir("hardware")
	if err != nil {
		return nil, fmt.Errorf("reading hardware directory: %w", err)
	}

	var models []string
	for _, e := range entries {
		name := e.Name()
		if strings.HasSuffix(name, ".yaml") {
			models = append(models, strings.TrimSuffix(name, ".yaml"))
		}
	}
	sort.Strings(models)
	return models, nil
}

// CapabilitySet resolves the manifest's capability names into a set.
// Unknown names are reported as an error.
func (m *HardwareManifest) CapabilitySet() (capability.Capabilities, error) {
	set := capability.None
	for _, name := range m.Capabilities {
		c, ok := capability.Parse(name)
		if !ok {
			return capability.None, fmt.Errorf("manifest %s: unknown capability %q", m.Model, name)
		}
		set = set.Union(c)
	}
	return set, nil
}

// MinRuntimeVersion parses the manifest's minimum runtime version.
func (m *HardwareManifest) MinRuntimeVersion() (Version, error) {
	return Parse(m.MinRuntime)
}
