package sim

import (
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gazelink-protocol/gazelink-go/pkg/geom"
	"github.com/gazelink-protocol/gazelink-go/pkg/status"
)

// Scenario scripts the simulated user over the tracking clock. Times
// are offsets from the start of the simulation.
type Scenario struct {
	// Hardware is the hardware model key to simulate.
	Hardware string `yaml:"hardware,omitempty"`

	// Presence scripts when the user puts the headset on and off. The
	// entries must be in ascending time order.
	Presence []PresenceKey `yaml:"presence,omitempty"`

	// Gaze scripts the combined gaze direction. Between keys the
	// direction is linearly interpolated.
	Gaze []GazeKey `yaml:"gaze,omitempty"`
}

// Duration wraps time.Duration so scenario files can write offsets as
// "250ms" or "3s".
type Duration time.Duration

// UnmarshalYAML parses a Go duration string.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML renders the duration as a string.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// PresenceKey switches user presence at a point in time.
type PresenceKey struct {
	At      Duration `yaml:"at"`
	Present bool     `yaml:"present"`
}

// GazeKey pins the gaze direction at a point in time.
type GazeKey struct {
	At        Duration  `yaml:"at"`
	Direction geom.Vec3 `yaml:"direction"`
}

// LoadScenario reads a scenario from a YAML file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, status.FromSystemError(err)
	}
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parsing scenario %s: %w", path, err)
	}
	if err := s.validate(); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	return &s, nil
}

func (s *Scenario) validate() error {
	if !sort.SliceIsSorted(s.Presence, func(i, j int) bool { return s.Presence[i].At < s.Presence[j].At }) {
		return fmt.Errorf("presence keys out of order")
	}
	if !sort.SliceIsSorted(s.Gaze, func(i, j int) bool { return s.Gaze[i].At < s.Gaze[j].At }) {
		return fmt.Errorf("gaze keys out of order")
	}
	for i, k := range s.Gaze {
		if k.Direction.Norm() == 0 {
			return fmt.Errorf("gaze key %d has a zero direction", i)
		}
	}
	return nil
}

// apply folds scenario-level settings into the runtime options.
func (s *Scenario) apply(opts *Options) {
	if s.Hardware != "" && opts.Hardware == "" {
		opts.Hardware = s.Hardware
	}
	if len(s.Presence) > 0 {
		opts.UserPresent = false
	}
}

// presentAt evaluates the presence script at time t. Before the first
// key the user is absent.
func (s *Scenario) presentAt(t time.Duration) bool {
	present := false
	for _, k := range s.Presence {
		if time.Duration(k.At) > t {
			break
		}
		present = k.Present
	}
	return present
}

// gazeAt interpolates the gaze script at time t. It reports false when
// the script has no keys, letting the default gaze model take over.
func (s *Scenario) gazeAt(t time.Duration) (geom.Vec3, bool) {
	if len(s.Gaze) == 0 {
		return geom.Vec3{}, false
	}
	if t <= time.Duration(s.Gaze[0].At) {
		return s.Gaze[0].Direction, true
	}
	last := s.Gaze[len(s.Gaze)-1]
	if t >= time.Duration(last.At) {
		return last.Direction, true
	}
	idx := sort.Search(len(s.Gaze), func(i int) bool { return time.Duration(s.Gaze[i].At) > t })
	a, b := s.Gaze[idx-1], s.Gaze[idx]
	span := time.Duration(b.At) - time.Duration(a.At)
	if span == 0 {
		return b.Direction, true
	}
	f := float64(t-time.Duration(a.At)) / float64(span)
	return a.Direction.Scale(1 - f).Add(b.Direction.Scale(f)), true
}
