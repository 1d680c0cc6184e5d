// Package capability defines the client capability flag set and the
// active/passive registration bookkeeping that gates all data queries.
package capability

import "strings"

// Capabilities is a bit set of client capabilities.
// Combine with Union (or plain |), test with Contains.
type Capabilities uint32

// None is the empty capability set, the identity element of Union.
const None Capabilities = 0

const (
	// OrientationTracking enables headset orientation tracking.
	OrientationTracking Capabilities = 1 << iota
	// PositionTracking enables headset position tracking.
	PositionTracking
	// PositionImage enables position camera image transfer.
	PositionImage
	// EyeTracking enables headset eye tracking.
	EyeTracking
	// GazeDepth enables gaze depth computation.
	GazeDepth
	// UserPresence enables user presence detection.
	UserPresence
	// UserAttentionShift enables attention shift computation.
	UserAttentionShift
	// UserIOD enables inter-ocular distance estimation.
	UserIOD
	// UserIPD enables inter-pupillary distance estimation.
	UserIPD
	// EyeTorsion enables eye torsion estimation.
	EyeTorsion
	// EyeShape enables eye outline detection.
	EyeShape
	// EyesImage enables eye camera image transfer.
	EyesImage
	// EyeballRadius enables eyeball radius estimation.
	EyeballRadius
	// IrisRadius enables iris radius estimation.
	IrisRadius
	// PupilRadius enables pupil radius estimation.
	PupilRadius
	// GazedObjectDetection enables gaze target detection over the
	// registered scene.
	GazedObjectDetection
	// DirectScreenAccess gives direct access to the HMD screen, bypassing
	// the compositor.
	DirectScreenAccess
	// PupilShape enables pupil ellipse detection.
	PupilShape
	// EyeBlink enables blink detection and counting.
	EyeBlink
)

// EyeTrackingDomain is the set of capabilities served by the eye tracking
// frame domain.
const EyeTrackingDomain = EyeTracking | GazeDepth | UserPresence |
	UserAttentionShift | UserIOD | UserIPD | EyeTorsion | EyeShape |
	EyeballRadius | IrisRadius | PupilRadius | GazedObjectDetection |
	PupilShape | EyeBlink

// PoseDomain is the set of capabilities served by the pose frame domain.
const PoseDomain = OrientationTracking | PositionTracking | PositionImage

// Union returns the set of capabilities in either c or other.
func (c Capabilities) Union(other Capabilities) Capabilities {
	return c | other
}

// Intersect returns the set of capabilities in both c and other.
func (c Capabilities) Intersect(other Capabilities) Capabilities {
	return c & other
}

// Subtract returns the capabilities of c that are not in other.
func (c Capabilities) Subtract(other Capabilities) Capabilities {
	return c &^ other
}

// Complement returns all capabilities not in c.
func (c Capabilities) Complement() Capabilities {
	return ^c
}

// Contains reports whether every capability of other is in c.
// Containment is reflexive: c.Contains(c) is always true, including for None.
func (c Capabilities) Contains(other Capabilities) bool {
	return c&other == other
}

// Intersects reports whether c and other share at least one capability.
func (c Capabilities) Intersects(other Capabilities) bool {
	return c&other != 0
}

// IsEmpty reports whether c is None.
func (c Capabilities) IsEmpty() bool {
	return c == None
}

var capabilityNames = []struct {
	cap  Capabilities
	name string
}{
	{OrientationTracking, "OrientationTracking"},
	{PositionTracking, "PositionTracking"},
	{PositionImage, "PositionImage"},
	{EyeTracking, "EyeTracking"},
	{GazeDepth, "GazeDepth"},
	{UserPresence, "UserPresence"},
	{UserAttentionShift, "UserAttentionShift"},
	{UserIOD, "UserIOD"},
	{UserIPD, "UserIPD"},
	{EyeTorsion, "EyeTorsion"},
	{EyeShape, "EyeShape"},
	{EyesImage, "EyesImage"},
	{EyeballRadius, "EyeballRadius"},
	{IrisRadius, "IrisRadius"},
	{PupilRadius, "PupilRadius"},
	{GazedObjectDetection, "GazedObjectDetection"},
	{DirectScreenAccess, "DirectScreenAccess"},
	{PupilShape, "PupilShape"},
	{EyeBlink, "EyeBlink"},
}

// String returns the set as "A|B|C", or "None" for the empty set.
func (c Capabilities) String() string {
	if c == None {
		return "None"
	}
	var names []string
	for _, entry := range capabilityNames {
		if c.Contains(entry.cap) {
			names = append(names, entry.name)
		}
	}
	if len(names) == 0 {
		return "Unknown"
	}
	return strings.Join(names, "|")
}

// Parse returns the capability named by s, or (None, false) if unknown.
// Names match the String output of single capabilities.
func Parse(s string) (Capabilities, bool) {
	for _, entry := range capabilityNames {
		if entry.name == s {
			return entry.cap, true
		}
	}
	return None, false
}

// All returns every defined capability.
func All() Capabilities {
	var all Capabilities
	for _, entry := range capabilityNames {
		all |= entry.cap
	}
	return all
}
