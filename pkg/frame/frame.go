// Package frame defines the per-domain data frames produced by the runtime
// service and the client-side cache implementing the fetch/get staleness
// protocol: an explicit non-blocking fetch pulls the latest upstream frame
// into a local snapshot, and any number of getters read that snapshot
// without triggering synchronization.
package frame

import (
	"fmt"
	"time"

	"github.com/gazelink-protocol/gazelink-go/pkg/geom"
	"github.com/gazelink-protocol/gazelink-go/pkg/status"
)

// Timestamp identifies which upstream frame a cached value originates from.
// Two timestamps are equal iff both fields match.
type Timestamp struct {
	// ID is the monotonic frame counter, starting at 1 for the first frame
	// the service produces. Zero means "no frame".
	ID uint64

	// Time is the capture time, measured from the service start.
	Time time.Duration
}

// Equal reports whether both fields match.
func (t Timestamp) Equal(other Timestamp) bool {
	return t.ID == other.ID && t.Time == other.Time
}

// After reports whether t identifies a newer frame than other.
func (t Timestamp) After(other Timestamp) bool {
	return t.ID > other.ID
}

// IsZero reports whether t is the zero timestamp (no frame).
func (t Timestamp) IsZero() bool {
	return t.ID == 0
}

// String formats the timestamp as "id@time".
func (t Timestamp) String() string {
	return fmt.Sprintf("%d@%s", t.ID, t.Time)
}

// Domain names one of the independently fetched data domains.
type Domain uint8

const (
	// DomainEyeTracking covers gaze and derived eye quantities.
	DomainEyeTracking Domain = iota
	// DomainEyesImage covers the eye camera image.
	DomainEyesImage
	// DomainPose covers the headset pose.
	DomainPose
	// DomainPositionImage covers the position camera image.
	DomainPositionImage
)

// String returns the domain name.
func (d Domain) String() string {
	switch d {
	case DomainEyeTracking:
		return "EyeTracking"
	case DomainEyesImage:
		return "EyesImage"
	case DomainPose:
		return "Pose"
	case DomainPositionImage:
		return "PositionImage"
	default:
		return "Unknown"
	}
}

// Reliability grades the quality of a measured value.
type Reliability uint8

const (
	// ReliabilityFull means the value is accurate and usable.
	ReliabilityFull Reliability = iota
	// ReliabilityLowAccuracy means the value is usable but degraded.
	ReliabilityLowAccuracy
	// ReliabilityUnreliable means the value should not be used.
	ReliabilityUnreliable
)

// String returns the reliability name.
func (r Reliability) String() string {
	switch r {
	case ReliabilityFull:
		return "Full"
	case ReliabilityLowAccuracy:
		return "LowAccuracy"
	case ReliabilityUnreliable:
		return "Unreliable"
	default:
		return "Unknown"
	}
}

// Err maps the reliability to the corresponding status error: nil for a
// fully reliable value. Getters return this alongside the value, so a
// caller sees the degraded quality but still gets the data.
func (r Reliability) Err() error {
	switch r {
	case ReliabilityLowAccuracy:
		return status.ErrLowAccuracy
	case ReliabilityUnreliable:
		return status.ErrUnreliable
	default:
		return nil
	}
}

// EyeState describes what the eye tracker sees of one eye.
type EyeState uint8

const (
	// EyeNotDetected means the eye was not found in the camera image.
	EyeNotDetected EyeState = iota
	// EyeOpened means the eye is open.
	EyeOpened
	// EyeClosed means the eye is closed.
	EyeClosed
)

// String returns the eye state name.
func (s EyeState) String() string {
	switch s {
	case EyeNotDetected:
		return "NotDetected"
	case EyeOpened:
		return "Opened"
	case EyeClosed:
		return "Closed"
	default:
		return "Unknown"
	}
}

// EyeShape is the outline of an eye in the eye camera image.
type EyeShape struct {
	// Outline is a closed polygon in image coordinates.
	Outline []geom.Vec2
}

// PupilShape is the pupil ellipse in the eye camera image.
type PupilShape struct {
	Center    geom.Vec2
	SemiMajor float64
	SemiMinor float64
	// Angle is the ellipse rotation in degrees.
	Angle float64
}

// EyeSample is the per-eye slice of an eye tracking frame.
type EyeSample struct {
	// GazeVector is the normalized gaze direction in HMD coordinates.
	GazeVector geom.Vec3
	// ScreenPosition is the gaze point on the eye's screen, each axis
	// normalized to [-1, 1] with (0,0) at the center.
	ScreenPosition geom.Vec2
	State          EyeState
	// PupilRadius, IrisRadius and EyeballRadius are in meters.
	PupilRadius   float64
	IrisRadius    float64
	EyeballRadius float64
	// Torsion is the eye torsion angle, in degrees.
	Torsion float64
	Shape   EyeShape
	Pupil   PupilShape
	// Reliability grades this eye's measurements as a whole.
	Reliability Reliability
}

// EyeTrackingFrame is one frame of the eye tracking domain. A frame is
// immutable once published; clients copy it into their cache on fetch.
type EyeTrackingFrame struct {
	Timestamp Timestamp

	Left  EyeSample
	Right EyeSample

	// CombinedRay is the fused binocular gaze ray.
	CombinedRay geom.Ray
	// CombinedDepth is the fused gaze depth, in meters.
	CombinedDepth float64
	// CombinedScreenPosition averages both eyes' screen positions.
	CombinedScreenPosition geom.Vec2
	// CombinedReliability grades the fused quantities.
	CombinedReliability Reliability

	UserPresent    bool
	AttentionShift bool
	// IPD and IOD are in meters.
	IPD float64
	IOD float64

	// GazedObjectID is the id of the registered scene object currently
	// gazed at, or ObjectIDInvalid when none.
	GazedObjectID int64
}

// Sample returns the per-eye slice of the frame.
func (f *EyeTrackingFrame) Sample(eye geom.Eye) EyeSample {
	if eye == geom.EyeRight {
		return f.Right
	}
	return f.Left
}

// ObjectIDInvalid is the gazed object id reported when the user is not
// looking at any registered object. Object ids must be positive.
const ObjectIDInvalid int64 = 0

// BitmapImage is a camera image transported from the service.
type BitmapImage struct {
	Width  int
	Height int
	// Data is the encoded image; the service reports BMP frames.
	Data []byte
}

// EyesImageFrame is one frame of the eye camera image domain.
type EyesImageFrame struct {
	Timestamp Timestamp
	Image     BitmapImage
}

// PoseFrame is one frame of the pose domain.
type PoseFrame struct {
	Timestamp   Timestamp
	Pose        geom.Pose
	Reliability Reliability
}

// PositionImageFrame is one frame of the position camera image domain.
type PositionImageFrame struct {
	Timestamp Timestamp
	Image     BitmapImage
}

// FrameTimestamp returns the frame's timestamp.
func (f EyeTrackingFrame) FrameTimestamp() Timestamp { return f.Timestamp }

// FrameTimestamp returns the frame's timestamp.
func (f EyesImageFrame) FrameTimestamp() Timestamp { return f.Timestamp }

// FrameTimestamp returns the frame's timestamp.
func (f PoseFrame) FrameTimestamp() Timestamp { return f.Timestamp }

// FrameTimestamp returns the frame's timestamp.
func (f PositionImageFrame) FrameTimestamp() Timestamp { return f.Timestamp }

// Framed is implemented by every frame type. It lets generic code read
// the timestamp without knowing the concrete domain.
type Framed interface {
	FrameTimestamp() Timestamp
}
