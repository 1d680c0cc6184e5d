// Package calibration defines the eye tracking calibration session
// vocabulary: states and their transition rules, run options, and the
// per-tick rendering data handed to the prioritized renderer.
package calibration

import "github.com/gazelink-protocol/gazelink-go/pkg/geom"

// State is the state of a calibration process.
type State uint8

const (
	// NotStarted means no calibration process is running.
	NotStarted State = iota
	// HeadsetAdjustment means the user is being asked to adjust the
	// headset position before calibration proper begins.
	HeadsetAdjustment
	// WaitingForUser means the process is waiting for the user to fixate
	// the current target.
	WaitingForUser
	// CollectingData means gaze samples for the current target are being
	// collected.
	CollectingData
	// ProcessingData means collection finished and the result is being
	// computed.
	ProcessingData
	// SuccessfulHighQuality is a terminal success with high quality.
	SuccessfulHighQuality
	// SuccessfulMediumQuality is a terminal success with medium quality.
	SuccessfulMediumQuality
	// SuccessfulLowQuality is a terminal success with low quality.
	SuccessfulLowQuality
	// FailedUnknown is a terminal failure with no specific cause.
	FailedUnknown
	// FailedInaccurateData is a terminal failure: the collected samples
	// were too inaccurate.
	FailedInaccurateData
	// FailedNoRenderer is a terminal failure: nothing rendered the
	// process and the service could not either.
	FailedNoRenderer
	// FailedNoUser is a terminal failure: no user was detected.
	FailedNoUser
	// FailedAborted is a terminal failure: the process was stopped.
	FailedAborted
)

var stateNames = map[State]string{
	NotStarted:              "NotStarted",
	HeadsetAdjustment:       "HeadsetAdjustment",
	WaitingForUser:          "WaitingForUser",
	CollectingData:          "CollectingData",
	ProcessingData:          "ProcessingData",
	SuccessfulHighQuality:   "Successful_HighQuality",
	SuccessfulMediumQuality: "Successful_MediumQuality",
	SuccessfulLowQuality:    "Successful_LowQuality",
	FailedUnknown:           "Failed_Unknown",
	FailedInaccurateData:    "Failed_InaccurateData",
	FailedNoRenderer:        "Failed_NoRenderer",
	FailedNoUser:            "Failed_NoUser",
	FailedAborted:           "Failed_Aborted",
}

// String returns the state name.
func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return "Unknown"
}

// IsSuccess reports whether s is a terminal success state.
func (s State) IsSuccess() bool {
	switch s {
	case SuccessfulHighQuality, SuccessfulMediumQuality, SuccessfulLowQuality:
		return true
	}
	return false
}

// IsFailure reports whether s is a terminal failure state.
func (s State) IsFailure() bool {
	switch s {
	case FailedUnknown, FailedInaccurateData, FailedNoRenderer, FailedNoUser, FailedAborted:
		return true
	}
	return false
}

// IsTerminal reports whether the process has finished, successfully or not.
func (s State) IsTerminal() bool {
	return s.IsSuccess() || s.IsFailure()
}

// Running reports whether a process is in progress: neither NotStarted nor
// terminal.
func (s State) Running() bool {
	return s != NotStarted && !s.IsTerminal()
}

// ValidTransition reports whether a process may move from one state to the
// next. The process starts at NotStarted, optionally passes through
// HeadsetAdjustment, oscillates between WaitingForUser and CollectingData
// while targets are presented, moves to ProcessingData, and terminates in
// a success or failure state. A failure may occur from any non-terminal
// state. Staying in place is always valid.
func ValidTransition(from, to State) bool {
	if from == to {
		return true
	}
	if to.IsFailure() {
		return !from.IsTerminal()
	}
	switch from {
	case NotStarted:
		return to == HeadsetAdjustment || to == WaitingForUser
	case HeadsetAdjustment:
		return to == WaitingForUser
	case WaitingForUser:
		return to == CollectingData || to == ProcessingData
	case CollectingData:
		return to == WaitingForUser || to == ProcessingData
	case ProcessingData:
		return to.IsSuccess()
	default:
		// Terminal states only reset to NotStarted when a new process starts.
		return to == NotStarted
	}
}

// Method selects the calibration procedure.
type Method uint8

const (
	// MethodDefault lets the service pick the procedure.
	MethodDefault Method = iota
	// MethodZeroPoint calibrates with no targets at all.
	MethodZeroPoint
	// MethodOnePoint calibrates with a single central target.
	MethodOnePoint
	// MethodSpiral presents a spiral of targets.
	MethodSpiral
	// MethodOnePointWithNoGlassesSpiralWithGlasses picks one-point for
	// users without glasses and spiral otherwise.
	MethodOnePointWithNoGlassesSpiralWithGlasses
)

// String returns the method name.
func (m Method) String() string {
	switch m {
	case MethodDefault:
		return "Default"
	case MethodZeroPoint:
		return "ZeroPoint"
	case MethodOnePoint:
		return "OnePoint"
	case MethodSpiral:
		return "Spiral"
	case MethodOnePointWithNoGlassesSpiralWithGlasses:
		return "OnePointWithNoGlassesSpiralWithGlasses"
	default:
		return "Unknown"
	}
}

// EyeByEye selects whether each eye is calibrated separately.
type EyeByEye uint8

const (
	// EyeByEyeDefault lets the service decide.
	EyeByEyeDefault EyeByEye = iota
	// EyeByEyeDisabled calibrates both eyes together.
	EyeByEyeDisabled
	// EyeByEyeEnabled calibrates the eyes one at a time.
	EyeByEyeEnabled
)

// TorsionMode selects whether eye torsion calibration runs as part of the
// process.
type TorsionMode uint8

const (
	// TorsionDefault lets the service decide.
	TorsionDefault TorsionMode = iota
	// TorsionIfEnabled runs torsion calibration only when the torsion
	// capability is registered.
	TorsionIfEnabled
	// TorsionAlways always runs torsion calibration.
	TorsionAlways
)

// Options specifies how to run a calibration process.
type Options struct {
	// Lazy skips the process entirely if a calibration already exists.
	Lazy bool
	// Restart restarts from the beginning if a process is already running.
	Restart bool
	// EyeByEye selects per-eye calibration.
	EyeByEye EyeByEye
	// Method selects the procedure.
	Method Method
	// EyeTorsion selects torsion calibration. TorsionAlways requires a
	// license covering eye torsion.
	EyeTorsion TorsionMode
}

// Target is one calibration target to render.
type Target struct {
	// Position is the target position in HMD coordinates.
	Position geom.Vec3
	// RecommendedSize is the suggested render diameter, in meters. Zero
	// means the target should not be displayed.
	RecommendedSize float64
}

// Data carries everything the prioritized renderer needs to draw the
// current state of the process.
type Data struct {
	Method Method
	State  State
	// Targets holds the current per-eye targets. With EyeByEyeDisabled
	// both entries are identical.
	TargetLeft  Target
	TargetRight Target
}
